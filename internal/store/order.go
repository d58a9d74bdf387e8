package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateOrderParams represents parameters for creating an order
type CreateOrderParams struct {
	CampaignID    *uuid.UUID
	CustomerName  string
	CustomerPhone string
	CustomerEmail *string
	TotalCents    int64
	Status        string
}

const sqlCreateOrder = `
INSERT INTO orders (campaign_id, customer_name, customer_phone, customer_email, total_cents, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, campaign_id, customer_name, customer_phone, customer_email, total_cents, status, payment_link_url, created_at, updated_at
`

// CreateOrder creates an order row
func (s *Store) CreateOrder(ctx context.Context, params CreateOrderParams) (Order, error) {
	var order Order
	err := s.db.GetContext(ctx, &order, sqlCreateOrder,
		params.CampaignID,
		params.CustomerName,
		params.CustomerPhone,
		params.CustomerEmail,
		params.TotalCents,
		params.Status)
	if err != nil {
		s.logger.Error(ctx, "failed to create order", err)
		return Order{}, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

const sqlGetOrderByID = `
SELECT id, campaign_id, customer_name, customer_phone, customer_email, total_cents, status, payment_link_url, created_at, updated_at
FROM orders
WHERE id = $1
`

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, orderID uuid.UUID) (Order, error) {
	var order Order
	err := s.db.GetContext(ctx, &order, sqlGetOrderByID, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get order by id", err)
		return Order{}, fmt.Errorf("failed to get order by id: %w", err)
	}
	return order, nil
}

const sqlGetOrdersByIDs = `
SELECT id, campaign_id, customer_name, customer_phone, customer_email, total_cents, status, payment_link_url, created_at, updated_at
FROM orders
WHERE id = ANY($1)
ORDER BY created_at
`

// GetOrdersByIDs retrieves the orders for a set of IDs
func (s *Store) GetOrdersByIDs(ctx context.Context, orderIDs UUIDArray) ([]Order, error) {
	var orders []Order
	err := s.db.SelectContext(ctx, &orders, sqlGetOrdersByIDs, orderIDs)
	if err != nil {
		s.logger.Error(ctx, "failed to get orders by ids", err)
		return nil, fmt.Errorf("failed to get orders by ids: %w", err)
	}
	return orders, nil
}

const sqlListOrdersByCampaign = `
SELECT id, campaign_id, customer_name, customer_phone, customer_email, total_cents, status, payment_link_url, created_at, updated_at
FROM orders
WHERE campaign_id = $1
ORDER BY created_at DESC
`

// ListOrdersByCampaign retrieves all orders for a campaign
func (s *Store) ListOrdersByCampaign(ctx context.Context, campaignID uuid.UUID) ([]Order, error) {
	var orders []Order
	err := s.db.SelectContext(ctx, &orders, sqlListOrdersByCampaign, campaignID)
	if err != nil {
		s.logger.Error(ctx, "failed to list orders by campaign", err)
		return nil, fmt.Errorf("failed to list orders by campaign: %w", err)
	}
	return orders, nil
}

const sqlUpdateOrderStatus = `
UPDATE orders
SET status = $2, updated_at = CURRENT_TIMESTAMP
WHERE id = $1
RETURNING id, campaign_id, customer_name, customer_phone, customer_email, total_cents, status, payment_link_url, created_at, updated_at
`

// UpdateOrderStatus updates an order's status
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string) (Order, error) {
	var order Order
	err := s.db.GetContext(ctx, &order, sqlUpdateOrderStatus, orderID, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to update order status", err)
		return Order{}, fmt.Errorf("failed to update order status: %w", err)
	}
	return order, nil
}

const sqlSetOrderPaymentLink = `
UPDATE orders
SET payment_link_url = $2, status = $3, updated_at = CURRENT_TIMESTAMP
WHERE id = ANY($1)
`

// SetOrderPaymentLink records the payment link on every order of a set
func (s *Store) SetOrderPaymentLink(ctx context.Context, orderIDs UUIDArray, linkURL, status string) error {
	_, err := s.db.ExecContext(ctx, sqlSetOrderPaymentLink, orderIDs, linkURL, status)
	if err != nil {
		s.logger.Error(ctx, "failed to set order payment link", err)
		return fmt.Errorf("failed to set order payment link: %w", err)
	}
	return nil
}

const sqlMoveOrders = `
UPDATE orders
SET campaign_id = $2, updated_at = CURRENT_TIMESTAMP
WHERE id = ANY($1)
`

// MoveOrders reassigns a set of orders to another campaign
func (s *Store) MoveOrders(ctx context.Context, orderIDs UUIDArray, targetCampaignID uuid.UUID) (int64, error) {
	res, err := s.db.ExecContext(ctx, sqlMoveOrders, orderIDs, targetCampaignID)
	if err != nil {
		s.logger.Error(ctx, "failed to move orders", err)
		return 0, fmt.Errorf("failed to move orders: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		s.logger.Error(ctx, "failed to get rows affected", err)
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}
