package processor

import (
	"atacado-server/internal/clients/bling"
	"atacado-server/internal/observability"
	"atacado-server/internal/store"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrInvalidOrder           = errors.New("order is missing required fields")
	ErrEmptyOrderSet          = errors.New("order set is empty")
	ErrOrderNotFound          = errors.New("order not found")
	ErrPreviewFailed          = errors.New("message preview failed")
	ErrLinkAlreadyGenerated   = errors.New("payment link already generated")
	ErrLinkPending            = errors.New("payment link generation in progress")
	ErrSendFailed             = errors.New("message dispatch failed for all recipients")
	ErrTargetCampaignNotFound = errors.New("target campaign not found")
)

// OrderStore defines the database operations required by FulfillmentComposer
type OrderStore interface {
	CreateOrder(ctx context.Context, params store.CreateOrderParams) (store.Order, error)
	GetOrderByID(ctx context.Context, orderID uuid.UUID) (store.Order, error)
	GetOrdersByIDs(ctx context.Context, orderIDs store.UUIDArray) ([]store.Order, error)
	ListOrdersByCampaign(ctx context.Context, campaignID uuid.UUID) ([]store.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string) (store.Order, error)
	SetOrderPaymentLink(ctx context.Context, orderIDs store.UUIDArray, linkURL, status string) error
	MoveOrders(ctx context.Context, orderIDs store.UUIDArray, targetCampaignID uuid.UUID) (int64, error)
	GetCampaignByID(ctx context.Context, campaignID uuid.UUID) (store.Campaign, error)
	GetClientMappingByPhone(ctx context.Context, phone string) (store.ClientMapping, error)
}

// CRMClient syncs orders into Bling before payment
type CRMClient interface {
	SyncOpenOrders(ctx context.Context, items []bling.OrderSyncItem) error
}

// PaymentLinkClient creates hosted payment links
type PaymentLinkClient interface {
	CreatePaymentLink(ctx context.Context, description string, amountCents int64) (string, error)
}

// Messenger dispatches WhatsApp messages
type Messenger interface {
	SendMessage(ctx context.Context, toNumber, body string) (string, error)
}

// Mailer sends the optional email copy of a confirmation
type Mailer interface {
	SendEmail(ctx context.Context, from, to, subject, htmlContent string) (string, error)
}

type linkState int

const (
	linkNone linkState = iota
	linkPending
	linkDone
)

// composeSession tracks the draft and payment link lifecycle for one order set
type composeSession struct {
	draft        string
	link         linkState
	linkURL      string
	linkAppended bool
}

// FulfillmentComposer drives order confirmation: preview, one payment link
// per order set, then per-recipient dispatch.
type FulfillmentComposer struct {
	store       OrderStore
	crm         CRMClient
	payments    PaymentLinkClient
	messenger   Messenger
	mailer      Mailer
	emailSender string
	logger      *observability.Logger

	mu       sync.Mutex
	sessions map[string]*composeSession
}

func New(store OrderStore, crm CRMClient, payments PaymentLinkClient, messenger Messenger,
	mailer Mailer, emailSender string, logger *observability.Logger) *FulfillmentComposer {
	return &FulfillmentComposer{
		store:       store,
		crm:         crm,
		payments:    payments,
		messenger:   messenger,
		mailer:      mailer,
		emailSender: emailSender,
		logger:      logger,
		sessions:    make(map[string]*composeSession),
	}
}

// Preview composes the confirmation draft for an order set. A preview is
// required before the set can be sent.
func (f *FulfillmentComposer) Preview(ctx context.Context, orderIDs []uuid.UUID, customMessage string) (string, error) {
	orders, err := f.loadOrders(ctx, orderIDs)
	if err != nil {
		return "", err
	}

	draft, err := composeDraft(orders, customMessage)
	if err != nil {
		f.logger.Error(ctx, "failed to compose preview", err)
		return "", fmt.Errorf("%w: %s", ErrPreviewFailed, err)
	}

	key := sessionKey(orderIDs)
	f.mu.Lock()
	s := f.sessions[key]
	if s == nil {
		s = &composeSession{}
		f.sessions[key] = s
	}
	// Recomposing replaces the draft, so the link is re-appended to keep
	// exactly one occurrence per draft
	s.draft = draft
	s.linkAppended = false
	if s.link == linkDone {
		s.draft = appendLink(s.draft, s.linkURL)
		s.linkAppended = true
	}
	draft = s.draft
	f.mu.Unlock()

	return draft, nil
}

// GeneratePaymentLink syncs the orders into Bling as open and creates a
// single payment link for the set. One invocation per session.
func (f *FulfillmentComposer) GeneratePaymentLink(ctx context.Context, orderIDs []uuid.UUID) (string, error) {
	orders, err := f.loadOrders(ctx, orderIDs)
	if err != nil {
		return "", err
	}

	key := sessionKey(orderIDs)
	f.mu.Lock()
	s := f.sessions[key]
	if s == nil {
		s = &composeSession{}
		f.sessions[key] = s
	}
	switch s.link {
	case linkPending:
		f.mu.Unlock()
		return "", ErrLinkPending
	case linkDone:
		f.mu.Unlock()
		return "", ErrLinkAlreadyGenerated
	}
	s.link = linkPending
	f.mu.Unlock()

	linkURL, err := f.generateLink(ctx, orders)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		// The session may retry after a failed attempt
		s.link = linkNone
		return "", err
	}
	s.link = linkDone
	s.linkURL = linkURL
	if s.draft != "" && !s.linkAppended {
		s.draft = appendLink(s.draft, linkURL)
		s.linkAppended = true
	}
	return linkURL, nil
}

func (f *FulfillmentComposer) generateLink(ctx context.Context, orders []store.Order) (string, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "order_count", Value: len(orders)},
	)

	var total int64
	syncItems := make([]bling.OrderSyncItem, 0, len(orders))
	orderIDs := make(store.UUIDArray, 0, len(orders))
	for _, order := range orders {
		total += order.TotalCents
		orderIDs = append(orderIDs, order.ID)

		contactID := ""
		mapping, err := f.store.GetClientMappingByPhone(ctx, order.CustomerPhone)
		if err == nil {
			contactID = mapping.BlingClientID
		} else if !errors.Is(err, store.ErrNotFound) {
			return "", err
		}

		syncItems = append(syncItems, bling.OrderSyncItem{
			OrderID:      order.ID.String(),
			ContactID:    contactID,
			TotalCents:   order.TotalCents,
			CustomerName: order.CustomerName,
		})
	}

	if err := f.crm.SyncOpenOrders(ctx, syncItems); err != nil {
		f.logger.Error(ctx, "failed to sync orders to bling", err)
		return "", err
	}

	description := fmt.Sprintf("Pedidos atacado (%d)", len(orders))
	linkURL, err := f.payments.CreatePaymentLink(ctx, description, total)
	if err != nil {
		f.logger.Error(ctx, "failed to create payment link", err)
		return "", err
	}

	if err := f.store.SetOrderPaymentLink(ctx, orderIDs, linkURL, store.OrderStatusOpen); err != nil {
		return "", err
	}

	f.logger.Info(ctx, "payment link generated")
	return linkURL, nil
}

// SendResult reports per-recipient dispatch outcomes
type SendResult struct {
	Sent   []string `json:"sent"`
	Failed []string `json:"failed"`
}

// Send dispatches the confirmation to every recipient in the order set.
// The set must be previewed first, and is blocked while a payment link
// call is in flight. Partial failures are reported, not fatal.
func (f *FulfillmentComposer) Send(ctx context.Context, orderIDs []uuid.UUID, body string) (SendResult, error) {
	orders, err := f.loadOrders(ctx, orderIDs)
	if err != nil {
		return SendResult{}, err
	}

	key := sessionKey(orderIDs)
	f.mu.Lock()
	s := f.sessions[key]
	if s == nil || s.draft == "" {
		f.mu.Unlock()
		return SendResult{}, ErrPreviewFailed
	}
	if s.link == linkPending {
		f.mu.Unlock()
		return SendResult{}, ErrLinkPending
	}
	if body == "" {
		body = s.draft
	}
	f.mu.Unlock()

	ctx = observability.WithFields(ctx,
		observability.Field{Key: "order_count", Value: len(orders)},
	)

	result := SendResult{Sent: []string{}, Failed: []string{}}
	seen := make(map[string]bool)
	for _, order := range orders {
		if seen[order.CustomerPhone] {
			continue
		}
		seen[order.CustomerPhone] = true

		if _, err := f.messenger.SendMessage(ctx, order.CustomerPhone, body); err != nil {
			f.logger.Error(ctx, "failed to send confirmation", err)
			result.Failed = append(result.Failed, order.CustomerPhone)
			continue
		}
		result.Sent = append(result.Sent, order.CustomerPhone)

		// Email copy is best effort
		if f.mailer != nil && order.CustomerEmail != nil && *order.CustomerEmail != "" {
			html := "<p>" + strings.ReplaceAll(body, "\n", "<br>") + "</p>"
			if _, err := f.mailer.SendEmail(ctx, f.emailSender, *order.CustomerEmail,
				"Confirmação do seu pedido", html); err != nil {
				f.logger.Error(ctx, "failed to send email copy", err)
			}
		}
	}

	if len(result.Sent) == 0 && len(result.Failed) > 0 {
		return result, ErrSendFailed
	}

	// Orders whose recipient got the confirmation advance to confirmed
	sentPhones := make(map[string]bool, len(result.Sent))
	for _, phone := range result.Sent {
		sentPhones[phone] = true
	}
	for _, order := range orders {
		if !sentPhones[order.CustomerPhone] {
			continue
		}
		if _, err := f.store.UpdateOrderStatus(ctx, order.ID, store.OrderStatusConfirmed); err != nil {
			f.logger.Error(ctx, "failed to mark order confirmed", err)
		}
	}

	f.mu.Lock()
	delete(f.sessions, key)
	f.mu.Unlock()

	return result, nil
}

// CreateOrder registers an incoming storefront order as a draft
func (f *FulfillmentComposer) CreateOrder(ctx context.Context, params store.CreateOrderParams) (store.Order, error) {
	params.CustomerName = strings.TrimSpace(params.CustomerName)
	params.CustomerPhone = strings.TrimSpace(params.CustomerPhone)
	if params.CustomerName == "" || params.CustomerPhone == "" || params.TotalCents <= 0 {
		return store.Order{}, ErrInvalidOrder
	}
	if params.Status == "" {
		params.Status = store.OrderStatusDraft
	}

	if params.CampaignID != nil {
		if _, err := f.store.GetCampaignByID(ctx, *params.CampaignID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return store.Order{}, ErrTargetCampaignNotFound
			}
			return store.Order{}, err
		}
	}

	return f.store.CreateOrder(ctx, params)
}

// GetOrder retrieves a single order
func (f *FulfillmentComposer) GetOrder(ctx context.Context, orderID uuid.UUID) (store.Order, error) {
	order, err := f.store.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Order{}, ErrOrderNotFound
		}
		return store.Order{}, err
	}
	return order, nil
}

// ListByCampaign returns a campaign's orders
func (f *FulfillmentComposer) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]store.Order, error) {
	if _, err := f.store.GetCampaignByID(ctx, campaignID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTargetCampaignNotFound
		}
		return nil, err
	}
	return f.store.ListOrdersByCampaign(ctx, campaignID)
}

// Move reassigns an order set to another campaign
func (f *FulfillmentComposer) Move(ctx context.Context, orderIDs []uuid.UUID, targetCampaignID uuid.UUID) (int64, error) {
	if len(orderIDs) == 0 {
		return 0, ErrEmptyOrderSet
	}

	if _, err := f.store.GetCampaignByID(ctx, targetCampaignID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, ErrTargetCampaignNotFound
		}
		return 0, err
	}

	if _, err := f.loadOrders(ctx, orderIDs); err != nil {
		return 0, err
	}

	moved, err := f.store.MoveOrders(ctx, store.UUIDArray(orderIDs), targetCampaignID)
	if err != nil {
		return 0, err
	}

	f.logger.Info(ctx, fmt.Sprintf("moved %d orders", moved))
	return moved, nil
}

func (f *FulfillmentComposer) loadOrders(ctx context.Context, orderIDs []uuid.UUID) ([]store.Order, error) {
	if len(orderIDs) == 0 {
		return nil, ErrEmptyOrderSet
	}

	orders, err := f.store.GetOrdersByIDs(ctx, store.UUIDArray(orderIDs))
	if err != nil {
		return nil, err
	}
	if len(orders) != len(orderIDs) {
		return nil, ErrOrderNotFound
	}
	return orders, nil
}

// sessionKey canonicalizes an order set so the same set always maps to the
// same session regardless of request ordering
func sessionKey(orderIDs []uuid.UUID) string {
	ids := make([]string, len(orderIDs))
	for i, id := range orderIDs {
		ids[i] = id.String()
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

func composeDraft(orders []store.Order, customMessage string) (string, error) {
	if len(orders) == 0 {
		return "", errors.New("no orders to compose")
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Olá %s!\n\n", orders[0].CustomerName))
	b.WriteString("Seu pedido foi confirmado:\n")
	var total int64
	for _, order := range orders {
		total += order.TotalCents
		b.WriteString(fmt.Sprintf("- Pedido %s: %s\n", shortID(order.ID), formatBRL(order.TotalCents)))
	}
	b.WriteString(fmt.Sprintf("\nTotal: %s\n", formatBRL(total)))
	if customMessage != "" {
		b.WriteString("\n" + customMessage + "\n")
	}
	return b.String(), nil
}

func appendLink(draft, linkURL string) string {
	return draft + "\nPague aqui: " + linkURL + "\n"
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func formatBRL(cents int64) string {
	return fmt.Sprintf("R$ %d,%02d", cents/100, cents%100)
}
