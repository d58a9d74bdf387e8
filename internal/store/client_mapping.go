package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// UpsertClientMappingParams represents parameters for confirming a client mapping
type UpsertClientMappingParams struct {
	CustomerPhone    string
	BlingClientID    string
	BlingClientName  string
	BlingClientTaxID string
}

const sqlUpsertClientMapping = `
INSERT INTO client_mappings (customer_phone, bling_client_id, bling_client_name, bling_client_tax_id, updated_at)
VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
ON CONFLICT (customer_phone)
DO UPDATE SET bling_client_id = EXCLUDED.bling_client_id,
              bling_client_name = EXCLUDED.bling_client_name,
              bling_client_tax_id = EXCLUDED.bling_client_tax_id,
              updated_at = CURRENT_TIMESTAMP
RETURNING customer_phone, bling_client_id, bling_client_name, bling_client_tax_id, updated_at
`

// UpsertClientMapping stores the confirmed CRM client for a phone number.
// Last write wins.
func (s *Store) UpsertClientMapping(ctx context.Context, params UpsertClientMappingParams) (ClientMapping, error) {
	var mapping ClientMapping
	err := s.db.GetContext(ctx, &mapping, sqlUpsertClientMapping,
		params.CustomerPhone,
		params.BlingClientID,
		params.BlingClientName,
		params.BlingClientTaxID)
	if err != nil {
		s.logger.Error(ctx, "failed to upsert client mapping", err)
		return ClientMapping{}, fmt.Errorf("failed to upsert client mapping: %w", err)
	}
	return mapping, nil
}

const sqlGetClientMappingByPhone = `
SELECT customer_phone, bling_client_id, bling_client_name, bling_client_tax_id, updated_at
FROM client_mappings
WHERE customer_phone = $1
`

// GetClientMappingByPhone retrieves the confirmed mapping for a phone number
func (s *Store) GetClientMappingByPhone(ctx context.Context, phone string) (ClientMapping, error) {
	var mapping ClientMapping
	err := s.db.GetContext(ctx, &mapping, sqlGetClientMappingByPhone, phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ClientMapping{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get client mapping by phone", err)
		return ClientMapping{}, fmt.Errorf("failed to get client mapping by phone: %w", err)
	}
	return mapping, nil
}

const sqlDeleteClientMapping = `
DELETE FROM client_mappings
WHERE customer_phone = $1
`

// DeleteClientMapping removes the mapping for a phone number
func (s *Store) DeleteClientMapping(ctx context.Context, phone string) error {
	res, err := s.db.ExecContext(ctx, sqlDeleteClientMapping, phone)
	if err != nil {
		s.logger.Error(ctx, "failed to delete client mapping", err)
		return fmt.Errorf("failed to delete client mapping: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		s.logger.Error(ctx, "failed to get rows affected", err)
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
