package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateCatalogParams represents parameters for recording an indexed catalog
type CreateCatalogParams struct {
	Name              string
	OpenAIFileID      string
	VectorStoreFileID string
	Status            string
}

const sqlCreateCatalog = `
INSERT INTO catalogs (name, openai_file_id, vector_store_file_id, status)
VALUES ($1, $2, $3, $4)
RETURNING id, name, openai_file_id, vector_store_file_id, status, created_at
`

// CreateCatalog records a catalog that was indexed into the assistant
func (s *Store) CreateCatalog(ctx context.Context, params CreateCatalogParams) (Catalog, error) {
	var catalog Catalog
	err := s.db.GetContext(ctx, &catalog, sqlCreateCatalog,
		params.Name,
		params.OpenAIFileID,
		params.VectorStoreFileID,
		params.Status)
	if err != nil {
		s.logger.Error(ctx, "failed to create catalog", err)
		return Catalog{}, fmt.Errorf("failed to create catalog: %w", err)
	}
	return catalog, nil
}

const sqlGetCatalogByID = `
SELECT id, name, openai_file_id, vector_store_file_id, status, created_at
FROM catalogs
WHERE id = $1
`

// GetCatalogByID retrieves a catalog by ID
func (s *Store) GetCatalogByID(ctx context.Context, catalogID uuid.UUID) (Catalog, error) {
	var catalog Catalog
	err := s.db.GetContext(ctx, &catalog, sqlGetCatalogByID, catalogID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Catalog{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get catalog by id", err)
		return Catalog{}, fmt.Errorf("failed to get catalog by id: %w", err)
	}
	return catalog, nil
}

const sqlListCatalogs = `
SELECT id, name, openai_file_id, vector_store_file_id, status, created_at
FROM catalogs
ORDER BY created_at DESC
`

// ListCatalogs retrieves all indexed catalogs, most recent first
func (s *Store) ListCatalogs(ctx context.Context) ([]Catalog, error) {
	var catalogs []Catalog
	err := s.db.SelectContext(ctx, &catalogs, sqlListCatalogs)
	if err != nil {
		s.logger.Error(ctx, "failed to list catalogs", err)
		return nil, fmt.Errorf("failed to list catalogs: %w", err)
	}
	return catalogs, nil
}

const sqlCountCatalogs = `
SELECT COUNT(*) FROM catalogs WHERE status = $1
`

// CountCatalogsByStatus returns the number of catalogs in the given status
func (s *Store) CountCatalogsByStatus(ctx context.Context, status string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, sqlCountCatalogs, status)
	if err != nil {
		s.logger.Error(ctx, "failed to count catalogs", err)
		return 0, fmt.Errorf("failed to count catalogs: %w", err)
	}
	return count, nil
}

const sqlDeleteAllCatalogs = `
DELETE FROM catalogs
`

// DeleteAllCatalogs removes every catalog row. Remote file cleanup happens
// before this is called.
func (s *Store) DeleteAllCatalogs(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqlDeleteAllCatalogs)
	if err != nil {
		s.logger.Error(ctx, "failed to delete catalogs", err)
		return fmt.Errorf("failed to delete catalogs: %w", err)
	}
	return nil
}
