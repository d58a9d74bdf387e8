package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CreateCampaignDocumentParams represents parameters for attaching a document to a campaign
type CreateCampaignDocumentParams struct {
	CampaignID   uuid.UUID
	Kind         string
	FileName     string
	DeclaredName string
	ContentType  string
	ByteSize     int64
	Position     int
	Content      []byte
}

const sqlCreateCampaignDocument = `
INSERT INTO campaign_documents (campaign_id, kind, file_name, declared_name, content_type, byte_size, position, content)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, campaign_id, kind, file_name, declared_name, content_type, byte_size, position, created_at
`

// CreateCampaignDocument attaches a document row to a campaign
func (s *Store) CreateCampaignDocument(ctx context.Context, params CreateCampaignDocumentParams) (CampaignDocument, error) {
	var document CampaignDocument
	err := s.db.GetContext(ctx, &document, sqlCreateCampaignDocument,
		params.CampaignID,
		params.Kind,
		params.FileName,
		params.DeclaredName,
		params.ContentType,
		params.ByteSize,
		params.Position,
		params.Content)
	if err != nil {
		s.logger.Error(ctx, "failed to create campaign document", err)
		return CampaignDocument{}, fmt.Errorf("failed to create campaign document: %w", err)
	}
	return document, nil
}

const sqlGetCampaignDocuments = `
SELECT id, campaign_id, kind, file_name, declared_name, content_type, byte_size, position, created_at
FROM campaign_documents
WHERE campaign_id = $1
ORDER BY kind, position
`

// GetCampaignDocuments retrieves all documents attached to a campaign
func (s *Store) GetCampaignDocuments(ctx context.Context, campaignID uuid.UUID) ([]CampaignDocument, error) {
	var documents []CampaignDocument
	err := s.db.SelectContext(ctx, &documents, sqlGetCampaignDocuments, campaignID)
	if err != nil {
		s.logger.Error(ctx, "failed to get campaign documents", err)
		return nil, fmt.Errorf("failed to get campaign documents: %w", err)
	}
	return documents, nil
}

const sqlGetCampaignDocumentsWithContent = `
SELECT id, campaign_id, kind, file_name, declared_name, content_type, byte_size, position, content, created_at
FROM campaign_documents
WHERE campaign_id = $1
ORDER BY kind, position
`

// GetCampaignDocumentsWithContent retrieves campaign documents including
// their stored bytes. Used for markup generation, listings stay light.
func (s *Store) GetCampaignDocumentsWithContent(ctx context.Context, campaignID uuid.UUID) ([]CampaignDocument, error) {
	var documents []CampaignDocument
	err := s.db.SelectContext(ctx, &documents, sqlGetCampaignDocumentsWithContent, campaignID)
	if err != nil {
		s.logger.Error(ctx, "failed to get campaign documents with content", err)
		return nil, fmt.Errorf("failed to get campaign documents with content: %w", err)
	}
	return documents, nil
}

const sqlDeleteCampaignDocumentsByKind = `
DELETE FROM campaign_documents
WHERE campaign_id = $1 AND kind = $2
`

// DeleteCampaignDocumentsByKind removes all documents of a kind from a campaign.
// Used when a new visual reference replaces the previous one.
func (s *Store) DeleteCampaignDocumentsByKind(ctx context.Context, campaignID uuid.UUID, kind string) error {
	_, err := s.db.ExecContext(ctx, sqlDeleteCampaignDocumentsByKind, campaignID, kind)
	if err != nil {
		s.logger.Error(ctx, "failed to delete campaign documents", err)
		return fmt.Errorf("failed to delete campaign documents: %w", err)
	}
	return nil
}

const sqlGetNextDocumentPosition = `
SELECT COALESCE(MAX(position), -1) + 1
FROM campaign_documents
WHERE campaign_id = $1 AND kind = $2
`

// GetNextDocumentPosition returns the next append position for a document kind
func (s *Store) GetNextDocumentPosition(ctx context.Context, campaignID uuid.UUID, kind string) (int, error) {
	var position int
	err := s.db.GetContext(ctx, &position, sqlGetNextDocumentPosition, campaignID, kind)
	if err != nil {
		s.logger.Error(ctx, "failed to get next document position", err)
		return 0, fmt.Errorf("failed to get next document position: %w", err)
	}
	return position, nil
}
