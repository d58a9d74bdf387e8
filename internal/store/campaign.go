package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateCampaignParams represents parameters for creating a campaign
type CreateCampaignParams struct {
	Name             string
	StartDate        *time.Time
	EndDate          *time.Time
	MarkupPercentage int
	TargetGroups     UUIDArray
}

// UpdateCampaignParams represents parameters for partially updating a campaign
type UpdateCampaignParams struct {
	Name             *string
	StartDate        *time.Time
	EndDate          *time.Time
	MarkupPercentage *int
	TargetGroups     *UUIDArray
}

const sqlCreateCampaign = `
INSERT INTO campaigns (name, start_date, end_date, markup_percentage, target_groups)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, name, start_date, end_date, is_active, activated_at, markup_percentage, target_groups, visual_document_id, created_at, updated_at, deleted_at
`

// CreateCampaign creates a new campaign
func (s *Store) CreateCampaign(ctx context.Context, params CreateCampaignParams) (Campaign, error) {
	var campaign Campaign
	err := s.db.GetContext(ctx, &campaign, sqlCreateCampaign,
		params.Name,
		params.StartDate,
		params.EndDate,
		params.MarkupPercentage,
		params.TargetGroups)
	if err != nil {
		s.logger.Error(ctx, "failed to create campaign", err)
		return Campaign{}, fmt.Errorf("failed to create campaign: %w", err)
	}
	return campaign, nil
}

const sqlGetCampaignByID = `
SELECT id, name, start_date, end_date, is_active, activated_at, markup_percentage, target_groups, visual_document_id, created_at, updated_at, deleted_at
FROM campaigns
WHERE id = $1 AND deleted_at IS NULL
`

// GetCampaignByID retrieves a campaign by ID with its attached documents
func (s *Store) GetCampaignByID(ctx context.Context, campaignID uuid.UUID) (Campaign, error) {
	var campaign Campaign
	err := s.db.GetContext(ctx, &campaign, sqlGetCampaignByID, campaignID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Campaign{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get campaign by id", err)
		return Campaign{}, fmt.Errorf("failed to get campaign by id: %w", err)
	}

	documents, err := s.GetCampaignDocuments(ctx, campaign.ID)
	if err != nil {
		s.logger.Error(ctx, "failed to load campaign documents", err)
		return Campaign{}, fmt.Errorf("failed to load campaign documents: %w", err)
	}
	campaign.Documents = documents

	return campaign, nil
}

const sqlListCampaigns = `
SELECT id, name, start_date, end_date, is_active, activated_at, markup_percentage, target_groups, visual_document_id, created_at, updated_at, deleted_at
FROM campaigns
WHERE deleted_at IS NULL
ORDER BY created_at DESC
`

// ListCampaigns retrieves all campaigns, most recent first
func (s *Store) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	var campaigns []Campaign
	err := s.db.SelectContext(ctx, &campaigns, sqlListCampaigns)
	if err != nil {
		s.logger.Error(ctx, "failed to list campaigns", err)
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

const sqlGetPrimaryCampaign = `
SELECT id, name, start_date, end_date, is_active, activated_at, markup_percentage, target_groups, visual_document_id, created_at, updated_at, deleted_at
FROM campaigns
WHERE is_active = TRUE AND deleted_at IS NULL
ORDER BY activated_at DESC NULLS LAST
LIMIT 1
`

// GetPrimaryCampaign retrieves the most recently activated active campaign
func (s *Store) GetPrimaryCampaign(ctx context.Context) (Campaign, error) {
	var campaign Campaign
	err := s.db.GetContext(ctx, &campaign, sqlGetPrimaryCampaign)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Campaign{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get primary campaign", err)
		return Campaign{}, fmt.Errorf("failed to get primary campaign: %w", err)
	}
	return campaign, nil
}

const sqlUpdateCampaign = `
UPDATE campaigns
SET name = COALESCE($2, name),
    start_date = COALESCE($3, start_date),
    end_date = COALESCE($4, end_date),
    markup_percentage = COALESCE($5, markup_percentage),
    target_groups = COALESCE($6, target_groups),
    updated_at = CURRENT_TIMESTAMP
WHERE id = $1 AND deleted_at IS NULL
RETURNING id, name, start_date, end_date, is_active, activated_at, markup_percentage, target_groups, visual_document_id, created_at, updated_at, deleted_at
`

// UpdateCampaign partially updates a campaign
func (s *Store) UpdateCampaign(ctx context.Context, campaignID uuid.UUID, params UpdateCampaignParams) (Campaign, error) {
	var campaign Campaign
	err := s.db.GetContext(ctx, &campaign, sqlUpdateCampaign,
		campaignID,
		params.Name,
		params.StartDate,
		params.EndDate,
		params.MarkupPercentage,
		params.TargetGroups)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Campaign{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to update campaign", err)
		return Campaign{}, fmt.Errorf("failed to update campaign: %w", err)
	}
	return campaign, nil
}

const sqlSetCampaignActivation = `
UPDATE campaigns
SET is_active = $2,
    activated_at = CASE WHEN $2 AND NOT is_active THEN CURRENT_TIMESTAMP ELSE activated_at END,
    updated_at = CURRENT_TIMESTAMP
WHERE id = $1 AND deleted_at IS NULL
RETURNING id, name, start_date, end_date, is_active, activated_at, markup_percentage, target_groups, visual_document_id, created_at, updated_at, deleted_at
`

// SetCampaignActivation toggles a campaign's active flag. The inactive to
// active edge stamps activated_at so the most recent activation wins as
// primary; re-activating an active campaign changes nothing.
func (s *Store) SetCampaignActivation(ctx context.Context, campaignID uuid.UUID, active bool) (Campaign, error) {
	var campaign Campaign
	err := s.db.GetContext(ctx, &campaign, sqlSetCampaignActivation, campaignID, active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Campaign{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to set campaign activation", err)
		return Campaign{}, fmt.Errorf("failed to set campaign activation: %w", err)
	}
	return campaign, nil
}

const sqlSetCampaignVisualDocument = `
UPDATE campaigns
SET visual_document_id = $2, updated_at = CURRENT_TIMESTAMP
WHERE id = $1 AND deleted_at IS NULL
`

// SetCampaignVisualDocument points a campaign at its current visual reference
func (s *Store) SetCampaignVisualDocument(ctx context.Context, campaignID, documentID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, sqlSetCampaignVisualDocument, campaignID, documentID)
	if err != nil {
		s.logger.Error(ctx, "failed to set campaign visual document", err)
		return fmt.Errorf("failed to set campaign visual document: %w", err)
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

const sqlDeleteCampaign = `
UPDATE campaigns
SET deleted_at = CURRENT_TIMESTAMP
WHERE id = $1 AND deleted_at IS NULL
`

// DeleteCampaign soft deletes a campaign
func (s *Store) DeleteCampaign(ctx context.Context, campaignID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, sqlDeleteCampaign, campaignID)
	if err != nil {
		s.logger.Error(ctx, "failed to delete campaign", err)
		return fmt.Errorf("failed to delete campaign: %w", err)
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
