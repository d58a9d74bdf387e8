package processor

import (
	"atacado-server/internal/clients/pdfengine"
	"atacado-server/internal/observability"
	"atacado-server/internal/store"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCampaignNotFound      = errors.New("campaign not found")
	ErrEmptyName             = errors.New("campaign name must not be empty")
	ErrInvalidMarkup         = errors.New("markup percentage must be non-negative")
	ErrUnknownTargetGroup    = errors.New("unknown target group")
	ErrInvalidDateRange      = errors.New("end date precedes start date")
	ErrMissingVisualDocument = errors.New("campaign has no visual document")
)

// CampaignStore defines the database operations required by CampaignProcessor
type CampaignStore interface {
	CreateCampaign(ctx context.Context, params store.CreateCampaignParams) (store.Campaign, error)
	GetCampaignByID(ctx context.Context, campaignID uuid.UUID) (store.Campaign, error)
	ListCampaigns(ctx context.Context) ([]store.Campaign, error)
	GetPrimaryCampaign(ctx context.Context) (store.Campaign, error)
	UpdateCampaign(ctx context.Context, campaignID uuid.UUID, params store.UpdateCampaignParams) (store.Campaign, error)
	SetCampaignActivation(ctx context.Context, campaignID uuid.UUID, active bool) (store.Campaign, error)
	SetCampaignVisualDocument(ctx context.Context, campaignID, documentID uuid.UUID) error
	DeleteCampaign(ctx context.Context, campaignID uuid.UUID) error

	CreateCampaignDocument(ctx context.Context, params store.CreateCampaignDocumentParams) (store.CampaignDocument, error)
	GetCampaignDocuments(ctx context.Context, campaignID uuid.UUID) ([]store.CampaignDocument, error)
	GetCampaignDocumentsWithContent(ctx context.Context, campaignID uuid.UUID) ([]store.CampaignDocument, error)
	DeleteCampaignDocumentsByKind(ctx context.Context, campaignID uuid.UUID, kind string) error
	GetNextDocumentPosition(ctx context.Context, campaignID uuid.UUID, kind string) (int, error)

	ListTargetGroups(ctx context.Context) ([]store.TargetGroup, error)
	CreateTargetGroup(ctx context.Context, name string) (store.TargetGroup, error)
	TargetGroupsExist(ctx context.Context, groupIDs []uuid.UUID) (bool, error)
}

// PDFEngine renders markup catalogs from campaign documents
type PDFEngine interface {
	GenerateMarkup(ctx context.Context, params pdfengine.GenerateMarkupParams) ([]byte, error)
}

type CampaignProcessor struct {
	store  CampaignStore
	engine PDFEngine
	logger *observability.Logger
}

func New(store CampaignStore, engine PDFEngine, logger *observability.Logger) CampaignProcessor {
	return CampaignProcessor{
		store:  store,
		engine: engine,
		logger: logger,
	}
}

// CreateCampaignParams represents a new campaign
type CreateCampaignParams struct {
	Name             string
	StartDate        *time.Time
	EndDate          *time.Time
	MarkupPercentage int
	TargetGroups     []uuid.UUID
}

// CreateCampaign validates and creates a campaign
func (p *CampaignProcessor) CreateCampaign(ctx context.Context, params CreateCampaignParams) (store.Campaign, error) {
	ctx = observability.WithFields(ctx, observability.Field{Key: "campaign_name", Value: params.Name})

	name := strings.TrimSpace(params.Name)
	if name == "" {
		return store.Campaign{}, ErrEmptyName
	}
	if params.MarkupPercentage < 0 {
		return store.Campaign{}, ErrInvalidMarkup
	}
	if err := validateDateRange(params.StartDate, params.EndDate); err != nil {
		return store.Campaign{}, err
	}
	if err := p.validateTargetGroups(ctx, params.TargetGroups); err != nil {
		return store.Campaign{}, err
	}

	campaign, err := p.store.CreateCampaign(ctx, store.CreateCampaignParams{
		Name:             name,
		StartDate:        params.StartDate,
		EndDate:          params.EndDate,
		MarkupPercentage: params.MarkupPercentage,
		TargetGroups:     store.UUIDArray(params.TargetGroups),
	})
	if err != nil {
		p.logger.Error(ctx, "failed to create campaign", err)
		return store.Campaign{}, err
	}

	p.logger.Info(ctx, "campaign created")
	return campaign, nil
}

// GetCampaign retrieves a campaign with its documents
func (p *CampaignProcessor) GetCampaign(ctx context.Context, campaignID uuid.UUID) (store.Campaign, error) {
	campaign, err := p.store.GetCampaignByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Campaign{}, ErrCampaignNotFound
		}
		return store.Campaign{}, err
	}
	return campaign, nil
}

// ListCampaigns returns all campaigns
func (p *CampaignProcessor) ListCampaigns(ctx context.Context) ([]store.Campaign, error) {
	return p.store.ListCampaigns(ctx)
}

// GetPrimaryCampaign returns the most recently activated active campaign.
// Returns ErrCampaignNotFound when no campaign is active.
func (p *CampaignProcessor) GetPrimaryCampaign(ctx context.Context) (store.Campaign, error) {
	campaign, err := p.store.GetPrimaryCampaign(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Campaign{}, ErrCampaignNotFound
		}
		return store.Campaign{}, err
	}
	return campaign, nil
}

// UpdateCampaignParams represents a partial campaign update
type UpdateCampaignParams struct {
	Name             *string
	StartDate        *time.Time
	EndDate          *time.Time
	MarkupPercentage *int
	TargetGroups     []uuid.UUID
}

// UpdateCampaign validates and applies a partial update, then re-reads the row
func (p *CampaignProcessor) UpdateCampaign(ctx context.Context, campaignID uuid.UUID, params UpdateCampaignParams) (store.Campaign, error) {
	ctx = observability.WithFields(ctx, observability.Field{Key: "campaign_id", Value: campaignID.String()})

	if params.Name != nil {
		trimmed := strings.TrimSpace(*params.Name)
		if trimmed == "" {
			return store.Campaign{}, ErrEmptyName
		}
		params.Name = &trimmed
	}
	if params.MarkupPercentage != nil && *params.MarkupPercentage < 0 {
		return store.Campaign{}, ErrInvalidMarkup
	}
	if err := p.validateTargetGroups(ctx, params.TargetGroups); err != nil {
		return store.Campaign{}, err
	}

	current, err := p.GetCampaign(ctx, campaignID)
	if err != nil {
		return store.Campaign{}, err
	}

	// Validate the range against the values that will be in effect
	startDate := current.StartDate
	if params.StartDate != nil {
		startDate = params.StartDate
	}
	endDate := current.EndDate
	if params.EndDate != nil {
		endDate = params.EndDate
	}
	if err := validateDateRange(startDate, endDate); err != nil {
		return store.Campaign{}, err
	}

	storeParams := store.UpdateCampaignParams{
		Name:             params.Name,
		StartDate:        params.StartDate,
		EndDate:          params.EndDate,
		MarkupPercentage: params.MarkupPercentage,
	}
	if params.TargetGroups != nil {
		groups := store.UUIDArray(params.TargetGroups)
		storeParams.TargetGroups = &groups
	}

	if _, err := p.store.UpdateCampaign(ctx, campaignID, storeParams); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Campaign{}, ErrCampaignNotFound
		}
		p.logger.Error(ctx, "failed to update campaign", err)
		return store.Campaign{}, err
	}

	// Server is authoritative, return the refetched row
	return p.GetCampaign(ctx, campaignID)
}

// SetActivation toggles a campaign's active flag. Idempotent.
func (p *CampaignProcessor) SetActivation(ctx context.Context, campaignID uuid.UUID, active bool) (store.Campaign, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "campaign_id", Value: campaignID.String()},
		observability.Field{Key: "active", Value: active},
	)

	campaign, err := p.store.SetCampaignActivation(ctx, campaignID, active)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Campaign{}, ErrCampaignNotFound
		}
		p.logger.Error(ctx, "failed to set campaign activation", err)
		return store.Campaign{}, err
	}
	return campaign, nil
}

// DeleteCampaign soft deletes a campaign
func (p *CampaignProcessor) DeleteCampaign(ctx context.Context, campaignID uuid.UUID) error {
	err := p.store.DeleteCampaign(ctx, campaignID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrCampaignNotFound
	}
	return err
}

// AttachDocumentsParams carries the documents to attach to a campaign
type AttachDocumentsParams struct {
	Visual     *pdfengine.Document
	PriceLists []pdfengine.Document
}

// AttachDocuments stores document rows on a campaign. A new visual replaces
// the previous one, price lists are appended in submission order.
func (p *CampaignProcessor) AttachDocuments(ctx context.Context, campaignID uuid.UUID, params AttachDocumentsParams) (store.Campaign, error) {
	ctx = observability.WithFields(ctx, observability.Field{Key: "campaign_id", Value: campaignID.String()})

	if _, err := p.GetCampaign(ctx, campaignID); err != nil {
		return store.Campaign{}, err
	}

	if params.Visual != nil {
		if err := p.store.DeleteCampaignDocumentsByKind(ctx, campaignID, store.DocumentKindVisual); err != nil {
			return store.Campaign{}, err
		}
		document, err := p.store.CreateCampaignDocument(ctx, store.CreateCampaignDocumentParams{
			CampaignID:   campaignID,
			Kind:         store.DocumentKindVisual,
			FileName:     params.Visual.FileName,
			DeclaredName: params.Visual.FileName,
			ContentType:  "application/pdf",
			ByteSize:     int64(len(params.Visual.Content)),
			Position:     0,
			Content:      params.Visual.Content,
		})
		if err != nil {
			p.logger.Error(ctx, "failed to attach visual document", err)
			return store.Campaign{}, err
		}
		if err := p.store.SetCampaignVisualDocument(ctx, campaignID, document.ID); err != nil {
			return store.Campaign{}, err
		}
	}

	for _, priceList := range params.PriceLists {
		position, err := p.store.GetNextDocumentPosition(ctx, campaignID, store.DocumentKindPrice)
		if err != nil {
			return store.Campaign{}, err
		}
		if _, err := p.store.CreateCampaignDocument(ctx, store.CreateCampaignDocumentParams{
			CampaignID:   campaignID,
			Kind:         store.DocumentKindPrice,
			FileName:     priceList.FileName,
			DeclaredName: priceList.FileName,
			ContentType:  "application/pdf",
			ByteSize:     int64(len(priceList.Content)),
			Position:     position,
			Content:      priceList.Content,
		}); err != nil {
			p.logger.Error(ctx, "failed to attach price list document", err)
			return store.Campaign{}, err
		}
	}

	return p.GetCampaign(ctx, campaignID)
}

// GeneratedCatalog is a rendered markup catalog for a campaign
type GeneratedCatalog struct {
	FileName string
	Content  []byte
}

// Generate renders the campaign's markup catalog from its stored documents
func (p *CampaignProcessor) Generate(ctx context.Context, campaignID uuid.UUID) (GeneratedCatalog, error) {
	ctx = observability.WithFields(ctx, observability.Field{Key: "campaign_id", Value: campaignID.String()})

	campaign, err := p.GetCampaign(ctx, campaignID)
	if err != nil {
		return GeneratedCatalog{}, err
	}

	documents, err := p.store.GetCampaignDocumentsWithContent(ctx, campaignID)
	if err != nil {
		return GeneratedCatalog{}, err
	}

	var visual *pdfengine.Document
	var priceLists []pdfengine.Document
	for _, document := range documents {
		doc := pdfengine.Document{FileName: document.FileName, Content: document.Content}
		switch document.Kind {
		case store.DocumentKindVisual:
			visual = &doc
		case store.DocumentKindPrice:
			priceLists = append(priceLists, doc)
		}
	}
	if visual == nil {
		return GeneratedCatalog{}, ErrMissingVisualDocument
	}

	pdf, err := p.engine.GenerateMarkup(ctx, pdfengine.GenerateMarkupParams{
		Visual:        *visual,
		PriceLists:    priceLists,
		MarkupPercent: campaign.MarkupPercentage,
	})
	if err != nil {
		p.logger.Error(ctx, "failed to generate campaign catalog", err)
		return GeneratedCatalog{}, err
	}

	return GeneratedCatalog{
		FileName: fmt.Sprintf("catalogo-markup-campanha-%s.pdf", campaignID),
		Content:  pdf,
	}, nil
}

// ListTargetGroups returns the audience segment registry
func (p *CampaignProcessor) ListTargetGroups(ctx context.Context) ([]store.TargetGroup, error) {
	return p.store.ListTargetGroups(ctx)
}

// CreateTargetGroup registers a new audience segment
func (p *CampaignProcessor) CreateTargetGroup(ctx context.Context, name string) (store.TargetGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return store.TargetGroup{}, ErrEmptyName
	}
	return p.store.CreateTargetGroup(ctx, name)
}

func (p *CampaignProcessor) validateTargetGroups(ctx context.Context, groupIDs []uuid.UUID) error {
	if len(groupIDs) == 0 {
		return nil
	}
	ok, err := p.store.TargetGroupsExist(ctx, groupIDs)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownTargetGroup
	}
	return nil
}

func validateDateRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return ErrInvalidDateRange
	}
	return nil
}
