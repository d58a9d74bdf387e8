package processor

import (
	"atacado-server/internal/clients/catalogindex"
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
	ErrInvalidFileType       = errors.New("only PDF files are accepted")
	ErrMissingName           = errors.New("catalog name is required")
	ErrInvalidMarkup         = errors.New("markup percentage out of range")
	ErrMissingVisualDocument = errors.New("visual document is required")
	ErrUploadInFlight        = errors.New("an upload is already in progress")
	ErrCatalogNotFound       = errors.New("catalog not found")
)

const (
	indexTimeout  = 10 * time.Minute
	markupTimeout = 5 * time.Minute
)

// CatalogStore defines the database operations required by CatalogProcessor
type CatalogStore interface {
	CreateCatalog(ctx context.Context, params store.CreateCatalogParams) (store.Catalog, error)
	GetCatalogByID(ctx context.Context, catalogID uuid.UUID) (store.Catalog, error)
	ListCatalogs(ctx context.Context) ([]store.Catalog, error)
	CountCatalogsByStatus(ctx context.Context, status string) (int, error)
	DeleteAllCatalogs(ctx context.Context) error
}

// CatalogIndexer uploads catalog PDFs into the assistant's vector store
type CatalogIndexer interface {
	IndexCatalog(ctx context.Context, name string, content []byte) (catalogindex.IndexedFile, error)
	DeleteCatalog(ctx context.Context, indexed catalogindex.IndexedFile) error
}

// PDFEngine renders markup catalogs from source documents
type PDFEngine interface {
	GenerateMarkup(ctx context.Context, params pdfengine.GenerateMarkupParams) ([]byte, error)
}

type CatalogProcessor struct {
	store    CatalogStore
	indexer  CatalogIndexer
	engine   PDFEngine
	pipeline *Pipeline
	logger   *observability.Logger
}

func New(store CatalogStore, indexer CatalogIndexer, engine PDFEngine, logger *observability.Logger) CatalogProcessor {
	return CatalogProcessor{
		store:    store,
		indexer:  indexer,
		engine:   engine,
		pipeline: NewPipeline(),
		logger:   logger,
	}
}

// SubmitIndexParams represents a catalog PDF submitted for AI indexing
type SubmitIndexParams struct {
	Name        string
	FileName    string
	ContentType string
	Content     []byte
}

// SubmitIndex uploads a catalog PDF into the assistant index and records it
func (p *CatalogProcessor) SubmitIndex(ctx context.Context, params SubmitIndexParams) (store.Catalog, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "catalog_name", Value: params.Name},
	)

	if params.ContentType != "application/pdf" {
		return store.Catalog{}, ErrInvalidFileType
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return store.Catalog{}, ErrMissingName
	}

	if err := p.pipeline.begin(StateIndexing); err != nil {
		return store.Catalog{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexed, err := p.indexer.IndexCatalog(ctx, params.FileName, params.Content)
	if err != nil {
		p.logger.Error(ctx, "failed to index catalog", err)
		p.pipeline.fail(err)
		return store.Catalog{}, err
	}

	catalog, err := p.store.CreateCatalog(ctx, store.CreateCatalogParams{
		Name:              name,
		OpenAIFileID:      indexed.FileID,
		VectorStoreFileID: indexed.VectorStoreFileID,
		Status:            store.CatalogStatusIndexed,
	})
	if err != nil {
		p.logger.Error(ctx, "failed to persist catalog", err)
		p.pipeline.fail(err)
		return store.Catalog{}, err
	}

	p.pipeline.succeed(fmt.Sprintf("catalog %q indexed", name))
	return catalog, nil
}

// SubmitMarkupParams represents a markup catalog generation request
type SubmitMarkupParams struct {
	Visual        *pdfengine.Document
	PriceLists    []pdfengine.Document
	MarkupPercent int
}

// MarkupResult is the generated markup catalog
type MarkupResult struct {
	FileName string
	Content  []byte
}

// SubmitMarkup renders a markup catalog from the submitted documents
func (p *CatalogProcessor) SubmitMarkup(ctx context.Context, params SubmitMarkupParams) (MarkupResult, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "markup_percent", Value: params.MarkupPercent},
	)

	if params.MarkupPercent < 0 || params.MarkupPercent > 200 {
		return MarkupResult{}, ErrInvalidMarkup
	}
	if params.Visual == nil || len(params.Visual.Content) == 0 {
		return MarkupResult{}, ErrMissingVisualDocument
	}

	if err := p.pipeline.begin(StateGenerating); err != nil {
		return MarkupResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, markupTimeout)
	defer cancel()

	pdf, err := p.engine.GenerateMarkup(ctx, pdfengine.GenerateMarkupParams{
		Visual:        *params.Visual,
		PriceLists:    params.PriceLists,
		MarkupPercent: params.MarkupPercent,
	})
	if err != nil {
		p.logger.Error(ctx, "failed to generate markup catalog", err)
		p.pipeline.fail(err)
		return MarkupResult{}, err
	}

	fileName := MarkupFileName(params.Visual.FileName, params.MarkupPercent)
	p.pipeline.succeed(fmt.Sprintf("markup catalog %q generated", fileName))

	return MarkupResult{FileName: fileName, Content: pdf}, nil
}

// MarkupFileName derives the download name for a generated markup catalog
func MarkupFileName(visualFileName string, markupPercent int) string {
	base := strings.TrimSuffix(visualFileName, ".pdf")
	return fmt.Sprintf("%s_markup_%dpct.pdf", base, markupPercent)
}

// ListCatalogs returns all indexed catalogs
func (p *CatalogProcessor) ListCatalogs(ctx context.Context) ([]store.Catalog, error) {
	return p.store.ListCatalogs(ctx)
}

// IndexStatus reports catalog totals and the pipeline state
type IndexStatus struct {
	TotalCatalogs   int            `json:"total_catalogs"`
	IndexedCatalogs int            `json:"indexed_catalogs"`
	IndexReady      bool           `json:"index_ready"`
	Pipeline        PipelineStatus `json:"pipeline"`
}

// Status reports index readiness and the current pipeline snapshot
func (p *CatalogProcessor) Status(ctx context.Context) (IndexStatus, error) {
	catalogs, err := p.store.ListCatalogs(ctx)
	if err != nil {
		return IndexStatus{}, err
	}
	indexed, err := p.store.CountCatalogsByStatus(ctx, store.CatalogStatusIndexed)
	if err != nil {
		return IndexStatus{}, err
	}

	return IndexStatus{
		TotalCatalogs:   len(catalogs),
		IndexedCatalogs: indexed,
		IndexReady:      indexed > 0,
		Pipeline:        p.pipeline.Status(),
	}, nil
}

// Reset deletes every indexed catalog, remote files first, then local rows
func (p *CatalogProcessor) Reset(ctx context.Context) error {
	catalogs, err := p.store.ListCatalogs(ctx)
	if err != nil {
		return err
	}

	for _, catalog := range catalogs {
		indexed := catalogindex.IndexedFile{
			FileID:            catalog.OpenAIFileID,
			VectorStoreFileID: catalog.VectorStoreFileID,
		}
		if err := p.indexer.DeleteCatalog(ctx, indexed); err != nil {
			p.logger.Error(ctx, "failed to delete remote catalog file", err)
			return err
		}
	}

	if err := p.store.DeleteAllCatalogs(ctx); err != nil {
		return err
	}

	p.logger.Info(ctx, "catalog index reset")
	return nil
}

// Dismiss clears a terminal pipeline state
func (p *CatalogProcessor) Dismiss() {
	p.pipeline.Dismiss()
}
