package processor

import (
	"atacado-server/internal/clients/catalogindex"
	"atacado-server/internal/clients/pdfengine"
	"atacado-server/internal/observability"
	"atacado-server/internal/store"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockCatalogStore struct {
	catalogs      []store.Catalog
	createErr     error
	deleteAllErr  error
	deletedAll    bool
	createdParams []store.CreateCatalogParams
}

func (m *mockCatalogStore) CreateCatalog(ctx context.Context, params store.CreateCatalogParams) (store.Catalog, error) {
	if m.createErr != nil {
		return store.Catalog{}, m.createErr
	}
	m.createdParams = append(m.createdParams, params)
	catalog := store.Catalog{
		ID:                uuid.New(),
		Name:              params.Name,
		OpenAIFileID:      params.OpenAIFileID,
		VectorStoreFileID: params.VectorStoreFileID,
		Status:            params.Status,
		CreatedAt:         time.Now(),
	}
	m.catalogs = append(m.catalogs, catalog)
	return catalog, nil
}

func (m *mockCatalogStore) GetCatalogByID(ctx context.Context, catalogID uuid.UUID) (store.Catalog, error) {
	for _, c := range m.catalogs {
		if c.ID == catalogID {
			return c, nil
		}
	}
	return store.Catalog{}, store.ErrNotFound
}

func (m *mockCatalogStore) ListCatalogs(ctx context.Context) ([]store.Catalog, error) {
	return m.catalogs, nil
}

func (m *mockCatalogStore) CountCatalogsByStatus(ctx context.Context, status string) (int, error) {
	count := 0
	for _, c := range m.catalogs {
		if c.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *mockCatalogStore) DeleteAllCatalogs(ctx context.Context) error {
	if m.deleteAllErr != nil {
		return m.deleteAllErr
	}
	m.deletedAll = true
	m.catalogs = nil
	return nil
}

type mockIndexer struct {
	indexErr   error
	deleteErr  error
	indexed    []string
	deleted    []catalogindex.IndexedFile
	indexDelay time.Duration
}

func (m *mockIndexer) IndexCatalog(ctx context.Context, name string, content []byte) (catalogindex.IndexedFile, error) {
	if m.indexDelay > 0 {
		select {
		case <-time.After(m.indexDelay):
		case <-ctx.Done():
			return catalogindex.IndexedFile{}, ctx.Err()
		}
	}
	if m.indexErr != nil {
		return catalogindex.IndexedFile{}, m.indexErr
	}
	m.indexed = append(m.indexed, name)
	return catalogindex.IndexedFile{FileID: "file-1", VectorStoreFileID: "vsf-1"}, nil
}

func (m *mockIndexer) DeleteCatalog(ctx context.Context, indexed catalogindex.IndexedFile) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, indexed)
	return nil
}

type mockEngine struct {
	generateErr error
	pdf         []byte
	gotParams   pdfengine.GenerateMarkupParams
}

func (m *mockEngine) GenerateMarkup(ctx context.Context, params pdfengine.GenerateMarkupParams) ([]byte, error) {
	m.gotParams = params
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	return m.pdf, nil
}

func newTestProcessor(st *mockCatalogStore, idx *mockIndexer, eng *mockEngine) CatalogProcessor {
	return New(st, idx, eng, observability.NewLogger())
}

func TestSubmitIndex_Success(t *testing.T) {
	st := &mockCatalogStore{}
	idx := &mockIndexer{}
	p := newTestProcessor(st, idx, &mockEngine{})

	catalog, err := p.SubmitIndex(context.Background(), SubmitIndexParams{
		Name:        "  Catalogo Julho  ",
		FileName:    "catalogo-julho.pdf",
		ContentType: "application/pdf",
		Content:     []byte("%PDF"),
	})
	if err != nil {
		t.Fatalf("SubmitIndex() error = %v", err)
	}

	if catalog.Name != "Catalogo Julho" {
		t.Errorf("Name = %q, want trimmed %q", catalog.Name, "Catalogo Julho")
	}
	if catalog.OpenAIFileID != "file-1" || catalog.VectorStoreFileID != "vsf-1" {
		t.Errorf("file ids = (%q, %q), want (file-1, vsf-1)", catalog.OpenAIFileID, catalog.VectorStoreFileID)
	}
	if status := p.pipeline.Status(); status.State != StateSuccess {
		t.Errorf("pipeline state = %q, want success", status.State)
	}
}

func TestSubmitIndex_RejectsNonPDF(t *testing.T) {
	p := newTestProcessor(&mockCatalogStore{}, &mockIndexer{}, &mockEngine{})

	_, err := p.SubmitIndex(context.Background(), SubmitIndexParams{
		Name:        "Planilha",
		FileName:    "precos.xlsx",
		ContentType: "application/vnd.ms-excel",
		Content:     []byte("x"),
	})
	if !errors.Is(err, ErrInvalidFileType) {
		t.Errorf("SubmitIndex() error = %v, want ErrInvalidFileType", err)
	}
	if status := p.pipeline.Status(); status.State != StateIdle {
		t.Errorf("pipeline state = %q, validation failures must not claim the pipeline", status.State)
	}
}

func TestSubmitIndex_RejectsBlankName(t *testing.T) {
	p := newTestProcessor(&mockCatalogStore{}, &mockIndexer{}, &mockEngine{})

	_, err := p.SubmitIndex(context.Background(), SubmitIndexParams{
		Name:        "   ",
		FileName:    "catalogo.pdf",
		ContentType: "application/pdf",
		Content:     []byte("%PDF"),
	})
	if !errors.Is(err, ErrMissingName) {
		t.Errorf("SubmitIndex() error = %v, want ErrMissingName", err)
	}
}

func TestSubmitIndex_IndexerFailureIsSticky(t *testing.T) {
	idx := &mockIndexer{indexErr: errors.New("openai: boom")}
	p := newTestProcessor(&mockCatalogStore{}, idx, &mockEngine{})

	_, err := p.SubmitIndex(context.Background(), SubmitIndexParams{
		Name:        "Catalogo",
		FileName:    "catalogo.pdf",
		ContentType: "application/pdf",
		Content:     []byte("%PDF"),
	})
	if err == nil {
		t.Fatal("expected error")
	}

	if status := p.pipeline.Status(); status.State != StateError {
		t.Fatalf("pipeline state = %q, want error", status.State)
	}

	// Error state is sticky until dismissed, then a new submit is allowed
	p.Dismiss()
	if status := p.pipeline.Status(); status.State != StateIdle {
		t.Errorf("pipeline state after dismiss = %q, want idle", status.State)
	}
}

func TestSubmitIndex_ConcurrentSubmitRejected(t *testing.T) {
	idx := &mockIndexer{indexDelay: 200 * time.Millisecond}
	p := newTestProcessor(&mockCatalogStore{}, idx, &mockEngine{})

	done := make(chan error, 1)
	go func() {
		_, err := p.SubmitIndex(context.Background(), SubmitIndexParams{
			Name:        "First",
			FileName:    "first.pdf",
			ContentType: "application/pdf",
			Content:     []byte("%PDF"),
		})
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	_, err := p.SubmitIndex(context.Background(), SubmitIndexParams{
		Name:        "Second",
		FileName:    "second.pdf",
		ContentType: "application/pdf",
		Content:     []byte("%PDF"),
	})
	if !errors.Is(err, ErrUploadInFlight) {
		t.Errorf("second SubmitIndex() error = %v, want ErrUploadInFlight", err)
	}

	if err := <-done; err != nil {
		t.Errorf("first SubmitIndex() error = %v", err)
	}
}

func TestSubmitMarkup_Success(t *testing.T) {
	eng := &mockEngine{pdf: []byte("%PDF generated")}
	p := newTestProcessor(&mockCatalogStore{}, &mockIndexer{}, eng)

	result, err := p.SubmitMarkup(context.Background(), SubmitMarkupParams{
		Visual:        &pdfengine.Document{FileName: "catalogo-verao.pdf", Content: []byte("%PDF")},
		PriceLists:    []pdfengine.Document{{FileName: "precos.pdf", Content: []byte("%PDF")}},
		MarkupPercent: 40,
	})
	if err != nil {
		t.Fatalf("SubmitMarkup() error = %v", err)
	}

	if result.FileName != "catalogo-verao_markup_40pct.pdf" {
		t.Errorf("FileName = %q, want catalogo-verao_markup_40pct.pdf", result.FileName)
	}
	if eng.gotParams.MarkupPercent != 40 {
		t.Errorf("engine markup = %d, want 40", eng.gotParams.MarkupPercent)
	}
	if status := p.pipeline.Status(); status.State != StateSuccess {
		t.Errorf("pipeline state = %q, want success", status.State)
	}
}

func TestSubmitMarkup_InvalidMarkup(t *testing.T) {
	p := newTestProcessor(&mockCatalogStore{}, &mockIndexer{}, &mockEngine{})

	for _, pct := range []int{-1, 201} {
		_, err := p.SubmitMarkup(context.Background(), SubmitMarkupParams{
			Visual:        &pdfengine.Document{FileName: "v.pdf", Content: []byte("x")},
			MarkupPercent: pct,
		})
		if !errors.Is(err, ErrInvalidMarkup) {
			t.Errorf("SubmitMarkup(%d) error = %v, want ErrInvalidMarkup", pct, err)
		}
	}
}

func TestSubmitMarkup_MissingVisual(t *testing.T) {
	p := newTestProcessor(&mockCatalogStore{}, &mockIndexer{}, &mockEngine{})

	_, err := p.SubmitMarkup(context.Background(), SubmitMarkupParams{MarkupPercent: 10})
	if !errors.Is(err, ErrMissingVisualDocument) {
		t.Errorf("SubmitMarkup() error = %v, want ErrMissingVisualDocument", err)
	}
}

func TestDismiss_NoopWhileIdle(t *testing.T) {
	p := newTestProcessor(&mockCatalogStore{}, &mockIndexer{}, &mockEngine{})

	p.Dismiss()
	if status := p.pipeline.Status(); status.State != StateIdle {
		t.Errorf("pipeline state = %q, want idle", status.State)
	}
}

func TestDismiss_NoopWhileInFlight(t *testing.T) {
	st := &mockCatalogStore{}
	idx := &mockIndexer{indexDelay: 100 * time.Millisecond}
	p := newTestProcessor(st, idx, &mockEngine{})

	done := make(chan error, 1)
	go func() {
		_, err := p.SubmitIndex(context.Background(), SubmitIndexParams{
			Name: "Slow", FileName: "slow.pdf", ContentType: "application/pdf", Content: []byte("%PDF"),
		})
		done <- err
	}()

	time.Sleep(30 * time.Millisecond)
	p.Dismiss()
	if status := p.pipeline.Status(); status.State != StateUploading {
		t.Errorf("pipeline state = %q, want uploading to survive a dismiss", status.State)
	}

	if err := <-done; err != nil {
		t.Fatalf("SubmitIndex() error = %v", err)
	}
	if status := p.pipeline.Status(); status.State != StateSuccess {
		t.Errorf("pipeline state = %q, want success after the submission finishes", status.State)
	}
}

func TestReset_DeletesRemoteFilesBeforeRows(t *testing.T) {
	st := &mockCatalogStore{}
	idx := &mockIndexer{}
	p := newTestProcessor(st, idx, &mockEngine{})

	if _, err := p.SubmitIndex(context.Background(), SubmitIndexParams{
		Name: "One", FileName: "one.pdf", ContentType: "application/pdf", Content: []byte("%PDF"),
	}); err != nil {
		t.Fatalf("SubmitIndex() error = %v", err)
	}
	p.Dismiss()

	if err := p.Reset(context.Background()); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	if len(idx.deleted) != 1 {
		t.Errorf("remote deletes = %d, want 1", len(idx.deleted))
	}
	if !st.deletedAll {
		t.Error("expected local rows to be deleted")
	}
}

func TestReset_RemoteFailureKeepsRows(t *testing.T) {
	st := &mockCatalogStore{}
	idx := &mockIndexer{}
	p := newTestProcessor(st, idx, &mockEngine{})

	if _, err := p.SubmitIndex(context.Background(), SubmitIndexParams{
		Name: "One", FileName: "one.pdf", ContentType: "application/pdf", Content: []byte("%PDF"),
	}); err != nil {
		t.Fatalf("SubmitIndex() error = %v", err)
	}
	p.Dismiss()

	idx.deleteErr = errors.New("openai: delete failed")
	if err := p.Reset(context.Background()); err == nil {
		t.Fatal("expected Reset() to fail")
	}
	if st.deletedAll {
		t.Error("local rows must survive a failed remote delete")
	}
}

func TestStatus_ReportsReadiness(t *testing.T) {
	st := &mockCatalogStore{}
	p := newTestProcessor(st, &mockIndexer{}, &mockEngine{})

	status, err := p.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.IndexReady {
		t.Error("index should not be ready with no catalogs")
	}

	if _, err := p.SubmitIndex(context.Background(), SubmitIndexParams{
		Name: "One", FileName: "one.pdf", ContentType: "application/pdf", Content: []byte("%PDF"),
	}); err != nil {
		t.Fatalf("SubmitIndex() error = %v", err)
	}

	status, err = p.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if !status.IndexReady || status.TotalCatalogs != 1 || status.IndexedCatalogs != 1 {
		t.Errorf("status = %+v, want one indexed catalog and ready index", status)
	}
}
