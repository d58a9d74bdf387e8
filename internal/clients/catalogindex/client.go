package catalogindex

import (
	"atacado-server/internal/observability"
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const vectorStoreName = "wholesale-catalogs"

// IndexedFile identifies a catalog indexed into the assistant
type IndexedFile struct {
	FileID            string
	VectorStoreFileID string
}

// Client indexes catalog PDFs into an OpenAI vector store so the
// assistant can answer price questions against them.
type Client struct {
	client openai.Client
	logger *observability.Logger

	mu            sync.Mutex
	vectorStoreID string
}

// NewClient creates a new catalog index client
func NewClient(apiKey string, logger *observability.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	return &Client{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		logger: logger,
	}, nil
}

// IndexCatalog uploads a catalog PDF and attaches it to the vector store
func (c *Client) IndexCatalog(ctx context.Context, name string, content []byte) (IndexedFile, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "catalog_name", Value: name},
	)

	vectorStoreID, err := c.ensureVectorStore(ctx)
	if err != nil {
		return IndexedFile{}, err
	}

	file := openai.File(bytes.NewReader(content), name, "application/pdf")
	uploaded, err := c.client.Files.New(ctx, openai.FileNewParams{
		File:    file,
		Purpose: openai.FilePurposeAssistants,
	})
	if err != nil {
		c.logger.Error(ctx, "failed to upload catalog file", err)
		return IndexedFile{}, fmt.Errorf("failed to upload catalog file: %w", err)
	}

	vectorStoreFile, err := c.client.VectorStores.Files.New(ctx, vectorStoreID, openai.VectorStoreFileNewParams{
		FileID: uploaded.ID,
	})
	if err != nil {
		c.logger.Error(ctx, "failed to attach catalog to vector store", err)
		// Orphaned upload, best effort cleanup
		if _, delErr := c.client.Files.Delete(ctx, uploaded.ID); delErr != nil {
			c.logger.Error(ctx, "failed to delete orphaned catalog file", delErr)
		}
		return IndexedFile{}, fmt.Errorf("failed to attach catalog to vector store: %w", err)
	}

	c.logger.Info(ctx, "catalog indexed")
	return IndexedFile{
		FileID:            uploaded.ID,
		VectorStoreFileID: vectorStoreFile.ID,
	}, nil
}

// DeleteCatalog removes an indexed catalog from the vector store and
// deletes the underlying file
func (c *Client) DeleteCatalog(ctx context.Context, indexed IndexedFile) error {
	vectorStoreID, err := c.ensureVectorStore(ctx)
	if err != nil {
		return err
	}

	if _, err := c.client.VectorStores.Files.Delete(ctx, vectorStoreID, indexed.VectorStoreFileID); err != nil {
		c.logger.Error(ctx, "failed to detach catalog from vector store", err)
		return fmt.Errorf("failed to detach catalog from vector store: %w", err)
	}

	if _, err := c.client.Files.Delete(ctx, indexed.FileID); err != nil {
		c.logger.Error(ctx, "failed to delete catalog file", err)
		return fmt.Errorf("failed to delete catalog file: %w", err)
	}

	return nil
}

// ensureVectorStore resolves the shared vector store, creating it on first use
func (c *Client) ensureVectorStore(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vectorStoreID != "" {
		return c.vectorStoreID, nil
	}

	page, err := c.client.VectorStores.List(ctx, openai.VectorStoreListParams{})
	if err != nil {
		c.logger.Error(ctx, "failed to list vector stores", err)
		return "", fmt.Errorf("failed to list vector stores: %w", err)
	}
	for _, vs := range page.Data {
		if vs.Name == vectorStoreName {
			c.vectorStoreID = vs.ID
			return c.vectorStoreID, nil
		}
	}

	created, err := c.client.VectorStores.New(ctx, openai.VectorStoreNewParams{
		Name: openai.String(vectorStoreName),
	})
	if err != nil {
		c.logger.Error(ctx, "failed to create vector store", err)
		return "", fmt.Errorf("failed to create vector store: %w", err)
	}

	c.vectorStoreID = created.ID
	return c.vectorStoreID, nil
}
