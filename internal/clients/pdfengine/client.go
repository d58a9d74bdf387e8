package pdfengine

import (
	"atacado-server/internal/observability"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

// RemoteError represents an error response from the PDF engine
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("pdf engine error (status %d): %s", e.StatusCode, e.Message)
}

// Document is one input PDF for markup generation
type Document struct {
	FileName string
	Content  []byte
}

// GenerateMarkupParams represents a markup catalog generation request
type GenerateMarkupParams struct {
	Visual        Document
	PriceLists    []Document
	MarkupPercent int
}

// Client handles communication with the external PDF markup engine
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *observability.Logger
}

// NewClient creates a new PDF engine client. Markup generation renders
// whole catalogs, so the timeout is generous.
func NewClient(baseURL string, logger *observability.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		logger: logger,
	}
}

// GenerateMarkup renders a markup catalog from a visual PDF, price list PDFs
// and an integer markup percentage. Returns the generated PDF bytes.
func (c *Client) GenerateMarkup(ctx context.Context, params GenerateMarkupParams) ([]byte, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "markup_percent", Value: params.MarkupPercent},
		observability.Field{Key: "price_list_count", Value: len(params.PriceLists)},
	)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	visualPart, err := writer.CreateFormFile("visual", params.Visual.FileName)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := visualPart.Write(params.Visual.Content); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}

	for _, priceList := range params.PriceLists {
		pricePart, err := writer.CreateFormFile("price_lists", priceList.FileName)
		if err != nil {
			return nil, fmt.Errorf("failed to build multipart body: %w", err)
		}
		if _, err := pricePart.Write(priceList.Content); err != nil {
			return nil, fmt.Errorf("failed to build multipart body: %w", err)
		}
	}

	if err := writer.WriteField("markup_percent", strconv.Itoa(params.MarkupPercent)); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/generate-markup", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		c.logger.Error(ctx, "failed to create pdf engine request", err)
		return nil, fmt.Errorf("failed to create pdf engine request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error(ctx, "failed to call pdf engine", err)
		return nil, fmt.Errorf("failed to call pdf engine: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.remoteError(ctx, resp)
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error(ctx, "failed to read pdf engine response", err)
		return nil, fmt.Errorf("failed to read pdf engine response: %w", err)
	}

	c.logger.Info(ctx, "markup catalog generated")
	return pdf, nil
}

func (c *Client) remoteError(ctx context.Context, resp *http.Response) error {
	var errResp struct {
		Error string `json:"error"`
	}
	message := "unexpected response"
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		message = errResp.Error
	}

	remoteErr := &RemoteError{StatusCode: resp.StatusCode, Message: message}
	c.logger.Error(ctx, "pdf engine returned an error", remoteErr)
	return remoteErr
}
