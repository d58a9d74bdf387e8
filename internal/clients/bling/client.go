package bling

import (
	"atacado-server/internal/observability"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// RemoteError represents an error response from the Bling API
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("bling api error (status %d): %s", e.StatusCode, e.Message)
}

// Contact represents a client record in Bling
type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"nome"`
	TaxID string `json:"numeroDocumento"`
	Phone string `json:"celular"`
	Email string `json:"email"`
}

// CreateContactParams represents parameters for creating a Bling contact
type CreateContactParams struct {
	Name  string `json:"nome"`
	TaxID string `json:"numeroDocumento,omitempty"`
	Phone string `json:"celular"`
	Email string `json:"email,omitempty"`
}

// OrderSyncItem represents one order pushed into Bling as "em aberto"
type OrderSyncItem struct {
	OrderID      string `json:"pedidoId"`
	ContactID    string `json:"contatoId"`
	TotalCents   int64  `json:"totalCentavos"`
	CustomerName string `json:"nomeCliente"`
}

type searchResponse struct {
	Data []Contact `json:"data"`
}

type createContactResponse struct {
	Data Contact `json:"data"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client handles communication with the Bling ERP/CRM API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *observability.Logger
}

// NewClient creates a new Bling API client
func NewClient(baseURL, apiKey string, logger *observability.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// SearchContactsByPhone searches Bling contacts by phone number
func (c *Client) SearchContactsByPhone(ctx context.Context, phone string) ([]Contact, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "bling_search", Value: "phone"},
	)
	return c.searchContacts(ctx, url.Values{"telefone": {phone}})
}

// SearchContactsByTerm searches Bling contacts by a free-text term
func (c *Client) SearchContactsByTerm(ctx context.Context, term string) ([]Contact, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "bling_search", Value: "term"},
	)
	return c.searchContacts(ctx, url.Values{"pesquisa": {term}})
}

func (c *Client) searchContacts(ctx context.Context, query url.Values) ([]Contact, error) {
	endpoint := fmt.Sprintf("%s/contatos?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Error(ctx, "failed to create bling search request", err)
		return nil, fmt.Errorf("failed to create bling search request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error(ctx, "failed to call bling API", err)
		return nil, fmt.Errorf("failed to call bling API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.remoteError(ctx, resp)
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		c.logger.Error(ctx, "failed to parse bling search response", err)
		return nil, fmt.Errorf("failed to parse bling search response: %w", err)
	}

	return searchResp.Data, nil
}

// CreateContact creates a new client record in Bling
func (c *Client) CreateContact(ctx context.Context, params CreateContactParams) (Contact, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "bling_contact_name", Value: params.Name},
	)

	jsonPayload, err := json.Marshal(params)
	if err != nil {
		c.logger.Error(ctx, "failed to marshal bling contact", err)
		return Contact{}, fmt.Errorf("failed to marshal bling contact: %w", err)
	}

	endpoint := fmt.Sprintf("%s/contatos", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonPayload))
	if err != nil {
		c.logger.Error(ctx, "failed to create bling contact request", err)
		return Contact{}, fmt.Errorf("failed to create bling contact request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error(ctx, "failed to call bling API", err)
		return Contact{}, fmt.Errorf("failed to call bling API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Contact{}, c.remoteError(ctx, resp)
	}

	var createResp createContactResponse
	if err := json.NewDecoder(resp.Body).Decode(&createResp); err != nil {
		c.logger.Error(ctx, "failed to parse bling contact response", err)
		return Contact{}, fmt.Errorf("failed to parse bling contact response: %w", err)
	}

	c.logger.Info(ctx, "bling contact created")
	return createResp.Data, nil
}

// SyncOpenOrders pushes orders into Bling with the "em aberto" status
func (c *Client) SyncOpenOrders(ctx context.Context, items []OrderSyncItem) error {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "bling_order_count", Value: len(items)},
	)

	payload := struct {
		Status string          `json:"situacao"`
		Orders []OrderSyncItem `json:"pedidos"`
	}{
		Status: "em aberto",
		Orders: items,
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error(ctx, "failed to marshal bling orders", err)
		return fmt.Errorf("failed to marshal bling orders: %w", err)
	}

	endpoint := fmt.Sprintf("%s/pedidos/vendas", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonPayload))
	if err != nil {
		c.logger.Error(ctx, "failed to create bling order request", err)
		return fmt.Errorf("failed to create bling order request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error(ctx, "failed to call bling API", err)
		return fmt.Errorf("failed to call bling API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return c.remoteError(ctx, resp)
	}

	c.logger.Info(ctx, "bling orders synced")
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

func (c *Client) remoteError(ctx context.Context, resp *http.Response) error {
	var errResp errorResponse
	message := "unexpected response"
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	remoteErr := &RemoteError{StatusCode: resp.StatusCode, Message: message}
	c.logger.Error(ctx, "bling API returned an error", remoteErr)
	return remoteErr
}
