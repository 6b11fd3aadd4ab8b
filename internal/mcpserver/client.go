package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Config holds the configuration for connecting to the Paymandar API.
type Config struct {
	APIURL string // Base URL, e.g. "http://localhost:3000"
}

// PaymandarClient is a pure HTTP client for the Paymandar API.
// Contract access is capability-based: whoever holds a contract's link
// token can read, sign and comment on it, so there is no API key.
type PaymandarClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewPaymandarClient creates a new client for the Paymandar API.
func NewPaymandarClient(cfg Config) *PaymandarClient {
	return &PaymandarClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError represents an error response from the API.
type apiError struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// doRequest makes an HTTP request to the API and returns the response body.
func (c *PaymandarClient) doRequest(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	u, err := url.Parse(c.cfg.APIURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return json.RawMessage(respBody), nil
}

// CreateContract creates a new draft contract and returns it with its share link token.
func (c *PaymandarClient) CreateContract(ctx context.Context, body map[string]any) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodPost, "/api/contracts", nil, body)
}

// GetContract fetches a contract by its share link token.
func (c *PaymandarClient) GetContract(ctx context.Context, linkToken string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/api/contracts/"+linkToken, nil, nil)
}

// ListContracts lists contracts, optionally filtered by status.
func (c *PaymandarClient) ListContracts(ctx context.Context, status string, limit int) (json.RawMessage, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.doRequest(ctx, http.MethodGet, "/api/contracts", q, nil)
}

// SignContract signs a draft contract on behalf of the named signer.
func (c *PaymandarClient) SignContract(ctx context.Context, linkToken, signerName string) (json.RawMessage, error) {
	body := map[string]string{
		"signerName": signerName,
	}
	return c.doRequest(ctx, http.MethodPost, "/api/contracts/"+linkToken+"/sign", nil, body)
}

// ListComments returns the negotiation thread for a contract.
func (c *PaymandarClient) ListComments(ctx context.Context, linkToken string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/api/contracts/"+linkToken+"/comments", nil, nil)
}

// PostComment adds a comment to a contract's negotiation thread.
func (c *PaymandarClient) PostComment(ctx context.Context, linkToken, text, commentType, authorName string) (json.RawMessage, error) {
	body := map[string]string{
		"text":       text,
		"type":       commentType,
		"authorName": authorName,
	}
	return c.doRequest(ctx, http.MethodPost, "/api/contracts/"+linkToken+"/comments", nil, body)
}

// ListEscrowPayments lists all escrow payments.
func (c *PaymandarClient) ListEscrowPayments(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/api/escrow-payments", nil, nil)
}

// ReleaseEscrow releases a paid escrow payment to the payee.
func (c *PaymandarClient) ReleaseEscrow(ctx context.Context, paymentID string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodPost, "/api/escrow/"+paymentID+"/release", nil, nil)
}
