// Package zarinpal is a minimal client for the Zarinpal payment gateway
// (request, verify, and StartPay redirect URLs).
package zarinpal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/paymandar/backend/internal/circuitbreaker"
	"github.com/paymandar/backend/internal/retry"
)

const (
	SandboxBaseURL = "https://sandbox.zarinpal.com"
	LiveBaseURL    = "https://payment.zarinpal.com"

	// CodeOK is the gateway's fresh-success result code.
	CodeOK = 100
	// CodeAlreadyVerified is returned when a payment was verified before.
	CodeAlreadyVerified = 101
)

const (
	breakerKey     = "gateway"
	maxAttempts    = 3
	retryBaseDelay = 250 * time.Millisecond
)

// ErrUnavailable wraps transport-level failures reaching the gateway.
var ErrUnavailable = errors.New("payment gateway unavailable")

// GatewayError is a business error reported by the gateway itself.
type GatewayError struct {
	Code    int
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error %d: %s", e.Code, e.Message)
}

// StatusError is a transport failure with an upstream HTTP status attached.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.Status, e.Message)
}

func (e *StatusError) Unwrap() error { return ErrUnavailable }

// Metadata carries payer details attached to a payment request.
type Metadata struct {
	Mobile     string `json:"mobile,omitempty"`
	Email      string `json:"email,omitempty"`
	ContractID string `json:"contractId,omitempty"`
}

// PaymentRequest is the input for initiating a payment.
type PaymentRequest struct {
	MerchantID  string
	Amount      int64
	Description string
	CallbackURL string
	Metadata    Metadata
}

// RequestResult is the gateway's answer to a successful payment request.
type RequestResult struct {
	Code      int
	Authority string
}

// VerifyResult is the gateway's answer to a verification call.
type VerifyResult struct {
	Code  int
	RefID int64
}

// Client talks to the Zarinpal v4 payment API. Transient transport
// failures are retried with backoff; repeated failures trip a circuit
// breaker so callers fail fast while the gateway is down.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker
}

// New creates a client against the sandbox or live environment.
func New(sandbox bool) *Client {
	base := LiveBaseURL
	if sandbox {
		base = SandboxBaseURL
	}
	return NewWithBaseURL(base)
}

// NewWithBaseURL creates a client against an explicit base URL (for tests).
func NewWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		breaker: circuitbreaker.New(5, 30*time.Second),
	}
}

// StartPayURL returns the redirect URL the payer is sent to for an authority.
func (c *Client) StartPayURL(authority string) string {
	return c.baseURL + "/pg/StartPay/" + authority
}

// wire types

type requestPayload struct {
	MerchantID  string   `json:"merchant_id"`
	Amount      int64    `json:"amount"`
	Description string   `json:"description"`
	CallbackURL string   `json:"callback_url"`
	Currency    string   `json:"currency"`
	Metadata    Metadata `json:"metadata"`
}

type verifyPayload struct {
	MerchantID string `json:"merchant_id"`
	Amount     int64  `json:"amount"`
	Authority  string `json:"authority"`
}

type envelope struct {
	Data struct {
		Code      int    `json:"code"`
		Authority string `json:"authority"`
		RefID     int64  `json:"ref_id"`
	} `json:"data"`
	Errors struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// RequestPayment asks the gateway for a new payment authority.
// A non-success gateway code is returned as *GatewayError; transport
// failures wrap ErrUnavailable.
func (c *Client) RequestPayment(ctx context.Context, req PaymentRequest) (RequestResult, error) {
	payload := requestPayload{
		MerchantID:  req.MerchantID,
		Amount:      req.Amount,
		Description: req.Description,
		CallbackURL: req.CallbackURL,
		Currency:    "IRT",
		Metadata:    req.Metadata,
	}

	var env envelope
	if err := c.post(ctx, "/pg/v4/payment/request.json", payload, &env); err != nil {
		return RequestResult{}, err
	}

	if env.Data.Code != CodeOK {
		return RequestResult{}, &GatewayError{Code: gatewayCode(env), Message: gatewayMessage(env)}
	}

	return RequestResult{Code: env.Data.Code, Authority: env.Data.Authority}, nil
}

// VerifyPayment confirms a payment with the gateway. The caller must pass
// the amount recorded at initiation time, never the callback's parameters.
// Both CodeOK and CodeAlreadyVerified come back as a result, not an error;
// the caller decides what each means.
func (c *Client) VerifyPayment(ctx context.Context, merchantID string, amount int64, authority string) (VerifyResult, error) {
	payload := verifyPayload{
		MerchantID: merchantID,
		Amount:     amount,
		Authority:  authority,
	}

	var env envelope
	if err := c.post(ctx, "/pg/v4/payment/verify.json", payload, &env); err != nil {
		return VerifyResult{}, err
	}

	switch env.Data.Code {
	case CodeOK, CodeAlreadyVerified:
		return VerifyResult{Code: env.Data.Code, RefID: env.Data.RefID}, nil
	default:
		return VerifyResult{}, &GatewayError{Code: gatewayCode(env), Message: gatewayMessage(env)}
	}
}

func (c *Client) post(ctx context.Context, path string, payload any, out *envelope) error {
	if !c.breaker.Allow(breakerKey) {
		return fmt.Errorf("%w: circuit open", ErrUnavailable)
	}

	err := retry.Do(ctx, maxAttempts, retryBaseDelay, func() error {
		err := c.postOnce(ctx, path, payload, out)
		if err == nil {
			return nil
		}
		// Retry only transport failures and upstream 5xx. A 4xx means the
		// gateway understood the request and said no; repeating it won't help.
		var se *StatusError
		if errors.As(err, &se) && se.Status < http.StatusInternalServerError {
			return retry.Permanent(err)
		}
		if !errors.Is(err, ErrUnavailable) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			c.breaker.RecordFailure(breakerKey)
		}
		return err
	}

	c.breaker.RecordSuccess(breakerKey)
	return nil
}

func (c *Client) postOnce(ctx context.Context, path string, payload any, out *envelope) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		// Surface the gateway's own error body when it sent one.
		var env envelope
		if json.Unmarshal(data, &env) == nil && env.Errors.Message != "" {
			return &StatusError{Status: resp.StatusCode, Message: env.Errors.Message}
		}
		return &StatusError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}

func gatewayCode(env envelope) int {
	if env.Errors.Code != 0 {
		return env.Errors.Code
	}
	return env.Data.Code
}

func gatewayMessage(env envelope) string {
	if env.Errors.Message != "" {
		return env.Errors.Message
	}
	return "payment gateway rejected the request"
}
