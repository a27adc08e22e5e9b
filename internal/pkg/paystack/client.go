package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/connectwave/portal/internal/pkg/env"
)

const defaultAPIBaseURL = "https://api.paystack.co"

// EventTypeChargeSuccess is the only webhook event type that triggers
// provisioning; everything else is acknowledged and ignored.
const EventTypeChargeSuccess = "charge.success"

// ErrTransactionNotSuccessful is returned when the gateway reports a
// transaction in any state other than success. This is a hard rejection,
// never retried silently.
var ErrTransactionNotSuccessful = errors.New("paystack: transaction not successful")

// Client calls the Paystack REST API with bearer authentication.
type Client struct {
	SecretKey  string
	APIBaseURL string

	HTTPClient *http.Client
}

func NewClientFromEnv() *Client {
	return &Client{
		SecretKey:  strings.TrimSpace(env.GetEnv("PAYSTACK_SECRET_KEY", "")),
		APIBaseURL: strings.TrimRight(env.GetEnv("PAYSTACK_API_BASE_URL", defaultAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// VerifyResult is the normalized outcome of a transaction verification.
// AmountKobo is in minor currency units as reported by the gateway.
type VerifyResult struct {
	Verified   bool
	Status     string
	AmountKobo int64
	Metadata   map[string]any
}

// WebhookEvent is the envelope Paystack posts to the webhook endpoint.
// Metadata may arrive as a structured object or as a JSON-encoded string
// that needs a second decode pass; keep it raw here and decode on demand.
type WebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string          `json:"reference"`
		Amount    int64           `json:"amount"`
		Status    string          `json:"status"`
		Metadata  json.RawMessage `json:"metadata"`
	} `json:"data"`
}

// ParseWebhookEvent decodes the webhook envelope.
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("paystack: invalid webhook payload: %w", err)
	}
	if strings.TrimSpace(ev.Event) == "" {
		return nil, errors.New("paystack: webhook payload missing event type")
	}
	return &ev, nil
}

// DecodeMetadata normalizes transaction metadata into a map. Paystack
// sometimes delivers metadata as a JSON string instead of an object; detect
// that and re-decode. A decode failure is non-fatal for the caller (the
// extractor tolerates missing fields), so an empty map is returned then.
func DecodeMetadata(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}

	var md map[string]any
	if err := json.Unmarshal(raw, &md); err == nil {
		return md
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &md); err == nil {
			return md
		}
	}
	return map[string]any{}
}

// VerifyTransaction asks the gateway for the authoritative state of a
// payment reference.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*VerifyResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, errors.New("paystack: reference is required")
	}

	body, err := c.get(ctx, "/transaction/verify/"+reference)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			Amount   int64           `json:"amount"`
			Status   string          `json:"status"`
			Metadata json.RawMessage `json:"metadata"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("paystack: invalid verify response: %w", err)
	}
	if !raw.Status {
		return nil, fmt.Errorf("paystack: verify rejected: %s", raw.Message)
	}

	status := strings.ToLower(strings.TrimSpace(raw.Data.Status))
	return &VerifyResult{
		Verified:   status == "success",
		Status:     status,
		AmountKobo: raw.Data.Amount,
		Metadata:   DecodeMetadata(raw.Data.Metadata),
	}, nil
}

// InitializeRequest carries the fields for starting a checkout session.
// Amount is in minor units; Metadata is serialized as-is.
type InitializeRequest struct {
	Email       string         `json:"email"`
	AmountKobo  int64          `json:"amount"`
	Reference   string         `json:"reference,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CallbackURL string         `json:"callback_url,omitempty"`
}

// InitializeResult holds the checkout handoff returned by the gateway.
type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// InitializeTransaction starts a checkout session for the given amount.
func (c *Client) InitializeTransaction(ctx context.Context, in InitializeRequest) (*InitializeResult, error) {
	if strings.TrimSpace(in.Email) == "" {
		return nil, errors.New("paystack: customer email is required")
	}
	if in.AmountKobo <= 0 {
		return nil, errors.New("paystack: amount must be positive")
	}

	reqBody, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}

	body, err := c.post(ctx, "/transaction/initialize", reqBody)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			AuthorizationURL string `json:"authorization_url"`
			AccessCode       string `json:"access_code"`
			Reference        string `json:"reference"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("paystack: invalid initialize response: %w", err)
	}
	if !raw.Status {
		return nil, fmt.Errorf("paystack: initialize rejected: %s", raw.Message)
	}
	if strings.TrimSpace(raw.Data.AuthorizationURL) == "" {
		return nil, errors.New("paystack: initialize returned empty authorization_url")
	}

	return &InitializeResult{
		AuthorizationURL: raw.Data.AuthorizationURL,
		AccessCode:       raw.Data.AccessCode,
		Reference:        raw.Data.Reference,
	}, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) do(ctx context.Context, method, path string, reqBody []byte) ([]byte, error) {
	if strings.TrimSpace(c.SecretKey) == "" {
		return nil, errors.New("PAYSTACK_SECRET_KEY is not configured")
	}

	var reader io.Reader
	if reqBody != nil {
		reader = bytes.NewReader(reqBody)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.APIBaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("paystack: %s %s failed: status=%d body=%s", method, path, resp.StatusCode, string(body))
	}
	return body, nil
}
