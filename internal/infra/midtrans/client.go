package midtrans

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	SandboxSnapBaseURL = "https://app.sandbox.midtrans.com"
	SandboxAPIBaseURL  = "https://api.sandbox.midtrans.com"
	SnapBaseURL        = "https://app.midtrans.com"
	APIBaseURL         = "https://api.midtrans.com"
)

var (
	ErrOrderNotFound = errors.New("midtrans order not found")
	ErrGateway       = errors.New("midtrans gateway error")
)

type Config struct {
	ServerKey   string
	SnapBaseURL string
	APIBaseURL  string
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(cfg.ServerKey) == "" {
		return nil, fmt.Errorf("midtrans server key is required")
	}
	if cfg.SnapBaseURL == "" {
		cfg.SnapBaseURL = SandboxSnapBaseURL
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = SandboxAPIBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{cfg: cfg, http: httpClient}, nil
}

type SnapRequest struct {
	OrderID       string
	GrossAmount   int
	CustomerEmail string
	FinishURL     string
}

type SnapToken struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// CreateSnapTransaction opens a checkout session with the order id as the
// gateway-side correlation key and returns the opaque Snap token the web
// client hands to the payment popup.
func (c *Client) CreateSnapTransaction(ctx context.Context, req SnapRequest) (SnapToken, error) {
	if strings.TrimSpace(req.OrderID) == "" || req.GrossAmount <= 0 {
		return SnapToken{}, fmt.Errorf("invalid snap transaction payload")
	}

	body := map[string]any{
		"transaction_details": map[string]any{
			"order_id":     req.OrderID,
			"gross_amount": req.GrossAmount,
		},
	}
	if req.CustomerEmail != "" {
		body["customer_details"] = map[string]any{"email": req.CustomerEmail}
	}
	if req.FinishURL != "" {
		body["callbacks"] = map[string]any{"finish": req.FinishURL}
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return SnapToken{}, fmt.Errorf("marshal snap request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.SnapBaseURL+"/snap/v1/transactions", bytes.NewReader(raw))
	if err != nil {
		return SnapToken{}, fmt.Errorf("build snap request: %w", err)
	}
	c.applyHeaders(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return SnapToken{}, fmt.Errorf("call snap api: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return SnapToken{}, fmt.Errorf("%w: snap api returned %d", ErrGateway, resp.StatusCode)
	}

	var token SnapToken
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&token); err != nil {
		return SnapToken{}, fmt.Errorf("decode snap response: %w", err)
	}
	if token.Token == "" {
		return SnapToken{}, fmt.Errorf("%w: snap response missing token", ErrGateway)
	}

	return token, nil
}

type StatusResponse struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	PaymentType       string `json:"payment_type"`
	TransactionTime   string `json:"transaction_time"`
}

// TransactionStatus polls the Core API for the live state of an order. The
// poll path never trusts client-supplied status; this call is its source of
// truth.
func (c *Client) TransactionStatus(ctx context.Context, orderID string) (StatusResponse, error) {
	if strings.TrimSpace(orderID) == "" {
		return StatusResponse{}, fmt.Errorf("order id is required")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIBaseURL+"/v2/"+orderID+"/status", nil)
	if err != nil {
		return StatusResponse{}, fmt.Errorf("build status request: %w", err)
	}
	c.applyHeaders(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return StatusResponse{}, fmt.Errorf("call status api: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return StatusResponse{}, ErrOrderNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return StatusResponse{}, fmt.Errorf("%w: status api returned %d", ErrGateway, resp.StatusCode)
	}

	var status StatusResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&status); err != nil {
		return StatusResponse{}, fmt.Errorf("decode status response: %w", err)
	}

	return status, nil
}

func (c *Client) applyHeaders(req *http.Request) {
	auth := base64.StdEncoding.EncodeToString([]byte(c.cfg.ServerKey + ":"))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// VerifyNotificationSignature checks the SHA-512 signature Midtrans attaches
// to webhook payloads: sha512(order_id + status_code + gross_amount + server_key).
func (c *Client) VerifyNotificationSignature(n Notification) bool {
	return VerifySignature(n, c.cfg.ServerKey)
}
