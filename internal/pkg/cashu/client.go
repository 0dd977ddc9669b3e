// Package cashu talks to the mint gateway, the external payment processor
// that redeems ecash tokens and bridges Lightning invoices. Amounts cross
// this boundary as plain sats; token and invoice internals are opaque here.
package cashu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	ErrInvalidToken  = errors.New("invalid cashu token")
	ErrPaymentFailed = errors.New("payment failed")
	ErrNotConfigured = errors.New("mint gateway not configured")
)

// Config holds mint gateway configuration
type Config struct {
	GatewayURL string
	Timeout    time.Duration
}

// Client is an HTTP client for the mint gateway
type Client struct {
	config Config
	http   *http.Client
}

// Invoice is a payable Lightning invoice reference
type Invoice struct {
	PaymentRequest string `json:"payment_request"`
	PaymentHash    string `json:"payment_hash"`
	AmountSats     int64  `json:"amount_sats"`
}

// NewClient creates a new mint gateway client
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
	}
}

// Receive redeems an ecash token and returns the credited amount in sats.
func (c *Client) Receive(ctx context.Context, token string) (int64, error) {
	if strings.TrimSpace(token) == "" {
		return 0, ErrInvalidToken
	}

	var out struct {
		AmountSats int64 `json:"amount_sats"`
	}
	if err := c.post(ctx, "/v1/receive", map[string]string{"token": token}, &out); err != nil {
		return 0, err
	}
	if out.AmountSats <= 0 {
		return 0, ErrInvalidToken
	}
	return out.AmountSats, nil
}

// CreateInvoice asks the gateway for a Lightning invoice payable by the user.
func (c *Client) CreateInvoice(ctx context.Context, amountSats int64) (*Invoice, error) {
	if amountSats <= 0 {
		return nil, fmt.Errorf("cashu: invoice amount must be > 0")
	}

	var inv Invoice
	if err := c.post(ctx, "/v1/invoice", map[string]int64{"amount_sats": amountSats}, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// PayInvoice pays an external Lightning invoice on the user's behalf.
func (c *Client) PayInvoice(ctx context.Context, paymentRequest string, amountSats int64) error {
	if strings.TrimSpace(paymentRequest) == "" || amountSats <= 0 {
		return ErrPaymentFailed
	}

	return c.post(ctx, "/v1/pay", map[string]interface{}{
		"payment_request": paymentRequest,
		"amount_sats":     amountSats,
	}, nil)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	if strings.TrimSpace(c.config.GatewayURL) == "" {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("cashu: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.config.GatewayURL, "/")+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("cashu: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cashu: gateway request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return ErrInvalidToken
	case resp.StatusCode == http.StatusPaymentRequired:
		return ErrPaymentFailed
	case resp.StatusCode >= 300:
		return fmt.Errorf("cashu: gateway returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("cashu: decode response: %w", err)
	}
	return nil
}
