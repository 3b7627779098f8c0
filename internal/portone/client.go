// Package portone содержит клиент платёжного провайдера PortOne (REST API v2).
package portone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.portone.io"

	// ProviderName записывается в payments.provider.
	ProviderName = "portone_tosspayments"
)

// Статусы платежа на стороне провайдера, которые ядро различает.
const (
	StatusPaid      = "PAID"
	StatusCancelled = "CANCELLED"
)

// ErrPaymentNotFound: провайдер не знает такой платёж.
var ErrPaymentNotFound = errors.New("portone: payment not found")

// APIError: ответ провайдера с кодом не 2xx.
type APIError struct {
	StatusCode int
	Type       string `json:"type"`
	Message    string `json:"message"`
	Body       string `json:"-"`
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("portone: %d %s: %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("portone: unexpected status %d", e.StatusCode)
}

// Payment: то, что ядру нужно из ответа GET /payments/{id}.
type Payment struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount struct {
		Total     int64 `json:"total"`
		Paid      int64 `json:"paid"`
		Cancelled int64 `json:"cancelled"`
	} `json:"amount"`
	Currency string     `json:"currency"`
	PaidAt   *time.Time `json:"paidAt,omitempty"`
}

// CancelRequest: запрос на (частичную) отмену платежа.
type CancelRequest struct {
	PaymentID      string
	Amount         int64
	Reason         string
	IdempotencyKey string
}

// Cancellation: результат отмены.
type Cancellation struct {
	Status      string     `json:"status"`
	ID          string     `json:"id"`
	TotalAmount int64      `json:"totalAmount"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
	Raw         json.RawMessage
}

type Config struct {
	BaseURL   string
	APISecret string
	StoreID   string
	Timeout   time.Duration
}

type Client struct {
	baseURL string
	secret  string
	storeID string
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: base,
		secret:  cfg.APISecret,
		storeID: cfg.StoreID,
		http:    &http.Client{Timeout: timeout},
	}
}

// GetPayment читает авторитетный статус и сумму платежа.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/payments/"+url.PathEscape(paymentID), nil)
	if err != nil {
		return nil, err
	}

	var p Payment
	if _, err := c.do(req, &p); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrPaymentNotFound, paymentID)
		}
		return nil, err
	}
	return &p, nil
}

// CancelPayment отменяет платёж на сумму req.Amount.
// Повтор с тем же IdempotencyKey провайдер не исполняет повторно.
func (c *Client) CancelPayment(ctx context.Context, req CancelRequest) (*Cancellation, error) {
	body := map[string]any{
		"storeId":   c.storeID,
		"amount":    req.Amount,
		"reason":    req.Reason,
		"requester": "MERCHANT",
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/payments/"+url.PathEscape(req.PaymentID)+"/cancel", body)
	if err != nil {
		return nil, err
	}
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}

	var resp struct {
		Cancellation Cancellation `json:"cancellation"`
	}
	raw, err := c.do(httpReq, &resp)
	if err != nil {
		return nil, err
	}
	resp.Cancellation.Raw = raw
	return &resp.Cancellation, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("portone: marshal body: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("portone: new request: %w", err)
	}
	req.Header.Set("Authorization", "PortOne "+c.secret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) (json.RawMessage, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("portone: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("portone: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
		_ = json.Unmarshal(raw, apiErr)
		return raw, apiErr
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return raw, fmt.Errorf("portone: decode response: %w", err)
		}
	}
	return raw, nil
}
