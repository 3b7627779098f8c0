package portone

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_GetPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/payments/res_abc" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "PortOne secret-1" {
			t.Errorf("unexpected auth header %q", got)
		}
		_, _ = w.Write([]byte(`{"id":"res_abc","status":"PAID","amount":{"total":100000,"paid":100000,"cancelled":0},"currency":"KRW"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APISecret: "secret-1", StoreID: "store-1"})

	p, err := c.GetPayment(context.Background(), "res_abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != StatusPaid || p.Amount.Total != 100000 {
		t.Fatalf("unexpected payment: %+v", p)
	}
}

func TestClient_GetPayment_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"type":"PAYMENT_NOT_FOUND","message":"no such payment"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})

	_, err := c.GetPayment(context.Background(), "res_missing")
	if !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestClient_CancelPayment_SendsIdempotencyKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/payments/res_abc/cancel" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Idempotency-Key"); got != "refund-key" {
			t.Errorf("unexpected idempotency key %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["storeId"] != "store-1" || body["amount"] != float64(80000) || body["reason"] != "user request" {
			t.Errorf("unexpected body %v", body)
		}
		_, _ = w.Write([]byte(`{"cancellation":{"status":"SUCCEEDED","id":"c1","totalAmount":80000}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APISecret: "s", StoreID: "store-1"})

	res, err := c.CancelPayment(context.Background(), CancelRequest{
		PaymentID:      "res_abc",
		Amount:         80000,
		Reason:         "user request",
		IdempotencyKey: "refund-key",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != "SUCCEEDED" || res.TotalAmount != 80000 || len(res.Raw) == 0 {
		t.Fatalf("unexpected cancellation: %+v", res)
	}
}

func TestClient_CancelPayment_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"type":"PAYMENT_ALREADY_CANCELLED","message":"already cancelled"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})

	_, err := c.CancelPayment(context.Background(), CancelRequest{PaymentID: "res_abc", Amount: 1})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusConflict || apiErr.Type != "PAYMENT_ALREADY_CANCELLED" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}
