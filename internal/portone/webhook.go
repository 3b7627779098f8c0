package portone

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Типы событий вебхука, на которые реагирует ядро. Остальные подтверждаются и игнорируются.
const (
	EventTransactionPaid      = "Transaction.Paid"
	EventTransactionCancelled = "Transaction.Cancelled"
)

const (
	headerID        = "webhook-id"
	headerTimestamp = "webhook-timestamp"
	headerSignature = "webhook-signature"

	secretPrefix     = "whsec_"
	defaultTolerance = 5 * time.Minute
)

var (
	ErrMissingHeaders   = errors.New("webhook: missing signature headers")
	ErrInvalidTimestamp = errors.New("webhook: timestamp outside tolerance")
	ErrInvalidSignature = errors.New("webhook: no matching signature")
	ErrInvalidSecret    = errors.New("webhook: invalid secret")
)

// WebhookEvent — проверенное тело вебхука.
type WebhookEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      struct {
		PaymentID     string `json:"paymentId"`
		StoreID       string `json:"storeId"`
		TransactionID string `json:"transactionId"`
	} `json:"data"`
}

// Relevant — событие меняет состояние платежа и требует сверки.
func (e *WebhookEvent) Relevant() bool {
	return e.Type == EventTransactionPaid || e.Type == EventTransactionCancelled
}

// Verifier проверяет подпись вебхука по схеме Standard Webhooks:
// HMAC-SHA256(secret, "<webhook-id>.<webhook-timestamp>.<body>") в base64,
// заголовок webhook-signature содержит список "v1,<sig>" через пробел.
type Verifier struct {
	key       []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier принимает секрет в виде "whsec_<base64>" (или просто base64).
func NewVerifier(secret string) (*Verifier, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, secretPrefix))
	if err != nil || len(key) == 0 {
		return nil, ErrInvalidSecret
	}
	return &Verifier{key: key, tolerance: defaultTolerance, now: time.Now}, nil
}

// Verify проверяет подпись и метку времени и разбирает тело.
func (v *Verifier) Verify(body []byte, h http.Header) (*WebhookEvent, error) {
	id := h.Get(headerID)
	ts := h.Get(headerTimestamp)
	sigs := h.Get(headerSignature)
	if id == "" || ts == "" || sigs == "" {
		return nil, ErrMissingHeaders
	}

	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, ErrInvalidTimestamp
	}
	sent := time.Unix(sec, 0)
	now := v.now()
	if now.Sub(sent) > v.tolerance || sent.Sub(now) > v.tolerance {
		return nil, ErrInvalidTimestamp
	}

	expected := v.sign(id, ts, body)
	matched := false
	for _, candidate := range strings.Fields(sigs) {
		version, sig, ok := strings.Cut(candidate, ",")
		if !ok || version != "v1" {
			continue
		}
		if hmac.Equal([]byte(sig), []byte(expected)) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, ErrInvalidSignature
	}

	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("webhook: decode body: %w", err)
	}
	return &ev, nil
}

// Sign возвращает значение заголовка webhook-signature для тела (нужно тестам и локальной отладке).
func (v *Verifier) Sign(id string, ts time.Time, body []byte) string {
	return "v1," + v.sign(id, strconv.FormatInt(ts.Unix(), 10), body)
}

func (v *Verifier) sign(id, ts string, body []byte) string {
	mac := hmac.New(sha256.New, v.key)
	mac.Write([]byte(id))
	mac.Write([]byte("."))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
