// Package events публикует доменные события ядра в RabbitMQ (topic exchange).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Ключи маршрутизации.
const (
	KeyReservationCreated   = "reservation.created"
	KeyReservationConfirmed = "reservation.confirmed"
	KeyReservationCancelled = "reservation.cancelled"
	KeyReservationExpired   = "reservation.expired"
	KeyPaymentPaid          = "payment.paid"
	KeyPaymentCancelled     = "payment.cancelled"
	KeyPaymentFailed        = "payment.failed"
	KeyPaymentRefunded      = "payment.refunded"
)

type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Nop — публикатор-заглушка, когда брокер не настроен.
type Nop struct{}

func (Nop) PublishJSON(context.Context, string, any) error { return nil }

type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string

	// amqp.Channel нельзя использовать из нескольких горутин одновременно.
	mu sync.Mutex
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         b,
	})
}

func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Recorder запоминает опубликованные события. Используется в тестах сервисов.
type Recorder struct {
	mu     sync.Mutex
	Events []Recorded
}

type Recorded struct {
	Key     string
	Payload any
}

func (r *Recorder) PublishJSON(_ context.Context, key string, v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Recorded{Key: key, Payload: v})
	return nil
}

// Keys возвращает ключи опубликованных событий по порядку.
func (r *Recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		keys = append(keys, e.Key)
	}
	return keys
}
