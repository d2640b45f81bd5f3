// Package events publishes saga milestones to the append-only event log.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	OrderCreated     = "ORDER_CREATED"
	OrderCanceled    = "ORDER_CANCELED"
	OrderConfirmed   = "ORDER_CONFIRMED"
	PaymentCaptured  = "PAYMENT_CAPTURED"
	PaymentFailed    = "PAYMENT_FAILED"
	StockDebitFailed = "STOCK_DEBIT_FAILED"
)

type Event struct {
	Type      string         `json:"eventType"`
	OrderID   string         `json:"orderId"`
	AccountID string         `json:"accountId,omitempty"`
	At        time.Time      `json:"at"`
	Data      map[string]any `json:"data,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, topic string, e Event) error
}

// KafkaPublisher writes one JSON message per event, keyed by order id so all
// events of an order land on the same partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic string, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(e.OrderID),
		Value: data,
		Time:  e.At,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop drops every event; used when KAFKA_BROKERS is empty.
type Nop struct{}

func (Nop) Publish(context.Context, string, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events map[string][]Event
}

func (r *Recorder) Publish(_ context.Context, topic string, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		r.events = make(map[string][]Event)
	}
	r.events[topic] = append(r.events[topic], e)
	return nil
}

// Types returns the event types published on topic, in order.
func (r *Recorder) Types(topic string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events[topic]))
	for _, e := range r.events[topic] {
		out = append(out, e.Type)
	}
	return out
}
