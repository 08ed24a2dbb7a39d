package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

type NotificationKind string

const (
	StageStarted   NotificationKind = "started"
	StageSucceeded NotificationKind = "succeeded"
	StageFailed    NotificationKind = "failed"
	// StageDegraded marks a stage that answered with a substituted default.
	StageDegraded NotificationKind = "degraded"
)

// Notification reports progress of one pipeline stage.
type Notification struct {
	Pipeline  string           `json:"pipeline"`
	Stage     string           `json:"stage"`
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message,omitempty"`
	SessionID string           `json:"session_id,omitempty"`
	At        time.Time        `json:"at"`
}

// Notifier observes pipeline stages. Implementations must not block the
// pipeline for long and must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type sessionKey struct{}

// WithSessionID tags notifications emitted under ctx with a session id.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

func sessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Notification) {}

// LogNotifier writes notifications to the standard logger.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) {
	icon := "🔔"
	switch n.Kind {
	case StageStarted:
		icon = "🚀"
	case StageSucceeded:
		icon = "✅"
	case StageFailed:
		icon = "❌"
	case StageDegraded:
		icon = "⚠️ "
	}
	if n.Message != "" {
		log.Printf("%s [%s/%s] %s: %s\n", icon, n.Pipeline, n.Stage, n.Kind, n.Message)
		return
	}
	log.Printf("%s [%s/%s] %s\n", icon, n.Pipeline, n.Stage, n.Kind)
}

// MultiNotifier fans a notification out to several notifiers.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}

// RecordingNotifier keeps every notification in memory.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []Notification
}

func (r *RecordingNotifier) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, n)
}

func (r *RecordingNotifier) Events() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.events...)
}

// AMQPNotifier publishes notifications to a RabbitMQ exchange with the
// routing key session.<id>, or pipeline.<name> when no session is attached.
type AMQPNotifier struct {
	conn     *amqp.Connection
	exchange string
}

func NewAMQPNotifier(url, exchange string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &AMQPNotifier{conn: conn, exchange: exchange}, nil
}

func (a *AMQPNotifier) Notify(_ context.Context, n Notification) {
	if err := a.publish(n); err != nil {
		log.Printf("⚠️  Failed to publish stage update: %v\n", err)
	}
}

func (a *AMQPNotifier) publish(n Notification) error {
	ch, err := a.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	return ch.Publish(
		a.exchange,
		routingKey(n),
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   n.At,
			Body:        body,
		},
	)
}

func (a *AMQPNotifier) Close() error {
	return a.conn.Close()
}

func routingKey(n Notification) string {
	if n.SessionID != "" {
		return "session." + n.SessionID
	}
	return "pipeline." + n.Pipeline
}

// stageReporter stamps notifications for one pipeline.
type stageReporter struct {
	pipeline string
	notifier Notifier
}

func (r stageReporter) report(ctx context.Context, stage string, kind NotificationKind, msg string) {
	if r.notifier == nil {
		return
	}
	r.notifier.Notify(ctx, Notification{
		Pipeline:  r.pipeline,
		Stage:     stage,
		Kind:      kind,
		Message:   msg,
		SessionID: sessionIDFrom(ctx),
		At:        time.Now(),
	})
}

// track reports the start of a stage and its outcome.
func (r stageReporter) track(ctx context.Context, stage string, run func() error) error {
	r.report(ctx, stage, StageStarted, "")
	if err := run(); err != nil {
		r.report(ctx, stage, StageFailed, err.Error())
		return err
	}
	r.report(ctx, stage, StageSucceeded, "")
	return nil
}
