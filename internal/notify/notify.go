// Package notify carries user-facing transient notifications from the
// session and conversation stores to whoever is listening: a log, a
// websocket stream, or a Redis channel shared by several instances.
package notify

import (
	"context"
	"log/slog"
	"time"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

type Notification struct {
	Kind Kind      `json:"kind"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Sink receives notifications. Delivery is best effort; a sink never
// reports failure back to the component that emitted the notification.
type Sink interface {
	Notify(ctx context.Context, n Notification)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n Notification)

func (f SinkFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Discard drops everything.
var Discard Sink = SinkFunc(func(context.Context, Notification) {})

// New stamps a notification with the current time.
func New(kind Kind, text string) Notification {
	return Notification{Kind: kind, Text: text, At: time.Now().UTC()}
}

// LogSink writes notifications as structured log records.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Notify(ctx context.Context, n Notification) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if n.Kind == KindError {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, "notification", slog.String("kind", string(n.Kind)), slog.String("text", n.Text))
}

// Multi fans a notification out to every sink in order.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, s := range m {
		if s != nil {
			s.Notify(ctx, n)
		}
	}
}
