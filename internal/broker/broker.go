// Package broker adapts the external domain event source. Work-item events
// arrive as JSON on a NATS subject; each one is handed to the dispatcher.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/mtewold/chathook/internal/domain"
	"github.com/mtewold/chathook/internal/logging"
)

const (
	EventSubject = "workitems.events.>"
	queueGroup   = "chathook-dispatch"
)

// Event is the wire form of a work-item domain event.
type Event struct {
	Type  string          `json:"type"`
	Item  domain.WorkItem `json:"item"`
	Actor *domain.Actor   `json:"actor,omitempty"`
}

// Notifier is the dispatch entry point the consumer feeds. Satisfied by both
// dispatch.Dispatcher and dispatch.AsyncDispatcher.
type Notifier interface {
	Notify(ctx context.Context, eventType domain.EventType, item domain.WorkItem, actor *domain.Actor) bool
}

// Consumer subscribes to the event subject and dispatches notifications.
type Consumer struct {
	conn     *nats.Conn
	notifier Notifier
	sub      *nats.Subscription
}

func NewConsumer(url string, notifier Notifier) (*Consumer, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Consumer{
		conn:     conn,
		notifier: notifier,
	}, nil
}

// Start subscribes with a queue group so multiple dispatcher processes share
// the event stream without duplicating notifications.
func (c *Consumer) Start(ctx context.Context) error {
	sub, err := c.conn.QueueSubscribe(EventSubject, queueGroup, func(msg *nats.Msg) {
		c.handle(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	c.sub = sub

	slog.Info("event consumer started",
		slog.String("code", "SYS_STARTUP"),
		slog.String("subject", EventSubject),
	)
	return nil
}

func (c *Consumer) handle(ctx context.Context, msg *nats.Msg) {
	var ev Event
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		slog.Error("failed to unmarshal event",
			slog.String("code", "EVT_MALFORMED"),
			slog.String("subject", msg.Subject),
			slog.Any("error", err),
		)
		return
	}

	eventType := domain.ParseEventType(ev.Type)
	if eventType == domain.EventUnspecified {
		slog.Warn("event without a type, skipping",
			slog.String("code", "EVT_MALFORMED"),
			slog.String("subject", msg.Subject),
		)
		return
	}

	delivered := c.notifier.Notify(ctx, eventType, ev.Item, ev.Actor)
	logging.FromContext(ctx).Info("event processed",
		slog.String("code", "EVT_PROCESSED"),
		slog.String("event_type", eventType.String()),
		slog.String("project_id", ev.Item.ProjectID),
		slog.Bool("delivered", delivered),
	)
}

func (c *Consumer) Close() error {
	if c.sub != nil {
		if err := c.sub.Drain(); err != nil {
			return fmt.Errorf("drain subscription: %w", err)
		}
	}
	c.conn.Close()
	return nil
}
