// Package dispatch routes work-item events to per-project chat webhooks.
// The dispatcher is deliberately an isolation boundary: whatever goes wrong
// here, the caller's mutation flow only ever sees a boolean.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/mtewold/chathook/internal/card"
	"github.com/mtewold/chathook/internal/domain"
	"github.com/mtewold/chathook/internal/envelope"
	"github.com/mtewold/chathook/internal/logging"
	"github.com/mtewold/chathook/internal/ratelimit"
	"github.com/mtewold/chathook/internal/relay"
	"github.com/mtewold/chathook/internal/store"
)

const rateLimitedDetail = "rate_limited"

// Sender is the delivery hop. Satisfied by *relay.Client; tests stub it.
type Sender interface {
	Send(ctx context.Context, env envelope.RelayEnvelope) relay.Outcome
}

// Dispatcher drives one notification from event to audit record.
type Dispatcher struct {
	enabled   bool
	configs   store.EndpointConfigStore
	records   store.NotificationLogStore
	formatter *card.Formatter
	adapter   *envelope.Adapter
	limiter   ratelimit.Limiter
	sender    Sender
}

func New(
	enabled bool,
	configs store.EndpointConfigStore,
	records store.NotificationLogStore,
	formatter *card.Formatter,
	adapter *envelope.Adapter,
	limiter ratelimit.Limiter,
	sender Sender,
) *Dispatcher {
	return &Dispatcher{
		enabled:   enabled,
		configs:   configs,
		records:   records,
		formatter: formatter,
		adapter:   adapter,
		limiter:   limiter,
		sender:    sender,
	}
}

func (d *Dispatcher) TaskCreated(ctx context.Context, item domain.WorkItem, actor *domain.Actor) bool {
	return d.Notify(ctx, domain.EventCreated, item, actor)
}

func (d *Dispatcher) TaskUpdated(ctx context.Context, item domain.WorkItem, actor *domain.Actor) bool {
	return d.Notify(ctx, domain.EventUpdated, item, actor)
}

func (d *Dispatcher) TaskAssigned(ctx context.Context, item domain.WorkItem, actor *domain.Actor) bool {
	return d.Notify(ctx, domain.EventAssigned, item, actor)
}

func (d *Dispatcher) TaskCompleted(ctx context.Context, item domain.WorkItem, actor *domain.Actor) bool {
	return d.Notify(ctx, domain.EventCompleted, item, actor)
}

// Notify runs the full dispatch sequence for one event and reports whether
// the notification reached the relay. It never returns an error: a project
// without an active endpoint is a normal outcome, and a broken channel must
// not fail the task mutation that triggered the event.
func (d *Dispatcher) Notify(ctx context.Context, eventType domain.EventType, item domain.WorkItem, actor *domain.Actor) bool {
	if !d.enabled {
		return false
	}

	ctx = d.traceContext(ctx, item.ProjectID, eventType)
	l := logging.FromContext(ctx)

	cfg, ok := d.resolveEndpoint(ctx, item.ProjectID, eventType)
	if !ok {
		return false
	}

	var actorID *string
	if actor != nil && actor.ID != "" {
		actorID = &actor.ID
	}
	var entityID *string
	if item.ID != "" {
		entityID = &item.ID
	}

	buildCard := func() card.Card { return d.formatter.BuildCard(eventType, item, actor) }
	return d.deliver(ctx, l, cfg, buildCard, eventType, item.ProjectID, entityID, actorID)
}

// TestEndpoint sends a test card through the live dispatch path so operators
// can verify a project's webhook registration end to end. The audit record
// it produces has no entity or actor.
func (d *Dispatcher) TestEndpoint(ctx context.Context, projectID string) bool {
	if !d.enabled {
		return false
	}

	ctx = d.traceContext(ctx, projectID, domain.EventCustom)
	l := logging.FromContext(ctx)

	cfg, ok := d.resolveEndpoint(ctx, projectID, domain.EventCustom)
	if !ok {
		return false
	}

	buildCard := func() card.Card { return d.formatter.BuildTestCard(projectID, cfg.ChannelLabel, time.Now()) }
	return d.deliver(ctx, l, cfg, buildCard, domain.EventCustom, projectID, nil, nil)
}

func (d *Dispatcher) traceContext(ctx context.Context, projectID string, eventType domain.EventType) context.Context {
	if trace, err := gonanoid.New(12); err == nil {
		ctx = logging.WithTraceID(ctx, trace)
	}
	ctx = logging.WithProjectID(ctx, projectID)
	return logging.WithEventType(ctx, eventType.String())
}

// resolveEndpoint looks up the project's active registration and applies the
// per-endpoint event filter. Both miss cases are silent no-ops by contract.
func (d *Dispatcher) resolveEndpoint(ctx context.Context, projectID string, eventType domain.EventType) (*domain.EndpointConfig, bool) {
	l := logging.FromContext(ctx)

	cfg, err := d.configs.GetActiveByProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Frequent and expected: most projects have no webhook.
			l.Info("no active endpoint config for project", slog.String("code", "CFG_MISSING"))
		} else {
			l.Error("endpoint config lookup failed", slog.String("code", "DB_ERROR"), slog.Any("error", err))
		}
		return nil, false
	}

	if !cfg.EventEnabled(eventType) {
		l.Info("event type disabled for endpoint", slog.String("code", "CFG_DISABLED"))
		return nil, false
	}

	return cfg, true
}

func (d *Dispatcher) deliver(
	ctx context.Context,
	l *slog.Logger,
	cfg *domain.EndpointConfig,
	buildCard func() card.Card,
	eventType domain.EventType,
	projectID string,
	entityID, actorID *string,
) bool {
	allowed, err := d.limiter.Allow(ctx, ratelimit.KeyForURL(cfg.WebhookURL))
	if err != nil {
		// Fail open: a broken limiter backend must not silence notifications.
		l.Warn("rate limiter unavailable, allowing dispatch", slog.String("code", "RATE_ERROR"), slog.Any("error", err))
		allowed = true
	}

	if !allowed {
		l.Warn("rate limit exceeded for endpoint", slog.String("code", "RATE_LIMITED"))
		rec := d.newRecord(projectID, entityID, actorID, eventType, nil)
		rec.Status = domain.RecordStatusFailed
		detail := rateLimitedDetail
		rec.ErrorDetail = &detail
		if err := d.records.Create(ctx, rec); err != nil {
			l.Error("failed to record rate-limited dispatch", slog.String("code", "DB_ERROR"), slog.Any("error", err))
		}
		return false
	}

	env, err := d.adapter.Wrap(buildCard(), cfg.WebhookURL)
	if err != nil {
		l.Error("failed to build envelope", slog.String("code", "ENV_ERROR"), slog.Any("error", err))
		return false
	}

	rec := d.newRecord(projectID, entityID, actorID, eventType, env.Payload)
	if err := d.records.Create(ctx, rec); err != nil {
		l.Error("failed to create notification record", slog.String("code", "DB_ERROR"), slog.Any("error", err))
		return false
	}

	ctx = logging.WithRecordID(ctx, rec.ID)
	l = logging.FromContext(ctx)

	outcome := d.sender.Send(ctx, env)
	if outcome.Success {
		if err := d.records.MarkSent(ctx, rec.ID, outcome.RemoteRunID); err != nil {
			l.Error("failed to mark record sent", slog.String("code", "DB_ERROR"), slog.Any("error", err))
		}
		l.Info("notification delivered",
			slog.String("code", "DEL_SENT"),
			slog.Int("status", outcome.StatusCode),
			slog.String("remote_run_id", outcome.RemoteRunID),
		)
		return true
	}

	if err := d.records.MarkFailed(ctx, rec.ID, outcome.ErrorDetail); err != nil {
		l.Error("failed to mark record failed", slog.String("code", "DB_ERROR"), slog.Any("error", err))
	}
	l.Error("notification delivery failed",
		slog.String("code", "DEL_FAILED"),
		slog.Int("status", outcome.StatusCode),
		slog.String("detail", outcome.ErrorDetail),
	)
	return false
}

func (d *Dispatcher) newRecord(projectID string, entityID, actorID *string, eventType domain.EventType, payload json.RawMessage) *domain.NotificationRecord {
	now := time.Now()
	return &domain.NotificationRecord{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		EntityID:  entityID,
		ActorID:   actorID,
		EventType: eventType,
		Status:    domain.RecordStatusPending,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
