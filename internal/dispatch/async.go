package dispatch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mtewold/chathook/internal/domain"
	"github.com/mtewold/chathook/internal/envelope"
	"github.com/mtewold/chathook/internal/logging"
	"github.com/mtewold/chathook/internal/ratelimit"
)

const (
	defaultAsyncWorkers = 3
	defaultAsyncBuffer  = 100
)

type asyncJob struct {
	ctx        context.Context
	recordID   string
	webhookURL string
	env        envelope.RelayEnvelope
}

// AsyncDispatcher decouples delivery from the caller's mutation flow. The
// caller gets its boolean back as soon as the pending record exists; a
// bounded worker pool performs the rate check, the relay call and the
// terminal record update. The synchronous Dispatcher remains the baseline:
// use this variant when relay latency must not ride on the request path.
//
// Shutdown is ordered: stop the event sources first, then Close. Workers
// run until Close and drain every accepted job, so an accepted notification
// always reaches a terminal record state.
type AsyncDispatcher struct {
	d       *Dispatcher
	jobs    chan asyncJob
	wg      sync.WaitGroup
	workers int

	mu      sync.RWMutex
	stopped bool
}

func NewAsyncDispatcher(d *Dispatcher, workers, buffer int) *AsyncDispatcher {
	if workers < 1 {
		workers = defaultAsyncWorkers
	}
	if buffer < 1 {
		buffer = defaultAsyncBuffer
	}
	return &AsyncDispatcher{
		d:       d,
		jobs:    make(chan asyncJob, buffer),
		workers: workers,
	}
}

// Start launches the delivery workers. They run until Close.
func (a *AsyncDispatcher) Start() {
	for i := 0; i < a.workers; i++ {
		a.wg.Add(1)
		go a.worker()
	}
}

// Close stops intake, then waits for the workers to drain the queue and
// exit. Notify calls arriving after Close fail the notification instead of
// stranding it. Safe to call more than once.
func (a *AsyncDispatcher) Close() {
	a.mu.Lock()
	if !a.stopped {
		a.stopped = true
		close(a.jobs)
	}
	a.mu.Unlock()
	a.wg.Wait()
}

// Notify resolves the endpoint, persists the pending record and enqueues
// the delivery. True means the notification was accepted for delivery, not
// that it has been delivered; the record carries the final outcome.
func (a *AsyncDispatcher) Notify(ctx context.Context, eventType domain.EventType, item domain.WorkItem, actor *domain.Actor) bool {
	if !a.d.enabled {
		return false
	}

	ctx = a.d.traceContext(ctx, item.ProjectID, eventType)
	l := logging.FromContext(ctx)

	cfg, ok := a.d.resolveEndpoint(ctx, item.ProjectID, eventType)
	if !ok {
		return false
	}

	c := a.d.formatter.BuildCard(eventType, item, actor)
	env, err := a.d.adapter.Wrap(c, cfg.WebhookURL)
	if err != nil {
		l.Error("failed to build envelope", slog.String("code", "ENV_ERROR"), slog.Any("error", err))
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

	rec := a.d.newRecord(item.ProjectID, entityID, actorID, eventType, env.Payload)
	if err := a.d.records.Create(ctx, rec); err != nil {
		l.Error("failed to create notification record", slog.String("code", "DB_ERROR"), slog.Any("error", err))
		return false
	}

	job := asyncJob{
		ctx:        logging.WithRecordID(ctx, rec.ID),
		recordID:   rec.ID,
		webhookURL: cfg.WebhookURL,
		env:        env,
	}

	// The read lock pins the channel open: Close cannot flip stopped and
	// close it while an enqueue is in flight.
	a.mu.RLock()
	if a.stopped {
		a.mu.RUnlock()
		l.Warn("dispatcher stopped, failing notification", slog.String("code", "QUEUE_CLOSED"))
		a.failAccepted(ctx, l, rec.ID, "dispatcher_stopped")
		return false
	}

	select {
	case a.jobs <- job:
		a.mu.RUnlock()
		return true
	default:
		a.mu.RUnlock()
		l.Warn("dispatch queue full, failing notification", slog.String("code", "QUEUE_FULL"))
		a.failAccepted(ctx, l, rec.ID, "queue_full")
		return false
	}
}

func (a *AsyncDispatcher) failAccepted(ctx context.Context, l *slog.Logger, recordID, detail string) {
	if err := a.d.records.MarkFailed(ctx, recordID, detail); err != nil {
		l.Error("failed to mark record failed", slog.String("code", "DB_ERROR"), slog.Any("error", err))
	}
}

func (a *AsyncDispatcher) worker() {
	defer a.wg.Done()
	for job := range a.jobs {
		a.process(job)
	}
}

func (a *AsyncDispatcher) process(job asyncJob) {
	// The caller's request may be long gone by the time the job runs; keep
	// its log attributes but not its cancellation.
	ctx := context.WithoutCancel(job.ctx)
	l := logging.FromContext(ctx)

	allowed, err := a.d.limiter.Allow(ctx, ratelimit.KeyForURL(job.webhookURL))
	if err != nil {
		l.Warn("rate limiter unavailable, allowing dispatch", slog.String("code", "RATE_ERROR"), slog.Any("error", err))
		allowed = true
	}
	if !allowed {
		l.Warn("rate limit exceeded for endpoint", slog.String("code", "RATE_LIMITED"))
		if err := a.d.records.MarkFailed(ctx, job.recordID, rateLimitedDetail); err != nil {
			l.Error("failed to mark record failed", slog.String("code", "DB_ERROR"), slog.Any("error", err))
		}
		return
	}

	outcome := a.d.sender.Send(ctx, job.env)
	if outcome.Success {
		if err := a.d.records.MarkSent(ctx, job.recordID, outcome.RemoteRunID); err != nil {
			l.Error("failed to mark record sent", slog.String("code", "DB_ERROR"), slog.Any("error", err))
		}
		l.Info("notification delivered",
			slog.String("code", "DEL_SENT"),
			slog.Int("status", outcome.StatusCode),
			slog.String("remote_run_id", outcome.RemoteRunID),
		)
		return
	}

	if err := a.d.records.MarkFailed(ctx, job.recordID, outcome.ErrorDetail); err != nil {
		l.Error("failed to mark record failed", slog.String("code", "DB_ERROR"), slog.Any("error", err))
	}
	l.Error("notification delivery failed",
		slog.String("code", "DEL_FAILED"),
		slog.Int("status", outcome.StatusCode),
		slog.String("detail", outcome.ErrorDetail),
	)
}
