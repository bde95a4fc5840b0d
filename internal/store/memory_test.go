package store

import (
	"context"
	"testing"
	"time"

	"github.com/mtewold/chathook/internal/domain"
)

func pendingRecord(id, projectID string) *domain.NotificationRecord {
	now := time.Now()
	return &domain.NotificationRecord{
		ID:        id,
		ProjectID: projectID,
		EventType: domain.EventCreated,
		Status:    domain.RecordStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMarkSentIdempotent(t *testing.T) {
	s := NewMemoryNotificationLogStore()
	ctx := context.Background()

	if err := s.Create(ctx, pendingRecord("r1", "p1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := s.MarkSent(ctx, "r1", "run-1"); err != nil {
		t.Fatalf("MarkSent failed: %v", err)
	}
	// Second terminal call must not change anything.
	if err := s.MarkFailed(ctx, "r1", "late failure"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	rec := s.All()[0]
	if rec.Status != domain.RecordStatusSent {
		t.Errorf("expected status sent, got %q", rec.Status)
	}
	if rec.RemoteRunID == nil || *rec.RemoteRunID != "run-1" {
		t.Errorf("expected run id run-1, got %v", rec.RemoteRunID)
	}
	if rec.ErrorDetail != nil {
		t.Errorf("sent record must not gain an error detail, got %v", *rec.ErrorDetail)
	}
}

func TestMarkFailedIdempotent(t *testing.T) {
	s := NewMemoryNotificationLogStore()
	ctx := context.Background()

	if err := s.Create(ctx, pendingRecord("r1", "p1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := s.MarkFailed(ctx, "r1", "HTTP 500: boom"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}
	if err := s.MarkSent(ctx, "r1", "run-1"); err != nil {
		t.Fatalf("MarkSent failed: %v", err)
	}

	rec := s.All()[0]
	if rec.Status != domain.RecordStatusFailed {
		t.Errorf("expected status failed, got %q", rec.Status)
	}
	if rec.RemoteRunID != nil {
		t.Errorf("failed record must not gain a run id, got %v", *rec.RemoteRunID)
	}
}

func TestMarkUnknownRecord(t *testing.T) {
	s := NewMemoryNotificationLogStore()
	if err := s.MarkSent(context.Background(), "missing", ""); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStats(t *testing.T) {
	s := NewMemoryNotificationLogStore()
	ctx := context.Background()

	s.Create(ctx, pendingRecord("r1", "p1"))
	s.Create(ctx, pendingRecord("r2", "p1"))
	s.Create(ctx, pendingRecord("r3", "p2"))
	s.MarkSent(ctx, "r1", "run-1")
	s.MarkFailed(ctx, "r2", "boom")

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 3 || stats.Sent != 1 || stats.Failed != 1 || stats.Pending != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	projStats, err := s.StatsByProject(ctx, "p1")
	if err != nil {
		t.Fatalf("StatsByProject failed: %v", err)
	}
	if projStats.Total != 2 || projStats.Sent != 1 || projStats.Failed != 1 || projStats.Pending != 0 {
		t.Errorf("unexpected project stats: %+v", projStats)
	}
}

func TestListRecent(t *testing.T) {
	s := NewMemoryNotificationLogStore()
	ctx := context.Background()

	s.Create(ctx, pendingRecord("r1", "p1"))
	s.Create(ctx, pendingRecord("r2", "p1"))
	s.Create(ctx, pendingRecord("r3", "p1"))

	recent, err := s.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recent))
	}
	if recent[0].ID != "r3" || recent[1].ID != "r2" {
		t.Errorf("expected newest first, got %s, %s", recent[0].ID, recent[1].ID)
	}
}

func TestEndpointConfigStore(t *testing.T) {
	s := NewMemoryEndpointConfigStore()
	ctx := context.Background()

	if _, err := s.GetActiveByProject(ctx, "p1"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for unknown project, got %v", err)
	}

	cfg := &domain.EndpointConfig{
		ID:         "c1",
		ProjectID:  "p1",
		WebhookURL: "https://example.webhook.office.com/a",
		IsActive:   true,
	}
	if err := s.Upsert(ctx, cfg); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := s.GetActiveByProject(ctx, "p1")
	if err != nil {
		t.Fatalf("GetActiveByProject failed: %v", err)
	}
	if got.WebhookURL != cfg.WebhookURL {
		t.Errorf("unexpected webhook url: %q", got.WebhookURL)
	}

	if err := s.Deactivate(ctx, "p1"); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	if _, err := s.GetActiveByProject(ctx, "p1"); err != ErrNotFound {
		t.Errorf("deactivated config must not resolve, got %v", err)
	}
}
