package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mtewold/chathook/internal/domain"
)

// MemoryEndpointConfigStore keeps endpoint registrations in process memory.
// Used by tests and by CLI commands that run without a database.
type MemoryEndpointConfigStore struct {
	mu      sync.RWMutex
	configs map[string]*domain.EndpointConfig // keyed by project id
}

func NewMemoryEndpointConfigStore() *MemoryEndpointConfigStore {
	return &MemoryEndpointConfigStore{
		configs: make(map[string]*domain.EndpointConfig),
	}
}

func (s *MemoryEndpointConfigStore) GetActiveByProject(ctx context.Context, projectID string) (*domain.EndpointConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[projectID]
	if !ok || !cfg.IsActive {
		return nil, ErrNotFound
	}
	copied := *cfg
	return &copied, nil
}

func (s *MemoryEndpointConfigStore) ListActive(ctx context.Context) ([]*domain.EndpointConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.EndpointConfig
	for _, cfg := range s.configs {
		if cfg.IsActive {
			copied := *cfg
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProjectID < out[j].ProjectID })
	return out, nil
}

func (s *MemoryEndpointConfigStore) Upsert(ctx context.Context, cfg *domain.EndpointConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *cfg
	copied.UpdatedAt = time.Now()
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = copied.UpdatedAt
	}
	s.configs[cfg.ProjectID] = &copied
	return nil
}

func (s *MemoryEndpointConfigStore) Deactivate(ctx context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[projectID]
	if !ok {
		return ErrNotFound
	}
	cfg.IsActive = false
	return nil
}

// MemoryNotificationLogStore is the in-process audit log used in tests.
type MemoryNotificationLogStore struct {
	mu      sync.Mutex
	records []*domain.NotificationRecord
	byID    map[string]*domain.NotificationRecord
}

func NewMemoryNotificationLogStore() *MemoryNotificationLogStore {
	return &MemoryNotificationLogStore{
		byID: make(map[string]*domain.NotificationRecord),
	}
}

func (s *MemoryNotificationLogStore) Create(ctx context.Context, rec *domain.NotificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[rec.ID]; ok {
		return ErrAlreadyExists
	}
	copied := *rec
	s.records = append(s.records, &copied)
	s.byID[rec.ID] = &copied
	return nil
}

func (s *MemoryNotificationLogStore) MarkSent(ctx context.Context, id string, remoteRunID string) error {
	return s.markTerminal(id, domain.RecordStatusSent, remoteRunID, "")
}

func (s *MemoryNotificationLogStore) MarkFailed(ctx context.Context, id string, errorDetail string) error {
	return s.markTerminal(id, domain.RecordStatusFailed, "", errorDetail)
}

func (s *MemoryNotificationLogStore) markTerminal(id string, status domain.RecordStatus, runID, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	if rec.Status.Terminal() {
		return nil
	}
	rec.Status = status
	rec.UpdatedAt = time.Now()
	if runID != "" {
		rec.RemoteRunID = &runID
	}
	if detail != "" {
		rec.ErrorDetail = &detail
	}
	return nil
}

func (s *MemoryNotificationLogStore) Stats(ctx context.Context) (domain.DeliveryStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLocked(""), nil
}

func (s *MemoryNotificationLogStore) StatsByProject(ctx context.Context, projectID string) (domain.DeliveryStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLocked(projectID), nil
}

func (s *MemoryNotificationLogStore) statsLocked(projectID string) domain.DeliveryStats {
	var stats domain.DeliveryStats
	for _, rec := range s.records {
		if projectID != "" && rec.ProjectID != projectID {
			continue
		}
		stats.Total++
		switch rec.Status {
		case domain.RecordStatusSent:
			stats.Sent++
		case domain.RecordStatusFailed:
			stats.Failed++
		case domain.RecordStatusPending:
			stats.Pending++
		}
	}
	return stats
}

func (s *MemoryNotificationLogStore) ListRecent(ctx context.Context, limit int) ([]*domain.NotificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.NotificationRecord, 0, limit)
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		copied := *s.records[i]
		out = append(out, &copied)
	}
	return out, nil
}

// All returns every record in insertion order. Test helper.
func (s *MemoryNotificationLogStore) All() []*domain.NotificationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.NotificationRecord, len(s.records))
	for i, rec := range s.records {
		copied := *rec
		out[i] = &copied
	}
	return out
}
