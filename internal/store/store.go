package store

import (
	"context"
	"errors"

	"github.com/mtewold/chathook/internal/domain"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// EndpointConfigStore reads per-project webhook registrations. The dispatch
// path only reads; Upsert and Deactivate exist for the operational CLI.
type EndpointConfigStore interface {
	GetActiveByProject(ctx context.Context, projectID string) (*domain.EndpointConfig, error)
	ListActive(ctx context.Context) ([]*domain.EndpointConfig, error)
	Upsert(ctx context.Context, cfg *domain.EndpointConfig) error
	Deactivate(ctx context.Context, projectID string) error
}

// NotificationLogStore persists one record per delivery attempt. MarkSent
// and MarkFailed are idempotent: a record already in a terminal state is
// left untouched.
type NotificationLogStore interface {
	Create(ctx context.Context, rec *domain.NotificationRecord) error
	MarkSent(ctx context.Context, id string, remoteRunID string) error
	MarkFailed(ctx context.Context, id string, errorDetail string) error
	Stats(ctx context.Context) (domain.DeliveryStats, error)
	StatsByProject(ctx context.Context, projectID string) (domain.DeliveryStats, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.NotificationRecord, error)
}
