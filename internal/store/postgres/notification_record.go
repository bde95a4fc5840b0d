package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/mtewold/chathook/internal/domain"
)

type NotificationLogStore struct {
	db *DB
}

func NewNotificationLogStore(db *DB) *NotificationLogStore {
	return &NotificationLogStore{db: db}
}

func (s *NotificationLogStore) Create(ctx context.Context, rec *domain.NotificationRecord) error {
	query := `
		INSERT INTO notification_records (id, project_id, entity_id, actor_id, event_type, status, remote_run_id, error_detail, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.db.Pool.Exec(ctx, query,
		rec.ID,
		rec.ProjectID,
		rec.EntityID,
		rec.ActorID,
		rec.EventType.String(),
		string(rec.Status),
		rec.RemoteRunID,
		rec.ErrorDetail,
		rec.Payload,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification record: %w", err)
	}

	return nil
}

// MarkSent transitions a pending record to sent. The status guard in the
// WHERE clause is what makes the call idempotent: a record already terminal
// is left as it was.
func (s *NotificationLogStore) MarkSent(ctx context.Context, id string, remoteRunID string) error {
	query := `
		UPDATE notification_records
		SET status = $1, remote_run_id = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`

	_, err := s.db.Pool.Exec(ctx, query,
		string(domain.RecordStatusSent),
		nullable(remoteRunID),
		time.Now(),
		id,
		string(domain.RecordStatusPending),
	)
	if err != nil {
		return fmt.Errorf("mark record sent: %w", err)
	}
	return nil
}

func (s *NotificationLogStore) MarkFailed(ctx context.Context, id string, errorDetail string) error {
	query := `
		UPDATE notification_records
		SET status = $1, error_detail = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`

	_, err := s.db.Pool.Exec(ctx, query,
		string(domain.RecordStatusFailed),
		nullable(errorDetail),
		time.Now(),
		id,
		string(domain.RecordStatusPending),
	)
	if err != nil {
		return fmt.Errorf("mark record failed: %w", err)
	}
	return nil
}

func (s *NotificationLogStore) Stats(ctx context.Context) (domain.DeliveryStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'sent'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*) FILTER (WHERE status = 'pending')
		FROM notification_records
	`
	return s.queryStats(ctx, query)
}

func (s *NotificationLogStore) StatsByProject(ctx context.Context, projectID string) (domain.DeliveryStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'sent'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*) FILTER (WHERE status = 'pending')
		FROM notification_records
		WHERE project_id = $1
	`
	return s.queryStats(ctx, query, projectID)
}

func (s *NotificationLogStore) queryStats(ctx context.Context, query string, args ...any) (domain.DeliveryStats, error) {
	var stats domain.DeliveryStats
	err := s.db.Pool.QueryRow(ctx, query, args...).Scan(
		&stats.Total,
		&stats.Sent,
		&stats.Failed,
		&stats.Pending,
	)
	if err != nil {
		return domain.DeliveryStats{}, fmt.Errorf("query stats: %w", err)
	}
	return stats, nil
}

func (s *NotificationLogStore) ListRecent(ctx context.Context, limit int) ([]*domain.NotificationRecord, error) {
	query := `
		SELECT id, project_id, entity_id, actor_id, event_type, status, remote_run_id, error_detail, payload, created_at, updated_at
		FROM notification_records
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := s.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query notification records: %w", err)
	}
	defer rows.Close()

	var records []*domain.NotificationRecord
	for rows.Next() {
		var rec domain.NotificationRecord
		var eventType, status string
		err := rows.Scan(
			&rec.ID,
			&rec.ProjectID,
			&rec.EntityID,
			&rec.ActorID,
			&eventType,
			&status,
			&rec.RemoteRunID,
			&rec.ErrorDetail,
			&rec.Payload,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan notification record: %w", err)
		}
		rec.EventType = domain.ParseEventType(eventType)
		rec.Status = domain.RecordStatus(status)
		records = append(records, &rec)
	}

	return records, rows.Err()
}
