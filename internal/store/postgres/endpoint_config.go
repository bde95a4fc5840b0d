package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mtewold/chathook/internal/domain"
	"github.com/mtewold/chathook/internal/store"
)

type EndpointConfigStore struct {
	db *DB
}

func NewEndpointConfigStore(db *DB) *EndpointConfigStore {
	return &EndpointConfigStore{db: db}
}

func (s *EndpointConfigStore) GetActiveByProject(ctx context.Context, projectID string) (*domain.EndpointConfig, error) {
	query := `
		SELECT id, project_id, webhook_url, channel_label, team_label, is_active, enabled_events, created_at, updated_at
		FROM endpoint_configs
		WHERE project_id = $1 AND is_active
	`

	cfg, err := scanConfig(s.db.Pool.QueryRow(ctx, query, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get endpoint config: %w", err)
	}
	return cfg, nil
}

func (s *EndpointConfigStore) ListActive(ctx context.Context) ([]*domain.EndpointConfig, error) {
	query := `
		SELECT id, project_id, webhook_url, channel_label, team_label, is_active, enabled_events, created_at, updated_at
		FROM endpoint_configs
		WHERE is_active
		ORDER BY project_id
	`

	rows, err := s.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query endpoint configs: %w", err)
	}
	defer rows.Close()

	var configs []*domain.EndpointConfig
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan endpoint config: %w", err)
		}
		configs = append(configs, cfg)
	}

	return configs, rows.Err()
}

func (s *EndpointConfigStore) Upsert(ctx context.Context, cfg *domain.EndpointConfig) error {
	enabledEvents, err := marshalEnabledEvents(cfg.EnabledEvents)
	if err != nil {
		return fmt.Errorf("marshal enabled events: %w", err)
	}

	query := `
		INSERT INTO endpoint_configs (id, project_id, webhook_url, channel_label, team_label, is_active, enabled_events, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (project_id) WHERE is_active DO UPDATE SET
			webhook_url    = EXCLUDED.webhook_url,
			channel_label  = EXCLUDED.channel_label,
			team_label     = EXCLUDED.team_label,
			is_active      = EXCLUDED.is_active,
			enabled_events = EXCLUDED.enabled_events,
			updated_at     = NOW()
	`

	_, err = s.db.Pool.Exec(ctx, query,
		cfg.ID,
		cfg.ProjectID,
		cfg.WebhookURL,
		nullable(cfg.ChannelLabel),
		nullable(cfg.TeamLabel),
		cfg.IsActive,
		enabledEvents,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: active config exists for project", store.ErrAlreadyExists)
		}
		return fmt.Errorf("upsert endpoint config: %w", err)
	}

	return nil
}

func (s *EndpointConfigStore) Deactivate(ctx context.Context, projectID string) error {
	query := `UPDATE endpoint_configs SET is_active = FALSE, updated_at = NOW() WHERE project_id = $1 AND is_active`

	tag, err := s.db.Pool.Exec(ctx, query, projectID)
	if err != nil {
		return fmt.Errorf("deactivate endpoint config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanConfig(row pgx.Row) (*domain.EndpointConfig, error) {
	var cfg domain.EndpointConfig
	var channelLabel, teamLabel *string
	var enabledEvents []byte

	err := row.Scan(
		&cfg.ID,
		&cfg.ProjectID,
		&cfg.WebhookURL,
		&channelLabel,
		&teamLabel,
		&cfg.IsActive,
		&enabledEvents,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if channelLabel != nil {
		cfg.ChannelLabel = *channelLabel
	}
	if teamLabel != nil {
		cfg.TeamLabel = *teamLabel
	}
	if enabledEvents != nil {
		cfg.EnabledEvents, err = unmarshalEnabledEvents(enabledEvents)
		if err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// enabled_events is stored with wire event names as keys so rows stay
// readable in psql.
func marshalEnabledEvents(m map[domain.EventType]bool) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	named := make(map[string]bool, len(m))
	for t, enabled := range m {
		named[t.String()] = enabled
	}
	return json.Marshal(named)
}

func unmarshalEnabledEvents(data []byte) (map[domain.EventType]bool, error) {
	var named map[string]bool
	if err := json.Unmarshal(data, &named); err != nil {
		return nil, err
	}
	m := make(map[domain.EventType]bool, len(named))
	for name, enabled := range named {
		m[domain.ParseEventType(name)] = enabled
	}
	return m, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
