package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type SourceRepo struct {
	db *sql.DB
}

func NewSourceRepo(db *sql.DB) *SourceRepo {
	return &SourceRepo{db: db}
}

const sourceColumns = `id, user_id, name, source_type, auth_type, config, mapping_rules,
	sync_schedule, is_active, last_sync_at, created_at`

func (r *SourceRepo) Insert(ctx context.Context, s ExternalTaskSource) error {
	configJSON, err := marshalStringMap(s.Config)
	if err != nil {
		return fmt.Errorf("marshal source config: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO external_task_sources (
			id, user_id, name, source_type, auth_type, config, mapping_rules,
			sync_schedule, is_active, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.UserID, s.Name, s.SourceType, s.AuthType, configJSON, s.MappingRules,
		s.SyncSchedule, boolToInt(s.IsActive), s.CreatedAt)
	if err != nil {
		return fmt.Errorf("source insert: %w", err)
	}
	return nil
}

func (r *SourceRepo) Get(ctx context.Context, id string) (*ExternalTaskSource, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sourceColumns+` FROM external_task_sources WHERE id = ?`, id)
	return scanSource(row)
}

func (r *SourceRepo) ListByUser(ctx context.Context, userID string) ([]ExternalTaskSource, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sourceColumns+` FROM external_task_sources
		WHERE user_id = ?
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("source list: %w", err)
	}
	defer rows.Close()

	var out []ExternalTaskSource
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("source rows: %w", err)
	}
	return out, nil
}

func (r *SourceRepo) Update(ctx context.Context, s ExternalTaskSource) error {
	configJSON, err := marshalStringMap(s.Config)
	if err != nil {
		return fmt.Errorf("marshal source config: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE external_task_sources
		SET name = ?, source_type = ?, auth_type = ?, config = ?, mapping_rules = ?,
			sync_schedule = ?, is_active = ?
		WHERE id = ?
	`, s.Name, s.SourceType, s.AuthType, configJSON, s.MappingRules,
		s.SyncSchedule, boolToInt(s.IsActive), s.ID)
	if err != nil {
		return fmt.Errorf("source update: %w", err)
	}
	return nil
}

func (r *SourceRepo) TouchLastSync(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE external_task_sources SET last_sync_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("source touch last sync: %w", err)
	}
	return nil
}

func (r *SourceRepo) GetIntegrationTx(ctx context.Context, q Querier, sourceID string, externalID string) (*ExternalTaskIntegration, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, source_id, external_id, task_id, status, metadata, last_sync_at, created_at
		FROM external_task_integrations
		WHERE source_id = ? AND external_id = ?
	`, sourceID, externalID)
	return scanIntegration(row)
}

func (r *SourceRepo) InsertIntegrationTx(ctx context.Context, q Querier, in ExternalTaskIntegration) error {
	metaJSON, err := marshalStringMap(in.Metadata)
	if err != nil {
		return fmt.Errorf("marshal integration metadata: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO external_task_integrations (id, source_id, external_id, task_id, status, metadata, last_sync_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, in.ID, in.SourceID, in.ExternalID, in.TaskID, in.Status, metaJSON, in.LastSyncAt, in.CreatedAt)
	if err != nil {
		return fmt.Errorf("integration insert: %w", err)
	}
	return nil
}

func (r *SourceRepo) TouchIntegrationTx(ctx context.Context, q Querier, id string, at time.Time) error {
	_, err := q.ExecContext(ctx, `UPDATE external_task_integrations SET last_sync_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("integration touch: %w", err)
	}
	return nil
}

func (r *SourceRepo) CountIntegrations(ctx context.Context, sourceID string) (int, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM external_task_integrations WHERE source_id = ?
	`, sourceID)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("integration count: %w", err)
	}
	return n, nil
}

func scanSource(row scanner) (*ExternalTaskSource, error) {
	var (
		s          ExternalTaskSource
		configRaw  sql.NullString
		schedule   sql.NullString
		isActive   int
		lastSyncAt sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.SourceType, &s.AuthType, &configRaw, &s.MappingRules,
		&schedule, &isActive, &lastSyncAt, &s.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("source scan: %w", err)
	}
	if configRaw.Valid && configRaw.String != "" {
		if err := json.Unmarshal([]byte(configRaw.String), &s.Config); err != nil {
			return nil, fmt.Errorf("unmarshal source config: %w", err)
		}
	}
	if schedule.Valid {
		s.SyncSchedule = schedule.String
	}
	s.IsActive = isActive != 0
	if lastSyncAt.Valid {
		v := lastSyncAt.Time
		s.LastSyncAt = &v
	}
	return &s, nil
}

func scanIntegration(row scanner) (*ExternalTaskIntegration, error) {
	var (
		in      ExternalTaskIntegration
		taskID  sql.NullString
		metaRaw sql.NullString
	)
	if err := row.Scan(&in.ID, &in.SourceID, &in.ExternalID, &taskID, &in.Status, &metaRaw, &in.LastSyncAt, &in.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("integration scan: %w", err)
	}
	if taskID.Valid {
		v := taskID.String
		in.TaskID = &v
	}
	if metaRaw.Valid && metaRaw.String != "" {
		if err := json.Unmarshal([]byte(metaRaw.String), &in.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal integration metadata: %w", err)
		}
	}
	return &in, nil
}

func marshalStringMap(m map[string]string) (*string, error) {
	if len(m) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
