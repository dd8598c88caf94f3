package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type TaskRepo struct {
	db *sql.DB
}

func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

const taskColumns = `id, user_id, title, description, source, source_id, target_stats,
	estimated_xp, status, due_date, created_at, completed_at`

type TaskInsert struct {
	ID          string
	UserID      string
	Title       string
	Description *string
	Source      string
	SourceID    *string
	TargetStats []string
	EstimatedXP int
	Status      string
	DueDate     *time.Time
	CreatedAt   time.Time
}

func (r *TaskRepo) Insert(ctx context.Context, in TaskInsert) error {
	return r.InsertTx(ctx, r.db, in)
}

func (r *TaskRepo) InsertTx(ctx context.Context, q Querier, in TaskInsert) error {
	statsJSON, err := marshalStringSlice(in.TargetStats)
	if err != nil {
		return fmt.Errorf("marshal target stats: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO tasks (
			id, user_id, title, description, source, source_id, target_stats,
			estimated_xp, status, due_date, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, in.ID, in.UserID, in.Title, in.Description, in.Source, in.SourceID, statsJSON,
		in.EstimatedXP, in.Status, in.DueDate, in.CreatedAt)
	if err != nil {
		return fmt.Errorf("task insert: %w", err)
	}
	return nil
}

func (r *TaskRepo) Get(ctx context.Context, id string) (*Task, error) {
	return r.GetTx(ctx, r.db, id)
}

func (r *TaskRepo) GetTx(ctx context.Context, q Querier, id string) (*Task, error) {
	row := q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// ListVisible returns a user's tasks restricted to the given sources and
// optional status. Ordering is left to the caller.
func (r *TaskRepo) ListVisible(ctx context.Context, userID string, sources []string, status *string) ([]Task, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(sources))
	placeholders = placeholders[:len(placeholders)-1]

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ? AND source IN (` + placeholders + `)`
	args := make([]any, 0, len(sources)+2)
	args = append(args, userID)
	for _, s := range sources {
		args = append(args, s)
	}
	if status != nil {
		query += ` AND status = ?`
		args = append(args, *status)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("task list visible: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *TaskRepo) ListByContainer(ctx context.Context, sourceID string) ([]Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE source_id = ? ORDER BY created_at ASC
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("task list by container: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *TaskRepo) ListByUserAndSource(ctx context.Context, userID string, source string) ([]Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE user_id = ? AND source = ? ORDER BY created_at ASC
	`, userID, source)
	if err != nil {
		return nil, fmt.Errorf("task list by source: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// TransitionTx moves a task out of pending. The status predicate makes the
// update conditional, so a racing second transition loses and sees zero rows.
func (r *TaskRepo) TransitionTx(ctx context.Context, q Querier, id string, status string, completedAt *time.Time) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE tasks SET status = ?, completed_at = ? WHERE id = ? AND status = 'pending'
	`, status, completedAt, id)
	if err != nil {
		return false, fmt.Errorf("task transition: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("task transition rows: %w", err)
	}
	return n > 0, nil
}

type TaskAuthorUpdate struct {
	Title       string
	Description *string
	TargetStats []string
	EstimatedXP int
	DueDate     *time.Time
}

func (r *TaskRepo) UpdateAuthorFields(ctx context.Context, id string, in TaskAuthorUpdate) error {
	statsJSON, err := marshalStringSlice(in.TargetStats)
	if err != nil {
		return fmt.Errorf("marshal target stats: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, target_stats = ?, estimated_xp = ?, due_date = ?
		WHERE id = ?
	`, in.Title, in.Description, statsJSON, in.EstimatedXP, in.DueDate, id)
	if err != nil {
		return fmt.Errorf("task author update: %w", err)
	}
	return nil
}

// UpdateSyncedFieldsTx refreshes the fields an external source owns.
func (r *TaskRepo) UpdateSyncedFieldsTx(ctx context.Context, q Querier, id string, title string, description *string, dueDate *time.Time, estimatedXP int) error {
	_, err := q.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, due_date = ?, estimated_xp = ?
		WHERE id = ?
	`, title, description, dueDate, estimatedXP, id)
	if err != nil {
		return fmt.Errorf("task synced update: %w", err)
	}
	return nil
}

// ConvertToAdHocTx rewrites a task's provenance after its owning container is
// deleted. The task row (and its completion history) survives.
func (r *TaskRepo) ConvertToAdHocTx(ctx context.Context, q Querier, id string, targetStats []string) error {
	statsJSON, err := marshalStringSlice(targetStats)
	if err != nil {
		return fmt.Errorf("marshal target stats: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		UPDATE tasks SET source = 'ad-hoc', source_id = NULL, target_stats = ? WHERE id = ?
	`, statsJSON, id)
	if err != nil {
		return fmt.Errorf("task convert ad-hoc: %w", err)
	}
	return nil
}

func (r *TaskRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("task delete: %w", err)
	}
	return nil
}

func marshalStringSlice(ss []string) (*string, error) {
	if len(ss) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(ss)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*Task, error) {
	var (
		t           Task
		description sql.NullString
		sourceID    sql.NullString
		statsRaw    sql.NullString
		dueDate     sql.NullTime
		completedAt sql.NullTime
	)

	if err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &description, &t.Source, &sourceID, &statsRaw,
		&t.EstimatedXP, &t.Status, &dueDate, &t.CreatedAt, &completedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("task scan: %w", err)
	}

	if description.Valid {
		v := description.String
		t.Description = &v
	}
	if sourceID.Valid {
		v := sourceID.String
		t.SourceID = &v
	}
	if dueDate.Valid {
		v := dueDate.Time
		t.DueDate = &v
	}
	if completedAt.Valid {
		v := completedAt.Time
		t.CompletedAt = &v
	}
	if statsRaw.Valid && statsRaw.String != "" {
		if err := json.Unmarshal([]byte(statsRaw.String), &t.TargetStats); err != nil {
			return nil, fmt.Errorf("unmarshal target stats: %w", err)
		}
	}
	return &t, nil
}

func collectTasks(rows *sql.Rows) ([]Task, error) {
	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("task rows: %w", err)
	}
	return out, nil
}
