package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

type CompletionRepo struct {
	db *sql.DB
}

func NewCompletionRepo(db *sql.DB) *CompletionRepo {
	return &CompletionRepo{db: db}
}

func (r *CompletionRepo) InsertTx(ctx context.Context, q Querier, c TaskCompletion) error {
	awards, err := json.Marshal(c.StatAwards)
	if err != nil {
		return fmt.Errorf("marshal stat awards: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO task_completions (id, task_id, actual_xp, stat_awards, feedback, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.TaskID, c.ActualXP, string(awards), c.Feedback, c.CompletedAt)
	if err != nil {
		return fmt.Errorf("completion insert: %w", err)
	}
	return nil
}

func (r *CompletionRepo) ListByTask(ctx context.Context, taskID string) ([]TaskCompletion, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, task_id, actual_xp, stat_awards, feedback, completed_at
		FROM task_completions
		WHERE task_id = ?
		ORDER BY completed_at ASC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("completion list: %w", err)
	}
	defer rows.Close()

	var out []TaskCompletion
	for rows.Next() {
		var (
			c         TaskCompletion
			awardsRaw string
			feedback  sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.TaskID, &c.ActualXP, &awardsRaw, &feedback, &c.CompletedAt); err != nil {
			return nil, fmt.Errorf("completion scan: %w", err)
		}
		if feedback.Valid {
			v := feedback.String
			c.Feedback = &v
		}
		if awardsRaw != "" {
			if err := json.Unmarshal([]byte(awardsRaw), &c.StatAwards); err != nil {
				return nil, fmt.Errorf("unmarshal stat awards: %w", err)
			}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("completion rows: %w", err)
	}
	return out, nil
}

// SumActualXPForTasks totals awarded XP across the given tasks.
func (r *CompletionRepo) SumActualXPForTasks(ctx context.Context, taskIDs []string) (int, error) {
	if len(taskIDs) == 0 {
		return 0, nil
	}
	placeholders := strings.Repeat("?,", len(taskIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(taskIDs))
	for i, id := range taskIDs {
		args[i] = id
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(actual_xp), 0) FROM task_completions WHERE task_id IN (`+placeholders+`)
	`, args...)

	var sum int
	if err := row.Scan(&sum); err != nil {
		return 0, fmt.Errorf("completion sum: %w", err)
	}
	return sum, nil
}
