package storage

import (
	"context"
	"database/sql"
	"fmt"
)

type ContainerRepo struct {
	db *sql.DB
}

func NewContainerRepo(db *sql.DB) *ContainerRepo {
	return &ContainerRepo{db: db}
}

const containerColumns = `id, user_id, kind, title, description, status, start_date, end_date, created_at`

func (r *ContainerRepo) Insert(ctx context.Context, c Container) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO containers (id, user_id, kind, title, description, status, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.UserID, c.Kind, c.Title, c.Description, c.Status, c.StartDate, c.EndDate, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("container insert: %w", err)
	}
	return nil
}

func (r *ContainerRepo) Get(ctx context.Context, id string) (*Container, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+containerColumns+` FROM containers WHERE id = ?`, id)
	return scanContainer(row)
}

func (r *ContainerRepo) GetMany(ctx context.Context, ids []string) (map[string]Container, error) {
	out := make(map[string]Container, len(ids))
	for _, id := range ids {
		c, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if c != nil {
			out[c.ID] = *c
		}
	}
	return out, nil
}

func (r *ContainerRepo) ListByUser(ctx context.Context, userID string, kind string) ([]Container, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+containerColumns+` FROM containers
		WHERE user_id = ? AND kind = ?
		ORDER BY created_at ASC
	`, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("container list: %w", err)
	}
	defer rows.Close()

	var out []Container
	for rows.Next() {
		c, err := scanContainer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("container rows: %w", err)
	}
	return out, nil
}

func (r *ContainerRepo) UpdateStatus(ctx context.Context, id string, status string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE containers SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("container update status: %w", err)
	}
	return nil
}

func (r *ContainerRepo) DeleteTx(ctx context.Context, q Querier, id string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM containers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("container delete: %w", err)
	}
	return nil
}

func scanContainer(row scanner) (*Container, error) {
	var (
		c           Container
		description sql.NullString
		endDate     sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Kind, &c.Title, &description, &c.Status, &c.StartDate, &endDate, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("container scan: %w", err)
	}
	if description.Valid {
		v := description.String
		c.Description = &v
	}
	if endDate.Valid {
		v := endDate.Time
		c.EndDate = &v
	}
	return &c, nil
}
