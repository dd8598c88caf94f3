package storage

import (
	"context"
	"database/sql"
	"fmt"
)

type StatRepo struct {
	db *sql.DB
}

func NewStatRepo(db *sql.DB) *StatRepo {
	return &StatRepo{db: db}
}

func (r *StatRepo) GetCharacterByUser(ctx context.Context, userID string) (*Character, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, created_at FROM characters WHERE user_id = ?
	`, userID)

	var c Character
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("character get: %w", err)
	}
	return &c, nil
}

func (r *StatRepo) InsertCharacter(ctx context.Context, c Character) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO characters (id, user_id, name, created_at) VALUES (?, ?, ?, ?)
	`, c.ID, c.UserID, c.Name, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("character insert: %w", err)
	}
	return nil
}

func (r *StatRepo) InsertStat(ctx context.Context, s CharacterStat) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO character_stats (id, character_id, category, total_xp, current_level, current_xp, level_title)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.CharacterID, s.Category, s.TotalXP, s.CurrentLevel, s.CurrentXP, s.LevelTitle)
	if err != nil {
		return fmt.Errorf("stat insert: %w", err)
	}
	return nil
}

func (r *StatRepo) ListStats(ctx context.Context, characterID string) ([]CharacterStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, character_id, category, total_xp, current_level, current_xp, level_title
		FROM character_stats
		WHERE character_id = ?
		ORDER BY category ASC
	`, characterID)
	if err != nil {
		return nil, fmt.Errorf("stat list: %w", err)
	}
	defer rows.Close()

	var out []CharacterStat
	for rows.Next() {
		var s CharacterStat
		if err := rows.Scan(&s.ID, &s.CharacterID, &s.Category, &s.TotalXP, &s.CurrentLevel, &s.CurrentXP, &s.LevelTitle); err != nil {
			return nil, fmt.Errorf("stat scan: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stat rows: %w", err)
	}
	return out, nil
}

func (r *StatRepo) GetStatTx(ctx context.Context, q Querier, characterID string, category string) (*CharacterStat, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, character_id, category, total_xp, current_level, current_xp, level_title
		FROM character_stats
		WHERE character_id = ? AND category = ?
	`, characterID, category)

	var s CharacterStat
	if err := row.Scan(&s.ID, &s.CharacterID, &s.Category, &s.TotalXP, &s.CurrentLevel, &s.CurrentXP, &s.LevelTitle); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("stat get: %w", err)
	}
	return &s, nil
}

// UpdateStatTx persists the accumulator and its derived caches together.
func (r *StatRepo) UpdateStatTx(ctx context.Context, q Querier, s *CharacterStat) error {
	_, err := q.ExecContext(ctx, `
		UPDATE character_stats
		SET total_xp = ?, current_level = ?, current_xp = ?, level_title = ?
		WHERE id = ?
	`, s.TotalXP, s.CurrentLevel, s.CurrentXP, s.LevelTitle, s.ID)
	if err != nil {
		return fmt.Errorf("stat update: %w", err)
	}
	return nil
}
