package storage

import (
	"context"
	"database/sql"
	"fmt"
)

func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS characters (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS character_stats (
			id TEXT PRIMARY KEY,
			character_id TEXT NOT NULL,
			category TEXT NOT NULL,
			total_xp INTEGER NOT NULL DEFAULT 0,
			current_level INTEGER NOT NULL DEFAULT 1,
			current_xp INTEGER NOT NULL DEFAULT 0,
			level_title TEXT NOT NULL DEFAULT 'Novice',

			UNIQUE(character_id, category),
			FOREIGN KEY(character_id) REFERENCES characters(id)
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			source TEXT NOT NULL,
			source_id TEXT,
			target_stats TEXT,
			estimated_xp INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'pending',
			due_date DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			completed_at DATETIME
		);`,
		// Append-only audit of completion events and the XP they awarded.
		`CREATE TABLE IF NOT EXISTS task_completions (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL,
			actual_xp INTEGER NOT NULL,
			stat_awards TEXT NOT NULL,
			feedback TEXT,
			completed_at DATETIME NOT NULL,
			FOREIGN KEY(task_id) REFERENCES tasks(id)
		);`,
		`CREATE TABLE IF NOT EXISTS containers (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			status TEXT NOT NULL DEFAULT 'active',
			start_date DATETIME NOT NULL,
			end_date DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS external_task_sources (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			source_type TEXT NOT NULL,
			auth_type TEXT NOT NULL,
			config TEXT,
			mapping_rules TEXT NOT NULL,
			sync_schedule TEXT,
			is_active INTEGER NOT NULL DEFAULT 1,
			last_sync_at DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS external_task_integrations (
			id TEXT PRIMARY KEY,
			source_id TEXT NOT NULL,
			external_id TEXT NOT NULL,
			task_id TEXT,
			status TEXT NOT NULL DEFAULT 'linked',
			metadata TEXT,
			last_sync_at DATETIME NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,

			UNIQUE(source_id, external_id),
			FOREIGN KEY(source_id) REFERENCES external_task_sources(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user_source ON tasks(user_id, source);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_source_id ON tasks(source_id);`,
		`CREATE INDEX IF NOT EXISTS idx_task_completions_task_id ON task_completions(task_id);`,
		`CREATE INDEX IF NOT EXISTS idx_character_stats_character ON character_stats(character_id);`,
		`CREATE INDEX IF NOT EXISTS idx_integrations_source ON external_task_integrations(source_id);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
