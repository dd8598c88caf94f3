package root

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"lifequest/internal/config"
	"lifequest/internal/engine"
	"lifequest/internal/storage"
)

func loadConfig() (*config.Config, error) {
	path := viper.GetString("config")
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return config.Load(path)
}

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, func(), error) {
	path := viper.GetString("db")
	if path == "" {
		path = cfg.DBPath
	}
	if path == "" {
		var err error
		path, err = storage.DefaultDBPath()
		if err != nil {
			return nil, nil, err
		}
	}
	db, err := storage.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = db.Close()
	}
	return db, cleanup, nil
}

func openService(ctx context.Context) (*engine.Service, *config.Config, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	db, cleanup, err := openDB(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return engine.NewService(db), cfg, cleanup, nil
}

// resolveUserID returns the configured user id, or a stable default for the
// single-user local install.
func resolveUserID() string {
	if id := viper.GetString("user"); id != "" {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("lifequest-main-user")).String()
}

// ensureCharacter makes sure the user has a character before any command that
// touches stats or completions.
func ensureCharacter(ctx context.Context, svc *engine.Service, cfg *config.Config, userID string) error {
	_, err := svc.EnsureCharacter(ctx, userID, cfg.Character.Name, cfg.Character.StatCategories)
	return err
}
