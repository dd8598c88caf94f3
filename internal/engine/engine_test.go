package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"lifequest/internal/storage"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// newTestService opens a real SQLite database in a temp dir and pins the
// service clock to testNow.
func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	svc := NewService(db)
	svc.Now = func() time.Time { return testNow }
	return svc
}

// seedUser creates a character with the default stat categories and returns
// the user id.
func seedUser(t *testing.T, svc *Service) string {
	t.Helper()

	userID := uuid.NewString()
	if _, err := svc.EnsureCharacter(context.Background(), userID, "", nil); err != nil {
		t.Fatalf("ensure character: %v", err)
	}
	return userID
}

func mustCreateTask(t *testing.T, svc *Service, userID string, in CreateTaskInput) *storage.Task {
	t.Helper()

	task, err := svc.CreateTask(context.Background(), userID, in)
	if err != nil {
		t.Fatalf("create task %q: %v", in.Title, err)
	}
	return task
}

func statByCategory(t *testing.T, svc *Service, userID string, category string) storage.CharacterStat {
	t.Helper()

	_, stats, err := svc.CharacterStats(context.Background(), userID)
	if err != nil {
		t.Fatalf("character stats: %v", err)
	}
	for _, s := range stats {
		if s.Category == category {
			return s
		}
	}
	t.Fatalf("no stat for category %q", category)
	return storage.CharacterStat{}
}
