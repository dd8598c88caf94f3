package engine

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"lifequest/internal/storage"
)

type Service struct {
	db          *sql.DB
	stats       *storage.StatRepo
	tasks       *storage.TaskRepo
	completions *storage.CompletionRepo
	containers  *storage.ContainerRepo
	sources     *storage.SourceRepo

	// Now is swappable for tests.
	Now func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{
		db:          db,
		stats:       storage.NewStatRepo(db),
		tasks:       storage.NewTaskRepo(db),
		completions: storage.NewCompletionRepo(db),
		containers:  storage.NewContainerRepo(db),
		sources:     storage.NewSourceRepo(db),
		Now:         time.Now,
	}
}

func (s *Service) StatRepo() *storage.StatRepo             { return s.stats }
func (s *Service) TaskRepo() *storage.TaskRepo             { return s.tasks }
func (s *Service) CompletionRepo() *storage.CompletionRepo { return s.completions }
func (s *Service) ContainerRepo() *storage.ContainerRepo   { return s.containers }
func (s *Service) SourceRepo() *storage.SourceRepo         { return s.sources }

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func newID() string {
	return uuid.New().String()
}

// parseID validates an incoming identifier before it reaches a query.
func parseID(field string, id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", ValidationError{Field: field, Reason: "must be a UUID"}
	}
	return parsed.String(), nil
}

// ownedTask loads a task and enforces ownership. A task owned by another user
// reports not-found so existence stays hidden.
func (s *Service) ownedTask(ctx context.Context, userID string, taskID string) (*storage.Task, error) {
	t, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil || t.UserID != userID {
		return nil, NotFoundError{Kind: "task", ID: taskID}
	}
	return t, nil
}
