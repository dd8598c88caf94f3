package engine

import (
	"context"
	"database/sql"
	"math"
	"time"

	"lifequest/internal/storage"
)

type CreateContainerInput struct {
	Title       string
	Description *string
	StartDate   time.Time
	EndDate     *time.Time
}

// ContainerProgress is derived on read from the container's tasks and their
// completions; nothing here is stored.
type ContainerProgress struct {
	TotalTasks     int `json:"totalTasks"`
	CompletedTasks int `json:"completedTasks"`
	CompletionRate int `json:"completionRate"`
	EarnedXP       int `json:"earnedXp"`
}

type ContainerView struct {
	storage.Container
	Progress ContainerProgress `json:"progress"`
}

func (s *Service) CreateQuest(ctx context.Context, userID string, in CreateContainerInput) (*storage.Container, error) {
	return s.createContainer(ctx, userID, SourceQuest, in)
}

func (s *Service) CreateExperiment(ctx context.Context, userID string, in CreateContainerInput) (*storage.Container, error) {
	return s.createContainer(ctx, userID, SourceExperiment, in)
}

func (s *Service) createContainer(ctx context.Context, userID string, kind TaskSource, in CreateContainerInput) (*storage.Container, error) {
	userID, err := parseID("userId", userID)
	if err != nil {
		return nil, err
	}
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}
	start := in.StartDate
	if start.IsZero() {
		start = s.now()
	}

	c := storage.Container{
		ID:          newID(),
		UserID:      userID,
		Kind:        string(kind),
		Title:       title,
		Description: in.Description,
		Status:      string(ContainerActive),
		StartDate:   start.UTC(),
		EndDate:     in.EndDate,
		CreatedAt:   s.now(),
	}
	if err := s.containers.Insert(ctx, c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) GetQuest(ctx context.Context, userID string, questID string) (*ContainerView, error) {
	return s.getContainer(ctx, userID, SourceQuest, questID)
}

func (s *Service) GetExperiment(ctx context.Context, userID string, experimentID string) (*ContainerView, error) {
	return s.getContainer(ctx, userID, SourceExperiment, experimentID)
}

func (s *Service) getContainer(ctx context.Context, userID string, kind TaskSource, id string) (*ContainerView, error) {
	userID, err := parseID("userId", userID)
	if err != nil {
		return nil, err
	}
	id, err = parseID(string(kind)+"Id", id)
	if err != nil {
		return nil, err
	}

	c, err := s.ownedContainer(ctx, userID, kind, id)
	if err != nil {
		return nil, err
	}
	progress, err := s.containerProgress(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &ContainerView{Container: *c, Progress: *progress}, nil
}

func (s *Service) ListQuests(ctx context.Context, userID string) ([]ContainerView, error) {
	return s.listContainers(ctx, userID, SourceQuest)
}

func (s *Service) ListExperiments(ctx context.Context, userID string) ([]ContainerView, error) {
	return s.listContainers(ctx, userID, SourceExperiment)
}

func (s *Service) listContainers(ctx context.Context, userID string, kind TaskSource) ([]ContainerView, error) {
	userID, err := parseID("userId", userID)
	if err != nil {
		return nil, err
	}
	list, err := s.containers.ListByUser(ctx, userID, string(kind))
	if err != nil {
		return nil, err
	}

	out := make([]ContainerView, 0, len(list))
	for _, c := range list {
		progress, err := s.containerProgress(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, ContainerView{Container: c, Progress: *progress})
	}
	return out, nil
}

func (s *Service) UpdateQuestStatus(ctx context.Context, userID string, questID string, status ContainerStatus) error {
	return s.updateContainerStatus(ctx, userID, SourceQuest, questID, status)
}

func (s *Service) UpdateExperimentStatus(ctx context.Context, userID string, experimentID string, status ContainerStatus) error {
	return s.updateContainerStatus(ctx, userID, SourceExperiment, experimentID, status)
}

func (s *Service) updateContainerStatus(ctx context.Context, userID string, kind TaskSource, id string, status ContainerStatus) error {
	userID, err := parseID("userId", userID)
	if err != nil {
		return err
	}
	id, err = parseID(string(kind)+"Id", id)
	if err != nil {
		return err
	}
	if !status.IsValid() {
		return ValidationError{Field: "status", Reason: "unknown status " + string(status)}
	}
	if _, err := s.ownedContainer(ctx, userID, kind, id); err != nil {
		return err
	}
	return s.containers.UpdateStatus(ctx, id, string(status))
}

// DeleteQuest removes the quest and reparents its surviving tasks to ad-hoc
// instead of cascading. Completion history and stat provenance stay intact.
func (s *Service) DeleteQuest(ctx context.Context, userID string, questID string) error {
	return s.deleteContainer(ctx, userID, SourceQuest, questID)
}

func (s *Service) DeleteExperiment(ctx context.Context, userID string, experimentID string) error {
	return s.deleteContainer(ctx, userID, SourceExperiment, experimentID)
}

func (s *Service) deleteContainer(ctx context.Context, userID string, kind TaskSource, id string) error {
	userID, err := parseID("userId", userID)
	if err != nil {
		return err
	}
	id, err = parseID(string(kind)+"Id", id)
	if err != nil {
		return err
	}
	if _, err := s.ownedContainer(ctx, userID, kind, id); err != nil {
		return err
	}

	tasks, err := s.tasks.ListByContainer(ctx, id)
	if err != nil {
		return err
	}

	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for i := range tasks {
			// Ad-hoc tasks carry exactly one target stat; keep the first.
			stats := tasks[i].TargetStats
			if len(stats) > 1 {
				stats = stats[:1]
			}
			if err := s.tasks.ConvertToAdHocTx(ctx, tx, tasks[i].ID, stats); err != nil {
				return err
			}
		}
		return s.containers.DeleteTx(ctx, tx, id)
	})
}

func (s *Service) ownedContainer(ctx context.Context, userID string, kind TaskSource, id string) (*storage.Container, error) {
	c, err := s.containers.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil || c.UserID != userID || c.Kind != string(kind) {
		return nil, NotFoundError{Kind: string(kind), ID: id}
	}
	return c, nil
}

func (s *Service) containerProgress(ctx context.Context, containerID string) (*ContainerProgress, error) {
	tasks, err := s.tasks.ListByContainer(ctx, containerID)
	if err != nil {
		return nil, err
	}

	progress := &ContainerProgress{}
	ids := make([]string, 0, len(tasks))
	for i := range tasks {
		progress.TotalTasks++
		if TaskStatus(tasks[i].Status) == StatusCompleted {
			progress.CompletedTasks++
		}
		ids = append(ids, tasks[i].ID)
	}
	if progress.TotalTasks > 0 {
		rate := 100 * float64(progress.CompletedTasks) / float64(progress.TotalTasks)
		progress.CompletionRate = int(math.Floor(rate + 0.5))
	}

	earned, err := s.completions.SumActualXPForTasks(ctx, ids)
	if err != nil {
		return nil, err
	}
	progress.EarnedXP = earned
	return progress, nil
}
