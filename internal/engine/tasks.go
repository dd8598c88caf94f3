package engine

import (
	"context"
	"strings"
	"time"

	"lifequest/internal/storage"
)

type CreateTaskInput struct {
	Title       string
	Description *string
	Source      TaskSource
	SourceID    *string
	TargetStats []string
	EstimatedXP int
	DueDate     *time.Time
}

func normalizeTitle(title string) (string, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return "", ValidationError{Field: "title", Reason: "is required"}
	}
	return t, nil
}

func (s *Service) CreateTask(ctx context.Context, userID string, in CreateTaskInput) (*storage.Task, error) {
	userID, err := parseID("userId", userID)
	if err != nil {
		return nil, err
	}
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if !in.Source.IsValid() {
		return nil, ValidationError{Field: "source", Reason: "unknown source " + string(in.Source)}
	}
	if in.EstimatedXP < 0 {
		return nil, ValidationError{Field: "estimatedXp", Reason: "must be non-negative"}
	}
	if in.Source == SourceAdHoc && len(in.TargetStats) != 1 {
		return nil, ValidationError{Field: "targetStats", Reason: "ad-hoc tasks take exactly one stat category"}
	}

	var sourceID *string
	if in.Source.RequiresContainer() {
		if in.SourceID == nil {
			return nil, ValidationError{Field: "sourceId", Reason: "required for source " + string(in.Source)}
		}
		id, err := parseID("sourceId", *in.SourceID)
		if err != nil {
			return nil, err
		}
		switch in.Source {
		case SourceQuest, SourceExperiment:
			c, err := s.containers.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			if c == nil || c.UserID != userID || c.Kind != string(in.Source) {
				return nil, NotFoundError{Kind: string(in.Source), ID: id}
			}
		case SourceExternal:
			src, err := s.sources.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			if src == nil || src.UserID != userID {
				return nil, NotFoundError{Kind: "external source", ID: id}
			}
		}
		sourceID = &id
	}

	task := storage.TaskInsert{
		ID:          newID(),
		UserID:      userID,
		Title:       title,
		Description: in.Description,
		Source:      string(in.Source),
		SourceID:    sourceID,
		TargetStats: in.TargetStats,
		EstimatedXP: in.EstimatedXP,
		Status:      string(StatusPending),
		DueDate:     in.DueDate,
		CreatedAt:   s.now(),
	}
	if err := s.tasks.Insert(ctx, task); err != nil {
		return nil, err
	}
	return s.tasks.Get(ctx, task.ID)
}

type UpdateTaskInput struct {
	Title       *string
	Description *string
	TargetStats []string
	EstimatedXP *int
	DueDate     *time.Time
	ClearDue    bool
}

// UpdateTask edits the author-editable fields. Only pending tasks may change;
// once a task is terminal it is immutable apart from deletion.
func (s *Service) UpdateTask(ctx context.Context, userID string, taskID string, in UpdateTaskInput) (*storage.Task, error) {
	userID, err := parseID("userId", userID)
	if err != nil {
		return nil, err
	}
	taskID, err = parseID("taskId", taskID)
	if err != nil {
		return nil, err
	}

	task, err := s.ownedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if TaskStatus(task.Status) != StatusPending {
		return nil, StateConflictError{Kind: "task", ID: taskID, Status: task.Status}
	}

	update := storage.TaskAuthorUpdate{
		Title:       task.Title,
		Description: task.Description,
		TargetStats: task.TargetStats,
		EstimatedXP: task.EstimatedXP,
		DueDate:     task.DueDate,
	}
	if in.Title != nil {
		title, err := normalizeTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		update.Title = title
	}
	if in.Description != nil {
		update.Description = in.Description
	}
	if in.TargetStats != nil {
		if TaskSource(task.Source) == SourceAdHoc && len(in.TargetStats) != 1 {
			return nil, ValidationError{Field: "targetStats", Reason: "ad-hoc tasks take exactly one stat category"}
		}
		update.TargetStats = in.TargetStats
	}
	if in.EstimatedXP != nil {
		if *in.EstimatedXP < 0 {
			return nil, ValidationError{Field: "estimatedXp", Reason: "must be non-negative"}
		}
		update.EstimatedXP = *in.EstimatedXP
	}
	if in.DueDate != nil {
		update.DueDate = in.DueDate
	}
	if in.ClearDue {
		update.DueDate = nil
	}

	if err := s.tasks.UpdateAuthorFields(ctx, taskID, update); err != nil {
		return nil, err
	}
	return s.tasks.Get(ctx, taskID)
}

func (s *Service) DeleteTask(ctx context.Context, userID string, taskID string) error {
	userID, err := parseID("userId", userID)
	if err != nil {
		return err
	}
	taskID, err = parseID("taskId", taskID)
	if err != nil {
		return err
	}
	if _, err := s.ownedTask(ctx, userID, taskID); err != nil {
		return err
	}
	return s.tasks.Delete(ctx, taskID)
}

// ListTasksBySource lists a user's tasks for one source's side view (the
// ad-hoc and project lists the dashboard deliberately excludes).
func (s *Service) ListTasksBySource(ctx context.Context, userID string, source TaskSource) ([]storage.Task, error) {
	userID, err := parseID("userId", userID)
	if err != nil {
		return nil, err
	}
	if !source.IsValid() {
		return nil, ValidationError{Field: "source", Reason: "unknown source " + string(source)}
	}
	return s.tasks.ListByUserAndSource(ctx, userID, string(source))
}
