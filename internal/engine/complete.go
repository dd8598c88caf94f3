package engine

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"lifequest/internal/storage"
)

type CompleteInput struct {
	ActualXP   int
	StatAwards map[string]int
	Feedback   *string
}

type CompleteResult struct {
	Task       *storage.Task
	Completion *storage.TaskCompletion
	XPResults  []StatAwardResult
}

// CompleteTask applies a completion event. All stat awards, the completion
// record and the status transition commit in one transaction; a second
// completion of the same task loses the conditional update and gets a
// state-conflict error instead of a double award.
func (s *Service) CompleteTask(ctx context.Context, userID string, taskID string, in CompleteInput) (*CompleteResult, error) {
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

	character, err := s.stats.GetCharacterByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if character == nil {
		return nil, NotFoundError{Kind: "character", ID: userID}
	}

	// Deterministic award order; map iteration order must not leak into
	// results or row update order.
	categories := make([]string, 0, len(in.StatAwards))
	for cat := range in.StatAwards {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	result := &CompleteResult{}
	err = storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, cat := range categories {
			stat, err := s.stats.GetStatTx(ctx, tx, character.ID, cat)
			if err != nil {
				return err
			}
			if stat == nil {
				return ValidationError{Field: "statAwards", Reason: fmt.Sprintf("unknown stat category %q", cat)}
			}
			award := awardStatXP(stat, in.StatAwards[cat])
			if err := s.stats.UpdateStatTx(ctx, tx, stat); err != nil {
				return err
			}
			result.XPResults = append(result.XPResults, *award)
		}

		now := s.now()
		completion := storage.TaskCompletion{
			ID:          newID(),
			TaskID:      taskID,
			ActualXP:    in.ActualXP,
			StatAwards:  in.StatAwards,
			Feedback:    in.Feedback,
			CompletedAt: now,
		}
		if err := s.completions.InsertTx(ctx, tx, completion); err != nil {
			return err
		}

		ok, err := s.tasks.TransitionTx(ctx, tx, taskID, string(StatusCompleted), &now)
		if err != nil {
			return err
		}
		if !ok {
			// A concurrent completion won the race after our pre-check.
			return StateConflictError{Kind: "task", ID: taskID, Status: "no longer pending"}
		}

		result.Completion = &completion
		return nil
	})
	if err != nil {
		return nil, err
	}

	task, err = s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	result.Task = task
	return result, nil
}

// DefaultStatAwards spreads actualXP evenly across the task's target stats,
// with the integer-division remainder going to the first. Callers that don't
// collect explicit per-stat awards use this split.
func DefaultStatAwards(task *storage.Task, actualXP int) map[string]int {
	if len(task.TargetStats) == 0 {
		return map[string]int{}
	}
	awards := make(map[string]int, len(task.TargetStats))
	share := actualXP / len(task.TargetStats)
	for _, cat := range task.TargetStats {
		awards[cat] = share
	}
	awards[task.TargetStats[0]] += actualXP - share*len(task.TargetStats)
	return awards
}

// SkipTask marks a pending task skipped. No XP moves.
func (s *Service) SkipTask(ctx context.Context, userID string, taskID string) (*storage.Task, error) {
	return s.terminate(ctx, userID, taskID, StatusSkipped)
}

// FailTask marks a pending task failed. No XP moves.
func (s *Service) FailTask(ctx context.Context, userID string, taskID string) (*storage.Task, error) {
	return s.terminate(ctx, userID, taskID, StatusFailed)
}

func (s *Service) terminate(ctx context.Context, userID string, taskID string, status TaskStatus) (*storage.Task, error) {
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
	if !TaskStatus(task.Status).CanTransition(status) {
		return nil, StateConflictError{Kind: "task", ID: taskID, Status: task.Status}
	}

	ok, err := s.tasks.TransitionTx(ctx, s.db, taskID, string(status), nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, StateConflictError{Kind: "task", ID: taskID, Status: "no longer pending"}
	}
	return s.tasks.Get(ctx, taskID)
}
