package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"lifequest/internal/storage"
)

// SyncBatch is one already-fetched batch of raw upstream records. The fetch
// itself belongs to the caller; AuthFailure carries a whole-batch auth error
// (expired token and the like) signalled by that caller.
type SyncBatch struct {
	Records     []json.RawMessage
	AuthFailure string
}

type SyncResult struct {
	TasksCreated int            `json:"tasksCreated"`
	TasksUpdated int            `json:"tasksUpdated"`
	Errors       int            `json:"errors"`
	ErrorDetails []string       `json:"errorDetails"`
	CreatedTasks []storage.Task `json:"createdTasks"`
}

// SyncExternalSource reconciles a batch of raw records against existing tasks.
// Each record independently creates, updates, or errors; a malformed record
// never aborts the batch. Re-running the same batch is idempotent: an
// externalId seen before updates its linked task instead of duplicating it.
func (s *Service) SyncExternalSource(ctx context.Context, userID string, sourceID string, batch SyncBatch) (*SyncResult, error) {
	userID, err := parseID("userId", userID)
	if err != nil {
		return nil, err
	}
	sourceID, err = parseID("sourceId", sourceID)
	if err != nil {
		return nil, err
	}

	source, err := s.sources.Get(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if source == nil || source.UserID != userID {
		return nil, NotFoundError{Kind: "external source", ID: sourceID}
	}
	if !source.IsActive {
		return nil, StateConflictError{Kind: "external source", ID: sourceID, Status: "inactive"}
	}

	result := &SyncResult{}

	// Auth failure is a whole-batch outcome: nothing mutates, schedulers get
	// one structured error to record against the source.
	if batch.AuthFailure != "" {
		result.Errors = 1
		result.ErrorDetails = append(result.ErrorDetails, fmt.Sprintf("authentication failed: %s", batch.AuthFailure))
		return result, nil
	}

	rules, err := ParseMappingRules(source.MappingRules)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for i, record := range batch.Records {
		mapped, err := rules.extractTask(record)
		if err != nil {
			result.Errors++
			result.ErrorDetails = append(result.ErrorDetails, fmt.Sprintf("record %d: %v", i, err))
			continue
		}

		created, task, err := s.reconcileRecord(ctx, source, rules, mapped)
		if err != nil {
			result.Errors++
			result.ErrorDetails = append(result.ErrorDetails, fmt.Sprintf("record %d (%s): %v", i, mapped.ExternalID, err))
			continue
		}
		if created {
			result.TasksCreated++
			result.CreatedTasks = append(result.CreatedTasks, *task)
		} else {
			result.TasksUpdated++
		}
	}

	if err := s.sources.TouchLastSync(ctx, sourceID, now); err != nil {
		return nil, err
	}
	return result, nil
}

// reconcileRecord decides create-vs-update for one record. The integration
// lookup and the resulting write share a transaction so a racing duplicate
// sync of the same externalId cannot create two tasks.
func (s *Service) reconcileRecord(ctx context.Context, source *storage.ExternalTaskSource, rules *MappingRules, mapped *mappedTask) (created bool, task *storage.Task, err error) {
	now := s.now()

	err = storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		integration, err := s.sources.GetIntegrationTx(ctx, tx, source.ID, mapped.ExternalID)
		if err != nil {
			return err
		}

		if integration == nil {
			taskID := newID()
			srcID := source.ID
			insert := storage.TaskInsert{
				ID:          taskID,
				UserID:      source.UserID,
				Title:       mapped.Title,
				Description: mapped.Description,
				Source:      string(SourceExternal),
				SourceID:    &srcID,
				TargetStats: rules.DefaultStats,
				EstimatedXP: mapped.EstimatedXP,
				Status:      string(StatusPending),
				DueDate:     mapped.DueDate,
				CreatedAt:   now,
			}
			if err := s.tasks.InsertTx(ctx, tx, insert); err != nil {
				return err
			}
			if err := s.sources.InsertIntegrationTx(ctx, tx, storage.ExternalTaskIntegration{
				ID:         newID(),
				SourceID:   source.ID,
				ExternalID: mapped.ExternalID,
				TaskID:     &taskID,
				Status:     "linked",
				LastSyncAt: now,
				CreatedAt:  now,
			}); err != nil {
				return err
			}
			created = true
			loaded, err := s.tasks.GetTx(ctx, tx, taskID)
			if err != nil {
				return err
			}
			task = loaded
			return nil
		}

		if integration.TaskID == nil {
			return fmt.Errorf("integration %s has no linked task", integration.ID)
		}
		if err := s.tasks.UpdateSyncedFieldsTx(ctx, tx, *integration.TaskID, mapped.Title, mapped.Description, mapped.DueDate, mapped.EstimatedXP); err != nil {
			return err
		}
		if err := s.sources.TouchIntegrationTx(ctx, tx, integration.ID, now); err != nil {
			return err
		}
		loaded, err := s.tasks.GetTx(ctx, tx, *integration.TaskID)
		if err != nil {
			return err
		}
		task = loaded
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return created, task, nil
}
