package engine

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCreateTaskValidation(t *testing.T) {
	svc := newTestService(t)
	userID := seedUser(t, svc)
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateTaskInput
	}{
		{"empty title", CreateTaskInput{Title: "  ", Source: SourceTodo, TargetStats: []string{"Craft"}}},
		{"unknown source", CreateTaskInput{Title: "x", Source: TaskSource("wishlist")}},
		{"negative xp", CreateTaskInput{Title: "x", Source: SourceTodo, EstimatedXP: -5}},
		{"ad-hoc without stat", CreateTaskInput{Title: "x", Source: SourceAdHoc}},
		{"ad-hoc with two stats", CreateTaskInput{Title: "x", Source: SourceAdHoc, TargetStats: []string{"Craft", "Mental Clarity"}}},
		{"quest without container", CreateTaskInput{Title: "x", Source: SourceQuest}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateTask(ctx, userID, tc.in)
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestCreateTaskUnknownContainer(t *testing.T) {
	svc := newTestService(t)
	userID := seedUser(t, svc)
	ctx := context.Background()

	// An experiment id does not satisfy a quest task.
	exp, err := svc.CreateExperiment(ctx, userID, CreateContainerInput{Title: "Cold showers"})
	if err != nil {
		t.Fatalf("create experiment: %v", err)
	}

	_, err = svc.CreateTask(ctx, userID, CreateTaskInput{
		Title: "Misfiled", Source: SourceQuest, SourceID: &exp.ID, TargetStats: []string{"Craft"},
	})
	var nf NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestUpdateTaskPendingOnly(t *testing.T) {
	svc := newTestService(t)
	userID := seedUser(t, svc)
	ctx := context.Background()

	task := mustCreateTask(t, svc, userID, CreateTaskInput{
		Title: "Draft the essay", Source: SourceTodo, TargetStats: []string{"Craft"}, EstimatedXP: 40,
	})

	newTitle := "Draft and outline the essay"
	newXP := 60
	updated, err := svc.UpdateTask(ctx, userID, task.ID, UpdateTaskInput{Title: &newTitle, EstimatedXP: &newXP})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != newTitle || updated.EstimatedXP != 60 {
		t.Fatalf("updated task = %q / %d xp", updated.Title, updated.EstimatedXP)
	}

	if _, err := svc.CompleteTask(ctx, userID, task.ID, CompleteInput{}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	_, err = svc.UpdateTask(ctx, userID, task.ID, UpdateTaskInput{Title: &newTitle})
	var conflict StateConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("update after completion err = %v, want StateConflictError", err)
	}
}

func TestUpdateTaskClearDue(t *testing.T) {
	svc := newTestService(t)
	userID := seedUser(t, svc)
	ctx := context.Background()

	due := testNow.Add(48 * time.Hour)
	task := mustCreateTask(t, svc, userID, CreateTaskInput{
		Title: "Renew passport", Source: SourceTodo, TargetStats: []string{"Craft"}, DueDate: &due,
	})

	updated, err := svc.UpdateTask(ctx, userID, task.ID, UpdateTaskInput{ClearDue: true})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.DueDate != nil {
		t.Fatalf("dueDate = %v after clear, want nil", updated.DueDate)
	}
}

func TestDeleteTaskOwnership(t *testing.T) {
	svc := newTestService(t)
	owner := seedUser(t, svc)
	intruder := seedUser(t, svc)
	ctx := context.Background()

	task := mustCreateTask(t, svc, owner, CreateTaskInput{
		Title: "Secret plan", Source: SourceTodo, TargetStats: []string{"Craft"},
	})

	err := svc.DeleteTask(ctx, intruder, task.ID)
	var nf NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("cross-user delete err = %v, want NotFoundError", err)
	}

	if err := svc.DeleteTask(ctx, owner, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := svc.TaskRepo().Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got != nil {
		t.Fatal("task still present after delete")
	}
}

func TestTaskIDsMustBeUUIDs(t *testing.T) {
	svc := newTestService(t)
	userID := seedUser(t, svc)

	_, err := svc.CompleteTask(context.Background(), userID, "42; DROP TABLE tasks", CompleteInput{})
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}
