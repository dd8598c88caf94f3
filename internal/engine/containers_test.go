package engine

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestQuestProgressIsDerived(t *testing.T) {
	svc := newTestService(t)
	userID := seedUser(t, svc)
	ctx := context.Background()

	quest, err := svc.CreateQuest(ctx, userID, CreateContainerInput{Title: "Get in shape"})
	if err != nil {
		t.Fatalf("create quest: %v", err)
	}
	if quest.Status != string(ContainerActive) {
		t.Fatalf("new quest status = %q, want active", quest.Status)
	}

	first := mustCreateTask(t, svc, userID, CreateTaskInput{
		Title: "Run 5k", Source: SourceQuest, SourceID: &quest.ID,
		TargetStats: []string{"Physical Health"}, EstimatedXP: 60,
	})
	mustCreateTask(t, svc, userID, CreateTaskInput{
		Title: "Meal prep", Source: SourceQuest, SourceID: &quest.ID,
		TargetStats: []string{"Physical Health"}, EstimatedXP: 40,
	})

	view, err := svc.GetQuest(ctx, userID, quest.ID)
	if err != nil {
		t.Fatalf("get quest: %v", err)
	}
	if view.Progress.TotalTasks != 2 || view.Progress.CompletedTasks != 0 || view.Progress.EarnedXP != 0 {
		t.Fatalf("fresh progress = %+v", view.Progress)
	}

	if _, err := svc.CompleteTask(ctx, userID, first.ID, CompleteInput{
		ActualXP:   75,
		StatAwards: map[string]int{"Physical Health": 75},
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	view, err = svc.GetQuest(ctx, userID, quest.ID)
	if err != nil {
		t.Fatalf("get quest: %v", err)
	}
	p := view.Progress
	if p.TotalTasks != 2 || p.CompletedTasks != 1 || p.CompletionRate != 50 || p.EarnedXP != 75 {
		t.Fatalf("progress = %+v, want 1/2 at 50%% with 75 earned", p)
	}
}

func TestDeleteQuestReparentsTasks(t *testing.T) {
	svc := newTestService(t)
	userID := seedUser(t, svc)
	ctx := context.Background()

	quest, err := svc.CreateQuest(ctx, userID, CreateContainerInput{Title: "Learn the banjo"})
	if err != nil {
		t.Fatalf("create quest: %v", err)
	}

	task := mustCreateTask(t, svc, userID, CreateTaskInput{
		Title: "Practice rolls", Source: SourceQuest, SourceID: &quest.ID,
		TargetStats: []string{"Craft", "Mental Clarity"}, EstimatedXP: 30,
	})
	if _, err := svc.CompleteTask(ctx, userID, task.ID, CompleteInput{
		ActualXP:   30,
		StatAwards: map[string]int{"Craft": 30},
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if err := svc.DeleteQuest(ctx, userID, quest.ID); err != nil {
		t.Fatalf("delete quest: %v", err)
	}

	_, err = svc.GetQuest(ctx, userID, quest.ID)
	var nf NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("get deleted quest err = %v, want NotFoundError", err)
	}

	// The task survives as ad-hoc with a single target stat.
	reparented, err := svc.TaskRepo().Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("reload task: %v", err)
	}
	if reparented.Source != string(SourceAdHoc) || reparented.SourceID != nil {
		t.Fatalf("reparented task = %q/%v, want ad-hoc without sourceId", reparented.Source, reparented.SourceID)
	}
	if len(reparented.TargetStats) != 1 || reparented.TargetStats[0] != "Craft" {
		t.Fatalf("reparented targetStats = %v, want first stat only", reparented.TargetStats)
	}
	if reparented.Status != string(StatusCompleted) {
		t.Fatalf("reparented status = %q, want completed history kept", reparented.Status)
	}

	// Completion history and awarded XP stay.
	completions, err := svc.CompletionRepo().ListByTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("list completions: %v", err)
	}
	if len(completions) != 1 {
		t.Fatalf("got %d completions after delete, want 1", len(completions))
	}
	if s := statByCategory(t, svc, userID, "Craft"); s.TotalXP != 30 {
		t.Fatalf("Craft totalXp = %d after quest delete, want 30", s.TotalXP)
	}
}

func TestExperimentLifecycle(t *testing.T) {
	svc := newTestService(t)
	userID := seedUser(t, svc)
	ctx := context.Background()

	end := testNow.Add(30 * 24 * time.Hour)
	exp, err := svc.CreateExperiment(ctx, userID, CreateContainerInput{
		Title:   "No caffeine for a month",
		EndDate: &end,
	})
	if err != nil {
		t.Fatalf("create experiment: %v", err)
	}

	// A quest lookup must not find an experiment.
	_, err = svc.GetQuest(ctx, userID, exp.ID)
	var nf NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("cross-kind lookup err = %v, want NotFoundError", err)
	}

	if err := svc.UpdateExperimentStatus(ctx, userID, exp.ID, ContainerPaused); err != nil {
		t.Fatalf("pause: %v", err)
	}
	view, err := svc.GetExperiment(ctx, userID, exp.ID)
	if err != nil {
		t.Fatalf("get experiment: %v", err)
	}
	if view.Status != string(ContainerPaused) {
		t.Fatalf("status = %q, want paused", view.Status)
	}

	err = svc.UpdateExperimentStatus(ctx, userID, exp.ID, ContainerStatus("shelved"))
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("invalid status err = %v, want ValidationError", err)
	}
}

func TestListContainersPerKind(t *testing.T) {
	svc := newTestService(t)
	userID := seedUser(t, svc)
	ctx := context.Background()

	if _, err := svc.CreateQuest(ctx, userID, CreateContainerInput{Title: "Quest one"}); err != nil {
		t.Fatalf("create quest: %v", err)
	}
	if _, err := svc.CreateExperiment(ctx, userID, CreateContainerInput{Title: "Experiment one"}); err != nil {
		t.Fatalf("create experiment: %v", err)
	}

	quests, err := svc.ListQuests(ctx, userID)
	if err != nil {
		t.Fatalf("list quests: %v", err)
	}
	if len(quests) != 1 || quests[0].Title != "Quest one" {
		t.Fatalf("quests = %d entries", len(quests))
	}

	experiments, err := svc.ListExperiments(ctx, userID)
	if err != nil {
		t.Fatalf("list experiments: %v", err)
	}
	if len(experiments) != 1 || experiments[0].Title != "Experiment one" {
		t.Fatalf("experiments = %d entries", len(experiments))
	}
}
