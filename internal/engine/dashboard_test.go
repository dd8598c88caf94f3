package engine

import (
	"context"
	"testing"
	"time"
)

func TestDashboardOrdersByDueBuckets(t *testing.T) {
	svc := newTestService(t)
	userID := seedUser(t, svc)
	ctx := context.Background()

	// Mutable clock so creation times are distinct for the no-due bucket.
	clock := testNow
	svc.Now = func() time.Time { return clock }

	overdue := testNow.Add(-24 * time.Hour)
	tomorrow := testNow.Add(24 * time.Hour)
	nextWeek := testNow.Add(7 * 24 * time.Hour)

	// Created in scrambled order on purpose.
	somedayFirst := mustCreateTask(t, svc, userID, CreateTaskInput{
		Title: "Someday, created first", Source: SourceTodo, TargetStats: []string{"Craft"},
	})
	clock = clock.Add(time.Minute)
	t3 := mustCreateTask(t, svc, userID, CreateTaskInput{
		Title: "Next week", Source: SourceTodo, TargetStats: []string{"Craft"}, DueDate: &nextWeek,
	})
	clock = clock.Add(time.Minute)
	t1 := mustCreateTask(t, svc, userID, CreateTaskInput{
		Title: "Overdue", Source: SourceTodo, TargetStats: []string{"Craft"}, DueDate: &overdue,
	})
	clock = clock.Add(time.Minute)
	somedaySecond := mustCreateTask(t, svc, userID, CreateTaskInput{
		Title: "Someday, created later", Source: SourceTodo, TargetStats: []string{"Craft"},
	})
	clock = clock.Add(time.Minute)
	t2 := mustCreateTask(t, svc, userID, CreateTaskInput{
		Title: "Tomorrow", Source: SourceTodo, TargetStats: []string{"Craft"}, DueDate: &tomorrow,
	})

	clock = testNow
	view, err := svc.Dashboard(ctx, userID, DashboardQuery{})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	want := []string{t1.ID, t2.ID, t3.ID, somedayFirst.ID, somedaySecond.ID}
	if len(view.Tasks) != len(want) {
		t.Fatalf("got %d tasks, want %d", len(view.Tasks), len(want))
	}
	for i, id := range want {
		if view.Tasks[i].ID != id {
			t.Fatalf("position %d = %q, want task %q", i, view.Tasks[i].Title, id)
		}
	}
}

func TestDashboardExcludesSideListSources(t *testing.T) {
	svc := newTestService(t)
	userID := seedUser(t, svc)
	ctx := context.Background()

	mustCreateTask(t, svc, userID, CreateTaskInput{
		Title: "Quick favor", Source: SourceAdHoc, TargetStats: []string{"Relationships"},
	})
	mustCreateTask(t, svc, userID, CreateTaskInput{
		Title: "Refactor backlog", Source: SourceProject, TargetStats: []string{"Craft"},
	})
	visible := mustCreateTask(t, svc, userID, CreateTaskInput{
		Title: "Daily review", Source: SourceTodo, TargetStats: []string{"Mental Clarity"},
	})

	view, err := svc.Dashboard(ctx, userID, DashboardQuery{})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(view.Tasks) != 1 || view.Tasks[0].ID != visible.ID {
		t.Fatalf("dashboard shows %d tasks, want only the todo task", len(view.Tasks))
	}

	side, err := svc.ListTasksBySource(ctx, userID, SourceAdHoc)
	if err != nil {
		t.Fatalf("list ad-hoc: %v", err)
	}
	if len(side) != 1 || side[0].Title != "Quick favor" {
		t.Fatalf("ad-hoc side list = %d tasks, want the excluded one", len(side))
	}
}

func TestDashboardSummaryUsesActualXP(t *testing.T) {
	svc := newTestService(t)
	userID := seedUser(t, svc)
	ctx := context.Background()

	done := mustCreateTask(t, svc, userID, CreateTaskInput{
		Title: "Workout", Source: SourceTodo, TargetStats: []string{"Physical Health"}, EstimatedXP: 50,
	})
	mustCreateTask(t, svc, userID, CreateTaskInput{
		Title: "Read a chapter", Source: SourceTodo, TargetStats: []string{"Mental Clarity"}, EstimatedXP: 30,
	})

	// Actual exceeded the estimate; earned XP must reflect the actual.
	if _, err := svc.CompleteTask(ctx, userID, done.ID, CompleteInput{
		ActualXP:   80,
		StatAwards: map[string]int{"Physical Health": 80},
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	view, err := svc.Dashboard(ctx, userID, DashboardQuery{})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	sum := view.Summary
	if sum.TotalTasks != 2 || sum.PendingTasks != 1 || sum.CompletedTasks != 1 {
		t.Fatalf("summary counts = %+v", sum)
	}
	if sum.TotalEstimatedXP != 80 {
		t.Fatalf("totalEstimatedXp = %d, want 80", sum.TotalEstimatedXP)
	}
	if sum.EarnedXP != 80 {
		t.Fatalf("earnedXp = %d, want 80 (the actual award)", sum.EarnedXP)
	}
	if sum.TasksBySource["todo"] != 2 {
		t.Fatalf("tasksBySource = %v", sum.TasksBySource)
	}
}

func TestDashboardStatusFilter(t *testing.T) {
	svc := newTestService(t)
	userID := seedUser(t, svc)
	ctx := context.Background()

	done := mustCreateTask(t, svc, userID, CreateTaskInput{
		Title: "Done already", Source: SourceTodo, TargetStats: []string{"Craft"},
	})
	mustCreateTask(t, svc, userID, CreateTaskInput{
		Title: "Still open", Source: SourceTodo, TargetStats: []string{"Craft"},
	})
	if _, err := svc.CompleteTask(ctx, userID, done.ID, CompleteInput{}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	status := StatusPending
	view, err := svc.Dashboard(ctx, userID, DashboardQuery{Status: &status})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(view.Tasks) != 1 || view.Tasks[0].Title != "Still open" {
		t.Fatalf("filtered view = %d tasks, want the pending one", len(view.Tasks))
	}

	bogus := TaskStatus("archived")
	if _, err := svc.Dashboard(ctx, userID, DashboardQuery{Status: &bogus}); err == nil {
		t.Fatal("expected error for unknown status filter")
	}
}

func TestDashboardPagination(t *testing.T) {
	svc := newTestService(t)
	userID := seedUser(t, svc)
	ctx := context.Background()

	clock := testNow
	svc.Now = func() time.Time { return clock }
	for i := 0; i < 5; i++ {
		mustCreateTask(t, svc, userID, CreateTaskInput{
			Title: "Task " + string(rune('A'+i)), Source: SourceTodo, TargetStats: []string{"Craft"},
		})
		clock = clock.Add(time.Minute)
	}

	first, err := svc.Dashboard(ctx, userID, DashboardQuery{Limit: 2})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(first.Tasks) != 2 || !first.Pagination.HasMore || first.Pagination.Total != 5 {
		t.Fatalf("first page = %d tasks, pagination %+v", len(first.Tasks), first.Pagination)
	}
	if first.Tasks[0].Title != "Task A" {
		t.Fatalf("first task = %q, want Task A", first.Tasks[0].Title)
	}

	// Summary always covers the full set, not the page.
	if first.Summary.TotalTasks != 5 {
		t.Fatalf("summary total = %d, want 5", first.Summary.TotalTasks)
	}

	last, err := svc.Dashboard(ctx, userID, DashboardQuery{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(last.Tasks) != 1 || last.Pagination.HasMore {
		t.Fatalf("last page = %d tasks, pagination %+v", len(last.Tasks), last.Pagination)
	}

	empty, err := svc.Dashboard(ctx, userID, DashboardQuery{Limit: 2, Offset: 50})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(empty.Tasks) != 0 || empty.Pagination.HasMore {
		t.Fatalf("past-the-end page = %d tasks, pagination %+v", len(empty.Tasks), empty.Pagination)
	}
}

func TestDashboardAnnotatesContainersAndSources(t *testing.T) {
	svc := newTestService(t)
	userID := seedUser(t, svc)
	ctx := context.Background()

	end := testNow.Add(14 * 24 * time.Hour)
	quest, err := svc.CreateQuest(ctx, userID, CreateContainerInput{Title: "Spring cleanup", EndDate: &end})
	if err != nil {
		t.Fatalf("create quest: %v", err)
	}
	questTask := mustCreateTask(t, svc, userID, CreateTaskInput{
		Title: "Clear the garage", Source: SourceQuest, SourceID: &quest.ID, TargetStats: []string{"Physical Health"},
	})

	src, err := svc.RegisterSource(ctx, userID, RegisterSourceInput{
		Name:         "Work board",
		SourceType:   "jira",
		MappingRules: MappingRules{TitleField: "title"},
	})
	if err != nil {
		t.Fatalf("register source: %v", err)
	}
	extTask := mustCreateTask(t, svc, userID, CreateTaskInput{
		Title: "JIRA-42", Source: SourceExternal, SourceID: &src.ID, TargetStats: []string{"Craft"},
	})

	view, err := svc.Dashboard(ctx, userID, DashboardQuery{})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	byID := map[string]DashboardTask{}
	for _, row := range view.Tasks {
		byID[row.ID] = row
	}

	q := byID[questTask.ID]
	if q.Quest == nil || q.Quest.Title != "Spring cleanup" || q.Quest.Status != "active" {
		t.Fatalf("quest annotation = %+v", q.Quest)
	}
	if !q.CanModify || q.IsExternal {
		t.Fatalf("quest task flags = canModify %v isExternal %v", q.CanModify, q.IsExternal)
	}

	e := byID[extTask.ID]
	if !e.IsExternal || e.CanModify {
		t.Fatalf("external task flags = canModify %v isExternal %v", e.CanModify, e.IsExternal)
	}
	if e.SourceInfo == nil || e.SourceInfo.Name != "Work board" || e.SourceInfo.Type != "jira" {
		t.Fatalf("source annotation = %+v", e.SourceInfo)
	}
}
