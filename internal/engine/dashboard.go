package engine

import (
	"context"
	"sort"
	"strconv"
	"time"

	"lifequest/internal/storage"
)

// dashboardSources are the provenances shown on the dashboard, per
// TaskSource.OnDashboard. Ad-hoc and project tasks live in their own side
// lists.
var dashboardSources = func() []string {
	all := []TaskSource{SourceAI, SourceQuest, SourceExperiment, SourceTodo, SourceAdHoc, SourceProject, SourceExternal}
	out := make([]string, 0, len(all))
	for _, src := range all {
		if src.OnDashboard() {
			out = append(out, string(src))
		}
	}
	return out
}()

type DashboardQuery struct {
	Status *TaskStatus
	Limit  int
	Offset int
}

// QuestInfo / ExperimentInfo / SourceInfo are the per-source metadata blocks
// attached to dashboard rows.
type QuestInfo struct {
	Title   string     `json:"title"`
	Status  string     `json:"status"`
	EndDate *time.Time `json:"endDate,omitempty"`
}

type ExperimentInfo struct {
	Title    string `json:"title"`
	Status   string `json:"status"`
	Duration string `json:"duration,omitempty"`
}

type SourceInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type DashboardTask struct {
	storage.Task
	Quest      *QuestInfo      `json:"quest,omitempty"`
	Experiment *ExperimentInfo `json:"experiment,omitempty"`
	SourceInfo *SourceInfo     `json:"sourceInfo,omitempty"`
	IsExternal bool            `json:"isExternal"`
	CanModify  bool            `json:"canModify"`
}

type DashboardSummary struct {
	TotalTasks       int            `json:"totalTasks"`
	PendingTasks     int            `json:"pendingTasks"`
	CompletedTasks   int            `json:"completedTasks"`
	TotalEstimatedXP int            `json:"totalEstimatedXp"`
	EarnedXP         int            `json:"earnedXp"`
	TasksBySource    map[string]int `json:"tasksBySource"`
}

type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
}

type DashboardView struct {
	Tasks      []DashboardTask  `json:"tasks"`
	Summary    DashboardSummary `json:"summary"`
	Pagination Pagination       `json:"pagination"`
}

// Dashboard aggregates a user's visible tasks: filter, three-bucket due-date
// sort, container metadata, summary statistics and pagination.
func (s *Service) Dashboard(ctx context.Context, userID string, q DashboardQuery) (*DashboardView, error) {
	userID, err := parseID("userId", userID)
	if err != nil {
		return nil, err
	}
	if q.Status != nil && !q.Status.IsValid() {
		return nil, ValidationError{Field: "status", Reason: "unknown status " + string(*q.Status)}
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	var statusFilter *string
	if q.Status != nil {
		v := string(*q.Status)
		statusFilter = &v
	}
	tasks, err := s.tasks.ListVisible(ctx, userID, dashboardSources, statusFilter)
	if err != nil {
		return nil, err
	}

	sortDashboardTasks(tasks, s.now())

	summary, err := s.summarize(ctx, tasks)
	if err != nil {
		return nil, err
	}

	total := len(tasks)
	page := paginate(tasks, q.Offset, q.Limit)

	annotated, err := s.annotate(ctx, page)
	if err != nil {
		return nil, err
	}

	return &DashboardView{
		Tasks:   annotated,
		Summary: *summary,
		Pagination: Pagination{
			Limit:   q.Limit,
			Offset:  q.Offset,
			Total:   total,
			HasMore: q.Offset+len(annotated) < total,
		},
	}, nil
}

// sortDashboardTasks orders tasks into three buckets: overdue (earliest
// first), upcoming due dates (soonest first), then no due date (oldest
// created first). Buckets never interleave; "no due date" is not "due far in
// the future".
func sortDashboardTasks(tasks []storage.Task, now time.Time) {
	bucket := func(t *storage.Task) int {
		switch {
		case t.DueDate != nil && t.DueDate.Before(now) && TaskStatus(t.Status) == StatusPending:
			return 0
		case t.DueDate != nil:
			return 1
		default:
			return 2
		}
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		bi, bj := bucket(&tasks[i]), bucket(&tasks[j])
		if bi != bj {
			return bi < bj
		}
		switch bi {
		case 0, 1:
			return tasks[i].DueDate.Before(*tasks[j].DueDate)
		default:
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		}
	})
}

func paginate(tasks []storage.Task, offset, limit int) []storage.Task {
	if offset >= len(tasks) {
		return nil
	}
	end := offset + limit
	if end > len(tasks) {
		end = len(tasks)
	}
	return tasks[offset:end]
}

func (s *Service) summarize(ctx context.Context, tasks []storage.Task) (*DashboardSummary, error) {
	summary := &DashboardSummary{TasksBySource: map[string]int{}}
	ids := make([]string, 0, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		summary.TotalTasks++
		summary.TasksBySource[t.Source]++
		summary.TotalEstimatedXP += t.EstimatedXP
		switch TaskStatus(t.Status) {
		case StatusPending:
			summary.PendingTasks++
		case StatusCompleted:
			summary.CompletedTasks++
		}
		ids = append(ids, t.ID)
	}

	// Earned XP comes from what completions actually awarded, not estimates.
	earned, err := s.completions.SumActualXPForTasks(ctx, ids)
	if err != nil {
		return nil, err
	}
	summary.EarnedXP = earned
	return summary, nil
}

func (s *Service) annotate(ctx context.Context, tasks []storage.Task) ([]DashboardTask, error) {
	containerIDs := make([]string, 0)
	seen := map[string]bool{}
	for i := range tasks {
		t := &tasks[i]
		if t.SourceID == nil || seen[*t.SourceID] {
			continue
		}
		if src := TaskSource(t.Source); src == SourceQuest || src == SourceExperiment {
			containerIDs = append(containerIDs, *t.SourceID)
			seen[*t.SourceID] = true
		}
	}
	containers, err := s.containers.GetMany(ctx, containerIDs)
	if err != nil {
		return nil, err
	}

	out := make([]DashboardTask, 0, len(tasks))
	for i := range tasks {
		t := tasks[i]
		row := DashboardTask{Task: t, CanModify: true}

		switch TaskSource(t.Source) {
		case SourceQuest:
			if t.SourceID != nil {
				if c, ok := containers[*t.SourceID]; ok {
					row.Quest = &QuestInfo{Title: c.Title, Status: c.Status, EndDate: c.EndDate}
				}
			}
		case SourceExperiment:
			if t.SourceID != nil {
				if c, ok := containers[*t.SourceID]; ok {
					row.Experiment = &ExperimentInfo{
						Title:    c.Title,
						Status:   c.Status,
						Duration: containerDuration(c),
					}
				}
			}
		case SourceExternal:
			row.IsExternal = true
			row.CanModify = false
			if t.SourceID != nil {
				src, err := s.sources.Get(ctx, *t.SourceID)
				if err != nil {
					return nil, err
				}
				if src != nil {
					row.SourceInfo = &SourceInfo{Name: src.Name, Type: src.SourceType}
				}
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func containerDuration(c storage.Container) string {
	if c.EndDate == nil {
		return ""
	}
	days := int(c.EndDate.Sub(c.StartDate).Hours() / 24)
	if days <= 0 {
		return ""
	}
	if days == 1 {
		return "1 day"
	}
	return strconv.Itoa(days) + " days"
}
