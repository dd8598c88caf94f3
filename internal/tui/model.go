package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"lifequest/internal/engine"
	"lifequest/internal/storage"
	"lifequest/internal/ui"
)

type boardModel struct {
	ctx    context.Context
	svc    *engine.Service
	userID string

	width  int
	height int

	view  *engine.DashboardView
	stats []storage.CharacterStat

	selected int
	lastLog  string
	loading  bool
	err      error
}

type loadedMsg struct {
	view  *engine.DashboardView
	stats []storage.CharacterStat
	err   error
}

type completedMsg struct {
	res *engine.CompleteResult
	err error
}

func newBoardModel(ctx context.Context, svc *engine.Service, userID string) boardModel {
	return boardModel{
		ctx:     ctx,
		svc:     svc,
		userID:  userID,
		loading: true,
		lastLog: "Loaded.",
	}
}

func (m boardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m boardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		view, err := m.svc.Dashboard(m.ctx, m.userID, engine.DashboardQuery{Limit: 100})
		if err != nil {
			return loadedMsg{err: err}
		}
		_, stats, err := m.svc.CharacterStats(m.ctx, m.userID)
		if err != nil {
			return loadedMsg{err: err}
		}
		return loadedMsg{view: view, stats: stats}
	}
}

func (m boardModel) completeCmd(task *storage.Task) tea.Cmd {
	return func() tea.Msg {
		res, err := m.svc.CompleteTask(m.ctx, m.userID, task.ID, engine.CompleteInput{
			ActualXP:   task.EstimatedXP,
			StatAwards: engine.DefaultStatAwards(task, task.EstimatedXP),
		})
		return completedMsg{res: res, err: err}
	}
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case loadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			m.lastLog = "Load failed: " + msg.err.Error()
			return m, nil
		}
		m.view = msg.view
		m.stats = msg.stats
		if m.selected >= len(m.view.Tasks) {
			m.selected = len(m.view.Tasks) - 1
		}
		if m.selected < 0 {
			m.selected = 0
		}
		m.lastLog = fmt.Sprintf("Refreshed at %s.", time.Now().Format("15:04:05"))
		return m, nil
	case completedMsg:
		if msg.err != nil {
			m.lastLog = "Complete failed: " + msg.err.Error()
			return m, nil
		}
		log := fmt.Sprintf("Completed %q: +%d XP", msg.res.Task.Title, msg.res.Completion.ActualXP)
		for _, r := range msg.res.XPResults {
			if r.LeveledUp {
				log += fmt.Sprintf("  %s %s → %d", ui.BadgeLevelUp, r.Category, r.NewLevel)
			}
		}
		m.lastLog = log
		return m, m.loadCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.loading = true
			m.lastLog = "Refreshing…"
			return m, m.loadCmd()
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case "down", "j":
			if m.view != nil && m.selected < len(m.view.Tasks)-1 {
				m.selected++
			}
			return m, nil
		case "c", " ":
			if m.view == nil || m.selected < 0 || m.selected >= len(m.view.Tasks) {
				return m, nil
			}
			row := m.view.Tasks[m.selected]
			if !row.CanModify {
				m.lastLog = "External tasks are read-only here; complete them upstream."
				return m, nil
			}
			if engine.TaskStatus(row.Status) != engine.StatusPending {
				m.lastLog = "Already " + row.Status + "."
				return m, nil
			}
			m.lastLog = fmt.Sprintf("Completing %q…", row.Title)
			return m, m.completeCmd(&row.Task)
		}
	}
	return m, nil
}

func (m boardModel) View() string {
	if m.err != nil {
		return "Error: " + m.err.Error() + "\n\nPress q to quit.\n"
	}

	header := m.renderHeader()
	sidebar := m.renderSidebar()
	main := m.renderMain()
	footer := "\n" + m.lastLog

	// Simple 2-column layout.
	leftW := 30
	if m.width > 0 {
		maxLeft := m.width / 2
		if maxLeft < leftW {
			leftW = maxLeft
		}
		if leftW < 20 {
			leftW = 20
		}
	}

	linesLeft := strings.Split(sidebar, "\n")
	linesRight := strings.Split(main, "\n")
	max := len(linesLeft)
	if len(linesRight) > max {
		max = len(linesRight)
	}

	var body strings.Builder
	for i := 0; i < max; i++ {
		l := ""
		r := ""
		if i < len(linesLeft) {
			l = linesLeft[i]
		}
		if i < len(linesRight) {
			r = linesRight[i]
		}
		body.WriteString(padRight(l, leftW))
		body.WriteString("  ")
		body.WriteString(r)
		body.WriteString("\n")
	}

	return header + "\n" + body.String() + footer
}

func (m boardModel) renderHeader() string {
	if m.view == nil {
		return "LifeQuest | loading…"
	}
	s := m.view.Summary
	return fmt.Sprintf("LifeQuest | %d tasks (%d pending, %d done) | %d XP earned",
		s.TotalTasks, s.PendingTasks, s.CompletedTasks, s.EarnedXP)
}

func (m boardModel) renderSidebar() string {
	lines := []string{"Stats"}
	if len(m.stats) == 0 {
		lines = append(lines, "(none)")
	}
	for _, st := range m.stats {
		l := engine.ComputeLeveling(st.TotalXP)
		bar := ui.ProgressBar(l.CurrentLevelXP, l.XPInLevel, 12)
		lines = append(lines, fmt.Sprintf("- %s L%d %s", st.Category, st.CurrentLevel, bar))
	}
	lines = append(lines, "")
	lines = append(lines, "Keys")
	lines = append(lines, "- ↑/↓ or j/k: move")
	lines = append(lines, "- c/space: complete")
	lines = append(lines, "- r: refresh")
	lines = append(lines, "- q: quit")
	return strings.Join(lines, "\n")
}

func (m boardModel) renderMain() string {
	if m.loading {
		return "Loading…"
	}
	if m.view == nil || len(m.view.Tasks) == 0 {
		return "Dashboard\n\n(no tasks)"
	}

	now := time.Now().UTC()
	out := []string{"Dashboard"}
	lastBucket := -1
	for i, row := range m.view.Tasks {
		b := taskBucket(&row.Task, now)
		if b != lastBucket {
			out = append(out, "")
			out = append(out, bucketHeading(b))
			lastBucket = b
		}
		cursor := "  "
		if i == m.selected {
			cursor = "> "
		}
		due := ""
		if row.DueDate != nil {
			due = " due " + row.DueDate.Format("Jan 2")
		}
		out = append(out, fmt.Sprintf("%s%s %s (%s, %d xp)%s", cursor, ui.SourceIcon(row.Source), row.Title, row.Status, row.EstimatedXP, due))
	}
	return strings.Join(out, "\n")
}

func taskBucket(t *storage.Task, now time.Time) int {
	switch {
	case t.DueDate != nil && t.DueDate.Before(now) && engine.TaskStatus(t.Status) == engine.StatusPending:
		return 0
	case t.DueDate != nil:
		return 1
	default:
		return 2
	}
}

func bucketHeading(b int) string {
	switch b {
	case 0:
		return ui.IconClock + " Overdue"
	case 1:
		return "Upcoming"
	default:
		return "Anytime"
	}
}

func padRight(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}
