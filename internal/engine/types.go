package engine

// TaskSource tags where a task came from. It drives dashboard visibility
// and which container metadata gets attached on read.
type TaskSource string

const (
	SourceAI         TaskSource = "ai"
	SourceQuest      TaskSource = "quest"
	SourceExperiment TaskSource = "experiment"
	SourceTodo       TaskSource = "todo"
	SourceAdHoc      TaskSource = "ad-hoc"
	SourceProject    TaskSource = "project"
	SourceExternal   TaskSource = "external"
)

func (s TaskSource) IsValid() bool {
	switch s {
	case SourceAI, SourceQuest, SourceExperiment, SourceTodo, SourceAdHoc, SourceProject, SourceExternal:
		return true
	default:
		return false
	}
}

// RequiresContainer reports whether tasks of this source must reference an
// owning record via sourceId.
func (s TaskSource) RequiresContainer() bool {
	switch s {
	case SourceQuest, SourceExperiment, SourceExternal:
		return true
	default:
		return false
	}
}

// OnDashboard is the dashboard visibility predicate. Ad-hoc and project tasks
// have their own side lists and never appear on the dashboard.
func (s TaskSource) OnDashboard() bool {
	switch s {
	case SourceAdHoc, SourceProject:
		return false
	default:
		return true
	}
}

type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
	StatusSkipped   TaskStatus = "skipped"
	StatusFailed    TaskStatus = "failed"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusSkipped, StatusFailed:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status ends the task's lifecycle. Every
// transition out of pending is terminal; there are no back-transitions.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusSkipped || s == StatusFailed
}

// CanTransition reports whether a task may move from s to next.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	return s == StatusPending && next.Terminal()
}

type ContainerStatus string

const (
	ContainerActive    ContainerStatus = "active"
	ContainerCompleted ContainerStatus = "completed"
	ContainerPaused    ContainerStatus = "paused"
	ContainerAbandoned ContainerStatus = "abandoned"
)

func (s ContainerStatus) IsValid() bool {
	switch s {
	case ContainerActive, ContainerCompleted, ContainerPaused, ContainerAbandoned:
		return true
	default:
		return false
	}
}
