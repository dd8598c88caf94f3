package storage

import "time"

type Character struct {
	ID        string
	UserID    string
	Name      string
	CreatedAt time.Time
}

type CharacterStat struct {
	ID          string
	CharacterID string
	Category    string
	TotalXP     int
	// CurrentLevel, CurrentXP and LevelTitle are caches derived from TotalXP.
	// Every write path recomputes them in the same statement that moves TotalXP.
	CurrentLevel int
	CurrentXP    int
	LevelTitle   string
}

type Task struct {
	ID          string
	UserID      string
	Title       string
	Description *string
	Source      string
	SourceID    *string
	TargetStats []string
	EstimatedXP int
	Status      string
	DueDate     *time.Time
	CreatedAt   time.Time
	CompletedAt *time.Time
}

type TaskCompletion struct {
	ID          string
	TaskID      string
	ActualXP    int
	StatAwards  map[string]int
	Feedback    *string
	CompletedAt time.Time
}

// Container is a quest or experiment row; Kind distinguishes the two.
type Container struct {
	ID          string
	UserID      string
	Kind        string
	Title       string
	Description *string
	Status      string
	StartDate   time.Time
	EndDate     *time.Time
	CreatedAt   time.Time
}

type ExternalTaskSource struct {
	ID           string
	UserID       string
	Name         string
	SourceType   string
	AuthType     string
	Config       map[string]string
	MappingRules string // JSON, decoded by the engine
	SyncSchedule string
	IsActive     bool
	LastSyncAt   *time.Time
	CreatedAt    time.Time
}

type ExternalTaskIntegration struct {
	ID         string
	SourceID   string
	ExternalID string
	TaskID     *string
	Status     string
	Metadata   map[string]string
	LastSyncAt time.Time
	CreatedAt  time.Time
}
