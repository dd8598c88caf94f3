package engine

import (
	"context"
	"database/sql"
	"fmt"

	"lifequest/internal/storage"
)

// DefaultStatCategories seeds new characters when no config overrides them.
var DefaultStatCategories = []string{
	"Physical Health",
	"Mental Clarity",
	"Relationships",
	"Craft",
}

// EnsureCharacter returns the user's character, creating it with the given
// stat categories at level 1 if it does not exist yet.
func (s *Service) EnsureCharacter(ctx context.Context, userID string, name string, categories []string) (*storage.Character, error) {
	userID, err := parseID("userId", userID)
	if err != nil {
		return nil, err
	}

	c, err := s.stats.GetCharacterByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}

	if name == "" {
		name = "Adventurer"
	}
	if len(categories) == 0 {
		categories = DefaultStatCategories
	}

	c = &storage.Character{
		ID:        newID(),
		UserID:    userID,
		Name:      name,
		CreatedAt: s.now(),
	}
	if err := s.stats.InsertCharacter(ctx, *c); err != nil {
		return nil, err
	}
	for _, cat := range categories {
		stat := storage.CharacterStat{
			ID:          newID(),
			CharacterID: c.ID,
			Category:    cat,
			TotalXP:     0,
		}
		applyLeveling(&stat)
		if err := s.stats.InsertStat(ctx, stat); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// CharacterStats returns the user's stats with cached leveling fields verified
// against the accumulator; a stale cache is repaired on read.
func (s *Service) CharacterStats(ctx context.Context, userID string) (*storage.Character, []storage.CharacterStat, error) {
	userID, err := parseID("userId", userID)
	if err != nil {
		return nil, nil, err
	}

	c, err := s.stats.GetCharacterByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if c == nil {
		return nil, nil, NotFoundError{Kind: "character", ID: userID}
	}

	list, err := s.stats.ListStats(ctx, c.ID)
	if err != nil {
		return nil, nil, err
	}
	for i := range list {
		computed := ComputeLeveling(list[i].TotalXP)
		if list[i].CurrentLevel != computed.Level || list[i].CurrentXP != computed.CurrentLevelXP {
			applyLeveling(&list[i])
			if err := s.stats.UpdateStatTx(ctx, s.db, &list[i]); err != nil {
				return nil, nil, err
			}
		}
	}
	return c, list, nil
}

// AddStatXP applies a direct XP delta to one stat category, outside any task
// completion (journal rewards and penalties use this path). The delta may be
// negative; the accumulator clamps at zero and the level floor is 1.
func (s *Service) AddStatXP(ctx context.Context, userID string, category string, delta int) (*StatAwardResult, error) {
	userID, err := parseID("userId", userID)
	if err != nil {
		return nil, err
	}

	c, err := s.stats.GetCharacterByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, NotFoundError{Kind: "character", ID: userID}
	}

	var result *StatAwardResult
	err = storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		stat, err := s.stats.GetStatTx(ctx, tx, c.ID, category)
		if err != nil {
			return err
		}
		if stat == nil {
			return ValidationError{Field: "category", Reason: fmt.Sprintf("unknown stat category %q", category)}
		}
		result = awardStatXP(stat, delta)
		return s.stats.UpdateStatTx(ctx, tx, stat)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// StatAwardResult reports the effect of one XP delta on one stat.
type StatAwardResult struct {
	Category  string `json:"category"`
	XPAdded   int    `json:"xpAdded"`
	OldLevel  int    `json:"oldLevel"`
	NewLevel  int    `json:"newLevel"`
	LeveledUp bool   `json:"leveledUp"`
}

// awardStatXP mutates the stat in memory: clamped accumulator plus refreshed
// derived caches. Persisting is the caller's job.
func awardStatXP(stat *storage.CharacterStat, delta int) *StatAwardResult {
	oldLevel := LevelForTotalXP(stat.TotalXP)

	stat.TotalXP += delta
	if stat.TotalXP < 0 {
		stat.TotalXP = 0
	}
	applyLeveling(stat)

	return &StatAwardResult{
		Category:  stat.Category,
		XPAdded:   delta,
		OldLevel:  oldLevel,
		NewLevel:  stat.CurrentLevel,
		LeveledUp: stat.CurrentLevel > oldLevel,
	}
}

// applyLeveling refreshes the derived cache fields from TotalXP.
func applyLeveling(stat *storage.CharacterStat) {
	l := ComputeLeveling(stat.TotalXP)
	stat.CurrentLevel = l.Level
	stat.CurrentXP = l.CurrentLevelXP
	stat.LevelTitle = TitleForLevel(l.Level)
}
