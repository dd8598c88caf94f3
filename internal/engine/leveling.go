package engine

import "math"

// Leveling curve. Level 1 spans 0–299 XP; from level 2 on, reaching level L
// requires 100 * L * (L+1) / 2 total XP, so each level is 100 XP wider than
// the one before it (level 2 spans 300, level 3 spans 400, ...).

// CumulativeXPForLevel returns the total XP threshold at which the given
// level begins. Level 1 (and anything below) begins at 0.
func CumulativeXPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return 100 * level * (level + 1) / 2
}

// LevelForTotalXP returns the highest level L with CumulativeXPForLevel(L) <= totalXP.
// Negative totals are treated as 0; the floor is level 1.
func LevelForTotalXP(totalXP int) int {
	if totalXP < 0 {
		totalXP = 0
	}

	// Exponential search for an upper bound, then binary search.
	low := 1
	high := 2
	for CumulativeXPForLevel(high) <= totalXP {
		low = high
		high *= 2
		if high > 1_000_000 {
			break
		}
	}

	for low+1 < high {
		mid := low + (high-low)/2
		if CumulativeXPForLevel(mid) <= totalXP {
			low = mid
		} else {
			high = mid
		}
	}
	return low
}

// Leveling is the full progress breakdown for a total XP value.
type Leveling struct {
	Level           int `json:"level"`
	CurrentLevelXP  int `json:"currentLevelXp"`
	XPInLevel       int `json:"xpInCurrentLevel"`
	XPToNextLevel   int `json:"xpToNextLevel"`
	ProgressPercent int `json:"progressPercent"`
}

// ComputeLeveling derives level and within-level progress from total XP.
func ComputeLeveling(totalXP int) Leveling {
	if totalXP < 0 {
		totalXP = 0
	}
	level := LevelForTotalXP(totalXP)
	start := CumulativeXPForLevel(level)
	next := CumulativeXPForLevel(level + 1)
	span := next - start
	within := totalXP - start

	percent := 0
	if span > 0 {
		percent = int(math.Floor(100*float64(within)/float64(span) + 0.5))
	}

	return Leveling{
		Level:           level,
		CurrentLevelXP:  within,
		XPInLevel:       span,
		XPToNextLevel:   next - totalXP,
		ProgressPercent: percent,
	}
}

// levelTitles maps level bands to display titles, checked highest first.
var levelTitles = []struct {
	minLevel int
	title    string
}{
	{50, "Grandmaster"},
	{35, "Master"},
	{20, "Expert"},
	{10, "Adept"},
	{5, "Apprentice"},
	{1, "Novice"},
}

// TitleForLevel returns the display title for a level.
func TitleForLevel(level int) string {
	for _, band := range levelTitles {
		if level >= band.minLevel {
			return band.title
		}
	}
	return "Novice"
}
