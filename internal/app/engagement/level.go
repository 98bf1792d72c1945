package engagement

import (
	"math"

	"github.com/lvlup-app/lvlup/internal/domain"
)

// MaxLevel caps the level curve. XP keeps accumulating past it.
const MaxLevel = 100

// cumulative[l] holds CumulativeXPForLevel(l) for l in 0..MaxLevel+1.
var cumulative = func() []int64 {
	table := make([]int64, MaxLevel+2)
	for l := 1; l <= MaxLevel+1; l++ {
		table[l] = table[l-1] + XPRequiredForLevel(l)
	}
	return table
}()

// XPRequiredForLevel returns the XP needed to go from level-1 to level:
// floor(level*100 + level^1.5*50) for level > 1, else 0.
func XPRequiredForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	l := float64(level)
	return int64(math.Floor(l*100 + math.Pow(l, 1.5)*50))
}

// CumulativeXPForLevel returns the total XP at which level is reached.
func CumulativeXPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	if level < len(cumulative) {
		return cumulative[level]
	}
	total := cumulative[len(cumulative)-1]
	for l := len(cumulative); l <= level; l++ {
		total += XPRequiredForLevel(l)
	}
	return total
}

// LevelFromTotalXP returns the largest level L <= MaxLevel whose cumulative
// threshold is <= totalXP. Negative XP is treated as zero.
func LevelFromTotalXP(totalXP int64) int {
	if totalXP <= 0 {
		return 1
	}
	level := 1
	for level < MaxLevel && cumulative[level+1] <= totalXP {
		level++
	}
	return level
}

// LevelProgress is the derived level cache for a given XP total.
type LevelProgress struct {
	TotalXP        int64       `json:"total_xp"`
	CurrentLevel   int         `json:"current_level"`
	CurrentLevelXP int64       `json:"current_level_xp"`
	NextLevelXP    int64       `json:"next_level_xp"`
	Category       domain.Tier `json:"category"`
	MaxedOut       bool        `json:"maxed_out"`
}

// Pct returns progress through the current level (0-100).
func (p LevelProgress) Pct() float64 {
	if p.MaxedOut || p.NextLevelXP <= 0 {
		return 100.0
	}
	pct := float64(p.CurrentLevelXP) / float64(p.NextLevelXP) * 100.0
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Progress maps cumulative XP onto the level curve. The identity
// CumulativeXPForLevel(CurrentLevel) + CurrentLevelXP == TotalXP always holds;
// CurrentLevelXP < NextLevelXP holds below the level cap.
func Progress(totalXP int64) LevelProgress {
	if totalXP < 0 {
		totalXP = 0
	}
	level := LevelFromTotalXP(totalXP)
	return LevelProgress{
		TotalXP:        totalXP,
		CurrentLevel:   level,
		CurrentLevelXP: totalXP - CumulativeXPForLevel(level),
		NextLevelXP:    XPRequiredForLevel(level + 1),
		Category:       CategoryFromLevel(level),
		MaxedOut:       level >= MaxLevel,
	}
}

// CategoryFromLevel maps a level onto its tier band.
func CategoryFromLevel(level int) domain.Tier {
	switch {
	case level <= 10:
		return domain.TierNovice
	case level <= 25:
		return domain.TierApprentice
	case level <= 40:
		return domain.TierCompetent
	case level <= 60:
		return domain.TierExpert
	case level <= 80:
		return domain.TierMaster
	default:
		return domain.TierLegend
	}
}

// DidLevelUp reports whether going from prevXP to newXP crossed a level.
func DidLevelUp(prevXP, newXP int64) bool {
	return LevelFromTotalXP(newXP) > LevelFromTotalXP(prevXP)
}

// LevelsGained returns how many levels were gained between two XP totals.
// Never negative.
func LevelsGained(prevXP, newXP int64) int {
	gained := LevelFromTotalXP(newXP) - LevelFromTotalXP(prevXP)
	if gained < 0 {
		return 0
	}
	return gained
}

// DidCategoryChange compares tiers of two levels.
func DidCategoryChange(prevLevel, newLevel int) bool {
	return CategoryFromLevel(prevLevel) != CategoryFromLevel(newLevel)
}

// XPChange describes the effect of an XP delta on the level cache.
type XPChange struct {
	Delta           int64       `json:"delta"`
	PrevXP          int64       `json:"prev_xp"`
	NewXP           int64       `json:"new_xp"`
	PrevLevel       int         `json:"prev_level"`
	NewLevel        int         `json:"new_level"`
	LeveledUp       bool        `json:"leveled_up"`
	LevelsGained    int         `json:"levels_gained"`
	CategoryChanged bool        `json:"category_changed"`
	Category        domain.Tier `json:"category"`
}

// ApplyXP returns u with delta added to TotalXP (clamped at zero) and the
// level cache recomputed, plus a description of the transition.
func ApplyXP(u domain.User, delta int64) (domain.User, XPChange) {
	prevXP := u.TotalXP
	prevLevel := LevelFromTotalXP(prevXP)

	newXP := prevXP + delta
	if newXP < 0 {
		newXP = 0
	}
	p := Progress(newXP)

	u.TotalXP = newXP
	u.CurrentLevel = p.CurrentLevel
	u.CurrentLevelXP = p.CurrentLevelXP
	u.NextLevelXP = p.NextLevelXP
	u.Category = p.Category

	return u, XPChange{
		Delta:           newXP - prevXP,
		PrevXP:          prevXP,
		NewXP:           newXP,
		PrevLevel:       prevLevel,
		NewLevel:        p.CurrentLevel,
		LeveledUp:       p.CurrentLevel > prevLevel,
		LevelsGained:    LevelsGained(prevXP, newXP),
		CategoryChanged: DidCategoryChange(prevLevel, p.CurrentLevel),
		Category:        p.Category,
	}
}
