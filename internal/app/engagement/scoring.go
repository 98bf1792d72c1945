// Package engagement implements the lvlup gamification engines: scoring,
// leveling, streaks, achievements, goal rewards, daily missions and the
// stats rollup. Everything here is pure: no I/O, no shared mutable state,
// safe to call from any goroutine.
package engagement

import "github.com/lvlup-app/lvlup/internal/domain"

// BasePoints returns the fixed point value for a difficulty.
// Unknown difficulties score as easy; inputs are validated upstream.
func BasePoints(d domain.Difficulty) int {
	switch d {
	case domain.DifficultyMedium:
		return 25
	case domain.DifficultyHard:
		return 50
	case domain.DifficultyExtreme:
		return 100
	default:
		return 10
	}
}

// BonusContext is everything the multiplier depends on, captured at the
// moment of completion.
type BonusContext struct {
	CurrentStreak       int
	Priority            domain.Priority
	CompletedEarly      bool
	IsFirstTaskOfDay    bool
	TasksCompletedToday int // completed before this one
}

// Bonus fractions in hundredths. Integer arithmetic keeps the floor in
// EarnedPoints exact (100 × 1.15 must be 115, not 114).
const (
	bonusUrgent     = 20
	bonusHigh       = 15
	bonusEarly      = 25
	bonusFirstOfDay = 20
	bonusVolume5    = 30
	bonusVolume10   = 50
)

// bonusHundredths returns 100 + the sum of all applicable bonuses.
func bonusHundredths(ctx BonusContext) int {
	total := 100
	total += streakBonusHundredths(ctx.CurrentStreak)

	switch ctx.Priority {
	case domain.PriorityUrgent:
		total += bonusUrgent
	case domain.PriorityHigh:
		total += bonusHigh
	}

	if ctx.CompletedEarly {
		total += bonusEarly
	}
	if ctx.IsFirstTaskOfDay {
		total += bonusFirstOfDay
	}

	switch {
	case ctx.TasksCompletedToday >= 10:
		total += bonusVolume10
	case ctx.TasksCompletedToday >= 5:
		total += bonusVolume5
	}
	return total
}

// BonusMultiplier returns 1.0 plus the additive bonus fractions. There is no cap.
func BonusMultiplier(ctx BonusContext) float64 {
	return float64(bonusHundredths(ctx)) / 100
}

// EarnedPoints returns floor(base × multiplier). The multiplier is snapped to
// hundredths first, which is the precision every bonus is defined in, so the
// stored (base, multiplier) pair always reproduces the same award.
func EarnedPoints(base int, multiplier float64) int {
	if base <= 0 || multiplier <= 0 {
		return 0
	}
	hundredths := int(multiplier*100 + 0.5)
	return base * hundredths / 100
}

// Award is the frozen result of scoring one completion.
type Award struct {
	BasePoints   int     `json:"base_points"`
	Multiplier   float64 `json:"multiplier"`
	EarnedPoints int     `json:"earned_points"`
}

// Score computes the full award for a completion.
func Score(d domain.Difficulty, ctx BonusContext) Award {
	base := BasePoints(d)
	mult := BonusMultiplier(ctx)
	return Award{
		BasePoints:   base,
		Multiplier:   mult,
		EarnedPoints: EarnedPoints(base, mult),
	}
}
