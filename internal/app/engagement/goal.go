package engagement

import (
	"time"

	"github.com/lvlup-app/lvlup/internal/app/calendar"
	"github.com/lvlup-app/lvlup/internal/domain"
)

// GoalReward is the XP granted for completing a goal of type t.
func GoalReward(t domain.GoalType) int64 {
	if t == domain.GoalYearly {
		return 2000
	}
	return 500
}

// GoalPenalty is the XP removed when a goal of type t expires unmet.
func GoalPenalty(t domain.GoalType) int64 {
	if t == domain.GoalYearly {
		return 500
	}
	return 100
}

// GoalDeadline returns the reminder date if set, otherwise the last day of
// the goal's month (monthly) or year (yearly).
func GoalDeadline(g domain.Goal) string {
	if g.ReminderDate != "" {
		return g.ReminderDate
	}
	if g.Type == domain.GoalYearly {
		_, last := calendar.MonthRange(g.Year, 12)
		return last
	}
	_, last := calendar.MonthRange(g.Year, g.Month)
	return last
}

// IsGoalExpired reports whether an open goal's deadline is before today.
func IsGoalExpired(g domain.Goal, now time.Time) bool {
	if g.IsClosed() {
		return false
	}
	return GoalDeadline(g) < calendar.Today(now)
}
