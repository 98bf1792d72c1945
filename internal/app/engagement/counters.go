package engagement

import (
	"time"

	"github.com/lvlup-app/lvlup/internal/app/calendar"
	"github.com/lvlup-app/lvlup/internal/domain"
)

// RolloverCounters zeroes the day, week and month completion counters whose
// period no longer contains now. The lifetime counter is never touched.
func RolloverCounters(u domain.User, now time.Time) domain.User {
	if !calendar.IsToday(u.LastTaskDate, now) {
		u.TasksCompletedToday = 0
	}
	if !calendar.SameWeek(u.LastTaskDate, now) {
		u.TasksCompletedWeek = 0
	}
	if !calendar.SameMonth(u.LastTaskDate, now) {
		u.TasksCompletedMonth = 0
	}
	if !calendar.IsToday(u.LastMissionDate, now) {
		u.DailyMissionsCompletedToday = 0
	}
	return u
}

// CountCompletion records one completed task on the user's counters.
func CountCompletion(u domain.User, now time.Time) domain.User {
	u = RolloverCounters(u, now)
	u.TotalTasksCompleted++
	u.TasksCompletedToday++
	u.TasksCompletedWeek++
	u.TasksCompletedMonth++
	u.LastTaskDate = calendar.Today(now)
	u.LastActivity = now
	return u
}

// CountMissionsDone records that every mission of today is finished and
// advances the mission streak. Repeating it on the same day is a no-op.
func CountMissionsDone(u domain.User, now time.Time) domain.User {
	if calendar.IsToday(u.LastMissionDate, now) {
		return u
	}
	u.DailyMissionsStreak = CalculateNewStreak(u.DailyMissionsStreak, u.LastMissionDate, now)
	u.LastMissionDate = calendar.Today(now)
	return u
}

// SyncStreak mirrors the streak row onto the user's denormalized columns.
func SyncStreak(u domain.User, s domain.Streak, now time.Time) domain.User {
	u.CurrentStreak = EffectiveStreak(s, now)
	u.BestStreak = s.BestStreak
	return u
}
