package engagement

import (
	"time"

	"github.com/lvlup-app/lvlup/internal/app/calendar"
	"github.com/lvlup-app/lvlup/internal/domain"
)

// StreakTier is one row of the streak bonus table.
type StreakTier struct {
	Days  int     `json:"days"`
	Bonus float64 `json:"bonus"`
}

// StreakTiers is ordered highest first; the first tier whose Days is met wins.
// The scoring engine and the UI feedback helpers both read this table.
var StreakTiers = []StreakTier{
	{Days: 30, Bonus: 1.00},
	{Days: 7, Bonus: 0.50},
	{Days: 3, Bonus: 0.25},
}

// StreakBonus returns the bonus fraction a streak of days earns.
func StreakBonus(days int) float64 {
	for _, t := range StreakTiers {
		if days >= t.Days {
			return t.Bonus
		}
	}
	return 0
}

func streakBonusHundredths(days int) int {
	return int(StreakBonus(days)*100 + 0.5)
}

// NextStreakBonus returns the next tier above days. ok is false once the
// top tier has been reached.
func NextStreakBonus(days int) (StreakTier, bool) {
	var next StreakTier
	found := false
	for _, t := range StreakTiers {
		if t.Days > days {
			next, found = t, true
		}
	}
	return next, found
}

// DaysToNextBonus returns how many more days unlock the next tier, or 0 at the top.
func DaysToNextBonus(days int) int {
	next, ok := NextStreakBonus(days)
	if !ok {
		return 0
	}
	return next.Days - days
}

// CalculateNewStreak returns the streak value after a "day completed" event
// at now. Same day is a no-op, yesterday extends, anything else restarts.
// A lastActivityDate in the future is clock skew and restarts at 1.
func CalculateNewStreak(current int, lastActivityDate string, now time.Time) int {
	switch {
	case lastActivityDate == "":
		return 1
	case calendar.IsToday(lastActivityDate, now):
		return current
	case calendar.IsYesterday(lastActivityDate, now):
		return current + 1
	default:
		return 1
	}
}

// IsStreakActive is true while the last activity was today or yesterday.
func IsStreakActive(lastActivityDate string, now time.Time) bool {
	return calendar.IsToday(lastActivityDate, now) || calendar.IsYesterday(lastActivityDate, now)
}

// RecordActivity applies a "day completed" event to s. Calling it again on
// the same day returns s unchanged apart from UpdatedAt.
func RecordActivity(s domain.Streak, now time.Time) domain.Streak {
	today := calendar.Today(now)
	newDay := s.LastActivityDate != today

	next := CalculateNewStreak(s.CurrentStreak, s.LastActivityDate, now)
	if next == 1 && newDay {
		s.StreakStartDate = today
	}
	if s.StreakStartDate == "" {
		s.StreakStartDate = today
	}
	s.CurrentStreak = next
	if next > s.BestStreak {
		s.BestStreak = next
		s.BestStreakDate = today
	}
	if newDay {
		s.TotalDaysActive++
	}
	s.LastActivityDate = today
	s.IsActive = true
	s.UpdatedAt = now
	return s
}

// Refresh recomputes IsActive without recording activity.
func Refresh(s domain.Streak, now time.Time) domain.Streak {
	s.IsActive = IsStreakActive(s.LastActivityDate, now)
	return s
}

// EffectiveStreak is the streak length that counts for bonuses at now:
// the stored value while the grace window holds, otherwise zero.
func EffectiveStreak(s domain.Streak, now time.Time) int {
	if !IsStreakActive(s.LastActivityDate, now) {
		return 0
	}
	return s.CurrentStreak
}
