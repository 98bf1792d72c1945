package engagement

import (
	"time"

	"github.com/lvlup-app/lvlup/internal/app/calendar"
	"github.com/lvlup-app/lvlup/internal/domain"
)

// ComputeStats rebuilds the full stats rollup from scratch. It reads only
// its arguments, so identical inputs always give identical output.
func ComputeStats(userID string, tasks []domain.Task, streak domain.Streak, achievements []domain.Achievement, now time.Time) domain.Stats {
	s := domain.Stats{
		ID:                 "stats-" + userID,
		UserID:             userID,
		TotalTasks:         len(tasks),
		MostProductiveHour: -1,
		MostProductiveDay:  -1,
		CurrentStreak:      EffectiveStreak(streak, now),
		BestStreak:         streak.BestStreak,
		TotalDaysActive:    streak.TotalDaysActive,
		AchievementsTotal:  len(achievements),
		UpdatedAt:          now,
	}

	var hours [24]int
	var days [7]int

	for i := range tasks {
		t := &tasks[i]
		switch t.Status {
		case domain.TaskCancelled:
			s.CancelledTasks++
			continue
		case domain.TaskOverdue:
			if !t.Completed {
				s.OverdueTasks++
				continue
			}
		}
		if !t.Completed {
			s.PendingTasks++
			continue
		}

		s.CompletedTasks++
		countDifficulty(&s, t.Difficulty)
		countCategory(&s, t.Category)

		s.TotalPointsEarned += int64(t.EarnedPoints)
		if t.EarnedPoints > s.BestTaskPoints {
			s.BestTaskPoints = t.EarnedPoints
		}
		s.TimeInvested += t.EstimatedTime

		if t.CompletedEarly {
			s.EarlyCompletions++
		}
		if t.IsFirstTaskOfDay {
			s.FirstOfDayCompletions++
		}
		if t.CompletedDuringStreak {
			s.StreakCompletions++
		}

		if t.CompletedAt != nil {
			at := t.CompletedAt.In(now.Location())
			hours[at.Hour()]++
			days[int(at.Weekday())]++
			day := calendar.FormatDate(at)
			if calendar.SameWeek(day, now) {
				s.CompletedThisWeek++
			}
			if calendar.SameMonth(day, now) {
				s.CompletedThisMonth++
			}
		}
	}

	if s.CompletedTasks > 0 {
		s.AveragePoints = float64(s.TotalPointsEarned) / float64(s.CompletedTasks)
	}
	if s.TotalTasks > 0 {
		s.CompletionRate = float64(s.CompletedTasks) / float64(s.TotalTasks) * 100
	}
	s.MostProductiveHour = argmax(hours[:])
	s.MostProductiveDay = argmax(days[:])
	s.AchievementsUnlocked = UnlockedCount(achievements)
	return s
}

func countDifficulty(s *domain.Stats, d domain.Difficulty) {
	switch d {
	case domain.DifficultyEasy:
		s.EasyCompleted++
	case domain.DifficultyMedium:
		s.MediumCompleted++
	case domain.DifficultyHard:
		s.HardCompleted++
	case domain.DifficultyExtreme:
		s.ExtremeCompleted++
	}
}

func countCategory(s *domain.Stats, c domain.TaskCategory) {
	switch c {
	case domain.CategoryPersonal:
		s.PersonalCompleted++
	case domain.CategoryWork:
		s.WorkCompleted++
	case domain.CategoryHealth:
		s.HealthCompleted++
	case domain.CategoryLearning:
		s.LearningCompleted++
	case domain.CategoryHome:
		s.HomeCompleted++
	case domain.CategoryFinance:
		s.FinanceCompleted++
	case domain.CategorySocial:
		s.SocialCompleted++
	default:
		s.OtherCompleted++
	}
}

// argmax returns the first index holding the largest count, or -1 if all are zero.
func argmax(counts []int) int {
	best, idx := 0, -1
	for i, c := range counts {
		if c > best {
			best, idx = c, i
		}
	}
	return idx
}
