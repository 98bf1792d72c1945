package store

import (
	"context"
	"log"
	"time"

	"github.com/lvlup-app/lvlup/internal/app/calendar"
	"github.com/lvlup-app/lvlup/internal/app/engagement"
	"github.com/lvlup-app/lvlup/internal/domain"
	"github.com/lvlup-app/lvlup/internal/infra/metrics"
)

// RolloverReport summarizes one daily rollover.
type RolloverReport struct {
	Date        string        `json:"date"`
	Overdue     int64         `json:"overdue"`
	FailedGoals []domain.Goal `json:"failed_goals,omitempty"`
	Missions    int           `json:"missions"`
	Streak      int           `json:"streak"`
}

// Rollover brings the profile up to date with the calendar: overdue tasks
// are flagged, stale day/week/month counters are reset, the streak's
// active flag is refreshed, expired goals fail and today's missions exist.
// Running it twice on the same day is harmless.
func (s *Store) Rollover(ctx context.Context) (report RolloverReport, err error) {
	defer s.observe("rollover", time.Now(), &err)
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.RolloverRuns.WithLabelValues(result).Inc()
	}()

	userID, err := s.userID()
	if err != nil {
		return report, err
	}
	s.write.Lock()
	defer s.write.Unlock()

	now := s.clock.Now()
	today := calendar.Today(now)
	report.Date = today

	report.Overdue, err = s.repo.MarkOverdue(ctx, userID, today, calendar.FormatTime(now))
	if err != nil {
		return report, err
	}
	metrics.TasksOverdue.Add(float64(report.Overdue))

	current, err := s.repo.GetStreak(ctx, userID)
	if err != nil {
		return report, err
	}
	streak := engagement.Refresh(*current, now)
	if streak.IsActive != current.IsActive {
		streak.UpdatedAt = now
		if err := s.repo.UpsertStreak(ctx, streak); err != nil {
			return report, err
		}
	}
	report.Streak = engagement.EffectiveStreak(streak, now)

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return report, err
	}
	user := engagement.RolloverCounters(*u, now)
	user = engagement.SyncStreak(user, streak, now)
	if !engagement.IsStreakActive(user.LastMissionDate, now) {
		user.DailyMissionsStreak = 0
	}
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return report, err
	}

	if report.FailedGoals, err = s.failExpiredGoals(ctx, userID); err != nil {
		return report, err
	}

	missions, err := s.ensureMissions(ctx, userID, today)
	if err != nil {
		return report, err
	}
	report.Missions = len(missions)

	if _, err := s.recomputeStats(ctx, userID); err != nil {
		return report, err
	}

	log.Printf("[store] rollover %s: %d overdue, %d goals failed, streak %d",
		today, report.Overdue, len(report.FailedGoals), report.Streak)
	return report, s.reload(ctx, userID)
}

// RecomputeStats rebuilds the stats rollup from a full scan and stores it.
func (s *Store) RecomputeStats(ctx context.Context) (stats domain.Stats, err error) {
	defer s.observe("recompute_stats", time.Now(), &err)

	userID, err := s.userID()
	if err != nil {
		return domain.Stats{}, err
	}
	return s.recomputeStats(ctx, userID)
}

func (s *Store) recomputeStats(ctx context.Context, userID string) (domain.Stats, error) {
	tasks, err := s.repo.ListTasks(ctx, userID)
	if err != nil {
		return domain.Stats{}, err
	}
	streak, err := s.repo.GetStreak(ctx, userID)
	if err != nil {
		return domain.Stats{}, err
	}
	achievements, err := s.repo.ListAchievements(ctx, userID)
	if err != nil {
		return domain.Stats{}, err
	}
	stats := engagement.ComputeStats(userID, tasks, *streak, achievements, s.clock.Now())
	if err := s.repo.UpsertStats(ctx, stats); err != nil {
		return domain.Stats{}, err
	}
	return stats, nil
}

// Stats returns the stored stats rollup as of its last recompute.
func (s *Store) Stats(ctx context.Context) (*domain.Stats, error) {
	userID, err := s.userID()
	if err != nil {
		return nil, err
	}
	return s.repo.GetStats(ctx, userID)
}

// ─── Notification log ───────────────────────────────────────────────────────

// RecordNotification appends a delivered notification to the log.
func (s *Store) RecordNotification(ctx context.Context, n domain.ReceivedNotification) (domain.ReceivedNotification, error) {
	userID, err := s.userID()
	if err != nil {
		return n, err
	}
	n.UserID = userID
	if n.ReceivedAt.IsZero() {
		n.ReceivedAt = s.clock.Now()
	}
	id, err := s.repo.InsertReceivedNotification(ctx, n)
	if err != nil {
		return n, err
	}
	n.ID = id
	return n, nil
}

// Notifications returns the newest log entries.
func (s *Store) Notifications(ctx context.Context, limit int) ([]domain.ReceivedNotification, error) {
	userID, err := s.userID()
	if err != nil {
		return nil, err
	}
	return s.repo.ListReceivedNotifications(ctx, userID, limit)
}

// MarkNotificationRead flags a log entry as read.
func (s *Store) MarkNotificationRead(ctx context.Context, id int64) error {
	return s.repo.MarkNotificationRead(ctx, id)
}
