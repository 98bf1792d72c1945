package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lvlup-app/lvlup/internal/domain"
)

// ─── Stats Repository ───────────────────────────────────────────────────────

const statsColumns = `id, userId, totalTasks, completedTasks, pendingTasks, overdueTasks, cancelledTasks,
	easyCompleted, mediumCompleted, hardCompleted, extremeCompleted,
	personalCompleted, workCompleted, healthCompleted, learningCompleted, homeCompleted,
	financeCompleted, socialCompleted, otherCompleted,
	totalPointsEarned, averagePoints, bestTaskPoints, timeInvested, completionRate,
	earlyCompletions, firstOfDayCompletions, streakCompletions, completedThisWeek, completedThisMonth,
	mostProductiveHour, mostProductiveDay, currentStreak, bestStreak, totalDaysActive,
	achievementsUnlocked, achievementsTotal, updatedAt`

// GetStats loads the stats rollup for a user.
func (d *DB) GetStats(ctx context.Context, userID string) (*domain.Stats, error) {
	var s domain.Stats
	var updatedAt sql.NullString

	err := d.db.QueryRowContext(ctx, `SELECT `+statsColumns+` FROM stats WHERE userId = ?`, userID).Scan(
		&s.ID, &s.UserID, &s.TotalTasks, &s.CompletedTasks, &s.PendingTasks, &s.OverdueTasks, &s.CancelledTasks,
		&s.EasyCompleted, &s.MediumCompleted, &s.HardCompleted, &s.ExtremeCompleted,
		&s.PersonalCompleted, &s.WorkCompleted, &s.HealthCompleted, &s.LearningCompleted, &s.HomeCompleted,
		&s.FinanceCompleted, &s.SocialCompleted, &s.OtherCompleted,
		&s.TotalPointsEarned, &s.AveragePoints, &s.BestTaskPoints, &s.TimeInvested, &s.CompletionRate,
		&s.EarlyCompletions, &s.FirstOfDayCompletions, &s.StreakCompletions, &s.CompletedThisWeek, &s.CompletedThisMonth,
		&s.MostProductiveHour, &s.MostProductiveDay, &s.CurrentStreak, &s.BestStreak, &s.TotalDaysActive,
		&s.AchievementsUnlocked, &s.AchievementsTotal, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("stats", userID)
	}
	if err != nil {
		return nil, persistErr("get stats", err)
	}
	s.UpdatedAt = parseTS(updatedAt)
	return &s, nil
}

// UpsertStats replaces the user's stats row wholesale.
func (d *DB) UpsertStats(ctx context.Context, s domain.Stats) error {
	return upsertStats(ctx, d.db, s)
}

func upsertStats(ctx context.Context, x execer, s domain.Stats) error {
	_, err := x.ExecContext(ctx,
		`INSERT OR REPLACE INTO stats (`+statsColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.TotalTasks, s.CompletedTasks, s.PendingTasks, s.OverdueTasks, s.CancelledTasks,
		s.EasyCompleted, s.MediumCompleted, s.HardCompleted, s.ExtremeCompleted,
		s.PersonalCompleted, s.WorkCompleted, s.HealthCompleted, s.LearningCompleted, s.HomeCompleted,
		s.FinanceCompleted, s.SocialCompleted, s.OtherCompleted,
		s.TotalPointsEarned, s.AveragePoints, s.BestTaskPoints, s.TimeInvested, s.CompletionRate,
		s.EarlyCompletions, s.FirstOfDayCompletions, s.StreakCompletions, s.CompletedThisWeek, s.CompletedThisMonth,
		s.MostProductiveHour, s.MostProductiveDay, s.CurrentStreak, s.BestStreak, s.TotalDaysActive,
		s.AchievementsUnlocked, s.AchievementsTotal, formatTS(s.UpdatedAt),
	)
	return persistErr("upsert stats", err)
}
