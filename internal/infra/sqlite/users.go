package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lvlup-app/lvlup/internal/domain"
)

// ─── User Repository ────────────────────────────────────────────────────────

const userColumns = `id, name, avatar, age, email, totalXP, currentLevel, currentLevelXP, nextLevelXP,
	category, totalTasksCompleted, tasksCompletedToday, tasksCompletedWeek, tasksCompletedMonth,
	currentStreak, bestStreak, lastTaskDate, totalAchievements, dailyMissionsCompletedToday,
	dailyMissionsStreak, lastMissionDate, createdAt, lastActivity`

// SeedUser creates the user together with its streak row, achievement
// instances and an empty stats row, all in one transaction.
func (d *DB) SeedUser(ctx context.Context, u domain.User, s domain.Streak, achievements []domain.Achievement, stats domain.Stats) error {
	return d.WithTx(ctx, func(tx *sql.Tx) error {
		if err := insertUser(ctx, tx, u); err != nil {
			return err
		}
		if err := upsertStreak(ctx, tx, s); err != nil {
			return err
		}
		for _, a := range achievements {
			if err := insertAchievement(ctx, tx, a); err != nil {
				return err
			}
		}
		return upsertStats(ctx, tx, stats)
	})
}

func insertUser(ctx context.Context, x execer, u domain.User) error {
	_, err := x.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, nullString(u.Avatar), u.Age, nullString(u.Email),
		u.TotalXP, u.CurrentLevel, u.CurrentLevelXP, u.NextLevelXP, string(u.Category),
		u.TotalTasksCompleted, u.TasksCompletedToday, u.TasksCompletedWeek, u.TasksCompletedMonth,
		u.CurrentStreak, u.BestStreak, nullString(u.LastTaskDate), u.TotalAchievements,
		u.DailyMissionsCompletedToday, u.DailyMissionsStreak, nullString(u.LastMissionDate),
		formatTS(u.CreatedAt), formatTS(u.LastActivity),
	)
	return persistErr("insert user", err)
}

// GetUser retrieves a user by id.
func (d *DB) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", id)
	}
	return u, persistErr("get user", err)
}

// FirstUser returns the oldest user. The app is single-tenant, so this is
// the device's profile.
func (d *DB) FirstUser(ctx context.Context) (*domain.User, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY createdAt, id LIMIT 1`)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", "(first)")
	}
	return u, persistErr("first user", err)
}

// UpdateUser writes every mutable user column.
func (d *DB) UpdateUser(ctx context.Context, u domain.User) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE users SET
			name = ?, avatar = ?, age = ?, email = ?,
			totalXP = ?, currentLevel = ?, currentLevelXP = ?, nextLevelXP = ?, category = ?,
			totalTasksCompleted = ?, tasksCompletedToday = ?, tasksCompletedWeek = ?, tasksCompletedMonth = ?,
			currentStreak = ?, bestStreak = ?, lastTaskDate = ?, totalAchievements = ?,
			dailyMissionsCompletedToday = ?, dailyMissionsStreak = ?, lastMissionDate = ?, lastActivity = ?
		 WHERE id = ?`,
		u.Name, nullString(u.Avatar), u.Age, nullString(u.Email),
		u.TotalXP, u.CurrentLevel, u.CurrentLevelXP, u.NextLevelXP, string(u.Category),
		u.TotalTasksCompleted, u.TasksCompletedToday, u.TasksCompletedWeek, u.TasksCompletedMonth,
		u.CurrentStreak, u.BestStreak, nullString(u.LastTaskDate), u.TotalAchievements,
		u.DailyMissionsCompletedToday, u.DailyMissionsStreak, nullString(u.LastMissionDate),
		formatTS(u.LastActivity), u.ID,
	)
	if err != nil {
		return persistErr("update user", err)
	}
	return expectRow(res, "user", u.ID)
}

func scanUser(s scanner) (*domain.User, error) {
	var u domain.User
	var avatar, email, lastTask, lastMission, createdAt, lastActivity sql.NullString
	var age sql.NullInt64
	var category string

	err := s.Scan(&u.ID, &u.Name, &avatar, &age, &email,
		&u.TotalXP, &u.CurrentLevel, &u.CurrentLevelXP, &u.NextLevelXP, &category,
		&u.TotalTasksCompleted, &u.TasksCompletedToday, &u.TasksCompletedWeek, &u.TasksCompletedMonth,
		&u.CurrentStreak, &u.BestStreak, &lastTask, &u.TotalAchievements,
		&u.DailyMissionsCompletedToday, &u.DailyMissionsStreak, &lastMission,
		&createdAt, &lastActivity)
	if err != nil {
		return nil, err
	}

	u.Avatar = avatar.String
	u.Email = email.String
	u.Age = int(age.Int64)
	u.Category = domain.Tier(category)
	u.LastTaskDate = lastTask.String
	u.LastMissionDate = lastMission.String
	u.CreatedAt = parseTS(createdAt)
	u.LastActivity = parseTS(lastActivity)
	return &u, nil
}
