package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lvlup-app/lvlup/internal/domain"
)

// ─── Streak Repository ──────────────────────────────────────────────────────

// GetStreak loads the user's streak row.
func (d *DB) GetStreak(ctx context.Context, userID string) (*domain.Streak, error) {
	var s domain.Streak
	var last, start, best, createdAt, updatedAt sql.NullString
	var active int

	err := d.db.QueryRowContext(ctx,
		`SELECT id, userId, currentStreak, bestStreak, lastActivityDate, streakStartDate,
		        bestStreakDate, isActive, totalDaysActive, createdAt, updatedAt
		 FROM streaks WHERE userId = ?`, userID,
	).Scan(&s.ID, &s.UserID, &s.CurrentStreak, &s.BestStreak, &last, &start,
		&best, &active, &s.TotalDaysActive, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("streak", userID)
	}
	if err != nil {
		return nil, persistErr("get streak", err)
	}

	s.LastActivityDate = last.String
	s.StreakStartDate = start.String
	s.BestStreakDate = best.String
	s.IsActive = active == 1
	s.CreatedAt = parseTS(createdAt)
	s.UpdatedAt = parseTS(updatedAt)
	return &s, nil
}

// UpsertStreak inserts or replaces the user's streak row.
func (d *DB) UpsertStreak(ctx context.Context, s domain.Streak) error {
	return upsertStreak(ctx, d.db, s)
}

func upsertStreak(ctx context.Context, x execer, s domain.Streak) error {
	_, err := x.ExecContext(ctx,
		`INSERT INTO streaks (id, userId, currentStreak, bestStreak, lastActivityDate, streakStartDate,
		                      bestStreakDate, isActive, totalDaysActive, createdAt, updatedAt)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(userId) DO UPDATE SET
			currentStreak=excluded.currentStreak,
			bestStreak=excluded.bestStreak,
			lastActivityDate=excluded.lastActivityDate,
			streakStartDate=excluded.streakStartDate,
			bestStreakDate=excluded.bestStreakDate,
			isActive=excluded.isActive,
			totalDaysActive=excluded.totalDaysActive,
			updatedAt=excluded.updatedAt`,
		s.ID, s.UserID, s.CurrentStreak, s.BestStreak,
		nullString(s.LastActivityDate), nullString(s.StreakStartDate), nullString(s.BestStreakDate),
		boolInt(s.IsActive), s.TotalDaysActive, formatTS(s.CreatedAt), formatTS(s.UpdatedAt),
	)
	return persistErr("upsert streak", err)
}

// ─── Achievement Repository ─────────────────────────────────────────────────

const achievementColumns = `id, userId, name, description, icon, category, rarity, xpReward,
	unlocked, unlockedAt, progress, requirementType, requirementValue, currentValue, orderIndex, isSecret`

// ListAchievements returns the user's instances in catalog order.
func (d *DB) ListAchievements(ctx context.Context, userID string) ([]domain.Achievement, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+achievementColumns+` FROM achievements WHERE userId = ? ORDER BY orderIndex, id`, userID)
	if err != nil {
		return nil, persistErr("list achievements", err)
	}
	defer rows.Close()

	var list []domain.Achievement
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, persistErr("list achievements", err)
		}
		list = append(list, *a)
	}
	return list, persistErr("list achievements", rows.Err())
}

// InsertAchievements adds new instances, skipping ids that already exist.
func (d *DB) InsertAchievements(ctx context.Context, achievements []domain.Achievement) error {
	if len(achievements) == 0 {
		return nil
	}
	return d.WithTx(ctx, func(tx *sql.Tx) error {
		for _, a := range achievements {
			if err := insertAchievement(ctx, tx, a); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertAchievement(ctx context.Context, x execer, a domain.Achievement) error {
	_, err := x.ExecContext(ctx,
		`INSERT INTO achievements (`+achievementColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		a.ID, a.UserID, a.Name, nullString(a.Description), nullString(a.Icon),
		string(a.Category), string(a.Rarity), a.XPReward,
		boolInt(a.Unlocked), formatTSPtr(a.UnlockedAt), a.Progress,
		string(a.RequirementType), a.RequirementValue, a.CurrentValue, a.OrderIndex, boolInt(a.IsSecret),
	)
	return persistErr("insert achievement", err)
}

// SaveAchievements writes progress fields for a batch in one transaction.
// An unlocked row is never written back to locked.
func (d *DB) SaveAchievements(ctx context.Context, achievements []domain.Achievement) error {
	if len(achievements) == 0 {
		return nil
	}
	return d.WithTx(ctx, func(tx *sql.Tx) error {
		for _, a := range achievements {
			res, err := tx.ExecContext(ctx,
				`UPDATE achievements SET
					unlocked = MAX(unlocked, ?),
					unlockedAt = COALESCE(unlockedAt, ?),
					progress = CASE WHEN unlocked = 1 THEN progress ELSE ? END,
					currentValue = CASE WHEN unlocked = 1 THEN currentValue ELSE ? END
				 WHERE id = ?`,
				boolInt(a.Unlocked), formatTSPtr(a.UnlockedAt), a.Progress, a.CurrentValue, a.ID,
			)
			if err != nil {
				return persistErr("save achievement", err)
			}
			if err := expectRow(res, "achievement", a.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

func scanAchievement(s scanner) (*domain.Achievement, error) {
	var a domain.Achievement
	var desc, icon, unlockedAt sql.NullString
	var category, rarity, reqType string
	var unlocked, secret int

	err := s.Scan(&a.ID, &a.UserID, &a.Name, &desc, &icon, &category, &rarity, &a.XPReward,
		&unlocked, &unlockedAt, &a.Progress, &reqType, &a.RequirementValue, &a.CurrentValue,
		&a.OrderIndex, &secret)
	if err != nil {
		return nil, err
	}

	a.Description = desc.String
	a.Icon = icon.String
	a.Category = domain.AchievementCategory(category)
	a.Rarity = domain.Rarity(rarity)
	a.Unlocked = unlocked == 1
	a.UnlockedAt = parseTSPtr(unlockedAt)
	a.RequirementType = domain.RequirementType(reqType)
	a.IsSecret = secret == 1
	return &a, nil
}
