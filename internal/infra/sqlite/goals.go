package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lvlup-app/lvlup/internal/domain"
)

// ─── Goal Repository ────────────────────────────────────────────────────────

const goalColumns = `id, userId, type, title, description, completed, xpReward, createdAt, completedAt,
	year, month, reminderDate, notificationEnabled, notificationId, failed, failedAt`

// InsertGoal creates a goal.
func (d *DB) InsertGoal(ctx context.Context, g domain.Goal) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO goals (`+goalColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, string(g.Type), g.Title, nullString(g.Description), boolInt(g.Completed),
		g.XPReward, formatTS(g.CreatedAt), formatTSPtr(g.CompletedAt),
		g.Year, nullMonth(g.Month), nullString(g.ReminderDate), boolInt(g.NotificationEnabled),
		nullString(g.NotificationID), boolInt(g.Failed), formatTSPtr(g.FailedAt),
	)
	return persistErr("insert goal", err)
}

// GetGoal retrieves a goal by id.
func (d *DB) GetGoal(ctx context.Context, id string) (*domain.Goal, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("goal", id)
	}
	return g, persistErr("get goal", err)
}

// ListGoals returns a user's goals, nearest horizon first.
func (d *DB) ListGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE userId = ?
		 ORDER BY year, COALESCE(month, 13), createdAt`, userID)
	if err != nil {
		return nil, persistErr("list goals", err)
	}
	defer rows.Close()

	var goals []domain.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, persistErr("list goals", err)
		}
		goals = append(goals, *g)
	}
	return goals, persistErr("list goals", rows.Err())
}

// UpdateGoal writes every mutable goal column.
func (d *DB) UpdateGoal(ctx context.Context, g domain.Goal) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE goals SET
			title = ?, description = ?, completed = ?, xpReward = ?, completedAt = ?,
			year = ?, month = ?, reminderDate = ?, notificationEnabled = ?, notificationId = ?,
			failed = ?, failedAt = ?
		 WHERE id = ?`,
		g.Title, nullString(g.Description), boolInt(g.Completed), g.XPReward, formatTSPtr(g.CompletedAt),
		g.Year, nullMonth(g.Month), nullString(g.ReminderDate), boolInt(g.NotificationEnabled),
		nullString(g.NotificationID), boolInt(g.Failed), formatTSPtr(g.FailedAt), g.ID,
	)
	if err != nil {
		return persistErr("update goal", err)
	}
	return expectRow(res, "goal", g.ID)
}

// DeleteGoal removes a goal.
func (d *DB) DeleteGoal(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return persistErr("delete goal", err)
	}
	return expectRow(res, "goal", id)
}

func nullMonth(m int) sql.NullInt64 {
	if m <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(m), Valid: true}
}

func scanGoal(s scanner) (*domain.Goal, error) {
	var g domain.Goal
	var goalType string
	var desc, createdAt, completedAt, reminder, notificationID, failedAt sql.NullString
	var month sql.NullInt64
	var completed, notify, failed int

	err := s.Scan(&g.ID, &g.UserID, &goalType, &g.Title, &desc, &completed, &g.XPReward,
		&createdAt, &completedAt, &g.Year, &month, &reminder, &notify, &notificationID,
		&failed, &failedAt)
	if err != nil {
		return nil, err
	}

	g.Type = domain.GoalType(goalType)
	g.Description = desc.String
	g.Completed = completed == 1
	g.CreatedAt = parseTS(createdAt)
	g.CompletedAt = parseTSPtr(completedAt)
	g.Month = int(month.Int64)
	g.ReminderDate = reminder.String
	g.NotificationEnabled = notify == 1
	g.NotificationID = notificationID.String
	g.Failed = failed == 1
	g.FailedAt = parseTSPtr(failedAt)
	return &g, nil
}
