package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lvlup-app/lvlup/internal/app/calendar"
	"github.com/lvlup-app/lvlup/internal/domain"
)

// ─── Task Repository ────────────────────────────────────────────────────────

const taskColumns = `id, userId, title, description, completed, status, difficulty, category, priority,
	basePoints, bonusMultiplier, earnedPoints, dueDate, dueTime, estimatedTime,
	createdAt, updatedAt, completedAt, completedEarly, isFirstTaskOfDay, completedDuringStreak,
	hasReminder, notificationId`

// nowSQL renders the current time in the same RFC 3339 UTC form as formatTS.
const nowSQL = `strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`

// InsertTask creates a new task record.
func (d *DB) InsertTask(ctx context.Context, t domain.Task) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, nullString(t.Description), boolInt(t.Completed), string(t.Status),
		string(t.Difficulty), string(t.Category), string(t.Priority),
		t.BasePoints, t.BonusMultiplier, t.EarnedPoints,
		nullString(t.DueDate), nullString(t.DueTime), t.EstimatedTime,
		formatTS(t.CreatedAt), formatTS(t.UpdatedAt), formatTSPtr(t.CompletedAt),
		boolInt(t.CompletedEarly), boolInt(t.IsFirstTaskOfDay), boolInt(t.CompletedDuringStreak),
		boolInt(t.HasReminder), nullString(t.NotificationID),
	)
	return persistErr("insert task", err)
}

// GetTask retrieves a single task by id.
func (d *DB) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("task", id)
	}
	return t, persistErr("get task", err)
}

// ListTasks returns all of a user's tasks, oldest first.
func (d *DB) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	return d.queryTasks(ctx, "list tasks",
		`SELECT `+taskColumns+` FROM tasks WHERE userId = ? ORDER BY createdAt, id`, userID)
}

// ListTasksInRange returns tasks due between from and to inclusive, ordered
// by due date then due time, with untimed tasks last within a day.
func (d *DB) ListTasksInRange(ctx context.Context, userID, from, to string) ([]domain.Task, error) {
	if err := calendar.ValidateDate(from); err != nil {
		return nil, err
	}
	if err := calendar.ValidateDate(to); err != nil {
		return nil, err
	}
	return d.queryTasks(ctx, "list tasks in range",
		`SELECT `+taskColumns+` FROM tasks
		 WHERE userId = ? AND dueDate BETWEEN ? AND ?
		 ORDER BY dueDate ASC, dueTime IS NULL, dueTime ASC, createdAt`,
		userID, from, to)
}

// ListTasksByMonth returns tasks due in the given month.
func (d *DB) ListTasksByMonth(ctx context.Context, userID string, year, month int) ([]domain.Task, error) {
	if month < 1 || month > 12 {
		return nil, domain.NewValidationError("month", "", "must be 1-12")
	}
	first, last := calendar.MonthRange(year, month)
	return d.ListTasksInRange(ctx, userID, first, last)
}

// CountPendingDueOn counts open tasks due on date.
func (d *DB) CountPendingDueOn(ctx context.Context, userID, date string) (int, error) {
	var n int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks
		 WHERE userId = ? AND dueDate = ? AND completed = 0 AND status != 'cancelled'`,
		userID, date,
	).Scan(&n)
	return n, persistErr("count pending", err)
}

// UpdateTask writes the editable fields of a task.
func (d *DB) UpdateTask(ctx context.Context, t domain.Task) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE tasks SET
			title = ?, description = ?, status = ?, difficulty = ?, category = ?, priority = ?,
			basePoints = ?, dueDate = ?, dueTime = ?, estimatedTime = ?, updatedAt = ?,
			hasReminder = ?, notificationId = ?
		 WHERE id = ?`,
		t.Title, nullString(t.Description), string(t.Status),
		string(t.Difficulty), string(t.Category), string(t.Priority),
		t.BasePoints, nullString(t.DueDate), nullString(t.DueTime), t.EstimatedTime, formatTS(t.UpdatedAt),
		boolInt(t.HasReminder), nullString(t.NotificationID), t.ID,
	)
	if err != nil {
		return persistErr("update task", err)
	}
	return expectRow(res, "task", t.ID)
}

// CompleteTask applies a completion in a single UPDATE. A task that is
// already completed is left untouched and reported as ErrAlreadyCompleted.
func (d *DB) CompleteTask(ctx context.Context, c domain.Completion) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE tasks SET
			completed = 1, status = 'completed', completedAt = ?, updatedAt = ?,
			basePoints = ?, bonusMultiplier = ?, earnedPoints = ?,
			completedEarly = ?, isFirstTaskOfDay = ?, completedDuringStreak = ?
		 WHERE id = ? AND completed = 0`,
		formatTS(c.CompletedAt), formatTS(c.CompletedAt),
		c.BasePoints, c.BonusMultiplier, c.EarnedPoints,
		boolInt(c.CompletedEarly), boolInt(c.IsFirstTaskOfDay), boolInt(c.CompletedDuringStreak),
		c.TaskID,
	)
	if err != nil {
		return persistErr("complete task", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return persistErr("complete task", err)
	}
	if n == 1 {
		return nil
	}
	if _, err := d.GetTask(ctx, c.TaskID); err != nil {
		return err
	}
	return domain.ErrAlreadyCompleted
}

// UncompleteTask returns a completed task to an open status and clears its
// frozen score. The user's XP is not touched here or anywhere else.
func (d *DB) UncompleteTask(ctx context.Context, id string, status domain.TaskStatus) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE tasks SET
			completed = 0, status = ?, completedAt = NULL, updatedAt = `+nowSQL+`,
			bonusMultiplier = 1.0, earnedPoints = 0,
			completedEarly = 0, isFirstTaskOfDay = 0, completedDuringStreak = 0
		 WHERE id = ?`,
		string(status), id,
	)
	if err != nil {
		return persistErr("uncomplete task", err)
	}
	return expectRow(res, "task", id)
}

// MarkOverdue flips pending tasks whose due instant has passed to overdue.
// Untimed tasks only become overdue once their date is before today.
func (d *DB) MarkOverdue(ctx context.Context, userID, today, nowTime string) (int64, error) {
	res, err := d.db.ExecContext(ctx,
		`UPDATE tasks SET status = 'overdue', updatedAt = `+nowSQL+`
		 WHERE userId = ? AND completed = 0 AND status = 'pending' AND dueDate IS NOT NULL
		   AND (dueDate < ? OR (dueDate = ? AND dueTime IS NOT NULL AND dueTime < ?))`,
		userID, today, today, nowTime,
	)
	if err != nil {
		return 0, persistErr("mark overdue", err)
	}
	n, err := res.RowsAffected()
	return n, persistErr("mark overdue", err)
}

// SetTaskNotification stores (or clears, with "") the reminder handle.
func (d *DB) SetTaskNotification(ctx context.Context, id, notificationID string) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE tasks SET notificationId = ? WHERE id = ?`, nullString(notificationID), id)
	if err != nil {
		return persistErr("set task notification", err)
	}
	return expectRow(res, "task", id)
}

// DeleteTask removes a task record.
func (d *DB) DeleteTask(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return persistErr("delete task", err)
	}
	return expectRow(res, "task", id)
}

func (d *DB) queryTasks(ctx context.Context, op, query string, args ...any) ([]domain.Task, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistErr(op, err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, persistErr(op, err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, persistErr(op, rows.Err())
}

func scanTask(s scanner) (*domain.Task, error) {
	var t domain.Task
	var desc, dueDate, dueTime, createdAt, updatedAt, completedAt, notificationID sql.NullString
	var status, difficulty, category, priority string
	var completed, early, first, duringStreak, hasReminder int

	err := s.Scan(&t.ID, &t.UserID, &t.Title, &desc, &completed, &status, &difficulty, &category, &priority,
		&t.BasePoints, &t.BonusMultiplier, &t.EarnedPoints, &dueDate, &dueTime, &t.EstimatedTime,
		&createdAt, &updatedAt, &completedAt, &early, &first, &duringStreak,
		&hasReminder, &notificationID)
	if err != nil {
		return nil, err
	}

	t.Description = desc.String
	t.Completed = completed == 1
	t.Status = domain.TaskStatus(status)
	t.Difficulty = domain.Difficulty(difficulty)
	t.Category = domain.TaskCategory(category)
	t.Priority = domain.Priority(priority)
	t.DueDate = dueDate.String
	t.DueTime = dueTime.String
	t.CreatedAt = parseTS(createdAt)
	t.UpdatedAt = parseTS(updatedAt)
	t.CompletedAt = parseTSPtr(completedAt)
	t.CompletedEarly = early == 1
	t.IsFirstTaskOfDay = first == 1
	t.CompletedDuringStreak = duringStreak == 1
	t.HasReminder = hasReminder == 1
	t.NotificationID = notificationID.String
	return &t, nil
}
