package sqlite

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/lvlup-app/lvlup/internal/domain"
)

// ─── Received Notifications ─────────────────────────────────────────────────

// InsertReceivedNotification appends to the receipt log.
func (d *DB) InsertReceivedNotification(ctx context.Context, n domain.ReceivedNotification) (int64, error) {
	res, err := d.db.ExecContext(ctx,
		`INSERT INTO received_notifications (userId, notificationId, taskId, type, title, body, receivedAt, read)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.UserID, nullString(n.NotificationID), nullString(n.TaskID), string(n.Type),
		n.Title, n.Body, formatTS(n.ReceivedAt), boolInt(n.Read),
	)
	if err != nil {
		return 0, persistErr("insert notification", err)
	}
	id, err := res.LastInsertId()
	return id, persistErr("insert notification", err)
}

// ListReceivedNotifications returns the newest entries first.
func (d *DB) ListReceivedNotifications(ctx context.Context, userID string, limit int) ([]domain.ReceivedNotification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, userId, notificationId, taskId, type, title, body, receivedAt, read
		 FROM received_notifications WHERE userId = ? ORDER BY id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, persistErr("list notifications", err)
	}
	defer rows.Close()

	var list []domain.ReceivedNotification
	for rows.Next() {
		var n domain.ReceivedNotification
		var notificationID, taskID, receivedAt sql.NullString
		var kind string
		var read int
		if err := rows.Scan(&n.ID, &n.UserID, &notificationID, &taskID, &kind,
			&n.Title, &n.Body, &receivedAt, &read); err != nil {
			return nil, persistErr("list notifications", err)
		}
		n.NotificationID = notificationID.String
		n.TaskID = taskID.String
		n.Type = domain.NotificationType(kind)
		n.ReceivedAt = parseTS(receivedAt)
		n.Read = read == 1
		list = append(list, n)
	}
	return list, persistErr("list notifications", rows.Err())
}

// MarkNotificationRead flags an entry as read.
func (d *DB) MarkNotificationRead(ctx context.Context, id int64) error {
	res, err := d.db.ExecContext(ctx, `UPDATE received_notifications SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return persistErr("mark notification read", err)
	}
	return expectRow(res, "notification", strconv.FormatInt(id, 10))
}
