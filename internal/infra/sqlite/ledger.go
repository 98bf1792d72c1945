package sqlite

import (
	"context"
	"database/sql"

	"github.com/lvlup-app/lvlup/internal/domain"
)

// ─── XP Ledger ──────────────────────────────────────────────────────────────

// InsertXPEntry appends an XP movement with the balance after it.
func (d *DB) InsertXPEntry(ctx context.Context, e domain.XPEntry) (int64, error) {
	res, err := d.db.ExecContext(ctx,
		`INSERT INTO xp_ledger (userId, timestamp, source, amount, refId, description, balance)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, formatTS(e.Timestamp), string(e.Source), e.Amount,
		nullString(e.RefID), nullString(e.Description), e.Balance,
	)
	if err != nil {
		return 0, persistErr("insert xp entry", err)
	}
	id, err := res.LastInsertId()
	return id, persistErr("insert xp entry", err)
}

// ListXPEntries returns recent ledger entries, newest first.
func (d *DB) ListXPEntries(ctx context.Context, userID string, limit int) ([]domain.XPEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, userId, timestamp, source, amount, refId, description, balance
		 FROM xp_ledger WHERE userId = ? ORDER BY id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, persistErr("list xp entries", err)
	}
	defer rows.Close()

	var entries []domain.XPEntry
	for rows.Next() {
		var e domain.XPEntry
		var ts, refID, desc sql.NullString
		var source string
		if err := rows.Scan(&e.ID, &e.UserID, &ts, &source, &e.Amount, &refID, &desc, &e.Balance); err != nil {
			return nil, persistErr("list xp entries", err)
		}
		e.Timestamp = parseTS(ts)
		e.Source = domain.XPSource(source)
		e.RefID = refID.String
		e.Description = desc.String
		entries = append(entries, e)
	}
	return entries, persistErr("list xp entries", rows.Err())
}
