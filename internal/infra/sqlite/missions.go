package sqlite

import (
	"context"
	"database/sql"

	"github.com/lvlup-app/lvlup/internal/domain"
)

// ─── Daily Missions ─────────────────────────────────────────────────────────

// InsertMissions stores a day's missions. Ids already present are kept as
// they are, so regenerating a day is harmless.
func (d *DB) InsertMissions(ctx context.Context, missions []domain.DailyMission) error {
	if len(missions) == 0 {
		return nil
	}
	return d.WithTx(ctx, func(tx *sql.Tx) error {
		for _, m := range missions {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO daily_missions (id, userId, date, type, title, target, progress, completed, xpReward, completedAt)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT(id) DO NOTHING`,
				m.ID, m.UserID, m.Date, string(m.Type), m.Title, m.Target, m.Progress,
				boolInt(m.Completed), m.XPReward, formatTSPtr(m.CompletedAt),
			)
			if err != nil {
				return persistErr("insert mission", err)
			}
		}
		return nil
	})
}

// ListMissionsOn returns the user's missions for date.
func (d *DB) ListMissionsOn(ctx context.Context, userID, date string) ([]domain.DailyMission, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, userId, date, type, title, target, progress, completed, xpReward, completedAt
		 FROM daily_missions WHERE userId = ? AND date = ? ORDER BY id`,
		userID, date,
	)
	if err != nil {
		return nil, persistErr("list missions", err)
	}
	defer rows.Close()

	var missions []domain.DailyMission
	for rows.Next() {
		var m domain.DailyMission
		var missionType string
		var completed int
		var completedAt sql.NullString
		if err := rows.Scan(&m.ID, &m.UserID, &m.Date, &missionType, &m.Title, &m.Target,
			&m.Progress, &completed, &m.XPReward, &completedAt); err != nil {
			return nil, persistErr("list missions", err)
		}
		m.Type = domain.MissionType(missionType)
		m.Completed = completed == 1
		m.CompletedAt = parseTSPtr(completedAt)
		missions = append(missions, m)
	}
	return missions, persistErr("list missions", rows.Err())
}

// UpdateMission writes progress and completion for one mission.
func (d *DB) UpdateMission(ctx context.Context, m domain.DailyMission) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE daily_missions SET progress = ?, completed = ?, completedAt = ? WHERE id = ?`,
		m.Progress, boolInt(m.Completed), formatTSPtr(m.CompletedAt), m.ID,
	)
	if err != nil {
		return persistErr("update mission", err)
	}
	return expectRow(res, "mission", m.ID)
}
