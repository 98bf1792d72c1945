package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is one schema version. Statements run in a single transaction
// and PRAGMA user_version is bumped to Version on success.
type migration struct {
	Version    int
	Name       string
	Statements []string
}

// ══════════════════════════════════════════════════════════════════════════
// MIGRATION 001: base schema
// ══════════════════════════════════════════════════════════════════════════

var migration001 = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                          TEXT PRIMARY KEY,
		name                        TEXT NOT NULL,
		avatar                      TEXT,
		age                         INTEGER,
		email                       TEXT,
		totalXP                     INTEGER NOT NULL DEFAULT 0,
		currentLevel                INTEGER NOT NULL DEFAULT 1,
		currentLevelXP              INTEGER NOT NULL DEFAULT 0,
		nextLevelXP                 INTEGER NOT NULL DEFAULT 341,
		category                    TEXT NOT NULL DEFAULT 'novice',
		totalTasksCompleted         INTEGER NOT NULL DEFAULT 0,
		tasksCompletedToday         INTEGER NOT NULL DEFAULT 0,
		tasksCompletedWeek          INTEGER NOT NULL DEFAULT 0,
		tasksCompletedMonth         INTEGER NOT NULL DEFAULT 0,
		currentStreak               INTEGER NOT NULL DEFAULT 0,
		bestStreak                  INTEGER NOT NULL DEFAULT 0,
		lastTaskDate                TEXT,
		totalAchievements           INTEGER NOT NULL DEFAULT 0,
		dailyMissionsCompletedToday INTEGER NOT NULL DEFAULT 0,
		dailyMissionsStreak         INTEGER NOT NULL DEFAULT 0,
		createdAt                   TEXT NOT NULL,
		lastActivity                TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id                    TEXT PRIMARY KEY,
		userId                TEXT NOT NULL REFERENCES users(id),
		title                 TEXT NOT NULL,
		description           TEXT,
		completed             INTEGER NOT NULL DEFAULT 0,
		status                TEXT NOT NULL DEFAULT 'pending',
		difficulty            TEXT NOT NULL,
		category              TEXT NOT NULL,
		priority              TEXT NOT NULL,
		basePoints            INTEGER NOT NULL DEFAULT 0,
		bonusMultiplier       REAL NOT NULL DEFAULT 1.0,
		earnedPoints          INTEGER NOT NULL DEFAULT 0,
		dueDate               TEXT,
		dueTime               TEXT,
		estimatedTime         INTEGER NOT NULL DEFAULT 0,
		createdAt             TEXT NOT NULL,
		updatedAt             TEXT NOT NULL,
		completedAt           TEXT,
		completedEarly        INTEGER NOT NULL DEFAULT 0,
		isFirstTaskOfDay      INTEGER NOT NULL DEFAULT 0,
		completedDuringStreak INTEGER NOT NULL DEFAULT 0,
		hasReminder           INTEGER NOT NULL DEFAULT 0,
		notificationId        TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(userId)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(completed)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks(dueDate)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_difficulty ON tasks(difficulty)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_category ON tasks(category)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,

	`CREATE TABLE IF NOT EXISTS achievements (
		id               TEXT PRIMARY KEY,
		userId           TEXT NOT NULL REFERENCES users(id),
		name             TEXT NOT NULL,
		description      TEXT,
		icon             TEXT,
		category         TEXT NOT NULL,
		rarity           TEXT NOT NULL,
		xpReward         INTEGER NOT NULL DEFAULT 0,
		unlocked         INTEGER NOT NULL DEFAULT 0,
		unlockedAt       TEXT,
		progress         INTEGER NOT NULL DEFAULT 0,
		requirementType  TEXT NOT NULL,
		requirementValue INTEGER NOT NULL,
		currentValue     INTEGER NOT NULL DEFAULT 0,
		orderIndex       INTEGER NOT NULL DEFAULT 0,
		isSecret         INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_achievements_user ON achievements(userId)`,

	`CREATE TABLE IF NOT EXISTS streaks (
		id               TEXT PRIMARY KEY,
		userId           TEXT NOT NULL UNIQUE REFERENCES users(id),
		currentStreak    INTEGER NOT NULL DEFAULT 0,
		bestStreak       INTEGER NOT NULL DEFAULT 0,
		lastActivityDate TEXT,
		streakStartDate  TEXT,
		bestStreakDate   TEXT,
		isActive         INTEGER NOT NULL DEFAULT 0,
		totalDaysActive  INTEGER NOT NULL DEFAULT 0,
		createdAt        TEXT NOT NULL,
		updatedAt        TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS goals (
		id                  TEXT PRIMARY KEY,
		userId              TEXT NOT NULL REFERENCES users(id),
		type                TEXT NOT NULL CHECK (type IN ('monthly', 'yearly')),
		title               TEXT NOT NULL,
		description         TEXT,
		completed           INTEGER NOT NULL DEFAULT 0,
		xpReward            INTEGER NOT NULL DEFAULT 0,
		createdAt           TEXT NOT NULL,
		completedAt         TEXT,
		year                INTEGER NOT NULL,
		month               INTEGER,
		reminderDate        TEXT,
		notificationEnabled INTEGER NOT NULL DEFAULT 0,
		notificationId      TEXT,
		failed              INTEGER NOT NULL DEFAULT 0,
		failedAt            TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_goals_user ON goals(userId)`,

	`CREATE TABLE IF NOT EXISTS stats (
		id                    TEXT PRIMARY KEY,
		userId                TEXT NOT NULL UNIQUE REFERENCES users(id),
		totalTasks            INTEGER NOT NULL DEFAULT 0,
		completedTasks        INTEGER NOT NULL DEFAULT 0,
		pendingTasks          INTEGER NOT NULL DEFAULT 0,
		overdueTasks          INTEGER NOT NULL DEFAULT 0,
		cancelledTasks        INTEGER NOT NULL DEFAULT 0,
		easyCompleted         INTEGER NOT NULL DEFAULT 0,
		mediumCompleted       INTEGER NOT NULL DEFAULT 0,
		hardCompleted         INTEGER NOT NULL DEFAULT 0,
		extremeCompleted      INTEGER NOT NULL DEFAULT 0,
		personalCompleted     INTEGER NOT NULL DEFAULT 0,
		workCompleted         INTEGER NOT NULL DEFAULT 0,
		healthCompleted       INTEGER NOT NULL DEFAULT 0,
		learningCompleted     INTEGER NOT NULL DEFAULT 0,
		homeCompleted         INTEGER NOT NULL DEFAULT 0,
		financeCompleted      INTEGER NOT NULL DEFAULT 0,
		socialCompleted       INTEGER NOT NULL DEFAULT 0,
		otherCompleted        INTEGER NOT NULL DEFAULT 0,
		totalPointsEarned     INTEGER NOT NULL DEFAULT 0,
		averagePoints         REAL NOT NULL DEFAULT 0,
		bestTaskPoints        INTEGER NOT NULL DEFAULT 0,
		timeInvested          INTEGER NOT NULL DEFAULT 0,
		completionRate        REAL NOT NULL DEFAULT 0,
		earlyCompletions      INTEGER NOT NULL DEFAULT 0,
		firstOfDayCompletions INTEGER NOT NULL DEFAULT 0,
		streakCompletions     INTEGER NOT NULL DEFAULT 0,
		completedThisWeek     INTEGER NOT NULL DEFAULT 0,
		completedThisMonth    INTEGER NOT NULL DEFAULT 0,
		mostProductiveHour    INTEGER NOT NULL DEFAULT -1,
		mostProductiveDay     INTEGER NOT NULL DEFAULT -1,
		currentStreak         INTEGER NOT NULL DEFAULT 0,
		bestStreak            INTEGER NOT NULL DEFAULT 0,
		totalDaysActive       INTEGER NOT NULL DEFAULT 0,
		achievementsUnlocked  INTEGER NOT NULL DEFAULT 0,
		achievementsTotal     INTEGER NOT NULL DEFAULT 0,
		updatedAt             TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS daily_missions (
		id          TEXT PRIMARY KEY,
		userId      TEXT NOT NULL REFERENCES users(id),
		date        TEXT NOT NULL,
		type        TEXT NOT NULL,
		title       TEXT NOT NULL,
		target      INTEGER NOT NULL,
		progress    INTEGER NOT NULL DEFAULT 0,
		completed   INTEGER NOT NULL DEFAULT 0,
		xpReward    INTEGER NOT NULL DEFAULT 0,
		completedAt TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_missions_user_date ON daily_missions(userId, date)`,

	`CREATE TABLE IF NOT EXISTS received_notifications (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		userId         TEXT NOT NULL REFERENCES users(id),
		notificationId TEXT,
		taskId         TEXT,
		type           TEXT NOT NULL,
		title          TEXT NOT NULL,
		body           TEXT NOT NULL,
		receivedAt     TEXT NOT NULL,
		read           INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notif_user ON received_notifications(userId, receivedAt)`,
}

// ══════════════════════════════════════════════════════════════════════════
// MIGRATION 002: XP ledger, mission date
// ══════════════════════════════════════════════════════════════════════════

var migration002 = []string{
	`CREATE TABLE IF NOT EXISTS xp_ledger (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		userId      TEXT NOT NULL REFERENCES users(id),
		timestamp   TEXT NOT NULL,
		source      TEXT NOT NULL,
		amount      INTEGER NOT NULL,
		refId       TEXT,
		description TEXT,
		balance     INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_xp_ledger_user ON xp_ledger(userId, id)`,
	`ALTER TABLE users ADD COLUMN lastMissionDate TEXT`,
}

var migrations = []migration{
	{Version: 1, Name: "base schema", Statements: migration001},
	{Version: 2, Name: "xp ledger", Statements: migration002},
}

// SchemaVersion is the version a freshly migrated database reports.
func SchemaVersion() int { return migrations[len(migrations)-1].Version }

// Version reads PRAGMA user_version.
func (d *DB) Version(ctx context.Context) (int, error) {
	var v int
	if err := d.db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&v); err != nil {
		return 0, persistErr("read user_version", err)
	}
	return v, nil
}

// migrate applies every migration newer than the stored user_version.
func (d *DB) migrate(ctx context.Context) error {
	current, err := d.Version(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		err := d.WithTx(ctx, func(tx *sql.Tx) error {
			for _, stmt := range m.Statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("migration %03d (%s) failed: %w\nSQL: %s", m.Version, m.Name, err, stmt)
				}
			}
			// PRAGMA does not accept bound parameters.
			_, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.Version))
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}
