package domain

import "context"

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; the application layer depends on them.

// Notifier abstracts the local notification scheduler. The core only stores
// and clears the returned id and never interprets its format.
type Notifier interface {
	// Schedule registers a reminder. An empty id means nothing was scheduled
	// (e.g. the due time is already in the past).
	Schedule(ctx context.Context, r Reminder) (string, error)

	// Cancel drops a previously scheduled reminder. Unknown ids are ignored.
	Cancel(ctx context.Context, notificationID string) error
}

// UserStore persists the user profile.
type UserStore interface {
	SeedUser(ctx context.Context, u User, s Streak, achievements []Achievement, stats Stats) error
	GetUser(ctx context.Context, id string) (*User, error)
	FirstUser(ctx context.Context) (*User, error)
	UpdateUser(ctx context.Context, u User) error
}

// TaskStore persists tasks.
type TaskStore interface {
	InsertTask(ctx context.Context, t Task) error
	GetTask(ctx context.Context, id string) (*Task, error)
	ListTasks(ctx context.Context, userID string) ([]Task, error)
	ListTasksInRange(ctx context.Context, userID, from, to string) ([]Task, error)
	ListTasksByMonth(ctx context.Context, userID string, year, month int) ([]Task, error)
	CountPendingDueOn(ctx context.Context, userID, date string) (int, error)
	UpdateTask(ctx context.Context, t Task) error
	CompleteTask(ctx context.Context, c Completion) error
	UncompleteTask(ctx context.Context, id string, status TaskStatus) error
	MarkOverdue(ctx context.Context, userID, today, nowTime string) (int64, error)
	SetTaskNotification(ctx context.Context, id, notificationID string) error
	DeleteTask(ctx context.Context, id string) error
}

// StreakStore persists the per-user streak row.
type StreakStore interface {
	GetStreak(ctx context.Context, userID string) (*Streak, error)
	UpsertStreak(ctx context.Context, s Streak) error
}

// AchievementStore persists achievement instances.
type AchievementStore interface {
	ListAchievements(ctx context.Context, userID string) ([]Achievement, error)
	InsertAchievements(ctx context.Context, achievements []Achievement) error
	SaveAchievements(ctx context.Context, achievements []Achievement) error
}

// GoalStore persists goals.
type GoalStore interface {
	InsertGoal(ctx context.Context, g Goal) error
	GetGoal(ctx context.Context, id string) (*Goal, error)
	ListGoals(ctx context.Context, userID string) ([]Goal, error)
	UpdateGoal(ctx context.Context, g Goal) error
	DeleteGoal(ctx context.Context, id string) error
}

// StatsStore persists the stats rollup.
type StatsStore interface {
	GetStats(ctx context.Context, userID string) (*Stats, error)
	UpsertStats(ctx context.Context, s Stats) error
}

// MissionStore persists daily missions.
type MissionStore interface {
	InsertMissions(ctx context.Context, missions []DailyMission) error
	ListMissionsOn(ctx context.Context, userID, date string) ([]DailyMission, error)
	UpdateMission(ctx context.Context, m DailyMission) error
}

// NotificationStore persists the received-notification log.
type NotificationStore interface {
	InsertReceivedNotification(ctx context.Context, n ReceivedNotification) (int64, error)
	ListReceivedNotifications(ctx context.Context, userID string, limit int) ([]ReceivedNotification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
}

// LedgerStore persists the XP audit ledger.
type LedgerStore interface {
	InsertXPEntry(ctx context.Context, e XPEntry) (int64, error)
	ListXPEntries(ctx context.Context, userID string, limit int) ([]XPEntry, error)
}

// Repository is the full persistence surface consumed by the store.
type Repository interface {
	UserStore
	TaskStore
	StreakStore
	AchievementStore
	GoalStore
	StatsStore
	MissionStore
	NotificationStore
	LedgerStore
}
