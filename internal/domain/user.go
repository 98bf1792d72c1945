package domain

import "time"

// Tier is the category band derived from a user's level.
type Tier string

const (
	TierNovice     Tier = "novice"
	TierApprentice Tier = "apprentice"
	TierCompetent  Tier = "competent"
	TierExpert     Tier = "expert"
	TierMaster     Tier = "master"
	TierLegend     Tier = "legend"
)

// User is the device-local profile. The level fields are a derived cache
// of the leveling curve and are only ever written together with TotalXP.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Age    int    `json:"age,omitempty"`
	Email  string `json:"email,omitempty"`

	TotalXP        int64 `json:"total_xp"`
	CurrentLevel   int   `json:"current_level"`
	CurrentLevelXP int64 `json:"current_level_xp"`
	NextLevelXP    int64 `json:"next_level_xp"`
	Category       Tier  `json:"category"`

	TotalTasksCompleted int `json:"total_tasks_completed"`
	TasksCompletedToday int `json:"tasks_completed_today"`
	TasksCompletedWeek  int `json:"tasks_completed_week"`
	TasksCompletedMonth int `json:"tasks_completed_month"`

	CurrentStreak int    `json:"current_streak"`
	BestStreak    int    `json:"best_streak"`
	LastTaskDate  string `json:"last_task_date,omitempty"` // YYYY-MM-DD

	TotalAchievements           int    `json:"total_achievements"`
	DailyMissionsCompletedToday int    `json:"daily_missions_completed_today"`
	DailyMissionsStreak         int    `json:"daily_missions_streak"`
	LastMissionDate             string `json:"last_mission_date,omitempty"`

	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// XPSource categorizes how XP was earned or lost.
type XPSource string

const (
	XPTaskCompleted    XPSource = "task_completed"
	XPAchievement      XPSource = "achievement"
	XPGoalCompleted    XPSource = "goal_completed"
	XPGoalFailed       XPSource = "goal_failed"
	XPMissionCompleted XPSource = "mission_completed"
)

// XPEntry is one row of the XP audit ledger. Balance is the user's
// totalXP after the entry was applied.
type XPEntry struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	Timestamp   time.Time `json:"timestamp"`
	Source      XPSource  `json:"source"`
	Amount      int64     `json:"amount"`
	RefID       string    `json:"ref_id,omitempty"`
	Description string    `json:"description,omitempty"`
	Balance     int64     `json:"balance"`
}
