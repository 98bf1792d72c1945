package domain

import "time"

// Stats is a denormalized rollup of a user's task history. It is a cache:
// every field is recomputable from the task, streak and achievement tables.
type Stats struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	TotalTasks     int `json:"total_tasks"`
	CompletedTasks int `json:"completed_tasks"`
	PendingTasks   int `json:"pending_tasks"`
	OverdueTasks   int `json:"overdue_tasks"`
	CancelledTasks int `json:"cancelled_tasks"`

	EasyCompleted    int `json:"easy_completed"`
	MediumCompleted  int `json:"medium_completed"`
	HardCompleted    int `json:"hard_completed"`
	ExtremeCompleted int `json:"extreme_completed"`

	PersonalCompleted int `json:"personal_completed"`
	WorkCompleted     int `json:"work_completed"`
	HealthCompleted   int `json:"health_completed"`
	LearningCompleted int `json:"learning_completed"`
	HomeCompleted     int `json:"home_completed"`
	FinanceCompleted  int `json:"finance_completed"`
	SocialCompleted   int `json:"social_completed"`
	OtherCompleted    int `json:"other_completed"`

	TotalPointsEarned int64   `json:"total_points_earned"`
	AveragePoints     float64 `json:"average_points"`
	BestTaskPoints    int     `json:"best_task_points"`
	TimeInvested      int     `json:"time_invested"` // minutes, completed tasks only
	CompletionRate    float64 `json:"completion_rate"`

	EarlyCompletions      int `json:"early_completions"`
	FirstOfDayCompletions int `json:"first_of_day_completions"`
	StreakCompletions     int `json:"streak_completions"`
	CompletedThisWeek     int `json:"completed_this_week"`
	CompletedThisMonth    int `json:"completed_this_month"`

	MostProductiveHour int `json:"most_productive_hour"` // -1 when unknown
	MostProductiveDay  int `json:"most_productive_day"`  // 0=Sunday, -1 when unknown

	CurrentStreak   int `json:"current_streak"`
	BestStreak      int `json:"best_streak"`
	TotalDaysActive int `json:"total_days_active"`

	AchievementsUnlocked int `json:"achievements_unlocked"`
	AchievementsTotal    int `json:"achievements_total"`

	UpdatedAt time.Time `json:"updated_at"`
}
