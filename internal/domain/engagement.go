package domain

import (
	"strings"
	"time"
)

// ─── Streak Types ───────────────────────────────────────────────────────────

// Streak tracks consecutive days on which the day's tasks were all completed.
// BestStreak >= CurrentStreak always.
type Streak struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	CurrentStreak    int       `json:"current_streak"`
	BestStreak       int       `json:"best_streak"`
	LastActivityDate string    `json:"last_activity_date,omitempty"`
	StreakStartDate  string    `json:"streak_start_date,omitempty"`
	BestStreakDate   string    `json:"best_streak_date,omitempty"`
	IsActive         bool      `json:"is_active"`
	TotalDaysActive  int       `json:"total_days_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ─── Achievement Types ──────────────────────────────────────────────────────

// RequirementType selects which aggregate an achievement reads.
type RequirementType string

const (
	RequireCount  RequirementType = "count"
	RequireStreak RequirementType = "streak"
	RequireLevel  RequirementType = "level"
	RequireEvent  RequirementType = "event" // secret, incremented by the completion handler
)

// Metric names the exact counter a definition reads.
type Metric string

const (
	MetricTasksCompleted   Metric = "tasks_completed"
	MetricHardCompleted    Metric = "hard_completed"
	MetricExtremeCompleted Metric = "extreme_completed"
	MetricEarlyCompleted   Metric = "early_completed"
	MetricCurrentStreak    Metric = "current_streak"
	MetricMissionStreak    Metric = "mission_streak"
	MetricLevel            Metric = "level"
	MetricNightOwl         Metric = "night_owl"
	MetricEarlyBird        Metric = "early_bird"
)

// Rarity is a display attribute of an achievement.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// AchievementCategory groups achievements by theme.
type AchievementCategory string

const (
	CatTasks     AchievementCategory = "tasks"
	CatStreaks   AchievementCategory = "streaks"
	CatLevels    AchievementCategory = "levels"
	CatChallenge AchievementCategory = "challenge"
	CatSecret    AchievementCategory = "secret"
)

// AchievementDef is one entry of the fixed achievement catalog.
type AchievementDef struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	Description      string              `json:"description"`
	Icon             string              `json:"icon"`
	Category         AchievementCategory `json:"category"`
	Rarity           Rarity              `json:"rarity"`
	XPReward         int64               `json:"xp_reward"`
	RequirementType  RequirementType     `json:"requirement_type"`
	RequirementValue int                 `json:"requirement_value"`
	Metric           Metric              `json:"metric"`
	IsSecret         bool                `json:"is_secret"`
}

// Achievement is a per-user instance of a catalog definition.
// Unlocked only ever flips false→true; Progress == 100 iff Unlocked.
type Achievement struct {
	ID               string              `json:"id"` // "<userId>-<definitionId>"
	UserID           string              `json:"user_id"`
	Name             string              `json:"name"`
	Description      string              `json:"description"`
	Icon             string              `json:"icon"`
	Category         AchievementCategory `json:"category"`
	Rarity           Rarity              `json:"rarity"`
	XPReward         int64               `json:"xp_reward"`
	Unlocked         bool                `json:"unlocked"`
	UnlockedAt       *time.Time          `json:"unlocked_at,omitempty"`
	Progress         int                 `json:"progress"`
	RequirementType  RequirementType     `json:"requirement_type"`
	RequirementValue int                 `json:"requirement_value"`
	CurrentValue     int                 `json:"current_value"`
	OrderIndex       int                 `json:"order_index"`
	IsSecret         bool                `json:"is_secret"`
}

// DefinitionID strips the user prefix from the instance id.
func (a Achievement) DefinitionID() string {
	return strings.TrimPrefix(a.ID, a.UserID+"-")
}

// AchievementID builds the instance id for a user and definition.
func AchievementID(userID, defID string) string {
	return userID + "-" + defID
}
