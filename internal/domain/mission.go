package domain

import "time"

// MissionType categorizes what a daily mission counts.
type MissionType string

const (
	MissionCompleteTasks    MissionType = "complete_tasks"
	MissionCompleteHard     MissionType = "complete_hard"
	MissionCompleteEarly    MissionType = "complete_early"
	MissionCompletePriority MissionType = "complete_priority"
	MissionBeforeNoon       MissionType = "before_noon"
)

// DailyMission is a small challenge valid for a single calendar day.
type DailyMission struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Date        string      `json:"date"` // YYYY-MM-DD
	Type        MissionType `json:"type"`
	Title       string      `json:"title"`
	Target      int         `json:"target"`
	Progress    int         `json:"progress"`
	Completed   bool        `json:"completed"`
	XPReward    int64       `json:"xp_reward"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// ProgressPct returns completion percentage (0-100).
func (m DailyMission) ProgressPct() float64 {
	if m.Target <= 0 {
		return 100.0
	}
	pct := float64(m.Progress) / float64(m.Target) * 100.0
	if pct > 100.0 {
		pct = 100.0
	}
	return pct
}

// MissionTemplate defines the pool of possible daily missions.
type MissionTemplate struct {
	Type     MissionType `json:"type"`
	Target   int         `json:"target"`
	Title    string      `json:"title"`
	XPReward int64       `json:"xp_reward"`
}
