package domain

import (
	"strings"
	"time"
)

// GoalType is the horizon of an aspirational goal.
type GoalType string

const (
	GoalMonthly GoalType = "monthly"
	GoalYearly  GoalType = "yearly"
)

// IsValid returns true for a known goal type.
func (g GoalType) IsValid() bool {
	return g == GoalMonthly || g == GoalYearly
}

// Goal is a monthly or yearly target independent of tasks. It is completed
// for a fixed reward or marked failed (with a penalty) once its reminder
// date passes.
type Goal struct {
	ID                  string     `json:"id"`
	UserID              string     `json:"user_id"`
	Type                GoalType   `json:"type"`
	Title               string     `json:"title"`
	Description         string     `json:"description,omitempty"`
	Completed           bool       `json:"completed"`
	XPReward            int64      `json:"xp_reward"`
	CreatedAt           time.Time  `json:"created_at"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	Year                int        `json:"year"`
	Month               int        `json:"month,omitempty"` // 0 for yearly goals
	ReminderDate        string     `json:"reminder_date,omitempty"`
	NotificationEnabled bool       `json:"notification_enabled"`
	NotificationID      string     `json:"notification_id,omitempty"`
	Failed              bool       `json:"failed"`
	FailedAt            *time.Time `json:"failed_at,omitempty"`
}

// IsClosed returns true once the goal can no longer change state.
func (g *Goal) IsClosed() bool { return g.Completed || g.Failed }

// GoalInput carries user-provided goal fields.
type GoalInput struct {
	Type                GoalType `json:"type"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	Year                int      `json:"year"`
	Month               int      `json:"month"`
	ReminderDate        string   `json:"reminder_date"`
	NotificationEnabled bool     `json:"notification_enabled"`
}

// Validate checks required fields. The reminder date format is checked by
// the calendar package.
func (in GoalInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return NewValidationError("title", "", "is required")
	}
	if !in.Type.IsValid() {
		return NewValidationError("type", string(in.Type), "must be monthly or yearly")
	}
	if in.Year < 1970 {
		return NewValidationError("year", "", "is required")
	}
	if in.Type == GoalMonthly && (in.Month < 1 || in.Month > 12) {
		return NewValidationError("month", "", "must be 1-12 for monthly goals")
	}
	return nil
}
