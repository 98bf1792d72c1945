// Package domain holds the lvlup data model: users, tasks, streaks,
// achievements, goals, stats, daily missions and the interfaces the
// application layer depends on. Types here are pure; no I/O.
package domain

import (
	"strings"
	"time"
)

// Difficulty determines a task's base points.
type Difficulty string

const (
	DifficultyEasy    Difficulty = "easy"
	DifficultyMedium  Difficulty = "medium"
	DifficultyHard    Difficulty = "hard"
	DifficultyExtreme Difficulty = "extreme"
)

// Difficulties lists every difficulty in ascending order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExtreme}

// IsValid returns true for a known difficulty.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExtreme:
		return true
	}
	return false
}

// Priority feeds the priority bonus of the scoring engine.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid returns true for a known priority.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// TaskStatus tracks the task lifecycle.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
	TaskOverdue   TaskStatus = "overdue"
	TaskCancelled TaskStatus = "cancelled"
)

// TaskCategory groups tasks for stats.
type TaskCategory string

const (
	CategoryPersonal TaskCategory = "personal"
	CategoryWork     TaskCategory = "work"
	CategoryHealth   TaskCategory = "health"
	CategoryLearning TaskCategory = "learning"
	CategoryHome     TaskCategory = "home"
	CategoryFinance  TaskCategory = "finance"
	CategorySocial   TaskCategory = "social"
	CategoryOther    TaskCategory = "other"
)

// TaskCategories lists every category in display order.
var TaskCategories = []TaskCategory{
	CategoryPersonal, CategoryWork, CategoryHealth, CategoryLearning,
	CategoryHome, CategoryFinance, CategorySocial, CategoryOther,
}

// IsValid returns true for a known category.
func (c TaskCategory) IsValid() bool {
	for _, k := range TaskCategories {
		if c == k {
			return true
		}
	}
	return false
}

// Task is a unit of work. BasePoints, BonusMultiplier and EarnedPoints are
// frozen at completion time together with the bonus flags, which double as
// an audit trail of why the award was what it was.
type Task struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Completed   bool         `json:"completed"`
	Status      TaskStatus   `json:"status"`
	Difficulty  Difficulty   `json:"difficulty"`
	Category    TaskCategory `json:"category"`
	Priority    Priority     `json:"priority"`

	BasePoints      int     `json:"base_points"`
	BonusMultiplier float64 `json:"bonus_multiplier"`
	EarnedPoints    int     `json:"earned_points"`

	DueDate       string `json:"due_date,omitempty"` // YYYY-MM-DD, local
	DueTime       string `json:"due_time,omitempty"` // HH:mm, local
	EstimatedTime int    `json:"estimated_time"`     // minutes

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CompletedEarly        bool `json:"completed_early"`
	IsFirstTaskOfDay      bool `json:"is_first_task_of_day"`
	CompletedDuringStreak bool `json:"completed_during_streak"`

	HasReminder    bool   `json:"has_reminder"`
	NotificationID string `json:"notification_id,omitempty"`
}

// IsOpen returns true while the task can still be completed.
func (t *Task) IsOpen() bool {
	return !t.Completed && t.Status != TaskCancelled
}

// Completion is the single logical update applied when a task is completed.
// It is written in one statement so no reader ever observes completed=1
// with earnedPoints=0.
type Completion struct {
	TaskID                string
	CompletedAt           time.Time
	BasePoints            int
	BonusMultiplier       float64
	EarnedPoints          int
	CompletedEarly        bool
	IsFirstTaskOfDay      bool
	CompletedDuringStreak bool
}

// TaskInput carries user-editable task fields for create and edit.
type TaskInput struct {
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Difficulty    Difficulty   `json:"difficulty"`
	Category      TaskCategory `json:"category"`
	Priority      Priority     `json:"priority"`
	DueDate       string       `json:"due_date"`
	DueTime       string       `json:"due_time"`
	EstimatedTime int          `json:"estimated_time"`
	HasReminder   bool         `json:"has_reminder"`
}

// Normalize trims text fields and fills defaults for optional enums.
func (in TaskInput) Normalize() TaskInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.DueDate = strings.TrimSpace(in.DueDate)
	in.DueTime = strings.TrimSpace(in.DueTime)
	if in.Difficulty == "" {
		in.Difficulty = DifficultyEasy
	}
	if in.Category == "" {
		in.Category = CategoryPersonal
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	return in
}

// Validate checks required fields and enum values. Date and time formats
// are checked by the calendar package.
func (in TaskInput) Validate() error {
	if in.Title == "" {
		return NewValidationError("title", "", "is required")
	}
	if !in.Difficulty.IsValid() {
		return NewValidationError("difficulty", string(in.Difficulty), "must be easy, medium, hard or extreme")
	}
	if !in.Category.IsValid() {
		return NewValidationError("category", string(in.Category), "unknown category")
	}
	if !in.Priority.IsValid() {
		return NewValidationError("priority", string(in.Priority), "must be low, medium, high or urgent")
	}
	if in.EstimatedTime < 0 {
		return NewValidationError("estimated_time", "", "must not be negative")
	}
	if in.DueTime != "" && in.DueDate == "" {
		return NewValidationError("due_time", in.DueTime, "requires a due date")
	}
	if in.HasReminder && in.DueDate == "" {
		return NewValidationError("has_reminder", "", "requires a due date")
	}
	return nil
}
