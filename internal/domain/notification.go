package domain

import "time"

// NotificationType categorizes received local notifications.
type NotificationType string

const (
	NotifyTaskReminder NotificationType = "task_reminder"
	NotifyGoalReminder NotificationType = "goal_reminder"
	NotifyAchievement  NotificationType = "achievement"
	NotifyLevelUp      NotificationType = "level_up"
)

// Reminder is a request to notify the user about a task or goal at its
// due date and time. An empty DueTime means the day itself.
type Reminder struct {
	Type     NotificationType `json:"type"`
	TargetID string           `json:"target_id"`
	Title    string           `json:"title"`
	DueDate  string           `json:"due_date"`
	DueTime  string           `json:"due_time,omitempty"`
}

// ReceivedNotification is one entry of the local notification receipt log.
type ReceivedNotification struct {
	ID             int64            `json:"id"`
	UserID         string           `json:"user_id"`
	NotificationID string           `json:"notification_id,omitempty"`
	TaskID         string           `json:"task_id,omitempty"`
	Type           NotificationType `json:"type"`
	Title          string           `json:"title"`
	Body           string           `json:"body"`
	ReceivedAt     time.Time        `json:"received_at"`
	Read           bool             `json:"read"`
}

// NotificationPolicy governs when reminders may fire.
type NotificationPolicy struct {
	LeadMinutes int    `json:"lead_minutes"` // fire this long before the due time
	QuietStart  string `json:"quiet_start"`  // "22:00"
	QuietEnd    string `json:"quiet_end"`    // "07:00"
}

// DefaultNotificationPolicy returns the default reminder policy.
func DefaultNotificationPolicy() NotificationPolicy {
	return NotificationPolicy{
		LeadMinutes: 15,
		QuietStart:  "22:00",
		QuietEnd:    "07:00",
	}
}
