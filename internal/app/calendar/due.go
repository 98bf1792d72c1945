package calendar

import "time"

// IsOverdue reports whether a task due at (dueDate, dueTime) is past due at now.
// Without a time, a task stays on time for the whole due day and only becomes
// overdue once the calendar rolls over. Tasks without a due date never are.
func IsOverdue(dueDate, dueTime string, now time.Time) bool {
	if dueDate == "" {
		return false
	}
	today := Today(now)
	if dueDate < today {
		return true
	}
	if dueDate > today || dueTime == "" {
		return false
	}
	tm, err := NormalizeTime(dueTime)
	if err != nil {
		return false
	}
	return FormatTime(now) > tm
}

// IsEarly reports whether completing at now beats the due instant. With a
// due time, the instant is date+time. Without one it is the start of the due
// day, so finishing on an earlier day is early and on the day itself is not.
func IsEarly(dueDate, dueTime string, now time.Time) bool {
	if dueDate == "" {
		return false
	}
	due, err := Combine(dueDate, dueTime, now.Location())
	if err != nil {
		return false
	}
	return now.Before(due)
}
