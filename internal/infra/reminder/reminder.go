// Package reminder delivers local task and goal reminders on a gocron
// scheduler. It implements domain.Notifier: the store hands it a Reminder
// and stores the returned id, and delivered reminders are written to the
// notification log through a Sink.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/lvlup-app/lvlup/internal/app/calendar"
	"github.com/lvlup-app/lvlup/internal/domain"
	"github.com/lvlup-app/lvlup/internal/infra/metrics"
)

// Sink receives delivered reminders. *store.Store satisfies it.
type Sink interface {
	RecordNotification(ctx context.Context, n domain.ReceivedNotification) (domain.ReceivedNotification, error)
}

// Config controls when reminders fire.
type Config struct {
	Policy domain.NotificationPolicy
	// UntimedAt is the HH:mm used for reminders without a due time.
	UntimedAt string
	Location  *time.Location
	Clock     calendar.Clock
}

// Scheduler is a domain.Notifier backed by gocron one-time jobs.
type Scheduler struct {
	cfg   Config
	sched gocron.Scheduler

	mu      sync.Mutex
	pending map[string]domain.Reminder
	sink    Sink
}

var _ domain.Notifier = (*Scheduler)(nil)

// New creates a stopped scheduler. Call Start to begin delivering.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Clock == nil {
		cfg.Clock = calendar.SystemClock{Loc: cfg.Location}
	}
	if cfg.UntimedAt == "" {
		cfg.UntimedAt = "09:00"
	}
	if err := calendar.ValidateTime(cfg.UntimedAt); err != nil {
		return nil, err
	}

	sched, err := gocron.NewScheduler(gocron.WithLocation(cfg.Location))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{
		cfg:     cfg,
		sched:   sched,
		pending: make(map[string]domain.Reminder),
	}, nil
}

// Start begins running jobs. Delivered reminders are recorded in sink.
func (s *Scheduler) Start(sink Sink) {
	s.mu.Lock()
	s.sink = sink
	s.mu.Unlock()
	s.sched.Start()
	log.Printf("[reminder] scheduler started (lead %dm, quiet %s-%s)",
		s.cfg.Policy.LeadMinutes, s.cfg.Policy.QuietStart, s.cfg.Policy.QuietEnd)
}

// Shutdown stops the scheduler and drops every pending reminder.
func (s *Scheduler) Shutdown() error {
	s.mu.Lock()
	s.pending = make(map[string]domain.Reminder)
	s.mu.Unlock()
	metrics.RemindersPending.Set(0)
	return s.sched.Shutdown()
}

// AddDaily registers fn to run every day at hhmm on the same scheduler.
func (s *Scheduler) AddDaily(name, hhmm string, fn func()) error {
	h, m, err := calendar.ParseTime(hhmm)
	if err != nil {
		return err
	}
	_, err = s.sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(h), uint(m), 0))),
		gocron.NewTask(fn),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

// Schedule registers r. It returns "" when the fire time has already passed.
func (s *Scheduler) Schedule(_ context.Context, r domain.Reminder) (string, error) {
	at, err := FireTime(r, s.cfg.Policy, s.cfg.UntimedAt, s.cfg.Location)
	if err != nil {
		return "", err
	}
	if !at.After(s.cfg.Clock.Now()) {
		return "", nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The job id is only known after NewJob returns; fire reads it under mu.
	ref := new(string)
	job, err := s.sched.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(at)),
		gocron.NewTask(s.fire, ref),
		gocron.WithName(string(r.Type)+":"+r.TargetID),
		gocron.WithTags(r.TargetID),
	)
	if err != nil {
		return "", fmt.Errorf("schedule reminder for %s: %w", r.TargetID, err)
	}
	id := job.ID().String()
	*ref = id
	s.pending[id] = r

	metrics.RemindersScheduled.Inc()
	metrics.RemindersPending.Set(float64(len(s.pending)))
	log.Printf("[reminder] %s %q at %s", r.Type, r.Title, at.Format(time.RFC3339))
	return id, nil
}

// Cancel drops a pending reminder. Unknown ids are ignored.
func (s *Scheduler) Cancel(_ context.Context, notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[notificationID]; !ok {
		return nil
	}
	delete(s.pending, notificationID)
	metrics.RemindersPending.Set(float64(len(s.pending)))

	id, err := uuid.Parse(notificationID)
	if err != nil {
		return nil
	}
	if err := s.sched.RemoveJob(id); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
		return fmt.Errorf("cancel reminder %s: %w", notificationID, err)
	}
	return nil
}

// Pending returns how many reminders are waiting to fire.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// fire delivers one reminder. A reminder cancelled after its job started
// is dropped here.
func (s *Scheduler) fire(ref *string) {
	s.mu.Lock()
	notificationID := *ref
	r, ok := s.pending[notificationID]
	delete(s.pending, notificationID)
	sink := s.sink
	s.mu.Unlock()
	if !ok {
		return
	}
	metrics.RemindersPending.Set(float64(s.Pending()))
	metrics.RemindersFired.Inc()

	n := domain.ReceivedNotification{
		NotificationID: notificationID,
		Type:           r.Type,
		Title:          r.Title,
		Body:           body(r),
		ReceivedAt:     s.cfg.Clock.Now(),
	}
	if r.Type == domain.NotifyTaskReminder {
		n.TaskID = r.TargetID
	}
	log.Printf("[reminder] %s", n.Body)
	if sink == nil {
		return
	}
	if _, err := sink.RecordNotification(context.Background(), n); err != nil {
		log.Printf("[reminder] record %s: %v", notificationID, err)
	}
}

func body(r domain.Reminder) string {
	switch {
	case r.Type == domain.NotifyGoalReminder:
		return fmt.Sprintf("Goal check-in: %s", r.Title)
	case r.DueTime != "":
		return fmt.Sprintf("%s is due at %s", r.Title, r.DueTime)
	default:
		return fmt.Sprintf("%s is due today", r.Title)
	}
}

// ─── Fire time policy ───────────────────────────────────────────────────────

// FireTime computes when r should be delivered. Timed reminders fire
// LeadMinutes before the due time; untimed ones fire at untimedAt on the due
// date. A fire time inside quiet hours is deferred to the end of the quiet
// window, or pulled before its start when deferring would pass the due time.
func FireTime(r domain.Reminder, p domain.NotificationPolicy, untimedAt string, loc *time.Location) (time.Time, error) {
	if r.DueDate == "" {
		return time.Time{}, domain.NewValidationError("due_date", "", "reminders need a due date")
	}
	due, err := calendar.Combine(r.DueDate, r.DueTime, loc)
	if err != nil {
		return time.Time{}, err
	}

	at := due
	if r.DueTime == "" {
		if at, err = calendar.Combine(r.DueDate, untimedAt, loc); err != nil {
			return time.Time{}, err
		}
		due = at
	} else if p.LeadMinutes > 0 {
		at = due.Add(-time.Duration(p.LeadMinutes) * time.Minute)
	}
	return applyQuietHours(at, due, p), nil
}

func applyQuietHours(at, due time.Time, p domain.NotificationPolicy) time.Time {
	if p.QuietStart == "" || p.QuietEnd == "" {
		return at
	}
	sh, sm, err1 := calendar.ParseTime(p.QuietStart)
	eh, em, err2 := calendar.ParseTime(p.QuietEnd)
	if err1 != nil || err2 != nil {
		return at
	}
	start, end := sh*60+sm, eh*60+em
	if start == end {
		return at
	}

	m := at.Hour()*60 + at.Minute()
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	clock := func(d time.Time, minutes int) time.Time {
		return time.Date(d.Year(), d.Month(), d.Day(), minutes/60, minutes%60, 0, 0, d.Location())
	}

	var windowStart, windowEnd time.Time
	switch {
	case start < end && m >= start && m < end:
		windowStart, windowEnd = clock(day, start), clock(day, end)
	case start > end && m >= start:
		windowStart, windowEnd = clock(day, start), clock(day.AddDate(0, 0, 1), end)
	case start > end && m < end:
		windowStart, windowEnd = clock(day.AddDate(0, 0, -1), start), clock(day, end)
	default:
		return at
	}

	if !windowEnd.After(due) {
		return windowEnd
	}
	return windowStart.Add(-time.Minute)
}
