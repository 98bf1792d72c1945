package store

import (
	"context"
	"log"
	"time"

	"github.com/lvlup-app/lvlup/internal/app/calendar"
	"github.com/lvlup-app/lvlup/internal/app/engagement"
	"github.com/lvlup-app/lvlup/internal/domain"
	"github.com/lvlup-app/lvlup/internal/infra/metrics"
)

// CompletionResult reports everything a single completion changed.
type CompletionResult struct {
	Task              domain.Task           `json:"task"`
	Award             engagement.Award      `json:"award"`
	XP                engagement.XPChange   `json:"xp"`
	Unlocked          []domain.Achievement  `json:"unlocked,omitempty"`
	MissionsCompleted []domain.DailyMission `json:"missions_completed,omitempty"`
	AllMissionsDone   bool                  `json:"all_missions_done"`
	DayCompleted      bool                  `json:"day_completed"`
	Streak            domain.Streak         `json:"streak"`
	User              domain.User           `json:"user"`
}

// validateSchedule checks the optional due date and time formats and
// rewrites the time as zero-padded HH:mm.
func validateSchedule(in *domain.TaskInput) error {
	if err := calendar.ValidateDate(in.DueDate); err != nil {
		return err
	}
	tm, err := calendar.NormalizeTime(in.DueTime)
	if err != nil {
		return err
	}
	in.DueTime = tm
	return nil
}

// AddTask validates in, stores a new pending task and schedules its reminder.
func (s *Store) AddTask(ctx context.Context, in domain.TaskInput) (task domain.Task, err error) {
	defer s.observe("add_task", time.Now(), &err)

	userID, err := s.userID()
	if err != nil {
		return domain.Task{}, err
	}
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return domain.Task{}, err
	}
	if err := validateSchedule(&in); err != nil {
		return domain.Task{}, err
	}

	s.write.Lock()
	defer s.write.Unlock()

	now := s.clock.Now()
	task = domain.Task{
		ID:              s.opts.NewID(),
		UserID:          userID,
		Title:           in.Title,
		Description:     in.Description,
		Status:          domain.TaskPending,
		Difficulty:      in.Difficulty,
		Category:        in.Category,
		Priority:        in.Priority,
		BasePoints:      engagement.BasePoints(in.Difficulty),
		BonusMultiplier: 1.0,
		DueDate:         in.DueDate,
		DueTime:         in.DueTime,
		EstimatedTime:   in.EstimatedTime,
		CreatedAt:       now,
		UpdatedAt:       now,
		HasReminder:     in.HasReminder,
	}
	if calendar.IsOverdue(task.DueDate, task.DueTime, now) {
		task.Status = domain.TaskOverdue
	}
	if err := s.repo.InsertTask(ctx, task); err != nil {
		return domain.Task{}, err
	}

	if task.HasReminder && task.Status == domain.TaskPending {
		task.NotificationID = s.scheduleTaskReminder(ctx, task)
	}
	return task, s.reload(ctx, userID)
}

// UpdateTask applies in to an existing task. The frozen score of a completed
// task is never recomputed.
func (s *Store) UpdateTask(ctx context.Context, id string, in domain.TaskInput) (task domain.Task, err error) {
	defer s.observe("update_task", time.Now(), &err)

	userID, err := s.userID()
	if err != nil {
		return domain.Task{}, err
	}
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return domain.Task{}, err
	}
	if err := validateSchedule(&in); err != nil {
		return domain.Task{}, err
	}

	unlock, err := s.lockEntity("task:" + id)
	if err != nil {
		return domain.Task{}, err
	}
	defer unlock()

	current, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	task = *current
	now := s.clock.Now()

	task.Title = in.Title
	task.Description = in.Description
	task.Category = in.Category
	task.Priority = in.Priority
	task.DueDate = in.DueDate
	task.DueTime = in.DueTime
	task.EstimatedTime = in.EstimatedTime
	task.HasReminder = in.HasReminder
	task.UpdatedAt = now
	if !task.Completed {
		task.Difficulty = in.Difficulty
		task.BasePoints = engagement.BasePoints(in.Difficulty)
		switch {
		case task.Status == domain.TaskCancelled:
		case calendar.IsOverdue(task.DueDate, task.DueTime, now):
			task.Status = domain.TaskOverdue
		default:
			task.Status = domain.TaskPending
		}
	}

	// Reminders are rebuilt from scratch on every edit.
	s.cancelReminder(ctx, task.NotificationID)
	task.NotificationID = ""
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	if task.HasReminder && task.Status == domain.TaskPending {
		task.NotificationID = s.scheduleTaskReminder(ctx, task)
	}
	return task, s.reload(ctx, userID)
}

// DeleteTask removes a task and cancels its reminder. XP already earned
// from it is kept.
func (s *Store) DeleteTask(ctx context.Context, id string) (err error) {
	defer s.observe("delete_task", time.Now(), &err)

	userID, err := s.userID()
	if err != nil {
		return err
	}
	unlock, err := s.lockEntity("task:" + id)
	if err != nil {
		return err
	}
	defer unlock()

	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return err
	}
	s.cancelReminder(ctx, task.NotificationID)
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		return err
	}
	return s.reload(ctx, userID)
}

// CompleteTask completes a task and runs the full progression pipeline.
// A second call for the same task while the first is running fails with
// domain.ErrBusy; a call after it finished fails with
// domain.ErrAlreadyCompleted.
func (s *Store) CompleteTask(ctx context.Context, id string) (res CompletionResult, err error) {
	defer s.observe("complete_task", time.Now(), &err)

	unlock, err := s.lockEntity("task:" + id)
	if err != nil {
		return CompletionResult{}, err
	}
	defer unlock()
	return s.completeTask(ctx, id)
}

// ToggleTask completes an open task or reopens a completed one. Reopening
// keeps every XP, streak and achievement effect of the completion.
func (s *Store) ToggleTask(ctx context.Context, id string) (task domain.Task, res *CompletionResult, err error) {
	defer s.observe("toggle_task", time.Now(), &err)

	unlock, err := s.lockEntity("task:" + id)
	if err != nil {
		return domain.Task{}, nil, err
	}
	defer unlock()

	current, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, nil, err
	}
	if !current.Completed {
		r, err := s.completeTask(ctx, id)
		if err != nil {
			return domain.Task{}, nil, err
		}
		return r.Task, &r, nil
	}

	task, err = s.reopenTask(ctx, *current)
	return task, nil, err
}

func (s *Store) reopenTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	now := s.clock.Now()
	status := domain.TaskPending
	if calendar.IsOverdue(t.DueDate, t.DueTime, now) {
		status = domain.TaskOverdue
	}
	if err := s.repo.UncompleteTask(ctx, t.ID, status); err != nil {
		return domain.Task{}, err
	}
	reopened, err := s.repo.GetTask(ctx, t.ID)
	if err != nil {
		return domain.Task{}, err
	}
	if reopened.HasReminder && status == domain.TaskPending {
		reopened.NotificationID = s.scheduleTaskReminder(ctx, *reopened)
	}
	log.Printf("[store] task %s reopened as %s", t.ID, status)
	return *reopened, s.reload(ctx, t.UserID)
}

// completeTask runs the pipeline. Callers hold the entity lock.
func (s *Store) completeTask(ctx context.Context, id string) (CompletionResult, error) {
	var res CompletionResult

	userID, err := s.userID()
	if err != nil {
		return res, err
	}
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return res, err
	}
	t, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return res, err
	}
	if t.Completed {
		return res, domain.ErrAlreadyCompleted
	}
	if t.Status == domain.TaskCancelled {
		return res, domain.NewValidationError("status", string(t.Status), "cancelled tasks cannot be completed")
	}
	streak, err := s.repo.GetStreak(ctx, userID)
	if err != nil {
		return res, err
	}

	now := s.clock.Now()
	user := engagement.RolloverCounters(*u, now)

	// 1. Score and write the completion in one statement.
	bonus := engagement.BonusContext{
		CurrentStreak:       engagement.EffectiveStreak(*streak, now),
		Priority:            t.Priority,
		CompletedEarly:      calendar.IsEarly(t.DueDate, t.DueTime, now),
		IsFirstTaskOfDay:    user.TasksCompletedToday == 0,
		TasksCompletedToday: user.TasksCompletedToday,
	}
	award := engagement.Score(t.Difficulty, bonus)
	completion := domain.Completion{
		TaskID:                t.ID,
		CompletedAt:           now,
		BasePoints:            award.BasePoints,
		BonusMultiplier:       award.Multiplier,
		EarnedPoints:          award.EarnedPoints,
		CompletedEarly:        bonus.CompletedEarly,
		IsFirstTaskOfDay:      bonus.IsFirstTaskOfDay,
		CompletedDuringStreak: bonus.CurrentStreak > 0,
	}
	if err := s.repo.CompleteTask(ctx, completion); err != nil {
		return res, err
	}
	s.cancelReminder(ctx, t.NotificationID)
	if t.NotificationID != "" {
		if err := s.repo.SetTaskNotification(ctx, t.ID, ""); err != nil {
			return res, err
		}
	}
	done, err := s.repo.GetTask(ctx, t.ID)
	if err != nil {
		return res, err
	}
	res.Task = *done
	res.Award = award
	metrics.TasksCompleted.WithLabelValues(string(t.Difficulty)).Inc()

	// 2. XP and counters.
	user = engagement.CountCompletion(user, now)
	user, res.XP, err = s.applyXP(ctx, user, int64(award.EarnedPoints), domain.XPTaskCompleted, t.ID, t.Title)
	if err != nil {
		return res, err
	}

	// 3. Secret events.
	if err := s.recordSecretEvents(ctx, userID, now); err != nil {
		return res, err
	}

	// 4. Daily missions.
	user, res.MissionsCompleted, res.AllMissionsDone, err = s.advanceMissions(ctx, user, *done, now)
	if err != nil {
		return res, err
	}

	// 5. Achievements.
	user, res.Unlocked, err = s.evaluateAchievements(ctx, user, engagement.EvalOptions{})
	if err != nil {
		return res, err
	}

	// 6. Streak, once nothing due today is left open.
	pending, err := s.repo.CountPendingDueOn(ctx, userID, calendar.Today(now))
	if err != nil {
		return res, err
	}
	if pending == 0 {
		var unlocked []domain.Achievement
		var st domain.Streak
		user, st, unlocked, err = s.recordDayCompleted(ctx, user)
		if err != nil {
			return res, err
		}
		res.DayCompleted = true
		res.Unlocked = append(res.Unlocked, unlocked...)
		streak = &st
	}

	res.Streak = engagement.Refresh(*streak, now)
	res.User = user
	log.Printf("[store] task %s completed: +%d XP (x%.2f), level %d", t.ID, award.EarnedPoints, award.Multiplier, user.CurrentLevel)
	return res, s.reload(ctx, userID)
}

// TasksForMonth returns the tasks due in a calendar month, ordered by due
// date and time.
func (s *Store) TasksForMonth(ctx context.Context, year, month int) ([]domain.Task, error) {
	userID, err := s.userID()
	if err != nil {
		return nil, err
	}
	return s.repo.ListTasksByMonth(ctx, userID, year, month)
}

// TasksInRange returns the tasks due between from and to inclusive.
func (s *Store) TasksInRange(ctx context.Context, from, to string) ([]domain.Task, error) {
	userID, err := s.userID()
	if err != nil {
		return nil, err
	}
	if from > to {
		return nil, domain.NewValidationError("range", from+".."+to, "start is after end")
	}
	return s.repo.ListTasksInRange(ctx, userID, from, to)
}

// ─── Reminders ──────────────────────────────────────────────────────────────

// RestoreReminders re-registers reminders for open tasks and goals after a
// restart, since scheduled reminders live only in the notifier's memory.
func (s *Store) RestoreReminders(ctx context.Context) (n int, err error) {
	defer s.observe("restore_reminders", time.Now(), &err)

	userID, err := s.userID()
	if err != nil {
		return 0, err
	}
	s.write.Lock()
	defer s.write.Unlock()

	tasks, err := s.repo.ListTasks(ctx, userID)
	if err != nil {
		return 0, err
	}
	for _, t := range tasks {
		if !t.HasReminder || t.Completed || t.Status != domain.TaskPending {
			continue
		}
		if s.scheduleTaskReminder(ctx, t) != "" {
			n++
		}
	}

	goals, err := s.repo.ListGoals(ctx, userID)
	if err != nil {
		return n, err
	}
	for _, g := range goals {
		if !g.NotificationEnabled || g.IsClosed() || g.ReminderDate == "" {
			continue
		}
		if s.scheduleGoalReminder(ctx, g) != "" {
			n++
		}
	}
	return n, s.reload(ctx, userID)
}

// scheduleTaskReminder hands the task to the notifier and stores the handle.
// Scheduling failures are logged; the task itself is already saved.
func (s *Store) scheduleTaskReminder(ctx context.Context, t domain.Task) string {
	nid, err := s.notifier.Schedule(ctx, domain.Reminder{
		Type:     domain.NotifyTaskReminder,
		TargetID: t.ID,
		Title:    t.Title,
		DueDate:  t.DueDate,
		DueTime:  t.DueTime,
	})
	if err != nil {
		log.Printf("[store] schedule reminder for task %s: %v", t.ID, err)
		return ""
	}
	if nid == "" {
		return ""
	}
	if err := s.repo.SetTaskNotification(ctx, t.ID, nid); err != nil {
		log.Printf("[store] save reminder id for task %s: %v", t.ID, err)
		s.cancelReminder(ctx, nid)
		return ""
	}
	return nid
}

func (s *Store) cancelReminder(ctx context.Context, notificationID string) {
	if notificationID == "" {
		return
	}
	if err := s.notifier.Cancel(ctx, notificationID); err != nil {
		log.Printf("[store] cancel reminder %s: %v", notificationID, err)
	}
}
