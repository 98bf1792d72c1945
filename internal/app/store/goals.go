package store

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/lvlup-app/lvlup/internal/app/calendar"
	"github.com/lvlup-app/lvlup/internal/app/engagement"
	"github.com/lvlup-app/lvlup/internal/domain"
	"github.com/lvlup-app/lvlup/internal/infra/metrics"
)

// AddGoal stores a new monthly or yearly goal with its fixed reward.
func (s *Store) AddGoal(ctx context.Context, in domain.GoalInput) (goal domain.Goal, err error) {
	defer s.observe("add_goal", time.Now(), &err)

	userID, err := s.userID()
	if err != nil {
		return domain.Goal{}, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := in.Validate(); err != nil {
		return domain.Goal{}, err
	}
	if in.ReminderDate != "" {
		if err := calendar.ValidateDate(in.ReminderDate); err != nil {
			return domain.Goal{}, err
		}
	}
	if in.NotificationEnabled && in.ReminderDate == "" {
		return domain.Goal{}, domain.NewValidationError("notification_enabled", "", "requires a reminder date")
	}

	s.write.Lock()
	defer s.write.Unlock()

	goal = domain.Goal{
		ID:                  s.opts.NewID(),
		UserID:              userID,
		Type:                in.Type,
		Title:               in.Title,
		Description:         in.Description,
		XPReward:            engagement.GoalReward(in.Type),
		CreatedAt:           s.clock.Now(),
		Year:                in.Year,
		ReminderDate:        in.ReminderDate,
		NotificationEnabled: in.NotificationEnabled,
	}
	if in.Type == domain.GoalMonthly {
		goal.Month = in.Month
	}
	if err := s.repo.InsertGoal(ctx, goal); err != nil {
		return domain.Goal{}, err
	}

	if goal.NotificationEnabled {
		goal.NotificationID = s.scheduleGoalReminder(ctx, goal)
	}
	return goal, nil
}

// scheduleGoalReminder registers the goal's check-in reminder and stores
// the handle. Failures are logged; the goal itself is already saved.
func (s *Store) scheduleGoalReminder(ctx context.Context, g domain.Goal) string {
	nid, err := s.notifier.Schedule(ctx, domain.Reminder{
		Type:     domain.NotifyGoalReminder,
		TargetID: g.ID,
		Title:    g.Title,
		DueDate:  g.ReminderDate,
		DueTime:  s.opts.GoalReminderTime,
	})
	if err != nil {
		log.Printf("[store] schedule reminder for goal %s: %v", g.ID, err)
		return ""
	}
	if nid == "" {
		return ""
	}
	g.NotificationID = nid
	if err := s.repo.UpdateGoal(ctx, g); err != nil {
		log.Printf("[store] save reminder id for goal %s: %v", g.ID, err)
		s.cancelReminder(ctx, nid)
		return ""
	}
	return nid
}

// Goals lists the user's goals, nearest horizon first.
func (s *Store) Goals(ctx context.Context) ([]domain.Goal, error) {
	userID, err := s.userID()
	if err != nil {
		return nil, err
	}
	return s.repo.ListGoals(ctx, userID)
}

// CompleteGoal closes a goal and grants its reward.
func (s *Store) CompleteGoal(ctx context.Context, id string) (goal domain.Goal, change engagement.XPChange, err error) {
	defer s.observe("complete_goal", time.Now(), &err)

	userID, err := s.userID()
	if err != nil {
		return domain.Goal{}, change, err
	}
	unlock, err := s.lockEntity("goal:" + id)
	if err != nil {
		return domain.Goal{}, change, err
	}
	defer unlock()

	g, err := s.repo.GetGoal(ctx, id)
	if err != nil {
		return domain.Goal{}, change, err
	}
	if g.IsClosed() {
		return *g, change, domain.ErrGoalClosed
	}

	now := s.clock.Now()
	goal = *g
	goal.Completed = true
	goal.CompletedAt = &now
	s.cancelReminder(ctx, goal.NotificationID)
	goal.NotificationID = ""
	if err := s.repo.UpdateGoal(ctx, goal); err != nil {
		return *g, change, err
	}
	metrics.GoalsClosed.WithLabelValues("completed").Inc()

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return goal, change, err
	}
	user, change, err := s.applyXP(ctx, *u, goal.XPReward, domain.XPGoalCompleted, goal.ID, goal.Title)
	if err != nil {
		return goal, change, err
	}
	if _, _, err := s.evaluateAchievements(ctx, user, engagement.EvalOptions{
		Only: []domain.RequirementType{domain.RequireLevel},
	}); err != nil {
		return goal, change, err
	}
	log.Printf("[store] goal %s completed: +%d XP", goal.ID, goal.XPReward)
	return goal, change, s.reload(ctx, userID)
}

// DeleteGoal removes a goal and cancels its reminder.
func (s *Store) DeleteGoal(ctx context.Context, id string) (err error) {
	defer s.observe("delete_goal", time.Now(), &err)

	unlock, err := s.lockEntity("goal:" + id)
	if err != nil {
		return err
	}
	defer unlock()

	g, err := s.repo.GetGoal(ctx, id)
	if err != nil {
		return err
	}
	s.cancelReminder(ctx, g.NotificationID)
	return s.repo.DeleteGoal(ctx, id)
}

// FailExpiredGoals marks every open goal whose deadline has passed as
// failed and deducts its penalty. XP never drops below zero.
func (s *Store) FailExpiredGoals(ctx context.Context) (failed []domain.Goal, err error) {
	defer s.observe("fail_expired_goals", time.Now(), &err)

	userID, err := s.userID()
	if err != nil {
		return nil, err
	}
	s.write.Lock()
	defer s.write.Unlock()

	failed, err = s.failExpiredGoals(ctx, userID)
	if err != nil || len(failed) == 0 {
		return failed, err
	}
	return failed, s.reload(ctx, userID)
}

func (s *Store) failExpiredGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	goals, err := s.repo.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	var failed []domain.Goal
	for _, g := range goals {
		if !engagement.IsGoalExpired(g, now) {
			continue
		}
		release, err := s.acquire("goal:" + g.ID)
		if err != nil {
			// Being completed or deleted right now; the next run picks it up.
			continue
		}

		at := now
		g.Failed = true
		g.FailedAt = &at
		s.cancelReminder(ctx, g.NotificationID)
		g.NotificationID = ""
		err = s.repo.UpdateGoal(ctx, g)
		if err == nil {
			var u *domain.User
			u, err = s.repo.GetUser(ctx, userID)
			if err == nil {
				_, _, err = s.applyXP(ctx, *u, -engagement.GoalPenalty(g.Type), domain.XPGoalFailed, g.ID, g.Title)
			}
		}
		release()
		if err != nil {
			return failed, err
		}

		metrics.GoalsClosed.WithLabelValues("failed").Inc()
		log.Printf("[store] goal %s expired on %s: -%d XP", g.ID, engagement.GoalDeadline(g), engagement.GoalPenalty(g.Type))
		failed = append(failed, g)
	}
	return failed, nil
}
