package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lvlup-app/lvlup/internal/app/calendar"
	"github.com/lvlup-app/lvlup/internal/app/engagement"
	"github.com/lvlup-app/lvlup/internal/domain"
	"github.com/lvlup-app/lvlup/internal/infra/metrics"
)

// maxAchievementPasses bounds the unlock → XP → level → unlock cascade.
const maxAchievementPasses = 2

// AddXP applies an XP delta from source to the user and re-checks the
// level and count achievements it may have crossed.
func (s *Store) AddXP(ctx context.Context, amount int64, source domain.XPSource, refID, description string) (change engagement.XPChange, err error) {
	defer s.observe("add_xp", time.Now(), &err)

	userID, err := s.userID()
	if err != nil {
		return engagement.XPChange{}, err
	}
	s.write.Lock()
	defer s.write.Unlock()

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return engagement.XPChange{}, err
	}
	user, change, err := s.applyXP(ctx, *u, amount, source, refID, description)
	if err != nil {
		return change, err
	}
	if _, _, err := s.evaluateAchievements(ctx, user, engagement.EvalOptions{
		Only: []domain.RequirementType{domain.RequireLevel, domain.RequireCount},
	}); err != nil {
		return change, err
	}
	return change, s.reload(ctx, userID)
}

// CheckAchievements evaluates every locked achievement against the current
// aggregates and returns the ones unlocked by this call.
func (s *Store) CheckAchievements(ctx context.Context) (unlocked []domain.Achievement, err error) {
	defer s.observe("check_achievements", time.Now(), &err)

	userID, err := s.userID()
	if err != nil {
		return nil, err
	}
	s.write.Lock()
	defer s.write.Unlock()

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, unlocked, err = s.evaluateAchievements(ctx, *u, engagement.EvalOptions{}); err != nil {
		return nil, err
	}
	return unlocked, s.reload(ctx, userID)
}

// RecordDayCompleted applies a "day completed" event to the streak.
// Repeating it on the same day changes nothing.
func (s *Store) RecordDayCompleted(ctx context.Context) (streak domain.Streak, err error) {
	defer s.observe("record_day_completed", time.Now(), &err)

	userID, err := s.userID()
	if err != nil {
		return domain.Streak{}, err
	}
	s.write.Lock()
	defer s.write.Unlock()

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return domain.Streak{}, err
	}
	if _, streak, _, err = s.recordDayCompleted(ctx, *u); err != nil {
		return domain.Streak{}, err
	}
	return streak, s.reload(ctx, userID)
}

// TodayMissions returns today's missions, generating them on first access.
func (s *Store) TodayMissions(ctx context.Context) (missions []domain.DailyMission, err error) {
	defer s.observe("today_missions", time.Now(), &err)

	userID, err := s.userID()
	if err != nil {
		return nil, err
	}
	return s.ensureMissions(ctx, userID, calendar.Today(s.clock.Now()))
}

// XPHistory returns the newest ledger entries.
func (s *Store) XPHistory(ctx context.Context, limit int) ([]domain.XPEntry, error) {
	userID, err := s.userID()
	if err != nil {
		return nil, err
	}
	return s.repo.ListXPEntries(ctx, userID, limit)
}

// ─── Pipeline steps ─────────────────────────────────────────────────────────

// applyXP persists u with delta applied and appends the ledger entry.
// Level-ups are announced in the notification log.
func (s *Store) applyXP(ctx context.Context, u domain.User, delta int64, source domain.XPSource, refID, description string) (domain.User, engagement.XPChange, error) {
	now := s.clock.Now()
	next, change := engagement.ApplyXP(u, delta)
	next.LastActivity = now
	if err := s.repo.UpdateUser(ctx, next); err != nil {
		return u, change, err
	}
	if _, err := s.repo.InsertXPEntry(ctx, domain.XPEntry{
		UserID:      next.ID,
		Timestamp:   now,
		Source:      source,
		Amount:      change.Delta,
		RefID:       refID,
		Description: description,
		Balance:     next.TotalXP,
	}); err != nil {
		return next, change, err
	}

	amount := change.Delta
	if amount < 0 {
		amount = -amount
	}
	metrics.XPAwarded.WithLabelValues(string(source)).Add(float64(amount))

	if change.LeveledUp {
		metrics.LevelUps.Inc()
		log.Printf("[store] level up: %d → %d (%s)", change.PrevLevel, change.NewLevel, change.Category)
		body := fmt.Sprintf("You reached level %d.", change.NewLevel)
		if change.CategoryChanged {
			body = fmt.Sprintf("You reached level %d and are now %s.", change.NewLevel, change.Category)
		}
		s.announce(ctx, next.ID, domain.NotifyLevelUp, "Level up!", body)
	}
	return next, change, nil
}

// recordSecretEvents bumps the event counters of secret achievements for a
// completion at now. They unlock in the following evaluation pass.
func (s *Store) recordSecretEvents(ctx context.Context, userID string, now time.Time) error {
	events := engagement.SecretEventsFor(now)
	if len(events) == 0 {
		return nil
	}
	achievements, err := s.repo.ListAchievements(ctx, userID)
	if err != nil {
		return err
	}
	var changed []domain.Achievement
	for _, metric := range events {
		var c []domain.Achievement
		achievements, c = engagement.RecordEvent(achievements, metric)
		changed = append(changed, c...)
	}
	return s.repo.SaveAchievements(ctx, changed)
}

// ensureMissions returns the missions of date, inserting them first when
// the day has none yet.
func (s *Store) ensureMissions(ctx context.Context, userID, date string) ([]domain.DailyMission, error) {
	missions, err := s.repo.ListMissionsOn(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if len(missions) > 0 {
		return missions, nil
	}
	if err := s.repo.InsertMissions(ctx, engagement.GenerateDailyMissions(userID, date)); err != nil {
		return nil, err
	}
	return s.repo.ListMissionsOn(ctx, userID, date)
}

// advanceMissions applies a completed task to today's missions, pays out
// finished ones and advances the mission streak once all are done.
func (s *Store) advanceMissions(ctx context.Context, u domain.User, t domain.Task, now time.Time) (domain.User, []domain.DailyMission, bool, error) {
	missions, err := s.ensureMissions(ctx, u.ID, calendar.Today(now))
	if err != nil {
		return u, nil, false, err
	}
	alreadyDone := engagement.AllMissionsDone(missions)

	var finished []domain.DailyMission
	for i, m := range missions {
		next, justDone := engagement.AdvanceMission(m, t, now)
		if next.Progress == m.Progress && next.Completed == m.Completed {
			continue
		}
		if err := s.repo.UpdateMission(ctx, next); err != nil {
			return u, finished, false, err
		}
		missions[i] = next
		if !justDone {
			continue
		}
		finished = append(finished, next)
		metrics.MissionsCompleted.Inc()
		if u, _, err = s.applyXP(ctx, u, next.XPReward, domain.XPMissionCompleted, next.ID, next.Title); err != nil {
			return u, finished, false, err
		}
	}

	allDone := engagement.AllMissionsDone(missions)
	completedToday := 0
	for _, m := range missions {
		if m.Completed {
			completedToday++
		}
	}
	if completedToday == u.DailyMissionsCompletedToday && (alreadyDone || !allDone) {
		return u, finished, allDone, nil
	}

	u.DailyMissionsCompletedToday = completedToday
	if allDone && !alreadyDone {
		u = engagement.CountMissionsDone(u, now)
		log.Printf("[store] all daily missions done, mission streak %d", u.DailyMissionsStreak)
	}
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return u, finished, allDone, err
	}
	return u, finished, allDone, nil
}

// evaluateAchievements runs the bounded unlock loop. The first pass uses
// first; the follow-up pass only re-checks level and count achievements,
// since only XP rewards can have moved those.
func (s *Store) evaluateAchievements(ctx context.Context, u domain.User, first engagement.EvalOptions) (domain.User, []domain.Achievement, error) {
	var unlocked []domain.Achievement
	opts := first
	for pass := 0; pass < maxAchievementPasses; pass++ {
		achievements, err := s.repo.ListAchievements(ctx, u.ID)
		if err != nil {
			return u, unlocked, err
		}
		tasks, err := s.repo.ListTasks(ctx, u.ID)
		if err != nil {
			return u, unlocked, err
		}

		ev := engagement.Evaluate(achievements, u, tasks, s.clock.Now(), opts)
		if err := s.repo.SaveAchievements(ctx, ev.Changed); err != nil {
			return u, unlocked, err
		}
		if len(ev.NewlyUnlocked) == 0 {
			break
		}

		u.TotalAchievements = engagement.UnlockedCount(ev.Updated)
		if err := s.repo.UpdateUser(ctx, u); err != nil {
			return u, unlocked, err
		}
		for _, a := range ev.NewlyUnlocked {
			metrics.AchievementsUnlocked.WithLabelValues(string(a.Rarity)).Inc()
			log.Printf("[store] achievement unlocked: %s (+%d XP)", a.Name, a.XPReward)
			s.announce(ctx, u.ID, domain.NotifyAchievement, "Achievement unlocked", a.Name)
			if a.XPReward <= 0 {
				continue
			}
			if u, _, err = s.applyXP(ctx, u, a.XPReward, domain.XPAchievement, a.ID, a.Name); err != nil {
				return u, unlocked, err
			}
		}
		unlocked = append(unlocked, ev.NewlyUnlocked...)
		opts = engagement.EvalOptions{Only: []domain.RequirementType{domain.RequireLevel, domain.RequireCount}}
	}
	return u, unlocked, nil
}

// recordDayCompleted updates the streak row, mirrors it onto the user and
// runs a streak-only evaluation, since streak achievements read the value
// written here.
func (s *Store) recordDayCompleted(ctx context.Context, u domain.User) (domain.User, domain.Streak, []domain.Achievement, error) {
	now := s.clock.Now()
	current, err := s.repo.GetStreak(ctx, u.ID)
	if err != nil {
		return u, domain.Streak{}, nil, err
	}
	streak := engagement.RecordActivity(*current, now)
	if err := s.repo.UpsertStreak(ctx, streak); err != nil {
		return u, *current, nil, err
	}
	if streak.CurrentStreak != current.CurrentStreak {
		log.Printf("[store] streak %d → %d", current.CurrentStreak, streak.CurrentStreak)
	}
	metrics.StreakCurrent.Set(float64(streak.CurrentStreak))

	u = engagement.SyncStreak(u, streak, now)
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return u, streak, nil, err
	}

	u, unlocked, err := s.evaluateAchievements(ctx, u, engagement.EvalOptions{
		Only: []domain.RequirementType{domain.RequireStreak},
	})
	return u, streak, unlocked, err
}

// announce writes an in-app entry to the notification log. Failures are
// logged only; the log is informational.
func (s *Store) announce(ctx context.Context, userID string, kind domain.NotificationType, title, body string) {
	_, err := s.repo.InsertReceivedNotification(ctx, domain.ReceivedNotification{
		UserID:     userID,
		Type:       kind,
		Title:      title,
		Body:       body,
		ReceivedAt: s.clock.Now(),
	})
	if err != nil {
		log.Printf("[store] record %s notification: %v", kind, err)
	}
}
