package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lvlup-app/lvlup/internal/app/calendar"
	"github.com/lvlup-app/lvlup/internal/app/engagement"
	"github.com/lvlup-app/lvlup/internal/app/store"
	"github.com/lvlup-app/lvlup/internal/domain"
	"github.com/lvlup-app/lvlup/internal/infra/sqlite"
)

// fakeNotifier hands out sequential ids and remembers cancellations.
type fakeNotifier struct {
	mu        sync.Mutex
	next      int
	scheduled map[string]string // notification id → target id
	cancelled []string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{scheduled: make(map[string]string)}
}

func (f *fakeNotifier) Schedule(_ context.Context, r domain.Reminder) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	id := fmt.Sprintf("n-%d", f.next)
	f.scheduled[id] = r.TargetID
	return id, nil
}

func (f *fakeNotifier) Cancel(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.scheduled, id)
	f.cancelled = append(f.cancelled, id)
	return nil
}

type fixture struct {
	store    *store.Store
	db       *sqlite.DB
	clock    *calendar.FixedClock
	notifier *fakeNotifier
}

// Sunday 2026-10-18 09:30 UTC.
var start = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("sqlite.Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &fixture{db: db, clock: &calendar.FixedClock{T: start}, notifier: newFakeNotifier()}
	f.store = store.New(db, f.notifier, f.clock, store.Options{})
	if _, created, err := f.store.Bootstrap(context.Background(), "Ada"); err != nil || !created {
		t.Fatalf("Bootstrap() = %v, %v", created, err)
	}
	return f
}

func (f *fixture) addTask(t *testing.T, in domain.TaskInput) domain.Task {
	t.Helper()
	task, err := f.store.AddTask(context.Background(), in)
	if err != nil {
		t.Fatalf("AddTask(%q) error: %v", in.Title, err)
	}
	return task
}

// assertLedgerMatches checks that the XP ledger explains the user's total.
func assertLedgerMatches(t *testing.T, f *fixture) {
	t.Helper()
	u, _ := f.store.User()
	entries, err := f.store.XPHistory(context.Background(), 1000)
	if err != nil {
		t.Fatal(err)
	}
	var sum int64
	for _, e := range entries {
		sum += e.Amount
	}
	if sum != u.TotalXP {
		t.Errorf("ledger sum = %d, totalXP = %d", sum, u.TotalXP)
	}
	if len(entries) > 0 && entries[0].Balance != u.TotalXP {
		t.Errorf("latest balance = %d, totalXP = %d", entries[0].Balance, u.TotalXP)
	}
	p := engagement.Progress(u.TotalXP)
	if u.CurrentLevel != p.CurrentLevel || u.NextLevelXP != p.NextLevelXP || u.Category != p.Category {
		t.Errorf("level cache out of sync: %+v vs %+v", u, p)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Lifecycle
// ═══════════════════════════════════════════════════════════════════════════

func TestLoad_NoUser(t *testing.T) {
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	s := store.New(db, nil, nil, store.Options{})
	if err := s.Load(context.Background()); !errors.Is(err, domain.ErrNoUser) {
		t.Errorf("Load() = %v, want ErrNoUser", err)
	}
	if _, err := s.User(); !errors.Is(err, domain.ErrNoUser) {
		t.Errorf("User() = %v, want ErrNoUser", err)
	}
	if _, _, err := s.Bootstrap(context.Background(), ""); !domain.IsValidation(err) {
		t.Errorf("Bootstrap without name = %v, want validation error", err)
	}
}

func TestBootstrap_SeedsProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.store.User()
	if err != nil {
		t.Fatal(err)
	}
	if u.Name != "Ada" || u.CurrentLevel != 1 || u.Category != domain.TierNovice {
		t.Errorf("user = %+v", u)
	}
	if got, want := len(f.store.Achievements()), len(engagement.Catalog()); got != want {
		t.Errorf("achievements = %d, want %d", got, want)
	}
	if _, err := f.store.Stats(ctx); err != nil {
		t.Errorf("Stats() error: %v", err)
	}

	// A second bootstrap on the same database loads instead of creating.
	again := store.New(f.db, nil, f.clock, store.Options{})
	loaded, created, err := again.Bootstrap(ctx, "Someone Else")
	if err != nil || created {
		t.Fatalf("second Bootstrap() = %v, %v", created, err)
	}
	if loaded.ID != u.ID || loaded.Name != "Ada" {
		t.Errorf("loaded = %+v", loaded)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Tasks
// ═══════════════════════════════════════════════════════════════════════════

func TestAddTask_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   domain.TaskInput
	}{
		{"empty title", domain.TaskInput{Title: "   "}},
		{"bad difficulty", domain.TaskInput{Title: "x", Difficulty: "legendary"}},
		{"bad date", domain.TaskInput{Title: "x", DueDate: "18/10/2026"}},
		{"bad time", domain.TaskInput{Title: "x", DueDate: "2026-10-18", DueTime: "25:00"}},
		{"time without date", domain.TaskInput{Title: "x", DueTime: "10:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.store.AddTask(ctx, tt.in); !domain.IsValidation(err) {
				t.Errorf("AddTask() = %v, want validation error", err)
			}
		})
	}
	if n := len(f.store.Tasks()); n != 0 {
		t.Errorf("invalid input created %d tasks", n)
	}
}

func TestAddTask_DefaultsAndReminder(t *testing.T) {
	f := newFixture(t)
	task := f.addTask(t, domain.TaskInput{Title: " Water plants ", DueDate: "2026-10-19", DueTime: "08:00", HasReminder: true})

	if task.Title != "Water plants" || task.Difficulty != domain.DifficultyEasy || task.Priority != domain.PriorityMedium {
		t.Errorf("defaults not applied: %+v", task)
	}
	if task.BasePoints != 10 || task.Status != domain.TaskPending {
		t.Errorf("task = %+v", task)
	}
	if task.NotificationID == "" {
		t.Fatal("reminder was not scheduled")
	}

	stored, err := f.db.GetTask(context.Background(), task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.NotificationID != task.NotificationID {
		t.Errorf("stored notification id = %q, want %q", stored.NotificationID, task.NotificationID)
	}

	if err := f.store.DeleteTask(context.Background(), task.ID); err != nil {
		t.Fatal(err)
	}
	if len(f.notifier.cancelled) != 1 || f.notifier.cancelled[0] != task.NotificationID {
		t.Errorf("cancelled = %v", f.notifier.cancelled)
	}
}

func TestUpdateTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.addTask(t, domain.TaskInput{Title: "Draft", Difficulty: domain.DifficultyEasy})

	updated, err := f.store.UpdateTask(ctx, task.ID, domain.TaskInput{
		Title: "Final", Difficulty: domain.DifficultyHard, DueDate: "2026-10-17",
	})
	if err != nil {
		t.Fatalf("UpdateTask() error: %v", err)
	}
	if updated.Title != "Final" || updated.BasePoints != 50 {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Status != domain.TaskOverdue {
		t.Errorf("due yesterday should be overdue, got %s", updated.Status)
	}

	if _, err := f.store.UpdateTask(ctx, "missing", domain.TaskInput{Title: "x"}); !domain.IsNotFound(err) {
		t.Errorf("update of missing task = %v", err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Completion pipeline
// ═══════════════════════════════════════════════════════════════════════════

func TestCompleteTask_FullPipeline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.addTask(t, domain.TaskInput{
		Title: "Report", Difficulty: domain.DifficultyMedium, Priority: domain.PriorityHigh,
		DueDate: "2026-10-18", DueTime: "14:00",
	})

	res, err := f.store.CompleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("CompleteTask() error: %v", err)
	}

	// 25 × (1 + 0.15 high + 0.25 early + 0.20 first of day) = 40.
	if res.Award.Multiplier != 1.6 || res.Award.EarnedPoints != 40 {
		t.Errorf("award = %+v, want x1.6 → 40", res.Award)
	}
	if !res.Task.Completed || res.Task.EarnedPoints != 40 || !res.Task.CompletedEarly || !res.Task.IsFirstTaskOfDay {
		t.Errorf("task = %+v", res.Task)
	}

	unlocked := false
	for _, a := range res.Unlocked {
		if a.DefinitionID() == "first_task" {
			unlocked = true
		}
	}
	if !unlocked {
		t.Errorf("first_task should unlock, got %v", res.Unlocked)
	}

	if !res.DayCompleted || res.Streak.CurrentStreak != 1 || !res.Streak.IsActive {
		t.Errorf("day completed = %v, streak = %+v", res.DayCompleted, res.Streak)
	}

	u, _ := f.store.User()
	if u.TotalTasksCompleted != 1 || u.TasksCompletedToday != 1 || u.CurrentStreak != 1 {
		t.Errorf("user counters = %+v", u)
	}
	if u.TotalAchievements < 1 {
		t.Errorf("totalAchievements = %d", u.TotalAchievements)
	}
	if u.TotalXP < 90 {
		t.Errorf("totalXP = %d, want at least task + first_task reward", u.TotalXP)
	}
	assertLedgerMatches(t, f)
}

func TestCompleteTask_SecondCompletionRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.addTask(t, domain.TaskInput{Title: "Once"})

	if _, err := f.store.CompleteTask(ctx, task.ID); err != nil {
		t.Fatal(err)
	}
	before, _ := f.store.User()

	if _, err := f.store.CompleteTask(ctx, task.ID); !errors.Is(err, domain.ErrAlreadyCompleted) {
		t.Errorf("second completion = %v, want ErrAlreadyCompleted", err)
	}
	after, _ := f.store.User()
	if after.TotalXP != before.TotalXP || after.TotalTasksCompleted != 1 {
		t.Errorf("second completion changed the user: %d → %d XP", before.TotalXP, after.TotalXP)
	}

	if _, err := f.store.CompleteTask(ctx, "missing"); !domain.IsNotFound(err) {
		t.Errorf("missing task = %v", err)
	}
}

func TestCompleteTask_ConcurrentDoubleTap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.addTask(t, domain.TaskInput{Title: "Tap"})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.store.CompleteTask(ctx, task.ID)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrBusy), errors.Is(err, domain.ErrAlreadyCompleted):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Errorf("%d completions succeeded, want exactly 1", ok)
	}
	u, _ := f.store.User()
	if u.TotalTasksCompleted != 1 {
		t.Errorf("totalTasksCompleted = %d, want 1", u.TotalTasksCompleted)
	}
	assertLedgerMatches(t, f)
}

func TestCompleteTask_DayNotCompletedWhileTasksRemain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.addTask(t, domain.TaskInput{Title: "A", DueDate: "2026-10-18"})
	f.addTask(t, domain.TaskInput{Title: "B", DueDate: "2026-10-18"})

	res, err := f.store.CompleteTask(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.DayCompleted || res.Streak.CurrentStreak != 0 {
		t.Errorf("day completed with a task left: %+v", res.Streak)
	}
}

func TestStreak_ConsecutiveDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for day := 0; day < 3; day++ {
		task := f.addTask(t, domain.TaskInput{Title: fmt.Sprintf("day %d", day)})
		res, err := f.store.CompleteTask(ctx, task.ID)
		if err != nil {
			t.Fatalf("day %d: %v", day, err)
		}
		if res.Streak.CurrentStreak != day+1 {
			t.Errorf("day %d: streak = %d, want %d", day, res.Streak.CurrentStreak, day+1)
		}
		f.clock.Advance(24 * time.Hour)
	}

	var streak3 domain.Achievement
	for _, a := range f.store.Achievements() {
		if a.DefinitionID() == "streak_3" {
			streak3 = a
		}
	}
	if !streak3.Unlocked {
		t.Errorf("streak_3 should unlock on the third consecutive day: %+v", streak3)
	}

	// Skipping a day breaks the streak.
	f.clock.Advance(24 * time.Hour)
	task := f.addTask(t, domain.TaskInput{Title: "after gap"})
	res, err := f.store.CompleteTask(ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.Streak.CurrentStreak != 1 || res.Streak.BestStreak != 3 {
		t.Errorf("after gap: %+v", res.Streak)
	}
	assertLedgerMatches(t, f)
}

func TestSecretAchievement_NightOwl(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(time.Date(2026, 10, 18, 2, 30, 0, 0, time.UTC))
	task := f.addTask(t, domain.TaskInput{Title: "Late push"})

	res, err := f.store.CompleteTask(context.Background(), task.ID)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, a := range res.Unlocked {
		if a.DefinitionID() == "night_owl" {
			found = true
		}
		if a.DefinitionID() == "early_bird" {
			t.Error("early_bird must not unlock at 02:30")
		}
	}
	if !found {
		t.Errorf("night_owl should unlock at 02:30, got %v", res.Unlocked)
	}
}

func TestToggleTask_UndoKeepsProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.addTask(t, domain.TaskInput{Title: "Flip", Difficulty: domain.DifficultyHard})

	_, res, err := f.store.ToggleTask(ctx, task.ID)
	if err != nil || res == nil {
		t.Fatalf("first toggle = %v, %v", res, err)
	}
	before, _ := f.store.User()

	reopened, res, err := f.store.ToggleTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("second toggle error: %v", err)
	}
	if res != nil {
		t.Error("reopening should not return a completion result")
	}
	if reopened.Completed || reopened.Status != domain.TaskPending || reopened.CompletedAt != nil || reopened.EarnedPoints != 0 {
		t.Errorf("reopened = %+v", reopened)
	}

	after, _ := f.store.User()
	if after.TotalXP != before.TotalXP || after.CurrentStreak != before.CurrentStreak {
		t.Errorf("undo changed progress: XP %d → %d, streak %d → %d",
			before.TotalXP, after.TotalXP, before.CurrentStreak, after.CurrentStreak)
	}
	streak, _ := f.store.Streak()
	if streak.CurrentStreak != 1 {
		t.Errorf("streak after undo = %d, want 1", streak.CurrentStreak)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Queries
// ═══════════════════════════════════════════════════════════════════════════

func TestTasksForMonthAndRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTask(t, domain.TaskInput{Title: "Oct 20", DueDate: "2026-10-20"})
	f.addTask(t, domain.TaskInput{Title: "Oct 19 late", DueDate: "2026-10-19", DueTime: "18:00"})
	f.addTask(t, domain.TaskInput{Title: "Nov 1", DueDate: "2026-11-01"})
	f.addTask(t, domain.TaskInput{Title: "Someday"})

	month, err := f.store.TasksForMonth(ctx, 2026, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(month) != 2 || month[0].Title != "Oct 19 late" {
		t.Errorf("October = %v", month)
	}

	week, err := f.store.TasksInRange(ctx, "2026-10-19", "2026-11-01")
	if err != nil || len(week) != 3 {
		t.Errorf("range = %d tasks, %v", len(week), err)
	}
	if _, err := f.store.TasksInRange(ctx, "2026-11-01", "2026-10-01"); !domain.IsValidation(err) {
		t.Errorf("inverted range = %v", err)
	}
	if _, err := f.store.TasksForMonth(ctx, 2026, 13); !domain.IsValidation(err) {
		t.Errorf("month 13 = %v", err)
	}
}

func TestAddTask_OneDigitHourIsPadded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	past := f.addTask(t, domain.TaskInput{Title: "nine", DueDate: "2026-10-18", DueTime: "9:05"})
	if past.DueTime != "09:05" || past.Status != domain.TaskOverdue {
		t.Errorf("stored due_time = %q status = %s, want 09:05 overdue", past.DueTime, past.Status)
	}
	later := f.addTask(t, domain.TaskInput{Title: "ten", DueDate: "2026-10-19", DueTime: "10:00"})
	early := f.addTask(t, domain.TaskInput{Title: "eight", DueDate: "2026-10-19", DueTime: "8:00"})

	got, err := f.store.TasksInRange(ctx, "2026-10-19", "2026-10-19")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != early.ID || got[1].ID != later.ID {
		t.Errorf("range order = %v", got)
	}

	updated, err := f.store.UpdateTask(ctx, later.ID, domain.TaskInput{Title: "ten", DueDate: "2026-10-19", DueTime: "7:30"})
	if err != nil {
		t.Fatal(err)
	}
	if updated.DueTime != "07:30" {
		t.Errorf("updated due_time = %q, want 07:30", updated.DueTime)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// XP & goals
// ═══════════════════════════════════════════════════════════════════════════

func TestAddXP_LevelUpAnnounced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	change, err := f.store.AddXP(ctx, 1000, domain.XPGoalCompleted, "manual", "bonus")
	if err != nil {
		t.Fatal(err)
	}
	if !change.LeveledUp || change.NewLevel != engagement.LevelFromTotalXP(1000) {
		t.Errorf("change = %+v", change)
	}

	notes, err := f.store.Notifications(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, n := range notes {
		if n.Type == domain.NotifyLevelUp {
			found = true
		}
	}
	if !found {
		t.Error("level-up was not recorded in the notification log")
	}
	assertLedgerMatches(t, f)
}

func TestGoals_CompleteAndFail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	monthly, err := f.store.AddGoal(ctx, domain.GoalInput{
		Type: domain.GoalMonthly, Title: "Read 2 books", Year: 2026, Month: 10,
		ReminderDate: "2026-10-25", NotificationEnabled: true,
	})
	if err != nil {
		t.Fatalf("AddGoal() error: %v", err)
	}
	if monthly.XPReward != 500 || monthly.NotificationID == "" {
		t.Errorf("goal = %+v", monthly)
	}

	_, change, err := f.store.CompleteGoal(ctx, monthly.ID)
	if err != nil {
		t.Fatal(err)
	}
	if change.Delta != 500 {
		t.Errorf("reward = %d, want 500", change.Delta)
	}
	if _, _, err := f.store.CompleteGoal(ctx, monthly.ID); !errors.Is(err, domain.ErrGoalClosed) {
		t.Errorf("second completion = %v, want ErrGoalClosed", err)
	}

	expired, err := f.store.AddGoal(ctx, domain.GoalInput{
		Type: domain.GoalMonthly, Title: "September plan", Year: 2026, Month: 9,
	})
	if err != nil {
		t.Fatal(err)
	}
	before, _ := f.store.User()
	failed, err := f.store.FailExpiredGoals(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 1 || failed[0].ID != expired.ID || !failed[0].Failed {
		t.Fatalf("failed = %+v", failed)
	}
	after, _ := f.store.User()
	if after.TotalXP != before.TotalXP-100 {
		t.Errorf("penalty: %d → %d, want -100", before.TotalXP, after.TotalXP)
	}

	// Already failed goals are not penalized twice.
	if again, _ := f.store.FailExpiredGoals(ctx); len(again) != 0 {
		t.Errorf("second run failed %d goals", len(again))
	}
	assertLedgerMatches(t, f)
}

func TestGoals_PenaltyClampsAtZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.store.AddGoal(ctx, domain.GoalInput{Type: domain.GoalYearly, Title: "2025 resolution", Year: 2025}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.store.FailExpiredGoals(ctx); err != nil {
		t.Fatal(err)
	}
	u, _ := f.store.User()
	if u.TotalXP != 0 {
		t.Errorf("totalXP = %d, want 0", u.TotalXP)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Rollover, missions, stats
// ═══════════════════════════════════════════════════════════════════════════

func TestRollover(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.clock.Set(time.Date(2026, 10, 18, 7, 0, 0, 0, time.UTC))
	task := f.addTask(t, domain.TaskInput{Title: "Standup", DueDate: "2026-10-18", DueTime: "08:00"})
	f.clock.Set(start)

	report, err := f.store.Rollover(ctx)
	if err != nil {
		t.Fatalf("Rollover() error: %v", err)
	}
	if report.Date != "2026-10-18" || report.Overdue != 1 || report.Missions != engagement.MissionsPerDay {
		t.Errorf("report = %+v", report)
	}
	for _, cached := range f.store.Tasks() {
		if cached.ID == task.ID && cached.Status != domain.TaskOverdue {
			t.Errorf("cache not refreshed: status %s", cached.Status)
		}
	}

	again, err := f.store.Rollover(ctx)
	if err != nil || again.Overdue != 0 {
		t.Errorf("second rollover = %+v, %v", again, err)
	}
}

func TestTodayMissions_Stable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.store.TodayMissions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	second, _ := f.store.TodayMissions(ctx)
	if len(first) != engagement.MissionsPerDay || len(second) != len(first) {
		t.Fatalf("missions = %d then %d", len(first), len(second))
	}
	seen := map[domain.MissionType]bool{}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("mission %d changed between calls", i)
		}
		if seen[first[i].Type] {
			t.Errorf("duplicate mission type %s", first[i].Type)
		}
		seen[first[i].Type] = true
	}
}

func TestRecomputeStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	done := f.addTask(t, domain.TaskInput{Title: "Done", Difficulty: domain.DifficultyHard, Category: domain.CategoryHealth})
	f.addTask(t, domain.TaskInput{Title: "Open"})
	if _, err := f.store.CompleteTask(ctx, done.ID); err != nil {
		t.Fatal(err)
	}

	stats, err := f.store.RecomputeStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalTasks != 2 || stats.CompletedTasks != 1 || stats.HardCompleted != 1 || stats.HealthCompleted != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.MostProductiveHour != 9 || stats.MostProductiveDay != int(time.Sunday) {
		t.Errorf("productive hour/day = %d/%d", stats.MostProductiveHour, stats.MostProductiveDay)
	}

	stored, _ := f.store.Stats(ctx)
	if stored.CompletedTasks != 1 {
		t.Errorf("stored stats = %+v", stored)
	}
}

func TestNotificationLog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n, err := f.store.RecordNotification(ctx, domain.ReceivedNotification{
		Type: domain.NotifyTaskReminder, Title: "Standup", Body: "due at 08:00", TaskID: "t1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if n.ID == 0 || n.ReceivedAt.IsZero() {
		t.Errorf("recorded = %+v", n)
	}
	if err := f.store.MarkNotificationRead(ctx, n.ID); err != nil {
		t.Fatal(err)
	}
	list, _ := f.store.Notifications(ctx, 5)
	if len(list) != 1 || !list[0].Read {
		t.Errorf("list = %+v", list)
	}
}

func TestRestoreReminders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addTask(t, domain.TaskInput{Title: "Dentist", DueDate: "2026-10-19", DueTime: "10:00", HasReminder: true})
	done := f.addTask(t, domain.TaskInput{Title: "Call bank", DueDate: "2026-10-19", HasReminder: true})
	if _, err := f.store.CompleteTask(ctx, done.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.store.AddGoal(ctx, domain.GoalInput{
		Type: domain.GoalMonthly, Title: "Run 50km", Year: 2026, Month: 10,
		ReminderDate: "2026-10-25", NotificationEnabled: true,
	}); err != nil {
		t.Fatal(err)
	}

	// A restarted process starts with an empty notifier.
	fresh := newFakeNotifier()
	restarted := store.New(f.db, fresh, f.clock, store.Options{})
	if err := restarted.Load(ctx); err != nil {
		t.Fatal(err)
	}
	n, err := restarted.RestoreReminders(ctx)
	if err != nil {
		t.Fatalf("RestoreReminders() error: %v", err)
	}
	if n != 2 || len(fresh.scheduled) != 2 {
		t.Errorf("restored = %d, scheduled = %v; want 2", n, fresh.scheduled)
	}
	for _, task := range restarted.Tasks() {
		if task.Title == "Dentist" && task.NotificationID == "" {
			t.Error("restored task should carry its new reminder id")
		}
	}
}
