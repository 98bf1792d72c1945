package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lvlup-app/lvlup/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var testNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

// seedUser creates user u1 with a streak, two achievements and empty stats.
func seedUser(t *testing.T, db *DB) domain.User {
	t.Helper()
	u := domain.User{
		ID: "u1", Name: "Ada", CurrentLevel: 1, NextLevelXP: 341, Category: domain.TierNovice,
		CreatedAt: testNow, LastActivity: testNow,
	}
	s := domain.Streak{ID: "streak-u1", UserID: "u1", CreatedAt: testNow, UpdatedAt: testNow}
	achievements := []domain.Achievement{
		{ID: "u1-first_task", UserID: "u1", Name: "First Step", Category: domain.CatTasks,
			Rarity: domain.RarityCommon, XPReward: 50, RequirementType: domain.RequireCount,
			RequirementValue: 1, OrderIndex: 0},
		{ID: "u1-tasks_10", UserID: "u1", Name: "Getting Things Done", Category: domain.CatTasks,
			Rarity: domain.RarityCommon, XPReward: 100, RequirementType: domain.RequireCount,
			RequirementValue: 10, OrderIndex: 1},
	}
	stats := domain.Stats{ID: "stats-u1", UserID: "u1", MostProductiveHour: -1, MostProductiveDay: -1, UpdatedAt: testNow}
	if err := db.SeedUser(context.Background(), u, s, achievements, stats); err != nil {
		t.Fatalf("SeedUser() error: %v", err)
	}
	return u
}

func newTask(id, dueDate, dueTime string) domain.Task {
	return domain.Task{
		ID: id, UserID: "u1", Title: "task " + id, Status: domain.TaskPending,
		Difficulty: domain.DifficultyMedium, Category: domain.CategoryWork, Priority: domain.PriorityHigh,
		BasePoints: 25, BonusMultiplier: 1.0, DueDate: dueDate, DueTime: dueTime,
		CreatedAt: testNow, UpdatedAt: testNow,
	}
}

// ─── Database Lifecycle ─────────────────────────────────────────────────────

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Join(dir, FileName)); os.IsNotExist(err) {
		t.Errorf("%s should exist", FileName)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
}

func TestMigrate_VersionAndReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	v, err := db.Version(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if v != SchemaVersion() {
		t.Errorf("user_version = %d, want %d", v, SchemaVersion())
	}
	db.Close()

	// Re-opening must not re-run the ALTER TABLE of migration 002.
	db, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer db.Close()
	if v, _ := db.Version(context.Background()); v != SchemaVersion() {
		t.Errorf("user_version after reopen = %d", v)
	}
}

// ─── Users ──────────────────────────────────────────────────────────────────

func TestSeedAndGetUser(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db)
	ctx := context.Background()

	u, err := db.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser() error: %v", err)
	}
	if u.Name != "Ada" || u.NextLevelXP != 341 || u.Category != domain.TierNovice {
		t.Errorf("user = %+v", u)
	}
	if !u.CreatedAt.Equal(testNow) {
		t.Errorf("CreatedAt = %v, want %v", u.CreatedAt, testNow)
	}

	first, err := db.FirstUser(ctx)
	if err != nil || first.ID != "u1" {
		t.Errorf("FirstUser() = %v, %v", first, err)
	}

	if _, err := db.GetStreak(ctx, "u1"); err != nil {
		t.Errorf("seeded streak missing: %v", err)
	}
	if list, _ := db.ListAchievements(ctx, "u1"); len(list) != 2 {
		t.Errorf("seeded achievements = %d, want 2", len(list))
	}
	if _, err := db.GetStats(ctx, "u1"); err != nil {
		t.Errorf("seeded stats missing: %v", err)
	}
}

func TestSeedUser_RollsBackOnFailure(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := domain.User{ID: "u1", Name: "Ada", CreatedAt: testNow}
	s := domain.Streak{ID: "streak-u1", UserID: "u1", CreatedAt: testNow, UpdatedAt: testNow}
	// Stats with a zero UpdatedAt violates NOT NULL, failing the last step.
	err := db.SeedUser(ctx, u, s, nil, domain.Stats{ID: "stats-u1", UserID: "u1"})
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if _, err := db.GetUser(ctx, "u1"); !domain.IsNotFound(err) {
		t.Errorf("user should not exist after rollback, got %v", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetUser(context.Background(), "nobody")
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) || nf.Entity != "user" {
		t.Errorf("expected user NotFoundError, got %v", err)
	}
	if _, err := db.FirstUser(context.Background()); !domain.IsNotFound(err) {
		t.Errorf("FirstUser on empty db: %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db)
	ctx := context.Background()

	u.TotalXP = 900
	u.CurrentLevel = 3
	u.LastTaskDate = "2026-10-18"
	u.LastMissionDate = "2026-10-18"
	u.DailyMissionsStreak = 4
	if err := db.UpdateUser(ctx, u); err != nil {
		t.Fatalf("UpdateUser() error: %v", err)
	}
	got, _ := db.GetUser(ctx, "u1")
	if got.TotalXP != 900 || got.CurrentLevel != 3 || got.LastMissionDate != "2026-10-18" || got.DailyMissionsStreak != 4 {
		t.Errorf("after update: %+v", got)
	}

	u.ID = "ghost"
	if err := db.UpdateUser(ctx, u); !domain.IsNotFound(err) {
		t.Errorf("update of missing user: %v", err)
	}
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

func TestInsertGetTask(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db)
	ctx := context.Background()

	task := newTask("t1", "2026-10-20", "14:00")
	task.Description = "write report"
	task.HasReminder = true
	if err := db.InsertTask(ctx, task); err != nil {
		t.Fatalf("InsertTask() error: %v", err)
	}

	got, err := db.GetTask(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTask() error: %v", err)
	}
	if got.Title != "task t1" || got.Description != "write report" || got.DueTime != "14:00" {
		t.Errorf("task = %+v", got)
	}
	if !got.HasReminder || got.Completed || got.CompletedAt != nil {
		t.Errorf("flags wrong: %+v", got)
	}

	if _, err := db.GetTask(ctx, "missing"); !domain.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestInsertTask_ForeignKey(t *testing.T) {
	db := newTestDB(t)
	err := db.InsertTask(context.Background(), newTask("t1", "", ""))
	if !errors.Is(err, domain.ErrPersistence) {
		t.Errorf("task for unknown user should fail the FK, got %v", err)
	}
}

func TestListTasksInRange_Ordering(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db)
	ctx := context.Background()

	for _, task := range []domain.Task{
		newTask("late-untimed", "2026-10-02", ""),
		newTask("late-9", "2026-10-02", "09:00"),
		newTask("first", "2026-10-01", "23:00"),
		newTask("late-7", "2026-10-02", "07:30"),
		newTask("last-day", "2026-10-31", ""),
		newTask("outside", "2026-11-01", "08:00"),
		newTask("no-date", "", ""),
	} {
		if err := db.InsertTask(ctx, task); err != nil {
			t.Fatalf("InsertTask(%s) error: %v", task.ID, err)
		}
	}

	got, err := db.ListTasksInRange(ctx, "u1", "2026-10-01", "2026-10-31")
	if err != nil {
		t.Fatalf("ListTasksInRange() error: %v", err)
	}
	want := []string{"first", "late-7", "late-9", "late-untimed", "last-day"}
	if len(got) != len(want) {
		t.Fatalf("got %d tasks, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d = %s, want %s", i, got[i].ID, id)
		}
	}

	month, err := db.ListTasksByMonth(ctx, "u1", 2026, 10)
	if err != nil || len(month) != len(want) {
		t.Errorf("ListTasksByMonth() = %d tasks, %v", len(month), err)
	}

	if _, err := db.ListTasksInRange(ctx, "u1", "10/01/2026", "2026-10-31"); !domain.IsValidation(err) {
		t.Errorf("malformed bound should be a validation error, got %v", err)
	}
}

func TestCompleteTask_SingleUpdate(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db)
	ctx := context.Background()
	if err := db.InsertTask(ctx, newTask("t1", "2026-10-18", "")); err != nil {
		t.Fatal(err)
	}

	c := domain.Completion{
		TaskID: "t1", CompletedAt: testNow, BasePoints: 25, BonusMultiplier: 2.1, EarnedPoints: 52,
		CompletedEarly: true, IsFirstTaskOfDay: true,
	}
	if err := db.CompleteTask(ctx, c); err != nil {
		t.Fatalf("CompleteTask() error: %v", err)
	}

	got, _ := db.GetTask(ctx, "t1")
	if !got.Completed || got.Status != domain.TaskCompleted || got.CompletedAt == nil {
		t.Fatalf("completion not applied: %+v", got)
	}
	if got.EarnedPoints != 52 || got.BonusMultiplier != 2.1 || !got.CompletedEarly || !got.IsFirstTaskOfDay {
		t.Errorf("score not frozen: %+v", got)
	}

	if err := db.CompleteTask(ctx, c); !errors.Is(err, domain.ErrAlreadyCompleted) {
		t.Errorf("second completion = %v, want ErrAlreadyCompleted", err)
	}
	c.TaskID = "missing"
	if err := db.CompleteTask(ctx, c); !domain.IsNotFound(err) {
		t.Errorf("completion of missing task = %v", err)
	}
}

func TestUncompleteTask(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db)
	ctx := context.Background()
	db.InsertTask(ctx, newTask("t1", "2026-10-18", ""))
	db.CompleteTask(ctx, domain.Completion{TaskID: "t1", CompletedAt: testNow, BasePoints: 25, BonusMultiplier: 1.2, EarnedPoints: 30})

	if err := db.UncompleteTask(ctx, "t1", domain.TaskPending); err != nil {
		t.Fatalf("UncompleteTask() error: %v", err)
	}
	got, _ := db.GetTask(ctx, "t1")
	if got.Completed || got.Status != domain.TaskPending || got.CompletedAt != nil || got.EarnedPoints != 0 {
		t.Errorf("task not reopened: %+v", got)
	}
}

func TestMarkOverdueAndPendingCount(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db)
	ctx := context.Background()
	for _, task := range []domain.Task{
		newTask("yesterday", "2026-10-17", ""),
		newTask("today-early", "2026-10-18", "08:00"),
		newTask("today-late", "2026-10-18", "20:00"),
		newTask("today-untimed", "2026-10-18", ""),
		newTask("tomorrow", "2026-10-19", ""),
	} {
		db.InsertTask(ctx, task)
	}

	n, err := db.MarkOverdue(ctx, "u1", "2026-10-18", "09:30")
	if err != nil {
		t.Fatalf("MarkOverdue() error: %v", err)
	}
	if n != 2 {
		t.Errorf("marked %d, want 2", n)
	}
	if got, _ := db.GetTask(ctx, "today-untimed"); got.Status != domain.TaskPending {
		t.Errorf("untimed task due today must stay pending, got %s", got.Status)
	}

	pending, err := db.CountPendingDueOn(ctx, "u1", "2026-10-18")
	if err != nil {
		t.Fatal(err)
	}
	if pending != 3 {
		t.Errorf("pending today = %d, want 3", pending)
	}
}

func TestUpdateDeleteTask(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db)
	ctx := context.Background()
	task := newTask("t1", "", "")
	db.InsertTask(ctx, task)

	task.Title = "renamed"
	task.Difficulty = domain.DifficultyExtreme
	task.BasePoints = 100
	if err := db.UpdateTask(ctx, task); err != nil {
		t.Fatalf("UpdateTask() error: %v", err)
	}
	if err := db.SetTaskNotification(ctx, "t1", "n-1"); err != nil {
		t.Fatal(err)
	}
	got, _ := db.GetTask(ctx, "t1")
	if got.Title != "renamed" || got.BasePoints != 100 || got.NotificationID != "n-1" {
		t.Errorf("after update: %+v", got)
	}

	if err := db.DeleteTask(ctx, "t1"); err != nil {
		t.Fatalf("DeleteTask() error: %v", err)
	}
	if err := db.DeleteTask(ctx, "t1"); !domain.IsNotFound(err) {
		t.Errorf("second delete = %v", err)
	}
}

// ─── Streaks & Achievements ─────────────────────────────────────────────────

func TestUpsertStreak(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db)
	ctx := context.Background()

	s, _ := db.GetStreak(ctx, "u1")
	s.CurrentStreak = 4
	s.BestStreak = 6
	s.LastActivityDate = "2026-10-18"
	s.IsActive = true
	s.UpdatedAt = testNow.Add(time.Hour)
	if err := db.UpsertStreak(ctx, *s); err != nil {
		t.Fatalf("UpsertStreak() error: %v", err)
	}
	got, _ := db.GetStreak(ctx, "u1")
	if got.CurrentStreak != 4 || got.BestStreak != 6 || !got.IsActive || got.LastActivityDate != "2026-10-18" {
		t.Errorf("streak = %+v", got)
	}
	if !got.CreatedAt.Equal(testNow) {
		t.Errorf("createdAt should survive upsert, got %v", got.CreatedAt)
	}
}

func TestSaveAchievements_NeverRelocks(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db)
	ctx := context.Background()

	list, _ := db.ListAchievements(ctx, "u1")
	at := testNow
	list[0].Unlocked = true
	list[0].UnlockedAt = &at
	list[0].Progress = 100
	list[0].CurrentValue = 1
	list[1].Progress = 10
	list[1].CurrentValue = 1
	if err := db.SaveAchievements(ctx, list); err != nil {
		t.Fatalf("SaveAchievements() error: %v", err)
	}

	stale := list[0]
	stale.Unlocked = false
	stale.UnlockedAt = nil
	stale.Progress = 0
	if err := db.SaveAchievements(ctx, []domain.Achievement{stale}); err != nil {
		t.Fatal(err)
	}

	got, _ := db.ListAchievements(ctx, "u1")
	if !got[0].Unlocked || got[0].Progress != 100 || got[0].UnlockedAt == nil {
		t.Errorf("unlocked achievement reverted: %+v", got[0])
	}
	if got[1].Progress != 10 {
		t.Errorf("progress = %d, want 10", got[1].Progress)
	}

	// Re-inserting existing ids is a no-op.
	if err := db.InsertAchievements(ctx, list); err != nil {
		t.Errorf("InsertAchievements() on existing ids: %v", err)
	}
}

// ─── Goals, Stats, Missions, Notifications, Ledger ──────────────────────────

func TestGoalCRUD(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db)
	ctx := context.Background()

	yearly := domain.Goal{ID: "g2", UserID: "u1", Type: domain.GoalYearly, Title: "Run a marathon",
		XPReward: 2000, Year: 2026, CreatedAt: testNow}
	monthly := domain.Goal{ID: "g1", UserID: "u1", Type: domain.GoalMonthly, Title: "Read 2 books",
		XPReward: 500, Year: 2026, Month: 10, ReminderDate: "2026-10-25", CreatedAt: testNow}
	for _, g := range []domain.Goal{yearly, monthly} {
		if err := db.InsertGoal(ctx, g); err != nil {
			t.Fatalf("InsertGoal(%s) error: %v", g.ID, err)
		}
	}

	goals, err := db.ListGoals(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(goals) != 2 || goals[0].ID != "g1" || goals[1].Month != 0 {
		t.Errorf("goals = %+v", goals)
	}

	at := testNow
	monthly.Completed = true
	monthly.CompletedAt = &at
	if err := db.UpdateGoal(ctx, monthly); err != nil {
		t.Fatal(err)
	}
	got, _ := db.GetGoal(ctx, "g1")
	if !got.Completed || got.CompletedAt == nil || got.ReminderDate != "2026-10-25" {
		t.Errorf("goal = %+v", got)
	}

	if err := db.DeleteGoal(ctx, "g2"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetGoal(ctx, "g2"); !domain.IsNotFound(err) {
		t.Errorf("deleted goal lookup = %v", err)
	}
	bad := yearly
	bad.ID, bad.Type = "g3", "weekly"
	if err := db.InsertGoal(ctx, bad); !errors.Is(err, domain.ErrPersistence) {
		t.Errorf("CHECK constraint should reject weekly goals, got %v", err)
	}
}

func TestUpsertStats_Replaces(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db)
	ctx := context.Background()

	s := domain.Stats{ID: "stats-u1", UserID: "u1", TotalTasks: 4, CompletedTasks: 2, CompletionRate: 50,
		MostProductiveHour: 9, MostProductiveDay: 1, TotalPointsEarned: 77, UpdatedAt: testNow}
	if err := db.UpsertStats(ctx, s); err != nil {
		t.Fatalf("UpsertStats() error: %v", err)
	}
	if err := db.UpsertStats(ctx, s); err != nil {
		t.Fatalf("second UpsertStats() error: %v", err)
	}
	got, err := db.GetStats(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalTasks != 4 || got.CompletionRate != 50 || got.MostProductiveHour != 9 || got.TotalPointsEarned != 77 {
		t.Errorf("stats = %+v", got)
	}
}

func TestMissions(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db)
	ctx := context.Background()

	missions := []domain.DailyMission{
		{ID: "m-a", UserID: "u1", Date: "2026-10-18", Type: domain.MissionCompleteTasks, Title: "Complete 3 tasks", Target: 3, XPReward: 30},
		{ID: "m-b", UserID: "u1", Date: "2026-10-18", Type: domain.MissionBeforeNoon, Title: "Before noon", Target: 1, XPReward: 25},
	}
	if err := db.InsertMissions(ctx, missions); err != nil {
		t.Fatalf("InsertMissions() error: %v", err)
	}
	if err := db.InsertMissions(ctx, missions); err != nil {
		t.Fatalf("re-insert should be a no-op: %v", err)
	}

	list, err := db.ListMissionsOn(ctx, "u1", "2026-10-18")
	if err != nil || len(list) != 2 {
		t.Fatalf("ListMissionsOn() = %d, %v", len(list), err)
	}

	at := testNow
	list[1].Progress, list[1].Completed, list[1].CompletedAt = 1, true, &at
	if err := db.UpdateMission(ctx, list[1]); err != nil {
		t.Fatal(err)
	}
	list, _ = db.ListMissionsOn(ctx, "u1", "2026-10-18")
	if !list[1].Completed || list[1].CompletedAt == nil {
		t.Errorf("mission not updated: %+v", list[1])
	}
	if other, _ := db.ListMissionsOn(ctx, "u1", "2026-10-19"); len(other) != 0 {
		t.Errorf("other day has %d missions", len(other))
	}
}

func TestReceivedNotifications(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db)
	ctx := context.Background()

	for i, title := range []string{"first", "second"} {
		_, err := db.InsertReceivedNotification(ctx, domain.ReceivedNotification{
			UserID: "u1", NotificationID: "n-1", TaskID: "t1", Type: domain.NotifyTaskReminder,
			Title: title, Body: "due soon", ReceivedAt: testNow.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("InsertReceivedNotification() error: %v", err)
		}
	}

	list, err := db.ListReceivedNotifications(ctx, "u1", 10)
	if err != nil || len(list) != 2 {
		t.Fatalf("list = %d, %v", len(list), err)
	}
	if list[0].Title != "second" {
		t.Errorf("newest first expected, got %s", list[0].Title)
	}

	if err := db.MarkNotificationRead(ctx, list[0].ID); err != nil {
		t.Fatal(err)
	}
	list, _ = db.ListReceivedNotifications(ctx, "u1", 10)
	if !list[0].Read || list[1].Read {
		t.Errorf("read flags wrong: %v %v", list[0].Read, list[1].Read)
	}
	if err := db.MarkNotificationRead(ctx, 999); !domain.IsNotFound(err) {
		t.Errorf("unknown id = %v", err)
	}
}

func TestXPLedger(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db)
	ctx := context.Background()

	entries := []domain.XPEntry{
		{UserID: "u1", Timestamp: testNow, Source: domain.XPTaskCompleted, Amount: 52, RefID: "t1", Balance: 52},
		{UserID: "u1", Timestamp: testNow, Source: domain.XPAchievement, Amount: 50, RefID: "u1-first_task", Balance: 102},
		{UserID: "u1", Timestamp: testNow, Source: domain.XPGoalFailed, Amount: -100, RefID: "g1", Balance: 2},
	}
	for _, e := range entries {
		if _, err := db.InsertXPEntry(ctx, e); err != nil {
			t.Fatalf("InsertXPEntry() error: %v", err)
		}
	}

	got, err := db.ListXPEntries(ctx, "u1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("limit not applied: %d", len(got))
	}
	if got[0].Source != domain.XPGoalFailed || got[0].Amount != -100 || got[0].Balance != 2 {
		t.Errorf("newest entry = %+v", got[0])
	}
}

func TestWithTx_Rollback(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE users SET totalXP = 999 WHERE id = 'u1'`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() = %v, want boom", err)
	}
	u, _ := db.GetUser(ctx, "u1")
	if u.TotalXP != 0 {
		t.Errorf("rolled back write persisted: totalXP = %d", u.TotalXP)
	}
}
