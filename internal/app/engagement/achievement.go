package engagement

import (
	"time"

	"github.com/lvlup-app/lvlup/internal/domain"
)

// CatalogVersion is bumped whenever definitions are added. Existing users
// receive new definitions through Missing; definitions are never removed.
const CatalogVersion = 2

// Catalog returns the ordered achievement definitions. OrderIndex of an
// instance is its definition's position here.
func Catalog() []domain.AchievementDef {
	return []domain.AchievementDef{
		// ── Tasks ──────────────────────────────────────────────────────
		{
			ID: "first_task", Name: "First Step", Description: "Complete your first task",
			Icon: "🎯", Category: domain.CatTasks, Rarity: domain.RarityCommon, XPReward: 50,
			RequirementType: domain.RequireCount, RequirementValue: 1, Metric: domain.MetricTasksCompleted,
		},
		{
			ID: "tasks_10", Name: "Getting Things Done", Description: "Complete 10 tasks",
			Icon: "✅", Category: domain.CatTasks, Rarity: domain.RarityCommon, XPReward: 100,
			RequirementType: domain.RequireCount, RequirementValue: 10, Metric: domain.MetricTasksCompleted,
		},
		{
			ID: "tasks_50", Name: "Productive", Description: "Complete 50 tasks",
			Icon: "📋", Category: domain.CatTasks, Rarity: domain.RarityRare, XPReward: 250,
			RequirementType: domain.RequireCount, RequirementValue: 50, Metric: domain.MetricTasksCompleted,
		},
		{
			ID: "tasks_100", Name: "Centurion", Description: "Complete 100 tasks",
			Icon: "💯", Category: domain.CatTasks, Rarity: domain.RarityEpic, XPReward: 500,
			RequirementType: domain.RequireCount, RequirementValue: 100, Metric: domain.MetricTasksCompleted,
		},
		{
			ID: "tasks_500", Name: "Task Master", Description: "Complete 500 tasks",
			Icon: "🏆", Category: domain.CatTasks, Rarity: domain.RarityLegendary, XPReward: 2000,
			RequirementType: domain.RequireCount, RequirementValue: 500, Metric: domain.MetricTasksCompleted,
		},

		// ── Challenge ──────────────────────────────────────────────────
		{
			ID: "hard_5", Name: "Tough Cookie", Description: "Complete 5 hard tasks",
			Icon: "💪", Category: domain.CatChallenge, Rarity: domain.RarityRare, XPReward: 200,
			RequirementType: domain.RequireCount, RequirementValue: 5, Metric: domain.MetricHardCompleted,
		},
		{
			ID: "hard_25", Name: "Hardened", Description: "Complete 25 hard tasks",
			Icon: "🛡️", Category: domain.CatChallenge, Rarity: domain.RarityEpic, XPReward: 600,
			RequirementType: domain.RequireCount, RequirementValue: 25, Metric: domain.MetricHardCompleted,
		},
		{
			ID: "extreme_1", Name: "Daredevil", Description: "Complete an extreme task",
			Icon: "🔥", Category: domain.CatChallenge, Rarity: domain.RarityRare, XPReward: 150,
			RequirementType: domain.RequireCount, RequirementValue: 1, Metric: domain.MetricExtremeCompleted,
		},
		{
			ID: "extreme_10", Name: "Unstoppable", Description: "Complete 10 extreme tasks",
			Icon: "☄️", Category: domain.CatChallenge, Rarity: domain.RarityLegendary, XPReward: 1000,
			RequirementType: domain.RequireCount, RequirementValue: 10, Metric: domain.MetricExtremeCompleted,
		},
		{
			ID: "early_10", Name: "Ahead of Schedule", Description: "Finish 10 tasks before they are due",
			Icon: "⏰", Category: domain.CatChallenge, Rarity: domain.RarityRare, XPReward: 250,
			RequirementType: domain.RequireCount, RequirementValue: 10, Metric: domain.MetricEarlyCompleted,
		},

		// ── Streaks ────────────────────────────────────────────────────
		{
			ID: "streak_3", Name: "Warming Up", Description: "Reach a 3-day streak",
			Icon: "🌱", Category: domain.CatStreaks, Rarity: domain.RarityCommon, XPReward: 75,
			RequirementType: domain.RequireStreak, RequirementValue: 3, Metric: domain.MetricCurrentStreak,
		},
		{
			ID: "streak_7", Name: "Week Warrior", Description: "Reach a 7-day streak",
			Icon: "📅", Category: domain.CatStreaks, Rarity: domain.RarityRare, XPReward: 200,
			RequirementType: domain.RequireStreak, RequirementValue: 7, Metric: domain.MetricCurrentStreak,
		},
		{
			ID: "streak_30", Name: "Monthly Machine", Description: "Reach a 30-day streak",
			Icon: "🗓️", Category: domain.CatStreaks, Rarity: domain.RarityEpic, XPReward: 1000,
			RequirementType: domain.RequireStreak, RequirementValue: 30, Metric: domain.MetricCurrentStreak,
		},
		{
			ID: "streak_100", Name: "Unbreakable", Description: "Reach a 100-day streak",
			Icon: "⭐", Category: domain.CatStreaks, Rarity: domain.RarityLegendary, XPReward: 5000,
			RequirementType: domain.RequireStreak, RequirementValue: 100, Metric: domain.MetricCurrentStreak,
		},
		{
			ID: "mission_streak_7", Name: "On a Mission", Description: "Finish every daily mission 7 days in a row",
			Icon: "🎖️", Category: domain.CatStreaks, Rarity: domain.RarityEpic, XPReward: 500,
			RequirementType: domain.RequireStreak, RequirementValue: 7, Metric: domain.MetricMissionStreak,
		},

		// ── Levels ─────────────────────────────────────────────────────
		{
			ID: "level_5", Name: "Rising Star", Description: "Reach level 5",
			Icon: "🌅", Category: domain.CatLevels, Rarity: domain.RarityCommon, XPReward: 100,
			RequirementType: domain.RequireLevel, RequirementValue: 5, Metric: domain.MetricLevel,
		},
		{
			ID: "level_10", Name: "Apprentice", Description: "Reach level 10",
			Icon: "📘", Category: domain.CatLevels, Rarity: domain.RarityRare, XPReward: 250,
			RequirementType: domain.RequireLevel, RequirementValue: 10, Metric: domain.MetricLevel,
		},
		{
			ID: "level_25", Name: "Seasoned", Description: "Reach level 25",
			Icon: "🎓", Category: domain.CatLevels, Rarity: domain.RarityEpic, XPReward: 1000,
			RequirementType: domain.RequireLevel, RequirementValue: 25, Metric: domain.MetricLevel,
		},
		{
			ID: "level_50", Name: "Veteran", Description: "Reach level 50",
			Icon: "🏅", Category: domain.CatLevels, Rarity: domain.RarityLegendary, XPReward: 3000,
			RequirementType: domain.RequireLevel, RequirementValue: 50, Metric: domain.MetricLevel,
		},
		{
			ID: "level_100", Name: "Legend", Description: "Reach level 100",
			Icon: "👑", Category: domain.CatLevels, Rarity: domain.RarityLegendary, XPReward: 10000,
			RequirementType: domain.RequireLevel, RequirementValue: 100, Metric: domain.MetricLevel,
		},

		// ── Secret ─────────────────────────────────────────────────────
		{
			ID: "night_owl", Name: "Night Owl", Description: "Complete a task after midnight",
			Icon: "🦉", Category: domain.CatSecret, Rarity: domain.RarityRare, XPReward: 150,
			RequirementType: domain.RequireEvent, RequirementValue: 1, Metric: domain.MetricNightOwl,
			IsSecret: true,
		},
		{
			ID: "early_bird", Name: "Early Bird", Description: "Complete a task before 6am",
			Icon: "🐦", Category: domain.CatSecret, Rarity: domain.RarityRare, XPReward: 150,
			RequirementType: domain.RequireEvent, RequirementValue: 1, Metric: domain.MetricEarlyBird,
			IsSecret: true,
		},
	}
}

// catalogIndex maps definition id to catalog position.
var catalogIndex = func() map[string]int {
	idx := make(map[string]int)
	for i, def := range Catalog() {
		idx[def.ID] = i
	}
	return idx
}()

var catalog = Catalog()

// Definition looks up a catalog entry by id.
func Definition(id string) (domain.AchievementDef, bool) {
	i, ok := catalogIndex[id]
	if !ok {
		return domain.AchievementDef{}, false
	}
	return catalog[i], true
}

// Instantiate returns one locked instance per catalog definition.
func Instantiate(userID string) []domain.Achievement {
	out := make([]domain.Achievement, 0, len(catalog))
	for i, def := range catalog {
		out = append(out, newInstance(userID, def, i))
	}
	return out
}

// Missing returns instances for definitions the user does not have yet.
func Missing(userID string, existing []domain.Achievement) []domain.Achievement {
	have := make(map[string]bool, len(existing))
	for _, a := range existing {
		have[a.DefinitionID()] = true
	}
	var out []domain.Achievement
	for i, def := range catalog {
		if !have[def.ID] {
			out = append(out, newInstance(userID, def, i))
		}
	}
	return out
}

func newInstance(userID string, def domain.AchievementDef, order int) domain.Achievement {
	return domain.Achievement{
		ID:               domain.AchievementID(userID, def.ID),
		UserID:           userID,
		Name:             def.Name,
		Description:      def.Description,
		Icon:             def.Icon,
		Category:         def.Category,
		Rarity:           def.Rarity,
		XPReward:         def.XPReward,
		RequirementType:  def.RequirementType,
		RequirementValue: def.RequirementValue,
		OrderIndex:       order,
		IsSecret:         def.IsSecret,
	}
}

// ProgressFor returns min(100, floor(value/requirement*100)).
func ProgressFor(value, requirement int) int {
	if requirement <= 0 {
		return 100
	}
	if value <= 0 {
		return 0
	}
	if value >= requirement {
		return 100
	}
	return value * 100 / requirement
}

// EvalOptions narrows an evaluation pass.
type EvalOptions struct {
	// Only restricts evaluation to these requirement types. Empty means all.
	Only []domain.RequirementType
}

func (o EvalOptions) includes(rt domain.RequirementType) bool {
	if len(o.Only) == 0 {
		return true
	}
	for _, t := range o.Only {
		if t == rt {
			return true
		}
	}
	return false
}

// Evaluation is the result of one pass over a user's achievements.
type Evaluation struct {
	// Updated is the full list in input order with new progress applied.
	Updated []domain.Achievement
	// Changed holds only the entries whose stored fields differ.
	Changed []domain.Achievement
	// NewlyUnlocked holds entries that flipped to unlocked in this call.
	NewlyUnlocked []domain.Achievement
}

// Metrics is the aggregate snapshot achievements are evaluated against.
type Metrics struct {
	TasksCompleted   int
	HardCompleted    int
	ExtremeCompleted int
	EarlyCompleted   int
	CurrentStreak    int
	MissionStreak    int
	Level            int
}

// MetricsFor derives the aggregate snapshot from the user and task list.
// The lifetime counter on the user wins over the scan so that deleted
// tasks still count.
func MetricsFor(u domain.User, tasks []domain.Task) Metrics {
	m := Metrics{
		TasksCompleted: u.TotalTasksCompleted,
		CurrentStreak:  u.CurrentStreak,
		MissionStreak:  u.DailyMissionsStreak,
		Level:          u.CurrentLevel,
	}
	scanned := 0
	for i := range tasks {
		t := &tasks[i]
		if !t.Completed {
			continue
		}
		scanned++
		switch t.Difficulty {
		case domain.DifficultyHard:
			m.HardCompleted++
		case domain.DifficultyExtreme:
			m.ExtremeCompleted++
		}
		if t.CompletedEarly {
			m.EarlyCompleted++
		}
	}
	if scanned > m.TasksCompleted {
		m.TasksCompleted = scanned
	}
	return m
}

func (m Metrics) value(metric domain.Metric) (int, bool) {
	switch metric {
	case domain.MetricTasksCompleted:
		return m.TasksCompleted, true
	case domain.MetricHardCompleted:
		return m.HardCompleted, true
	case domain.MetricExtremeCompleted:
		return m.ExtremeCompleted, true
	case domain.MetricEarlyCompleted:
		return m.EarlyCompleted, true
	case domain.MetricCurrentStreak:
		return m.CurrentStreak, true
	case domain.MetricMissionStreak:
		return m.MissionStreak, true
	case domain.MetricLevel:
		return m.Level, true
	}
	return 0, false
}

// Evaluate recomputes progress for every locked achievement and reports
// which ones crossed their threshold. Unlocked entries are never touched,
// and locked progress never decreases, so a second call with the same
// inputs returns no NewlyUnlocked entries.
func Evaluate(achievements []domain.Achievement, u domain.User, tasks []domain.Task, now time.Time, opts EvalOptions) Evaluation {
	metrics := MetricsFor(u, tasks)
	ev := Evaluation{Updated: make([]domain.Achievement, len(achievements))}

	for i, a := range achievements {
		ev.Updated[i] = a
		if a.Unlocked || !opts.includes(a.RequirementType) {
			continue
		}

		value := a.CurrentValue
		if a.RequirementType != domain.RequireEvent {
			def, ok := Definition(a.DefinitionID())
			if !ok {
				continue
			}
			v, ok := metrics.value(def.Metric)
			if !ok {
				continue
			}
			value = v
		}

		next := a
		next.CurrentValue = value
		if p := ProgressFor(value, a.RequirementValue); p > next.Progress {
			next.Progress = p
		}
		if value >= a.RequirementValue {
			at := now
			next.Unlocked = true
			next.UnlockedAt = &at
			next.Progress = 100
			ev.NewlyUnlocked = append(ev.NewlyUnlocked, next)
		}

		if next.CurrentValue != a.CurrentValue || next.Progress != a.Progress || next.Unlocked != a.Unlocked {
			ev.Updated[i] = next
			ev.Changed = append(ev.Changed, next)
		}
	}
	return ev
}

// SecretEventsFor maps a completion instant to the secret metrics it feeds.
// Hours are read in completedAt's own location.
func SecretEventsFor(completedAt time.Time) []domain.Metric {
	switch h := completedAt.Hour(); {
	case h < 4:
		return []domain.Metric{domain.MetricNightOwl}
	case h < 6:
		return []domain.Metric{domain.MetricEarlyBird}
	}
	return nil
}

// RecordEvent bumps CurrentValue on every locked event achievement that
// listens for metric. It returns the updated list and the changed entries.
func RecordEvent(achievements []domain.Achievement, metric domain.Metric) ([]domain.Achievement, []domain.Achievement) {
	out := make([]domain.Achievement, len(achievements))
	copy(out, achievements)

	var changed []domain.Achievement
	for i, a := range out {
		if a.Unlocked || a.RequirementType != domain.RequireEvent {
			continue
		}
		def, ok := Definition(a.DefinitionID())
		if !ok || def.Metric != metric {
			continue
		}
		a.CurrentValue++
		if p := ProgressFor(a.CurrentValue, a.RequirementValue); p > a.Progress && p < 100 {
			a.Progress = p
		}
		out[i] = a
		changed = append(changed, a)
	}
	return out, changed
}

// UnlockedCount counts unlocked instances.
func UnlockedCount(achievements []domain.Achievement) int {
	n := 0
	for _, a := range achievements {
		if a.Unlocked {
			n++
		}
	}
	return n
}
