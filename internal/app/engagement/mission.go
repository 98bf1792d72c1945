package engagement

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/lvlup-app/lvlup/internal/domain"
)

// MissionsPerDay is how many missions a day offers.
const MissionsPerDay = 3

// missionPool is the set of possible daily mission templates.
var missionPool = []domain.MissionTemplate{
	{Type: domain.MissionCompleteTasks, Target: 3, Title: "Complete 3 tasks", XPReward: 30},
	{Type: domain.MissionCompleteTasks, Target: 5, Title: "Complete 5 tasks", XPReward: 60},
	{Type: domain.MissionCompleteHard, Target: 1, Title: "Complete a hard or extreme task", XPReward: 50},
	{Type: domain.MissionCompleteEarly, Target: 2, Title: "Finish 2 tasks ahead of schedule", XPReward: 40},
	{Type: domain.MissionCompletePriority, Target: 2, Title: "Complete 2 high-priority tasks", XPReward: 40},
	{Type: domain.MissionBeforeNoon, Target: 1, Title: "Complete a task before noon", XPReward: 25},
	{Type: domain.MissionBeforeNoon, Target: 3, Title: "Complete 3 tasks before noon", XPReward: 50},
}

// GenerateDailyMissions returns the missions for date. The pick is seeded by
// the date so regenerating the same day yields the same set.
func GenerateDailyMissions(userID, date string) []domain.DailyMission {
	selected := pickUniqueMissions(missionPool, MissionsPerDay, dateSeed(date))

	missions := make([]domain.DailyMission, 0, len(selected))
	for _, tmpl := range selected {
		missions = append(missions, domain.DailyMission{
			ID:       fmt.Sprintf("mission-%s-%s-%s", userID, date, tmpl.Type),
			UserID:   userID,
			Date:     date,
			Type:     tmpl.Type,
			Title:    tmpl.Title,
			Target:   tmpl.Target,
			XPReward: tmpl.XPReward,
		})
	}
	return missions
}

func dateSeed(date string) int64 {
	h := fnv.New64a()
	h.Write([]byte(date))
	return int64(h.Sum64())
}

// pickUniqueMissions selects n templates with distinct types.
func pickUniqueMissions(pool []domain.MissionTemplate, n int, seed int64) []domain.MissionTemplate {
	r := rand.New(rand.NewSource(seed))

	shuffled := make([]domain.MissionTemplate, len(pool))
	copy(shuffled, pool)
	r.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	seen := make(map[domain.MissionType]bool)
	var result []domain.MissionTemplate
	for _, tmpl := range shuffled {
		if len(result) >= n {
			break
		}
		if !seen[tmpl.Type] {
			seen[tmpl.Type] = true
			result = append(result, tmpl)
		}
	}
	return result
}

// MissionProgress returns how much a completion at completedAt advances m.
func MissionProgress(m domain.DailyMission, t domain.Task, completedAt time.Time) int {
	if m.Completed {
		return 0
	}
	switch m.Type {
	case domain.MissionCompleteTasks:
		return 1
	case domain.MissionCompleteHard:
		if t.Difficulty == domain.DifficultyHard || t.Difficulty == domain.DifficultyExtreme {
			return 1
		}
	case domain.MissionCompleteEarly:
		if t.CompletedEarly {
			return 1
		}
	case domain.MissionCompletePriority:
		if t.Priority == domain.PriorityHigh || t.Priority == domain.PriorityUrgent {
			return 1
		}
	case domain.MissionBeforeNoon:
		if completedAt.Hour() < 12 {
			return 1
		}
	}
	return 0
}

// AdvanceMission applies a completion to m and reports whether this
// completion finished it.
func AdvanceMission(m domain.DailyMission, t domain.Task, completedAt time.Time) (domain.DailyMission, bool) {
	delta := MissionProgress(m, t, completedAt)
	if delta == 0 {
		return m, false
	}
	m.Progress += delta
	if m.Progress >= m.Target {
		m.Progress = m.Target
		m.Completed = true
		at := completedAt
		m.CompletedAt = &at
		return m, true
	}
	return m, false
}

// AllMissionsDone is true when missions is non-empty and every one is completed.
func AllMissionsDone(missions []domain.DailyMission) bool {
	if len(missions) == 0 {
		return false
	}
	for _, m := range missions {
		if !m.Completed {
			return false
		}
	}
	return true
}
