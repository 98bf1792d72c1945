package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lvlup-app/lvlup/internal/app/store"
	"github.com/lvlup-app/lvlup/internal/domain"
)

const defaultListLimit = 50

// ─── Profile & Progress ─────────────────────────────────────────────────────

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.store.User()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	progress, err := s.store.LevelProgress()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":         u,
		"level":        progress,
		"progress_pct": progress.Pct(),
	})
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.User(); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"achievements": s.store.Achievements(),
	})
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	streak, err := s.store.Streak()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, streak)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRecomputeStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.RecomputeStats(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleMissions(w http.ResponseWriter, r *http.Request) {
	missions, err := s.store.TodayMissions(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"missions": missions})
}

func (s *Server) handleXPHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	entries, err := s.store.XPHistory(r.Context(), limit)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

// handleListTasks returns every task, or the tasks due in [from, to] when
// both query parameters are given.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if from == "" && to == "" {
		if _, err := s.store.User(); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": s.store.Tasks()})
		return
	}
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to must be given together")
		return
	}
	tasks, err := s.store.TasksInRange(r.Context(), from, to)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

func (s *Server) handleTasksForMonth(w http.ResponseWriter, r *http.Request) {
	month, err := time.Parse("2006-01", chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}
	tasks, err := s.store.TasksForMonth(r.Context(), month.Year(), int(month.Month()))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var in domain.TaskInput
	if err := decodeJSON(r, &in); err != nil {
		writeStoreError(w, err)
		return
	}
	task, err := s.store.AddTask(r.Context(), in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var in domain.TaskInput
	if err := decodeJSON(r, &in); err != nil {
		writeStoreError(w, err)
		return
	}
	task, err := s.store.UpdateTask(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	res, err := s.store.CompleteTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	task, res, err := s.store.ToggleTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Task       domain.Task             `json:"task"`
		Completion *store.CompletionResult `json:"completion,omitempty"`
	}{task, res})
}

// ─── Goals ──────────────────────────────────────────────────────────────────

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.store.Goals(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"goals": goals})
}

func (s *Server) handleAddGoal(w http.ResponseWriter, r *http.Request) {
	var in domain.GoalInput
	if err := decodeJSON(r, &in); err != nil {
		writeStoreError(w, err)
		return
	}
	goal, err := s.store.AddGoal(r.Context(), in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

func (s *Server) handleCompleteGoal(w http.ResponseWriter, r *http.Request) {
	goal, change, err := s.store.CompleteGoal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"goal": goal,
		"xp":   change,
	})
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteGoal(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Notifications ──────────────────────────────────────────────────────────

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	list, err := s.store.Notifications(r.Context(), limit)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": list})
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "notification id must be an integer")
		return
	}
	if err := s.store.MarkNotificationRead(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, domain.NewValidationError("limit", raw, "must be a positive integer")
	}
	return n, nil
}
