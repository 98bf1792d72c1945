// Package metrics provides Prometheus metrics for lvlup.
// Counters, gauges and histograms for store operations, XP, streaks,
// achievements, missions, goals, reminders and health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Store Operations ───────────────────────────────────────────────────────

// StoreOpLatency tracks store operation duration in seconds.
var StoreOpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "lvlup",
	Name:      "store_op_latency_seconds",
	Help:      "Store operation duration in seconds.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
}, []string{"op"})

// StoreOpErrors tracks failed store operations.
var StoreOpErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lvlup",
	Name:      "store_op_errors_total",
	Help:      "Total failed store operations.",
}, []string{"op"})

// StoreBusyRejections tracks mutations rejected because another one on the
// same entity was still in flight.
var StoreBusyRejections = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "lvlup",
	Name:      "store_busy_rejections_total",
	Help:      "Mutations rejected while another change to the same item was in flight.",
})

// ─── Tasks ──────────────────────────────────────────────────────────────────

// TasksCompleted tracks completed tasks by difficulty.
var TasksCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lvlup",
	Name:      "tasks_completed_total",
	Help:      "Total completed tasks.",
}, []string{"difficulty"})

// TasksOverdue tracks tasks flipped to overdue by the rollover.
var TasksOverdue = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "lvlup",
	Name:      "tasks_overdue_total",
	Help:      "Total tasks marked overdue.",
})

// ─── XP & Levels ────────────────────────────────────────────────────────────

// XPAwarded tracks XP movements by source. Penalties are counted as their
// absolute value.
var XPAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lvlup",
	Name:      "xp_awarded_total",
	Help:      "Total XP moved, by source.",
}, []string{"source"})

// LevelCurrent tracks the user's current level.
var LevelCurrent = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "lvlup",
	Name:      "level_current",
	Help:      "Current user level.",
})

// LevelUps tracks level-up events.
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "lvlup",
	Name:      "level_ups_total",
	Help:      "Total level-up events.",
})

// ─── Engagement ─────────────────────────────────────────────────────────────

// StreakCurrent tracks the current streak length in days.
var StreakCurrent = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "lvlup",
	Name:      "streak_current_days",
	Help:      "Current streak length in days.",
})

// AchievementsUnlocked tracks unlocks by rarity.
var AchievementsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lvlup",
	Name:      "achievements_unlocked_total",
	Help:      "Total achievements unlocked.",
}, []string{"rarity"})

// MissionsCompleted tracks finished daily missions.
var MissionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "lvlup",
	Name:      "missions_completed_total",
	Help:      "Total daily missions completed.",
})

// GoalsClosed tracks goals by outcome (completed, failed).
var GoalsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lvlup",
	Name:      "goals_closed_total",
	Help:      "Total goals closed, by outcome.",
}, []string{"outcome"})

// ─── Reminders ──────────────────────────────────────────────────────────────

// RemindersScheduled tracks reminders handed to the scheduler.
var RemindersScheduled = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "lvlup",
	Name:      "reminders_scheduled_total",
	Help:      "Total reminders scheduled.",
})

// RemindersFired tracks reminders delivered.
var RemindersFired = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "lvlup",
	Name:      "reminders_fired_total",
	Help:      "Total reminders delivered.",
})

// RemindersPending tracks reminders waiting to fire.
var RemindersPending = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "lvlup",
	Name:      "reminders_pending",
	Help:      "Number of reminders waiting to fire.",
})

// ─── Rollover ───────────────────────────────────────────────────────────────

// RolloverRuns tracks daily rollover executions by result.
var RolloverRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lvlup",
	Name:      "rollover_runs_total",
	Help:      "Total daily rollover runs, by result.",
}, []string{"result"})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "lvlup",
	Name:      "health_check_status",
	Help:      "Health check result per component (1=healthy, 0=unhealthy).",
}, []string{"check"})

// HealthRecoveries tracks auto-recovery attempts.
var HealthRecoveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lvlup",
	Name:      "health_recoveries_total",
	Help:      "Total auto-recovery attempts per check.",
}, []string{"check"})
