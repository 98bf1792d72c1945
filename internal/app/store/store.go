// Package store is the aggregate application state for lvlup. It owns the
// in-memory caches of the user, tasks, achievements and streak, and runs
// every mutation as an ordered sequence of persisted steps:
//
//	complete write → XP → secret events → missions → achievements → streak
//
// Each step reads the persisted result of the one before it. A failure
// stops the sequence and is returned; steps already written stay written.
package store

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lvlup-app/lvlup/internal/app/calendar"
	"github.com/lvlup-app/lvlup/internal/app/engagement"
	"github.com/lvlup-app/lvlup/internal/domain"
	"github.com/lvlup-app/lvlup/internal/infra/metrics"
)

// Options tunes a Store. The zero value is usable.
type Options struct {
	// NewID generates entity ids. Defaults to uuid.NewString.
	NewID func() string
	// GoalReminderTime is the HH:mm at which goal reminders fire.
	GoalReminderTime string
	// Debug enables one log line per successful operation.
	Debug bool
}

// Store coordinates the engines and the repository. Safe for concurrent use.
type Store struct {
	repo     domain.Repository
	notifier domain.Notifier
	clock    calendar.Clock
	opts     Options

	// write serializes mutation pipelines; user XP is read-modify-write.
	write sync.Mutex

	inflightMu sync.Mutex
	inflight   map[string]struct{}

	mu           sync.RWMutex
	user         *domain.User
	tasks        []domain.Task
	achievements []domain.Achievement
	streak       *domain.Streak
}

// New creates a Store. A nil notifier disables reminders; a nil clock uses
// the system clock in time.Local.
func New(repo domain.Repository, notifier domain.Notifier, clock calendar.Clock, opts Options) *Store {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if clock == nil {
		clock = calendar.SystemClock{}
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.GoalReminderTime == "" {
		opts.GoalReminderTime = "09:00"
	}
	return &Store{
		repo:     repo,
		notifier: notifier,
		clock:    clock,
		opts:     opts,
		inflight: make(map[string]struct{}),
	}
}

type nopNotifier struct{}

func (nopNotifier) Schedule(context.Context, domain.Reminder) (string, error) {
	return "", nil
}

func (nopNotifier) Cancel(context.Context, string) error { return nil }

// ─── Lifecycle ──────────────────────────────────────────────────────────────

// Load reads the existing profile into the caches. It returns
// domain.ErrNoUser when the database has no user yet.
func (s *Store) Load(ctx context.Context) (err error) {
	defer s.observe("load", time.Now(), &err)

	u, err := s.repo.FirstUser(ctx)
	if domain.IsNotFound(err) {
		return domain.ErrNoUser
	}
	if err != nil {
		return err
	}

	// Catalog growth: instantiate definitions added since the user was seeded.
	existing, err := s.repo.ListAchievements(ctx, u.ID)
	if err != nil {
		return err
	}
	if missing := engagement.Missing(u.ID, existing); len(missing) > 0 {
		if err := s.repo.InsertAchievements(ctx, missing); err != nil {
			return err
		}
		log.Printf("[store] added %d new achievements to profile %s", len(missing), u.ID)
	}

	return s.reload(ctx, u.ID)
}

// Bootstrap loads the existing profile or, when there is none, creates one
// named name together with its streak, achievements and an empty stats row.
// The second return value reports whether a profile was created.
func (s *Store) Bootstrap(ctx context.Context, name string) (domain.User, bool, error) {
	err := s.Load(ctx)
	if err == nil {
		u, err := s.User()
		return u, false, err
	}
	if err != domain.ErrNoUser {
		return domain.User{}, false, err
	}
	if name == "" {
		return domain.User{}, false, domain.NewValidationError("name", "", "is required")
	}

	now := s.clock.Now()
	id := s.opts.NewID()
	p := engagement.Progress(0)
	u := domain.User{
		ID:             id,
		Name:           name,
		CurrentLevel:   p.CurrentLevel,
		CurrentLevelXP: p.CurrentLevelXP,
		NextLevelXP:    p.NextLevelXP,
		Category:       p.Category,
		CreatedAt:      now,
		LastActivity:   now,
	}
	streak := domain.Streak{ID: "streak-" + id, UserID: id, CreatedAt: now, UpdatedAt: now}
	achievements := engagement.Instantiate(id)
	stats := engagement.ComputeStats(id, nil, streak, achievements, now)

	if err := s.repo.SeedUser(ctx, u, streak, achievements, stats); err != nil {
		log.Printf("[store] bootstrap failed: %v", err)
		return domain.User{}, false, err
	}
	log.Printf("[store] created profile %s (%s)", name, id)

	if err := s.reload(ctx, id); err != nil {
		return domain.User{}, false, err
	}
	return u, true, nil
}

// Refresh re-reads every cache from the repository.
func (s *Store) Refresh(ctx context.Context) error {
	id, err := s.userID()
	if err != nil {
		return err
	}
	return s.reload(ctx, id)
}

// reload replaces all caches at once. On error the caches are untouched.
func (s *Store) reload(ctx context.Context, userID string) error {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	tasks, err := s.repo.ListTasks(ctx, userID)
	if err != nil {
		return err
	}
	achievements, err := s.repo.ListAchievements(ctx, userID)
	if err != nil {
		return err
	}
	streak, err := s.repo.GetStreak(ctx, userID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.user = u
	s.tasks = tasks
	s.achievements = achievements
	s.streak = streak
	s.mu.Unlock()

	metrics.LevelCurrent.Set(float64(u.CurrentLevel))
	metrics.StreakCurrent.Set(float64(engagement.EffectiveStreak(*streak, s.clock.Now())))
	return nil
}

// ─── Snapshots ──────────────────────────────────────────────────────────────

// User returns a copy of the cached profile.
func (s *Store) User() (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.User{}, domain.ErrNoUser
	}
	return *s.user, nil
}

// Tasks returns a copy of the cached task list.
func (s *Store) Tasks() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Achievements returns a copy of the cached achievement list.
func (s *Store) Achievements() []domain.Achievement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Achievement, len(s.achievements))
	copy(out, s.achievements)
	return out
}

// Streak returns the cached streak with IsActive evaluated at the current time.
func (s *Store) Streak() (domain.Streak, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.streak == nil {
		return domain.Streak{}, domain.ErrNoUser
	}
	return engagement.Refresh(*s.streak, s.clock.Now()), nil
}

// LevelProgress returns the user's position on the leveling curve.
func (s *Store) LevelProgress() (engagement.LevelProgress, error) {
	u, err := s.User()
	if err != nil {
		return engagement.LevelProgress{}, err
	}
	return engagement.Progress(u.TotalXP), nil
}

// ─── Internals ──────────────────────────────────────────────────────────────

func (s *Store) userID() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return "", domain.ErrNoUser
	}
	return s.user.ID, nil
}

// acquire marks key as in flight. A second caller for the same key fails
// fast with ErrBusy instead of queueing behind the first.
func (s *Store) acquire(key string) (func(), error) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if _, busy := s.inflight[key]; busy {
		metrics.StoreBusyRejections.Inc()
		return nil, fmt.Errorf("%s: %w", key, domain.ErrBusy)
	}
	s.inflight[key] = struct{}{}
	return func() {
		s.inflightMu.Lock()
		delete(s.inflight, key)
		s.inflightMu.Unlock()
	}, nil
}

// lockEntity acquires the in-flight guard for key and then the write lock.
func (s *Store) lockEntity(key string) (func(), error) {
	release, err := s.acquire(key)
	if err != nil {
		return nil, err
	}
	s.write.Lock()
	return func() {
		s.write.Unlock()
		release()
	}, nil
}

// observe records latency and failures of one store operation.
func (s *Store) observe(op string, start time.Time, err *error) {
	metrics.StoreOpLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if *err != nil {
		metrics.StoreOpErrors.WithLabelValues(op).Inc()
		log.Printf("[store] %s failed: %v", op, *err)
		return
	}
	if s.opts.Debug {
		log.Printf("[store] %s ok (%s)", op, time.Since(start).Round(time.Microsecond))
	}
}
