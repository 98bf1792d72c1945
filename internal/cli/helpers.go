package cli

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lvlup-app/lvlup/internal/app/store"
	"github.com/lvlup-app/lvlup/internal/daemon"
	"github.com/lvlup-app/lvlup/internal/domain"
)

// openStore loads the profile from the configured data directory and
// brings it up to date with today's date. CLI commands run without a
// reminder scheduler; `lvlup serve` restores reminders when it starts.
func openStore(ctx context.Context) (*store.Store, func(), error) {
	st, closeFn, err := openRawStore()
	if err != nil {
		return nil, nil, err
	}
	if err := st.Load(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	if _, err := st.Rollover(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("rollover: %w", err)
	}
	return st, closeFn, nil
}

// openRawStore opens the store without loading a profile.
func openRawStore() (*store.Store, func(), error) {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, st, err := daemon.OpenStore(cfg, nil)
	if err != nil {
		return nil, nil, err
	}
	return st, func() { _ = db.Close() }, nil
}

var titleCaser = cases.Title(language.English)

// label turns an enum value like "complete_hard" into "Complete Hard".
func label[T ~string](v T) string {
	return titleCaser.String(strings.ReplaceAll(string(v), "_", " "))
}

// shortID abbreviates a uuid for table output.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// resolveTaskID expands a unique id prefix to the full task id.
func resolveTaskID(st *store.Store, prefix string) (domain.Task, error) {
	var match []domain.Task
	for _, t := range st.Tasks() {
		if t.ID == prefix {
			return t, nil
		}
		if strings.HasPrefix(t.ID, prefix) {
			match = append(match, t)
		}
	}
	return pickOne(match, "task", prefix)
}

// resolveGoalID expands a unique id prefix to the full goal.
func resolveGoalID(ctx context.Context, st *store.Store, prefix string) (domain.Goal, error) {
	goals, err := st.Goals(ctx)
	if err != nil {
		return domain.Goal{}, err
	}
	var match []domain.Goal
	for _, g := range goals {
		if g.ID == prefix {
			return g, nil
		}
		if strings.HasPrefix(g.ID, prefix) {
			match = append(match, g)
		}
	}
	return pickOne(match, "goal", prefix)
}

func pickOne[T any](match []T, entity, prefix string) (T, error) {
	var zero T
	switch len(match) {
	case 0:
		return zero, &domain.NotFoundError{Entity: entity, ID: prefix}
	case 1:
		return match[0], nil
	default:
		return zero, domain.NewValidationError("id", prefix, fmt.Sprintf("matches %d %ss, use more characters", len(match), entity))
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
