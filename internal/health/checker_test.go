package health

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lvlup-app/lvlup/internal/infra/sqlite"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := sqlite.Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func statusOf(t *testing.T, c *Checker, name string) Status {
	t.Helper()
	for _, s := range c.Statuses() {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("check %q not found in statuses", name)
	return Status{}
}

// ─── Checker Tests ──────────────────────────────────────────────────────────

func TestNewChecker(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir())
	if len(c.checks) != 2 {
		t.Errorf("checks = %d, want 2", len(c.checks))
	}

	c = NewChecker(newTestDB(t), t.TempDir(), Check{Name: "rollover", CheckFn: func(context.Context) error { return nil }})
	if len(c.checks) != 3 {
		t.Errorf("checks with extra = %d, want 3", len(c.checks))
	}
}

func TestChecker_RunOnceHealthy(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir())
	c.RunOnce(context.Background())

	statuses := c.Statuses()
	if len(statuses) != 2 {
		t.Fatalf("Statuses() = %d, want 2", len(statuses))
	}
	for _, s := range statuses {
		if !s.Healthy {
			t.Errorf("check %q should be healthy, got error: %s", s.Name, s.Error)
		}
	}
	if !c.IsHealthy() {
		t.Error("IsHealthy() should be true when all checks pass")
	}
}

func TestChecker_IsHealthy_BeforeRun(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir())
	if !c.IsHealthy() {
		t.Error("IsHealthy() should be true before first run (no statuses)")
	}
}

func TestChecker_SQLiteClosed(t *testing.T) {
	db := newTestDB(t)
	c := NewChecker(db, t.TempDir())
	db.Close()

	c.RunOnce(context.Background())
	if s := statusOf(t, c, "sqlite"); s.Healthy {
		t.Error("sqlite check should fail on a closed database")
	}
	if c.IsHealthy() {
		t.Error("IsHealthy() should be false")
	}
}

func TestChecker_DataDirRecovered(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	c := NewChecker(newTestDB(t), dir)
	c.RunOnce(context.Background())

	s := statusOf(t, c, "data_dir")
	if !s.Healthy || !s.Recovered {
		t.Errorf("data_dir = %+v, want healthy after recovery", s)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("data dir not created: %v", err)
	}
}

func TestChecker_DataDirIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	if err := os.WriteFile(path, []byte("not a dir"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewChecker(newTestDB(t), path)
	c.RunOnce(context.Background())

	if s := statusOf(t, c, "data_dir"); s.Healthy || s.Error == "" {
		t.Errorf("data_dir = %+v, want failure when path is a file", s)
	}
}

func TestChecker_RecoveryFlow(t *testing.T) {
	broken := true
	recovered := 0
	c := &Checker{
		checks: []Check{
			{
				Name: "rollover",
				CheckFn: func(ctx context.Context) error {
					if broken {
						return errors.New("stale")
					}
					return nil
				},
				RecoverFn: func(ctx context.Context) error {
					recovered++
					broken = false
					return nil
				},
			},
		},
	}

	c.RunOnce(context.Background())
	s := c.Statuses()[0]
	if !s.Healthy || !s.Recovered || recovered != 1 {
		t.Errorf("status = %+v, recoveries = %d", s, recovered)
	}

	c.RunOnce(context.Background())
	if s := c.Statuses()[0]; s.Recovered || recovered != 1 {
		t.Errorf("second run should not recover again: %+v, recoveries = %d", s, recovered)
	}
}

func TestChecker_FailingRecovery(t *testing.T) {
	c := &Checker{
		checks: []Check{
			{
				Name:      "always_fail",
				CheckFn:   func(ctx context.Context) error { return os.ErrPermission },
				RecoverFn: func(ctx context.Context) error { return errors.New("no luck") },
			},
		},
	}
	c.RunOnce(context.Background())

	s := c.Statuses()[0]
	if s.Healthy || s.Recovered {
		t.Error("always_fail check should not be healthy")
	}
	if s.Error == "" {
		t.Error("error message should be populated")
	}
}

func TestChecker_StatusesCopy(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir())
	c.RunOnce(context.Background())

	s1 := c.Statuses()
	s2 := c.Statuses()
	s1[0].Healthy = false
	if !s2[0].Healthy {
		t.Error("Statuses() should return a copy, not a reference")
	}
}
