package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/lvlup-app/lvlup/internal/api"
	"github.com/lvlup-app/lvlup/internal/app/calendar"
	"github.com/lvlup-app/lvlup/internal/app/store"
	"github.com/lvlup-app/lvlup/internal/domain"
	"github.com/lvlup-app/lvlup/internal/health"
	"github.com/lvlup-app/lvlup/internal/infra/reminder"
	"github.com/lvlup-app/lvlup/internal/infra/sqlite"
)

// Daemon is the long-running lvlup process. It wires together all services.
type Daemon struct {
	Config    Config
	DB        *sqlite.DB
	Store     *store.Store
	Scheduler *reminder.Scheduler
	Server    *api.Server
	Health    *health.Checker

	cancel  context.CancelFunc
	logFile *os.File

	mu           sync.Mutex
	lastRollover string // YYYY-MM-DD of the last successful rollover
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	logFile, err := SetupLogging(cfg.Logging)
	if err != nil {
		return nil, err
	}

	// The scheduler runs the daily rollover even with reminders disabled.
	sched, err := reminder.New(reminder.Config{
		Policy:    cfg.Reminders.Policy(),
		UntimedAt: cfg.Reminders.UntimedAt,
	})
	if err != nil {
		closeLog(logFile)
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	var notifier domain.Notifier
	if cfg.Reminders.Enabled {
		notifier = sched
	}

	db, st, err := OpenStore(cfg, notifier)
	if err != nil {
		closeLog(logFile)
		return nil, err
	}

	srv := api.NewServer(st)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	d := &Daemon{
		Config:    cfg,
		DB:        db,
		Store:     st,
		Scheduler: sched,
		Server:    srv,
		logFile:   logFile,
	}

	d.Health = health.NewChecker(db, cfg.Data.Dir, health.Check{
		Name:      "rollover",
		CheckFn:   d.checkRollover,
		RecoverFn: d.runRollover,
	})
	srv.SetHealth(d.Health)

	return d, nil
}

// OpenStore opens the database in cfg.Data.Dir and builds a store over it.
// A nil notifier disables reminders, which is what one-shot CLI commands
// want; the serving daemon restores reminders when it starts.
func OpenStore(cfg Config, notifier domain.Notifier) (*sqlite.DB, *store.Store, error) {
	db, err := sqlite.Open(cfg.Data.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	st := store.New(db, notifier, nil, store.Options{
		GoalReminderTime: cfg.Reminders.GoalAt,
		Debug:            cfg.Logging.Level == "debug",
	})
	return db, st, nil
}

// Serve loads the profile, starts background jobs and the HTTP server,
// and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.Store.Load(ctx); err != nil {
		return err
	}

	// Catch up on any day boundary missed while the daemon was down.
	if err := d.runRollover(ctx); err != nil {
		log.Printf("[daemon] start-up rollover failed: %v", err)
	}

	if d.Config.Reminders.Enabled {
		n, err := d.Store.RestoreReminders(ctx)
		if err != nil {
			log.Printf("[daemon] restore reminders: %v", err)
		} else {
			log.Printf("[daemon] restored %d reminders", n)
		}
	}
	if err := d.Scheduler.AddDaily("rollover", d.Config.Rollover.At, func() {
		if err := d.runRollover(ctx); err != nil {
			log.Printf("[daemon] rollover failed: %v", err)
		}
	}); err != nil {
		return err
	}
	d.Scheduler.Start(d.Store)

	go d.Health.Run(ctx)

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
	}()

	fmt.Printf("lvlup serving on http://%s\n", addr)
	fmt.Printf("  Data: %s\n", d.DB.Path())
	fmt.Printf("  Rollover: daily at %s\n", d.Config.Rollover.At)
	if d.Config.Reminders.Enabled {
		fmt.Printf("  Reminders: %d min lead, quiet %s-%s\n",
			d.Config.Reminders.LeadMinutes, d.Config.Reminders.QuietStart, d.Config.Reminders.QuietEnd)
	}
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.Scheduler != nil {
		if err := d.Scheduler.Shutdown(); err != nil {
			log.Printf("[daemon] scheduler shutdown: %v", err)
		}
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
	closeLog(d.logFile)
}

// ─── Rollover ───────────────────────────────────────────────────────────────

// runRollover applies the day-boundary maintenance and records the date.
func (d *Daemon) runRollover(ctx context.Context) error {
	report, err := d.Store.Rollover(ctx)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.lastRollover = report.Date
	d.mu.Unlock()
	return nil
}

// checkRollover fails when today's rollover has not run yet.
func (d *Daemon) checkRollover(ctx context.Context) error {
	d.mu.Lock()
	last := d.lastRollover
	d.mu.Unlock()
	if today := calendar.Today(time.Now()); last != today {
		return fmt.Errorf("last rollover %q, today is %s", last, today)
	}
	return nil
}

// ─── Logging ────────────────────────────────────────────────────────────────

// SetupLogging points the standard logger at cfg.File when set. The
// returned file, if any, is closed by the caller.
func SetupLogging(cfg LoggingConfig) (*os.File, error) {
	log.SetFlags(log.LstdFlags)
	if cfg.File == "" {
		return nil, nil
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	return f, nil
}

func closeLog(f *os.File) {
	if f == nil {
		return
	}
	log.SetOutput(os.Stderr)
	_ = f.Close()
}
