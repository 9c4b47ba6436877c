package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"intake/internal/config"
	"intake/internal/history"
	"intake/internal/logging"
	"intake/internal/notifications"
	"intake/internal/pipeline"
	"intake/internal/queue"
	"intake/internal/scheduler"
)

// Daemon coordinates the background ingestion services and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	sched    *scheduler.Scheduler
	retry    *queue.RetryController
	notifier notifications.Service
	journal  *history.Store

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	clearMu    sync.Mutex
	clearTimer *time.Timer

	watcher *watcher
}

// Options overrides daemon collaborators, mainly for tests. Nil fields fall
// back to production implementations built from the config.
type Options struct {
	Pipeline pipeline.Client
	Notifier notifications.Service
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, opts Options) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	client := opts.Pipeline
	if client == nil {
		client = pipeline.NewHTTPClient(pipeline.Options{
			BaseURL:        cfg.Pipeline.BaseURL,
			AuthToken:      cfg.Pipeline.AuthToken,
			RequestTimeout: time.Duration(cfg.Pipeline.RequestTimeout) * time.Second,
			UploadTimeout:  time.Duration(cfg.Pipeline.UploadTimeout) * time.Second,
		})
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	store := queue.NewStore()
	sched := scheduler.New(store, client, scheduler.Config{
		MaxConcurrency:     cfg.Workflow.MaxConcurrency,
		QueuePollInterval:  time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		StatusPollInterval: time.Duration(cfg.Workflow.StatusPollInterval) * time.Second,
		MaxStatusChecks:    cfg.Workflow.MaxStatusChecks,
	}, logger)

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		sched:    sched,
		retry:    queue.NewRetryController(store, sched),
		notifier: notifier,
		lockPath: filepath.Join(cfg.Paths.LogDir, "intaked.lock"),
	}
	d.lock = flock.New(d.lockPath)

	if cfg.History.Enabled {
		journal, err := history.Open(cfg.HistoryPath())
		if err != nil {
			return nil, fmt.Errorf("open history journal: %w", err)
		}
		d.journal = journal
	}
	if cfg.Paths.WatchDir != "" {
		d.watcher = newWatcher(cfg.Paths.WatchDir, time.Duration(cfg.Workflow.WatchInterval)*time.Second, store, logger)
	}

	notifierEvents := queue.NewCompletionNotifier(queue.CompletionEvents{
		ItemCompleted: d.onItemCompleted,
		ItemFailed:    d.onItemFailed,
		BatchIdle:     d.onBatchIdle,
	})
	notifierEvents.Attach(store)

	return d, nil
}

// Store exposes the queue store for in-process callers.
func (d *Daemon) Store() *queue.Store { return d.store }

// Start acquires the daemon lock and launches the scheduler and watcher.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another intake daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.running.Store(true)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.sched.Run(d.ctx)
	}()
	if d.watcher != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.watcher.run(d.ctx)
		}()
	}
	if d.journal != nil && d.cfg.History.RetentionDays > 0 {
		retention := time.Duration(d.cfg.History.RetentionDays) * 24 * time.Hour
		if removed, err := d.journal.Prune(d.ctx, retention); err != nil {
			d.logger.Warn("history prune failed", logging.Error(err))
		} else if removed > 0 {
			d.logger.Info("history pruned", logging.Int64("removed", removed))
		}
	}

	d.logger.Info("daemon started",
		logging.Int("max_concurrency", d.cfg.Workflow.MaxConcurrency),
		logging.Bool("watching", d.watcher != nil),
	)
	return nil
}

// Stop winds down background work and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.clearMu.Lock()
	if d.clearTimer != nil {
		d.clearTimer.Stop()
		d.clearTimer = nil
	}
	d.clearMu.Unlock()

	d.cancel()
	d.wg.Wait()
	d.running.Store(false)
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release lock failed", logging.Error(err))
	}
	if d.journal != nil {
		if err := d.journal.Close(); err != nil {
			d.logger.Warn("close history journal failed", logging.Error(err))
		}
	}
	d.logger.Info("daemon stopped")
}

// Running reports whether background processing is active.
func (d *Daemon) Running() bool { return d.running.Load() }

func (d *Daemon) onItemCompleted(item queue.Item) {
	d.logger.Info("document ingested",
		logging.String(logging.FieldItemID, item.ID),
		logging.String(logging.FieldFileName, item.FileName),
		logging.String(logging.FieldDocumentType, string(item.DocumentType)),
	)
	d.journalRecord(item)
	if err := d.notifier.NotifyDocumentCompleted(d.notifyCtx(), item); err != nil {
		d.logger.Warn("completion notification failed", logging.Error(err))
	}
}

func (d *Daemon) onItemFailed(item queue.Item) {
	d.journalRecord(item)
	if err := d.notifier.NotifyDocumentFailed(d.notifyCtx(), item); err != nil {
		d.logger.Warn("failure notification failed", logging.Error(err))
	}
}

// onBatchIdle fires when the queue drains. A clean batch optionally schedules
// the auto-clear sweep; any new activity before the timer fires cancels it.
func (d *Daemon) onBatchIdle(stats queue.Stats) {
	if err := d.notifier.NotifyBatchCompleted(d.notifyCtx(), stats); err != nil {
		d.logger.Warn("batch notification failed", logging.Error(err))
	}

	delay := time.Duration(d.cfg.Workflow.AutoClearCompletedAfter) * time.Second
	if delay <= 0 || stats.Failed > 0 {
		return
	}
	d.clearMu.Lock()
	defer d.clearMu.Unlock()
	if d.clearTimer != nil {
		d.clearTimer.Stop()
	}
	d.clearTimer = time.AfterFunc(delay, func() {
		current := queue.ComputeStats(d.store.Snapshot())
		if current.IsActive || current.Failed > 0 {
			return
		}
		if removed := d.store.ClearCompleted(); removed > 0 {
			d.logger.Info("auto-cleared completed items", logging.Int("removed", removed))
		}
	})
}

func (d *Daemon) journalRecord(item queue.Item) {
	if d.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.journal.Record(ctx, item); err != nil {
		d.logger.Warn("history record failed",
			logging.String(logging.FieldItemID, item.ID),
			logging.Error(err),
		)
	}
}

func (d *Daemon) notifyCtx() context.Context {
	if d.ctx != nil {
		return d.ctx
	}
	return context.Background()
}

// LockPath returns the daemon lock file location.
func (d *Daemon) LockPath() string { return d.lockPath }

// PID returns the daemon process id for status reporting.
func (d *Daemon) PID() int { return os.Getpid() }
