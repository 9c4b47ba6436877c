package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"intake/internal/logging"
	"intake/internal/pipeline"
	"intake/internal/queue"
)

// Config bounds the scheduler's concurrency and polling cadence.
type Config struct {
	// MaxConcurrency caps the number of items in flight at once.
	MaxConcurrency int
	// QueuePollInterval is the fallback sweep cadence; mutations wake the
	// scheduler sooner.
	QueuePollInterval time.Duration
	// StatusPollInterval spaces pipeline status checks for one document.
	StatusPollInterval time.Duration
	// MaxStatusChecks is the per-document ceiling before the item is failed
	// with a timeout.
	MaxStatusChecks int
}

func (c *Config) applyDefaults() {
	if c.MaxConcurrency < 1 {
		c.MaxConcurrency = 3
	}
	if c.QueuePollInterval <= 0 {
		c.QueuePollInterval = 2 * time.Second
	}
	if c.StatusPollInterval <= 0 {
		c.StatusPollInterval = 3 * time.Second
	}
	if c.MaxStatusChecks < 1 {
		c.MaxStatusChecks = 200
	}
}

// Scheduler owns the worker pool that moves items through the pipeline.
type Scheduler struct {
	store  *queue.Store
	client pipeline.Client
	cfg    Config
	logger *slog.Logger

	sem  *semaphore.Weighted
	wake chan struct{}

	mu       sync.Mutex
	inflight map[string]context.CancelFunc
}

// New constructs a scheduler bound to a store and pipeline client. It
// registers for removal events so in-flight work is cancelled when its item
// leaves the queue.
func New(store *queue.Store, client pipeline.Client, cfg Config, logger *slog.Logger) *Scheduler {
	cfg.applyDefaults()
	s := &Scheduler{
		store:    store,
		client:   client,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "scheduler"),
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
		wake:     make(chan struct{}, 1),
		inflight: make(map[string]context.CancelFunc),
	}
	store.OnRemove(s.cancelItem)
	store.Subscribe(func(queue.Snapshot) { s.Wake() })
	return s
}

// Wake nudges the admission loop without waiting for the next poll tick.
func (s *Scheduler) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run admits pending items until the context is cancelled, then waits for
// in-flight items to wind down.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.QueuePollInterval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	for {
		s.admitReady(ctx, &wg)
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case <-s.wake:
		case <-ticker.C:
		}
	}
}

// admitReady launches every pending item a free slot can take, FIFO by
// admission sequence.
func (s *Scheduler) admitReady(ctx context.Context, wg *sync.WaitGroup) {
	for {
		item, ok := s.nextPending()
		if !ok {
			return
		}
		if !s.sem.TryAcquire(1) {
			return
		}
		itemCtx, cancel := context.WithCancel(ctx)
		if !s.claim(item.ID, cancel) {
			// Raced with a removal between snapshot and claim.
			cancel()
			s.sem.Release(1)
			continue
		}
		wg.Add(1)
		go func(item queue.Item) {
			defer wg.Done()
			defer s.sem.Release(1)
			defer s.release(item.ID)
			s.drive(itemCtx, item)
		}(item)
	}
}

// nextPending returns the pending item with the lowest admission sequence
// that is not already in flight.
func (s *Scheduler) nextPending() (queue.Item, bool) {
	snapshot := s.store.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()

	var best queue.Item
	found := false
	for _, item := range snapshot {
		if item.Status != queue.StatusPending {
			continue
		}
		if _, busy := s.inflight[item.ID]; busy {
			continue
		}
		if !found || item.Seq < best.Seq {
			best = item
			found = true
		}
	}
	return best, found
}

func (s *Scheduler) claim(id string, cancel context.CancelFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[id]; busy {
		return false
	}
	if _, ok := s.store.Get(id); !ok {
		return false
	}
	s.inflight[id] = cancel
	return true
}

func (s *Scheduler) release(id string) {
	s.mu.Lock()
	cancel, ok := s.inflight[id]
	delete(s.inflight, id)
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

// cancelItem is the store removal hook. Work already dispatched to the
// pipeline may still finish remotely; its result is discarded because the id
// no longer resolves.
func (s *Scheduler) cancelItem(id string) {
	s.mu.Lock()
	cancel, ok := s.inflight[id]
	s.mu.Unlock()
	if ok {
		cancel()
	}
}
