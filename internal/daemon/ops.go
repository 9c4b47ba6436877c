package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"intake/internal/history"
	"intake/internal/queue"
)

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	LockFilePath string
	HistoryPath  string
	Stats        queue.Stats
}

// CurrentStatus summarizes the daemon and its queue.
func (d *Daemon) CurrentStatus() Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          d.PID(),
		LockFilePath: d.lockPath,
		Stats:        queue.ComputeStats(d.store.Snapshot()),
	}
	if d.journal != nil {
		status.HistoryPath = d.cfg.HistoryPath()
	}
	return status
}

// EnqueueRequest describes an enqueue operation from a client.
type EnqueueRequest struct {
	Paths        []string
	DocumentType string
	ClaimID      string
	ClaimNumber  string
}

// Enqueue validates the request, stats each file, and admits the batch.
func (d *Daemon) Enqueue(req EnqueueRequest) ([]string, error) {
	docType := queue.DocumentAuto
	if trimmed := strings.TrimSpace(req.DocumentType); trimmed != "" {
		parsed, ok := queue.ParseDocumentType(trimmed)
		if !ok {
			return nil, fmt.Errorf("%w: unknown document type %q", queue.ErrInvalidOperation, req.DocumentType)
		}
		docType = parsed
	}

	files := make([]queue.FileRef, 0, len(req.Paths))
	for _, path := range req.Paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", queue.ErrInvalidOperation, path)
		}
		files = append(files, queue.FileRef{
			Path:      path,
			Name:      filepath.Base(path),
			SizeBytes: info.Size(),
		})
	}

	opts := queue.EnqueueOptions{DocumentType: docType}
	if req.ClaimID != "" || req.ClaimNumber != "" {
		opts.Claim = &queue.ClaimAssociation{ClaimID: req.ClaimID, ClaimNumber: req.ClaimNumber}
	}

	ids, err := d.store.Enqueue(files, opts)
	if err != nil {
		return nil, err
	}
	d.sched.Wake()
	return ids, nil
}

// ListQueue returns the queue snapshot, optionally filtered by claim id or
// claim number.
func (d *Daemon) ListQueue(claim string) queue.Snapshot {
	snapshot := d.store.Snapshot()
	claim = strings.TrimSpace(claim)
	if claim == "" {
		return snapshot
	}
	filtered := make(queue.Snapshot, 0, len(snapshot))
	for _, item := range snapshot {
		if item.Claim == nil {
			continue
		}
		if item.Claim.ClaimID == claim || item.Claim.ClaimNumber == claim {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// GetItem fetches one queue item.
func (d *Daemon) GetItem(id string) (queue.Item, bool) {
	return d.store.Get(id)
}

// Remove deletes one item regardless of status.
func (d *Daemon) Remove(id string) bool {
	return d.store.Remove(id)
}

// Retry re-admits one failed item.
func (d *Daemon) Retry(id string) error {
	return d.retry.Retry(id)
}

// RetryAll re-admits every failed item and returns the count.
func (d *Daemon) RetryAll() int {
	return d.retry.RetryAll()
}

// ClearCompleted removes completed items.
func (d *Daemon) ClearCompleted() int { return d.store.ClearCompleted() }

// ClearFailed removes failed items.
func (d *Daemon) ClearFailed() int { return d.store.ClearFailed() }

// Clear removes every item, cancelling in-flight work.
func (d *Daemon) Clear() int { return d.store.Clear() }

// History lists journal entries. It fails when the journal is disabled.
func (d *Daemon) History(ctx context.Context, opts history.ListOptions) ([]history.Entry, error) {
	if d.journal == nil {
		return nil, fmt.Errorf("history journal is disabled")
	}
	return d.journal.List(ctx, opts)
}

// TestNotification sends a test push through the configured notifier.
func (d *Daemon) TestNotification(ctx context.Context) error {
	return d.notifier.TestNotification(ctx)
}
