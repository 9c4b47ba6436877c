package daemon

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"intake/internal/config"
	"intake/internal/history"
	"intake/internal/logging"
	"intake/internal/notifications"
	"intake/internal/pipeline"
	"intake/internal/queue"
	"intake/internal/testsupport"
)

type stubPipeline struct {
	uploadFn func(ctx context.Context, req pipeline.UploadRequest, onProgress func(int)) (pipeline.UploadResult, error)
	statusFn func(ctx context.Context, documentID string) (pipeline.StatusResult, error)
}

func (s *stubPipeline) Upload(ctx context.Context, req pipeline.UploadRequest, onProgress func(int)) (pipeline.UploadResult, error) {
	if s.uploadFn == nil {
		return pipeline.UploadResult{DocumentID: "doc-" + req.FileName}, nil
	}
	return s.uploadFn(ctx, req, onProgress)
}

func (s *stubPipeline) Status(ctx context.Context, documentID string) (pipeline.StatusResult, error) {
	if s.statusFn == nil {
		return pipeline.StatusResult{State: pipeline.StateCompleted, DocumentType: queue.DocumentPhoto}, nil
	}
	return s.statusFn(ctx, documentID)
}

func newTestDaemon(t *testing.T, opts ...testsupport.ConfigOption) *Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	d, err := New(cfg, logging.NewNop(), Options{
		Pipeline: &stubPipeline{},
		Notifier: notifications.NewService(cfg),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func startDaemon(t *testing.T, d *Daemon) {
	t.Helper()
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(d.Stop)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func TestDaemonSingleInstance(t *testing.T) {
	d := newTestDaemon(t)
	startDaemon(t, d)

	second, err := New(d.cfg, logging.NewNop(), Options{Pipeline: &stubPipeline{}})
	if err != nil {
		t.Fatalf("New second daemon: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second daemon acquired the lock")
	}
}

func TestDaemonStartTwiceFails(t *testing.T) {
	d := newTestDaemon(t)
	startDaemon(t, d)
	if err := d.Start(context.Background()); err == nil {
		t.Fatal("second Start should fail while running")
	}
}

func TestEnqueueValidatesInput(t *testing.T) {
	d := newTestDaemon(t)

	if _, err := d.Enqueue(EnqueueRequest{Paths: []string{filepath.Join(t.TempDir(), "absent.pdf")}}); err == nil {
		t.Fatal("missing file should be rejected")
	}

	path := filepath.Join(t.TempDir(), "fnol.pdf")
	testsupport.WriteFile(t, path, 128)
	if _, err := d.Enqueue(EnqueueRequest{Paths: []string{path}, DocumentType: "blueprint"}); err == nil {
		t.Fatal("unknown document type should be rejected")
	} else if !errors.Is(err, queue.ErrInvalidOperation) {
		t.Fatalf("err = %v, want ErrInvalidOperation", err)
	}

	ids, err := d.Enqueue(EnqueueRequest{
		Paths:        []string{path},
		DocumentType: "fnol",
		ClaimID:      "clm-1",
		ClaimNumber:  "CLM-2026-0001",
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	item, ok := d.GetItem(ids[0])
	if !ok {
		t.Fatal("enqueued item not found")
	}
	if item.DocumentType != queue.DocumentFNOL {
		t.Errorf("DocumentType = %q, want fnol", item.DocumentType)
	}
	if item.Claim == nil || item.Claim.ClaimNumber != "CLM-2026-0001" {
		t.Errorf("Claim = %+v", item.Claim)
	}
	if item.FileSizeBytes != 128 {
		t.Errorf("FileSizeBytes = %d, want 128", item.FileSizeBytes)
	}
}

func TestDaemonProcessesEnqueuedDocument(t *testing.T) {
	d := newTestDaemon(t)
	startDaemon(t, d)

	path := filepath.Join(t.TempDir(), "roof.jpg")
	testsupport.WriteFile(t, path, 64)
	ids, err := d.Enqueue(EnqueueRequest{Paths: []string{path}, DocumentType: "photo"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	waitFor(t, 10*time.Second, func() bool {
		item, ok := d.GetItem(ids[0])
		return ok && item.Status == queue.StatusCompleted
	}, "document completion")
}

func TestListQueueClaimFilter(t *testing.T) {
	d := newTestDaemon(t)

	dir := t.TempDir()
	first := filepath.Join(dir, "a.pdf")
	second := filepath.Join(dir, "b.pdf")
	testsupport.WriteFile(t, first, 1)
	testsupport.WriteFile(t, second, 1)

	if _, err := d.Enqueue(EnqueueRequest{Paths: []string{first}, DocumentType: "policy", ClaimNumber: "CLM-2026-0001"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := d.Enqueue(EnqueueRequest{Paths: []string{second}, DocumentType: "policy"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	all := d.ListQueue("")
	if len(all) != 2 {
		t.Fatalf("unfiltered list has %d items, want 2", len(all))
	}
	filtered := d.ListQueue("CLM-2026-0001")
	if len(filtered) != 1 || filtered[0].FileName != "a.pdf" {
		t.Fatalf("claim filter returned %+v", filtered)
	}
}

func TestAutoClearCompletedAfterIdle(t *testing.T) {
	d := newTestDaemon(t, func(cfg *config.Config) {
		cfg.Workflow.AutoClearCompletedAfter = 1
	})
	startDaemon(t, d)

	path := filepath.Join(t.TempDir(), "photo.jpg")
	testsupport.WriteFile(t, path, 16)
	if _, err := d.Enqueue(EnqueueRequest{Paths: []string{path}, DocumentType: "photo"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	waitFor(t, 10*time.Second, func() bool {
		return len(d.Store().Snapshot()) == 0
	}, "auto-clear sweep")
}

func TestWatcherEnqueuesStableFiles(t *testing.T) {
	watchDir := t.TempDir()
	d := newTestDaemon(t, testsupport.WithWatchDir(watchDir), func(cfg *config.Config) {
		cfg.Workflow.WatchInterval = 1
	})
	startDaemon(t, d)

	testsupport.WriteFile(t, filepath.Join(watchDir, "dropped.pdf"), 256)

	waitFor(t, 10*time.Second, func() bool {
		for _, item := range d.Store().Snapshot() {
			if item.FileName == "dropped.pdf" {
				return true
			}
		}
		return false
	}, "watched file pickup")
}

func TestHistoryDisabled(t *testing.T) {
	d := newTestDaemon(t)
	if _, err := d.History(context.Background(), history.ListOptions{}); err == nil {
		t.Fatal("History should fail when the journal is disabled")
	}
}

func TestHistoryRecordsTerminalItems(t *testing.T) {
	d := newTestDaemon(t, testsupport.WithHistory())
	startDaemon(t, d)

	path := filepath.Join(t.TempDir(), "est.pdf")
	testsupport.WriteFile(t, path, 32)
	ids, err := d.Enqueue(EnqueueRequest{Paths: []string{path}, DocumentType: "estimate"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	waitFor(t, 10*time.Second, func() bool {
		item, ok := d.GetItem(ids[0])
		return ok && item.Status == queue.StatusCompleted
	}, "document completion")

	waitFor(t, 5*time.Second, func() bool {
		entries, err := d.History(context.Background(), history.ListOptions{})
		return err == nil && len(entries) == 1
	}, "history entry")
}
