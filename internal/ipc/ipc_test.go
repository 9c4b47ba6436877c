package ipc

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"intake/internal/daemon"
	"intake/internal/logging"
	"intake/internal/pipeline"
	"intake/internal/queue"
	"intake/internal/testsupport"
)

type stubPipeline struct{}

func (stubPipeline) Upload(ctx context.Context, req pipeline.UploadRequest, onProgress func(int)) (pipeline.UploadResult, error) {
	return pipeline.UploadResult{DocumentID: "doc-" + req.FileName}, nil
}

func (stubPipeline) Status(ctx context.Context, documentID string) (pipeline.StatusResult, error) {
	return pipeline.StatusResult{State: pipeline.StateCompleted, DocumentType: queue.DocumentPhoto}, nil
}

func newTestEndpoint(t *testing.T) (*daemon.Daemon, *Client) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	d, err := daemon.New(cfg, logging.NewNop(), daemon.Options{Pipeline: stubPipeline{}})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	server, err := NewServer(ctx, cfg.SocketPath(), d, logging.NewNop())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	client, err := Dial(cfg.SocketPath())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return d, client
}

func TestStatusRoundTrip(t *testing.T) {
	_, client := newTestEndpoint(t)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Running {
		t.Error("daemon should not report running before Start")
	}
	if status.PID <= 0 {
		t.Errorf("PID = %d", status.PID)
	}
	if status.Stats.Total != 0 {
		t.Errorf("Stats.Total = %d, want 0", status.Stats.Total)
	}
}

func TestEnqueueListRemoveRoundTrip(t *testing.T) {
	_, client := newTestEndpoint(t)

	path := filepath.Join(t.TempDir(), "fnol.pdf")
	testsupport.WriteFile(t, path, 64)

	enq, err := client.Enqueue(EnqueueRequest{
		Paths:        []string{path},
		DocumentType: "fnol",
		ClaimNumber:  "CLM-2026-0001",
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if len(enq.IDs) != 1 {
		t.Fatalf("got %d ids, want 1", len(enq.IDs))
	}

	list, err := client.QueueList(QueueListRequest{})
	if err != nil {
		t.Fatalf("QueueList: %v", err)
	}
	if len(list.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(list.Items))
	}
	item := list.Items[0]
	if item.ID != enq.IDs[0] || item.Status != "pending" || item.DocumentType != "fnol" {
		t.Fatalf("item = %+v", item)
	}
	if item.ClaimNumber != "CLM-2026-0001" {
		t.Errorf("ClaimNumber = %q", item.ClaimNumber)
	}
	if _, err := time.Parse(time.RFC3339, item.CreatedAt); err != nil {
		t.Errorf("CreatedAt %q not RFC3339: %v", item.CreatedAt, err)
	}

	filtered, err := client.QueueList(QueueListRequest{Claim: "CLM-9999-0000"})
	if err != nil {
		t.Fatalf("QueueList filtered: %v", err)
	}
	if len(filtered.Items) != 0 {
		t.Fatalf("claim filter returned %d items, want 0", len(filtered.Items))
	}

	removed, err := client.QueueRemove(enq.IDs[0])
	if err != nil {
		t.Fatalf("QueueRemove: %v", err)
	}
	if !removed.Removed {
		t.Fatal("Removed = false")
	}
	removed, err = client.QueueRemove(enq.IDs[0])
	if err != nil {
		t.Fatalf("QueueRemove second: %v", err)
	}
	if removed.Removed {
		t.Fatal("second remove should report false")
	}
}

func TestEnqueueRejectsEmptyBatch(t *testing.T) {
	_, client := newTestEndpoint(t)
	if _, err := client.Enqueue(EnqueueRequest{}); err == nil {
		t.Fatal("empty batch should be rejected")
	}
}

func TestQueueRetryOverIPC(t *testing.T) {
	d, client := newTestEndpoint(t)

	path := filepath.Join(t.TempDir(), "photo.jpg")
	testsupport.WriteFile(t, path, 16)
	enq, err := client.Enqueue(EnqueueRequest{Paths: []string{path}, DocumentType: "photo"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	id := enq.IDs[0]

	// Retrying a pending item is invalid.
	if _, err := client.QueueRetry(id); err == nil {
		t.Fatal("retry of a pending item should fail")
	}

	// Drive the item to failed by hand, then retry over the wire.
	mustMutate := func(upd queue.Update) {
		t.Helper()
		if err := d.Store().Mutate(id, upd); err != nil {
			t.Fatalf("Mutate: %v", err)
		}
	}
	uploading := queue.StatusUploading
	failed := queue.StatusFailed
	message := "transfer error: upload: photo.jpg"
	mustMutate(queue.Update{Status: &uploading})
	mustMutate(queue.Update{Status: &failed, ErrorMessage: &message})

	resp, err := client.QueueRetry(id)
	if err != nil {
		t.Fatalf("QueueRetry: %v", err)
	}
	if resp.Updated != 1 {
		t.Fatalf("Updated = %d, want 1", resp.Updated)
	}
	item, _ := d.GetItem(id)
	if item.Status != queue.StatusPending || item.RetryCount != 1 {
		t.Fatalf("item after retry = %+v", item)
	}

	// RetryAll with nothing failed is a no-op.
	resp, err = client.QueueRetry("")
	if err != nil {
		t.Fatalf("QueueRetry all: %v", err)
	}
	if resp.Updated != 0 {
		t.Fatalf("Updated = %d, want 0", resp.Updated)
	}
}

func TestQueueClearScopes(t *testing.T) {
	d, client := newTestEndpoint(t)

	dir := t.TempDir()
	paths := make([]string, 0, 2)
	for _, name := range []string{"a.pdf", "b.pdf"} {
		path := filepath.Join(dir, name)
		testsupport.WriteFile(t, path, 8)
		paths = append(paths, path)
	}
	enq, err := client.Enqueue(EnqueueRequest{Paths: paths, DocumentType: "policy"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	// Nothing is completed yet, so the completed scope removes nothing.
	cleared, err := client.QueueClear("completed")
	if err != nil {
		t.Fatalf("QueueClear: %v", err)
	}
	if cleared.Removed != 0 {
		t.Fatalf("Removed = %d, want 0", cleared.Removed)
	}

	if _, err := client.QueueClear("everything"); err == nil {
		t.Fatal("unknown scope should be rejected")
	}

	cleared, err = client.QueueClear("all")
	if err != nil {
		t.Fatalf("QueueClear all: %v", err)
	}
	if cleared.Removed != len(enq.IDs) {
		t.Fatalf("Removed = %d, want %d", cleared.Removed, len(enq.IDs))
	}
	if len(d.Store().Snapshot()) != 0 {
		t.Fatal("queue should be empty after clear")
	}
}

func TestHistoryDisabledOverIPC(t *testing.T) {
	_, client := newTestEndpoint(t)
	if _, err := client.History(HistoryRequest{}); err == nil {
		t.Fatal("history should fail when the journal is disabled")
	}
}

func TestTestNotificationNoop(t *testing.T) {
	_, client := newTestEndpoint(t)
	resp, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if !resp.Sent {
		t.Fatalf("Sent = false: %s", resp.Message)
	}
}
