package queue

import "testing"

func TestComputeStatsCounts(t *testing.T) {
	store := NewStore()
	ids := enqueueFiles(t, store, EnqueueOptions{DocumentType: DocumentPhoto}, "a.jpg", "b.jpg", "c.jpg", "d.jpg")

	setStatus(t, store, ids[0], StatusUploading)
	setStatus(t, store, ids[1], StatusUploading)
	setStatus(t, store, ids[1], StatusProcessing)
	setStatus(t, store, ids[1], StatusCompleted)
	setStatus(t, store, ids[2], StatusUploading)
	setStatus(t, store, ids[2], StatusFailed)

	stats := ComputeStats(store.Snapshot())
	if stats.Total != 4 || stats.Pending != 1 || stats.Uploading != 1 || stats.Completed != 1 || stats.Failed != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if !stats.IsActive {
		t.Fatal("queue with pending work must be active")
	}
	if stats.OverallProgress != 25 {
		t.Fatalf("OverallProgress = %v, want 25", stats.OverallProgress)
	}
}

func TestComputeStatsIdleStates(t *testing.T) {
	if stats := ComputeStats(nil); stats.IsActive || stats.OverallProgress != 0 {
		t.Fatalf("empty queue stats = %+v", stats)
	}

	store := NewStore()
	id := enqueueFiles(t, store, EnqueueOptions{DocumentType: DocumentPhoto}, "a.jpg")[0]
	setStatus(t, store, id, StatusUploading)
	setStatus(t, store, id, StatusFailed)

	stats := ComputeStats(store.Snapshot())
	if stats.IsActive {
		t.Fatal("failed-only queue is idle; failures wait for manual retry")
	}
	if stats.OverallProgress != 0 {
		t.Fatalf("OverallProgress = %v, want 0", stats.OverallProgress)
	}
}
