package queue

import (
	"errors"
	"testing"
)

type recordingWaker struct{ wakes int }

func (w *recordingWaker) Wake() { w.wakes++ }

func failItem(t *testing.T, store *Store, id, message string) {
	t.Helper()
	setStatus(t, store, id, StatusUploading)
	failed := StatusFailed
	if err := store.Mutate(id, Update{Status: &failed, ErrorMessage: &message}); err != nil {
		t.Fatalf("fail item: %v", err)
	}
}

func TestRetryResetsItemAndWakesScheduler(t *testing.T) {
	store := NewStore()
	waker := &recordingWaker{}
	retry := NewRetryController(store, waker)

	id := enqueueFiles(t, store, EnqueueOptions{DocumentType: DocumentPhoto}, "a.jpg")[0]
	failItem(t, store, id, "transfer error")

	before, _ := store.Get(id)
	if err := retry.Retry(id); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	after, _ := store.Get(id)

	if after.Status != StatusPending {
		t.Errorf("Status = %s, want pending", after.Status)
	}
	if after.ErrorMessage != "" || after.UploadProgress != 0 || after.Processing != nil {
		t.Errorf("retry did not reset attempt state: %+v", after)
	}
	if after.RetryCount != before.RetryCount+1 {
		t.Errorf("RetryCount = %d, want %d", after.RetryCount, before.RetryCount+1)
	}
	if after.Seq <= before.Seq {
		t.Error("retried item should move to the back of the admission FIFO")
	}
	if waker.wakes != 1 {
		t.Errorf("wakes = %d, want 1", waker.wakes)
	}
}

func TestRetryRequiresFailedStatus(t *testing.T) {
	store := NewStore()
	retry := NewRetryController(store, nil)

	id := enqueueFiles(t, store, EnqueueOptions{DocumentType: DocumentPhoto}, "a.jpg")[0]
	if err := retry.Retry(id); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("retry of pending item: %v, want ErrInvalidOperation", err)
	}
	if err := retry.Retry("no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("retry of unknown item: %v, want ErrNotFound", err)
	}
}

func TestRetryAllPreservesOrder(t *testing.T) {
	store := NewStore()
	waker := &recordingWaker{}
	retry := NewRetryController(store, waker)

	ids := enqueueFiles(t, store, EnqueueOptions{DocumentType: DocumentPhoto}, "a.jpg", "b.jpg", "c.jpg")
	failItem(t, store, ids[0], "boom")
	failItem(t, store, ids[2], "boom")

	if count := retry.RetryAll(); count != 2 {
		t.Fatalf("RetryAll = %d, want 2", count)
	}
	if waker.wakes != 1 {
		t.Errorf("wakes = %d, want 1", waker.wakes)
	}

	first, _ := store.Get(ids[0])
	third, _ := store.Get(ids[2])
	if first.Status != StatusPending || third.Status != StatusPending {
		t.Fatal("failed items not re-admitted")
	}
	if first.Seq >= third.Seq {
		t.Error("relative order of retried items not preserved")
	}

	if count := retry.RetryAll(); count != 0 {
		t.Fatalf("second RetryAll = %d, want 0", count)
	}
	if waker.wakes != 1 {
		t.Error("no-op RetryAll must not wake the scheduler")
	}
}
