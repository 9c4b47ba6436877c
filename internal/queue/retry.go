package queue

import "fmt"

// Waker is the scheduler hook the retry controller kicks after re-admitting
// items so freed work is picked up without waiting for the next poll.
type Waker interface {
	Wake()
}

// RetryController re-admits failed items to the scheduler. Retries are always
// manual; nothing in the daemon retries an item automatically.
type RetryController struct {
	store *Store
	waker Waker
}

// NewRetryController binds a controller to a store and an optional waker.
func NewRetryController(store *Store, waker Waker) *RetryController {
	return &RetryController{store: store, waker: waker}
}

// Retry resets one failed item back to pending: progress and error are
// cleared, the retry count is incremented, and the item rejoins the back of
// the admission FIFO. Retrying an item that is not failed returns
// ErrInvalidOperation and leaves it unchanged.
func (r *RetryController) Retry(id string) error {
	if err := r.store.retryOne(id); err != nil {
		return err
	}
	r.kick()
	return nil
}

// RetryAll retries every currently failed item, preserving their relative
// order, and returns the number of items re-admitted.
func (r *RetryController) RetryAll() int {
	count := r.store.retryAllFailed()
	if count > 0 {
		r.kick()
	}
	return count
}

func (r *RetryController) kick() {
	if r.waker != nil {
		r.waker.Wake()
	}
}

func (s *Store) retryOne(id string) error {
	s.mu.Lock()
	item, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if item.Status != StatusFailed {
		s.mu.Unlock()
		return fmt.Errorf("%w: retry requires status failed, item %s is %s", ErrInvalidOperation, id, item.Status)
	}
	s.resetForRetryLocked(item)
	s.queueNotifyLocked()
	s.mu.Unlock()

	s.drainNotifies()
	return nil
}

func (s *Store) retryAllFailed() int {
	s.mu.Lock()
	count := 0
	for _, item := range s.items {
		if item.Status != StatusFailed {
			continue
		}
		s.resetForRetryLocked(item)
		count++
	}
	if count == 0 {
		s.mu.Unlock()
		return 0
	}
	s.queueNotifyLocked()
	s.mu.Unlock()

	s.drainNotifies()
	return count
}

func (s *Store) resetForRetryLocked(item *Item) {
	s.seq++
	item.Status = StatusPending
	item.UploadProgress = 0
	item.Processing = nil
	item.ErrorMessage = ""
	item.RetryCount++
	item.Seq = s.seq
	item.UpdatedAt = s.now()
}
