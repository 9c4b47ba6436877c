package queue

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Snapshot is a point-in-time, read-only projection of the queue in insertion
// order. Snapshots are value copies and safe to read concurrently.
type Snapshot []Item

// Listener receives a snapshot after every successful mutation.
type Listener func(Snapshot)

// FileRef describes a source file handed to Enqueue.
type FileRef struct {
	Path      string
	Name      string
	SizeBytes int64
}

// EnqueueOptions carries per-batch enqueue parameters.
type EnqueueOptions struct {
	// DocumentType applies to every file in the batch. Empty means
	// DocumentAuto (classify server-side).
	DocumentType DocumentType
	// Claim optionally binds the batch to an existing claim. Absent for the
	// new-claim flow; the pipeline attaches the association later.
	Claim *ClaimAssociation
}

// Update is an atomic partial merge applied to one item. Nil fields are left
// untouched. A status change is validated against the state machine before
// anything is merged.
type Update struct {
	Status         *Status
	UploadProgress *int
	Processing     *ProcessingProgress
	Claim          *ClaimAssociation
	// DocumentType records the classifier's verdict for auto-typed items.
	DocumentType *DocumentType
	ErrorMessage *string
	// ReleaseFile blanks the owned file reference once the upload stage no
	// longer needs it.
	ReleaseFile bool
}

// Store owns the ordered in-memory collection of queue items. It is the
// single source of truth for the session: all mutation goes through its
// methods, each call is atomic, and listeners observe a consistent snapshot
// after every change.
type Store struct {
	mu    sync.Mutex
	items []*Item
	index map[string]*Item
	seq   uint64

	listeners    map[int]Listener
	nextListener int

	// notifyQueue keeps notifications in mutation order; a single drainer
	// delivers them so listeners never see a stale snapshot after a newer one.
	notifyQueue  []pendingNotify
	notifyActive bool

	removeHooks []func(id string)

	now func() time.Time
}

type pendingNotify struct {
	snapshot  Snapshot
	listeners []Listener
}

// NewStore constructs an empty queue store.
func NewStore() *Store {
	return &Store{
		index:     make(map[string]*Item),
		listeners: make(map[int]Listener),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Enqueue creates one pending item per file, appended in input order, and
// returns the assigned ids. The whole batch produces a single notification.
func (s *Store) Enqueue(files []FileRef, opts EnqueueOptions) ([]string, error) {
	docType := opts.DocumentType
	if docType == "" {
		docType = DocumentAuto
	}
	if _, ok := documentTypes[docType]; !ok {
		return nil, fmt.Errorf("%w: unknown document type %q", ErrInvalidOperation, docType)
	}
	if len(files) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	now := s.now()
	ids := make([]string, 0, len(files))
	for _, file := range files {
		s.seq++
		item := &Item{
			ID:            uuid.NewString(),
			FilePath:      file.Path,
			FileName:      file.Name,
			FileSizeBytes: file.SizeBytes,
			DocumentType:  docType,
			Status:        StatusPending,
			Seq:           s.seq,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if opts.Claim != nil {
			claim := *opts.Claim
			item.Claim = &claim
		}
		s.items = append(s.items, item)
		s.index[item.ID] = item
		ids = append(ids, item.ID)
	}
	s.queueNotifyLocked()
	s.mu.Unlock()

	s.drainNotifies()
	return ids, nil
}

// Mutate merges a partial update into one item. The whole update is validated
// before any field is touched: a rejected call returns with the item unchanged
// and no listener notification. A status change that does not follow the state
// machine fails with ErrInvalidTransition. Unknown ids fail with ErrNotFound,
// which in-flight work treats as a removal signal.
func (s *Store) Mutate(id string, upd Update) error {
	s.mu.Lock()
	item, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	statusChange := upd.Status != nil && *upd.Status != item.Status
	if statusChange && !validTransition(item, *upd.Status) {
		err := &TransitionError{ID: id, From: item.Status, To: *upd.Status}
		s.mu.Unlock()
		return err
	}
	if upd.DocumentType != nil {
		docType := *upd.DocumentType
		if _, ok := documentTypes[docType]; !ok || docType == DocumentAuto {
			s.mu.Unlock()
			return fmt.Errorf("%w: cannot classify item %s as %q", ErrInvalidOperation, id, docType)
		}
	}
	var mergedClaim *ClaimAssociation
	if upd.Claim != nil {
		merged, err := mergeClaim(item, *upd.Claim)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		mergedClaim = merged
	}

	if statusChange {
		applyStatusLocked(item, *upd.Status)
	}
	if upd.DocumentType != nil {
		item.DocumentType = *upd.DocumentType
	}
	if upd.UploadProgress != nil {
		progress := *upd.UploadProgress
		if progress < 0 {
			progress = 0
		}
		if progress > 100 {
			progress = 100
		}
		// Monotone within an attempt; resets happen via status changes only.
		if progress > item.UploadProgress {
			item.UploadProgress = progress
		}
	}
	if upd.Processing != nil {
		progress := *upd.Processing
		item.Processing = &progress
	}
	if mergedClaim != nil {
		item.Claim = mergedClaim
	}
	if upd.ErrorMessage != nil && item.Status == StatusFailed {
		item.ErrorMessage = *upd.ErrorMessage
	}
	if upd.ReleaseFile {
		item.FilePath = ""
	}
	item.UpdatedAt = s.now()

	s.queueNotifyLocked()
	s.mu.Unlock()

	s.drainNotifies()
	return nil
}

func applyStatusLocked(item *Item, to Status) {
	from := item.Status
	item.Status = to
	switch to {
	case StatusUploading:
		item.UploadProgress = 0
	case StatusFailed:
		item.Processing = nil
	}
	if from == StatusFailed && to != StatusFailed {
		item.ErrorMessage = ""
	}
}

// mergeClaim resolves an incoming claim association against the one already
// bound. A fresh association binds as-is; the pipeline may later fill in a
// claim number it assigned for the same claim id, but an item never moves to
// a different claim. A nil result with nil error means nothing changes.
func mergeClaim(item *Item, claim ClaimAssociation) (*ClaimAssociation, error) {
	if item.Claim == nil {
		bound := claim
		return &bound, nil
	}
	current := *item.Claim
	if current == claim {
		return nil, nil
	}
	if current.ClaimID == claim.ClaimID {
		if current.ClaimNumber == "" && claim.ClaimNumber != "" {
			enriched := current
			enriched.ClaimNumber = claim.ClaimNumber
			return &enriched, nil
		}
		if claim.ClaimNumber == "" {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("%w: claim association for item %s is already bound", ErrInvalidOperation, item.ID)
}

// Get returns a value copy of one item.
func (s *Store) Get(id string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.index[id]
	if !ok {
		return Item{}, false
	}
	return item.clone(), true
}

// Remove deletes an item regardless of status. Removing an in-flight item
// signals the scheduler through the registered removal hooks; remote work
// already dispatched may still complete, but its result is discarded because
// the id no longer resolves.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	if _, ok := s.index[id]; !ok {
		s.mu.Unlock()
		return false
	}
	s.deleteLocked(id)
	s.queueNotifyLocked()
	hooks := append([]func(string){}, s.removeHooks...)
	s.mu.Unlock()

	for _, hook := range hooks {
		hook(id)
	}
	s.drainNotifies()
	return true
}

// ClearCompleted removes all completed items and returns the count.
func (s *Store) ClearCompleted() int {
	return s.clearWhere(func(item *Item) bool { return item.Status == StatusCompleted })
}

// ClearFailed removes all failed items and returns the count.
func (s *Store) ClearFailed() int {
	return s.clearWhere(func(item *Item) bool { return item.Status == StatusFailed })
}

// Clear removes every item and returns the count. In-flight items are
// cancelled through the removal hooks like single removals.
func (s *Store) Clear() int {
	return s.clearWhere(func(*Item) bool { return true })
}

func (s *Store) clearWhere(pred func(*Item) bool) int {
	s.mu.Lock()
	var removed []string
	for _, item := range s.items {
		if pred(item) {
			removed = append(removed, item.ID)
		}
	}
	for _, id := range removed {
		s.deleteLocked(id)
	}
	if len(removed) == 0 {
		s.mu.Unlock()
		return 0
	}
	s.queueNotifyLocked()
	hooks := append([]func(string){}, s.removeHooks...)
	s.mu.Unlock()

	for _, id := range removed {
		for _, hook := range hooks {
			hook(id)
		}
	}
	s.drainNotifies()
	return len(removed)
}

func (s *Store) deleteLocked(id string) {
	delete(s.index, id)
	for i, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
}

// Snapshot returns the current queue contents in insertion order.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, _ := s.snapshotLocked()
	return snapshot
}

// Subscribe registers a level-triggered listener invoked after every
// successful mutation. Snapshots arrive in mutation order; under concurrent
// mutation, delivery may run on whichever mutating goroutine currently holds
// the drain. The returned function cancels the subscription.
func (s *Store) Subscribe(listener Listener) func() {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = listener
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// OnRemove registers a hook invoked with the id of every removed item. The
// scheduler uses it to cancel observation of in-flight work.
func (s *Store) OnRemove(hook func(id string)) {
	s.mu.Lock()
	s.removeHooks = append(s.removeHooks, hook)
	s.mu.Unlock()
}

func (s *Store) snapshotLocked() (Snapshot, []Listener) {
	snapshot := make(Snapshot, 0, len(s.items))
	for _, item := range s.items {
		snapshot = append(snapshot, item.clone())
	}
	listeners := make([]Listener, 0, len(s.listeners))
	for _, listener := range s.listeners {
		listeners = append(listeners, listener)
	}
	return snapshot, listeners
}

// queueNotifyLocked captures the post-mutation snapshot, in mutation order,
// for delivery once the store lock is released.
func (s *Store) queueNotifyLocked() {
	snapshot, listeners := s.snapshotLocked()
	s.notifyQueue = append(s.notifyQueue, pendingNotify{snapshot: snapshot, listeners: listeners})
}

// drainNotifies delivers queued notifications one at a time, oldest first.
// Only one goroutine drains; mutations made while a drain is running, even
// from inside a listener, append to the queue and are delivered before the
// drainer returns.
func (s *Store) drainNotifies() {
	s.mu.Lock()
	if s.notifyActive {
		s.mu.Unlock()
		return
	}
	s.notifyActive = true
	for len(s.notifyQueue) > 0 {
		next := s.notifyQueue[0]
		s.notifyQueue = s.notifyQueue[1:]
		s.mu.Unlock()
		for _, listener := range next.listeners {
			listener(next.snapshot)
		}
		s.mu.Lock()
	}
	s.notifyActive = false
	s.mu.Unlock()
}
