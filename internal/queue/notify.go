package queue

import "sync"

// CompletionEvents are the edge-triggered callbacks consumers register.
// Either may be nil.
type CompletionEvents struct {
	// ItemCompleted fires exactly once per item reaching StatusCompleted.
	ItemCompleted func(Item)
	// ItemFailed fires once per failed attempt. A retried item that fails
	// again fires again because its retry count advanced.
	ItemFailed func(Item)
	// BatchIdle fires once each time the queue transitions from active to
	// idle with at least one completed item present.
	BatchIdle func(Stats)
}

// CompletionNotifier detects the edge of items becoming completed and of the
// whole queue returning to idle. It exists because consumers need "just
// finished, act once" semantics distinct from the level-triggered snapshot
// subscription; conflating the two would fire side effects on every
// re-render.
//
// The notifier keeps its own seen-set rather than flagging items, so the
// queue model stays free of observer bookkeeping.
type CompletionNotifier struct {
	mu        sync.Mutex
	events    CompletionEvents
	seen      map[string]struct{}
	failures  map[string]int
	wasActive bool
}

// NewCompletionNotifier constructs a notifier with the given callbacks.
func NewCompletionNotifier(events CompletionEvents) *CompletionNotifier {
	return &CompletionNotifier{
		events:   events,
		seen:     make(map[string]struct{}),
		failures: make(map[string]int),
	}
}

// Attach subscribes the notifier to a store. The returned function cancels
// the subscription.
func (n *CompletionNotifier) Attach(store *Store) func() {
	return store.Subscribe(n.Observe)
}

// Observe inspects a snapshot and fires the edge callbacks it implies.
// Repeated observations of the same snapshot fire nothing.
func (n *CompletionNotifier) Observe(snapshot Snapshot) {
	n.mu.Lock()
	var completed, failed []Item
	present := make(map[string]struct{}, len(snapshot))
	for _, item := range snapshot {
		present[item.ID] = struct{}{}
		switch item.Status {
		case StatusCompleted:
			if _, ok := n.seen[item.ID]; ok {
				continue
			}
			n.seen[item.ID] = struct{}{}
			completed = append(completed, item)
		case StatusFailed:
			// Keyed on the retry count so each failed attempt fires once.
			if count, ok := n.failures[item.ID]; ok && count >= item.RetryCount {
				continue
			}
			n.failures[item.ID] = item.RetryCount
			failed = append(failed, item)
		}
	}
	// Ids are never reused, so entries for removed items can be dropped.
	for id := range n.seen {
		if _, ok := present[id]; !ok {
			delete(n.seen, id)
		}
	}
	for id := range n.failures {
		if _, ok := present[id]; !ok {
			delete(n.failures, id)
		}
	}

	stats := ComputeStats(snapshot)
	batchIdle := n.wasActive && !stats.IsActive && stats.Completed > 0
	n.wasActive = stats.IsActive
	events := n.events
	n.mu.Unlock()

	if events.ItemCompleted != nil {
		for _, item := range completed {
			events.ItemCompleted(item)
		}
	}
	if events.ItemFailed != nil {
		for _, item := range failed {
			events.ItemFailed(item)
		}
	}
	if batchIdle && events.BatchIdle != nil {
		events.BatchIdle(stats)
	}
}
