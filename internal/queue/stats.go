package queue

// Stats aggregates queue counts and coarse progress for display. It is a pure
// derivation of a snapshot and carries no state of its own, so it cannot
// desynchronize from the store.
type Stats struct {
	Total       int
	Pending     int
	Uploading   int
	Classifying int
	Processing  int
	Completed   int
	Failed      int

	// IsActive is true while any item still needs scheduler attention.
	IsActive bool
	// OverallProgress is the completion ratio in percent. It counts items,
	// not bytes, mirroring the coarse "X of Y complete" reporting the UI
	// surfaces expect.
	OverallProgress float64
}

// ComputeStats derives aggregate counts from a snapshot.
func ComputeStats(snapshot Snapshot) Stats {
	stats := Stats{Total: len(snapshot)}
	for _, item := range snapshot {
		switch item.Status {
		case StatusPending:
			stats.Pending++
		case StatusUploading:
			stats.Uploading++
		case StatusClassifying:
			stats.Classifying++
		case StatusProcessing:
			stats.Processing++
		case StatusCompleted:
			stats.Completed++
		case StatusFailed:
			stats.Failed++
		}
	}
	stats.IsActive = stats.Pending+stats.Uploading+stats.Classifying+stats.Processing > 0
	if stats.Total > 0 {
		stats.OverallProgress = float64(stats.Completed) / float64(stats.Total) * 100
	}
	return stats
}
