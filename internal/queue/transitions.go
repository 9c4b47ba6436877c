package queue

// transitions is the directed edge set of the item state machine. Any status
// change not listed here is rejected by the store.
//
// The uploading→processing edge is conditional: it is only legal when the
// document type was explicit at enqueue, because auto-typed items must pass
// through the classifier first. validTransition enforces that.
var transitions = map[Status][]Status{
	StatusPending:     {StatusUploading},
	StatusUploading:   {StatusClassifying, StatusProcessing, StatusFailed},
	StatusClassifying: {StatusProcessing, StatusFailed},
	StatusProcessing:  {StatusCompleted, StatusFailed},
	StatusFailed:      {StatusPending},
}

func validTransition(item *Item, to Status) bool {
	for _, candidate := range transitions[item.Status] {
		if candidate != to {
			continue
		}
		if item.Status == StatusUploading && to == StatusProcessing && item.NeedsClassification() {
			return false
		}
		if item.Status == StatusUploading && to == StatusClassifying && !item.NeedsClassification() {
			return false
		}
		return true
	}
	return false
}

// CanTransition reports whether the state machine allows from→to for any item
// in status from, ignoring the document-type condition on the uploading edges.
func CanTransition(from, to Status) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
