package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending     Status = "pending"
	StatusUploading   Status = "uploading"
	StatusClassifying Status = "classifying"
	StatusProcessing  Status = "processing"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusUploading,
	StatusClassifying,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var activeStatuses = map[Status]struct{}{
	StatusPending:     {},
	StatusUploading:   {},
	StatusClassifying: {},
	StatusProcessing:  {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsActiveStatus reports whether a status still needs scheduler attention.
func IsActiveStatus(status Status) bool {
	_, ok := activeStatuses[status]
	return ok
}

// IsTerminalStatus reports whether a status ends the pipeline for an item.
func IsTerminalStatus(status Status) bool {
	return status == StatusCompleted || status == StatusFailed
}

// DocumentType classifies a queued file for the remote pipeline.
type DocumentType string

const (
	DocumentFNOL        DocumentType = "fnol"
	DocumentPolicy      DocumentType = "policy"
	DocumentEndorsement DocumentType = "endorsement"
	DocumentPhoto       DocumentType = "photo"
	DocumentEstimate    DocumentType = "estimate"
	// DocumentAuto defers classification to the pipeline's classifier stage.
	DocumentAuto DocumentType = "auto"
)

var documentTypes = map[DocumentType]struct{}{
	DocumentFNOL:        {},
	DocumentPolicy:      {},
	DocumentEndorsement: {},
	DocumentPhoto:       {},
	DocumentEstimate:    {},
	DocumentAuto:        {},
}

// ParseDocumentType converts a string into a known DocumentType.
func ParseDocumentType(value string) (DocumentType, bool) {
	normalized := DocumentType(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := documentTypes[normalized]
	return normalized, ok
}

// ClaimAssociation binds a document to the claim it belongs to. It may be
// absent at enqueue time (new-claim flow) and attached later from the first
// successful pipeline response.
type ClaimAssociation struct {
	ClaimID     string
	ClaimNumber string
}

// ProcessingProgress mirrors the structured progress record reported by the
// pipeline's status endpoint while a document is in the processing stage.
type ProcessingProgress struct {
	TotalUnits      int
	UnitsProcessed  int
	PercentComplete float64
	Stage           string
	CurrentUnit     string
}

// Item represents one file's unit of work and its current pipeline stage.
type Item struct {
	ID string

	// FilePath is the exclusively owned reference to the source file. It is
	// blanked once the upload stage completes or the item is removed.
	FilePath      string
	FileName      string
	FileSizeBytes int64

	DocumentType DocumentType
	Claim        *ClaimAssociation

	Status         Status
	UploadProgress int
	Processing     *ProcessingProgress
	ErrorMessage   string
	RetryCount     int

	// Seq orders scheduler admission. It is assigned at enqueue and bumped on
	// retry so retried items rejoin the back of the FIFO while snapshot order
	// stays insertion order.
	Seq uint64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true while the item still needs scheduler attention.
func (i Item) IsActive() bool {
	return IsActiveStatus(i.Status)
}

// IsTerminal returns true once the item reached completed or failed.
func (i Item) IsTerminal() bool {
	return IsTerminalStatus(i.Status)
}

// NeedsClassification reports whether the pipeline must infer the document
// type server-side before processing.
func (i Item) NeedsClassification() bool {
	return i.DocumentType == DocumentAuto
}

func (i Item) clone() Item {
	cp := i
	if i.Claim != nil {
		claim := *i.Claim
		cp.Claim = &claim
	}
	if i.Processing != nil {
		progress := *i.Processing
		cp.Processing = &progress
	}
	return cp
}
