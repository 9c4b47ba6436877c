package ipc

import "time"

// QueueItem is the wire representation of one queue entry.
type QueueItem struct {
	ID             string  `json:"id"`
	FileName       string  `json:"file_name"`
	FileSizeBytes  int64   `json:"file_size_bytes"`
	DocumentType   string  `json:"document_type"`
	Status         string  `json:"status"`
	UploadProgress int     `json:"upload_progress"`
	ProcessPercent float64 `json:"process_percent"`
	ProcessStage   string  `json:"process_stage"`
	ClaimID        string  `json:"claim_id"`
	ClaimNumber    string  `json:"claim_number"`
	ErrorMessage   string  `json:"error_message"`
	RetryCount     int     `json:"retry_count"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// QueueStats mirrors the aggregate counters for display.
type QueueStats struct {
	Total           int     `json:"total"`
	Pending         int     `json:"pending"`
	Uploading       int     `json:"uploading"`
	Classifying     int     `json:"classifying"`
	Processing      int     `json:"processing"`
	Completed       int     `json:"completed"`
	Failed          int     `json:"failed"`
	IsActive        bool    `json:"is_active"`
	OverallProgress float64 `json:"overall_progress"`
}

// StatusResponse represents combined daemon status information.
type StatusResponse struct {
	Running     bool       `json:"running"`
	PID         int        `json:"pid"`
	LockPath    string     `json:"lock_path"`
	HistoryPath string     `json:"history_path"`
	Stats       QueueStats `json:"stats"`
}

// EnqueueRequest admits one batch of files.
type EnqueueRequest struct {
	Paths        []string `json:"paths"`
	DocumentType string   `json:"document_type"`
	ClaimID      string   `json:"claim_id"`
	ClaimNumber  string   `json:"claim_number"`
}

// EnqueueResponse returns the ids assigned to the batch.
type EnqueueResponse struct {
	IDs []string `json:"ids"`
}

// QueueListRequest lists queue entries, optionally filtered by claim.
type QueueListRequest struct {
	Claim string `json:"claim"`
}

// QueueListResponse contains queue entries in insertion order.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueRemoveRequest removes one item by id.
type QueueRemoveRequest struct {
	ID string `json:"id"`
}

// QueueRemoveResponse reports whether the item existed.
type QueueRemoveResponse struct {
	Removed bool `json:"removed"`
}

// QueueRetryRequest retries failed items. Empty id means all failed items.
type QueueRetryRequest struct {
	ID string `json:"id"`
}

// QueueRetryResponse reports number of retried items.
type QueueRetryResponse struct {
	Updated int `json:"updated"`
}

// QueueClearRequest removes items by scope: "completed", "failed", or "all".
type QueueClearRequest struct {
	Scope string `json:"scope"`
}

// QueueClearResponse reports number of removed entries.
type QueueClearResponse struct {
	Removed int `json:"removed"`
}

// HistoryRequest lists journal entries.
type HistoryRequest struct {
	Claim   string `json:"claim"`
	Outcome string `json:"outcome"`
	Limit   int    `json:"limit"`
}

// HistoryEntry is the wire representation of one journal row.
type HistoryEntry struct {
	ItemID       string    `json:"item_id"`
	FileName     string    `json:"file_name"`
	DocumentType string    `json:"document_type"`
	Outcome      string    `json:"outcome"`
	ClaimNumber  string    `json:"claim_number"`
	ErrorMessage string    `json:"error_message"`
	RetryCount   int       `json:"retry_count"`
	FinishedAt   time.Time `json:"finished_at"`
}

// HistoryResponse contains journal entries newest first.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
