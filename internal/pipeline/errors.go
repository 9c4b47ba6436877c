package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for pipeline failures. Schedulers record these on the
// failing queue item; they are never returned to UI callers directly.
var (
	// ErrTransfer covers network and HTTP failures while moving the document.
	ErrTransfer = errors.New("transfer error")
	// ErrClassification covers server-side type detection failures.
	ErrClassification = errors.New("classification error")
	// ErrProcessing covers extraction and claim-association failures.
	ErrProcessing = errors.New("processing error")
	// ErrTimeout marks documents abandoned after the status-check ceiling.
	ErrTimeout = errors.New("processing timeout")
	// ErrAuthExpired marks rejected credentials; the fix is re-authentication,
	// not a retry.
	ErrAuthExpired = errors.New("authentication expired")
)

// Wrap tags an error with a sentinel marker and operation context. The marker
// should be one of the exported sentinels above.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrTransfer
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
