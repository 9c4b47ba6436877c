package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"intake/internal/config"
	"intake/internal/queue"
)

const userAgent = "Intake-Go/0.1.0"

// Service defines the notification surface exposed to the daemon.
type Service interface {
	NotifyDocumentCompleted(ctx context.Context, item queue.Item) error
	NotifyDocumentFailed(ctx context.Context, item queue.Item) error
	NotifyBatchCompleted(ctx context.Context, stats queue.Stats) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyDocumentCompleted(ctx context.Context, item queue.Item) error {
	message := fmt.Sprintf("Document processed: %s (%s)", item.FileName, item.DocumentType)
	if item.Claim != nil && item.Claim.ClaimNumber != "" {
		message = fmt.Sprintf("%s\nClaim: %s", message, item.Claim.ClaimNumber)
	}
	data := payload{
		title:   "Intake - Document Complete",
		message: message,
		tags:    []string{"intake", "document", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDocumentFailed(ctx context.Context, item queue.Item) error {
	message := fmt.Sprintf("Document failed: %s", item.FileName)
	if item.ErrorMessage != "" {
		message = fmt.Sprintf("%s\n%s", message, item.ErrorMessage)
	}
	data := payload{
		title:    "Intake - Document Failed",
		message:  message,
		tags:     []string{"intake", "document", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, stats queue.Stats) error {
	var title, message string
	if stats.Failed == 0 {
		title = "Intake - Batch Complete"
		message = fmt.Sprintf("All documents processed: %d completed", stats.Completed)
	} else {
		title = "Intake - Batch Complete (with errors)"
		message = fmt.Sprintf("Batch finished: %d completed, %d failed", stats.Completed, stats.Failed)
	}
	data := payload{
		title:   title,
		message: message,
		tags:    []string{"intake", "batch", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Intake - Error",
		message:  builder.String(),
		tags:     []string{"intake", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Intake - Test",
		message:  "Notification system test",
		tags:     []string{"intake", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyDocumentCompleted(context.Context, queue.Item) error { return nil }

func (noopService) NotifyDocumentFailed(context.Context, queue.Item) error { return nil }

func (noopService) NotifyBatchCompleted(context.Context, queue.Stats) error { return nil }

func (noopService) NotifyError(context.Context, error, string) error { return nil }

func (noopService) TestNotification(context.Context) error { return nil }
