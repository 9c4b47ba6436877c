package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"intake/internal/queue"
)

// UploadRequest describes one document handed to the pipeline.
type UploadRequest struct {
	FilePath     string
	FileName     string
	SizeBytes    int64
	DocumentType queue.DocumentType
	Claim        *queue.ClaimAssociation
}

// UploadResult is the pipeline's acknowledgement of a received document.
type UploadResult struct {
	DocumentID string
}

// Document states the status endpoint reports.
const (
	StateClassifying = "classifying"
	StateProcessing  = "processing"
	StateCompleted   = "completed"
	StateFailed      = "failed"
)

// StatusResult is one observation of a document moving through the pipeline.
type StatusResult struct {
	State        string
	DocumentType queue.DocumentType
	Progress     *queue.ProcessingProgress
	Claim        *queue.ClaimAssociation
	Error        string
}

// Client is the pipeline surface the scheduler depends on.
type Client interface {
	// Upload transfers one document. onProgress, when non-nil, receives
	// percentages in [0,100] as bytes move.
	Upload(ctx context.Context, req UploadRequest, onProgress func(percent int)) (UploadResult, error)
	// Status reports the current pipeline state of an uploaded document.
	Status(ctx context.Context, documentID string) (StatusResult, error)
}

// Options configures the HTTP client.
type Options struct {
	BaseURL        string
	AuthToken      string
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
}

// HTTPClient is the resty-backed pipeline client.
type HTTPClient struct {
	rest          *resty.Client
	uploadTimeout time.Duration
}

// NewHTTPClient constructs a pipeline client for the given endpoint.
func NewHTTPClient(opts Options) *HTTPClient {
	rest := resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(opts.RequestTimeout)
	if opts.AuthToken != "" {
		rest.SetAuthToken(opts.AuthToken)
	}
	uploadTimeout := opts.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = 10 * time.Minute
	}
	return &HTTPClient{rest: rest, uploadTimeout: uploadTimeout}
}

type uploadResponse struct {
	DocumentID string `json:"document_id"`
}

type statusResponse struct {
	State        string `json:"state"`
	DocumentType string `json:"document_type"`
	Progress     *struct {
		TotalUnits      int    `json:"total_units"`
		UnitsProcessed  int    `json:"units_processed"`
		PercentComplete int    `json:"percent_complete"`
		Stage           string `json:"stage"`
		CurrentUnit     string `json:"current_unit"`
	} `json:"progress"`
	Claim *struct {
		ClaimID     string `json:"claim_id"`
		ClaimNumber string `json:"claim_number"`
	} `json:"claim"`
	Error string `json:"error"`
}

// Upload posts the document as multipart form data. Progress is derived from
// bytes read off the source file, so it reaches 100 slightly before the
// server acknowledges.
func (c *HTTPClient) Upload(ctx context.Context, req UploadRequest, onProgress func(percent int)) (UploadResult, error) {
	file, err := os.Open(req.FilePath)
	if err != nil {
		return UploadResult{}, Wrap(ErrTransfer, "upload", "open source file", err)
	}
	defer file.Close()

	reader := io.Reader(file)
	if onProgress != nil && req.SizeBytes > 0 {
		reader = &progressReader{inner: file, total: req.SizeBytes, report: onProgress}
	}

	uploadCtx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	request := c.rest.R().
		SetContext(uploadCtx).
		SetFileReader("file", req.FileName, reader).
		SetFormData(map[string]string{"document_type": string(req.DocumentType)}).
		SetResult(&uploadResponse{})
	if req.Claim != nil {
		request.SetFormData(map[string]string{"claim_id": req.Claim.ClaimID})
	}

	resp, err := request.Post("/documents")
	if err != nil {
		return UploadResult{}, Wrap(ErrTransfer, "upload", req.FileName, err)
	}
	if err := classifyHTTPError(resp, "upload", req.FileName); err != nil {
		return UploadResult{}, err
	}

	result, ok := resp.Result().(*uploadResponse)
	if !ok || result.DocumentID == "" {
		return UploadResult{}, Wrap(ErrTransfer, "upload", "response missing document id", nil)
	}
	return UploadResult{DocumentID: result.DocumentID}, nil
}

// Status fetches the pipeline state of one document.
func (c *HTTPClient) Status(ctx context.Context, documentID string) (StatusResult, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(&statusResponse{}).
		SetPathParam("id", documentID).
		Get("/documents/{id}/status")
	if err != nil {
		return StatusResult{}, Wrap(ErrTransfer, "status", documentID, err)
	}
	if err := classifyHTTPError(resp, "status", documentID); err != nil {
		return StatusResult{}, err
	}

	body, ok := resp.Result().(*statusResponse)
	if !ok {
		return StatusResult{}, Wrap(ErrTransfer, "status", "malformed response", nil)
	}

	result := StatusResult{State: body.State, Error: body.Error}
	if body.DocumentType != "" {
		docType, ok := queue.ParseDocumentType(body.DocumentType)
		if !ok {
			return StatusResult{}, Wrap(ErrClassification, "status", fmt.Sprintf("document %s", documentID), fmt.Errorf("unknown document type %q", body.DocumentType))
		}
		result.DocumentType = docType
	}
	if body.Progress != nil {
		result.Progress = &queue.ProcessingProgress{
			TotalUnits:      body.Progress.TotalUnits,
			UnitsProcessed:  body.Progress.UnitsProcessed,
			PercentComplete: float64(body.Progress.PercentComplete),
			Stage:           body.Progress.Stage,
			CurrentUnit:     body.Progress.CurrentUnit,
		}
	}
	if body.Claim != nil {
		result.Claim = &queue.ClaimAssociation{
			ClaimID:     body.Claim.ClaimID,
			ClaimNumber: body.Claim.ClaimNumber,
		}
	}
	return result, nil
}

func classifyHTTPError(resp *resty.Response, operation, subject string) error {
	if !resp.IsError() {
		return nil
	}
	status := resp.StatusCode()
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return Wrap(ErrAuthExpired, operation, subject, fmt.Errorf("server returned %s", resp.Status()))
	}
	return Wrap(ErrTransfer, operation, subject, fmt.Errorf("server returned %s", resp.Status()))
}

// progressReader reports cumulative read percentage as the multipart encoder
// drains the source file.
type progressReader struct {
	inner  io.Reader
	total  int64
	read   int64
	last   int
	report func(percent int)
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.inner.Read(p)
	if n > 0 {
		r.read += int64(n)
		percent := int(r.read * 100 / r.total)
		if percent > 100 {
			percent = 100
		}
		if percent > r.last {
			r.last = percent
			r.report(percent)
		}
	}
	return n, err
}
