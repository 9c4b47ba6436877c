package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"intake/internal/logging"
	"intake/internal/pipeline"
	"intake/internal/queue"
)

// drive runs one item through upload, classification, and processing. Every
// store write doubles as a liveness check: ErrNotFound means the item was
// removed and the remaining work is abandoned silently.
func (s *Scheduler) drive(ctx context.Context, item queue.Item) {
	logger := s.logger.With(
		logging.String(logging.FieldItemID, item.ID),
		logging.String(logging.FieldFileName, item.FileName),
	)

	if !s.apply(item.ID, statusUpdate(queue.StatusUploading)) {
		return
	}
	logger.Info("upload started",
		logging.String(logging.FieldDocumentType, string(item.DocumentType)),
		logging.Int64("size_bytes", item.FileSizeBytes),
	)

	result, err := s.upload(ctx, item, logger)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.fail(item.ID, err, logger)
		return
	}

	next := queue.StatusProcessing
	if item.NeedsClassification() {
		next = queue.StatusClassifying
	}
	if !s.apply(item.ID, queue.Update{Status: &next, ReleaseFile: true}) {
		return
	}
	logger.Info("upload finished", logging.String("document_id", result.DocumentID))

	s.observe(ctx, item, result.DocumentID, logger)
}

func (s *Scheduler) upload(ctx context.Context, item queue.Item, logger *slog.Logger) (pipeline.UploadResult, error) {
	sampler := logging.NewProgressSampler(10)
	onProgress := func(percent int) {
		s.apply(item.ID, queue.Update{UploadProgress: &percent})
		if sampler.ShouldLog(float64(percent), "upload") {
			logger.Debug("upload progress", logging.Int("percent", percent))
		}
	}
	return s.client.Upload(ctx, pipeline.UploadRequest{
		FilePath:     item.FilePath,
		FileName:     item.FileName,
		SizeBytes:    item.FileSizeBytes,
		DocumentType: item.DocumentType,
		Claim:        item.Claim,
	}, onProgress)
}

// observe polls the pipeline until the document reaches a terminal state or
// the status-check ceiling is hit.
func (s *Scheduler) observe(ctx context.Context, item queue.Item, documentID string, logger *slog.Logger) {
	sampler := logging.NewProgressSampler(10)
	classified := !item.NeedsClassification()

	for check := 0; check < s.cfg.MaxStatusChecks; check++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.StatusPollInterval):
		}

		status, err := s.client.Status(ctx, documentID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, pipeline.ErrAuthExpired) {
				s.fail(item.ID, err, logger)
				return
			}
			// Transient status failures burn a check but keep polling.
			logger.Warn("status check failed", logging.Error(err))
			continue
		}

		switch status.State {
		case pipeline.StateClassifying:
			// Still waiting on the classifier.
		case pipeline.StateProcessing:
			upd := queue.Update{Processing: status.Progress}
			if !classified {
				if status.DocumentType == "" || status.DocumentType == queue.DocumentAuto {
					s.fail(item.ID, pipeline.Wrap(pipeline.ErrClassification, "classify", "pipeline reported processing without a document type", nil), logger)
					return
				}
				processing := queue.StatusProcessing
				upd.Status = &processing
				upd.DocumentType = &status.DocumentType
				classified = true
				logger.Info("document classified",
					logging.String(logging.FieldDocumentType, string(status.DocumentType)))
			}
			if !s.apply(item.ID, upd) {
				return
			}
			if status.Progress != nil && sampler.ShouldLog(status.Progress.PercentComplete, status.Progress.Stage) {
				logger.Debug("processing progress",
					logging.Float64("percent", status.Progress.PercentComplete),
					logging.String("stage", status.Progress.Stage),
				)
			}
		case pipeline.StateCompleted:
			if !classified {
				if status.DocumentType == "" || status.DocumentType == queue.DocumentAuto {
					s.fail(item.ID, pipeline.Wrap(pipeline.ErrClassification, "classify", "pipeline completed without a document type", nil), logger)
					return
				}
				processing := queue.StatusProcessing
				if !s.apply(item.ID, queue.Update{Status: &processing, DocumentType: &status.DocumentType}) {
					return
				}
				classified = true
			}
			if status.Claim != nil {
				// Attached separately so a claim the store rejects cannot
				// hold the item back from completing.
				if err := s.store.Mutate(item.ID, queue.Update{Claim: status.Claim}); err != nil {
					if errors.Is(err, queue.ErrNotFound) {
						return
					}
					logger.Warn("pipeline claim association rejected", logging.Error(err))
				}
			}
			completed := queue.StatusCompleted
			if !s.apply(item.ID, queue.Update{Status: &completed}) {
				return
			}
			logger.Info("document completed")
			return
		case pipeline.StateFailed:
			marker := pipeline.ErrProcessing
			operation := "process"
			if !classified {
				marker = pipeline.ErrClassification
				operation = "classify"
			}
			s.fail(item.ID, pipeline.Wrap(marker, operation, status.Error, nil), logger)
			return
		default:
			logger.Warn("unknown pipeline state", logging.String("state", status.State))
		}
	}

	s.fail(item.ID, pipeline.Wrap(pipeline.ErrTimeout, "observe",
		"gave up waiting for the pipeline", nil), logger)
}

// apply merges an update and reports whether the item still exists. Any other
// store error is a bug in the stage sequencing and is logged loudly.
func (s *Scheduler) apply(id string, upd queue.Update) bool {
	err := s.store.Mutate(id, upd)
	if err == nil {
		return true
	}
	if errors.Is(err, queue.ErrNotFound) {
		return false
	}
	s.logger.Error("queue update rejected",
		logging.String(logging.FieldItemID, id),
		logging.Error(err),
	)
	return false
}

func (s *Scheduler) fail(id string, cause error, logger *slog.Logger) {
	failed := queue.StatusFailed
	message := cause.Error()
	if s.apply(id, queue.Update{Status: &failed, ErrorMessage: &message}) {
		logger.Warn("document failed", logging.Error(cause))
	}
}

func statusUpdate(status queue.Status) queue.Update {
	return queue.Update{Status: &status}
}
