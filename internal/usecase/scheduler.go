package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/patrickjmorris/therunclub-sub001/internal/domain"
	"github.com/patrickjmorris/therunclub-sub001/internal/ports"
)

// BatchScheduler wires the interval driver with recurring batch detection
// runs over both content types.
type BatchScheduler struct {
	driver   ports.Scheduler
	detector *Detector
	request  BatchRequest
	logger   *slog.Logger
}

// NewBatchScheduler returns a helper to start/stop recurring batch runs.
// The request's ContentType is ignored; each tick runs one batch per type.
func NewBatchScheduler(driver ports.Scheduler, detector *Detector, request BatchRequest, logger *slog.Logger) *BatchScheduler {
	return &BatchScheduler{driver: driver, detector: detector, request: request, logger: logger}
}

// Start registers the batch job with the provided scheduler.
func (s *BatchScheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.detector == nil {
		return nil
	}

	job := func(trigger time.Time) {
		for _, contentType := range []domain.ContentType{domain.ContentPodcast, domain.ContentVideo} {
			req := s.request
			req.ContentType = contentType
			if _, err := s.detector.ProcessBatch(ctx, req); err != nil {
				if s.logger != nil {
					s.logger.Error("scheduled batch failed",
						"content_type", contentType,
						"trigger", trigger.Format(time.RFC3339),
						"error", err)
				}
			}
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *BatchScheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
