package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/patrickjmorris/therunclub-sub001/internal/domain"
	"github.com/patrickjmorris/therunclub-sub001/internal/index"
	"github.com/patrickjmorris/therunclub-sub001/internal/matcher"
	"github.com/patrickjmorris/therunclub-sub001/internal/metrics"
	"github.com/patrickjmorris/therunclub-sub001/internal/ports"
)

// DetectorDeps wires the collaborator stores into the orchestrator.
type DetectorDeps struct {
	Directory ports.AthleteDirectory
	Content   ports.ContentStore
	Mentions  ports.MentionStore

	// SanitizeBody converts an HTML description body to plain text before
	// matching. Optional; nil means bodies are matched as-is.
	SanitizeBody func(string) string

	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// Fuzzy enables the secondary fuzzy matching pass.
	Fuzzy bool
}

// Detector drives per-item and batch mention detection and reconciles
// persisted mentions by wipe-and-replace.
type Detector struct {
	directory    ports.AthleteDirectory
	content      ports.ContentStore
	mentions     ports.MentionStore
	sanitizeBody func(string) string
	metrics      *metrics.Metrics
	logger       *slog.Logger
	fuzzy        bool

	now   func() time.Time
	newID func() string
}

// NewDetector constructs the orchestration component.
func NewDetector(deps DetectorDeps) *Detector {
	return &Detector{
		directory:    deps.Directory,
		content:      deps.Content,
		mentions:     deps.Mentions,
		sanitizeBody: deps.SanitizeBody,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		fuzzy:        deps.Fuzzy,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// ItemResult reports detection counts for one content item. Counts reflect
// detection, not successful persistence.
type ItemResult struct {
	TitleMatches   int
	ContentMatches int
}

// ItemFailure records one failed item inside a batch.
type ItemFailure struct {
	ID  string
	Err string
}

// BatchRequest selects the batch window.
type BatchRequest struct {
	ContentType domain.ContentType
	Limit       int
	MaxAgeHours int
}

// BatchResult aggregates a batch run.
type BatchResult struct {
	Processed      int
	Errors         int
	TitleMatches   int
	ContentMatches int
	TotalMatches   int
	Remaining      int
	SuccessRate    string
	Failures       []ItemFailure
}

// BuildIndex reads the roster and builds a fresh name index. Callers running
// many detections should hold the returned index across those calls.
func (d *Detector) BuildIndex(ctx context.Context) (*index.Index, error) {
	athletes, err := d.directory.ListAthletes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list athletes: %w", err)
	}
	return index.Build(athletes, d.logger), nil
}

// ProcessItem rebuilds the name index and processes a single content item.
func (d *Detector) ProcessItem(ctx context.Context, contentID string, contentType domain.ContentType) (ItemResult, error) {
	idx, err := d.BuildIndex(ctx)
	if err != nil {
		return ItemResult{}, err
	}
	return d.ProcessItemWithIndex(ctx, idx, contentID, contentType)
}

// ProcessItemWithIndex runs one detection pass: fetch text, wipe existing
// mentions, match title and body, persist fresh mentions, mark processed.
// domain.ErrNotFound propagates when the item does not exist. Individual
// insert failures are logged and skipped.
func (d *Detector) ProcessItemWithIndex(ctx context.Context, idx *index.Index, contentID string, contentType domain.ContentType) (ItemResult, error) {
	text, err := d.content.GetContentText(ctx, contentID, contentType)
	if err != nil {
		return ItemResult{}, fmt.Errorf("fetch content %s: %w", contentID, err)
	}

	if err := d.mentions.DeleteMentions(ctx, contentID, contentType); err != nil {
		return ItemResult{}, fmt.Errorf("delete mentions for %s: %w", contentID, err)
	}

	opts := matcher.Options{Fuzzy: d.fuzzy}

	var result ItemResult

	titleMatches := matcher.Detect(text.Title, idx, opts)
	result.TitleMatches = len(titleMatches)
	d.metrics.MentionsDetected(string(domain.SourceTitle), len(titleMatches))
	d.insertAll(ctx, titleMatches, contentID, contentType, domain.SourceTitle)

	if body := d.bodyText(text.Body); body != "" {
		contentMatches := matcher.Detect(body, idx, opts)
		result.ContentMatches = len(contentMatches)
		d.metrics.MentionsDetected(string(domain.SourceDescription), len(contentMatches))
		d.insertAll(ctx, contentMatches, contentID, contentType, domain.SourceDescription)
	}

	if err := d.content.MarkProcessed(ctx, contentID, contentType); err != nil {
		return result, fmt.Errorf("mark processed %s: %w", contentID, err)
	}

	d.metrics.ItemProcessed(string(contentType))
	d.debug("item processed",
		"content_id", contentID,
		"content_type", contentType,
		"title_matches", result.TitleMatches,
		"content_matches", result.ContentMatches)

	return result, nil
}

// ProcessBatch selects recent unprocessed items and runs single-item
// detection over each, sequentially, with per-item error isolation.
func (d *Detector) ProcessBatch(ctx context.Context, req BatchRequest) (BatchResult, error) {
	maxAge := time.Duration(req.MaxAgeHours) * time.Hour

	refs, err := d.content.SelectUnprocessed(ctx, req.ContentType, maxAge, req.Limit)
	if err != nil {
		return BatchResult{}, fmt.Errorf("select unprocessed: %w", err)
	}

	remaining, err := d.content.CountUnprocessed(ctx, req.ContentType, maxAge)
	if err != nil {
		return BatchResult{}, fmt.Errorf("count unprocessed: %w", err)
	}

	idx, err := d.BuildIndex(ctx)
	if err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{Processed: len(refs), Remaining: remaining}
	for _, ref := range refs {
		itemResult, itemErr := d.ProcessItemWithIndex(ctx, idx, ref.ID, req.ContentType)
		if itemErr != nil {
			result.Errors++
			result.Failures = append(result.Failures, ItemFailure{ID: ref.ID, Err: itemErr.Error()})
			d.metrics.ItemError(string(req.ContentType))
			d.warn("batch item failed", "content_id", ref.ID, "error", itemErr)
			continue
		}
		result.TitleMatches += itemResult.TitleMatches
		result.ContentMatches += itemResult.ContentMatches
	}

	result.TotalMatches = result.TitleMatches + result.ContentMatches
	result.SuccessRate = successRate(result.Processed, result.Errors)

	d.debug("batch complete",
		"content_type", req.ContentType,
		"processed", result.Processed,
		"errors", result.Errors,
		"total_matches", result.TotalMatches,
		"remaining", result.Remaining,
		"success_rate", result.SuccessRate)

	return result, nil
}

func (d *Detector) insertAll(ctx context.Context, detected []domain.DetectedAthlete, contentID string, contentType domain.ContentType, source domain.MentionSource) {
	for _, match := range detected {
		mention := domain.AthleteMention{
			ID:          d.newID(),
			AthleteID:   match.AthleteID,
			ContentID:   contentID,
			ContentType: contentType,
			Source:      source,
			Confidence:  match.Confidence,
			Context:     match.Context,
			CreatedAt:   d.now(),
		}
		if err := d.mentions.InsertMention(ctx, mention); err != nil {
			d.metrics.InsertFailure()
			d.warn("insert mention failed, skipping",
				"content_id", contentID,
				"athlete_id", match.AthleteID,
				"source", source,
				"error", err)
		}
	}
}

func (d *Detector) bodyText(body *string) string {
	if body == nil {
		return ""
	}
	text := *body
	if d.sanitizeBody != nil {
		text = d.sanitizeBody(text)
	}
	return text
}

func successRate(processed, errors int) string {
	if processed == 0 {
		return "0.0"
	}
	rate := float64(processed-errors) / float64(processed) * 100
	return fmt.Sprintf("%.1f", rate)
}

func (d *Detector) debug(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}

func (d *Detector) warn(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}
