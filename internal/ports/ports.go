package ports

import (
	"context"
	"time"

	"github.com/patrickjmorris/therunclub-sub001/internal/domain"
)

// AthleteDirectory reads the athlete roster used to build the name index.
type AthleteDirectory interface {
	ListAthletes(ctx context.Context) ([]domain.Athlete, error)
}

// ContentText is the matchable text of a single content item.
type ContentText struct {
	Title string
	Body  *string
}

// ContentRef identifies a batch-selected item.
type ContentRef struct {
	ID    string
	Title string
}

// ContentStore reads content items and tracks their processed state.
type ContentStore interface {
	// GetContentText returns title/body for the item, or domain.ErrNotFound.
	GetContentText(ctx context.Context, id string, contentType domain.ContentType) (ContentText, error)

	// SelectUnprocessed returns up to limit unprocessed items of the given
	// type published within maxAge, newest first.
	SelectUnprocessed(ctx context.Context, contentType domain.ContentType, maxAge time.Duration, limit int) ([]ContentRef, error)

	// CountUnprocessed reports the remaining backlog in the same window,
	// independent of any limit.
	CountUnprocessed(ctx context.Context, contentType domain.ContentType, maxAge time.Duration) (int, error)

	// MarkProcessed flips the processed flag after a successful pass.
	MarkProcessed(ctx context.Context, id string, contentType domain.ContentType) error

	// ListEpisodeIDs resolves all episode IDs of one podcast, for targeted
	// reprocessing.
	ListEpisodeIDs(ctx context.Context, podcastID string) ([]string, error)
}

// MentionStore persists detection results.
type MentionStore interface {
	// DeleteMentions removes every mention for the (content, type) pair.
	DeleteMentions(ctx context.Context, contentID string, contentType domain.ContentType) error

	// InsertMention writes one mention row; duplicate-key failures surface
	// as an error the caller may treat as skippable.
	InsertMention(ctx context.Context, mention domain.AthleteMention) error
}

// Scheduler controls when recurring batch runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
