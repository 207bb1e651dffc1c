package domain

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrNotFound signals that the requested content item does not exist.
// Callers use errors.Is to distinguish it from transient store failures.
var ErrNotFound = errors.New("content item not found")

// ContentType distinguishes the two kinds of ingested content.
type ContentType string

const (
	ContentPodcast ContentType = "podcast"
	ContentVideo   ContentType = "video"
)

// Valid reports whether the content type is one of the known kinds.
func (c ContentType) Valid() bool {
	return c == ContentPodcast || c == ContentVideo
}

// ParseContentType converts a raw string into a ContentType.
func ParseContentType(raw string) (ContentType, error) {
	ct := ContentType(raw)
	if !ct.Valid() {
		return "", fmt.Errorf("unknown content type %q", raw)
	}
	return ct, nil
}

// MentionSource names the text field a mention was detected in.
type MentionSource string

const (
	SourceTitle       MentionSource = "title"
	SourceDescription MentionSource = "description"
)

// Athlete is a roster entry; Name is the sole matchable attribute.
type Athlete struct {
	ID   string
	Name string
}

// ContentItem is a podcast episode or video as seen by the detection core.
// Body and Processed are nullable in the backing store.
type ContentItem struct {
	ID          string
	Type        ContentType
	Title       string
	Body        *string
	Processed   *bool
	PublishedAt time.Time
}

// DetectedAthlete is the ephemeral matcher output before persistence.
type DetectedAthlete struct {
	AthleteID  string
	Confidence Confidence
	Context    string
}

// AthleteMention links an athlete to a content item with source attribution.
type AthleteMention struct {
	ID          string
	AthleteID   string
	ContentID   string
	ContentType ContentType
	Source      MentionSource
	Confidence  Confidence
	Context     string
	CreatedAt   time.Time
}

// Confidence is a match-certainty score in (0, 1], where 1.0 is reserved for
// exact matches. The persisted form is a fixed-point decimal string so scores
// round-trip and sort without float formatting drift.
type Confidence float64

const confidencePrecision = 4

// Exact is the confidence assigned to whole-word literal matches.
const Exact Confidence = 1.0

// String renders the canonical fixed-point form, e.g. "1.0000" or "0.8889".
func (c Confidence) String() string {
	return strconv.FormatFloat(float64(c), 'f', confidencePrecision, 64)
}

// Float returns the raw score.
func (c Confidence) Float() float64 {
	return float64(c)
}

// ParseConfidence reads the persisted decimal form back into a Confidence.
func ParseConfidence(raw string) (Confidence, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse confidence %q: %w", raw, err)
	}
	if v <= 0 || v > 1 {
		return 0, fmt.Errorf("confidence %q out of range (0, 1]", raw)
	}
	return Confidence(v), nil
}
