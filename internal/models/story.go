package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500

	MinDuration     = 5
	MaxDuration     = 20
	DefaultDuration = 8

	MinChildAge = 2
	MaxChildAge = 12
)

// AgeRange is the inclusive age bracket a story targets.
type AgeRange struct {
	Min int `json:"min" db:"age_min"`
	Max int `json:"max" db:"age_max"`
}

// DeriveAgeRange centres a two-year window on childAge within [2,12].
func DeriveAgeRange(childAge int) AgeRange {
	r := AgeRange{Min: max(MinChildAge, childAge-2), Max: min(MaxChildAge, childAge+2)}
	// out-of-band ages (e.g. 15) would invert the window
	if r.Min > r.Max {
		if childAge > MaxChildAge {
			r.Min = r.Max
		} else {
			r.Max = r.Min
		}
	}
	return r
}

// Validate reports ErrInvalidAgeRange if the bounds are outside [2,12] or inverted.
func (r AgeRange) Validate() error {
	if r.Min < MinChildAge || r.Max > MaxChildAge || r.Min > r.Max {
		return fmt.Errorf("%w: %d-%d", ErrInvalidAgeRange, r.Min, r.Max)
	}
	return nil
}

// StoryStats aggregates engagement for one story.
type StoryStats struct {
	PlayCount       int     `json:"playCount" db:"play_count"`
	CompletionCount int     `json:"completionCount" db:"completion_count"`
	AverageRating   float64 `json:"averageRating" db:"average_rating"`
	TotalRatings    int     `json:"totalRatings" db:"total_ratings"`
}

// AddRating folds rating into the running mean.
func (s *StoryStats) AddRating(rating int) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	n := float64(s.TotalRatings)
	s.AverageRating = (s.AverageRating*n + float64(rating)) / (n + 1)
	s.TotalRatings++
	return nil
}

// Story is a persisted unit of content, hand-authored or AI-generated.
type Story struct {
	ID                     uuid.UUID  `json:"id" db:"id"`
	Title                  string     `json:"title" db:"title"`
	Description            string     `json:"description" db:"description"`
	Content                string     `json:"content" db:"content"`
	Duration               int        `json:"duration" db:"duration"`
	AgeRange               AgeRange   `json:"ageRange" db:"-"`
	Theme                  string     `json:"theme" db:"theme"`
	Category               string     `json:"category" db:"category"`
	Thumbnail              string     `json:"thumbnail" db:"thumbnail"`
	IsAIGenerated          bool       `json:"isAIGenerated" db:"is_ai_generated"`
	GeneratedForCollection *string    `json:"generatedForCollection,omitempty" db:"generated_for_collection"`
	IsActive               bool       `json:"isActive" db:"is_active"`
	AudioPending           bool       `json:"audioPending" db:"audio_pending"`
	AudioURL               *string    `json:"audioUrl,omitempty" db:"audio_url"`
	Stats                  StoryStats `json:"stats" db:"-"`
	CreatedAt              time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt              time.Time  `json:"updatedAt" db:"updated_at"`
}

// CollectionKey returns the owning collection or "" for hand-authored stories.
func (s *Story) CollectionKey() string {
	if s.GeneratedForCollection == nil {
		return ""
	}
	return *s.GeneratedForCollection
}

// IsCollectionItem is true for AI stories that belong to a collection.
func (s *Story) IsCollectionItem() bool {
	return s.IsAIGenerated && s.CollectionKey() != ""
}

// GenerationCandidate is a parsed story that has not been stored yet.
type GenerationCandidate struct {
	Title       string
	Description string
	Content     string
	Duration    int
	AgeRange    AgeRange
}

// NewAIStory builds an active AI story for the collection described by d.
// The record cannot exist without a collection.
func NewAIStory(c GenerationCandidate, d CollectionDescriptor) (*Story, error) {
	if strings.TrimSpace(d.Key) == "" {
		return nil, ErrMissingCollection
	}
	if strings.TrimSpace(c.Title) == "" || strings.TrimSpace(c.Content) == "" {
		return nil, fmt.Errorf("%w: empty title or content", ErrInvalidInput)
	}
	if err := c.AgeRange.Validate(); err != nil {
		return nil, err
	}

	key := d.Key
	now := time.Now().UTC()
	return &Story{
		ID:                     uuid.New(),
		Title:                  Truncate(c.Title, MaxTitleLength),
		Description:            Truncate(c.Description, MaxDescriptionLength),
		Content:                c.Content,
		Duration:               ClampDuration(c.Duration),
		AgeRange:               c.AgeRange,
		Theme:                  d.Theme,
		Category:               d.Category,
		Thumbnail:              d.Icon,
		IsAIGenerated:          true,
		GeneratedForCollection: &key,
		IsActive:               true,
		AudioPending:           true,
		CreatedAt:              now,
		UpdatedAt:              now,
	}, nil
}

// ClampDuration bounds minutes to [5,20]; non-positive values become the default.
func ClampDuration(minutes int) int {
	if minutes <= 0 {
		return DefaultDuration
	}
	return min(MaxDuration, max(MinDuration, minutes))
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
