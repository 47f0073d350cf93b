package interfaces

import (
	"context"

	"github.com/google/uuid"

	"github.com/Panchalparth471/app-backend/internal/models"
)

// StoryRepository stores StoryRecords. Every method is a single atomic
// statement; there are no multi-record transactions.
type StoryRepository interface {
	// CountActiveAI counts active AI stories generated for collectionKey.
	CountActiveAI(ctx context.Context, collectionKey string) (int, error)

	// ListActiveAI returns active AI stories of a collection, newest first.
	ListActiveAI(ctx context.Context, collectionKey string, limit int) ([]*models.Story, error)

	// FindActiveByTitle finds an active story with exactly this title in the
	// collection. Returns models.ErrNotFound when there is none.
	FindActiveByTitle(ctx context.Context, collectionKey, title string) (*models.Story, error)

	// FindAudioURL returns the audio URL of any story, in any collection and
	// regardless of state, with the same title or the same content.
	// Returns models.ErrNotFound when no such story has audio.
	FindAudioURL(ctx context.Context, title, content string) (string, error)

	// Create inserts the story. Returns models.ErrDuplicateStory when an active
	// AI story with the same title already exists in the collection.
	Create(ctx context.Context, story *models.Story) error

	// GetByID returns models.ErrNotFound for unknown ids.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error)

	// Deactivate soft-deletes the story. Deactivating twice is not an error.
	Deactivate(ctx context.Context, id uuid.UUID) error

	IncrementPlay(ctx context.Context, id uuid.UUID) error
	IncrementCompletion(ctx context.Context, id uuid.UUID) error

	// AddRating folds rating into the stored running mean and returns the new stats.
	AddRating(ctx context.Context, id uuid.UUID, rating int) (models.StoryStats, error)
}
