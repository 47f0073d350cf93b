package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Panchalparth471/app-backend/internal/interfaces"
	"github.com/Panchalparth471/app-backend/internal/models"
)

// Compile-time check
var _ interfaces.StoryRepository = (*memoryStoryRepository)(nil)

// memoryStoryRepository keeps stories in process memory. It enforces the same
// uniqueness rule as the PostgreSQL schema.
type memoryStoryRepository struct {
	mu      sync.RWMutex
	stories map[uuid.UUID]*models.Story
	logger  *zap.Logger
}

// NewMemoryStoryRepository creates an in-memory StoryRepository.
func NewMemoryStoryRepository(logger *zap.Logger) interfaces.StoryRepository {
	return &memoryStoryRepository{
		stories: make(map[uuid.UUID]*models.Story),
		logger:  logger.Named("MemoryStoryRepo"),
	}
}

func isActiveIn(s *models.Story, collectionKey string) bool {
	return s.IsActive && s.IsAIGenerated && s.CollectionKey() == collectionKey
}

func (r *memoryStoryRepository) CountActiveAI(ctx context.Context, collectionKey string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, s := range r.stories {
		if isActiveIn(s, collectionKey) {
			count++
		}
	}
	return count, nil
}

func (r *memoryStoryRepository) ListActiveAI(ctx context.Context, collectionKey string, limit int) ([]*models.Story, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Story, 0)
	for _, s := range r.stories {
		if isActiveIn(s, collectionKey) {
			out = append(out, cloneStory(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryStoryRepository) FindActiveByTitle(ctx context.Context, collectionKey, title string) (*models.Story, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.stories {
		if isActiveIn(s, collectionKey) && strings.EqualFold(s.Title, title) {
			return cloneStory(s), nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *memoryStoryRepository) FindAudioURL(ctx context.Context, title, content string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *models.Story
	for _, s := range r.stories {
		if s.AudioURL == nil {
			continue
		}
		if !strings.EqualFold(s.Title, title) && s.Content != content {
			continue
		}
		if found == nil || s.CreatedAt.Before(found.CreatedAt) {
			found = s
		}
	}
	if found == nil {
		return "", models.ErrNotFound
	}
	return *found.AudioURL, nil
}

func (r *memoryStoryRepository) Create(ctx context.Context, story *models.Story) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if story.IsAIGenerated && story.CollectionKey() == "" {
		return models.ErrMissingCollection
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if story.IsAIGenerated && story.IsActive {
		for _, s := range r.stories {
			if isActiveIn(s, story.CollectionKey()) && strings.EqualFold(s.Title, story.Title) {
				r.logger.Warn("Duplicate active story title in collection",
					zap.String("collection", story.CollectionKey()), zap.String("title", story.Title))
				return models.ErrDuplicateStory
			}
		}
	}

	if story.ID == uuid.Nil {
		story.ID = uuid.New()
	}
	now := time.Now().UTC()
	story.CreatedAt = now
	story.UpdatedAt = now
	r.stories[story.ID] = cloneStory(story)
	return nil
}

func (r *memoryStoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.stories[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return cloneStory(s), nil
}

func (r *memoryStoryRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.update(id, func(s *models.Story) error {
		s.IsActive = false
		return nil
	})
}

func (r *memoryStoryRepository) IncrementPlay(ctx context.Context, id uuid.UUID) error {
	return r.update(id, func(s *models.Story) error {
		s.Stats.PlayCount++
		return nil
	})
}

func (r *memoryStoryRepository) IncrementCompletion(ctx context.Context, id uuid.UUID) error {
	return r.update(id, func(s *models.Story) error {
		s.Stats.CompletionCount++
		return nil
	})
}

func (r *memoryStoryRepository) AddRating(ctx context.Context, id uuid.UUID, rating int) (models.StoryStats, error) {
	var stats models.StoryStats
	err := r.update(id, func(s *models.Story) error {
		if err := s.Stats.AddRating(rating); err != nil {
			return err
		}
		stats = s.Stats
		return nil
	})
	return stats, err
}

func (r *memoryStoryRepository) update(id uuid.UUID, fn func(*models.Story) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stories[id]
	if !ok {
		return models.ErrNotFound
	}
	if err := fn(s); err != nil {
		return err
	}
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func cloneStory(s *models.Story) *models.Story {
	c := *s
	if s.GeneratedForCollection != nil {
		key := *s.GeneratedForCollection
		c.GeneratedForCollection = &key
	}
	if s.AudioURL != nil {
		url := *s.AudioURL
		c.AudioURL = &url
	}
	return &c
}
