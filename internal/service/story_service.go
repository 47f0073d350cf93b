package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Panchalparth471/app-backend/internal/collections"
	"github.com/Panchalparth471/app-backend/internal/interfaces"
	"github.com/Panchalparth471/app-backend/internal/models"
)

const categoryListLimit = 50

// StoryService is the entry point of the HTTP layer.
type StoryService interface {
	ListCollections() []models.CollectionDescriptor
	// CategoryStories lists the active stories of a collection, generating
	// the collection once when it is empty.
	CategoryStories(ctx context.Context, collectionKey, childName string, childAge int) ([]*models.Story, error)
	// RegenerateStory retires an AI story and synchronously generates one replacement.
	RegenerateStory(ctx context.Context, storyID uuid.UUID, childName string, childAge int) ([]*models.Story, error)
	InitializeCollections(ctx context.Context, childName string, childAge int) []models.CollectionSummary
	PlayStory(ctx context.Context, storyID uuid.UUID) error
	CompleteStory(ctx context.Context, storyID uuid.UUID) error
	RateStory(ctx context.Context, storyID uuid.UUID, rating int) (models.StoryStats, error)
}

// StoryServiceConfig holds the defaults used when the caller omits the child.
type StoryServiceConfig struct {
	DefaultChildName string
	DefaultChildAge  int
}

type storyService struct {
	registry *collections.Registry
	repo     interfaces.StoryRepository
	engine   ReplenishmentService
	hook     ConsumptionHook
	cfg      StoryServiceConfig
	logger   *zap.Logger
}

var _ StoryService = (*storyService)(nil)

func NewStoryService(
	registry *collections.Registry,
	repo interfaces.StoryRepository,
	engine ReplenishmentService,
	hook ConsumptionHook,
	cfg StoryServiceConfig,
	logger *zap.Logger,
) StoryService {
	if cfg.DefaultChildAge <= 0 {
		cfg.DefaultChildAge = 6
	}
	return &storyService{
		registry: registry,
		repo:     repo,
		engine:   engine,
		hook:     hook,
		cfg:      cfg,
		logger:   logger.Named("StoryService"),
	}
}

func (s *storyService) child(name string, age int) (string, int) {
	if name == "" {
		name = s.cfg.DefaultChildName
	}
	if age <= 0 {
		age = s.cfg.DefaultChildAge
	}
	return name, age
}

func (s *storyService) ListCollections() []models.CollectionDescriptor {
	return s.registry.All()
}

func (s *storyService) CategoryStories(ctx context.Context, collectionKey, childName string, childAge int) ([]*models.Story, error) {
	descriptor, ok := s.registry.Describe(collectionKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidCollection, collectionKey)
	}

	stories, err := s.repo.ListActiveAI(ctx, collectionKey, categoryListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	if len(stories) > 0 {
		return stories, nil
	}

	childName, childAge = s.child(childName, childAge)
	s.logger.Info("Collection is empty, generating", zap.String("collection", collectionKey))
	if _, err := s.engine.Replenish(ctx, collectionKey, childName, childAge, descriptor.TargetCount); err != nil {
		return nil, err
	}

	stories, err = s.repo.ListActiveAI(ctx, collectionKey, categoryListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return stories, nil
}

func (s *storyService) RegenerateStory(ctx context.Context, storyID uuid.UUID, childName string, childAge int) ([]*models.Story, error) {
	story, err := s.repo.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if !story.IsCollectionItem() {
		return nil, models.ErrNotRegenerable
	}
	key := story.CollectionKey()
	if _, ok := s.registry.Describe(key); !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidCollection, key)
	}

	if err := s.repo.Deactivate(ctx, storyID); err != nil {
		return nil, fmt.Errorf("failed to deactivate story: %w", err)
	}
	remaining, err := s.repo.CountActiveAI(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to count stories: %w", err)
	}

	if childAge <= 0 {
		childAge = max(minReplacementAge, story.AgeRange.Min)
	}
	childName, childAge = s.child(childName, childAge)
	return s.engine.Replenish(ctx, key, childName, childAge, remaining+1)
}

func (s *storyService) InitializeCollections(ctx context.Context, childName string, childAge int) []models.CollectionSummary {
	childName, childAge = s.child(childName, childAge)
	return s.engine.InitializeCollections(ctx, childName, childAge)
}

func (s *storyService) PlayStory(ctx context.Context, storyID uuid.UUID) error {
	return s.hook.OnPlayed(ctx, storyID)
}

func (s *storyService) CompleteStory(ctx context.Context, storyID uuid.UUID) error {
	story, err := s.repo.GetByID(ctx, storyID)
	if err != nil {
		return err
	}
	return s.hook.OnCompleted(ctx, story)
}

func (s *storyService) RateStory(ctx context.Context, storyID uuid.UUID, rating int) (models.StoryStats, error) {
	return s.hook.Rate(ctx, storyID, rating)
}
