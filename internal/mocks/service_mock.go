package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/Panchalparth471/app-backend/internal/models"
	"github.com/Panchalparth471/app-backend/internal/service"
)

// MockReplenishmentService is a mock type for the ReplenishmentService type
type MockReplenishmentService struct {
	mock.Mock
}

// Replenish provides a mock function with given fields: ctx, collectionKey, childName, childAge, targetTotal
func (_m *MockReplenishmentService) Replenish(ctx context.Context, collectionKey string, childName string, childAge int, targetTotal int) ([]*models.Story, error) {
	ret := _m.Called(ctx, collectionKey, childName, childAge, targetTotal)

	var r0 []*models.Story
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*models.Story)
	}
	return r0, ret.Error(1)
}

// InitializeCollections provides a mock function with given fields: ctx, childName, childAge
func (_m *MockReplenishmentService) InitializeCollections(ctx context.Context, childName string, childAge int) []models.CollectionSummary {
	ret := _m.Called(ctx, childName, childAge)

	if ret.Get(0) == nil {
		return nil
	}
	return ret.Get(0).([]models.CollectionSummary)
}

var _ service.ReplenishmentService = (*MockReplenishmentService)(nil)

// MockConsumptionHook is a mock type for the ConsumptionHook type
type MockConsumptionHook struct {
	mock.Mock
}

// OnCompleted provides a mock function with given fields: ctx, story
func (_m *MockConsumptionHook) OnCompleted(ctx context.Context, story *models.Story) error {
	return _m.Called(ctx, story).Error(0)
}

// OnPlayed provides a mock function with given fields: ctx, storyID
func (_m *MockConsumptionHook) OnPlayed(ctx context.Context, storyID uuid.UUID) error {
	return _m.Called(ctx, storyID).Error(0)
}

// Rate provides a mock function with given fields: ctx, storyID, rating
func (_m *MockConsumptionHook) Rate(ctx context.Context, storyID uuid.UUID, rating int) (models.StoryStats, error) {
	ret := _m.Called(ctx, storyID, rating)

	var r0 models.StoryStats
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(models.StoryStats)
	}
	return r0, ret.Error(1)
}

var _ service.ConsumptionHook = (*MockConsumptionHook)(nil)

// MockStoryService is a mock type for the StoryService type
type MockStoryService struct {
	mock.Mock
}

// ListCollections provides a mock function with given fields:
func (_m *MockStoryService) ListCollections() []models.CollectionDescriptor {
	ret := _m.Called()

	if ret.Get(0) == nil {
		return nil
	}
	return ret.Get(0).([]models.CollectionDescriptor)
}

// CategoryStories provides a mock function with given fields: ctx, collectionKey, childName, childAge
func (_m *MockStoryService) CategoryStories(ctx context.Context, collectionKey string, childName string, childAge int) ([]*models.Story, error) {
	ret := _m.Called(ctx, collectionKey, childName, childAge)

	var r0 []*models.Story
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*models.Story)
	}
	return r0, ret.Error(1)
}

// RegenerateStory provides a mock function with given fields: ctx, storyID, childName, childAge
func (_m *MockStoryService) RegenerateStory(ctx context.Context, storyID uuid.UUID, childName string, childAge int) ([]*models.Story, error) {
	ret := _m.Called(ctx, storyID, childName, childAge)

	var r0 []*models.Story
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*models.Story)
	}
	return r0, ret.Error(1)
}

// InitializeCollections provides a mock function with given fields: ctx, childName, childAge
func (_m *MockStoryService) InitializeCollections(ctx context.Context, childName string, childAge int) []models.CollectionSummary {
	ret := _m.Called(ctx, childName, childAge)

	if ret.Get(0) == nil {
		return nil
	}
	return ret.Get(0).([]models.CollectionSummary)
}

// PlayStory provides a mock function with given fields: ctx, storyID
func (_m *MockStoryService) PlayStory(ctx context.Context, storyID uuid.UUID) error {
	return _m.Called(ctx, storyID).Error(0)
}

// CompleteStory provides a mock function with given fields: ctx, storyID
func (_m *MockStoryService) CompleteStory(ctx context.Context, storyID uuid.UUID) error {
	return _m.Called(ctx, storyID).Error(0)
}

// RateStory provides a mock function with given fields: ctx, storyID, rating
func (_m *MockStoryService) RateStory(ctx context.Context, storyID uuid.UUID, rating int) (models.StoryStats, error) {
	ret := _m.Called(ctx, storyID, rating)

	var r0 models.StoryStats
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(models.StoryStats)
	}
	return r0, ret.Error(1)
}

var _ service.StoryService = (*MockStoryService)(nil)
