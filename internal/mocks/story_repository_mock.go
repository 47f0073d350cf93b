package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/Panchalparth471/app-backend/internal/interfaces"
	"github.com/Panchalparth471/app-backend/internal/models"
)

// MockStoryRepository is a mock type for the StoryRepository type
type MockStoryRepository struct {
	mock.Mock
}

// CountActiveAI provides a mock function with given fields: ctx, collectionKey
func (_m *MockStoryRepository) CountActiveAI(ctx context.Context, collectionKey string) (int, error) {
	ret := _m.Called(ctx, collectionKey)

	var r0 int
	if rf, ok := ret.Get(0).(func(context.Context, string) int); ok {
		r0 = rf(ctx, collectionKey)
	} else {
		r0 = ret.Int(0)
	}
	return r0, ret.Error(1)
}

// ListActiveAI provides a mock function with given fields: ctx, collectionKey, limit
func (_m *MockStoryRepository) ListActiveAI(ctx context.Context, collectionKey string, limit int) ([]*models.Story, error) {
	ret := _m.Called(ctx, collectionKey, limit)

	var r0 []*models.Story
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*models.Story)
	}
	return r0, ret.Error(1)
}

// FindActiveByTitle provides a mock function with given fields: ctx, collectionKey, title
func (_m *MockStoryRepository) FindActiveByTitle(ctx context.Context, collectionKey string, title string) (*models.Story, error) {
	ret := _m.Called(ctx, collectionKey, title)

	var r0 *models.Story
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Story)
	}
	return r0, ret.Error(1)
}

// FindAudioURL provides a mock function with given fields: ctx, title, content
func (_m *MockStoryRepository) FindAudioURL(ctx context.Context, title string, content string) (string, error) {
	ret := _m.Called(ctx, title, content)
	return ret.String(0), ret.Error(1)
}

// Create provides a mock function with given fields: ctx, story
func (_m *MockStoryRepository) Create(ctx context.Context, story *models.Story) error {
	ret := _m.Called(ctx, story)

	if rf, ok := ret.Get(0).(func(context.Context, *models.Story) error); ok {
		return rf(ctx, story)
	}
	return ret.Error(0)
}

// GetByID provides a mock function with given fields: ctx, id
func (_m *MockStoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	ret := _m.Called(ctx, id)

	var r0 *models.Story
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Story)
	}
	return r0, ret.Error(1)
}

// Deactivate provides a mock function with given fields: ctx, id
func (_m *MockStoryRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return _m.Called(ctx, id).Error(0)
}

// IncrementPlay provides a mock function with given fields: ctx, id
func (_m *MockStoryRepository) IncrementPlay(ctx context.Context, id uuid.UUID) error {
	return _m.Called(ctx, id).Error(0)
}

// IncrementCompletion provides a mock function with given fields: ctx, id
func (_m *MockStoryRepository) IncrementCompletion(ctx context.Context, id uuid.UUID) error {
	return _m.Called(ctx, id).Error(0)
}

// AddRating provides a mock function with given fields: ctx, id, rating
func (_m *MockStoryRepository) AddRating(ctx context.Context, id uuid.UUID, rating int) (models.StoryStats, error) {
	ret := _m.Called(ctx, id, rating)

	var r0 models.StoryStats
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(models.StoryStats)
	}
	return r0, ret.Error(1)
}

// NewMockStoryRepository creates a new instance of MockStoryRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockStoryRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStoryRepository {
	m := &MockStoryRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ interfaces.StoryRepository = (*MockStoryRepository)(nil)
