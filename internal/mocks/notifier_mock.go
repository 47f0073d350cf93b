package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Panchalparth471/app-backend/internal/interfaces"
	"github.com/Panchalparth471/app-backend/internal/models"
)

// MockReplenishmentNotifier is a mock type for the ReplenishmentNotifier type
type MockReplenishmentNotifier struct {
	mock.Mock
}

// NotifyReplenished provides a mock function with given fields: ctx, event
func (_m *MockReplenishmentNotifier) NotifyReplenished(ctx context.Context, event models.StoriesReplenishedEvent) error {
	return _m.Called(ctx, event).Error(0)
}

var _ interfaces.ReplenishmentNotifier = (*MockReplenishmentNotifier)(nil)
