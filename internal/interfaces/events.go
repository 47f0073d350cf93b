package interfaces

import (
	"context"

	"github.com/Panchalparth471/app-backend/internal/models"
)

// ReplenishmentNotifier announces newly generated stories to other services.
type ReplenishmentNotifier interface {
	NotifyReplenished(ctx context.Context, event models.StoriesReplenishedEvent) error
}
