package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Panchalparth471/app-backend/internal/interfaces"
	"github.com/Panchalparth471/app-backend/internal/models"
	"github.com/Panchalparth471/app-backend/pkg/taskmanager"
)

// minReplacementAge is the lowest child age used when generating a replacement.
const minReplacementAge = 3

// ConsumptionHook reacts to engagement events on stories.
type ConsumptionHook interface {
	// OnCompleted retires a finished collection story and schedules a
	// replacement in the background. Other stories just count the completion.
	OnCompleted(ctx context.Context, story *models.Story) error
	OnPlayed(ctx context.Context, storyID uuid.UUID) error
	Rate(ctx context.Context, storyID uuid.UUID, rating int) (models.StoryStats, error)
}

type consumptionHook struct {
	repo             interfaces.StoryRepository
	replenisher      Replenisher
	tasks            taskmanager.ITaskManager
	defaultChildName string
	logger           *zap.Logger
}

var _ ConsumptionHook = (*consumptionHook)(nil)

// NewConsumptionHook wires the hook. Replacement generation runs on tasks.
func NewConsumptionHook(repo interfaces.StoryRepository, replenisher Replenisher, tasks taskmanager.ITaskManager, defaultChildName string, logger *zap.Logger) ConsumptionHook {
	return &consumptionHook{
		repo:             repo,
		replenisher:      replenisher,
		tasks:            tasks,
		defaultChildName: defaultChildName,
		logger:           logger.Named("ConsumptionHook"),
	}
}

func (h *consumptionHook) OnCompleted(ctx context.Context, story *models.Story) error {
	if story == nil {
		return fmt.Errorf("%w: story is nil", models.ErrInvalidInput)
	}
	log := h.logger.With(zap.Stringer("storyID", story.ID))

	if !story.IsCollectionItem() {
		if err := h.repo.IncrementCompletion(ctx, story.ID); err != nil {
			return fmt.Errorf("failed to record completion: %w", err)
		}
		log.Debug("Completion recorded")
		return nil
	}

	if err := h.repo.Deactivate(ctx, story.ID); err != nil {
		return fmt.Errorf("failed to deactivate story: %w", err)
	}

	key := story.CollectionKey()
	childAge := max(minReplacementAge, story.AgeRange.Min)
	taskID, err := h.tasks.SubmitTask(ctx, "replenish:"+key, func(taskCtx context.Context) error {
		saved, err := h.replenisher.Replenish(taskCtx, key, h.defaultChildName, childAge, 1)
		if err != nil {
			return fmt.Errorf("replacement for %s: %w", key, err)
		}
		h.logger.Info("Replacement generated",
			zap.String("collection", key), zap.Stringer("retiredStoryID", story.ID), zap.Int("saved", len(saved)))
		return nil
	})
	if err != nil {
		// the story is already retired; the next replenish of the collection fills the gap
		regenerationTasksTotal.WithLabelValues("dropped").Inc()
		log.Warn("Replacement not scheduled", zap.String("collection", key), zap.Error(err))
		return nil
	}
	if err := h.tasks.RegisterCallback(taskID, recordReplacementOutcome); err != nil {
		log.Warn("Replacement outcome will not be recorded", zap.Stringer("taskID", taskID), zap.Error(err))
	}
	log.Info("Story retired, replacement scheduled", zap.String("collection", key), zap.Stringer("taskID", taskID))
	return nil
}

func recordReplacementOutcome(task taskmanager.Task) {
	regenerationTasksTotal.WithLabelValues(string(task.Status)).Inc()
}

func (h *consumptionHook) OnPlayed(ctx context.Context, storyID uuid.UUID) error {
	if err := h.repo.IncrementPlay(ctx, storyID); err != nil {
		return fmt.Errorf("failed to record play: %w", err)
	}
	return nil
}

func (h *consumptionHook) Rate(ctx context.Context, storyID uuid.UUID, rating int) (models.StoryStats, error) {
	if rating < 1 || rating > 5 {
		return models.StoryStats{}, models.ErrInvalidRating
	}
	stats, err := h.repo.AddRating(ctx, storyID, rating)
	if err != nil {
		return models.StoryStats{}, fmt.Errorf("failed to save rating: %w", err)
	}
	return stats, nil
}
