package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Panchalparth471/app-backend/internal/collections"
	"github.com/Panchalparth471/app-backend/internal/interfaces"
	"github.com/Panchalparth471/app-backend/internal/models"
	"github.com/Panchalparth471/app-backend/internal/schemas"
)

// Replenisher tops a collection up to a target number of active AI stories.
type Replenisher interface {
	// Replenish generates and stores at most targetTotal minus the current
	// active count of new stories. It only fails for unknown collections or
	// when the store cannot be read; generation problems yield an empty result.
	Replenish(ctx context.Context, collectionKey, childName string, childAge, targetTotal int) ([]*models.Story, error)
}

// ReplenishmentService is the Replenisher plus the initialization sweep.
type ReplenishmentService interface {
	Replenisher
	// InitializeCollections replenishes every registered collection to its target.
	InitializeCollections(ctx context.Context, childName string, childAge int) []models.CollectionSummary
}

// ReplenishmentConfig configures NewReplenishmentService.
type ReplenishmentConfig struct {
	MaxTokens        int
	DefaultChildName string
	InitConcurrency  int
}

type replenishmentService struct {
	registry *collections.Registry
	repo     interfaces.StoryRepository
	gateway  ProviderGateway
	notifier interfaces.ReplenishmentNotifier
	cfg      ReplenishmentConfig
	logger   *zap.Logger
}

var _ ReplenishmentService = (*replenishmentService)(nil)

// NewReplenishmentService wires the engine. notifier may be nil.
func NewReplenishmentService(
	registry *collections.Registry,
	repo interfaces.StoryRepository,
	gateway ProviderGateway,
	notifier interfaces.ReplenishmentNotifier,
	cfg ReplenishmentConfig,
	logger *zap.Logger,
) ReplenishmentService {
	if cfg.DefaultChildName == "" {
		cfg.DefaultChildName = "friend"
	}
	if cfg.InitConcurrency <= 0 {
		cfg.InitConcurrency = 1
	}
	return &replenishmentService{
		registry: registry,
		repo:     repo,
		gateway:  gateway,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger.Named("ReplenishmentService"),
	}
}

func (s *replenishmentService) Replenish(ctx context.Context, collectionKey, childName string, childAge, targetTotal int) ([]*models.Story, error) {
	descriptor, ok := s.registry.Describe(collectionKey)
	if !ok {
		replenishRunsTotal.WithLabelValues("unknown", "invalid_collection").Inc()
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidCollection, collectionKey)
	}
	if childName == "" {
		childName = s.cfg.DefaultChildName
	}
	log := s.logger.With(zap.String("collection", collectionKey), zap.Int("target", targetTotal))

	existing, err := s.repo.CountActiveAI(ctx, collectionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to count stories: %w", err)
	}
	need := max(0, targetTotal-existing)
	if need == 0 {
		replenishRunsTotal.WithLabelValues(collectionKey, "satisfied").Inc()
		log.Debug("Collection already at target", zap.Int("existing", existing))
		return []*models.Story{}, nil
	}
	log.Info("Replenishing collection", zap.Int("existing", existing), zap.Int("need", need))

	text := ""
	if s.gateway.TextEnabled() {
		text = s.gateway.GenerateText(ctx, buildStoryMessages(descriptor, need, childName, childAge), s.cfg.MaxTokens)
	} else {
		log.Warn("Text generation not configured, no stories will be generated")
	}

	candidates := schemas.ParseStoryCandidates(text, need, childAge)
	if len(candidates) == 0 {
		replenishRunsTotal.WithLabelValues(collectionKey, "no_candidates").Inc()
		log.Warn("No story candidates produced", zap.Int("responseLength", len(text)))
		return []*models.Story{}, nil
	}

	// generation is slow; other callers may have filled the collection meanwhile
	latest, err := s.repo.CountActiveAI(ctx, collectionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to re-count stories: %w", err)
	}
	remainingNeed := max(0, targetTotal-latest)
	if remainingNeed < len(candidates) {
		if dropped := len(candidates) - remainingNeed; dropped > 0 {
			replenishCandidatesSkipped.WithLabelValues(collectionKey, "satisfied_concurrently").Add(float64(dropped))
		}
		candidates = candidates[:remainingNeed]
	}
	if len(candidates) == 0 {
		replenishRunsTotal.WithLabelValues(collectionKey, "satisfied_concurrently").Inc()
		log.Info("Collection was filled by a concurrent caller", zap.Int("latest", latest))
		return []*models.Story{}, nil
	}

	saved := make([]*models.Story, 0, len(candidates))
	for _, c := range candidates {
		story, reason := s.persistCandidate(ctx, descriptor, c, log)
		if story == nil {
			replenishCandidatesSkipped.WithLabelValues(collectionKey, reason).Inc()
			continue
		}
		saved = append(saved, story)
	}

	replenishStoriesCreated.WithLabelValues(collectionKey).Add(float64(len(saved)))
	replenishRunsTotal.WithLabelValues(collectionKey, "completed").Inc()
	log.Info("Replenishment finished", zap.Int("saved", len(saved)), zap.Int("candidates", len(candidates)))

	s.notify(ctx, collectionKey, saved)
	return saved, nil
}

// persistCandidate stores one candidate. On skip it returns nil and the reason.
func (s *replenishmentService) persistCandidate(ctx context.Context, d models.CollectionDescriptor, c models.GenerationCandidate, log *zap.Logger) (*models.Story, string) {
	fields := []zap.Field{zap.String("title", c.Title)}

	if _, err := s.repo.FindActiveByTitle(ctx, d.Key, c.Title); err == nil {
		log.Info("Skipping duplicate story title", fields...)
		return nil, "duplicate"
	} else if !errors.Is(err, models.ErrNotFound) {
		log.Error("Failed to check for duplicate title", append(fields, zap.Error(err))...)
		return nil, "store_error"
	}

	story, err := models.NewAIStory(c, d)
	if err != nil {
		log.Error("Rejected invalid candidate", append(fields, zap.Error(err))...)
		return nil, "invalid"
	}

	if url, err := s.repo.FindAudioURL(ctx, c.Title, c.Content); err == nil {
		story.AudioURL = &url
		story.AudioPending = false
		audioReusedTotal.Inc()
		log.Debug("Reusing existing audio", fields...)
	} else {
		if !errors.Is(err, models.ErrNotFound) {
			log.Warn("Audio reuse lookup failed", append(fields, zap.Error(err))...)
		}
		if s.gateway.SpeechEnabled() {
			if url := s.gateway.SynthesizeSpeech(ctx, c.Content); url != nil {
				story.AudioURL = url
				story.AudioPending = false
			}
		}
	}

	if err := s.repo.Create(ctx, story); err != nil {
		if errors.Is(err, models.ErrDuplicateStory) {
			log.Info("Story title taken by a concurrent caller", fields...)
			return nil, "duplicate"
		}
		log.Error("Failed to persist story", append(fields, zap.Error(err))...)
		return nil, "store_error"
	}
	return story, ""
}

func (s *replenishmentService) notify(ctx context.Context, collectionKey string, saved []*models.Story) {
	if s.notifier == nil || len(saved) == 0 {
		return
	}
	ids := make([]string, 0, len(saved))
	for _, st := range saved {
		ids = append(ids, st.ID.String())
	}
	event := models.StoriesReplenishedEvent{CollectionKey: collectionKey, StoryIDs: ids, GeneratedAt: time.Now().UTC()}
	if err := s.notifier.NotifyReplenished(ctx, event); err != nil {
		s.logger.Warn("Failed to publish replenishment event", zap.String("collection", collectionKey), zap.Error(err))
	}
}

func (s *replenishmentService) InitializeCollections(ctx context.Context, childName string, childAge int) []models.CollectionSummary {
	descriptors := s.registry.All()
	summaries := make([]models.CollectionSummary, len(descriptors))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.InitConcurrency)
	for i, d := range descriptors {
		g.Go(func() error {
			summary := models.CollectionSummary{Key: d.Key, Label: d.Label}
			existing, err := s.repo.CountActiveAI(gctx, d.Key)
			if err != nil {
				summary.Error = err.Error()
				summaries[i] = summary
				return nil
			}
			summary.Existing = existing
			if existing < d.TargetCount {
				saved, err := s.Replenish(gctx, d.Key, childName, childAge, d.TargetCount)
				if err != nil {
					summary.Error = err.Error()
				}
				summary.Generated = len(saved)
			}
			summaries[i] = summary
			return nil
		})
	}
	_ = g.Wait()
	return summaries
}
