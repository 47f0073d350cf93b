package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/Panchalparth471/app-backend/internal/interfaces"
	"github.com/Panchalparth471/app-backend/internal/models"
)

type PgStoryRepositorySuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	pool        *pgxpool.Pool
	repo        interfaces.StoryRepository
}

func TestPgStoryRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration tests in short mode")
	}
	suite.Run(t, new(PgStoryRepositorySuite))
}

func (s *PgStoryRepositorySuite) SetupSuite() {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("stories-test"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(5*time.Minute),
		),
	)
	s.Require().NoError(err)
	s.pgContainer = pgContainer

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)
	s.Require().NoError(RunMigrations(dsn, zap.NewNop()))
	// second run is a no-op
	s.Require().NoError(RunMigrations(dsn, zap.NewNop()))

	s.pool, err = NewPool(ctx, PoolConfig{DSN: dsn, MaxConns: 5}, zap.NewNop())
	s.Require().NoError(err)
	s.repo = NewPgStoryRepository(s.pool, zap.NewNop())
}

func (s *PgStoryRepositorySuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.pgContainer != nil {
		s.Require().NoError(s.pgContainer.Terminate(context.Background()))
	}
}

func (s *PgStoryRepositorySuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(), "TRUNCATE stories")
	s.Require().NoError(err)
}

func (s *PgStoryRepositorySuite) newStory(collection, title string) *models.Story {
	story, err := models.NewAIStory(models.GenerationCandidate{
		Title:       title,
		Description: "about " + title,
		Content:     "content of " + title,
		Duration:    9,
		AgeRange:    models.AgeRange{Min: 3, Max: 7},
	}, models.CollectionDescriptor{Key: collection, Theme: "family", Category: "bedtime", Icon: "🌙"})
	s.Require().NoError(err)
	return story
}

func (s *PgStoryRepositorySuite) TestCreateGetRoundTrip() {
	ctx := context.Background()
	story := s.newStory("mom-stories", "Night Lights")
	s.Require().NoError(s.repo.Create(ctx, story))

	got, err := s.repo.GetByID(ctx, story.ID)
	s.Require().NoError(err)
	s.Equal("Night Lights", got.Title)
	s.Equal(models.AgeRange{Min: 3, Max: 7}, got.AgeRange)
	s.Equal("mom-stories", got.CollectionKey())
	s.True(got.IsAIGenerated)
	s.True(got.IsActive)
	s.True(got.AudioPending)
	s.Nil(got.AudioURL)
	s.Equal(9, got.Duration)

	_, err = s.repo.GetByID(ctx, uuid.New())
	s.ErrorIs(err, models.ErrNotFound)
}

func (s *PgStoryRepositorySuite) TestCountListAndDeactivate() {
	ctx := context.Background()
	a := s.newStory("learn-stories", "A")
	s.Require().NoError(s.repo.Create(ctx, a))
	s.Require().NoError(s.repo.Create(ctx, s.newStory("learn-stories", "B")))
	s.Require().NoError(s.repo.Create(ctx, s.newStory("dad-stories", "C")))

	n, err := s.repo.CountActiveAI(ctx, "learn-stories")
	s.Require().NoError(err)
	s.Equal(2, n)

	list, err := s.repo.ListActiveAI(ctx, "learn-stories", 10)
	s.Require().NoError(err)
	s.Len(list, 2)

	s.Require().NoError(s.repo.Deactivate(ctx, a.ID))
	n, _ = s.repo.CountActiveAI(ctx, "learn-stories")
	s.Equal(1, n)

	s.ErrorIs(s.repo.Deactivate(ctx, uuid.New()), models.ErrNotFound)
}

func (s *PgStoryRepositorySuite) TestDuplicateTitleIsRejectedByIndex() {
	ctx := context.Background()
	s.Require().NoError(s.repo.Create(ctx, s.newStory("learn-stories", "Rain")))
	s.ErrorIs(s.repo.Create(ctx, s.newStory("learn-stories", "rain")), models.ErrDuplicateStory)
	s.NoError(s.repo.Create(ctx, s.newStory("mom-stories", "Rain")))

	found, err := s.repo.FindActiveByTitle(ctx, "learn-stories", "RAIN")
	s.Require().NoError(err)
	s.Equal("Rain", found.Title)

	_, err = s.repo.FindActiveByTitle(ctx, "learn-stories", "Snow")
	s.ErrorIs(err, models.ErrNotFound)
}

func (s *PgStoryRepositorySuite) TestConcurrentCreateSameTitle() {
	ctx := context.Background()
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.repo.Create(ctx, s.newStory("adventure-stories", "Same Title")) == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(1, created)
}

func (s *PgStoryRepositorySuite) TestFindAudioURL() {
	ctx := context.Background()
	_, err := s.repo.FindAudioURL(ctx, "Moon", "x")
	s.ErrorIs(err, models.ErrNotFound)

	story := s.newStory("dad-stories", "Moon")
	url := "http://localhost/audio/moon.mp3"
	story.AudioURL = &url
	story.AudioPending = false
	s.Require().NoError(s.repo.Create(ctx, story))

	got, err := s.repo.FindAudioURL(ctx, "moon", "nope")
	s.Require().NoError(err)
	s.Equal(url, got)

	got, err = s.repo.FindAudioURL(ctx, "nope", story.Content)
	s.Require().NoError(err)
	s.Equal(url, got)
}

func (s *PgStoryRepositorySuite) TestStatsAndRating() {
	ctx := context.Background()
	story := s.newStory("mom-stories", "Rated")
	s.Require().NoError(s.repo.Create(ctx, story))

	s.Require().NoError(s.repo.IncrementPlay(ctx, story.ID))
	s.Require().NoError(s.repo.IncrementPlay(ctx, story.ID))
	s.Require().NoError(s.repo.IncrementCompletion(ctx, story.ID))

	_, err := s.repo.AddRating(ctx, story.ID, 4)
	s.Require().NoError(err)
	stats, err := s.repo.AddRating(ctx, story.ID, 2)
	s.Require().NoError(err)
	s.InDelta(3.0, stats.AverageRating, 1e-9)
	s.Equal(2, stats.TotalRatings)
	s.Equal(2, stats.PlayCount)
	s.Equal(1, stats.CompletionCount)

	_, err = s.repo.AddRating(ctx, uuid.New(), 3)
	s.ErrorIs(err, models.ErrNotFound)
}
