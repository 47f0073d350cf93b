package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/Panchalparth471/app-backend/internal/interfaces"
	"github.com/Panchalparth471/app-backend/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	activeTitleUniqueName = "uq_stories_active_collection_title"

	storyColumns = `
        id, title, description, content, duration, age_min, age_max, theme, category,
        thumbnail, is_ai_generated, generated_for_collection, is_active, audio_pending,
        audio_url, play_count, completion_count, average_rating, total_ratings,
        created_at, updated_at`
)

// Compile-time check
var _ interfaces.StoryRepository = (*pgStoryRepository)(nil)

// storyRow is the flat table shape of models.Story.
type storyRow struct {
	ID                     uuid.UUID `db:"id"`
	Title                  string    `db:"title"`
	Description            string    `db:"description"`
	Content                string    `db:"content"`
	Duration               int       `db:"duration"`
	AgeMin                 int       `db:"age_min"`
	AgeMax                 int       `db:"age_max"`
	Theme                  string    `db:"theme"`
	Category               string    `db:"category"`
	Thumbnail              string    `db:"thumbnail"`
	IsAIGenerated          bool      `db:"is_ai_generated"`
	GeneratedForCollection *string   `db:"generated_for_collection"`
	IsActive               bool      `db:"is_active"`
	AudioPending           bool      `db:"audio_pending"`
	AudioURL               *string   `db:"audio_url"`
	PlayCount              int       `db:"play_count"`
	CompletionCount        int       `db:"completion_count"`
	AverageRating          float64   `db:"average_rating"`
	TotalRatings           int       `db:"total_ratings"`
	CreatedAt              time.Time `db:"created_at"`
	UpdatedAt              time.Time `db:"updated_at"`
}

func (r *storyRow) toModel() *models.Story {
	return &models.Story{
		ID:                     r.ID,
		Title:                  r.Title,
		Description:            r.Description,
		Content:                r.Content,
		Duration:               r.Duration,
		AgeRange:               models.AgeRange{Min: r.AgeMin, Max: r.AgeMax},
		Theme:                  r.Theme,
		Category:               r.Category,
		Thumbnail:              r.Thumbnail,
		IsAIGenerated:          r.IsAIGenerated,
		GeneratedForCollection: r.GeneratedForCollection,
		IsActive:               r.IsActive,
		AudioPending:           r.AudioPending,
		AudioURL:               r.AudioURL,
		Stats: models.StoryStats{
			PlayCount:       r.PlayCount,
			CompletionCount: r.CompletionCount,
			AverageRating:   r.AverageRating,
			TotalRatings:    r.TotalRatings,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type pgStoryRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgStoryRepository creates a PostgreSQL-backed StoryRepository.
func NewPgStoryRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.StoryRepository {
	return &pgStoryRepository{
		db:     db,
		logger: logger.Named("PgStoryRepo"),
	}
}

func (r *pgStoryRepository) CountActiveAI(ctx context.Context, collectionKey string) (int, error) {
	query := `
        SELECT COUNT(*) FROM stories
        WHERE is_active AND is_ai_generated AND generated_for_collection = $1`
	var count int
	if err := r.db.QueryRow(ctx, query, collectionKey).Scan(&count); err != nil {
		r.logger.Error("Failed to count active AI stories", zap.String("collection", collectionKey), zap.Error(err))
		return 0, fmt.Errorf("failed to count stories for collection %s: %w", collectionKey, err)
	}
	return count, nil
}

func (r *pgStoryRepository) ListActiveAI(ctx context.Context, collectionKey string, limit int) ([]*models.Story, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + storyColumns + `
        FROM stories
        WHERE is_active AND is_ai_generated AND generated_for_collection = $1
        ORDER BY created_at DESC
        LIMIT $2`

	var rows []storyRow
	if err := pgxscan.Select(ctx, r.db, &rows, query, collectionKey, limit); err != nil {
		r.logger.Error("Failed to list active AI stories", zap.String("collection", collectionKey), zap.Error(err))
		return nil, fmt.Errorf("failed to list stories for collection %s: %w", collectionKey, err)
	}
	stories := make([]*models.Story, 0, len(rows))
	for i := range rows {
		stories = append(stories, rows[i].toModel())
	}
	return stories, nil
}

func (r *pgStoryRepository) FindActiveByTitle(ctx context.Context, collectionKey, title string) (*models.Story, error) {
	query := `SELECT ` + storyColumns + `
        FROM stories
        WHERE is_active AND is_ai_generated AND generated_for_collection = $1 AND lower(title) = lower($2)
        LIMIT 1`
	return r.getOne(ctx, query, collectionKey, title)
}

func (r *pgStoryRepository) FindAudioURL(ctx context.Context, title, content string) (string, error) {
	query := `
        SELECT audio_url FROM stories
        WHERE audio_url IS NOT NULL AND (lower(title) = lower($1) OR content = $2)
        ORDER BY created_at ASC
        LIMIT 1`
	var url string
	err := r.db.QueryRow(ctx, query, title, content).Scan(&url)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", models.ErrNotFound
		}
		r.logger.Error("Failed to look up reusable audio", zap.String("title", title), zap.Error(err))
		return "", fmt.Errorf("failed to look up audio: %w", err)
	}
	return url, nil
}

func (r *pgStoryRepository) Create(ctx context.Context, story *models.Story) error {
	if story.IsAIGenerated && story.CollectionKey() == "" {
		return models.ErrMissingCollection
	}
	if story.ID == uuid.Nil {
		story.ID = uuid.New()
	}
	now := time.Now().UTC()
	story.CreatedAt = now
	story.UpdatedAt = now

	query := `
        INSERT INTO stories (` + storyColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	logFields := []zap.Field{
		zap.String("storyID", story.ID.String()),
		zap.String("collection", story.CollectionKey()),
		zap.String("title", story.Title),
	}

	_, err := r.db.Exec(ctx, query,
		story.ID, story.Title, story.Description, story.Content, story.Duration,
		story.AgeRange.Min, story.AgeRange.Max, story.Theme, story.Category, story.Thumbnail,
		story.IsAIGenerated, story.GeneratedForCollection, story.IsActive, story.AudioPending, story.AudioURL,
		story.Stats.PlayCount, story.Stats.CompletionCount, story.Stats.AverageRating, story.Stats.TotalRatings,
		story.CreatedAt, story.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == activeTitleUniqueName {
			r.logger.Warn("Duplicate active story title in collection", logFields...)
			return models.ErrDuplicateStory
		}
		r.logger.Error("Failed to create story", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create story: %w", err)
	}
	r.logger.Debug("Story created", logFields...)
	return nil
}

func (r *pgStoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *pgStoryRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.Story, error) {
	var row storyRow
	if err := pgxscan.Get(ctx, r.db, &row, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	return row.toModel(), nil
}

func (r *pgStoryRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE stories SET is_active = FALSE, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, "deactivate", query, id)
}

func (r *pgStoryRepository) IncrementPlay(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE stories SET play_count = play_count + 1, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, "increment play", query, id)
}

func (r *pgStoryRepository) IncrementCompletion(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE stories SET completion_count = completion_count + 1, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, "increment completion", query, id)
}

func (r *pgStoryRepository) execOne(ctx context.Context, op, query string, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Story update failed", zap.String("op", op), zap.String("storyID", id.String()), zap.Error(err))
		return fmt.Errorf("failed to %s story %s: %w", op, id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// AddRating updates the mean in one statement so concurrent ratings are not lost.
func (r *pgStoryRepository) AddRating(ctx context.Context, id uuid.UUID, rating int) (models.StoryStats, error) {
	if rating < 1 || rating > 5 {
		return models.StoryStats{}, models.ErrInvalidRating
	}
	query := `
        UPDATE stories
        SET average_rating = (average_rating * total_ratings + $2) / (total_ratings + 1),
            total_ratings  = total_ratings + 1,
            updated_at     = NOW()
        WHERE id = $1
        RETURNING play_count, completion_count, average_rating, total_ratings`

	var stats models.StoryStats
	err := r.db.QueryRow(ctx, query, id, float64(rating)).
		Scan(&stats.PlayCount, &stats.CompletionCount, &stats.AverageRating, &stats.TotalRatings)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.StoryStats{}, models.ErrNotFound
		}
		r.logger.Error("Failed to add rating", zap.String("storyID", id.String()), zap.Error(err))
		return models.StoryStats{}, fmt.Errorf("failed to rate story %s: %w", id, err)
	}
	return stats, nil
}
