package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Panchalparth471/app-backend/internal/service"
)

type StoryHandler struct {
	svc    service.StoryService
	logger *zap.Logger
}

func NewStoryHandler(svc service.StoryService, logger *zap.Logger) *StoryHandler {
	return &StoryHandler{svc: svc, logger: logger.Named("StoryHandler")}
}

// RegisterRoutes mounts the story API on group. generation middleware
// (rate limiting) is applied to the endpoints that call the providers.
func (h *StoryHandler) RegisterRoutes(group *gin.RouterGroup, generation ...gin.HandlerFunc) {
	group.GET("/collections", h.listCollections)
	group.GET("/category-stories/:collectionKey", withMiddleware(generation, h.categoryStories)...)
	group.POST("/regenerate-story", withMiddleware(generation, h.regenerateStory)...)
	group.POST("/initialize-categories", withMiddleware(generation, h.initializeCategories)...)

	stories := group.Group("/stories/:id")
	{
		stories.POST("/play", h.playStory)
		stories.POST("/complete", h.completeStory)
		stories.POST("/rate", h.rateStory)
	}
}

func (h *StoryHandler) listCollections(c *gin.Context) {
	c.JSON(http.StatusOK, collectionsResponse{Collections: h.svc.ListCollections()})
}

func (h *StoryHandler) categoryStories(c *gin.Context) {
	key := c.Param("collectionKey")
	childAge := 0
	if raw := c.Query("childAge"); raw != "" {
		age, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "childAge must be a number")
			return
		}
		childAge = age
	}

	stories, err := h.svc.CategoryStories(c.Request.Context(), key, c.Query("childName"), childAge)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, categoryStoriesResponse{Category: key, Stories: stories, Count: len(stories)})
}

func (h *StoryHandler) regenerateStory(c *gin.Context) {
	var req regenerateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	storyID, err := uuid.Parse(req.StoryID)
	if err != nil {
		badRequest(c, "storyId must be a UUID")
		return
	}

	stories, err := h.svc.RegenerateStory(c.Request.Context(), storyID, req.ChildName, req.ChildAge)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.logger.Info("Story regenerated", zap.Stringer("storyID", storyID), zap.Int("replacements", len(stories)))
	c.JSON(http.StatusOK, storiesResponse{Stories: stories, Count: len(stories)})
}

func (h *StoryHandler) initializeCategories(c *gin.Context) {
	var req childRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}
	summaries := h.svc.InitializeCollections(c.Request.Context(), req.ChildName, req.ChildAge)
	c.JSON(http.StatusOK, initializeResponse{Collections: summaries})
}

func (h *StoryHandler) playStory(c *gin.Context) {
	storyID, ok := storyIDParam(c)
	if !ok {
		return
	}
	if err := h.svc.PlayStory(c.Request.Context(), storyID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StoryHandler) completeStory(c *gin.Context) {
	storyID, ok := storyIDParam(c)
	if !ok {
		return
	}
	if err := h.svc.CompleteStory(c.Request.Context(), storyID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *StoryHandler) rateStory(c *gin.Context) {
	storyID, ok := storyIDParam(c)
	if !ok {
		return
	}
	var req rateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	stats, err := h.svc.RateStory(c.Request.Context(), storyID, req.Rating)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ratingResponse{Stats: stats})
}

func withMiddleware(mw []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, len(mw)+1)
	return append(append(chain, mw...), h)
}

func storyIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid story id")
		return uuid.Nil, false
	}
	return id, true
}

// HealthCheck reports liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
