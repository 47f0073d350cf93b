package handler

import "github.com/Panchalparth471/app-backend/internal/models"

type childRequest struct {
	ChildName string `json:"childName"`
	ChildAge  int    `json:"childAge"`
}

type regenerateStoryRequest struct {
	StoryID   string `json:"storyId" binding:"required"`
	ChildName string `json:"childName"`
	ChildAge  int    `json:"childAge"`
}

type rateStoryRequest struct {
	Rating int `json:"rating" binding:"required"`
}

type categoryStoriesResponse struct {
	Category string          `json:"category"`
	Stories  []*models.Story `json:"stories"`
	Count    int             `json:"count"`
}

type storiesResponse struct {
	Stories []*models.Story `json:"stories"`
	Count   int             `json:"count"`
}

type collectionsResponse struct {
	Collections []models.CollectionDescriptor `json:"collections"`
}

type initializeResponse struct {
	Collections []models.CollectionSummary `json:"collections"`
}

type ratingResponse struct {
	Stats models.StoryStats `json:"stats"`
}
