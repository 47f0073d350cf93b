package models

import "time"

// StoryCompletedEvent arrives from other services when a child finishes a story.
type StoryCompletedEvent struct {
	StoryID string `json:"storyId"`
	ChildID string `json:"childId,omitempty"`
}

// StoriesReplenishedEvent is published after new AI stories were stored.
type StoriesReplenishedEvent struct {
	CollectionKey string    `json:"collectionKey"`
	StoryIDs      []string  `json:"storyIds"`
	GeneratedAt   time.Time `json:"generatedAt"`
}
