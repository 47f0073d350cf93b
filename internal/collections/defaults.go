package collections

import "github.com/Panchalparth471/app-backend/internal/models"

// DefaultDescriptors are the collections shipped with the app.
func DefaultDescriptors() []models.CollectionDescriptor {
	return []models.CollectionDescriptor{
		{
			Key:   "mom-stories",
			Label: "Stories from Mom",
			Icon:  "👩",
			PromptTemplate: "You write warm, gentle stories told in the voice of a loving mother. " +
				"Stories are calm, reassuring and end with a feeling of safety and love.",
			Theme:    "family",
			Category: "bedtime",
		},
		{
			Key:   "dad-stories",
			Label: "Stories from Dad",
			Icon:  "👨",
			PromptTemplate: "You write playful, funny stories told in the voice of a caring father. " +
				"Stories include small adventures, silly jokes and a kind lesson at the end.",
			Theme:    "family",
			Category: "adventure",
		},
		{
			Key:   "learn-stories",
			Label: "Learn Something New",
			Icon:  "📚",
			PromptTemplate: "You write short educational stories that teach one simple fact about " +
				"nature, science, numbers or everyday life through a friendly character.",
			Theme:    "learning",
			Category: "educational",
		},
		{
			Key:   "bedtime-stories",
			Label: "Sleepy Time",
			Icon:  "🌙",
			PromptTemplate: "You write slow, soothing bedtime stories with soft imagery and a quiet, " +
				"sleepy ending. Avoid excitement and conflict.",
			Theme:    "sleep",
			Category: "bedtime",
		},
		{
			Key:   "adventure-stories",
			Label: "Big Adventures",
			Icon:  "🗺️",
			PromptTemplate: "You write exciting but age-appropriate adventure stories about brave " +
				"children and animals who solve problems with courage and friendship.",
			Theme:    "courage",
			Category: "adventure",
		},
	}
}
