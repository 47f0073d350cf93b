package service

import (
	"fmt"
	"strings"

	"github.com/Panchalparth471/app-backend/internal/models"
)

const storyFormatInstructions = `Write exactly %d different stories.
Respond with a JSON array only, without any text before or after it:
[{"title": "...", "description": "...", "content": "...", "duration": 8}]
- "title": short and catchy, at most %d characters
- "description": one or two sentences, at most %d characters
- "content": the complete story text, written to be read aloud
- "duration": reading time in minutes, a number between %d and %d

If you cannot produce JSON, write one story per line in this format instead:
Title - Description - Full story text - N min`

// buildStoryMessages returns the system and user messages asking for need stories.
func buildStoryMessages(d models.CollectionDescriptor, need int, childName string, childAge int) []ChatMessage {
	var system strings.Builder
	system.WriteString(strings.TrimSpace(d.PromptTemplate))
	system.WriteString("\n\n")
	fmt.Fprintf(&system, "Theme: %s. Category: %s.\n\n", d.Theme, d.Category)
	fmt.Fprintf(&system, storyFormatInstructions, need,
		models.MaxTitleLength, models.MaxDescriptionLength, models.MinDuration, models.MaxDuration)

	ageRange := models.DeriveAgeRange(childAge)
	user := fmt.Sprintf(
		"Please create the stories for %s, who is %d years old. "+
			"Make them suitable for ages %d to %d and use %s's name in each story.",
		childName, childAge, ageRange.Min, ageRange.Max, childName)

	return []ChatMessage{
		{Role: RoleSystem, Content: system.String()},
		{Role: RoleUser, Content: user},
	}
}
