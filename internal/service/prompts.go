package service

import (
	"fmt"
	"strings"
)

const analysisPrompt = "Describe this farm animal character for a children's story. " +
	"Focus on appearance, personality traits, and anything unique about it."

const defaultAdditionalPrompt = "A magical adventure on the farm"

func storyPrompt(name, description, additional string) string {
	if strings.TrimSpace(additional) == "" {
		additional = defaultAdditionalPrompt
	}
	return fmt.Sprintf(`Create a short, magical children's story about a farm animal named %s.
Character description: %s
Additional elements to include: %s

The story should be appropriate for young children, have a positive message, and be about 300-400 words.`,
		name, description, additional)
}

// maxIllustrationStory keeps the image prompt inside the provider's prompt limit.
const maxIllustrationStory = 3000

func illustrationPrompt(storyText string) string {
	if runes := []rune(storyText); len(runes) > maxIllustrationStory {
		storyText = string(runes[:maxIllustrationStory]) + "..."
	}
	return fmt.Sprintf("Create a child-friendly, colorful illustration for this story: %s.\n"+
		"Style: Whimsical, magical farm setting with cute animals.", storyText)
}
