// Package llm provides one-shot generative calls: image description,
// story completion and illustration.
package llm

import "context"

// Generator defines the one-shot generation operations.
type Generator interface {
	// DescribeImage asks a vision model to describe the image at imageURL.
	DescribeImage(ctx context.Context, prompt, imageURL string) (string, error)

	// WriteStory completes a story prompt.
	WriteStory(ctx context.Context, prompt string) (string, error)

	// Illustrate generates an image for the prompt and returns its URL.
	Illustrate(ctx context.Context, prompt string) (string, error)
}

// Ensure OpenAIClient implements Generator interface.
var _ Generator = (*OpenAIClient)(nil)
