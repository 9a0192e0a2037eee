package llm

import (
	"time"

	"github.com/charmbracelet/log"
)

// Options configures a Generator.
type Options struct {
	APIKey      string
	BaseURL     string
	VisionModel string
	StoryModel  string
	ImageModel  string
	Timeout     time.Duration
	Mock        bool
}

// NewGenerator returns a MockClient when opts.Mock is set and a real
// OpenAI-backed client otherwise.
func NewGenerator(opts Options) Generator {
	if opts.Mock {
		log.Info("mock mode enabled, using mock generator")
		return NewMockClient()
	}
	return NewOpenAIClient(opts)
}
