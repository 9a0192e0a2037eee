// Package config provides configuration for the story service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// Provider settings
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	AssistantID         string
	AnalysisAssistantID string
	VisionModel         string
	StoryModel          string
	ImageModel          string
	Mode                string

	// Run polling
	PollInterval         time.Duration
	StoryPollAttempts    int
	AnalysisPollAttempts int

	// Timeouts
	RequestTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// Load loads configuration from environment variables.
func Load() *Config {
	assistantID := getEnv("ASSISTANT_ID", "")
	cfg := &Config{
		HTTPPort:             getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:          getEnv("DATABASE_URL", "file:farmstory.db?cache=shared&mode=rwc"),
		OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		AssistantID:          assistantID,
		AnalysisAssistantID:  getEnv("ANALYSIS_ASSISTANT_ID", assistantID),
		VisionModel:          getEnv("VISION_MODEL", "gpt-4o"),
		StoryModel:           getEnv("STORY_MODEL", "gpt-4-turbo"),
		ImageModel:           getEnv("IMAGE_MODEL", "dall-e-3"),
		Mode:                 strings.ToUpper(getEnv("FARMSTORY_MODE", "")),
		PollInterval:         time.Duration(getEnvInt("POLL_INTERVAL_MS", 1000)) * time.Millisecond,
		StoryPollAttempts:    getEnvInt("STORY_POLL_ATTEMPTS", 30),
		AnalysisPollAttempts: getEnvInt("ANALYSIS_POLL_ATTEMPTS", 60),
		RequestTimeout:       time.Duration(getEnvInt("REQUEST_TIMEOUT_MS", 60000)) * time.Millisecond,
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "text"),
	}
	return cfg
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 {
		return fmt.Errorf("HTTP_PORT must be > 0")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL cannot be empty")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL_MS must be > 0")
	}
	if c.StoryPollAttempts <= 0 || c.AnalysisPollAttempts <= 0 {
		return fmt.Errorf("poll attempts must be > 0")
	}
	if !c.IsMock() && c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required unless FARMSTORY_MODE=MOCK")
	}
	return nil
}

// IsMock reports whether generators should be replaced with local mocks.
func (c *Config) IsMock() bool {
	return c.Mode == "MOCK"
}

// UsesAssistants reports whether story generation goes through assistant runs.
func (c *Config) UsesAssistants() bool {
	return c.AssistantID != ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return intVal
		}
	}
	return defaultVal
}
