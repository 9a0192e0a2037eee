// Package service implements the story workflows on top of the store,
// the assistant runner and the one-shot generators.
package service

import (
	"github.com/82deutschmark/MagicalFarmStories/internal/adapter/llm"
	"github.com/82deutschmark/MagicalFarmStories/internal/config"
	"github.com/82deutschmark/MagicalFarmStories/internal/domain"
	"github.com/82deutschmark/MagicalFarmStories/internal/policy"
	"github.com/82deutschmark/MagicalFarmStories/internal/repository"
	"github.com/82deutschmark/MagicalFarmStories/internal/runflow"
)

// Publisher receives workflow progress events for a channel.
type Publisher interface {
	Publish(channel string, event domain.ProgressEvent)
}

type Service struct {
	store        repository.Store
	runner       *runflow.Runner
	generator    llm.Generator
	config       *config.Config
	policyEngine *policy.Engine
	progress     Publisher
}

// New creates a Service. runner may be nil, in which case every workflow
// uses the one-shot generator. progress may be nil.
func New(store repository.Store, runner *runflow.Runner, generator llm.Generator, cfg *config.Config, policyEngine *policy.Engine, progress Publisher) *Service {
	return &Service{
		store:        store,
		runner:       runner,
		generator:    generator,
		config:       cfg,
		policyEngine: policyEngine,
		progress:     progress,
	}
}

func (s *Service) storyAssistant() string {
	if s.runner == nil {
		return ""
	}
	return s.config.AssistantID
}

func (s *Service) analysisAssistant() string {
	if s.runner == nil {
		return ""
	}
	return s.config.AnalysisAssistantID
}
