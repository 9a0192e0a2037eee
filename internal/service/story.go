package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/82deutschmark/MagicalFarmStories/internal/domain"
	"github.com/82deutschmark/MagicalFarmStories/internal/policy"
	"github.com/82deutschmark/MagicalFarmStories/internal/runflow"
)

// GenerateStory writes a story for a character. When CharacterID is set the
// stored description fills in a missing CharacterDescription and progress is
// published on the character's channel.
func (s *Service) GenerateStory(ctx context.Context, req domain.GenerateStoryRequest) (*domain.GenerateStoryResponse, error) {
	req.CharacterName = strings.TrimSpace(req.CharacterName)

	if req.CharacterID != "" {
		character, err := s.GetCharacter(ctx, req.CharacterID)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(req.CharacterDescription) == "" {
			req.CharacterDescription = character.Description
		}
	}

	if err := s.checkPolicy(ctx, req); err != nil {
		return nil, err
	}

	prompt := storyPrompt(req.CharacterName, req.CharacterDescription, req.AdditionalPrompt)
	a := s.startAttempt(ctx, domain.AttemptKindStory, req.CharacterID, req.CharacterID)
	story, err := a.ask(ctx, runflow.Request{
		AssistantID: s.storyAssistant(),
		Text:        prompt,
		MaxAttempts: s.config.StoryPollAttempts,
		Interval:    s.config.PollInterval,
	}, func(ctx context.Context) (string, error) {
		return s.generator.WriteStory(ctx, prompt)
	})
	if err != nil {
		return nil, fmt.Errorf("story generation failed: %w", err)
	}

	log.Info("story generated", "attempt_id", a.record.AttemptID, "character", req.CharacterName, "thread_id", a.record.ThreadID)
	return &domain.GenerateStoryResponse{
		Story:     story,
		ThreadID:  a.record.ThreadID,
		AttemptID: a.record.AttemptID,
	}, nil
}

func (s *Service) checkPolicy(ctx context.Context, req domain.GenerateStoryRequest) error {
	if s.policyEngine == nil {
		return nil
	}
	decision, err := s.policyEngine.Evaluate(ctx, policy.Input{
		CharacterName:    req.CharacterName,
		AdditionalPrompt: req.AdditionalPrompt,
		Description:      req.CharacterDescription,
	})
	if err != nil {
		return fmt.Errorf("policy evaluation failed: %w", err)
	}
	if !decision.Allowed() {
		log.Info("story request blocked", "character", req.CharacterName, "reason", decision.Reason)
		return &PolicyError{Reason: decision.Reason}
	}
	return nil
}

// GenerateIllustration produces an illustration URL for a story. It is a
// single call with no polling.
func (s *Service) GenerateIllustration(ctx context.Context, req domain.IllustrationRequest) (*domain.IllustrationResponse, error) {
	if strings.TrimSpace(req.StoryText) == "" {
		return nil, invalid("storyText is required")
	}
	url, err := s.generator.Illustrate(ctx, illustrationPrompt(req.StoryText))
	if err != nil {
		return nil, fmt.Errorf("illustration failed: %w", err)
	}
	return &domain.IllustrationResponse{ImageURL: url}, nil
}

// SaveStory persists a finished story.
func (s *Service) SaveStory(ctx context.Context, req domain.SaveStoryRequest) (*domain.Story, error) {
	if strings.TrimSpace(req.Character) == "" || strings.TrimSpace(req.CharacterImageID) == "" || strings.TrimSpace(req.StoryText) == "" {
		return nil, invalid("invalid story data")
	}
	story := &domain.Story{
		Character:        req.Character,
		CharacterImageID: req.CharacterImageID,
		StoryText:        req.StoryText,
	}
	if req.Illustration != nil {
		story.Illustration = *req.Illustration
	}
	if err := s.store.CreateStory(ctx, story); err != nil {
		return nil, fmt.Errorf("failed to save story: %w", err)
	}
	return story, nil
}

// ListStories returns every saved story, newest first.
func (s *Service) ListStories(ctx context.Context) ([]domain.Story, error) {
	stories, err := s.store.ListStories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stories: %w", err)
	}
	return stories, nil
}

// GetStory returns one saved story.
func (s *Service) GetStory(ctx context.Context, id int64) (*domain.Story, error) {
	story, err := s.store.GetStory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	if story == nil {
		return nil, fmt.Errorf("story %d: %w", id, ErrNotFound)
	}
	return story, nil
}

// ListAttempts returns recent workflow attempts, optionally for one character.
func (s *Service) ListAttempts(ctx context.Context, characterID string, limit int) ([]domain.Attempt, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	attempts, err := s.store.ListAttempts(ctx, characterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, nil
}
