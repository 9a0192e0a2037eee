package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/82deutschmark/MagicalFarmStories/internal/domain"
	"github.com/82deutschmark/MagicalFarmStories/internal/runflow"
)

// DefaultCharacterCount is the number of characters offered when the caller
// does not ask for a specific count.
const DefaultCharacterCount = 3

const maxCharacterCount = 50

// RandomCharacters returns up to count random characters.
func (s *Service) RandomCharacters(ctx context.Context, count int) ([]domain.Character, error) {
	if count <= 0 {
		count = DefaultCharacterCount
	}
	if count > maxCharacterCount {
		return nil, invalid("count must be at most %d", maxCharacterCount)
	}
	characters, err := s.store.RandomCharacters(ctx, count)
	if err != nil {
		return nil, fmt.Errorf("failed to load characters: %w", err)
	}
	return characters, nil
}

// GetCharacter returns a character by story-maker id.
func (s *Service) GetCharacter(ctx context.Context, storyMakerID string) (*domain.Character, error) {
	character, err := s.store.GetCharacter(ctx, storyMakerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get character: %w", err)
	}
	if character == nil {
		return nil, fmt.Errorf("character %s: %w", storyMakerID, ErrNotFound)
	}
	return character, nil
}

// SelectCharacter records that a user picked the character.
func (s *Service) SelectCharacter(ctx context.Context, storyMakerID string) (*domain.Character, error) {
	if err := s.store.IncrementSelection(ctx, storyMakerID); err != nil {
		return nil, fmt.Errorf("failed to select character: %w", err)
	}
	return s.GetCharacter(ctx, storyMakerID)
}

// CreateCharacter stores a new character image under a fresh story-maker id.
func (s *Service) CreateCharacter(ctx context.Context, imageBase64, fileName string) (*domain.Character, error) {
	imageBase64 = strings.TrimSpace(imageBase64)
	if imageBase64 == "" {
		return nil, invalid("image data required")
	}
	character := &domain.Character{
		StoryMakerID:     uuid.New().String(),
		ImageBase64:      imageBase64,
		OriginalFileName: fileName,
	}
	if err := s.store.CreateCharacter(ctx, character); err != nil {
		return nil, fmt.Errorf("failed to create character: %w", err)
	}
	log.Info("character created", "story_maker_id", character.StoryMakerID, "file", fileName)
	return character, nil
}

// AnalyzeCharacter describes a stored character image and persists the
// description together with the thread that produced it.
func (s *Service) AnalyzeCharacter(ctx context.Context, storyMakerID string) (*domain.Character, *domain.AnalyzeImageResponse, error) {
	character, err := s.GetCharacter(ctx, storyMakerID)
	if err != nil {
		return nil, nil, err
	}

	resp, err := s.describe(ctx, character.ImageDataURL(), storyMakerID, storyMakerID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.store.UpdateCharacterAnalysis(ctx, storyMakerID, resp.Description, resp.ThreadID); err != nil {
		return nil, nil, fmt.Errorf("failed to save analysis: %w", err)
	}
	character.Description = resp.Description
	character.AnalyzedByAI = true
	character.ThreadID = resp.ThreadID
	return character, resp, nil
}

// AnalyzeImage describes an ad-hoc image without persisting it.
func (s *Service) AnalyzeImage(ctx context.Context, req domain.AnalyzeImageRequest) (*domain.AnalyzeImageResponse, error) {
	if strings.TrimSpace(req.ImageBase64) == "" {
		return nil, invalid("image data required")
	}
	return s.describe(ctx, domain.ImageDataURL(req.ImageBase64, req.FileName), "", req.Channel)
}

func (s *Service) describe(ctx context.Context, imageURL, characterID, channel string) (*domain.AnalyzeImageResponse, error) {
	a := s.startAttempt(ctx, domain.AttemptKindAnalysis, characterID, channel)
	description, err := a.ask(ctx, runflow.Request{
		AssistantID: s.analysisAssistant(),
		Text:        analysisPrompt,
		ImageURL:    imageURL,
		MaxAttempts: s.config.AnalysisPollAttempts,
		Interval:    s.config.PollInterval,
	}, func(ctx context.Context) (string, error) {
		return s.generator.DescribeImage(ctx, analysisPrompt, imageURL)
	})
	if err != nil {
		return nil, fmt.Errorf("image analysis failed: %w", err)
	}
	return &domain.AnalyzeImageResponse{
		Description: description,
		ThreadID:    a.record.ThreadID,
		AttemptID:   a.record.AttemptID,
	}, nil
}
