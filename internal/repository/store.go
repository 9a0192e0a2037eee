// Package repository defines the storage interface and its SQLite implementation.
package repository

import (
	"context"
	"errors"

	"github.com/82deutschmark/MagicalFarmStories/internal/domain"
)

// ErrNotFound is returned by updates that match no row.
var ErrNotFound = errors.New("not found")

// Store defines the interface for data persistence.
type Store interface {
	// Character operations
	CreateCharacter(ctx context.Context, character *domain.Character) error
	GetCharacter(ctx context.Context, storyMakerID string) (*domain.Character, error)
	ListCharacters(ctx context.Context) ([]domain.Character, error)
	RandomCharacters(ctx context.Context, count int) ([]domain.Character, error)
	UpdateCharacterAnalysis(ctx context.Context, storyMakerID, description, threadID string) error
	IncrementSelection(ctx context.Context, storyMakerID string) error

	// Story operations
	CreateStory(ctx context.Context, story *domain.Story) error
	GetStory(ctx context.Context, id int64) (*domain.Story, error)
	ListStories(ctx context.Context) ([]domain.Story, error)

	// Attempt operations
	CreateAttempt(ctx context.Context, attempt *domain.Attempt) error
	UpdateAttempt(ctx context.Context, attempt *domain.Attempt) error
	ListAttempts(ctx context.Context, characterID string, limit int) ([]domain.Attempt, error)

	// Schema operations
	TableInfo(ctx context.Context) ([]domain.TableInfo, error)
	CreateTables(ctx context.Context) error
	DropTables(ctx context.Context) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
