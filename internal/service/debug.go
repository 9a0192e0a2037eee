package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/82deutschmark/MagicalFarmStories/internal/domain"
)

// TableInfo lists the database tables with their row counts.
func (s *Service) TableInfo(ctx context.Context) ([]domain.TableInfo, error) {
	return s.store.TableInfo(ctx)
}

// CreateTables applies pending schema migrations.
func (s *Service) CreateTables(ctx context.Context) error {
	if err := s.store.CreateTables(ctx); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	log.Info("tables created")
	return nil
}

// DropTables removes every application table.
func (s *Service) DropTables(ctx context.Context) error {
	if err := s.store.DropTables(ctx); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	log.Warn("tables dropped")
	return nil
}

// UploadImage stores raw image bytes as a new character.
func (s *Service) UploadImage(ctx context.Context, fileName string, data []byte) (*domain.Character, error) {
	if len(data) == 0 {
		return nil, invalid("no image uploaded")
	}
	if !isImageFile(fileName) {
		return nil, invalid("unsupported image type %q", filepath.Ext(fileName))
	}
	return s.CreateCharacter(ctx, base64.StdEncoding.EncodeToString(data), filepath.Base(fileName))
}

// SeedDirectory imports every image file in dir as a character and returns
// the number imported.
func (s *Service) SeedDirectory(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read image directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && isImageFile(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	log.Info("seeding characters", "dir", dir, "images", len(names))

	for i, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return i, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if _, err := s.UploadImage(ctx, name, data); err != nil {
			return i, fmt.Errorf("failed to import %s: %w", name, err)
		}
	}
	return len(names), nil
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif":
		return true
	}
	return false
}
