package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/82deutschmark/MagicalFarmStories/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its dialect and filesystem in package state.
var gooseMu sync.Mutex

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database and applies pending migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.CreateTables(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func withGoose(fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return fn()
}

// CreateTables applies all pending migrations.
func (s *SQLiteStore) CreateTables(ctx context.Context) error {
	return withGoose(func() error {
		return goose.UpContext(ctx, s.db, "migrations")
	})
}

// DropTables rolls back every migration, dropping all application tables.
func (s *SQLiteStore) DropTables(ctx context.Context) error {
	return withGoose(func() error {
		return goose.DownToContext(ctx, s.db, "migrations", 0)
	})
}

// TableInfo lists application tables with their row counts.
func (s *SQLiteStore) TableInfo(ctx context.Context) ([]domain.TableInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master
		 WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name != 'goose_db_version'
		 ORDER BY name`)
	if err != nil {
		return nil, err
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, err
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	infos := make([]domain.TableInfo, 0, len(names))
	for _, name := range names {
		info := domain.TableInfo{Name: name}
		query := fmt.Sprintf(`SELECT COUNT(*) FROM "%s"`, strings.ReplaceAll(name, `"`, `""`))
		if err := s.db.QueryRowContext(ctx, query).Scan(&info.RowCount); err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const characterColumns = `id, story_maker_id, image_base64, original_file_name, description,
	analyzed_by_ai, selection_count, thread_id, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCharacter(row rowScanner) (*domain.Character, error) {
	var c domain.Character
	var fileName, description, threadID sql.NullString
	if err := row.Scan(&c.ID, &c.StoryMakerID, &c.ImageBase64, &fileName, &description,
		&c.AnalyzedByAI, &c.SelectionCount, &threadID, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.OriginalFileName = fileName.String
	c.Description = description.String
	c.ThreadID = threadID.String
	return &c, nil
}

// CreateCharacter inserts a character and sets its ID.
func (s *SQLiteStore) CreateCharacter(ctx context.Context, character *domain.Character) error {
	if character.CreatedAt.IsZero() {
		character.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO farm_images (story_maker_id, image_base64, original_file_name, description,
			analyzed_by_ai, selection_count, thread_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		character.StoryMakerID, character.ImageBase64, nullString(character.OriginalFileName),
		nullString(character.Description), character.AnalyzedByAI, character.SelectionCount,
		nullString(character.ThreadID), character.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	character.ID = id
	return nil
}

// GetCharacter retrieves a character by story-maker ID. It returns nil when absent.
func (s *SQLiteStore) GetCharacter(ctx context.Context, storyMakerID string) (*domain.Character, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+characterColumns+` FROM farm_images WHERE story_maker_id = ?`, storyMakerID)
	c, err := scanCharacter(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListCharacters returns all characters in insertion order.
func (s *SQLiteStore) ListCharacters(ctx context.Context) ([]domain.Character, error) {
	return s.queryCharacters(ctx, `SELECT `+characterColumns+` FROM farm_images ORDER BY id ASC`)
}

// RandomCharacters returns up to count characters in random order.
func (s *SQLiteStore) RandomCharacters(ctx context.Context, count int) ([]domain.Character, error) {
	if count <= 0 {
		return []domain.Character{}, nil
	}
	return s.queryCharacters(ctx, `SELECT `+characterColumns+` FROM farm_images ORDER BY RANDOM() LIMIT ?`, count)
}

func (s *SQLiteStore) queryCharacters(ctx context.Context, query string, args ...interface{}) ([]domain.Character, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	characters := []domain.Character{}
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		characters = append(characters, *c)
	}
	return characters, rows.Err()
}

// UpdateCharacterAnalysis stores an AI-generated description.
func (s *SQLiteStore) UpdateCharacterAnalysis(ctx context.Context, storyMakerID, description, threadID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE farm_images SET description = ?, analyzed_by_ai = 1, thread_id = ? WHERE story_maker_id = ?`,
		description, nullString(threadID), storyMakerID)
	if err != nil {
		return err
	}
	return expectOneRow(res, "character "+storyMakerID)
}

// IncrementSelection bumps the selection counter of a character.
func (s *SQLiteStore) IncrementSelection(ctx context.Context, storyMakerID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE farm_images SET selection_count = selection_count + 1 WHERE story_maker_id = ?`, storyMakerID)
	if err != nil {
		return err
	}
	return expectOneRow(res, "character "+storyMakerID)
}

// CreateStory inserts a story and sets its ID.
func (s *SQLiteStore) CreateStory(ctx context.Context, story *domain.Story) error {
	if story.CreatedAt.IsZero() {
		story.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO stories (character, character_image_id, story_text, illustration, created_at) VALUES (?, ?, ?, ?, ?)`,
		story.Character, story.CharacterImageID, story.StoryText, nullString(story.Illustration), story.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	story.ID = id
	return nil
}

// GetStory retrieves a story by ID. It returns nil when absent.
func (s *SQLiteStore) GetStory(ctx context.Context, id int64) (*domain.Story, error) {
	var story domain.Story
	var illustration sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, character, character_image_id, story_text, illustration, created_at FROM stories WHERE id = ?`, id).
		Scan(&story.ID, &story.Character, &story.CharacterImageID, &story.StoryText, &illustration, &story.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	story.Illustration = illustration.String
	return &story, nil
}

// ListStories returns all stories, newest first.
func (s *SQLiteStore) ListStories(ctx context.Context) ([]domain.Story, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, character, character_image_id, story_text, illustration, created_at FROM stories ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stories := []domain.Story{}
	for rows.Next() {
		var story domain.Story
		var illustration sql.NullString
		if err := rows.Scan(&story.ID, &story.Character, &story.CharacterImageID, &story.StoryText, &illustration, &story.CreatedAt); err != nil {
			return nil, err
		}
		story.Illustration = illustration.String
		stories = append(stories, story)
	}
	return stories, rows.Err()
}

// CreateAttempt records the start of a workflow execution.
func (s *SQLiteStore) CreateAttempt(ctx context.Context, attempt *domain.Attempt) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (attempt_id, kind, character_id, thread_id, run_id, status, error, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		attempt.AttemptID, attempt.Kind, nullString(attempt.CharacterID), nullString(attempt.ThreadID),
		nullString(attempt.RunID), attempt.Status, nullString(string(attempt.Error)), attempt.StartedAt, attempt.EndedAt)
	return err
}

// UpdateAttempt stores the latest identifiers, status and error of an attempt.
func (s *SQLiteStore) UpdateAttempt(ctx context.Context, attempt *domain.Attempt) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE attempts SET thread_id = ?, run_id = ?, status = ?, error = ?, ended_at = ? WHERE attempt_id = ?`,
		nullString(attempt.ThreadID), nullString(attempt.RunID), attempt.Status,
		nullString(string(attempt.Error)), attempt.EndedAt, attempt.AttemptID)
	if err != nil {
		return err
	}
	return expectOneRow(res, "attempt "+attempt.AttemptID)
}

// ListAttempts returns the most recent attempts, optionally for one character.
func (s *SQLiteStore) ListAttempts(ctx context.Context, characterID string, limit int) ([]domain.Attempt, error) {
	query := `SELECT attempt_id, kind, character_id, thread_id, run_id, status, error, started_at, ended_at FROM attempts`
	args := []interface{}{}
	if characterID != "" {
		query += ` WHERE character_id = ?`
		args = append(args, characterID)
	}
	query += ` ORDER BY started_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := []domain.Attempt{}
	for rows.Next() {
		var a domain.Attempt
		var characterID, threadID, runID, errData sql.NullString
		var endedAt sql.NullTime
		if err := rows.Scan(&a.AttemptID, &a.Kind, &characterID, &threadID, &runID, &a.Status, &errData, &a.StartedAt, &endedAt); err != nil {
			return nil, err
		}
		a.CharacterID = characterID.String
		a.ThreadID = threadID.String
		a.RunID = runID.String
		if errData.Valid && errData.String != "" {
			a.Error = json.RawMessage(errData.String)
		}
		if endedAt.Valid {
			t := endedAt.Time
			a.EndedAt = &t
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func expectOneRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
