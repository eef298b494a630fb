package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
	_ "modernc.org/sqlite"
)

// LexiconDBFileName is the SQLite lexicon under the base directory.
const LexiconDBFileName = "lexicon.db"

const lexiconSchema = `CREATE TABLE IF NOT EXISTS lexicon (
	word              TEXT PRIMARY KEY,
	word_type         TEXT NOT NULL,
	expression        TEXT NOT NULL,
	learned_at        TEXT NOT NULL,
	observation_count INTEGER NOT NULL DEFAULT 0,
	source            TEXT NOT NULL DEFAULT ''
)`

// SQLiteLexiconStore keeps the lexicon in a single SQLite table. It is safe
// for use by one process at a time.
type SQLiteLexiconStore struct {
	db *sql.DB
}

// OpenSQLiteLexiconStore opens (creating if needed) lexicon.db in basePath.
func OpenSQLiteLexiconStore(basePath string) (*SQLiteLexiconStore, error) {
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, fmt.Errorf("opening lexicon db: creating directory: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(basePath, LexiconDBFileName))
	if err != nil {
		return nil, fmt.Errorf("opening lexicon db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(lexiconSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening lexicon db: creating schema: %w", err)
	}
	return &SQLiteLexiconStore{db: db}, nil
}

// Load returns every row ordered by word.
func (s *SQLiteLexiconStore) Load() ([]models.LexiconEntry, error) {
	rows, err := s.db.Query(`SELECT word, word_type, expression, learned_at, observation_count, source
		FROM lexicon ORDER BY word`)
	if err != nil {
		return nil, fmt.Errorf("loading lexicon: %w", err)
	}
	defer rows.Close()

	var entries []models.LexiconEntry
	for rows.Next() {
		var (
			e         models.LexiconEntry
			wordType  string
			learnedAt string
		)
		if err := rows.Scan(&e.Word, &wordType, &e.Expression, &learnedAt, &e.ObservationCount, &e.Source); err != nil {
			return nil, fmt.Errorf("loading lexicon: scanning row: %w", err)
		}
		e.WordType = models.WordType(wordType)
		if learnedAt != "" {
			t, err := time.Parse(time.RFC3339Nano, learnedAt)
			if err != nil {
				return nil, fmt.Errorf("loading lexicon: word %q: parsing learned_at: %w", e.Word, err)
			}
			e.LearnedAt = t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading lexicon: %w", err)
	}
	return entries, nil
}

// Save upserts every entry in one transaction. Entries are never deleted.
func (s *SQLiteLexiconStore) Save(entries []models.LexiconEntry) error {
	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving lexicon: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO lexicon
		(word, word_type, expression, learned_at, observation_count, source)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(word) DO UPDATE SET
			word_type = excluded.word_type,
			expression = excluded.expression,
			learned_at = excluded.learned_at,
			observation_count = excluded.observation_count,
			source = excluded.source`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("saving lexicon: preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		learnedAt := ""
		if !e.LearnedAt.IsZero() {
			learnedAt = e.LearnedAt.UTC().Format(time.RFC3339Nano)
		}
		if _, err := stmt.ExecContext(ctx, e.Word, string(e.WordType), e.Expression, learnedAt, e.ObservationCount, e.Source); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("saving lexicon: word %q: %w", e.Word, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("saving lexicon: committing: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteLexiconStore) Close() error {
	return s.db.Close()
}
