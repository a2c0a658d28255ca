// Package exerciserepo implements interfaces.ExerciseRepo against the
// relational exercise catalog: a single-connection SQLite database
// holding the EXERCISE table and its archive blobs.
package exerciserepo

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	_ "modernc.org/sqlite"

	"github.com/dawgym/pipeline/internal/interfaces"
)

// Repo is a SQLite-backed interfaces.ExerciseRepo.
type Repo struct {
	db     *sql.DB
	logger arbor.ILogger
}

// Open opens (creating if absent) the SQLite database at path and
// ensures the EXERCISE table exists.
func Open(path string, logger arbor.ILogger) (*Repo, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("exerciserepo: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("exerciserepo: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	r := &Repo{db: db, logger: logger}
	if err := r.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) initSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS EXERCISE (
	id          INTEGER NOT NULL,
	type        TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	difficulty  TEXT NOT NULL DEFAULT '',
	content     TEXT NOT NULL DEFAULT '',
	archive     BLOB,
	PRIMARY KEY (id, type)
);`
	_, err := r.db.Exec(ddl)
	if err != nil {
		return fmt.Errorf("exerciserepo: init schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (r *Repo) Close() error {
	return r.db.Close()
}

// Fetch implements interfaces.ExerciseRepo.
func (r *Repo) Fetch(ctx context.Context, exerciseID int, category string) (*interfaces.ExerciseBlob, error) {
	const q = `SELECT id, type, title, description, difficulty, content, archive
		FROM EXERCISE WHERE id = ? AND type = ?`

	row := r.db.QueryRowContext(ctx, q, exerciseID, category)

	var blob interfaces.ExerciseBlob
	if err := row.Scan(&blob.ID, &blob.Type, &blob.Title, &blob.Description, &blob.Difficulty, &blob.Content, &blob.File); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("exerciserepo: no exercise %d/%s", exerciseID, category)
		}
		return nil, fmt.Errorf("exerciserepo: fetch: %w", err)
	}
	return &blob, nil
}

var _ interfaces.ExerciseRepo = (*Repo)(nil)
