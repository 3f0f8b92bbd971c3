// Package library manages the local media library of recordings: a directory
// of clip files plus a SQLite index ordered by creation time.
package library

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"teleprompt/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Library exposes list, save, and delete over the recordings directory.
type Library struct {
	dir string
	db  *sql.DB
}

// Open opens or creates the library directory and its index database.
func Open(dir, dbPath string) (*Library, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create library directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	lib := &Library{dir: dir, db: db}
	if err := lib.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return lib, nil
}

// Close closes the index database.
func (l *Library) Close() error {
	return l.db.Close()
}

// Dir returns the library directory.
func (l *Library) Dir() string {
	return l.dir
}

func (l *Library) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS recordings (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			created_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_recordings_created_at ON recordings(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := l.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// List returns recordings newest first. A limit of zero or less means all.
func (l *Library) List(ctx context.Context, limit int) ([]model.Recording, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, filename, created_at, duration_ms
		 FROM recordings
		 ORDER BY created_at DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var recordings []model.Recording
	for rows.Next() {
		var rec model.Recording
		var createdAt string
		var durationMs int64
		if err := rows.Scan(&rec.ID, &rec.Filename, &createdAt, &durationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		rec.CreatedAt = parsed
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		rec.URI = filepath.Join(l.dir, rec.Filename)
		recordings = append(recordings, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recordings, nil
}

// Save moves a finished temporary clip into the library and indexes it.
func (l *Library) Save(ctx context.Context, tempPath string, duration time.Duration) (model.Recording, error) {
	createdAt := time.Now()
	ext := filepath.Ext(tempPath)
	if ext == "" {
		ext = ".mp4"
	}
	id := uuid.NewString()
	// The id suffix keeps saves within the same timestamp from colliding.
	filename := fmt.Sprintf("recording-%s-%s%s", createdAt.Format("20060102-150405"), id[:8], ext)
	dest := filepath.Join(l.dir, filename)
	if err := moveFile(tempPath, dest); err != nil {
		return model.Recording{}, fmt.Errorf("failed to save recording: %w", err)
	}

	rec := model.Recording{
		ID:        id,
		URI:       dest,
		Filename:  filename,
		CreatedAt: createdAt,
		Duration:  duration,
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO recordings (id, filename, created_at, duration_ms) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.Filename, rec.CreatedAt.Format(time.RFC3339Nano), rec.Duration.Milliseconds())
	if err != nil {
		if rerr := os.Remove(dest); rerr != nil {
			// Best-effort cleanup of the unindexed file.
			_ = rerr
		}
		return model.Recording{}, fmt.Errorf("failed to index recording: %w", err)
	}
	return rec, nil
}

// Delete removes a recording and its file; a later List no longer returns it.
func (l *Library) Delete(ctx context.Context, id string) error {
	var filename string
	err := l.db.QueryRowContext(ctx, `SELECT filename FROM recordings WHERE id = ?`, id).Scan(&filename)
	if err == sql.ErrNoRows {
		return fmt.Errorf("recording %s not found", id)
	}
	if err != nil {
		return err
	}
	if _, err := l.db.ExecContext(ctx, `DELETE FROM recordings WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete recording: %w", err)
	}
	if err := os.Remove(filepath.Join(l.dir, filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove recording file: %w", err)
	}
	return nil
}

// moveFile renames, falling back to copy+remove across filesystems.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil {
			// Best-effort close for read side.
			_ = cerr
		}
	}()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		if cerr := out.Close(); cerr != nil {
			_ = cerr
		}
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
