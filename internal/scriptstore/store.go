// Package scriptstore handles SQLite persistence of teleprompter scripts.
//
// Scripts live under two key-value entries: the full ordered list under
// "teleprompter_scripts" and the current selection under "selected_script",
// both JSON-serialized. Absence of either key means an empty store or no
// selection, never an error.
package scriptstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"teleprompt/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

const (
	scriptsKey  = "teleprompter_scripts"
	selectedKey = "selected_script"
)

// Store wraps SQLite access for script data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`)
	return err
}

// List returns all scripts in creation order. A store without the scripts
// key yields an empty list.
func (s *Store) List(ctx context.Context) ([]model.Script, error) {
	var scripts []model.Script
	if err := s.getJSON(ctx, scriptsKey, &scripts); err != nil {
		return nil, fmt.Errorf("failed to load scripts: %w", err)
	}
	return scripts, nil
}

// Create stores a new script. The word count is computed from content.
func (s *Store) Create(ctx context.Context, title, content string) (model.Script, error) {
	script := model.Script{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		CreatedAt: time.Now(),
		WordCount: model.CountWords(content),
	}
	scripts, err := s.List(ctx)
	if err != nil {
		return model.Script{}, err
	}
	scripts = append(scripts, script)
	if err := s.setJSON(ctx, scriptsKey, scripts); err != nil {
		return model.Script{}, fmt.Errorf("failed to save script: %w", err)
	}
	return script, nil
}

// Update replaces the title and content of an existing script, recomputing
// its word count. A selection pointing at the script is updated with it.
func (s *Store) Update(ctx context.Context, id, title, content string) (model.Script, error) {
	scripts, err := s.List(ctx)
	if err != nil {
		return model.Script{}, err
	}
	idx := -1
	for i, script := range scripts {
		if script.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return model.Script{}, fmt.Errorf("script %s not found", id)
	}
	scripts[idx].Title = title
	scripts[idx].Content = content
	scripts[idx].WordCount = model.CountWords(content)
	if err := s.setJSON(ctx, scriptsKey, scripts); err != nil {
		return model.Script{}, fmt.Errorf("failed to save script: %w", err)
	}

	selected, err := s.GetSelected(ctx)
	if err != nil {
		return model.Script{}, err
	}
	if selected != nil && selected.ID == id {
		if err := s.SetSelected(ctx, scripts[idx]); err != nil {
			return model.Script{}, err
		}
	}
	return scripts[idx], nil
}

// Delete removes a script. If it was selected, the selection is cleared.
func (s *Store) Delete(ctx context.Context, id string) error {
	scripts, err := s.List(ctx)
	if err != nil {
		return err
	}
	kept := scripts[:0]
	for _, script := range scripts {
		if script.ID != id {
			kept = append(kept, script)
		}
	}
	if err := s.setJSON(ctx, scriptsKey, kept); err != nil {
		return fmt.Errorf("failed to delete script: %w", err)
	}

	selected, err := s.GetSelected(ctx)
	if err != nil {
		return err
	}
	if selected != nil && selected.ID == id {
		if err := s.clear(ctx, selectedKey); err != nil {
			return fmt.Errorf("failed to clear selection: %w", err)
		}
	}
	return nil
}

// GetSelected returns the currently selected script, or nil when none is
// selected (including on first launch).
func (s *Store) GetSelected(ctx context.Context) (*model.Script, error) {
	var script *model.Script
	if err := s.getJSON(ctx, selectedKey, &script); err != nil {
		return nil, fmt.Errorf("failed to load selection: %w", err)
	}
	return script, nil
}

// SetSelected records the script driving the next prompter session.
func (s *Store) SetSelected(ctx context.Context, script model.Script) error {
	if err := s.setJSON(ctx, selectedKey, &script); err != nil {
		return fmt.Errorf("failed to save selection: %w", err)
	}
	return nil
}

func (s *Store) getJSON(ctx context.Context, key string, out any) error {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(value), out)
}

func (s *Store) setJSON(ctx context.Context, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(encoded))
	return err
}

func (s *Store) clear(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}
