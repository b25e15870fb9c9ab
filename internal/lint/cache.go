package lint

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"smartcook/internal/logging"
	"sync"

	_ "modernc.org/sqlite"
)

// Cache stores diagnostics keyed by rule fingerprint, path and content hash, so an
// unchanged file is never parsed twice.
type Cache struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// OpenCache opens (or creates) the cache database at path.
func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lint cache: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.CacheDebug("Failed to set busy_timeout on lint cache: %v", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS lint_results (
		key TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		diagnostics TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_lint_results_path ON lint_results(path);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create lint cache schema: %w", err)
	}

	logging.CacheDebug("Lint cache opened at %s", path)
	return &Cache{db: db, path: path}, nil
}

// Key derives the cache key for a file.
func Key(fingerprint, path string, content []byte) string {
	h := sha256.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached diagnostics for key. The boolean is false on a miss.
func (c *Cache) Get(key string) ([]Diagnostic, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var raw string
	err := c.db.QueryRow("SELECT diagnostics FROM lint_results WHERE key = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lint cache lookup: %w", err)
	}

	var diags []Diagnostic
	if err := json.Unmarshal([]byte(raw), &diags); err != nil {
		// Corrupt rows are treated as misses and overwritten on the next Put.
		logging.Get(logging.CategoryCache).Warn("Discarding unreadable lint cache entry: %v", err)
		return nil, false, nil
	}
	return diags, true, nil
}

// Put stores diagnostics for key, replacing any older entry for the same path.
func (c *Cache) Put(key, path string, diags []Diagnostic) error {
	if diags == nil {
		diags = []Diagnostic{}
	}
	data, err := json.Marshal(diags)
	if err != nil {
		return fmt.Errorf("encode diagnostics: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("lint cache begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM lint_results WHERE path = ?", path); err != nil {
		return fmt.Errorf("lint cache evict: %w", err)
	}
	if _, err := tx.Exec(
		"INSERT INTO lint_results (key, path, diagnostics) VALUES (?, ?, ?)",
		key, path, string(data),
	); err != nil {
		return fmt.Errorf("lint cache insert: %w", err)
	}
	return tx.Commit()
}

// Len returns the number of cached entries.
func (c *Cache) Len() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int
	err := c.db.QueryRow("SELECT COUNT(*) FROM lint_results").Scan(&n)
	return n, err
}

// Clear drops every cached entry.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.db.Exec("DELETE FROM lint_results")
	return err
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}
