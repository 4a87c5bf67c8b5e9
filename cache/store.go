// Package cache persists small JSON snapshots between runs so the dashboard
// can show last-known values before the first slow measurement finishes.
//
// Each key maps to one file in the store directory:
//
//	~/.cache/node-pulse/
//	  storage.json
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrInvalidKey is returned for keys that are empty or not a plain file name.
var ErrInvalidKey = errors.New("cache: invalid key")

// entry is the on-disk envelope. StoredAt is recorded explicitly so that
// copying the cache directory does not reset entry ages.
type entry struct {
	StoredAt time.Time       `json:"stored_at"`
	Value    json.RawMessage `json:"value"`
}

// Store is a JSON file cache rooted at one directory.
type Store struct {
	dir    string
	logger *slog.Logger

	// now is overridable for tests.
	now func() time.Time
}

// NewStore creates a store at dir, creating the directory with 0700
// permissions if needed. If logger is nil, a no-op logger is used.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("cache: create directory %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: logger, now: time.Now}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) keyPath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// Get reads the raw value stored under key along with the time it was
// stored. A missing key returns a nil value and a nil error. Corrupted
// files are removed and treated as missing.
func (s *Store) Get(key string) (json.RawMessage, time.Time, error) {
	path, err := s.keyPath(key)
	if err != nil {
		return nil, time.Time{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, time.Time{}, nil
		}
		return nil, time.Time{}, fmt.Errorf("cache: read %s: %w", key, err)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil || e.StoredAt.IsZero() || len(e.Value) == 0 {
		s.logger.Warn("cache: removing corrupted entry", slog.String("key", key))
		_ = os.Remove(path)
		return nil, time.Time{}, nil
	}
	return e.Value, e.StoredAt, nil
}

// Set stores value under key. The write goes to a temp file that is renamed
// into place, so readers never observe a partial file.
func (s *Store) Set(key string, value any) error {
	path, err := s.keyPath(key)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}
	encoded, err := json.MarshalIndent(entry{StoredAt: s.now().UTC(), Value: raw}, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-"+key+"-*.json")
	if err != nil {
		return fmt.Errorf("cache: create temp for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
	}()

	if err := os.Chmod(tmpName, 0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cache: chmod temp for %s: %w", key, err)
	}
	if _, err := tmp.Write(encoded); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cache: write temp for %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cache: close temp for %s: %w", key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("cache: rename temp for %s: %w", key, err)
	}

	success = true
	return nil
}

// Load decodes the value stored under key into T. It returns nil when the
// key is missing, undecodable, or older than maxAge (maxAge <= 0 disables
// the age check).
func Load[T any](s *Store, key string, maxAge time.Duration) (*T, error) {
	raw, storedAt, err := s.Get(key)
	if err != nil || raw == nil {
		return nil, err
	}
	if maxAge > 0 && s.now().Sub(storedAt) > maxAge {
		s.logger.Debug("cache: entry expired", slog.String("key", key), slog.Time("stored_at", storedAt))
		return nil, nil
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		s.logger.Warn("cache: removing entry with unmarshal error",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		if path, pathErr := s.keyPath(key); pathErr == nil {
			_ = os.Remove(path)
		}
		return nil, nil
	}
	return &v, nil
}

// Save stores v under key.
func Save[T any](s *Store, key string, v T) error {
	return s.Set(key, v)
}

// Age returns how long ago key was stored, or 0 if it is missing.
func (s *Store) Age(key string) time.Duration {
	raw, storedAt, err := s.Get(key)
	if err != nil || raw == nil {
		return 0
	}
	return s.now().Sub(storedAt)
}

// Clear removes every entry and leftover temp file from the store.
func (s *Store) Clear() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("cache: clear read dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("cache: clear remove %s: %w", e.Name(), err)
		}
	}
	return nil
}
