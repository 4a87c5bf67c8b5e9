package cache

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type sizeSnapshot struct {
	Path      string `json:"path"`
	UsedBytes uint64 `json:"used_bytes"`
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s, err := NewStore(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

// clockAt pins the store clock and returns a setter to move it.
func clockAt(s *Store, start time.Time) func(time.Time) {
	now := start
	s.now = func() time.Time { return now }
	return func(t time.Time) { now = t }
}

func TestSaveLoad(t *testing.T) {
	s := newTestStore(t)
	want := sizeSnapshot{Path: "/var/lib/deoxys", UsedBytes: 123456789}

	if err := Save(s, "storage", want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load[sizeSnapshot](s, "storage", time.Hour)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || *got != want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
}

func TestLoad_Expiry(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	setNow := clockAt(s, base)

	if err := Save(s, "storage", sizeSnapshot{UsedBytes: 1}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	tests := []struct {
		name   string
		after  time.Duration
		maxAge time.Duration
		want   bool
	}{
		{"fresh", 30 * time.Second, time.Minute, true},
		{"expired", 2 * time.Minute, time.Minute, false},
		{"no limit", 24 * time.Hour, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setNow(base.Add(tt.after))
			got, err := Load[sizeSnapshot](s, "storage", tt.maxAge)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if (got != nil) != tt.want {
				t.Errorf("Load present = %v, want %v", got != nil, tt.want)
			}
		})
	}
}

func TestGet_Missing(t *testing.T) {
	s := newTestStore(t)
	raw, storedAt, err := s.Get("nothing")
	if err != nil || raw != nil || !storedAt.IsZero() {
		t.Errorf("Get(missing) = %s, %v, %v", raw, storedAt, err)
	}
	if got, err := Load[sizeSnapshot](s, "nothing", time.Hour); got != nil || err != nil {
		t.Errorf("Load(missing) = %+v, %v", got, err)
	}
}

func TestGet_CorruptedFileRemoved(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{broken"},
		{"no envelope", `{"used_bytes": 5}`},
		{"empty value", `{"stored_at": "2026-01-01T00:00:00Z"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			path := filepath.Join(s.Dir(), "storage.json")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			raw, _, err := s.Get("storage")
			if err != nil || raw != nil {
				t.Fatalf("Get = %s, %v, want miss", raw, err)
			}
			if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
				t.Error("corrupted file should be removed")
			}
		})
	}
}

func TestLoad_TypeMismatchRemoved(t *testing.T) {
	s := newTestStore(t)
	if err := s.Set("storage", "not an object"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := Load[sizeSnapshot](s, "storage", time.Hour)
	if err != nil || got != nil {
		t.Fatalf("Load = %+v, %v, want miss", got, err)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), "storage.json")); !errors.Is(err, os.ErrNotExist) {
		t.Error("undecodable entry should be removed")
	}
}

func TestInvalidKeys(t *testing.T) {
	s := newTestStore(t)
	for _, key := range []string{"", "../escape", `a\b`, ".hidden"} {
		if err := s.Set(key, 1); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Set(%q) error = %v, want ErrInvalidKey", key, err)
		}
		if _, _, err := s.Get(key); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Get(%q) error = %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestConcurrentSet(t *testing.T) {
	s := newTestStore(t)

	const writers = 20
	const iterations = 25

	var wg sync.WaitGroup
	wg.Add(writers)
	for w := 0; w < writers; w++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				if err := Save(s, "storage", sizeSnapshot{UsedBytes: uint64(id*1000 + i)}); err != nil {
					t.Errorf("writer %d: Save: %v", id, err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	got, err := Load[sizeSnapshot](s, "storage", 0)
	if err != nil || got == nil {
		t.Fatalf("Load after concurrent writes = %+v, %v", got, err)
	}
	entries, _ := os.ReadDir(s.Dir())
	if len(entries) != 1 {
		t.Errorf("leftover files after writes: %d entries", len(entries))
	}
}

func TestAge(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	setNow := clockAt(s, base)

	if got := s.Age("storage"); got != 0 {
		t.Errorf("Age(missing) = %v, want 0", got)
	}
	if err := s.Set("storage", 1); err != nil {
		t.Fatal(err)
	}
	setNow(base.Add(90 * time.Second))
	if got := s.Age("storage"); got != 90*time.Second {
		t.Errorf("Age = %v, want 90s", got)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t)
	for _, key := range []string{"storage", "other"} {
		if err := s.Set(key, key); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	entries, _ := os.ReadDir(s.Dir())
	if len(entries) != 0 {
		t.Errorf("Clear left %d entries", len(entries))
	}
}

func TestPermissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s, err := NewStore(dir, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.Set("storage", 1); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Errorf("directory permissions = %04o, want 0700", perm)
	}
	info, err = os.Stat(filepath.Join(dir, "storage.json"))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %04o, want 0600", perm)
	}
}
