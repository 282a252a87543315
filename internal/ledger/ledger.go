// Package ledger persists the fingerprints of already-published
// entries as a JSON array on disk, capped to the most recent K.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"skyfeed/internal/logger"
)

// Ledger is the bounded set of previously-published fingerprints.
// Order is append order, most-recent-last; when capacity is exceeded
// the oldest fingerprints are dropped first.
type Ledger struct {
	path     string
	capacity int

	mu    sync.Mutex
	order []string
	seen  map[string]struct{}
}

// New creates a ledger backed by the given file. Capacity values
// below 1 fall back to 500.
func New(path string, capacity int) *Ledger {
	if capacity < 1 {
		capacity = 500
	}
	return &Ledger{
		path:     path,
		capacity: capacity,
		seen:     make(map[string]struct{}),
	}
}

// Load reads the ledger file. It fails soft: a missing, unreadable or
// corrupt file yields an empty ledger instead of an error, so a bad
// ledger can never abort a run.
func (l *Ledger) Load() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.order = nil
	l.seen = make(map[string]struct{})

	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("ledger read failed, starting empty", "path", l.path, "error", err)
		}
		return
	}

	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		logger.Warn("ledger file corrupt, starting empty", "path", l.path, "error", err)
		return
	}

	if len(items) > l.capacity {
		items = items[len(items)-l.capacity:]
	}
	for _, fp := range items {
		if _, dup := l.seen[fp]; dup {
			continue
		}
		l.order = append(l.order, fp)
		l.seen[fp] = struct{}{}
	}
}

// Contains reports whether a fingerprint was already committed.
func (l *Ledger) Contains(fingerprint string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[fingerprint]
	return ok
}

// Len returns the number of fingerprints currently held.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.order)
}

// Commit appends a fingerprint, evicts the oldest entries past
// capacity and persists the full sequence atomically. Commits from the
// same run serialize on the ledger mutex.
func (l *Ledger) Commit(fingerprint string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, dup := l.seen[fingerprint]; !dup {
		l.order = append(l.order, fingerprint)
		l.seen[fingerprint] = struct{}{}
	}
	for len(l.order) > l.capacity {
		oldest := l.order[0]
		l.order = l.order[1:]
		delete(l.seen, oldest)
	}

	return l.save()
}

// save writes the sequence to a temp file in the same directory and
// renames it over the ledger file, so an interrupted write can never
// leave a truncated ledger behind. Caller must hold the mutex.
func (l *Ledger) save() error {
	data, err := json.Marshal(l.order)
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, ".ledger-*")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp ledger: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}
