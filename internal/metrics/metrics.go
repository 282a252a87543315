package metrics

import (
	"sync"
	"time"
)

// Metrics collects run counters for the monitoring endpoints.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	SourcesFailed      int64
	EntriesCollected   int64
	DuplicatesFiltered int64
	ImagesResolved     int64
	PostsPublished     int64
	PublishFailures    int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) IncrementSourcesFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourcesFailed++
}

func (m *Metrics) AddEntriesCollected(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EntriesCollected += n
}

func (m *Metrics) AddDuplicatesFiltered(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered += n
}

func (m *Metrics) IncrementImagesResolved() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ImagesResolved++
}

func (m *Metrics) IncrementPostsPublished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PostsPublished++
}

func (m *Metrics) IncrementPublishFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishFailures++
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"sources_failed":      m.SourcesFailed,
		"entries_collected":   m.EntriesCollected,
		"duplicates_filtered": m.DuplicatesFiltered,
		"images_resolved":     m.ImagesResolved,
		"posts_published":     m.PostsPublished,
		"publish_failures":    m.PublishFailures,
		"last_run_time":       m.LastRunTime.Format(time.RFC3339),
		"last_error_time":     m.LastErrorTime.Format(time.RFC3339),
		"last_error":          m.LastError,
		"is_healthy":          m.IsHealthy,
	}
}
