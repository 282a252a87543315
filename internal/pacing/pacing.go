// Package pacing spaces out successive posts within a run so platform
// rate limits are respected.
package pacing

import (
	"context"
	"math/rand"
	"time"

	"skyfeed/internal/logger"
)

// Pacer draws an inter-item delay from a seconds range. Sleep is
// injectable so tests can record delays instead of waiting them out;
// when nil, a context-aware timer wait is used.
type Pacer struct {
	MinSeconds int
	MaxSeconds int

	rng   *rand.Rand
	Sleep func(time.Duration)
}

// New creates a Pacer drawing delays in [minSeconds, maxSeconds].
func New(minSeconds, maxSeconds int, rng *rand.Rand) *Pacer {
	if minSeconds < 0 {
		minSeconds = 0
	}
	if maxSeconds < minSeconds {
		maxSeconds = minSeconds
	}
	return &Pacer{
		MinSeconds: minSeconds,
		MaxSeconds: maxSeconds,
		rng:        rng,
	}
}

// Wait blocks for one drawn delay. Returns early when the context is
// cancelled; the caller decides whether to continue the run.
func (p *Pacer) Wait(ctx context.Context) {
	delay := time.Duration(p.MinSeconds+p.rng.Intn(p.MaxSeconds-p.MinSeconds+1)) * time.Second
	if delay <= 0 {
		return
	}
	logger.Debug("pacing before next post", "delay", delay)

	if p.Sleep != nil {
		p.Sleep(delay)
		return
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
