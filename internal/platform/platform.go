// Package platform holds the destination adapters. Every adapter
// converts its own failures into a failed Outcome; nothing crosses the
// orchestrator boundary as a panic or a fatal error, and no adapter
// retries within a run.
package platform

import (
	"context"

	"skyfeed/internal/images"
	"skyfeed/internal/logger"
	"skyfeed/internal/metrics"
)

// Publisher delivers one rendered post to a single platform.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, text string, img *images.Image) error
}

// Outcome is the per-platform result of one publish attempt.
type Outcome struct {
	Platform string
	OK       bool
	Err      error
}

// PublishAll attempts delivery to every publisher independently and
// aggregates the outcomes. One platform's failure never prevents
// attempting the others.
func PublishAll(ctx context.Context, pubs []Publisher, text string, img *images.Image) []Outcome {
	outcomes := make([]Outcome, 0, len(pubs))
	for _, p := range pubs {
		err := p.Publish(ctx, text, img)
		if err != nil {
			logger.Warn("publish failed", "platform", p.Name(), "error", err)
			metrics.Global.IncrementPublishFailures()
		} else {
			logger.Info("published", "platform", p.Name())
			metrics.Global.IncrementPostsPublished()
		}
		outcomes = append(outcomes, Outcome{Platform: p.Name(), OK: err == nil, Err: err})
	}
	return outcomes
}

// AnySuccess reports whether at least one platform accepted the post.
// This drives the ledger commit: an entry counts as published when any
// single platform succeeded.
func AnySuccess(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if o.OK {
			return true
		}
	}
	return false
}
