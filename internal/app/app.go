// Package app wires the pipeline into one run: fetch, filter, sample,
// then per selected entry resolve an image, render the post, publish
// to every active platform and commit the fingerprint on any success.
package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"skyfeed/internal/config"
	"skyfeed/internal/images"
	"skyfeed/internal/ledger"
	"skyfeed/internal/logger"
	"skyfeed/internal/metrics"
	"skyfeed/internal/news"
	"skyfeed/internal/pacing"
	"skyfeed/internal/platform"
	"skyfeed/internal/render"
	"skyfeed/internal/rss"
	"skyfeed/internal/sample"
)

// ImageResolver is the slice of the resolver the orchestrator needs.
type ImageResolver interface {
	Resolve(ctx context.Context, e news.Entry) *images.Image
}

// Deps holds injectable collaborators. Zero-value fields are filled
// with the real implementations; tests swap in fakes.
type Deps struct {
	Fetch      func(ctx context.Context) []news.Entry
	Ledger     *ledger.Ledger
	Resolver   ImageResolver
	Renderer   *render.Renderer
	Publishers []platform.Publisher
	Pacer      *pacing.Pacer
	Rng        *rand.Rand
}

// App runs one pass of the aggregation-dedup-publish pipeline.
type App struct {
	cfg        *config.Config
	fetch      func(ctx context.Context) []news.Entry
	led        *ledger.Ledger
	resolver   ImageResolver
	renderer   *render.Renderer
	publishers []platform.Publisher
	pacer      *pacing.Pacer
	rng        *rand.Rand
}

// New builds the App from config, filling unset deps with the real
// implementations.
func New(cfg *config.Config, deps Deps) (*App, error) {
	a := &App{
		cfg:        cfg,
		fetch:      deps.Fetch,
		led:        deps.Ledger,
		resolver:   deps.Resolver,
		renderer:   deps.Renderer,
		publishers: deps.Publishers,
		pacer:      deps.Pacer,
		rng:        deps.Rng,
	}

	if a.rng == nil {
		a.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if a.led == nil {
		a.led = ledger.New(cfg.LedgerPath, cfg.LedgerCapacity)
	}
	if a.resolver == nil {
		a.resolver = images.NewResolver()
	}
	if a.renderer == nil {
		a.renderer = render.New(cfg.CharBudget, a.rng)
	}
	if a.pacer == nil {
		a.pacer = pacing.New(cfg.DelayMinSeconds, cfg.DelayMaxSeconds, a.rng)
	}
	if a.fetch == nil {
		feeds, err := rss.LoadFeeds(cfg.FeedsConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load feeds config: %w", err)
		}
		fetcher := rss.NewFetcher()
		a.fetch = func(ctx context.Context) []news.Entry {
			return fetcher.FetchAll(ctx, feeds)
		}
	}
	if a.publishers == nil {
		a.publishers = publishersFromConfig(cfg)
	}
	if len(a.publishers) == 0 {
		return nil, fmt.Errorf("no active platform")
	}
	return a, nil
}

// publishersFromConfig builds an adapter for every platform whose
// credentials are fully present.
func publishersFromConfig(cfg *config.Config) []platform.Publisher {
	var pubs []platform.Publisher
	if cfg.Bluesky.Active() {
		pubs = append(pubs, platform.NewBluesky(cfg.Bluesky.Handle, cfg.Bluesky.AppPassword))
	}
	if cfg.Telegram.Active() {
		pubs = append(pubs, platform.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID))
	}
	if cfg.Mastodon.Active() {
		pubs = append(pubs, platform.NewMastodon(cfg.Mastodon.Server, cfg.Mastodon.AccessToken))
	}
	return pubs
}

// Run executes one complete pass. Absence of new entries is a normal
// early termination, not an error. Cancellation is honored between
// entries: the current entry's publishes finish, then the run stops.
func (a *App) Run(ctx context.Context) error {
	start := time.Now()
	a.led.Load()

	entries := a.fetch(ctx)
	if len(entries) == 0 {
		logger.Info("no entries fetched, nothing to do")
		metrics.Global.SetLastRun()
		return nil
	}

	picked := sample.Pick(entries, a.led, a.rng, a.cfg.BatchMin, a.cfg.BatchMax)
	if len(picked) == 0 {
		logger.Info("no new entries after dedup, nothing to do")
		metrics.Global.SetLastRun()
		return nil
	}
	logger.Info("selected batch", "count", len(picked), "candidates", len(entries))

	posted, failed := 0, 0
	for i, entry := range picked {
		if err := ctx.Err(); err != nil {
			logger.Warn("run interrupted, stopping before next entry", "remaining", len(picked)-i)
			break
		}

		logger.Info("posting entry",
			"index", i+1, "total", len(picked),
			"title", entry.Title, "source", entry.SourceName, "category", entry.Category)

		img := a.resolver.Resolve(ctx, entry)
		text := a.renderer.Render(entry.Title, entry.Link, entry.Category)

		outcomes := platform.PublishAll(ctx, a.publishers, text, img)
		if platform.AnySuccess(outcomes) {
			if err := a.led.Commit(entry.ID()); err != nil {
				logger.Error("ledger commit failed", "error", err)
			}
			posted++
		} else {
			failed++
		}

		if i < len(picked)-1 {
			a.pacer.Wait(ctx)
		}
	}

	logger.Info("run finished",
		"posted", posted, "failed", failed,
		"ledger_size", a.led.Len(), "elapsed", time.Since(start).Round(time.Millisecond))
	metrics.Global.SetLastRun()
	return nil
}
