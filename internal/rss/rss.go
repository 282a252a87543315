// Package rss loads the category→feed-URL table and pulls candidate
// entries from every configured source.
package rss

import (
	"context"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"skyfeed/internal/logger"
	"skyfeed/internal/metrics"
	"skyfeed/internal/news"
)

// FeedsConfig is the YAML feed table:
//
//	categories:
//	  ai:
//	    - https://...
//	  cybersecurity:
//	    - https://...
type FeedsConfig struct {
	Categories map[string][]string `yaml:"categories"`
}

// LoadFeeds reads the feed table from a YAML file.
func LoadFeeds(path string) (*FeedsConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg FeedsConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Fetcher pulls entries from feed sources with a bounded per-source
// timeout. One bad source never halts the aggregate fetch.
type Fetcher struct {
	parser    *gofeed.Parser
	timeout   time.Duration
	perSource int
}

// NewFetcher creates a Fetcher with the default per-source limits.
func NewFetcher() *Fetcher {
	return &Fetcher{
		parser:    gofeed.NewParser(),
		timeout:   20 * time.Second,
		perSource: 5,
	}
}

// FetchAll walks every source in the feed table, tags each entry with
// its category and the feed's display title, and returns the
// concatenation. Sources that fail to fetch or parse are logged and
// skipped; entries keep source-declared order, at most 5 per source.
func (f *Fetcher) FetchAll(ctx context.Context, cfg *FeedsConfig) []news.Entry {
	var all []news.Entry
	okCount, total := 0, 0

	categories := make([]string, 0, len(cfg.Categories))
	for c := range cfg.Categories {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, category := range categories {
		for _, url := range cfg.Categories[category] {
			total++
			feedCtx, cancel := context.WithTimeout(ctx, f.timeout)
			feed, err := f.parser.ParseURLWithContext(url, feedCtx)
			cancel()
			if err != nil {
				logger.Warn("feed source failed, skipping", "url", url, "error", err)
				metrics.Global.IncrementSourcesFailed()
				continue
			}
			okCount++

			sourceName := strings.TrimSpace(feed.Title)
			if sourceName == "" {
				sourceName = "Unknown"
			}

			count := 0
			for _, item := range feed.Items {
				if count >= f.perSource {
					break
				}
				all = append(all, entryFromItem(item, category, sourceName))
				count++
			}
			logger.Debug("feed source loaded", "url", url, "entries", count)
		}
	}

	logger.Info("feed fetch finished", "sources_ok", okCount, "sources_total", total, "entries", len(all))
	metrics.Global.AddEntriesCollected(int64(len(all)))
	return all
}

// entryFromItem converts a parsed feed item into an Entry, applying
// the documented defaults for missing fields.
func entryFromItem(item *gofeed.Item, category, sourceName string) news.Entry {
	e := news.Entry{
		Title:      item.Title,
		Link:       item.Link,
		Published:  item.Published,
		SourceName: sourceName,
		Category:   category,
		ImageURL:   declaredImage(item),
	}
	e.Summary = item.Description
	if e.Summary == "" {
		e.Summary = item.Content
	}
	return e
}

// declaredImage extracts an image URL from the item's structured media
// metadata: media:content / media:thumbnail extensions, the item-level
// image, or an image-typed enclosure. Empty string when none declared.
func declaredImage(item *gofeed.Item) string {
	if media, ok := item.Extensions["media"]; ok {
		for _, key := range []string{"content", "thumbnail"} {
			for _, ext := range media[key] {
				if url := ext.Attrs["url"]; url != "" {
					return url
				}
			}
		}
	}
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}
