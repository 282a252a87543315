// Package images resolves an illustrative image for an entry through
// a best-effort fallback chain: feed-declared media, inline images in
// the entry summary, then social-preview metadata scraped from the
// article page. Absence of an image is never an error.
package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"skyfeed/internal/logger"
	"skyfeed/internal/metrics"
	"skyfeed/internal/news"
)

// MaxImageBytes caps accepted image payloads at 5 MiB.
const MaxImageBytes = 5 << 20

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Image is a downloaded, validated illustration for one post attempt.
type Image struct {
	URL         string
	ContentType string
	Data        []byte
}

// Resolver runs the image fallback chain with bounded timeouts.
type Resolver struct {
	pageClient     *http.Client
	downloadClient *http.Client
}

// NewResolver creates a Resolver with the default timeouts: 10s for
// article pages, 15s for image downloads.
func NewResolver() *Resolver {
	return &Resolver{
		pageClient:     &http.Client{Timeout: 10 * time.Second},
		downloadClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Resolve finds a candidate image URL for the entry and downloads it.
// Every step is independently fallible; failures are logged and the
// chain moves on. Returns nil when no acceptable image was found.
func (r *Resolver) Resolve(ctx context.Context, e news.Entry) *Image {
	candidate := e.ImageURL

	if candidate == "" {
		src, err := FromHTML(e.Summary)
		if err != nil {
			logger.Debug("no inline image in summary", "link", e.Link, "reason", err)
		} else {
			candidate = src
		}
	}

	if candidate == "" && e.Link != "" {
		src, err := r.FromPage(ctx, e.Link)
		if err != nil {
			logger.Debug("no preview image on article page", "link", e.Link, "reason", err)
		} else {
			candidate = src
		}
	}

	if candidate == "" {
		return nil
	}
	candidate = resolveRef(e.Link, candidate)

	img, err := r.Download(ctx, candidate)
	if err != nil {
		logger.Debug("image download rejected", "url", candidate, "reason", err)
		return nil
	}
	metrics.Global.IncrementImagesResolved()
	return img
}

// FromHTML returns the src of the first <img> tag in an HTML fragment.
func FromHTML(fragment string) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return "", fmt.Errorf("empty fragment")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parse fragment: %w", err)
	}
	src, ok := doc.Find("img[src]").First().Attr("src")
	if !ok || src == "" {
		return "", fmt.Errorf("no img tag")
	}
	return src, nil
}

// FromPage fetches the article page and extracts, in order: the
// Open Graph image, the Twitter card image, then the first <img> with
// a non-data, sufficiently long src. Relative URLs are resolved
// against the page URL.
func (r *Resolver) FromPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.pageClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	selectors := []string{
		`meta[property="og:image"]`,
		`meta[name="twitter:image"]`,
		`meta[name="twitter:image:src"]`,
	}
	for _, sel := range selectors {
		if content, ok := doc.Find(sel).First().Attr("content"); ok && content != "" {
			return resolveRef(pageURL, content), nil
		}
	}

	var found string
	doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if strings.HasPrefix(src, "data:") || len(src) < 10 {
			return true
		}
		found = src
		return false
	})
	if found == "" {
		return "", fmt.Errorf("no usable image tag")
	}
	return resolveRef(pageURL, found), nil
}

// Download fetches the candidate URL and accepts the payload only if
// the declared content type is an image and the body fits the size cap.
func (r *Resolver) Download(ctx context.Context, imageURL string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.downloadClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("not an image: %q", contentType)
	}
	if resp.ContentLength > MaxImageBytes {
		return nil, fmt.Errorf("image too large: %d bytes", resp.ContentLength)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("image too large: over %d bytes", MaxImageBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image body")
	}

	return &Image{URL: imageURL, ContentType: contentType, Data: data}, nil
}

// resolveRef resolves a possibly relative image URL against its page.
func resolveRef(base, ref string) string {
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if refURL.IsAbs() {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
