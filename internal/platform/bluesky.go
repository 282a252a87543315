package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"skyfeed/internal/images"
)

const defaultBlueskyBase = "https://bsky.social"

// Bluesky publishes via the com.atproto XRPC API: one session per run,
// blob upload before the record when an image is attached.
type Bluesky struct {
	Handle      string
	AppPassword string
	BaseURL     string // override for tests; empty means bsky.social

	client  *http.Client
	session *blueskySession
}

type blueskySession struct {
	AccessJWT string `json:"accessJwt"`
	DID       string `json:"did"`
}

// NewBluesky creates the Bluesky adapter.
func NewBluesky(handle, appPassword string) *Bluesky {
	return &Bluesky{
		Handle:      handle,
		AppPassword: appPassword,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (b *Bluesky) Name() string { return "bluesky" }

// Publish creates an app.bsky.feed.post record, uploading the image as
// a blob first when one is attached.
func (b *Bluesky) Publish(ctx context.Context, text string, img *images.Image) error {
	if err := b.ensureSession(ctx); err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	record := map[string]interface{}{
		"$type":     "app.bsky.feed.post",
		"text":      text,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}

	if img != nil {
		blob, err := b.uploadBlob(ctx, img)
		if err != nil {
			return fmt.Errorf("upload blob: %w", err)
		}
		record["embed"] = map[string]interface{}{
			"$type": "app.bsky.embed.images",
			"images": []map[string]interface{}{
				{"alt": "", "image": blob},
			},
		}
	}

	payload := map[string]interface{}{
		"repo":       b.session.DID,
		"collection": "app.bsky.feed.post",
		"record":     record,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.base()+"/xrpc/com.atproto.repo.createRecord", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.session.AccessJWT)

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("create record: status %d", resp.StatusCode)
	}
	return nil
}

// ensureSession authenticates once and caches the token for the run.
func (b *Bluesky) ensureSession(ctx context.Context) error {
	if b.session != nil {
		return nil
	}

	body, err := json.Marshal(map[string]string{
		"identifier": b.Handle,
		"password":   b.AppPassword,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.base()+"/xrpc/com.atproto.server.createSession", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	var session blueskySession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return fmt.Errorf("decode session: %w", err)
	}
	if session.AccessJWT == "" || session.DID == "" {
		return fmt.Errorf("incomplete session response")
	}
	b.session = &session
	return nil
}

// uploadBlob sends raw image bytes and returns the blob reference the
// create-record call embeds verbatim.
func (b *Bluesky) uploadBlob(ctx context.Context, img *images.Image) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.base()+"/xrpc/com.atproto.repo.uploadBlob", bytes.NewReader(img.Data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", img.ContentType)
	req.Header.Set("Authorization", "Bearer "+b.session.AccessJWT)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result struct {
		Blob json.RawMessage `json:"blob"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	if len(result.Blob) == 0 {
		return nil, fmt.Errorf("upload response missing blob")
	}
	return result.Blob, nil
}

func (b *Bluesky) base() string {
	if b.BaseURL != "" {
		return b.BaseURL
	}
	return defaultBlueskyBase
}
