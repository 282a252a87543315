package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"skyfeed/internal/images"
)

// Mastodon publishes statuses with a static access token, uploading
// media before the status when an image is attached.
type Mastodon struct {
	Server string // e.g. https://mastodon.social
	Token  string

	client *http.Client
}

// NewMastodon creates the Mastodon adapter.
func NewMastodon(server, token string) *Mastodon {
	return &Mastodon{
		Server: strings.TrimRight(server, "/"),
		Token:  token,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (m *Mastodon) Name() string { return "mastodon" }

// Publish posts a status, with the media id attached when an image
// upload succeeded.
func (m *Mastodon) Publish(ctx context.Context, text string, img *images.Image) error {
	form := url.Values{}
	form.Set("status", text)

	if img != nil {
		mediaID, err := m.uploadMedia(ctx, img)
		if err != nil {
			return fmt.Errorf("upload media: %w", err)
		}
		form.Add("media_ids[]", mediaID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.Server+"/api/v1/statuses", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+m.Token)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("create status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("create status: status %d", resp.StatusCode)
	}
	return nil
}

// uploadMedia pushes image bytes through /api/v2/media and returns the
// attachment id.
func (m *Mastodon) uploadMedia(ctx context.Context, img *images.Image) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "image")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(img.Data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.Server+"/api/v2/media", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+m.Token)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	// 202 means the attachment is still processing; the id is valid
	// for a status either way.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode media response: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("media response missing id")
	}
	return result.ID, nil
}
