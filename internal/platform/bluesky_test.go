package platform

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyfeed/internal/images"
)

// fakeBlueskyServer answers the three XRPC calls the adapter makes.
type fakeBlueskyServer struct {
	srv *httptest.Server

	sessions int
	uploads  int
	records  []map[string]interface{}

	failAuth bool
}

func newFakeBlueskyServer(t *testing.T) *fakeBlueskyServer {
	t.Helper()
	f := &fakeBlueskyServer{}
	mux := http.NewServeMux()

	mux.HandleFunc("/xrpc/com.atproto.server.createSession", func(w http.ResponseWriter, r *http.Request) {
		f.sessions++
		if f.failAuth {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"accessJwt": "test-jwt",
			"did":       "did:plc:test",
		})
	})

	mux.HandleFunc("/xrpc/com.atproto.repo.uploadBlob", func(w http.ResponseWriter, r *http.Request) {
		f.uploads++
		if r.Header.Get("Authorization") != "Bearer test-jwt" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(r.Body)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"blob": map[string]interface{}{
				"$type":    "blob",
				"mimeType": r.Header.Get("Content-Type"),
				"size":     len(body),
			},
		})
	})

	mux.HandleFunc("/xrpc/com.atproto.repo.createRecord", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-jwt" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.records = append(f.records, payload)
		json.NewEncoder(w).Encode(map[string]string{"uri": "at://did:plc:test/app.bsky.feed.post/1"})
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func newTestBluesky(f *fakeBlueskyServer) *Bluesky {
	b := NewBluesky("bot.example.com", "app-password")
	b.BaseURL = f.srv.URL
	return b
}

func TestBlueskyPublishTextOnly(t *testing.T) {
	f := newFakeBlueskyServer(t)
	b := newTestBluesky(f)

	err := b.Publish(context.Background(), "hello world", nil)
	require.NoError(t, err)
	require.Len(t, f.records, 1)

	assert.Equal(t, "did:plc:test", f.records[0]["repo"])
	assert.Equal(t, "app.bsky.feed.post", f.records[0]["collection"])

	record := f.records[0]["record"].(map[string]interface{})
	assert.Equal(t, "hello world", record["text"])
	assert.NotContains(t, record, "embed")
	assert.Equal(t, 0, f.uploads)
}

func TestBlueskyPublishWithImage(t *testing.T) {
	f := newFakeBlueskyServer(t)
	b := newTestBluesky(f)

	img := &images.Image{ContentType: "image/png", Data: []byte("png-bytes")}
	err := b.Publish(context.Background(), "with picture", img)
	require.NoError(t, err)
	assert.Equal(t, 1, f.uploads)

	record := f.records[0]["record"].(map[string]interface{})
	embed := record["embed"].(map[string]interface{})
	assert.Equal(t, "app.bsky.embed.images", embed["$type"])
}

func TestBlueskySessionReused(t *testing.T) {
	f := newFakeBlueskyServer(t)
	b := newTestBluesky(f)

	require.NoError(t, b.Publish(context.Background(), "first", nil))
	require.NoError(t, b.Publish(context.Background(), "second", nil))
	assert.Equal(t, 1, f.sessions, "session is created once per run")
}

func TestBlueskyAuthFailureIsError(t *testing.T) {
	f := newFakeBlueskyServer(t)
	f.failAuth = true
	b := newTestBluesky(f)

	err := b.Publish(context.Background(), "text", nil)
	assert.Error(t, err)
	assert.Empty(t, f.records)
}
