package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SwiftBackuper/internal/blobstore"
	"SwiftBackuper/internal/config"
)

func newServer(t *testing.T, status int) (*httptest.Server, *[]discordPayload, *int32) {
	t.Helper()
	var got []discordPayload
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		var p discordPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err == nil {
			got = append(got, p)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &got, &hits
}

func TestDiscord_Success(t *testing.T) {
	srv, got, _ := newServer(t, http.StatusNoContent)
	d, err := NewDiscordNotifier(&config.DiscordConfig{Enabled: true, WebhookURL: srv.URL})
	require.NoError(t, err)

	obj := blobstore.Object{Name: "web-1700000000.tar.gz", Size: 2048}
	require.NoError(t, d.NotifySuccess(context.Background(), "web", obj, 3*time.Second, 2))

	require.Len(t, *got, 1)
	embed := (*got)[0].Embeds[0]
	assert.Equal(t, "Backup success", embed.Title)
	values := map[string]string{}
	for _, f := range embed.Fields {
		values[f.Name] = f.Value
	}
	assert.Equal(t, "web", values["Job"])
	assert.Equal(t, "web-1700000000.tar.gz", values["Object"])
	assert.Equal(t, "2.0 KiB", values["Size"])
	assert.Equal(t, "2", values["Pruned"])
}

func TestDiscord_ErrorMentions(t *testing.T) {
	srv, got, _ := newServer(t, http.StatusOK)
	d, err := NewDiscordNotifier(&config.DiscordConfig{Enabled: true, WebhookURL: srv.URL, MentionOnError: "@here"})
	require.NoError(t, err)

	require.NoError(t, d.NotifyError(context.Background(), "web", errors.New("upload failed")))
	require.Len(t, *got, 1)
	assert.Equal(t, "@here", (*got)[0].Content)
	assert.Equal(t, "upload failed", (*got)[0].Embeds[0].Description)
}

func TestDiscord_EventFilter(t *testing.T) {
	srv, _, hits := newServer(t, http.StatusOK)
	d, err := NewDiscordNotifier(&config.DiscordConfig{Enabled: true, WebhookURL: srv.URL, Events: []string{"ERROR"}})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, d.NotifyStart(ctx, "web"))
	require.NoError(t, d.NotifyPrune(ctx, "web", []string{"a"}, 3))
	assert.Zero(t, atomic.LoadInt32(hits))

	require.NoError(t, d.NotifyError(ctx, "web", errors.New("x")))
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestDiscord_Retry(t *testing.T) {
	srv, _, hits := newServer(t, http.StatusInternalServerError)
	d, err := NewDiscordNotifier(&config.DiscordConfig{
		Enabled:    true,
		WebhookURL: srv.URL,
		Retry:      &config.DiscordRetry{Attempts: 3, BackoffMs: 1},
	})
	require.NoError(t, err)

	err = d.NotifyStart(context.Background(), "web")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, int32(3), atomic.LoadInt32(hits))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestDiscord_TransportErrorKept(t *testing.T) {
	refused := errors.New("connection refused")
	var calls int32
	d, err := NewDiscordNotifier(&config.DiscordConfig{
		Enabled:    true,
		WebhookURL: "http://discord.invalid/webhook",
		Retry:      &config.DiscordRetry{Attempts: 2, BackoffMs: 1},
	})
	require.NoError(t, err)
	d.client = &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return nil, refused
	})}

	err = d.NotifyStart(context.Background(), "web")
	require.Error(t, err)
	assert.ErrorIs(t, err, refused)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestNew_Disabled(t *testing.T) {
	n, err := New(nil)
	require.NoError(t, err)
	assert.IsType(t, Nop{}, n)

	_, err = NewDiscordNotifier(&config.DiscordConfig{Enabled: true})
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	long := strings.Repeat("x", 2000)
	assert.Len(t, truncate(long, maxFieldLen), maxFieldLen)
}
