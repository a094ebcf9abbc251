package alerts

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trade-engine-go/internal/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSendPostsEmbed(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	clk := clock.NewSimulated(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	n := NewWebhookNotifier(srv.URL, clk)
	require.True(t, n.Enabled())
	require.NoError(t, n.Send("Kill switch", "daily loss limit hit", ColorDanger))

	var payload struct {
		Embeds []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Color       int    `json:"color"`
			Timestamp   string `json:"timestamp"`
		} `json:"embeds"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Len(t, payload.Embeds, 1)
	assert.Equal(t, "Kill switch", payload.Embeds[0].Title)
	assert.Equal(t, "daily loss limit hit", payload.Embeds[0].Description)
	assert.Equal(t, ColorDanger, payload.Embeds[0].Color)
	assert.Equal(t, "2025-06-01T12:00:00Z", payload.Embeds[0].Timestamp)
}

func TestWebhookSendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, clock.Real{})
	err := n.Send("t", "m", ColorInfo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestWebhookDisabledWithoutURL(t *testing.T) {
	n := NewWebhookNotifier("", clock.Real{})
	assert.False(t, n.Enabled())
	assert.NoError(t, n.Send("t", "m", ColorInfo))
}
