package youtube

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viral_daily/internal/domain"
	"viral_daily/internal/source"
)

const popularResponse = `{
  "items": [
    {
      "id": "abc",
      "snippet": {
        "title": "Small video",
        "channelTitle": "Small Channel",
        "publishedAt": "2024-05-01T10:00:00Z",
        "thumbnails": {"medium": {"url": "https://i.ytimg.com/vi/abc/mq.jpg"}}
      },
      "statistics": {"viewCount": "1000", "likeCount": "10"},
      "contentDetails": {"duration": "PT1M"}
    },
    {
      "id": "xyz",
      "snippet": {
        "title": "Huge video",
        "channelTitle": "Big Channel",
        "publishedAt": "2024-05-01T11:00:00Z",
        "thumbnails": {"high": {"url": "https://i.ytimg.com/vi/xyz/hq.jpg"}}
      },
      "statistics": {"viewCount": "5000000", "likeCount": "200000"}
    }
  ]
}`

func newTestSource(baseURL, apiKey string) *Source {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := source.NewClient(source.ClientConfig{
		Timeout:        time.Second,
		MaxAttempts:    1,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	}, logger)
	return New(Config{BaseURL: baseURL, APIKey: apiKey, RegionCode: "US"}, client, logger)
}

func TestFetch_MostPopular(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/videos", r.URL.Path)
		assert.Equal(t, "mostPopular", r.URL.Query().Get("chart"))
		assert.Equal(t, "key", r.URL.Query().Get("key"))
		assert.Equal(t, "5", r.URL.Query().Get("maxResults"))
		_, _ = w.Write([]byte(popularResponse))
	}))
	defer srv.Close()

	videos := newTestSource(srv.URL, "key").Fetch(context.Background(), 5)

	require.Len(t, videos, 2)
	assert.Equal(t, "https://www.youtube.com/watch?v=xyz", videos[0].URL)
	assert.Equal(t, "https://i.ytimg.com/vi/xyz/hq.jpg", videos[0].ThumbnailURL)
	assert.Equal(t, "Big Channel", *videos[0].Author)
	assert.Equal(t, int64(5000000), *videos[0].Views)
	assert.Equal(t, domain.PlatformYouTube, videos[0].Platform)
	assert.Greater(t, videos[0].ViralScore, videos[1].ViralScore)
	assert.Equal(t, "PT1M", *videos[1].Duration)
	assert.Nil(t, videos[0].Duration)
}

func TestFetch_APIErrorDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	videos := newTestSource(srv.URL, "key").Fetch(context.Background(), 5)

	assert.Empty(t, videos)
}

func TestFetch_SyntheticWithoutKey(t *testing.T) {
	videos := newTestSource("http://unused.invalid", "").Fetch(context.Background(), 3)

	require.Len(t, videos, 3)
	assert.Equal(t, "YouTube Viral Video 1", videos[0].Title)
	assert.Equal(t, 90.0, videos[0].ViralScore)
	assert.Equal(t, 86.0, videos[2].ViralScore)
}

func TestScore_Monotonic(t *testing.T) {
	assert.Less(t, Score(1000, 10), Score(2000, 10))
	assert.Less(t, Score(1000, 10), Score(1000, 20))
}
