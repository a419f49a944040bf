package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winemaps/vinegeo/internal/resilience"
)

func fastRetry(maxAttempts int) resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    maxAttempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func testClient(srvURL string, opts ...Option) Client {
	base := []Option{
		WithBaseURL(srvURL),
		WithMinInterval(time.Millisecond),
		WithRetry(fastRetry(3)),
	}
	return NewClient(append(base, opts...)...)
}

func TestSearch_BestMatchWithStringCoordinates(t *testing.T) {
	var gotUA atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		assert.Equal(t, "Oregon, US", r.URL.Query().Get("q"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"lat": "43.9793", "lon": "-120.7372", "display_name": "Oregon, United States"},
			{"lat": "45.0", "lon": "-122.0", "display_name": "lesser match"}
		]`)
	}))
	defer srv.Close()

	c := testClient(srv.URL, WithUserAgent("vinegeo-test/1.0"))
	match, err := c.Search(context.Background(), "Oregon, US")
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.InDelta(t, 43.9793, match.Latitude, 1e-9)
	assert.InDelta(t, -120.7372, match.Longitude, 1e-9)
	assert.Equal(t, "Oregon, United States", match.Name)
	assert.Equal(t, "vinegeo-test/1.0", gotUA.Load())
}

func TestSearch_NumericCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"lat": -32.88, "lon": -68.85, "display_name": "Mendoza"}]`)
	}))
	defer srv.Close()

	match, err := testClient(srv.URL).Search(context.Background(), "Mendoza, Argentina")
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.InDelta(t, -32.88, match.Latitude, 1e-9)
}

func TestSearch_NoCandidatesIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	match, err := testClient(srv.URL).Search(context.Background(), "Nowhere")
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestSearch_RetriesTransient503(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"lat": "46.6", "lon": "2.4", "display_name": "France"}]`)
	}))
	defer srv.Close()

	match, err := testClient(srv.URL).Search(context.Background(), "France")
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSearch_UpstreamUnavailableAfterExhaustion(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	match, err := testClient(srv.URL).Search(context.Background(), "France")
	require.Error(t, err)
	assert.Nil(t, match)
	assert.True(t, IsUpstreamUnavailable(err))
	assert.False(t, IsQueryRejected(err))
	assert.Equal(t, int32(3), calls.Load(), "one call per attempt, then give up")
}

func TestSearch_QueryRejectedNoRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	match, err := testClient(srv.URL).Search(context.Background(), "%%%")
	require.Error(t, err)
	assert.Nil(t, match)
	assert.True(t, IsQueryRejected(err))
	assert.False(t, IsUpstreamUnavailable(err))
	assert.Equal(t, int32(1), calls.Load(), "non-transient failures are never retried")
}

func TestSearch_EnforcesMinimumInterval(t *testing.T) {
	var timestamps []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		timestamps = append(timestamps, time.Now())
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"lat": "0", "lon": "0", "display_name": "x"}]`)
	}))
	defer srv.Close()

	const interval = 120 * time.Millisecond
	c := testClient(srv.URL, WithMinInterval(interval))

	for i := 0; i < 3; i++ {
		_, err := c.Search(context.Background(), "x")
		require.NoError(t, err)
	}

	require.Len(t, timestamps, 3)
	for i := 1; i < len(timestamps); i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		assert.GreaterOrEqual(t, gap, interval-5*time.Millisecond,
			"dispatch gap %d was %v", i, gap)
	}
}

func TestSearch_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).Search(ctx, "France")
	require.Error(t, err)
}
