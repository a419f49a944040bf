// Package geocode provides a serialized, rate-limited client for a
// free-text geocoding search API. It is the only place in the pipeline
// that performs network I/O: the upstream rate budget is global and
// per-process, so one Client instance must be shared by every caller.
package geocode

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/winemaps/vinegeo/internal/resilience"
)

// Client resolves free-text place queries to coordinates.
type Client interface {
	// Search returns the best upstream match for query, or (nil, nil)
	// when the upstream has no candidates. Failures come back as
	// *UpstreamUnavailableError or *QueryRejectedError, never panics.
	Search(ctx context.Context, query string) (*Match, error)
}

// Match is the best candidate returned by the upstream search.
type Match struct {
	Latitude  float64
	Longitude float64
	Name      string
}

// Option configures the client.
type Option func(*searcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *searcher) {
		s.httpClient = hc
	}
}

// WithBaseURL overrides the upstream base URL.
func WithBaseURL(u string) Option {
	return func(s *searcher) {
		s.baseURL = u
	}
}

// WithUserAgent sets the identifying client-agent string the upstream
// usage policy requires on every request.
func WithUserAgent(ua string) Option {
	return func(s *searcher) {
		s.userAgent = ua
	}
}

// WithMinInterval sets the minimum wall-clock spacing between outbound
// dispatches. The gate is taken at dispatch, so a slow response never
// shortens the spacing of the next call.
func WithMinInterval(d time.Duration) Option {
	return func(s *searcher) {
		s.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithRetry overrides the backoff policy for transient upstream failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(s *searcher) {
		s.retry = cfg
	}
}

type searcher struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
}

const (
	defaultBaseURL     = "https://nominatim.openstreetmap.org"
	defaultUserAgent   = "vinegeo/1.0 (wine-review geocoding batch)"
	defaultMinInterval = 1600 * time.Millisecond
)

// NewClient creates a geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	s := &searcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		limiter:    rate.NewLimiter(rate.Every(defaultMinInterval), 1),
		retry:      resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
