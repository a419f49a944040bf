package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/winemaps/vinegeo/internal/resilience"
)

// Search resolves a free-text query through the shared rate gate, with
// exponential backoff on the transient failure class.
func (s *searcher) Search(ctx context.Context, query string) (*Match, error) {
	retry := s.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("geocode", "search")
	}

	m, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*Match, error) {
		return s.searchOnce(ctx, query)
	})
	if err != nil {
		var qe *QueryRejectedError
		if errors.As(err, &qe) {
			return nil, qe
		}
		return nil, &UpstreamUnavailableError{Query: query, Err: err}
	}
	return m, nil
}

// searchOnce performs a single dispatch. The limiter gate sits here so
// retries also respect the global spacing contract.
func (s *searcher) searchOnce(ctx context.Context, query string) (*Match, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit wait")
	}

	params := url.Values{
		"q":      {query},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}

	reqURL := strings.TrimRight(s.baseURL, "/") + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		// Connection-level failures are retried; net errors carry their
		// own timeout classification.
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(
				eris.Errorf("geocode: upstream returned status %d", resp.StatusCode),
				resp.StatusCode,
			)
		}
		return nil, &QueryRejectedError{Query: query, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}

	var places []searchPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, &QueryRejectedError{Query: query, StatusCode: resp.StatusCode}
	}

	if len(places) == 0 {
		// No candidates is a data gap, not a failure.
		return nil, nil
	}

	best := places[0]
	return &Match{
		Latitude:  float64(best.Lat),
		Longitude: float64(best.Lon),
		Name:      best.DisplayName,
	}, nil
}

// searchPlace is one candidate from the upstream response.
type searchPlace struct {
	Lat         coord  `json:"lat"`
	Lon         coord  `json:"lon"`
	DisplayName string `json:"display_name"`
}

// coord decodes a coordinate the upstream may encode as either a JSON
// string or a number.
type coord float64

func (c *coord) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return eris.Wrapf(err, "geocode: parse coordinate %q", s)
	}
	*c = coord(f)
	return nil
}
