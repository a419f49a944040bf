package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/winemaps/vinegeo/internal/geocache"
	"github.com/winemaps/vinegeo/pkg/geocode"
)

// mockClient scripts upstream responses per query text and records the
// order of calls.
type mockClient struct {
	responses map[string]mockResponse
	calls     []string
}

type mockResponse struct {
	match *geocode.Match
	err   error
}

func (m *mockClient) Search(_ context.Context, query string) (*geocode.Match, error) {
	m.calls = append(m.calls, query)
	r, ok := m.responses[query]
	if !ok {
		return nil, nil
	}
	return r.match, r.err
}

func newMockClient() *mockClient {
	return &mockClient{responses: make(map[string]mockResponse)}
}

func (m *mockClient) respond(query string, lat, lon float64) {
	m.responses[query] = mockResponse{match: &geocode.Match{Latitude: lat, Longitude: lon, Name: query}}
}

func (m *mockClient) fail(query string, err error) {
	m.responses[query] = mockResponse{err: err}
}

func testCache(t *testing.T) *geocache.Cache {
	t.Helper()
	c, err := geocache.Open(filepath.Join(t.TempDir(), "geocache.json"), 100)
	require.NoError(t, err)
	return c
}
