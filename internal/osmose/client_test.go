package osmose

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osm-campaigns/dashboard/internal/config"
	"github.com/osm-campaigns/dashboard/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.OsmoseConfig{
		URL:       srv.URL + "/",
		StatsPath: "/api/0.3/issues/stats",
		Timeout:   1,
	}, logger.Nop())
}

func TestClient_Stats(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/0.3/issues/stats", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[["2024-03-02",8],["2024-03-01",10],["2024-03-03",5]]}`))
	})

	samples, err := client.Stats(context.Background(), Query{Item: "8180", Class: "1", Country: "france*"})
	require.NoError(t, err)

	assert.Equal(t, "class=1&country=france%2A&item=8180", gotQuery)
	assert.Equal(t, []Sample{
		{Date: "2024-03-01", Count: 10},
		{Date: "2024-03-02", Count: 8},
		{Date: "2024-03-03", Count: 5},
	}, samples)
}

func TestClient_Stats_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Stats(context.Background(), Query{Item: "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestClient_Stats_BadBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[[1,"x"]]}`))
	})

	_, err := client.Stats(context.Background(), Query{Item: "1"})
	assert.Error(t, err)
}

func TestClient_Stats_Timeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	})
	client.timeout = 50 * time.Millisecond

	start := time.Now()
	_, err := client.Stats(context.Background(), Query{Item: "1"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

type stubFetcher struct {
	calls int
	err   error
}

func (s *stubFetcher) Stats(_ context.Context, _ Query) ([]Sample, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []Sample{{Date: "2024-01-01", Count: 1}}, nil
}

func TestBreakerClient_OpensAfterConsecutiveFailures(t *testing.T) {
	stub := &stubFetcher{err: errors.New("boom")}
	b := NewBreakerClient(stub, &config.OsmoseConfig{BreakerFailures: 2, BreakerTimeout: 60}, logger.Nop())

	for i := 0; i < 2; i++ {
		_, err := b.Stats(context.Background(), Query{Item: "1"})
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Stats(context.Background(), Query{Item: "1"})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, stub.calls, "open breaker must not reach the upstream")
}

func TestBreakerClient_PassesThrough(t *testing.T) {
	stub := &stubFetcher{}
	b := NewBreakerClient(stub, &config.OsmoseConfig{}, logger.Nop())

	samples, err := b.Stats(context.Background(), Query{Item: "1"})
	require.NoError(t, err)
	assert.Len(t, samples, 1)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerClient_CancellationDoesNotTrip(t *testing.T) {
	stub := &stubFetcher{err: context.Canceled}
	b := NewBreakerClient(stub, &config.OsmoseConfig{BreakerFailures: 1}, logger.Nop())

	for i := 0; i < 3; i++ {
		_, _ = b.Stats(context.Background(), Query{Item: "1"})
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}
