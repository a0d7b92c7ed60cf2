package mocks

import (
	"context"
	"sync"

	"github.com/osm-campaigns/dashboard/internal/osmose"
)

// MockOsmoseClient is a simple mock for the Osmose statistics client.
type MockOsmoseClient struct {
	mu      sync.Mutex
	Queries []osmose.Query

	StatsFunc func(ctx context.Context, q osmose.Query) ([]osmose.Sample, error)
}

func (m *MockOsmoseClient) Stats(ctx context.Context, q osmose.Query) ([]osmose.Sample, error) {
	m.mu.Lock()
	m.Queries = append(m.Queries, q)
	m.mu.Unlock()

	if m.StatsFunc != nil {
		return m.StatsFunc(ctx, q)
	}
	return nil, nil
}
