// Package osmose provides a client for the issue statistics of the Osmose quality-assurance API.
package osmose

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/osm-campaigns/dashboard/internal/config"
	"github.com/osm-campaigns/dashboard/pkg/logger"
)

// Query selects the issues counted by a statistics request.
type Query struct {
	Item    string
	Class   string
	Country string
}

// Sample is the number of open issues on a given day.
type Sample struct {
	Date  string
	Count float64
}

// Client fetches issue statistics over HTTP.
type Client struct {
	baseURL    string
	statsPath  string
	timeout    time.Duration
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a new Osmose client.
func NewClient(cfg *config.OsmoseConfig, log *logger.Logger) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		statsPath:  cfg.StatsPath,
		timeout:    timeout,
		httpClient: &http.Client{},
		log:        log,
	}
}

type statsResponse struct {
	Data [][2]json.RawMessage `json:"data"`
}

// Stats returns the daily issue counts matching q, sorted by date ascending.
func (c *Client) Stats(ctx context.Context, q Query) ([]Sample, error) {
	params := url.Values{}
	params.Set("item", q.Item)
	if q.Class != "" {
		params.Set("class", q.Class)
	}
	if q.Country != "" {
		params.Set("country", q.Country)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + c.statsPath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query osmose: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("osmose returned status %d", resp.StatusCode)
	}

	var body statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode osmose response: %w", err)
	}

	samples := make([]Sample, 0, len(body.Data))
	for _, row := range body.Data {
		var s Sample
		if err := json.Unmarshal(row[0], &s.Date); err != nil {
			return nil, fmt.Errorf("invalid date in osmose response: %w", err)
		}
		if err := json.Unmarshal(row[1], &s.Count); err != nil {
			return nil, fmt.Errorf("invalid count in osmose response: %w", err)
		}
		samples = append(samples, s)
	}
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].Date < samples[j].Date })

	c.log.Debug().
		Str("item", q.Item).
		Int("samples", len(samples)).
		Msg("Fetched osmose statistics")

	return samples, nil
}
