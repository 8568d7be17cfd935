// Package spotprice fetches real electricity spot prices to drive a
// simulation run's price series, as an alternative to a static PRICEFILE.
// The wire format (a dataset id, a location id, a JSON array of interval
// rows) is generic enough to describe any day-ahead or real-time
// electricity price feed; the response is converted into an
// ingest.PriceSeries.
package spotprice

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"herss/internal/runcache"
)

// Client queries a market data API for historical or live spot prices.
type Client struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

// New creates a Client. An empty baseURL defaults to the public Grid
// Status endpoint.
func New(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.gridstatus.io"
	}
	return &Client{APIKey: apiKey, BaseURL: baseURL, HTTP: &http.Client{Timeout: 30 * time.Second}}
}

// Query identifies one price series request: a dataset, a pricing node
// (location), and a time window.
type Query struct {
	DatasetID  string
	LocationID string
	StartTime  time.Time
	EndTime    time.Time
	Timezone   string
}

// Interval is one row of the raw API response.
type Interval struct {
	IntervalStartUTC time.Time `json:"interval_start_utc"`
	IntervalEndUTC   time.Time `json:"interval_end_utc"`
	LMP              float64   `json:"lmp"`
}

type response struct {
	StatusCode int        `json:"status_code"`
	Data       []Interval `json:"data"`
}

// APIError wraps a non-200 response from the price feed.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string { return e.Message }

// FetchSeries queries the feed and returns the raw intervals, using
// runcache to avoid refetching an identical window within its TTL when
// caching is enabled.
func (c *Client) FetchSeries(q Query) ([]Interval, error) {
	if c.APIKey == "" {
		return nil, &APIError{Code: "MISSING_API_KEY", Message: "spot price API key is required"}
	}
	if q.DatasetID == "" || q.LocationID == "" {
		return nil, fmt.Errorf("spotprice: dataset_id and location_id are required")
	}
	if q.StartTime.IsZero() || q.EndTime.IsZero() || q.StartTime.After(q.EndTime) {
		return nil, fmt.Errorf("spotprice: invalid time window")
	}

	cache := runcache.Get()
	key := runcache.Key(q.DatasetID, q.LocationID, q.StartTime.Format(time.RFC3339), q.EndTime.Format(time.RFC3339), q.Timezone)
	if cache != nil {
		if cached, ok := cache.Lookup(key); ok {
			return cached.([]Interval), nil
		}
	}

	path := fmt.Sprintf("/v1/datasets/%s/query/location/%s", q.DatasetID, q.LocationID)
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return nil, fmt.Errorf("spotprice: invalid base URL: %w", err)
	}
	timezone := q.Timezone
	if timezone == "" {
		timezone = "market"
	}
	query := u.Query()
	query.Set("start_time", q.StartTime.Format("2006-01-02"))
	query.Set("end_time", q.EndTime.Format("2006-01-02"))
	query.Set("timezone", timezone)
	u.RawQuery = query.Encode()

	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("spotprice: build request: %w", err)
	}
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("spotprice: request failed: %w", err)
	}
	defer resp.Body.Close()
	log.Printf("[spotprice] %s %s -> %d (%s)", req.Method, req.URL.Path, resp.StatusCode, time.Since(started))

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Code: "API_ERROR", Message: fmt.Sprintf("spot price feed returned status %d", resp.StatusCode)}
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("spotprice: decode response: %w", err)
	}

	if cache != nil {
		cache.Store(key, body.Data)
	}
	return body.Data, nil
}

// ToPriceSeries converts fetched intervals into the (year, month, day,
// hour, price) arrays an ingest.PriceSeries holds. restPrice does not
// affect the result: the returned arrays carry per-interval prices only.
func ToPriceSeries(intervals []Interval, restPrice float64) (year, month, day, hour []int, price []float64) {
	for _, iv := range intervals {
		t := iv.IntervalStartUTC
		year = append(year, t.Year())
		month = append(month, int(t.Month()))
		day = append(day, t.Day())
		hour = append(hour, t.Hour())
		price = append(price, iv.LMP)
	}
	return
}
