package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/santiagocoriap/quakescope/internal/models"
	"github.com/santiagocoriap/quakescope/internal/observability"
)

const (
	endpointDetected    = "api/earthquakes/detected"
	endpointExpected    = "api/earthquakes/expected"
	endpointPairs       = "api/earthquakes/pairs"
	endpointPreferences = "api/alerts/preferences"
	endpointDeviceToken = "api/alerts/device-token"
)

// StatusError is returned when the backend answers with a non-200 status.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s: status %d: %s", e.Endpoint, e.Code, e.Body)
}

// Query holds the optional parameters of the detected/expected listings.
type Query struct {
	MinMagnitude *float64
	MaxMagnitude *float64
	Limit        int
}

// PairQuery holds the optional per-side bounds of the pairs listing.
type PairQuery struct {
	RealMinMagnitude     *float64
	RealMaxMagnitude     *float64
	RealMinDepth         *float64
	RealMaxDepth         *float64
	ExpectedMinMagnitude *float64
	ExpectedMaxMagnitude *float64
	ExpectedMinDepth     *float64
	ExpectedMaxDepth     *float64
	Limit                int
}

// Client talks to the QuakeScope backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

func (c *Client) DetectedEarthquakes(ctx context.Context, q Query) ([]models.Earthquake, error) {
	return c.listEarthquakes(ctx, endpointDetected, q, true)
}

func (c *Client) ExpectedEarthquakes(ctx context.Context, q Query) ([]models.Earthquake, error) {
	return c.listEarthquakes(ctx, endpointExpected, q, false)
}

func (c *Client) listEarthquakes(ctx context.Context, endpoint string, q Query, isReal bool) ([]models.Earthquake, error) {
	params := url.Values{}
	setFloat(params, "min_mag", q.MinMagnitude)
	setFloat(params, "max_mag", q.MaxMagnitude)
	setInt(params, "limit", q.Limit)

	var resp earthquakeResponse
	if err := c.get(ctx, endpoint, params, &resp); err != nil {
		return nil, err
	}

	quakes := make([]models.Earthquake, 0, len(resp.Items))
	for _, item := range resp.Items {
		quakes = append(quakes, item.toEarthquake(isReal))
	}
	return quakes, nil
}

// PairedEarthquakes fetches server-side pairs. Either side of a pair may be nil.
func (c *Client) PairedEarthquakes(ctx context.Context, q PairQuery) ([]models.EarthquakePair, error) {
	params := url.Values{}
	setFloat(params, "real_min_mag", q.RealMinMagnitude)
	setFloat(params, "real_max_mag", q.RealMaxMagnitude)
	setFloat(params, "real_min_depth", q.RealMinDepth)
	setFloat(params, "real_max_depth", q.RealMaxDepth)
	setFloat(params, "expected_min_mag", q.ExpectedMinMagnitude)
	setFloat(params, "expected_max_mag", q.ExpectedMaxMagnitude)
	setFloat(params, "expected_min_depth", q.ExpectedMinDepth)
	setFloat(params, "expected_max_depth", q.ExpectedMaxDepth)
	setInt(params, "limit", q.Limit)

	var resp pairResponse
	if err := c.get(ctx, endpointPairs, params, &resp); err != nil {
		return nil, err
	}

	pairs := make([]models.EarthquakePair, 0, len(resp.Items))
	for _, item := range resp.Items {
		pairs = append(pairs, item.toPair())
	}
	return pairs, nil
}

// UpdatePreferences mirrors the alert preferences together with the device
// token. An empty token is sent as null.
func (c *Client) UpdatePreferences(ctx context.Context, p models.AlertPreferences, token string) error {
	body := preferencesRequest{
		Latitude:         p.Latitude,
		Longitude:        p.Longitude,
		AlertRadiusKm:    p.AlertRadiusKm,
		MinimumMagnitude: p.MinimumMagnitude,
	}
	if token != "" {
		body.FCMToken = &token
	}
	return c.post(ctx, endpointPreferences, body)
}

func (c *Client) UpdateDeviceToken(ctx context.Context, token string) error {
	return c.post(ctx, endpointDeviceToken, deviceTokenRequest{FCMToken: token})
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	u := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, endpoint, out)
}

func (c *Client) post(ctx context.Context, endpoint string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s body: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, endpoint, nil)
}

func (c *Client) do(req *http.Request, endpoint string, out any) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.BackendDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		c.metrics.BackendRequests.WithLabelValues(endpoint, outcome).Inc()
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Endpoint: endpoint, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}

	c.logger.Debug("backend request", "endpoint", endpoint, "duration", time.Since(start))
	return nil
}

func setFloat(v url.Values, key string, f *float64) {
	if f != nil {
		v.Set(key, strconv.FormatFloat(*f, 'f', -1, 64))
	}
}

func setInt(v url.Values, key string, i int) {
	if i > 0 {
		v.Set(key, strconv.Itoa(i))
	}
}
