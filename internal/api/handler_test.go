package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/santiagocoriap/quakescope/internal/models"
	"github.com/santiagocoriap/quakescope/internal/paging"
	"github.com/santiagocoriap/quakescope/internal/preferences"
)

type mockCatalog struct {
	pairs      []models.EarthquakePair
	err        error
	lastFilter models.FilterState
	lastKey    *int
	refreshed  int
}

func (m *mockCatalog) Pairs(ctx context.Context, filter models.FilterState, key *int) (paging.Page[models.EarthquakePair], error) {
	m.lastFilter = filter
	m.lastKey = key
	if m.err != nil {
		return paging.Page[models.EarthquakePair]{}, m.err
	}
	page := 0
	if key != nil {
		page = *key
	}
	return paging.Slice(m.pairs, page, m.PageSize())
}

func (m *mockCatalog) Map(ctx context.Context, filter models.FilterState) ([]models.EarthquakePair, error) {
	m.lastFilter = filter
	return m.pairs, m.err
}

func (m *mockCatalog) Refresh(ctx context.Context, filter models.FilterState) error {
	m.lastFilter = filter
	m.refreshed++
	return m.err
}

func (m *mockCatalog) PageSize() int { return 2 }

type mockPreferences struct {
	prefs models.AlertPreferences
	token string
}

func (m *mockPreferences) Get(ctx context.Context) (models.AlertPreferences, error) {
	return m.prefs, nil
}

func (m *mockPreferences) Update(ctx context.Context, p models.AlertPreferences) error {
	if err := preferences.Validate(p); err != nil {
		return err
	}
	m.prefs = p
	return nil
}

func (m *mockPreferences) UpdateDeviceToken(ctx context.Context, token string) error {
	if token == "" {
		return preferences.ErrEmptyToken
	}
	m.token = token
	return nil
}

type mockAlerts struct {
	alerts    []models.Alert
	lastLimit int
}

func (m *mockAlerts) ListAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	m.lastLimit = limit
	if limit > 0 && len(m.alerts) > limit {
		return m.alerts[:limit], nil
	}
	return m.alerts, nil
}

type mockPublisher struct {
	published []models.Alert
}

func (m *mockPublisher) Publish(ctx context.Context, a models.Alert) error {
	m.published = append(m.published, a)
	return nil
}

type mockReadiness struct {
	err error
}

func (m mockReadiness) CheckReadiness(ctx context.Context) error { return m.err }

type mockStreams int

func (m mockStreams) SubscriberCount() int { return int(m) }

type testDeps struct {
	catalog   *mockCatalog
	prefs     *mockPreferences
	alerts    *mockAlerts
	publisher *mockPublisher
	readiness mockReadiness
	streams   mockStreams
}

func newTestDeps() *testDeps {
	return &testDeps{
		catalog:   &mockCatalog{},
		prefs:     &mockPreferences{prefs: models.DefaultAlertPreferences()},
		alerts:    &mockAlerts{},
		publisher: &mockPublisher{},
	}
}

func setupTestRouter(d *testDeps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewHandler(d.catalog, d.prefs, d.alerts, d.publisher, d.readiness, d.streams)
	handler.RegisterRoutes(router)
	return router
}

func do(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func quake(id string, isReal bool, mag float64) *models.Earthquake {
	source := models.SourceExpected
	rowID := "exp-" + id
	if isReal {
		source = models.SourceDetected
		rowID = id
	}
	return &models.Earthquake{
		ID:           rowID,
		EarthquakeID: id,
		Source:       source,
		IsReal:       isReal,
		Magnitude:    mag,
		Depth:        10,
		Latitude:     35,
		Longitude:    139,
		Time:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestGetPairs_FirstPage(t *testing.T) {
	d := newTestDeps()
	d.catalog.pairs = []models.EarthquakePair{
		{Real: quake("us1", true, 5), Estimated: quake("us1", false, 5.2)},
		{Real: quake("us2", true, 6)},
		{Estimated: quake("us3", false, 4.4)},
	}
	router := setupTestRouter(d)

	w := do(router, "GET", "/api/earthquakes/pairs", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp pageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Count != 2 || resp.Total != 3 {
		t.Errorf("expected count 2 of 3, got %d of %d", resp.Count, resp.Total)
	}
	if resp.PageSize != 2 {
		t.Errorf("expected page size 2, got %d", resp.PageSize)
	}
	if resp.PrevPage != nil {
		t.Errorf("expected no prev page, got %d", *resp.PrevPage)
	}
	if resp.NextPage == nil || *resp.NextPage != 1 {
		t.Errorf("expected next page 1, got %v", resp.NextPage)
	}
	if resp.Items[0].EarthquakeID != "us1" || resp.Items[0].Real == nil || resp.Items[0].Estimated == nil {
		t.Errorf("unexpected first item: %+v", resp.Items[0])
	}
	if resp.Items[1].Estimated != nil {
		t.Errorf("expected unpaired second item, got %+v", resp.Items[1].Estimated)
	}
	if d.catalog.lastKey != nil {
		t.Errorf("expected nil page key, got %d", *d.catalog.lastKey)
	}
}

func TestGetPairs_SecondPage(t *testing.T) {
	d := newTestDeps()
	d.catalog.pairs = []models.EarthquakePair{
		{Real: quake("us1", true, 5)},
		{Real: quake("us2", true, 6)},
		{Real: quake("us3", true, 7)},
	}
	router := setupTestRouter(d)

	w := do(router, "GET", "/api/earthquakes/pairs?page=1&type=real", nil)

	var resp pageResponse
	json.Unmarshal(w.Body.Bytes(), &resp)

	if resp.Count != 1 || resp.Items[0].EarthquakeID != "us3" {
		t.Errorf("expected only us3 on page 1, got %+v", resp.Items)
	}
	if resp.PrevPage == nil || *resp.PrevPage != 0 {
		t.Errorf("expected prev page 0, got %v", resp.PrevPage)
	}
	if resp.NextPage != nil {
		t.Errorf("expected no next page, got %d", *resp.NextPage)
	}
	if d.catalog.lastFilter.Type != models.EarthquakeTypeReal {
		t.Errorf("expected REAL type, got %s", d.catalog.lastFilter.Type)
	}
}

func TestGetPairs_AnchorSelectsPage(t *testing.T) {
	d := newTestDeps()
	router := setupTestRouter(d)

	do(router, "GET", "/api/earthquakes/pairs?anchor=3", nil)

	if d.catalog.lastKey == nil || *d.catalog.lastKey != 1 {
		t.Errorf("expected key 1 for anchor 3 with page size 2, got %v", d.catalog.lastKey)
	}
}

func TestGetPairs_FilterParams(t *testing.T) {
	d := newTestDeps()
	router := setupTestRouter(d)

	w := do(router, "GET", "/api/earthquakes/pairs?type=pairs&sort=real_magnitude_desc&match=proximity&limit=40&real_min_mag=5&estimated_max_depth=30", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	f := d.catalog.lastFilter
	if f.Sort != models.SortRealMagnitudeDesc {
		t.Errorf("expected REAL_MAGNITUDE_DESC, got %s", f.Sort)
	}
	if f.Matching != models.MatchByProximity {
		t.Errorf("expected PROXIMITY matching, got %s", f.Matching)
	}
	if f.Limit != 40 {
		t.Errorf("expected limit 40, got %d", f.Limit)
	}
	if f.RealMagnitudeRange.Min != 5 || f.RealMagnitudeRange.Max != 10 {
		t.Errorf("unexpected real magnitude range: %+v", f.RealMagnitudeRange)
	}
	if f.EstimatedDepthRange.Max != 30 {
		t.Errorf("unexpected estimated depth range: %+v", f.EstimatedDepthRange)
	}
}

func TestGetPairs_SortFallsBackForType(t *testing.T) {
	d := newTestDeps()
	router := setupTestRouter(d)

	do(router, "GET", "/api/earthquakes/pairs?type=real&sort=REAL_DEPTH_ASC", nil)

	if d.catalog.lastFilter.Sort != models.SortTimeDesc {
		t.Errorf("expected TIME_DESC fallback, got %s", d.catalog.lastFilter.Sort)
	}
}

func TestGetPairs_InvalidParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"unknown type", "type=volcano"},
		{"unknown match", "match=fuzzy"},
		{"limit too large", "limit=501"},
		{"limit not a number", "limit=abc"},
		{"bad magnitude", "min_mag=big"},
		{"inverted range", "min_depth=50&max_depth=10"},
		{"negative page", "page=-1"},
		{"bad anchor", "anchor=x"},
	}

	d := newTestDeps()
	router := setupTestRouter(d)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, "GET", "/api/earthquakes/pairs?"+tt.query, nil)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestGetPairs_CatalogError(t *testing.T) {
	d := newTestDeps()
	d.catalog.err = errors.New("database locked")
	router := setupTestRouter(d)

	w := do(router, "GET", "/api/earthquakes/pairs", nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
}

func TestGetMap_ReturnsGeoJSON(t *testing.T) {
	d := newTestDeps()
	d.catalog.pairs = []models.EarthquakePair{
		{Real: quake("us1", true, 5), Estimated: quake("us1", false, 5.2)},
		{Real: quake("us2", true, 6)},
	}
	router := setupTestRouter(d)

	w := do(router, "GET", "/api/earthquakes/map", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	contentType := w.Header().Get("Content-Type")
	if contentType != "application/geo+json" {
		t.Errorf("expected content-type application/geo+json, got %s", contentType)
	}

	var fc FeatureCollection
	if err := json.Unmarshal(w.Body.Bytes(), &fc); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if fc.Type != "FeatureCollection" {
		t.Errorf("expected type FeatureCollection, got %s", fc.Type)
	}
	if len(fc.Features) != 3 {
		t.Fatalf("expected 3 features, got %d", len(fc.Features))
	}

	first := fc.Features[0]
	if first.Geometry.Coordinates[0] != 139 || first.Geometry.Coordinates[1] != 35 {
		t.Errorf("expected [lon, lat] coordinates, got %v", first.Geometry.Coordinates)
	}
	if first.Properties["pair_key"] != "us1" || first.Properties["paired"] != true {
		t.Errorf("unexpected pair properties: %v", first.Properties)
	}
	if fc.Features[2].Properties["paired"] != false {
		t.Errorf("expected unpaired feature, got %v", fc.Features[2].Properties)
	}
}

func TestGetSortOptions(t *testing.T) {
	router := setupTestRouter(newTestDeps())

	w := do(router, "GET", "/api/earthquakes/sort-options?type=estimated", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp struct {
		Type    string   `json:"type"`
		Options []string `json:"options"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)

	if resp.Type != "ESTIMATED" {
		t.Errorf("expected ESTIMATED, got %s", resp.Type)
	}
	if len(resp.Options) != 6 || resp.Options[0] != "TIME_DESC" {
		t.Errorf("unexpected options: %v", resp.Options)
	}

	w = do(router, "GET", "/api/earthquakes/sort-options?type=flood", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestRefresh(t *testing.T) {
	d := newTestDeps()
	router := setupTestRouter(d)

	w := do(router, "POST", "/api/earthquakes/refresh?type=estimated", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if d.catalog.refreshed != 1 || d.catalog.lastFilter.Type != models.EarthquakeTypeEstimated {
		t.Errorf("expected one ESTIMATED refresh, got %d %s", d.catalog.refreshed, d.catalog.lastFilter.Type)
	}

	d.catalog.err = errors.New("backend down")
	w = do(router, "POST", "/api/earthquakes/refresh", nil)
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", w.Code)
	}
}

func TestPreferences_GetAndPut(t *testing.T) {
	d := newTestDeps()
	router := setupTestRouter(d)

	w := do(router, "GET", "/api/alerts/preferences", nil)
	var got preferencesBody
	json.Unmarshal(w.Body.Bytes(), &got)
	if got.Latitude != nil || *got.AlertRadiusKm != models.DefaultAlertRadiusKm {
		t.Errorf("expected default preferences, got %+v", got)
	}

	lat, lon, radius := 34.05, -118.25, 120.0
	w = do(router, "PUT", "/api/alerts/preferences", preferencesBody{
		Latitude:      &lat,
		Longitude:     &lon,
		AlertRadiusKm: &radius,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if d.prefs.prefs.AlertRadiusKm != 120 || *d.prefs.prefs.Latitude != lat {
		t.Errorf("unexpected stored preferences: %+v", d.prefs.prefs)
	}
	if d.prefs.prefs.MinimumMagnitude != models.DefaultMinimumMagnitude {
		t.Errorf("expected default minimum magnitude, got %v", d.prefs.prefs.MinimumMagnitude)
	}
}

func TestPreferences_PutInvalid(t *testing.T) {
	router := setupTestRouter(newTestDeps())

	lat := 91.0
	w := do(router, "PUT", "/api/alerts/preferences", preferencesBody{Latitude: &lat})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/alerts/preferences", bytes.NewBufferString("{not json"))
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for malformed body, got %d", w.Code)
	}
}

func TestDeviceToken(t *testing.T) {
	d := newTestDeps()
	router := setupTestRouter(d)

	w := do(router, "POST", "/api/alerts/device-token", deviceTokenBody{Token: "abc123"})
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if d.prefs.token != "abc123" {
		t.Errorf("expected token abc123, got %q", d.prefs.token)
	}

	w = do(router, "POST", "/api/alerts/device-token", deviceTokenBody{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestGetAlerts(t *testing.T) {
	d := newTestDeps()
	d.alerts.alerts = []models.Alert{
		{ID: "a1", EarthquakeID: "us1", Magnitude: 6.2, Severity: models.AlertSeverityCritical},
		{ID: "a2", EarthquakeID: "us2", Magnitude: 4.8, Severity: models.AlertSeverityHigh},
	}
	router := setupTestRouter(d)

	w := do(router, "GET", "/api/alerts", nil)
	var resp struct {
		Count int             `json:"count"`
		Items []alertResponse `json:"items"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)

	if resp.Count != 2 || resp.Items[0].Severity != "CRITICAL" {
		t.Errorf("unexpected alerts response: %+v", resp)
	}
	if d.alerts.lastLimit != defaultAlertLimit {
		t.Errorf("expected default limit %d, got %d", defaultAlertLimit, d.alerts.lastLimit)
	}

	do(router, "GET", "/api/alerts?limit=1", nil)
	if d.alerts.lastLimit != 1 {
		t.Errorf("expected limit 1, got %d", d.alerts.lastLimit)
	}

	w = do(router, "GET", "/api/alerts?limit=0", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	d := newTestDeps()
	d.streams = 3
	router := setupTestRouter(d)

	w := do(router, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	var health struct {
		Status            string `json:"status"`
		StreamSubscribers int    `json:"stream_subscribers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if health.Status != "ok" || health.StreamSubscribers != 3 {
		t.Errorf("unexpected health response: %+v", health)
	}

	d.readiness = mockReadiness{err: errors.New("sql: database is closed")}
	router = setupTestRouter(d)

	w = do(router, "GET", "/health", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
}

func TestCreateTestAlert(t *testing.T) {
	d := newTestDeps()
	router := setupTestRouter(d)

	w := do(router, "POST", "/api/debug/test-alert", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if len(d.publisher.published) != 1 {
		t.Fatalf("expected 1 published alert, got %d", len(d.publisher.published))
	}
	if d.publisher.published[0].Severity != models.AlertSeverityCritical {
		t.Errorf("expected CRITICAL severity, got %s", d.publisher.published[0].Severity)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(1))
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := do(router, "GET", "/ping", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	w = do(router, "GET", "/ping", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", w.Code)
	}
}
