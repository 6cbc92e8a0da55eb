package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/santiagocoriap/quakescope/internal/models"
	"github.com/santiagocoriap/quakescope/internal/paging"
	"github.com/santiagocoriap/quakescope/internal/pairing"
	"github.com/santiagocoriap/quakescope/internal/preferences"
)

const (
	defaultAlertLimit = 50
	maxAlertLimit     = 500
)

type Catalog interface {
	Pairs(ctx context.Context, filter models.FilterState, key *int) (paging.Page[models.EarthquakePair], error)
	Map(ctx context.Context, filter models.FilterState) ([]models.EarthquakePair, error)
	Refresh(ctx context.Context, filter models.FilterState) error
	PageSize() int
}

type Preferences interface {
	Get(ctx context.Context) (models.AlertPreferences, error)
	Update(ctx context.Context, p models.AlertPreferences) error
	UpdateDeviceToken(ctx context.Context, token string) error
}

type AlertLister interface {
	ListAlerts(ctx context.Context, limit int) ([]models.Alert, error)
}

// AlertPublisher delivers an alert to live subscribers.
type AlertPublisher interface {
	Publish(ctx context.Context, a models.Alert) error
}

type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// StreamStats reports live alert stream subscribers.
type StreamStats interface {
	SubscriberCount() int
}

type Handler struct {
	catalog     Catalog
	preferences Preferences
	alerts      AlertLister
	publisher   AlertPublisher
	readiness   ReadinessChecker
	streams     StreamStats
}

func NewHandler(catalog Catalog, prefs Preferences, alerts AlertLister, publisher AlertPublisher, readiness ReadinessChecker, streams StreamStats) *Handler {
	return &Handler{
		catalog:     catalog,
		preferences: prefs,
		alerts:      alerts,
		publisher:   publisher,
		readiness:   readiness,
		streams:     streams,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/earthquakes/pairs", h.getPairs)
	r.GET("/api/earthquakes/map", h.getMap)
	r.GET("/api/earthquakes/sort-options", h.getSortOptions)
	r.POST("/api/earthquakes/refresh", h.refresh)
	r.GET("/api/alerts/preferences", h.getPreferences)
	r.PUT("/api/alerts/preferences", h.putPreferences)
	r.POST("/api/alerts/device-token", h.postDeviceToken)
	r.GET("/api/alerts", h.getAlerts)
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/api/debug/test-alert", h.createTestAlert)
}

func (h *Handler) getPairs(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	key, err := parsePage(c, h.catalog.PageSize())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.catalog.Pairs(c.Request.Context(), filter, key)
	if err != nil {
		slog.Error("failed to load earthquake page", "error", err, "type", filter.Type)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch earthquakes",
		})
		return
	}

	c.JSON(http.StatusOK, pageResponse{
		Items:    toPairResponses(page.Data),
		Count:    len(page.Data),
		Total:    page.Total,
		PageSize: h.catalog.PageSize(),
		PrevPage: page.PrevKey,
		NextPage: page.NextKey,
	})
}

func (h *Handler) getMap(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pairs, err := h.catalog.Map(c.Request.Context(), filter)
	if err != nil {
		slog.Error("failed to load map pairs", "error", err, "type", filter.Type)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch earthquakes",
		})
		return
	}

	fc := toGeoJSON(pairs)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func (h *Handler) getSortOptions(c *gin.Context) {
	t := models.EarthquakeTypePairs
	if q := c.Query("type"); q != "" {
		et, ok := models.ParseEarthquakeType(q)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid type: %q", q)})
			return
		}
		t = et
	}

	c.JSON(http.StatusOK, gin.H{
		"type":    t,
		"options": pairing.AvailableFor(t),
	})
}

func (h *Handler) refresh(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.catalog.Refresh(c.Request.Context(), filter); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "failed to refresh earthquakes",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "refreshed", "type": filter.Type})
}

func (h *Handler) getPreferences(c *gin.Context) {
	p, err := h.preferences.Get(c.Request.Context())
	if err != nil {
		slog.Error("failed to read alert preferences", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to read preferences",
		})
		return
	}
	c.JSON(http.StatusOK, toPreferencesBody(p))
}

func (h *Handler) putPreferences(c *gin.Context) {
	var body preferencesBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	p := body.toPreferences()
	if err := h.preferences.Update(c.Request.Context(), p); err != nil {
		if errors.Is(err, preferences.ErrInvalidPreferences) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.Error("failed to save alert preferences", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to save preferences",
		})
		return
	}
	c.JSON(http.StatusOK, toPreferencesBody(p))
}

func (h *Handler) postDeviceToken(c *gin.Context) {
	var body deviceTokenBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.preferences.UpdateDeviceToken(c.Request.Context(), body.Token); err != nil {
		if errors.Is(err, preferences.ErrEmptyToken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.Error("failed to save device token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to save device token",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

func (h *Handler) getAlerts(c *gin.Context) {
	limit := defaultAlertLimit
	if l := c.Query("limit"); l != "" {
		lim, err := strconv.Atoi(l)
		if err != nil || lim < 1 || lim > maxAlertLimit {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("limit must be between 1 and %d", maxAlertLimit),
			})
			return
		}
		limit = lim
	}

	alerts, err := h.alerts.ListAlerts(c.Request.Context(), limit)
	if err != nil {
		slog.Error("failed to list alerts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch alerts",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(alerts),
		"items": toAlertResponses(alerts),
	})
}

func (h *Handler) health(c *gin.Context) {
	if h.readiness != nil {
		if err := h.readiness.CheckReadiness(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	resp := gin.H{"status": "ok"}
	if h.streams != nil {
		resp["stream_subscribers"] = h.streams.SubscriberCount()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createTestAlert(c *gin.Context) {
	a := models.Alert{
		ID:           uuid.NewString(),
		EarthquakeID: fmt.Sprintf("test_%d", time.Now().UnixNano()),
		Magnitude:    6.5,
		Depth:        10,
		Latitude:     35.6762,
		Longitude:    139.6503,
		Severity:     models.SeverityForMagnitude(6.5),
		CreatedAt:    time.Now().UTC(),
	}

	// Broadcast only - test alerts never reach the history
	if h.publisher != nil {
		if err := h.publisher.Publish(c.Request.Context(), a); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to publish test alert"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "test alert broadcast (not persisted)",
		"id":      a.ID,
	})
}
