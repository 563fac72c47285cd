// Package handlers is the HTTP boundary: it validates query parameters,
// builds aggregator queries and writes the JSON envelopes.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tripease/aggregator"
	"tripease/cache"
	"tripease/config"
	"tripease/database"
	"tripease/logger"
	"tripease/metrics"
	"tripease/middleware"
	"tripease/services"
)

// Store is the persistence the handlers need. A nil Store disables the
// search audit and itinerary PDFs.
type Store interface {
	Ping(ctx context.Context) error
	SaveSearch(ctx context.Context, s *database.Search) error
	SaveItinerary(ctx context.Context, i *database.Itinerary) error
	GetItinerary(ctx context.Context, id string) (*database.Itinerary, error)
	UpdateItineraryPDF(ctx context.Context, id string, pdfData []byte) error
}

// Pipeline pairs an aggregator with the adapters it fans out to.
type Pipeline[T aggregator.Record] struct {
	Aggregator *aggregator.Aggregator[T]
	Adapters   []aggregator.Adapter[T]
}

type Handler struct {
	images     Pipeline[services.Image]
	places     Pipeline[services.Place]
	buses      Pipeline[services.BusTrip]
	activities Pipeline[services.Activity]

	flow    services.ItineraryFlow
	store   Store
	cache   *cache.Cache
	limits  config.AggregationConfig
	service string
	log     logger.Logger
}

// Deps lists everything New wires together. Store, Cache and Flow may be nil.
type Deps struct {
	Images     Pipeline[services.Image]
	Places     Pipeline[services.Place]
	Buses      Pipeline[services.BusTrip]
	Activities Pipeline[services.Activity]

	Flow        services.ItineraryFlow
	Store       Store
	Cache       *cache.Cache
	Limits      config.AggregationConfig
	ServiceName string
	Logger      logger.Logger
}

func New(d Deps) *Handler {
	log := d.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Handler{
		images:     d.Images,
		places:     d.Places,
		buses:      d.Buses,
		activities: d.Activities,
		flow:       d.Flow,
		store:      d.Store,
		cache:      d.Cache,
		limits:     d.Limits,
		service:    d.ServiceName,
		log:        log,
	}
}

// Register mounts every route on api.
func (h *Handler) Register(api *gin.RouterGroup) {
	api.GET("/health", h.Health)
	api.GET("/images", h.Images)
	api.GET("/places/nearby", h.Places)
	api.GET("/bookings/bus", h.Buses)
	api.GET("/bookings/activities", h.Activities)
	api.POST("/itinerary", h.GenerateItinerary)
	api.GET("/itinerary/:id/pdf", h.DownloadPDF)
}

// ValidationError is a client mistake in a request parameter.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		fail(c, http.StatusBadRequest, ve.Error())
	case errors.Is(err, aggregator.ErrFallbackExhausted):
		h.log.Error("Fallback produced no records", map[string]interface{}{
			"request_id": middleware.RequestID(c),
			"path":       c.FullPath(),
		})
		fail(c, http.StatusInternalServerError, "No data available")
	default:
		h.log.WithError(err).Error("Request failed", map[string]interface{}{
			"request_id": middleware.RequestID(c),
			"path":       c.FullPath(),
		})
		fail(c, http.StatusInternalServerError, "Internal server error")
	}
}

// parseLimit reads ?limit. Absent means def; above the maximum is clamped.
func (h *Handler) parseLimit(c *gin.Context, def int) (int, error) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, invalid("limit", "must be a positive integer")
	}
	if ceiling := h.limits.MaxLimit; ceiling > 0 && n > ceiling {
		n = ceiling
	}
	return n, nil
}

func requiredParam(c *gin.Context, name string) (string, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return "", invalid(name, "is required")
	}
	return v, nil
}

func sourceLabel(usedFallback bool) string {
	if usedFallback {
		return "fallback"
	}
	return "live"
}

// serve runs q through p and writes the success envelope under key.
func serve[T aggregator.Record](c *gin.Context, h *Handler, p Pipeline[T], key string, q aggregator.Query) {
	out, err := aggregate(c.Request.Context(), h, p, q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	failures := out.PartialFailures
	if failures == nil {
		failures = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		key:               out.Records,
		"count":           len(out.Records),
		"source":          sourceLabel(out.UsedFallback),
		"partialFailures": failures,
	})
}

// aggregate serves q from the cache when it can, otherwise runs the pipeline
// and caches a live outcome. Every call is recorded in the search audit.
func aggregate[T aggregator.Record](ctx context.Context, h *Handler, p Pipeline[T], q aggregator.Query) (aggregator.Outcome[T], error) {
	if entry, ok := cache.Load[T](ctx, h.cache, q); ok {
		metrics.CacheLookup(q.Kind, true)
		out := aggregator.Outcome[T]{
			Records:         entry.Records,
			PartialFailures: entry.PartialFailures,
		}
		h.audit(ctx, q, len(out.Records), false, true, out.PartialFailures)
		return out, nil
	}
	if h.cache.Enabled() {
		metrics.CacheLookup(q.Kind, false)
	}

	out, err := p.Aggregator.Aggregate(ctx, q, p.Adapters)
	if err != nil {
		return out, err
	}
	cache.Store(ctx, h.cache, q, out)
	h.audit(ctx, q, len(out.Records), out.UsedFallback, false, out.PartialFailures)
	return out, nil
}

// audit is best-effort: a storage failure is logged and never surfaces.
func (h *Handler) audit(ctx context.Context, q aggregator.Query, count int, usedFallback, cached bool, failures []string) {
	if h.store == nil {
		return
	}
	err := h.store.SaveSearch(ctx, &database.Search{
		ID:              uuid.New().String(),
		Kind:            string(q.Kind),
		Subject:         q.Subject,
		ResultLimit:     q.Limit,
		ResultCount:     count,
		UsedFallback:    usedFallback,
		Cached:          cached,
		PartialFailures: failures,
	})
	if err != nil {
		h.log.WithError(err).Warn("Failed to record search", map[string]interface{}{
			"kind": string(q.Kind),
		})
	}
}
