package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tripease/database"
	"tripease/services"
)

// DownloadPDF handles GET /api/itinerary/:id/pdf. A stored itinerary whose
// PDF failed to render is rendered again and saved.
func (h *Handler) DownloadPDF(c *gin.Context) {
	if h.store == nil {
		fail(c, http.StatusServiceUnavailable, "Itinerary storage is not configured")
		return
	}
	id := c.Param("id")
	if id == "" {
		fail(c, http.StatusBadRequest, "Missing itinerary ID")
		return
	}

	ctx := c.Request.Context()
	it, err := h.store.GetItinerary(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		fail(c, http.StatusNotFound, "Itinerary not found")
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	if len(it.PDFData) == 0 {
		var acts []services.Activity
		var imgs []services.Image
		if it.ActivitiesJSON != "" {
			_ = json.Unmarshal([]byte(it.ActivitiesJSON), &acts)
		}
		if it.ImagesJSON != "" {
			_ = json.Unmarshal([]byte(it.ImagesJSON), &imgs)
		}
		it.PDFData = h.renderPDF(it, acts, imgs)
		if len(it.PDFData) == 0 {
			fail(c, http.StatusInternalServerError, "Failed to generate PDF")
			return
		}
		if err := h.store.UpdateItineraryPDF(ctx, id, it.PDFData); err != nil {
			h.log.WithError(err).Warn("Failed to store regenerated PDF", map[string]interface{}{
				"itinerary_id": id,
			})
		}
	}

	c.Header("Content-Disposition", "attachment; filename=tripease-itinerary.pdf")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", it.PDFData)
}

// Health handles GET /api/health.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "disabled"
	if h.store != nil {
		dbStatus = "ok"
		if err := h.store.Ping(ctx); err != nil {
			dbStatus = "error: " + err.Error()
		}
	}

	cacheStatus := "disabled"
	if h.cache.Enabled() {
		cacheStatus = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			cacheStatus = "error: " + err.Error()
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"service":  h.service,
		"database": dbStatus,
		"cache":    cacheStatus,
	})
}
