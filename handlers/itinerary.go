package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tripease/aggregator"
	"tripease/database"
	"tripease/fallback"
	"tripease/middleware"
	"tripease/services"
)

const (
	maxTripDays      = 14
	maxTripTravelers = 20
)

type ItineraryRequest struct {
	Destination  string `json:"destination"`
	Days         int    `json:"days"`
	Travelers    int    `json:"travelers"`
	TravelerName string `json:"travelerName"`
}

func (r *ItineraryRequest) normalize() error {
	r.Destination = strings.TrimSpace(r.Destination)
	r.TravelerName = strings.TrimSpace(r.TravelerName)
	if r.Destination == "" {
		return invalid("destination", "is required")
	}
	if r.Days < 1 || r.Days > maxTripDays {
		return invalid("days", "must be between 1 and %d", maxTripDays)
	}
	if r.Travelers == 0 {
		r.Travelers = 1
	}
	if r.Travelers < 1 || r.Travelers > maxTripTravelers {
		return invalid("travelers", "must be between 1 and %d", maxTripTravelers)
	}
	return nil
}

type ItineraryResponse struct {
	Success     bool                `json:"success"`
	ItineraryID string              `json:"itineraryId"`
	Itinerary   string              `json:"itinerary"`
	Activities  []services.Activity `json:"activities"`
	Images      []services.Image    `json:"images"`
	Source      string              `json:"source"`
	PDFURL      string              `json:"pdfUrl,omitempty"`
}

// GenerateItinerary handles POST /api/itinerary. Activities and images are
// aggregated side by side; the AI text falls back to a deterministic plan.
func (h *Handler) GenerateItinerary(c *gin.Context) {
	var req ItineraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := req.normalize(); err != nil {
		h.writeError(c, err)
		return
	}
	ctx := c.Request.Context()

	var (
		acts aggregator.Outcome[services.Activity]
		imgs aggregator.Outcome[services.Image]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		acts, err = aggregate(gctx, h, h.activities, aggregator.Query{
			Kind:    aggregator.KindActivity,
			Subject: req.Destination,
			Limit:   orDefault(h.limits.ActivityLimit, defaultActivityLimit),
		})
		return err
	})
	g.Go(func() error {
		var err error
		imgs, err = aggregate(gctx, h, h.images, aggregator.Query{
			Kind:    aggregator.KindImage,
			Subject: req.Destination,
			Limit:   orDefault(h.limits.ImageLimit, defaultImageLimit),
		})
		return err
	})
	if err := g.Wait(); err != nil {
		h.writeError(c, err)
		return
	}

	input := services.ItineraryInput{
		Destination:  req.Destination,
		Days:         req.Days,
		Travelers:    req.Travelers,
		Activities:   acts.Records,
		IsFallback:   acts.UsedFallback,
		TravelerName: req.TravelerName,
	}
	text, aiUsed := h.itineraryText(ctx, input, middleware.RequestID(c))

	source := "live"
	if !aiUsed || acts.UsedFallback {
		source = "fallback"
	}

	id := uuid.New().String()
	resp := ItineraryResponse{
		Success:     true,
		ItineraryID: id,
		Itinerary:   text,
		Activities:  acts.Records,
		Images:      imgs.Records,
		Source:      source,
	}

	if h.store != nil {
		record := &database.Itinerary{
			ID:           id,
			Destination:  req.Destination,
			Days:         req.Days,
			Travelers:    req.Travelers,
			TravelerName: req.TravelerName,
			Text:         text,
			Source:       source,
		}
		if b, err := json.Marshal(acts.Records); err == nil {
			record.ActivitiesJSON = string(b)
		}
		if b, err := json.Marshal(imgs.Records); err == nil {
			record.ImagesJSON = string(b)
		}
		record.PDFData = h.renderPDF(record, acts.Records, imgs.Records)

		if err := h.store.SaveItinerary(ctx, record); err != nil {
			h.log.WithError(err).Error("Failed to save itinerary", map[string]interface{}{
				"request_id":   middleware.RequestID(c),
				"itinerary_id": id,
			})
		} else {
			resp.PDFURL = "/api/itinerary/" + id + "/pdf"
		}
	}

	c.JSON(http.StatusOK, resp)
}

// itineraryText asks the AI flow first. It reports whether the flow's text
// was used.
func (h *Handler) itineraryText(ctx context.Context, in services.ItineraryInput, requestID string) (string, bool) {
	if h.flow != nil {
		out, err := h.flow.Invoke(ctx, in)
		if err == nil && out != nil && strings.TrimSpace(out.Text) != "" {
			return out.Text, true
		}
		fields := map[string]interface{}{
			"request_id":  requestID,
			"destination": in.Destination,
		}
		if err != nil {
			fields["error"] = err.Error()
		}
		h.log.Warn("AI itinerary unavailable, using fallback text", fields)
	}
	return fallback.Itinerary(in), false
}

// renderPDF returns nil when rendering fails; the download endpoint retries.
func (h *Handler) renderPDF(it *database.Itinerary, acts []services.Activity, imgs []services.Image) []byte {
	data, err := services.GeneratePDFBytes(services.PDFData{
		TravelerName: it.TravelerName,
		Destination:  it.Destination,
		Days:         it.Days,
		Travelers:    it.Travelers,
		Itinerary:    it.Text,
		Activities:   acts,
		Images:       imgs,
		GeneratedAt:  time.Now().UTC(),
		IsEstimated:  it.Source == "fallback",
	})
	if err != nil {
		h.log.WithError(err).Error("PDF generation failed", map[string]interface{}{
			"itinerary_id": it.ID,
		})
		return nil
	}
	return data
}
