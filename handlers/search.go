package handlers

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tripease/aggregator"
)

const (
	defaultImageLimit    = 6
	defaultPlaceLimit    = 10
	defaultBusLimit      = 5
	defaultActivityLimit = 6
	defaultPlaceRadius   = 5000
	maxPlaceRadius       = 50000
)

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// Images handles GET /api/images?destination=&limit=
func (h *Handler) Images(c *gin.Context) {
	destination, err := requiredParam(c, "destination")
	if err != nil {
		h.writeError(c, err)
		return
	}
	limit, err := h.parseLimit(c, orDefault(h.limits.ImageLimit, defaultImageLimit))
	if err != nil {
		h.writeError(c, err)
		return
	}

	serve(c, h, h.images, "images", aggregator.Query{
		Kind:    aggregator.KindImage,
		Subject: destination,
		Limit:   limit,
	})
}

// Places handles GET /api/places/nearby?lat=&lon=&radius=&limit=
func (h *Handler) Places(c *gin.Context) {
	lat, err := parseCoordinate(c, "lat", 90)
	if err != nil {
		h.writeError(c, err)
		return
	}
	lon, err := parseCoordinate(c, "lon", 180)
	if err != nil {
		h.writeError(c, err)
		return
	}

	radius := orDefault(h.limits.PlaceRadius, defaultPlaceRadius)
	if raw := strings.TrimSpace(c.Query("radius")); raw != "" {
		radius, err = strconv.Atoi(raw)
		if err != nil || radius < 1 {
			h.writeError(c, invalid("radius", "must be a positive number of meters"))
			return
		}
		radius = min(radius, maxPlaceRadius)
	}

	limit, err := h.parseLimit(c, orDefault(h.limits.PlaceLimit, defaultPlaceLimit))
	if err != nil {
		h.writeError(c, err)
		return
	}

	serve(c, h, h.places, "places", aggregator.Query{
		Kind:         aggregator.KindPlace,
		Subject:      strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64),
		Limit:        limit,
		RadiusMeters: radius,
		Lat:          lat,
		Lon:          lon,
	})
}

func parseCoordinate(c *gin.Context, name string, bound float64) (float64, error) {
	raw, err := requiredParam(c, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, invalid(name, "must be a number")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalid(name, "must be a finite number")
	}
	if v < -bound || v > bound {
		return 0, invalid(name, "must be between %g and %g", -bound, bound)
	}
	return v, nil
}

// Buses handles GET /api/bookings/bus?from=&to=&date=&limit=
func (h *Handler) Buses(c *gin.Context) {
	from, err := requiredParam(c, "from")
	if err != nil {
		h.writeError(c, err)
		return
	}
	to, err := requiredParam(c, "to")
	if err != nil {
		h.writeError(c, err)
		return
	}
	date := strings.TrimSpace(c.Query("date"))
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			h.writeError(c, invalid("date", "must use the YYYY-MM-DD format"))
			return
		}
	}
	limit, err := h.parseLimit(c, orDefault(h.limits.BusLimit, defaultBusLimit))
	if err != nil {
		h.writeError(c, err)
		return
	}

	serve(c, h, h.buses, "buses", aggregator.Query{
		Kind:    aggregator.KindBus,
		Subject: to,
		Origin:  from,
		Date:    date,
		Limit:   limit,
	})
}

// Activities handles GET /api/bookings/activities?destination=&limit=
func (h *Handler) Activities(c *gin.Context) {
	destination, err := requiredParam(c, "destination")
	if err != nil {
		h.writeError(c, err)
		return
	}
	limit, err := h.parseLimit(c, orDefault(h.limits.ActivityLimit, defaultActivityLimit))
	if err != nil {
		h.writeError(c, err)
		return
	}

	serve(c, h, h.activities, "activities", aggregator.Query{
		Kind:    aggregator.KindActivity,
		Subject: destination,
		Limit:   limit,
	})
}
