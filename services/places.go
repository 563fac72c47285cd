package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tripease/aggregator"
	"tripease/config"
)

// geoapifyCategories are the POI groups shown as "nearby places".
const geoapifyCategories = "tourism.sights,tourism.attraction,entertainment.museum,leisure.park,heritage"

// ─── Geoapify Places ──────────────────────────────────────────────────────────

type GeoapifyAdapter struct {
	cfg        config.APIKeyConfig
	httpClient *http.Client
}

func NewGeoapifyAdapter(cfg config.APIKeyConfig, client *http.Client) *GeoapifyAdapter {
	return &GeoapifyAdapter{cfg: cfg, httpClient: client}
}

func (a *GeoapifyAdapter) Name() string { return "geoapify" }

type geoapifyPlacesResponse struct {
	Features []struct {
		Properties struct {
			PlaceID    string   `json:"place_id"`
			Name       string   `json:"name"`
			Formatted  string   `json:"formatted"`
			Categories []string `json:"categories"`
			Lat        float64  `json:"lat"`
			Lon        float64  `json:"lon"`
			Distance   float64  `json:"distance"`
		} `json:"properties"`
	} `json:"features"`
}

func (a *GeoapifyAdapter) Fetch(ctx context.Context, q aggregator.Query) ([]Place, error) {
	if !a.cfg.Configured() {
		return nil, notConfigured(a.Name())
	}

	lon := formatCoord(q.Lon)
	lat := formatCoord(q.Lat)

	params := url.Values{}
	params.Set("categories", geoapifyCategories)
	params.Set("filter", fmt.Sprintf("circle:%s,%s,%d", lon, lat, q.RadiusMeters))
	params.Set("bias", fmt.Sprintf("proximity:%s,%s", lon, lat))
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("apiKey", a.cfg.APIKey)

	req, err := http.NewRequest(http.MethodGet, a.cfg.BaseURL+"/v2/places?"+params.Encode(), nil)
	if err != nil {
		return nil, aggregator.NewAdapterError(a.Name(), aggregator.ReasonTransport, err)
	}

	var resp geoapifyPlacesResponse
	if err := doJSON(ctx, a.httpClient, a.Name(), req, &resp); err != nil {
		return nil, err
	}

	places := make([]Place, 0, len(resp.Features))
	for _, f := range resp.Features {
		p := f.Properties
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		category := ""
		if len(p.Categories) > 0 {
			category = p.Categories[0]
		}
		places = append(places, Place{
			ID:             p.PlaceID,
			Name:           p.Name,
			Address:        p.Formatted,
			Category:       category,
			Latitude:       p.Lat,
			Longitude:      p.Lon,
			DistanceMeters: p.Distance,
			SourceID:       a.Name(),
		})
	}
	if len(resp.Features) > 0 && len(places) == 0 {
		return nil, noUsableItems(a.Name(), len(resp.Features))
	}
	return places, nil
}

// ─── OpenTripMap ──────────────────────────────────────────────────────────────

type OpenTripMapAdapter struct {
	cfg        config.APIKeyConfig
	httpClient *http.Client
}

func NewOpenTripMapAdapter(cfg config.APIKeyConfig, client *http.Client) *OpenTripMapAdapter {
	return &OpenTripMapAdapter{cfg: cfg, httpClient: client}
}

func (a *OpenTripMapAdapter) Name() string { return "opentripmap" }

// format=json returns a bare array instead of GeoJSON.
type openTripMapPlace struct {
	XID   string  `json:"xid"`
	Name  string  `json:"name"`
	Dist  float64 `json:"dist"`
	Rate  int     `json:"rate"`
	Kinds string  `json:"kinds"`
	Point struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	} `json:"point"`
}

func (a *OpenTripMapAdapter) Fetch(ctx context.Context, q aggregator.Query) ([]Place, error) {
	if !a.cfg.Configured() {
		return nil, notConfigured(a.Name())
	}

	params := url.Values{}
	params.Set("radius", strconv.Itoa(q.RadiusMeters))
	params.Set("lon", formatCoord(q.Lon))
	params.Set("lat", formatCoord(q.Lat))
	params.Set("rate", "2")
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("apikey", a.cfg.APIKey)

	req, err := http.NewRequest(http.MethodGet, a.cfg.BaseURL+"/0.1/en/places/radius?"+params.Encode(), nil)
	if err != nil {
		return nil, aggregator.NewAdapterError(a.Name(), aggregator.ReasonTransport, err)
	}

	var resp []openTripMapPlace
	if err := doJSON(ctx, a.httpClient, a.Name(), req, &resp); err != nil {
		return nil, err
	}

	places := make([]Place, 0, len(resp))
	for _, p := range resp {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		category := p.Kinds
		if i := strings.Index(category, ","); i >= 0 {
			category = category[:i]
		}
		// rate is 1-3, or 7 for heritage sites; scale onto 5 stars
		rating := clampRating(float64(p.Rate%4) * 5 / 3)
		places = append(places, Place{
			ID:             p.XID,
			Name:           p.Name,
			Category:       category,
			Latitude:       p.Point.Lat,
			Longitude:      p.Point.Lon,
			DistanceMeters: p.Dist,
			Rating:         rating,
			SourceID:       a.Name(),
		})
	}
	if len(resp) > 0 && len(places) == 0 {
		return nil, noUsableItems(a.Name(), len(resp))
	}
	return places, nil
}

// PlaceAdapters returns the configured places providers in merge order.
func PlaceAdapters(cfg config.ProvidersConfig, client *http.Client) []aggregator.Adapter[Place] {
	var out []aggregator.Adapter[Place]
	if cfg.Geoapify.Configured() {
		out = append(out, NewGeoapifyAdapter(cfg.Geoapify, client))
	}
	if cfg.OpenTripMap.Configured() {
		out = append(out, NewOpenTripMapAdapter(cfg.OpenTripMap, client))
	}
	return out
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
