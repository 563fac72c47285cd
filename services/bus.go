package services

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tripease/aggregator"
	"tripease/config"
)

// BusAdapter talks to the partner bus inventory API. The base URL differs per
// partner deployment, so it has no default.
type BusAdapter struct {
	cfg        config.APIKeyConfig
	httpClient *http.Client
}

func NewBusAdapter(cfg config.APIKeyConfig, client *http.Client) *BusAdapter {
	return &BusAdapter{cfg: cfg, httpClient: client}
}

func (a *BusAdapter) Name() string { return "bus-partner" }

type busTripsResponse struct {
	Trips []struct {
		ID              string  `json:"id"`
		Operator        string  `json:"operator"`
		BusType         string  `json:"busType"`
		From            string  `json:"from"`
		To              string  `json:"to"`
		DepartureTime   string  `json:"departureTime"`
		ArrivalTime     string  `json:"arrivalTime"`
		DurationMinutes int     `json:"durationMinutes"`
		SeatsAvailable  int     `json:"seatsAvailable"`
		Rating          float64 `json:"rating"`
		BookingURL      string  `json:"bookingUrl"`
		Price           struct {
			Amount   string `json:"amount"`
			Currency string `json:"currency"`
		} `json:"price"`
	} `json:"trips"`
}

func (a *BusAdapter) Fetch(ctx context.Context, q aggregator.Query) ([]BusTrip, error) {
	if !a.cfg.Configured() || a.cfg.BaseURL == "" {
		return nil, notConfigured(a.Name())
	}

	params := url.Values{}
	params.Set("from", q.Origin)
	params.Set("to", q.Subject)
	if q.Date != "" {
		params.Set("date", q.Date)
	}
	params.Set("limit", strconv.Itoa(q.Limit))

	endpoint := strings.TrimRight(a.cfg.BaseURL, "/") + "/v1/trips?" + params.Encode()
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, aggregator.NewAdapterError(a.Name(), aggregator.ReasonTransport, err)
	}
	req.Header.Set("X-API-Key", a.cfg.APIKey)

	var resp busTripsResponse
	if err := doJSON(ctx, a.httpClient, a.Name(), req, &resp); err != nil {
		return nil, err
	}

	trips := make([]BusTrip, 0, len(resp.Trips))
	for _, t := range resp.Trips {
		if strings.TrimSpace(t.Operator) == "" {
			continue
		}
		from, to := t.From, t.To
		if from == "" {
			from = q.Origin
		}
		if to == "" {
			to = q.Subject
		}
		trip := BusTrip{
			ID:             t.ID,
			Operator:       t.Operator,
			BusType:        t.BusType,
			From:           from,
			To:             to,
			DepartureTime:  t.DepartureTime,
			ArrivalTime:    t.ArrivalTime,
			Price:          parsePrice(t.Price.Amount),
			Currency:       t.Price.Currency,
			SeatsAvailable: t.SeatsAvailable,
			Rating:         clampRating(t.Rating),
			BookingLink:    t.BookingURL,
			SourceID:       a.Name(),
		}
		if t.DurationMinutes > 0 {
			trip.Duration = FormatDurationMinutes(t.DurationMinutes)
		}
		trips = append(trips, trip)
	}
	if len(resp.Trips) > 0 && len(trips) == 0 {
		return nil, noUsableItems(a.Name(), len(resp.Trips))
	}
	return trips, nil
}

// BusAdapters returns the configured bus providers.
func BusAdapters(cfg config.ProvidersConfig, client *http.Client) []aggregator.Adapter[BusTrip] {
	var out []aggregator.Adapter[BusTrip]
	if cfg.Bus.Configured() && cfg.Bus.BaseURL != "" {
		out = append(out, NewBusAdapter(cfg.Bus, client))
	}
	return out
}
