package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"tripease/aggregator"
	"tripease/config"
)

type ViatorAdapter struct {
	cfg        config.APIKeyConfig
	httpClient *http.Client
}

func NewViatorAdapter(cfg config.APIKeyConfig, client *http.Client) *ViatorAdapter {
	return &ViatorAdapter{cfg: cfg, httpClient: client}
}

func (a *ViatorAdapter) Name() string { return "viator" }

type viatorSearchRequest struct {
	SearchTerm  string             `json:"searchTerm"`
	SearchTypes []viatorSearchType `json:"searchTypes"`
	Currency    string             `json:"currency"`
}

type viatorSearchType struct {
	SearchType string `json:"searchType"`
	Pagination struct {
		Start int `json:"start"`
		Count int `json:"count"`
	} `json:"pagination"`
}

type viatorSearchResponse struct {
	Products struct {
		TotalCount int `json:"totalCount"`
		Results    []struct {
			ProductCode string `json:"productCode"`
			Title       string `json:"title"`
			Description string `json:"description"`
			ProductURL  string `json:"productUrl"`
			Images      []struct {
				Variants []struct {
					URL string `json:"url"`
				} `json:"variants"`
			} `json:"images"`
			Reviews struct {
				CombinedAverageRating float64 `json:"combinedAverageRating"`
			} `json:"reviews"`
			Duration struct {
				FixedDurationInMinutes int `json:"fixedDurationInMinutes"`
			} `json:"duration"`
			Pricing struct {
				Currency string `json:"currency"`
				Summary  struct {
					FromPrice float64 `json:"fromPrice"`
				} `json:"summary"`
			} `json:"pricing"`
		} `json:"results"`
	} `json:"products"`
}

func (a *ViatorAdapter) Fetch(ctx context.Context, q aggregator.Query) ([]Activity, error) {
	if !a.cfg.Configured() {
		return nil, notConfigured(a.Name())
	}

	st := viatorSearchType{SearchType: "PRODUCTS"}
	st.Pagination.Start = 1
	st.Pagination.Count = q.Limit
	body, err := json.Marshal(viatorSearchRequest{
		SearchTerm:  q.Subject,
		SearchTypes: []viatorSearchType{st},
		Currency:    "USD",
	})
	if err != nil {
		return nil, aggregator.NewAdapterError(a.Name(), aggregator.ReasonTransport, err)
	}

	req, err := http.NewRequest(http.MethodPost, a.cfg.BaseURL+"/partner/search/freetext", bytes.NewReader(body))
	if err != nil {
		return nil, aggregator.NewAdapterError(a.Name(), aggregator.ReasonTransport, err)
	}
	req.Header.Set("exp-api-key", a.cfg.APIKey)
	req.Header.Set("Accept", "application/json;version=2.0")
	req.Header.Set("Accept-Language", "en-US")
	req.Header.Set("Content-Type", "application/json")

	var resp viatorSearchResponse
	if err := doJSON(ctx, a.httpClient, a.Name(), req, &resp); err != nil {
		return nil, err
	}

	results := resp.Products.Results
	activities := make([]Activity, 0, len(results))
	for _, p := range results {
		if p.Title == "" {
			continue
		}
		act := Activity{
			ID:          p.ProductCode,
			Title:       p.Title,
			Description: p.Description,
			Price:       p.Pricing.Summary.FromPrice,
			Currency:    p.Pricing.Currency,
			Rating:      clampRating(p.Reviews.CombinedAverageRating),
			BookingLink: p.ProductURL,
			SourceID:    a.Name(),
		}
		if p.Duration.FixedDurationInMinutes > 0 {
			act.Duration = FormatDurationMinutes(p.Duration.FixedDurationInMinutes)
		}
		if len(p.Images) > 0 && len(p.Images[0].Variants) > 0 {
			// variants are ordered smallest first
			v := p.Images[0].Variants
			act.ImageURL = v[len(v)-1].URL
		}
		activities = append(activities, act)
	}
	if len(results) > 0 && len(activities) == 0 {
		return nil, noUsableItems(a.Name(), len(results))
	}
	return activities, nil
}

// ActivityAdapters returns the configured activity providers in merge order.
func ActivityAdapters(cfg config.ProvidersConfig, client *http.Client) []aggregator.Adapter[Activity] {
	var out []aggregator.Adapter[Activity]
	if cfg.Amadeus.Configured() {
		out = append(out, NewAmadeusAdapter(cfg.Amadeus, client))
	}
	if cfg.Viator.Configured() {
		out = append(out, NewViatorAdapter(cfg.Viator, client))
	}
	return out
}
