package services

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"tripease/aggregator"
	"tripease/config"
)

// activityRadiusKM is how far from the city centre Amadeus searches for tours.
const activityRadiusKM = 20

// ─── Amadeus Client ───────────────────────────────────────────────────────────

// AmadeusAdapter serves activity bookings from Amadeus Tours & Activities. The
// OAuth2 token is shared by every call on the same adapter.
type AmadeusAdapter struct {
	clientID     string
	clientSecret string
	baseURL      string
	accessToken  string
	tokenExpiry  time.Time
	mu           sync.Mutex
	httpClient   *http.Client
}

func NewAmadeusAdapter(cfg config.AmadeusConfig, client *http.Client) *AmadeusAdapter {
	return &AmadeusAdapter{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		baseURL:      cfg.BaseURL,
		httpClient:   client,
	}
}

func (c *AmadeusAdapter) Name() string { return "amadeus" }

// ─── OAuth2 Token ─────────────────────────────────────────────────────────────

func (c *AmadeusAdapter) refreshToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequest(http.MethodPost,
		c.baseURL+"/v1/security/oauth2/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", aggregator.NewAdapterError(c.Name(), aggregator.ReasonTransport, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := doJSON(ctx, c.httpClient, c.Name(), req, &result); err != nil {
		return "", err
	}
	if result.AccessToken == "" {
		return "", aggregator.NewAdapterError(c.Name(), aggregator.ReasonMalformed,
			errors.New("token response without access_token"))
	}

	c.mu.Lock()
	c.accessToken = result.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(result.ExpiresIn-30) * time.Second)
	c.mu.Unlock()

	return result.AccessToken, nil
}

func (c *AmadeusAdapter) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	expired := time.Now().After(c.tokenExpiry)
	token := c.accessToken
	c.mu.Unlock()

	if expired || token == "" {
		return c.refreshToken(ctx)
	}
	return token, nil
}

func (c *AmadeusAdapter) get(ctx context.Context, path string, params url.Values, dst interface{}) error {
	token, err := c.getToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return aggregator.NewAdapterError(c.Name(), aggregator.ReasonTransport, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	return doJSON(ctx, c.httpClient, c.Name(), req, dst)
}

// ─── City lookup ──────────────────────────────────────────────────────────────

type amadeusCityResponse struct {
	Data []struct {
		Name    string `json:"name"`
		GeoCode struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"geoCode"`
	} `json:"data"`
}

// geocodeCity resolves a destination name to coordinates. ok is false when
// Amadeus does not know the city.
func (c *AmadeusAdapter) geocodeCity(ctx context.Context, name string) (lat, lon float64, ok bool, err error) {
	params := url.Values{}
	params.Set("keyword", name)
	params.Set("max", "1")

	var resp amadeusCityResponse
	if err := c.get(ctx, "/v1/reference-data/locations/cities", params, &resp); err != nil {
		return 0, 0, false, err
	}
	if len(resp.Data) == 0 {
		return 0, 0, false, nil
	}
	geo := resp.Data[0].GeoCode
	return geo.Latitude, geo.Longitude, true, nil
}

// ─── Activity Search ──────────────────────────────────────────────────────────

type amadeusActivitiesResponse struct {
	Data []struct {
		ID               string   `json:"id"`
		Name             string   `json:"name"`
		ShortDescription string   `json:"shortDescription"`
		Rating           string   `json:"rating"`
		Pictures         []string `json:"pictures"`
		BookingLink      string   `json:"bookingLink"`
		MinimumDuration  string   `json:"minimumDuration"`
		Price            struct {
			Amount       string `json:"amount"`
			CurrencyCode string `json:"currencyCode"`
		} `json:"price"`
	} `json:"data"`
}

// Fetch geocodes q.Subject then lists bookable activities around it.
func (c *AmadeusAdapter) Fetch(ctx context.Context, q aggregator.Query) ([]Activity, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return nil, notConfigured(c.Name())
	}

	lat, lon, ok, err := c.geocodeCity(ctx, q.Subject)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []Activity{}, nil
	}

	params := url.Values{}
	params.Set("latitude", formatCoord(lat))
	params.Set("longitude", formatCoord(lon))
	params.Set("radius", strconv.Itoa(activityRadiusKM))

	var resp amadeusActivitiesResponse
	if err := c.get(ctx, "/v1/shopping/activities", params, &resp); err != nil {
		return nil, err
	}

	activities := make([]Activity, 0, min(len(resp.Data), q.Limit))
	for _, item := range resp.Data {
		if len(activities) == q.Limit {
			break
		}
		if strings.TrimSpace(item.Name) == "" {
			continue
		}
		a := Activity{
			ID:          item.ID,
			Title:       item.Name,
			Description: item.ShortDescription,
			Price:       parsePrice(item.Price.Amount),
			Currency:    item.Price.CurrencyCode,
			Rating:      parseRating(item.Rating),
			Duration:    item.MinimumDuration,
			BookingLink: item.BookingLink,
			SourceID:    c.Name(),
		}
		if strings.HasPrefix(item.MinimumDuration, "PT") {
			a.Duration = parseDuration(item.MinimumDuration)
		}
		if len(item.Pictures) > 0 {
			a.ImageURL = item.Pictures[0]
		}
		activities = append(activities, a)
	}
	if len(resp.Data) > 0 && len(activities) == 0 {
		return nil, noUsableItems(c.Name(), len(resp.Data))
	}
	return activities, nil
}

func parseRating(s string) float64 {
	if s == "" {
		return 0
	}
	r, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return clampRating(r)
}
