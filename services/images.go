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

// ─── Unsplash ─────────────────────────────────────────────────────────────────

type UnsplashAdapter struct {
	cfg        config.APIKeyConfig
	httpClient *http.Client
}

func NewUnsplashAdapter(cfg config.APIKeyConfig, client *http.Client) *UnsplashAdapter {
	return &UnsplashAdapter{cfg: cfg, httpClient: client}
}

func (a *UnsplashAdapter) Name() string { return "unsplash" }

type unsplashSearchResponse struct {
	Results []struct {
		ID             string `json:"id"`
		Description    string `json:"description"`
		AltDescription string `json:"alt_description"`
		URLs           struct {
			Regular string `json:"regular"`
			Small   string `json:"small"`
		} `json:"urls"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
		User struct {
			Name  string `json:"name"`
			Links struct {
				HTML string `json:"html"`
			} `json:"links"`
		} `json:"user"`
	} `json:"results"`
}

func (a *UnsplashAdapter) Fetch(ctx context.Context, q aggregator.Query) ([]Image, error) {
	if !a.cfg.Configured() {
		return nil, notConfigured(a.Name())
	}

	params := url.Values{}
	params.Set("query", q.Subject)
	params.Set("per_page", strconv.Itoa(q.Limit))
	params.Set("orientation", "landscape")

	req, err := http.NewRequest(http.MethodGet, a.cfg.BaseURL+"/search/photos?"+params.Encode(), nil)
	if err != nil {
		return nil, aggregator.NewAdapterError(a.Name(), aggregator.ReasonTransport, err)
	}
	req.Header.Set("Authorization", "Client-ID "+a.cfg.APIKey)
	req.Header.Set("Accept-Version", "v1")

	var resp unsplashSearchResponse
	if err := doJSON(ctx, a.httpClient, a.Name(), req, &resp); err != nil {
		return nil, err
	}

	images := make([]Image, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.URLs.Regular == "" {
			continue
		}
		desc := r.Description
		if desc == "" {
			desc = r.AltDescription
		}
		images = append(images, Image{
			ID:          r.ID,
			URL:         r.URLs.Regular,
			ThumbURL:    r.URLs.Small,
			Description: desc,
			Attribution: r.User.Name,
			AuthorURL:   r.User.Links.HTML,
			PageURL:     r.Links.HTML,
			SourceID:    a.Name(),
		})
	}
	if len(resp.Results) > 0 && len(images) == 0 {
		return nil, noUsableItems(a.Name(), len(resp.Results))
	}
	return images, nil
}

// ─── Pexels ───────────────────────────────────────────────────────────────────

type PexelsAdapter struct {
	cfg        config.APIKeyConfig
	httpClient *http.Client
}

func NewPexelsAdapter(cfg config.APIKeyConfig, client *http.Client) *PexelsAdapter {
	return &PexelsAdapter{cfg: cfg, httpClient: client}
}

func (a *PexelsAdapter) Name() string { return "pexels" }

type pexelsSearchResponse struct {
	Photos []struct {
		ID              int64  `json:"id"`
		URL             string `json:"url"`
		Alt             string `json:"alt"`
		Photographer    string `json:"photographer"`
		PhotographerURL string `json:"photographer_url"`
		Src             struct {
			Large  string `json:"large"`
			Medium string `json:"medium"`
		} `json:"src"`
	} `json:"photos"`
}

func (a *PexelsAdapter) Fetch(ctx context.Context, q aggregator.Query) ([]Image, error) {
	if !a.cfg.Configured() {
		return nil, notConfigured(a.Name())
	}

	params := url.Values{}
	params.Set("query", q.Subject)
	params.Set("per_page", strconv.Itoa(q.Limit))

	req, err := http.NewRequest(http.MethodGet, a.cfg.BaseURL+"/v1/search?"+params.Encode(), nil)
	if err != nil {
		return nil, aggregator.NewAdapterError(a.Name(), aggregator.ReasonTransport, err)
	}
	req.Header.Set("Authorization", a.cfg.APIKey)

	var resp pexelsSearchResponse
	if err := doJSON(ctx, a.httpClient, a.Name(), req, &resp); err != nil {
		return nil, err
	}

	images := make([]Image, 0, len(resp.Photos))
	for _, p := range resp.Photos {
		if p.Src.Large == "" {
			continue
		}
		images = append(images, Image{
			ID:          strconv.FormatInt(p.ID, 10),
			URL:         p.Src.Large,
			ThumbURL:    p.Src.Medium,
			Description: p.Alt,
			Attribution: p.Photographer,
			AuthorURL:   p.PhotographerURL,
			PageURL:     p.URL,
			SourceID:    a.Name(),
		})
	}
	if len(resp.Photos) > 0 && len(images) == 0 {
		return nil, noUsableItems(a.Name(), len(resp.Photos))
	}
	return images, nil
}

// ─── Pixabay ──────────────────────────────────────────────────────────────────

// Pixabay rejects per_page values below 3.
const pixabayMinPerPage = 3

type PixabayAdapter struct {
	cfg        config.APIKeyConfig
	httpClient *http.Client
}

func NewPixabayAdapter(cfg config.APIKeyConfig, client *http.Client) *PixabayAdapter {
	return &PixabayAdapter{cfg: cfg, httpClient: client}
}

func (a *PixabayAdapter) Name() string { return "pixabay" }

type pixabaySearchResponse struct {
	Hits []struct {
		ID            int64  `json:"id"`
		PageURL       string `json:"pageURL"`
		Tags          string `json:"tags"`
		WebformatURL  string `json:"webformatURL"`
		LargeImageURL string `json:"largeImageURL"`
		PreviewURL    string `json:"previewURL"`
		User          string `json:"user"`
	} `json:"hits"`
}

func (a *PixabayAdapter) Fetch(ctx context.Context, q aggregator.Query) ([]Image, error) {
	if !a.cfg.Configured() {
		return nil, notConfigured(a.Name())
	}

	params := url.Values{}
	params.Set("key", a.cfg.APIKey)
	params.Set("q", q.Subject)
	params.Set("image_type", "photo")
	params.Set("safesearch", "true")
	params.Set("per_page", strconv.Itoa(max(q.Limit, pixabayMinPerPage)))

	req, err := http.NewRequest(http.MethodGet, a.cfg.BaseURL+"/api/?"+params.Encode(), nil)
	if err != nil {
		return nil, aggregator.NewAdapterError(a.Name(), aggregator.ReasonTransport, err)
	}

	var resp pixabaySearchResponse
	if err := doJSON(ctx, a.httpClient, a.Name(), req, &resp); err != nil {
		return nil, err
	}

	images := make([]Image, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		src := h.LargeImageURL
		if src == "" {
			src = h.WebformatURL
		}
		if src == "" {
			continue
		}
		images = append(images, Image{
			ID:          strconv.FormatInt(h.ID, 10),
			URL:         src,
			ThumbURL:    h.PreviewURL,
			Description: strings.TrimSpace(h.Tags),
			Attribution: h.User,
			PageURL:     h.PageURL,
			SourceID:    a.Name(),
		})
	}
	if len(resp.Hits) > 0 && len(images) == 0 {
		return nil, noUsableItems(a.Name(), len(resp.Hits))
	}
	return images, nil
}

// ImageAdapters returns the configured image providers in merge order.
func ImageAdapters(cfg config.ProvidersConfig, client *http.Client) []aggregator.Adapter[Image] {
	var out []aggregator.Adapter[Image]
	if cfg.Unsplash.Configured() {
		out = append(out, NewUnsplashAdapter(cfg.Unsplash, client))
	}
	if cfg.Pexels.Configured() {
		out = append(out, NewPexelsAdapter(cfg.Pexels, client))
	}
	if cfg.Pixabay.Configured() {
		out = append(out, NewPixabayAdapter(cfg.Pixabay, client))
	}
	return out
}
