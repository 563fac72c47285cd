package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tripease/aggregator"
)

// maxBodyBytes caps how much of a provider response is read.
const maxBodyBytes = 4 << 20

// NewHTTPClient returns the client shared by adapters. Per-call deadlines come
// from the aggregator's context; this timeout is only a backstop.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// doJSON sends req and decodes a 2xx JSON body into dst. Every failure comes
// back as an *aggregator.AdapterError attributed to provider.
func doJSON(ctx context.Context, client *http.Client, provider string, req *http.Request, dst interface{}) error {
	req = req.WithContext(ctx)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return aggregator.NewAdapterError(provider, aggregator.ReasonTransport, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return aggregator.NewAdapterError(provider, aggregator.ReasonTransport, fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return aggregator.NewAdapterError(provider, aggregator.ReasonStatus,
			fmt.Errorf("%s error (%d): %s", provider, resp.StatusCode, snippet(body)))
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return aggregator.NewAdapterError(provider, aggregator.ReasonMalformed, errors.New("empty response body"))
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return aggregator.NewAdapterError(provider, aggregator.ReasonMalformed, fmt.Errorf("failed to parse response: %w", err))
	}
	return nil
}

func notConfigured(provider string) error {
	return aggregator.NewAdapterError(provider, aggregator.ReasonNotConfigured, aggregator.ErrNotConfigured)
}

// noUsableItems is returned when a provider sent items but none could be
// normalized; an empty-but-valid answer is not an error.
func noUsableItems(provider string, got int) error {
	return aggregator.NewAdapterError(provider, aggregator.ReasonMalformed,
		fmt.Errorf("%d items returned, none usable", got))
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func parsePrice(s string) float64 {
	price, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return price
}

// parseDuration converts ISO 8601 duration (PT5H30M) to human readable (5h 30m)
func parseDuration(iso string) string {
	if iso == "" {
		return ""
	}
	iso = strings.TrimPrefix(iso, "PT")
	result := ""
	if hIdx := strings.Index(iso, "H"); hIdx >= 0 {
		result += iso[:hIdx] + "h"
		iso = iso[hIdx+1:]
	}
	if mIdx := strings.Index(iso, "M"); mIdx >= 0 {
		if result != "" {
			result += " "
		}
		result += iso[:mIdx] + "m"
	}
	return result
}

// FormatDurationMinutes renders a minute count as "9h" or "9h 5m".
func FormatDurationMinutes(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	if m > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dh", h)
}

func clampRating(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 5 {
		return 5
	}
	return r
}
