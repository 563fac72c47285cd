package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"tripease/config"
)

var (
	ErrAINotConfigured = errors.New("huggingface API key not configured")
	ErrModelLoading    = errors.New("AI model is loading, please retry in a few seconds")
	ErrEmptyAIResponse = errors.New("empty response from AI")
)

// ItineraryInput is what the AI flow sees about a trip.
type ItineraryInput struct {
	Destination  string
	Days         int
	Travelers    int
	Activities   []Activity
	IsFallback   bool
	TravelerName string
}

type ItineraryOutput struct {
	Text  string
	Model string
}

// ItineraryFlow turns trip facts into day-by-day itinerary text. Failures are
// expected; callers substitute deterministic text.
type ItineraryFlow interface {
	Invoke(ctx context.Context, in ItineraryInput) (*ItineraryOutput, error)
}

type HuggingFaceFlow struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewHuggingFaceFlow(cfg config.AIConfig, client *http.Client) *HuggingFaceFlow {
	return &HuggingFaceFlow{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: client,
	}
}

func (c *HuggingFaceFlow) Configured() bool { return c.apiKey != "" }

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfResponse []struct {
	GeneratedText string `json:"generated_text"`
}

func (c *HuggingFaceFlow) Invoke(ctx context.Context, in ItineraryInput) (*ItineraryOutput, error) {
	if c.apiKey == "" {
		return nil, ErrAINotConfigured
	}

	reqBody := hfRequest{
		Inputs: buildItineraryPrompt(in),
		Parameters: hfParameters{
			MaxNewTokens:   600,
			Temperature:    0.6,
			ReturnFullText: false,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/models/%s", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("huggingface request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read AI response: %w", err)
	}

	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, ErrModelLoading
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HuggingFace API error (%d): %s", resp.StatusCode, snippet(body))
	}

	var hfResp hfResponse
	if err := json.Unmarshal(body, &hfResp); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	if len(hfResp) == 0 || strings.TrimSpace(hfResp[0].GeneratedText) == "" {
		return nil, ErrEmptyAIResponse
	}

	return &ItineraryOutput{Text: strings.TrimSpace(hfResp[0].GeneratedText), Model: c.model}, nil
}

func buildItineraryPrompt(in ItineraryInput) string {
	dataNote := ""
	if in.IsFallback {
		dataNote = " Note: activity data is illustrative, live availability was not reachable."
	}

	var b strings.Builder
	fmt.Fprintf(&b, `[INST] You are a helpful travel assistant. Plan a realistic day-by-day itinerary.

Trip: %s | %d day(s) | %d traveler(s)%s

Bookable activities:
`, in.Destination, in.Days, in.Travelers, dataNote)

	for i, a := range in.Activities {
		if i >= 8 {
			break
		}
		line := fmt.Sprintf("  %d. %s", i+1, a.Title)
		if a.Price > 0 {
			line += fmt.Sprintf(" - %.0f %s", a.Price, currencyOrUSD(a.Currency))
		}
		if a.Duration != "" {
			line += " (" + a.Duration + ")"
		}
		b.WriteString(line + "\n")
	}

	b.WriteString(`
Write one short paragraph per day headed "Day N:". Use the activities above where they fit, add free time and local food. Be direct. [/INST]`)

	return b.String()
}

func currencyOrUSD(c string) string {
	if c == "" {
		return "USD"
	}
	return c
}
