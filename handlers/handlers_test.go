package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripease/aggregator"
	"tripease/cache"
	"tripease/config"
	"tripease/database"
	"tripease/fallback"
	"tripease/logger"
	"tripease/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ─── Fakes ───────────────────────────────────────────────────────────────────

type fakeAdapter[T aggregator.Record] struct {
	name    string
	records []T
	err     error

	mu      sync.Mutex
	queries []aggregator.Query
}

func (f *fakeAdapter[T]) Name() string { return f.name }

func (f *fakeAdapter[T]) Fetch(_ context.Context, q aggregator.Query) ([]T, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	return f.records, f.err
}

func (f *fakeAdapter[T]) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeAdapter[T]) lastQuery() aggregator.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

type emptyFallback[T aggregator.Record] struct{}

func (emptyFallback[T]) Generate(aggregator.Query) []T { return nil }

type fakeStore struct {
	mu          sync.Mutex
	searches    []*database.Search
	itineraries map[string]*database.Itinerary
	saveErr     error
	pdfUpdates  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{itineraries: make(map[string]*database.Itinerary)}
}

func (s *fakeStore) Ping(context.Context) error { return nil }

func (s *fakeStore) SaveSearch(_ context.Context, sr *database.Search) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches = append(s.searches, sr)
	return nil
}

func (s *fakeStore) SaveItinerary(_ context.Context, it *database.Itinerary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.itineraries[it.ID] = it
	return nil
}

func (s *fakeStore) GetItinerary(_ context.Context, id string) (*database.Itinerary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.itineraries[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (s *fakeStore) UpdateItineraryPDF(_ context.Context, id string, pdfData []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.itineraries[id]
	if !ok {
		return database.ErrNotFound
	}
	it.PDFData = pdfData
	s.pdfUpdates++
	return nil
}

type fakeFlow struct {
	text string
	err  error
}

func (f fakeFlow) Invoke(context.Context, services.ItineraryInput) (*services.ItineraryOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.ItineraryOutput{Text: f.text, Model: "test"}, nil
}

// ─── Setup ───────────────────────────────────────────────────────────────────

type testEnv struct {
	images     *fakeAdapter[services.Image]
	places     *fakeAdapter[services.Place]
	buses      *fakeAdapter[services.BusTrip]
	activities *fakeAdapter[services.Activity]
	deps       Deps
}

func newTestEnv(t *testing.T) *testEnv {
	log := logger.NewTestLogger(t)
	env := &testEnv{
		images:     &fakeAdapter[services.Image]{name: "unsplash"},
		places:     &fakeAdapter[services.Place]{name: "geoapify"},
		buses:      &fakeAdapter[services.BusTrip]{name: "bus-partner"},
		activities: &fakeAdapter[services.Activity]{name: "viator"},
	}
	opts := []aggregator.Option{aggregator.WithAdapterTimeout(time.Second), aggregator.WithLogger(log)}
	env.deps = Deps{
		Images: Pipeline[services.Image]{
			Aggregator: aggregator.New[services.Image](fallback.Images(), opts...),
			Adapters:   []aggregator.Adapter[services.Image]{env.images},
		},
		Places: Pipeline[services.Place]{
			Aggregator: aggregator.New[services.Place](fallback.Places(), opts...),
			Adapters:   []aggregator.Adapter[services.Place]{env.places},
		},
		Buses: Pipeline[services.BusTrip]{
			Aggregator: aggregator.New[services.BusTrip](fallback.Buses(), opts...),
			Adapters:   []aggregator.Adapter[services.BusTrip]{env.buses},
		},
		Activities: Pipeline[services.Activity]{
			Aggregator: aggregator.New[services.Activity](fallback.Activities(), opts...),
			Adapters:   []aggregator.Adapter[services.Activity]{env.activities},
		},
		Limits: config.AggregationConfig{
			MaxLimit:      20,
			ImageLimit:    6,
			PlaceLimit:    10,
			BusLimit:      5,
			ActivityLimit: 6,
			PlaceRadius:   5000,
		},
		ServiceName: "TripEase API",
		Logger:      log,
	}
	return env
}

func (e *testEnv) router() *gin.Engine {
	r := gin.New()
	New(e.deps).Register(r.Group("/api"))
	return r
}

type envelope struct {
	Success         bool                `json:"success"`
	Error           string              `json:"error"`
	Count           int                 `json:"count"`
	Source          string              `json:"source"`
	PartialFailures []string            `json:"partialFailures"`
	Images          []services.Image    `json:"images"`
	Places          []services.Place    `json:"places"`
	Buses           []services.BusTrip  `json:"buses"`
	Activities      []services.Activity `json:"activities"`
}

func doGET(t *testing.T, r http.Handler, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var env envelope
	if rec.Header().Get("Content-Type") != "application/pdf" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

// ─── Aggregation endpoints ───────────────────────────────────────────────────

func TestImages_Validation(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "missing destination", path: "/api/images", wantErr: "destination"},
		{name: "blank destination", path: "/api/images?destination=%20%20", wantErr: "destination"},
		{name: "non-numeric limit", path: "/api/images?destination=bali&limit=abc", wantErr: "limit"},
		{name: "zero limit", path: "/api/images?destination=bali&limit=0", wantErr: "limit"},
		{name: "negative limit", path: "/api/images?destination=bali&limit=-2", wantErr: "limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec, body := doGET(t, env.router(), tt.path)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, body.Success)
			assert.Contains(t, body.Error, tt.wantErr)
			assert.Zero(t, env.images.calls(), "aggregator must not run on invalid input")
		})
	}
}

func TestImages_Live(t *testing.T) {
	env := newTestEnv(t)
	env.images.records = []services.Image{
		{ID: "a", URL: "https://img/a.jpg", SourceID: "unsplash"},
		{ID: "b", URL: "https://img/b.jpg", SourceID: "unsplash"},
	}

	rec, body := doGET(t, env.router(), "/api/images?destination=Bali")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body.Success)
	assert.Equal(t, "live", body.Source)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "https://img/a.jpg", body.Images[0].URL)
	assert.Empty(t, body.PartialFailures)
	assert.NotNil(t, body.PartialFailures)
	assert.Equal(t, 6, env.images.lastQuery().Limit)
}

func TestImages_AllFailUsesFallback(t *testing.T) {
	env := newTestEnv(t)
	env.images.err = errors.New("connection refused")

	rec, body := doGET(t, env.router(), "/api/images?destination=Bali&limit=3")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fallback", body.Source)
	assert.Equal(t, 3, body.Count)
	assert.Equal(t, []string{"unsplash"}, body.PartialFailures)
	for _, img := range body.Images {
		assert.Equal(t, aggregator.SourceSynthetic, img.SourceID)
		assert.NotEmpty(t, img.URL)
	}
}

func TestImages_LimitIsClamped(t *testing.T) {
	env := newTestEnv(t)
	env.images.records = []services.Image{{URL: "https://img/a.jpg", SourceID: "unsplash"}}

	rec, _ := doGET(t, env.router(), "/api/images?destination=bali&limit=500")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, env.images.lastQuery().Limit)
}

func TestImages_FallbackExhaustedIs500(t *testing.T) {
	env := newTestEnv(t)
	env.images.err = errors.New("down")
	env.deps.Images.Aggregator = aggregator.New[services.Image](emptyFallback[services.Image]{})

	rec, body := doGET(t, env.router(), "/api/images?destination=bali")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, body.Success)
	assert.NotEmpty(t, body.Error)
}

func TestPlaces(t *testing.T) {
	t.Run("missing lon", func(t *testing.T) {
		env := newTestEnv(t)
		rec, body := doGET(t, env.router(), "/api/places/nearby?lat=48.85")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, body.Error, "lon")
		assert.Zero(t, env.places.calls())
	})

	t.Run("latitude out of range", func(t *testing.T) {
		env := newTestEnv(t)
		rec, body := doGET(t, env.router(), "/api/places/nearby?lat=95&lon=2")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, body.Error, "lat")
	})

	t.Run("non-finite coordinates", func(t *testing.T) {
		for _, path := range []string{
			"/api/places/nearby?lat=NaN&lon=10",
			"/api/places/nearby?lat=48.85&lon=Inf",
			"/api/places/nearby?lat=-Inf&lon=2.35",
		} {
			env := newTestEnv(t)
			rec, body := doGET(t, env.router(), path)
			assert.Equal(t, http.StatusBadRequest, rec.Code, path)
			assert.False(t, body.Success, path)
			assert.Contains(t, body.Error, "finite", path)
			assert.Zero(t, env.places.calls(), path)
		}
	})

	t.Run("bad radius", func(t *testing.T) {
		env := newTestEnv(t)
		rec, _ := doGET(t, env.router(), "/api/places/nearby?lat=48.85&lon=2.35&radius=-1")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("query carries coordinates", func(t *testing.T) {
		env := newTestEnv(t)
		env.places.records = []services.Place{{Name: "Louvre", SourceID: "geoapify"}}

		rec, body := doGET(t, env.router(), "/api/places/nearby?lat=48.8566&lon=2.3522&radius=2000")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Louvre", body.Places[0].Name)
		q := env.places.lastQuery()
		assert.Equal(t, aggregator.KindPlace, q.Kind)
		assert.Equal(t, "48.8566,2.3522", q.Subject)
		assert.InDelta(t, 48.8566, q.Lat, 1e-9)
		assert.InDelta(t, 2.3522, q.Lon, 1e-9)
		assert.Equal(t, 2000, q.RadiusMeters)
		assert.Equal(t, 10, q.Limit)
	})

	t.Run("fallback near a known city", func(t *testing.T) {
		env := newTestEnv(t)
		env.places.err = errors.New("timeout")

		rec, body := doGET(t, env.router(), "/api/places/nearby?lat=48.8566&lon=2.3522&limit=2")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "fallback", body.Source)
		assert.Len(t, body.Places, 2)
		assert.Equal(t, "Eiffel Tower", body.Places[0].Name)
	})
}

func TestBuses(t *testing.T) {
	t.Run("missing from", func(t *testing.T) {
		env := newTestEnv(t)
		rec, body := doGET(t, env.router(), "/api/bookings/bus?to=Paris")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, body.Error, "from")
		assert.Zero(t, env.buses.calls())
	})

	t.Run("bad date", func(t *testing.T) {
		env := newTestEnv(t)
		rec, body := doGET(t, env.router(), "/api/bookings/bus?from=London&to=Paris&date=01/06/2026")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, body.Error, "date")
	})

	t.Run("query carries origin and date", func(t *testing.T) {
		env := newTestEnv(t)
		env.buses.records = []services.BusTrip{{Operator: "FlixBus", SourceID: "bus-partner"}}

		rec, body := doGET(t, env.router(), "/api/bookings/bus?from=London&to=Paris&date=2026-06-01")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "FlixBus", body.Buses[0].Operator)
		q := env.buses.lastQuery()
		assert.Equal(t, "Paris", q.Subject)
		assert.Equal(t, "London", q.Origin)
		assert.Equal(t, "2026-06-01", q.Date)
		assert.Equal(t, 5, q.Limit)
	})
}

func TestActivities_FallbackForUnknownDestination(t *testing.T) {
	env := newTestEnv(t)
	env.activities.err = aggregator.NewAdapterError("viator", aggregator.ReasonStatus, errors.New("502"))

	rec, body := doGET(t, env.router(), "/api/bookings/activities?destination=Atlantis")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fallback", body.Source)
	assert.Equal(t, fallback.Activities().Lookup(fallback.DefaultKey), body.Activities)
	assert.Equal(t, []string{"viator"}, body.PartialFailures)
}

func TestSearchAudit(t *testing.T) {
	env := newTestEnv(t)
	store := newFakeStore()
	env.deps.Store = store
	env.images.err = errors.New("down")

	rec, _ := doGET(t, env.router(), "/api/images?destination=Bali&limit=3")
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, store.searches, 1)
	s := store.searches[0]
	assert.Equal(t, "image", s.Kind)
	assert.Equal(t, "Bali", s.Subject)
	assert.Equal(t, 3, s.ResultCount)
	assert.True(t, s.UsedFallback)
	assert.Equal(t, []string{"unsplash"}, s.PartialFailures)
}

func TestCache_SecondRequestSkipsProviders(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	env := newTestEnv(t)
	store := newFakeStore()
	env.deps.Store = store
	env.deps.Cache = cache.New(client, time.Minute, logger.NewTestLogger(t))
	env.activities.records = []services.Activity{{Title: "Surf lesson", SourceID: "viator"}}
	r := env.router()

	_, first := doGET(t, r, "/api/bookings/activities?destination=Bali")
	_, second := doGET(t, r, "/api/bookings/activities?destination=bali")

	assert.Equal(t, 1, env.activities.calls())
	assert.Equal(t, first.Activities, second.Activities)
	assert.Equal(t, "live", second.Source)
	require.Len(t, store.searches, 2)
	assert.False(t, store.searches[0].Cached)
	assert.True(t, store.searches[1].Cached)
}

// ─── Itinerary ───────────────────────────────────────────────────────────────

func postItinerary(t *testing.T, r http.Handler, body interface{}) (*httptest.ResponseRecorder, ItineraryResponse, envelope) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/itinerary", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	var resp ItineraryResponse
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, resp, env
}

func TestGenerateItinerary_Validation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]interface{}
		want string
	}{
		{name: "missing destination", body: map[string]interface{}{"days": 3}, want: "destination"},
		{name: "zero days", body: map[string]interface{}{"destination": "Bali"}, want: "days"},
		{name: "too many days", body: map[string]interface{}{"destination": "Bali", "days": 30}, want: "days"},
		{name: "negative travelers", body: map[string]interface{}{"destination": "Bali", "days": 2, "travelers": -1}, want: "travelers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec, _, body := postItinerary(t, env.router(), tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, body.Error, tt.want)
			assert.Zero(t, env.activities.calls())
			assert.Zero(t, env.images.calls())
		})
	}
}

func TestGenerateItinerary_UsesAIText(t *testing.T) {
	env := newTestEnv(t)
	store := newFakeStore()
	env.deps.Store = store
	env.deps.Flow = fakeFlow{text: "Day 1: temples.\nDay 2: beaches."}
	env.activities.records = []services.Activity{{Title: "Temple tour", Price: 30, SourceID: "viator"}}
	env.images.records = []services.Image{{URL: "https://img/bali.jpg", SourceID: "unsplash"}}

	rec, resp, _ := postItinerary(t, env.router(), map[string]interface{}{
		"destination": "Bali", "days": 2, "travelers": 2, "travelerName": "Sam",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "live", resp.Source)
	assert.Equal(t, "Day 1: temples.\nDay 2: beaches.", resp.Itinerary)
	assert.Len(t, resp.Activities, 1)
	assert.Len(t, resp.Images, 1)
	assert.Equal(t, "/api/itinerary/"+resp.ItineraryID+"/pdf", resp.PDFURL)

	saved, err := store.GetItinerary(context.Background(), resp.ItineraryID)
	require.NoError(t, err)
	assert.Equal(t, "Sam", saved.TravelerName)
	assert.Equal(t, 2, saved.Travelers)
	assert.True(t, bytes.HasPrefix(saved.PDFData, []byte("%PDF")))
	assert.Contains(t, saved.ActivitiesJSON, "Temple tour")
}

func TestGenerateItinerary_FlowFailureUsesFallbackText(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Flow = fakeFlow{err: services.ErrModelLoading}
	env.activities.err = errors.New("down")
	env.images.err = errors.New("down")

	rec, resp, _ := postItinerary(t, env.router(), map[string]interface{}{
		"destination": "Bali", "days": 3,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fallback", resp.Source)
	assert.Contains(t, resp.Itinerary, "3-day plan for Bali (1 traveler)")
	assert.Contains(t, resp.Itinerary, "Day 1: Arrive in Bali")
	assert.NotEmpty(t, resp.Activities)
	assert.NotEmpty(t, resp.Images)
	assert.Empty(t, resp.PDFURL, "no store, no PDF link")
}

func TestGenerateItinerary_SaveFailureStillAnswers(t *testing.T) {
	env := newTestEnv(t)
	store := newFakeStore()
	store.saveErr = errors.New("disk full")
	env.deps.Store = store

	rec, resp, _ := postItinerary(t, env.router(), map[string]interface{}{
		"destination": "Paris", "days": 1,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, resp.Itinerary)
	assert.Empty(t, resp.PDFURL)
}

// ─── PDF download and health ─────────────────────────────────────────────────

func TestDownloadPDF(t *testing.T) {
	t.Run("storage disabled", func(t *testing.T) {
		env := newTestEnv(t)
		rec, _ := doGET(t, env.router(), "/api/itinerary/abc/pdf")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		env := newTestEnv(t)
		env.deps.Store = newFakeStore()
		rec, _ := doGET(t, env.router(), "/api/itinerary/missing/pdf")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("stored bytes", func(t *testing.T) {
		env := newTestEnv(t)
		store := newFakeStore()
		store.itineraries["it-1"] = &database.Itinerary{ID: "it-1", PDFData: []byte("%PDF-1.3 stored")}
		env.deps.Store = store

		rec, _ := doGET(t, env.router(), "/api/itinerary/it-1/pdf")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
		assert.Equal(t, "%PDF-1.3 stored", rec.Body.String())
	})

	t.Run("missing bytes are rendered and saved", func(t *testing.T) {
		env := newTestEnv(t)
		store := newFakeStore()
		store.itineraries["it-2"] = &database.Itinerary{
			ID:             "it-2",
			Destination:    "Rome",
			Days:           2,
			Travelers:      1,
			Text:           "Day 1: Colosseum.",
			Source:         "fallback",
			ActivitiesJSON: `[{"title":"Colosseum tour","price":40,"currency":"EUR","source":"synthetic"}]`,
		}
		env.deps.Store = store

		rec, _ := doGET(t, env.router(), "/api/itinerary/it-2/pdf")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
		assert.Equal(t, 1, store.pdfUpdates)
	})
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "TripEase API", body["service"])
	assert.Equal(t, "disabled", body["database"])
	assert.Equal(t, "disabled", body["cache"])
}

func TestHealth_WithStore(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Store = newFakeStore()
	rec := httptest.NewRecorder()
	env.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["database"])
}
