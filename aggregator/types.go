// Package aggregator fans a normalized query out to several independent
// providers, merges whatever succeeds in a fixed order and falls back to
// synthetic data when nothing usable comes back.
package aggregator

import (
	"context"
	"errors"
	"strings"
)

// Kind is the category of data a query asks for.
type Kind string

const (
	KindImage    Kind = "image"
	KindPlace    Kind = "place"
	KindBus      Kind = "bus-booking"
	KindActivity Kind = "activity-booking"
)

// SourceSynthetic marks records produced by a fallback generator.
const SourceSynthetic = "synthetic"

// Query is a normalized, immutable request for external data.
type Query struct {
	Kind    Kind
	Subject string // destination name, or "lat,lon" for places
	Limit   int

	// Optional refinements read only by adapters that understand them.
	Origin       string // bus departure city
	Date         string // YYYY-MM-DD, bus travel date
	RadiusMeters int    // places search radius
	Lat, Lon     float64
}

// Validate checks the adapter input constraints.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Subject) == "" {
		return errors.New("query subject is empty")
	}
	if q.Limit < 1 {
		return errors.New("query limit must be at least 1")
	}
	return nil
}

// Record is a normalized provider result. Primary is the display field a
// consumer cannot render without (image URL, place name, trip title).
type Record interface {
	Primary() string
	Source() string
}

// Adapter queries one external provider.
type Adapter[T Record] interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]T, error)
}

// Fallback produces synthetic records. Implementations must be total: the
// same query always yields the same, non-empty slice.
type Fallback[T Record] interface {
	Generate(q Query) []T
}

// Outcome is the result of one Aggregate call.
type Outcome[T Record] struct {
	Records         []T
	UsedFallback    bool
	PartialFailures []string
	Failures        []*AdapterError
}
