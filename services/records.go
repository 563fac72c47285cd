package services

// ─── Normalized records ───────────────────────────────────────────────────────
//
// Every adapter maps its provider payload into one of these. SourceID names
// the provider ("unsplash", "geoapify", ...) or "synthetic" for fallback data.

type Image struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	ThumbURL    string `json:"thumbnail_url,omitempty"`
	Description string `json:"description,omitempty"`
	Attribution string `json:"attribution,omitempty"`
	AuthorURL   string `json:"author_url,omitempty"`
	PageURL     string `json:"page_url,omitempty"`
	SourceID    string `json:"source"`
}

func (i Image) Primary() string { return i.URL }
func (i Image) Source() string  { return i.SourceID }

type Place struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Address        string  `json:"address,omitempty"`
	Category       string  `json:"category,omitempty"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	DistanceMeters float64 `json:"distance_m,omitempty"`
	Rating         float64 `json:"rating,omitempty"`
	SourceID       string  `json:"source"`
}

func (p Place) Primary() string { return p.Name }
func (p Place) Source() string  { return p.SourceID }

type BusTrip struct {
	ID             string  `json:"id"`
	Operator       string  `json:"operator"`
	BusType        string  `json:"bus_type,omitempty"`
	From           string  `json:"from"`
	To             string  `json:"to"`
	DepartureTime  string  `json:"departure_time,omitempty"`
	ArrivalTime    string  `json:"arrival_time,omitempty"`
	Duration       string  `json:"duration,omitempty"`
	Price          float64 `json:"price"`
	Currency       string  `json:"currency,omitempty"`
	SeatsAvailable int     `json:"seats_available,omitempty"`
	Rating         float64 `json:"rating,omitempty"`
	BookingLink    string  `json:"booking_link,omitempty"`
	SourceID       string  `json:"source"`
}

func (b BusTrip) Primary() string { return b.Operator }
func (b BusTrip) Source() string  { return b.SourceID }

type Activity struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price,omitempty"`
	Currency    string  `json:"currency,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	Duration    string  `json:"duration,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	BookingLink string  `json:"booking_link,omitempty"`
	SourceID    string  `json:"source"`
}

func (a Activity) Primary() string { return a.Title }
func (a Activity) Source() string  { return a.SourceID }
