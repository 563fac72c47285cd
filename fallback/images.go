package fallback

import (
	"fmt"

	"tripease/aggregator"
	"tripease/services"
)

// picsum seeds give stable, freely usable placeholder photos.
func placeholderImage(seed, description string) services.Image {
	return services.Image{
		ID:          "synthetic-" + seed,
		URL:         fmt.Sprintf("https://picsum.photos/seed/%s/1200/800", seed),
		ThumbURL:    fmt.Sprintf("https://picsum.photos/seed/%s/400/267", seed),
		Description: description,
		Attribution: "Lorem Picsum",
		PageURL:     "https://picsum.photos",
		SourceID:    aggregator.SourceSynthetic,
	}
}

var imageEntries = map[string][]services.Image{
	"bali": {
		placeholderImage("bali-rice-terraces", "Tegallalang rice terraces near Ubud"),
		placeholderImage("bali-uluwatu", "Uluwatu temple on the sea cliffs at sunset"),
		placeholderImage("bali-beach", "Palm-lined beach in southern Bali"),
	},
	"paris": {
		placeholderImage("paris-eiffel", "Eiffel Tower from the Trocadero"),
		placeholderImage("paris-seine", "Bridges over the Seine at dusk"),
		placeholderImage("paris-montmartre", "Sacre-Coeur above Montmartre"),
		placeholderImage("paris-louvre", "The Louvre pyramid"),
	},
	"london": {
		placeholderImage("london-tower-bridge", "Tower Bridge over the Thames"),
		placeholderImage("london-westminster", "Westminster and Big Ben"),
		placeholderImage("london-south-bank", "The South Bank at night"),
	},
	"tokyo": {
		placeholderImage("tokyo-shibuya", "Shibuya crossing at night"),
		placeholderImage("tokyo-sensoji", "Senso-ji temple in Asakusa"),
		placeholderImage("tokyo-fuji", "Mount Fuji seen from the city"),
		placeholderImage("tokyo-shinjuku", "Shinjuku skyline"),
	},
	"rome": {
		placeholderImage("rome-colosseum", "The Colosseum"),
		placeholderImage("rome-trevi", "Trevi Fountain"),
		placeholderImage("rome-vatican", "St. Peter's Square"),
	},
	"new york": {
		placeholderImage("nyc-skyline", "Manhattan skyline from Brooklyn"),
		placeholderImage("nyc-central-park", "Central Park in autumn"),
		placeholderImage("nyc-times-square", "Times Square"),
	},
	"istanbul": {
		placeholderImage("istanbul-hagia-sophia", "Hagia Sophia"),
		placeholderImage("istanbul-bosphorus", "Ferries on the Bosphorus"),
		placeholderImage("istanbul-bazaar", "Inside the Grand Bazaar"),
	},
	"dubai": {
		placeholderImage("dubai-burj-khalifa", "Burj Khalifa above Downtown Dubai"),
		placeholderImage("dubai-marina", "Dubai Marina"),
		placeholderImage("dubai-desert", "Dunes outside the city"),
	},
	"barcelona": {
		placeholderImage("barcelona-sagrada-familia", "Sagrada Familia"),
		placeholderImage("barcelona-park-guell", "Park Guell mosaics"),
		placeholderImage("barcelona-gothic", "The Gothic Quarter"),
	},
	DefaultKey: {
		placeholderImage("travel-city", "City skyline"),
		placeholderImage("travel-coast", "Coastline at golden hour"),
		placeholderImage("travel-mountains", "Mountain landscape"),
		placeholderImage("travel-street", "Old town street"),
		placeholderImage("travel-market", "Local market"),
		placeholderImage("travel-landmark", "Historic landmark"),
	},
}

// Images returns the built-in image table, keyed by destination name.
func Images() *Table[services.Image] {
	return MustTable(imageEntries, SubjectKey)
}
