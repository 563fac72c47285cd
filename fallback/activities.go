package fallback

import (
	"tripease/aggregator"
	"tripease/services"
)

func activity(id, title, description string, price float64, duration string, rating float64) services.Activity {
	return services.Activity{
		ID:          "synthetic-" + id,
		Title:       title,
		Description: description,
		Price:       price,
		Currency:    "USD",
		Duration:    duration,
		Rating:      rating,
		SourceID:    aggregator.SourceSynthetic,
	}
}

var activityEntries = map[string][]services.Activity{
	"bali": {
		activity("bali-ubud", "Ubud Rice Terraces and Monkey Forest Tour", "Full-day tour of central Bali's terraces, temples and forest sanctuary.", 45, "8h", 4.7),
		activity("bali-batur", "Mount Batur Sunrise Trek", "Guided pre-dawn hike to the crater rim with breakfast at the top.", 55, "10h", 4.6),
		activity("bali-uluwatu", "Uluwatu Temple and Kecak Fire Dance", "Cliff-top temple visit followed by the sunset Kecak performance.", 35, "5h", 4.6),
		activity("bali-snorkel", "Nusa Penida Snorkeling Day Trip", "Boat trip with snorkeling stops at manta and coral sites.", 75, "9h", 4.5),
		activity("bali-cooking", "Balinese Cooking Class", "Market visit and hands-on class in a family compound.", 30, "5h", 4.8),
	},
	"paris": {
		activity("paris-louvre", "Louvre Museum Guided Tour", "Skip-the-line entry with an art historian.", 79, "2h 30m", 4.6),
		activity("paris-seine", "Seine River Evening Cruise", "One-hour cruise past the illuminated monuments.", 18, "1h", 4.5),
		activity("paris-eiffel", "Eiffel Tower Summit Access", "Reserved access to the second floor and summit.", 65, "2h", 4.4),
		activity("paris-montmartre", "Montmartre Walking Tour", "Artists' quarter, Sacre-Coeur and hidden squares.", 25, "2h", 4.7),
		activity("paris-versailles", "Versailles Palace Day Trip", "Palace and gardens with round-trip transport.", 95, "7h", 4.5),
	},
	"london": {
		activity("london-tower", "Tower of London and Crown Jewels", "Entry with a Yeoman Warder tour.", 45, "3h", 4.7),
		activity("london-thames", "Thames River Cruise", "Westminster to Greenwich by boat.", 22, "1h 30m", 4.4),
		activity("london-stonehenge", "Stonehenge and Bath Day Trip", "Coach tour with entry tickets.", 110, "11h", 4.5),
		activity("london-markets", "East London Food and Markets Tour", "Tastings across Spitalfields and Brick Lane.", 70, "3h 30m", 4.8),
	},
	"tokyo": {
		activity("tokyo-sushi", "Tsukiji Outer Market Food Tour", "Morning tastings with a local guide.", 95, "3h", 4.8),
		activity("tokyo-fuji", "Mount Fuji and Hakone Day Trip", "Coach tour with lake cruise and ropeway.", 120, "11h", 4.4),
		activity("tokyo-asakusa", "Asakusa and Senso-ji Walking Tour", "Old Tokyo streets and temple history.", 30, "2h", 4.6),
		activity("tokyo-teamlab", "teamLab Planets Entry", "Timed entry to the immersive digital art museum.", 28, "2h", 4.6),
	},
	"rome": {
		activity("rome-colosseum", "Colosseum, Forum and Palatine Tour", "Guided entry to the ancient city core.", 69, "3h", 4.7),
		activity("rome-vatican", "Vatican Museums and Sistine Chapel", "Early-access guided visit.", 85, "3h", 4.6),
		activity("rome-food", "Trastevere Evening Food Tour", "Dinner crawl through Trastevere trattorias.", 89, "3h 30m", 4.9),
		activity("rome-pasta", "Pasta Making Class", "Fresh pasta and tiramisu with a local chef.", 60, "3h", 4.8),
	},
	"new york": {
		activity("nyc-liberty", "Statue of Liberty and Ellis Island", "Ferry with pedestal access.", 35, "4h", 4.5),
		activity("nyc-observatory", "Top of the Rock Observation Deck", "Timed entry with skyline views.", 40, "1h", 4.7),
		activity("nyc-broadway", "Broadway Show Tickets", "Mid-week orchestra seats.", 120, "2h 30m", 4.8),
		activity("nyc-food", "Greenwich Village Food Tour", "Pizza, pastries and local history.", 65, "3h", 4.8),
	},
	DefaultKey: {
		activity("walking-tour", "City Highlights Walking Tour", "Guided walk past the main landmarks and squares.", 25, "2h 30m", 4.5),
		activity("food-tour", "Local Food Tasting Tour", "Street food and market tastings with a local guide.", 55, "3h", 4.7),
		activity("museum", "Museum and Gallery Pass", "Entry to the city's main museums.", 40, "1 day", 4.4),
		activity("cooking-class", "Traditional Cooking Class", "Hands-on class with regional recipes.", 60, "3h", 4.8),
		activity("day-trip", "Countryside Day Trip", "Guided excursion to nearby nature and villages.", 85, "8h", 4.5),
		activity("sunset", "Sunset Viewpoint Experience", "Evening visit to the best viewpoint in town.", 20, "2h", 4.6),
	},
}

// Activities returns the built-in activity table, keyed by destination name.
func Activities() *Table[services.Activity] {
	return MustTable(activityEntries, SubjectKey)
}
