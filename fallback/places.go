package fallback

import (
	"math"

	"tripease/aggregator"
	"tripease/services"
)

// matchRadiusKM is how close a query point must be to a known city centre.
const matchRadiusKM = 60

const earthRadiusKM = 6371.0

type city struct {
	name     string
	lat, lon float64
}

var knownCities = []city{
	{"paris", 48.8566, 2.3522},
	{"london", 51.5074, -0.1278},
	{"rome", 41.9028, 12.4964},
	{"tokyo", 35.6762, 139.6503},
	{"new york", 40.7128, -74.0060},
	{"bali", -8.4095, 115.1889},
	{"istanbul", 41.0082, 28.9784},
	{"barcelona", 41.3874, 2.1686},
}

func place(id, name, category string, lat, lon, rating float64) services.Place {
	return services.Place{
		ID:        "synthetic-" + id,
		Name:      name,
		Category:  category,
		Latitude:  lat,
		Longitude: lon,
		Rating:    rating,
		SourceID:  aggregator.SourceSynthetic,
	}
}

var placeEntries = map[string][]services.Place{
	"paris": {
		place("eiffel", "Eiffel Tower", "tourism.sights", 48.8584, 2.2945, 4.7),
		place("louvre", "Louvre Museum", "entertainment.museum", 48.8606, 2.3376, 4.7),
		place("notre-dame", "Notre-Dame Cathedral", "tourism.sights", 48.8530, 2.3499, 4.7),
		place("luxembourg", "Jardin du Luxembourg", "leisure.park", 48.8462, 2.3372, 4.6),
		place("sacre-coeur", "Sacre-Coeur Basilica", "tourism.sights", 48.8867, 2.3431, 4.7),
	},
	"london": {
		place("british-museum", "British Museum", "entertainment.museum", 51.5194, -0.1270, 4.7),
		place("tower", "Tower of London", "heritage", 51.5081, -0.0759, 4.6),
		place("hyde-park", "Hyde Park", "leisure.park", 51.5073, -0.1657, 4.6),
		place("westminster", "Westminster Abbey", "tourism.sights", 51.4994, -0.1273, 4.6),
	},
	"rome": {
		place("colosseum", "Colosseum", "heritage", 41.8902, 12.4922, 4.8),
		place("pantheon", "Pantheon", "tourism.sights", 41.8986, 12.4769, 4.8),
		place("trevi", "Trevi Fountain", "tourism.sights", 41.9009, 12.4833, 4.7),
		place("borghese", "Villa Borghese", "leisure.park", 41.9142, 12.4923, 4.6),
	},
	"tokyo": {
		place("sensoji", "Senso-ji", "tourism.sights", 35.7148, 139.7967, 4.5),
		place("meiji", "Meiji Jingu", "tourism.sights", 35.6764, 139.6993, 4.6),
		place("ueno", "Ueno Park", "leisure.park", 35.7156, 139.7745, 4.4),
		place("tnm", "Tokyo National Museum", "entertainment.museum", 35.7188, 139.7765, 4.5),
	},
	"new york": {
		place("central-park", "Central Park", "leisure.park", 40.7829, -73.9654, 4.8),
		place("met", "The Metropolitan Museum of Art", "entertainment.museum", 40.7794, -73.9632, 4.8),
		place("high-line", "The High Line", "leisure.park", 40.7480, -74.0048, 4.7),
		place("liberty", "Statue of Liberty", "heritage", 40.6892, -74.0445, 4.7),
	},
	"bali": {
		place("ubud-monkey-forest", "Sacred Monkey Forest Sanctuary", "leisure.park", -8.5188, 115.2585, 4.5),
		place("tanah-lot", "Tanah Lot Temple", "tourism.sights", -8.6212, 115.0868, 4.6),
		place("tegallalang", "Tegallalang Rice Terrace", "tourism.sights", -8.4312, 115.2790, 4.4),
		place("uluwatu", "Uluwatu Temple", "heritage", -8.8291, 115.0849, 4.6),
	},
	"istanbul": {
		place("hagia-sophia", "Hagia Sophia", "heritage", 41.0086, 28.9802, 4.8),
		place("topkapi", "Topkapi Palace", "entertainment.museum", 41.0115, 28.9834, 4.7),
		place("grand-bazaar", "Grand Bazaar", "tourism.attraction", 41.0107, 28.9681, 4.4),
		place("galata", "Galata Tower", "tourism.sights", 41.0256, 28.9741, 4.5),
	},
	"barcelona": {
		place("sagrada", "Sagrada Familia", "tourism.sights", 41.4036, 2.1744, 4.8),
		place("park-guell", "Park Guell", "leisure.park", 41.4145, 2.1527, 4.5),
		place("casa-batllo", "Casa Batllo", "heritage", 41.3917, 2.1649, 4.7),
		place("boqueria", "Mercat de la Boqueria", "tourism.attraction", 41.3817, 2.1716, 4.5),
	},
	// generic entries have no fixed position; PlaceGenerator places them
	// around the query point.
	DefaultKey: {
		place("city-centre", "City Centre", "tourism.sights", 0, 0, 4.2),
		place("old-town", "Old Town", "heritage", 0, 0, 4.3),
		place("town-park", "Central Park", "leisure.park", 0, 0, 4.2),
		place("city-museum", "City Museum", "entertainment.museum", 0, 0, 4.1),
		place("local-market", "Local Market", "tourism.attraction", 0, 0, 4.0),
		place("viewpoint", "Scenic Viewpoint", "tourism.sights", 0, 0, 4.4),
	},
}

// genericOffsets spread generic places around the query point, in metres
// north and east.
var genericOffsets = [][2]float64{
	{0, 0}, {400, -300}, {-600, 500}, {900, 700}, {-1200, -800}, {1500, 1100},
}

// PlaceGenerator matches the query point against known city centres.
type PlaceGenerator struct {
	table *Table[services.Place]
}

// Places returns the built-in places generator.
func Places() *PlaceGenerator {
	return &PlaceGenerator{table: MustTable(placeEntries, nearestCityKey)}
}

// Generate returns the nearest known city's places, or generic places around
// the query point, with distances measured from that point.
func (g *PlaceGenerator) Generate(q aggregator.Query) []services.Place {
	key := nearestCityKey(q)
	// a known city without its own entry gets the generic set as well
	generic := key == DefaultKey || !g.table.Has(key)
	out := g.table.Generate(q)
	for i := range out {
		if generic {
			off := genericOffsets[i%len(genericOffsets)]
			out[i].Latitude, out[i].Longitude = offsetPoint(q.Lat, q.Lon, off[0], off[1])
		}
		out[i].DistanceMeters = math.Round(HaversineKM(q.Lat, q.Lon, out[i].Latitude, out[i].Longitude) * 1000)
	}
	return out
}

// nearestCityKey picks the closest known city within matchRadiusKM.
func nearestCityKey(q aggregator.Query) string {
	best := DefaultKey
	bestDist := math.Inf(1)
	for _, c := range knownCities {
		d := HaversineKM(q.Lat, q.Lon, c.lat, c.lon)
		if d <= matchRadiusKM && d < bestDist {
			best, bestDist = c.name, d
		}
	}
	return best
}

// HaversineKM is the great-circle distance between two points.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Min(1, math.Sqrt(a)))
}

// offsetPoint moves a point by metres north and east. The latitude is clamped
// at the poles and the longitude wrapped into [-180, 180).
func offsetPoint(lat, lon, northM, eastM float64) (float64, float64) {
	dLat := northM / (earthRadiusKM * 1000) * 180 / math.Pi
	outLat := math.Max(-90, math.Min(90, lat+dLat))
	cos := math.Cos(lat * math.Pi / 180)
	if math.Abs(cos) < 1e-6 {
		return outLat, wrapLongitude(lon)
	}
	dLon := eastM / (earthRadiusKM * 1000 * cos) * 180 / math.Pi
	return outLat, wrapLongitude(lon + dLon)
}

func wrapLongitude(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}
