package fallback

import (
	"fmt"
	"strings"

	"tripease/services"
)

// Itinerary builds day-by-day text from the aggregated activities when the AI
// flow gives nothing back. Activities are spread round-robin, one per day.
func Itinerary(in services.ItineraryInput) string {
	days := max(in.Days, 1)
	travelers := max(in.Travelers, 1)

	var b strings.Builder
	fmt.Fprintf(&b, "%d-day plan for %s (%d traveler", days, in.Destination, travelers)
	if travelers > 1 {
		b.WriteString("s")
	}
	b.WriteString(").\n\n")

	var total float64
	for day := 1; day <= days; day++ {
		fmt.Fprintf(&b, "Day %d: ", day)
		switch {
		case day == 1:
			fmt.Fprintf(&b, "Arrive in %s and settle in. ", in.Destination)
		case day == days && days > 1:
			b.WriteString("Last morning for souvenirs before departure.")
		}
		if len(in.Activities) > 0 && (day < days || days == 1) {
			a := in.Activities[(day-1)%len(in.Activities)]
			b.WriteString(a.Title)
			if a.Duration != "" {
				fmt.Fprintf(&b, " (%s)", a.Duration)
			}
			b.WriteString(". ")
			total += a.Price
		}
		if day < days || days == 1 {
			b.WriteString("Evening free for local food.")
		}
		b.WriteString("\n")
	}

	if total > 0 {
		fmt.Fprintf(&b, "\nEstimated activity cost: $%.0f per person, $%.0f for the group.", total, total*float64(travelers))
	}
	if in.IsFallback {
		b.WriteString("\nActivities are illustrative; live availability could not be checked.")
	}
	return strings.TrimSpace(b.String())
}
