package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

type PDFData struct {
	TravelerName string
	Destination  string
	Days         int
	Travelers    int
	Itinerary    string
	Activities   []Activity
	Images       []Image
	GeneratedAt  time.Time
	IsEstimated  bool // true when activities came from fallback data
}

// GeneratePDFBytes renders the trip brief and returns raw bytes (no filesystem needed)
func GeneratePDFBytes(data PDFData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)
	// core fonts are cp1252; translate UTF-8 input instead of printing mojibake
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	// ── Header Bar ───────────────────────────────────────────
	pdf.SetFillColor(13, 24, 37)
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(20, 8)
	pdf.CellFormat(100, 10, "TripEase", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(212, 168, 67)
	pdf.SetXY(20, 18)
	pdf.CellFormat(170, 6, "Trip Brief", "", 1, "L", false, 0, "")

	pdf.SetY(35)
	pdf.SetTextColor(0, 0, 0)

	// ── Disclaimer ───────────────────────────────────────────
	pdf.SetFillColor(255, 248, 225)
	pdf.SetDrawColor(212, 168, 67)
	pdf.SetTextColor(130, 90, 20)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetLineWidth(0.4)
	y := pdf.GetY()
	pdf.Rect(20, y, 170, 12, "FD")
	pdf.SetXY(23, y+2)
	disclaimer := "This is NOT a booking confirmation. Prices and availability are subject to change. Please verify with providers before booking."
	if data.IsEstimated {
		disclaimer = "ILLUSTRATIVE ACTIVITIES - live booking data was unavailable. This is NOT a booking confirmation."
	}
	pdf.MultiCell(164, 4, disclaimer, "", "C", false)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.2)
	pdf.Ln(6)

	// ── Section Helper ───────────────────────────────────────
	sectionHeader := func(title string) {
		pdf.SetFillColor(13, 24, 37)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(170, 8, "  "+title, "", 1, "L", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)
	}

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(55, 7, tr(label), "", 0, "L", false, 0, "")
		pdf.SetTextColor(20, 20, 20)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(115, 7, tr(value), "", 1, "L", false, 0, "")
	}

	// ── Trip Overview ─────────────────────────────────────────
	sectionHeader("Trip Overview")
	name := data.TravelerName
	if name == "" {
		name = "Guest Traveler"
	}
	row("Traveler", name)
	row("Destination", data.Destination)
	row("Duration", pluralize(data.Days, "day"))
	row("Travelers", pluralize(data.Travelers, "person"))
	row("Generated", formatGenerated(data.GeneratedAt))
	pdf.Ln(4)

	// ── Itinerary ─────────────────────────────────────────────
	if strings.TrimSpace(data.Itinerary) != "" {
		sectionHeader("Itinerary")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(40, 40, 40)
		pdf.MultiCell(170, 5, tr(data.Itinerary), "", "L", false)
		pdf.Ln(4)
	}

	// ── Activities ────────────────────────────────────────────
	if len(data.Activities) > 0 {
		sectionHeader("Suggested Activities")
		for _, a := range data.Activities {
			row(truncateText(a.Title, 32), formatActivity(a))
		}
		pdf.Ln(4)
	}

	// ── Photo credits ─────────────────────────────────────────
	if credits := photoCredits(data.Images); credits != "" {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.MultiCell(170, 4, tr("Photos: "+credits), "", "L", false)
	}

	// ── Footer ────────────────────────────────────────────────
	pdf.SetFooterFunc(func() {
		pdf.SetY(-18)
		pdf.SetDrawColor(200, 200, 200)
		pdf.SetLineWidth(0.3)
		pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(150, 150, 150)
		pdf.CellFormat(0, 8,
			fmt.Sprintf("Generated by TripEase - Not a booking confirmation - Page %d", pdf.PageNo()),
			"", 0, "C", false, 0, "")
	})

	// ── Write to buffer ───────────────────────────────────────
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output failed: %w", err)
	}
	return buf.Bytes(), nil
}

func formatActivity(a Activity) string {
	parts := make([]string, 0, 3)
	if a.Price > 0 {
		parts = append(parts, fmt.Sprintf("from %.0f %s", a.Price, currencyOrUSD(a.Currency)))
	}
	if a.Duration != "" {
		parts = append(parts, a.Duration)
	}
	if a.Rating > 0 {
		parts = append(parts, fmt.Sprintf("%.1f / 5.0", a.Rating))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " | ")
}

func photoCredits(images []Image) string {
	seen := make(map[string]bool)
	var names []string
	for _, img := range images {
		if img.Attribution == "" || seen[img.Attribution] {
			continue
		}
		seen[img.Attribution] = true
		names = append(names, fmt.Sprintf("%s (%s)", img.Attribution, img.SourceID))
	}
	return strings.Join(names, ", ")
}

func pluralize(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	if word == "person" {
		return fmt.Sprintf("%d people", n)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func truncateText(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// formatGenerated renders t in UTC; the zero time means now.
func formatGenerated(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format("02 Jan 2006, 15:04 UTC")
}
