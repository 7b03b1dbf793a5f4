package views

import (
	"fmt"
	"time"

	"github.com/sweater-ventures/roster/model"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const dateLayout = "2006-01-02 15:04"

var printer = message.NewPrinter(language.English)

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(dateLayout)
}

// formatCount groups thousands: 12345 -> "12,345".
func formatCount(n int) string {
	return printer.Sprintf("%d", n)
}

func formatCoord(f float64) string {
	return fmt.Sprintf("%.4f", f)
}

func formatLocation(l model.Location) string {
	return formatCoord(l.Latitude) + ", " + formatCoord(l.Longitude)
}

func activeLabel(active bool) string {
	if active {
		return "Active"
	}
	return "Inactive"
}
