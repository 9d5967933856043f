package directory

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NoDistanceLabel is shown when an event has no distances attached.
const NoDistanceLabel = "Jarak Tidak Ditemukan"

// SummarizeDistances renders the km range of an event. Zero entries are
// ignored; with nothing left the result is "N/A".
func SummarizeDistances(kms []float64) string {
	var min, max float64
	found := false
	for _, km := range kms {
		if km <= 0 {
			continue
		}
		if !found || km < min {
			min = km
		}
		if !found || km > max {
			max = km
		}
		found = true
	}
	switch {
	case !found:
		return "N/A"
	case min == max:
		return formatKm(min) + " km"
	default:
		return formatKm(min) + " - " + formatKm(max) + " km"
	}
}

// JoinDistanceNames joins names for listing rows.
func JoinDistanceNames(names []string) string {
	if len(names) == 0 {
		return NoDistanceLabel
	}
	return strings.Join(names, ", ")
}

func formatKm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var monthsID = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatDate renders a date the Indonesian way, "15 Juni 2025".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), monthsID[t.Month()-1], t.Year())
}

// FormatDateRange renders an event's dates. Ranges inside one month collapse
// to "14 - 15 Juni 2025".
func FormatDateRange(start time.Time, end *time.Time) string {
	if end == nil {
		return FormatDate(start)
	}
	if start.Year() == end.Year() && start.Month() == end.Month() {
		return fmt.Sprintf("%d - %d %s %d", start.Day(), end.Day(), monthsID[start.Month()-1], start.Year())
	}
	return FormatDate(start) + " - " + FormatDate(*end)
}
