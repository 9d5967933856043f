// Package timecodec converts between the editable encodings used while
// authoring events ("HH:MM" clocks, split date and time fields) and the
// stored encodings (decimal hours, absolute timestamps).
package timecodec

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the calendar date encoding, YYYY-MM-DD.
	DateLayout = "2006-01-02"
	// ClockLayout is the time-of-day encoding, HH:MM.
	ClockLayout = "15:04"
	// ZeroClock is returned for any duration that cannot be rendered.
	ZeroClock = "00:00"
)

// HoursToClock renders a decimal hour duration as HH:MM. Hours are floored and
// the remainder rounded to the nearest minute; a remainder that rounds up to 60
// carries into the hour. Negative, NaN and infinite inputs yield "00:00".
func HoursToClock(totalHours float64) string {
	if math.IsNaN(totalHours) || math.IsInf(totalHours, 0) || totalHours < 0 {
		return ZeroClock
	}
	hours := math.Floor(totalHours)
	minutes := math.Round((totalHours - hours) * 60)
	if minutes >= 60 {
		hours++
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", int64(hours), int64(minutes))
}

// ClockToHours parses an HH:MM clock into decimal hours. Each part is read as a
// leading integer and garbage reads as 0. Input that does not have exactly two
// parts yields 0. Minutes above 59 are discarded and only the hours are kept.
func ClockToHours(clock string) float64 {
	if clock == "" {
		return 0
	}
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0
	}
	hours := ParseLeadingInt(parts[0])
	minutes := ParseLeadingInt(parts[1])
	if minutes > 59 {
		return float64(hours)
	}
	return float64(hours) + float64(minutes)/60
}

// CombineDateAndTime joins a YYYY-MM-DD date and an HH:MM clock into an instant
// in loc. An empty clock means midnight. A nil loc means UTC.
func CombineDateAndTime(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if strings.TrimSpace(clock) == "" {
		clock = ZeroClock
	}
	t, err := time.ParseInLocation(DateLayout+" "+ClockLayout, strings.TrimSpace(date)+" "+strings.TrimSpace(clock), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("combine %q and %q: %w", date, clock, err)
	}
	return t, nil
}

// SplitTimestamp is the inverse of CombineDateAndTime. The zero time yields
// empty strings.
func SplitTimestamp(t time.Time, loc *time.Location) (date, clock string) {
	if t.IsZero() {
		return "", ""
	}
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return local.Format(DateLayout), local.Format(ClockLayout)
}

// FormatDate renders a date-only value as YYYY-MM-DD, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string as a UTC midnight.
func ParseDate(raw string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(raw))
}

// ParseNonNegativeNumber is the coercion applied to numeric form input. Empty,
// non-numeric, NaN, infinite and negative input all coerce to 0.
func ParseNonNegativeNumber(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		v = parseLeadingFloat(raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// ParseLeadingInt reads an optionally signed run of leading decimal digits,
// ignoring leading whitespace and anything after the digits. No digits gives 0.
func ParseLeadingInt(raw string) int {
	s := strings.TrimLeft(raw, " \t\n\r")
	sign := 1
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return sign * n
}

// parseLeadingFloat accepts inputs such as "12.5km" by parsing the longest
// numeric prefix.
func parseLeadingFloat(s string) float64 {
	end := 0
	seenDot := false
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	for end < len(s) {
		c := s[end]
		if c >= '0' && c <= '9' {
			end++
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			end++
			continue
		}
		break
	}
	for end > 0 {
		if v, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return v
		}
		end--
	}
	return 0
}
