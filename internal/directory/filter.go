// Package directory holds the public listing rules: temporal filter modes, free
// text search, distance range summaries and prev/next navigation in a series.
// Everything here is pure; the SQL rendition lives in the event repository.
package directory

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/run-directory-api/internal/models"
	"github.com/noah-isme/run-directory-api/pkg/timecodec"
)

// Mode selects which part of the calendar a listing covers.
type Mode string

const (
	ModeUpcoming Mode = "upcoming"
	ModeThisYear Mode = "this_year"
	ModeFinished Mode = "finished"
	ModeAll      Mode = "all"
)

// ErrUnknownMode is returned by BuildFilter for unsupported modes.
var ErrUnknownMode = errors.New("unknown filter mode")

// Filter is the normalised form of a directory query.
type Filter struct {
	Mode   Mode
	Search string
	Today  time.Time
	Year   int
}

// BuildFilter validates mode and normalises the search term. An empty mode
// means upcoming. today is truncated to its calendar date.
func BuildFilter(mode, search string, today time.Time, currentYear int) (Filter, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(mode)))
	if m == "" {
		m = ModeUpcoming
	}
	switch m {
	case ModeUpcoming, ModeThisYear, ModeFinished, ModeAll:
	default:
		return Filter{}, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}
	return Filter{
		Mode:   m,
		Search: strings.TrimSpace(search),
		Today:  time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC),
		Year:   currentYear,
	}, nil
}

// WithMode switches mode and clears the search term.
func (f Filter) WithMode(m Mode) Filter {
	f.Mode = m
	f.Search = ""
	return f
}

// Descending reports whether results are ordered newest first.
func (f Filter) Descending() bool {
	return f.Mode == ModeFinished
}

// TodayString is Today in YYYY-MM-DD form, the value bound into SQL.
func (f Filter) TodayString() string {
	return f.Today.Format(timecodec.DateLayout)
}

// Matches reports whether a listing row satisfies the filter. It mirrors the
// WHERE clause built by the event repository.
func (f Filter) Matches(ev models.EventListing) bool {
	if !ev.IsPublished {
		return false
	}
	start := ev.DateStart.Format(timecodec.DateLayout)
	switch f.Mode {
	case ModeUpcoming:
		if start < f.TodayString() {
			return false
		}
	case ModeThisYear:
		if ev.Year != f.Year {
			return false
		}
	case ModeFinished:
		if start >= f.TodayString() {
			return false
		}
	}
	if f.Search == "" {
		return true
	}
	term := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(ev.SeriesName), term) ||
		strings.Contains(strings.ToLower(ev.Location), term)
}
