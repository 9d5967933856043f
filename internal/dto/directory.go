package dto

import (
	"time"

	"github.com/noah-isme/run-directory-api/internal/models"
)

// DirectoryQuery is the public listing query string.
type DirectoryQuery struct {
	Filter string `form:"filter"`
	Search string `form:"search"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

// DirectoryItem is one row of the public event listing.
type DirectoryItem struct {
	ID            string     `json:"id"`
	SeriesID      string     `json:"series_id"`
	SeriesName    string     `json:"series_name"`
	EventYear     int        `json:"event_year"`
	DateStart     time.Time  `json:"date_start"`
	DateEnd       *time.Time `json:"date_end,omitempty"`
	DateRange     string     `json:"date_range"`
	Location      string     `json:"event_location"`
	DistanceNames string     `json:"distance_names"`
	DistanceRange string     `json:"distance_range"`
}

// EventDetail is the public detail view of a published event.
type EventDetail struct {
	models.EventAggregate
	DateRange string `json:"date_range"`
}
