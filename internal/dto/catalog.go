package dto

import "time"

// SeriesRequest creates or updates a series.
type SeriesRequest struct {
	Name        string  `json:"series_name" validate:"required,max=200"`
	Organizer   string  `json:"organizer" validate:"required,max=200"`
	MainCity    *string `json:"location_city_main" validate:"omitempty,max=120"`
	OfficialURL *string `json:"series_official_url" validate:"omitempty,url"`
	Description *string `json:"description"`
}

// DistanceRequest creates or updates a master distance.
type DistanceRequest struct {
	Name string  `json:"distance_name" validate:"required,max=100"`
	Km   float64 `json:"distance_km" validate:"gt=0"`
}

// RaceTypeRequest creates or updates a master race type.
type RaceTypeRequest struct {
	Name        string  `json:"type_name" validate:"required,max=100"`
	Description *string `json:"description"`
}

// MoveRequest reorders a master row.
type MoveRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

// AdminEventItem is one row of the back-office event list.
type AdminEventItem struct {
	ID            string     `json:"id"`
	SeriesID      string     `json:"series_id"`
	SeriesName    string     `json:"series_name"`
	EventYear     int        `json:"event_year"`
	DateStart     time.Time  `json:"date_start"`
	DateEnd       *time.Time `json:"date_end,omitempty"`
	Location      string     `json:"event_location"`
	IsPublished   bool       `json:"is_published"`
	DistanceNames string     `json:"distance_names"`
}

// DeleteIntent is the confirmation token issued before deleting an event.
type DeleteIntent struct {
	EventID   string    `json:"event_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
