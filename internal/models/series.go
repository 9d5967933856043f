package models

import "time"

// Series is a recurring event franchise, e.g. an annual marathon brand.
type Series struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"series_name" json:"series_name"`
	Organizer   string    `db:"organizer" json:"organizer"`
	MainCity    *string   `db:"location_city_main" json:"location_city_main,omitempty"`
	OfficialURL *string   `db:"series_official_url" json:"series_official_url,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
