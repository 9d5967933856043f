package models

import (
	"database/sql/driver"
	"time"
)

// Link is a labelled external URL such as a results page.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// LinkList is stored as a JSONB array of {label, url}.
type LinkList []Link

// Value implements driver.Valuer. A nil list is stored as [].
func (l LinkList) Value() (driver.Value, error) {
	if l == nil {
		return encodeJSONB([]Link{})
	}
	return encodeJSONB([]Link(l))
}

// Scan implements sql.Scanner.
func (l *LinkList) Scan(src interface{}) error {
	var out []Link
	if err := decodeJSONB(src, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// RPCDateWindow is one race-pack collection opening.
type RPCDateWindow struct {
	Date      string `json:"date"`
	TimeStart string `json:"time_start"`
	TimeEnd   string `json:"time_end"`
}

// RPCLocation is a race-pack collection venue with its opening windows.
type RPCLocation struct {
	LocationName string          `json:"location_name"`
	Dates        []RPCDateWindow `json:"dates"`
}

// RPCSchedule is stored as an opaque JSONB document on the event row.
type RPCSchedule []RPCLocation

// Value implements driver.Valuer. A nil schedule is stored as [].
func (s RPCSchedule) Value() (driver.Value, error) {
	if s == nil {
		return encodeJSONB([]RPCLocation{})
	}
	return encodeJSONB([]RPCLocation(s))
}

// Scan implements sql.Scanner.
func (s *RPCSchedule) Scan(src interface{}) error {
	var out []RPCLocation
	if err := decodeJSONB(src, &out); err != nil {
		return err
	}
	*s = out
	return nil
}

// Event is one year's instance of a Series.
type Event struct {
	ID           string      `db:"id" json:"id"`
	SeriesID     string      `db:"series_id" json:"series_id"`
	Year         int         `db:"event_year" json:"event_year"`
	DateStart    time.Time   `db:"date_start" json:"date_start"`
	DateEnd      *time.Time  `db:"date_end" json:"date_end,omitempty"`
	Location     string      `db:"event_location" json:"event_location"`
	IsPublished  bool        `db:"is_published" json:"is_published"`
	ResultsLinks LinkList    `db:"results_links" json:"results_links"`
	DocsLinks    LinkList    `db:"docs_links" json:"docs_links"`
	RPCInfo      RPCSchedule `db:"rpc_info" json:"rpc_info"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// IsMultiDay reports whether the event spans more than its start date.
func (e Event) IsMultiDay() bool {
	return e.DateEnd != nil
}

// EventListing is the flattened directory row for a published event.
type EventListing struct {
	ID            string     `db:"id" json:"id"`
	SeriesID      string     `db:"series_id" json:"series_id"`
	SeriesName    string     `db:"series_name" json:"series_name"`
	Year          int        `db:"event_year" json:"event_year"`
	DateStart     time.Time  `db:"date_start" json:"date_start"`
	DateEnd       *time.Time `db:"date_end" json:"date_end,omitempty"`
	Location      string     `db:"event_location" json:"event_location"`
	IsPublished   bool       `db:"is_published" json:"is_published"`
	DistanceNames []string   `db:"-" json:"-"`
	DistanceKms   []float64  `db:"-" json:"-"`
}

// AdminEventRow is an event with resolved series and distance names for back-office lists.
type AdminEventRow struct {
	Event
	SeriesName    string   `db:"series_name" json:"series_name"`
	DistanceNames []string `db:"-" json:"distance_names"`
}

// SeriesEventRef identifies one event within a series timeline.
type SeriesEventRef struct {
	ID        string    `db:"id" json:"id"`
	Year      int       `db:"event_year" json:"event_year"`
	DateStart time.Time `db:"date_start" json:"date_start"`
}
