package models

import (
	"database/sql/driver"
	"time"
)

// CutOffPoint is an intermediate checkpoint limit measured from flag-off.
type CutOffPoint struct {
	KmMark       float64 `json:"km_mark"`
	TimeLimitHrs float64 `json:"time_limit_hrs"`
}

// CutOffPointList is stored as a nullable JSONB array.
type CutOffPointList []CutOffPoint

// Value implements driver.Valuer. A nil list is stored as NULL.
func (l CutOffPointList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return encodeJSONB([]CutOffPoint(l))
}

// Scan implements sql.Scanner.
func (l *CutOffPointList) Scan(src interface{}) error {
	var out []CutOffPoint
	if err := decodeJSONB(src, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// EventDistance is the per-event configuration of a master distance.
type EventDistance struct {
	EventID       string          `db:"event_id" json:"event_id"`
	DistanceID    string          `db:"distance_id" json:"distance_id"`
	PriceMin      float64         `db:"price_min" json:"price_min"`
	FlagOffTime   time.Time       `db:"flag_off_time" json:"flag_off_time"`
	CutOffTimeHrs float64         `db:"cut_off_time_hrs" json:"cut_off_time_hrs"`
	CutOffPoints  CutOffPointList `db:"cut_off_points" json:"cut_off_points"`
	RouteImageURL *string         `db:"route_image_url" json:"route_image_url,omitempty"`
}

// EventDistanceDetail joins an EventDistance with its master distance.
type EventDistanceDetail struct {
	EventDistance
	DistanceName string  `db:"distance_name" json:"distance_name"`
	DistanceKm   float64 `db:"distance_km" json:"distance_km"`
	SortOrder    int     `db:"sort_order" json:"sort_order"`
}

// EventRaceType associates an event with a master race type.
type EventRaceType struct {
	EventID string `db:"event_id" json:"event_id"`
	TypeID  string `db:"type_id" json:"type_id"`
}

// EventRaceTypeDetail joins an EventRaceType with the race type name.
type EventRaceTypeDetail struct {
	EventRaceType
	TypeName string `db:"type_name" json:"type_name"`
}

// EventAggregate is the read shape used for hydration and detail views.
type EventAggregate struct {
	Event     Event                 `json:"event"`
	Series    *Series               `json:"series,omitempty"`
	Distances []EventDistanceDetail `json:"distances"`
	RaceTypes []EventRaceTypeDetail `json:"race_types"`
}
