package authoring

import "sort"

// Snapshot is a read-only, JSON friendly copy of a form.
type Snapshot struct {
	EventID      string             `json:"event_id,omitempty"`
	Mode         Mode               `json:"mode"`
	SeriesID     string             `json:"series_id"`
	EventYear    int                `json:"event_year"`
	DateStart    string             `json:"date_start"`
	DateEnd      string             `json:"date_end"`
	Location     string             `json:"event_location"`
	IsMultiDay   bool               `json:"is_multiday"`
	IsPublished  bool               `json:"is_published"`
	Distances    []DistanceSnapshot `json:"distances"`
	RaceTypes    []string           `json:"race_types"`
	RPCInfo      []RPCSnapshot      `json:"rpc_info"`
	ResultsLinks []Link             `json:"results_links"`
	DocsLinks    []Link             `json:"docs_links"`
}

// DistanceSnapshot is the view of one distance slot. Cut-off points are
// ordered by km ascending.
type DistanceSnapshot struct {
	ID            string        `json:"id"`
	DistanceID    string        `json:"distance_id"`
	PriceMin      float64       `json:"price_min"`
	CutOffDisplay string        `json:"cut_off_time_hrs_display"`
	CutOffHours   float64       `json:"cut_off_time_hrs"`
	FlagOffDate   string        `json:"flag_off_date"`
	FlagOffTime   string        `json:"flag_off_time"`
	RouteImageURL string        `json:"route_image_url"`
	Upload        UploadStatus  `json:"upload_status"`
	UploadError   string        `json:"upload_error,omitempty"`
	CutOffPoints  []CutOffPoint `json:"cut_off_points"`
}

// RPCSnapshot is the view of one RPC location.
type RPCSnapshot struct {
	ID           string      `json:"id"`
	LocationName string      `json:"location_name"`
	Dates        []RPCWindow `json:"dates"`
}

// Snapshot copies the current state of the form.
func (f *Form) Snapshot() Snapshot {
	snap := Snapshot{
		EventID:      f.EventID,
		Mode:         f.Mode,
		SeriesID:     f.SeriesID,
		EventYear:    f.Year,
		DateStart:    f.DateStart,
		DateEnd:      f.DateEnd,
		Location:     f.Location,
		IsMultiDay:   f.IsMultiDay,
		IsPublished:  f.IsPublished,
		Distances:    make([]DistanceSnapshot, 0, f.distances.len()),
		RaceTypes:    f.RaceTypes(),
		RPCInfo:      make([]RPCSnapshot, 0, f.rpc.len()),
		ResultsLinks: f.Links(ResultsLinks),
		DocsLinks:    f.Links(DocsLinks),
	}
	for _, slot := range f.distances.list() {
		points := slot.CutOffPoints()
		sort.SliceStable(points, func(i, j int) bool { return points[i].KmMark < points[j].KmMark })
		snap.Distances = append(snap.Distances, DistanceSnapshot{
			ID:            slot.ID,
			DistanceID:    slot.DistanceID,
			PriceMin:      slot.PriceMin,
			CutOffDisplay: slot.CutOffDisplay,
			CutOffHours:   slot.CutOffHours,
			FlagOffDate:   slot.FlagOffDate,
			FlagOffTime:   slot.FlagOffTime,
			RouteImageURL: slot.RouteImageURL,
			Upload:        slot.Upload,
			UploadError:   slot.UploadError,
			CutOffPoints:  points,
		})
	}
	for _, loc := range f.rpc.list() {
		snap.RPCInfo = append(snap.RPCInfo, RPCSnapshot{ID: loc.ID, LocationName: loc.Name, Dates: loc.Windows()})
	}
	return snap
}
