package authoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/run-directory-api/internal/models"
	"github.com/noah-isme/run-directory-api/pkg/sanitize"
	"github.com/noah-isme/run-directory-api/pkg/timecodec"
)

// Payload is the storage shape of a submitted form. Child rows carry the event
// id once Bind has been called.
type Payload struct {
	Event     models.Event
	Distances []models.EventDistance
	RaceTypes []models.EventRaceType
}

// Bind stamps eventID onto the parent and every child row.
func (p *Payload) Bind(eventID string) {
	p.Event.ID = eventID
	for i := range p.Distances {
		p.Distances[i].EventID = eventID
	}
	for i := range p.RaceTypes {
		p.RaceTypes[i].EventID = eventID
	}
}

// DistanceIDs lists the distance ids of the payload in row order.
func (p *Payload) DistanceIDs() []string {
	out := make([]string, 0, len(p.Distances))
	for _, d := range p.Distances {
		out = append(out, d.DistanceID)
	}
	return out
}

// BuildPayload converts a validated form into rows. Free text is sanitised,
// links without a URL are dropped, the end date is only kept for multi-day
// events, and cut-off points without a positive km mark or a limit are dropped.
// Remaining points are ordered by km ascending.
func BuildPayload(f *Form) (*Payload, error) {
	start, err := timecodec.ParseDate(f.DateStart)
	if err != nil {
		return nil, fmt.Errorf("parse date_start: %w", err)
	}

	event := models.Event{
		ID:           f.EventID,
		SeriesID:     f.SeriesID,
		Year:         f.Year,
		DateStart:    start,
		Location:     sanitize.Text(f.Location),
		IsPublished:  f.IsPublished,
		ResultsLinks: buildLinks(f.Links(ResultsLinks)),
		DocsLinks:    buildLinks(f.Links(DocsLinks)),
		RPCInfo:      buildRPC(f),
	}
	if f.IsMultiDay && f.DateEnd != "" {
		end, err := timecodec.ParseDate(f.DateEnd)
		if err != nil {
			return nil, fmt.Errorf("parse date_end: %w", err)
		}
		event.DateEnd = &end
	}

	payload := &Payload{Event: event}
	for _, slot := range f.distances.list() {
		flagOff, err := timecodec.CombineDateAndTime(slot.FlagOffDate, slot.FlagOffTime, f.loc)
		if err != nil {
			return nil, fmt.Errorf("flag-off for distance %s: %w", slot.DistanceID, err)
		}
		row := models.EventDistance{
			EventID:       f.EventID,
			DistanceID:    slot.DistanceID,
			PriceMin:      slot.PriceMin,
			FlagOffTime:   flagOff,
			CutOffTimeHrs: timecodec.ClockToHours(slot.CutOffDisplay),
			CutOffPoints:  buildCutOffPoints(slot.CutOffPoints()),
		}
		if url := strings.TrimSpace(slot.RouteImageURL); url != "" {
			row.RouteImageURL = &url
		}
		payload.Distances = append(payload.Distances, row)
	}
	for _, typeID := range f.RaceTypes() {
		payload.RaceTypes = append(payload.RaceTypes, models.EventRaceType{EventID: f.EventID, TypeID: typeID})
	}
	return payload, nil
}

func buildLinks(in []Link) models.LinkList {
	out := models.LinkList{}
	for _, l := range in {
		url := strings.TrimSpace(l.URL)
		if url == "" {
			continue
		}
		out = append(out, models.Link{Label: sanitize.Text(l.Label), URL: url})
	}
	return out
}

func buildRPC(f *Form) models.RPCSchedule {
	out := models.RPCSchedule{}
	for _, loc := range f.rpc.list() {
		entry := models.RPCLocation{LocationName: sanitize.Text(loc.Name), Dates: []models.RPCDateWindow{}}
		for _, w := range loc.Windows() {
			entry.Dates = append(entry.Dates, models.RPCDateWindow{Date: w.Date, TimeStart: w.TimeStart, TimeEnd: w.TimeEnd})
		}
		out = append(out, entry)
	}
	return out
}

func buildCutOffPoints(points []CutOffPoint) models.CutOffPointList {
	out := models.CutOffPointList{}
	for _, p := range points {
		if p.KmMark <= 0 || strings.TrimSpace(p.TimeLimit) == "" {
			continue
		}
		out = append(out, models.CutOffPoint{KmMark: p.KmMark, TimeLimitHrs: timecodec.ClockToHours(p.TimeLimit)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].KmMark < out[j].KmMark })
	return out
}
