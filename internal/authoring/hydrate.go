package authoring

import (
	"time"

	"github.com/noah-isme/run-directory-api/internal/models"
	"github.com/noah-isme/run-directory-api/pkg/timecodec"
)

// FromPersisted builds an edit-mode form from a stored aggregate, converting
// storage encodings back to editable ones. Missing RPC data and empty link
// lists fall back to the same seeds New uses.
func FromPersisted(agg *models.EventAggregate, d Defaults) *Form {
	f := newForm(ModeEdit, d)
	if agg == nil {
		return f
	}
	ev := agg.Event
	f.EventID = ev.ID
	f.SeriesID = ev.SeriesID
	f.Year = ev.Year
	if f.Year == 0 {
		f.Year = d.Year
	}
	f.DateStart = timecodec.FormatDate(ev.DateStart)
	if ev.DateEnd != nil {
		f.DateEnd = timecodec.FormatDate(*ev.DateEnd)
	}
	f.IsMultiDay = ev.IsMultiDay()
	f.IsPublished = ev.IsPublished
	f.Location = ev.Location

	for _, rt := range agg.RaceTypes {
		f.ToggleRaceType(rt.TypeID, true)
	}

	for _, dist := range agg.Distances {
		slot := hydrateSlot(dist.EventDistance, f.loc)
		f.distances.add(slot.ID, slot)
	}

	if len(ev.RPCInfo) == 0 {
		f.seedRPC()
	} else {
		for _, stored := range ev.RPCInfo {
			loc := &RPCLocation{ID: newElementID(), Name: stored.LocationName, dates: newArena[RPCWindow]()}
			for _, w := range stored.Dates {
				window := &RPCWindow{ID: newElementID(), Date: w.Date, TimeStart: w.TimeStart, TimeEnd: w.TimeEnd}
				loc.dates.add(window.ID, window)
			}
			f.rpc.add(loc.ID, loc)
		}
	}

	hydrateLinks(f, ResultsLinks, ev.ResultsLinks)
	hydrateLinks(f, DocsLinks, ev.DocsLinks)
	return f
}

func hydrateSlot(d models.EventDistance, loc *time.Location) *DistanceSlot {
	slot := &DistanceSlot{
		ID:            newElementID(),
		DistanceID:    d.DistanceID,
		PriceMin:      d.PriceMin,
		CutOffHours:   d.CutOffTimeHrs,
		CutOffDisplay: timecodec.HoursToClock(d.CutOffTimeHrs),
		FlagOffTime:   DefaultFlagOffTime,
		Upload:        UploadIdle,
		points:        newArena[CutOffPoint](),
	}
	if !d.FlagOffTime.IsZero() {
		slot.FlagOffDate, slot.FlagOffTime = timecodec.SplitTimestamp(d.FlagOffTime, loc)
	}
	if d.RouteImageURL != nil {
		slot.RouteImageURL = *d.RouteImageURL
	}
	for _, p := range d.CutOffPoints {
		point := &CutOffPoint{ID: newElementID(), KmMark: p.KmMark, TimeLimit: timecodec.HoursToClock(p.TimeLimitHrs)}
		slot.points.add(point.ID, point)
	}
	return slot
}

func hydrateLinks(f *Form, list LinkList, stored models.LinkList) {
	if len(stored) == 0 {
		f.seedLinks(list)
		return
	}
	entries := f.links[list]
	for _, l := range stored {
		link := &Link{ID: newElementID(), Label: l.Label, URL: l.URL}
		entries.add(link.ID, link)
	}
}
