package authoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/run-directory-api/internal/models"
)

var wib = time.FixedZone("WIB", 7*60*60)

const (
	testSeriesID = "5b0f6a2e-3c1d-4f7a-9e2b-8d4c1a6f0e11"
	tenKID       = "c2a4e6f8-1b3d-4c5e-8f70-91a2b3c4d5e6"
)

func testDefaults() Defaults {
	return DefaultsAt(time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC), wib, testSeriesID)
}

func TestNewSeedsDefaults(t *testing.T) {
	f := New(testDefaults())
	snap := f.Snapshot()

	assert.Equal(t, ModeAdd, snap.Mode)
	assert.Equal(t, testSeriesID, snap.SeriesID)
	assert.Equal(t, 2025, snap.EventYear)
	require.Len(t, snap.RPCInfo, 1)
	require.Len(t, snap.RPCInfo[0].Dates, 1)
	// 20:00 UTC is already the next day in WIB.
	assert.Equal(t, "2025-03-02", snap.RPCInfo[0].Dates[0].Date)
	assert.Equal(t, DefaultRPCTimeStart, snap.RPCInfo[0].Dates[0].TimeStart)
	assert.Equal(t, DefaultRPCTimeEnd, snap.RPCInfo[0].Dates[0].TimeEnd)
	require.Len(t, snap.ResultsLinks, 1)
	assert.Equal(t, DefaultResultsLabel, snap.ResultsLinks[0].Label)
	require.Len(t, snap.DocsLinks, 1)
	assert.Equal(t, DefaultDocsLabel, snap.DocsLinks[0].Label)
	assert.Empty(t, snap.Distances)
}

func TestSetScalarField(t *testing.T) {
	f := New(testDefaults())

	require.NoError(t, f.SetScalarField(FieldEventYear, "2026abc"))
	assert.Equal(t, 2026, f.Year)
	require.NoError(t, f.SetScalarField(FieldIsMultiDay, "true"))
	require.NoError(t, f.SetScalarField(FieldDateEnd, "2026-06-16"))
	assert.Equal(t, "2026-06-16", f.DateEnd)

	require.NoError(t, f.SetScalarField(FieldIsMultiDay, "false"))
	assert.Empty(t, f.DateEnd)

	assert.ErrorIs(t, f.SetScalarField(FieldIsPublished, "maybe"), ErrInvalidValue)
	assert.ErrorIs(t, f.SetScalarField("organizer", "x"), ErrUnknownField)
}

func TestDistanceSlotLifecycle(t *testing.T) {
	f := New(testDefaults())
	require.NoError(t, f.SetScalarField(FieldDateStart, "2025-06-15"))

	first := f.AddDistanceSlot()
	second := f.AddDistanceSlot()
	slot, err := f.DistanceSlot(first)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-15", slot.FlagOffDate)
	assert.Equal(t, DefaultFlagOffTime, slot.FlagOffTime)
	assert.Equal(t, "00:00", slot.CutOffDisplay)
	assert.Equal(t, UploadIdle, slot.Upload)

	require.NoError(t, f.SetDistanceField(second, FieldCutOffDisplay, "03:30"))
	require.NoError(t, f.SetDistanceField(second, FieldPriceMin, "-5"))
	require.NoError(t, f.RemoveDistanceSlot(first))

	slot, err = f.DistanceSlot(second)
	require.NoError(t, err)
	assert.Equal(t, 3.5, slot.CutOffHours)
	assert.Equal(t, "03:30", slot.CutOffDisplay)
	assert.Equal(t, 0.0, slot.PriceMin)
	assert.Equal(t, []string{second}, f.DistanceSlotIDs())

	assert.ErrorIs(t, f.RemoveDistanceSlot(first), ErrUnknownElement)
	assert.ErrorIs(t, f.SetDistanceField(second, "colour", "red"), ErrUnknownField)
}

func TestCutOffPointsAddressedByID(t *testing.T) {
	f := New(testDefaults())
	slotID := f.AddDistanceSlot()

	a, err := f.AddCutOffPoint(slotID)
	require.NoError(t, err)
	b, err := f.AddCutOffPoint(slotID)
	require.NoError(t, err)
	require.NoError(t, f.SetCutOffPointField(slotID, a, FieldKmMark, "21.1"))
	require.NoError(t, f.SetCutOffPointField(slotID, b, FieldKmMark, "10"))
	require.NoError(t, f.RemoveCutOffPoint(slotID, a))

	slot, err := f.DistanceSlot(slotID)
	require.NoError(t, err)
	points := slot.CutOffPoints()
	require.Len(t, points, 1)
	assert.Equal(t, b, points[0].ID)
	assert.Equal(t, 10.0, points[0].KmMark)
	assert.Equal(t, "00:00", points[0].TimeLimit)

	assert.ErrorIs(t, f.SetCutOffPointField(slotID, a, FieldKmMark, "5"), ErrUnknownElement)
}

func TestSnapshotOrdersCutOffPointsByKm(t *testing.T) {
	f := New(testDefaults())
	slotID := f.AddDistanceSlot()
	for _, km := range []string{"30", "10", "20"} {
		id, err := f.AddCutOffPoint(slotID)
		require.NoError(t, err)
		require.NoError(t, f.SetCutOffPointField(slotID, id, FieldKmMark, km))
	}

	snap := f.Snapshot()
	require.Len(t, snap.Distances, 1)
	var kms []float64
	for _, p := range snap.Distances[0].CutOffPoints {
		kms = append(kms, p.KmMark)
	}
	assert.Equal(t, []float64{10, 20, 30}, kms)

	slot, err := f.DistanceSlot(slotID)
	require.NoError(t, err)
	assert.Equal(t, 30.0, slot.CutOffPoints()[0].KmMark)
}

func TestToggleRaceTypeIsIdempotent(t *testing.T) {
	f := New(testDefaults())
	f.ToggleRaceType("road", true)
	f.ToggleRaceType("road", true)
	f.ToggleRaceType("trail", true)
	f.ToggleRaceType("trail", false)
	f.ToggleRaceType("trail", false)

	assert.Equal(t, []string{"road"}, f.RaceTypes())
}

func TestRPCEditing(t *testing.T) {
	f := New(testDefaults())
	locID := f.RPCLocationIDs()[0]
	require.NoError(t, f.SetRPCLocationName(locID, "Mall Senayan"))

	snap := f.Snapshot()
	firstDate := snap.RPCInfo[0].Dates[0].ID
	require.NoError(t, f.SetRPCDateField(locID, firstDate, FieldRPCDate, "2025-06-13"))

	next, err := f.AddRPCDate(locID)
	require.NoError(t, err)
	snap = f.Snapshot()
	require.Len(t, snap.RPCInfo[0].Dates, 2)
	assert.Equal(t, next, snap.RPCInfo[0].Dates[1].ID)
	assert.Equal(t, "2025-06-13", snap.RPCInfo[0].Dates[1].Date)

	require.NoError(t, f.RemoveRPCDate(locID, firstDate))
	assert.ErrorIs(t, f.SetRPCDateField(locID, firstDate, FieldRPCTimeEnd, "21:00"), ErrUnknownElement)
	assert.ErrorIs(t, f.SetRPCDateField(locID, next, "capacity", "1"), ErrUnknownField)

	require.NoError(t, f.RemoveRPCLocation(locID))
	assert.Empty(t, f.Snapshot().RPCInfo)

	emptyLoc := f.AddRPCLocation()
	require.NoError(t, f.RemoveRPCDate(emptyLoc, f.Snapshot().RPCInfo[0].Dates[0].ID))
	_, err = f.AddRPCDate(emptyLoc)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-02", f.Snapshot().RPCInfo[0].Dates[0].Date)
}

func TestLinkEditing(t *testing.T) {
	f := New(testDefaults())
	id, err := f.AddLink(ResultsLinks, "Hasil 10K")
	require.NoError(t, err)
	require.NoError(t, f.SetLinkField(ResultsLinks, id, FieldLinkURL, " https://results.example/10k "))

	links := f.Links(ResultsLinks)
	require.Len(t, links, 2)
	assert.Equal(t, "https://results.example/10k", links[1].URL)

	for _, l := range f.Links(DocsLinks) {
		require.NoError(t, f.RemoveLink(DocsLinks, l.ID))
	}
	assert.Empty(t, f.Links(DocsLinks))

	_, err = f.AddLink(LinkList("press"), "x")
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.ErrorIs(t, f.RemoveLink(ResultsLinks, "missing"), ErrUnknownElement)
}

func TestUploadStatusTracking(t *testing.T) {
	f := New(testDefaults())
	slotID := f.AddDistanceSlot()

	require.NoError(t, f.MarkUploadPending(slotID))
	assert.True(t, f.HasPendingUpload())

	require.NoError(t, f.FailUpload(slotID, "unsupported media"))
	assert.False(t, f.HasPendingUpload())
	slot, _ := f.DistanceSlot(slotID)
	assert.Equal(t, UploadFailed, slot.Upload)
	assert.Equal(t, "unsupported media", slot.UploadError)

	require.NoError(t, f.MarkUploadPending(slotID))
	require.NoError(t, f.CompleteUpload(slotID, "http://localhost/assets/route.png"))
	slot, _ = f.DistanceSlot(slotID)
	assert.Equal(t, UploadIdle, slot.Upload)
	assert.Empty(t, slot.UploadError)
	assert.Equal(t, "http://localhost/assets/route.png", slot.RouteImageURL)
}

func TestFromPersistedDecodesStorageEncodings(t *testing.T) {
	end := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	route := "http://localhost/assets/fm.png"
	agg := &models.EventAggregate{
		Event: models.Event{
			ID:          "event-1",
			SeriesID:    "series-9",
			Year:        2025,
			DateStart:   time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
			DateEnd:     &end,
			Location:    "Magelang",
			IsPublished: true,
			RPCInfo: models.RPCSchedule{{
				LocationName: "Artos Mall",
				Dates:        []models.RPCDateWindow{{Date: "2025-06-13", TimeStart: "09:00", TimeEnd: "21:00"}},
			}},
			ResultsLinks: models.LinkList{{Label: "Hasil", URL: "https://results.example"}},
		},
		Distances: []models.EventDistanceDetail{{
			EventDistance: models.EventDistance{
				EventID:       "event-1",
				DistanceID:    "fm",
				PriceMin:      450000,
				FlagOffTime:   time.Date(2025, 6, 14, 22, 30, 0, 0, time.UTC),
				CutOffTimeHrs: 7.5,
				CutOffPoints:  models.CutOffPointList{{KmMark: 21.1, TimeLimitHrs: 3.25}},
				RouteImageURL: &route,
			},
		}},
		RaceTypes: []models.EventRaceTypeDetail{{EventRaceType: models.EventRaceType{EventID: "event-1", TypeID: "road"}}},
	}

	f := FromPersisted(agg, testDefaults())
	snap := f.Snapshot()

	assert.Equal(t, ModeEdit, snap.Mode)
	assert.Equal(t, "event-1", snap.EventID)
	assert.True(t, snap.IsMultiDay)
	assert.Equal(t, "2025-06-16", snap.DateEnd)
	assert.Equal(t, []string{"road"}, snap.RaceTypes)
	require.Len(t, snap.Distances, 1)
	dist := snap.Distances[0]
	assert.Equal(t, "2025-06-15", dist.FlagOffDate)
	assert.Equal(t, "05:30", dist.FlagOffTime)
	assert.Equal(t, "07:30", dist.CutOffDisplay)
	assert.Equal(t, route, dist.RouteImageURL)
	require.Len(t, dist.CutOffPoints, 1)
	assert.Equal(t, "03:15", dist.CutOffPoints[0].TimeLimit)
	require.Len(t, snap.RPCInfo, 1)
	assert.Equal(t, "Artos Mall", snap.RPCInfo[0].LocationName)
	require.Len(t, snap.ResultsLinks, 1)
	assert.Equal(t, "Hasil", snap.ResultsLinks[0].Label)
	require.Len(t, snap.DocsLinks, 1)
	assert.Equal(t, DefaultDocsLabel, snap.DocsLinks[0].Label)
}

func TestFromPersistedSeedsMissingRPC(t *testing.T) {
	agg := &models.EventAggregate{Event: models.Event{ID: "event-1", DateStart: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)}}
	snap := FromPersisted(agg, testDefaults()).Snapshot()

	require.Len(t, snap.RPCInfo, 1)
	assert.Equal(t, "2025-03-02", snap.RPCInfo[0].Dates[0].Date)
	assert.Equal(t, 2025, snap.EventYear)
	assert.False(t, snap.IsMultiDay)
}
