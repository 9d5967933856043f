package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/run-directory-api/internal/dto"
	"github.com/noah-isme/run-directory-api/internal/models"
	appErrors "github.com/noah-isme/run-directory-api/pkg/errors"
	"github.com/noah-isme/run-directory-api/pkg/export"
)

type directoryListerStub struct {
	items   []dto.DirectoryItem
	queries []dto.DirectoryQuery
}

func (s *directoryListerStub) All(ctx context.Context, query dto.DirectoryQuery) ([]dto.DirectoryItem, error) {
	s.queries = append(s.queries, query)
	return s.items, nil
}

type sheetRecorder struct {
	sheets []export.Sheet
}

func (r *sheetRecorder) RenderSheet(sheet export.Sheet) ([]byte, error) {
	r.sheets = append(r.sheets, sheet)
	return []byte("%PDF-1.3"), nil
}

func newExportFixture(pdf sheetRenderer) (*ExportService, *aggregateLoaderStub, *directoryListerStub) {
	agg := storedAggregate()
	agg.Series = &models.Series{ID: "series-1", Name: "Jakarta Marathon", Organizer: "Dinas Pemuda dan Olahraga"}
	agg.Distances[0].PriceMin = 350000
	agg.RaceTypes = []models.EventRaceTypeDetail{{TypeName: "Road Race"}}
	loader := &aggregateLoaderStub{agg: agg}
	lister := &directoryListerStub{}
	svc := NewExportService(loader, lister, ExportConfig{
		Location: wib,
		Now:      func() time.Time { return time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC) },
	}, nil, nil, pdf)
	return svc, loader, lister
}

func calendarEvents(t *testing.T, body []byte) map[string]*ical.VEvent {
	t.Helper()
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	require.NoError(t, err)
	out := make(map[string]*ical.VEvent)
	for _, ev := range cal.Events() {
		uid := ev.GetProperty(ical.ComponentPropertyUniqueId)
		require.NotNil(t, uid)
		out[uid.Value] = ev
	}
	return out
}

func propertyValue(ev *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ev.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

func TestExportCalendar(t *testing.T) {
	svc, _, _ := newExportFixture(nil)

	file, err := svc.Calendar(context.Background(), "ev-1")
	require.NoError(t, err)
	assert.Equal(t, "jakarta-marathon-2025.ics", file.Filename)
	assert.True(t, strings.HasPrefix(string(file.Body), "BEGIN:VCALENDAR"))

	events := calendarEvents(t, file.Body)
	require.Len(t, events, 3)

	day := events["ev-1@run-directory"]
	require.NotNil(t, day)
	assert.Equal(t, "Jakarta Marathon 2025", propertyValue(day, ical.ComponentPropertySummary))
	assert.Equal(t, "20250615", propertyValue(day, ical.ComponentPropertyDtStart))
	assert.Equal(t, "20250616", propertyValue(day, ical.ComponentPropertyDtEnd))

	flagOff := events["ev-1-hm@run-directory"]
	require.NotNil(t, flagOff)
	assert.Equal(t, "20250614T220000Z", propertyValue(flagOff, ical.ComponentPropertyDtStart))
	assert.Equal(t, "20250615T013000Z", propertyValue(flagOff, ical.ComponentPropertyDtEnd))
	assert.Equal(t, "Cut-off 03:30", propertyValue(flagOff, ical.ComponentPropertyDescription))

	rpc := events["ev-1-rpc-0-0@run-directory"]
	require.NotNil(t, rpc)
	assert.Equal(t, "Mall Senayan", propertyValue(rpc, ical.ComponentPropertyLocation))
	assert.Equal(t, "20250613T030000Z", propertyValue(rpc, ical.ComponentPropertyDtStart))
	assert.Equal(t, "20250613T130000Z", propertyValue(rpc, ical.ComponentPropertyDtEnd))
}

func TestExportCalendarFlagOffWithoutCutOff(t *testing.T) {
	svc, loader, _ := newExportFixture(nil)
	loader.agg.Distances[0].CutOffTimeHrs = 0

	file, err := svc.Calendar(context.Background(), "ev-1")
	require.NoError(t, err)
	flagOff := calendarEvents(t, file.Body)["ev-1-hm@run-directory"]
	require.NotNil(t, flagOff)
	assert.Equal(t, "20250614T230000Z", propertyValue(flagOff, ical.ComponentPropertyDtEnd))
}

func TestExportCalendarUnpublished(t *testing.T) {
	svc, loader, _ := newExportFixture(nil)
	loader.err = appErrors.Clone(appErrors.ErrNotFound, "event not found")

	_, err := svc.Calendar(context.Background(), "draft")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestExportDirectoryCSV(t *testing.T) {
	svc, _, lister := newExportFixture(nil)
	lister.items = []dto.DirectoryItem{{
		SeriesName:    "Jakarta Marathon",
		EventYear:     2025,
		DateRange:     "15 Juni 2025",
		Location:      "Gelora Bung Karno",
		DistanceNames: "10K, Half Marathon",
		DistanceRange: "10 - 21.1 km",
	}}

	file, err := svc.DirectoryCSV(context.Background(), dto.DirectoryQuery{Search: "jakarta"})
	require.NoError(t, err)
	assert.Equal(t, "events_upcoming_20250302.csv", file.Filename)
	assert.Equal(t, "Series,Tahun,Tanggal,Lokasi,Jarak,Rentang Jarak\n"+
		"Jakarta Marathon,2025,15 Juni 2025,Gelora Bung Karno,\"10K, Half Marathon\",10 - 21.1 km\n", string(file.Body))
	require.Len(t, lister.queries, 1)
	assert.Equal(t, "jakarta", lister.queries[0].Search)
}

func TestExportSheet(t *testing.T) {
	recorder := &sheetRecorder{}
	svc, _, _ := newExportFixture(recorder)

	file, err := svc.Sheet(context.Background(), "ev-1")
	require.NoError(t, err)
	assert.Equal(t, "jakarta-marathon-2025.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)

	require.Len(t, recorder.sheets, 1)
	sheet := recorder.sheets[0]
	assert.Equal(t, "Jakarta Marathon 2025", sheet.Title)
	assert.Contains(t, sheet.Fields, export.Field{Label: "Penyelenggara", Value: "Dinas Pemuda dan Olahraga"})
	assert.Contains(t, sheet.Fields, export.Field{Label: "Kategori", Value: "Road Race"})
	require.Len(t, sheet.Sections, 2)
	row := sheet.Sections[0].Data.Rows[0]
	assert.Equal(t, "15 Juni 2025 05:00", row["Flag-off"])
	assert.Equal(t, "03:30", row["Cut-off"])
	assert.Equal(t, "Rp 350.000", row["Harga Mulai"])
	assert.Equal(t, "13 Juni 2025", sheet.Sections[1].Data.Rows[0]["Tanggal"])
}

func TestExportSheetRendersPDF(t *testing.T) {
	svc, _, _ := newExportFixture(nil)

	file, err := svc.Sheet(context.Background(), "ev-1")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF")))
}
