package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/noah-isme/run-directory-api/internal/directory"
	"github.com/noah-isme/run-directory-api/internal/dto"
	"github.com/noah-isme/run-directory-api/internal/models"
	appErrors "github.com/noah-isme/run-directory-api/pkg/errors"
	"github.com/noah-isme/run-directory-api/pkg/export"
	"github.com/noah-isme/run-directory-api/pkg/timecodec"
)

const calendarProductID = "-//run-directory-api//events//ID"

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type sheetRenderer interface {
	RenderSheet(sheet export.Sheet) ([]byte, error)
}

type directoryLister interface {
	All(ctx context.Context, query dto.DirectoryQuery) ([]dto.DirectoryItem, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Location *time.Location
	Now      func() time.Time
}

// ExportFile is a rendered document ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders published events as calendars, CSV and PDF sheets.
type ExportService struct {
	loader    aggregateLoader
	directory directoryLister
	csv       csvRenderer
	pdf       sheetRenderer
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(loader aggregateLoader, directory directoryLister, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf sheetRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if csv == nil {
		csv = export.NewCSVExporter(0)
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		loader:    loader,
		directory: directory,
		csv:       csv,
		pdf:       pdf,
		logger:    logger,
		cfg:       cfg,
	}
}

// Calendar renders an iCalendar feed for a published event: the event days,
// one entry per distance flag-off and one per race pack collection window.
func (s *ExportService) Calendar(ctx context.Context, id string) (*ExportFile, error) {
	agg, err := s.loader.LoadAggregate(ctx, id, true)
	if err != nil {
		return nil, err
	}
	title := eventTitle(agg)
	stamp := s.cfg.Now().UTC()

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName(title)

	day := cal.AddEvent(agg.Event.ID + "@run-directory")
	day.SetDtStampTime(stamp)
	day.SetModifiedAt(agg.Event.UpdatedAt)
	day.SetSummary(title)
	day.SetLocation(agg.Event.Location)
	day.SetAllDayStartAt(agg.Event.DateStart)
	last := agg.Event.DateStart
	if agg.Event.DateEnd != nil {
		last = *agg.Event.DateEnd
	}
	day.SetAllDayEndAt(last.AddDate(0, 0, 1))

	for _, d := range agg.Distances {
		flagOff := cal.AddEvent(fmt.Sprintf("%s-%s@run-directory", agg.Event.ID, d.DistanceID))
		flagOff.SetDtStampTime(stamp)
		flagOff.SetSummary(fmt.Sprintf("%s - Flag-off %s", title, d.DistanceName))
		flagOff.SetLocation(agg.Event.Location)
		flagOff.SetStartAt(d.FlagOffTime)
		flagOff.SetEndAt(d.FlagOffTime.Add(raceDuration(d.CutOffTimeHrs)))
		if d.CutOffTimeHrs > 0 {
			flagOff.SetDescription("Cut-off " + timecodec.HoursToClock(d.CutOffTimeHrs))
		}
	}

	for i, loc := range agg.Event.RPCInfo {
		for j, window := range loc.Dates {
			start, err := timecodec.CombineDateAndTime(window.Date, window.TimeStart, s.cfg.Location)
			if err != nil {
				s.logger.Warn("skipping unparseable rpc window", zap.String("event_id", id), zap.Error(err))
				continue
			}
			end, err := timecodec.CombineDateAndTime(window.Date, window.TimeEnd, s.cfg.Location)
			if err != nil || !end.After(start) {
				end = start.Add(time.Hour)
			}
			rpc := cal.AddEvent(fmt.Sprintf("%s-rpc-%d-%d@run-directory", agg.Event.ID, i, j))
			rpc.SetDtStampTime(stamp)
			rpc.SetSummary(fmt.Sprintf("%s - Race Pack Collection", title))
			rpc.SetLocation(loc.LocationName)
			rpc.SetStartAt(start)
			rpc.SetEndAt(end)
		}
	}

	return &ExportFile{
		Filename:    slugify(title) + ".ics",
		ContentType: "text/calendar; charset=utf-8",
		Body:        []byte(cal.Serialize()),
	}, nil
}

// DirectoryCSV renders every published event matching query.
func (s *ExportService) DirectoryCSV(ctx context.Context, query dto.DirectoryQuery) (*ExportFile, error) {
	items, err := s.directory.All(ctx, query)
	if err != nil {
		return nil, err
	}
	dataset := export.Dataset{
		Headers: []string{"Series", "Tahun", "Tanggal", "Lokasi", "Jarak", "Rentang Jarak"},
		Rows:    make([]map[string]string, 0, len(items)),
	}
	for _, item := range items {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Series":        item.SeriesName,
			"Tahun":         strconv.Itoa(item.EventYear),
			"Tanggal":       item.DateRange,
			"Lokasi":        item.Location,
			"Jarak":         item.DistanceNames,
			"Rentang Jarak": item.DistanceRange,
		})
	}
	body, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	filter := query.Filter
	if filter == "" {
		filter = string(directory.ModeUpcoming)
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("events_%s_%s.csv", slugify(filter), s.cfg.Now().In(s.cfg.Location).Format("20060102")),
		ContentType: "text/csv; charset=utf-8",
		Body:        body,
	}, nil
}

// Sheet renders a printable PDF summary of a published event.
func (s *ExportService) Sheet(ctx context.Context, id string) (*ExportFile, error) {
	agg, err := s.loader.LoadAggregate(ctx, id, true)
	if err != nil {
		return nil, err
	}
	title := eventTitle(agg)
	sheet := export.Sheet{
		Title: title,
		Fields: []export.Field{
			{Label: "Tanggal", Value: directory.FormatDateRange(agg.Event.DateStart, agg.Event.DateEnd)},
			{Label: "Lokasi", Value: agg.Event.Location},
		},
	}
	if agg.Series != nil && agg.Series.Organizer != "" {
		sheet.Fields = append(sheet.Fields, export.Field{Label: "Penyelenggara", Value: agg.Series.Organizer})
	}
	if len(agg.RaceTypes) > 0 {
		names := make([]string, 0, len(agg.RaceTypes))
		for _, rt := range agg.RaceTypes {
			names = append(names, rt.TypeName)
		}
		sheet.Fields = append(sheet.Fields, export.Field{Label: "Kategori", Value: strings.Join(names, ", ")})
	}

	distances := export.Dataset{Headers: []string{"Jarak", "Flag-off", "Cut-off", "Harga Mulai"}}
	for _, d := range agg.Distances {
		_, clock := timecodec.SplitTimestamp(d.FlagOffTime, s.cfg.Location)
		distances.Rows = append(distances.Rows, map[string]string{
			"Jarak":       d.DistanceName,
			"Flag-off":    directory.FormatDate(d.FlagOffTime.In(s.cfg.Location)) + " " + clock,
			"Cut-off":     timecodec.HoursToClock(d.CutOffTimeHrs),
			"Harga Mulai": formatRupiah(d.PriceMin),
		})
	}
	sheet.Sections = append(sheet.Sections, export.Section{Title: "Jarak", Data: distances})

	rpc := export.Dataset{Headers: []string{"Lokasi", "Tanggal", "Jam"}}
	for _, loc := range agg.Event.RPCInfo {
		for _, window := range loc.Dates {
			date := window.Date
			if parsed, err := timecodec.ParseDate(window.Date); err == nil {
				date = directory.FormatDate(parsed)
			}
			rpc.Rows = append(rpc.Rows, map[string]string{
				"Lokasi":  loc.LocationName,
				"Tanggal": date,
				"Jam":     window.TimeStart + " - " + window.TimeEnd,
			})
		}
	}
	if len(rpc.Rows) > 0 {
		sheet.Sections = append(sheet.Sections, export.Section{Title: "Pengambilan Race Pack", Data: rpc})
	}

	body, err := s.pdf.RenderSheet(sheet)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return &ExportFile{
		Filename:    slugify(title) + ".pdf",
		ContentType: "application/pdf",
		Body:        body,
	}, nil
}

func eventTitle(agg *models.EventAggregate) string {
	name := MissingSeriesLabel
	if agg.Series != nil && agg.Series.Name != "" {
		name = agg.Series.Name
	}
	return fmt.Sprintf("%s %d", name, agg.Event.Year)
}

// raceDuration is the calendar length of a flag-off entry, one hour when no
// cut-off is set.
func raceDuration(cutOffHours float64) time.Duration {
	if cutOffHours <= 0 {
		return time.Hour
	}
	return time.Duration(cutOffHours * float64(time.Hour)).Round(time.Minute)
}

func formatRupiah(v float64) string {
	if v <= 0 {
		return "-"
	}
	digits := strconv.FormatInt(int64(v), 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return "Rp " + b.String()
}
