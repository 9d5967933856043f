// Package authoring holds the editable, in-memory representation of one event
// aggregate and the edit, validation and payload-building rules around it.
package authoring

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/run-directory-api/pkg/timecodec"
)

// Mode distinguishes a fresh form from one hydrated from a stored event.
type Mode string

const (
	ModeAdd  Mode = "add"
	ModeEdit Mode = "edit"
)

// Scalar field names accepted by SetScalarField.
const (
	FieldSeriesID    = "series_id"
	FieldEventYear   = "event_year"
	FieldDateStart   = "date_start"
	FieldDateEnd     = "date_end"
	FieldLocation    = "event_location"
	FieldIsMultiDay  = "is_multiday"
	FieldIsPublished = "is_published"
)

// Default values seeded into new forms and elements.
const (
	DefaultFlagOffTime  = "05:00"
	DefaultRPCTimeStart = "10:00"
	DefaultRPCTimeEnd   = "20:00"
	DefaultResultsLabel = "Hasil Utama"
	DefaultDocsLabel    = "Dokumentasi Utama"
)

var (
	// ErrUnknownElement is returned when an id does not address an element of the form.
	ErrUnknownElement = errors.New("unknown form element")
	// ErrUnknownField is returned for field names an element does not have.
	ErrUnknownField = errors.New("unknown form field")
	// ErrInvalidValue is returned when a value cannot be interpreted for its field.
	ErrInvalidValue = errors.New("invalid field value")
)

// Defaults carries the clock-dependent values used to seed a form.
type Defaults struct {
	Today    string
	Year     int
	SeriesID string
	Location *time.Location
}

// DefaultsAt derives Defaults from now in loc.
func DefaultsAt(now time.Time, loc *time.Location, seriesID string) Defaults {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return Defaults{
		Today:    local.Format(timecodec.DateLayout),
		Year:     local.Year(),
		SeriesID: seriesID,
		Location: loc,
	}
}

// Form is the editable state of one event aggregate. Nested elements are kept in
// id-keyed arenas so removals never shift the identity of their siblings.
// A Form is not safe for concurrent use.
type Form struct {
	EventID     string
	Mode        Mode
	SeriesID    string
	Year        int
	DateStart   string
	DateEnd     string
	Location    string
	IsMultiDay  bool
	IsPublished bool

	distances *arena[DistanceSlot]
	raceTypes []string
	rpc       *arena[RPCLocation]
	links     map[LinkList]*arena[Link]

	today string
	loc   *time.Location
}

func newForm(mode Mode, d Defaults) *Form {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	today := d.Today
	if today == "" {
		today = time.Now().In(loc).Format(timecodec.DateLayout)
	}
	return &Form{
		Mode:      mode,
		distances: newArena[DistanceSlot](),
		rpc:       newArena[RPCLocation](),
		links: map[LinkList]*arena[Link]{
			ResultsLinks: newArena[Link](),
			DocsLinks:    newArena[Link](),
		},
		today: today,
		loc:   loc,
	}
}

// New returns an add-mode form seeded with one RPC location holding one default
// window for today, and one empty link in each link list.
func New(d Defaults) *Form {
	f := newForm(ModeAdd, d)
	f.SeriesID = d.SeriesID
	f.Year = d.Year
	if f.Year == 0 {
		f.Year = time.Now().In(f.loc).Year()
	}
	f.seedRPC()
	f.seedLinks(ResultsLinks)
	f.seedLinks(DocsLinks)
	return f
}

// TimeLocation is the zone flag-off instants are interpreted in.
func (f *Form) TimeLocation() *time.Location {
	return f.loc
}

// SetScalarField updates one top-level event field. Turning is_multiday off
// clears the end date.
func (f *Form) SetScalarField(field, value string) error {
	switch field {
	case FieldSeriesID:
		f.SeriesID = strings.TrimSpace(value)
	case FieldEventYear:
		f.Year = timecodec.ParseLeadingInt(value)
	case FieldDateStart:
		f.DateStart = strings.TrimSpace(value)
	case FieldDateEnd:
		f.DateEnd = strings.TrimSpace(value)
	case FieldLocation:
		f.Location = value
	case FieldIsMultiDay:
		on, err := parseBool(field, value)
		if err != nil {
			return err
		}
		f.IsMultiDay = on
		if !on {
			f.DateEnd = ""
		}
	case FieldIsPublished:
		on, err := parseBool(field, value)
		if err != nil {
			return err
		}
		f.IsPublished = on
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

// ToggleRaceType adds or removes typeID from the selection. Repeating a toggle
// with the same arguments is a no-op.
func (f *Form) ToggleRaceType(typeID string, selected bool) {
	typeID = strings.TrimSpace(typeID)
	if typeID == "" {
		return
	}
	for i, existing := range f.raceTypes {
		if existing == typeID {
			if !selected {
				f.raceTypes = append(f.raceTypes[:i], f.raceTypes[i+1:]...)
			}
			return
		}
	}
	if selected {
		f.raceTypes = append(f.raceTypes, typeID)
	}
}

// RaceTypes returns the selected race type ids in selection order.
func (f *Form) RaceTypes() []string {
	return append([]string(nil), f.raceTypes...)
}

func parseBool(field, value string) (bool, error) {
	on, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("%w: %s expects a boolean", ErrInvalidValue, field)
	}
	return on, nil
}

func newElementID() string {
	return uuid.NewString()
}
