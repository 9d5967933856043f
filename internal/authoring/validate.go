package authoring

import (
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/run-directory-api/pkg/timecodec"
)

// Violation codes reported by Validate.
const (
	CodeUploadPending      = "UPLOAD_PENDING"
	CodeRequired           = "REQUIRED"
	CodeInvalidDate        = "INVALID_DATE"
	CodeInvalidTime        = "INVALID_TIME"
	CodeFlagOffDateMissing = "FLAG_OFF_DATE_REQUIRED"
	CodeDateEndMissing     = "DATE_END_REQUIRED"
	CodeDateEndBeforeStart = "DATE_END_BEFORE_START"
	CodeNoDistances        = "DISTANCE_REQUIRED"
	CodeDistanceUnselected = "DISTANCE_UNSELECTED"
	CodeDuplicateDistance  = "DISTANCE_DUPLICATE"
	CodeRPCIncomplete      = "RPC_INCOMPLETE"
	CodeInvalidReference   = "INVALID_REFERENCE"
)

// Violation is one reason a form cannot be submitted.
type Violation struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Violations is the ordered result of Validate. Empty means valid.
type Violations []Violation

// Valid reports whether no violation was found.
func (v Violations) Valid() bool {
	return len(v) == 0
}

// First returns the first violation, or nil when valid.
func (v Violations) First() *Violation {
	if len(v) == 0 {
		return nil
	}
	return &v[0]
}

// Has reports whether a violation with code was found.
func (v Violations) Has(code string) bool {
	for _, item := range v {
		if item.Code == code {
			return true
		}
	}
	return false
}

// IsID reports whether s is a canonical hyphenated UUID, the shape every
// stored key takes.
func IsID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// Validate checks the form and collects every violation in a fixed order:
// pending uploads, required event fields, flag-off dates, multi-day dates,
// distance selection, then RPC completeness.
func Validate(f *Form) Violations {
	var out Violations
	add := func(code, field, msg string) {
		out = append(out, Violation{Code: code, Field: field, Message: msg})
	}

	if f.HasPendingUpload() {
		add(CodeUploadPending, "distances", "wait for route image uploads to finish")
	}

	if strings.TrimSpace(f.SeriesID) == "" {
		add(CodeRequired, FieldSeriesID, "series is required")
	} else if !IsID(f.SeriesID) {
		add(CodeInvalidReference, FieldSeriesID, "series id is not a valid identifier")
	}
	if f.Year <= 0 {
		add(CodeRequired, FieldEventYear, "event year is required")
	}
	startOK := false
	if f.DateStart == "" {
		add(CodeRequired, FieldDateStart, "start date is required")
	} else if _, err := timecodec.ParseDate(f.DateStart); err != nil {
		add(CodeInvalidDate, FieldDateStart, "start date must be YYYY-MM-DD")
	} else {
		startOK = true
	}
	if strings.TrimSpace(f.Location) == "" {
		add(CodeRequired, FieldLocation, "event location is required")
	}

	slots := f.distances.list()
	for _, slot := range slots {
		field := "distances." + slot.ID + "." + FieldFlagOffDate
		if slot.FlagOffDate == "" {
			add(CodeFlagOffDateMissing, field, "flag-off date is required for every distance")
			continue
		}
		if _, err := timecodec.CombineDateAndTime(slot.FlagOffDate, slot.FlagOffTime, f.loc); err != nil {
			add(CodeInvalidTime, field, "flag-off date and time must be YYYY-MM-DD and HH:MM")
		}
	}

	if f.IsMultiDay {
		switch {
		case f.DateEnd == "":
			add(CodeDateEndMissing, FieldDateEnd, "end date is required for multi-day events")
		default:
			end, err := timecodec.ParseDate(f.DateEnd)
			if err != nil {
				add(CodeInvalidDate, FieldDateEnd, "end date must be YYYY-MM-DD")
			} else if startOK {
				start, _ := timecodec.ParseDate(f.DateStart)
				if end.Before(start) {
					add(CodeDateEndBeforeStart, FieldDateEnd, "end date cannot be before start date")
				}
			}
		}
	}

	if len(slots) == 0 {
		add(CodeNoDistances, "distances", "at least one distance is required")
	}
	seen := make(map[string]bool, len(slots))
	for _, slot := range slots {
		field := "distances." + slot.ID + "." + FieldDistanceID
		if slot.DistanceID == "" {
			add(CodeDistanceUnselected, field, "choose a distance for every slot")
			continue
		}
		if !IsID(slot.DistanceID) {
			add(CodeInvalidReference, field, "distance id is not a valid identifier")
			continue
		}
		if seen[slot.DistanceID] {
			add(CodeDuplicateDistance, field, "each distance can only be chosen once")
			continue
		}
		seen[slot.DistanceID] = true
	}

	for _, loc := range f.rpc.list() {
		field := "rpc_info." + loc.ID
		if strings.TrimSpace(loc.Name) == "" || loc.dates.len() == 0 {
			add(CodeRPCIncomplete, field, "every RPC location needs a name and at least one date")
			continue
		}
		for _, w := range loc.dates.list() {
			if w.Date == "" || w.TimeStart == "" || w.TimeEnd == "" {
				add(CodeRPCIncomplete, field+"."+w.ID, "every RPC date needs a date, start time and end time")
			}
		}
	}

	return out
}
