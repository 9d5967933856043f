package authoring

import (
	"fmt"
	"strings"

	"github.com/noah-isme/run-directory-api/pkg/timecodec"
)

// Distance slot field names accepted by SetDistanceField.
const (
	FieldDistanceID     = "distance_id"
	FieldPriceMin       = "price_min"
	FieldCutOffDisplay  = "cut_off_time_hrs_display"
	FieldFlagOffDate    = "flag_off_date"
	FieldFlagOffTime    = "flag_off_time"
	FieldRouteImageURL  = "route_image_url"
	FieldKmMark         = "km_mark"
	FieldTimeLimitHours = "time_limit_hrs"
)

// UploadStatus tracks the route image upload attached to a distance slot.
type UploadStatus string

const (
	UploadIdle    UploadStatus = "idle"
	UploadPending UploadStatus = "pending"
	UploadFailed  UploadStatus = "failed"
)

// CutOffPoint is an intermediate checkpoint. The limit stays a clock string
// until the payload is built.
type CutOffPoint struct {
	ID        string  `json:"id"`
	KmMark    float64 `json:"km_mark"`
	TimeLimit string  `json:"time_limit_hrs"`
}

// DistanceSlot is one chosen race distance with its timing and pricing.
// CutOffDisplay and CutOffHours always describe the same duration.
type DistanceSlot struct {
	ID            string
	DistanceID    string
	PriceMin      float64
	CutOffDisplay string
	CutOffHours   float64
	FlagOffDate   string
	FlagOffTime   string
	RouteImageURL string
	Upload        UploadStatus
	UploadError   string

	points *arena[CutOffPoint]
}

// AddDistanceSlot appends an empty slot whose flag-off date defaults to the
// event start date, and returns its id.
func (f *Form) AddDistanceSlot() string {
	slot := &DistanceSlot{
		ID:            newElementID(),
		CutOffDisplay: timecodec.ZeroClock,
		FlagOffDate:   f.DateStart,
		FlagOffTime:   DefaultFlagOffTime,
		Upload:        UploadIdle,
		points:        newArena[CutOffPoint](),
	}
	f.distances.add(slot.ID, slot)
	return slot.ID
}

// RemoveDistanceSlot drops a slot and its cut-off points.
func (f *Form) RemoveDistanceSlot(slotID string) error {
	if !f.distances.remove(slotID) {
		return unknownElement("distance slot", slotID)
	}
	return nil
}

// SetDistanceField updates one slot field. Numeric input is coerced through
// timecodec.ParseNonNegativeNumber and never fails.
func (f *Form) SetDistanceField(slotID, field, value string) error {
	slot, err := f.slot(slotID)
	if err != nil {
		return err
	}
	switch field {
	case FieldDistanceID:
		slot.DistanceID = strings.TrimSpace(value)
	case FieldPriceMin:
		slot.PriceMin = timecodec.ParseNonNegativeNumber(value)
	case FieldCutOffDisplay:
		slot.CutOffDisplay = value
		slot.CutOffHours = timecodec.ClockToHours(value)
	case FieldFlagOffDate:
		slot.FlagOffDate = strings.TrimSpace(value)
	case FieldFlagOffTime:
		slot.FlagOffTime = strings.TrimSpace(value)
	case FieldRouteImageURL:
		slot.RouteImageURL = strings.TrimSpace(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

// AddCutOffPoint appends a point at km 0 with a "00:00" limit and returns its id.
func (f *Form) AddCutOffPoint(slotID string) (string, error) {
	slot, err := f.slot(slotID)
	if err != nil {
		return "", err
	}
	point := &CutOffPoint{ID: newElementID(), TimeLimit: timecodec.ZeroClock}
	slot.points.add(point.ID, point)
	return point.ID, nil
}

// RemoveCutOffPoint drops one point from a slot.
func (f *Form) RemoveCutOffPoint(slotID, pointID string) error {
	slot, err := f.slot(slotID)
	if err != nil {
		return err
	}
	if !slot.points.remove(pointID) {
		return unknownElement("cut-off point", pointID)
	}
	return nil
}

// SetCutOffPointField updates km_mark (coerced) or time_limit_hrs (kept verbatim).
func (f *Form) SetCutOffPointField(slotID, pointID, field, value string) error {
	slot, err := f.slot(slotID)
	if err != nil {
		return err
	}
	point, ok := slot.points.get(pointID)
	if !ok {
		return unknownElement("cut-off point", pointID)
	}
	switch field {
	case FieldKmMark:
		point.KmMark = timecodec.ParseNonNegativeNumber(value)
	case FieldTimeLimitHours:
		point.TimeLimit = strings.TrimSpace(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

// MarkUploadPending flags a slot as waiting on a route image upload.
func (f *Form) MarkUploadPending(slotID string) error {
	slot, err := f.slot(slotID)
	if err != nil {
		return err
	}
	slot.Upload = UploadPending
	slot.UploadError = ""
	return nil
}

// CompleteUpload stores the uploaded image URL and clears the pending flag.
func (f *Form) CompleteUpload(slotID, url string) error {
	slot, err := f.slot(slotID)
	if err != nil {
		return err
	}
	slot.Upload = UploadIdle
	slot.UploadError = ""
	slot.RouteImageURL = url
	return nil
}

// FailUpload records an upload failure on the slot. The previous URL is kept.
func (f *Form) FailUpload(slotID, reason string) error {
	slot, err := f.slot(slotID)
	if err != nil {
		return err
	}
	slot.Upload = UploadFailed
	slot.UploadError = reason
	return nil
}

// DistanceSlot returns a copy of the slot addressed by slotID.
func (f *Form) DistanceSlot(slotID string) (DistanceSlot, error) {
	slot, err := f.slot(slotID)
	if err != nil {
		return DistanceSlot{}, err
	}
	return *slot, nil
}

// DistanceSlotIDs lists slot ids in insertion order.
func (f *Form) DistanceSlotIDs() []string {
	return append([]string(nil), f.distances.order...)
}

// HasPendingUpload reports whether any slot is still waiting on an upload.
func (f *Form) HasPendingUpload() bool {
	for _, slot := range f.distances.list() {
		if slot.Upload == UploadPending {
			return true
		}
	}
	return false
}

// CutOffPoints returns a slot's points in insertion order.
func (s *DistanceSlot) CutOffPoints() []CutOffPoint {
	if s.points == nil {
		return nil
	}
	out := make([]CutOffPoint, 0, s.points.len())
	for _, p := range s.points.list() {
		out = append(out, *p)
	}
	return out
}

func (f *Form) slot(slotID string) (*DistanceSlot, error) {
	slot, ok := f.distances.get(slotID)
	if !ok {
		return nil, unknownElement("distance slot", slotID)
	}
	return slot, nil
}

func unknownElement(kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrUnknownElement, kind, id)
}
