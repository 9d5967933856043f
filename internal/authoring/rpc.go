package authoring

import (
	"fmt"
	"strings"
)

// RPC window field names accepted by SetRPCDateField.
const (
	FieldRPCDate      = "date"
	FieldRPCTimeStart = "time_start"
	FieldRPCTimeEnd   = "time_end"
)

// RPCWindow is one race-pack collection opening at a location.
type RPCWindow struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	TimeStart string `json:"time_start"`
	TimeEnd   string `json:"time_end"`
}

// RPCLocation is a race-pack collection venue.
type RPCLocation struct {
	ID   string
	Name string

	dates *arena[RPCWindow]
}

// AddRPCLocation appends a location holding one default window for today.
func (f *Form) AddRPCLocation() string {
	loc := &RPCLocation{ID: newElementID(), dates: newArena[RPCWindow]()}
	f.rpc.add(loc.ID, loc)
	loc.addWindow(f.today)
	return loc.ID
}

// RemoveRPCLocation drops a location and its windows.
func (f *Form) RemoveRPCLocation(locID string) error {
	if !f.rpc.remove(locID) {
		return unknownElement("rpc location", locID)
	}
	return nil
}

// SetRPCLocationName renames a location.
func (f *Form) SetRPCLocationName(locID, name string) error {
	loc, err := f.rpcLocation(locID)
	if err != nil {
		return err
	}
	loc.Name = name
	return nil
}

// AddRPCDate appends a window copying the date of the location's last window,
// or today when the location has none.
func (f *Form) AddRPCDate(locID string) (string, error) {
	loc, err := f.rpcLocation(locID)
	if err != nil {
		return "", err
	}
	date := f.today
	if last, ok := loc.dates.last(); ok && last.Date != "" {
		date = last.Date
	}
	return loc.addWindow(date), nil
}

// RemoveRPCDate drops one window from a location.
func (f *Form) RemoveRPCDate(locID, dateID string) error {
	loc, err := f.rpcLocation(locID)
	if err != nil {
		return err
	}
	if !loc.dates.remove(dateID) {
		return unknownElement("rpc date", dateID)
	}
	return nil
}

// SetRPCDateField updates date, time_start or time_end of one window.
func (f *Form) SetRPCDateField(locID, dateID, field, value string) error {
	loc, err := f.rpcLocation(locID)
	if err != nil {
		return err
	}
	window, ok := loc.dates.get(dateID)
	if !ok {
		return unknownElement("rpc date", dateID)
	}
	value = strings.TrimSpace(value)
	switch field {
	case FieldRPCDate:
		window.Date = value
	case FieldRPCTimeStart:
		window.TimeStart = value
	case FieldRPCTimeEnd:
		window.TimeEnd = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

// RPCLocationIDs lists location ids in insertion order.
func (f *Form) RPCLocationIDs() []string {
	return append([]string(nil), f.rpc.order...)
}

// Windows returns the location's windows in insertion order.
func (l *RPCLocation) Windows() []RPCWindow {
	out := make([]RPCWindow, 0, l.dates.len())
	for _, w := range l.dates.list() {
		out = append(out, *w)
	}
	return out
}

func (l *RPCLocation) addWindow(date string) string {
	w := &RPCWindow{
		ID:        newElementID(),
		Date:      date,
		TimeStart: DefaultRPCTimeStart,
		TimeEnd:   DefaultRPCTimeEnd,
	}
	l.dates.add(w.ID, w)
	return w.ID
}

func (f *Form) seedRPC() {
	f.AddRPCLocation()
}

func (f *Form) rpcLocation(locID string) (*RPCLocation, error) {
	loc, ok := f.rpc.get(locID)
	if !ok {
		return nil, unknownElement("rpc location", locID)
	}
	return loc, nil
}
