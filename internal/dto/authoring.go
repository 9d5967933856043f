package dto

import (
	"time"

	"github.com/noah-isme/run-directory-api/internal/authoring"
)

// Authoring operation names accepted by PATCH /admin/authoring/:session.
const (
	OpSetField            = "set_field"
	OpToggleRaceType      = "toggle_race_type"
	OpAddDistance         = "add_distance"
	OpRemoveDistance      = "remove_distance"
	OpSetDistanceField    = "set_distance_field"
	OpAddCutOffPoint      = "add_cut_off_point"
	OpRemoveCutOffPoint   = "remove_cut_off_point"
	OpSetCutOffPointField = "set_cut_off_point_field"
	OpAddRPCLocation      = "add_rpc_location"
	OpRemoveRPCLocation   = "remove_rpc_location"
	OpSetRPCLocationName  = "set_rpc_location_name"
	OpAddRPCDate          = "add_rpc_date"
	OpRemoveRPCDate       = "remove_rpc_date"
	OpSetRPCDateField     = "set_rpc_date_field"
	OpAddLink             = "add_link"
	OpRemoveLink          = "remove_link"
	OpSetLinkField        = "set_link_field"
)

// OpenAuthoringRequest starts a session for a new event or an existing one.
type OpenAuthoringRequest struct {
	Mode     string `json:"mode" validate:"required,oneof=add edit"`
	EventID  string `json:"event_id" validate:"required_if=Mode edit"`
	SeriesID string `json:"series_id"`
}

// AuthoringOperation is one edit applied to a session form. Which ids are
// required depends on Op.
type AuthoringOperation struct {
	Op         string `json:"op" validate:"required,oneof=set_field toggle_race_type add_distance remove_distance set_distance_field add_cut_off_point remove_cut_off_point set_cut_off_point_field add_rpc_location remove_rpc_location set_rpc_location_name add_rpc_date remove_rpc_date set_rpc_date_field add_link remove_link set_link_field"`
	Field      string `json:"field,omitempty"`
	Value      string `json:"value,omitempty"`
	Selected   bool   `json:"selected,omitempty"`
	TypeID     string `json:"type_id,omitempty"`
	SlotID     string `json:"slot_id,omitempty"`
	PointID    string `json:"point_id,omitempty"`
	LocationID string `json:"location_id,omitempty"`
	DateID     string `json:"date_id,omitempty"`
	List       string `json:"list,omitempty" validate:"omitempty,oneof=results_links docs_links"`
	LinkID     string `json:"link_id,omitempty"`
	Label      string `json:"label,omitempty"`
}

// AuthoringSessionView is returned by every authoring call.
type AuthoringSessionView struct {
	SessionID string             `json:"session_id"`
	State     string             `json:"state"`
	LastError string             `json:"last_error,omitempty"`
	CreatedID string             `json:"created_id,omitempty"`
	ExpiresAt time.Time          `json:"expires_at"`
	Form      authoring.Snapshot `json:"form"`
}

// ValidationResult reports the outcome of a dry-run validation.
type ValidationResult struct {
	Valid      bool                 `json:"valid"`
	Violations authoring.Violations `json:"violations"`
}

// RouteImageUploadAccepted acknowledges a queued route image upload.
type RouteImageUploadAccepted struct {
	SessionID string `json:"session_id"`
	SlotID    string `json:"slot_id"`
	Status    string `json:"status"`
	Key       string `json:"key"`
}
