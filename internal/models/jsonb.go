package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/jmoiron/sqlx/types"
)

// decodeJSONB reads a JSONB column into dest. NULL leaves dest untouched.
func decodeJSONB(src interface{}, dest interface{}) error {
	var raw types.NullJSONText
	if err := raw.Scan(src); err != nil {
		return err
	}
	if !raw.Valid {
		return nil
	}
	return raw.Unmarshal(dest)
}

// encodeJSONB renders v as JSONB text. lib/pq sends []byte parameters as
// bytea, so the document goes out as a string.
func encodeJSONB(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return types.JSONText(b).String(), nil
}
