package models

// Distance is a reusable race distance definition.
type Distance struct {
	ID        string  `db:"id" json:"id"`
	Name      string  `db:"distance_name" json:"distance_name"`
	Km        float64 `db:"distance_km" json:"distance_km"`
	SortOrder int     `db:"sort_order" json:"sort_order"`
}

// RaceType is a reusable race category such as "Road Race" or "Trail".
type RaceType struct {
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"type_name" json:"type_name"`
	Description *string `db:"description" json:"description,omitempty"`
	SortOrder   int     `db:"sort_order" json:"sort_order"`
}

// MoveDirection selects the neighbour a master row swaps sort_order with.
type MoveDirection string

const (
	MoveUp   MoveDirection = "up"
	MoveDown MoveDirection = "down"
)
