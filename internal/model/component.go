package model

import "time"

// Component is the single domain entity managed by this service: a named item
// with an optional serialized parameter blob and at most one file attachment
// kept in object storage under the key prefix "components/<id>".
// This is a pure domain model with no database-specific dependencies or tags.
type Component struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Parameters holds an arbitrary configuration value serialized to JSON
	// text before persistence. Nil means the value was never set.
	Parameters *string   `json:"parameters"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
