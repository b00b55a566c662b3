package models

import "time"

// Module is a named, persisted sub-graph.
type Module struct {
	Name      string    `json:"name"       validate:"required,min=1"`
	Payload   *Payload  `json:"payload"    validate:"required"`
	UpdatedAt time.Time `json:"updated_at"`
}
