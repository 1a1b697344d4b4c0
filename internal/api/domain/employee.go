package domain

import "time"

// Employee is a staff record. IDs are UUIDs assigned by the service on
// creation.
type Employee struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
