package model

import "time"

// Registration statuses. A row is inserted as confirmed and may be
// flipped to cancelled exactly once; it is never deleted and never
// returns to confirmed. Re-registering after a cancellation creates a
// new row.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Registration records one user's sign-up for one event. The store
// enforces that at most one row per (user, event) pair has status
// confirmed at any time; cancelled rows are exempt from that
// constraint.
//
// Fields:
//  ID           – primary key identifier.
//  UserID       – user who registered.
//  EventID      – event registered for.
//  Status       – StatusConfirmed or StatusCancelled.
//  RegisteredAt – when the registration was created (UTC).
type Registration struct {
	ID           uint64    `json:"id"`           // registrations.id
	UserID       uint64    `json:"user"`         // registrations.user_id
	EventID      uint64    `json:"event"`        // registrations.event_id
	Status       string    `json:"status"`       // registrations.status
	RegisteredAt time.Time `json:"registeredAt"` // registrations.registered_at
}
