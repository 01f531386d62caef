// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names for registration lifecycle messages.
const (
	RegistrationConfirmedQueue = "registration.confirmed"
	RegistrationCancelledQueue = "registration.cancelled"
)

// RegistrationEvent is published when a registration is confirmed or
// cancelled. It carries enough information for downstream consumers to
// log, notify, or trigger analytics without querying the primary
// database.
type RegistrationEvent struct {
	RegistrationID uint64 `json:"registration_id"`
	UserID         uint64 `json:"user_id"`
	EventID        uint64 `json:"event_id"`
	EventName      string `json:"event_name"`
	EventDate      string `json:"event_date"`
	Location       string `json:"location"`
	Status         string `json:"status"` // confirmed | cancelled
	OccurredAt     string `json:"occurred_at"`
}
