package model

import "time"

// Categories lists the allowed values for an event's category column.
// The set mirrors the ENUM in the events table; validation on the
// create endpoint checks against the same list.
var Categories = []string{"Conference", "Workshop", "Meetup", "Concert", "Sports", "Other"}

// DefaultImageURL is applied when an event is created without an image.
const DefaultImageURL = "https://images.unsplash.com/photo-1501281668745-f7f57925c3b4?ixlib=rb-4.0.3&auto=format&fit=crop&w=800&q=80"

// Event represents a row in the `events` table. Events are created once
// and never updated or deleted; reads annotate them with a live count of
// confirmed registrations. JSON tags match the public wire format.
//
// Fields:
//  ID                 – primary key identifier.
//  Name               – event name, at most 100 characters.
//  Organizer          – organizer display name.
//  Location           – free-form location string.
//  Date               – when the event takes place (UTC).
//  Description        – at most 500 characters.
//  Capacity           – maximum number of confirmed registrations (>= 1).
//  Category           – one of Categories.
//  ImageURL           – image link, defaults to DefaultImageURL.
//  CreatedAt          – creation timestamp.
//  RegistrationsCount – confirmed registrations referencing this event.
//  AvailableSeats     – Capacity minus RegistrationsCount.
type Event struct {
	ID                 uint64    `json:"id"`                 // events.id
	Name               string    `json:"name"`               // events.name
	Organizer          string    `json:"organizer"`          // events.organizer
	Location           string    `json:"location"`           // events.location
	Date               time.Time `json:"date"`               // events.date
	Description        string    `json:"description"`        // events.description
	Capacity           int       `json:"capacity"`           // events.capacity
	Category           string    `json:"category"`           // events.category
	ImageURL           string    `json:"imageUrl"`           // events.image_url
	CreatedAt          time.Time `json:"createdAt"`          // events.created_at
	RegistrationsCount int       `json:"registrationsCount"` // derived, not stored
	AvailableSeats     int       `json:"availableSeats"`     // derived, Capacity - RegistrationsCount
}

// ValidCategory reports whether s is one of the allowed categories.
func ValidCategory(s string) bool {
	for _, c := range Categories {
		if c == s {
			return true
		}
	}
	return false
}
