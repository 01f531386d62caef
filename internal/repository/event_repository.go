package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/eventhub/server/internal/model"
)

// EventRepo provides access to the events table. Events are insert-only:
// there is no update or delete path in the application. Reads annotate
// each event with its live confirmed-registration count so that
// availableSeats is always derived from current data, never cached.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle for callers that need it.
func (r *EventRepo) DB() *sql.DB { return r.db }

// confirmedCountExpr counts confirmed registrations for the event row
// being scanned. Correlated subquery instead of a join so that events
// with zero registrations still appear.
const confirmedCountExpr = `(SELECT COUNT(*) FROM registrations g WHERE g.event_id = e.id AND g.status = 'confirmed')`

// Create inserts an event and returns it with generated fields
// populated. The caller is responsible for validation; an empty image
// URL should already have been defaulted.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) error {
	const q = `INSERT INTO events (name, organizer, location, date, description, capacity, category, image_url)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		ev.Name, ev.Organizer, ev.Location, ev.Date.UTC(), ev.Description, ev.Capacity, ev.Category, ev.ImageURL)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)
	// Query back the full row to pick up column defaults and the
	// creation timestamp.
	const sel = `SELECT id, name, organizer, location, date, description, capacity, category, image_url, created_at
	             FROM events WHERE id = ?`
	if err := r.db.QueryRowContext(ctx, sel, ev.ID).Scan(
		&ev.ID, &ev.Name, &ev.Organizer, &ev.Location, &ev.Date,
		&ev.Description, &ev.Capacity, &ev.Category, &ev.ImageURL, &ev.CreatedAt,
	); err != nil {
		return err
	}
	ev.AvailableSeats = ev.Capacity
	return nil
}

// GetByID returns one event annotated with its confirmed-registration
// count, or ErrEventNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	q := `SELECT e.id, e.name, e.organizer, e.location, e.date, e.description,
	             e.capacity, e.category, e.image_url, e.created_at, ` + confirmedCountExpr + `
	      FROM events e WHERE e.id = ?`
	var ev model.Event
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&ev.ID, &ev.Name, &ev.Organizer, &ev.Location, &ev.Date,
		&ev.Description, &ev.Capacity, &ev.Category, &ev.ImageURL, &ev.CreatedAt,
		&ev.RegistrationsCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	ev.AvailableSeats = ev.Capacity - ev.RegistrationsCount
	return &ev, nil
}
