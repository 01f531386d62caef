package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/eventhub/server/internal/model"
)

// RegistrationRepo provides access to the registrations table.
//
// The table carries a stored generated column confirmed_flag which is 1
// when status is 'confirmed' and NULL otherwise, plus a UNIQUE KEY on
// (user_id, event_id, confirmed_flag). MySQL unique indexes ignore
// NULLs, so the key admits any number of cancelled rows per pair but at
// most one confirmed row. That is the store-level rendering of the
// "one confirmed registration per user per event" invariant, and the
// only part of the registration workflow enforced atomically: the
// existence and capacity checks performed before an insert are plain
// reads and can race.
type RegistrationRepo struct {
	db *sql.DB
}

// NewRegistrationRepo returns a new RegistrationRepo bound to the given database.
func NewRegistrationRepo(db *sql.DB) *RegistrationRepo { return &RegistrationRepo{db: db} }

// RegistrationWithEvent is a registration joined with the full
// attributes of its event, the shape returned to clients for the
// register and my-registrations operations.
type RegistrationWithEvent struct {
	ID           uint64      `json:"id"`
	UserID       uint64      `json:"user"`
	Status       string      `json:"status"`
	RegisteredAt time.Time   `json:"registeredAt"`
	Event        model.Event `json:"event"`
}

// CreateConfirmed inserts a confirmed registration for (userID,
// eventID) and returns the stored row. A duplicate-key violation on
// the confirmed uniqueness key is remapped to ErrAlreadyRegistered so
// a lost race surfaces the same way as a detected duplicate.
func (r *RegistrationRepo) CreateConfirmed(ctx context.Context, userID, eventID uint64) (*model.Registration, error) {
	const q = `INSERT INTO registrations (user_id, event_id, status) VALUES (?, ?, 'confirmed')`
	res, err := r.db.ExecContext(ctx, q, userID, eventID)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrAlreadyRegistered
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	reg := model.Registration{ID: uint64(id)}
	// Query back the row to populate the database-assigned timestamp.
	const sel = `SELECT id, user_id, event_id, status, registered_at FROM registrations WHERE id = ?`
	if err := r.db.QueryRowContext(ctx, sel, reg.ID).Scan(
		&reg.ID, &reg.UserID, &reg.EventID, &reg.Status, &reg.RegisteredAt,
	); err != nil {
		return nil, err
	}
	return &reg, nil
}

// FindConfirmed returns the confirmed registration for (userID,
// eventID), or ErrRegistrationNotFound when none exists.
func (r *RegistrationRepo) FindConfirmed(ctx context.Context, userID, eventID uint64) (*model.Registration, error) {
	const q = `SELECT id, user_id, event_id, status, registered_at
	           FROM registrations
	           WHERE user_id = ? AND event_id = ? AND status = 'confirmed'
	           LIMIT 1`
	var reg model.Registration
	err := r.db.QueryRowContext(ctx, q, userID, eventID).Scan(
		&reg.ID, &reg.UserID, &reg.EventID, &reg.Status, &reg.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return &reg, nil
}

// HasConfirmed reports whether a confirmed registration exists for
// (userID, eventID).
func (r *RegistrationRepo) HasConfirmed(ctx context.Context, userID, eventID uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM registrations WHERE user_id = ? AND event_id = ? AND status = 'confirmed')`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, userID, eventID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CountConfirmed returns the number of confirmed registrations for an
// event. Cancelled rows are excluded, so a cancellation immediately
// frees capacity for future registrations.
func (r *RegistrationRepo) CountConfirmed(ctx context.Context, eventID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM registrations WHERE event_id = ? AND status = 'confirmed'`
	var n int
	if err := r.db.QueryRowContext(ctx, q, eventID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Cancel flips a registration from confirmed to cancelled in place.
// The row is never deleted and never returns to confirmed. When the
// row is already cancelled (or absent) ErrRegistrationNotFound is
// returned.
func (r *RegistrationRepo) Cancel(ctx context.Context, registrationID uint64) error {
	const q = `UPDATE registrations SET status = 'cancelled' WHERE id = ? AND status = 'confirmed'`
	res, err := r.db.ExecContext(ctx, q, registrationID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRegistrationNotFound
	}
	return nil
}

// ListConfirmedByUser returns the user's confirmed registrations joined
// with their events, newest registration first. Callers partition the
// result into upcoming and past by event date.
func (r *RegistrationRepo) ListConfirmedByUser(ctx context.Context, userID uint64) ([]RegistrationWithEvent, error) {
	const q = `SELECT r.id, r.user_id, r.status, r.registered_at,
	                  e.id, e.name, e.organizer, e.location, e.date, e.description,
	                  e.capacity, e.category, e.image_url, e.created_at
	           FROM registrations r
	           JOIN events e ON e.id = r.event_id
	           WHERE r.user_id = ? AND r.status = 'confirmed'
	           ORDER BY r.registered_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]RegistrationWithEvent, 0)
	for rows.Next() {
		var (
			rec          RegistrationWithEvent
			registeredAt sql.NullTime
		)
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.Status, &registeredAt,
			&rec.Event.ID, &rec.Event.Name, &rec.Event.Organizer, &rec.Event.Location,
			&rec.Event.Date, &rec.Event.Description, &rec.Event.Capacity,
			&rec.Event.Category, &rec.Event.ImageURL, &rec.Event.CreatedAt,
		); err != nil {
			return nil, err
		}
		if registeredAt.Valid {
			rec.RegisteredAt = registeredAt.Time
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
