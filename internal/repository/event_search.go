package repository

import (
	"context"
	"strings"

	"github.com/eventhub/server/internal/model"
)

// EventSearchQuery defines filters & pagination for listing events.
// All filters are optional and combined with AND. Search and Location
// are case-insensitive substring matches; Category is exact.
type EventSearchQuery struct {
	Search   string
	Category string
	Location string
	Page     int
	Limit    int
}

// Search returns one page of events matching q, sorted ascending by
// date, each annotated with its confirmed-registration count, plus the
// total number of matching events regardless of pagination.
func (r *EventRepo) Search(ctx context.Context, q EventSearchQuery) ([]model.Event, int64, error) {
	where := []string{}
	args := []any{}

	if q.Search != "" {
		where = append(where, "LOWER(e.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Search)+"%")
	}
	if q.Category != "" {
		where = append(where, "e.category = ?")
		args = append(args, q.Category)
	}
	if q.Location != "" {
		where = append(where, "LOWER(e.location) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Location)+"%")
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	countSQL := `SELECT COUNT(*) FROM events e WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.Limit
	offset := (q.Page - 1) * q.Limit

	dataSQL := `SELECT
			e.id,
			e.name,
			e.organizer,
			e.location,
			e.date,
			e.description,
			e.capacity,
			e.category,
			e.image_url,
			e.created_at,
			` + confirmedCountExpr + ` AS registrations_count
		FROM events e
		WHERE ` + cond + `
		ORDER BY e.date ASC
		LIMIT ? OFFSET ?`

	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Event, 0, limit)
	for rows.Next() {
		var ev model.Event
		if err := rows.Scan(
			&ev.ID,
			&ev.Name,
			&ev.Organizer,
			&ev.Location,
			&ev.Date,
			&ev.Description,
			&ev.Capacity,
			&ev.Category,
			&ev.ImageURL,
			&ev.CreatedAt,
			&ev.RegistrationsCount,
		); err != nil {
			return nil, 0, err
		}
		ev.AvailableSeats = ev.Capacity - ev.RegistrationsCount
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
