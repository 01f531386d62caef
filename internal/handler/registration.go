package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eventhub/server/internal/middleware"
	"github.com/eventhub/server/internal/model"
	"github.com/eventhub/server/internal/queue"
	"github.com/eventhub/server/internal/repository"
)

// RegistrationStore is the slice of the registration repository the
// handler needs. Declared here so tests can substitute a mock.
type RegistrationStore interface {
	CreateConfirmed(ctx context.Context, userID, eventID uint64) (*model.Registration, error)
	FindConfirmed(ctx context.Context, userID, eventID uint64) (*model.Registration, error)
	HasConfirmed(ctx context.Context, userID, eventID uint64) (bool, error)
	CountConfirmed(ctx context.Context, eventID uint64) (int, error)
	Cancel(ctx context.Context, registrationID uint64) error
	ListConfirmedByUser(ctx context.Context, userID uint64) ([]repository.RegistrationWithEvent, error)
}

// EventGetter resolves events for the registration workflow.
type EventGetter interface {
	GetByID(ctx context.Context, id uint64) (*model.Event, error)
}

// RegistrationHandler implements the registration workflow: register,
// cancel, list-mine and check. All methods assume JWT authentication
// has already run; the user id comes from the request context.
//
// The existence, duplicate and capacity checks before an insert are
// plain reads with no transaction around them. Only the store's unique
// key on confirmed (user, event) pairs is atomic: a duplicate insert
// lost to a race comes back as ErrAlreadyRegistered and is reported
// exactly like a detected duplicate. The capacity check can be
// overtaken by concurrent registrations near the boundary, so a full
// event may briefly overshoot its capacity. That behavior is inherited
// from the system this replaces and is deliberately not fixed here.
type RegistrationHandler struct {
	Registrations RegistrationStore
	Events        EventGetter
	Debug         bool

	// Optional queue notifications, fired best-effort after a state
	// change. Never block or fail the request.
	NotifyConfirmed func(context.Context, queue.RegistrationEvent)
	NotifyCancelled func(context.Context, queue.RegistrationEvent)
}

func NewRegistrationHandler(regs RegistrationStore, events EventGetter, debug bool) *RegistrationHandler {
	if regs == nil || events == nil {
		panic("nil store passed to NewRegistrationHandler")
	}
	return &RegistrationHandler{Registrations: regs, Events: events, Debug: debug}
}

type registerReq struct {
	EventID uint64 `json:"eventId"`
}

// Register handles POST /api/registrations. Validation order, first
// failing check wins: missing event id, unknown event, past event,
// duplicate registration, full event.
func (h *RegistrationHandler) Register(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	var req registerReq
	if err := c.Bind(&req); err != nil || req.EventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Event ID is required"})
	}

	ctx := c.Request().Context()

	ev, err := h.Events.GetByID(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Event not found"})
		}
		return serverError(c, h.Debug, err)
	}

	if ev.Date.Before(time.Now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Cannot register for past events"})
	}

	registered, err := h.Registrations.HasConfirmed(ctx, userID, req.EventID)
	if err != nil {
		return serverError(c, h.Debug, err)
	}
	if registered {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Already registered for this event"})
	}

	count, err := h.Registrations.CountConfirmed(ctx, req.EventID)
	if err != nil {
		return serverError(c, h.Debug, err)
	}
	if count >= ev.Capacity {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Event is full"})
	}

	reg, err := h.Registrations.CreateConfirmed(ctx, userID, req.EventID)
	if err != nil {
		// Lost the race: someone inserted a confirmed row between the
		// check above and this insert, and the unique key caught it.
		if errors.Is(err, repository.ErrAlreadyRegistered) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Already registered for this event"})
		}
		return serverError(c, h.Debug, err)
	}

	if h.NotifyConfirmed != nil {
		h.NotifyConfirmed(ctx, queue.RegistrationEvent{
			RegistrationID: reg.ID,
			UserID:         userID,
			EventID:        ev.ID,
			EventName:      ev.Name,
			EventDate:      ev.Date.UTC().Format(time.RFC3339),
			Location:       ev.Location,
			Status:         model.StatusConfirmed,
			OccurredAt:     time.Now().UTC().Format(time.RFC3339),
		})
	}

	// Annotate the joined event with the count including this
	// registration.
	ev.RegistrationsCount = count + 1
	ev.AvailableSeats = ev.Capacity - ev.RegistrationsCount

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Successfully registered for event",
		"registration": repository.RegistrationWithEvent{
			ID:           reg.ID,
			UserID:       reg.UserID,
			Status:       reg.Status,
			RegisteredAt: reg.RegisteredAt,
			Event:        *ev,
		},
	})
}

// Cancel handles DELETE /api/registrations/:eventId. The registration
// row is flipped to cancelled in place; it is never deleted, and the
// freed seat is immediately visible to future capacity checks.
func (h *RegistrationHandler) Cancel(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	eventID, err := strconv.ParseUint(c.Param("eventId"), 10, 64)
	if err != nil || eventID == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Registration not found"})
	}

	ctx := c.Request().Context()

	reg, err := h.Registrations.FindConfirmed(ctx, userID, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrRegistrationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Registration not found"})
		}
		return serverError(c, h.Debug, err)
	}

	// Defensive: a confirmed registration implies the event exists,
	// but the original checks anyway.
	ev, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Event not found"})
		}
		return serverError(c, h.Debug, err)
	}

	if ev.Date.Before(time.Now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Cannot cancel past events"})
	}

	if err := h.Registrations.Cancel(ctx, reg.ID); err != nil {
		if errors.Is(err, repository.ErrRegistrationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Registration not found"})
		}
		return serverError(c, h.Debug, err)
	}

	if h.NotifyCancelled != nil {
		h.NotifyCancelled(ctx, queue.RegistrationEvent{
			RegistrationID: reg.ID,
			UserID:         userID,
			EventID:        ev.ID,
			EventName:      ev.Name,
			EventDate:      ev.Date.UTC().Format(time.RFC3339),
			Location:       ev.Location,
			Status:         model.StatusCancelled,
			OccurredAt:     time.Now().UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Registration cancelled successfully"})
}

// MyRegistrations handles GET /api/registrations/my-registrations. The
// user's confirmed registrations are partitioned by event date: strictly
// in the future means upcoming, everything else is past.
func (h *RegistrationHandler) MyRegistrations(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	regs, err := h.Registrations.ListConfirmedByUser(c.Request().Context(), userID)
	if err != nil {
		return serverError(c, h.Debug, err)
	}

	now := time.Now()
	upcoming := make([]repository.RegistrationWithEvent, 0)
	past := make([]repository.RegistrationWithEvent, 0)
	for _, r := range regs {
		if r.Event.Date.After(now) {
			upcoming = append(upcoming, r)
		} else {
			past = append(past, r)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"upcoming": upcoming,
		"past":     past,
	})
}

// Check handles GET /api/registrations/check/:eventId.
func (h *RegistrationHandler) Check(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	eventID, err := strconv.ParseUint(c.Param("eventId"), 10, 64)
	if err != nil || eventID == 0 {
		return c.JSON(http.StatusOK, echo.Map{"isRegistered": false})
	}

	registered, err := h.Registrations.HasConfirmed(c.Request().Context(), userID, eventID)
	if err != nil {
		return serverError(c, h.Debug, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"isRegistered": registered})
}
