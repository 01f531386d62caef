package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/eventhub/server/internal/model"
	"github.com/eventhub/server/internal/repository"
)

// Listing defaults: page is 1-indexed, nine events per page.
const (
	defaultPage  = 1
	defaultLimit = 9
)

// EventStore is the slice of the event repository the handler needs.
// Declared here so tests can substitute a mock.
type EventStore interface {
	Create(ctx context.Context, ev *model.Event) error
	GetByID(ctx context.Context, id uint64) (*model.Event, error)
	Search(ctx context.Context, q repository.EventSearchQuery) ([]model.Event, int64, error)
}

// EventHandler serves the public event surface: filtered/paginated
// listing, single-event fetch and creation.
type EventHandler struct {
	Events EventStore
	Debug  bool // include error detail in 500 bodies
}

func NewEventHandler(events EventStore, debug bool) *EventHandler {
	if events == nil {
		panic("nil store passed to NewEventHandler")
	}
	return &EventHandler{Events: events, Debug: debug}
}

var validate = validator.New()

// createEventReq carries the attributes of POST /api/events. Field
// constraints mirror the events schema; violation messages are
// collected per field rather than failing on the first.
type createEventReq struct {
	Name        string    `json:"name" validate:"required,max=100"`
	Organizer   string    `json:"organizer" validate:"required"`
	Location    string    `json:"location" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
	Description string    `json:"description" validate:"required,max=500"`
	Capacity    int       `json:"capacity" validate:"required,min=1"`
	Category    string    `json:"category" validate:"required,oneof=Conference Workshop Meetup Concert Sports Other"`
	ImageURL    string    `json:"imageUrl"`
}

// fieldMessages maps field+tag combinations to the messages clients
// already rely on.
var fieldMessages = map[string]string{
	"Name.required":        "Please provide event name",
	"Name.max":             "Event name cannot be more than 100 characters",
	"Organizer.required":   "Please provide organizer name",
	"Location.required":    "Please provide event location",
	"Date.required":        "Please provide event date",
	"Description.required": "Please provide event description",
	"Description.max":      "Description cannot be more than 500 characters",
	"Capacity.required":    "Please provide event capacity",
	"Capacity.min":         "Capacity must be at least 1",
	"Category.required":    "Please provide event category",
	"Category.oneof":       "Category must be one of Conference, Workshop, Meetup, Concert, Sports, Other",
}

// validationMessages flattens validator errors into the per-field
// message list returned to clients.
func validationMessages(err error) []string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []string{"Invalid input"}
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		if m, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
			msgs = append(msgs, m)
		} else {
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return msgs
}

// List handles GET /api/events. Filters (search on name, exact
// category, location substring) combine with AND; results are sorted
// ascending by date and each event carries its live confirmed count.
// total counts every matching event regardless of the page requested.
func (h *EventHandler) List(c echo.Context) error {
	q := repository.EventSearchQuery{
		Search:   c.QueryParam("search"),
		Category: c.QueryParam("category"),
		Location: c.QueryParam("location"),
		Page:     queryInt(c, "page", defaultPage),
		Limit:    queryInt(c, "limit", defaultLimit),
	}
	if q.Page < 1 {
		q.Page = defaultPage
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}

	events, total, err := h.Events.Search(c.Request().Context(), q)
	if err != nil {
		return serverError(c, h.Debug, err)
	}

	totalPages := (total + int64(q.Limit) - 1) / int64(q.Limit)
	return c.JSON(http.StatusOK, echo.Map{
		"events":      events,
		"totalPages":  totalPages,
		"currentPage": q.Page,
		"total":       total,
	})
}

// GetByID handles GET /api/events/:id.
func (h *EventHandler) GetByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Event not found"})
	}
	ev, err := h.Events.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Event not found"})
		}
		return serverError(c, h.Debug, err)
	}
	return c.JSON(http.StatusOK, ev)
}

// Create handles POST /api/events. The route is deliberately left
// unauthenticated to match the observed surface (seeding); see
// DESIGN.md for the recorded access-control gap. Validation failures
// return every violated constraint, not just the first.
func (h *EventHandler) Create(c echo.Context) error {
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "Validation error",
			"errors":  validationMessages(err),
		})
	}

	ev := model.Event{
		Name:        req.Name,
		Organizer:   req.Organizer,
		Location:    req.Location,
		Date:        req.Date,
		Description: req.Description,
		Capacity:    req.Capacity,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	}
	if ev.ImageURL == "" {
		ev.ImageURL = model.DefaultImageURL
	}
	if err := h.Events.Create(c.Request().Context(), &ev); err != nil {
		return serverError(c, h.Debug, err)
	}
	return c.JSON(http.StatusCreated, ev)
}

// queryInt parses an integer query parameter, falling back to def on
// absence or garbage.
func queryInt(c echo.Context, name string, def int) int {
	s := c.QueryParam(name)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
