package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eventhub/server/internal/model"
	"github.com/eventhub/server/internal/queue"
	"github.com/eventhub/server/internal/repository"
)

// MockRegistrationStore implements RegistrationStore for testing.
type MockRegistrationStore struct {
	mock.Mock
}

func (m *MockRegistrationStore) CreateConfirmed(ctx context.Context, userID, eventID uint64) (*model.Registration, error) {
	args := m.Called(ctx, userID, eventID)
	if reg := args.Get(0); reg != nil {
		return reg.(*model.Registration), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRegistrationStore) FindConfirmed(ctx context.Context, userID, eventID uint64) (*model.Registration, error) {
	args := m.Called(ctx, userID, eventID)
	if reg := args.Get(0); reg != nil {
		return reg.(*model.Registration), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRegistrationStore) HasConfirmed(ctx context.Context, userID, eventID uint64) (bool, error) {
	args := m.Called(ctx, userID, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRegistrationStore) CountConfirmed(ctx context.Context, eventID uint64) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

func (m *MockRegistrationStore) Cancel(ctx context.Context, registrationID uint64) error {
	args := m.Called(ctx, registrationID)
	return args.Error(0)
}

func (m *MockRegistrationStore) ListConfirmedByUser(ctx context.Context, userID uint64) ([]repository.RegistrationWithEvent, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]repository.RegistrationWithEvent), args.Error(1)
}

// MockEventGetter implements EventGetter for testing.
type MockEventGetter struct {
	mock.Mock
}

func (m *MockEventGetter) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	args := m.Called(ctx, id)
	if ev := args.Get(0); ev != nil {
		return ev.(*model.Event), args.Error(1)
	}
	return nil, args.Error(1)
}

func futureEvent(id uint64, capacity int) *model.Event {
	return &model.Event{
		ID:       id,
		Name:     "Go Meetup",
		Location: "Berlin",
		Date:     time.Now().Add(48 * time.Hour),
		Capacity: capacity,
		Category: "Meetup",
	}
}

func pastEvent(id uint64) *model.Event {
	ev := futureEvent(id, 10)
	ev.Date = time.Now().Add(-48 * time.Hour)
	return ev
}

// authedContext builds an echo context carrying the user id the way the
// JWT middleware stores it (JSON numbers decode as float64).
func authedContext(t *testing.T, method, target string, body any, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.Set("user_id", float64(userID))
	return c, rec
}

func TestRegister_MissingEventID(t *testing.T) {
	regs := new(MockRegistrationStore)
	events := new(MockEventGetter)
	h := NewRegistrationHandler(regs, events, true)

	c, rec := authedContext(t, http.MethodPost, "/api/registrations", map[string]any{}, 7)
	require.NoError(t, h.Register(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Event ID is required")
	events.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestRegister_EventNotFound(t *testing.T) {
	regs := new(MockRegistrationStore)
	events := new(MockEventGetter)
	events.On("GetByID", mock.Anything, uint64(99)).Return(nil, repository.ErrEventNotFound)
	h := NewRegistrationHandler(regs, events, true)

	c, rec := authedContext(t, http.MethodPost, "/api/registrations", map[string]any{"eventId": 99}, 7)
	require.NoError(t, h.Register(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Event not found")
}

func TestRegister_PastEvent(t *testing.T) {
	regs := new(MockRegistrationStore)
	events := new(MockEventGetter)
	events.On("GetByID", mock.Anything, uint64(3)).Return(pastEvent(3), nil)
	h := NewRegistrationHandler(regs, events, true)

	c, rec := authedContext(t, http.MethodPost, "/api/registrations", map[string]any{"eventId": 3}, 7)
	require.NoError(t, h.Register(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cannot register for past events")
	regs.AssertNotCalled(t, "HasConfirmed", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_AlreadyRegistered(t *testing.T) {
	regs := new(MockRegistrationStore)
	events := new(MockEventGetter)
	events.On("GetByID", mock.Anything, uint64(3)).Return(futureEvent(3, 10), nil)
	regs.On("HasConfirmed", mock.Anything, uint64(7), uint64(3)).Return(true, nil)
	h := NewRegistrationHandler(regs, events, true)

	c, rec := authedContext(t, http.MethodPost, "/api/registrations", map[string]any{"eventId": 3}, 7)
	require.NoError(t, h.Register(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Already registered for this event")
	regs.AssertNotCalled(t, "CreateConfirmed", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_EventFull(t *testing.T) {
	regs := new(MockRegistrationStore)
	events := new(MockEventGetter)
	events.On("GetByID", mock.Anything, uint64(3)).Return(futureEvent(3, 5), nil)
	regs.On("HasConfirmed", mock.Anything, uint64(7), uint64(3)).Return(false, nil)
	regs.On("CountConfirmed", mock.Anything, uint64(3)).Return(5, nil)
	h := NewRegistrationHandler(regs, events, true)

	c, rec := authedContext(t, http.MethodPost, "/api/registrations", map[string]any{"eventId": 3}, 7)
	require.NoError(t, h.Register(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Event is full")
	regs.AssertNotCalled(t, "CreateConfirmed", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_Success(t *testing.T) {
	regs := new(MockRegistrationStore)
	events := new(MockEventGetter)
	ev := futureEvent(3, 5)
	events.On("GetByID", mock.Anything, uint64(3)).Return(ev, nil)
	regs.On("HasConfirmed", mock.Anything, uint64(7), uint64(3)).Return(false, nil)
	regs.On("CountConfirmed", mock.Anything, uint64(3)).Return(2, nil)
	regs.On("CreateConfirmed", mock.Anything, uint64(7), uint64(3)).Return(&model.Registration{
		ID:           41,
		UserID:       7,
		EventID:      3,
		Status:       model.StatusConfirmed,
		RegisteredAt: time.Now().UTC(),
	}, nil)

	h := NewRegistrationHandler(regs, events, true)
	var published []queue.RegistrationEvent
	h.NotifyConfirmed = func(_ context.Context, e queue.RegistrationEvent) { published = append(published, e) }

	c, rec := authedContext(t, http.MethodPost, "/api/registrations", map[string]any{"eventId": 3}, 7)
	require.NoError(t, h.Register(c))

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Message      string `json:"message"`
		Registration struct {
			ID     uint64 `json:"id"`
			User   uint64 `json:"user"`
			Status string `json:"status"`
			Event  struct {
				ID                 uint64 `json:"id"`
				Capacity           int    `json:"capacity"`
				RegistrationsCount int    `json:"registrationsCount"`
				AvailableSeats     int    `json:"availableSeats"`
			} `json:"event"`
		} `json:"registration"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Successfully registered for event", resp.Message)
	assert.Equal(t, uint64(41), resp.Registration.ID)
	assert.Equal(t, model.StatusConfirmed, resp.Registration.Status)
	// availableSeats = capacity - confirmed count, including this one.
	assert.Equal(t, 3, resp.Registration.Event.RegistrationsCount)
	assert.Equal(t, 2, resp.Registration.Event.AvailableSeats)

	require.Len(t, published, 1)
	assert.Equal(t, uint64(41), published[0].RegistrationID)
	assert.Equal(t, model.StatusConfirmed, published[0].Status)
	regs.AssertExpectations(t)
}

// A duplicate insert that loses the race between the HasConfirmed check
// and CreateConfirmed comes back as ErrAlreadyRegistered from the
// store's unique key, and must read exactly like a detected duplicate.
func TestRegister_DuplicateLosesRace(t *testing.T) {
	regs := new(MockRegistrationStore)
	events := new(MockEventGetter)
	events.On("GetByID", mock.Anything, uint64(3)).Return(futureEvent(3, 5), nil)
	regs.On("HasConfirmed", mock.Anything, uint64(7), uint64(3)).Return(false, nil)
	regs.On("CountConfirmed", mock.Anything, uint64(3)).Return(1, nil)
	regs.On("CreateConfirmed", mock.Anything, uint64(7), uint64(3)).Return(nil, repository.ErrAlreadyRegistered)
	h := NewRegistrationHandler(regs, events, true)

	c, rec := authedContext(t, http.MethodPost, "/api/registrations", map[string]any{"eventId": 3}, 7)
	require.NoError(t, h.Register(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Already registered for this event")
}

// The capacity check is a plain read with no lock: two registrations
// that both observe capacity-1 confirmed rows both pass and both
// insert. This test pins down that inherited behavior — the workflow
// does not close the window, it only documents it.
func TestRegister_CapacityCheckNotAtomic(t *testing.T) {
	regs := new(MockRegistrationStore)
	events := new(MockEventGetter)
	ev := futureEvent(3, 5)
	events.On("GetByID", mock.Anything, uint64(3)).Return(ev, nil)
	// Both requests read the same stale count of 4 (< capacity 5).
	regs.On("HasConfirmed", mock.Anything, mock.Anything, uint64(3)).Return(false, nil)
	regs.On("CountConfirmed", mock.Anything, uint64(3)).Return(4, nil)
	regs.On("CreateConfirmed", mock.Anything, uint64(7), uint64(3)).Return(&model.Registration{ID: 50, UserID: 7, EventID: 3, Status: model.StatusConfirmed}, nil)
	regs.On("CreateConfirmed", mock.Anything, uint64(8), uint64(3)).Return(&model.Registration{ID: 51, UserID: 8, EventID: 3, Status: model.StatusConfirmed}, nil)
	h := NewRegistrationHandler(regs, events, true)

	for _, uid := range []uint64{7, 8} {
		c, rec := authedContext(t, http.MethodPost, "/api/registrations", map[string]any{"eventId": 3}, uid)
		require.NoError(t, h.Register(c))
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
	// Capacity 5, 4 confirmed before the race, 2 inserts: overrun by 1.
	regs.AssertExpectations(t)
}

func TestCancel_RegistrationNotFound(t *testing.T) {
	regs := new(MockRegistrationStore)
	events := new(MockEventGetter)
	regs.On("FindConfirmed", mock.Anything, uint64(7), uint64(3)).Return(nil, repository.ErrRegistrationNotFound)
	h := NewRegistrationHandler(regs, events, true)

	c, rec := authedContext(t, http.MethodDelete, "/api/registrations/3", nil, 7)
	c.SetParamNames("eventId")
	c.SetParamValues("3")
	require.NoError(t, h.Cancel(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Registration not found")
}

func TestCancel_PastEvent(t *testing.T) {
	regs := new(MockRegistrationStore)
	events := new(MockEventGetter)
	regs.On("FindConfirmed", mock.Anything, uint64(7), uint64(3)).Return(&model.Registration{ID: 41, UserID: 7, EventID: 3, Status: model.StatusConfirmed}, nil)
	events.On("GetByID", mock.Anything, uint64(3)).Return(pastEvent(3), nil)
	h := NewRegistrationHandler(regs, events, true)

	c, rec := authedContext(t, http.MethodDelete, "/api/registrations/3", nil, 7)
	c.SetParamNames("eventId")
	c.SetParamValues("3")
	require.NoError(t, h.Cancel(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cannot cancel past events")
	regs.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
}

func TestCancel_Success(t *testing.T) {
	regs := new(MockRegistrationStore)
	events := new(MockEventGetter)
	regs.On("FindConfirmed", mock.Anything, uint64(7), uint64(3)).Return(&model.Registration{ID: 41, UserID: 7, EventID: 3, Status: model.StatusConfirmed}, nil)
	events.On("GetByID", mock.Anything, uint64(3)).Return(futureEvent(3, 5), nil)
	regs.On("Cancel", mock.Anything, uint64(41)).Return(nil)

	h := NewRegistrationHandler(regs, events, true)
	var published []queue.RegistrationEvent
	h.NotifyCancelled = func(_ context.Context, e queue.RegistrationEvent) { published = append(published, e) }

	c, rec := authedContext(t, http.MethodDelete, "/api/registrations/3", nil, 7)
	c.SetParamNames("eventId")
	c.SetParamValues("3")
	require.NoError(t, h.Cancel(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Registration cancelled successfully")
	require.Len(t, published, 1)
	assert.Equal(t, model.StatusCancelled, published[0].Status)
	regs.AssertExpectations(t)
}

// Cancelling frees the slot: a later registration for the same pair
// goes through the full ladder again and inserts a brand-new row
// instead of reviving the cancelled one.
func TestCancelThenReRegister(t *testing.T) {
	regs := new(MockRegistrationStore)
	events := new(MockEventGetter)
	ev := futureEvent(3, 5)
	events.On("GetByID", mock.Anything, uint64(3)).Return(ev, nil)

	regs.On("FindConfirmed", mock.Anything, uint64(7), uint64(3)).Return(&model.Registration{ID: 41, UserID: 7, EventID: 3, Status: model.StatusConfirmed}, nil).Once()
	regs.On("Cancel", mock.Anything, uint64(41)).Return(nil).Once()

	h := NewRegistrationHandler(regs, events, true)

	c, rec := authedContext(t, http.MethodDelete, "/api/registrations/3", nil, 7)
	c.SetParamNames("eventId")
	c.SetParamValues("3")
	require.NoError(t, h.Cancel(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// The cancelled row no longer counts as confirmed.
	regs.On("HasConfirmed", mock.Anything, uint64(7), uint64(3)).Return(false, nil).Once()
	regs.On("CountConfirmed", mock.Anything, uint64(3)).Return(0, nil).Once()
	regs.On("CreateConfirmed", mock.Anything, uint64(7), uint64(3)).Return(&model.Registration{
		ID: 42, UserID: 7, EventID: 3, Status: model.StatusConfirmed,
	}, nil).Once()

	c, rec = authedContext(t, http.MethodPost, "/api/registrations", map[string]any{"eventId": 3}, 7)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Registration struct {
			ID uint64 `json:"id"`
		} `json:"registration"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(42), resp.Registration.ID, "re-registration must produce a new row")
	regs.AssertExpectations(t)
}

func TestMyRegistrations_Partition(t *testing.T) {
	regs := new(MockRegistrationStore)
	events := new(MockEventGetter)

	future := futureEvent(3, 5)
	past := pastEvent(4)
	regs.On("ListConfirmedByUser", mock.Anything, uint64(7)).Return([]repository.RegistrationWithEvent{
		{ID: 1, UserID: 7, Status: model.StatusConfirmed, Event: *future},
		{ID: 2, UserID: 7, Status: model.StatusConfirmed, Event: *past},
	}, nil)
	h := NewRegistrationHandler(regs, events, true)

	c, rec := authedContext(t, http.MethodGet, "/api/registrations/my-registrations", nil, 7)
	require.NoError(t, h.MyRegistrations(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Upcoming []repository.RegistrationWithEvent `json:"upcoming"`
		Past     []repository.RegistrationWithEvent `json:"past"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Upcoming, 1)
	require.Len(t, resp.Past, 1)
	assert.Equal(t, uint64(1), resp.Upcoming[0].ID)
	assert.Equal(t, uint64(2), resp.Past[0].ID)
}

func TestCheck(t *testing.T) {
	regs := new(MockRegistrationStore)
	events := new(MockEventGetter)
	regs.On("HasConfirmed", mock.Anything, uint64(7), uint64(3)).Return(true, nil)
	h := NewRegistrationHandler(regs, events, true)

	c, rec := authedContext(t, http.MethodGet, "/api/registrations/check/3", nil, 7)
	c.SetParamNames("eventId")
	c.SetParamValues("3")
	require.NoError(t, h.Check(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"isRegistered":true}`, rec.Body.String())
}

func TestCheck_Unauthenticated(t *testing.T) {
	h := NewRegistrationHandler(new(MockRegistrationStore), new(MockEventGetter), true)

	req := httptest.NewRequest(http.MethodGet, "/api/registrations/check/3", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("eventId")
	c.SetParamValues("3")
	require.NoError(t, h.Check(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
