package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachBooking/internal/middleware"
	"github.com/saeid-a/CoachBooking/internal/models"
	"github.com/saeid-a/CoachBooking/internal/services"
)

type stubBookingService struct {
	createResult    *models.BookingDetail
	createErr       error
	cancelResult    *models.Booking
	cancelErr       error
	findResult      *models.BookingDetail
	findErr         error
	listResult      []models.Booking
	listErr         error
	capacity        int
	capacityErr     error
	lastCaller      models.Caller
	lastCreateInput services.CreateBookingInput
	lastBookingID   int64
	lastReason      *string
	lastStatus      string
	lastCapacityArg struct {
		coachID models.AccountID
		date    time.Time
		time    string
	}
}

func (s *stubBookingService) CreateBooking(_ context.Context, caller models.Caller, input services.CreateBookingInput) (*models.BookingDetail, error) {
	s.lastCaller = caller
	s.lastCreateInput = input
	return s.createResult, s.createErr
}

func (s *stubBookingService) CancelBooking(_ context.Context, caller models.Caller, bookingID int64, reason *string) (*models.Booking, error) {
	s.lastCaller = caller
	s.lastBookingID = bookingID
	s.lastReason = reason
	return s.cancelResult, s.cancelErr
}

func (s *stubBookingService) FindBooking(_ context.Context, caller models.Caller, bookingID int64) (*models.BookingDetail, error) {
	s.lastCaller = caller
	s.lastBookingID = bookingID
	return s.findResult, s.findErr
}

func (s *stubBookingService) ListBookings(_ context.Context, caller models.Caller, status string) ([]models.Booking, error) {
	s.lastCaller = caller
	s.lastStatus = status
	return s.listResult, s.listErr
}

func (s *stubBookingService) CheckSlotCapacity(_ context.Context, coachID models.AccountID, date time.Time, requestedTime string) (int, error) {
	s.lastCapacityArg.coachID = coachID
	s.lastCapacityArg.date = date
	s.lastCapacityArg.time = requestedTime
	return s.capacity, s.capacityErr
}

var (
	memberCaller = models.Caller{AccountID: 42, Role: models.RoleMember, MemberProfileID: 1042}
	coachCaller  = models.Caller{AccountID: 7, Role: models.RoleCoach}
)

func appWithCaller(caller models.Caller) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		middleware.WithCaller(c, caller)
		return c.Next()
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string) *http.Response {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func TestCreateBookingUsesCallerAsMember(t *testing.T) {
	service := &stubBookingService{
		createResult: &models.BookingDetail{Booking: models.Booking{ID: 3, Status: models.BookingConfirmed}},
	}
	handler := NewBookingHandler(service)

	app := appWithCaller(memberCaller)
	app.Post("/api/v1/bookings", handler.CreateBooking)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/bookings", `{
		"coach_id": 7,
		"date": "2026-03-16",
		"time": "14:00",
		"duration_minutes": 60,
		"notes": "first session",
		"create_group_chat": true
	}`)

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	input := service.lastCreateInput
	if input.CoachID != 7 || input.MemberAccountID != 42 {
		t.Fatalf("unexpected parties: coach %d member %d", input.CoachID, input.MemberAccountID)
	}
	if !input.Date.Equal(time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)) || input.Time != "14:00" {
		t.Fatalf("unexpected slot %s %s", input.Date, input.Time)
	}
	if !input.CreateGroupChat || input.Notes == nil || *input.Notes != "first session" {
		t.Fatalf("unexpected extras: %+v", input)
	}

	var payload struct {
		Booking models.BookingDetail `json:"booking"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Booking.ID != 3 {
		t.Fatalf("expected booking 3, got %d", payload.Booking.ID)
	}
}

func TestCreateBookingRejectsMemberBookingForSomeoneElse(t *testing.T) {
	service := &stubBookingService{}
	handler := NewBookingHandler(service)

	app := appWithCaller(memberCaller)
	app.Post("/api/v1/bookings", handler.CreateBooking)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/bookings", `{
		"coach_id": 7,
		"member_id": 43,
		"date": "2026-03-16",
		"time": "14:00",
		"duration_minutes": 60
	}`)

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if service.lastCreateInput.CoachID != 0 {
		t.Fatalf("service should not be called")
	}
}

func TestCreateBookingByCoachRequiresMemberID(t *testing.T) {
	handler := NewBookingHandler(&stubBookingService{})

	app := appWithCaller(coachCaller)
	app.Post("/api/v1/bookings", handler.CreateBooking)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/bookings", `{
		"coach_id": 7,
		"date": "2026-03-16",
		"time": "14:00",
		"duration_minutes": 60
	}`)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateBookingValidatesBody(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "bad time", body: `{"coach_id":7,"date":"2026-03-16","time":"25:00","duration_minutes":60}`, field: "time"},
		{name: "bad date", body: `{"coach_id":7,"date":"16/03/2026","time":"14:00","duration_minutes":60}`, field: "date"},
		{name: "zero duration", body: `{"coach_id":7,"date":"2026-03-16","time":"14:00","duration_minutes":0}`, field: "duration_minutes"},
		{name: "missing coach", body: `{"date":"2026-03-16","time":"14:00","duration_minutes":60}`, field: "coach_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewBookingHandler(&stubBookingService{})
			app := appWithCaller(memberCaller)
			app.Post("/api/v1/bookings", handler.CreateBooking)

			resp := doJSON(t, app, http.MethodPost, "/api/v1/bookings", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}

			var payload struct {
				Fields map[string]string `json:"fields"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if _, ok := payload.Fields[tt.field]; !ok {
				t.Fatalf("expected field %q in %v", tt.field, payload.Fields)
			}
		})
	}
}

func TestCreateBookingMapsServiceErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{err: services.ErrSlotFull, status: http.StatusConflict},
		{err: services.ErrSlotBusy, status: http.StatusConflict},
		{err: services.ErrInvalidSlot, status: http.StatusBadRequest},
		{err: services.ErrCoachNotFound, status: http.StatusNotFound},
		{err: services.ErrForbidden, status: http.StatusForbidden},
		{err: &services.CollaboratorError{Collaborator: "calendar", Err: context.DeadlineExceeded}, status: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			handler := NewBookingHandler(&stubBookingService{createErr: tt.err})
			app := appWithCaller(memberCaller)
			app.Post("/api/v1/bookings", handler.CreateBooking)

			resp := doJSON(t, app, http.MethodPost, "/api/v1/bookings",
				`{"coach_id":7,"date":"2026-03-16","time":"14:00","duration_minutes":60}`)
			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}

func TestCreateBookingWithoutCallerIsUnauthorized(t *testing.T) {
	handler := NewBookingHandler(&stubBookingService{})

	app := fiber.New()
	app.Post("/api/v1/bookings", handler.CreateBooking)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/bookings",
		`{"coach_id":7,"date":"2026-03-16","time":"14:00","duration_minutes":60}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCancelBookingPassesReason(t *testing.T) {
	service := &stubBookingService{cancelResult: &models.Booking{ID: 9, Status: models.BookingCancelled}}
	handler := NewBookingHandler(service)

	app := appWithCaller(memberCaller)
	app.Post("/api/v1/bookings/:id/cancel", handler.CancelBooking)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/bookings/9/cancel", `{"reason":"sick"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastBookingID != 9 || service.lastReason == nil || *service.lastReason != "sick" {
		t.Fatalf("unexpected cancel args: id %d reason %v", service.lastBookingID, service.lastReason)
	}
}

func TestCancelBookingWithoutBodyAndAlreadyCancelled(t *testing.T) {
	service := &stubBookingService{cancelErr: services.ErrInvalidStateTransition}
	handler := NewBookingHandler(service)

	app := appWithCaller(memberCaller)
	app.Post("/api/v1/bookings/:id/cancel", handler.CancelBooking)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/bookings/9/cancel", "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if service.lastReason != nil {
		t.Fatalf("expected nil reason, got %q", *service.lastReason)
	}
}

func TestGetBookingRejectsBadID(t *testing.T) {
	handler := NewBookingHandler(&stubBookingService{})

	app := appWithCaller(memberCaller)
	app.Get("/api/v1/bookings/:id", handler.GetBooking)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/bookings/abc", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListBookingsPassesStatus(t *testing.T) {
	service := &stubBookingService{listResult: []models.Booking{{ID: 1}, {ID: 2}}}
	handler := NewBookingHandler(service)

	app := appWithCaller(coachCaller)
	app.Get("/api/v1/bookings", handler.ListBookings)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/bookings?status=confirmed", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastStatus != "confirmed" || service.lastCaller != coachCaller {
		t.Fatalf("unexpected list args: %q %+v", service.lastStatus, service.lastCaller)
	}

	var payload struct {
		Bookings []models.Booking `json:"bookings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Bookings) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(payload.Bookings))
	}
}

func TestSlotCapacityReportsRemaining(t *testing.T) {
	service := &stubBookingService{capacity: 1}
	handler := NewBookingHandler(service)

	app := appWithCaller(memberCaller)
	app.Get("/api/v1/coaches/:id/capacity", handler.SlotCapacity)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/coaches/7/capacity?date=2026-03-16&time=14:00", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastCapacityArg.coachID != 7 || service.lastCapacityArg.time != "14:00" {
		t.Fatalf("unexpected capacity args: %+v", service.lastCapacityArg)
	}

	var payload struct {
		Remaining int  `json:"remaining"`
		Available bool `json:"available"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Remaining != 1 || !payload.Available {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestSlotCapacityRejectsMalformedQuery(t *testing.T) {
	handler := NewBookingHandler(&stubBookingService{})

	app := appWithCaller(memberCaller)
	app.Get("/api/v1/coaches/:id/capacity", handler.SlotCapacity)

	for _, target := range []string{
		"/api/v1/coaches/7/capacity?date=2026-03-16&time=9am",
		"/api/v1/coaches/7/capacity?date=tomorrow&time=14:00",
		"/api/v1/coaches/x/capacity?date=2026-03-16&time=14:00",
	} {
		resp := doJSON(t, app, http.MethodGet, target, "")
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, resp.StatusCode)
		}
	}
}
