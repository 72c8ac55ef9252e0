package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"booking-clone-server/models"
	"booking-clone-server/services"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type stubPropertyClient struct{}

func (c *stubPropertyClient) GetProperty(ctx context.Context, propertyID uint) (*services.PropertyFacts, error) {
	return &services.PropertyFacts{
		ID:            propertyID,
		HostID:        7,
		Capacity:      6,
		PricePerNight: 100,
		FeeSchedule:   services.DefaultFeeSchedule(),
	}, nil
}

// buildTestApp creates a minimal Iris app with the booking routes backed by
// an in-memory database. The JWT verifier is wired in main and exercised
// there; handlers do not read claims.
func buildTestApp(t *testing.T) *iris.Application {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Booking{}, &models.BookingStatusHistory{}, &models.OutboxEvent{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	Bookings = services.NewBookingService(db, nil, &stubPropertyClient{})
	Bookings.Now = func() time.Time { return testNow }

	app := iris.New()
	app.Validator = validator.New()

	bookings := app.Party("/api/bookings")
	{
		bookings.Get("/", ListBookings)
		bookings.Post("/", CreateBooking)
		bookings.Post("/calculate-price", CalculateBookingPrice)
		bookings.Get("/{id:uint}", GetBooking)
		bookings.Put("/{id:uint}", UpdateBooking)
		bookings.Post("/{id:uint}/confirm", ConfirmBooking)
		bookings.Post("/{id:uint}/decline", DeclineBooking)
		bookings.Post("/{id:uint}/cancel", CancelBooking)
		bookings.Post("/{id:uint}/checkin", CheckInBooking)
		bookings.Post("/{id:uint}/checkout", CheckOutBooking)
	}
	if err := app.Build(); err != nil {
		t.Fatalf("failed to build test app: %v", err)
	}
	return app
}

func doJSON(app *iris.Application, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader([]byte("{}"))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func createBooking(t *testing.T, app *iris.Application) models.Booking {
	t.Helper()
	resp := doJSON(app, http.MethodPost, "/api/bookings", iris.Map{
		"propertyID":         1,
		"guestID":            42,
		"checkInDate":        "2025-06-10T00:00:00Z",
		"checkOutDate":       "2025-06-13T00:00:00Z",
		"numberOfGuests":     2,
		"cancellationPolicy": "flexible",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", resp.Code, resp.Body.String())
	}
	var booking models.Booking
	if err := json.Unmarshal(resp.Body.Bytes(), &booking); err != nil {
		t.Fatalf("invalid create response: %v", err)
	}
	return booking
}

func TestCreateBookingEndpoint(t *testing.T) {
	app := buildTestApp(t)

	booking := createBooking(t, app)
	if booking.Status != models.BookingPending {
		t.Errorf("status = %s, want pending", booking.Status)
	}
	if booking.FinalAmount != 410.40 {
		t.Errorf("finalAmount = %v, want 410.40", booking.FinalAmount)
	}
	if len(booking.StatusHistory) != 1 {
		t.Errorf("history length = %d, want 1", len(booking.StatusHistory))
	}
}

func TestCreateBookingEndpointValidation(t *testing.T) {
	app := buildTestApp(t)

	// Missing required fields fails request validation.
	resp := doJSON(app, http.MethodPost, "/api/bookings", iris.Map{"propertyID": 1})
	if resp.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.Code)
	}

	// Well-formed but semantically invalid dates fail service validation.
	resp = doJSON(app, http.MethodPost, "/api/bookings", iris.Map{
		"propertyID":     1,
		"guestID":        42,
		"checkInDate":    "2025-06-13T00:00:00Z",
		"checkOutDate":   "2025-06-10T00:00:00Z",
		"numberOfGuests": 2,
	})
	if resp.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.Code)
	}
}

func TestCreateBookingEndpointConflict(t *testing.T) {
	app := buildTestApp(t)
	createBooking(t, app)

	resp := doJSON(app, http.MethodPost, "/api/bookings", iris.Map{
		"propertyID":     1,
		"guestID":        43,
		"checkInDate":    "2025-06-12T00:00:00Z",
		"checkOutDate":   "2025-06-14T00:00:00Z",
		"numberOfGuests": 1,
	})
	if resp.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.Code)
	}
}

func TestGetBookingEndpoint(t *testing.T) {
	app := buildTestApp(t)
	booking := createBooking(t, app)

	resp := doJSON(app, http.MethodGet, fmt.Sprintf("/api/bookings/%d", booking.ID), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}

	resp = doJSON(app, http.MethodGet, "/api/bookings/9999", nil)
	if resp.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.Code)
	}
}

func TestListBookingsEndpoint(t *testing.T) {
	app := buildTestApp(t)
	createBooking(t, app)

	resp := doJSON(app, http.MethodGet, "/api/bookings?guestId=42", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}

	var page struct {
		Data []models.Booking `json:"data"`
		Meta struct {
			Total   int64 `json:"total"`
			Page    int   `json:"page"`
			PerPage int   `json:"per_page"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &page); err != nil {
		t.Fatalf("invalid list response: %v", err)
	}
	if page.Meta.Total != 1 || len(page.Data) != 1 {
		t.Errorf("total = %d len = %d, want 1/1", page.Meta.Total, len(page.Data))
	}
	if page.Meta.PerPage != 10 {
		t.Errorf("per_page = %d, want default 10", page.Meta.PerPage)
	}

	resp = doJSON(app, http.MethodGet, "/api/bookings?guestId=999", nil)
	json.Unmarshal(resp.Body.Bytes(), &page)
	if page.Meta.Total != 0 {
		t.Errorf("total = %d, want 0", page.Meta.Total)
	}

	resp = doJSON(app, http.MethodGet, "/api/bookings?checkInFrom=garbage", nil)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("bad date filter: status = %d, want 400", resp.Code)
	}
}

func TestUpdateBookingEndpoint(t *testing.T) {
	app := buildTestApp(t)
	booking := createBooking(t, app)

	resp := doJSON(app, http.MethodPut, fmt.Sprintf("/api/bookings/%d", booking.ID), iris.Map{
		"numberOfGuests": 3,
	})
	if resp.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204: %s", resp.Code, resp.Body.String())
	}

	// Updates are rejected once the booking leaves pending.
	if resp := doJSON(app, http.MethodPost, fmt.Sprintf("/api/bookings/%d/confirm", booking.ID), nil); resp.Code != http.StatusNoContent {
		t.Fatalf("confirm returned %d", resp.Code)
	}
	resp = doJSON(app, http.MethodPut, fmt.Sprintf("/api/bookings/%d", booking.ID), iris.Map{
		"numberOfGuests": 4,
	})
	if resp.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.Code)
	}
}

func TestLifecycleEndpoints(t *testing.T) {
	app := buildTestApp(t)
	booking := createBooking(t, app)

	// Checking in a pending booking is not a legal transition.
	resp := doJSON(app, http.MethodPost, fmt.Sprintf("/api/bookings/%d/checkin", booking.ID), nil)
	if resp.Code != http.StatusConflict {
		t.Errorf("check-in pending: status = %d, want 409", resp.Code)
	}

	if resp := doJSON(app, http.MethodPost, fmt.Sprintf("/api/bookings/%d/confirm", booking.ID), iris.Map{"message": "welcome"}); resp.Code != http.StatusNoContent {
		t.Fatalf("confirm returned %d", resp.Code)
	}

	Bookings.Now = func() time.Time { return time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC) }
	if resp := doJSON(app, http.MethodPost, fmt.Sprintf("/api/bookings/%d/checkin", booking.ID), nil); resp.Code != http.StatusNoContent {
		t.Fatalf("check-in returned %d: %s", resp.Code, resp.Body.String())
	}
	if resp := doJSON(app, http.MethodPost, fmt.Sprintf("/api/bookings/%d/checkout", booking.ID), nil); resp.Code != http.StatusNoContent {
		t.Fatalf("check-out returned %d: %s", resp.Code, resp.Body.String())
	}

	final, err := Bookings.GetByID(booking.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if final.Status != models.BookingCompleted {
		t.Errorf("status = %s, want completed after check-out", final.Status)
	}
	if len(final.StatusHistory) != 5 {
		t.Errorf("history length = %d, want 5", len(final.StatusHistory))
	}
}

func TestCancelBookingEndpoint(t *testing.T) {
	app := buildTestApp(t)
	booking := createBooking(t, app)

	// Reason is required.
	resp := doJSON(app, http.MethodPost, fmt.Sprintf("/api/bookings/%d/cancel", booking.ID), nil)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("cancel without reason: status = %d, want 400", resp.Code)
	}

	resp = doJSON(app, http.MethodPost, fmt.Sprintf("/api/bookings/%d/cancel", booking.ID), iris.Map{"reason": "plans changed"})
	if resp.Code != http.StatusNoContent {
		t.Fatalf("cancel returned %d: %s", resp.Code, resp.Body.String())
	}

	cancelled, _ := Bookings.GetByID(booking.ID)
	if cancelled.Status != models.BookingCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	if cancelled.RefundAmount == nil || *cancelled.RefundAmount != cancelled.FinalAmount {
		t.Errorf("refund = %v, want full refund under flexible policy 9 days out", cancelled.RefundAmount)
	}

	// Cancelling again conflicts and appends nothing.
	resp = doJSON(app, http.MethodPost, fmt.Sprintf("/api/bookings/%d/cancel", booking.ID), iris.Map{"reason": "again"})
	if resp.Code != http.StatusConflict {
		t.Errorf("double cancel: status = %d, want 409", resp.Code)
	}
}

func TestCalculatePriceEndpoint(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(app, http.MethodPost, "/api/bookings/calculate-price", iris.Map{
		"propertyID":     1,
		"checkInDate":    "2025-06-10T00:00:00Z",
		"checkOutDate":   "2025-06-13T00:00:00Z",
		"numberOfGuests": 2,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body.String())
	}

	var quote services.PriceBreakdown
	if err := json.Unmarshal(resp.Body.Bytes(), &quote); err != nil {
		t.Fatalf("invalid quote response: %v", err)
	}
	if quote.Nights != 3 || quote.FinalAmount != 410.40 {
		t.Errorf("quote = %+v, want 3 nights at 410.40", quote)
	}

	// Quoting persists nothing.
	_, total, err := Bookings.List(services.ListBookingsFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 0 {
		t.Errorf("bookings persisted by quote: %d", total)
	}
}
