package routes

import (
	"time"

	"booking-clone-server/models"
	"booking-clone-server/services"
	"booking-clone-server/utils"

	"github.com/kataras/iris/v12"
)

// Bookings is the service behind every handler in this file. main wires the
// production instance; tests swap in one backed by an in-memory database.
var Bookings *services.BookingService

type CreateBookingInput struct {
	PropertyID         uint      `json:"propertyID" validate:"required"`
	GuestID            uint      `json:"guestID" validate:"required"`
	CheckInDate        time.Time `json:"checkInDate" validate:"required"`
	CheckOutDate       time.Time `json:"checkOutDate" validate:"required"`
	NumberOfGuests     int       `json:"numberOfGuests" validate:"required,gte=1,lte=50"`
	SpecialRequests    string    `json:"specialRequests" validate:"max=1000"`
	CancellationPolicy string    `json:"cancellationPolicy" validate:"omitempty,oneof=flexible moderate strict super_strict"`
}

type UpdateBookingInput struct {
	CheckInDate     *time.Time `json:"checkInDate"`
	CheckOutDate    *time.Time `json:"checkOutDate"`
	NumberOfGuests  *int       `json:"numberOfGuests" validate:"omitempty,gte=1,lte=50"`
	SpecialRequests *string    `json:"specialRequests" validate:"omitempty,max=1000"`
}

type ConfirmBookingInput struct {
	Message string `json:"message" validate:"max=500"`
}

type DeclineBookingInput struct {
	Reason string `json:"reason" validate:"max=500"`
}

type CancelBookingInput struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type CheckInOutInput struct {
	Notes string `json:"notes" validate:"max=500"`
}

type CalculatePriceInput struct {
	PropertyID     uint      `json:"propertyID" validate:"required"`
	CheckInDate    time.Time `json:"checkInDate" validate:"required"`
	CheckOutDate   time.Time `json:"checkOutDate" validate:"required"`
	NumberOfGuests int       `json:"numberOfGuests" validate:"omitempty,gte=1"`
}

// GET /api/bookings
func ListBookings(ctx iris.Context) {
	filter := services.ListBookingsFilter{
		PropertyID:    uint(ctx.URLParamIntDefault("propertyId", 0)),
		GuestID:       uint(ctx.URLParamIntDefault("guestId", 0)),
		HostID:        uint(ctx.URLParamIntDefault("hostId", 0)),
		Status:        ctx.URLParam("status"),
		PaymentStatus: ctx.URLParam("paymentStatus"),
		Page:          ctx.URLParamIntDefault("page", 1),
		PageSize:      ctx.URLParamIntDefault("pageSize", 0),
	}

	if from := ctx.URLParam("checkInFrom"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid checkInFrom date format", ctx)
			return
		}
		filter.CheckInFrom = &t
	}
	if to := ctx.URLParam("checkInTo"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid checkInTo date format", ctx)
			return
		}
		filter.CheckInTo = &t
	}

	bookings, total, err := Bookings.List(filter)
	if err != nil {
		handleServiceError(err, ctx)
		return
	}

	perPage := filter.PageSize
	if perPage < 1 {
		perPage = 10
	}
	utils.JSONPage(ctx, bookings, filter.Page, perPage, total)
}

// GET /api/bookings/{id}
func GetBooking(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid booking ID", ctx)
		return
	}

	booking, svcErr := Bookings.GetByID(id)
	if svcErr != nil {
		handleServiceError(svcErr, ctx)
		return
	}
	ctx.JSON(booking)
}

// POST /api/bookings
func CreateBooking(ctx iris.Context) {
	var input CreateBookingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	booking, err := Bookings.Create(ctx.Request().Context(), services.CreateBookingInput{
		PropertyID:         input.PropertyID,
		GuestID:            input.GuestID,
		CheckInDate:        input.CheckInDate,
		CheckOutDate:       input.CheckOutDate,
		NumberOfGuests:     input.NumberOfGuests,
		SpecialRequests:    input.SpecialRequests,
		CancellationPolicy: models.CancellationPolicy(input.CancellationPolicy),
	})
	if err != nil {
		handleServiceError(err, ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(booking)
}

// PUT /api/bookings/{id}
func UpdateBooking(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid booking ID", ctx)
		return
	}

	var input UpdateBookingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	_, svcErr := Bookings.Update(ctx.Request().Context(), id, services.UpdateBookingInput{
		CheckInDate:     input.CheckInDate,
		CheckOutDate:    input.CheckOutDate,
		NumberOfGuests:  input.NumberOfGuests,
		SpecialRequests: input.SpecialRequests,
	})
	if svcErr != nil {
		handleServiceError(svcErr, ctx)
		return
	}
	ctx.StatusCode(iris.StatusNoContent)
}

// POST /api/bookings/{id}/confirm
func ConfirmBooking(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid booking ID", ctx)
		return
	}

	var input ConfirmBookingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if _, svcErr := Bookings.Confirm(id, input.Message); svcErr != nil {
		handleServiceError(svcErr, ctx)
		return
	}
	ctx.StatusCode(iris.StatusNoContent)
}

// POST /api/bookings/{id}/decline
func DeclineBooking(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid booking ID", ctx)
		return
	}

	var input DeclineBookingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if _, svcErr := Bookings.Decline(id, input.Reason); svcErr != nil {
		handleServiceError(svcErr, ctx)
		return
	}
	ctx.StatusCode(iris.StatusNoContent)
}

// POST /api/bookings/{id}/cancel
func CancelBooking(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid booking ID", ctx)
		return
	}

	var input CancelBookingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if _, svcErr := Bookings.Cancel(id, input.Reason); svcErr != nil {
		handleServiceError(svcErr, ctx)
		return
	}
	ctx.StatusCode(iris.StatusNoContent)
}

// POST /api/bookings/{id}/checkin
func CheckInBooking(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid booking ID", ctx)
		return
	}

	input := readOptionalBody(ctx)
	if _, svcErr := Bookings.CheckIn(id, input.Notes); svcErr != nil {
		handleServiceError(svcErr, ctx)
		return
	}
	ctx.StatusCode(iris.StatusNoContent)
}

// POST /api/bookings/{id}/checkout
func CheckOutBooking(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid booking ID", ctx)
		return
	}

	input := readOptionalBody(ctx)
	if _, svcErr := Bookings.CheckOut(id, input.Notes); svcErr != nil {
		handleServiceError(svcErr, ctx)
		return
	}
	ctx.StatusCode(iris.StatusNoContent)
}

// POST /api/bookings/calculate-price
func CalculateBookingPrice(ctx iris.Context) {
	var input CalculatePriceInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	quote, err := Bookings.CalculatePrice(ctx.Request().Context(), input.PropertyID, input.CheckInDate, input.CheckOutDate)
	if err != nil {
		handleServiceError(err, ctx)
		return
	}
	ctx.JSON(quote)
}

// readOptionalBody tolerates an empty body on check-in/check-out.
func readOptionalBody(ctx iris.Context) CheckInOutInput {
	var input CheckInOutInput
	ctx.ReadJSON(&input)
	return input
}

func handleServiceError(err error, ctx iris.Context) {
	message := err.Error()
	if se, ok := err.(*services.Error); ok {
		message = se.Message
	}

	switch services.KindOf(err) {
	case services.KindValidation:
		utils.CreateError(iris.StatusBadRequest, "Validation Error", message, ctx)
	case services.KindNotFound:
		utils.CreateError(iris.StatusNotFound, "Not Found", message, ctx)
	case services.KindInvalidState:
		utils.CreateError(iris.StatusConflict, "Invalid State", message, ctx)
	case services.KindInvalidTransition:
		utils.CreateError(iris.StatusConflict, "Invalid Transition", message, ctx)
	case services.KindAvailabilityConflict:
		utils.CreateError(iris.StatusConflict, "Availability Conflict", message, ctx)
	case services.KindDependencyUnavailable:
		utils.CreateError(iris.StatusBadGateway, "Dependency Unavailable", message, ctx)
	default:
		utils.CreateInternalServerError(ctx)
	}
}
