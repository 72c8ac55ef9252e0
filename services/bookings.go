package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"booking-clone-server/metrics"
	"booking-clone-server/models"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// BookingService owns all reads and writes of bookings and their status
// history. Every lifecycle change goes through one transaction that commits
// the status, the history row and the outbound fact together.
type BookingService struct {
	DB         *gorm.DB
	Redis      *redis.Client
	Properties PropertyClient

	// Now is swappable so date guards and refund windows are testable.
	Now func() time.Time
}

func NewBookingService(db *gorm.DB, rdb *redis.Client, properties PropertyClient) *BookingService {
	return &BookingService{
		DB:         db,
		Redis:      rdb,
		Properties: properties,
		Now:        time.Now,
	}
}

type CreateBookingInput struct {
	PropertyID         uint
	GuestID            uint
	CheckInDate        time.Time
	CheckOutDate       time.Time
	NumberOfGuests     int
	SpecialRequests    string
	CancellationPolicy models.CancellationPolicy
}

type UpdateBookingInput struct {
	CheckInDate     *time.Time
	CheckOutDate    *time.Time
	NumberOfGuests  *int
	SpecialRequests *string
}

type ListBookingsFilter struct {
	PropertyID    uint
	GuestID       uint
	HostID        uint
	Status        string
	PaymentStatus string
	CheckInFrom   *time.Time
	CheckInTo     *time.Time
	Page          int
	PageSize      int
}

const (
	defaultPageSize = 10
	maxPageSize     = 100

	createLockTTL = 10 * time.Second
)

// Create validates the stay, verifies availability and prices it from the
// property collaborator's facts, then persists the booking as pending with
// its initial history entry. The overlap read and the insert run inside one
// transaction, serialized per property by a redis lock, so two concurrent
// requests cannot both observe a free range and both insert.
func (s *BookingService) Create(ctx context.Context, input CreateBookingInput) (*models.Booking, error) {
	checkIn := dateOnly(input.CheckInDate)
	checkOut := dateOnly(input.CheckOutDate)

	if !checkOut.After(checkIn) {
		return nil, validationError("check-out date must be after check-in date")
	}
	if !checkIn.After(dateOnly(s.Now())) {
		return nil, validationError("check-in date must be in the future")
	}
	if input.NumberOfGuests < 1 {
		return nil, validationError("number of guests must be positive")
	}
	policy := input.CancellationPolicy
	if policy == "" {
		policy = models.PolicyModerate
	}
	if !policy.IsValid() {
		return nil, validationError("unknown cancellation policy %q", input.CancellationPolicy)
	}

	facts, err := s.Properties.GetProperty(ctx, input.PropertyID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.acquireCreateLock(ctx, input.PropertyID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	nights := nightsBetween(checkIn, checkOut)
	quote := Quote(nights, facts.PricePerNight, facts.FeeSchedule)

	booking := &models.Booking{
		PropertyID:         input.PropertyID,
		GuestID:            input.GuestID,
		HostID:             facts.HostID,
		CheckInDate:        checkIn,
		CheckOutDate:       checkOut,
		NumberOfGuests:     input.NumberOfGuests,
		Nights:             nights,
		BasePrice:          quote.BasePrice,
		ServiceFee:         quote.ServiceFee,
		CleaningFee:        quote.CleaningFee,
		TaxAmount:          quote.TaxAmount,
		FinalAmount:        quote.FinalAmount,
		Currency:           quote.Currency,
		Status:             models.BookingPending,
		PaymentStatus:      models.PaymentPending,
		SpecialRequests:    input.SpecialRequests,
		CancellationPolicy: policy,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		free, err := IsAvailable(tx, input.PropertyID, checkIn, checkOut, 0)
		if err != nil {
			return err
		}
		if !free {
			metrics.AvailabilityConflicts.Inc()
			return availabilityConflictError("property %d is not available for the selected dates", input.PropertyID)
		}

		if err := tx.Create(booking).Error; err != nil {
			return internalError("failed to create booking", err)
		}

		history := models.BookingStatusHistory{
			BookingID:  booking.ID,
			FromStatus: models.BookingPending,
			ToStatus:   models.BookingPending,
			Reason:     "Booking created",
		}
		if err := tx.Create(&history).Error; err != nil {
			return internalError("failed to record booking history", err)
		}

		return appendOutboxEvent(tx, EventBookingCreated, booking, "")
	})
	if err != nil {
		return nil, err
	}

	metrics.BookingsCreated.Inc()
	go PublishOutbox(context.Background(), s.DB, s.Redis)

	return s.GetByID(booking.ID)
}

// GetByID loads a booking with its full status history, oldest entry first.
func (s *BookingService) GetByID(id uint) (*models.Booking, error) {
	var booking models.Booking
	err := s.DB.Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	}).First(&booking, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("booking %d not found", id)
	}
	if err != nil {
		return nil, internalError("failed to load booking", err)
	}
	return &booking, nil
}

// Update applies pre-confirmation edits. Only pending bookings can change;
// date edits re-check availability (excluding the booking's own row) and
// re-price the stay from current property facts.
func (s *BookingService) Update(ctx context.Context, id uint, input UpdateBookingInput) (*models.Booking, error) {
	booking, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingPending {
		return nil, invalidStateError("only pending bookings can be updated, booking %d is %s", id, booking.Status)
	}

	checkIn := booking.CheckInDate
	checkOut := booking.CheckOutDate
	datesChanged := false
	if input.CheckInDate != nil {
		checkIn = dateOnly(*input.CheckInDate)
		datesChanged = true
	}
	if input.CheckOutDate != nil {
		checkOut = dateOnly(*input.CheckOutDate)
		datesChanged = true
	}
	if !checkOut.After(checkIn) {
		return nil, validationError("check-out date must be after check-in date")
	}
	if datesChanged && !checkIn.After(dateOnly(s.Now())) {
		return nil, validationError("check-in date must be in the future")
	}
	if input.NumberOfGuests != nil {
		if *input.NumberOfGuests < 1 {
			return nil, validationError("number of guests must be positive")
		}
		booking.NumberOfGuests = *input.NumberOfGuests
	}
	if input.SpecialRequests != nil {
		booking.SpecialRequests = *input.SpecialRequests
	}

	if datesChanged {
		facts, err := s.Properties.GetProperty(ctx, booking.PropertyID)
		if err != nil {
			return nil, err
		}
		booking.CheckInDate = checkIn
		booking.CheckOutDate = checkOut
		booking.Nights = nightsBetween(checkIn, checkOut)
		quote := Quote(booking.Nights, facts.PricePerNight, facts.FeeSchedule)
		booking.BasePrice = quote.BasePrice
		booking.ServiceFee = quote.ServiceFee
		booking.CleaningFee = quote.CleaningFee
		booking.TaxAmount = quote.TaxAmount
		booking.FinalAmount = quote.FinalAmount
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if datesChanged {
			free, err := IsAvailable(tx, booking.PropertyID, checkIn, checkOut, booking.ID)
			if err != nil {
				return err
			}
			if !free {
				metrics.AvailabilityConflicts.Inc()
				return availabilityConflictError("property %d is not available for the selected dates", booking.PropertyID)
			}
		}

		// The status guard above is advisory; the WHERE clause is what
		// keeps a concurrent confirm from racing the edit.
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", booking.ID, models.BookingPending).
			Updates(map[string]interface{}{
				"check_in_date":    booking.CheckInDate,
				"check_out_date":   booking.CheckOutDate,
				"number_of_guests": booking.NumberOfGuests,
				"special_requests": booking.SpecialRequests,
				"nights":           booking.Nights,
				"base_price":       booking.BasePrice,
				"service_fee":      booking.ServiceFee,
				"cleaning_fee":     booking.CleaningFee,
				"tax_amount":       booking.TaxAmount,
				"final_amount":     booking.FinalAmount,
				"updated_at":       s.Now().UTC(),
			})
		if res.Error != nil {
			return internalError("failed to update booking", res.Error)
		}
		if res.RowsAffected == 0 {
			return invalidStateError("booking %d is no longer pending", booking.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(booking.ID)
}

// List returns bookings matching the filter, newest first, paginated.
func (s *BookingService) List(filter ListBookingsFilter) ([]models.Booking, int64, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PageSize
	if perPage < 1 {
		perPage = defaultPageSize
	}
	if perPage > maxPageSize {
		perPage = maxPageSize
	}

	q := s.DB.Model(&models.Booking{})
	if filter.PropertyID != 0 {
		q = q.Where("property_id = ?", filter.PropertyID)
	}
	if filter.GuestID != 0 {
		q = q.Where("guest_id = ?", filter.GuestID)
	}
	if filter.HostID != 0 {
		q = q.Where("host_id = ?", filter.HostID)
	}
	if filter.Status != "" {
		status, err := models.ParseBookingStatus(filter.Status)
		if err != nil {
			return nil, 0, validationError("unknown status %q", filter.Status)
		}
		q = q.Where("status = ?", status)
	}
	if filter.PaymentStatus != "" {
		status := models.PaymentStatus(filter.PaymentStatus)
		if !status.IsValid() {
			return nil, 0, validationError("unknown payment status %q", filter.PaymentStatus)
		}
		q = q.Where("payment_status = ?", status)
	}
	if filter.CheckInFrom != nil {
		q = q.Where("check_in_date >= ?", dateOnly(*filter.CheckInFrom))
	}
	if filter.CheckInTo != nil {
		q = q.Where("check_in_date <= ?", dateOnly(*filter.CheckInTo))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, internalError("failed to count bookings", err)
	}

	var bookings []models.Booking
	err := q.Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	}).Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, internalError("failed to list bookings", err)
	}
	return bookings, total, nil
}

// Confirm moves a pending booking to confirmed (host accepts).
func (s *BookingService) Confirm(id uint, message string) (*models.Booking, error) {
	if message == "" {
		message = "Booking confirmed by host"
	}
	now := s.Now().UTC()
	return s.transition(id, models.BookingConfirmed, message, map[string]interface{}{
		"confirmed_at": &now,
	})
}

// Decline moves a pending booking to declined (host rejects).
func (s *BookingService) Decline(id uint, reason string) (*models.Booking, error) {
	if reason == "" {
		reason = "Booking declined by host"
	}
	return s.transition(id, models.BookingDeclined, reason, nil)
}

// Cancel terminates a booking before its stay concludes. A non-empty reason
// is required; the refund is computed from the cancellation policy and the
// time remaining to check-in.
func (s *BookingService) Cancel(id uint, reason string) (*models.Booking, error) {
	if reason == "" {
		return nil, validationError("cancellation reason is required")
	}

	booking, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	now := s.Now().UTC()
	refund := RefundAmount(booking.CancellationPolicy, booking.FinalAmount, booking.CheckInDate, now)
	return s.transition(id, models.BookingCancelled, reason, map[string]interface{}{
		"cancelled_at":        &now,
		"cancellation_reason": reason,
		"refund_amount":       refund,
	})
}

// CheckIn moves a confirmed booking to checked-in, guarded by the check-in
// date.
func (s *BookingService) CheckIn(id uint, notes string) (*models.Booking, error) {
	booking, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if dateOnly(s.Now()).Before(booking.CheckInDate) {
		return nil, invalidStateError("cannot check in before the check-in date")
	}
	if notes == "" {
		notes = "Guest checked in"
	}
	return s.transition(id, models.BookingCheckedIn, notes, nil)
}

// CheckOut moves a checked-in booking to checked-out and immediately chains
// to completed. Both transitions, their history rows and their facts commit
// in one transaction.
func (s *BookingService) CheckOut(id uint, notes string) (*models.Booking, error) {
	if notes == "" {
		notes = "Guest checked out"
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.transitionTx(tx, id, models.BookingCheckedOut, notes, nil); err != nil {
			return err
		}
		return s.transitionTx(tx, id, models.BookingCompleted, "Booking completed", nil)
	})
	if err != nil {
		return nil, err
	}

	go PublishOutbox(context.Background(), s.DB, s.Redis)
	return s.GetByID(id)
}

// CalculatePrice quotes a stay without persisting anything.
func (s *BookingService) CalculatePrice(ctx context.Context, propertyID uint, checkInDate, checkOutDate time.Time) (*PriceBreakdown, error) {
	checkIn := dateOnly(checkInDate)
	checkOut := dateOnly(checkOutDate)
	if !checkOut.After(checkIn) {
		return nil, validationError("check-out date must be after check-in date")
	}

	facts, err := s.Properties.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	quote := Quote(nightsBetween(checkIn, checkOut), facts.PricePerNight, facts.FeeSchedule)
	return &quote, nil
}

// RefundAmount implements the policy refund table:
// flexible refunds in full until 1 day before check-in, moderate until 5
// days before, strict refunds half until 7 days before, super_strict never
// refunds after creation.
func RefundAmount(policy models.CancellationPolicy, finalAmount float64, checkIn, now time.Time) float64 {
	daysUntilCheckIn := int(dateOnly(checkIn).Sub(dateOnly(now)).Hours() / 24)

	switch policy {
	case models.PolicyFlexible:
		if daysUntilCheckIn >= 1 {
			return finalAmount
		}
	case models.PolicyModerate:
		if daysUntilCheckIn >= 5 {
			return finalAmount
		}
	case models.PolicyStrict:
		if daysUntilCheckIn >= 7 {
			return RoundMoney(finalAmount * 0.5)
		}
	case models.PolicySuperStrict:
		// no refund after booking creation
	}
	return 0
}

// transition applies a single lifecycle edge in its own transaction and
// publishes the staged fact after commit.
func (s *BookingService) transition(id uint, to models.BookingStatus, reason string, extra map[string]interface{}) (*models.Booking, error) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		return s.transitionTx(tx, id, to, reason, extra)
	})
	if err != nil {
		return nil, err
	}

	go PublishOutbox(context.Background(), s.DB, s.Redis)
	return s.GetByID(id)
}

// transitionTx validates the edge against the machine and commits the
// status change, the history row and the outbound fact atomically. The
// compare-and-set on the current status serializes transitions per booking:
// a concurrent transition that got there first makes RowsAffected zero, and
// the whole unit rolls back leaving status and history untouched.
func (s *BookingService) transitionTx(tx *gorm.DB, id uint, to models.BookingStatus, reason string, extra map[string]interface{}) error {
	var booking models.Booking
	if err := tx.First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("booking %d not found", id)
		}
		return internalError("failed to load booking", err)
	}

	from := booking.Status
	if !from.CanTransitionTo(to) {
		return invalidTransitionError("cannot transition booking %d from %s to %s", id, from, to)
	}

	updates := map[string]interface{}{
		"status":     to,
		"updated_at": s.Now().UTC(),
	}
	for k, v := range extra {
		updates[k] = v
	}

	res := tx.Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return internalError("failed to update booking status", res.Error)
	}
	if res.RowsAffected == 0 {
		return invalidTransitionError("booking %d changed concurrently, transition to %s aborted", id, to)
	}

	history := models.BookingStatusHistory{
		BookingID:  id,
		FromStatus: from,
		ToStatus:   to,
		Reason:     reason,
	}
	if err := tx.Create(&history).Error; err != nil {
		return internalError("failed to record booking history", err)
	}

	booking.Status = to
	if err := appendOutboxEvent(tx, EventBookingStatusChanged, &booking, to); err != nil {
		return err
	}

	metrics.Transitions.WithLabelValues(to.String()).Inc()
	return nil
}

// acquireCreateLock serializes booking creation per property. With redis
// absent (tests, single-node dev) the transaction's overlap re-check is the
// only guard, which is still safe for a single writer.
func (s *BookingService) acquireCreateLock(ctx context.Context, propertyID uint) (func(), error) {
	if s.Redis == nil {
		return func() {}, nil
	}

	key := fmt.Sprintf("booking:create:lock:%d", propertyID)
	for attempt := 0; attempt < 5; attempt++ {
		ok, err := s.Redis.SetNX(ctx, key, "1", createLockTTL).Result()
		if err != nil {
			return nil, dependencyError("failed to acquire booking creation lock", err)
		}
		if ok {
			return func() { s.Redis.Del(context.Background(), key) }, nil
		}
		select {
		case <-ctx.Done():
			return nil, dependencyError("cancelled while waiting for booking creation lock", ctx.Err())
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil, availabilityConflictError("another booking for property %d is in progress, retry shortly", propertyID)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nightsBetween(checkIn, checkOut time.Time) int {
	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	if nights < 1 {
		nights = 1
	}
	return nights
}
