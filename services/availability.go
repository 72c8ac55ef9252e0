package services

import (
	"time"

	"booking-clone-server/models"

	"gorm.io/gorm"
)

// blockingStatuses are the booking states that hold dates. Cancelled and
// declined bookings release their range.
var blockingStatuses = []models.BookingStatus{
	models.BookingPending,
	models.BookingConfirmed,
	models.BookingCheckedIn,
	models.BookingCheckedOut,
	models.BookingCompleted,
}

// IsAvailable reports whether [checkIn, checkOut) is free of overlapping
// bookings for the property. Two half-open intervals overlap when
// A.start < B.end AND A.end > B.start, so back-to-back stays (one's
// check-out equals the next's check-in) do not conflict. excludeBookingID
// skips the booking's own row when re-checking a date edit; pass 0 for
// creation.
func IsAvailable(db *gorm.DB, propertyID uint, checkIn, checkOut time.Time, excludeBookingID uint) (bool, error) {
	q := db.Model(&models.Booking{}).
		Where("property_id = ? AND status IN ? AND check_in_date < ? AND check_out_date > ?",
			propertyID, blockingStatuses, checkOut, checkIn)
	if excludeBookingID != 0 {
		q = q.Where("id <> ?", excludeBookingID)
	}

	var conflicts int64
	if err := q.Count(&conflicts).Error; err != nil {
		return false, internalError("failed to check availability", err)
	}
	return conflicts == 0, nil
}
