package models

import (
	"time"

	"gorm.io/gorm"
)

// Booking models a reservation of a property for a guest over a date range.
// Date intervals are half-open: [CheckInDate, CheckOutDate). A booking is
// never deleted; cancellation is a terminal status, not a removal.
type Booking struct {
	gorm.Model
	PropertyID     uint      `json:"propertyID" gorm:"not null;index"`
	GuestID        uint      `json:"guestID" gorm:"not null;index"`
	HostID         uint      `json:"hostID" gorm:"not null;index"`
	CheckInDate    time.Time `json:"checkInDate" gorm:"not null;index"`
	CheckOutDate   time.Time `json:"checkOutDate" gorm:"not null"`
	NumberOfGuests int       `json:"numberOfGuests" gorm:"not null"`
	Nights         int       `json:"nights" gorm:"not null"`

	BasePrice   float64 `json:"basePrice"`
	ServiceFee  float64 `json:"serviceFee"`
	CleaningFee float64 `json:"cleaningFee"`
	TaxAmount   float64 `json:"taxAmount"`
	FinalAmount float64 `json:"finalAmount"`
	Currency    string  `json:"currency" gorm:"type:varchar(8);default:'USD'"`

	Status        BookingStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	PaymentStatus PaymentStatus `json:"paymentStatus" gorm:"type:varchar(20);not null;index;default:'pending'"`

	SpecialRequests    string             `json:"specialRequests" gorm:"type:text"`
	CancellationPolicy CancellationPolicy `json:"cancellationPolicy" gorm:"type:varchar(20);not null"`

	ConfirmedAt        *time.Time `json:"confirmedAt,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CancellationReason string     `json:"cancellationReason,omitempty" gorm:"type:text"`
	RefundAmount       *float64   `json:"refundAmount,omitempty"`

	StatusHistory []BookingStatusHistory `json:"statusHistory" gorm:"foreignKey:BookingID"`
}

// BookingStatusHistory is the append-only audit trail of a booking's state
// transitions. The latest entry's ToStatus always matches the booking's
// current status.
type BookingStatusHistory struct {
	gorm.Model
	BookingID  uint          `json:"bookingID" gorm:"not null;index"`
	FromStatus BookingStatus `json:"fromStatus" gorm:"type:varchar(20);not null"`
	ToStatus   BookingStatus `json:"toStatus" gorm:"type:varchar(20);not null"`
	Reason     string        `json:"reason" gorm:"type:text"`
}
