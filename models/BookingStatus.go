package models

import "fmt"

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"     // waiting for host confirmation
	BookingConfirmed  BookingStatus = "confirmed"   // host confirmed the booking
	BookingCheckedIn  BookingStatus = "checked_in"  // guest has checked in
	BookingCheckedOut BookingStatus = "checked_out" // guest has checked out
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
	BookingDeclined   BookingStatus = "declined" // host declined the booking
)

// validTransitions is the state machine for booking lifecycle transitions.
// Completed, cancelled and declined are terminal.
var validTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:    {BookingConfirmed, BookingDeclined, BookingCancelled},
	BookingConfirmed:  {BookingCheckedIn, BookingCancelled},
	BookingCheckedIn:  {BookingCheckedOut, BookingCancelled},
	BookingCheckedOut: {BookingCompleted},
	BookingCompleted:  {},
	BookingCancelled:  {},
	BookingDeclined:   {},
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// PaymentStatus is an independent axis from the booking lifecycle; it is set
// by the payment collaborator, never by the status machine.
type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentPartialPaid   PaymentStatus = "partial_paid"
	PaymentPaid          PaymentStatus = "paid"
	PaymentRefunded      PaymentStatus = "refunded"
	PaymentPartialRefund PaymentStatus = "partial_refund"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentPartialPaid, PaymentPaid, PaymentRefunded, PaymentPartialRefund:
		return true
	}
	return false
}

// CancellationPolicy is the refund schedule fixed per booking at creation.
type CancellationPolicy string

const (
	PolicyFlexible    CancellationPolicy = "flexible"     // full refund until 1 day before check-in
	PolicyModerate    CancellationPolicy = "moderate"     // full refund until 5 days before
	PolicyStrict      CancellationPolicy = "strict"       // 50% refund until 7 days before, else none
	PolicySuperStrict CancellationPolicy = "super_strict" // no refund after booking
)

func (p CancellationPolicy) IsValid() bool {
	switch p {
	case PolicyFlexible, PolicyModerate, PolicyStrict, PolicySuperStrict:
		return true
	}
	return false
}
