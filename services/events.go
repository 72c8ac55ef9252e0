package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"booking-clone-server/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"

	bookingEventsChannel = "booking.events"
	paymentEventsChannel = "payment.events"
)

// BookingFact is the outbound shape the payment and notification
// collaborators subscribe to.
type BookingFact struct {
	EventID      string    `json:"eventID"`
	BookingID    uint      `json:"bookingID"`
	PropertyID   uint      `json:"propertyID"`
	GuestID      uint      `json:"guestID"`
	HostID       uint      `json:"hostID"`
	CheckInDate  time.Time `json:"checkInDate"`
	CheckOutDate time.Time `json:"checkOutDate"`
	Amount       float64   `json:"amount"`
	ToStatus     string    `json:"toStatus,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PaymentProcessedFact is consumed from the payment collaborator and mapped
// onto the booking's payment axis.
type PaymentProcessedFact struct {
	PaymentID   string    `json:"paymentID"`
	BookingID   uint      `json:"bookingID"`
	Amount      float64   `json:"amount"`
	Status      string    `json:"status"`
	ProcessedAt time.Time `json:"processedAt"`
}

// appendOutboxEvent stages a fact inside the caller's transaction so the
// fact and the booking change commit or roll back together.
func appendOutboxEvent(tx *gorm.DB, eventType string, booking *models.Booking, toStatus models.BookingStatus) error {
	fact := BookingFact{
		EventID:      uuid.NewString(),
		BookingID:    booking.ID,
		PropertyID:   booking.PropertyID,
		GuestID:      booking.GuestID,
		HostID:       booking.HostID,
		CheckInDate:  booking.CheckInDate,
		CheckOutDate: booking.CheckOutDate,
		Amount:       booking.FinalAmount,
		CreatedAt:    time.Now().UTC(),
	}
	if eventType == EventBookingStatusChanged {
		fact.ToStatus = toStatus.String()
	}

	payload, err := json.Marshal(fact)
	if err != nil {
		return internalError("failed to encode booking fact", err)
	}

	event := models.OutboxEvent{
		ID:        fact.EventID,
		EventType: eventType,
		Payload:   datatypes.JSON(payload),
	}
	if err := tx.Create(&event).Error; err != nil {
		return internalError("failed to stage outbox event", err)
	}
	return nil
}

// PublishOutbox drains unpublished outbox rows to the booking events
// channel and marks them published. Called after every commit and safe to
// re-run: delivery is at-least-once and consumers dedupe on event ID.
func PublishOutbox(ctx context.Context, db *gorm.DB, rdb *redis.Client) {
	if rdb == nil {
		return
	}

	var pending []models.OutboxEvent
	if err := db.Where("published_at IS NULL").Order("created_at ASC").Limit(100).Find(&pending).Error; err != nil {
		log.Printf("outbox: failed to load pending events: %v", err)
		return
	}

	for _, event := range pending {
		envelope, err := json.Marshal(map[string]interface{}{
			"id":      event.ID,
			"type":    event.EventType,
			"payload": json.RawMessage(event.Payload),
		})
		if err != nil {
			log.Printf("outbox: failed to encode event %s: %v", event.ID, err)
			continue
		}
		if err := rdb.Publish(ctx, bookingEventsChannel, envelope).Err(); err != nil {
			// Leave the row unpublished; the next drain retries it.
			log.Printf("outbox: failed to publish event %s: %v", event.ID, err)
			return
		}
		now := time.Now().UTC()
		if err := db.Model(&models.OutboxEvent{}).Where("id = ?", event.ID).
			Update("published_at", now).Error; err != nil {
			log.Printf("outbox: failed to mark event %s published: %v", event.ID, err)
		}
	}
}

// ConsumePaymentEvents subscribes to the payment collaborator's channel and
// applies payment status changes to bookings. The payment axis is
// independent of the lifecycle machine, so this writes it directly. Runs
// until the context is cancelled.
func ConsumePaymentEvents(ctx context.Context, db *gorm.DB, rdb *redis.Client) {
	if rdb == nil {
		return
	}

	sub := rdb.Subscribe(ctx, paymentEventsChannel)
	defer sub.Close()

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("payment events: receive failed: %v", err)
			continue
		}

		var fact PaymentProcessedFact
		if err := json.Unmarshal([]byte(msg.Payload), &fact); err != nil {
			log.Printf("payment events: invalid payload: %v", err)
			continue
		}

		status := models.PaymentStatus(fact.Status)
		if !status.IsValid() || fact.BookingID == 0 {
			log.Printf("payment events: ignoring fact for booking %d with status %q", fact.BookingID, fact.Status)
			continue
		}

		res := db.Model(&models.Booking{}).Where("id = ?", fact.BookingID).
			Updates(map[string]interface{}{"payment_status": status, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			log.Printf("payment events: failed to update booking %d: %v", fact.BookingID, res.Error)
		}
	}
}
