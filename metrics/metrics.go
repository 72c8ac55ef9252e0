package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Number of bookings created",
	})

	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_transitions_total",
		Help: "Number of booking status transitions by target status",
	}, []string{"to_status"})

	AvailabilityConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_availability_conflicts_total",
		Help: "Number of booking requests rejected for overlapping dates",
	})
)
