// Package metrics exposes Prometheus counters for the booking engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingsConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bus_booking",
			Name:      "bookings_confirmed_total",
			Help:      "Bookings committed successfully.",
		},
	)

	seatConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bus_booking",
			Name:      "seat_conflicts_total",
			Help:      "Claims rejected because a seat was already booked.",
		},
	)

	bookingsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bus_booking",
			Name:      "bookings_rejected_total",
			Help:      "Booking requests rejected before the claim, by reason.",
		},
		[]string{"reason"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingsConfirmed, seatConflicts, bookingsRejected)
	})
}

// IncBookingConfirmed counts a committed booking.
func IncBookingConfirmed() { bookingsConfirmed.Inc() }

// IncSeatConflict counts a claim lost to a concurrent booking.
func IncSeatConflict() { seatConflicts.Inc() }

// IncBookingRejected counts a pre-claim rejection by reason label
// ("invalid_request" or "eligibility").
func IncBookingRejected(reason string) { bookingsRejected.WithLabelValues(reason).Inc() }
