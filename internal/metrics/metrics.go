package metrics

import (
	"context"
	"strconv"
	"sync"

	"github.com/ikoiii/booking-futsal/internal/events"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "futsal"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings accepted.",
		},
	)

	bookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_conflicts_total",
			Help:      "Booking attempts rejected because the slot was taken.",
		},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_status_transitions_total",
			Help:      "Booking status changes by target status.",
		},
		[]string{"status"},
	)

	outboxDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_deliveries_total",
			Help:      "Outbox deliveries by sink and result.",
		},
		[]string{"sink", "result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, bookingsCreated, bookingConflicts, statusTransitions, outboxDeliveries)
	})
}

// ObserveHTTP records one finished request.
func ObserveHTTP(route string, code int, seconds float64) {
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(route).Observe(seconds)
}

func IncBookingCreated() { bookingsCreated.Inc() }

func IncBookingConflict() { bookingConflicts.Inc() }

func IncStatusTransition(status string) {
	statusTransitions.WithLabelValues(status).Inc()
}

// IncOutboxDelivery counts a sink delivery; ok=false counts a failure.
func IncOutboxDelivery(sink string, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	outboxDeliveries.WithLabelValues(sink, result).Inc()
}

// HandleEvent is an event bus subscriber counting created bookings and
// status transitions.
func HandleEvent(_ context.Context, event *events.Event) error {
	switch event.Type {
	case events.EventBookingCreated:
		IncBookingCreated()
	case events.EventBookingStatusChanged:
		var p events.BookingEventPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		IncStatusTransition(p.Status)
	}
	return nil
}
