package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

const (
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"
	EventReviewCreated        = "review.created"

	// AllEvents subscribes a handler to every event type.
	AllEvents = "*"
)

// BookingEventPayload is the booking snapshot delivered to event consumers.
type BookingEventPayload struct {
	BookingID      int64  `json:"booking_id"`
	UserID         int64  `json:"user_id"`
	UserNama       string `json:"user_nama,omitempty"`
	UserEmail      string `json:"user_email,omitempty"`
	LapanganID     int64  `json:"lapangan_id"`
	LapanganNama   string `json:"lapangan_nama,omitempty"`
	Tanggal        string `json:"tanggal"`
	JamMulai       int    `json:"jam_mulai"`
	JamSelesai     int    `json:"jam_selesai"`
	TotalHarga     int64  `json:"total_harga"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status,omitempty"`
	ChangedByID    int64  `json:"changed_by_id,omitempty"`
	ChangedByRole  string `json:"changed_by_role,omitempty"`
}

// ReviewEventPayload describes a new review.
type ReviewEventPayload struct {
	ReviewID   int64  `json:"review_id"`
	BookingID  int64  `json:"booking_id"`
	LapanganID int64  `json:"lapangan_id"`
	UserID     int64  `json:"user_id"`
	Rating     int    `json:"rating"`
	Komentar   string `json:"komentar,omitempty"`
}

// Event is a domain event with a JSON payload.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

type EventHandler func(ctx context.Context, event *Event) error

// EventBus is an in-process pub/sub. Handlers run synchronously in subscription order.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for eventType, or for every type with AllEvents.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish delivers event to its subscribers. Every handler runs; their errors are joined.
func (b *EventBus) Publish(ctx context.Context, event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.subscribers[AllEvents]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(ctx context.Context, eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	return b.Publish(ctx, &event)
}

// NewJSONEvent builds an Event with a JSON payload.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
