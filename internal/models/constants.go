package models

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// Role of a registered user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// LapanganStatus marks whether a field can be booked.
type LapanganStatus string

const (
	LapanganActive   LapanganStatus = "aktif"
	LapanganInactive LapanganStatus = "nonaktif"
)

// Outbox task states.
const (
	OutboxPending    = "pending"
	OutboxProcessing = "processing"
	OutboxRetry      = "retry"
	OutboxCompleted  = "completed"
	OutboxFailed     = "failed"
)

const (
	// DateLayout is the wire and storage format of a booking date.
	DateLayout = "2006-01-02"

	DefaultOpenHour             = 8
	DefaultCloseHour            = 23
	DefaultMinDurationHours     = 1
	DefaultMaxDurationHours     = 4
	DefaultMaxDaysAdvance       = 30
	DefaultCancellationDeadline = 2 // hours

	DefaultPageSize = 10
	MaxPageSize     = 50

	// OutboxQueueSize is the capacity of the in-memory outbox fallback queue.
	OutboxQueueSize = 1000
)
