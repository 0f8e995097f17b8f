package models

import "fmt"

// ParseBookingStatus converts a raw value into a known status.
func ParseBookingStatus(raw string) (BookingStatus, error) {
	s := BookingStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown booking status %q", raw)
	}
	return s, nil
}

// Valid reports whether s is one of the four booking states.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	default:
		return false
	}
}

// Terminal reports whether no transition may leave s.
func (s BookingStatus) Terminal() bool {
	switch s {
	case StatusCancelled, StatusCompleted:
		return true
	case StatusPending, StatusConfirmed:
		return false
	default:
		return true
	}
}

// CanTransitionTo reports whether the edge s -> next exists.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCancelled || next == StatusCompleted
	case StatusCancelled, StatusCompleted:
		return false
	default:
		return false
	}
}

// BlocksSlot reports whether a booking in this state occupies its slot.
func (s BookingStatus) BlocksSlot() bool {
	return s != StatusCancelled
}

func (s BookingStatus) String() string { return string(s) }
