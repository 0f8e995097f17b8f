package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ikoiii/booking-futsal/internal/config"
	"github.com/ikoiii/booking-futsal/internal/database"
	"github.com/ikoiii/booking-futsal/internal/domain"
	"github.com/ikoiii/booking-futsal/internal/events"
	"github.com/ikoiii/booking-futsal/internal/metrics"
	"github.com/ikoiii/booking-futsal/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	bookings  domain.BookingRepository
	lapangans domain.LapanganRepository
	eventBus  domain.EventPublisher
	rules     config.BookingConfig
	loc       *time.Location
	now       func() time.Time
	logger    *zerolog.Logger
}

func NewBookingService(
	bookings domain.BookingRepository,
	lapangans domain.LapanganRepository,
	eventBus domain.EventPublisher,
	rules config.BookingConfig,
	logger *zerolog.Logger,
) *BookingService {
	return &BookingService{
		bookings:  bookings,
		lapangans: lapangans,
		eventBus:  eventBus,
		rules:     rules,
		loc:       rules.Location(),
		now:       time.Now,
		logger:    logger,
	}
}

// ValidateSlot checks the interval shape, operating hours, duration bounds and
// the booking horizon. It does not look at other bookings.
func (s *BookingService) ValidateSlot(slot models.Slot) error {
	if slot.LapanganID <= 0 {
		return domain.Invalid("lapangan_id is required")
	}
	if err := slot.Validate(); err != nil {
		return domain.Invalid(err.Error())
	}
	if slot.JamMulai < s.rules.OpenHour || slot.JamSelesai > s.rules.CloseHour {
		return domain.Invalid(fmt.Sprintf("booking must be within operating hours %02d:00-%02d:00", s.rules.OpenHour, s.rules.CloseHour))
	}
	if d := slot.Duration(); d < s.rules.MinDurationHours || d > s.rules.MaxDurationHours {
		return domain.Invalid(fmt.Sprintf("booking duration must be between %d and %d hours", s.rules.MinDurationHours, s.rules.MaxDurationHours))
	}
	return s.validateHorizon(slot)
}

func (s *BookingService) validateHorizon(slot models.Slot) error {
	now := s.now().In(s.loc)
	day, err := time.ParseInLocation(models.DateLayout, slot.Tanggal, s.loc)
	if err != nil {
		return domain.Invalid("tanggal must be in YYYY-MM-DD format")
	}

	start := day.Add(time.Duration(slot.JamMulai) * time.Hour)
	if !start.After(now) {
		return domain.Invalid("cannot book a slot in the past")
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	if day.After(today.AddDate(0, 0, s.rules.MaxDaysAdvance)) {
		return domain.Invalid(fmt.Sprintf("bookings can be made at most %d days in advance", s.rules.MaxDaysAdvance))
	}
	return nil
}

// CreateBooking books slot for user at the field's current price.
func (s *BookingService) CreateBooking(ctx context.Context, user *models.User, slot models.Slot) (*models.Booking, error) {
	if err := s.ValidateSlot(slot); err != nil {
		return nil, err
	}

	lapangan, err := s.lapangans.GetLapangan(ctx, slot.LapanganID)
	if err != nil {
		return nil, err
	}
	if !lapangan.IsActive() {
		return nil, database.ErrLapanganInactive
	}

	conflicts, err := s.bookings.ConflictCount(ctx, slot.LapanganID, slot.Tanggal, slot.JamMulai, slot.JamSelesai)
	if err != nil {
		return nil, err
	}
	if conflicts > 0 {
		metrics.IncBookingConflict()
		return nil, database.ErrNotAvailable
	}

	booking := &models.Booking{
		UserID:     user.ID,
		LapanganID: slot.LapanganID,
		Tanggal:    slot.Tanggal,
		JamMulai:   slot.JamMulai,
		JamSelesai: slot.JamSelesai,
		Status:     models.StatusPending,
	}
	if err := s.bookings.CreateBookingWithLock(ctx, booking); err != nil {
		if errors.Is(err, database.ErrNotAvailable) {
			metrics.IncBookingConflict()
		}
		return nil, err
	}

	booking.LapanganNama = lapangan.Nama
	booking.LapanganLokasi = lapangan.Lokasi
	booking.UserNama = user.Nama
	booking.UserEmail = user.Email

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("user_id", user.ID).
		Int64("lapangan_id", booking.LapanganID).
		Str("tanggal", booking.Tanggal).
		Int("jam_mulai", booking.JamMulai).
		Int("jam_selesai", booking.JamSelesai).
		Msg("booking created")

	s.publishEvent(ctx, events.EventBookingCreated, booking, "", user)
	return booking, nil
}

// GetBooking returns the booking if actor owns it or is an admin.
func (s *BookingService) GetBooking(ctx context.Context, actor *models.User, id int64) (*models.Booking, error) {
	booking, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(actor, booking.UserID) {
		return nil, domain.ErrForbidden
	}
	return booking, nil
}

func (s *BookingService) ListUserBookings(ctx context.Context, actor *models.User, userID int64) ([]*models.Booking, error) {
	if !canAccess(actor, userID) {
		return nil, domain.ErrForbidden
	}
	return s.bookings.ListUserBookings(ctx, userID)
}

func (s *BookingService) ListBookings(ctx context.Context, f models.BookingFilter) ([]*models.Booking, int, error) {
	return s.bookings.ListBookings(ctx, f)
}

// CancelBooking cancels a booking. Owners are bound by the cancellation
// deadline, admins are not.
func (s *BookingService) CancelBooking(ctx context.Context, actor *models.User, id int64) (*models.Booking, error) {
	booking, err := s.GetBooking(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanTransitionTo(models.StatusCancelled) {
		return nil, domain.ErrInvalidTransition
	}

	if !actor.IsAdmin() {
		ok, err := booking.CancellableAt(s.now(), s.rules.CancellationDeadline, s.loc)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrCancellationWindow
		}
	}

	return s.transition(ctx, actor, booking, models.StatusCancelled)
}

// SetStatus is the admin status update.
func (s *BookingService) SetStatus(ctx context.Context, actor *models.User, id int64, to models.BookingStatus) (*models.Booking, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	switch to {
	case models.StatusConfirmed, models.StatusCancelled, models.StatusCompleted:
	default:
		return nil, domain.Invalid("status must be one of confirmed, cancelled, completed")
	}

	booking, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, booking, to)
}

func (s *BookingService) transition(ctx context.Context, actor *models.User, booking *models.Booking, to models.BookingStatus) (*models.Booking, error) {
	if !booking.Status.CanTransitionTo(to) {
		return nil, domain.ErrInvalidTransition
	}

	from := booking.Status
	if err := s.bookings.UpdateBookingStatusWithVersion(ctx, booking.ID, booking.Version, from, to); err != nil {
		return nil, err
	}

	updated, err := s.bookings.GetBooking(ctx, booking.ID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("booking_id", booking.ID).Msg("reload after status change failed")
		updated = booking
		updated.Status = to
		updated.Version++
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Str("from", from.String()).
		Str("to", to.String()).
		Int64("actor_id", actor.ID).
		Str("actor_role", string(actor.Role)).
		Msg("booking status changed")

	s.publishEvent(ctx, events.EventBookingStatusChanged, updated, from, actor)
	return updated, nil
}

// ListAvailable returns the active fields free for the whole slot.
func (s *BookingService) ListAvailable(ctx context.Context, tanggal string, jamMulai, jamSelesai int) ([]*models.Lapangan, error) {
	slot := models.Slot{Tanggal: tanggal, JamMulai: jamMulai, JamSelesai: jamSelesai}
	if err := slot.Validate(); err != nil {
		return nil, domain.Invalid(err.Error())
	}
	return s.lapangans.ListAvailableLapangans(ctx, tanggal, jamMulai, jamSelesai)
}

func (s *BookingService) ConflictCount(ctx context.Context, slot models.Slot) (int, error) {
	if err := slot.Validate(); err != nil {
		return 0, domain.Invalid(err.Error())
	}
	return s.bookings.ConflictCount(ctx, slot.LapanganID, slot.Tanggal, slot.JamMulai, slot.JamSelesai)
}

func (s *BookingService) publishEvent(ctx context.Context, eventType string, booking *models.Booking, previous models.BookingStatus, actor *models.User) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:      booking.ID,
		UserID:         booking.UserID,
		UserNama:       booking.UserNama,
		UserEmail:      booking.UserEmail,
		LapanganID:     booking.LapanganID,
		LapanganNama:   booking.LapanganNama,
		Tanggal:        booking.Tanggal,
		JamMulai:       booking.JamMulai,
		JamSelesai:     booking.JamSelesai,
		TotalHarga:     booking.TotalHarga,
		Status:         booking.Status.String(),
		PreviousStatus: previous.String(),
	}
	if actor != nil {
		payload.ChangedByID = actor.ID
		payload.ChangedByRole = string(actor.Role)
	}

	if err := s.eventBus.PublishJSON(ctx, eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func canAccess(actor *models.User, ownerID int64) bool {
	return actor != nil && (actor.IsAdmin() || actor.ID == ownerID)
}
