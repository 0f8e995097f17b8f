package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ikoiii/booking-futsal/internal/database"
	"github.com/ikoiii/booking-futsal/internal/domain"
	"github.com/ikoiii/booking-futsal/internal/events"
	"github.com/ikoiii/booking-futsal/internal/models"

	"github.com/rs/zerolog"
)

const maxKomentarLength = 1000

type ReviewService struct {
	reviews  domain.ReviewRepository
	bookings domain.BookingRepository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewReviewService(reviews domain.ReviewRepository, bookings domain.BookingRepository, eventBus domain.EventPublisher, logger *zerolog.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, bookings: bookings, eventBus: eventBus, logger: logger}
}

// CreateReview stores a review of one of the user's bookings. A booking can
// be reviewed once; the field and author are taken from the booking.
func (s *ReviewService) CreateReview(ctx context.Context, user *models.User, bookingID int64, rating int, komentar string) (*models.Review, error) {
	if bookingID <= 0 {
		return nil, domain.Invalid("booking_id is required")
	}
	if !models.ValidRating(rating) {
		return nil, domain.Invalid("rating must be an integer between 1 and 5")
	}
	komentar = strings.TrimSpace(komentar)
	if len(komentar) > maxKomentarLength {
		return nil, domain.Invalid("komentar is too long")
	}

	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != user.ID {
		return nil, domain.ErrForbidden
	}

	existing, err := s.reviews.GetReviewByBooking(ctx, bookingID)
	if err != nil && !errors.Is(err, database.ErrReviewNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, database.ErrReviewExists
	}

	review := &models.Review{
		UserID:     user.ID,
		LapanganID: booking.LapanganID,
		BookingID:  booking.ID,
		Rating:     rating,
		Komentar:   komentar,
		UserNama:   user.Nama,
	}
	if err := s.reviews.CreateReview(ctx, review); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("review_id", review.ID).Int64("booking_id", bookingID).Int("rating", rating).Msg("review created")

	if s.eventBus != nil {
		payload := events.ReviewEventPayload{
			ReviewID:   review.ID,
			BookingID:  review.BookingID,
			LapanganID: review.LapanganID,
			UserID:     review.UserID,
			Rating:     review.Rating,
			Komentar:   review.Komentar,
		}
		if err := s.eventBus.PublishJSON(ctx, events.EventReviewCreated, payload); err != nil {
			s.logger.Error().Err(err).Int64("review_id", review.ID).Msg("publish event error")
		}
	}
	return review, nil
}

func (s *ReviewService) ListLapanganReviews(ctx context.Context, lapanganID int64) ([]*models.Review, *models.RatingSummary, error) {
	reviews, err := s.reviews.ListLapanganReviews(ctx, lapanganID)
	if err != nil {
		return nil, nil, err
	}
	summary, err := s.reviews.GetRatingSummary(ctx, lapanganID)
	if err != nil {
		return nil, nil, err
	}
	return reviews, summary, nil
}
