package domain

import (
	"context"
	"time"

	"github.com/ikoiii/booking-futsal/internal/models"
)

type BookingRepository interface {
	ConflictCount(ctx context.Context, lapanganID int64, tanggal string, jamMulai, jamSelesai int) (int, error)
	CreateBookingWithLock(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, from, to models.BookingStatus) error
	ListUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error)
	ListBookings(ctx context.Context, f models.BookingFilter) ([]*models.Booking, int, error)
}

type LapanganRepository interface {
	GetLapangan(ctx context.Context, id int64) (*models.Lapangan, error)
	ListActiveLapangans(ctx context.Context) ([]*models.Lapangan, error)
	SearchLapangans(ctx context.Context, f models.LapanganFilter) ([]*models.Lapangan, error)
	ListAvailableLapangans(ctx context.Context, tanggal string, jamMulai, jamSelesai int) ([]*models.Lapangan, error)
}

type ReviewRepository interface {
	CreateReview(ctx context.Context, r *models.Review) error
	GetReviewByBooking(ctx context.Context, bookingID int64) (*models.Review, error)
	ListLapanganReviews(ctx context.Context, lapanganID int64) ([]*models.Review, error)
	GetRatingSummary(ctx context.Context, lapanganID int64) (*models.RatingSummary, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, id int64, upd models.ProfileUpdate) error
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, int, error)
}

type StatsRepository interface {
	GetBookingStats(ctx context.Context) ([]models.StatusCount, error)
	GetRevenueStats(ctx context.Context) ([]models.DailyRevenue, error)
	GetPopularLapangans(ctx context.Context, limit int) ([]models.PopularLapangan, error)
}

type OutboxRepository interface {
	CreateOutboxTask(ctx context.Context, task *models.OutboxTask) error
	GetPendingOutboxTasks(ctx context.Context, limit int) ([]models.OutboxTask, error)
	ClaimOutboxTask(ctx context.Context, id int64, lease time.Duration) (bool, error)
	UpdateOutboxTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

// SessionStore keeps short-lived session state: revoked token ids and login attempt counters.
type SessionStore interface {
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	ResetRateLimit(ctx context.Context, key string) error
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, eventType string, payload interface{}) error
}
