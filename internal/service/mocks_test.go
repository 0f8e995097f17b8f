package service

import (
	"context"
	"time"

	"github.com/ikoiii/booking-futsal/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) ConflictCount(ctx context.Context, lid int64, t string, s, e int) (int, error) {
	args := m.Called(ctx, lid, t, s, e)
	return args.Int(0), args.Error(1)
}
func (m *mockBookingRepo) CreateBookingWithLock(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockBookingRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockBookingRepo) UpdateBookingStatusWithVersion(ctx context.Context, id, v int64, from, to models.BookingStatus) error {
	return m.Called(ctx, id, v, from, to).Error(0)
}
func (m *mockBookingRepo) ListUserBookings(ctx context.Context, uid int64) ([]*models.Booking, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockBookingRepo) ListBookings(ctx context.Context, f models.BookingFilter) ([]*models.Booking, int, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Booking), args.Int(1), args.Error(2)
}

type mockLapanganRepo struct {
	mock.Mock
}

func (m *mockLapanganRepo) GetLapangan(ctx context.Context, id int64) (*models.Lapangan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lapangan), args.Error(1)
}
func (m *mockLapanganRepo) ListActiveLapangans(ctx context.Context) ([]*models.Lapangan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Lapangan), args.Error(1)
}
func (m *mockLapanganRepo) SearchLapangans(ctx context.Context, f models.LapanganFilter) ([]*models.Lapangan, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Lapangan), args.Error(1)
}
func (m *mockLapanganRepo) ListAvailableLapangans(ctx context.Context, t string, s, e int) ([]*models.Lapangan, error) {
	args := m.Called(ctx, t, s, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Lapangan), args.Error(1)
}

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) CreateReview(ctx context.Context, r *models.Review) error {
	return m.Called(ctx, r).Error(0)
}
func (m *mockReviewRepo) GetReviewByBooking(ctx context.Context, bid int64) (*models.Review, error) {
	args := m.Called(ctx, bid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}
func (m *mockReviewRepo) ListLapanganReviews(ctx context.Context, lid int64) ([]*models.Review, error) {
	args := m.Called(ctx, lid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Review), args.Error(1)
}
func (m *mockReviewRepo) GetRatingSummary(ctx context.Context, lid int64) (*models.RatingSummary, error) {
	args := m.Called(ctx, lid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RatingSummary), args.Error(1)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) CreateUser(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockUserRepo) GetUserByEmail(ctx context.Context, e string) (*models.User, error) {
	args := m.Called(ctx, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockUserRepo) UpdateUserProfile(ctx context.Context, id int64, upd models.ProfileUpdate) error {
	return m.Called(ctx, id, upd).Error(0)
}
func (m *mockUserRepo) ListUsers(ctx context.Context, l, o int) ([]*models.User, int, error) {
	args := m.Called(ctx, l, o)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.User), args.Int(1), args.Error(2)
}

type mockStatsRepo struct {
	mock.Mock
}

func (m *mockStatsRepo) GetBookingStats(ctx context.Context) ([]models.StatusCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StatusCount), args.Error(1)
}
func (m *mockStatsRepo) GetRevenueStats(ctx context.Context) ([]models.DailyRevenue, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DailyRevenue), args.Error(1)
}
func (m *mockStatsRepo) GetPopularLapangans(ctx context.Context, l int) ([]models.PopularLapangan, error) {
	args := m.Called(ctx, l)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PopularLapangan), args.Error(1)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(ctx context.Context, et string, p interface{}) error {
	return m.Called(ctx, et, p).Error(0)
}

type mockSessionStore struct {
	mock.Mock
}

func (m *mockSessionStore) RevokeToken(ctx context.Context, id string, ttl time.Duration) error {
	return m.Called(ctx, id, ttl).Error(0)
}
func (m *mockSessionStore) IsRevoked(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
func (m *mockSessionStore) CheckRateLimit(ctx context.Context, k string, l int, w time.Duration) (bool, error) {
	args := m.Called(ctx, k, l, w)
	return args.Bool(0), args.Error(1)
}
func (m *mockSessionStore) ResetRateLimit(ctx context.Context, k string) error {
	return m.Called(ctx, k).Error(0)
}
