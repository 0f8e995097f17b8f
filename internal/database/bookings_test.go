package database

import (
	"context"
	"testing"

	"github.com/ikoiii/booking-futsal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBooking(userID, lapanganID int64, tanggal string, start, end int) *models.Booking {
	return &models.Booking{UserID: userID, LapanganID: lapanganID, Tanggal: tanggal, JamMulai: start, JamSelesai: end}
}

func TestCreateBookingWithLock_SnapshotsPrice(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, "a@example.com")
	l := seedLapangan(t, db, "Lapangan A", 100000)

	b := newBooking(u.ID, l.ID, "2025-06-01", 9, 11)
	require.NoError(t, db.CreateBookingWithLock(ctx, b))

	assert.NotZero(t, b.ID)
	assert.Equal(t, models.StatusPending, b.Status)
	assert.Equal(t, int64(100000), b.HargaPerJam)
	assert.Equal(t, int64(200000), b.TotalHarga)
	assert.Equal(t, int64(1), b.Version)

	require.NoError(t, db.UpdateLapanganPrice(ctx, l.ID, 150000))

	stored, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), stored.HargaPerJam)
	assert.Equal(t, int64(200000), stored.TotalHarga)
	assert.Equal(t, "Lapangan A", stored.LapanganNama)
	assert.Equal(t, "a@example.com", stored.UserEmail)
}

func TestCreateBookingWithLock_Conflicts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, "a@example.com")
	l := seedLapangan(t, db, "Lapangan A", 100000)
	other := seedLapangan(t, db, "Lapangan B", 90000)

	require.NoError(t, db.CreateBookingWithLock(ctx, newBooking(u.ID, l.ID, "2025-06-01", 9, 11)))

	tests := []struct {
		name       string
		b          *models.Booking
		wantErr    error
		shouldPass bool
	}{
		{name: "overlapping tail", b: newBooking(u.ID, l.ID, "2025-06-01", 10, 12), wantErr: ErrNotAvailable},
		{name: "overlapping head", b: newBooking(u.ID, l.ID, "2025-06-01", 8, 10), wantErr: ErrNotAvailable},
		{name: "contained", b: newBooking(u.ID, l.ID, "2025-06-01", 9, 10), wantErr: ErrNotAvailable},
		{name: "adjacent after", b: newBooking(u.ID, l.ID, "2025-06-01", 11, 12), shouldPass: true},
		{name: "adjacent before", b: newBooking(u.ID, l.ID, "2025-06-01", 8, 9), shouldPass: true},
		{name: "other date", b: newBooking(u.ID, l.ID, "2025-06-02", 9, 11), shouldPass: true},
		{name: "other field", b: newBooking(u.ID, other.ID, "2025-06-01", 9, 11), shouldPass: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.CreateBookingWithLock(ctx, tt.b)
			if tt.shouldPass {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrConflict)
		})
	}
}

func TestCreateBookingWithLock_FieldChecks(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, "a@example.com")

	err := db.CreateBookingWithLock(ctx, newBooking(u.ID, 42, "2025-06-01", 9, 10))
	assert.ErrorIs(t, err, ErrLapanganNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	l := &models.Lapangan{Nama: "Tutup", HargaPerJam: 50000, Status: models.LapanganInactive}
	require.NoError(t, db.SaveLapangan(ctx, l))
	err = db.CreateBookingWithLock(ctx, newBooking(u.ID, l.ID, "2025-06-01", 9, 10))
	assert.ErrorIs(t, err, ErrLapanganInactive)
}

func TestConflictCount_IgnoresCancelled(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, "a@example.com")
	l := seedLapangan(t, db, "Lapangan A", 100000)

	b := newBooking(u.ID, l.ID, "2025-06-01", 9, 11)
	require.NoError(t, db.CreateBookingWithLock(ctx, b))

	count, err := db.ConflictCount(ctx, l.ID, "2025-06-01", 10, 12)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, b.ID, b.Version, models.StatusPending, models.StatusCancelled))

	count, err = db.ConflictCount(ctx, l.ID, "2025-06-01", 9, 11)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// the freed slot can be booked again
	require.NoError(t, db.CreateBookingWithLock(ctx, newBooking(u.ID, l.ID, "2025-06-01", 10, 12)))
}

func TestConflictCount_ConfirmedBlocks(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, "a@example.com")
	l := seedLapangan(t, db, "Lapangan A", 100000)

	b := newBooking(u.ID, l.ID, "2025-06-01", 18, 20)
	require.NoError(t, db.CreateBookingWithLock(ctx, b))
	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, b.ID, 1, models.StatusPending, models.StatusConfirmed))

	count, err := db.ConflictCount(ctx, l.ID, "2025-06-01", 19, 21)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpdateBookingStatusWithVersion(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, "a@example.com")
	l := seedLapangan(t, db, "Lapangan A", 100000)

	b := newBooking(u.ID, l.ID, "2025-06-01", 9, 11)
	require.NoError(t, db.CreateBookingWithLock(ctx, b))

	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, b.ID, 1, models.StatusPending, models.StatusConfirmed))

	// stale version
	err := db.UpdateBookingStatusWithVersion(ctx, b.ID, 1, models.StatusPending, models.StatusCancelled)
	assert.ErrorIs(t, err, ErrConcurrentModification)

	// stale status
	err = db.UpdateBookingStatusWithVersion(ctx, b.ID, 2, models.StatusPending, models.StatusCancelled)
	assert.ErrorIs(t, err, ErrConcurrentModification)

	stored, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, stored.Status)
	assert.Equal(t, int64(2), stored.Version)
}

func TestGetBooking_NotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.GetBooking(context.Background(), 404)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestListBookings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	a := seedUser(t, db, "a@example.com")
	b := seedUser(t, db, "b@example.com")
	l := seedLapangan(t, db, "Lapangan A", 100000)

	require.NoError(t, db.CreateBookingWithLock(ctx, newBooking(a.ID, l.ID, "2025-06-01", 9, 10)))
	require.NoError(t, db.CreateBookingWithLock(ctx, newBooking(a.ID, l.ID, "2025-06-02", 9, 10)))
	require.NoError(t, db.CreateBookingWithLock(ctx, newBooking(b.ID, l.ID, "2025-06-01", 10, 11)))

	own, err := db.ListUserBookings(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, "2025-06-02", own[0].Tanggal)

	page, total, err := db.ListBookings(ctx, models.BookingFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, page, 2)

	byDate, total, err := db.ListBookings(ctx, models.BookingFilter{Tanggal: "2025-06-01", Status: models.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, byDate, 2)

	none, err := db.ListUserBookings(ctx, 12345)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
