package database

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ikoiii/booking-futsal/internal/config"
	"github.com/ikoiii/booking-futsal/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *DB, email string) *models.User {
	t.Helper()
	u := &models.User{Nama: "User " + email, Email: email, PasswordHash: "hash", NoTelp: "081234567890"}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func seedLapangan(t *testing.T, db *DB, nama string, harga int64) *models.Lapangan {
	t.Helper()
	l := &models.Lapangan{Nama: nama, Lokasi: "Jakarta Selatan", HargaPerJam: harga, Fasilitas: []string{"Parkir", "Toilet"}}
	require.NoError(t, db.SaveLapangan(context.Background(), l))
	return l
}

func TestNewDB_DirectoryCreation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
	assert.Equal(t, "sqlite", db.Driver())
}

func TestNewDB_SchemaIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "twice.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	seedUser(t, db, "keep@example.com")
	require.NoError(t, db.Close())

	db, err = NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	u, err := db.GetUserByEmail(context.Background(), "keep@example.com")
	require.NoError(t, err)
	assert.Equal(t, "keep@example.com", u.Email)
}

func TestOpen_UnknownDriver(t *testing.T) {
	logger := zerolog.Nop()
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "oracle"}, &logger)
	assert.Error(t, err)
}

func TestMySQLDSN(t *testing.T) {
	dsn := mysqlDSN(config.MySQLConfig{
		Host:     "db",
		Port:     3306,
		User:     "futsal",
		Password: "secret",
		DBName:   "futsal_booking",
	})
	assert.True(t, strings.HasPrefix(dsn, "futsal:secret@tcp(db:3306)/futsal_booking?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestDB_ForeignKeysEnforced(t *testing.T) {
	db := setupTestDB(t)
	l := seedLapangan(t, db, "Lapangan A", 100000)

	err := db.CreateBookingWithLock(context.Background(), &models.Booking{
		UserID: 999, LapanganID: l.ID, Tanggal: "2025-06-01", JamMulai: 9, JamSelesai: 10,
	})
	assert.Error(t, err)
}

func TestDB_ErrorPathsAfterClose(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	db.Close()

	ctx := context.Background()
	_, err = db.ConflictCount(ctx, 1, "2025-06-01", 9, 10)
	assert.Error(t, err)
	assert.Error(t, db.CreateBookingWithLock(ctx, &models.Booking{LapanganID: 1}))
	_, err = db.GetBooking(ctx, 1)
	assert.Error(t, err)
	_, _, err = db.ListBookings(ctx, models.BookingFilter{})
	assert.Error(t, err)
	_, err = db.SearchLapangans(ctx, models.LapanganFilter{})
	assert.Error(t, err)
	assert.Error(t, db.CreateUser(ctx, &models.User{Email: "x@example.com"}))
	assert.Error(t, db.CreateReview(ctx, &models.Review{}))
	assert.Error(t, db.CreateOutboxTask(ctx, &models.OutboxTask{}))
	assert.Error(t, db.UpdateOutboxTaskStatus(ctx, 1, models.OutboxRetry, "x", nil))
	_, err = db.GetBookingStats(ctx)
	assert.Error(t, err)
	assert.Error(t, db.UpdateBookingStatusWithVersion(ctx, 1, 1, models.StatusPending, models.StatusConfirmed))
}
