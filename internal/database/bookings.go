package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ikoiii/booking-futsal/internal/models"
)

const bookingSelect = `SELECT b.id, b.user_id, b.lapangan_id, b.tanggal, b.jam_mulai, b.jam_selesai,
		b.harga_per_jam, b.total_harga, b.status, b.version, b.created_at, b.updated_at,
		l.nama, l.lokasi, u.nama, u.email
	FROM bookings b
	JOIN lapangans l ON l.id = b.lapangan_id
	JOIN users u ON u.id = b.user_id`

const conflictPredicate = `lapangan_id = ? AND tanggal = ? AND status <> ? AND jam_mulai < ? AND ? < jam_selesai`

// ConflictCount counts non-cancelled bookings of the field on tanggal whose
// hours overlap [jamMulai, jamSelesai).
func (db *DB) ConflictCount(ctx context.Context, lapanganID int64, tanggal string, jamMulai, jamSelesai int) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE `+conflictPredicate,
		lapanganID, tanggal, models.StatusCancelled, jamSelesai, jamMulai).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count conflicts: %w", err)
	}
	return count, nil
}

// CreateBookingWithLock checks the slot and inserts the booking in one
// transaction. The field's current price is snapshotted onto the booking.
func (db *DB) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var (
		harga  int64
		status models.LapanganStatus
	)
	err = tx.QueryRowContext(ctx, `SELECT harga_per_jam, status FROM lapangans WHERE id = ?`+db.dialect.forUpdate,
		booking.LapanganID).Scan(&harga, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrLapanganNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock lapangan: %w", err)
	}
	if status != models.LapanganActive {
		return ErrLapanganInactive
	}

	var conflicts int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE `+conflictPredicate,
		booking.LapanganID, booking.Tanggal, models.StatusCancelled, booking.JamSelesai, booking.JamMulai).Scan(&conflicts)
	if err != nil {
		return fmt.Errorf("failed to check availability in tx: %w", err)
	}
	if conflicts > 0 {
		return ErrNotAvailable
	}

	ts := nowUTC()
	booking.HargaPerJam = harga
	booking.TotalHarga = models.TotalPrice(booking.JamMulai, booking.JamSelesai, harga)
	if booking.Status == "" {
		booking.Status = models.StatusPending
	}

	result, err := tx.ExecContext(ctx, `INSERT INTO bookings (
			user_id, lapangan_id, tanggal, jam_mulai, jam_selesai,
			harga_per_jam, total_harga, status, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		booking.UserID, booking.LapanganID, booking.Tanggal, booking.JamMulai, booking.JamSelesai,
		booking.HargaPerJam, booking.TotalHarga, booking.Status, ts, ts,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	booking.ID = id
	booking.Version = 1
	booking.CreatedAt = ts
	booking.UpdatedAt = ts
	return nil
}

// GetBooking returns a booking joined with its field and user.
func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, bookingSelect+` WHERE b.id = ?`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// UpdateBookingStatusWithVersion moves a booking from one status to
// another only if nobody changed it since fromVersion was read.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, from, to models.BookingStatus) error {
	result, err := db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ? AND status = ?`,
		to, nowUTC(), id, fromVersion, from)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// ListUserBookings returns the bookings of one user, newest slot first.
func (db *DB) ListUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	bookings, _, err := db.ListBookings(ctx, models.BookingFilter{UserID: userID})
	return bookings, err
}

// ListBookings returns bookings matching f and the total number of matches.
// A zero Limit returns every match.
func (db *DB) ListBookings(ctx context.Context, f models.BookingFilter) ([]*models.Booking, int, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.Status != "" {
		where = append(where, "b.status = ?")
		args = append(args, f.Status)
	}
	if f.LapanganID != 0 {
		where = append(where, "b.lapangan_id = ?")
		args = append(args, f.LapanganID)
	}
	if f.UserID != 0 {
		where = append(where, "b.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Tanggal != "" {
		where = append(where, "b.tanggal = ?")
		args = append(args, f.Tanggal)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings b`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	query := bookingSelect + clause + ` ORDER BY b.tanggal DESC, b.jam_mulai DESC, b.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []*models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, total, nil
}

func scanBooking(s scanner) (*models.Booking, error) {
	var b models.Booking
	err := s.Scan(
		&b.ID, &b.UserID, &b.LapanganID, &b.Tanggal, &b.JamMulai, &b.JamSelesai,
		&b.HargaPerJam, &b.TotalHarga, &b.Status, &b.Version, &b.CreatedAt, &b.UpdatedAt,
		&b.LapanganNama, &b.LapanganLokasi, &b.UserNama, &b.UserEmail,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
