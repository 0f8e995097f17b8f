package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ikoiii/booking-futsal/internal/models"
)

// GetBookingStats returns each non-cancelled status with its share of all bookings.
func (db *DB) GetBookingStats(ctx context.Context) ([]models.StatusCount, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT status, COUNT(*), ROUND(COUNT(*) * 100.0 / (SELECT COUNT(*) FROM bookings), 2)
		FROM bookings
		WHERE status <> ?
		GROUP BY status
		ORDER BY status`, models.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}
	defer rows.Close()

	stats := []models.StatusCount{}
	for rows.Next() {
		var s models.StatusCount
		if err := rows.Scan(&s.Status, &s.Count, &s.Percentage); err != nil {
			return nil, fmt.Errorf("failed to scan booking stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// GetRevenueStats returns completed revenue per date for the last 30 booked dates.
func (db *DB) GetRevenueStats(ctx context.Context) ([]models.DailyRevenue, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT tanggal, COUNT(*), SUM(total_harga)
		FROM bookings
		WHERE status = ?
		GROUP BY tanggal
		ORDER BY tanggal DESC
		LIMIT 30`, models.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to get revenue stats: %w", err)
	}
	defer rows.Close()

	revenue := []models.DailyRevenue{}
	for rows.Next() {
		var r models.DailyRevenue
		if err := rows.Scan(&r.Tanggal, &r.BookingsCount, &r.TotalRevenue); err != nil {
			return nil, fmt.Errorf("failed to scan revenue stats: %w", err)
		}
		revenue = append(revenue, r)
	}
	return revenue, rows.Err()
}

// GetPopularLapangans ranks active fields by completed bookings.
func (db *DB) GetPopularLapangans(ctx context.Context, limit int) ([]models.PopularLapangan, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT l.id, l.nama, l.lokasi,
			(SELECT COUNT(*) FROM bookings b WHERE b.lapangan_id = l.id AND b.status = ?) AS booking_count,
			(SELECT AVG(r.rating) FROM reviews r WHERE r.lapangan_id = l.id) AS avg_rating
		FROM lapangans l
		WHERE l.status = ?
		ORDER BY booking_count DESC, l.id
		LIMIT ?`, models.StatusCompleted, models.LapanganActive, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get popular lapangans: %w", err)
	}
	defer rows.Close()

	popular := []models.PopularLapangan{}
	for rows.Next() {
		var (
			p   models.PopularLapangan
			avg sql.NullFloat64
		)
		if err := rows.Scan(&p.ID, &p.Nama, &p.Lokasi, &p.BookingCount, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan popular lapangan: %w", err)
		}
		p.AvgRating = avg.Float64
		popular = append(popular, p)
	}
	return popular, rows.Err()
}
