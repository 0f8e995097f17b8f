package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ikoiii/booking-futsal/internal/models"
)

// CreateReview stores a review. A second review for the same booking fails with ErrReviewExists.
func (db *DB) CreateReview(ctx context.Context, r *models.Review) error {
	ts := nowUTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO reviews (user_id, lapangan_id, booking_id, rating, komentar, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.UserID, r.LapanganID, r.BookingID, r.Rating, r.Komentar, ts)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrReviewExists
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	r.ID = id
	r.CreatedAt = ts
	return nil
}

func (db *DB) GetReviewByBooking(ctx context.Context, bookingID int64) (*models.Review, error) {
	var r models.Review
	err := db.QueryRowContext(ctx,
		`SELECT r.id, r.user_id, r.lapangan_id, r.booking_id, r.rating, r.komentar, r.created_at, u.nama
		 FROM reviews r JOIN users u ON u.id = r.user_id WHERE r.booking_id = ?`, bookingID).
		Scan(&r.ID, &r.UserID, &r.LapanganID, &r.BookingID, &r.Rating, &r.Komentar, &r.CreatedAt, &r.UserNama)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &r, nil
}

// ListLapanganReviews returns the reviews of a field, newest first.
func (db *DB) ListLapanganReviews(ctx context.Context, lapanganID int64) ([]*models.Review, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT r.id, r.user_id, r.lapangan_id, r.booking_id, r.rating, r.komentar, r.created_at, u.nama
		 FROM reviews r JOIN users u ON u.id = r.user_id
		 WHERE r.lapangan_id = ? ORDER BY r.created_at DESC, r.id DESC`, lapanganID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*models.Review{}
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.UserID, &r.LapanganID, &r.BookingID, &r.Rating, &r.Komentar, &r.CreatedAt, &r.UserNama); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}
	return reviews, nil
}

func (db *DB) GetRatingSummary(ctx context.Context, lapanganID int64) (*models.RatingSummary, error) {
	var (
		avg   sql.NullFloat64
		total int
	)
	err := db.QueryRowContext(ctx,
		`SELECT AVG(rating), COUNT(*) FROM reviews WHERE lapangan_id = ?`, lapanganID).Scan(&avg, &total)
	if err != nil {
		return nil, fmt.Errorf("failed to get rating summary: %w", err)
	}
	return &models.RatingSummary{LapanganID: lapanganID, AverageRating: avg.Float64, TotalReviews: total}, nil
}
