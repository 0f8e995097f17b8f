package models

import "time"

type Review struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	LapanganID int64     `json:"lapangan_id"`
	BookingID  int64     `json:"booking_id"`
	Rating     int       `json:"rating"`
	Komentar   string    `json:"komentar"`
	CreatedAt  time.Time `json:"created_at"`

	UserNama string `json:"user_nama,omitempty"`
}

// RatingSummary aggregates the reviews of one field.
type RatingSummary struct {
	LapanganID    int64   `json:"lapangan_id"`
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
}

// ValidRating reports whether r is an accepted review rating.
func ValidRating(r int) bool {
	return r >= 1 && r <= 5
}
