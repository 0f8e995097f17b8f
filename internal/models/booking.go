package models

import (
	"fmt"
	"time"
)

// Booking is a reservation of one field for an hour interval [JamMulai, JamSelesai) on Tanggal.
type Booking struct {
	ID          int64         `json:"id"`
	UserID      int64         `json:"user_id"`
	LapanganID  int64         `json:"lapangan_id"`
	Tanggal     string        `json:"tanggal"`
	JamMulai    int           `json:"jam_mulai"`
	JamSelesai  int           `json:"jam_selesai"`
	HargaPerJam int64         `json:"harga_per_jam"`
	TotalHarga  int64         `json:"total_harga"`
	Status      BookingStatus `json:"status"`
	Version     int64         `json:"version"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// Joined read-model fields.
	LapanganNama   string `json:"lapangan_nama,omitempty"`
	LapanganLokasi string `json:"lapangan_lokasi,omitempty"`
	UserNama       string `json:"user_nama,omitempty"`
	UserEmail      string `json:"user_email,omitempty"`
}

// Slot identifies a field, date and hour interval.
type Slot struct {
	LapanganID int64
	Tanggal    string
	JamMulai   int
	JamSelesai int
}

// Validate checks the interval shape and the date format.
func (s Slot) Validate() error {
	if _, err := time.Parse(DateLayout, s.Tanggal); err != nil {
		return fmt.Errorf("tanggal must be in YYYY-MM-DD format")
	}
	if s.JamMulai < 0 || s.JamSelesai > 24 {
		return fmt.Errorf("hours must be within 0-24")
	}
	if s.JamSelesai <= s.JamMulai {
		return fmt.Errorf("jam_selesai must be after jam_mulai")
	}
	return nil
}

// Duration is the slot length in hours.
func (s Slot) Duration() int {
	return s.JamSelesai - s.JamMulai
}

// Overlaps reports whether two half-open hour intervals intersect.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// TotalPrice is the snapshot price of a slot at the given hourly rate.
func TotalPrice(jamMulai, jamSelesai int, hargaPerJam int64) int64 {
	return int64(jamSelesai-jamMulai) * hargaPerJam
}

// Slot returns the booked slot.
func (b *Booking) Slot() Slot {
	return Slot{LapanganID: b.LapanganID, Tanggal: b.Tanggal, JamMulai: b.JamMulai, JamSelesai: b.JamSelesai}
}

// StartsAt returns the scheduled start of the booking in loc.
func (b *Booking) StartsAt(loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, b.Tanggal, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid booking date %q: %w", b.Tanggal, err)
	}
	return day.Add(time.Duration(b.JamMulai) * time.Hour), nil
}

// CancellableAt reports whether the owner may still cancel at now:
// the start must lie strictly more than deadline in the future.
func (b *Booking) CancellableAt(now time.Time, deadline time.Duration, loc *time.Location) (bool, error) {
	start, err := b.StartsAt(loc)
	if err != nil {
		return false, err
	}
	return start.Sub(now) > deadline, nil
}

// BookingFilter narrows a booking listing. A zero Limit means no paging.
type BookingFilter struct {
	Status     BookingStatus
	LapanganID int64
	UserID     int64
	Tanggal    string
	Limit      int
	Offset     int
}
