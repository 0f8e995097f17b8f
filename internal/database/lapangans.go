package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ikoiii/booking-futsal/internal/models"
)

const lapanganColumns = `id, nama, lokasi, harga_per_jam, fasilitas, deskripsi, gambar, status, created_at, updated_at`

// SaveLapangan inserts l, or updates it when l.ID already exists.
func (db *DB) SaveLapangan(ctx context.Context, l *models.Lapangan) error {
	if l.Status == "" {
		l.Status = models.LapanganActive
	}
	ts := nowUTC()

	if l.ID != 0 {
		res, err := db.ExecContext(ctx,
			`UPDATE lapangans SET nama = ?, lokasi = ?, harga_per_jam = ?, fasilitas = ?, deskripsi = ?, gambar = ?, status = ?, updated_at = ?
			 WHERE id = ?`,
			l.Nama, l.Lokasi, l.HargaPerJam, joinFacilities(l.Fasilitas), l.Deskripsi, l.Gambar, l.Status, ts, l.ID)
		if err != nil {
			return fmt.Errorf("failed to update lapangan: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			l.UpdatedAt = ts
			return nil
		}
	}

	var (
		res sql.Result
		err error
	)
	if l.ID != 0 {
		res, err = db.ExecContext(ctx,
			`INSERT INTO lapangans (id, nama, lokasi, harga_per_jam, fasilitas, deskripsi, gambar, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, l.Nama, l.Lokasi, l.HargaPerJam, joinFacilities(l.Fasilitas), l.Deskripsi, l.Gambar, l.Status, ts, ts)
	} else {
		res, err = db.ExecContext(ctx,
			`INSERT INTO lapangans (nama, lokasi, harga_per_jam, fasilitas, deskripsi, gambar, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.Nama, l.Lokasi, l.HargaPerJam, joinFacilities(l.Fasilitas), l.Deskripsi, l.Gambar, l.Status, ts, ts)
	}
	if err != nil {
		return fmt.Errorf("failed to create lapangan: %w", err)
	}
	if l.ID == 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		l.ID = id
	}
	l.CreatedAt = ts
	l.UpdatedAt = ts
	return nil
}

// UpdateLapanganPrice changes the hourly price. Existing bookings keep their snapshot.
func (db *DB) UpdateLapanganPrice(ctx context.Context, id, hargaPerJam int64) error {
	res, err := db.ExecContext(ctx, `UPDATE lapangans SET harga_per_jam = ?, updated_at = ? WHERE id = ?`, hargaPerJam, nowUTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update lapangan price: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLapanganNotFound
	}
	return nil
}

// GetLapangan returns a field regardless of its status.
func (db *DB) GetLapangan(ctx context.Context, id int64) (*models.Lapangan, error) {
	row := db.QueryRowContext(ctx, `SELECT `+lapanganColumns+` FROM lapangans WHERE id = ?`, id)
	l, err := scanLapangan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLapanganNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lapangan: %w", err)
	}
	return l, nil
}

// ListActiveLapangans returns bookable fields, cheapest first.
func (db *DB) ListActiveLapangans(ctx context.Context) ([]*models.Lapangan, error) {
	return db.SearchLapangans(ctx, models.LapanganFilter{})
}

// SearchLapangans filters active fields by keyword, location, price range and facilities.
func (db *DB) SearchLapangans(ctx context.Context, f models.LapanganFilter) ([]*models.Lapangan, error) {
	var (
		where = []string{"status = ?"}
		args  = []interface{}{models.LapanganActive}
	)
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		where = append(where, "(nama LIKE ? ESCAPE '!' OR deskripsi LIKE ? ESCAPE '!')")
		args = append(args, containsPattern(kw), containsPattern(kw))
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		where = append(where, "lokasi LIKE ? ESCAPE '!'")
		args = append(args, containsPattern(loc))
	}
	if f.MinPrice != nil {
		where = append(where, "harga_per_jam >= ?")
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		where = append(where, "harga_per_jam <= ?")
		args = append(args, *f.MaxPrice)
	}
	for _, fac := range f.Facilities {
		fac = strings.TrimSpace(fac)
		if fac == "" {
			continue
		}
		where = append(where, "fasilitas LIKE ? ESCAPE '!'")
		args = append(args, containsPattern(fac))
	}

	query := `SELECT ` + lapanganColumns + ` FROM lapangans WHERE ` + strings.Join(where, " AND ") + ` ORDER BY harga_per_jam, id`
	return db.queryLapangans(ctx, query, args...)
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern matches s literally anywhere in a column. Use with ESCAPE '!'.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// ListAvailableLapangans returns active fields with no blocking booking overlapping the slot.
func (db *DB) ListAvailableLapangans(ctx context.Context, tanggal string, jamMulai, jamSelesai int) ([]*models.Lapangan, error) {
	query := `SELECT ` + lapanganColumns + ` FROM lapangans l
		WHERE l.status = ? AND NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.lapangan_id = l.id AND b.tanggal = ? AND b.status <> ?
			  AND b.jam_mulai < ? AND ? < b.jam_selesai
		)
		ORDER BY l.harga_per_jam, l.id`
	return db.queryLapangans(ctx, query, models.LapanganActive, tanggal, models.StatusCancelled, jamSelesai, jamMulai)
}

func (db *DB) queryLapangans(ctx context.Context, query string, args ...interface{}) ([]*models.Lapangan, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lapangans: %w", err)
	}
	defer rows.Close()

	lapangans := []*models.Lapangan{}
	for rows.Next() {
		l, err := scanLapangan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lapangan: %w", err)
		}
		lapangans = append(lapangans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lapangans: %w", err)
	}
	return lapangans, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanLapangan(s scanner) (*models.Lapangan, error) {
	var (
		l         models.Lapangan
		fasilitas string
	)
	if err := s.Scan(&l.ID, &l.Nama, &l.Lokasi, &l.HargaPerJam, &fasilitas, &l.Deskripsi, &l.Gambar, &l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.Fasilitas = splitFacilities(fasilitas)
	return &l, nil
}

func joinFacilities(fs []string) string {
	cleaned := make([]string, 0, len(fs))
	for _, f := range fs {
		if f = strings.TrimSpace(f); f != "" {
			cleaned = append(cleaned, f)
		}
	}
	return strings.Join(cleaned, ",")
}

func splitFacilities(raw string) []string {
	out := []string{}
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
