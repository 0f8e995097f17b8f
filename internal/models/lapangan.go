package models

import "time"

// Lapangan is a bookable futsal field.
type Lapangan struct {
	ID          int64          `json:"id"`
	Nama        string         `json:"nama"`
	Lokasi      string         `json:"lokasi"`
	HargaPerJam int64          `json:"harga_per_jam"`
	Fasilitas   []string       `json:"fasilitas"`
	Deskripsi   string         `json:"deskripsi"`
	Gambar      string         `json:"gambar,omitempty"`
	Status      LapanganStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (l *Lapangan) IsActive() bool {
	return l.Status == LapanganActive
}

// LapanganFilter narrows a field search. Zero values mean "no filter".
type LapanganFilter struct {
	Keyword    string
	Location   string
	MinPrice   *int64
	MaxPrice   *int64
	Facilities []string
}
