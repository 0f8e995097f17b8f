package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/ikoiii/booking-futsal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteBookings(t *testing.T) {
	bookings := []*models.Booking{
		{
			ID: 1, Tanggal: "2025-06-11", JamMulai: 9, JamSelesai: 11,
			HargaPerJam: 100000, TotalHarga: 200000, Status: models.StatusConfirmed,
			LapanganNama: "Lapangan A", LapanganLokasi: "Jakarta", UserNama: "Andi", UserEmail: "andi@example.com",
			CreatedAt: time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			ID: 2, Tanggal: "2025-06-12", JamMulai: 20, JamSelesai: 21,
			HargaPerJam: 150000, TotalHarga: 150000, Status: models.StatusPending,
			LapanganNama: "Lapangan B",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBookings(&buf, "Bookings 2025-06", bookings))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{BookingsSheet}, f.GetSheetList())

	rows, err := f.GetRows(BookingsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Bookings 2025-06", rows[0][0])
	assert.Equal(t, bookingHeaders, rows[1])

	assert.Equal(t, []string{
		"1", "2025-06-11", "09:00", "11:00", "Lapangan A", "Jakarta",
		"Andi", "andi@example.com", "100000", "200000", "confirmed", "2025-06-01 10:30",
	}, rows[2])
	assert.Equal(t, "20:00", rows[3][2])
	assert.Equal(t, "pending", rows[3][10])
}

func TestWriteBookings_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBookings(&buf, "Kosong", nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(BookingsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "bookings_2025-06-11.xlsx", Filename("2025-06-11"))
}
