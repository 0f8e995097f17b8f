package export

import (
	"fmt"
	"io"

	"github.com/ikoiii/booking-futsal/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	BookingsSheet = "Bookings"
	ContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var bookingHeaders = []string{
	"ID", "Tanggal", "Jam Mulai", "Jam Selesai", "Lapangan", "Lokasi",
	"Pemesan", "Email", "Harga/Jam", "Total Harga", "Status", "Dibuat",
}

// Filename returns the download name for an export generated on day.
func Filename(day string) string {
	return fmt.Sprintf("bookings_%s.xlsx", day)
}

// WriteBookings renders bookings as a single-sheet workbook into w.
// Row 1 holds the title, row 2 the column headers.
func WriteBookings(w io.Writer, title string, bookings []*models.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(BookingsSheet)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("error removing default sheet: %w", err)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(bookingHeaders))

	_ = f.SetCellValue(BookingsSheet, "A1", title)
	_ = f.MergeCell(BookingsSheet, "A1", lastCol+"1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(BookingsSheet, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, h := range bookingHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(BookingsSheet, cell, h)
	}
	_ = f.SetCellStyle(BookingsSheet, "A2", lastCol+"2", headerStyle)

	for i, b := range bookings {
		row := i + 3
		values := []interface{}{
			b.ID,
			b.Tanggal,
			fmt.Sprintf("%02d:00", b.JamMulai),
			fmt.Sprintf("%02d:00", b.JamSelesai),
			b.LapanganNama,
			b.LapanganLokasi,
			b.UserNama,
			b.UserEmail,
			b.HargaPerJam,
			b.TotalHarga,
			string(b.Status),
			b.CreatedAt.Format("2006-01-02 15:04"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(BookingsSheet, cell, &values); err != nil {
			return fmt.Errorf("error writing row %d: %w", row, err)
		}
	}

	_ = f.SetColWidth(BookingsSheet, "A", "A", 8)
	_ = f.SetColWidth(BookingsSheet, "B", "D", 12)
	_ = f.SetColWidth(BookingsSheet, "E", "H", 22)
	_ = f.SetColWidth(BookingsSheet, "I", lastCol, 14)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}
