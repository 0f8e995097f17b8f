package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ikoiii/booking-futsal/internal/events"
)

const (
	SinkSheets = "sheets"

	bookingsSheet = "Bookings"
	idColumnRange = bookingsSheet + "!A:A"
	lastColumn    = "L"
)

var errRowNotFound = errors.New("booking row not found")

var bookingHeaders = []interface{}{
	"ID", "User ID", "Pemesan", "Email", "Lapangan ID", "Lapangan",
	"Tanggal", "Jam Mulai", "Jam Selesai", "Total Harga", "Status", "Updated At",
}

// SheetsMirror keeps one spreadsheet row per booking, keyed by booking id in column A.
type SheetsMirror struct {
	service       *sheets.Service
	spreadsheetID string
	now           func() time.Time

	rowCache map[int64]int
	cacheMu  sync.RWMutex
}

// NewSheetsMirror authenticates with a service account credentials file.
func NewSheetsMirror(ctx context.Context, credentialsFile, spreadsheetID string) (*SheetsMirror, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}
	return newSheetsMirror(srv, spreadsheetID), nil
}

func newSheetsMirror(srv *sheets.Service, spreadsheetID string) *SheetsMirror {
	return &SheetsMirror{
		service:       srv,
		spreadsheetID: spreadsheetID,
		now:           time.Now,
		rowCache:      make(map[int64]int),
	}
}

func (s *SheetsMirror) Name() string { return SinkSheets }

// Deliver mirrors booking events; other events are ignored.
func (s *SheetsMirror) Deliver(ctx context.Context, event *events.Event) error {
	switch event.Type {
	case events.EventBookingCreated, events.EventBookingStatusChanged:
	default:
		return nil
	}

	var p events.BookingEventPayload
	if err := event.Decode(&p); err != nil {
		return fmt.Errorf("decode booking event: %w", err)
	}
	return s.UpsertBooking(ctx, p)
}

// EnsureHeader writes the header row.
func (s *SheetsMirror) EnsureHeader(ctx context.Context) error {
	rng := fmt.Sprintf("%s!A1:%s1", bookingsSheet, lastColumn)
	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, rng, &sheets.ValueRange{
		Values: [][]interface{}{bookingHeaders},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// WarmUpCache reads column A and rebuilds the row index.
func (s *SheetsMirror) WarmUpCache(ctx context.Context) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, idColumnRange).Context(ctx).Do()
	if err != nil {
		return err
	}

	cache := make(map[int64]int, len(resp.Values))
	for i, row := range resp.Values {
		if id := cellID(row); id > 0 {
			cache[id] = i + 1
		}
	}

	s.cacheMu.Lock()
	s.rowCache = cache
	s.cacheMu.Unlock()
	return nil
}

// UpsertBooking rewrites the booking row or appends one.
func (s *SheetsMirror) UpsertBooking(ctx context.Context, p events.BookingEventPayload) error {
	if p.BookingID == 0 {
		return errors.New("booking id is required")
	}

	values := s.rowValues(p)
	rowIdx, err := s.FindBookingRow(ctx, p.BookingID)
	if errors.Is(err, errRowNotFound) {
		return s.appendRow(ctx, p.BookingID, values)
	}
	if err != nil {
		return err
	}

	rng := fmt.Sprintf("%s!A%d:%s%d", bookingsSheet, rowIdx, lastColumn, rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rng, &sheets.ValueRange{
		Values: [][]interface{}{values},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (s *SheetsMirror) appendRow(ctx context.Context, bookingID int64, values []interface{}) error {
	resp, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, idColumnRange, &sheets.ValueRange{
		Values: [][]interface{}{values},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return err
	}
	if resp.Updates != nil {
		if row, ok := parseUpdatedRow(resp.Updates.UpdatedRange); ok {
			s.setCachedRow(bookingID, row)
		}
	}
	return nil
}

// FindBookingRow returns the 1-based row of bookingID, reading column A on a cache miss.
func (s *SheetsMirror) FindBookingRow(ctx context.Context, bookingID int64) (int, error) {
	if row, ok := s.getCachedRow(bookingID); ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, idColumnRange).Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	for i, row := range resp.Values {
		if cellID(row) == bookingID {
			s.setCachedRow(bookingID, i+1)
			return i + 1, nil
		}
	}
	return 0, errRowNotFound
}

func (s *SheetsMirror) rowValues(p events.BookingEventPayload) []interface{} {
	return []interface{}{
		p.BookingID,
		p.UserID,
		p.UserNama,
		p.UserEmail,
		p.LapanganID,
		p.LapanganNama,
		p.Tanggal,
		p.JamMulai,
		p.JamSelesai,
		p.TotalHarga,
		p.Status,
		s.now().Format("2006-01-02 15:04:05"),
	}
}

func (s *SheetsMirror) getCachedRow(id int64) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsMirror) setCachedRow(id int64, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[id] = row
}

func cellID(row []interface{}) int64 {
	if len(row) == 0 {
		return 0
	}
	switch v := row[0].(type) {
	case float64:
		return int64(v)
	case string:
		id, _ := strconv.ParseInt(v, 10, 64)
		return id
	}
	return 0
}

var updatedRowPattern = regexp.MustCompile(`![A-Z]+(\d+)`)

// parseUpdatedRow extracts the first row number from a range like "Bookings!A10:L10".
func parseUpdatedRow(rng string) (int, bool) {
	m := updatedRowPattern.FindStringSubmatch(rng)
	if len(m) != 2 {
		return 0, false
	}
	row, err := strconv.Atoi(m[1])
	return row, err == nil
}
