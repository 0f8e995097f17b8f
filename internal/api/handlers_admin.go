package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ikoiii/booking-futsal/internal/domain"
	"github.com/ikoiii/booking-futsal/internal/export"
	"github.com/ikoiii/booking-futsal/internal/models"

	"github.com/labstack/echo/v4"
)

const maxPageSize = 100

type bookingPage struct {
	Bookings []*models.Booking `json:"bookings"`
	Meta     pageMeta          `json:"meta"`
}

type userPage struct {
	Users []*models.User `json:"users"`
	Meta  pageMeta       `json:"meta"`
}

// bookingFilter reads status, lapangan_id, user_id, tanggal, limit and offset.
func bookingFilter(c echo.Context) (models.BookingFilter, error) {
	var f models.BookingFilter
	if raw := c.QueryParam("status"); raw != "" {
		status, err := models.ParseBookingStatus(raw)
		if err != nil {
			return f, domain.Invalid(err.Error())
		}
		f.Status = status
	}
	if raw := c.QueryParam("tanggal"); raw != "" {
		if _, err := time.Parse(models.DateLayout, raw); err != nil {
			return f, domain.Invalid("tanggal must be in YYYY-MM-DD format")
		}
		f.Tanggal = raw
	}

	ids := map[string]*int64{"lapangan_id": &f.LapanganID, "user_id": &f.UserID}
	for name, dst := range ids {
		v, err := optionalInt64(c.QueryParam(name), name)
		if err != nil {
			return f, err
		}
		if v != nil {
			*dst = *v
		}
	}

	limit, offset, err := paging(c)
	if err != nil {
		return f, err
	}
	f.Limit, f.Offset = limit, offset
	return f, nil
}

// paging reads limit/offset. Limit defaults to 0 (everything) and is capped.
func paging(c echo.Context) (int, int, error) {
	var limit, offset int
	var err error
	if raw := c.QueryParam("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			return 0, 0, domain.Invalid("limit must be a non-negative number")
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}
	}
	if raw := c.QueryParam("offset"); raw != "" {
		if offset, err = strconv.Atoi(raw); err != nil || offset < 0 {
			return 0, 0, domain.Invalid("offset must be a non-negative number")
		}
	}
	return limit, offset, nil
}

func (s *HTTPServer) handleAdminBookings(c echo.Context) error {
	f, err := bookingFilter(c)
	if err != nil {
		return s.respondError(c, err)
	}
	bookings, total, err := s.svc.Bookings.ListBookings(c.Request().Context(), f)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, http.StatusOK, bookingPage{
		Bookings: nonNil(bookings),
		Meta:     pageMeta{Total: total, Limit: f.Limit, Offset: f.Offset},
	}, "")
}

func (s *HTTPServer) handleAdminUsers(c echo.Context) error {
	limit, offset, err := paging(c)
	if err != nil {
		return s.respondError(c, err)
	}
	if limit == 0 {
		limit = maxPageSize
	}
	users, total, err := s.svc.Users.ListUsers(c.Request().Context(), limit, offset)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, http.StatusOK, userPage{
		Users: nonNil(users),
		Meta:  pageMeta{Total: total, Limit: limit, Offset: offset},
	}, "")
}

func (s *HTTPServer) handleAdminStats(c echo.Context) error {
	stats, err := s.svc.Stats.Dashboard(c.Request().Context())
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, http.StatusOK, stats, "")
}

// handleAdminExport streams the filtered bookings as an XLSX workbook.
func (s *HTTPServer) handleAdminExport(c echo.Context) error {
	f, err := bookingFilter(c)
	if err != nil {
		return s.respondError(c, err)
	}
	f.Limit, f.Offset = 0, 0

	bookings, _, err := s.svc.Bookings.ListBookings(c.Request().Context(), f)
	if err != nil {
		return s.respondError(c, err)
	}

	today := time.Now().Format(models.DateLayout)
	title := fmt.Sprintf("Bookings per %s", today)
	if f.Tanggal != "" {
		title = fmt.Sprintf("Bookings %s", f.Tanggal)
	}

	var buf bytes.Buffer
	if err := export.WriteBookings(&buf, title, bookings); err != nil {
		return s.respondError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", export.Filename(today)))
	return c.Blob(http.StatusOK, export.ContentType, buf.Bytes())
}
