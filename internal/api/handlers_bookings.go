package api

import (
	"net/http"
	"strconv"

	"github.com/ikoiii/booking-futsal/internal/domain"
	"github.com/ikoiii/booking-futsal/internal/models"

	"github.com/labstack/echo/v4"
)

type createBookingRequest struct {
	LapanganID int64  `json:"lapangan_id" validate:"required,gt=0"`
	Tanggal    string `json:"tanggal" validate:"required,datetime=2006-01-02"`
	JamMulai   *int   `json:"jam_mulai" validate:"required,gte=0,lte=24"`
	JamSelesai *int   `json:"jam_selesai" validate:"required,gte=0,lte=24"`
}

// cancelBookingRequest also takes the camelCase bookingId sent by the web client.
type cancelBookingRequest struct {
	BookingID      int64 `json:"booking_id" validate:"required,gt=0"`
	BookingIDCamel int64 `json:"bookingId" validate:"-"`
}

func (r *cancelBookingRequest) normalize() {
	if r.BookingID == 0 {
		r.BookingID = r.BookingIDCamel
	}
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed cancelled completed"`
}

// createReviewRequest accepts booking_id or bookingId. The field comes from
// the booking, so a lapanganId in the body is ignored.
type createReviewRequest struct {
	BookingID      int64  `json:"booking_id" validate:"required,gt=0"`
	BookingIDCamel int64  `json:"bookingId" validate:"-"`
	Rating         int    `json:"rating" validate:"required,gte=1,lte=5"`
	Komentar       string `json:"komentar" validate:"max=1000"`
}

func (r *createReviewRequest) normalize() {
	if r.BookingID == 0 {
		r.BookingID = r.BookingIDCamel
	}
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Invalid("invalid " + name)
	}
	return id, nil
}

func (s *HTTPServer) handleCreateBooking(c echo.Context) error {
	var req createBookingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return s.respondError(c, err)
	}

	booking, err := s.svc.Bookings.CreateBooking(c.Request().Context(), currentUser(c), models.Slot{
		LapanganID: req.LapanganID,
		Tanggal:    req.Tanggal,
		JamMulai:   *req.JamMulai,
		JamSelesai: *req.JamSelesai,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, http.StatusCreated, booking, "booking created")
}

func (s *HTTPServer) handleMyBookings(c echo.Context) error {
	user := currentUser(c)
	bookings, err := s.svc.Bookings.ListUserBookings(c.Request().Context(), user, user.ID)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, http.StatusOK, nonNil(bookings), "")
}

func (s *HTTPServer) handleUserBookings(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return s.respondError(c, err)
	}
	bookings, err := s.svc.Bookings.ListUserBookings(c.Request().Context(), currentUser(c), userID)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, http.StatusOK, nonNil(bookings), "")
}

func (s *HTTPServer) handleGetBooking(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	booking, err := s.svc.Bookings.GetBooking(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, http.StatusOK, booking, "")
}

func (s *HTTPServer) handleUpdateBookingStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	if !currentUser(c).IsAdmin() {
		return s.respondError(c, domain.ErrForbidden)
	}

	var req updateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return s.respondError(c, err)
	}

	booking, err := s.svc.Bookings.SetStatus(c.Request().Context(), currentUser(c), id, models.BookingStatus(req.Status))
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, http.StatusOK, booking, "booking status updated")
}

func (s *HTTPServer) handleDeleteBooking(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	return s.cancel(c, id)
}

func (s *HTTPServer) handleCancelBooking(c echo.Context) error {
	var req cancelBookingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return s.respondError(c, err)
	}
	return s.cancel(c, req.BookingID)
}

func (s *HTTPServer) cancel(c echo.Context, id int64) error {
	booking, err := s.svc.Bookings.CancelBooking(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, http.StatusOK, booking, "booking cancelled")
}

// handleAvailable lists the active fields free for tanggal between jam_mulai and jam_selesai.
func (s *HTTPServer) handleAvailable(c echo.Context) error {
	tanggal := c.QueryParam("tanggal")
	jamMulai, errMulai := strconv.Atoi(c.QueryParam("jam_mulai"))
	jamSelesai, errSelesai := strconv.Atoi(c.QueryParam("jam_selesai"))
	if tanggal == "" || errMulai != nil || errSelesai != nil {
		return s.respondError(c, domain.Invalid("missing required parameters: tanggal, jam_mulai, jam_selesai"))
	}

	lapangans, err := s.svc.Bookings.ListAvailable(c.Request().Context(), tanggal, jamMulai, jamSelesai)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, http.StatusOK, nonNil(lapangans), "")
}

func (s *HTTPServer) handleCreateReview(c echo.Context) error {
	var req createReviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return s.respondError(c, err)
	}

	review, err := s.svc.Reviews.CreateReview(c.Request().Context(), currentUser(c), req.BookingID, req.Rating, req.Komentar)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, http.StatusCreated, review, "review created")
}

// nonNil keeps empty listings encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
