package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ikoiii/booking-futsal/internal/domain"
	"github.com/ikoiii/booking-futsal/internal/models"

	"github.com/labstack/echo/v4"
)

type lapanganReviews struct {
	Reviews []*models.Review      `json:"reviews"`
	Summary *models.RatingSummary `json:"summary"`
}

func (s *HTTPServer) handleSearchLapangans(c echo.Context) error {
	f := models.LapanganFilter{
		Keyword:  c.QueryParam("q"),
		Location: c.QueryParam("location"),
	}

	var err error
	if f.MinPrice, err = optionalInt64(c.QueryParam("min_price"), "min_price"); err != nil {
		return s.respondError(c, err)
	}
	if f.MaxPrice, err = optionalInt64(c.QueryParam("max_price"), "max_price"); err != nil {
		return s.respondError(c, err)
	}
	if raw := c.QueryParam("facilities"); raw != "" {
		f.Facilities = strings.Split(raw, ",")
	}

	lapangans, err := s.svc.Lapangans.Search(c.Request().Context(), f)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, http.StatusOK, nonNil(lapangans), "")
}

func (s *HTTPServer) handleListLapangans(c echo.Context) error {
	lapangans, err := s.svc.Lapangans.ListLapangans(c.Request().Context())
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, http.StatusOK, nonNil(lapangans), "")
}

func (s *HTTPServer) handleGetLapangan(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	lapangan, err := s.svc.Lapangans.GetLapangan(c.Request().Context(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, http.StatusOK, lapangan, "")
}

func (s *HTTPServer) handleLapanganReviews(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	ctx := c.Request().Context()
	if _, err := s.svc.Lapangans.GetLapangan(ctx, id); err != nil {
		return s.respondError(c, err)
	}

	reviews, summary, err := s.svc.Reviews.ListLapanganReviews(ctx, id)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, http.StatusOK, lapanganReviews{Reviews: nonNil(reviews), Summary: summary}, "")
}

func optionalInt64(raw, name string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, domain.Invalid(name + " must be a number")
	}
	return &v, nil
}
