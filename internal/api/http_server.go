package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ikoiii/booking-futsal/internal/config"
	"github.com/ikoiii/booking-futsal/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// Services bundles the use cases exposed over HTTP.
type Services struct {
	Users     *service.UserService
	Bookings  *service.BookingService
	Lapangans *service.LapanganService
	Reviews   *service.ReviewService
	Stats     *service.StatsService
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// HTTPServer is the JSON API.
type HTTPServer struct {
	cfg     config.APIConfig
	authCfg config.AuthConfig
	svc     Services
	ready   map[string]ReadinessCheck
	limiter *rateLimiter
	echo    *echo.Echo
	server  *http.Server
	logger  *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, authCfg config.AuthConfig, svc Services, ready map[string]ReadinessCheck, logger *zerolog.Logger) *HTTPServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()

	s := &HTTPServer{
		cfg:     cfg,
		authCfg: authCfg,
		svc:     svc,
		ready:   ready,
		limiter: newRateLimiter(cfg.RateLimit),
		echo:    e,
		logger:  logger,
	}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(requestID())
	e.Use(s.accessLog())
	e.Use(s.rateLimit())

	s.routes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

func (s *HTTPServer) routes() {
	e := s.echo
	user := s.requireUser()

	e.GET("/healthz", s.handleHealth)
	e.GET("/readyz", s.handleReady)

	authGroup := e.Group("/api/auth")
	authGroup.POST("/register", s.handleRegister)
	authGroup.POST("/login", s.handleLogin)
	authGroup.POST("/logout", s.handleLogout)
	authGroup.GET("/session", s.handleGetSession, user)
	authGroup.PUT("/session", s.handleUpdateSession, user)

	bookings := e.Group("/api/bookings")
	bookings.GET("/available", s.handleAvailable)
	bookings.POST("/create", s.handleCreateBooking, user)
	bookings.POST("/cancel", s.handleCancelBooking, user)
	bookings.GET("/user", s.handleMyBookings, user)
	bookings.GET("/user/:userId", s.handleUserBookings, user)
	bookings.GET("/:id", s.handleGetBooking, user)
	bookings.PUT("/:id", s.handleUpdateBookingStatus, user)
	bookings.DELETE("/:id", s.handleDeleteBooking, user)

	e.POST("/api/reviews/create", s.handleCreateReview, user)
	e.GET("/api/search/lapangans", s.handleSearchLapangans)
	e.GET("/api/lapangans", s.handleListLapangans)
	e.GET("/api/lapangans/:id", s.handleGetLapangan)
	e.GET("/api/lapangans/:id/reviews", s.handleLapanganReviews)

	admin := e.Group("/api/admin", user, requireAdmin())
	admin.GET("/bookings", s.handleAdminBookings)
	admin.GET("/bookings/export", s.handleAdminExport)
	admin.GET("/users", s.handleAdminUsers)
	admin.GET("/stats", s.handleAdminStats)
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.echo
}

func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleError renders echo's own errors (unknown route, bad method, panics)
// in the API envelope.
func (s *HTTPServer) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		}
		if he.Code >= http.StatusInternalServerError {
			s.logger.Error().Err(err).Str("request_id", requestIDFrom(c)).Msg("request failed")
			msg = "internal server error"
		}
		_ = respondFail(c, he.Code, msg)
		return
	}
	_ = s.respondError(c, err)
}

func (s *HTTPServer) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReady(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(s.ready))
	code := http.StatusOK
	for name, check := range s.ready {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			code = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	return c.JSON(code, map[string]interface{}{"ready": code == http.StatusOK, "checks": checks})
}
