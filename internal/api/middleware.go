package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/ikoiii/booking-futsal/internal/domain"
	"github.com/ikoiii/booking-futsal/internal/metrics"
	"github.com/ikoiii/booking-futsal/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	requestIDHeader = "X-Request-ID"

	ctxRequestID = "request_id"
	ctxUser      = "user"
	ctxToken     = "token"
)

func requestIDFrom(c echo.Context) string {
	if id, ok := c.Get(ctxRequestID).(string); ok {
		return id
	}
	return ""
}

func currentUser(c echo.Context) *models.User {
	u, _ := c.Get(ctxUser).(*models.User)
	return u
}

// requestID tags every request with an id, reusing the caller's X-Request-ID.
func requestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := strings.TrimSpace(c.Request().Header.Get(requestIDHeader))
			if id == "" {
				id = uuid.NewString()
			}
			c.Set(ctxRequestID, id)
			c.Response().Header().Set(requestIDHeader, id)
			return next(c)
		}
	}
}

// accessLog logs one line per request and feeds the HTTP metrics.
func (s *HTTPServer) accessLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			dur := time.Since(start)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			code := c.Response().Status
			metrics.ObserveHTTP(route, code, dur.Seconds())

			ev := s.logger.Info()
			if code >= http.StatusInternalServerError {
				ev = s.logger.Error()
			}
			ev.Str("request_id", requestIDFrom(c)).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Str("route", route).
				Int("status", code).
				Str("remote", c.RealIP()).
				Dur("duration", dur).
				Msg("http request")
			return nil
		}
	}
}

// rateLimit throttles each client IP with its own token bucket.
func (s *HTTPServer) rateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !s.limiter.Allow(c.RealIP()) {
				return respondFail(c, http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}

// tokenFrom reads the access token from the Authorization header or the session cookie.
func (s *HTTPServer) tokenFrom(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		if raw, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(raw)
		}
	}
	if cookie, err := c.Cookie(s.authCfg.CookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

// requireUser resolves the caller to a user record or rejects with 401.
func (s *HTTPServer) requireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := s.tokenFrom(c)
			if raw == "" {
				return respondFail(c, http.StatusUnauthorized, "unauthorized")
			}
			user, _, err := s.svc.Users.Authenticate(c.Request().Context(), raw)
			if err != nil {
				return s.respondError(c, err)
			}
			c.Set(ctxUser, user)
			c.Set(ctxToken, raw)
			return next(c)
		}
	}
}

// requireAdmin must run after requireUser.
func requireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !currentUser(c).IsAdmin() {
				return respondFail(c, http.StatusForbidden, domain.ErrForbidden.Error())
			}
			return next(c)
		}
	}
}
