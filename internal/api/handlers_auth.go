package api

import (
	"net/http"
	"time"

	"github.com/ikoiii/booking-futsal/internal/domain"
	"github.com/ikoiii/booking-futsal/internal/models"
	"github.com/ikoiii/booking-futsal/internal/service"

	"github.com/labstack/echo/v4"
)

type registerRequest struct {
	Nama            string `json:"nama" validate:"required,min=3,max=100"`
	Email           string `json:"email" validate:"required,email,max=150"`
	Password        string `json:"password" validate:"required,min=6,max=100,strongpwd"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	NoTelp          string `json:"no_telp" validate:"omitempty,min=10,max=15,phone"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

type sessionResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// profileRequest changes only the fields that are present.
type profileRequest struct {
	Nama               *string `json:"nama" validate:"omitempty,min=3,max=100"`
	Email              *string `json:"email" validate:"omitempty,email,max=150"`
	NoTelp             *string `json:"no_telp" validate:"omitempty,min=10,max=15,phone"`
	CurrentPassword    string  `json:"current_password"`
	NewPassword        string  `json:"new_password" validate:"omitempty,min=6,max=100,strongpwd"`
	ConfirmNewPassword string  `json:"confirm_new_password" validate:"eqfield=NewPassword"`
}

// bindAndValidate decodes the body into req and runs the struct rules.
// normalizer is implemented by requests that accept alternate field names.
type normalizer interface {
	normalize()
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return domain.Invalid("invalid request body")
	}
	if n, ok := req.(normalizer); ok {
		n.normalize()
	}
	return c.Validate(req)
}

func (s *HTTPServer) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return s.respondError(c, err)
	}

	user, err := s.svc.Users.Register(c.Request().Context(), service.RegisterInput{
		Nama:     req.Nama,
		Email:    req.Email,
		Password: req.Password,
		NoTelp:   req.NoTelp,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, http.StatusCreated, user, "registration successful")
}

func (s *HTTPServer) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return s.respondError(c, err)
	}

	session, err := s.svc.Users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return s.respondError(c, err)
	}

	c.SetCookie(s.sessionCookie(session.Token, session.ExpiresAt))
	return respondOK(c, http.StatusOK, sessionResponse{
		User:      session.User,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}, "login successful")
}

func (s *HTTPServer) handleLogout(c echo.Context) error {
	if raw := s.tokenFrom(c); raw != "" {
		if err := s.svc.Users.Logout(c.Request().Context(), raw); err != nil {
			return s.respondError(c, err)
		}
	}

	expired := s.sessionCookie("", time.Unix(0, 0))
	expired.MaxAge = -1
	c.SetCookie(expired)
	return respondOK(c, http.StatusOK, nil, "logged out")
}

func (s *HTTPServer) handleGetSession(c echo.Context) error {
	return respondOK(c, http.StatusOK, currentUser(c), "")
}

func (s *HTTPServer) handleUpdateSession(c echo.Context) error {
	var req profileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return s.respondError(c, err)
	}

	user, err := s.svc.Users.UpdateProfile(c.Request().Context(), currentUser(c), service.ProfileInput{
		Nama:            req.Nama,
		Email:           req.Email,
		NoTelp:          req.NoTelp,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, http.StatusOK, user, "profile updated")
}

func (s *HTTPServer) sessionCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     s.authCfg.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.authCfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
