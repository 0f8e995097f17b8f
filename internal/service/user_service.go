package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ikoiii/booking-futsal/internal/auth"
	"github.com/ikoiii/booking-futsal/internal/config"
	"github.com/ikoiii/booking-futsal/internal/database"
	"github.com/ikoiii/booking-futsal/internal/domain"
	"github.com/ikoiii/booking-futsal/internal/models"

	"github.com/rs/zerolog"
)

const loginAttemptKeyPrefix = "login:"

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)

type RegisterInput struct {
	Nama     string
	Email    string
	Password string
	NoTelp   string
}

// ProfileInput carries the optional profile changes. NewPassword requires
// CurrentPassword.
type ProfileInput struct {
	Nama            *string
	Email           *string
	NoTelp          *string
	CurrentPassword string
	NewPassword     string
}

// Session is an issued access token.
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

type UserService struct {
	users    domain.UserRepository
	sessions domain.SessionStore
	tokens   *auth.TokenManager
	config   config.AuthConfig
	now      func() time.Time
	logger   *zerolog.Logger
}

func NewUserService(users domain.UserRepository, sessions domain.SessionStore, tokens *auth.TokenManager, cfg config.AuthConfig, logger *zerolog.Logger) *UserService {
	return &UserService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		config:   cfg,
		now:      time.Now,
		logger:   logger,
	}
}

// Register creates a regular user account.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Nama = strings.TrimSpace(in.Nama)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Nama == "" || in.Email == "" || in.Password == "" {
		return nil, domain.Invalid("nama, email and password are required")
	}

	hash, err := auth.HashPassword(in.Password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Nama:         in.Nama,
		Email:        in.Email,
		PasswordHash: hash,
		NoTelp:       strings.TrimSpace(in.NoTelp),
		Role:         models.RoleUser,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user registered")
	return user, nil
}

// Login checks the credentials and issues a token. Attempts are counted per
// email and a successful login clears the counter.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	key := loginAttemptKeyPrefix + email

	allowed, err := s.sessions.CheckRateLimit(ctx, key, s.config.LoginAttempts, s.config.LockoutWindow)
	if err != nil {
		s.logger.Warn().Err(err).Msg("login rate limit check failed")
	} else if !allowed {
		return nil, domain.ErrTooManyAttempts
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, database.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	if err := s.sessions.ResetRateLimit(ctx, key); err != nil {
		s.logger.Warn().Err(err).Msg("failed to reset login attempts")
	}

	token, claims, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user logged in")
	return &Session{User: user, Token: token, ExpiresAt: claims.ExpiresAt}, nil
}

// Logout revokes the token until it would have expired. Invalid tokens are ignored.
func (s *UserService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	claims, err := s.tokens.Parse(rawToken)
	if err != nil {
		return nil
	}
	return s.sessions.RevokeToken(ctx, claims.TokenID, claims.TTL(s.now()))
}

// Authenticate resolves a token to its user record.
func (s *UserService) Authenticate(ctx context.Context, rawToken string) (*models.User, *auth.Claims, error) {
	claims, err := s.tokens.Parse(rawToken)
	if err != nil {
		return nil, nil, domain.ErrUnauthorized
	}

	revoked, err := s.sessions.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, nil, err
	}
	if revoked {
		return nil, nil, domain.ErrUnauthorized
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, database.ErrUserNotFound) {
		return nil, nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, nil, err
	}
	return user, claims, nil
}

// UpdateProfile applies the profile changes of user and returns the stored record.
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, in ProfileInput) (*models.User, error) {
	var upd models.ProfileUpdate

	if in.Nama != nil {
		nama := strings.TrimSpace(*in.Nama)
		if nama == "" {
			return nil, domain.Invalid("nama must not be empty")
		}
		upd.Nama = &nama
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" {
			return nil, domain.Invalid("email must not be empty")
		}
		upd.Email = &email
	}
	if in.NoTelp != nil {
		noTelp := strings.TrimSpace(*in.NoTelp)
		upd.NoTelp = &noTelp
	}

	if in.NewPassword != "" {
		if in.CurrentPassword == "" {
			return nil, domain.Invalid("current_password is required to change password")
		}
		if !auth.VerifyPassword(user.PasswordHash, in.CurrentPassword) {
			return nil, domain.Invalid("current password is incorrect")
		}
		hash, err := auth.HashPassword(in.NewPassword, s.config.BcryptCost)
		if err != nil {
			return nil, err
		}
		upd.PasswordHash = &hash
	}

	if upd.Nama == nil && upd.Email == nil && upd.NoTelp == nil && upd.PasswordHash == nil {
		return user, nil
	}

	if err := s.users.UpdateUserProfile(ctx, user.ID, upd); err != nil {
		return nil, err
	}
	return s.users.GetUserByID(ctx, user.ID)
}

func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetUserByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, int, error) {
	return s.users.ListUsers(ctx, limit, offset)
}
