package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ikoiii/booking-futsal/internal/auth"
	"github.com/ikoiii/booking-futsal/internal/config"
	"github.com/ikoiii/booking-futsal/internal/database"
	"github.com/ikoiii/booking-futsal/internal/domain"
	"github.com/ikoiii/booking-futsal/internal/models"
	"github.com/ikoiii/booking-futsal/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testAuthConfig = config.AuthConfig{
	JWTSecret:     "test-secret-0123456789",
	TokenTTL:      time.Hour,
	BcryptCost:    bcrypt.MinCost,
	LoginAttempts: 5,
	LockoutWindow: 15 * time.Minute,
}

func newUserFixture(t *testing.T) (*UserService, *mockUserRepo, *repository.MemorySessionStore) {
	t.Helper()
	users := new(mockUserRepo)
	sessions := repository.NewMemorySessionStore()
	logger := zerolog.New(io.Discard)
	tokens := auth.NewTokenManager(testAuthConfig.JWTSecret, testAuthConfig.TokenTTL)
	return NewUserService(users, sessions, tokens, testAuthConfig, &logger), users, sessions
}

func storedUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{ID: 1, Nama: "Andi", Email: "andi@example.com", PasswordHash: hash, Role: models.RoleUser}
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates regular user with hashed password", func(t *testing.T) {
		svc, users, _ := newUserFixture(t)
		users.On("CreateUser", ctx, mock.MatchedBy(func(u *models.User) bool {
			return u.Email == "andi@example.com" && u.Role == models.RoleUser && auth.VerifyPassword(u.PasswordHash, "Secret123")
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.User).ID = 10
		}).Return(nil).Once()

		user, err := svc.Register(ctx, RegisterInput{Nama: " Andi ", Email: "Andi@Example.com", Password: "Secret123", NoTelp: "081234567890"})
		require.NoError(t, err)
		assert.Equal(t, int64(10), user.ID)
		assert.Equal(t, "Andi", user.Nama)
		users.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, users, _ := newUserFixture(t)
		users.On("CreateUser", ctx, mock.Anything).Return(database.ErrEmailExists).Once()

		_, err := svc.Register(ctx, RegisterInput{Nama: "Andi", Email: "andi@example.com", Password: "Secret123"})
		assert.ErrorIs(t, err, database.ErrConflict)
	})

	t.Run("missing fields", func(t *testing.T) {
		svc, _, _ := newUserFixture(t)
		_, err := svc.Register(ctx, RegisterInput{Email: "andi@example.com"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestUserService_LoginAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newUserFixture(t)
	user := storedUser(t, "Secret123")
	users.On("GetUserByEmail", ctx, "andi@example.com").Return(user, nil)
	users.On("GetUserByID", ctx, int64(1)).Return(user, nil)

	session, err := svc.Login(ctx, " ANDI@example.com", "Secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, user, session.User)

	got, claims, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, models.RoleUser, claims.Role)

	require.NoError(t, svc.Logout(ctx, session.Token))
	_, _, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestUserService_Login_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong password", func(t *testing.T) {
		svc, users, _ := newUserFixture(t)
		users.On("GetUserByEmail", ctx, "andi@example.com").Return(storedUser(t, "Secret123"), nil).Once()

		_, err := svc.Login(ctx, "andi@example.com", "Wrong123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, users, _ := newUserFixture(t)
		users.On("GetUserByEmail", ctx, "ghost@example.com").Return(nil, database.ErrUserNotFound).Once()

		_, err := svc.Login(ctx, "ghost@example.com", "Secret123")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("throttled after five attempts", func(t *testing.T) {
		svc, users, _ := newUserFixture(t)
		users.On("GetUserByEmail", ctx, "andi@example.com").Return(storedUser(t, "Secret123"), nil).Times(5)

		for i := 0; i < 5; i++ {
			_, err := svc.Login(ctx, "andi@example.com", "Wrong123")
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		}
		_, err := svc.Login(ctx, "andi@example.com", "Secret123")
		assert.ErrorIs(t, err, domain.ErrTooManyAttempts)
		users.AssertExpectations(t)
	})

	t.Run("store error does not block login", func(t *testing.T) {
		users := new(mockUserRepo)
		sessions := new(mockSessionStore)
		logger := zerolog.New(io.Discard)
		svc := NewUserService(users, sessions, auth.NewTokenManager(testAuthConfig.JWTSecret, time.Hour), testAuthConfig, &logger)

		sessions.On("CheckRateLimit", ctx, "login:andi@example.com", 5, 15*time.Minute).Return(false, errors.New("redis down")).Once()
		sessions.On("ResetRateLimit", ctx, "login:andi@example.com").Return(nil).Once()
		users.On("GetUserByEmail", ctx, "andi@example.com").Return(storedUser(t, "Secret123"), nil).Once()

		_, err := svc.Login(ctx, "andi@example.com", "Secret123")
		assert.NoError(t, err)
		sessions.AssertExpectations(t)
	})
}

func TestUserService_Authenticate_Rejects(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newUserFixture(t)

	_, _, err := svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	token, _, err := svc.tokens.Issue(&models.User{ID: 77, Role: models.RoleUser})
	require.NoError(t, err)
	users.On("GetUserByID", ctx, int64(77)).Return(nil, database.ErrUserNotFound).Once()
	_, _, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestUserService_Logout_IgnoresInvalidToken(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	assert.NoError(t, svc.Logout(context.Background(), ""))
	assert.NoError(t, svc.Logout(context.Background(), "not-a-token"))
}

func TestUserService_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("updates name and phone", func(t *testing.T) {
		svc, users, _ := newUserFixture(t)
		user := storedUser(t, "Secret123")
		nama, telp := "Andi S", "081111111111"
		updated := *user
		updated.Nama = nama
		users.On("UpdateUserProfile", ctx, int64(1), models.ProfileUpdate{Nama: &nama, NoTelp: &telp}).Return(nil).Once()
		users.On("GetUserByID", ctx, int64(1)).Return(&updated, nil).Once()

		got, err := svc.UpdateProfile(ctx, user, ProfileInput{Nama: &nama, NoTelp: &telp})
		require.NoError(t, err)
		assert.Equal(t, nama, got.Nama)
		users.AssertExpectations(t)
	})

	t.Run("password change requires current password", func(t *testing.T) {
		svc, _, _ := newUserFixture(t)
		_, err := svc.UpdateProfile(ctx, storedUser(t, "Secret123"), ProfileInput{NewPassword: "Newpass123"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("wrong current password", func(t *testing.T) {
		svc, _, _ := newUserFixture(t)
		_, err := svc.UpdateProfile(ctx, storedUser(t, "Secret123"), ProfileInput{CurrentPassword: "Nope1234", NewPassword: "Newpass123"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("password change stores new hash", func(t *testing.T) {
		svc, users, _ := newUserFixture(t)
		user := storedUser(t, "Secret123")
		users.On("UpdateUserProfile", ctx, int64(1), mock.MatchedBy(func(u models.ProfileUpdate) bool {
			return u.PasswordHash != nil && auth.VerifyPassword(*u.PasswordHash, "Newpass123")
		})).Return(nil).Once()
		users.On("GetUserByID", ctx, int64(1)).Return(user, nil).Once()

		_, err := svc.UpdateProfile(ctx, user, ProfileInput{CurrentPassword: "Secret123", NewPassword: "Newpass123"})
		require.NoError(t, err)
		users.AssertExpectations(t)
	})

	t.Run("no changes", func(t *testing.T) {
		svc, users, _ := newUserFixture(t)
		user := storedUser(t, "Secret123")
		got, err := svc.UpdateProfile(ctx, user, ProfileInput{})
		require.NoError(t, err)
		assert.Same(t, user, got)
		users.AssertNotCalled(t, "UpdateUserProfile", mock.Anything, mock.Anything, mock.Anything)
	})
}
