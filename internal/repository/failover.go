package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ikoiii/booking-futsal/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverSessionStore uses primary until it errors, then serves from
// fallback and retries primary once per recoveryInterval.
type FailoverSessionStore struct {
	primary   domain.SessionStore
	fallback  domain.SessionStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverSessionStore(primary, fallback domain.SessionStore, logger *zerolog.Logger) *FailoverSessionStore {
	return &FailoverSessionStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// usePrimary reports whether the next call should go to primary.
func (r *FailoverSessionStore) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	return time.Since(time.Unix(0, r.lastCheck.Load())) > recoveryInterval
}

func (r *FailoverSessionStore) markDown(err error, op string) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Str("op", op).Msg("primary session store failed, falling back to memory")
	}
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverSessionStore) markUp() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("primary session store recovered")
	}
}

func (r *FailoverSessionStore) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	// revocations are mirrored to the fallback
	_ = r.fallback.RevokeToken(ctx, tokenID, ttl)
	if r.usePrimary() {
		err := r.primary.RevokeToken(ctx, tokenID, ttl)
		if err == nil {
			r.markUp()
			return nil
		}
		r.markDown(err, "revoke_token")
	}
	return nil
}

func (r *FailoverSessionStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if r.usePrimary() {
		revoked, err := r.primary.IsRevoked(ctx, tokenID)
		if err == nil {
			r.markUp()
			if revoked {
				return true, nil
			}
			return r.fallback.IsRevoked(ctx, tokenID)
		}
		r.markDown(err, "is_revoked")
	}
	return r.fallback.IsRevoked(ctx, tokenID)
}

func (r *FailoverSessionStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.markUp()
			return allowed, nil
		}
		r.markDown(err, "check_rate_limit")
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}

func (r *FailoverSessionStore) ResetRateLimit(ctx context.Context, key string) error {
	_ = r.fallback.ResetRateLimit(ctx, key)
	if r.usePrimary() {
		err := r.primary.ResetRateLimit(ctx, key)
		if err == nil {
			r.markUp()
			return nil
		}
		r.markDown(err, "reset_rate_limit")
	}
	return nil
}
