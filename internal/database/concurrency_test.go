package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ikoiii/booking-futsal/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentBooking(t *testing.T) {
	logger := zerolog.Nop()
	dbPath := filepath.Join(t.TempDir(), "concurrency.db")
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	l := seedLapangan(t, db, "Lapangan A", 100000)

	const numGoroutines = 10
	users := make([]*models.User, numGoroutines)
	for i := range users {
		users[i] = seedUser(t, db, "racer"+string(rune('a'+i))+"@example.com")
	}

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	results := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(u *models.User, start int) {
			defer wg.Done()
			// every request overlaps [10,11)
			results <- db.CreateBookingWithLock(ctx, newBooking(u.ID, l.ID, "2025-06-01", start, 11+start%2))
		}(users[i], 9+i%2)
	}

	wg.Wait()
	close(results)

	successCount := 0
	for err := range results {
		if err == nil {
			successCount++
			continue
		}
		assert.ErrorIs(t, err, ErrNotAvailable)
	}

	assert.Equal(t, 1, successCount, "only one overlapping booking may be accepted")

	count, err := db.ConflictCount(ctx, l.ID, "2025-06-01", 0, 24)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
