package worker

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikoiii/booking-futsal/internal/config"
	"github.com/ikoiii/booking-futsal/internal/database"
	"github.com/ikoiii/booking-futsal/internal/events"
	"github.com/ikoiii/booking-futsal/internal/models"
)

type fakeSink struct {
	name string
	err  error

	mu        sync.Mutex
	delivered []*events.Event
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Deliver(_ context.Context, event *events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, event)
	return f.err
}

func (f *fakeSink) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.delivered)
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestWorker(t *testing.T, db *database.DB, rdb *redis.Client, cfg config.WorkerConfig, sinks ...Sink) *OutboxWorker {
	t.Helper()
	logger := zerolog.New(io.Discard)
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 20 * time.Millisecond
	}
	return NewOutboxWorker(db, rdb, cfg, &logger, sinks...)
}

func testEvent(t *testing.T) *events.Event {
	t.Helper()
	ev, err := events.NewJSONEvent(events.EventBookingCreated, events.BookingEventPayload{
		BookingID: 7, LapanganID: 1, Tanggal: "2025-06-11", JamMulai: 9, JamSelesai: 11, TotalHarga: 200000, Status: "pending",
	})
	require.NoError(t, err)
	return &ev
}

func loadTaskStatus(t *testing.T, db *database.DB, id int64) (string, int, sql.NullTime) {
	t.Helper()
	var (
		status     string
		retryCount int
		nextRetry  sql.NullTime
	)
	err := db.QueryRow(`SELECT status, retry_count, next_retry_at FROM outbox WHERE id = ?`, id).Scan(&status, &retryCount, &nextRetry)
	require.NoError(t, err)
	return status, retryCount, nextRetry
}

func TestProcessTaskSuccess(t *testing.T) {
	db := newTestDB(t)
	sink := &fakeSink{name: "amqp"}
	w := newTestWorker(t, db, nil, config.WorkerConfig{}, sink)
	ctx := context.Background()

	require.NoError(t, w.HandleEvent(ctx, testEvent(t)))

	task, ok := w.tryLocalQueue()
	require.True(t, ok)
	assert.Equal(t, int64(7), task.BookingID)
	assert.Equal(t, events.EventBookingCreated, task.EventType)
	w.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTaskStatus(t, db, task.ID)
	assert.Equal(t, models.OutboxCompleted, status)
	assert.Zero(t, retryCount)
	assert.False(t, nextRetry.Valid)

	require.Equal(t, 1, sink.calls())
	var p events.BookingEventPayload
	require.NoError(t, sink.delivered[0].Decode(&p))
	assert.Equal(t, int64(200000), p.TotalHarga)
}

func TestProcessTaskRetry(t *testing.T) {
	db := newTestDB(t)
	sink := &fakeSink{name: "amqp", err: errors.New("broker down")}
	w := newTestWorker(t, db, nil, config.WorkerConfig{MaxRetries: 3, BaseDelay: time.Second}, sink)
	ctx := context.Background()

	require.NoError(t, w.HandleEvent(ctx, testEvent(t)))
	task, ok := w.tryLocalQueue()
	require.True(t, ok)
	w.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTaskStatus(t, db, task.ID)
	assert.Equal(t, models.OutboxRetry, status)
	assert.Equal(t, 1, retryCount)
	require.True(t, nextRetry.Valid)
	assert.True(t, nextRetry.Time.After(time.Now().Add(-time.Second)))

	pending, err := db.GetPendingOutboxTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "task is not due before next_retry_at")
}

func TestProcessTaskFailGoesToDeadLetter(t *testing.T) {
	db := newTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sink := &fakeSink{name: "telegram", err: errors.New("chat not found")}
	w := newTestWorker(t, db, rdb, config.WorkerConfig{MaxRetries: 1, QueueKey: "outbox:test"}, sink)
	ctx := context.Background()

	require.NoError(t, w.HandleEvent(ctx, testEvent(t)))
	task, ok := w.tryRedis(ctx)
	require.True(t, ok)
	w.processTask(ctx, &task)

	status, _, _ := loadTaskStatus(t, db, task.ID)
	assert.Equal(t, models.OutboxFailed, status)

	failed, err := db.GetFailedOutboxTasks(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.NotNil(t, failed[0].LastError)
	assert.Equal(t, "chat not found", *failed[0].LastError)

	dead, err := mr.List("outbox:test:deadletter")
	require.NoError(t, err)
	assert.Len(t, dead, 1)
}

func TestEnqueueTask_UsesRedisWhenAvailable(t *testing.T) {
	db := newTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	w := newTestWorker(t, db, rdb, config.WorkerConfig{QueueKey: "outbox:test"}, &fakeSink{name: "amqp"})
	ctx := context.Background()

	require.NoError(t, w.HandleEvent(ctx, testEvent(t)))

	queued, err := mr.List("outbox:test")
	require.NoError(t, err)
	assert.Len(t, queued, 1)
	_, ok := w.tryLocalQueue()
	assert.False(t, ok)
}

func TestEnqueueTask_FallsBackToMemoryWhenRedisDown(t *testing.T) {
	db := newTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()
	w := newTestWorker(t, db, rdb, config.WorkerConfig{}, &fakeSink{name: "amqp"})

	require.NoError(t, w.HandleEvent(context.Background(), testEvent(t)))
	_, ok := w.tryLocalQueue()
	assert.True(t, ok)
}

func TestHandleEvent_OneTaskPerSink(t *testing.T) {
	db := newTestDB(t)
	w := newTestWorker(t, db, nil, config.WorkerConfig{}, &fakeSink{name: "amqp"}, &fakeSink{name: "sheets"}, nil)
	ctx := context.Background()

	assert.Equal(t, []string{"amqp", "sheets"}, w.Sinks())
	require.NoError(t, w.HandleEvent(ctx, testEvent(t)))

	pending, err := db.GetPendingOutboxTasks(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestEnqueueTask_Validation(t *testing.T) {
	db := newTestDB(t)
	w := newTestWorker(t, db, nil, config.WorkerConfig{}, &fakeSink{name: "amqp"})
	ctx := context.Background()

	assert.Error(t, w.EnqueueTask(ctx, "amqp", &events.Event{}))
	assert.Error(t, w.EnqueueTask(ctx, "fax", testEvent(t)))
}

func TestProcessTask_UnknownSinkFails(t *testing.T) {
	db := newTestDB(t)
	w := newTestWorker(t, db, nil, config.WorkerConfig{}, &fakeSink{name: "amqp"})
	ctx := context.Background()

	task := models.OutboxTask{EventType: events.EventBookingCreated, BookingID: 1, Payload: `{"sink":"fax","data":{}}`}
	require.NoError(t, db.CreateOutboxTask(ctx, &task))
	w.processTask(ctx, &task)

	status, _, _ := loadTaskStatus(t, db, task.ID)
	assert.Equal(t, models.OutboxFailed, status)
}

func TestStart_DeliversPublishedEvents(t *testing.T) {
	db := newTestDB(t)
	sink := &fakeSink{name: "amqp"}
	w := newTestWorker(t, db, nil, config.WorkerConfig{}, sink)
	bus := events.NewEventBus()
	w.Subscribe(bus)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.NoError(t, bus.PublishJSON(ctx, events.EventBookingStatusChanged, events.BookingEventPayload{BookingID: 3, Status: "confirmed"}))
	require.Eventually(t, func() bool { return sink.calls() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestProcessPending_PicksUpPersistedTasks(t *testing.T) {
	db := newTestDB(t)
	sink := &fakeSink{name: "sheets"}
	w := newTestWorker(t, db, nil, config.WorkerConfig{}, sink)
	ctx := context.Background()

	task := models.OutboxTask{EventType: events.EventBookingCreated, BookingID: 9, Payload: `{"sink":"sheets","data":{"booking_id":9}}`}
	require.NoError(t, db.CreateOutboxTask(ctx, &task))

	n, err := w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, sink.calls())
}

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}

	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
	assert.Equal(t, 4*time.Second, policy.NextDelay(3))
	assert.Equal(t, 5*time.Second, policy.NextDelay(5))
	assert.Equal(t, time.Second, policy.NextDelay(0))

	assert.False(t, policy.Exhausted(2))
	assert.True(t, policy.Exhausted(3))
}

func TestRetryPolicyFromConfig_Defaults(t *testing.T) {
	p := RetryPolicyFromConfig(config.WorkerConfig{})
	assert.Equal(t, 5, p.MaxRetries)
	assert.Equal(t, 2*time.Second, p.InitialDelay)
	assert.Equal(t, time.Minute, p.MaxDelay)
}
