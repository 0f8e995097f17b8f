package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ikoiii/booking-futsal/internal/config"
	"github.com/ikoiii/booking-futsal/internal/domain"
	"github.com/ikoiii/booking-futsal/internal/events"
	"github.com/ikoiii/booking-futsal/internal/metrics"
	"github.com/ikoiii/booking-futsal/internal/models"
)

const claimLease = 5 * time.Minute

// Sink delivers events to one external system.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event *events.Event) error
}

// taskPayload is stored in OutboxTask.Payload. Each task targets one sink.
type taskPayload struct {
	Sink      string          `json:"sink"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// OutboxWorker persists events per sink and delivers them with retries.
// Tasks travel through Redis when available, an in-memory channel otherwise,
// and the outbox table is polled for retries and anything the queues missed.
type OutboxWorker struct {
	repo          domain.OutboxRepository
	sinks         map[string]Sink
	sinkOrder     []string
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.OutboxTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

func NewOutboxWorker(repo domain.OutboxRepository, redisClient *redis.Client, cfg config.WorkerConfig, logger *zerolog.Logger, sinks ...Sink) *OutboxWorker {
	queueKey := cfg.QueueKey
	if queueKey == "" {
		queueKey = "outbox:queue"
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	w := &OutboxWorker{
		repo:          repo,
		sinks:         make(map[string]Sink, len(sinks)),
		redis:         redisClient,
		retryPolicy:   RetryPolicyFromConfig(cfg),
		queue:         make(chan models.OutboxTask, models.OutboxQueueSize),
		redisQueueKey: queueKey,
		deadLetterKey: queueKey + ":deadletter",
		pollInterval:  pollInterval,
		batchSize:     20,
		logger:        logger,
	}
	for _, s := range sinks {
		if s == nil {
			continue
		}
		w.sinks[s.Name()] = s
		w.sinkOrder = append(w.sinkOrder, s.Name())
	}
	return w
}

// Sinks lists the configured sink names.
func (w *OutboxWorker) Sinks() []string {
	return append([]string(nil), w.sinkOrder...)
}

// Subscribe routes every event published on bus into the outbox.
func (w *OutboxWorker) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.AllEvents, w.HandleEvent)
}

// HandleEvent enqueues one task per configured sink.
func (w *OutboxWorker) HandleEvent(ctx context.Context, event *events.Event) error {
	var errs []error
	for _, name := range w.sinkOrder {
		if err := w.EnqueueTask(ctx, name, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EnqueueTask persists the event for sink and schedules it.
func (w *OutboxWorker) EnqueueTask(ctx context.Context, sink string, event *events.Event) error {
	if event == nil || event.Type == "" {
		return errors.New("event type is required")
	}
	if _, ok := w.sinks[sink]; !ok {
		return fmt.Errorf("unknown sink %q", sink)
	}

	raw, err := json.Marshal(taskPayload{Sink: sink, Data: event.Payload, CreatedAt: event.CreatedAt})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	task := models.OutboxTask{
		EventType: event.Type,
		BookingID: bookingIDOf(event),
		Payload:   string(raw),
		Status:    models.OutboxPending,
	}
	if err := w.repo.CreateOutboxTask(ctx, &task); err != nil {
		return fmt.Errorf("persist outbox task: %w", err)
	}

	if w.redis != nil {
		if err := w.pushRedis(ctx, w.redisQueueKey, task); err != nil {
			w.logger.Warn().Err(err).Int64("task_id", task.ID).Msg("redis push failed, falling back to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
	default:
		w.logger.Warn().Int64("task_id", task.ID).Msg("memory queue full, task left for polling")
	}
	return nil
}

// Start runs the delivery loop until ctx is done.
func (w *OutboxWorker) Start(ctx context.Context) {
	w.logger.Info().Strs("sinks", w.sinkOrder).Msg("outbox worker started")
	defer w.logger.Info().Msg("outbox worker stopped")

	for {
		if ctx.Err() != nil {
			return
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}
		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		n, err := w.ProcessPending(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("fetch pending outbox tasks")
		}
		if err != nil || n == 0 {
			select {
			case <-ctx.Done():
				return
			case task := <-w.queue:
				w.processTask(ctx, &task)
			case <-time.After(w.pollInterval):
			}
		}
	}
}

// ProcessPending delivers one batch of due tasks from the table.
func (w *OutboxWorker) ProcessPending(ctx context.Context) (int, error) {
	tasks, err := w.repo.GetPendingOutboxTasks(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}
	for i := range tasks {
		w.processTask(ctx, &tasks[i])
	}
	return len(tasks), nil
}

func (w *OutboxWorker) tryLocalQueue() (models.OutboxTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.OutboxTask{}, false
	}
}

func (w *OutboxWorker) tryRedis(ctx context.Context) (models.OutboxTask, bool) {
	if w.redis == nil {
		return models.OutboxTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			w.logger.Warn().Err(err).Msg("redis BRPOP failed")
		}
		return models.OutboxTask{}, false
	}
	if len(res) != 2 {
		return models.OutboxTask{}, false
	}
	var task models.OutboxTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("decode redis task")
		return models.OutboxTask{}, false
	}
	return task, true
}

func (w *OutboxWorker) processTask(ctx context.Context, task *models.OutboxTask) {
	claimed, err := w.repo.ClaimOutboxTask(ctx, task.ID, claimLease)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("claim outbox task")
		return
	}
	if !claimed {
		return
	}

	var payload taskPayload
	if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
		w.failTask(ctx, task, fmt.Errorf("decode payload: %w", err))
		return
	}
	sink, ok := w.sinks[payload.Sink]
	if !ok {
		w.failTask(ctx, task, fmt.Errorf("unknown sink %q", payload.Sink))
		return
	}

	event := &events.Event{Type: task.EventType, Payload: payload.Data, CreatedAt: payload.CreatedAt}
	if err := sink.Deliver(ctx, event); err != nil {
		metrics.IncOutboxDelivery(sink.Name(), false)
		w.retryOrFail(ctx, task, err)
		return
	}
	metrics.IncOutboxDelivery(sink.Name(), true)

	if err := w.repo.UpdateOutboxTaskStatus(ctx, task.ID, models.OutboxCompleted, "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark outbox task completed")
	}
}

func (w *OutboxWorker) retryOrFail(ctx context.Context, task *models.OutboxTask, cause error) {
	attempt := task.RetryCount + 1
	if w.retryPolicy.Exhausted(attempt) {
		w.failTask(ctx, task, cause)
		return
	}

	next := time.Now().UTC().Add(w.retryPolicy.NextDelay(attempt))
	w.logger.Warn().Err(cause).Int64("task_id", task.ID).Int("attempt", attempt).Time("next_retry_at", next).Msg("outbox delivery failed, will retry")
	if err := w.repo.UpdateOutboxTaskStatus(ctx, task.ID, models.OutboxRetry, cause.Error(), &next); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark outbox task retry")
	}
}

func (w *OutboxWorker) failTask(ctx context.Context, task *models.OutboxTask, cause error) {
	w.logger.Error().Err(cause).Int64("task_id", task.ID).Str("event_type", task.EventType).Msg("outbox task failed permanently")
	if err := w.repo.UpdateOutboxTaskStatus(ctx, task.ID, models.OutboxFailed, cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark outbox task failed")
	}
	if w.redis != nil {
		if err := w.pushRedis(ctx, w.deadLetterKey, *task); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("deadletter push failed")
		}
	}
}

func (w *OutboxWorker) pushRedis(ctx context.Context, key string, task models.OutboxTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, key, data).Err()
}

func bookingIDOf(event *events.Event) int64 {
	var ref struct {
		BookingID int64 `json:"booking_id"`
	}
	_ = json.Unmarshal(event.Payload, &ref)
	return ref.BookingID
}
