package database

import (
	"context"
	"fmt"
	"time"

	"github.com/ikoiii/booking-futsal/internal/models"
)

const outboxColumns = `id, event_type, booking_id, payload, status, retry_count, last_error, created_at, processed_at, next_retry_at`

func (db *DB) CreateOutboxTask(ctx context.Context, task *models.OutboxTask) error {
	if task.Status == "" {
		task.Status = models.OutboxPending
	}
	ts := nowUTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO outbox (event_type, booking_id, payload, status, retry_count, last_error, created_at, next_retry_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.EventType, task.BookingID, task.Payload, task.Status, task.RetryCount, task.LastError, ts, task.NextRetryAt)
	if err != nil {
		return fmt.Errorf("failed to create outbox task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = ts
	return nil
}

// GetPendingOutboxTasks returns due tasks, oldest first. A processing task
// is due again once its lease has expired.
func (db *DB) GetPendingOutboxTasks(ctx context.Context, limit int) ([]models.OutboxTask, error) {
	return db.queryOutbox(ctx,
		`SELECT `+outboxColumns+` FROM outbox
		 WHERE status IN (?, ?, ?) AND (next_retry_at IS NULL OR next_retry_at <= ?)
		 ORDER BY created_at ASC, id ASC LIMIT ?`,
		models.OutboxPending, models.OutboxRetry, models.OutboxProcessing, nowUTC(), limit)
}

// ClaimOutboxTask marks a due task as processing for lease. It reports false
// when another consumer holds or has finished the task.
func (db *DB) ClaimOutboxTask(ctx context.Context, id int64, lease time.Duration) (bool, error) {
	now := nowUTC()
	result, err := db.ExecContext(ctx,
		`UPDATE outbox SET status = ?, next_retry_at = ?
		 WHERE id = ? AND status IN (?, ?, ?) AND (next_retry_at IS NULL OR next_retry_at <= ?)`,
		models.OutboxProcessing, now.Add(lease), id,
		models.OutboxPending, models.OutboxRetry, models.OutboxProcessing, now)
	if err != nil {
		return false, fmt.Errorf("failed to claim outbox task: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rows == 1, nil
}

// GetFailedOutboxTasks returns the dead-lettered tasks, newest first.
func (db *DB) GetFailedOutboxTasks(ctx context.Context) ([]models.OutboxTask, error) {
	return db.queryOutbox(ctx,
		`SELECT `+outboxColumns+` FROM outbox WHERE status = ? ORDER BY created_at DESC, id DESC`, models.OutboxFailed)
}

func (db *DB) UpdateOutboxTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error {
	var (
		query string
		args  []interface{}
	)
	lastErr := &errMsg
	if errMsg == "" {
		lastErr = nil
	}

	switch status {
	case models.OutboxRetry:
		query = `UPDATE outbox SET status = ?, last_error = ?, next_retry_at = ?, retry_count = retry_count + 1 WHERE id = ?`
		args = []interface{}{status, lastErr, nextRetryAt, id}
	case models.OutboxCompleted, models.OutboxFailed:
		query = `UPDATE outbox SET status = ?, last_error = ?, next_retry_at = ?, processed_at = ? WHERE id = ?`
		args = []interface{}{status, lastErr, nextRetryAt, nowUTC(), id}
	default:
		query = `UPDATE outbox SET status = ?, last_error = ?, next_retry_at = ? WHERE id = ?`
		args = []interface{}{status, lastErr, nextRetryAt, id}
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update outbox task status: %w", err)
	}
	return nil
}

func (db *DB) queryOutbox(ctx context.Context, query string, args ...interface{}) ([]models.OutboxTask, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer rows.Close()

	var tasks []models.OutboxTask
	for rows.Next() {
		var t models.OutboxTask
		if err := rows.Scan(&t.ID, &t.EventType, &t.BookingID, &t.Payload, &t.Status, &t.RetryCount,
			&t.LastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox: %w", err)
	}
	return tasks, nil
}
