package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-recur/internal/models"
)

// ReminderRepository owns the append-only reminder ledger and the event
// sink. Neither table is ever updated or deleted from here.
type ReminderRepository struct {
	db *sqlx.DB
}

// NewReminderRepository constructs the repository.
func NewReminderRepository(db *sqlx.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// RecordExists reports whether the ledger already holds a row for the
// (user, course) pair. This is the onboarding idempotency gate.
func (r *ReminderRepository) RecordExists(ctx context.Context, userID, courseID int64) (bool, error) {
	const query = `SELECT 1 FROM reminder_records WHERE user_id = $1 AND course_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, userID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check reminder record: %w", err)
	}
	return true, nil
}

// AppendRecord appends a ledger row.
func (r *ReminderRepository) AppendRecord(ctx context.Context, record *models.ReminderRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO reminder_records (id, user_id, course_id, course_start, course_end, created_at)
        VALUES (:id, :user_id, :course_id, :course_start, :course_end, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("append reminder record: %w", err)
	}
	return nil
}

// AppendEvent writes a reminder event to the notification sink.
func (r *ReminderRepository) AppendEvent(ctx context.Context, event *models.ReminderEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO reminder_events (id, user_id, name, description, fire_at, duration_seconds, created_at)
        VALUES (:id, :user_id, :name, :description, :fire_at, :duration_seconds, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("append reminder event: %w", err)
	}
	return nil
}
