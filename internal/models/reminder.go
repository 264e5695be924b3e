package models

import "time"

// ReminderRecord is an append-only ledger entry. Its existence for a
// (user, course) pair marks the user as already onboarded in that course.
type ReminderRecord struct {
	ID          string    `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	CourseID    int64     `db:"course_id" json:"course_id"`
	CourseStart time.Time `db:"course_start" json:"course_start"`
	CourseEnd   time.Time `db:"course_end" json:"course_end"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ReminderEvent is one emitted notification. Write-only; never updated.
// DurationSeconds is zero for point events.
type ReminderEvent struct {
	ID              string    `db:"id" json:"id"`
	UserID          int64     `db:"user_id" json:"user_id"`
	Name            string    `db:"name" json:"name"`
	Description     string    `db:"description" json:"description"`
	FireAt          time.Time `db:"fire_at" json:"fire_at"`
	DurationSeconds int64     `db:"duration_seconds" json:"duration_seconds"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
