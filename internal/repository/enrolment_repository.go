package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-recur/internal/models"
)

// EnrolmentRepository reads enrolment records and migrates their timestamps
// onto cloned courses.
type EnrolmentRepository struct {
	db *sqlx.DB
}

// NewEnrolmentRepository constructs the repository.
func NewEnrolmentRepository(db *sqlx.DB) *EnrolmentRepository {
	return &EnrolmentRepository{db: db}
}

// ListByCourse returns the (user, enrolledAt) pairs for a course.
func (r *EnrolmentRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.Enrolment, error) {
	const query = `SELECT course_id, user_id, enrolled_at FROM enrolments WHERE course_id = $1 ORDER BY user_id`
	var enrolments []models.Enrolment
	if err := r.db.SelectContext(ctx, &enrolments, query, courseID); err != nil {
		return nil, fmt.Errorf("list enrolments: %w", err)
	}
	return enrolments, nil
}

// ShiftEnrolledAt sets each migrated enrolment's timestamp to the old
// course's timestamp plus the clone frequency. This anchors the new
// course's per-user start to when the recurrence period began, not to when
// duplication happened.
func (r *EnrolmentRepository) ShiftEnrolledAt(ctx context.Context, oldCourseID, newCourseID, shiftSeconds int64) error {
	const query = `UPDATE enrolments AS n
        SET enrolled_at = o.enrolled_at + ($3 * INTERVAL '1 second')
        FROM enrolments AS o
        WHERE n.course_id = $2 AND o.course_id = $1 AND n.user_id = o.user_id`
	if _, err := r.db.ExecContext(ctx, query, oldCourseID, newCourseID, shiftSeconds); err != nil {
		return fmt.Errorf("shift enrolment timestamps: %w", err)
	}
	return nil
}
