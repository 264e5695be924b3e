package models

import "time"

// Enrolment is the external enrolment record: the enrolled-at instant is the
// per-user course-start anchor.
type Enrolment struct {
	CourseID   int64     `db:"course_id" json:"course_id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolled_at"`
}
