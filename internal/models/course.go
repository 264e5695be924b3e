package models

import "time"

// Course mirrors the LMS course record consumed by the engine. Course ids
// are the LMS sequence values; the next clone suffix derives from their
// maximum.
type Course struct {
	ID         int64     `db:"id" json:"id"`
	CategoryID int64     `db:"category_id" json:"category_id"`
	FullName   string    `db:"full_name" json:"full_name"`
	ShortName  string    `db:"short_name" json:"short_name"`
	Visible    bool      `db:"visible" json:"visible"`
	SortOrder  int64     `db:"sort_order" json:"sort_order"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// CourseHandle is the duplication collaborator's view of a created course.
type CourseHandle struct {
	ID        int64  `json:"id"`
	ShortName string `json:"short_name"`
}

// CloneOptions is the fixed option set handed to the duplication
// collaborator. Activities, blocks, filters, users and role assignments
// travel with the clone; comments, completion state, logs and grade
// histories do not.
type CloneOptions struct {
	Activities      bool `json:"activities"`
	Blocks          bool `json:"blocks"`
	Filters         bool `json:"filters"`
	Users           bool `json:"users"`
	RoleAssignments bool `json:"role_assignments"`
	Comments        bool `json:"comments"`
	Completion      bool `json:"completion"`
	Logs            bool `json:"logs"`
	GradeHistories  bool `json:"grade_histories"`
}

// DefaultCloneOptions returns the default duplication option set.
func DefaultCloneOptions() CloneOptions {
	return CloneOptions{
		Activities:      true,
		Blocks:          true,
		Filters:         true,
		Users:           true,
		RoleAssignments: true,
	}
}
