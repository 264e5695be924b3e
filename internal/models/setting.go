package models

import (
	"database/sql"
	"time"
)

// DurationUnit is a human-entered duration unit.
type DurationUnit string

const (
	UnitDays   DurationUnit = "days"
	UnitWeeks  DurationUnit = "weeks"
	UnitMonths DurationUnit = "months"
	UnitYears  DurationUnit = "years"
)

// RepeatMode selects between a single reminder and a repeating series.
type RepeatMode string

const (
	RepeatOnce  RepeatMode = "once"
	RepeatEvery RepeatMode = "every"
)

// RecurringSetting holds the recurrence policy for one course instance.
// Exactly one row exists per course. When Recurring is false the row is
// historical and every other field is inert.
//
// Durations are persisted both as the entered quantity/unit pair and as the
// derived second count, so the entry form can round-trip values.
type RecurringSetting struct {
	ID        int64         `db:"id" json:"id"`
	CourseID  int64         `db:"course_id" json:"course_id"`
	Recurring bool          `db:"recurring" json:"recurring"`
	Template  int64         `db:"template" json:"template"`
	Parent    sql.NullInt64 `db:"parent" json:"parent,omitempty"`

	CourseDurQty   int          `db:"course_dur_qty" json:"course_dur_qty"`
	CourseDurUnit  DurationUnit `db:"course_dur_unit" json:"course_dur_unit"`
	CourseDuration int64        `db:"course_duration" json:"course_duration"`

	CourseFreqQty   int          `db:"course_freq_qty" json:"course_freq_qty"`
	CourseFreqUnit  DurationUnit `db:"course_freq_unit" json:"course_freq_unit"`
	CourseFrequency int64        `db:"course_frequency" json:"course_frequency"`

	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`

	StartReminder        bool         `db:"start_reminder" json:"start_reminder"`
	StartRemWindowQty    int          `db:"start_rem_window_qty" json:"start_rem_window_qty"`
	StartRemWindowUnit   DurationUnit `db:"start_rem_window_unit" json:"start_rem_window_unit"`
	StartRemWindow       int64        `db:"start_rem_window" json:"start_rem_window"`
	StartRemRepeat       RepeatMode   `db:"start_rem_repeat" json:"start_rem_repeat"`
	StartRemIntervalQty  int          `db:"start_rem_interval_qty" json:"start_rem_interval_qty"`
	StartRemIntervalUnit DurationUnit `db:"start_rem_interval_unit" json:"start_rem_interval_unit"`
	StartRemInterval     int64        `db:"start_rem_interval" json:"start_rem_interval"`

	EndReminder        bool         `db:"end_reminder" json:"end_reminder"`
	EndRemWindowQty    int          `db:"end_rem_window_qty" json:"end_rem_window_qty"`
	EndRemWindowUnit   DurationUnit `db:"end_rem_window_unit" json:"end_rem_window_unit"`
	EndRemWindow       int64        `db:"end_rem_window" json:"end_rem_window"`
	EndRemRepeat       RepeatMode   `db:"end_rem_repeat" json:"end_rem_repeat"`
	EndRemIntervalQty  int          `db:"end_rem_interval_qty" json:"end_rem_interval_qty"`
	EndRemIntervalUnit DurationUnit `db:"end_rem_interval_unit" json:"end_rem_interval_unit"`
	EndRemInterval     int64        `db:"end_rem_interval" json:"end_rem_interval"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ParentID returns the predecessor course id, or 0 for an original template.
func (s RecurringSetting) ParentID() int64 {
	if s.Parent.Valid {
		return s.Parent.Int64
	}
	return 0
}
