package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-recur/internal/models"
	appErrors "github.com/noah-isme/lms-recur/pkg/errors"
)

type settingStore interface {
	FindByCourseID(ctx context.Context, courseID int64) (*models.RecurringSetting, error)
	Insert(ctx context.Context, setting *models.RecurringSetting) error
	Update(ctx context.Context, setting *models.RecurringSetting) error
}

// SettingsForm carries the values entered on the course recurrence form.
type SettingsForm struct {
	CourseID  int64 `json:"course_id" validate:"required"`
	Recurring bool  `json:"recurring"`

	CourseDurQty   int                 `json:"course_dur_qty"`
	CourseDurUnit  models.DurationUnit `json:"course_dur_unit" validate:"omitempty,oneof=days weeks months years"`
	CourseFreqQty  int                 `json:"course_freq_qty"`
	CourseFreqUnit models.DurationUnit `json:"course_freq_unit" validate:"omitempty,oneof=days weeks months years"`

	ExpiresAt time.Time `json:"expires_at"`

	StartReminder        bool                `json:"start_reminder"`
	StartRemWindowQty    int                 `json:"start_rem_window_qty"`
	StartRemWindowUnit   models.DurationUnit `json:"start_rem_window_unit" validate:"omitempty,oneof=days weeks months years"`
	StartRemRepeat       models.RepeatMode   `json:"start_rem_repeat" validate:"omitempty,oneof=once every"`
	StartRemIntervalQty  int                 `json:"start_rem_interval_qty"`
	StartRemIntervalUnit models.DurationUnit `json:"start_rem_interval_unit" validate:"omitempty,oneof=days weeks months years"`

	EndReminder        bool                `json:"end_reminder"`
	EndRemWindowQty    int                 `json:"end_rem_window_qty"`
	EndRemWindowUnit   models.DurationUnit `json:"end_rem_window_unit" validate:"omitempty,oneof=days weeks months years"`
	EndRemRepeat       models.RepeatMode   `json:"end_rem_repeat" validate:"omitempty,oneof=once every"`
	EndRemIntervalQty  int                 `json:"end_rem_interval_qty"`
	EndRemIntervalUnit models.DurationUnit `json:"end_rem_interval_unit" validate:"omitempty,oneof=days weeks months years"`
}

// SettingsService converts form values into recurrence settings rows. It is
// the write side used when a course's settings form is saved; the batch
// cycle only ever reads what this produces.
type SettingsService struct {
	store     settingStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs SettingsService.
func NewSettingsService(store settingStore, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{store: store, validator: validate, logger: logger}
}

// Defaults returns the initial setting for a course that just adopted the
// recurring format.
func (s *SettingsService) Defaults(courseID int64) models.RecurringSetting {
	return models.RecurringSetting{
		CourseID:        courseID,
		Recurring:       true,
		Template:        courseID,
		CourseFreqQty:   1,
		CourseFreqUnit:  models.UnitYears,
		CourseFrequency: DurationSeconds(1, models.UnitYears),
	}
}

// Save upserts the settings row for the form's course. When recurring is
// unticked every other field is ignored and the row only records the
// opt-out. When a start reminder is configured the stored expiry moves
// earlier by the reminder window, so reminding can begin before the clone
// lands.
func (s *SettingsService) Save(ctx context.Context, form SettingsForm) (*models.RecurringSetting, error) {
	if err := s.validator.Struct(form); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings form")
	}

	existing, err := s.store.FindByCourseID(ctx, form.CourseID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "failed to load setting")
	}

	setting := s.fromForm(form)
	if existing != nil {
		setting.ID = existing.ID
		setting.CreatedAt = existing.CreatedAt
		if err := s.store.Update(ctx, &setting); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "failed to update setting")
		}
	} else {
		if err := s.store.Insert(ctx, &setting); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "failed to insert setting")
		}
	}

	s.logger.Info("recurrence settings saved",
		zap.Int64("course_id", form.CourseID),
		zap.Bool("recurring", form.Recurring),
	)
	return &setting, nil
}

func (s *SettingsService) fromForm(form SettingsForm) models.RecurringSetting {
	if !form.Recurring {
		return models.RecurringSetting{CourseID: form.CourseID, Recurring: false}
	}

	setting := models.RecurringSetting{
		CourseID:        form.CourseID,
		Recurring:       true,
		Template:        form.CourseID,
		CourseDurQty:    form.CourseDurQty,
		CourseDurUnit:   form.CourseDurUnit,
		CourseDuration:  DurationSeconds(form.CourseDurQty, form.CourseDurUnit),
		CourseFreqQty:   form.CourseFreqQty,
		CourseFreqUnit:  form.CourseFreqUnit,
		CourseFrequency: DurationSeconds(form.CourseFreqQty, form.CourseFreqUnit),
		ExpiresAt:       form.ExpiresAt,
	}

	if form.StartReminder {
		setting.StartReminder = true
		setting.StartRemWindowQty = form.StartRemWindowQty
		setting.StartRemWindowUnit = form.StartRemWindowUnit
		setting.StartRemWindow = DurationSeconds(form.StartRemWindowQty, form.StartRemWindowUnit)
		setting.StartRemRepeat = form.StartRemRepeat
		setting.ExpiresAt = form.ExpiresAt.Add(-time.Duration(setting.StartRemWindow) * time.Second)
		if form.StartRemRepeat == models.RepeatEvery {
			setting.StartRemIntervalQty = form.StartRemIntervalQty
			setting.StartRemIntervalUnit = form.StartRemIntervalUnit
			setting.StartRemInterval = DurationSeconds(form.StartRemIntervalQty, form.StartRemIntervalUnit)
		}
	}

	if form.EndReminder {
		setting.EndReminder = true
		setting.EndRemWindowQty = form.EndRemWindowQty
		setting.EndRemWindowUnit = form.EndRemWindowUnit
		setting.EndRemWindow = DurationSeconds(form.EndRemWindowQty, form.EndRemWindowUnit)
		setting.EndRemRepeat = form.EndRemRepeat
		if form.EndRemRepeat == models.RepeatEvery {
			setting.EndRemIntervalQty = form.EndRemIntervalQty
			setting.EndRemIntervalUnit = form.EndRemIntervalUnit
			setting.EndRemInterval = DurationSeconds(form.EndRemIntervalQty, form.EndRemIntervalUnit)
		}
	}

	return setting
}
