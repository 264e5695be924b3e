package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-recur/internal/models"
	appErrors "github.com/noah-isme/lms-recur/pkg/errors"
)

type reminderLedger interface {
	RecordExists(ctx context.Context, userID, courseID int64) (bool, error)
	AppendRecord(ctx context.Context, record *models.ReminderRecord) error
	AppendEvent(ctx context.Context, event *models.ReminderEvent) error
}

// ReminderInput describes one user's reminder generation request. The
// course start is the per-user anchor: the enrolment instant for
// onboarding, or the enrolment instant shifted by the clone frequency for a
// freshly cloned course.
type ReminderInput struct {
	UserID          int64     `validate:"required"`
	CourseID        int64     `validate:"required"`
	CourseShortName string    `validate:"required"`
	CourseStart     time.Time `validate:"required"`

	Setting models.RecurringSetting `validate:"-"`
}

// ReminderOutcome reports what one generation pass produced.
type ReminderOutcome struct {
	RecordAppended bool
	EventsEmitted  int
}

// ReminderService turns recurrence settings into reminder ledger rows and
// notification events anchored to computed course start/end instants.
type ReminderService struct {
	ledger        reminderLedger
	validator     *validator.Validate
	logger        *zap.Logger
	courseBaseURL string
}

// NewReminderService constructs ReminderService.
func NewReminderService(ledger reminderLedger, validate *validator.Validate, logger *zap.Logger, courseBaseURL string) *ReminderService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderService{ledger: ledger, validator: validate, logger: logger, courseBaseURL: courseBaseURL}
}

// Onboard generates reminders for a user first observed in a course. The
// ledger is the idempotency gate: a pre-existing (user, course) record
// means the user was already onboarded and nothing is emitted.
func (s *ReminderService) Onboard(ctx context.Context, in ReminderInput) (ReminderOutcome, error) {
	if err := s.validator.Struct(in); err != nil {
		return ReminderOutcome{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reminder input")
	}
	exists, err := s.ledger.RecordExists(ctx, in.UserID, in.CourseID)
	if err != nil {
		return ReminderOutcome{}, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "failed to check reminder ledger")
	}
	if exists {
		s.logger.Debug("user already onboarded",
			zap.Int64("user_id", in.UserID),
			zap.Int64("course_id", in.CourseID),
		)
		return ReminderOutcome{}, nil
	}
	return s.generate(ctx, in)
}

// RemindMigrated generates reminders for an enrolment migrated onto a new
// course instance. Each clone cycle concerns a new course, so a fresh
// ledger row is always appended.
func (s *ReminderService) RemindMigrated(ctx context.Context, in ReminderInput) (ReminderOutcome, error) {
	if err := s.validator.Struct(in); err != nil {
		return ReminderOutcome{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reminder input")
	}
	return s.generate(ctx, in)
}

func (s *ReminderService) generate(ctx context.Context, in ReminderInput) (ReminderOutcome, error) {
	setting := in.Setting
	courseEnd := in.CourseStart.Add(time.Duration(setting.CourseDuration) * time.Second)

	// Plan everything before touching the ledger so a configuration error
	// leaves no partial state behind.
	var events []models.ReminderEvent
	if setting.StartReminder {
		fires, err := fireTimes(in.CourseStart, setting.StartRemWindow, setting.StartRemRepeat, setting.StartRemInterval)
		if err != nil {
			return ReminderOutcome{}, err
		}
		desc := fmt.Sprintf("Reminder: %s (%s?id=%d) starts %s",
			in.CourseShortName, s.courseBaseURL, in.CourseID, in.CourseStart.UTC().Format(time.RFC1123))
		for _, fire := range fires {
			events = append(events, models.ReminderEvent{
				UserID:      in.UserID,
				Name:        in.CourseShortName,
				Description: desc,
				FireAt:      fire,
			})
		}
	}
	if setting.EndReminder {
		fires, err := fireTimes(courseEnd, setting.EndRemWindow, setting.EndRemRepeat, setting.EndRemInterval)
		if err != nil {
			return ReminderOutcome{}, err
		}
		desc := fmt.Sprintf("Reminder: %s (%s?id=%d) ends %s",
			in.CourseShortName, s.courseBaseURL, in.CourseID, courseEnd.UTC().Format(time.RFC1123))
		for _, fire := range fires {
			event := models.ReminderEvent{
				UserID:      in.UserID,
				Name:        in.CourseShortName,
				Description: desc,
				FireAt:      fire,
			}
			// The lone end reminder spans the course; repeating ones are
			// point events.
			if setting.EndRemRepeat != models.RepeatEvery {
				event.DurationSeconds = setting.CourseDuration
			}
			events = append(events, event)
		}
	}

	record := &models.ReminderRecord{
		UserID:      in.UserID,
		CourseID:    in.CourseID,
		CourseStart: in.CourseStart,
		CourseEnd:   courseEnd,
	}
	if err := s.ledger.AppendRecord(ctx, record); err != nil {
		return ReminderOutcome{}, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "failed to append reminder record")
	}

	outcome := ReminderOutcome{RecordAppended: true}
	for i := range events {
		if err := s.ledger.AppendEvent(ctx, &events[i]); err != nil {
			return outcome, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "failed to append reminder event")
		}
		outcome.EventsEmitted++
	}

	s.logger.Debug("reminders generated",
		zap.Int64("user_id", in.UserID),
		zap.Int64("course_id", in.CourseID),
		zap.Int("events", outcome.EventsEmitted),
	)
	return outcome, nil
}

// fireTimes expands a reminder window into fire instants. A single-shot
// reminder fires once at anchor − window. A repeating reminder fires
// floor(window / interval) times stepping forward from anchor − window;
// every occurrence stays strictly before the anchor.
func fireTimes(anchor time.Time, windowSeconds int64, mode models.RepeatMode, intervalSeconds int64) ([]time.Time, error) {
	first := anchor.Add(-time.Duration(windowSeconds) * time.Second)
	if mode != models.RepeatEvery {
		return []time.Time{first}, nil
	}
	if intervalSeconds <= 0 {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "repeat interval must be positive")
	}

	count := windowSeconds / intervalSeconds
	interval := time.Duration(intervalSeconds) * time.Second
	times := make([]time.Time, 0, count)
	fire := first
	for i := int64(0); i < count; i++ {
		times = append(times, fire)
		fire = fire.Add(interval)
	}
	return times, nil
}
