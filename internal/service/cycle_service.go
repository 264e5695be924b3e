package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-recur/internal/models"
	appErrors "github.com/noah-isme/lms-recur/pkg/errors"
)

type settingLister interface {
	ListActive(ctx context.Context) ([]models.RecurringSetting, error)
	ListDue(ctx context.Context, from, to time.Time) ([]models.RecurringSetting, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

type enrolmentLister interface {
	ListByCourse(ctx context.Context, courseID int64) ([]models.Enrolment, error)
}

type cloner interface {
	Clone(ctx context.Context, setting models.RecurringSetting, course *models.Course) (*models.CourseHandle, error)
}

type reminderGenerator interface {
	Onboard(ctx context.Context, in ReminderInput) (ReminderOutcome, error)
	RemindMigrated(ctx context.Context, in ReminderInput) (ReminderOutcome, error)
}

type cycleObserver interface {
	ObserveCycle(summary models.CycleSummary)
}

type cycleReporter interface {
	Export(summary models.CycleSummary) error
}

// CycleService runs one batch cycle: onboarding reminders for newly
// observed enrolments across every active setting, then clones for the
// settings whose expiry fell inside the due band. Candidates are processed
// sequentially and failures stay local to their candidate.
type CycleService struct {
	settings   settingLister
	courses    courseReader
	enrolments enrolmentLister
	cloner     cloner
	reminders  reminderGenerator
	observer   cycleObserver
	reporter   cycleReporter
	dueBand    time.Duration
	clock      Clock
	logger     *zap.Logger

	mu     sync.Mutex
	latest *models.CycleSummary
}

// NewCycleService constructs CycleService. Observer and reporter are
// optional.
func NewCycleService(settings settingLister, courses courseReader, enrolments enrolmentLister, cl cloner, reminders reminderGenerator, observer cycleObserver, reporter cycleReporter, dueBand time.Duration, clock Clock, logger *zap.Logger) *CycleService {
	if dueBand <= 0 {
		dueBand = 24 * time.Hour
	}
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CycleService{
		settings:   settings,
		courses:    courses,
		enrolments: enrolments,
		cloner:     cl,
		reminders:  reminders,
		observer:   observer,
		reporter:   reporter,
		dueBand:    dueBand,
		clock:      clock,
		logger:     logger,
	}
}

// Run executes one full cycle and returns its summary. A run completes all
// candidates before returning; there is no mid-cycle cancellation beyond
// the passed context.
func (s *CycleService) Run(ctx context.Context) (*models.CycleSummary, error) {
	now := s.clock.Now()
	summary := models.CycleSummary{StartedAt: now}

	if err := s.runOnboarding(ctx, &summary); err != nil {
		return nil, err
	}
	if err := s.runCloneDue(ctx, now, &summary); err != nil {
		return nil, err
	}

	summary.FinishedAt = s.clock.Now()
	s.logger.Info("cycle finished",
		zap.Int("active_settings", summary.ActiveSettings),
		zap.Int("onboarded_users", summary.OnboardedUsers),
		zap.Int("clone_candidates", summary.CloneCandidates),
		zap.Int("clones_succeeded", summary.ClonesSucceeded),
		zap.Int("clones_collided", summary.ClonesCollided),
		zap.Int("clones_failed", summary.ClonesFailed),
		zap.Int("events_emitted", summary.EventsEmitted),
	)

	if s.observer != nil {
		s.observer.ObserveCycle(summary)
	}
	if s.reporter != nil {
		if err := s.reporter.Export(summary); err != nil {
			s.logger.Warn("cycle report export failed", zap.Error(err))
		}
	}

	s.mu.Lock()
	s.latest = &summary
	s.mu.Unlock()
	return &summary, nil
}

// Latest returns the most recent cycle summary, or nil before the first run.
func (s *CycleService) Latest() *models.CycleSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// runOnboarding walks every active setting and onboards enrolled users that
// have no ledger record yet, anchored at their own enrolment instant. Users
// join the template course at different times, so there is no shared
// schedule here.
func (s *CycleService) runOnboarding(ctx context.Context, summary *models.CycleSummary) error {
	active, err := s.settings.ListActive(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "failed to list active settings")
	}
	summary.ActiveSettings = len(active)

	for _, setting := range active {
		course, ok := s.relatedCourse(ctx, setting.CourseID)
		if !ok {
			continue
		}
		enrolments, err := s.enrolments.ListByCourse(ctx, setting.CourseID)
		if err != nil {
			s.logger.Warn("failed to list enrolments", zap.Int64("course_id", setting.CourseID), zap.Error(err))
			continue
		}
		for _, enrolment := range enrolments {
			outcome, err := s.reminders.Onboard(ctx, ReminderInput{
				UserID:          enrolment.UserID,
				CourseID:        setting.CourseID,
				CourseShortName: course.ShortName,
				CourseStart:     enrolment.EnrolledAt,
				Setting:         setting,
			})
			if err != nil {
				s.logger.Warn("onboarding reminders failed",
					zap.Int64("course_id", setting.CourseID),
					zap.Int64("user_id", enrolment.UserID),
					zap.Error(err),
				)
				if appErrors.Is(err, appErrors.ErrConfiguration) {
					// The same setting would fail for every user; move on to
					// the next candidate instead of looping over the error.
					break
				}
				continue
			}
			if outcome.RecordAppended {
				summary.OnboardedUsers++
				summary.RecordsAppended++
			}
			summary.EventsEmitted += outcome.EventsEmitted
		}
	}
	return nil
}

// runCloneDue clones the settings whose expiry fell inside the due band
// (now − band, now]. The band deliberately excludes long-stale rows missed
// by repeated runs; those need operator attention, not surprise clones.
func (s *CycleService) runCloneDue(ctx context.Context, now time.Time, summary *models.CycleSummary) error {
	due, err := s.settings.ListDue(ctx, now.Add(-s.dueBand), now)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "failed to list due settings")
	}
	summary.CloneCandidates = len(due)
	if len(due) == 0 {
		s.logger.Info("no courses due to be cloned")
		return nil
	}

	for _, setting := range due {
		course, ok := s.relatedCourse(ctx, setting.CourseID)
		if !ok {
			continue
		}
		enrolments, err := s.enrolments.ListByCourse(ctx, setting.CourseID)
		if err != nil {
			s.logger.Warn("failed to list enrolments", zap.Int64("course_id", setting.CourseID), zap.Error(err))
			summary.ClonesFailed++
			continue
		}

		handle, err := s.cloner.Clone(ctx, setting, course)
		if err != nil {
			if appErrors.Is(err, appErrors.ErrCollision) {
				summary.ClonesCollided++
			} else {
				summary.ClonesFailed++
			}
			s.logger.Warn("clone failed, candidate skipped",
				zap.Int64("template_course_id", setting.CourseID),
				zap.Error(err),
			)
			continue
		}
		summary.ClonesSucceeded++

		// Migrated enrolments anchor one frequency after their original
		// start: the new course begins when the recurrence period does, not
		// when duplication happened to run.
		shift := time.Duration(setting.CourseFrequency) * time.Second
		for _, enrolment := range enrolments {
			outcome, err := s.reminders.RemindMigrated(ctx, ReminderInput{
				UserID:          enrolment.UserID,
				CourseID:        handle.ID,
				CourseShortName: handle.ShortName,
				CourseStart:     enrolment.EnrolledAt.Add(shift),
				Setting:         setting,
			})
			if err != nil {
				s.logger.Warn("post-clone reminders failed",
					zap.Int64("course_id", handle.ID),
					zap.Int64("user_id", enrolment.UserID),
					zap.Error(err),
				)
				if appErrors.Is(err, appErrors.ErrConfiguration) {
					break
				}
				continue
			}
			if outcome.RecordAppended {
				summary.RecordsAppended++
			}
			summary.EventsEmitted += outcome.EventsEmitted
		}
	}
	return nil
}

// relatedCourse loads the course behind a setting. A missing course means
// there is nothing to do for the candidate, not a failure.
func (s *CycleService) relatedCourse(ctx context.Context, courseID int64) (*models.Course, bool) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Info("no course record for setting", zap.Int64("course_id", courseID))
		} else {
			s.logger.Warn("failed to load course", zap.Int64("course_id", courseID), zap.Error(err))
		}
		return nil, false
	}
	return course, true
}
