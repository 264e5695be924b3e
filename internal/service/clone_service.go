package service

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-recur/internal/models"
	appErrors "github.com/noah-isme/lms-recur/pkg/errors"
)

type courseStore interface {
	MaxID(ctx context.Context) (int64, error)
	ShortNameExists(ctx context.Context, shortName string) (bool, error)
	ResequenceSortOrder(ctx context.Context) error
}

type settingChainer interface {
	ChainSuccessor(ctx context.Context, successor *models.RecurringSetting, predecessorCourseID int64) error
}

type enrolmentMigrator interface {
	ShiftEnrolledAt(ctx context.Context, oldCourseID, newCourseID, shiftSeconds int64) error
}

type courseDuplicator interface {
	Duplicate(ctx context.Context, sourceCourseID int64, fullName, shortName string, categoryID int64, visible bool, opts models.CloneOptions) (*models.CourseHandle, error)
}

type nameLocker interface {
	Acquire(ctx context.Context, templateCourseID int64) (release func(), ok bool, err error)
}

// CloneService produces a fresh course instance from a due template:
// naming, duplication, enrolment migration and the successor settings
// chain. It is stateless; one Clone call handles one candidate.
type CloneService struct {
	courses    courseStore
	settings   settingChainer
	enrolments enrolmentMigrator
	duplicator courseDuplicator
	lock       nameLocker
	options    models.CloneOptions
	visible    bool
	logger     *zap.Logger
}

// NewCloneService constructs CloneService.
func NewCloneService(courses courseStore, settings settingChainer, enrolments enrolmentMigrator, duplicator courseDuplicator, lock nameLocker, options models.CloneOptions, visible bool, logger *zap.Logger) *CloneService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CloneService{
		courses:    courses,
		settings:   settings,
		enrolments: enrolments,
		duplicator: duplicator,
		lock:       lock,
		options:    options,
		visible:    visible,
		logger:     logger,
	}
}

// Clone clones the template behind setting into a new course. On a short
// name collision it aborts before anything is duplicated or written; the
// predecessor setting stays active and due, so the next cycle retries.
func (s *CloneService) Clone(ctx context.Context, setting models.RecurringSetting, course *models.Course) (*models.CourseHandle, error) {
	release, ok, err := s.lock.Acquire(ctx, setting.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "failed to reserve clone naming")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrCollision, "another run is cloning this template")
	}
	defer release()

	maxID, err := s.courses.MaxID(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "failed to read course ids")
	}
	suffix := strconv.FormatInt(maxID+1, 10)
	newFullName := NextName(course.FullName, suffix)
	newShortName := NextName(course.ShortName, suffix)

	taken, err := s.courses.ShortNameExists(ctx, newShortName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "failed to check short name")
	}
	if taken {
		s.logger.Warn("short name collision, clone aborted",
			zap.Int64("template_course_id", setting.CourseID),
			zap.String("short_name", newShortName),
		)
		return nil, appErrors.Clone(appErrors.ErrCollision, "short name "+newShortName+" already in use")
	}

	handle, err := s.duplicator.Duplicate(ctx, setting.CourseID, newFullName, newShortName, course.CategoryID, s.visible, s.options)
	if err != nil {
		return nil, err
	}
	s.logger.Info("course cloned",
		zap.Int64("template_course_id", setting.CourseID),
		zap.Int64("new_course_id", handle.ID),
		zap.String("short_name", handle.ShortName),
	)

	if err := s.courses.ResequenceSortOrder(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "failed to resequence course order")
	}

	if err := s.enrolments.ShiftEnrolledAt(ctx, setting.CourseID, handle.ID, setting.CourseFrequency); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "failed to migrate enrolment timestamps")
	}

	successor := deriveSuccessor(setting, handle.ID)
	if err := s.settings.ChainSuccessor(ctx, &successor, setting.CourseID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "failed to chain successor setting")
	}

	return handle, nil
}

// deriveSuccessor copies the recurrence policy onto the new course. The
// expiry advances by exactly one clone frequency; the parent pointer makes
// the predecessor chain walkable back to the original template.
func deriveSuccessor(setting models.RecurringSetting, newCourseID int64) models.RecurringSetting {
	successor := setting
	successor.ID = 0
	successor.CourseID = newCourseID
	successor.Recurring = true
	successor.ExpiresAt = setting.ExpiresAt.Add(time.Duration(setting.CourseFrequency) * time.Second)
	successor.Parent = sql.NullInt64{Int64: setting.CourseID, Valid: true}
	successor.CreatedAt = time.Time{}
	successor.UpdatedAt = time.Time{}
	return successor
}
