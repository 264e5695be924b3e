package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-recur/internal/models"
	appErrors "github.com/noah-isme/lms-recur/pkg/errors"
)

type clockStub struct{ now time.Time }

func (c clockStub) Now() time.Time { return c.now }

type settingListerStub struct {
	active []models.RecurringSetting
	due    []models.RecurringSetting

	dueFrom, dueTo time.Time
}

func (s *settingListerStub) ListActive(ctx context.Context) ([]models.RecurringSetting, error) {
	return s.active, nil
}

func (s *settingListerStub) ListDue(ctx context.Context, from, to time.Time) ([]models.RecurringSetting, error) {
	s.dueFrom, s.dueTo = from, to
	return s.due, nil
}

type courseReaderStub struct {
	courses map[int64]models.Course
}

func (s *courseReaderStub) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	if course, ok := s.courses[id]; ok {
		return &course, nil
	}
	return nil, sql.ErrNoRows
}

type enrolmentListerStub struct {
	byCourse map[int64][]models.Enrolment
}

func (s *enrolmentListerStub) ListByCourse(ctx context.Context, courseID int64) ([]models.Enrolment, error) {
	return s.byCourse[courseID], nil
}

type clonerStub struct {
	handle *models.CourseHandle
	err    error
	calls  int
}

func (s *clonerStub) Clone(ctx context.Context, setting models.RecurringSetting, course *models.Course) (*models.CourseHandle, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.handle, nil
}

func cycleFixture() (models.RecurringSetting, models.Course) {
	setting := models.RecurringSetting{
		ID:              5,
		CourseID:        12,
		Recurring:       true,
		Template:        12,
		CourseDuration:  DurationSeconds(12, models.UnitWeeks),
		CourseFrequency: DurationSeconds(1, models.UnitYears),
		ExpiresAt:       time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		StartReminder:   true,
		StartRemWindow:  DurationSeconds(7, models.UnitDays),
		StartRemRepeat:  models.RepeatOnce,
	}
	course := models.Course{ID: 12, CategoryID: 3, FullName: "Biology#12", ShortName: "BIO#12"}
	return setting, course
}

func TestRunDueBandBounds(t *testing.T) {
	now := time.Date(2026, 8, 31, 2, 0, 0, 0, time.UTC)
	lister := &settingListerStub{}
	svc := NewCycleService(lister, &courseReaderStub{}, &enrolmentListerStub{}, &clonerStub{}, NewReminderService(&ledgerStub{}, nil, nil, ""), nil, nil, 24*time.Hour, clockStub{now}, nil)

	_, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, now, lister.dueTo)
	assert.Equal(t, now.Add(-24*time.Hour), lister.dueFrom)
}

func TestRunOnboardsEnrolledUsers(t *testing.T) {
	setting, course := cycleFixture()
	now := time.Date(2026, 8, 31, 2, 0, 0, 0, time.UTC)

	ledger := &ledgerStub{existing: map[[2]int64]bool{{7, 12}: true}}
	svc := NewCycleService(
		&settingListerStub{active: []models.RecurringSetting{setting}},
		&courseReaderStub{courses: map[int64]models.Course{12: course}},
		&enrolmentListerStub{byCourse: map[int64][]models.Enrolment{12: {
			{CourseID: 12, UserID: 7, EnrolledAt: now.Add(-48 * time.Hour)},
			{CourseID: 12, UserID: 8, EnrolledAt: now.Add(-1 * time.Hour)},
		}}},
		&clonerStub{},
		NewReminderService(ledger, nil, nil, ""),
		nil, nil, 24*time.Hour, clockStub{now}, nil,
	)

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ActiveSettings)
	assert.Equal(t, 1, summary.OnboardedUsers, "user 7 is already in the ledger")
	assert.Equal(t, 1, summary.EventsEmitted)
	require.Len(t, ledger.records, 1)
	assert.Equal(t, int64(8), ledger.records[0].UserID)
}

func TestRunCloneSuccessMigratesReminders(t *testing.T) {
	setting, course := cycleFixture()
	now := time.Date(2026, 8, 31, 2, 0, 0, 0, time.UTC)
	enrolledAt := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)

	ledger := &ledgerStub{}
	cl := &clonerStub{handle: &models.CourseHandle{ID: 31, ShortName: "BIO#31"}}
	svc := NewCycleService(
		&settingListerStub{due: []models.RecurringSetting{setting}},
		&courseReaderStub{courses: map[int64]models.Course{12: course}},
		&enrolmentListerStub{byCourse: map[int64][]models.Enrolment{12: {
			{CourseID: 12, UserID: 7, EnrolledAt: enrolledAt},
		}}},
		cl,
		NewReminderService(ledger, nil, nil, ""),
		nil, nil, 24*time.Hour, clockStub{now}, nil,
	)

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.CloneCandidates)
	assert.Equal(t, 1, summary.ClonesSucceeded)
	assert.Equal(t, 1, summary.RecordsAppended)
	assert.Equal(t, 1, summary.EventsEmitted)

	// The migrated user's next run starts one frequency after the original
	// enrolment; the single start reminder fires one window before that.
	newStart := enrolledAt.Add(time.Duration(setting.CourseFrequency) * time.Second)
	require.Len(t, ledger.records, 1)
	assert.Equal(t, int64(31), ledger.records[0].CourseID)
	assert.Equal(t, newStart, ledger.records[0].CourseStart)
	require.Len(t, ledger.events, 1)
	assert.Equal(t, newStart.Add(-7*24*time.Hour), ledger.events[0].FireAt)
}

func TestRunCountsCollisionsSeparately(t *testing.T) {
	setting, course := cycleFixture()
	now := time.Date(2026, 8, 31, 2, 0, 0, 0, time.UTC)

	cl := &clonerStub{err: appErrors.Clone(appErrors.ErrCollision, "short name taken")}
	svc := NewCycleService(
		&settingListerStub{due: []models.RecurringSetting{setting}},
		&courseReaderStub{courses: map[int64]models.Course{12: course}},
		&enrolmentListerStub{byCourse: map[int64][]models.Enrolment{12: {{CourseID: 12, UserID: 7, EnrolledAt: now}}}},
		cl,
		NewReminderService(&ledgerStub{}, nil, nil, ""),
		nil, nil, 24*time.Hour, clockStub{now}, nil,
	)

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ClonesCollided)
	assert.Zero(t, summary.ClonesFailed)
	assert.Zero(t, summary.ClonesSucceeded)
}

func TestRunSkipsSettingWithoutCourse(t *testing.T) {
	setting, _ := cycleFixture()
	now := time.Date(2026, 8, 31, 2, 0, 0, 0, time.UTC)

	cl := &clonerStub{}
	svc := NewCycleService(
		&settingListerStub{active: []models.RecurringSetting{setting}, due: []models.RecurringSetting{setting}},
		&courseReaderStub{},
		&enrolmentListerStub{},
		cl,
		NewReminderService(&ledgerStub{}, nil, nil, ""),
		nil, nil, 24*time.Hour, clockStub{now}, nil,
	)

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, cl.calls)
	assert.Zero(t, summary.OnboardedUsers)
}

func TestLatestTracksMostRecentRun(t *testing.T) {
	now := time.Date(2026, 8, 31, 2, 0, 0, 0, time.UTC)
	svc := NewCycleService(&settingListerStub{}, &courseReaderStub{}, &enrolmentListerStub{}, &clonerStub{}, NewReminderService(&ledgerStub{}, nil, nil, ""), nil, nil, 24*time.Hour, clockStub{now}, nil)

	assert.Nil(t, svc.Latest())
	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, summary, svc.Latest())
}
