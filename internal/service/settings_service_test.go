package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-recur/internal/models"
)

type settingStoreStub struct {
	existing *models.RecurringSetting
	inserted *models.RecurringSetting
	updated  *models.RecurringSetting
}

func (s *settingStoreStub) FindByCourseID(ctx context.Context, courseID int64) (*models.RecurringSetting, error) {
	if s.existing == nil {
		return nil, sql.ErrNoRows
	}
	return s.existing, nil
}

func (s *settingStoreStub) Insert(ctx context.Context, setting *models.RecurringSetting) error {
	s.inserted = setting
	return nil
}

func (s *settingStoreStub) Update(ctx context.Context, setting *models.RecurringSetting) error {
	s.updated = setting
	return nil
}

func TestSaveDeductsStartWindowFromExpiry(t *testing.T) {
	store := &settingStoreStub{}
	svc := NewSettingsService(store, nil, nil)

	expires := time.Date(2027, 8, 30, 0, 0, 0, 0, time.UTC)
	setting, err := svc.Save(context.Background(), SettingsForm{
		CourseID:           12,
		Recurring:          true,
		CourseDurQty:       12,
		CourseDurUnit:      models.UnitWeeks,
		CourseFreqQty:      1,
		CourseFreqUnit:     models.UnitYears,
		ExpiresAt:          expires,
		StartReminder:      true,
		StartRemWindowQty:  7,
		StartRemWindowUnit: models.UnitDays,
		StartRemRepeat:     models.RepeatOnce,
	})
	require.NoError(t, err)
	require.NotNil(t, store.inserted)

	assert.Equal(t, DurationSeconds(12, models.UnitWeeks), setting.CourseDuration)
	assert.Equal(t, DurationSeconds(1, models.UnitYears), setting.CourseFrequency)
	// Reminding must be able to start before the clone lands, so the stored
	// expiry moves earlier by the reminder window.
	assert.Equal(t, expires.Add(-7*24*time.Hour), setting.ExpiresAt)
	assert.Equal(t, int64(12), setting.Template)
}

func TestSaveNonRecurringIgnoresOtherFields(t *testing.T) {
	store := &settingStoreStub{}
	svc := NewSettingsService(store, nil, nil)

	setting, err := svc.Save(context.Background(), SettingsForm{
		CourseID:      12,
		Recurring:     false,
		CourseDurQty:  12,
		CourseDurUnit: models.UnitWeeks,
		StartReminder: true,
	})
	require.NoError(t, err)

	assert.False(t, setting.Recurring)
	assert.Zero(t, setting.CourseDuration)
	assert.False(t, setting.StartReminder)
	assert.True(t, setting.ExpiresAt.IsZero())
}

func TestSaveUpdatesExistingRow(t *testing.T) {
	created := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	store := &settingStoreStub{existing: &models.RecurringSetting{ID: 9, CourseID: 12, CreatedAt: created}}
	svc := NewSettingsService(store, nil, nil)

	setting, err := svc.Save(context.Background(), SettingsForm{
		CourseID:       12,
		Recurring:      true,
		CourseDurQty:   4,
		CourseDurUnit:  models.UnitWeeks,
		CourseFreqQty:  6,
		CourseFreqUnit: models.UnitMonths,
		ExpiresAt:      time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NotNil(t, store.updated)
	assert.Nil(t, store.inserted)
	assert.Equal(t, int64(9), setting.ID)
	assert.Equal(t, created, setting.CreatedAt)
}

func TestSaveRejectsUnknownUnit(t *testing.T) {
	svc := NewSettingsService(&settingStoreStub{}, nil, nil)
	_, err := svc.Save(context.Background(), SettingsForm{
		CourseID:      12,
		Recurring:     true,
		CourseDurQty:  1,
		CourseDurUnit: models.DurationUnit("decades"),
	})
	require.Error(t, err)
}

func TestDefaults(t *testing.T) {
	svc := NewSettingsService(&settingStoreStub{}, nil, nil)
	setting := svc.Defaults(12)

	assert.Equal(t, int64(12), setting.CourseID)
	assert.True(t, setting.Recurring)
	assert.Equal(t, int64(12), setting.Template)
	assert.Equal(t, DurationSeconds(1, models.UnitYears), setting.CourseFrequency)
}
