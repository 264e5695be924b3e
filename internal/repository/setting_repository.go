package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-recur/internal/models"
)

const settingColumns = `id, course_id, recurring, template, parent,
        course_dur_qty, course_dur_unit, course_duration,
        course_freq_qty, course_freq_unit, course_frequency,
        expires_at,
        start_reminder, start_rem_window_qty, start_rem_window_unit, start_rem_window,
        start_rem_repeat, start_rem_interval_qty, start_rem_interval_unit, start_rem_interval,
        end_reminder, end_rem_window_qty, end_rem_window_unit, end_rem_window,
        end_rem_repeat, end_rem_interval_qty, end_rem_interval_unit, end_rem_interval,
        created_at, updated_at`

const settingInsert = `INSERT INTO recurring_settings (course_id, recurring, template, parent,
        course_dur_qty, course_dur_unit, course_duration,
        course_freq_qty, course_freq_unit, course_frequency,
        expires_at,
        start_reminder, start_rem_window_qty, start_rem_window_unit, start_rem_window,
        start_rem_repeat, start_rem_interval_qty, start_rem_interval_unit, start_rem_interval,
        end_reminder, end_rem_window_qty, end_rem_window_unit, end_rem_window,
        end_rem_repeat, end_rem_interval_qty, end_rem_interval_unit, end_rem_interval,
        created_at, updated_at)
        VALUES (:course_id, :recurring, :template, :parent,
        :course_dur_qty, :course_dur_unit, :course_duration,
        :course_freq_qty, :course_freq_unit, :course_frequency,
        :expires_at,
        :start_reminder, :start_rem_window_qty, :start_rem_window_unit, :start_rem_window,
        :start_rem_repeat, :start_rem_interval_qty, :start_rem_interval_unit, :start_rem_interval,
        :end_reminder, :end_rem_window_qty, :end_rem_window_unit, :end_rem_window,
        :end_rem_repeat, :end_rem_interval_qty, :end_rem_interval_unit, :end_rem_interval,
        :created_at, :updated_at)`

// SettingRepository handles persistence of recurring course settings.
type SettingRepository struct {
	db *sqlx.DB
}

// NewSettingRepository constructs the repository.
func NewSettingRepository(db *sqlx.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// FindByCourseID returns the setting row for a course.
func (r *SettingRepository) FindByCourseID(ctx context.Context, courseID int64) (*models.RecurringSetting, error) {
	query := fmt.Sprintf(`SELECT %s FROM recurring_settings WHERE course_id = $1`, settingColumns)
	var setting models.RecurringSetting
	if err := r.db.GetContext(ctx, &setting, query, courseID); err != nil {
		return nil, err
	}
	return &setting, nil
}

// ListActive returns every setting still marked recurring.
func (r *SettingRepository) ListActive(ctx context.Context) ([]models.RecurringSetting, error) {
	query := fmt.Sprintf(`SELECT %s FROM recurring_settings WHERE recurring ORDER BY course_id`, settingColumns)
	var settings []models.RecurringSetting
	if err := r.db.SelectContext(ctx, &settings, query); err != nil {
		return nil, fmt.Errorf("list active settings: %w", err)
	}
	return settings, nil
}

// ListDue returns active settings whose expiry falls inside the half-open
// due band (from, to]. Long-stale rows outside the band are deliberately
// left alone.
func (r *SettingRepository) ListDue(ctx context.Context, from, to time.Time) ([]models.RecurringSetting, error) {
	query := fmt.Sprintf(`SELECT %s FROM recurring_settings WHERE recurring AND expires_at > $1 AND expires_at <= $2 ORDER BY expires_at`, settingColumns)
	var settings []models.RecurringSetting
	if err := r.db.SelectContext(ctx, &settings, query, from, to); err != nil {
		return nil, fmt.Errorf("list due settings: %w", err)
	}
	return settings, nil
}

// Insert persists a new setting row.
func (r *SettingRepository) Insert(ctx context.Context, setting *models.RecurringSetting) error {
	now := time.Now().UTC()
	if setting.CreatedAt.IsZero() {
		setting.CreatedAt = now
	}
	setting.UpdatedAt = now
	if _, err := r.db.NamedExecContext(ctx, settingInsert, setting); err != nil {
		return fmt.Errorf("insert setting: %w", err)
	}
	return nil
}

// Update rewrites a setting row keyed by course id.
func (r *SettingRepository) Update(ctx context.Context, setting *models.RecurringSetting) error {
	setting.UpdatedAt = time.Now().UTC()
	const query = `UPDATE recurring_settings SET recurring = :recurring, template = :template, parent = :parent,
        course_dur_qty = :course_dur_qty, course_dur_unit = :course_dur_unit, course_duration = :course_duration,
        course_freq_qty = :course_freq_qty, course_freq_unit = :course_freq_unit, course_frequency = :course_frequency,
        expires_at = :expires_at,
        start_reminder = :start_reminder, start_rem_window_qty = :start_rem_window_qty, start_rem_window_unit = :start_rem_window_unit, start_rem_window = :start_rem_window,
        start_rem_repeat = :start_rem_repeat, start_rem_interval_qty = :start_rem_interval_qty, start_rem_interval_unit = :start_rem_interval_unit, start_rem_interval = :start_rem_interval,
        end_reminder = :end_reminder, end_rem_window_qty = :end_rem_window_qty, end_rem_window_unit = :end_rem_window_unit, end_rem_window = :end_rem_window,
        end_rem_repeat = :end_rem_repeat, end_rem_interval_qty = :end_rem_interval_qty, end_rem_interval_unit = :end_rem_interval_unit, end_rem_interval = :end_rem_interval,
        updated_at = :updated_at
        WHERE course_id = :course_id`
	if _, err := r.db.NamedExecContext(ctx, query, setting); err != nil {
		return fmt.Errorf("update setting: %w", err)
	}
	return nil
}

// ChainSuccessor inserts the successor setting and flips the predecessor to
// historical in one transaction. A partial write would leave the due set
// inconsistent on the next cycle.
func (r *SettingRepository) ChainSuccessor(ctx context.Context, successor *models.RecurringSetting, predecessorCourseID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin successor chain: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	if successor.CreatedAt.IsZero() {
		successor.CreatedAt = now
	}
	successor.UpdatedAt = now
	if _, err := tx.NamedExecContext(ctx, settingInsert, successor); err != nil {
		return fmt.Errorf("insert successor setting: %w", err)
	}

	const flip = `UPDATE recurring_settings SET recurring = FALSE, updated_at = $2 WHERE course_id = $1`
	if _, err := tx.ExecContext(ctx, flip, predecessorCourseID, now); err != nil {
		return fmt.Errorf("flip predecessor setting: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit successor chain: %w", err)
	}
	return nil
}
