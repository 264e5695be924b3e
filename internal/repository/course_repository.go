package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-recur/internal/models"
)

// CourseRepository reads the LMS course table and renormalises ordering
// after clones land.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	const query = `SELECT id, category_id, full_name, short_name, visible, sort_order, created_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// MaxID returns the highest course id. The next clone suffix is MaxID()+1.
func (r *CourseRepository) MaxID(ctx context.Context) (int64, error) {
	const query = `SELECT COALESCE(MAX(id), 0) FROM courses`
	var max int64
	if err := r.db.GetContext(ctx, &max, query); err != nil {
		return 0, fmt.Errorf("max course id: %w", err)
	}
	return max, nil
}

// ShortNameExists reports whether a course already uses the short name.
func (r *CourseRepository) ShortNameExists(ctx context.Context, shortName string) (bool, error) {
	const query = `SELECT 1 FROM courses WHERE short_name = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, shortName); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check short name: %w", err)
	}
	return true, nil
}

// ResequenceSortOrder renumbers course sort order within each category.
// Finalisation step after a clone; the exact ordering carries no contract.
func (r *CourseRepository) ResequenceSortOrder(ctx context.Context) error {
	const query = `UPDATE courses c SET sort_order = ranked.rn
        FROM (SELECT id, ROW_NUMBER() OVER (PARTITION BY category_id ORDER BY sort_order, id) AS rn FROM courses) ranked
        WHERE c.id = ranked.id`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("resequence course sort order: %w", err)
	}
	return nil
}
