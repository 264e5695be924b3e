package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestCourseRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseRepository(db)
	rows := sqlmock.NewRows([]string{"id", "category_id", "full_name", "short_name", "visible", "sort_order", "created_at"}).
		AddRow(12, 3, "Biology#12", "BIO#12", true, 4, time.Now())
	mock.ExpectQuery("SELECT id, category_id").
		WithArgs(int64(12)).
		WillReturnRows(rows)

	course, err := repo.FindByID(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, "BIO#12", course.ShortName)
	assert.Equal(t, int64(3), course.CategoryID)
}

func TestCourseRepositoryMaxID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseRepository(db)
	mock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(30))

	max, err := repo.MaxID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(30), max)
}

func TestCourseRepositoryMaxIDEmptyTable(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseRepository(db)
	mock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

	max, err := repo.MaxID(context.Background())
	require.NoError(t, err)
	assert.Zero(t, max)
}

func TestCourseRepositoryShortNameExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseRepository(db)
	mock.ExpectQuery("SELECT 1 FROM courses").
		WithArgs("BIO#31").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ShortNameExists(context.Background(), "BIO#31")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCourseRepositoryShortNameMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseRepository(db)
	mock.ExpectQuery("SELECT 1 FROM courses").
		WithArgs("BIO#99").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ShortNameExists(context.Background(), "BIO#99")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCourseRepositoryResequenceSortOrder(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseRepository(db)
	mock.ExpectExec("UPDATE courses c SET sort_order").
		WillReturnResult(sqlmock.NewResult(0, 31))

	require.NoError(t, repo.ResequenceSortOrder(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
