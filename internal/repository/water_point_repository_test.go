package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquago/aquago-api/internal/models"
)

var pointRowColumns = []string{"id", "name", "type", "status", "lat", "lng", "address", "rating", "opening_hours", "last_maintenance_date", "created_at", "updated_at"}

func pointRows(id string, rating float64) *sqlmock.Rows {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(pointRowColumns).
		AddRow(id, "Plaza fountain", "fountain", "active", -23.55, -46.63, "Praça da Sé", rating, "24/7", nil, now, now)
}

func TestWaterPointFindByCoordinates(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewWaterPointRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM water_points WHERE lat = $1 AND lng = $2 LIMIT 1")).
		WithArgs(-23.55, -46.63).
		WillReturnRows(pointRows("p1", 3.0))

	point, err := repo.FindByCoordinates(context.Background(), -23.55, -46.63)
	require.NoError(t, err)
	assert.Equal(t, "p1", point.ID)
	assert.Equal(t, models.Coordinates{Lat: -23.55, Lng: -46.63}, point.Coordinates)
	assert.Equal(t, "fountain", point.Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaterPointCreateStoresEmptyTypeAsNull(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewWaterPointRepository(db)

	mock.ExpectExec("INSERT INTO water_points").
		WithArgs(sqlmock.AnyArg(), "Tap", nil, "active", 1.5, 2.5, "", 3.0, "24/7", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	point := &models.WaterPoint{
		Name:         "Tap",
		Status:       models.PointStatusActive,
		Coordinates:  models.Coordinates{Lat: 1.5, Lng: 2.5},
		Rating:       models.DefaultPointRating,
		OpeningHours: models.DefaultPointOpeningHours,
	}
	require.NoError(t, repo.Create(context.Background(), point))
	assert.NotEmpty(t, point.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaterPointCreateDuplicateCoordinates(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewWaterPointRepository(db)

	mock.ExpectExec("INSERT INTO water_points").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_water_points_coordinates"})

	err := repo.Create(context.Background(), &models.WaterPoint{
		Name:        "Tap",
		Status:      models.PointStatusActive,
		Coordinates: models.Coordinates{Lat: 1.5, Lng: 2.5},
	})
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaterPointDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewWaterPointRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM water_points WHERE id = $1")).
		WithArgs("nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "nope"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecomputeRatingPersistsBlend(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewWaterPointRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM water_points WHERE id = $1 FOR UPDATE")).
		WithArgs("p1").
		WillReturnRows(pointRows("p1", 3.0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT rating FROM feedback WHERE point_id = $1")).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"rating"}).AddRow(4).AddRow(5))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE water_points SET rating = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(4.0, sqlmock.AnyArg(), "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var gotPrior float64
	var gotRatings []int
	point, err := repo.RecomputeRating(context.Background(), "p1", func(prior float64, ratings []int) float64 {
		gotPrior, gotRatings = prior, ratings
		return 4.0
	})
	require.NoError(t, err)
	assert.Equal(t, 3.0, gotPrior)
	assert.Equal(t, []int{4, 5}, gotRatings)
	assert.Equal(t, 4.0, point.Rating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecomputeRatingSkipsWriteWhenUnchanged(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewWaterPointRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs("p1").WillReturnRows(pointRows("p1", 3.5))
	mock.ExpectQuery("SELECT rating FROM feedback").WithArgs("p1").WillReturnRows(sqlmock.NewRows([]string{"rating"}))
	mock.ExpectCommit()

	point, err := repo.RecomputeRating(context.Background(), "p1", func(prior float64, _ []int) float64 { return prior })
	require.NoError(t, err)
	assert.Equal(t, 3.5, point.Rating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecomputeRatingMissingPointRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewWaterPointRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs("gone").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.RecomputeRating(context.Background(), "gone", func(prior float64, _ []int) float64 { return prior })
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecomputeRatingUpdateFailureRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewWaterPointRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs("p1").WillReturnRows(pointRows("p1", 3.0))
	mock.ExpectQuery("SELECT rating FROM feedback").WithArgs("p1").WillReturnRows(sqlmock.NewRows([]string{"rating"}).AddRow(1))
	mock.ExpectExec("UPDATE water_points SET rating").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.RecomputeRating(context.Background(), "p1", func(float64, []int) float64 { return 2.0 })
	assert.ErrorContains(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}
