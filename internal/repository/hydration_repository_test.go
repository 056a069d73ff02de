package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquago/aquago-api/internal/models"
)

func TestSumIntake(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHydrationRepository(db)

	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(amount_ml), 0) FROM water_intakes")).
		WithArgs("u1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(1750))

	total, err := repo.SumIntake(context.Background(), "u1", from, to)
	require.NoError(t, err)
	assert.Equal(t, 1750, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListIntakesWithRange(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHydrationRepository(db)

	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	rows := sqlmock.NewRows([]string{"id", "user_id", "amount_ml", "timestamp", "created_at"}).
		AddRow("i1", "u1", 250, from.Add(8*time.Hour), from.Add(8*time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND timestamp >= $2 AND timestamp < $3 ORDER BY timestamp DESC")).
		WithArgs("u1", from, to).
		WillReturnRows(rows)

	items, err := repo.ListIntakes(context.Background(), "u1", from, to)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 250, items[0].AmountML)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceGoalDeactivatesPrevious(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHydrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE water_goals SET active = FALSE")).
		WithArgs(sqlmock.AnyArg(), "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO water_goals").
		WithArgs(sqlmock.AnyArg(), "u1", 2500, true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	goal := &models.WaterGoal{UserID: "u1", DailyGoalML: 2500}
	require.NoError(t, repo.ReplaceGoal(context.Background(), goal))
	assert.True(t, goal.Active)
	assert.NotEmpty(t, goal.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveGoalMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHydrationRepository(db)

	mock.ExpectQuery("FROM water_goals WHERE user_id = \\$1 AND active = TRUE").
		WithArgs("u1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.ActiveGoal(context.Background(), "u1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddFavoriteDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHydrationRepository(db)

	mock.ExpectExec("INSERT INTO favorite_points").
		WithArgs(sqlmock.AnyArg(), "u1", "p1", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.AddFavorite(context.Background(), &models.FavoritePoint{UserID: "u1", PointID: "p1"})
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListFavoritesJoinsPoints(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHydrationRepository(db)

	now := time.Now()
	cols := append([]string{"favorite_id", "user_id", "favorite_created_at"}, pointRowColumns...)
	rows := sqlmock.NewRows(cols).
		AddRow("fav1", "u1", now, "p1", "Plaza fountain", "fountain", "active", 1.0, 2.0, "", 4.2, "24/7", nil, now, now)
	mock.ExpectQuery("FROM favorite_points f JOIN water_points p").WithArgs("u1").WillReturnRows(rows)

	favs, err := repo.ListFavorites(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, "fav1", favs[0].ID)
	assert.Equal(t, "p1", favs[0].PointID)
	require.NotNil(t, favs[0].Point)
	assert.Equal(t, 4.2, favs[0].Point.Rating)
	assert.NoError(t, mock.ExpectationsWereMet())
}
