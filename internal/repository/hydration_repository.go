package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aquago/aquago-api/internal/models"
)

// HydrationRepository stores intake logs, daily goals and favourite points.
type HydrationRepository struct {
	db *sqlx.DB
}

// NewHydrationRepository creates a new instance of HydrationRepository.
func NewHydrationRepository(db *sqlx.DB) *HydrationRepository {
	return &HydrationRepository{db: db}
}

// CreateIntake inserts an intake entry.
func (r *HydrationRepository) CreateIntake(ctx context.Context, intake *models.WaterIntake) error {
	if intake.ID == "" {
		intake.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if intake.Timestamp.IsZero() {
		intake.Timestamp = now
	}
	intake.CreatedAt = now
	const query = `INSERT INTO water_intakes (id, user_id, amount_ml, timestamp, created_at) VALUES (:id, :user_id, :amount_ml, :timestamp, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, intake); err != nil {
		return fmt.Errorf("create water intake: %w", err)
	}
	return nil
}

// ListIntakes returns a user's intakes newest first. A zero from/to leaves
// that side of the range open.
func (r *HydrationRepository) ListIntakes(ctx context.Context, userID string, from, to time.Time) ([]models.WaterIntake, error) {
	query := `SELECT id, user_id, amount_ml, timestamp, created_at FROM water_intakes WHERE user_id = $1`
	args := []interface{}{userID}
	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(" AND timestamp >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(" AND timestamp < $%d", len(args))
	}
	query += " ORDER BY timestamp DESC"

	var items []models.WaterIntake
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list water intakes: %w", err)
	}
	return items, nil
}

// SumIntake totals a user's intake in [from, to).
func (r *HydrationRepository) SumIntake(ctx context.Context, userID string, from, to time.Time) (int, error) {
	const query = `SELECT COALESCE(SUM(amount_ml), 0) FROM water_intakes WHERE user_id = $1 AND timestamp >= $2 AND timestamp < $3`
	var total int
	if err := r.db.GetContext(ctx, &total, query, userID, from, to); err != nil {
		return 0, fmt.Errorf("sum water intake: %w", err)
	}
	return total, nil
}

// ActiveGoal returns the user's active goal or sql.ErrNoRows.
func (r *HydrationRepository) ActiveGoal(ctx context.Context, userID string) (*models.WaterGoal, error) {
	const query = `SELECT id, user_id, daily_goal_ml, active, created_at, updated_at FROM water_goals WHERE user_id = $1 AND active = TRUE ORDER BY created_at DESC LIMIT 1`
	var goal models.WaterGoal
	if err := r.db.GetContext(ctx, &goal, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find active goal: %w", err)
	}
	return &goal, nil
}

// ReplaceGoal deactivates the user's current goals and inserts goal as the
// active one.
func (r *HydrationRepository) ReplaceGoal(ctx context.Context, goal *models.WaterGoal) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin goal transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const deactivate = `UPDATE water_goals SET active = FALSE, updated_at = $1 WHERE user_id = $2 AND active = TRUE`
	if _, err = tx.ExecContext(ctx, deactivate, now, goal.UserID); err != nil {
		return fmt.Errorf("deactivate goals: %w", err)
	}

	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	goal.Active = true
	goal.CreatedAt = now
	goal.UpdatedAt = now
	const insert = `INSERT INTO water_goals (id, user_id, daily_goal_ml, active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err = tx.ExecContext(ctx, insert, goal.ID, goal.UserID, goal.DailyGoalML, goal.Active, goal.CreatedAt, goal.UpdatedAt); err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit goal transaction: %w", err)
	}
	return nil
}

type favoriteRow struct {
	ID        string    `db:"favorite_id"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"favorite_created_at"`
	waterPointRow
}

// ListFavorites returns the user's favourites with their points.
func (r *HydrationRepository) ListFavorites(ctx context.Context, userID string) ([]models.FavoritePoint, error) {
	const query = `SELECT f.id AS favorite_id, f.user_id, f.created_at AS favorite_created_at,
p.id, p.name, p.type, p.status, p.lat, p.lng, p.address, p.rating, p.opening_hours, p.last_maintenance_date, p.created_at, p.updated_at
FROM favorite_points f JOIN water_points p ON p.id = f.point_id
WHERE f.user_id = $1 ORDER BY f.created_at DESC`
	var rows []favoriteRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	favorites := make([]models.FavoritePoint, 0, len(rows))
	for _, row := range rows {
		point := row.waterPointRow.toModel()
		favorites = append(favorites, models.FavoritePoint{
			ID:        row.ID,
			UserID:    row.UserID,
			PointID:   point.ID,
			CreatedAt: row.CreatedAt,
			Point:     &point,
		})
	}
	return favorites, nil
}

// AddFavorite bookmarks a point. A repeated pair yields ErrDuplicateKey.
func (r *HydrationRepository) AddFavorite(ctx context.Context, fav *models.FavoritePoint) error {
	if fav.ID == "" {
		fav.ID = uuid.NewString()
	}
	fav.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO favorite_points (id, user_id, point_id, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, fav.ID, fav.UserID, fav.PointID, fav.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite deletes a bookmark. Removing an absent one is not an error.
func (r *HydrationRepository) RemoveFavorite(ctx context.Context, userID, pointID string) error {
	const query = `DELETE FROM favorite_points WHERE user_id = $1 AND point_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, pointID); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}
