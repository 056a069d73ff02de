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
	"github.com/aquago/aquago-api/pkg/geo"
)

const waterPointColumns = `id, name, type, status, lat, lng, address, rating, opening_hours, last_maintenance_date, created_at, updated_at`

type waterPointRow struct {
	ID                  string     `db:"id"`
	Name                string     `db:"name"`
	Type                *string    `db:"type"`
	Status              string     `db:"status"`
	Lat                 float64    `db:"lat"`
	Lng                 float64    `db:"lng"`
	Address             string     `db:"address"`
	Rating              float64    `db:"rating"`
	OpeningHours        string     `db:"opening_hours"`
	LastMaintenanceDate *time.Time `db:"last_maintenance_date"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

func (r waterPointRow) toModel() models.WaterPoint {
	point := models.WaterPoint{
		ID:                  r.ID,
		Name:                r.Name,
		Status:              r.Status,
		Coordinates:         models.Coordinates{Lat: r.Lat, Lng: r.Lng},
		Address:             r.Address,
		Rating:              r.Rating,
		OpeningHours:        r.OpeningHours,
		LastMaintenanceDate: r.LastMaintenanceDate,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
	if r.Type != nil {
		point.Type = *r.Type
	}
	return point
}

func nullableString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// RatingBlender computes a point's new rating from its stored rating and
// the ratings of every feedback entry on it.
type RatingBlender func(prior float64, ratings []int) float64

// WaterPointRepository provides database access for water points.
type WaterPointRepository struct {
	db *sqlx.DB
}

// NewWaterPointRepository creates a new instance of WaterPointRepository.
func NewWaterPointRepository(db *sqlx.DB) *WaterPointRepository {
	return &WaterPointRepository{db: db}
}

// Create inserts a point, filling id and timestamps. Taken coordinates
// yield ErrDuplicateKey.
func (r *WaterPointRepository) Create(ctx context.Context, point *models.WaterPoint) error {
	if point.ID == "" {
		point.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	point.CreatedAt = now
	point.UpdatedAt = now

	const query = `INSERT INTO water_points (id, name, type, status, lat, lng, address, rating, opening_hours, last_maintenance_date, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	if _, err := r.db.ExecContext(ctx, query,
		point.ID, point.Name, nullableString(point.Type), point.Status,
		point.Coordinates.Lat, point.Coordinates.Lng, point.Address, point.Rating,
		point.OpeningHours, point.LastMaintenanceDate, point.CreatedAt, point.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create water point: %w", err)
	}
	return nil
}

// FindByID returns a point or sql.ErrNoRows.
func (r *WaterPointRepository) FindByID(ctx context.Context, id string) (*models.WaterPoint, error) {
	query := `SELECT ` + waterPointColumns + ` FROM water_points WHERE id = $1`
	return r.getOne(ctx, "find water point", query, id)
}

// FindByCoordinates returns the point registered at exactly lat/lng.
func (r *WaterPointRepository) FindByCoordinates(ctx context.Context, lat, lng float64) (*models.WaterPoint, error) {
	query := `SELECT ` + waterPointColumns + ` FROM water_points WHERE lat = $1 AND lng = $2 LIMIT 1`
	return r.getOne(ctx, "find water point by coordinates", query, lat, lng)
}

func (r *WaterPointRepository) getOne(ctx context.Context, op, query string, args ...interface{}) (*models.WaterPoint, error) {
	var row waterPointRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	point := row.toModel()
	return &point, nil
}

// List returns all points, newest first.
func (r *WaterPointRepository) List(ctx context.Context) ([]models.WaterPoint, error) {
	query := `SELECT ` + waterPointColumns + ` FROM water_points ORDER BY created_at DESC`
	return r.selectMany(ctx, "list water points", query)
}

// ListWithin returns the points inside box.
func (r *WaterPointRepository) ListWithin(ctx context.Context, box geo.Box) ([]models.WaterPoint, error) {
	query := `SELECT ` + waterPointColumns + ` FROM water_points WHERE lat BETWEEN $1 AND $2 AND lng BETWEEN $3 AND $4`
	return r.selectMany(ctx, "list water points within box", query, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng)
}

func (r *WaterPointRepository) selectMany(ctx context.Context, op, query string, args ...interface{}) ([]models.WaterPoint, error) {
	var rows []waterPointRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	points := make([]models.WaterPoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, row.toModel())
	}
	return points, nil
}

// UpdateMaintenance writes status, opening hours, address and the last
// maintenance date.
func (r *WaterPointRepository) UpdateMaintenance(ctx context.Context, point *models.WaterPoint) error {
	point.UpdatedAt = time.Now().UTC()
	const query = `UPDATE water_points SET status = $1, opening_hours = $2, address = $3, last_maintenance_date = $4, updated_at = $5 WHERE id = $6`
	res, err := r.db.ExecContext(ctx, query, point.Status, point.OpeningHours, point.Address, point.LastMaintenanceDate, point.UpdatedAt, point.ID)
	if err != nil {
		return fmt.Errorf("update water point: %w", err)
	}
	return expectAffected(res, "update water point")
}

// Delete removes a point; its feedback and favourites cascade.
func (r *WaterPointRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM water_points WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete water point: %w", err)
	}
	return expectAffected(res, "delete water point")
}

// RecomputeRating locks the point row, blends its stored rating with the
// current feedback ratings and persists the result in one transaction.
// Concurrent callers on the same point are serialised by the row lock.
func (r *WaterPointRepository) RecomputeRating(ctx context.Context, id string, blend RatingBlender) (point *models.WaterPoint, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin rating transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var row waterPointRow
	lockQuery := `SELECT ` + waterPointColumns + ` FROM water_points WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &row, lockQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock water point: %w", err)
	}

	var ratings []int
	const ratingsQuery = `SELECT rating FROM feedback WHERE point_id = $1`
	if err = tx.SelectContext(ctx, &ratings, ratingsQuery, id); err != nil {
		return nil, fmt.Errorf("load feedback ratings: %w", err)
	}

	blended := blend(row.Rating, ratings)
	if blended != row.Rating {
		row.Rating = blended
		row.UpdatedAt = time.Now().UTC()
		const updateQuery = `UPDATE water_points SET rating = $1, updated_at = $2 WHERE id = $3`
		if _, err = tx.ExecContext(ctx, updateQuery, row.Rating, row.UpdatedAt, id); err != nil {
			return nil, fmt.Errorf("persist water point rating: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit rating transaction: %w", err)
	}
	result := row.toModel()
	return &result, nil
}
