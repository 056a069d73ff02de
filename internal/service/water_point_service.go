package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aquago/aquago-api/internal/models"
	"github.com/aquago/aquago-api/internal/repository"
	appErrors "github.com/aquago/aquago-api/pkg/errors"
	"github.com/aquago/aquago-api/pkg/geo"
	"github.com/aquago/aquago-api/pkg/logger"
)

type waterPointRepository interface {
	Create(ctx context.Context, point *models.WaterPoint) error
	FindByID(ctx context.Context, id string) (*models.WaterPoint, error)
	FindByCoordinates(ctx context.Context, lat, lng float64) (*models.WaterPoint, error)
	List(ctx context.Context) ([]models.WaterPoint, error)
	ListWithin(ctx context.Context, box geo.Box) ([]models.WaterPoint, error)
	UpdateMaintenance(ctx context.Context, point *models.WaterPoint) error
	Delete(ctx context.Context, id string) error
}

const (
	waterPointsCacheKey     = "water_points:list"
	duplicatePointMessage   = "This water point already exists!"
	waterPointsCachePattern = "water_points:*"
	defaultNearbyRadiusKM   = 5.0
)

// WaterPointService registers, lists and maintains water points.
type WaterPointService struct {
	repo      waterPointRepository
	ratings   *RatingService
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWaterPointService constructs a WaterPointService.
func NewWaterPointService(repo waterPointRepository, ratings *RatingService, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *WaterPointService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &WaterPointService{repo: repo, ratings: ratings, cache: cache, validator: validate, logger: logger}
}

// Create registers a point. A point already registered at the exact same
// coordinates is rejected.
func (s *WaterPointService) Create(ctx context.Context, req models.CreateWaterPointRequest) (*models.WaterPoint, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	lat, lng := *req.Coordinates.Lat, *req.Coordinates.Lng

	if _, err := s.repo.FindByCoordinates(ctx, lat, lng); err == nil {
		return nil, badRequest(duplicatePointMessage)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "probe coordinates")
	}

	point := &models.WaterPoint{
		Name:                req.Name,
		Type:                req.Type,
		Status:              req.Status,
		Coordinates:         models.Coordinates{Lat: lat, Lng: lng},
		Address:             req.Address,
		Rating:              models.DefaultPointRating,
		OpeningHours:        req.OpeningHours,
		LastMaintenanceDate: req.LastMaintenanceDate,
	}
	if point.Status == "" {
		point.Status = models.PointStatusActive
	}
	if point.OpeningHours == "" {
		point.OpeningHours = models.DefaultPointOpeningHours
	}

	if err := s.repo.Create(ctx, point); err != nil {
		// a concurrent registration won the race past the probe above
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, badRequest(duplicatePointMessage)
		}
		return nil, appErrors.Internal(err, "create water point")
	}
	s.invalidate(ctx)
	logger.WithContext(ctx, s.logger).Info("water point registered", zap.String("point_id", point.ID))
	return point, nil
}

// List returns every point, served from cache when possible. An empty set
// is reported as not found.
func (s *WaterPointService) List(ctx context.Context) ([]models.WaterPoint, error) {
	points, err := cached(ctx, s.cache, waterPointsCacheKey, func() ([]models.WaterPoint, error) {
		return s.repo.List(ctx)
	})
	if err != nil {
		return nil, appErrors.Internal(err, "list water points")
	}
	if len(points) == 0 {
		return nil, notFound("There are zero water points saved!")
	}
	return points, nil
}

// Get returns the point detail, refreshing its rating per the configured
// recompute mode.
func (s *WaterPointService) Get(ctx context.Context, id string) (*models.WaterPoint, error) {
	return s.ratings.PointDetail(ctx, id)
}

// Nearby returns points within q.RadiusKM of the origin, closest first.
func (s *WaterPointService) Nearby(ctx context.Context, q models.NearbyQuery) ([]models.NearbyWaterPoint, error) {
	if q.RadiusKM == 0 {
		q.RadiusKM = defaultNearbyRadiusKM
	}
	if err := s.validator.Struct(q); err != nil {
		return nil, validationError(err)
	}

	key := fmt.Sprintf("water_points:nearby:%.4f:%.4f:%.2f", q.Lat, q.Lng, q.RadiusKM)
	result, err := cached(ctx, s.cache, key, func() ([]models.NearbyWaterPoint, error) {
		return s.searchNearby(ctx, q)
	})
	if err != nil {
		return nil, appErrors.Internal(err, "search nearby water points")
	}
	return result, nil
}

func (s *WaterPointService) searchNearby(ctx context.Context, q models.NearbyQuery) ([]models.NearbyWaterPoint, error) {
	candidates, err := s.repo.ListWithin(ctx, geo.BoundingBox(q.Lat, q.Lng, q.RadiusKM))
	if err != nil {
		return nil, err
	}
	result := make([]models.NearbyWaterPoint, 0, len(candidates))
	for _, p := range candidates {
		d := geo.HaversineKm(q.Lat, q.Lng, p.Coordinates.Lat, p.Coordinates.Lng)
		if d <= q.RadiusKM {
			result = append(result, models.NearbyWaterPoint{WaterPoint: p, DistanceKM: math.Round(d*100) / 100})
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].DistanceKM < result[j].DistanceKM })
	return result, nil
}

// UpdateMaintenance applies a maintenance update.
func (s *WaterPointService) UpdateMaintenance(ctx context.Context, id string, req models.UpdateWaterPointRequest) (*models.WaterPoint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if !isUUID(id) {
		return nil, notFound(waterPointNotFoundMessage)
	}
	point, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(waterPointNotFoundMessage)
		}
		return nil, appErrors.Internal(err, "find water point")
	}

	if req.Status != nil {
		point.Status = *req.Status
	}
	if req.OpeningHours != nil {
		point.OpeningHours = *req.OpeningHours
	}
	if req.Address != nil {
		point.Address = *req.Address
	}
	if req.LastMaintenanceDate != nil {
		point.LastMaintenanceDate = req.LastMaintenanceDate
	}

	if err := s.repo.UpdateMaintenance(ctx, point); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(waterPointNotFoundMessage)
		}
		return nil, appErrors.Internal(err, "update water point")
	}
	s.invalidate(ctx)
	return point, nil
}

// Delete removes a point.
func (s *WaterPointService) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return notFound(waterPointNotFoundMessage)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(waterPointNotFoundMessage)
		}
		return appErrors.Internal(err, "delete water point")
	}
	s.invalidate(ctx)
	logger.WithContext(ctx, s.logger).Info("water point deleted", zap.String("point_id", id))
	return nil
}

func (s *WaterPointService) invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, waterPointsCachePattern)
}
