package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aquago/aquago-api/internal/models"
	"github.com/aquago/aquago-api/internal/repository"
	"github.com/aquago/aquago-api/pkg/config"
	appErrors "github.com/aquago/aquago-api/pkg/errors"
)

func newTestPointService(repo *mockPointRepo, cache *CacheService) *WaterPointService {
	ratings := NewRatingService(repo, config.RecomputeOnRead, nil, nil, zap.NewNop())
	return NewWaterPointService(repo, ratings, cache, validator.New(), zap.NewNop())
}

func newTestCache(t *testing.T) *CacheService {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheService(repository.NewCacheRepository(client, "test", zap.NewNop()), NewMetricsService(), time.Minute, zap.NewNop(), true)
}

func floatPtr(v float64) *float64 { return &v }

func TestWaterPointServiceCreateDefaults(t *testing.T) {
	repo := newMockPointRepo()
	svc := newTestPointService(repo, nil)

	point, err := svc.Create(context.Background(), models.CreateWaterPointRequest{
		Name:        "Library tap",
		Type:        models.PointTypeTap,
		Coordinates: &models.CoordinatesInput{Lat: floatPtr(-23.55), Lng: floatPtr(-46.63)},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, point.ID)
	assert.Equal(t, models.PointStatusActive, point.Status)
	assert.Equal(t, 3.0, point.Rating)
	assert.Equal(t, "24/7", point.OpeningHours)
}

func TestWaterPointServiceRejectsDuplicateCoordinates(t *testing.T) {
	repo := newMockPointRepo()
	svc := newTestPointService(repo, nil)
	req := models.CreateWaterPointRequest{
		Name:        "Library tap",
		Coordinates: &models.CoordinatesInput{Lat: floatPtr(-23.55), Lng: floatPtr(-46.63)},
	}

	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	req.Name = "Same spot"
	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.KindValidation, appErr.Kind)
	assert.Equal(t, "This water point already exists!", appErr.Message)
	assert.Len(t, repo.points, 1)
}

func TestWaterPointServiceCreateDuplicateOnInsert(t *testing.T) {
	repo := newMockPointRepo()
	repo.createErr = repository.ErrDuplicateKey
	svc := newTestPointService(repo, nil)

	_, err := svc.Create(context.Background(), models.CreateWaterPointRequest{
		Name:        "Library tap",
		Coordinates: &models.CoordinatesInput{Lat: floatPtr(-23.55), Lng: floatPtr(-46.63)},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.KindValidation, appErr.Kind)
	assert.Equal(t, "This water point already exists!", appErr.Message)
}

func TestWaterPointServiceCreateValidation(t *testing.T) {
	svc := newTestPointService(newMockPointRepo(), nil)

	_, err := svc.Create(context.Background(), models.CreateWaterPointRequest{Name: "No coords"})
	assert.Equal(t, "Please fill all the fields!", appErrors.FromError(err).Message)

	_, err = svc.Create(context.Background(), models.CreateWaterPointRequest{
		Name:        "Half coords",
		Coordinates: &models.CoordinatesInput{Lat: floatPtr(1)},
	})
	assert.Equal(t, "Please fill all the fields!", appErrors.FromError(err).Message)

	_, err = svc.Create(context.Background(), models.CreateWaterPointRequest{
		Name:        "Bad type",
		Type:        "well",
		Coordinates: &models.CoordinatesInput{Lat: floatPtr(1), Lng: floatPtr(1)},
	})
	assert.True(t, appErrors.IsKind(err, appErrors.KindValidation))

	_, err = svc.Create(context.Background(), models.CreateWaterPointRequest{
		Name:        "Off the map",
		Coordinates: &models.CoordinatesInput{Lat: floatPtr(91), Lng: floatPtr(1)},
	})
	assert.True(t, appErrors.IsKind(err, appErrors.KindValidation))
}

func TestWaterPointServiceListEmpty(t *testing.T) {
	svc := newTestPointService(newMockPointRepo(), nil)

	_, err := svc.List(context.Background())
	assert.True(t, appErrors.IsKind(err, appErrors.KindNotFound))
}

func TestWaterPointServiceListUsesCache(t *testing.T) {
	repo := newMockPointRepo(testPoint(3.0))
	svc := newTestPointService(repo, newTestCache(t))
	ctx := context.Background()

	first, err := svc.List(ctx)
	require.NoError(t, err)
	second, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, 1, repo.listCalls)

	_, err = svc.Create(ctx, models.CreateWaterPointRequest{
		Name:        "New",
		Coordinates: &models.CoordinatesInput{Lat: floatPtr(10), Lng: floatPtr(10)},
	})
	require.NoError(t, err)

	third, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, third, 2)
	assert.Equal(t, 2, repo.listCalls)
}

func TestWaterPointServiceNearby(t *testing.T) {
	near := testPoint(3.0)
	near.Coordinates = models.Coordinates{Lat: -23.551, Lng: -46.631}
	nearer := testPoint(3.0)
	nearer.Coordinates = models.Coordinates{Lat: -23.5501, Lng: -46.6301}
	far := testPoint(3.0)
	far.Coordinates = models.Coordinates{Lat: -22.9, Lng: -43.2}
	svc := newTestPointService(newMockPointRepo(near, nearer, far), nil)

	got, err := svc.Nearby(context.Background(), models.NearbyQuery{Lat: -23.55, Lng: -46.63})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, nearer.ID, got[0].ID)
	assert.Equal(t, near.ID, got[1].ID)
	assert.LessOrEqual(t, got[0].DistanceKM, got[1].DistanceKM)

	_, err = svc.Nearby(context.Background(), models.NearbyQuery{Lat: 0, Lng: 0, RadiusKM: 500})
	assert.True(t, appErrors.IsKind(err, appErrors.KindValidation))
}

func TestWaterPointServiceUpdateMaintenance(t *testing.T) {
	point := testPoint(3.0)
	repo := newMockPointRepo(point)
	svc := newTestPointService(repo, nil)

	status := models.PointStatusMaintenance
	when := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	got, err := svc.UpdateMaintenance(context.Background(), point.ID, models.UpdateWaterPointRequest{Status: &status, LastMaintenanceDate: &when})
	require.NoError(t, err)
	assert.Equal(t, status, got.Status)
	assert.Equal(t, point.Address, got.Address)
	require.NotNil(t, repo.points[point.ID].LastMaintenanceDate)
	assert.True(t, when.Equal(*repo.points[point.ID].LastMaintenanceDate))

	bad := "closed"
	_, err = svc.UpdateMaintenance(context.Background(), point.ID, models.UpdateWaterPointRequest{Status: &bad})
	assert.True(t, appErrors.IsKind(err, appErrors.KindValidation))
}

func TestWaterPointServiceDelete(t *testing.T) {
	point := testPoint(3.0)
	repo := newMockPointRepo(point)
	svc := newTestPointService(repo, nil)

	require.NoError(t, svc.Delete(context.Background(), point.ID))
	err := svc.Delete(context.Background(), point.ID)
	assert.True(t, appErrors.IsKind(err, appErrors.KindNotFound))
	assert.True(t, appErrors.IsKind(svc.Delete(context.Background(), "42"), appErrors.KindNotFound))
}
