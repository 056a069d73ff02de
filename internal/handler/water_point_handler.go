package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aquago/aquago-api/internal/models"
	appErrors "github.com/aquago/aquago-api/pkg/errors"
	"github.com/aquago/aquago-api/pkg/response"
)

type waterPointService interface {
	Create(ctx context.Context, req models.CreateWaterPointRequest) (*models.WaterPoint, error)
	List(ctx context.Context) ([]models.WaterPoint, error)
	Get(ctx context.Context, id string) (*models.WaterPoint, error)
	Nearby(ctx context.Context, q models.NearbyQuery) ([]models.NearbyWaterPoint, error)
	UpdateMaintenance(ctx context.Context, id string, req models.UpdateWaterPointRequest) (*models.WaterPoint, error)
	Delete(ctx context.Context, id string) error
}

// WaterPointHandler exposes the water point catalogue.
type WaterPointHandler struct {
	service waterPointService
}

// NewWaterPointHandler constructs WaterPointHandler.
func NewWaterPointHandler(svc waterPointService) *WaterPointHandler {
	return &WaterPointHandler{service: svc}
}

// Create godoc
// @Summary Register water point
// @Tags WaterPoints
// @Accept json
// @Produce json
// @Param payload body models.CreateWaterPointRequest true "Water point"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /waterPoint [post]
func (h *WaterPointHandler) Create(c *gin.Context) {
	var req models.CreateWaterPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	point, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "New water point registered successfully", point)
}

// List godoc
// @Summary List water points
// @Tags WaterPoints
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /waterPoint [get]
func (h *WaterPointHandler) List(c *gin.Context) {
	points, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, points)
}

// Nearby godoc
// @Summary Water points around a position
// @Tags WaterPoints
// @Produce json
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Param radius_km query number false "Search radius, default 5"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /waterPoint/nearby [get]
func (h *WaterPointHandler) Nearby(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(c.Query("lat")), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(c.Query("lng")), 64)
	if latErr != nil || lngErr != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "lat and lng are required numbers"))
		return
	}
	query := models.NearbyQuery{Lat: lat, Lng: lng}
	if raw := strings.TrimSpace(c.Query("radius_km")); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "radius_km must be a number"))
			return
		}
		query.RadiusKM = radius
	}
	points, err := h.service.Nearby(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, points)
}

// Get godoc
// @Summary Water point detail
// @Description Returns the point with its blended rating refreshed
// @Tags WaterPoints
// @Produce json
// @Param id path string true "Water point ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /waterPoint/{id} [get]
func (h *WaterPointHandler) Get(c *gin.Context) {
	point, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, point)
}

// UpdateMaintenance godoc
// @Summary Update maintenance details
// @Tags WaterPoints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Water point ID"
// @Param payload body models.UpdateWaterPointRequest true "Maintenance fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /waterPoint/{id} [put]
func (h *WaterPointHandler) UpdateMaintenance(c *gin.Context) {
	var req models.UpdateWaterPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	point, err := h.service.UpdateMaintenance(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, point)
}

// Delete godoc
// @Summary Delete water point
// @Tags WaterPoints
// @Produce json
// @Param id path string true "Water point ID"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /waterPoint/{id} [delete]
func (h *WaterPointHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Water point deleted successfully!", nil)
}
