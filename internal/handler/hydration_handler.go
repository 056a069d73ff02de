package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aquago/aquago-api/internal/models"
	"github.com/aquago/aquago-api/internal/service"
	"github.com/aquago/aquago-api/pkg/response"
)

type hydrationService interface {
	LogIntake(ctx context.Context, email string, req models.CreateIntakeRequest) (*models.WaterIntake, error)
	Intakes(ctx context.Context, email, date string) ([]models.WaterIntake, error)
	TodayTotal(ctx context.Context, email string) (*models.IntakeTotal, error)
	ExportIntakes(ctx context.Context, email, format, date string) (*service.ExportFile, error)
	CurrentGoal(ctx context.Context, email string) (*models.WaterGoal, error)
	SetGoal(ctx context.Context, email string, req models.SetGoalRequest) (*models.WaterGoal, error)
	Favorites(ctx context.Context, email string) ([]models.FavoritePoint, error)
	AddFavorite(ctx context.Context, email, pointID string) (*models.FavoritePoint, error)
	RemoveFavorite(ctx context.Context, email, pointID string) error
}

// HydrationHandler serves intake tracking, goals and favourites. Every
// route requires the auth middleware.
type HydrationHandler struct {
	service hydrationService
}

// NewHydrationHandler constructs HydrationHandler.
func NewHydrationHandler(svc hydrationService) *HydrationHandler {
	return &HydrationHandler{service: svc}
}

// LogIntake godoc
// @Summary Log a drink
// @Tags Hydration
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateIntakeRequest true "Intake"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /waterIntake [post]
func (h *HydrationHandler) LogIntake(c *gin.Context) {
	email, err := currentEmail(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.CreateIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	intake, err := h.service.LogIntake(c.Request.Context(), email, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, intake)
}

// Intakes godoc
// @Summary List intakes
// @Tags Hydration
// @Produce json
// @Security BearerAuth
// @Param date query string false "Day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /waterIntake [get]
func (h *HydrationHandler) Intakes(c *gin.Context) {
	email, err := currentEmail(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.service.Intakes(c.Request.Context(), email, strings.TrimSpace(c.Query("date")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// TodayTotal godoc
// @Summary Total intake for today
// @Tags Hydration
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /waterIntake/today/total [get]
func (h *HydrationHandler) TodayTotal(c *gin.Context) {
	email, err := currentEmail(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	total, err := h.service.TodayTotal(c.Request.Context(), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, total)
}

// Export godoc
// @Summary Export intakes of one day
// @Tags Hydration
// @Produce text/csv,application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Param date query string false "Day (YYYY-MM-DD), defaults to today"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /waterIntake/export [get]
func (h *HydrationHandler) Export(c *gin.Context) {
	email, err := currentEmail(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := strings.ToLower(strings.TrimSpace(c.Query("format")))
	file, err := h.service.ExportIntakes(c.Request.Context(), email, format, strings.TrimSpace(c.Query("date")))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// CurrentGoal godoc
// @Summary Active daily goal
// @Tags Hydration
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /waterGoal/current [get]
func (h *HydrationHandler) CurrentGoal(c *gin.Context) {
	email, err := currentEmail(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	goal, err := h.service.CurrentGoal(c.Request.Context(), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"data": goal})
}

// SetGoal godoc
// @Summary Replace the daily goal
// @Tags Hydration
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SetGoalRequest true "Goal"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /waterGoal [post]
func (h *HydrationHandler) SetGoal(c *gin.Context) {
	email, err := currentEmail(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.SetGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	goal, err := h.service.SetGoal(c.Request.Context(), email, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, goal)
}

// Favorites godoc
// @Summary Favourite water points
// @Tags Hydration
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /favorites [get]
func (h *HydrationHandler) Favorites(c *gin.Context) {
	email, err := currentEmail(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	favs, err := h.service.Favorites(c.Request.Context(), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, favs)
}

// AddFavorite godoc
// @Summary Bookmark a water point
// @Tags Hydration
// @Produce json
// @Security BearerAuth
// @Param pointId path string true "Water point ID"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /favorites/{pointId} [post]
func (h *HydrationHandler) AddFavorite(c *gin.Context) {
	email, err := currentEmail(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	fav, err := h.service.AddFavorite(c.Request.Context(), email, c.Param("pointId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, fav)
}

// RemoveFavorite godoc
// @Summary Remove a bookmark
// @Tags Hydration
// @Produce json
// @Security BearerAuth
// @Param pointId path string true "Water point ID"
// @Success 200 {object} response.Envelope
// @Router /favorites/{pointId} [delete]
func (h *HydrationHandler) RemoveFavorite(c *gin.Context) {
	email, err := currentEmail(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.RemoveFavorite(c.Request.Context(), email, c.Param("pointId")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Removed from favorites", nil)
}
