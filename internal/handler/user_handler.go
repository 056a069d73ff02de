package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aquago/aquago-api/internal/models"
	"github.com/aquago/aquago-api/pkg/response"
)

type userService interface {
	Current(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, email string, req models.UpdateProfileRequest) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, req models.DeleteUserRequest) error
}

// UserHandler exposes account endpoints.
type UserHandler struct {
	service userService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// Logged godoc
// @Summary Current user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /user/logged [get]
func (h *UserHandler) Logged(c *gin.Context) {
	email, err := currentEmail(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	user, err := h.service.Current(c.Request.Context(), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user)
}

// UpdateProfile godoc
// @Summary Complete profile
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.UpdateProfileRequest true "Profile fields"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /user [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	email, err := currentEmail(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	user, err := h.service.UpdateProfile(c.Request.Context(), email, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "New information saved!", user)
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /user [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users)
}

// Delete godoc
// @Summary Delete user by email
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.DeleteUserRequest true "Target email"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /user [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	var req models.DeleteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	if err := h.service.Delete(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "User deleted successfully!", nil)
}
