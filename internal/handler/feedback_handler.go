package handler

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aquago/aquago-api/internal/models"
	appErrors "github.com/aquago/aquago-api/pkg/errors"
	"github.com/aquago/aquago-api/pkg/response"
)

type feedbackService interface {
	Create(ctx context.Context, userEmail, pointID string, req models.CreateFeedbackRequest, image *models.FeedbackImage) (*models.Feedback, error)
	List(ctx context.Context) ([]models.Feedback, error)
	ListByPoint(ctx context.Context, pointID string) ([]models.Feedback, error)
	Delete(ctx context.Context, userEmail, pointID string) error
	OpenImage(token string) (*os.File, string, error)
}

const feedbackImageField = "image"

// FeedbackHandler exposes point feedback endpoints.
type FeedbackHandler struct {
	service feedbackService
}

// NewFeedbackHandler constructs FeedbackHandler.
func NewFeedbackHandler(svc feedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: svc}
}

// Create godoc
// @Summary Leave feedback on a water point
// @Description Accepts JSON, or multipart form fields with an optional image file
// @Tags Feedback
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param user_email path string true "Author email"
// @Param waterPoint_id path string true "Water point ID"
// @Param payload body models.CreateFeedbackRequest true "Feedback"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /feedback/{user_email}/{waterPoint_id} [post]
func (h *FeedbackHandler) Create(c *gin.Context) {
	var (
		req   models.CreateFeedbackRequest
		image *models.FeedbackImage
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&req); err != nil {
			response.Error(c, invalidPayload(err))
			return
		}
		fileHeader, err := c.FormFile(feedbackImageField)
		switch {
		case err == nil:
			file, openErr := fileHeader.Open()
			if openErr != nil {
				response.Error(c, appErrors.Internal(openErr, "open uploaded image"))
				return
			}
			defer file.Close()
			image = &models.FeedbackImage{Filename: fileHeader.Filename, Size: fileHeader.Size, Content: file}
		case err != http.ErrMissingFile:
			response.Error(c, invalidPayload(err))
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}

	fb, err := h.service.Create(c.Request.Context(), c.Param("user_email"), c.Param("waterPoint_id"), req, image)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "New feedback registered!", fb)
}

// List godoc
// @Summary List feedback
// @Tags Feedback
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /feedback [get]
func (h *FeedbackHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// ListByPoint godoc
// @Summary Feedback for one water point
// @Tags Feedback
// @Produce json
// @Param waterPoint_id path string true "Water point ID"
// @Success 200 {object} response.Envelope
// @Router /feedback/{waterPoint_id} [get]
func (h *FeedbackHandler) ListByPoint(c *gin.Context) {
	items, err := h.service.ListByPoint(c.Request.Context(), c.Param("waterPoint_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// Delete godoc
// @Summary Delete own feedback on a water point
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Param point_id path string true "Water point ID"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /feedback/{point_id} [delete]
func (h *FeedbackHandler) Delete(c *gin.Context) {
	email, err := currentEmail(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), email, c.Param("point_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Feedback deleted successfully!", nil)
}

// Image godoc
// @Summary Download a feedback image
// @Tags Feedback
// @Produce image/png,image/jpeg
// @Param token path string true "Signed image token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /feedback/images/{token} [get]
func (h *FeedbackHandler) Image(c *gin.Context) {
	file, contentType, err := h.service.OpenImage(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Cache-Control", "private, max-age=300")
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		_ = c.Error(err)
	}
}
