package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aquago/aquago-api/internal/models"
	appErrors "github.com/aquago/aquago-api/pkg/errors"
	"github.com/aquago/aquago-api/pkg/logger"
	"github.com/aquago/aquago-api/pkg/storage"
)

type feedbackRepository interface {
	Create(ctx context.Context, fb *models.Feedback) error
	List(ctx context.Context) ([]models.Feedback, error)
	ListByPoint(ctx context.Context, pointID string) ([]models.Feedback, error)
	DeleteByUserAndPoint(ctx context.Context, email, pointID string) (*models.Feedback, error)
}

type pointFinder interface {
	FindByID(ctx context.Context, id string) (*models.WaterPoint, error)
}

type imageStore interface {
	Save(key string, r io.Reader) (string, error)
	Open(key string) (*os.File, error)
	Delete(key string) error
}

type urlSigner interface {
	Generate(key string) (string, time.Time, error)
	Parse(token string) (string, time.Time, error)
}

// FeedbackConfig bounds image uploads.
type FeedbackConfig struct {
	MaxImageBytes  int64
	AllowedMIMEs   []string
	ImageURLPrefix string
}

// FeedbackService records user feedback on water points.
type FeedbackService struct {
	repo    feedbackRepository
	points  pointFinder
	ratings *RatingService
	store   imageStore
	signer  urlSigner
	cfg     FeedbackConfig
	metrics *MetricsService
	logger  *zap.Logger
}

// NewFeedbackService constructs a FeedbackService.
func NewFeedbackService(repo feedbackRepository, points pointFinder, ratings *RatingService, store imageStore, signer urlSigner, cfg FeedbackConfig, metrics *MetricsService, logger *zap.Logger) *FeedbackService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = 5 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"image/jpeg", "image/png"}
	}
	if cfg.ImageURLPrefix == "" {
		cfg.ImageURLPrefix = "/feedback/images/"
	}
	return &FeedbackService{
		repo:    repo,
		points:  points,
		ratings: ratings,
		store:   store,
		signer:  signer,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// Create stores feedback from userEmail on pointID. The optional image is
// written before the row; if the insert fails the image is removed again.
func (s *FeedbackService) Create(ctx context.Context, userEmail, pointID string, req models.CreateFeedbackRequest, image *models.FeedbackImage) (*models.Feedback, error) {
	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		return nil, badRequest("Please write a comment!")
	}
	if req.Rating == nil || *req.Rating == 0 {
		return nil, badRequest("Please rate the point!")
	}
	if *req.Rating < models.MinFeedbackRating || *req.Rating > models.MaxFeedbackRating {
		return nil, badRequest(fmt.Sprintf("Rating must be between %d and %d", models.MinFeedbackRating, models.MaxFeedbackRating))
	}
	if utf8.RuneCountInString(comment) > models.MaxFeedbackCommentLen {
		return nil, badRequest(fmt.Sprintf("Comment must be at most %d characters", models.MaxFeedbackCommentLen))
	}

	if !isUUID(pointID) {
		return nil, notFound(waterPointNotFoundMessage)
	}
	if _, err := s.points.FindByID(ctx, pointID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(waterPointNotFoundMessage)
		}
		return nil, appErrors.Internal(err, "find water point")
	}

	fb := &models.Feedback{
		UserEmail: normaliseEmail(userEmail),
		PointID:   pointID,
		Rating:    *req.Rating,
		Comment:   comment,
	}
	if image != nil {
		key, err := s.storeImage(pointID, image)
		if err != nil {
			return nil, err
		}
		fb.ImageKey = &key
	}

	if err := s.repo.Create(ctx, fb); err != nil {
		if fb.ImageKey != nil {
			if delErr := s.store.Delete(*fb.ImageKey); delErr != nil {
				logger.WithContext(ctx, s.logger).Warn("orphaned feedback image", zap.String("key", *fb.ImageKey), zap.Error(delErr))
			}
		}
		return nil, appErrors.Internal(err, "create feedback")
	}

	s.ratings.FeedbackChanged(ctx, pointID)
	s.decorate(fb)
	return fb, nil
}

func (s *FeedbackService) storeImage(pointID string, image *models.FeedbackImage) (string, error) {
	if image.Size > s.cfg.MaxImageBytes {
		return "", badRequest(s.imageTooLargeMessage())
	}
	data, err := io.ReadAll(io.LimitReader(image.Content, s.cfg.MaxImageBytes+1))
	if err != nil {
		return "", appErrors.Internal(err, "read feedback image")
	}
	if int64(len(data)) > s.cfg.MaxImageBytes {
		return "", badRequest(s.imageTooLargeMessage())
	}
	if len(data) == 0 {
		return "", badRequest("Image file is empty")
	}

	mime := mimetype.Detect(data)
	if !mimetype.EqualsAny(mime.String(), s.cfg.AllowedMIMEs...) {
		return "", badRequest("Only JPEG or PNG images are allowed")
	}

	key := fmt.Sprintf("feedback/%s/%s%s", pointID, uuid.NewString(), mime.Extension())
	if _, err := s.store.Save(key, bytes.NewReader(data)); err != nil {
		return "", appErrors.Internal(err, "store feedback image")
	}
	s.metrics.IncImageUpload(mime.String())
	return key, nil
}

func (s *FeedbackService) imageTooLargeMessage() string {
	return fmt.Sprintf("Image must be at most %d MB", s.cfg.MaxImageBytes/(1024*1024))
}

// List returns every feedback entry.
func (s *FeedbackService) List(ctx context.Context) ([]models.Feedback, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "list feedback")
	}
	return s.decorateAll(items), nil
}

// ListByPoint returns the feedback left on one point.
func (s *FeedbackService) ListByPoint(ctx context.Context, pointID string) ([]models.Feedback, error) {
	if !isUUID(pointID) {
		return []models.Feedback{}, nil
	}
	items, err := s.repo.ListByPoint(ctx, pointID)
	if err != nil {
		return nil, appErrors.Internal(err, "list feedback by point")
	}
	return s.decorateAll(items), nil
}

// Delete removes the feedback userEmail left on pointID. Other entries are
// never touched. Emails compare case-insensitively, as at registration.
func (s *FeedbackService) Delete(ctx context.Context, userEmail, pointID string) error {
	if !isUUID(pointID) {
		return notFound("Feedback not found!")
	}
	fb, err := s.repo.DeleteByUserAndPoint(ctx, normaliseEmail(userEmail), pointID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("Feedback not found!")
		}
		return appErrors.Internal(err, "delete feedback")
	}
	if fb.ImageKey != nil {
		if err := s.store.Delete(*fb.ImageKey); err != nil {
			logger.WithContext(ctx, s.logger).Warn("failed to remove feedback image", zap.String("key", *fb.ImageKey), zap.Error(err))
		}
	}
	s.ratings.FeedbackChanged(ctx, pointID)
	return nil
}

// OpenImage resolves a signed image token to the stored file and its MIME
// type. The caller closes the file.
func (s *FeedbackService) OpenImage(token string) (*os.File, string, error) {
	key, _, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, "", appErrors.Wrap(err, appErrors.KindAuth, appErrors.ErrUnauthorized.Code, "Image link expired")
		}
		return nil, "", appErrors.Wrap(err, appErrors.KindAuth, appErrors.ErrUnauthorized.Code, "Invalid image link")
	}
	file, err := s.store.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", notFound("Image not found!")
		}
		return nil, "", appErrors.Internal(err, "open feedback image")
	}
	mime, err := mimetype.DetectReader(file)
	if err == nil {
		_, err = file.Seek(0, io.SeekStart)
	}
	if err != nil {
		_ = file.Close()
		return nil, "", appErrors.Internal(err, "inspect feedback image")
	}
	return file, mime.String(), nil
}

func (s *FeedbackService) decorateAll(items []models.Feedback) []models.Feedback {
	if items == nil {
		return []models.Feedback{}
	}
	for i := range items {
		s.decorate(&items[i])
	}
	return items
}

func (s *FeedbackService) decorate(fb *models.Feedback) {
	if fb.ImageKey == nil || s.signer == nil {
		return
	}
	token, _, err := s.signer.Generate(*fb.ImageKey)
	if err != nil {
		s.logger.Warn("failed to sign feedback image url", zap.String("feedback_id", fb.ID), zap.Error(err))
		return
	}
	fb.ImageURL = s.cfg.ImageURLPrefix + token
}
