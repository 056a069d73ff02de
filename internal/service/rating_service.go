package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/aquago/aquago-api/internal/models"
	"github.com/aquago/aquago-api/internal/repository"
	"github.com/aquago/aquago-api/pkg/config"
	appErrors "github.com/aquago/aquago-api/pkg/errors"
	"github.com/aquago/aquago-api/pkg/jobs"
)

const waterPointNotFoundMessage = "Water point not found!"

// BlendRating folds the stored rating in as one extra vote next to every
// feedback rating and rounds half-up to one decimal. With no feedback the
// prior is returned untouched.
func BlendRating(prior float64, ratings []int) float64 {
	if len(ratings) == 0 {
		return prior
	}
	// work in whole tenths so decimal ties like 1.35 are not lost to float error
	num := int64(math.Round(prior * 10))
	for _, r := range ratings {
		num += 10 * int64(r)
	}
	den := int64(len(ratings) + 1)
	return float64((2*num+den)/(2*den)) / 10
}

type ratingRepository interface {
	FindByID(ctx context.Context, id string) (*models.WaterPoint, error)
	RecomputeRating(ctx context.Context, id string, blend repository.RatingBlender) (*models.WaterPoint, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// RatingService keeps point ratings in line with their feedback, either on
// every detail read or after each feedback change.
type RatingService struct {
	repo    ratingRepository
	mode    string
	queue   jobEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
}

// NewRatingService constructs a RatingService. Write mode without a queue
// falls back to recomputing inline.
func NewRatingService(repo ratingRepository, mode string, queue jobEnqueuer, metrics *MetricsService, logger *zap.Logger) *RatingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mode != config.RecomputeOnWrite {
		mode = config.RecomputeOnRead
	}
	return &RatingService{repo: repo, mode: mode, queue: queue, metrics: metrics, logger: logger}
}

// SetQueue attaches the background queue used in write mode.
func (s *RatingService) SetQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Mode reports the configured recompute mode.
func (s *RatingService) Mode() string {
	return s.mode
}

// Refresh recomputes and persists the rating of one point.
func (s *RatingService) Refresh(ctx context.Context, pointID string) (*models.WaterPoint, error) {
	point, err := s.repo.RecomputeRating(ctx, pointID, BlendRating)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(waterPointNotFoundMessage)
		}
		return nil, appErrors.Internal(err, "recompute rating")
	}
	s.metrics.IncRatingRecompute(s.mode)
	return point, nil
}

// PointDetail loads a point for the detail endpoint. In read mode the rating
// is recomputed and persisted first.
func (s *RatingService) PointDetail(ctx context.Context, pointID string) (*models.WaterPoint, error) {
	if !isUUID(pointID) {
		return nil, notFound(waterPointNotFoundMessage)
	}
	if s.mode == config.RecomputeOnRead {
		return s.Refresh(ctx, pointID)
	}
	point, err := s.repo.FindByID(ctx, pointID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(waterPointNotFoundMessage)
		}
		return nil, appErrors.Internal(err, "find water point")
	}
	return point, nil
}

// FeedbackChanged schedules a recompute after feedback on pointID was
// created or deleted. It is a no-op in read mode.
func (s *RatingService) FeedbackChanged(ctx context.Context, pointID string) {
	if s.mode != config.RecomputeOnWrite {
		return
	}
	if s.queue != nil {
		err := s.queue.Enqueue(jobs.Job{Key: ratingJobKey(pointID), Payload: pointID})
		if err == nil {
			return
		}
		s.logger.Warn("rating recompute enqueue failed, recomputing inline", zap.String("point_id", pointID), zap.Error(err))
	}
	if _, err := s.Refresh(ctx, pointID); err != nil && !appErrors.IsKind(err, appErrors.KindNotFound) {
		s.logger.Error("rating recompute failed", zap.String("point_id", pointID), zap.Error(err))
	}
}

// HandleJob is the queue handler for recompute jobs.
func (s *RatingService) HandleJob(ctx context.Context, job jobs.Job) error {
	pointID, ok := job.Payload.(string)
	if !ok || pointID == "" {
		s.logger.Error("dropping malformed rating job", zap.String("key", job.Key))
		return nil
	}
	if _, err := s.Refresh(ctx, pointID); err != nil {
		if appErrors.IsKind(err, appErrors.KindNotFound) {
			return nil
		}
		return err
	}
	return nil
}

func ratingJobKey(pointID string) string {
	return fmt.Sprintf("rating:%s", pointID)
}
