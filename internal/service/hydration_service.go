package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aquago/aquago-api/internal/models"
	"github.com/aquago/aquago-api/internal/repository"
	appErrors "github.com/aquago/aquago-api/pkg/errors"
	"github.com/aquago/aquago-api/pkg/export"
)

type hydrationRepository interface {
	CreateIntake(ctx context.Context, intake *models.WaterIntake) error
	ListIntakes(ctx context.Context, userID string, from, to time.Time) ([]models.WaterIntake, error)
	SumIntake(ctx context.Context, userID string, from, to time.Time) (int, error)
	ActiveGoal(ctx context.Context, userID string) (*models.WaterGoal, error)
	ReplaceGoal(ctx context.Context, goal *models.WaterGoal) error
	ListFavorites(ctx context.Context, userID string) ([]models.FavoritePoint, error)
	AddFavorite(ctx context.Context, fav *models.FavoritePoint) error
	RemoveFavorite(ctx context.Context, userID, pointID string) error
}

type userFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type reportRenderer interface {
	Render(report export.Report) ([]byte, error)
	ContentType() string
	Extension() string
}

const dateLayout = "2006-01-02"

// ExportFile is a rendered intake report.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// HydrationService tracks water intake, daily goals and favourite points
// for the authenticated user.
type HydrationService struct {
	repo      hydrationRepository
	users     userFinder
	points    pointFinder
	exporters map[string]reportRenderer
	validator *validator.Validate
	logger    *zap.Logger
	location  *time.Location
	now       func() time.Time
}

// NewHydrationService constructs a HydrationService. Calendar days are
// evaluated in loc.
func NewHydrationService(repo hydrationRepository, users userFinder, points pointFinder, validate *validator.Validate, logger *zap.Logger, loc *time.Location) *HydrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &HydrationService{
		repo:   repo,
		users:  users,
		points: points,
		exporters: map[string]reportRenderer{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
		validator: validate,
		logger:    logger,
		location:  loc,
		now:       time.Now,
	}
}

func (s *HydrationService) userID(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", notFound(userNotFoundMessage)
		}
		return "", appErrors.Internal(err, "find user")
	}
	return user.ID, nil
}

// dayRange parses YYYY-MM-DD into [start, end). An empty date means no range.
func (s *HydrationService) dayRange(date string) (time.Time, time.Time, error) {
	if date == "" {
		return time.Time{}, time.Time{}, nil
	}
	start, err := time.ParseInLocation(dateLayout, date, s.location)
	if err != nil {
		return time.Time{}, time.Time{}, badRequest("date must use the YYYY-MM-DD format")
	}
	return start, start.AddDate(0, 0, 1), nil
}

func (s *HydrationService) today() (time.Time, time.Time) {
	now := s.now().In(s.location)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	return start, start.AddDate(0, 0, 1)
}

// LogIntake records a drink for the user.
func (s *HydrationService) LogIntake(ctx context.Context, email string, req models.CreateIntakeRequest) (*models.WaterIntake, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	userID, err := s.userID(ctx, email)
	if err != nil {
		return nil, err
	}
	intake := &models.WaterIntake{UserID: userID, AmountML: req.AmountML}
	if req.Timestamp != nil {
		intake.Timestamp = req.Timestamp.UTC()
	}
	if err := s.repo.CreateIntake(ctx, intake); err != nil {
		return nil, appErrors.Internal(err, "log water intake")
	}
	return intake, nil
}

// Intakes lists the user's intakes, optionally restricted to one day.
func (s *HydrationService) Intakes(ctx context.Context, email, date string) ([]models.WaterIntake, error) {
	from, to, err := s.dayRange(date)
	if err != nil {
		return nil, err
	}
	userID, err := s.userID(ctx, email)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListIntakes(ctx, userID, from, to)
	if err != nil {
		return nil, appErrors.Internal(err, "list water intakes")
	}
	if items == nil {
		items = []models.WaterIntake{}
	}
	return items, nil
}

// TodayTotal sums the user's intake for the current day.
func (s *HydrationService) TodayTotal(ctx context.Context, email string) (*models.IntakeTotal, error) {
	userID, err := s.userID(ctx, email)
	if err != nil {
		return nil, err
	}
	from, to := s.today()
	total, err := s.repo.SumIntake(ctx, userID, from, to)
	if err != nil {
		return nil, appErrors.Internal(err, "sum water intake")
	}
	return &models.IntakeTotal{Date: from.Format(dateLayout), TotalML: total}, nil
}

// ExportIntakes renders the user's intakes as csv or pdf. An empty date
// exports the current day.
func (s *HydrationService) ExportIntakes(ctx context.Context, email, format, date string) (*ExportFile, error) {
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.exporters[format]
	if !ok {
		return nil, badRequest("format must be csv or pdf")
	}
	from, to, err := s.dayRange(date)
	if err != nil {
		return nil, err
	}
	if from.IsZero() {
		from, to = s.today()
	}
	userID, err := s.userID(ctx, email)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListIntakes(ctx, userID, from, to)
	if err != nil {
		return nil, appErrors.Internal(err, "list water intakes")
	}

	day := from.Format(dateLayout)
	report := export.Report{
		Title:   fmt.Sprintf("Water intake %s", day),
		Headers: []string{"Time", "Amount (ml)"},
		Rows:    make([][]string, 0, len(items)),
	}
	total := 0
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		total += item.AmountML
		report.Rows = append(report.Rows, []string{
			item.Timestamp.In(s.location).Format("15:04"),
			strconv.Itoa(item.AmountML),
		})
	}
	report.Footer = []string{"Total", strconv.Itoa(total)}

	data, err := renderer.Render(report)
	if err != nil {
		return nil, appErrors.Internal(err, "render intake export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("water-intake-%s.%s", day, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        data,
	}, nil
}

// CurrentGoal returns the active goal, or nil when none is set.
func (s *HydrationService) CurrentGoal(ctx context.Context, email string) (*models.WaterGoal, error) {
	userID, err := s.userID(ctx, email)
	if err != nil {
		return nil, err
	}
	goal, err := s.repo.ActiveGoal(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Internal(err, "find active goal")
	}
	return goal, nil
}

// SetGoal replaces the user's active goal.
func (s *HydrationService) SetGoal(ctx context.Context, email string, req models.SetGoalRequest) (*models.WaterGoal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	userID, err := s.userID(ctx, email)
	if err != nil {
		return nil, err
	}
	goal := &models.WaterGoal{UserID: userID, DailyGoalML: *req.DailyGoalML}
	if err := s.repo.ReplaceGoal(ctx, goal); err != nil {
		return nil, appErrors.Internal(err, "replace goal")
	}
	return goal, nil
}

// Favorites lists the user's bookmarked points.
func (s *HydrationService) Favorites(ctx context.Context, email string) ([]models.FavoritePoint, error) {
	userID, err := s.userID(ctx, email)
	if err != nil {
		return nil, err
	}
	favs, err := s.repo.ListFavorites(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "list favorites")
	}
	if favs == nil {
		favs = []models.FavoritePoint{}
	}
	return favs, nil
}

// AddFavorite bookmarks a point for the user.
func (s *HydrationService) AddFavorite(ctx context.Context, email, pointID string) (*models.FavoritePoint, error) {
	if !isUUID(pointID) {
		return nil, notFound(waterPointNotFoundMessage)
	}
	userID, err := s.userID(ctx, email)
	if err != nil {
		return nil, err
	}
	point, err := s.points.FindByID(ctx, pointID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(waterPointNotFoundMessage)
		}
		return nil, appErrors.Internal(err, "find water point")
	}
	fav := &models.FavoritePoint{UserID: userID, PointID: pointID}
	if err := s.repo.AddFavorite(ctx, fav); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, badRequest("Already in favorites")
		}
		return nil, appErrors.Internal(err, "add favorite")
	}
	fav.Point = point
	return fav, nil
}

// RemoveFavorite drops a bookmark if present.
func (s *HydrationService) RemoveFavorite(ctx context.Context, email, pointID string) error {
	if !isUUID(pointID) {
		return nil
	}
	userID, err := s.userID(ctx, email)
	if err != nil {
		return err
	}
	if err := s.repo.RemoveFavorite(ctx, userID, pointID); err != nil {
		return appErrors.Internal(err, "remove favorite")
	}
	return nil
}
