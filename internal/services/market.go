package services

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/aisohq/aiso-market/internal/data/repos"
	types "github.com/aisohq/aiso-market/internal/domain"
	"github.com/aisohq/aiso-market/internal/pkg/logger"
)

// Categories the storefront recognizes. Kept in sync with the submission
// form on the developer portal.
var Categories = []string{
	"utilities",
	"productivity",
	"developer",
	"education",
	"entertainment",
	"social",
	"customization",
	"ai-tools",
}

func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// MarketAppDetail is the full storefront page for one application.
type MarketAppDetail struct {
	App           *types.App             `json:"app"`
	LatestVersion *types.AppVersion      `json:"latest_version,omitempty"`
	Screenshots   []*types.AppScreenshot `json:"screenshots"`
	Rating        *RatingSummaryView     `json:"rating"`
}

type BrowseFilter struct {
	Category string
	Tag      string
	Limit    int
	Offset   int
}

// MarketService is the public, read-only storefront. It only ever exposes
// published applications; drafts, suspended and retired apps are invisible
// here regardless of who asks.
type MarketService interface {
	Browse(ctx context.Context, filter BrowseFilter) ([]*types.App, error)
	GetApp(ctx context.Context, appID string) (*MarketAppDetail, error)
	Search(ctx context.Context, query string, limit, offset int) ([]*types.App, error)
	Featured(ctx context.Context, limit int) ([]*types.App, error)
	Reviews(ctx context.Context, appID string, limit, offset int) ([]*types.AppReview, error)
	RatingSummary(ctx context.Context, appID string) (*RatingSummaryView, error)
}

type marketService struct {
	log         *logger.Logger
	appRepo     repos.AppRepo
	versionRepo repos.AppVersionRepo
	shotRepo    repos.AppScreenshotRepo
	rating      RatingService
}

func NewMarketService(
	log *logger.Logger,
	appRepo repos.AppRepo,
	versionRepo repos.AppVersionRepo,
	shotRepo repos.AppScreenshotRepo,
	rating RatingService,
) MarketService {
	return &marketService{
		log:         log.With("service", "MarketService"),
		appRepo:     appRepo,
		versionRepo: versionRepo,
		shotRepo:    shotRepo,
		rating:      rating,
	}
}

func (s *marketService) Browse(ctx context.Context, filter BrowseFilter) ([]*types.App, error) {
	if filter.Category != "" && !ValidCategory(filter.Category) {
		return nil, types.NewError(types.CodeValidation, "market.browse", "unknown category", nil)
	}
	return s.appRepo.ListPublished(ctx, nil, repos.ListPublishedFilter{
		Category: filter.Category,
		Tag:      filter.Tag,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
}

func (s *marketService) GetApp(ctx context.Context, appID string) (*MarketAppDetail, error) {
	app, err := s.appRepo.GetByID(ctx, nil, appID)
	if err != nil {
		return nil, err
	}
	if app.Status != types.AppStatusPublished {
		return nil, types.NewError(types.CodeNotFound, "market.get_app", "app not found", nil)
	}

	detail := &MarketAppDetail{App: app}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if app.LatestVersion == "" {
			return nil
		}
		v, err := s.versionRepo.GetByAppAndVersion(gctx, nil, app.ID, app.LatestVersion)
		if err != nil {
			return err
		}
		detail.LatestVersion = v
		return nil
	})
	g.Go(func() error {
		shots, err := s.shotRepo.ListByApp(gctx, nil, app.ID)
		if err != nil {
			return err
		}
		detail.Screenshots = shots
		return nil
	})
	g.Go(func() error {
		summary, err := s.rating.Summary(gctx, app.ID)
		if err != nil {
			return err
		}
		detail.Rating = summary
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *marketService) Search(ctx context.Context, query string, limit, offset int) ([]*types.App, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, types.NewError(types.CodeValidation, "market.search", "empty search query", nil)
	}
	return s.appRepo.Search(ctx, nil, query, limit, offset)
}

func (s *marketService) Featured(ctx context.Context, limit int) ([]*types.App, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.appRepo.ListTopInstalled(ctx, nil, limit)
}

func (s *marketService) Reviews(ctx context.Context, appID string, limit, offset int) ([]*types.AppReview, error) {
	app, err := s.appRepo.GetByID(ctx, nil, appID)
	if err != nil {
		return nil, err
	}
	if app.Status != types.AppStatusPublished {
		return nil, types.NewError(types.CodeNotFound, "market.reviews", "app not found", nil)
	}
	return s.rating.ListByApp(ctx, appID, limit, offset)
}

func (s *marketService) RatingSummary(ctx context.Context, appID string) (*RatingSummaryView, error) {
	app, err := s.appRepo.GetByID(ctx, nil, appID)
	if err != nil {
		return nil, err
	}
	if app.Status != types.AppStatusPublished {
		return nil, types.NewError(types.CodeNotFound, "market.rating_summary", "app not found", nil)
	}
	return s.rating.Summary(ctx, appID)
}
