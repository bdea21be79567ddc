package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/aisohq/aiso-market/internal/data/repos"
	"github.com/aisohq/aiso-market/internal/data/txn"
	types "github.com/aisohq/aiso-market/internal/domain"
	"github.com/aisohq/aiso-market/internal/pkg/dbctx"
	"github.com/aisohq/aiso-market/internal/pkg/logger"
)

// RatingSummaryView is the read model served to the storefront.
type RatingSummaryView struct {
	AppID       string  `json:"app_id"`
	ReviewCount int64   `json:"review_count"`
	Mean        float64 `json:"mean"`
	HasRatings  bool    `json:"has_ratings"`
}

// SummaryCache is a best-effort cache for rating summaries. A nil cache or
// a cache error never fails the request; the database stays authoritative.
type SummaryCache interface {
	Get(ctx context.Context, appID string) (*RatingSummaryView, bool, error)
	Set(ctx context.Context, view *RatingSummaryView) error
	Invalidate(ctx context.Context, appID string) error
}

type RateInput struct {
	Rating  int
	Title   string
	Comment string
}

// RatingService keeps one review per (user, app) and maintains the running
// summary in the same transaction as the review write, so the mean never
// drifts from the review rows.
type RatingService interface {
	Rate(ctx context.Context, userID uuid.UUID, appID string, in RateInput) (*types.AppReview, error)
	RemoveRating(ctx context.Context, userID uuid.UUID, appID string) error
	Summary(ctx context.Context, appID string) (*RatingSummaryView, error)
	Recompute(ctx context.Context, appID string) (*RatingSummaryView, error)
	ListByApp(ctx context.Context, appID string, limit, offset int) ([]*types.AppReview, error)
}

type ratingService struct {
	log         *logger.Logger
	tx          txn.TxRunner
	appRepo     repos.AppRepo
	reviewRepo  repos.AppReviewRepo
	summaryRepo repos.RatingSummaryRepo
	cache       SummaryCache
}

func NewRatingService(
	log *logger.Logger,
	tx txn.TxRunner,
	appRepo repos.AppRepo,
	reviewRepo repos.AppReviewRepo,
	summaryRepo repos.RatingSummaryRepo,
	cache SummaryCache,
) RatingService {
	return &ratingService{
		log:         log.With("service", "RatingService"),
		tx:          tx,
		appRepo:     appRepo,
		reviewRepo:  reviewRepo,
		summaryRepo: summaryRepo,
		cache:       cache,
	}
}

func (s *ratingService) Rate(ctx context.Context, userID uuid.UUID, appID string, in RateInput) (*types.AppReview, error) {
	if in.Rating < types.RatingMin || in.Rating > types.RatingMax {
		return nil, types.NewError(types.CodeOutOfRange, "rating.rate",
			fmt.Sprintf("rating must be between %d and %d", types.RatingMin, types.RatingMax), nil)
	}

	var review *types.AppReview
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if _, err := s.appRepo.GetByID(dbc.Ctx, dbc.Tx, appID); err != nil {
			return err
		}
		if err := s.summaryRepo.EnsureExists(dbc.Ctx, dbc.Tx, appID); err != nil {
			return err
		}
		// Lock the summary row first; Rate, RemoveRating and Recompute all
		// take locks in this order.
		if _, err := s.summaryRepo.GetForUpdate(dbc.Ctx, dbc.Tx, appID); err != nil {
			return err
		}

		existing, err := s.reviewRepo.GetByUserAndApp(dbc.Ctx, dbc.Tx, userID, appID)
		if err != nil {
			return err
		}
		if existing == nil {
			review, err = s.reviewRepo.Create(dbc.Ctx, dbc.Tx, &types.AppReview{
				ID:      uuid.New(),
				AppID:   appID,
				UserID:  userID,
				Rating:  in.Rating,
				Title:   strings.TrimSpace(in.Title),
				Comment: in.Comment,
			})
			if err != nil {
				return err
			}
			return s.summaryRepo.ApplyDelta(dbc.Ctx, dbc.Tx, appID, 1, int64(in.Rating))
		}

		old := existing.Rating
		existing.Rating = in.Rating
		existing.Title = strings.TrimSpace(in.Title)
		existing.Comment = in.Comment
		if err := s.reviewRepo.Update(dbc.Ctx, dbc.Tx, existing); err != nil {
			return err
		}
		review = existing
		return s.summaryRepo.ApplyDelta(dbc.Ctx, dbc.Tx, appID, 0, int64(in.Rating-old))
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, appID)
	return review, nil
}

func (s *ratingService) RemoveRating(ctx context.Context, userID uuid.UUID, appID string) error {
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if err := s.summaryRepo.EnsureExists(dbc.Ctx, dbc.Tx, appID); err != nil {
			return err
		}
		if _, err := s.summaryRepo.GetForUpdate(dbc.Ctx, dbc.Tx, appID); err != nil {
			return err
		}

		existing, err := s.reviewRepo.GetByUserAndApp(dbc.Ctx, dbc.Tx, userID, appID)
		if err != nil {
			return err
		}
		if existing == nil {
			return types.NewError(types.CodeNotFound, "rating.remove", "no review by this user", nil)
		}
		if err := s.reviewRepo.DeleteByUserAndApp(dbc.Ctx, dbc.Tx, userID, appID); err != nil {
			return err
		}
		return s.summaryRepo.ApplyDelta(dbc.Ctx, dbc.Tx, appID, -1, -int64(existing.Rating))
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, appID)
	return nil
}

func (s *ratingService) Summary(ctx context.Context, appID string) (*RatingSummaryView, error) {
	if s.cache != nil {
		if view, ok, err := s.cache.Get(ctx, appID); err != nil {
			s.log.Warn("Summary cache read failed", "app_id", appID, "error", err)
		} else if ok {
			return view, nil
		}
	}

	row, err := s.summaryRepo.Get(ctx, nil, appID)
	if err != nil {
		return nil, err
	}
	view := &RatingSummaryView{AppID: appID}
	if row != nil {
		view.ReviewCount = row.ReviewCount
		view.Mean = row.Mean()
		view.HasRatings = row.HasRatings()
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, view); err != nil {
			s.log.Warn("Summary cache write failed", "app_id", appID, "error", err)
		}
	}
	return view, nil
}

// Recompute rebuilds the summary from the review rows. It exists as an
// admin repair tool; normal operation never needs it.
func (s *ratingService) Recompute(ctx context.Context, appID string) (*RatingSummaryView, error) {
	var view *RatingSummaryView
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if _, err := s.appRepo.GetByID(dbc.Ctx, dbc.Tx, appID); err != nil {
			return err
		}
		if err := s.summaryRepo.EnsureExists(dbc.Ctx, dbc.Tx, appID); err != nil {
			return err
		}
		if _, err := s.summaryRepo.GetForUpdate(dbc.Ctx, dbc.Tx, appID); err != nil {
			return err
		}
		sum, count, err := s.reviewRepo.SumAndCountByApp(dbc.Ctx, dbc.Tx, appID)
		if err != nil {
			return err
		}
		if err := s.summaryRepo.Replace(dbc.Ctx, dbc.Tx, appID, count, sum); err != nil {
			return err
		}
		view = &RatingSummaryView{AppID: appID, ReviewCount: count, HasRatings: count > 0}
		if count > 0 {
			view.Mean = float64(sum) / float64(count)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, appID)
	s.log.Info("Rating summary recomputed", "app_id", appID, "review_count", view.ReviewCount)
	return view, nil
}

func (s *ratingService) ListByApp(ctx context.Context, appID string, limit, offset int) ([]*types.AppReview, error) {
	if _, err := s.appRepo.GetByID(ctx, nil, appID); err != nil {
		return nil, err
	}
	return s.reviewRepo.ListByApp(ctx, nil, appID, limit, offset)
}

func (s *ratingService) invalidate(ctx context.Context, appID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, appID); err != nil {
		s.log.Warn("Summary cache invalidation failed", "app_id", appID, "error", err)
	}
}
