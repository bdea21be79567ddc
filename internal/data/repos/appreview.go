package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/aisohq/aiso-market/internal/domain"
	"github.com/aisohq/aiso-market/internal/pkg/logger"
)

type AppReviewRepo interface {
	Create(ctx context.Context, tx *gorm.DB, review *types.AppReview) (*types.AppReview, error)
	GetByUserAndApp(ctx context.Context, tx *gorm.DB, userID uuid.UUID, appID string) (*types.AppReview, error)
	Update(ctx context.Context, tx *gorm.DB, review *types.AppReview) error
	DeleteByUserAndApp(ctx context.Context, tx *gorm.DB, userID uuid.UUID, appID string) error
	ListByApp(ctx context.Context, tx *gorm.DB, appID string, limit, offset int) ([]*types.AppReview, error)
	SumAndCountByApp(ctx context.Context, tx *gorm.DB, appID string) (sum int64, count int64, err error)
}

type appReviewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAppReviewRepo(db *gorm.DB, baseLog *logger.Logger) AppReviewRepo {
	return &appReviewRepo{db: db, log: baseLog.With("repo", "AppReviewRepo")}
}

func (r *appReviewRepo) Create(ctx context.Context, tx *gorm.DB, review *types.AppReview) (*types.AppReview, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).Create(review).Error; err != nil {
		return nil, MapError("app_review.create", err)
	}
	return review, nil
}

func (r *appReviewRepo) GetByUserAndApp(ctx context.Context, tx *gorm.DB, userID uuid.UUID, appID string) (*types.AppReview, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.AppReview
	if err := t.WithContext(ctx).
		Where("user_id = ? AND app_id = ?", userID, appID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, MapError("app_review.get_by_user_and_app", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *appReviewRepo) Update(ctx context.Context, tx *gorm.DB, review *types.AppReview) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).Save(review).Error; err != nil {
		return MapError("app_review.update", err)
	}
	return nil
}

func (r *appReviewRepo) DeleteByUserAndApp(ctx context.Context, tx *gorm.DB, userID uuid.UUID, appID string) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).
		Where("user_id = ? AND app_id = ?", userID, appID).
		Delete(&types.AppReview{}).Error; err != nil {
		return MapError("app_review.delete_by_user_and_app", err)
	}
	return nil
}

func (r *appReviewRepo) ListByApp(ctx context.Context, tx *gorm.DB, appID string, limit, offset int) ([]*types.AppReview, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var out []*types.AppReview
	if err := t.WithContext(ctx).
		Where("app_id = ?", appID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, MapError("app_review.list_by_app", err)
	}
	return out, nil
}

func (r *appReviewRepo) SumAndCountByApp(ctx context.Context, tx *gorm.DB, appID string) (int64, int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var row struct {
		Sum   int64
		Count int64
	}
	if err := t.WithContext(ctx).
		Model(&types.AppReview{}).
		Select("COALESCE(SUM(rating), 0) AS sum, COUNT(*) AS count").
		Where("app_id = ?", appID).
		Scan(&row).Error; err != nil {
		return 0, 0, MapError("app_review.sum_and_count", err)
	}
	return row.Sum, row.Count, nil
}
