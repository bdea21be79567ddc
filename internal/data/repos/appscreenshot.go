package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/aisohq/aiso-market/internal/domain"
	"github.com/aisohq/aiso-market/internal/pkg/logger"
)

type AppScreenshotRepo interface {
	Create(ctx context.Context, tx *gorm.DB, shot *types.AppScreenshot) (*types.AppScreenshot, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AppScreenshot, error)
	ListByApp(ctx context.Context, tx *gorm.DB, appID string) ([]*types.AppScreenshot, error)
	UpdateSortOrder(ctx context.Context, tx *gorm.DB, id uuid.UUID, sortOrder int) error
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type appScreenshotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAppScreenshotRepo(db *gorm.DB, baseLog *logger.Logger) AppScreenshotRepo {
	return &appScreenshotRepo{db: db, log: baseLog.With("repo", "AppScreenshotRepo")}
}

func (r *appScreenshotRepo) Create(ctx context.Context, tx *gorm.DB, shot *types.AppScreenshot) (*types.AppScreenshot, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).Create(shot).Error; err != nil {
		return nil, MapError("app_screenshot.create", err)
	}
	return shot, nil
}

func (r *appScreenshotRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AppScreenshot, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.AppScreenshot
	if err := t.WithContext(ctx).
		Where("id = ?", id).
		First(&out).Error; err != nil {
		return nil, MapError("app_screenshot.get", err)
	}
	return &out, nil
}

func (r *appScreenshotRepo) ListByApp(ctx context.Context, tx *gorm.DB, appID string) ([]*types.AppScreenshot, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.AppScreenshot
	if err := t.WithContext(ctx).
		Where("app_id = ?", appID).
		Order("sort_order ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, MapError("app_screenshot.list_by_app", err)
	}
	return out, nil
}

func (r *appScreenshotRepo) UpdateSortOrder(ctx context.Context, tx *gorm.DB, id uuid.UUID, sortOrder int) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).
		Model(&types.AppScreenshot{}).
		Where("id = ?", id).
		Update("sort_order", sortOrder).Error; err != nil {
		return MapError("app_screenshot.update_sort_order", err)
	}
	return nil
}

func (r *appScreenshotRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.AppScreenshot{}).Error; err != nil {
		return MapError("app_screenshot.delete", err)
	}
	return nil
}
