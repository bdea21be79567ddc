package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/aisohq/aiso-market/internal/domain"
	"github.com/aisohq/aiso-market/internal/pkg/logger"
)

type AppInstallRepo interface {
	Create(ctx context.Context, tx *gorm.DB, install *types.AppInstall) (*types.AppInstall, error)

	// GetActive returns the active install for (user, app), or nil when
	// none exists. Pass forUpdate=true inside a transaction to serialize
	// concurrent install/uninstall for the pair on the row lock.
	GetActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID, appID string, forUpdate bool) (*types.AppInstall, error)

	ListActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.AppInstall, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string) error
	CountByUserAndApp(ctx context.Context, tx *gorm.DB, userID uuid.UUID, appID string) (int64, error)
	CountByApp(ctx context.Context, tx *gorm.DB, appID string) (int64, error)
}

type appInstallRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAppInstallRepo(db *gorm.DB, baseLog *logger.Logger) AppInstallRepo {
	return &appInstallRepo{db: db, log: baseLog.With("repo", "AppInstallRepo")}
}

func (r *appInstallRepo) Create(ctx context.Context, tx *gorm.DB, install *types.AppInstall) (*types.AppInstall, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).Create(install).Error; err != nil {
		return nil, MapError("app_install.create", err)
	}
	return install, nil
}

func (r *appInstallRepo) GetActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID, appID string, forUpdate bool) (*types.AppInstall, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(ctx)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out []*types.AppInstall
	if err := q.
		Where("user_id = ? AND app_id = ? AND status = ?", userID, appID, types.InstallStatusActive).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, MapError("app_install.get_active", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *appInstallRepo) ListActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.AppInstall, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.AppInstall
	if err := t.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, types.InstallStatusActive).
		Order("installed_at ASC").
		Find(&out).Error; err != nil {
		return nil, MapError("app_install.list_active_by_user", err)
	}
	return out, nil
}

func (r *appInstallRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).
		Model(&types.AppInstall{}).
		Where("id = ?", id).
		Update("status", status).Error; err != nil {
		return MapError("app_install.update_status", err)
	}
	return nil
}

func (r *appInstallRepo) CountByUserAndApp(ctx context.Context, tx *gorm.DB, userID uuid.UUID, appID string) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var count int64
	if err := t.WithContext(ctx).
		Model(&types.AppInstall{}).
		Where("user_id = ? AND app_id = ?", userID, appID).
		Count(&count).Error; err != nil {
		return 0, MapError("app_install.count_by_user_and_app", err)
	}
	return count, nil
}

func (r *appInstallRepo) CountByApp(ctx context.Context, tx *gorm.DB, appID string) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var count int64
	if err := t.WithContext(ctx).
		Model(&types.AppInstall{}).
		Where("app_id = ? AND status = ?", appID, types.InstallStatusActive).
		Count(&count).Error; err != nil {
		return 0, MapError("app_install.count_by_app", err)
	}
	return count, nil
}
