package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/aisohq/aiso-market/internal/domain"
	"github.com/aisohq/aiso-market/internal/pkg/logger"
)

type AppVersionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, version *types.AppVersion) (*types.AppVersion, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AppVersion, error)
	GetByAppAndVersion(ctx context.Context, tx *gorm.DB, appID, version string) (*types.AppVersion, error)
	ListByApp(ctx context.Context, tx *gorm.DB, appID string) ([]*types.AppVersion, error)
	ListByStatus(ctx context.Context, tx *gorm.DB, status string) ([]*types.AppVersion, error)

	// TransitionStatus is the atomic check-and-set guarding the review
	// state machine: the row moves from→to only if it is still in from.
	// Returns false when another decision won the race (or the state was
	// already terminal).
	TransitionStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to string) (bool, error)
}

type appVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAppVersionRepo(db *gorm.DB, baseLog *logger.Logger) AppVersionRepo {
	return &appVersionRepo{db: db, log: baseLog.With("repo", "AppVersionRepo")}
}

func (r *appVersionRepo) Create(ctx context.Context, tx *gorm.DB, version *types.AppVersion) (*types.AppVersion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).Create(version).Error; err != nil {
		return nil, MapError("app_version.create", err)
	}
	return version, nil
}

func (r *appVersionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AppVersion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.AppVersion
	if err := t.WithContext(ctx).
		Where("id = ?", id).
		First(&out).Error; err != nil {
		return nil, MapError("app_version.get", err)
	}
	return &out, nil
}

func (r *appVersionRepo) GetByAppAndVersion(ctx context.Context, tx *gorm.DB, appID, version string) (*types.AppVersion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.AppVersion
	if err := t.WithContext(ctx).
		Where("app_id = ? AND version = ?", appID, version).
		First(&out).Error; err != nil {
		return nil, MapError("app_version.get_by_app_and_version", err)
	}
	return &out, nil
}

func (r *appVersionRepo) ListByApp(ctx context.Context, tx *gorm.DB, appID string) ([]*types.AppVersion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.AppVersion
	if err := t.WithContext(ctx).
		Where("app_id = ?", appID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, MapError("app_version.list_by_app", err)
	}
	return out, nil
}

func (r *appVersionRepo) ListByStatus(ctx context.Context, tx *gorm.DB, status string) ([]*types.AppVersion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.AppVersion
	if err := t.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, MapError("app_version.list_by_status", err)
	}
	return out, nil
}

func (r *appVersionRepo) TransitionStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to string) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(ctx).
		Model(&types.AppVersion{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, MapError("app_version.transition_status", res.Error)
	}
	return res.RowsAffected == 1, nil
}
