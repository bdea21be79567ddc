package repos

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/aisohq/aiso-market/internal/domain"
	"github.com/aisohq/aiso-market/internal/pkg/logger"
)

// ListPublishedFilter narrows market listings. Zero values mean "no
// filter"; Limit 0 falls back to a sane page size.
type ListPublishedFilter struct {
	Category string
	Tag      string
	Limit    int
	Offset   int
}

type AppRepo interface {
	Create(ctx context.Context, tx *gorm.DB, app *types.App) (*types.App, error)
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.App, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*types.App, error)
	Update(ctx context.Context, tx *gorm.DB, app *types.App) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id string, updates map[string]interface{}) error
	ListByAuthor(ctx context.Context, tx *gorm.DB, authorID uuid.UUID) ([]*types.App, error)
	ListPublished(ctx context.Context, tx *gorm.DB, filter ListPublishedFilter) ([]*types.App, error)
	Search(ctx context.Context, tx *gorm.DB, query string, limit, offset int) ([]*types.App, error)
	ListTopInstalled(ctx context.Context, tx *gorm.DB, limit int) ([]*types.App, error)
	IncrementInstallCount(ctx context.Context, tx *gorm.DB, id string, delta int64) error
}

type appRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAppRepo(db *gorm.DB, baseLog *logger.Logger) AppRepo {
	return &appRepo{db: db, log: baseLog.With("repo", "AppRepo")}
}

func (r *appRepo) Create(ctx context.Context, tx *gorm.DB, app *types.App) (*types.App, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).Create(app).Error; err != nil {
		return nil, MapError("app.create", err)
	}
	return app, nil
}

func (r *appRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.App, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.App
	if err := t.WithContext(ctx).
		Where("id = ?", id).
		First(&out).Error; err != nil {
		return nil, MapError("app.get", err)
	}
	return &out, nil
}

func (r *appRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*types.App, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.App
	if err := t.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&out).Error; err != nil {
		return nil, MapError("app.get_for_update", err)
	}
	return &out, nil
}

func (r *appRepo) Update(ctx context.Context, tx *gorm.DB, app *types.App) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).Save(app).Error; err != nil {
		return MapError("app.update", err)
	}
	return nil
}

func (r *appRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id string, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	if err := t.WithContext(ctx).
		Model(&types.App{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return MapError("app.update_fields", err)
	}
	return nil
}

func (r *appRepo) ListByAuthor(ctx context.Context, tx *gorm.DB, authorID uuid.UUID) ([]*types.App, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.App
	if err := t.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, MapError("app.list_by_author", err)
	}
	return out, nil
}

func (r *appRepo) ListPublished(ctx context.Context, tx *gorm.DB, filter ListPublishedFilter) ([]*types.App, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := t.WithContext(ctx).
		Where("status = ?", types.AppStatusPublished)
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Tag != "" {
		// Marshal keeps quotes and backslashes in the tag valid JSON.
		tagJSON, _ := json.Marshal([]string{filter.Tag})
		q = q.Where("tags @> ?", string(tagJSON))
	}
	var out []*types.App
	if err := q.Order("name ASC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&out).Error; err != nil {
		return nil, MapError("app.list_published", err)
	}
	return out, nil
}

func (r *appRepo) Search(ctx context.Context, tx *gorm.DB, query string, limit, offset int) ([]*types.App, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	pattern := "%" + query + "%"
	var out []*types.App
	if err := t.WithContext(ctx).
		Where("status = ?", types.AppStatusPublished).
		Where("name ILIKE ? OR description ILIKE ?", pattern, pattern).
		Order("name ASC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, MapError("app.search", err)
	}
	return out, nil
}

func (r *appRepo) ListTopInstalled(ctx context.Context, tx *gorm.DB, limit int) ([]*types.App, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	var out []*types.App
	if err := t.WithContext(ctx).
		Where("status = ?", types.AppStatusPublished).
		Order("install_count DESC, name ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, MapError("app.list_top_installed", err)
	}
	return out, nil
}

func (r *appRepo) IncrementInstallCount(ctx context.Context, tx *gorm.DB, id string, delta int64) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).
		Model(&types.App{}).
		Where("id = ?", id).
		UpdateColumn("install_count", gorm.Expr("install_count + ?", delta)).Error; err != nil {
		return MapError("app.increment_install_count", err)
	}
	return nil
}
