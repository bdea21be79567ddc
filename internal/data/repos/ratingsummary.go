package repos

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/aisohq/aiso-market/internal/domain"
	"github.com/aisohq/aiso-market/internal/pkg/logger"
)

type RatingSummaryRepo interface {
	// EnsureExists inserts a zero-valued summary row for the app if none
	// exists. Safe under concurrency (ON CONFLICT DO NOTHING).
	EnsureExists(ctx context.Context, tx *gorm.DB, appID string) error

	// GetForUpdate locks the summary row for the duration of the
	// transaction so increments are never lost under concurrent edits.
	GetForUpdate(ctx context.Context, tx *gorm.DB, appID string) (*types.RatingSummary, error)

	Get(ctx context.Context, tx *gorm.DB, appID string) (*types.RatingSummary, error)
	ApplyDelta(ctx context.Context, tx *gorm.DB, appID string, countDelta, sumDelta int64) error
	Replace(ctx context.Context, tx *gorm.DB, appID string, count, sum int64) error
}

type ratingSummaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRatingSummaryRepo(db *gorm.DB, baseLog *logger.Logger) RatingSummaryRepo {
	return &ratingSummaryRepo{db: db, log: baseLog.With("repo", "RatingSummaryRepo")}
}

func (r *ratingSummaryRepo) EnsureExists(ctx context.Context, tx *gorm.DB, appID string) error {
	t := tx
	if t == nil {
		t = r.db
	}
	row := &types.RatingSummary{AppID: appID, UpdatedAt: time.Now().UTC()}
	if err := t.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error; err != nil {
		return MapError("rating_summary.ensure_exists", err)
	}
	return nil
}

func (r *ratingSummaryRepo) GetForUpdate(ctx context.Context, tx *gorm.DB, appID string) (*types.RatingSummary, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.RatingSummary
	if err := t.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("app_id = ?", appID).
		First(&out).Error; err != nil {
		return nil, MapError("rating_summary.get_for_update", err)
	}
	return &out, nil
}

func (r *ratingSummaryRepo) Get(ctx context.Context, tx *gorm.DB, appID string) (*types.RatingSummary, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.RatingSummary
	if err := t.WithContext(ctx).
		Where("app_id = ?", appID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, MapError("rating_summary.get", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *ratingSummaryRepo) ApplyDelta(ctx context.Context, tx *gorm.DB, appID string, countDelta, sumDelta int64) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).
		Model(&types.RatingSummary{}).
		Where("app_id = ?", appID).
		Updates(map[string]interface{}{
			"review_count": gorm.Expr("review_count + ?", countDelta),
			"rating_sum":   gorm.Expr("rating_sum + ?", sumDelta),
			"updated_at":   time.Now().UTC(),
		}).Error; err != nil {
		return MapError("rating_summary.apply_delta", err)
	}
	return nil
}

func (r *ratingSummaryRepo) Replace(ctx context.Context, tx *gorm.DB, appID string, count, sum int64) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).
		Model(&types.RatingSummary{}).
		Where("app_id = ?", appID).
		Updates(map[string]interface{}{
			"review_count": count,
			"rating_sum":   sum,
			"updated_at":   time.Now().UTC(),
		}).Error; err != nil {
		return MapError("rating_summary.replace", err)
	}
	return nil
}
