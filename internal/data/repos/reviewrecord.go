package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/aisohq/aiso-market/internal/domain"
	"github.com/aisohq/aiso-market/internal/pkg/logger"
)

// ReviewRecordRepo is append-only: there is deliberately no update or
// delete method on the audit trail.
type ReviewRecordRepo interface {
	Append(ctx context.Context, tx *gorm.DB, record *types.ReviewRecord) (*types.ReviewRecord, error)
	ListByVersion(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) ([]*types.ReviewRecord, error)
}

type reviewRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewRecordRepo(db *gorm.DB, baseLog *logger.Logger) ReviewRecordRepo {
	return &reviewRecordRepo{db: db, log: baseLog.With("repo", "ReviewRecordRepo")}
}

func (r *reviewRecordRepo) Append(ctx context.Context, tx *gorm.DB, record *types.ReviewRecord) (*types.ReviewRecord, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).Create(record).Error; err != nil {
		return nil, MapError("review_record.append", err)
	}
	return record, nil
}

func (r *reviewRecordRepo) ListByVersion(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) ([]*types.ReviewRecord, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.ReviewRecord
	if err := t.WithContext(ctx).
		Where("version_id = ?", versionID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, MapError("review_record.list_by_version", err)
	}
	return out, nil
}
