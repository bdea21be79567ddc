package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/aisohq/aiso-market/internal/data/repos"
	"github.com/aisohq/aiso-market/internal/data/txn"
	types "github.com/aisohq/aiso-market/internal/domain"
	"github.com/aisohq/aiso-market/internal/pkg/dbctx"
	"github.com/aisohq/aiso-market/internal/pkg/logger"
)

// ReviewPipelineService moves submitted versions through review. Approved
// and rejected are terminal, and every decision leaves an audit record.
type ReviewPipelineService interface {
	Approve(ctx context.Context, reviewerID, versionID uuid.UUID, reason string) (*types.AppVersion, error)
	Reject(ctx context.Context, reviewerID, versionID uuid.UUID, reason string) (*types.AppVersion, error)
	ListPending(ctx context.Context) ([]*types.AppVersion, error)
	History(ctx context.Context, versionID uuid.UUID) ([]*types.ReviewRecord, error)
}

type reviewPipelineService struct {
	log         *logger.Logger
	tx          txn.TxRunner
	appRepo     repos.AppRepo
	versionRepo repos.AppVersionRepo
	recordRepo  repos.ReviewRecordRepo
}

func NewReviewPipelineService(
	log *logger.Logger,
	tx txn.TxRunner,
	appRepo repos.AppRepo,
	versionRepo repos.AppVersionRepo,
	recordRepo repos.ReviewRecordRepo,
) ReviewPipelineService {
	return &reviewPipelineService{
		log:         log.With("service", "ReviewPipelineService"),
		tx:          tx,
		appRepo:     appRepo,
		versionRepo: versionRepo,
		recordRepo:  recordRepo,
	}
}

func (s *reviewPipelineService) Approve(ctx context.Context, reviewerID, versionID uuid.UUID, reason string) (*types.AppVersion, error) {
	var version *types.AppVersion
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		var err error
		version, err = s.decide(dbc, reviewerID, versionID, types.VersionStatusApproved, types.ReviewDecisionApprove, reason)
		if err != nil {
			return err
		}

		app, err := s.appRepo.GetByIDForUpdate(dbc.Ctx, dbc.Tx, version.AppID)
		if err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if app.LatestVersion == "" || types.CompareVersions(version.Version, app.LatestVersion) > 0 {
			updates["latest_version"] = version.Version
		}
		// Suspension and retirement outrank publication.
		if app.Status == types.AppStatusDraft || app.Status == types.AppStatusPendingReview {
			updates["status"] = types.AppStatusPublished
		}
		if len(updates) > 0 {
			if err := s.appRepo.UpdateFields(dbc.Ctx, dbc.Tx, app.ID, updates); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Version approved", "version_id", versionID, "reviewer_id", reviewerID)
	return version, nil
}

func (s *reviewPipelineService) Reject(ctx context.Context, reviewerID, versionID uuid.UUID, reason string) (*types.AppVersion, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, types.NewError(types.CodeMissingReason, "review_pipeline.reject", "rejection requires a reason", nil)
	}

	var version *types.AppVersion
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		var err error
		version, err = s.decide(dbc, reviewerID, versionID, types.VersionStatusRejected, types.ReviewDecisionReject, reason)
		if err != nil {
			return err
		}

		app, err := s.appRepo.GetByIDForUpdate(dbc.Ctx, dbc.Tx, version.AppID)
		if err != nil {
			return err
		}
		// An app that has never published and has nothing else in review
		// goes back to the developer's drawing board.
		if app.Status == types.AppStatusPendingReview && app.LatestVersion == "" {
			pending, err := s.versionRepo.ListByStatus(dbc.Ctx, dbc.Tx, types.VersionStatusPendingReview)
			if err != nil {
				return err
			}
			remaining := false
			for _, p := range pending {
				if p.AppID == app.ID {
					remaining = true
					break
				}
			}
			if !remaining {
				if err := s.appRepo.UpdateFields(dbc.Ctx, dbc.Tx, app.ID, map[string]interface{}{
					"status": types.AppStatusDraft,
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Version rejected", "version_id", versionID, "reviewer_id", reviewerID)
	return version, nil
}

// decide performs the compare-and-set transition and appends the audit
// record. Exactly one of two concurrent decisions on the same version wins;
// the loser observes a stale status and gets invalid_transition.
func (s *reviewPipelineService) decide(dbc dbctx.Context, reviewerID, versionID uuid.UUID, to, decision, reason string) (*types.AppVersion, error) {
	version, err := s.versionRepo.GetByID(dbc.Ctx, dbc.Tx, versionID)
	if err != nil {
		return nil, err
	}

	ok, err := s.versionRepo.TransitionStatus(dbc.Ctx, dbc.Tx, versionID, types.VersionStatusPendingReview, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, types.NewError(types.CodeInvalidTransition, "review_pipeline.decide",
			"version is not pending review", nil)
	}
	version.Status = to

	if _, err := s.recordRepo.Append(dbc.Ctx, dbc.Tx, &types.ReviewRecord{
		ID:         uuid.New(),
		VersionID:  versionID,
		ReviewerID: reviewerID,
		Decision:   decision,
		Reason:     reason,
	}); err != nil {
		return nil, err
	}
	return version, nil
}

func (s *reviewPipelineService) ListPending(ctx context.Context) ([]*types.AppVersion, error) {
	return s.versionRepo.ListByStatus(ctx, nil, types.VersionStatusPendingReview)
}

func (s *reviewPipelineService) History(ctx context.Context, versionID uuid.UUID) ([]*types.ReviewRecord, error) {
	if _, err := s.versionRepo.GetByID(ctx, nil, versionID); err != nil {
		return nil, err
	}
	return s.recordRepo.ListByVersion(ctx, nil, versionID)
}
