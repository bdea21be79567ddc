package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/aisohq/aiso-market/internal/catalog"
	"github.com/aisohq/aiso-market/internal/data/repos"
	"github.com/aisohq/aiso-market/internal/data/txn"
	types "github.com/aisohq/aiso-market/internal/domain"
	"github.com/aisohq/aiso-market/internal/pkg/dbctx"
	"github.com/aisohq/aiso-market/internal/pkg/logger"
)

// SubmitVersionInput carries a developer's version submission. ArtifactRef
// is a content hash or URL and never changes after creation.
type SubmitVersionInput struct {
	AppID               string
	Version             string
	ArtifactRef         string
	Changelog           string
	DeclaredPermissions []string
}

// VersionStoreService owns the immutable record of submitted application
// versions. The only mutable field on a version is its review status, and
// that belongs to the review pipeline.
type VersionStoreService interface {
	Submit(ctx context.Context, developerID uuid.UUID, in SubmitVersionInput) (*types.AppVersion, error)
	Get(ctx context.Context, versionID uuid.UUID) (*types.AppVersion, error)
	ListByApp(ctx context.Context, developerID uuid.UUID, appID string) ([]*types.AppVersion, error)
}

type versionStoreService struct {
	log         *logger.Logger
	tx          txn.TxRunner
	catalog     *catalog.Catalog
	appRepo     repos.AppRepo
	versionRepo repos.AppVersionRepo
}

func NewVersionStoreService(
	log *logger.Logger,
	tx txn.TxRunner,
	cat *catalog.Catalog,
	appRepo repos.AppRepo,
	versionRepo repos.AppVersionRepo,
) VersionStoreService {
	return &versionStoreService{
		log:         log.With("service", "VersionStoreService"),
		tx:          tx,
		catalog:     cat,
		appRepo:     appRepo,
		versionRepo: versionRepo,
	}
}

func (s *versionStoreService) Submit(ctx context.Context, developerID uuid.UUID, in SubmitVersionInput) (*types.AppVersion, error) {
	version := strings.TrimSpace(in.Version)
	if !types.ValidVersion(version) {
		return nil, types.NewError(types.CodeValidation, "version_store.submit",
			fmt.Sprintf("malformed semantic version %q", in.Version), nil)
	}
	if strings.TrimSpace(in.ArtifactRef) == "" {
		return nil, types.NewError(types.CodeValidation, "version_store.submit", "artifact reference is required", nil)
	}
	if err := s.catalog.Validate(in.DeclaredPermissions); err != nil {
		return nil, err
	}
	declared := types.NormalizePermissions(in.DeclaredPermissions)

	var created *types.AppVersion
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		// Lock the app row to serialize submissions per application.
		app, err := s.appRepo.GetByIDForUpdate(dbc.Ctx, dbc.Tx, in.AppID)
		if err != nil {
			return err
		}
		if app.Status == types.AppStatusRetired {
			return types.NewError(types.CodeNotFound, "version_store.submit", "application is retired", nil)
		}
		if app.AuthorID != developerID {
			return types.NewError(types.CodeForbidden, "version_store.submit", "not the application owner", nil)
		}

		existing, err := s.versionRepo.ListByApp(dbc.Ctx, dbc.Tx, app.ID)
		if err != nil {
			return err
		}
		for _, v := range existing {
			switch cmp := types.CompareVersions(version, v.Version); {
			case cmp == 0:
				return types.NewError(types.CodeDuplicateVersion, "version_store.submit",
					fmt.Sprintf("version %s already submitted", version), nil)
			case cmp < 0:
				return types.NewError(types.CodeVersionOrdering, "version_store.submit",
					fmt.Sprintf("version %s does not compare greater than %s", version, v.Version), nil)
			}
		}

		row := &types.AppVersion{
			ID:                  uuid.New(),
			AppID:               app.ID,
			Version:             version,
			ArtifactRef:         strings.TrimSpace(in.ArtifactRef),
			Changelog:           in.Changelog,
			DeclaredPermissions: datatypes.NewJSONSlice([]string(declared)),
			Status:              types.VersionStatusPendingReview,
		}
		created, err = s.versionRepo.Create(dbc.Ctx, dbc.Tx, row)
		if err != nil {
			// The unique (app_id, version) index backs the in-flight check.
			if types.IsCode(err, types.CodeConflict) {
				return types.NewError(types.CodeDuplicateVersion, "version_store.submit",
					fmt.Sprintf("version %s already submitted", version), err)
			}
			return err
		}

		if app.Status == types.AppStatusDraft {
			if err := s.appRepo.UpdateFields(dbc.Ctx, dbc.Tx, app.ID, map[string]interface{}{
				"status": types.AppStatusPendingReview,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Version submitted", "app_id", in.AppID, "version", version)
	return created, nil
}

func (s *versionStoreService) Get(ctx context.Context, versionID uuid.UUID) (*types.AppVersion, error) {
	return s.versionRepo.GetByID(ctx, nil, versionID)
}

func (s *versionStoreService) ListByApp(ctx context.Context, developerID uuid.UUID, appID string) ([]*types.AppVersion, error) {
	app, err := s.appRepo.GetByID(ctx, nil, appID)
	if err != nil {
		return nil, err
	}
	if app.AuthorID != developerID {
		return nil, types.NewError(types.CodeForbidden, "version_store.list_by_app", "not the application owner", nil)
	}
	return s.versionRepo.ListByApp(ctx, nil, appID)
}

var appSlugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{2,99}$`)

// ValidAppID reports whether the slug is acceptable as an application id.
func ValidAppID(id string) bool {
	return appSlugPattern.MatchString(id)
}
