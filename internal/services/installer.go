package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/aisohq/aiso-market/internal/catalog"
	"github.com/aisohq/aiso-market/internal/data/repos"
	"github.com/aisohq/aiso-market/internal/data/txn"
	types "github.com/aisohq/aiso-market/internal/domain"
	"github.com/aisohq/aiso-market/internal/pkg/dbctx"
	"github.com/aisohq/aiso-market/internal/pkg/logger"
)

// InstalledApp is an active install joined with its app and version rows.
type InstalledApp struct {
	Install *types.AppInstall `json:"install"`
	App     *types.App        `json:"app"`
	Version *types.AppVersion `json:"version"`
}

// InstallerService authorizes installs. Consent is checked against the
// declared permission set of the exact version being installed, never
// against any other version.
type InstallerService interface {
	Install(ctx context.Context, userID, versionID uuid.UUID, consented []string) (*types.AppInstall, error)
	Uninstall(ctx context.Context, userID uuid.UUID, appID string) error
	UpdateConsent(ctx context.Context, userID uuid.UUID, appID string, consented []string) (*types.AppInstall, error)
	ActivePermissions(ctx context.Context, userID uuid.UUID, appID string) (types.PermissionSet, error)
	ListInstalled(ctx context.Context, userID uuid.UUID) ([]*InstalledApp, error)
}

type installerService struct {
	log         *logger.Logger
	tx          txn.TxRunner
	catalog     *catalog.Catalog
	appRepo     repos.AppRepo
	versionRepo repos.AppVersionRepo
	installRepo repos.AppInstallRepo
}

func NewInstallerService(
	log *logger.Logger,
	tx txn.TxRunner,
	cat *catalog.Catalog,
	appRepo repos.AppRepo,
	versionRepo repos.AppVersionRepo,
	installRepo repos.AppInstallRepo,
) InstallerService {
	return &installerService{
		log:         log.With("service", "InstallerService"),
		tx:          tx,
		catalog:     cat,
		appRepo:     appRepo,
		versionRepo: versionRepo,
		installRepo: installRepo,
	}
}

func (s *installerService) Install(ctx context.Context, userID, versionID uuid.UUID, consented []string) (*types.AppInstall, error) {
	if err := s.catalog.Validate(consented); err != nil {
		return nil, err
	}
	consent := types.NormalizePermissions(consented)

	var result *types.AppInstall
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		version, err := s.versionRepo.GetByID(dbc.Ctx, dbc.Tx, versionID)
		if err != nil {
			return err
		}
		app, err := s.appRepo.GetByID(dbc.Ctx, dbc.Tx, version.AppID)
		if err != nil {
			return err
		}
		if version.Status != types.VersionStatusApproved || !app.Installable() {
			return types.NewError(types.CodeNotInstallable, "installer.install",
				fmt.Sprintf("version %s of %s is not installable", version.Version, app.ID), nil)
		}
		if err := s.checkConsent(consent, version.Declared()); err != nil {
			return err
		}

		// Lock the user's active install row, if any, so concurrent
		// installs for the same (user, app) serialize here.
		existing, err := s.installRepo.GetActive(dbc.Ctx, dbc.Tx, userID, app.ID, true)
		if err != nil {
			return err
		}
		if existing != nil && existing.VersionID == versionID && existing.Consented().Equal(consent) {
			result = existing
			return nil
		}
		if existing != nil {
			if err := s.installRepo.UpdateStatus(dbc.Ctx, dbc.Tx, existing.ID, types.InstallStatusSuperseded); err != nil {
				return err
			}
		}

		result, err = s.installRepo.Create(dbc.Ctx, dbc.Tx, &types.AppInstall{
			ID:                   uuid.New(),
			UserID:               userID,
			AppID:                app.ID,
			VersionID:            versionID,
			ConsentedPermissions: datatypes.NewJSONSlice([]string(consent)),
			Status:               types.InstallStatusActive,
			InstalledAt:          time.Now().UTC(),
		})
		if err != nil {
			return err
		}

		// install_count tracks currently active installs; a supersede
		// replaces one active row with another and nets to zero.
		if existing == nil {
			if err := s.appRepo.IncrementInstallCount(dbc.Ctx, dbc.Tx, app.ID, 1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("App installed", "user_id", userID, "version_id", versionID)
	return result, nil
}

func (s *installerService) Uninstall(ctx context.Context, userID uuid.UUID, appID string) error {
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		active, err := s.installRepo.GetActive(dbc.Ctx, dbc.Tx, userID, appID, true)
		if err != nil {
			return err
		}
		if active == nil {
			return types.NewError(types.CodeNotInstalled, "installer.uninstall", "app is not installed", nil)
		}
		if err := s.installRepo.UpdateStatus(dbc.Ctx, dbc.Tx, active.ID, types.InstallStatusUninstalled); err != nil {
			return err
		}
		return s.appRepo.IncrementInstallCount(dbc.Ctx, dbc.Tx, appID, -1)
	})
	if err != nil {
		return err
	}

	s.log.Info("App uninstalled", "user_id", userID, "app_id", appID)
	return nil
}

func (s *installerService) UpdateConsent(ctx context.Context, userID uuid.UUID, appID string, consented []string) (*types.AppInstall, error) {
	if err := s.catalog.Validate(consented); err != nil {
		return nil, err
	}
	consent := types.NormalizePermissions(consented)

	var result *types.AppInstall
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		active, err := s.installRepo.GetActive(dbc.Ctx, dbc.Tx, userID, appID, true)
		if err != nil {
			return err
		}
		if active == nil {
			return types.NewError(types.CodeNotInstalled, "installer.update_consent", "app is not installed", nil)
		}
		version, err := s.versionRepo.GetByID(dbc.Ctx, dbc.Tx, active.VersionID)
		if err != nil {
			return err
		}
		if err := s.checkConsent(consent, version.Declared()); err != nil {
			return err
		}
		if active.Consented().Equal(consent) {
			result = active
			return nil
		}

		if err := s.installRepo.UpdateStatus(dbc.Ctx, dbc.Tx, active.ID, types.InstallStatusSuperseded); err != nil {
			return err
		}
		result, err = s.installRepo.Create(dbc.Ctx, dbc.Tx, &types.AppInstall{
			ID:                   uuid.New(),
			UserID:               userID,
			AppID:                appID,
			VersionID:            active.VersionID,
			ConsentedPermissions: datatypes.NewJSONSlice([]string(consent)),
			Status:               types.InstallStatusActive,
			InstalledAt:          active.InstalledAt,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *installerService) ActivePermissions(ctx context.Context, userID uuid.UUID, appID string) (types.PermissionSet, error) {
	active, err := s.installRepo.GetActive(ctx, nil, userID, appID, false)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, types.NewError(types.CodeNotInstalled, "installer.active_permissions", "app is not installed", nil)
	}
	return active.Consented(), nil
}

func (s *installerService) ListInstalled(ctx context.Context, userID uuid.UUID) ([]*InstalledApp, error) {
	installs, err := s.installRepo.ListActiveByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*InstalledApp, 0, len(installs))
	for _, inst := range installs {
		app, err := s.appRepo.GetByID(ctx, nil, inst.AppID)
		if err != nil {
			return nil, err
		}
		version, err := s.versionRepo.GetByID(ctx, nil, inst.VersionID)
		if err != nil {
			return nil, err
		}
		out = append(out, &InstalledApp{Install: inst, App: app, Version: version})
	}
	return out, nil
}

func (s *installerService) checkConsent(consent, declared types.PermissionSet) error {
	if !consent.SubsetOf(declared) {
		return types.NewError(types.CodeOverreach, "installer.consent",
			"consent includes permissions the version does not declare", nil)
	}
	mandatory := s.catalog.MandatorySubset(declared)
	if !mandatory.SubsetOf(consent) {
		return types.NewError(types.CodeIncompleteConsent, "installer.consent",
			"consent is missing mandatory declared permissions", nil)
	}
	return nil
}
