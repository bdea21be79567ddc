package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/aisohq/aiso-market/internal/data/repos"
	"github.com/aisohq/aiso-market/internal/data/txn"
	types "github.com/aisohq/aiso-market/internal/domain"
	"github.com/aisohq/aiso-market/internal/pkg/dbctx"
	"github.com/aisohq/aiso-market/internal/pkg/logger"
)

type CreateAppInput struct {
	ID              string
	Name            string
	Description     string
	LongDescription string
	Category        string
	Tags            []string
	Manifest        datatypes.JSON
}

type UpdateAppInput struct {
	Name            *string
	Description     *string
	LongDescription *string
	Category        *string
	Tags            []string
	Manifest        datatypes.JSON
	IconURL         *string
}

type AppStats struct {
	App            *types.App         `json:"app"`
	ActiveInstalls int64              `json:"active_installs"`
	Rating         *RatingSummaryView `json:"rating"`
	Versions       []*types.AppVersion `json:"versions"`
}

// AppService covers the developer portal's application management plus the
// admin-only suspension controls.
type AppService interface {
	Create(ctx context.Context, authorID uuid.UUID, in CreateAppInput) (*types.App, error)
	Update(ctx context.Context, authorID uuid.UUID, appID string, in UpdateAppInput) (*types.App, error)
	GetOwned(ctx context.Context, authorID uuid.UUID, appID string) (*types.App, error)
	ListMine(ctx context.Context, authorID uuid.UUID) ([]*types.App, error)
	Stats(ctx context.Context, authorID uuid.UUID, appID string) (*AppStats, error)
	Retire(ctx context.Context, authorID uuid.UUID, appID string) error
	AddScreenshot(ctx context.Context, authorID uuid.UUID, appID, url string, sortOrder int) (*types.AppScreenshot, error)
	RemoveScreenshot(ctx context.Context, authorID uuid.UUID, shotID uuid.UUID) error
	ReorderScreenshots(ctx context.Context, authorID uuid.UUID, appID string, orderedIDs []uuid.UUID) error

	Suspend(ctx context.Context, appID string) (*types.App, error)
	Unsuspend(ctx context.Context, appID string) (*types.App, error)
}

type appService struct {
	log         *logger.Logger
	tx          txn.TxRunner
	appRepo     repos.AppRepo
	versionRepo repos.AppVersionRepo
	installRepo repos.AppInstallRepo
	shotRepo    repos.AppScreenshotRepo
	rating      RatingService
	icons       IconService
}

func NewAppService(
	log *logger.Logger,
	tx txn.TxRunner,
	appRepo repos.AppRepo,
	versionRepo repos.AppVersionRepo,
	installRepo repos.AppInstallRepo,
	shotRepo repos.AppScreenshotRepo,
	rating RatingService,
	icons IconService,
) AppService {
	return &appService{
		log:         log.With("service", "AppService"),
		tx:          tx,
		appRepo:     appRepo,
		versionRepo: versionRepo,
		installRepo: installRepo,
		shotRepo:    shotRepo,
		rating:      rating,
		icons:       icons,
	}
}

func (s *appService) Create(ctx context.Context, authorID uuid.UUID, in CreateAppInput) (*types.App, error) {
	id := strings.TrimSpace(strings.ToLower(in.ID))
	if !ValidAppID(id) {
		return nil, types.NewError(types.CodeValidation, "app.create",
			"app id must be a lowercase slug of 3 to 100 characters", nil)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, types.NewError(types.CodeValidation, "app.create", "name is required", nil)
	}
	if in.Category != "" && !ValidCategory(in.Category) {
		return nil, types.NewError(types.CodeValidation, "app.create", "unknown category", nil)
	}

	app := &types.App{
		ID:              id,
		Name:            strings.TrimSpace(in.Name),
		Description:     in.Description,
		LongDescription: in.LongDescription,
		AuthorID:        authorID,
		Category:        in.Category,
		Tags:            datatypes.NewJSONSlice(in.Tags),
		Manifest:        in.Manifest,
		Status:          types.AppStatusDraft,
	}
	if s.icons != nil {
		url, err := s.icons.Render(id, app.Name)
		if err != nil {
			s.log.Warn("Icon render failed", "app_id", id, "error", err)
		} else {
			app.IconURL = url
		}
	}

	created, err := s.appRepo.Create(ctx, nil, app)
	if err != nil {
		return nil, err
	}
	s.log.Info("App created", "app_id", created.ID, "author_id", authorID)
	return created, nil
}

func (s *appService) Update(ctx context.Context, authorID uuid.UUID, appID string, in UpdateAppInput) (*types.App, error) {
	var updated *types.App
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		app, err := s.getOwned(dbc.Ctx, dbc.Tx, authorID, appID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if in.Name != nil {
			if strings.TrimSpace(*in.Name) == "" {
				return types.NewError(types.CodeValidation, "app.update", "name cannot be empty", nil)
			}
			updates["name"] = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.LongDescription != nil {
			updates["long_description"] = *in.LongDescription
		}
		if in.Category != nil {
			if *in.Category != "" && !ValidCategory(*in.Category) {
				return types.NewError(types.CodeValidation, "app.update", "unknown category", nil)
			}
			updates["category"] = *in.Category
		}
		if in.Tags != nil {
			updates["tags"] = datatypes.NewJSONSlice(in.Tags)
		}
		if in.Manifest != nil {
			updates["manifest"] = in.Manifest
		}
		if in.IconURL != nil {
			updates["icon_url"] = *in.IconURL
		}
		if len(updates) > 0 {
			if err := s.appRepo.UpdateFields(dbc.Ctx, dbc.Tx, app.ID, updates); err != nil {
				return err
			}
		}
		updated, err = s.appRepo.GetByID(dbc.Ctx, dbc.Tx, app.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *appService) ListMine(ctx context.Context, authorID uuid.UUID) ([]*types.App, error) {
	return s.appRepo.ListByAuthor(ctx, nil, authorID)
}

func (s *appService) Stats(ctx context.Context, authorID uuid.UUID, appID string) (*AppStats, error) {
	app, err := s.getOwned(ctx, nil, authorID, appID)
	if err != nil {
		return nil, err
	}
	installs, err := s.installRepo.CountByApp(ctx, nil, appID)
	if err != nil {
		return nil, err
	}
	summary, err := s.rating.Summary(ctx, appID)
	if err != nil {
		return nil, err
	}
	versions, err := s.versionRepo.ListByApp(ctx, nil, appID)
	if err != nil {
		return nil, err
	}
	return &AppStats{App: app, ActiveInstalls: installs, Rating: summary, Versions: versions}, nil
}

// Retire permanently pulls the app from the storefront. Existing installs
// keep working; retirement is terminal.
func (s *appService) Retire(ctx context.Context, authorID uuid.UUID, appID string) error {
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		app, err := s.appRepo.GetByIDForUpdate(dbc.Ctx, dbc.Tx, appID)
		if err != nil {
			return err
		}
		if app.AuthorID != authorID {
			return types.NewError(types.CodeForbidden, "app.retire", "not the application owner", nil)
		}
		if app.Status == types.AppStatusRetired {
			return nil
		}
		return s.appRepo.UpdateFields(dbc.Ctx, dbc.Tx, appID, map[string]interface{}{
			"status": types.AppStatusRetired,
		})
	})
	if err != nil {
		return err
	}
	s.log.Info("App retired", "app_id", appID)
	return nil
}

func (s *appService) AddScreenshot(ctx context.Context, authorID uuid.UUID, appID, url string, sortOrder int) (*types.AppScreenshot, error) {
	if strings.TrimSpace(url) == "" {
		return nil, types.NewError(types.CodeValidation, "app.add_screenshot", "url is required", nil)
	}
	if _, err := s.getOwned(ctx, nil, authorID, appID); err != nil {
		return nil, err
	}
	return s.shotRepo.Create(ctx, nil, &types.AppScreenshot{
		ID:        uuid.New(),
		AppID:     appID,
		URL:       strings.TrimSpace(url),
		SortOrder: sortOrder,
	})
}

func (s *appService) RemoveScreenshot(ctx context.Context, authorID uuid.UUID, shotID uuid.UUID) error {
	shot, err := s.shotRepo.GetByID(ctx, nil, shotID)
	if err != nil {
		return err
	}
	if _, err := s.getOwned(ctx, nil, authorID, shot.AppID); err != nil {
		return err
	}
	return s.shotRepo.DeleteByID(ctx, nil, shotID)
}

// ReorderScreenshots rewrites sort_order for the whole gallery. The ordered
// list must contain exactly the app's current screenshot ids.
func (s *appService) ReorderScreenshots(ctx context.Context, authorID uuid.UUID, appID string, orderedIDs []uuid.UUID) error {
	return s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if _, err := s.getOwned(dbc.Ctx, dbc.Tx, authorID, appID); err != nil {
			return err
		}
		shots, err := s.shotRepo.ListByApp(dbc.Ctx, dbc.Tx, appID)
		if err != nil {
			return err
		}
		if len(orderedIDs) != len(shots) {
			return types.NewError(types.CodeValidation, "app.reorder_screenshots",
				"ordered ids must cover every screenshot exactly once", nil)
		}
		existing := make(map[uuid.UUID]bool, len(shots))
		for _, shot := range shots {
			existing[shot.ID] = true
		}
		seen := make(map[uuid.UUID]bool, len(orderedIDs))
		for _, id := range orderedIDs {
			if !existing[id] || seen[id] {
				return types.NewError(types.CodeValidation, "app.reorder_screenshots",
					"ordered ids must cover every screenshot exactly once", nil)
			}
			seen[id] = true
		}
		for i, id := range orderedIDs {
			if err := s.shotRepo.UpdateSortOrder(dbc.Ctx, dbc.Tx, id, i); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *appService) Suspend(ctx context.Context, appID string) (*types.App, error) {
	return s.setSuspension(ctx, appID, true)
}

func (s *appService) Unsuspend(ctx context.Context, appID string) (*types.App, error) {
	return s.setSuspension(ctx, appID, false)
}

func (s *appService) setSuspension(ctx context.Context, appID string, suspend bool) (*types.App, error) {
	var app *types.App
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		var err error
		app, err = s.appRepo.GetByIDForUpdate(dbc.Ctx, dbc.Tx, appID)
		if err != nil {
			return err
		}
		if app.Status == types.AppStatusRetired {
			return types.NewError(types.CodeInvalidTransition, "app.suspend", "app is retired", nil)
		}

		var status string
		if suspend {
			if app.Status == types.AppStatusSuspended {
				return nil
			}
			status = types.AppStatusSuspended
		} else {
			if app.Status != types.AppStatusSuspended {
				return types.NewError(types.CodeInvalidTransition, "app.unsuspend", "app is not suspended", nil)
			}
			status = types.AppStatusDraft
			if app.LatestVersion != "" {
				status = types.AppStatusPublished
			} else {
				pending, err := s.versionRepo.ListByStatus(dbc.Ctx, dbc.Tx, types.VersionStatusPendingReview)
				if err != nil {
					return err
				}
				for _, p := range pending {
					if p.AppID == appID {
						status = types.AppStatusPendingReview
						break
					}
				}
			}
		}
		app.Status = status
		return s.appRepo.UpdateFields(dbc.Ctx, dbc.Tx, appID, map[string]interface{}{"status": status})
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("App suspension changed", "app_id", appID, "status", app.Status)
	return app, nil
}

// GetOwned returns the app only to its author. Callers that write
// derived state (icon files) must check ownership through this before
// touching anything outside the database.
func (s *appService) GetOwned(ctx context.Context, authorID uuid.UUID, appID string) (*types.App, error) {
	return s.getOwned(ctx, nil, authorID, appID)
}

func (s *appService) getOwned(ctx context.Context, tx *gorm.DB, authorID uuid.UUID, appID string) (*types.App, error) {
	app, err := s.appRepo.GetByID(ctx, tx, appID)
	if err != nil {
		return nil, err
	}
	if app.AuthorID != authorID {
		return nil, types.NewError(types.CodeForbidden, "app.owner_check", "not the application owner", nil)
	}
	return app, nil
}
