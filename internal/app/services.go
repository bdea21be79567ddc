package app

import (
	"gorm.io/gorm"

	"github.com/aisohq/aiso-market/internal/catalog"
	redisclient "github.com/aisohq/aiso-market/internal/clients/redis"
	"github.com/aisohq/aiso-market/internal/data/txn"
	"github.com/aisohq/aiso-market/internal/pkg/logger"
	"github.com/aisohq/aiso-market/internal/services"
)

type Services struct {
	Auth           services.AuthService
	VersionStore   services.VersionStoreService
	ReviewPipeline services.ReviewPipelineService
	Installer      services.InstallerService
	Rating         services.RatingService
	Market         services.MarketService
	App            services.AppService
	Icons          services.IconService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, cat *catalog.Catalog) (Services, error) {
	log.Info("Wiring services...")
	tx := txn.NewGormTxRunner(db)

	// The summary cache and icon renderer are optional; the marketplace
	// degrades to direct reads and name-less icons without them.
	var cache services.SummaryCache
	if c, err := redisclient.NewSummaryCache(log, cfg.SummaryCacheTTL); err != nil {
		log.Warn("Summary cache disabled", "error", err)
	} else {
		cache = c
	}

	var icons services.IconService
	if svc, err := services.NewIconService(log); err != nil {
		log.Warn("Icon service disabled", "error", err)
	} else {
		icons = svc
	}

	auth := services.NewAuthService(log, tx, r.User, r.UserToken, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	versionStore := services.NewVersionStoreService(log, tx, cat, r.App, r.AppVersion)
	reviewPipeline := services.NewReviewPipelineService(log, tx, r.App, r.AppVersion, r.ReviewRecord)
	installer := services.NewInstallerService(log, tx, cat, r.App, r.AppVersion, r.AppInstall)
	rating := services.NewRatingService(log, tx, r.App, r.AppReview, r.RatingSummary, cache)
	market := services.NewMarketService(log, r.App, r.AppVersion, r.AppScreenshot, rating)
	appSvc := services.NewAppService(log, tx, r.App, r.AppVersion, r.AppInstall, r.AppScreenshot, rating, icons)

	return Services{
		Auth:           auth,
		VersionStore:   versionStore,
		ReviewPipeline: reviewPipeline,
		Installer:      installer,
		Rating:         rating,
		Market:         market,
		App:            appSvc,
		Icons:          icons,
	}, nil
}
