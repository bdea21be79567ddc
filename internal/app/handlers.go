package app

import (
	"github.com/aisohq/aiso-market/internal/catalog"
	httpH "github.com/aisohq/aiso-market/internal/http/handlers"
	"github.com/aisohq/aiso-market/internal/pkg/logger"
)

type Handlers struct {
	Health    *httpH.HealthHandler
	Auth      *httpH.AuthHandler
	Market    *httpH.MarketHandler
	Developer *httpH.DeveloperHandler
	Admin     *httpH.AdminHandler
	UserApps  *httpH.UserAppsHandler
}

func wireHandlers(log *logger.Logger, s Services, cat *catalog.Catalog) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(),
		Auth:      httpH.NewAuthHandler(s.Auth),
		Market:    httpH.NewMarketHandler(s.Market, cat),
		Developer: httpH.NewDeveloperHandler(s.App, s.VersionStore, s.Icons),
		Admin:     httpH.NewAdminHandler(s.ReviewPipeline, s.App, s.Rating),
		UserApps:  httpH.NewUserAppsHandler(s.Installer, s.Rating),
	}
}
