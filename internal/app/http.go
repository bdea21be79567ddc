package app

import (
	"github.com/gin-gonic/gin"

	internalhttp "github.com/aisohq/aiso-market/internal/http"
	"github.com/aisohq/aiso-market/internal/pkg/logger"
)

func wireRouter(log *logger.Logger, h Handlers, mw Middleware) *gin.Engine {
	log.Info("Wiring router...")
	return internalhttp.NewRouter(internalhttp.RouterConfig{
		Log:              log,
		AuthMiddleware:   mw.Auth,
		HealthHandler:    h.Health,
		AuthHandler:      h.Auth,
		MarketHandler:    h.Market,
		DeveloperHandler: h.Developer,
		AdminHandler:     h.Admin,
		UserAppsHandler:  h.UserApps,
	})
}
