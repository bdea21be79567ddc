package http

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/aisohq/aiso-market/internal/http/handlers"
	httpMW "github.com/aisohq/aiso-market/internal/http/middleware"
	"github.com/aisohq/aiso-market/internal/pkg/logger"
	"github.com/aisohq/aiso-market/internal/requestdata"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler    *httpH.HealthHandler
	AuthHandler      *httpH.AuthHandler
	MarketHandler    *httpH.MarketHandler
	DeveloperHandler *httpH.DeveloperHandler
	AdminHandler     *httpH.AdminHandler
	UserAppsHandler  *httpH.UserAppsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("aiso-market"))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if mediaDir := strings.TrimSpace(os.Getenv("MEDIA_DIR")); mediaDir != "" {
		r.Static("/media", mediaDir)
	}

	api := r.Group("/api/v1")

	// Auth (public except logout)
	if cfg.AuthHandler != nil {
		auth := api.Group("/auth")
		auth.POST("/register", cfg.AuthHandler.Register)
		auth.POST("/login", cfg.AuthHandler.Login)
		auth.POST("/refresh", cfg.AuthHandler.Refresh)
		if cfg.AuthMiddleware != nil {
			auth.POST("/logout", cfg.AuthMiddleware.RequireAuth(), cfg.AuthHandler.Logout)
		}
	}

	// Storefront (public, read-only)
	if cfg.MarketHandler != nil {
		market := api.Group("/market")
		market.GET("/apps", cfg.MarketHandler.Browse)
		market.GET("/apps/:id", cfg.MarketHandler.GetApp)
		market.GET("/apps/:id/reviews", cfg.MarketHandler.Reviews)
		market.GET("/apps/:id/rating", cfg.MarketHandler.RatingSummary)
		market.GET("/search", cfg.MarketHandler.Search)
		market.GET("/featured", cfg.MarketHandler.Featured)
		market.GET("/categories", cfg.MarketHandler.Categories)
		market.GET("/permissions", cfg.MarketHandler.Permissions)
	}

	// Developer portal
	if cfg.DeveloperHandler != nil && cfg.AuthMiddleware != nil {
		dev := api.Group("/developer")
		dev.Use(cfg.AuthMiddleware.RequireRole(requestdata.RoleDeveloper))
		dev.POST("/apps", cfg.DeveloperHandler.CreateApp)
		dev.GET("/apps", cfg.DeveloperHandler.ListApps)
		dev.PATCH("/apps/:id", cfg.DeveloperHandler.UpdateApp)
		dev.GET("/apps/:id/stats", cfg.DeveloperHandler.Stats)
		dev.POST("/apps/:id/retire", cfg.DeveloperHandler.RetireApp)
		dev.POST("/apps/:id/versions", cfg.DeveloperHandler.SubmitVersion)
		dev.GET("/apps/:id/versions", cfg.DeveloperHandler.ListVersions)
		dev.POST("/apps/:id/screenshots", cfg.DeveloperHandler.AddScreenshot)
		dev.PUT("/apps/:id/screenshots", cfg.DeveloperHandler.ReorderScreenshots)
		dev.PUT("/apps/:id/icon", cfg.DeveloperHandler.UploadIcon)
		dev.DELETE("/screenshots/:id", cfg.DeveloperHandler.RemoveScreenshot)
	}

	// Review pipeline and moderation
	if cfg.AdminHandler != nil && cfg.AuthMiddleware != nil {
		admin := api.Group("/admin")
		admin.Use(cfg.AuthMiddleware.RequireRole(requestdata.RoleAdmin))
		admin.GET("/versions/pending", cfg.AdminHandler.ListPending)
		admin.POST("/versions/:id/approve", cfg.AdminHandler.Approve)
		admin.POST("/versions/:id/reject", cfg.AdminHandler.Reject)
		admin.GET("/versions/:id/history", cfg.AdminHandler.History)
		admin.POST("/apps/:id/suspend", cfg.AdminHandler.Suspend)
		admin.POST("/apps/:id/unsuspend", cfg.AdminHandler.Unsuspend)
		admin.POST("/apps/:id/recompute-rating", cfg.AdminHandler.RecomputeRating)
	}

	// Signed-in user surface
	if cfg.UserAppsHandler != nil && cfg.AuthMiddleware != nil {
		user := api.Group("/user")
		user.Use(cfg.AuthMiddleware.RequireAuth())
		user.POST("/installs", cfg.UserAppsHandler.Install)
		user.GET("/installs", cfg.UserAppsHandler.ListInstalled)
		user.DELETE("/installs/:appId", cfg.UserAppsHandler.Uninstall)
		user.GET("/installs/:appId/permissions", cfg.UserAppsHandler.ActivePermissions)
		user.PUT("/installs/:appId/permissions", cfg.UserAppsHandler.UpdateConsent)
		user.PUT("/apps/:appId/rating", cfg.UserAppsHandler.Rate)
		user.DELETE("/apps/:appId/rating", cfg.UserAppsHandler.RemoveRating)
	}

	return r
}
