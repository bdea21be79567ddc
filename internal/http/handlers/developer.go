package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/aisohq/aiso-market/internal/http/response"
	"github.com/aisohq/aiso-market/internal/requestdata"
	"github.com/aisohq/aiso-market/internal/services"
)

const maxIconUploadBytes = 4 << 20

type DeveloperHandler struct {
	appService   services.AppService
	versionStore services.VersionStoreService
	icons        services.IconService
}

func NewDeveloperHandler(appService services.AppService, versionStore services.VersionStoreService, icons services.IconService) *DeveloperHandler {
	return &DeveloperHandler{
		appService:   appService,
		versionStore: versionStore,
		icons:        icons,
	}
}

// POST /developer/apps
func (h *DeveloperHandler) CreateApp(c *gin.Context) {
	var req struct {
		ID              string         `json:"id"`
		Name            string         `json:"name"`
		Description     string         `json:"description"`
		LongDescription string         `json:"long_description"`
		Category        string         `json:"category"`
		Tags            []string       `json:"tags"`
		Manifest        datatypes.JSON `json:"manifest"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	rd := requestdata.GetRequestData(c.Request.Context())
	app, err := h.appService.Create(c.Request.Context(), rd.UserID, services.CreateAppInput{
		ID:              req.ID,
		Name:            req.Name,
		Description:     req.Description,
		LongDescription: req.LongDescription,
		Category:        req.Category,
		Tags:            req.Tags,
		Manifest:        req.Manifest,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"app": app})
}

// PATCH /developer/apps/:id
func (h *DeveloperHandler) UpdateApp(c *gin.Context) {
	var req struct {
		Name            *string        `json:"name"`
		Description     *string        `json:"description"`
		LongDescription *string        `json:"long_description"`
		Category        *string        `json:"category"`
		Tags            []string       `json:"tags"`
		Manifest        datatypes.JSON `json:"manifest"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	rd := requestdata.GetRequestData(c.Request.Context())
	app, err := h.appService.Update(c.Request.Context(), rd.UserID, c.Param("id"), services.UpdateAppInput{
		Name:            req.Name,
		Description:     req.Description,
		LongDescription: req.LongDescription,
		Category:        req.Category,
		Tags:            req.Tags,
		Manifest:        req.Manifest,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"app": app})
}

// GET /developer/apps
func (h *DeveloperHandler) ListApps(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	apps, err := h.appService.ListMine(c.Request.Context(), rd.UserID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"apps": apps})
}

// GET /developer/apps/:id/stats
func (h *DeveloperHandler) Stats(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	stats, err := h.appService.Stats(c.Request.Context(), rd.UserID, c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, stats)
}

// POST /developer/apps/:id/retire
func (h *DeveloperHandler) RetireApp(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if err := h.appService.Retire(c.Request.Context(), rd.UserID, c.Param("id")); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /developer/apps/:id/versions
func (h *DeveloperHandler) SubmitVersion(c *gin.Context) {
	var req struct {
		Version             string   `json:"version"`
		ArtifactRef         string   `json:"artifact_ref"`
		Changelog           string   `json:"changelog"`
		DeclaredPermissions []string `json:"declared_permissions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	rd := requestdata.GetRequestData(c.Request.Context())
	version, err := h.versionStore.Submit(c.Request.Context(), rd.UserID, services.SubmitVersionInput{
		AppID:               c.Param("id"),
		Version:             req.Version,
		ArtifactRef:         req.ArtifactRef,
		Changelog:           req.Changelog,
		DeclaredPermissions: req.DeclaredPermissions,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"version": version})
}

// GET /developer/apps/:id/versions
func (h *DeveloperHandler) ListVersions(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	versions, err := h.versionStore.ListByApp(c.Request.Context(), rd.UserID, c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"versions": versions})
}

// POST /developer/apps/:id/screenshots
func (h *DeveloperHandler) AddScreenshot(c *gin.Context) {
	var req struct {
		URL       string `json:"url"`
		SortOrder int    `json:"sort_order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	rd := requestdata.GetRequestData(c.Request.Context())
	shot, err := h.appService.AddScreenshot(c.Request.Context(), rd.UserID, c.Param("id"), req.URL, req.SortOrder)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"screenshot": shot})
}

// PUT /developer/apps/:id/screenshots
func (h *DeveloperHandler) ReorderScreenshots(c *gin.Context) {
	var req struct {
		ScreenshotIDs []uuid.UUID `json:"screenshot_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	rd := requestdata.GetRequestData(c.Request.Context())
	if err := h.appService.ReorderScreenshots(c.Request.Context(), rd.UserID, c.Param("id"), req.ScreenshotIDs); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// DELETE /developer/screenshots/:id
func (h *DeveloperHandler) RemoveScreenshot(c *gin.Context) {
	shotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	if err := h.appService.RemoveScreenshot(c.Request.Context(), rd.UserID, shotID); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// PUT /developer/apps/:id/icon
func (h *DeveloperHandler) UploadIcon(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	appID := c.Param("id")

	// Ownership first: SaveUploaded writes under the statically served
	// media dir, so a non-owner must be rejected before any file lands.
	if _, err := h.appService.GetOwned(c.Request.Context(), rd.UserID, appID); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxIconUploadBytes))
	if err != nil || len(raw) == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if h.icons == nil {
		response.RespondError(c, http.StatusServiceUnavailable, "retryable", errIconsDisabled)
		return
	}
	url, err := h.icons.SaveUploaded(appID, raw)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}

	app, err := h.appService.Update(c.Request.Context(), rd.UserID, appID, services.UpdateAppInput{IconURL: &url})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"app": app})
}

type handlerError string

func (e handlerError) Error() string { return string(e) }

const errIconsDisabled = handlerError("icon service is not configured")
