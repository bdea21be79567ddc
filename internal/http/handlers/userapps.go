package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aisohq/aiso-market/internal/http/response"
	"github.com/aisohq/aiso-market/internal/requestdata"
	"github.com/aisohq/aiso-market/internal/services"
)

// UserAppsHandler covers the signed-in user's install and rating surface.
type UserAppsHandler struct {
	installer services.InstallerService
	rating    services.RatingService
}

func NewUserAppsHandler(installer services.InstallerService, rating services.RatingService) *UserAppsHandler {
	return &UserAppsHandler{installer: installer, rating: rating}
}

// POST /user/installs
func (h *UserAppsHandler) Install(c *gin.Context) {
	var req struct {
		VersionID            string   `json:"version_id"`
		ConsentedPermissions []string `json:"consented_permissions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	versionID, err := uuid.Parse(req.VersionID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	rd := requestdata.GetRequestData(c.Request.Context())
	install, err := h.installer.Install(c.Request.Context(), rd.UserID, versionID, req.ConsentedPermissions)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"install": install})
}

// DELETE /user/installs/:appId
func (h *UserAppsHandler) Uninstall(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if err := h.installer.Uninstall(c.Request.Context(), rd.UserID, c.Param("appId")); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /user/installs
func (h *UserAppsHandler) ListInstalled(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	installed, err := h.installer.ListInstalled(c.Request.Context(), rd.UserID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"installed": installed})
}

// GET /user/installs/:appId/permissions
func (h *UserAppsHandler) ActivePermissions(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	perms, err := h.installer.ActivePermissions(c.Request.Context(), rd.UserID, c.Param("appId"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"permissions": perms})
}

// PUT /user/installs/:appId/permissions
func (h *UserAppsHandler) UpdateConsent(c *gin.Context) {
	var req struct {
		ConsentedPermissions []string `json:"consented_permissions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	rd := requestdata.GetRequestData(c.Request.Context())
	install, err := h.installer.UpdateConsent(c.Request.Context(), rd.UserID, c.Param("appId"), req.ConsentedPermissions)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"install": install})
}

// PUT /user/apps/:appId/rating
func (h *UserAppsHandler) Rate(c *gin.Context) {
	var req struct {
		Rating  int    `json:"rating"`
		Title   string `json:"title"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	rd := requestdata.GetRequestData(c.Request.Context())
	review, err := h.rating.Rate(c.Request.Context(), rd.UserID, c.Param("appId"), services.RateInput{
		Rating:  req.Rating,
		Title:   req.Title,
		Comment: req.Comment,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"review": review})
}

// DELETE /user/apps/:appId/rating
func (h *UserAppsHandler) RemoveRating(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if err := h.rating.RemoveRating(c.Request.Context(), rd.UserID, c.Param("appId")); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
