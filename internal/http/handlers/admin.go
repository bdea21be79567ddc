package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aisohq/aiso-market/internal/http/response"
	"github.com/aisohq/aiso-market/internal/requestdata"
	"github.com/aisohq/aiso-market/internal/services"
)

type AdminHandler struct {
	reviewPipeline services.ReviewPipelineService
	appService     services.AppService
	ratingService  services.RatingService
}

func NewAdminHandler(reviewPipeline services.ReviewPipelineService, appService services.AppService, ratingService services.RatingService) *AdminHandler {
	return &AdminHandler{
		reviewPipeline: reviewPipeline,
		appService:     appService,
		ratingService:  ratingService,
	}
}

// GET /admin/versions/pending
func (h *AdminHandler) ListPending(c *gin.Context) {
	versions, err := h.reviewPipeline.ListPending(c.Request.Context())
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"versions": versions})
}

// POST /admin/versions/:id/approve
func (h *AdminHandler) Approve(c *gin.Context) {
	versionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	// Approval reasons are optional; an empty body is fine.
	_ = c.ShouldBindJSON(&req)

	rd := requestdata.GetRequestData(c.Request.Context())
	version, err := h.reviewPipeline.Approve(c.Request.Context(), rd.UserID, versionID, req.Reason)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"version": version})
}

// POST /admin/versions/:id/reject
func (h *AdminHandler) Reject(c *gin.Context) {
	versionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	rd := requestdata.GetRequestData(c.Request.Context())
	version, err := h.reviewPipeline.Reject(c.Request.Context(), rd.UserID, versionID, req.Reason)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"version": version})
}

// GET /admin/versions/:id/history
func (h *AdminHandler) History(c *gin.Context) {
	versionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	records, err := h.reviewPipeline.History(c.Request.Context(), versionID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"records": records})
}

// POST /admin/apps/:id/suspend
func (h *AdminHandler) Suspend(c *gin.Context) {
	app, err := h.appService.Suspend(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"app": app})
}

// POST /admin/apps/:id/unsuspend
func (h *AdminHandler) Unsuspend(c *gin.Context) {
	app, err := h.appService.Unsuspend(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"app": app})
}

// POST /admin/apps/:id/recompute-rating
func (h *AdminHandler) RecomputeRating(c *gin.Context) {
	view, err := h.ratingService.Recompute(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"summary": view})
}
