package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kelaskita/affiliate-api/internal/service"
	appErrors "github.com/kelaskita/affiliate-api/pkg/errors"
	"github.com/kelaskita/affiliate-api/pkg/response"
)

// TrackingHandler handles click tracking and statistics endpoints.
type TrackingHandler struct {
	service *service.TrackingService
}

// NewTrackingHandler creates a new tracking handler.
func NewTrackingHandler(svc *service.TrackingService) *TrackingHandler {
	return &TrackingHandler{service: svc}
}

// TrackClick godoc
// @Summary Track link click
// @Description Record a referral link click for an affiliate code
// @Tags Tracking
// @Accept json
// @Produce json
// @Param payload body service.TrackClickRequest true "Click payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /track/click [post]
func (h *TrackingHandler) TrackClick(c *gin.Context) {
	var req service.TrackClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if req.IPAddress == "" {
		req.IPAddress = c.ClientIP()
	}
	if req.UserAgent == nil {
		if ua := c.GetHeader("User-Agent"); ua != "" {
			req.UserAgent = &ua
		}
	}

	click, err := h.service.TrackClick(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, click)
}

// Stats godoc
// @Summary Affiliate statistics
// @Description Aggregate click, registration and commission totals for an affiliate
// @Tags Tracking
// @Produce json
// @Param id path string true "Affiliate ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /affiliates/{id}/stats [get]
func (h *TrackingHandler) Stats(c *gin.Context) {
	stats, cacheHit, err := h.service.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, stats, nil, map[string]interface{}{"cache_hit": cacheHit})
}

// ListClicks godoc
// @Summary List link clicks
// @Tags Tracking
// @Produce json
// @Param id path string true "Affiliate ID"
// @Success 200 {object} response.Envelope
// @Router /affiliates/{id}/clicks [get]
func (h *TrackingHandler) ListClicks(c *gin.Context) {
	clicks, err := h.service.ListClicks(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, clicks, nil)
}
