package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kelaskita/affiliate-api/internal/service"
	"github.com/kelaskita/affiliate-api/pkg/response"
)

// AffiliateHandler handles affiliate directory endpoints.
type AffiliateHandler struct {
	service *service.AffiliateService
}

// NewAffiliateHandler creates a new affiliate handler.
func NewAffiliateHandler(svc *service.AffiliateService) *AffiliateHandler {
	return &AffiliateHandler{service: svc}
}

// List godoc
// @Summary List affiliates
// @Tags Affiliates
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /affiliates [get]
func (h *AffiliateHandler) List(c *gin.Context) {
	affiliates, err := h.service.ListAffiliates(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, affiliates, nil)
}

// GetByCode godoc
// @Summary Get affiliate by code
// @Description Case-sensitive lookup of an affiliate by referral code
// @Tags Affiliates
// @Produce json
// @Param code path string true "Affiliate code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /affiliates/by-code/{code} [get]
func (h *AffiliateHandler) GetByCode(c *gin.Context) {
	affiliate, err := h.service.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, affiliate, nil)
}

// GenerateCode godoc
// @Summary Generate affiliate code
// @Description Issue a fresh unique affiliate code (admin utility)
// @Tags Affiliates
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /affiliates/generate-code [post]
func (h *AffiliateHandler) GenerateCode(c *gin.Context) {
	code, err := h.service.GenerateUniqueCode(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"affiliate_code": code})
}
