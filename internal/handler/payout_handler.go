package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kelaskita/affiliate-api/internal/models"
	"github.com/kelaskita/affiliate-api/internal/service"
	appErrors "github.com/kelaskita/affiliate-api/pkg/errors"
	"github.com/kelaskita/affiliate-api/pkg/response"
)

// PayoutHandler handles payout request endpoints.
type PayoutHandler struct {
	service *service.PayoutService
}

// NewPayoutHandler creates a new payout handler.
func NewPayoutHandler(svc *service.PayoutService) *PayoutHandler {
	return &PayoutHandler{service: svc}
}

// Create godoc
// @Summary Create payout request
// @Description Request a payout against accumulated verified commission
// @Tags Payouts
// @Accept json
// @Produce json
// @Param payload body service.CreatePayoutRequest true "Payout payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /payouts [post]
func (h *PayoutHandler) Create(c *gin.Context) {
	var req service.CreatePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	// Affiliates may only request payouts for themselves.
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleAffiliate {
		req.AffiliateID = claims.UserID
	}

	payout, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, payout)
}

// UpdateStatus godoc
// @Summary Update payout status
// @Description Move a payout between pending and paid
// @Tags Payouts
// @Accept json
// @Produce json
// @Param id path string true "Payout ID"
// @Param payload body service.UpdatePayoutStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /payouts/{id}/status [put]
func (h *PayoutHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdatePayoutStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	payout, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, payout, nil)
}

// List godoc
// @Summary List payout requests
// @Tags Payouts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /payouts [get]
func (h *PayoutHandler) List(c *gin.Context) {
	payouts, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, payouts, nil)
}

// ListByAffiliate godoc
// @Summary List payout requests by affiliate
// @Tags Payouts
// @Produce json
// @Param id path string true "Affiliate ID"
// @Success 200 {object} response.Envelope
// @Router /affiliates/{id}/payouts [get]
func (h *PayoutHandler) ListByAffiliate(c *gin.Context) {
	payouts, err := h.service.ListByAffiliate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, payouts, nil)
}
