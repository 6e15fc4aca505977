package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kelaskita/affiliate-api/internal/service"
	appErrors "github.com/kelaskita/affiliate-api/pkg/errors"
	"github.com/kelaskita/affiliate-api/pkg/response"
)

// RegistrationHandler handles student registration endpoints.
type RegistrationHandler struct {
	service *service.RegistrationService
}

// NewRegistrationHandler creates a new registration handler.
func NewRegistrationHandler(svc *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// Create godoc
// @Summary Create registration
// @Description Record a student signup made through an affiliate link
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body service.CreateRegistrationRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /registrations [post]
func (h *RegistrationHandler) Create(c *gin.Context) {
	var req service.CreateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	reg, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, reg)
}

// VerifyPayment godoc
// @Summary Verify payment
// @Description Mark a registration's payment as verified
// @Tags Registrations
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /registrations/{id}/verify [put]
func (h *RegistrationHandler) VerifyPayment(c *gin.Context) {
	reg, err := h.service.VerifyPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, reg, nil)
}

// List godoc
// @Summary List registrations
// @Tags Registrations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /registrations [get]
func (h *RegistrationHandler) List(c *gin.Context) {
	regs, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, regs, nil)
}

// ListByAffiliate godoc
// @Summary List registrations by affiliate
// @Tags Registrations
// @Produce json
// @Param id path string true "Affiliate ID"
// @Success 200 {object} response.Envelope
// @Router /affiliates/{id}/registrations [get]
func (h *RegistrationHandler) ListByAffiliate(c *gin.Context) {
	regs, err := h.service.ListByAffiliate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, regs, nil)
}
