package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kelaskita/affiliate-api/internal/models"
	"github.com/kelaskita/affiliate-api/internal/service"
	appErrors "github.com/kelaskita/affiliate-api/pkg/errors"
	"github.com/kelaskita/affiliate-api/pkg/response"
)

// ProgramHandler handles program catalog endpoints.
type ProgramHandler struct {
	service *service.ProgramService
}

// NewProgramHandler creates a new program handler.
func NewProgramHandler(svc *service.ProgramService) *ProgramHandler {
	return &ProgramHandler{service: svc}
}

// List godoc
// @Summary List active programs
// @Tags Programs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /programs [get]
func (h *ProgramHandler) List(c *gin.Context) {
	programs, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, programs, nil)
}

// Get godoc
// @Summary Get program
// @Description Get a program by id, including soft-deleted ones
// @Tags Programs
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programs/{id} [get]
func (h *ProgramHandler) Get(c *gin.Context) {
	program, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, program, nil)
}

// Create godoc
// @Summary Create program
// @Tags Programs
// @Accept json
// @Produce json
// @Param payload body service.CreateProgramRequest true "Create program payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /programs [post]
func (h *ProgramHandler) Create(c *gin.Context) {
	var req service.CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	program, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, program)
}

// Update godoc
// @Summary Update program
// @Tags Programs
// @Accept json
// @Produce json
// @Param id path string true "Program ID"
// @Param payload body service.UpdateProgramRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programs/{id} [put]
func (h *ProgramHandler) Update(c *gin.Context) {
	var req service.UpdateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	program, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, program, nil)
}

// Delete godoc
// @Summary Delete program
// @Description Soft delete by marking the program inactive
// @Tags Programs
// @Produce json
// @Param id path string true "Program ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programs/{id} [delete]
func (h *ProgramHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// CommissionRate godoc
// @Summary Default commission rate
// @Description Return the default commission rate for a commission type
// @Tags Programs
// @Produce json
// @Param type query string true "Commission type (percentage|flat)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /programs/commission-rate [get]
func (h *ProgramHandler) CommissionRate(c *gin.Context) {
	info, err := h.service.CommissionRateByType(models.CommissionType(c.Query("type")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, info, nil)
}
