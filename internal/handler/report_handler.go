package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kelaskita/affiliate-api/internal/service"
	"github.com/kelaskita/affiliate-api/pkg/response"
)

// ReportHandler serves admin export endpoints.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler creates a new report handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Payouts godoc
// @Summary Export payout requests
// @Description Render all payout requests as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Param format query string false "Export format (csv|pdf)" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /reports/payouts [get]
func (h *ReportHandler) Payouts(c *gin.Context) {
	format := service.ReportFormat(c.DefaultQuery("format", "csv"))

	payload, contentType, err := h.service.PayoutReport(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("payouts-%s.%s", time.Now().UTC().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
