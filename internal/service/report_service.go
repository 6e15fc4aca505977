package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kelaskita/affiliate-api/internal/models"
	appErrors "github.com/kelaskita/affiliate-api/pkg/errors"
	"github.com/kelaskita/affiliate-api/pkg/export"
)

// ReportFormat selects the rendering of an export.
type ReportFormat string

const (
	ReportCSV ReportFormat = "csv"
	ReportPDF ReportFormat = "pdf"
)

type reportPayoutSource interface {
	List(ctx context.Context) ([]models.PayoutRequest, error)
}

// ReportService renders admin exports of payout activity.
type ReportService struct {
	payouts reportPayoutSource
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewReportService creates an instance of ReportService.
func NewReportService(payouts reportPayoutSource, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		payouts: payouts,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

var payoutReportHeaders = []string{"ID", "Affiliate ID", "Amount", "Bank", "Account", "Holder", "Status", "Processed At", "Created At"}

// PayoutReport renders all payout requests in the requested format and
// returns the bytes plus the response content type.
func (s *ReportService) PayoutReport(ctx context.Context, format ReportFormat) ([]byte, string, error) {
	payouts, err := s.payouts.List(ctx)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{Headers: payoutReportHeaders}
	for _, p := range payouts {
		processedAt := ""
		if p.ProcessedAt != nil {
			processedAt = p.ProcessedAt.Format("2006-01-02 15:04:05")
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":           p.ID,
			"Affiliate ID": p.AffiliateID,
			"Amount":       p.Amount.StringFixed(2),
			"Bank":         p.BankName,
			"Account":      p.AccountNumber,
			"Holder":       p.AccountHolderName,
			"Status":       string(p.Status),
			"Processed At": processedAt,
			"Created At":   p.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	switch format {
	case ReportCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return payload, "text/csv", nil
	case ReportPDF:
		payload, err := s.pdf.Render(dataset, "Payout Requests")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", format))
	}
}
