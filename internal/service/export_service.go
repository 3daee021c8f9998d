package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/openmunicipal/civic-api/internal/models"
	"github.com/openmunicipal/civic-api/internal/policy"
	appErrors "github.com/openmunicipal/civic-api/pkg/errors"
	"github.com/openmunicipal/civic-api/pkg/export"
)

// ExportFormat enumerates supported grievance export encodings.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportResult carries the rendered document and its content type.
type ExportResult struct {
	ContentType string
	Filename    string
	Body        []byte
}

// ExportService renders an official's scoped grievance list as CSV or PDF.
type ExportService struct {
	repo    grievanceRepository
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	maxRows int
	logger  *zap.Logger
}

// NewExportService creates an instance of ExportService.
func NewExportService(repo grievanceRepository, maxRows int, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRows <= 0 {
		maxRows = 5000
	}
	return &ExportService{
		repo:    repo,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		maxRows: maxRows,
		logger:  logger,
	}
}

// Export produces the grievance report for the caller's municipality. Scope
// comes from the policy layer, same as the list endpoint.
func (s *ExportService) Export(ctx context.Context, claims *models.JWTClaims, format ExportFormat) (*ExportResult, error) {
	if err := policy.Authorize(claims, policy.ActionExportGrievances, nil); err != nil {
		return nil, err
	}

	filter, err := policy.GrievanceScope(claims)
	if err != nil {
		return nil, err
	}
	filter.Page = 1
	filter.PageSize = s.maxRows

	grievances, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grievances")
	}

	dataset := export.Dataset{
		Headers: []string{"ID", "Title", "Status", "Department", "Submitted"},
		Rows:    make([]map[string]string, 0, len(grievances)),
	}
	for _, g := range grievances {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":         g.ID,
			"Title":      g.Title,
			"Status":     string(g.Status),
			"Department": g.DepartmentID,
			"Submitted":  g.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	title := fmt.Sprintf("Grievances - municipality %s", filter.MunicipalityID)

	switch format {
	case FormatCSV:
		body, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{ContentType: "text/csv", Filename: "grievances.csv", Body: body}, nil
	case FormatPDF:
		body, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{ContentType: "application/pdf", Filename: "grievances.pdf", Body: body}, nil
	}

	return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
}
