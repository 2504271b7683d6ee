package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/thesisflow/thesisflow-api/internal/models"
	appErrors "github.com/thesisflow/thesisflow-api/pkg/errors"
	"github.com/thesisflow/thesisflow-api/pkg/export"
)

type exportThesisRepository interface {
	List(ctx context.Context, filter models.ThesisFilter) ([]models.ThesisDetail, int, error)
}

// ExportService renders the thesis register as CSV or PDF. The register is
// scoped the same way as thesis listing: supervisors export their own load,
// admins everything.
type ExportService struct {
	theses exportThesisRepository
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(theses exportThesisRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		theses: theses,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

var registerHeaders = []string{
	"Title", "Type", "Student", "Supervisor", "Field of Study",
	"Status", "Academic Year", "Submitted", "Approved",
}

// ThesisRegisterCSV renders the register as CSV bytes.
func (s *ExportService) ThesisRegisterCSV(ctx context.Context, actor models.Actor, filter models.ThesisFilter) ([]byte, error) {
	dataset, err := s.registerDataset(ctx, actor, filter)
	if err != nil {
		return nil, err
	}
	payload, err := s.csv.Render(*dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, nil
}

// ThesisRegisterPDF renders the register as a tabular PDF.
func (s *ExportService) ThesisRegisterPDF(ctx context.Context, actor models.Actor, filter models.ThesisFilter) ([]byte, error) {
	dataset, err := s.registerDataset(ctx, actor, filter)
	if err != nil {
		return nil, err
	}
	payload, err := s.pdf.Render(*dataset, "Thesis Register")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return payload, nil
}

func (s *ExportService) registerDataset(ctx context.Context, actor models.Actor, filter models.ThesisFilter) (*export.Dataset, error) {
	switch actor.Role {
	case models.RoleSupervisor:
		filter.SupervisorID = actor.ID
		filter.StudentID = ""
	case models.RoleAdmin:
	default:
		return nil, appErrors.ErrForbidden
	}

	filter.Page = 1
	filter.PageSize = 100

	theses, _, err := s.theses.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list theses")
	}

	rows := make([]map[string]string, 0, len(theses))
	for _, thesis := range theses {
		rows = append(rows, map[string]string{
			"Title":          thesis.Title,
			"Type":           typeLabel(thesis.Type),
			"Student":        thesis.StudentName,
			"Supervisor":     thesis.SupervisorName,
			"Field of Study": thesis.FieldOfStudy,
			"Status":         thesis.Status.Label(),
			"Academic Year":  thesis.AcademicYear,
			"Submitted":      formatDate(thesis.SubmittedAt),
			"Approved":       formatDate(thesis.ApprovedAt),
		})
	}

	return &export.Dataset{Headers: registerHeaders, Rows: rows}, nil
}

func typeLabel(t models.ThesisType) string {
	switch t {
	case models.TypeBachelor:
		return "Bachelor"
	case models.TypeMaster:
		return "Master"
	}
	return string(t)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
