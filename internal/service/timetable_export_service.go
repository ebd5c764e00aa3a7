package service

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unistudy/timetable-api/internal/dto"
	"github.com/unistudy/timetable-api/internal/models"
	appErrors "github.com/unistudy/timetable-api/pkg/errors"
	"github.com/unistudy/timetable-api/pkg/export"
)

type documentRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
}

var timetableExportHeaders = []string{"Day", "From", "To", "Course", "Type", "Location", "Lecturer"}

// TimetableExportService renders chosen slots as downloadable CSV or PDF documents.
type TimetableExportService struct {
	renderers map[string]documentRenderer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableExportService builds the export service; nil renderers fall back to the package exporters.
func NewTimetableExportService(csv, pdf documentRenderer, validate *validator.Validate, logger *zap.Logger) *TimetableExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableExportService{
		renderers: map[string]documentRenderer{"csv": csv, "pdf": pdf},
		validator: validate,
		logger:    logger,
	}
}

// Export renders the slots in canonical order.
func (s *TimetableExportService) Export(req dto.ExportTimetableRequest) (*dto.ExportTimetableResult, error) {
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable export payload")
	}
	renderer := s.renderers[req.Format]

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Timetable"
	}
	body, err := renderer.Render(timetableDataset(req.Slots), title)
	if err != nil {
		s.logger.Error("render timetable export failed", zap.String("format", req.Format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}
	return &dto.ExportTimetableResult{
		Filename:    "timetable." + req.Format,
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func timetableDataset(slots []models.TimetableSlot) export.Dataset {
	rows := make([]map[string]string, 0, len(slots))
	for _, slot := range sortedSlots(slots) {
		rows = append(rows, map[string]string{
			"Day":      slot.Day.Title(),
			"From":     models.FormatClock(slot.TimeFrom),
			"To":       models.FormatClock(slot.TimeTo),
			"Course":   slot.CourseIdent,
			"Type":     string(slot.UnitType),
			"Location": derefString(slot.Location),
			"Lecturer": derefString(slot.Lecturer),
		})
	}
	return export.Dataset{
		Headers: timetableExportHeaders,
		Rows:    rows,
		Widths:  []float64{1.2, 0.8, 0.8, 1.4, 1, 1.4, 2},
	}
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
