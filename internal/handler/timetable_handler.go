package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unistudy/timetable-api/internal/dto"
	"github.com/unistudy/timetable-api/internal/service"
	appErrors "github.com/unistudy/timetable-api/pkg/errors"
	"github.com/unistudy/timetable-api/pkg/response"
)

type conflictChecker interface {
	CheckConflicts(ctx context.Context, req dto.CheckConflictsRequest) (*dto.CheckConflictsResponse, error)
}

type timetableAnalyzer interface {
	AnalyzeRequest(req dto.AnalyzeTimetableRequest) (*dto.AnalyzeTimetableResponse, error)
}

type alternativeSuggester interface {
	Suggest(ctx context.Context, req dto.SuggestAlternativesRequest) (*dto.SuggestAlternativesResponse, error)
}

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
}

type timetableExporter interface {
	Export(req dto.ExportTimetableRequest) (*dto.ExportTimetableResult, error)
}

// TimetableHandler exposes the timetable engine over HTTP.
type TimetableHandler struct {
	conflicts    conflictChecker
	analyzer     timetableAnalyzer
	alternatives alternativeSuggester
	generator    timetableGenerator
	exporter     timetableExporter
}

// NewTimetableHandler constructs the handler. A nil exporter disables the export endpoint.
func NewTimetableHandler(
	conflicts *service.TimetableConflictService,
	analyzer *service.TimetableAnalyzer,
	alternatives *service.TimetableAlternativeService,
	generator *service.TimetableGeneratorService,
	exporter *service.TimetableExportService,
) *TimetableHandler {
	h := &TimetableHandler{
		conflicts:    conflicts,
		analyzer:     analyzer,
		alternatives: alternatives,
		generator:    generator,
	}
	if exporter != nil {
		h.exporter = exporter
	}
	return h
}

// Conflicts godoc
// @Summary Detect overlapping sessions in a selection
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.CheckConflictsRequest true "Selected course slots"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/conflicts [post]
func (h *TimetableHandler) Conflicts(c *gin.Context) {
	var req dto.CheckConflictsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid conflict check payload"))
		return
	}
	resp, err := h.conflicts.CheckConflicts(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// Analyze godoc
// @Summary Report per-day load, gaps and suggestions for chosen sessions
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.AnalyzeTimetableRequest true "Chosen sessions"
// @Success 200 {object} response.Envelope
// @Router /timetable/analyze [post]
func (h *TimetableHandler) Analyze(c *gin.Context) {
	var req dto.AnalyzeTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable payload"))
		return
	}
	resp, err := h.analyzer.AnalyzeRequest(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// Alternatives godoc
// @Summary Suggest other units of a course ranked by fit
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.SuggestAlternativesRequest true "Course and current selection"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/alternatives [post]
func (h *TimetableHandler) Alternatives(c *gin.Context) {
	var req dto.SuggestAlternativesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid alternatives payload"))
		return
	}
	resp, err := h.alternatives.Suggest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// Generate godoc
// @Summary Generate a semester timetable for a study plan
// @Description Always returns a best-effort timetable; unresolved overlaps are listed in conflicts and warnings.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation options"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	resp, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	tt := resp.Timetable
	response.JSON(c, http.StatusOK, resp, map[string]interface{}{
		"slots":     len(tt.Slots),
		"conflicts": len(tt.Conflicts),
		"warnings":  len(tt.Warnings),
	})
}

// Export godoc
// @Summary Download chosen sessions as CSV or PDF
// @Tags Timetable
// @Accept json
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "csv or pdf"
// @Param payload body dto.ExportTimetableRequest true "Sessions to export"
// @Success 200 {file} file
// @Failure 501 {object} response.Envelope
// @Router /timetable/export [post]
func (h *TimetableHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnsupported, "timetable export is disabled"))
		return
	}
	var req dto.ExportTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}
	req.Format = c.Query("format")
	result, err := h.exporter.Export(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}
