package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unistudy/timetable-api/internal/dto"
	"github.com/unistudy/timetable-api/internal/models"
	appErrors "github.com/unistudy/timetable-api/pkg/errors"
)

type timetableServiceMock struct {
	conflictReq dto.CheckConflictsRequest
	generateReq dto.GenerateTimetableRequest
	exportReq   dto.ExportTimetableRequest
	err         error
}

func (m *timetableServiceMock) CheckConflicts(ctx context.Context, req dto.CheckConflictsRequest) (*dto.CheckConflictsResponse, error) {
	m.conflictReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.CheckConflictsResponse{Conflicts: []models.TimetableTimeConflict{}}, nil
}

func (m *timetableServiceMock) AnalyzeRequest(req dto.AnalyzeTimetableRequest) (*dto.AnalyzeTimetableResponse, error) {
	return &dto.AnalyzeTimetableResponse{Suggestions: []string{}}, nil
}

func (m *timetableServiceMock) Suggest(ctx context.Context, req dto.SuggestAlternativesRequest) (*dto.SuggestAlternativesResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.SuggestAlternativesResponse{CourseID: req.CourseID}, nil
}

func (m *timetableServiceMock) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	m.generateReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.GenerateTimetableResponse{Timetable: models.TimetableGenerated{
		StudyPlanID: req.StudyPlanID,
		Slots:       []models.TimetableSlot{{CourseID: 1, UnitID: 10, SlotID: 100, Day: models.Monday, TimeFrom: 540, TimeTo: 630}},
		Conflicts:   []models.TimetableTimeConflict{},
		Warnings:    []string{"course NPRG031 has no scheduled units"},
	}}, nil
}

func (m *timetableServiceMock) Export(req dto.ExportTimetableRequest) (*dto.ExportTimetableResult, error) {
	m.exportReq = req
	return &dto.ExportTimetableResult{Filename: "timetable.csv", ContentType: "text/csv; charset=utf-8", Body: []byte("Day\n")}, nil
}

func newTimetableHandlerFixture() (*TimetableHandler, *timetableServiceMock) {
	mock := &timetableServiceMock{}
	return &TimetableHandler{
		conflicts:    mock,
		analyzer:     mock,
		alternatives: mock,
		generator:    mock,
		exporter:     mock,
	}, mock
}

func serveTimetable(h *TimetableHandler, method, target, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/timetable")
	group.POST("/conflicts", h.Conflicts)
	group.POST("/analyze", h.Analyze)
	group.POST("/alternatives", h.Alternatives)
	group.POST("/generate", h.Generate)
	group.POST("/export", h.Export)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, target, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestTimetableHandlerConflicts(t *testing.T) {
	h, mock := newTimetableHandlerFixture()

	w := serveTimetable(h, http.MethodPost, "/timetable/conflicts", `{"selections":[{"course_id":1,"slot_id":100},{"course_id":2,"slot_id":200}]}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, mock.conflictReq.Selections, 2)
	assert.Equal(t, int64(200), mock.conflictReq.Selections[1].SlotID)
}

func TestTimetableHandlerConflictsMalformedPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newTimetableHandlerFixture()
	req, _ := http.NewRequest(http.MethodPost, "/timetable/conflicts", bytes.NewReader([]byte(`{"selections":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.Conflicts(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerPropagatesServiceErrors(t *testing.T) {
	h, mock := newTimetableHandlerFixture()
	mock.err = appErrors.Clone(appErrors.ErrNotFound, "course not found")

	w := serveTimetable(h, http.MethodPost, "/timetable/alternatives", `{"course_id":9}`)
	require.Equal(t, http.StatusNotFound, w.Code)

	mock.err = errors.New("unexpected")
	w = serveTimetable(h, http.MethodPost, "/timetable/conflicts", `{"selections":[{"course_id":1,"slot_id":100}]}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTimetableHandlerGenerateIncludesMeta(t *testing.T) {
	h, mock := newTimetableHandlerFixture()

	w := serveTimetable(h, http.MethodPost, "/timetable/generate",
		`{"study_plan_id":7,"semester":"winter","year":1,"preferred_days":["monday","wednesday"],"preferred_time_from":480,"max_ects":30}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(7), mock.generateReq.StudyPlanID)
	assert.Equal(t, models.SemesterWinter, mock.generateReq.Semester)
	assert.Equal(t, []models.Day{models.Monday, models.Wednesday}, mock.generateReq.PreferredDays)
	require.NotNil(t, mock.generateReq.PreferredTimeFrom)
	assert.Equal(t, 480, *mock.generateReq.PreferredTimeFrom)
	assert.Nil(t, mock.generateReq.PreferredTimeTo)

	var body struct {
		Data dto.GenerateTimetableResponse `json:"data"`
		Meta map[string]int                `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Meta["slots"])
	assert.Equal(t, 0, body.Meta["conflicts"])
	assert.Equal(t, 1, body.Meta["warnings"])
	assert.Equal(t, models.Monday, body.Data.Timetable.Slots[0].Day)
}

func TestTimetableHandlerAnalyze(t *testing.T) {
	h, _ := newTimetableHandlerFixture()

	w := serveTimetable(h, http.MethodPost, "/timetable/analyze", `{"slots":[]}`)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestTimetableHandlerExport(t *testing.T) {
	h, mock := newTimetableHandlerFixture()

	w := serveTimetable(h, http.MethodPost, "/timetable/export?format=csv",
		`{"title":"Winter","slots":[{"course_id":1,"unit_id":10,"slot_id":100,"day":"monday","time_from":540,"time_to":630}]}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", mock.exportReq.Format)
	assert.Equal(t, "Winter", mock.exportReq.Title)
	assert.Equal(t, `attachment; filename="timetable.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Day\n", w.Body.String())
}

func TestTimetableHandlerExportDisabled(t *testing.T) {
	h := NewTimetableHandler(nil, nil, nil, nil, nil)

	w := serveTimetable(h, http.MethodPost, "/timetable/export?format=csv", `{"slots":[]}`)

	require.Equal(t, http.StatusNotImplemented, w.Code)
}
