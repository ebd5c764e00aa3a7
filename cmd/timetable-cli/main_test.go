package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unistudy/timetable-api/internal/dto"
	"github.com/unistudy/timetable-api/internal/models"
)

const cliCatalog = `
courses:
  - id: 1
    ident: NMAI054
    name: Linear Algebra
    ects: 6
    units:
      - unit_id: 10
        unit_type: lecture
        slots:
          - slot_id: 101
            day: wednesday
            time_from: 600
            time_to: 690
  - id: 2
    ident: NPRG030
    name: Programming I
    ects: 5
    units:
      - unit_id: 20
        unit_type: lecture
        slots:
          - slot_id: 201
            day: wednesday
            time_from: 630
            time_to: 720
      - unit_id: 21
        unit_type: exercise
        slots:
          - slot_id: 211
            day: tuesday
            time_from: 720
            time_to: 810
study_plans:
  - id: 5
    name: Computer Science
    program: IOI
    courses:
      - course_id: 1
        category: compulsory
        semester: winter
        year: 1
      - course_id: 2
        category: compulsory
        semester: winter
        year: 1
`

func writeFixture(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRunGenerate(t *testing.T) {
	catalogPath := writeFixture(t, "catalog.yaml", cliCatalog)
	requestPath := writeFixture(t, "request.yaml", "study_plan_id: 5\nsemester: winter\nyear: 1\n")

	var out bytes.Buffer
	require.NoError(t, run([]string{"-catalog", catalogPath, "-request", requestPath, "generate"}, &out))

	var resp dto.GenerateTimetableResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	tt := resp.Timetable
	assert.Equal(t, int64(5), tt.StudyPlanID)
	assert.Len(t, tt.Slots, 3)
	assert.Equal(t, 11, tt.TotalECTS)
	assert.Len(t, tt.Conflicts, 1)
	assert.True(t, tt.Coverage.CompulsoryFulfilled)
}

func TestRunConflictsFromJSONRequest(t *testing.T) {
	catalogPath := writeFixture(t, "catalog.yaml", cliCatalog)
	requestPath := writeFixture(t, "request.json", `{"selections":[{"course_id":1,"slot_id":101},{"course_id":2,"slot_id":201}]}`)

	var out bytes.Buffer
	require.NoError(t, run([]string{"-catalog", catalogPath, "-request", requestPath, "conflicts"}, &out))

	var resp dto.CheckConflictsResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.True(t, resp.HasConflicts)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, 630, resp.Conflicts[0].OverlapFrom)
	assert.Equal(t, 690, resp.Conflicts[0].OverlapTo)
	assert.Equal(t, models.Wednesday, resp.Conflicts[0].Day)
}

func TestRunAnalyze(t *testing.T) {
	catalogPath := writeFixture(t, "catalog.yaml", cliCatalog)
	requestPath := writeFixture(t, "request.yaml", `
slots:
  - {course_id: 1, unit_id: 10, slot_id: 101, day: monday, time_from: 480, time_to: 570}
  - {course_id: 2, unit_id: 20, slot_id: 201, day: monday, time_from: 840, time_to: 930}
`)

	var out bytes.Buffer
	require.NoError(t, run([]string{"-catalog", catalogPath, "-request", requestPath, "analyze"}, &out))

	var resp dto.AnalyzeTimetableResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.Len(t, resp.Gaps, 1)
	assert.Equal(t, 270, resp.Gaps[0].Duration)
}

func TestRunExportWritesFile(t *testing.T) {
	catalogPath := writeFixture(t, "catalog.yaml", cliCatalog)
	requestPath := writeFixture(t, "request.yaml", `
title: Winter
slots:
  - {course_id: 1, course_ident: NMAI054, unit_id: 10, slot_id: 101, day: wednesday, time_from: 600, time_to: 690}
`)
	target := filepath.Join(t.TempDir(), "out.csv")

	var out bytes.Buffer
	require.NoError(t, run([]string{"-catalog", catalogPath, "-request", requestPath, "-out", target, "export"}, &out))

	body, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "Day,From,To,Course"))
	assert.Contains(t, out.String(), "wrote ")
}

func TestRunRejectsBadInvocation(t *testing.T) {
	catalogPath := writeFixture(t, "catalog.yaml", cliCatalog)
	requestPath := writeFixture(t, "request.yaml", "{}")

	var out bytes.Buffer
	assert.Error(t, run([]string{"-catalog", catalogPath, "-request", requestPath}, &out))
	assert.Error(t, run([]string{"-catalog", catalogPath, "-request", requestPath, "schedule"}, &out))
	assert.Error(t, run([]string{"-catalog", catalogPath, "generate"}, &out))
}
