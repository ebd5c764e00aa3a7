package dto

import "github.com/unistudy/timetable-api/internal/models"

// SlotSelection references one chosen slot of a course.
type SlotSelection struct {
	CourseID int64 `json:"course_id" yaml:"course_id" validate:"required,min=1"`
	SlotID   int64 `json:"slot_id" yaml:"slot_id" validate:"required,min=1"`
}

// CheckConflictsRequest asks for all overlaps among the selected slots.
type CheckConflictsRequest struct {
	Selections []SlotSelection `json:"selections" yaml:"selections" validate:"required,min=1,max=100,dive"`
}

// CheckConflictsResponse lists each overlapping pair once.
type CheckConflictsResponse struct {
	HasConflicts bool                           `json:"has_conflicts"`
	Conflicts    []models.TimetableTimeConflict `json:"conflicts"`
}

// AnalyzeTimetableRequest carries the chosen sessions to analyse.
type AnalyzeTimetableRequest struct {
	Slots []models.TimetableSlot `json:"slots" yaml:"slots" validate:"max=200,dive"`
}

// DayLoad summarises one weekday.
type DayLoad struct {
	Count int     `json:"count"`
	Hours float64 `json:"hours"`
}

// TimetableGap is free time between two consecutive sessions on a day.
type TimetableGap struct {
	Day      models.Day `json:"day"`
	From     int        `json:"from"`
	To       int        `json:"to"`
	Duration int        `json:"duration"`
}

// AnalyzeTimetableResponse is the density report for a schedule.
type AnalyzeTimetableResponse struct {
	ByDay       map[models.Day]DayLoad `json:"by_day"`
	Gaps        []TimetableGap         `json:"gaps"`
	Suggestions []string               `json:"suggestions"`
}

// SuggestAlternativesRequest asks for replacement units of one course.
type SuggestAlternativesRequest struct {
	CourseID     int64                  `json:"course_id" yaml:"course_id" validate:"required,min=1"`
	CurrentSlots []models.TimetableSlot `json:"current_slots" yaml:"current_slots" validate:"max=200,dive"`
	Limit        int                    `json:"limit" yaml:"limit" validate:"omitempty,min=1,max=20"`
}

// CourseUnitAlternative is one candidate unit with its slots.
type CourseUnitAlternative struct {
	UnitID       int64                          `json:"unit_id"`
	UnitType     models.UnitType                `json:"unit_type"`
	Slots        []models.TimetableSlot         `json:"slots"`
	ConflictFree bool                           `json:"conflict_free"`
	Conflicts    []models.TimetableTimeConflict `json:"conflicts"`
}

// SuggestAlternativesResponse lists ranked alternatives.
type SuggestAlternativesResponse struct {
	CourseID     int64                   `json:"course_id"`
	Alternatives []CourseUnitAlternative `json:"alternatives"`
}

// GenerateTimetableRequest drives timetable generation for a study plan.
type GenerateTimetableRequest struct {
	StudyPlanID       int64           `json:"study_plan_id" yaml:"study_plan_id" validate:"required,min=1"`
	Semester          models.Semester `json:"semester" yaml:"semester" validate:"required,oneof=winter summer"`
	Year              int             `json:"year" yaml:"year" validate:"required,min=1,max=10"`
	PreferredDays     []models.Day    `json:"preferred_days,omitempty" yaml:"preferred_days,omitempty" validate:"omitempty,max=5,dive,min=1,max=5"`
	PreferredTimeFrom *int            `json:"preferred_time_from,omitempty" yaml:"preferred_time_from,omitempty" validate:"omitempty,min=0,max=1440"`
	PreferredTimeTo   *int            `json:"preferred_time_to,omitempty" yaml:"preferred_time_to,omitempty" validate:"omitempty,min=0,max=1440"`
	MaxECTS           *int            `json:"max_ects,omitempty" yaml:"max_ects,omitempty" validate:"omitempty,min=1,max=120"`
	IncludeElectives  bool            `json:"include_electives" yaml:"include_electives"`
}

// GenerateTimetableResponse wraps the generated timetable.
type GenerateTimetableResponse struct {
	Timetable models.TimetableGenerated `json:"timetable"`
}

// ExportTimetableRequest carries the slots to render.
type ExportTimetableRequest struct {
	Format string                 `json:"-" validate:"required,oneof=csv pdf"`
	Title  string                 `json:"title" validate:"max=120"`
	Slots  []models.TimetableSlot `json:"slots" validate:"required,min=1,max=200,dive"`
}

// ExportTimetableResult is a rendered timetable document.
type ExportTimetableResult struct {
	Filename    string
	ContentType string
	Body        []byte
}
