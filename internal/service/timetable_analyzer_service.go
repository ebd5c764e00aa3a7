package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/unistudy/timetable-api/internal/dto"
	"github.com/unistudy/timetable-api/internal/models"
	appErrors "github.com/unistudy/timetable-api/pkg/errors"
)

// TimetableAnalyzerConfig holds suggestion thresholds.
type TimetableAnalyzerConfig struct {
	HeavyDayHours   float64
	LargeGapMinutes int
}

// TimetableAnalyzer computes per-day load, gaps and suggestions for a chosen schedule.
type TimetableAnalyzer struct {
	cfg       TimetableAnalyzerConfig
	validator *validator.Validate
}

// NewTimetableAnalyzer builds an analyzer; zero thresholds fall back to 6 hours and 120 minutes.
func NewTimetableAnalyzer(cfg TimetableAnalyzerConfig, validate *validator.Validate) *TimetableAnalyzer {
	if cfg.HeavyDayHours <= 0 {
		cfg.HeavyDayHours = 6
	}
	if cfg.LargeGapMinutes <= 0 {
		cfg.LargeGapMinutes = 120
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TimetableAnalyzer{cfg: cfg, validator: validate}
}

// AnalyzeRequest validates the payload and analyses its slots.
func (a *TimetableAnalyzer) AnalyzeRequest(req dto.AnalyzeTimetableRequest) (*dto.AnalyzeTimetableResponse, error) {
	if err := a.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}
	resp := a.Analyze(req.Slots)
	return &resp, nil
}

// Analyze is a read-only report over slots; the input is never modified.
func (a *TimetableAnalyzer) Analyze(slots []models.TimetableSlot) dto.AnalyzeTimetableResponse {
	grouped := make(map[models.Day][]models.TimetableSlot, 5)
	for _, slot := range slots {
		if !slot.Day.Valid() {
			continue
		}
		grouped[slot.Day] = append(grouped[slot.Day], slot)
	}

	resp := dto.AnalyzeTimetableResponse{
		ByDay:       make(map[models.Day]dto.DayLoad, 5),
		Gaps:        make([]dto.TimetableGap, 0),
		Suggestions: make([]string, 0),
	}
	var freeDays []string

	for _, day := range models.Days() {
		daySlots := grouped[day]
		sortDaySlots(daySlots)

		minutes := 0
		for _, slot := range daySlots {
			minutes += slot.TimeSlot().Minutes()
		}
		hours := roundHours(minutes)
		resp.ByDay[day] = dto.DayLoad{Count: len(daySlots), Hours: hours}
		if len(daySlots) == 0 {
			freeDays = append(freeDays, day.Title())
			continue
		}

		gaps, overlapping := scanDay(day, daySlots)
		resp.Gaps = append(resp.Gaps, gaps...)

		if overlapping > 0 {
			resp.Suggestions = append(resp.Suggestions, fmt.Sprintf("%s has %d overlapping session(s); consider choosing alternative units", day.Title(), overlapping))
		}
		if hours >= a.cfg.HeavyDayHours {
			resp.Suggestions = append(resp.Suggestions, fmt.Sprintf("%s is a heavy day with %.2f hours of classes; consider moving a session to a lighter day", day.Title(), hours))
		}
		for _, gap := range gaps {
			if gap.Duration >= a.cfg.LargeGapMinutes {
				resp.Suggestions = append(resp.Suggestions, fmt.Sprintf("%s has a %d-minute gap between %s and %s; consider rescheduling", day.Title(), gap.Duration, models.FormatClock(gap.From), models.FormatClock(gap.To)))
			}
		}
	}

	if len(slots) > 0 && len(freeDays) > 0 {
		resp.Suggestions = append(resp.Suggestions, "Free days: "+strings.Join(freeDays, ", "))
	}
	return resp
}

// scanDay compares each session with its sorted predecessor. Positive spacing
// is a gap, negative spacing counts as an overlap.
func scanDay(day models.Day, slots []models.TimetableSlot) ([]dto.TimetableGap, int) {
	var gaps []dto.TimetableGap
	overlapping := 0
	var prev *models.TimetableSlot
	for i := range slots {
		slot := &slots[i]
		if slot.TimeTo <= slot.TimeFrom {
			continue
		}
		if prev != nil {
			spacing := slot.TimeFrom - prev.TimeTo
			switch {
			case spacing > 0:
				gaps = append(gaps, dto.TimetableGap{
					Day:      day,
					From:     prev.TimeTo,
					To:       slot.TimeFrom,
					Duration: spacing,
				})
			case spacing < 0:
				overlapping++
			}
		}
		prev = slot
	}
	return gaps, overlapping
}

func sortDaySlots(slots []models.TimetableSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if a.TimeFrom != b.TimeFrom {
			return a.TimeFrom < b.TimeFrom
		}
		if a.TimeTo != b.TimeTo {
			return a.TimeTo < b.TimeTo
		}
		if a.CourseIdent != b.CourseIdent {
			return a.CourseIdent < b.CourseIdent
		}
		if a.CourseID != b.CourseID {
			return a.CourseID < b.CourseID
		}
		return a.SlotID < b.SlotID
	})
}

func roundHours(minutes int) float64 {
	return math.Round(float64(minutes)/60*100) / 100
}
