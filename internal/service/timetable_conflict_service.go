package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unistudy/timetable-api/internal/dto"
	"github.com/unistudy/timetable-api/internal/models"
	appErrors "github.com/unistudy/timetable-api/pkg/errors"
)

type slotResolver interface {
	ResolveSlot(ctx context.Context, courseID, slotID int64) (*models.TimetableSlot, error)
}

// TimetableConflictService resolves slot selections and reports overlapping pairs.
type TimetableConflictService struct {
	slots     slotResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableConflictService wires the conflict detector.
func NewTimetableConflictService(slots slotResolver, validate *validator.Validate, logger *zap.Logger) *TimetableConflictService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableConflictService{slots: slots, validator: validate, logger: logger}
}

// CheckConflicts resolves each selection and returns every overlapping pair exactly once.
func (s *TimetableConflictService) CheckConflicts(ctx context.Context, req dto.CheckConflictsRequest) (*dto.CheckConflictsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check payload")
	}

	seen := make(map[dto.SlotSelection]bool, len(req.Selections))
	resolved := make([]models.TimetableSlot, 0, len(req.Selections))
	for _, sel := range req.Selections {
		if seen[sel] {
			continue
		}
		seen[sel] = true

		slot, err := s.slots.ResolveSlot(ctx, sel.CourseID, sel.SlotID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("slot %d of course %d not found", sel.SlotID, sel.CourseID))
			}
			s.logger.Error("resolve slot failed", zap.Int64("course_id", sel.CourseID), zap.Int64("slot_id", sel.SlotID), zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve selected slot")
		}
		resolved = append(resolved, *slot)
	}

	conflicts := DetectConflicts(resolved)
	return &dto.CheckConflictsResponse{
		HasConflicts: len(conflicts) > 0,
		Conflicts:    conflicts,
	}, nil
}

// DetectConflicts reports each overlapping unordered pair once. Pairs are
// reported from the slot that sorts first in canonical order.
func DetectConflicts(slots []models.TimetableSlot) []models.TimetableTimeConflict {
	sorted := sortedSlots(slots)
	conflicts := make([]models.TimetableTimeConflict, 0)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sameSlot(sorted[i], sorted[j]) {
				continue
			}
			if c, ok := newConflict(sorted[i], sorted[j]); ok {
				conflicts = append(conflicts, c)
			}
		}
	}
	return conflicts
}

// ConflictsWithSet returns the chosen slots that overlap candidate, in input order.
func ConflictsWithSet(candidate models.TimeSlot, chosen []models.TimetableSlot) []models.TimetableSlot {
	var hits []models.TimetableSlot
	for _, slot := range chosen {
		if candidate.Overlaps(slot.TimeSlot()) {
			hits = append(hits, slot)
		}
	}
	return hits
}

// conflictsAgainst builds conflict records for one candidate against a chosen set.
func conflictsAgainst(candidate models.TimetableSlot, chosen []models.TimetableSlot) []models.TimetableTimeConflict {
	var out []models.TimetableTimeConflict
	for _, other := range ConflictsWithSet(candidate.TimeSlot(), chosen) {
		if c, ok := newConflict(candidate, other); ok {
			out = append(out, c)
		}
	}
	return out
}

func newConflict(slot, other models.TimetableSlot) (models.TimetableTimeConflict, bool) {
	from, to, ok := models.OverlapInterval(slot.TimeSlot(), other.TimeSlot())
	if !ok {
		return models.TimetableTimeConflict{}, false
	}
	return models.TimetableTimeConflict{
		CourseID:    slot.CourseID,
		CourseIdent: slot.CourseIdent,
		UnitID:      slot.UnitID,
		SlotID:      slot.SlotID,
		Day:         slot.Day,
		TimeFrom:    slot.TimeFrom,
		TimeTo:      slot.TimeTo,
		OverlapFrom: from,
		OverlapTo:   to,
		With: models.ConflictingSlot{
			CourseID:    other.CourseID,
			CourseIdent: other.CourseIdent,
			UnitID:      other.UnitID,
			SlotID:      other.SlotID,
			TimeFrom:    other.TimeFrom,
			TimeTo:      other.TimeTo,
		},
	}, true
}

func sameSlot(a, b models.TimetableSlot) bool {
	return a.CourseID == b.CourseID && a.SlotID == b.SlotID
}

func sortedSlots(slots []models.TimetableSlot) []models.TimetableSlot {
	out := append([]models.TimetableSlot(nil), slots...)
	sort.SliceStable(out, func(i, j int) bool { return models.LessTimetableSlot(out[i], out[j]) })
	return out
}
