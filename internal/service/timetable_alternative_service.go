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

type courseUnitSource interface {
	ListUnitsByCourse(ctx context.Context, courseID int64) ([]models.CourseUnit, error)
}

// TimetableAlternativeConfig bounds the number of returned alternatives.
type TimetableAlternativeConfig struct {
	DefaultLimit int
	MaxLimit     int
}

// TimetableAlternativeService suggests replacement units for a course.
type TimetableAlternativeService struct {
	units     courseUnitSource
	cfg       TimetableAlternativeConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableAlternativeService wires the alternative finder.
func NewTimetableAlternativeService(units courseUnitSource, cfg TimetableAlternativeConfig, validate *validator.Validate, logger *zap.Logger) *TimetableAlternativeService {
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 20
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 5
	}
	if cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = cfg.MaxLimit
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableAlternativeService{units: units, cfg: cfg, validator: validate, logger: logger}
}

// Suggest lists other units of the course ranked conflict-free first.
// An empty list is a normal result.
func (s *TimetableAlternativeService) Suggest(ctx context.Context, req dto.SuggestAlternativesRequest) (*dto.SuggestAlternativesResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid alternatives payload")
	}

	units, err := s.units.ListUnitsByCourse(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %d not found", req.CourseID))
		}
		s.logger.Error("list course units failed", zap.Int64("course_id", req.CourseID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course units")
	}

	alternatives := rankAlternatives(req.CourseID, units, req.CurrentSlots)
	if limit := s.limit(req.Limit); len(alternatives) > limit {
		alternatives = alternatives[:limit]
	}
	return &dto.SuggestAlternativesResponse{CourseID: req.CourseID, Alternatives: alternatives}, nil
}

func (s *TimetableAlternativeService) limit(requested int) int {
	switch {
	case requested <= 0:
		return s.cfg.DefaultLimit
	case requested > s.cfg.MaxLimit:
		return s.cfg.MaxLimit
	}
	return requested
}

// rankAlternatives orders candidates conflict-free first by unit id, then
// conflicting ones by conflict count and unit id.
func rankAlternatives(courseID int64, units []models.CourseUnit, current []models.TimetableSlot) []dto.CourseUnitAlternative {
	ownUnits := make(map[int64]bool)
	ownTypes := make(map[models.UnitType]bool)
	others := make([]models.TimetableSlot, 0, len(current))
	for _, slot := range current {
		if slot.CourseID == courseID {
			ownUnits[slot.UnitID] = true
			if slot.UnitType != "" {
				ownTypes[slot.UnitType] = true
			}
			continue
		}
		others = append(others, slot)
	}
	// Unit types of units picked without an explicit type still narrow the candidates.
	for _, unit := range units {
		if ownUnits[unit.UnitID] {
			ownTypes[unit.UnitType] = true
		}
	}

	out := make([]dto.CourseUnitAlternative, 0, len(units))
	for _, unit := range units {
		if ownUnits[unit.UnitID] {
			continue
		}
		if len(ownTypes) > 0 && !ownTypes[unit.UnitType] {
			continue
		}
		slots := unit.TimetableSlots()
		sort.SliceStable(slots, func(i, j int) bool { return models.LessTimetableSlot(slots[i], slots[j]) })
		conflicts := make([]models.TimetableTimeConflict, 0)
		for _, slot := range slots {
			conflicts = append(conflicts, conflictsAgainst(slot, others)...)
		}
		out = append(out, dto.CourseUnitAlternative{
			UnitID:       unit.UnitID,
			UnitType:     unit.UnitType,
			Slots:        slots,
			ConflictFree: len(conflicts) == 0,
			Conflicts:    conflicts,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ConflictFree != b.ConflictFree {
			return a.ConflictFree
		}
		if len(a.Conflicts) != len(b.Conflicts) {
			return len(a.Conflicts) < len(b.Conflicts)
		}
		return a.UnitID < b.UnitID
	})
	return out
}
