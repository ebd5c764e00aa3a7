package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/unistudy/timetable-api/internal/models"
)

type slotFixture struct {
	id   int64
	day  models.Day
	from int
	to   int
}

func at(id int64, day models.Day, from, to int) slotFixture {
	return slotFixture{id: id, day: day, from: from, to: to}
}

func courseUnit(courseID int64, ident string, unitID int64, unitType models.UnitType, fixtures ...slotFixture) models.CourseUnit {
	unit := models.CourseUnit{UnitID: unitID, CourseID: courseID, CourseIdent: ident, UnitType: unitType}
	for _, s := range fixtures {
		unit.Slots = append(unit.Slots, models.CourseUnitSlot{SlotID: s.id, UnitID: unitID, Day: s.day, TimeFrom: s.from, TimeTo: s.to})
	}
	return unit
}

func chosen(courseID int64, ident string, unitID int64, unitType models.UnitType, s slotFixture) models.TimetableSlot {
	return models.TimetableSlot{
		CourseID:    courseID,
		CourseIdent: ident,
		UnitID:      unitID,
		UnitType:    unitType,
		SlotID:      s.id,
		Day:         s.day,
		TimeFrom:    s.from,
		TimeTo:      s.to,
	}
}

type slotResolverStub struct {
	slots map[[2]int64]models.TimetableSlot
	err   error
	calls int
}

func newSlotResolverStub(slots ...models.TimetableSlot) *slotResolverStub {
	stub := &slotResolverStub{slots: make(map[[2]int64]models.TimetableSlot)}
	for _, slot := range slots {
		stub.slots[[2]int64{slot.CourseID, slot.SlotID}] = slot
	}
	return stub
}

func (s *slotResolverStub) ResolveSlot(_ context.Context, courseID, slotID int64) (*models.TimetableSlot, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	slot, ok := s.slots[[2]int64{courseID, slotID}]
	if !ok {
		return nil, fmt.Errorf("resolve: %w", sql.ErrNoRows)
	}
	return &slot, nil
}

type unitSourceStub struct {
	mu     sync.Mutex
	units  map[int64][]models.CourseUnit
	errs   map[int64]error
	called []int64
}

func newUnitSourceStub(units ...models.CourseUnit) *unitSourceStub {
	stub := &unitSourceStub{units: make(map[int64][]models.CourseUnit), errs: make(map[int64]error)}
	for _, u := range units {
		stub.units[u.CourseID] = append(stub.units[u.CourseID], u)
	}
	return stub
}

func (s *unitSourceStub) withCourse(courseID int64) *unitSourceStub {
	if _, ok := s.units[courseID]; !ok {
		s.units[courseID] = []models.CourseUnit{}
	}
	return s
}

func (s *unitSourceStub) ListUnitsByCourse(_ context.Context, courseID int64) ([]models.CourseUnit, error) {
	s.mu.Lock()
	s.called = append(s.called, courseID)
	s.mu.Unlock()
	if err := s.errs[courseID]; err != nil {
		return nil, err
	}
	units, ok := s.units[courseID]
	if !ok {
		return nil, fmt.Errorf("course %d: %w", courseID, sql.ErrNoRows)
	}
	return append([]models.CourseUnit(nil), units...), nil
}

type studyPlanStub struct {
	plan    *models.StudyPlan
	courses []models.StudyPlanCourse
	findErr error
	listErr error
}

func (s *studyPlanStub) FindByID(_ context.Context, id int64) (*models.StudyPlan, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.plan == nil || s.plan.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.plan, nil
}

func (s *studyPlanStub) ListCourses(_ context.Context, _ int64, _ models.Semester, _ int) ([]models.StudyPlanCourse, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.courses, nil
}

type observerStub struct {
	mu          sync.Mutex
	fetches     map[string]int
	generations []GenerationStats
}

func (o *observerStub) ObserveCatalogFetch(operation string, _ error, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fetches == nil {
		o.fetches = make(map[string]int)
	}
	o.fetches[operation]++
}

func (o *observerStub) ObserveGeneration(stats GenerationStats, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.generations = append(o.generations, stats)
}

func planCourse(courseID int64, ident string, category models.Category, ects int) models.StudyPlanCourse {
	return models.StudyPlanCourse{
		StudyPlanID: 1,
		CourseID:    courseID,
		CourseIdent: ident,
		Name:        ident,
		Category:    category,
		ECTS:        ects,
		Semester:    models.SemesterWinter,
		Year:        1,
	}
}

func intPtr(v int) *int {
	return &v
}
