// Package catalog serves course and study plan records from a normalized YAML snapshot.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/unistudy/timetable-api/internal/models"
)

type yamlSnapshot struct {
	Courses    []yamlCourse    `yaml:"courses"`
	StudyPlans []yamlStudyPlan `yaml:"study_plans"`
}

type yamlCourse struct {
	models.Course `yaml:",inline"`
	Units         []models.CourseUnit `yaml:"units"`
}

type yamlStudyPlan struct {
	models.StudyPlan `yaml:",inline"`
	Courses          []models.StudyPlanCourse `yaml:"courses"`
}

type slotKey struct {
	courseID int64
	slotID   int64
}

// Snapshot is an immutable in-memory catalog. It is safe for concurrent use.
type Snapshot struct {
	courses map[int64]models.Course
	units   map[int64][]models.CourseUnit
	slots   map[slotKey]models.TimetableSlot
	plans   map[int64]models.StudyPlan
	members map[int64][]models.StudyPlanCourse
}

// LoadFile reads and validates a snapshot file.
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog snapshot: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates snapshot YAML.
func Parse(data []byte) (*Snapshot, error) {
	var raw yamlSnapshot
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog snapshot: %w", err)
	}
	return build(raw)
}

func build(raw yamlSnapshot) (*Snapshot, error) {
	s := &Snapshot{
		courses: make(map[int64]models.Course, len(raw.Courses)),
		units:   make(map[int64][]models.CourseUnit, len(raw.Courses)),
		slots:   make(map[slotKey]models.TimetableSlot),
		plans:   make(map[int64]models.StudyPlan, len(raw.StudyPlans)),
		members: make(map[int64][]models.StudyPlanCourse, len(raw.StudyPlans)),
	}
	seenUnits := make(map[int64]bool)

	for _, c := range raw.Courses {
		if c.ID <= 0 || c.Ident == "" {
			return nil, fmt.Errorf("course requires id and ident (id=%d)", c.ID)
		}
		if _, dup := s.courses[c.ID]; dup {
			return nil, fmt.Errorf("duplicate course id %d", c.ID)
		}
		s.courses[c.ID] = c.Course

		units := make([]models.CourseUnit, 0, len(c.Units))
		for _, u := range c.Units {
			if u.UnitID <= 0 || seenUnits[u.UnitID] {
				return nil, fmt.Errorf("course %s: invalid or duplicate unit id %d", c.Ident, u.UnitID)
			}
			seenUnits[u.UnitID] = true
			if !u.UnitType.Valid() {
				return nil, fmt.Errorf("course %s unit %d: unknown unit type %q", c.Ident, u.UnitID, u.UnitType)
			}
			u.CourseID = c.ID
			u.CourseIdent = c.Ident
			slots := make([]models.CourseUnitSlot, 0, len(u.Slots))
			for _, slot := range u.Slots {
				if !slot.TimeSlot().Valid() {
					return nil, fmt.Errorf("course %s unit %d slot %d: invalid time range %d-%d", c.Ident, u.UnitID, slot.SlotID, slot.TimeFrom, slot.TimeTo)
				}
				slot.UnitID = u.UnitID
				slots = append(slots, slot)
			}
			u.Slots = slots
			for _, ts := range u.TimetableSlots() {
				key := slotKey{courseID: c.ID, slotID: ts.SlotID}
				if _, dup := s.slots[key]; dup {
					return nil, fmt.Errorf("course %s: duplicate slot id %d", c.Ident, ts.SlotID)
				}
				s.slots[key] = ts
			}
			units = append(units, u)
		}
		sort.Slice(units, func(i, j int) bool { return units[i].UnitID < units[j].UnitID })
		s.units[c.ID] = units
	}

	for _, p := range raw.StudyPlans {
		if p.ID <= 0 {
			return nil, fmt.Errorf("study plan requires a positive id")
		}
		if _, dup := s.plans[p.ID]; dup {
			return nil, fmt.Errorf("duplicate study plan id %d", p.ID)
		}
		s.plans[p.ID] = p.StudyPlan
		members := make([]models.StudyPlanCourse, 0, len(p.Courses))
		for _, m := range p.Courses {
			course, ok := s.courses[m.CourseID]
			if !ok {
				return nil, fmt.Errorf("study plan %d references unknown course %d", p.ID, m.CourseID)
			}
			if !m.Category.Valid() {
				return nil, fmt.Errorf("study plan %d course %s: unknown category %q", p.ID, course.Ident, m.Category)
			}
			m.StudyPlanID = p.ID
			m.CourseIdent = course.Ident
			m.Name = course.Name
			m.ECTS = course.ECTS
			members = append(members, m)
		}
		sort.Slice(members, func(i, j int) bool {
			if members[i].CourseIdent != members[j].CourseIdent {
				return members[i].CourseIdent < members[j].CourseIdent
			}
			return members[i].CourseID < members[j].CourseID
		})
		s.members[p.ID] = members
	}
	return s, nil
}

// FindCourse returns a course or sql.ErrNoRows.
func (s *Snapshot) FindCourse(_ context.Context, id int64) (*models.Course, error) {
	course, ok := s.courses[id]
	if !ok {
		return nil, fmt.Errorf("course %d: %w", id, sql.ErrNoRows)
	}
	return &course, nil
}

// ListUnitsByCourse returns copies of the course's units ordered by unit id.
func (s *Snapshot) ListUnitsByCourse(_ context.Context, courseID int64) ([]models.CourseUnit, error) {
	if _, ok := s.courses[courseID]; !ok {
		return nil, fmt.Errorf("course %d: %w", courseID, sql.ErrNoRows)
	}
	stored := s.units[courseID]
	out := make([]models.CourseUnit, len(stored))
	for i, u := range stored {
		u.Slots = append([]models.CourseUnitSlot(nil), u.Slots...)
		out[i] = u
	}
	return out, nil
}

// ResolveSlot returns one slot of a course as a chosen timetable slot.
func (s *Snapshot) ResolveSlot(_ context.Context, courseID, slotID int64) (*models.TimetableSlot, error) {
	slot, ok := s.slots[slotKey{courseID: courseID, slotID: slotID}]
	if !ok {
		return nil, fmt.Errorf("course %d slot %d: %w", courseID, slotID, sql.ErrNoRows)
	}
	return &slot, nil
}

// StudyPlans exposes the study plan side of the snapshot.
func (s *Snapshot) StudyPlans() *StudyPlanView {
	return &StudyPlanView{snapshot: s}
}

// StudyPlanView answers study plan lookups against a snapshot.
type StudyPlanView struct {
	snapshot *Snapshot
}

// FindByID returns a study plan or sql.ErrNoRows.
func (v *StudyPlanView) FindByID(_ context.Context, id int64) (*models.StudyPlan, error) {
	plan, ok := v.snapshot.plans[id]
	if !ok {
		return nil, fmt.Errorf("study plan %d: %w", id, sql.ErrNoRows)
	}
	return &plan, nil
}

// ListCourses returns plan memberships for one semester and year, ordered by course ident.
func (v *StudyPlanView) ListCourses(_ context.Context, studyPlanID int64, semester models.Semester, year int) ([]models.StudyPlanCourse, error) {
	var out []models.StudyPlanCourse
	for _, m := range v.snapshot.members[studyPlanID] {
		if m.Semester == semester && m.Year == year {
			out = append(out, m)
		}
	}
	return out, nil
}
