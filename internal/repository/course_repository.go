package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/unistudy/timetable-api/internal/models"
)

// CourseRepository reads courses, their units and unit slots.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository builds a course repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

type timetableSlotRow struct {
	CourseID    int64           `db:"course_id"`
	CourseIdent string          `db:"course_ident"`
	UnitID      int64           `db:"unit_id"`
	UnitType    models.UnitType `db:"unit_type"`
	SlotID      int64           `db:"slot_id"`
	Day         models.Day      `db:"day"`
	TimeFrom    int             `db:"time_from"`
	TimeTo      int             `db:"time_to"`
	Location    *string         `db:"location"`
	Lecturer    *string         `db:"lecturer"`
}

// FindByID returns a course or sql.ErrNoRows.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	const query = `SELECT id, ident, name, ects FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	return &course, nil
}

// ListUnitsByCourse returns every unit of a course ordered by id, each with its slots.
// A course that does not exist yields sql.ErrNoRows.
func (r *CourseRepository) ListUnitsByCourse(ctx context.Context, courseID int64) ([]models.CourseUnit, error) {
	course, err := r.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	const unitsQuery = `SELECT id, course_id, unit_type FROM course_units WHERE course_id = $1 ORDER BY id ASC`
	var units []models.CourseUnit
	if err := r.db.SelectContext(ctx, &units, unitsQuery, courseID); err != nil {
		return nil, fmt.Errorf("list course units: %w", err)
	}
	if len(units) == 0 {
		return []models.CourseUnit{}, nil
	}

	ids := make([]int64, len(units))
	index := make(map[int64]int, len(units))
	for i := range units {
		units[i].CourseIdent = course.Ident
		units[i].Slots = []models.CourseUnitSlot{}
		ids[i] = units[i].UnitID
		index[units[i].UnitID] = i
	}

	const slotsQuery = `SELECT id, unit_id, day, time_from, time_to, location, lecturer
FROM course_unit_slots WHERE unit_id = ANY($1) ORDER BY unit_id ASC, day ASC, time_from ASC, id ASC`
	var slots []models.CourseUnitSlot
	if err := r.db.SelectContext(ctx, &slots, slotsQuery, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list course unit slots: %w", err)
	}
	for _, slot := range slots {
		if i, ok := index[slot.UnitID]; ok {
			units[i].Slots = append(units[i].Slots, slot)
		}
	}
	return units, nil
}

// ResolveSlot loads one slot of a course as a chosen timetable slot.
func (r *CourseRepository) ResolveSlot(ctx context.Context, courseID, slotID int64) (*models.TimetableSlot, error) {
	const query = `SELECT c.id AS course_id, c.ident AS course_ident, u.id AS unit_id, u.unit_type, s.id AS slot_id,
       s.day, s.time_from, s.time_to, s.location, s.lecturer
FROM course_unit_slots s
JOIN course_units u ON u.id = s.unit_id
JOIN courses c ON c.id = u.course_id
WHERE c.id = $1 AND s.id = $2`
	var row timetableSlotRow
	if err := r.db.GetContext(ctx, &row, query, courseID, slotID); err != nil {
		return nil, fmt.Errorf("resolve course slot: %w", err)
	}
	return &models.TimetableSlot{
		CourseID:    row.CourseID,
		CourseIdent: row.CourseIdent,
		UnitID:      row.UnitID,
		UnitType:    row.UnitType,
		SlotID:      row.SlotID,
		Day:         row.Day,
		TimeFrom:    row.TimeFrom,
		TimeTo:      row.TimeTo,
		Location:    row.Location,
		Lecturer:    row.Lecturer,
	}, nil
}
