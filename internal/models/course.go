package models

import "fmt"

// UnitType enumerates the teaching components a course can offer.
type UnitType string

const (
	// UnitTypeLecture is a lecture group.
	UnitTypeLecture UnitType = "lecture"
	// UnitTypeExercise is an exercise or lab group.
	UnitTypeExercise UnitType = "exercise"
	// UnitTypeSeminar is a seminar group.
	UnitTypeSeminar UnitType = "seminar"
)

// UnitTypes returns the unit types in scheduling order.
func UnitTypes() []UnitType {
	return []UnitType{UnitTypeLecture, UnitTypeExercise, UnitTypeSeminar}
}

// Rank orders unit types lecture, exercise, seminar. Unknown types sort last.
func (t UnitType) Rank() int {
	switch t {
	case UnitTypeLecture:
		return 0
	case UnitTypeExercise:
		return 1
	case UnitTypeSeminar:
		return 2
	}
	return 3
}

// Valid reports whether t is a known unit type.
func (t UnitType) Valid() bool {
	return t.Rank() < 3
}

// ParseUnitType validates a raw unit type value.
func ParseUnitType(raw string) (UnitType, error) {
	t := UnitType(raw)
	if !t.Valid() {
		return "", fmt.Errorf("unknown unit type %q", raw)
	}
	return t, nil
}

// Course is a catalog course.
type Course struct {
	ID    int64  `db:"id" json:"id" yaml:"id"`
	Ident string `db:"ident" json:"ident" yaml:"ident"`
	Name  string `db:"name" json:"name" yaml:"name"`
	ECTS  int    `db:"ects" json:"ects" yaml:"ects"`
}

// CourseUnitSlot is one weekly occurrence of a unit.
type CourseUnitSlot struct {
	SlotID   int64   `db:"id" json:"slot_id" yaml:"slot_id"`
	UnitID   int64   `db:"unit_id" json:"unit_id" yaml:"-"`
	Day      Day     `db:"day" json:"day" yaml:"day"`
	TimeFrom int     `db:"time_from" json:"time_from" yaml:"time_from"`
	TimeTo   int     `db:"time_to" json:"time_to" yaml:"time_to"`
	Location *string `db:"location" json:"location,omitempty" yaml:"location,omitempty"`
	Lecturer *string `db:"lecturer" json:"lecturer,omitempty" yaml:"lecturer,omitempty"`
}

// TimeSlot returns the interval part of the slot.
func (s CourseUnitSlot) TimeSlot() TimeSlot {
	return TimeSlot{Day: s.Day, TimeFrom: s.TimeFrom, TimeTo: s.TimeTo}
}

// CourseUnit is one teaching group of a course together with its weekly slots.
type CourseUnit struct {
	UnitID      int64            `db:"id" json:"unit_id" yaml:"unit_id"`
	CourseID    int64            `db:"course_id" json:"course_id" yaml:"-"`
	CourseIdent string           `db:"course_ident" json:"course_ident" yaml:"-"`
	UnitType    UnitType         `db:"unit_type" json:"unit_type" yaml:"unit_type"`
	Slots       []CourseUnitSlot `db:"-" json:"slots" yaml:"slots"`
}

// TimetableSlots expands the unit into chosen-session records.
func (u CourseUnit) TimetableSlots() []TimetableSlot {
	out := make([]TimetableSlot, 0, len(u.Slots))
	for _, slot := range u.Slots {
		out = append(out, TimetableSlot{
			CourseID:    u.CourseID,
			CourseIdent: u.CourseIdent,
			UnitID:      u.UnitID,
			UnitType:    u.UnitType,
			SlotID:      slot.SlotID,
			Day:         slot.Day,
			TimeFrom:    slot.TimeFrom,
			TimeTo:      slot.TimeTo,
			Location:    slot.Location,
			Lecturer:    slot.Lecturer,
		})
	}
	return out
}
