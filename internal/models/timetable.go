package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// MinutesPerDay bounds every time_from/time_to value.
const MinutesPerDay = 1440

// Day is a teaching weekday. The numeric value is the canonical sort order.
type Day int

const (
	Monday Day = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
)

var dayNames = [...]string{"", "monday", "tuesday", "wednesday", "thursday", "friday"}

// Days returns the weekdays in canonical order.
func Days() []Day {
	return []Day{Monday, Tuesday, Wednesday, Thursday, Friday}
}

// Valid reports whether d is one of the five teaching weekdays.
func (d Day) Valid() bool {
	return d >= Monday && d <= Friday
}

func (d Day) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

// Title returns the capitalised day name used in human-readable messages.
func (d Day) Title() string {
	name := d.String()
	if !d.Valid() {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// ParseDay resolves a day name (case-insensitive, "mon" style prefixes allowed).
func ParseDay(raw string) (Day, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if len(key) >= 3 {
		for _, d := range Days() {
			if strings.HasPrefix(dayNames[d], key) {
				return d, nil
			}
		}
	}
	return 0, fmt.Errorf("unknown day %q", raw)
}

// MarshalText implements encoding.TextMarshaler.
func (d Day) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid day %d", int(d))
	}
	return []byte(dayNames[d]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Day) UnmarshalText(text []byte) error {
	parsed, err := ParseDay(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan accepts either the numeric day (1-5) or its name.
func (d *Day) Scan(src interface{}) error {
	switch v := src.(type) {
	case int64:
		*d = Day(v)
	case int:
		*d = Day(v)
	case int32:
		*d = Day(v)
	case []byte:
		return d.UnmarshalText(v)
	case string:
		return d.UnmarshalText([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into Day", src)
	}
	if !d.Valid() {
		return fmt.Errorf("invalid day %d", int(*d))
	}
	return nil
}

// Value stores the day as its numeric order.
func (d Day) Value() (driver.Value, error) {
	return int64(d), nil
}

// TimeSlot is one weekly recurring interval [TimeFrom, TimeTo) in minutes since midnight.
type TimeSlot struct {
	Day      Day `json:"day"`
	TimeFrom int `json:"time_from"`
	TimeTo   int `json:"time_to"`
}

// Valid reports a known day and 0 <= from < to <= 1440.
func (s TimeSlot) Valid() bool {
	return s.Day.Valid() && s.TimeFrom >= 0 && s.TimeFrom < s.TimeTo && s.TimeTo <= MinutesPerDay
}

// Minutes returns the slot duration; degenerate slots count as zero.
func (s TimeSlot) Minutes() int {
	if s.TimeTo <= s.TimeFrom {
		return 0
	}
	return s.TimeTo - s.TimeFrom
}

// Overlaps uses half-open semantics: touching endpoints do not overlap.
// Degenerate slots never overlap anything.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	_, _, ok := OverlapInterval(s, other)
	return ok
}

// OverlapInterval returns the shared part of two slots.
func OverlapInterval(a, b TimeSlot) (from, to int, ok bool) {
	if a.Day != b.Day || a.TimeFrom >= a.TimeTo || b.TimeFrom >= b.TimeTo {
		return 0, 0, false
	}
	if !(a.TimeFrom < b.TimeTo && b.TimeFrom < a.TimeTo) {
		return 0, 0, false
	}
	from = a.TimeFrom
	if b.TimeFrom > from {
		from = b.TimeFrom
	}
	to = a.TimeTo
	if b.TimeTo < to {
		to = b.TimeTo
	}
	return from, to, true
}

// FormatClock renders minutes since midnight as HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// TimetableSlot is one chosen weekly session of a course unit.
type TimetableSlot struct {
	CourseID    int64    `json:"course_id" yaml:"course_id" validate:"required,min=1"`
	CourseIdent string   `json:"course_ident" yaml:"course_ident"`
	UnitID      int64    `json:"unit_id" yaml:"unit_id" validate:"required,min=1"`
	UnitType    UnitType `json:"unit_type,omitempty" yaml:"unit_type,omitempty" validate:"omitempty,oneof=lecture exercise seminar"`
	SlotID      int64    `json:"slot_id" yaml:"slot_id" validate:"required,min=1"`
	Day         Day      `json:"day" yaml:"day" validate:"required,min=1,max=5"`
	TimeFrom    int      `json:"time_from" yaml:"time_from" validate:"min=0,max=1440"`
	TimeTo      int      `json:"time_to" yaml:"time_to" validate:"min=0,max=1440,gtfield=TimeFrom"`
	Location    *string  `json:"location,omitempty" yaml:"location,omitempty"`
	Lecturer    *string  `json:"lecturer,omitempty" yaml:"lecturer,omitempty"`
}

// TimeSlot returns the interval part of the slot.
func (s TimetableSlot) TimeSlot() TimeSlot {
	return TimeSlot{Day: s.Day, TimeFrom: s.TimeFrom, TimeTo: s.TimeTo}
}

// LessTimetableSlot is the canonical total order for chosen slots:
// day, start, end, course ident, course id, unit id, slot id.
func LessTimetableSlot(a, b TimetableSlot) bool {
	if a.Day != b.Day {
		return a.Day < b.Day
	}
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
	if a.UnitID != b.UnitID {
		return a.UnitID < b.UnitID
	}
	return a.SlotID < b.SlotID
}

// ConflictingSlot identifies the other side of a detected overlap.
type ConflictingSlot struct {
	CourseID    int64  `json:"course_id"`
	CourseIdent string `json:"course_ident"`
	UnitID      int64  `json:"unit_id"`
	SlotID      int64  `json:"slot_id"`
	TimeFrom    int    `json:"time_from"`
	TimeTo      int    `json:"time_to"`
}

// TimetableTimeConflict describes one overlapping pair, reported from the perspective of the checked slot.
type TimetableTimeConflict struct {
	CourseID    int64           `json:"course_id"`
	CourseIdent string          `json:"course_ident"`
	UnitID      int64           `json:"unit_id"`
	SlotID      int64           `json:"slot_id"`
	Day         Day             `json:"day"`
	TimeFrom    int             `json:"time_from"`
	TimeTo      int             `json:"time_to"`
	OverlapFrom int             `json:"overlap_from"`
	OverlapTo   int             `json:"overlap_to"`
	With        ConflictingSlot `json:"conflicts_with"`
}

// TimetableCoverage summarises how much of a study plan made it into a generated timetable.
type TimetableCoverage struct {
	CompulsoryFulfilled bool     `json:"compulsory_fulfilled"`
	MissingCompulsory   []string `json:"missing_compulsory"`
	ElectiveCount       int      `json:"elective_count"`
}

// TimetableGenerated is the output of the study plan generator.
type TimetableGenerated struct {
	StudyPlanID int64                   `json:"study_plan_id"`
	Semester    Semester                `json:"semester"`
	Year        int                     `json:"year"`
	Slots       []TimetableSlot         `json:"slots"`
	TotalECTS   int                     `json:"total_ects"`
	TotalHours  float64                 `json:"total_hours"`
	Conflicts   []TimetableTimeConflict `json:"conflicts"`
	Warnings    []string                `json:"warnings"`
	Coverage    TimetableCoverage       `json:"coverage"`
}
