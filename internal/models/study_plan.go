package models

import "fmt"

// Semester identifies the teaching half of an academic year.
type Semester string

const (
	SemesterWinter Semester = "winter"
	SemesterSummer Semester = "summer"
)

// Category classifies a course's membership in a study plan.
type Category string

const (
	CategoryCompulsory        Category = "compulsory"
	CategoryElective          Category = "elective"
	CategoryLanguage          Category = "language"
	CategoryStateExam         Category = "state_exam"
	CategoryProhibited        Category = "prohibited"
	CategoryBeyondScope       Category = "beyond_scope"
	CategoryExchangeProgram   Category = "exchange_program"
	CategoryPhysicalEducation Category = "physical_education"
)

// Requirement describes how the generator treats a category.
type Requirement int

const (
	// RequirementNone marks courses the generator never schedules.
	RequirementNone Requirement = iota
	// RequirementMandatory courses are always attempted.
	RequirementMandatory
	// RequirementOptional courses are attempted when electives are requested and the budget allows.
	RequirementOptional
)

// Requirement maps the category onto its scheduling treatment.
func (c Category) Requirement() Requirement {
	switch c {
	case CategoryCompulsory:
		return RequirementMandatory
	case CategoryElective:
		return RequirementOptional
	case CategoryLanguage, CategoryStateExam, CategoryProhibited, CategoryBeyondScope,
		CategoryExchangeProgram, CategoryPhysicalEducation:
		return RequirementNone
	}
	return RequirementNone
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryCompulsory, CategoryElective, CategoryLanguage, CategoryStateExam, CategoryProhibited,
		CategoryBeyondScope, CategoryExchangeProgram, CategoryPhysicalEducation:
		return true
	}
	return false
}

// ParseCategory validates a raw category value.
func ParseCategory(raw string) (Category, error) {
	c := Category(raw)
	if !c.Valid() {
		return "", fmt.Errorf("unknown study plan category %q", raw)
	}
	return c, nil
}

// StudyPlan is a curriculum definition for a programme.
type StudyPlan struct {
	ID      int64  `db:"id" json:"id" yaml:"id"`
	Name    string `db:"name" json:"name" yaml:"name"`
	Program string `db:"program" json:"program" yaml:"program"`
}

// StudyPlanCourse is a course's membership in a study plan for one semester.
type StudyPlanCourse struct {
	StudyPlanID int64    `db:"study_plan_id" json:"study_plan_id" yaml:"-"`
	CourseID    int64    `db:"course_id" json:"course_id" yaml:"course_id"`
	CourseIdent string   `db:"course_ident" json:"course_ident" yaml:"-"`
	Name        string   `db:"name" json:"name" yaml:"-"`
	Category    Category `db:"category" json:"category" yaml:"category"`
	Group       string   `db:"group_name" json:"group" yaml:"group"`
	ECTS        int      `db:"ects" json:"ects" yaml:"-"`
	Semester    Semester `db:"semester" json:"semester" yaml:"semester"`
	Year        int      `db:"year" json:"year" yaml:"year"`
}
