package service

import (
	"fmt"
	"sort"

	"github.com/unistudy/timetable-api/internal/dto"
	"github.com/unistudy/timetable-api/internal/models"
)

// preferenceWindow describes the days and hours a student would like to attend.
type preferenceWindow struct {
	days map[models.Day]bool
	from *int
	to   *int
}

func newPreferenceWindow(req dto.GenerateTimetableRequest) preferenceWindow {
	p := preferenceWindow{from: req.PreferredTimeFrom, to: req.PreferredTimeTo}
	if len(req.PreferredDays) > 0 {
		p.days = make(map[models.Day]bool, len(req.PreferredDays))
		for _, d := range req.PreferredDays {
			p.days[d] = true
		}
	}
	return p
}

func (p preferenceWindow) dayAllowed(d models.Day) bool {
	return p.days == nil || p.days[d]
}

func (p preferenceWindow) contains(slot models.TimeSlot) bool {
	if !p.dayAllowed(slot.Day) {
		return false
	}
	if p.from != nil && slot.TimeFrom < *p.from {
		return false
	}
	if p.to != nil && slot.TimeTo > *p.to {
		return false
	}
	return true
}

// outsideMinutes counts the minutes of slot that fall outside the window.
func (p preferenceWindow) outsideMinutes(slot models.TimeSlot) int {
	total := slot.Minutes()
	if !p.dayAllowed(slot.Day) {
		return total
	}
	lo, hi := slot.TimeFrom, slot.TimeTo
	if p.from != nil && *p.from > lo {
		lo = *p.from
	}
	if p.to != nil && *p.to < hi {
		hi = *p.to
	}
	if hi <= lo {
		return total
	}
	return total - (hi - lo)
}

// candidateScore ranks one unit against the committed schedule.
type candidateScore struct {
	unit      models.CourseUnit
	slots     []models.TimetableSlot
	tier      int
	conflicts int
	outside   int
}

func lessScore(a, b candidateScore) bool {
	if a.tier != b.tier {
		return a.tier > b.tier
	}
	if a.conflicts != b.conflicts {
		return a.conflicts < b.conflicts
	}
	if a.outside != b.outside {
		return a.outside < b.outside
	}
	return a.unit.UnitID < b.unit.UnitID
}

// committedUnit is one unit accepted into the timetable.
type committedUnit struct {
	course models.StudyPlanCourse
	unit   models.CourseUnit
	slots  []models.TimetableSlot
	forced bool
}

// timetablePlanner is the CPU-only phase of generation. It holds no shared state.
type timetablePlanner struct {
	prefs     preferenceWindow
	maxECTS   *int
	repair    bool
	units     map[int64][]models.CourseUnit
	committed []committedUnit
	warnings  []string
	stats     GenerationStats
}

func newTimetablePlanner(req dto.GenerateTimetableRequest, repair bool) *timetablePlanner {
	return &timetablePlanner{
		prefs:   newPreferenceWindow(req),
		maxECTS: req.MaxECTS,
		repair:  repair,
	}
}

// run places courses in order. Courses must be mandatory first, each group sorted by ident.
func (p *timetablePlanner) run(courses []models.StudyPlanCourse, units map[int64][]models.CourseUnit) models.TimetableGenerated {
	p.units = units
	p.committed = nil
	p.warnings = make([]string, 0)

	missing := make([]string, 0)
	compulsoryECTS, electiveECTS := 0, 0
	placedCourses := make(map[int64]bool)
	budgetChecked := false

	for _, course := range courses {
		mandatory := course.Category.Requirement() == models.RequirementMandatory

		if !mandatory && !budgetChecked {
			budgetChecked = true
			p.warnCompulsoryOverBudget(compulsoryECTS)
		}

		courseUnits, found := units[course.CourseID]
		if !found {
			p.warnf("course %s could not be loaded from the catalog and was skipped", course.CourseIdent)
			if mandatory {
				missing = append(missing, course.CourseIdent)
			} else {
				p.stats.SkippedElectives++
			}
			continue
		}
		if len(courseUnits) == 0 {
			p.warnf("course %s has no scheduled units", course.CourseIdent)
			if mandatory {
				missing = append(missing, course.CourseIdent)
			} else {
				p.stats.SkippedElectives++
			}
			continue
		}

		if !mandatory && p.maxECTS != nil && compulsoryECTS+electiveECTS+course.ECTS > *p.maxECTS {
			p.warnf("elective %s skipped: %d ECTS would exceed the %d ECTS limit", course.CourseIdent, course.ECTS, *p.maxECTS)
			p.stats.SkippedElectives++
			continue
		}

		if !p.placeCourse(course, courseUnits, mandatory) {
			p.stats.SkippedElectives++
			continue
		}
		placedCourses[course.CourseID] = true
		if mandatory {
			compulsoryECTS += course.ECTS
		} else {
			electiveECTS += course.ECTS
		}
	}
	if !budgetChecked {
		p.warnCompulsoryOverBudget(compulsoryECTS)
	}

	return p.result(courses, placedCourses, missing)
}

func (p *timetablePlanner) warnCompulsoryOverBudget(compulsoryECTS int) {
	if p.maxECTS != nil && compulsoryECTS > *p.maxECTS {
		p.warnf("compulsory courses total %d ECTS, above the %d ECTS limit", compulsoryECTS, *p.maxECTS)
	}
}

// placeCourse commits one unit per unit type. An optional course is placed
// all-or-nothing: if any type cannot be placed conflict-free, every change
// made for it is rolled back.
func (p *timetablePlanner) placeCourse(course models.StudyPlanCourse, units []models.CourseUnit, mandatory bool) bool {
	checkpoint := append([]committedUnit(nil), p.committed...)
	checkpointStats := p.stats
	checkpointWarnings := len(p.warnings)

	for _, unitType := range courseUnitTypes(units) {
		candidates := p.score(unitsOfType(units, unitType), p.committedSlots(-1))

		if best, ok := firstConflictFree(candidates); ok {
			p.commit(course, best, false)
			continue
		}
		if p.repair && p.tryRepair(course, candidates) {
			continue
		}
		if !mandatory {
			p.committed = checkpoint
			p.stats = checkpointStats
			p.warnings = p.warnings[:checkpointWarnings]
			p.warnf("elective %s skipped: every %s unit conflicts with the timetable", course.CourseIdent, unitType)
			return false
		}

		forced := candidates[0]
		p.commit(course, forced, true)
		p.stats.ForcedUnits++
		p.warnf("compulsory course %s: %s unit %d committed with %d conflicting session(s)", course.CourseIdent, unitType, forced.unit.UnitID, forced.conflicts)
	}
	return true
}

// tryRepair looks for a candidate blocked by exactly one relocatable unit of
// another course and moves that unit to one of its own alternatives. Only one
// level of relocation is attempted.
func (p *timetablePlanner) tryRepair(course models.StudyPlanCourse, candidates []candidateScore) bool {
	for _, candidate := range candidates {
		blocker, ok := p.singleBlocker(candidate.slots)
		if !ok {
			continue
		}
		blocked := p.committed[blocker]
		if blocked.forced || blocked.course.CourseID == course.CourseID {
			continue
		}

		others := p.committedSlots(blocker)
		alternatives := p.score(unitsOfType(p.units[blocked.course.CourseID], blocked.unit.UnitType), others)
		for _, alt := range alternatives {
			if alt.unit.UnitID == blocked.unit.UnitID || alt.conflicts > 0 {
				continue
			}
			withAlt := append(append([]models.TimetableSlot(nil), others...), alt.slots...)
			if countConflicts(candidate.slots, withAlt) > 0 {
				continue
			}
			p.committed[blocker] = committedUnit{course: blocked.course, unit: alt.unit, slots: alt.slots}
			candidate.conflicts = 0
			p.commit(course, candidate, false)
			p.stats.Repairs++
			p.warnf("course %s: moved %s unit %d to unit %d to fit %s", blocked.course.CourseIdent, blocked.unit.UnitType, blocked.unit.UnitID, alt.unit.UnitID, course.CourseIdent)
			return true
		}
	}
	return false
}

// singleBlocker returns the index of the only committed unit overlapping slots.
func (p *timetablePlanner) singleBlocker(slots []models.TimetableSlot) (int, bool) {
	index := -1
	for i, unit := range p.committed {
		if countConflicts(slots, unit.slots) == 0 {
			continue
		}
		if index >= 0 {
			return -1, false
		}
		index = i
	}
	return index, index >= 0
}

func (p *timetablePlanner) commit(course models.StudyPlanCourse, candidate candidateScore, forced bool) {
	p.committed = append(p.committed, committedUnit{
		course: course,
		unit:   candidate.unit,
		slots:  candidate.slots,
		forced: forced,
	})
}

// committedSlots flattens the committed schedule, leaving out the unit at skip.
func (p *timetablePlanner) committedSlots(skip int) []models.TimetableSlot {
	var out []models.TimetableSlot
	for i, unit := range p.committed {
		if i == skip {
			continue
		}
		out = append(out, unit.slots...)
	}
	return out
}

// score rates each unit against chosen and returns them in preference order.
func (p *timetablePlanner) score(units []models.CourseUnit, chosen []models.TimetableSlot) []candidateScore {
	out := make([]candidateScore, 0, len(units))
	for _, unit := range units {
		slots := unit.TimetableSlots()
		inside, outside := 0, 0
		for _, slot := range slots {
			if p.prefs.contains(slot.TimeSlot()) {
				inside++
			}
			outside += p.prefs.outsideMinutes(slot.TimeSlot())
		}
		tier := 1
		switch {
		case inside == len(slots):
			tier = 2
		case inside == 0:
			tier = 0
		}
		out = append(out, candidateScore{
			unit:      unit,
			slots:     slots,
			tier:      tier,
			conflicts: countConflicts(slots, chosen),
			outside:   outside,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return lessScore(out[i], out[j]) })
	return out
}

func (p *timetablePlanner) result(courses []models.StudyPlanCourse, placed map[int64]bool, missing []string) models.TimetableGenerated {
	slots := sortedSlots(p.committedSlots(-1))
	if slots == nil {
		slots = make([]models.TimetableSlot, 0)
	}

	minutes := 0
	for _, slot := range slots {
		minutes += slot.TimeSlot().Minutes()
	}

	totalECTS, electives := 0, 0
	for _, course := range courses {
		if !placed[course.CourseID] {
			continue
		}
		totalECTS += course.ECTS
		if course.Category.Requirement() == models.RequirementOptional {
			electives++
		}
	}

	return models.TimetableGenerated{
		Slots:      slots,
		TotalECTS:  totalECTS,
		TotalHours: roundHours(minutes),
		Conflicts:  DetectConflicts(slots),
		Warnings:   p.warnings,
		Coverage: models.TimetableCoverage{
			CompulsoryFulfilled: len(missing) == 0,
			MissingCompulsory:   missing,
			ElectiveCount:       electives,
		},
	}
}

func (p *timetablePlanner) warnf(format string, args ...interface{}) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func firstConflictFree(candidates []candidateScore) (candidateScore, bool) {
	for _, c := range candidates {
		if c.conflicts == 0 {
			return c, true
		}
	}
	return candidateScore{}, false
}

func countConflicts(slots, chosen []models.TimetableSlot) int {
	total := 0
	for _, slot := range slots {
		total += len(ConflictsWithSet(slot.TimeSlot(), chosen))
	}
	return total
}

// courseUnitTypes returns the distinct unit types of a course in lecture, exercise, seminar order.
func courseUnitTypes(units []models.CourseUnit) []models.UnitType {
	seen := make(map[models.UnitType]bool)
	var types []models.UnitType
	for _, unit := range units {
		if !seen[unit.UnitType] {
			seen[unit.UnitType] = true
			types = append(types, unit.UnitType)
		}
	}
	sort.SliceStable(types, func(i, j int) bool {
		if types[i].Rank() != types[j].Rank() {
			return types[i].Rank() < types[j].Rank()
		}
		return types[i] < types[j]
	})
	return types
}

func unitsOfType(units []models.CourseUnit, unitType models.UnitType) []models.CourseUnit {
	var out []models.CourseUnit
	for _, unit := range units {
		if unit.UnitType == unitType {
			out = append(out, unit)
		}
	}
	return out
}
