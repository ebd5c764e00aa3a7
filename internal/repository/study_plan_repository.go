package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/unistudy/timetable-api/internal/models"
)

// StudyPlanRepository reads study plans and their course memberships.
type StudyPlanRepository struct {
	db *sqlx.DB
}

// NewStudyPlanRepository builds a study plan repository.
func NewStudyPlanRepository(db *sqlx.DB) *StudyPlanRepository {
	return &StudyPlanRepository{db: db}
}

// FindByID returns a study plan or sql.ErrNoRows.
func (r *StudyPlanRepository) FindByID(ctx context.Context, id int64) (*models.StudyPlan, error) {
	const query = `SELECT id, name, program FROM study_plans WHERE id = $1`
	var plan models.StudyPlan
	if err := r.db.GetContext(ctx, &plan, query, id); err != nil {
		return nil, fmt.Errorf("get study plan: %w", err)
	}
	return &plan, nil
}

// ListCourses returns the plan's courses for one semester and study year, ordered by ident.
func (r *StudyPlanRepository) ListCourses(ctx context.Context, studyPlanID int64, semester models.Semester, year int) ([]models.StudyPlanCourse, error) {
	const query = `SELECT spc.study_plan_id, spc.course_id, c.ident AS course_ident, c.name, spc.category, spc.group_name, c.ects, spc.semester, spc.year
FROM study_plan_courses spc
JOIN courses c ON c.id = spc.course_id
WHERE spc.study_plan_id = $1 AND spc.semester = $2 AND spc.year = $3
ORDER BY c.ident ASC, c.id ASC`
	var courses []models.StudyPlanCourse
	if err := r.db.SelectContext(ctx, &courses, query, studyPlanID, string(semester), year); err != nil {
		return nil, fmt.Errorf("list study plan courses: %w", err)
	}
	return courses, nil
}
