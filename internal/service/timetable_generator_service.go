package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unistudy/timetable-api/internal/dto"
	"github.com/unistudy/timetable-api/internal/models"
	appErrors "github.com/unistudy/timetable-api/pkg/errors"
)

type studyPlanReader interface {
	FindByID(ctx context.Context, id int64) (*models.StudyPlan, error)
	ListCourses(ctx context.Context, studyPlanID int64, semester models.Semester, year int) ([]models.StudyPlanCourse, error)
}

type generationObserver interface {
	ObserveCatalogFetch(operation string, err error, duration time.Duration)
	ObserveGeneration(stats GenerationStats, duration time.Duration)
}

// GenerationStats counts notable events of one generator run.
type GenerationStats struct {
	Conflicts        int
	SkippedElectives int
	ForcedUnits      int
	Repairs          int
}

// TimetableGeneratorConfig governs generator behaviour.
type TimetableGeneratorConfig struct {
	FetchConcurrency int
	FetchTimeout     time.Duration
	RepairEnabled    bool
}

// TimetableGeneratorService builds a semester timetable for a study plan.
type TimetableGeneratorService struct {
	plans     studyPlanReader
	units     courseUnitSource
	metrics   generationObserver
	tracer    trace.Tracer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableGeneratorConfig
}

// NewTimetableGeneratorService wires generator dependencies.
func NewTimetableGeneratorService(
	plans studyPlanReader,
	units courseUnitSource,
	metrics generationObserver,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableGeneratorConfig,
) *TimetableGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 8
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	return &TimetableGeneratorService{
		plans:     plans,
		units:     units,
		metrics:   metrics,
		tracer:    otel.Tracer("github.com/unistudy/timetable-api/internal/service"),
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate loads the plan's catalog data and runs the greedy planner.
// Unsatisfiable constraints are reported in the result, never as errors.
func (s *TimetableGeneratorService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}
	if req.PreferredTimeFrom != nil && req.PreferredTimeTo != nil && *req.PreferredTimeFrom >= *req.PreferredTimeTo {
		return nil, appErrors.Clone(appErrors.ErrValidation, "preferred_time_from must be before preferred_time_to")
	}

	ctx, span := s.tracer.Start(ctx, "timetable.generate", trace.WithAttributes(
		attribute.Int64("study_plan_id", req.StudyPlanID),
		attribute.String("semester", string(req.Semester)),
		attribute.Int("year", req.Year),
	))
	defer span.End()
	started := time.Now()

	courses, units, err := s.fetch(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog fetch failed")
		return nil, err
	}

	planner := newTimetablePlanner(req, s.cfg.RepairEnabled)
	result := planner.run(courses, units)
	result.StudyPlanID = req.StudyPlanID
	result.Semester = req.Semester
	result.Year = req.Year

	planner.stats.Conflicts = len(result.Conflicts)
	if s.metrics != nil {
		s.metrics.ObserveGeneration(planner.stats, time.Since(started))
	}
	span.SetAttributes(
		attribute.Int("courses", len(courses)),
		attribute.Int("slots", len(result.Slots)),
		attribute.Int("conflicts", len(result.Conflicts)),
		attribute.Int("repairs", planner.stats.Repairs),
	)
	if len(result.Conflicts) > 0 {
		s.logger.Warn("generated timetable contains conflicts",
			zap.Int64("study_plan_id", req.StudyPlanID),
			zap.Int("conflicts", len(result.Conflicts)),
			zap.Strings("missing_compulsory", result.Coverage.MissingCompulsory),
		)
	}

	return &dto.GenerateTimetableResponse{Timetable: result}, nil
}

// fetch loads the plan, its schedulable courses and their units. Courses whose
// units are missing map to a nil entry and are handled as soft failures.
func (s *TimetableGeneratorService) fetch(ctx context.Context, req dto.GenerateTimetableRequest) ([]models.StudyPlanCourse, map[int64][]models.CourseUnit, error) {
	start := time.Now()
	_, err := s.plans.FindByID(ctx, req.StudyPlanID)
	s.observeFetch("study_plan", err, start)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("study plan %d not found", req.StudyPlanID))
		}
		s.logger.Error("load study plan failed", zap.Int64("study_plan_id", req.StudyPlanID), zap.Error(err))
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study plan")
	}

	start = time.Now()
	memberships, err := s.plans.ListCourses(ctx, req.StudyPlanID, req.Semester, req.Year)
	s.observeFetch("study_plan_courses", err, start)
	if err != nil {
		s.logger.Error("list study plan courses failed", zap.Int64("study_plan_id", req.StudyPlanID), zap.Error(err))
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study plan courses")
	}

	courses := schedulableCourses(memberships, req.IncludeElectives)
	fetched := make([][]models.CourseUnit, len(courses))
	missing := make([]bool, len(courses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FetchConcurrency)
	for i := range courses {
		i := i
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, s.cfg.FetchTimeout)
			defer cancel()

			start := time.Now()
			units, err := s.units.ListUnitsByCourse(callCtx, courses[i].CourseID)
			s.observeFetch("course_units", err, start)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					missing[i] = true
					return nil
				}
				return fmt.Errorf("course %s: %w", courses[i].CourseIdent, err)
			}
			fetched[i] = units
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("prefetch course units failed", zap.Int64("study_plan_id", req.StudyPlanID), zap.Error(err))
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course units")
	}

	units := make(map[int64][]models.CourseUnit, len(courses))
	for i, course := range courses {
		if missing[i] {
			s.logger.Warn("course units not found", zap.Int64("study_plan_id", req.StudyPlanID), zap.Int64("course_id", course.CourseID))
			continue
		}
		units[course.CourseID] = fetched[i]
	}
	return courses, units, nil
}

func (s *TimetableGeneratorService) observeFetch(operation string, err error, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveCatalogFetch(operation, err, time.Since(start))
	}
}

// schedulableCourses keeps mandatory courses and, when requested, optional
// ones. Each course appears once; mandatory membership wins over optional.
// The result lists mandatory courses first, each group ordered by ident then id.
func schedulableCourses(memberships []models.StudyPlanCourse, includeElectives bool) []models.StudyPlanCourse {
	byCourse := make(map[int64]models.StudyPlanCourse, len(memberships))
	order := make([]int64, 0, len(memberships))
	for _, m := range memberships {
		switch m.Category.Requirement() {
		case models.RequirementMandatory:
		case models.RequirementOptional:
			if !includeElectives {
				continue
			}
		case models.RequirementNone:
			continue
		}
		existing, seen := byCourse[m.CourseID]
		if !seen {
			order = append(order, m.CourseID)
			byCourse[m.CourseID] = m
			continue
		}
		if existing.Category.Requirement() != models.RequirementMandatory && m.Category.Requirement() == models.RequirementMandatory {
			byCourse[m.CourseID] = m
		}
	}

	out := make([]models.StudyPlanCourse, 0, len(order))
	for _, id := range order {
		out = append(out, byCourse[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Category.Requirement(), out[j].Category.Requirement()
		if ri != rj {
			return ri == models.RequirementMandatory
		}
		if out[i].CourseIdent != out[j].CourseIdent {
			return out[i].CourseIdent < out[j].CourseIdent
		}
		return out[i].CourseID < out[j].CourseID
	})
	return out
}
