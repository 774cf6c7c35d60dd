package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/timetable"
	"github.com/noah-isme/sma-timetable/pkg/config"
)

type catalogReader interface {
	ListSubjects(ctx context.Context) ([]models.Subject, error)
	ListGrades(ctx context.Context) ([]models.Grade, error)
	ListClasses(ctx context.Context) ([]models.Class, error)
	ListTeachers(ctx context.Context) ([]models.Teacher, error)
	ListTeacherSubjects(ctx context.Context) ([]models.TeacherSubject, error)
	ListTeacherClasses(ctx context.Context) ([]models.TeacherClass, error)
	ListRooms(ctx context.Context) ([]models.Room, error)
}

type constraintReader interface {
	ListTeacherConstraints(ctx context.Context, termID string) ([]models.TeacherConstraint, error)
	ListSubjectRequirements(ctx context.Context) ([]models.SubjectRequirement, error)
	ListLessonRequirements(ctx context.Context, termID string) ([]models.LessonRequirement, error)
}

// planningData is everything the engine needs for one term, already converted to engine types.
type planningData struct {
	catalog     timetable.Catalog
	constraints timetable.Constraints
}

type planningRows struct {
	subjects        []models.Subject
	grades          []models.Grade
	classes         []models.Class
	teachers        []models.Teacher
	teacherSubjects []models.TeacherSubject
	teacherClasses  []models.TeacherClass
	rooms           []models.Room
	windows         []models.TeacherConstraint
	subjectRules    []models.SubjectRequirement
	lessonRules     []models.LessonRequirement
}

// loadPlanningData reads the catalog and the term's constraints concurrently.
func loadPlanningData(ctx context.Context, catalog catalogReader, constraints constraintReader, termID string) (*planningData, error) {
	var rows planningRows
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { rows.subjects, err = catalog.ListSubjects(gctx); return })
	g.Go(func() (err error) { rows.grades, err = catalog.ListGrades(gctx); return })
	g.Go(func() (err error) { rows.classes, err = catalog.ListClasses(gctx); return })
	g.Go(func() (err error) { rows.teachers, err = catalog.ListTeachers(gctx); return })
	g.Go(func() (err error) { rows.teacherSubjects, err = catalog.ListTeacherSubjects(gctx); return })
	g.Go(func() (err error) { rows.teacherClasses, err = catalog.ListTeacherClasses(gctx); return })
	g.Go(func() (err error) { rows.rooms, err = catalog.ListRooms(gctx); return })
	g.Go(func() (err error) { rows.windows, err = constraints.ListTeacherConstraints(gctx, termID); return })
	g.Go(func() (err error) { rows.subjectRules, err = constraints.ListSubjectRequirements(gctx); return })
	g.Go(func() (err error) { rows.lessonRules, err = constraints.ListLessonRequirements(gctx, termID); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows.build()
}

func (r planningRows) build() (*planningData, error) {
	data := &planningData{}

	for _, s := range r.subjects {
		data.catalog.Subjects = append(data.catalog.Subjects, timetable.Subject{
			ID:          s.ID,
			Name:        s.Name,
			WeeklyHours: s.WeeklyHours,
			Coefficient: s.Coefficient,
		})
	}
	for _, g := range r.grades {
		data.catalog.Grades = append(data.catalog.Grades, timetable.Grade{ID: g.ID, Name: g.Name, Level: g.Level})
	}
	for _, c := range r.classes {
		class := timetable.Class{ID: c.ID, Name: c.Name, Capacity: c.Capacity, Abbreviation: c.Abbreviation}
		if c.GradeID != nil {
			class.GradeID = *c.GradeID
		}
		if c.GradeLevel != nil {
			class.GradeLevel = *c.GradeLevel
		}
		data.catalog.Classes = append(data.catalog.Classes, class)
	}

	// Relations may name inactive teachers; those rows are ignored.
	teacherIdx := make(map[string]int, len(r.teachers))
	for i, t := range r.teachers {
		teacherIdx[t.ID] = i
		data.catalog.Teachers = append(data.catalog.Teachers, timetable.Teacher{ID: t.ID, Name: t.FullName})
	}
	for _, rel := range r.teacherSubjects {
		if idx, ok := teacherIdx[rel.TeacherID]; ok {
			data.catalog.Teachers[idx].SubjectIDs = append(data.catalog.Teachers[idx].SubjectIDs, rel.SubjectID)
		}
	}
	for _, rel := range r.teacherClasses {
		if idx, ok := teacherIdx[rel.TeacherID]; ok {
			data.catalog.Teachers[idx].ClassIDs = append(data.catalog.Teachers[idx].ClassIDs, rel.ClassID)
		}
	}

	for _, room := range r.rooms {
		item := timetable.Room{ID: room.ID, Name: room.Name, Capacity: room.Capacity}
		if room.Category != nil {
			item.Category = *room.Category
		}
		data.catalog.Rooms = append(data.catalog.Rooms, item)
	}

	for _, w := range r.windows {
		if _, active := teacherIdx[w.TeacherID]; !active {
			continue
		}
		window, err := teacherConstraintFromModel(w)
		if err != nil {
			return nil, err
		}
		data.constraints.TeacherConstraints = append(data.constraints.TeacherConstraints, window)
	}
	for _, rule := range r.subjectRules {
		item := timetable.SubjectRequirement{
			SubjectID:      rule.SubjectID,
			TimePreference: timetable.ParseTimePreference(rule.TimePreference),
		}
		if rule.RoomID != nil {
			item.RoomID = *rule.RoomID
		}
		if rule.RoomCategory != nil {
			item.RoomCategory = *rule.RoomCategory
		}
		data.constraints.SubjectRequirements = append(data.constraints.SubjectRequirements, item)
	}
	for _, rule := range r.lessonRules {
		data.constraints.LessonRequirements = append(data.constraints.LessonRequirements, timetable.LessonRequirement{
			ClassID:   rule.ClassID,
			SubjectID: rule.SubjectID,
			Hours:     rule.Hours,
		})
	}
	return data, nil
}

func teacherConstraintFromModel(w models.TeacherConstraint) (timetable.TeacherConstraint, error) {
	day := timetable.Weekday(w.DayOfWeek)
	if !day.Valid() {
		return timetable.TeacherConstraint{}, fmt.Errorf("teacher constraint %s: invalid day %d", w.ID, w.DayOfWeek)
	}
	start, err := timetable.ParseClock(w.StartTime)
	if err != nil {
		return timetable.TeacherConstraint{}, fmt.Errorf("teacher constraint %s: %w", w.ID, err)
	}
	end, err := timetable.ParseClock(w.EndTime)
	if err != nil {
		return timetable.TeacherConstraint{}, fmt.Errorf("teacher constraint %s: %w", w.ID, err)
	}
	window := timetable.TeacherConstraint{TeacherID: w.TeacherID, Day: day, Start: start, End: end}
	if w.Reason != nil {
		window.Reason = *w.Reason
	}
	return window, nil
}

// gridConfigFromSettings parses the configured grid. A non-empty days list replaces the configured days.
func gridConfigFromSettings(cfg config.TimetableConfig, days []string) (timetable.GridConfig, error) {
	out := timetable.DefaultGridConfig()
	var err error

	rawDays := cfg.Days
	if len(days) > 0 {
		rawDays = days
	}
	if len(rawDays) > 0 {
		out.Days = make([]timetable.Weekday, 0, len(rawDays))
		for _, raw := range rawDays {
			day, err := timetable.ParseWeekday(raw)
			if err != nil {
				return out, err
			}
			out.Days = append(out.Days, day)
		}
	}
	if cfg.DayStart != "" {
		if out.DayStart, err = timetable.ParseClock(cfg.DayStart); err != nil {
			return out, fmt.Errorf("day start: %w", err)
		}
	}
	if cfg.DayEnd != "" {
		if out.DayEnd, err = timetable.ParseClock(cfg.DayEnd); err != nil {
			return out, fmt.Errorf("day end: %w", err)
		}
	}
	if cfg.SessionMinutes > 0 {
		out.SessionMinutes = cfg.SessionMinutes
	}
	out.Breaks = nil
	for _, raw := range cfg.Breaks {
		iv, err := timetable.ParseInterval(raw)
		if err != nil {
			return out, fmt.Errorf("break: %w", err)
		}
		out.Breaks = append(out.Breaks, iv)
	}
	if cfg.MorningEnd != "" {
		if out.MorningEnd, err = timetable.ParseClock(cfg.MorningEnd); err != nil {
			return out, fmt.Errorf("morning end: %w", err)
		}
	}
	if cfg.AfternoonStart != "" {
		if out.AfternoonStart, err = timetable.ParseClock(cfg.AfternoonStart); err != nil {
			return out, fmt.Errorf("afternoon start: %w", err)
		}
	}
	return out, nil
}

// gridConfigFromMeta restores the grid a saved timetable was planned on.
func gridConfigFromMeta(meta models.TimetableMeta) (timetable.GridConfig, error) {
	return gridConfigFromSettings(config.TimetableConfig{
		Days:           meta.Days,
		DayStart:       meta.DayStart,
		DayEnd:         meta.DayEnd,
		SessionMinutes: meta.SessionMinutes,
		Breaks:         meta.Breaks,
		MorningEnd:     meta.MorningEnd,
		AfternoonStart: meta.AfternoonStart,
	}, nil)
}

func metaFromGrid(cfg timetable.GridConfig) models.TimetableMeta {
	meta := models.TimetableMeta{
		DayStart:       cfg.DayStart.String(),
		DayEnd:         cfg.DayEnd.String(),
		SessionMinutes: cfg.SessionMinutes,
		MorningEnd:     cfg.MorningEnd.String(),
		AfternoonStart: cfg.AfternoonStart.String(),
	}
	for _, day := range cfg.Days {
		meta.Days = append(meta.Days, day.String())
	}
	for _, b := range cfg.Breaks {
		meta.Breaks = append(meta.Breaks, b.String())
	}
	return meta
}

func gridView(grid *timetable.Grid) dto.GridView {
	view := dto.GridView{SessionMinutes: grid.SessionMinutes()}
	for _, day := range grid.Days() {
		view.Days = append(view.Days, day.String())
	}
	if days := grid.Days(); len(days) > 0 {
		for _, slot := range grid.SlotsForDay(days[0]) {
			view.Sessions = append(view.Sessions, slot.Interval().String())
		}
	}
	return view
}

func lessonFromModel(row models.TimetableLesson) (timetable.Lesson, error) {
	day := timetable.Weekday(row.DayOfWeek)
	if !day.Valid() {
		return timetable.Lesson{}, fmt.Errorf("lesson %s: invalid day %d", row.ID, row.DayOfWeek)
	}
	start, err := timetable.ParseClock(row.StartTime)
	if err != nil {
		return timetable.Lesson{}, fmt.Errorf("lesson %s: %w", row.ID, err)
	}
	end, err := timetable.ParseClock(row.EndTime)
	if err != nil {
		return timetable.Lesson{}, fmt.Errorf("lesson %s: %w", row.ID, err)
	}
	lesson := timetable.Lesson{
		ID:        row.ID,
		Day:       day,
		Start:     start,
		End:       end,
		SubjectID: row.SubjectID,
		ClassID:   row.ClassID,
		TeacherID: row.TeacherID,
	}
	if row.RoomID != nil {
		lesson.RoomID = *row.RoomID
	}
	return lesson, nil
}

func lessonToModel(timetableID string, lesson timetable.Lesson, createdAt time.Time) models.TimetableLesson {
	row := models.TimetableLesson{
		ID:          lesson.ID,
		TimetableID: timetableID,
		DayOfWeek:   int(lesson.Day),
		StartTime:   lesson.Start.String(),
		EndTime:     lesson.End.String(),
		SubjectID:   lesson.SubjectID,
		ClassID:     lesson.ClassID,
		TeacherID:   lesson.TeacherID,
		CreatedAt:   createdAt,
	}
	if lesson.RoomID != "" {
		room := lesson.RoomID
		row.RoomID = &room
	}
	return row
}

// lessonView resolves display names through the scheduler's catalog when one is available.
func lessonView(s *timetable.Scheduler, lesson timetable.Lesson) dto.LessonView {
	view := dto.LessonView{
		ID:        lesson.ID,
		Day:       lesson.Day.String(),
		Start:     lesson.Start.String(),
		End:       lesson.End.String(),
		SubjectID: lesson.SubjectID,
		ClassID:   lesson.ClassID,
		TeacherID: lesson.TeacherID,
	}
	if lesson.RoomID != "" {
		room := lesson.RoomID
		view.RoomID = &room
	}
	if s == nil {
		return view
	}
	if subject, ok := s.Subject(lesson.SubjectID); ok {
		view.SubjectName = subject.Name
	}
	if class, ok := s.Class(lesson.ClassID); ok {
		view.ClassName = class.Name
	}
	if teacher, ok := s.Teacher(lesson.TeacherID); ok {
		view.TeacherName = teacher.Name
	}
	if room, ok := s.Room(lesson.RoomID); ok {
		view.RoomName = room.Name
	}
	return view
}

func lessonViews(s *timetable.Scheduler, lessons []timetable.Lesson) []dto.LessonView {
	views := make([]dto.LessonView, 0, len(lessons))
	for _, lesson := range lessons {
		views = append(views, lessonView(s, lesson))
	}
	return views
}

func shortfallViews(items []timetable.QuotaShortfall) []dto.ShortfallView {
	views := make([]dto.ShortfallView, 0, len(items))
	for _, item := range items {
		views = append(views, dto.ShortfallView{
			ClassID:   item.ClassID,
			SubjectID: item.SubjectID,
			Required:  item.Required,
			Scheduled: item.Scheduled,
			Missing:   item.Missing(),
		})
	}
	return views
}

func statsView(stats timetable.GenerationStats) *dto.GenerationStatsView {
	return &dto.GenerationStatsView{
		Classes:       stats.Classes,
		SlotsVisited:  stats.SlotsVisited,
		LessonsPlaced: stats.LessonsPlaced,
		Backtracks:    stats.Backtracks,
		Interrupted:   stats.Interrupted,
		DurationMs:    stats.Duration.Milliseconds(),
	}
}

func verdictView(v timetable.Verdict) dto.VerdictResponse {
	resp := dto.VerdictResponse{OK: v.OK, Reason: string(v.Reason), Message: v.Message, LessonID: v.LessonID}
	if v.Constraint != nil {
		resp.Constraint = &dto.ConstraintView{
			TeacherID: v.Constraint.TeacherID,
			Day:       v.Constraint.Day.String(),
			Start:     v.Constraint.Start.String(),
			End:       v.Constraint.End.String(),
			Reason:    v.Constraint.Reason,
		}
	}
	return resp
}

func parseSlotRef(day, start string) (timetable.Weekday, timetable.Clock, error) {
	weekday, err := timetable.ParseWeekday(day)
	if err != nil {
		return 0, 0, err
	}
	clock, err := timetable.ParseClock(strings.TrimSpace(start))
	if err != nil {
		return 0, 0, err
	}
	return weekday, clock, nil
}
