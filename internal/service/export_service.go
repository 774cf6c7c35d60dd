package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/export"
	"github.com/noah-isme/sma-timetable/pkg/storage"
)

type savedTimetableReader interface {
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	ListLessons(ctx context.Context, timetableID string) ([]models.TimetableLesson, error)
}

type exportNameReader interface {
	ListSubjects(ctx context.Context) ([]models.Subject, error)
	ListClasses(ctx context.Context) ([]models.Class, error)
	ListTeachers(ctx context.Context) ([]models.Teacher, error)
	ListRooms(ctx context.Context) ([]models.Room, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	RenderGrid(grid export.Grid) ([]byte, error)
}

type pdfRenderer interface {
	RenderGrid(grid export.Grid) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	// ResultTTL is how long rendered files are kept; defaults to the signer TTL.
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// ExportService renders the weekly grid of a class or teacher from a saved timetable and stores the file.
type ExportService struct {
	timetables savedTimetableReader
	names      exportNameReader
	storage    fileStorage
	csv        csvRenderer
	pdf        pdfRenderer
	signer     *storage.SignedURLSigner
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        ExportConfig
}

// NewExportService constructs an ExportService. Nil renderers fall back to the package defaults.
func NewExportService(timetables savedTimetableReader, names exportNameReader, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = signer.TTL()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		timetables: timetables,
		names:      names,
		storage:    store,
		csv:        csv,
		pdf:        pdf,
		signer:     signer,
		validator:  validator.New(),
		logger:     logger,
		cfg:        cfg,
	}
}

// Export renders one week of a saved timetable and returns a signed download URL.
func (s *ExportService) Export(ctx context.Context, timetableID string, req dto.ExportTimetableRequest) (*dto.ExportResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format and exactly one of classId or teacherId are required")
	}
	record, err := s.timetables.FindByID(ctx, timetableID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	rows, err := s.timetables.ListLessons(ctx, record.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable lessons")
	}
	names, err := s.loadNames(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load catalog names")
	}

	sheet, label, err := s.buildGrid(record, rows, names, req)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch req.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.RenderGrid(sheet)
	case models.ExportFormatPDF:
		payload, err = s.pdf.RenderGrid(sheet)
	default:
		err = fmt.Errorf("unsupported format %s", req.Format)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("timetable_v%d_%s_%s.%s", record.Version, sanitizeFilename(label), time.Now().UTC().Format("20060102_150405"), req.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Generate(record.ID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Info("timetable exported",
		zap.String("timetable_id", record.ID),
		zap.String("format", string(req.Format)),
		zap.String("file", relPath),
	)
	return &dto.ExportResponse{
		Filename:  filepath.Base(relPath),
		URL:       fmt.Sprintf("%s/timetables/exports/%s", prefix, token),
		ExpiresAt: expiresAt,
	}, nil
}

// Resolve validates a download token and opens the stored file.
func (s *ExportService) Resolve(ctx context.Context, token string) (*ExportDownload, error) {
	_, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	contentType := "text/csv"
	if strings.EqualFold(filepath.Ext(relPath), ".pdf") {
		contentType = "application/pdf"
	}
	return &ExportDownload{
		File:        file,
		Filename:    filepath.Base(relPath),
		ContentType: contentType,
		ExpiresAt:   expiresAt,
	}, nil
}

// Cleanup removes rendered files older than the result TTL.
func (s *ExportService) Cleanup() ([]string, error) {
	return s.storage.CleanupOlderThan(s.cfg.ResultTTL)
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ExportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := s.Cleanup()
				if err != nil {
					s.logger.Warn("export cleanup failed", zap.Error(err))
					continue
				}
				if len(removed) > 0 {
					s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
				}
			}
		}
	}()
}

type exportNames struct {
	subjects map[string]string
	classes  map[string]string
	teachers map[string]string
	rooms    map[string]string
}

func (s *ExportService) loadNames(ctx context.Context) (*exportNames, error) {
	var (
		subjects []models.Subject
		classes  []models.Class
		teachers []models.Teacher
		rooms    []models.Room
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { subjects, err = s.names.ListSubjects(gctx); return })
	g.Go(func() (err error) { classes, err = s.names.ListClasses(gctx); return })
	g.Go(func() (err error) { teachers, err = s.names.ListTeachers(gctx); return })
	g.Go(func() (err error) { rooms, err = s.names.ListRooms(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := &exportNames{
		subjects: make(map[string]string, len(subjects)),
		classes:  make(map[string]string, len(classes)),
		teachers: make(map[string]string, len(teachers)),
		rooms:    make(map[string]string, len(rooms)),
	}
	for _, item := range subjects {
		names.subjects[item.ID] = item.Name
	}
	for _, item := range classes {
		names.classes[item.ID] = item.Name
	}
	for _, item := range teachers {
		names.teachers[item.ID] = item.FullName
	}
	for _, item := range rooms {
		names.rooms[item.ID] = item.Name
	}
	return names, nil
}

func nameOr(names map[string]string, id string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return id
}

// buildGrid lays out the selected week: one column per grid day, one row per session. A lesson spanning
// several sessions appears in each of them.
func (s *ExportService) buildGrid(record *models.Timetable, rows []models.TimetableLesson, names *exportNames, req dto.ExportTimetableRequest) (export.Grid, string, error) {
	var meta models.TimetableMeta
	if len(record.Meta) > 0 {
		if err := json.Unmarshal(record.Meta, &meta); err != nil {
			return export.Grid{}, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode timetable metadata")
		}
	}
	cfg, err := gridConfigFromMeta(meta)
	if err != nil {
		return export.Grid{}, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored timetable grid is invalid")
	}
	grid, err := timetable.NewGrid(cfg)
	if err != nil {
		return export.Grid{}, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored timetable grid is invalid")
	}

	var (
		label    string
		subtitle string
		keep     func(models.TimetableLesson) bool
		describe func(timetable.Lesson) string
	)
	if req.ClassID != "" {
		name, ok := names.classes[req.ClassID]
		if !ok {
			return export.Grid{}, "", appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		label, subtitle = name, "Class "+name
		keep = func(row models.TimetableLesson) bool { return row.ClassID == req.ClassID }
		describe = func(l timetable.Lesson) string {
			return joinLines(nameOr(names.subjects, l.SubjectID), nameOr(names.teachers, l.TeacherID), roomName(names, l.RoomID))
		}
	} else {
		name, ok := names.teachers[req.TeacherID]
		if !ok {
			return export.Grid{}, "", appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		label, subtitle = name, "Teacher "+name
		keep = func(row models.TimetableLesson) bool { return row.TeacherID == req.TeacherID }
		describe = func(l timetable.Lesson) string {
			return joinLines(nameOr(names.subjects, l.SubjectID), nameOr(names.classes, l.ClassID), roomName(names, l.RoomID))
		}
	}

	days := grid.Days()
	column := make(map[timetable.Weekday]int, len(days))
	sheet := export.Grid{
		Title:    fmt.Sprintf("Timetable v%d (%s)", record.Version, strings.ToLower(string(record.Status))),
		Subtitle: subtitle,
		Corner:   "Session",
	}
	for i, day := range days {
		column[day] = i
		sheet.Columns = append(sheet.Columns, day.String())
	}
	sessions := grid.SlotsForDay(days[0])
	row := make(map[timetable.Clock]int, len(sessions))
	for i, slot := range sessions {
		row[slot.Start] = i
		sheet.Rows = append(sheet.Rows, export.GridRow{Label: slot.Interval().String(), Cells: make([]string, len(days))})
	}

	for _, item := range rows {
		if !keep(item) {
			continue
		}
		lesson, err := lessonFromModel(item)
		if err != nil {
			return export.Grid{}, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored timetable lesson is invalid")
		}
		col, ok := column[lesson.Day]
		if !ok {
			continue
		}
		text := describe(lesson)
		for _, slot := range grid.SlotsForDay(lesson.Day) {
			if !slot.Interval().Overlaps(lesson.Interval()) {
				continue
			}
			if r, ok := row[slot.Start]; ok {
				sheet.Rows[r].Cells[col] = text
			}
		}
	}
	return sheet, label, nil
}

func roomName(names *exportNames, roomID string) string {
	if roomID == "" {
		return ""
	}
	return nameOr(names.rooms, roomID)
}

func joinLines(parts ...string) string {
	lines := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			lines = append(lines, part)
		}
	}
	return strings.Join(lines, "\n")
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
