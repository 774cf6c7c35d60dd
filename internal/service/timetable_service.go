package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/timetable"
	"github.com/noah-isme/sma-timetable/pkg/config"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

type termReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type timetableRepository interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, record *models.Timetable) error
	InsertLessons(ctx context.Context, exec sqlx.ExtContext, lessons []models.TimetableLesson) error
	ArchivePublished(ctx context.Context, exec sqlx.ExtContext, termID, exceptID string) (int64, error)
	ListByTerm(ctx context.Context, termID string) ([]models.Timetable, error)
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	ListLessons(ctx context.Context, timetableID string) ([]models.TimetableLesson, error)
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// TimetableService generates school-wide timetables, holds them as editable drafts and persists
// them as versioned timetables.
type TimetableService struct {
	terms       termReader
	catalog     catalogReader
	constraints constraintReader
	timetables  timetableRepository
	tx          txProvider
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	settings    config.TimetableConfig
	cacheTTL    time.Duration
	store       *draftStore
}

// TimetableServiceConfig governs engine defaults and draft lifetime.
type TimetableServiceConfig struct {
	Settings config.TimetableConfig
	CacheTTL time.Duration
}

// NewTimetableService wires timetable dependencies.
func NewTimetableService(
	terms termReader,
	catalog catalogReader,
	constraints constraintReader,
	timetables timetableRepository,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableServiceConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Settings.DraftTTL <= 0 {
		cfg.Settings.DraftTTL = 2 * time.Hour
	}
	if cfg.Settings.GenerationTimeout <= 0 {
		cfg.Settings.GenerationTimeout = 30 * time.Second
	}
	return &TimetableService{
		terms:       terms,
		catalog:     catalog,
		constraints: constraints,
		timetables:  timetables,
		tx:          tx,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		settings:    cfg.Settings,
		cacheTTL:    cfg.CacheTTL,
		store:       newDraftStore(cfg.Settings.DraftTTL),
	}
}

// Generate builds a new draft for the term from the catalog and the term's constraints.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.DraftResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}
	if err := s.ensureTerm(ctx, req.TermID); err != nil {
		return nil, err
	}
	data, err := s.loadPlanning(ctx, req.TermID)
	if err != nil {
		return nil, err
	}

	gridCfg, err := gridConfigFromSettings(s.settings, req.Days)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable grid")
	}
	grid, err := timetable.NewGrid(gridCfg)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable grid")
	}

	referenceClassID := req.ReferenceClassID
	if referenceClassID == "" {
		referenceClassID = s.settings.ReferenceClassID
	}
	data.constraints.ReferenceClassID = referenceClassID

	scheduler, err := timetable.NewScheduler(data.catalog, data.constraints, grid, nil, s.options(req.StrictQuota, req.MaxBacktracks))
	if err != nil {
		return nil, s.setupError(err, "planning data is inconsistent")
	}

	genCtx, cancel := context.WithTimeout(ctx, s.settings.GenerationTimeout)
	defer cancel()
	result, err := scheduler.Generate(genCtx, req.ClassIDs...)
	if err != nil {
		if errors.Is(err, timetable.ErrUnknownEntity) {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unknown class in classIds")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "timetable generation failed")
	}

	s.metrics.ObserveGeneration(generationOutcome(result), result.Stats.Duration, result.Stats.LessonsPlaced, len(result.Shortfalls))
	s.logger.Info("timetable generated",
		zap.String("term_id", req.TermID),
		zap.Int("classes", result.Stats.Classes),
		zap.Int("lessons", len(result.Lessons)),
		zap.Int("shortfalls", len(result.Shortfalls)),
		zap.Int("backtracks", result.Stats.Backtracks),
		zap.Bool("interrupted", result.Stats.Interrupted),
		zap.Duration("duration", result.Stats.Duration),
	)

	stats := result.Stats
	draft := &timetableDraft{
		id:               uuid.NewString(),
		termID:           req.TermID,
		scheduler:        scheduler,
		gridCfg:          grid.Config(),
		referenceClassID: referenceClassID,
		stats:            &stats,
	}
	s.store.Save(draft)
	s.metrics.SetActiveDrafts(s.store.Len())
	return s.draftResponse(draft), nil
}

// OpenDraft loads a saved version into a new editable draft.
func (s *TimetableService) OpenDraft(ctx context.Context, timetableID string) (*dto.DraftResponse, error) {
	record, err := s.findTimetable(ctx, timetableID)
	if err != nil {
		return nil, err
	}
	rows, err := s.timetables.ListLessons(ctx, record.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable lessons")
	}

	var meta models.TimetableMeta
	if len(record.Meta) > 0 {
		if err := json.Unmarshal(record.Meta, &meta); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode timetable metadata")
		}
	}
	gridCfg, err := gridConfigFromMeta(meta)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored timetable grid is invalid")
	}
	grid, err := timetable.NewGrid(gridCfg)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored timetable grid is invalid")
	}

	lessons := make([]timetable.Lesson, 0, len(rows))
	for _, row := range rows {
		lesson, err := lessonFromModel(row)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored timetable lesson is invalid")
		}
		lessons = append(lessons, lesson)
	}

	data, err := s.loadPlanning(ctx, record.TermID)
	if err != nil {
		return nil, err
	}
	data.constraints.ReferenceClassID = meta.ReferenceClassID

	scheduler, err := timetable.NewScheduler(data.catalog, data.constraints, grid, timetable.NewLessonSet(lessons...), s.options(nil, nil))
	if err != nil {
		return nil, s.setupError(err, "saved timetable no longer matches the catalog")
	}

	sourceID := record.ID
	draft := &timetableDraft{
		id:               uuid.NewString(),
		termID:           record.TermID,
		sourceID:         &sourceID,
		scheduler:        scheduler,
		gridCfg:          grid.Config(),
		referenceClassID: meta.ReferenceClassID,
	}
	s.store.Save(draft)
	s.metrics.SetActiveDrafts(s.store.Len())
	return s.draftResponse(draft), nil
}

// GetDraft returns the current state of a draft.
func (s *TimetableService) GetDraft(ctx context.Context, draftID string) (*dto.DraftResponse, error) {
	var resp *dto.DraftResponse
	err := s.withDraft(draftID, func(d *timetableDraft) error {
		resp = s.draftResponse(d)
		return nil
	})
	return resp, err
}

// DiscardDraft drops a draft without saving it.
func (s *TimetableService) DiscardDraft(ctx context.Context, draftID string) error {
	if !s.store.Delete(draftID) {
		return appErrors.ErrDraftNotFound
	}
	s.metrics.SetActiveDrafts(s.store.Len())
	return nil
}

// CanPlace checks a time range against the draft without changing it. A refusal is a normal
// result, not an error.
func (s *TimetableService) CanPlace(ctx context.Context, draftID string, req dto.CanPlaceRequest) (*dto.VerdictResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload")
	}
	day, start, err := parseSlotRef(req.Day, req.Start)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	var resp dto.VerdictResponse
	err = s.withDraft(draftID, func(d *timetableDraft) error {
		end := start.Add(d.scheduler.Grid().SessionMinutes())
		if req.End != "" {
			parsed, err := timetable.ParseClock(req.End)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
			}
			end = parsed
		}
		if end <= start {
			return appErrors.Clone(appErrors.ErrValidation, "end must be after start")
		}
		verdict := d.scheduler.CanPlace(timetable.Placement{
			Day:            day,
			Start:          start,
			End:            end,
			TeacherID:      req.TeacherID,
			ClassID:        req.ClassID,
			RoomID:         req.RoomID,
			IgnoreLessonID: req.IgnoreLessonID,
		})
		if !verdict.OK {
			s.metrics.RecordRejection("can_place", string(verdict.Reason))
		}
		resp = verdictView(verdict)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// PlaceableSubjects lists the subjects that could be added for a class at a grid slot, in catalog order.
func (s *TimetableService) PlaceableSubjects(ctx context.Context, draftID string, query dto.PlaceableSubjectsQuery) ([]dto.SubjectView, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "classId, day and start are required")
	}
	day, start, err := parseSlotRef(query.Day, query.Start)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	var views []dto.SubjectView
	err = s.withDraft(draftID, func(d *timetableDraft) error {
		if _, ok := d.scheduler.Class(query.ClassID); !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		slot, ok := d.scheduler.Grid().SlotAt(day, start)
		if !ok {
			return appErrors.Clone(appErrors.ErrOutOfGrid, fmt.Sprintf("%s %s is not a slot of the grid", day, start))
		}
		subjects := d.scheduler.FindPlaceableSubjects(query.ClassID, slot)
		views = make([]dto.SubjectView, 0, len(subjects))
		for _, subject := range subjects {
			views = append(views, dto.SubjectView{
				ID:          subject.ID,
				Name:        subject.Name,
				WeeklyHours: d.scheduler.RequiredHours(query.ClassID, subject.ID),
				Remaining:   d.scheduler.RequiredHours(query.ClassID, subject.ID) - d.scheduler.ScheduledUnits(query.ClassID, subject.ID),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

// AddLesson places one session of a subject, picking the teacher and room automatically.
func (s *TimetableService) AddLesson(ctx context.Context, draftID string, req dto.AddLessonRequest) (*dto.LessonView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	day, start, err := parseSlotRef(req.Day, req.Start)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return s.edit(draftID, "add", func(sched *timetable.Scheduler) (timetable.Lesson, error) {
		return sched.AddLesson(req.SubjectID, req.ClassID, day, start)
	})
}

// MoveLesson moves a lesson to another start keeping its duration.
func (s *TimetableService) MoveLesson(ctx context.Context, draftID, lessonID string, req dto.MoveLessonRequest) (*dto.LessonView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload")
	}
	day, start, err := parseSlotRef(req.Day, req.Start)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return s.edit(draftID, "move", func(sched *timetable.Scheduler) (timetable.Lesson, error) {
		return sched.MoveLesson(lessonID, day, start)
	})
}

// DeleteLesson removes a lesson from the draft.
func (s *TimetableService) DeleteLesson(ctx context.Context, draftID, lessonID string) error {
	_, err := s.edit(draftID, "delete", func(sched *timetable.Scheduler) (timetable.Lesson, error) {
		return sched.DeleteLesson(lessonID)
	})
	return err
}

// ChangeRoom assigns a room to a lesson, or removes it when RoomID is empty.
func (s *TimetableService) ChangeRoom(ctx context.Context, draftID, lessonID string, req dto.ChangeRoomRequest) (*dto.LessonView, error) {
	return s.edit(draftID, "change_room", func(sched *timetable.Scheduler) (timetable.Lesson, error) {
		return sched.ChangeRoom(lessonID, req.RoomID)
	})
}

// ExtendLesson lengthens a lesson by the following grid slot.
func (s *TimetableService) ExtendLesson(ctx context.Context, draftID, lessonID string) (*dto.LessonView, error) {
	return s.edit(draftID, "extend", func(sched *timetable.Scheduler) (timetable.Lesson, error) {
		return sched.ExtendLesson(lessonID)
	})
}

// Save persists the draft as a new version of its term. Publishing archives the previously
// published version in the same transaction. The draft stays open and now tracks the new version.
func (s *TimetableService) Save(ctx context.Context, draftID string, req dto.SaveTimetableRequest) (*models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save timetable payload")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	var record *models.Timetable
	var archived int64
	err := s.withDraft(draftID, func(d *timetableDraft) (err error) {
		lessons := d.scheduler.LessonSet().Sorted()
		meta := metaFromGrid(d.gridCfg)
		meta.Note = req.Note
		meta.ReferenceClassID = d.referenceClassID
		meta.LessonCount = len(lessons)
		meta.ShortfallCount = len(d.scheduler.QuotaShortfalls())
		metaBytes, marshalErr := json.Marshal(meta)
		if marshalErr != nil {
			return appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode timetable metadata")
		}

		status := models.TimetableStatusDraft
		if req.Publish {
			status = models.TimetableStatusPublished
		}
		candidate := &models.Timetable{TermID: d.termID, Status: status, Meta: types.JSONText(metaBytes)}

		tx, beginErr := s.tx.BeginTxx(ctx, nil)
		if beginErr != nil {
			return appErrors.Wrap(beginErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback()
			}
		}()

		if err = s.timetables.CreateVersioned(ctx, tx, candidate); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable")
		}
		rows := make([]models.TimetableLesson, 0, len(lessons))
		for _, lesson := range lessons {
			rows = append(rows, lessonToModel(candidate.ID, lesson, candidate.CreatedAt))
		}
		if err = s.timetables.InsertLessons(ctx, tx, rows); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable lessons")
		}
		if req.Publish {
			if archived, err = s.timetables.ArchivePublished(ctx, tx, d.termID, candidate.ID); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive previous timetable")
			}
		}
		if err = tx.Commit(); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable transaction")
		}

		id := candidate.ID
		d.sourceID = &id
		record = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = s.cache.Invalidate(ctx, TermTimetablesCacheKey(record.TermID))
	if archived > 0 {
		_ = s.cache.InvalidatePattern(ctx, timetableCachePrefix+"*")
	}
	s.logger.Info("timetable saved",
		zap.String("timetable_id", record.ID),
		zap.String("term_id", record.TermID),
		zap.Int("version", record.Version),
		zap.String("status", string(record.Status)),
		zap.Int64("archived", archived),
	)
	return record, nil
}

// List returns the saved versions of a term, newest first.
func (s *TimetableService) List(ctx context.Context, query dto.TimetableQuery) ([]models.Timetable, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "termId is required")
	}
	key := TermTimetablesCacheKey(query.TermID)
	var cached []models.Timetable
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}
	list, err := s.timetables.ListByTerm(ctx, query.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	if list == nil {
		list = []models.Timetable{}
	}
	_ = s.cache.Set(ctx, key, list, s.cacheTTL)
	return list, nil
}

// Get returns a saved version with its lessons. Reads go through the cache.
func (s *TimetableService) Get(ctx context.Context, id string) (*dto.TimetableDetailResponse, bool, error) {
	key := TimetableCacheKey(id)
	var cached dto.TimetableDetailResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	record, err := s.findTimetable(ctx, id)
	if err != nil {
		return nil, false, err
	}
	rows, err := s.timetables.ListLessons(ctx, id)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable lessons")
	}
	lessons := make([]timetable.Lesson, 0, len(rows))
	for _, row := range rows {
		lesson, err := lessonFromModel(row)
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored timetable lesson is invalid")
		}
		lessons = append(lessons, lesson)
	}
	timetable.SortLessons(lessons)

	resp := &dto.TimetableDetailResponse{Timetable: *record, Lessons: lessonViews(nil, lessons)}
	_ = s.cache.Set(ctx, key, resp, s.cacheTTL)
	return resp, false, nil
}

// Delete removes a saved version. Published and archived versions are kept as history.
func (s *TimetableService) Delete(ctx context.Context, id string) error {
	record, err := s.findTimetable(ctx, id)
	if err != nil {
		return err
	}
	if record.Status != models.TimetableStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only draft timetables can be deleted")
	}
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	if err := s.timetables.Delete(ctx, tx, id); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable transaction")
	}
	_ = s.cache.Invalidate(ctx, TimetableCacheKey(id), TermTimetablesCacheKey(record.TermID))
	return nil
}

// StartDraftJanitor periodically drops expired drafts until ctx is cancelled.
func (s *TimetableService) StartDraftJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.store.Sweep(); removed > 0 {
					s.logger.Info("expired drafts removed", zap.Int("count", removed))
				}
				s.metrics.SetActiveDrafts(s.store.Len())
			}
		}
	}()
}

func (s *TimetableService) edit(draftID, operation string, apply func(*timetable.Scheduler) (timetable.Lesson, error)) (*dto.LessonView, error) {
	var view dto.LessonView
	err := s.withDraft(draftID, func(d *timetableDraft) error {
		lesson, err := apply(d.scheduler)
		if err != nil {
			return s.editError(operation, err)
		}
		s.metrics.RecordEdit(operation)
		view = lessonView(d.scheduler, lesson)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *TimetableService) withDraft(draftID string, fn func(*timetableDraft) error) error {
	draft, ok := s.store.Get(draftID)
	if !ok {
		return appErrors.ErrDraftNotFound
	}
	draft.mu.Lock()
	defer draft.mu.Unlock()
	return fn(draft)
}

func (s *TimetableService) draftResponse(d *timetableDraft) *dto.DraftResponse {
	resp := &dto.DraftResponse{
		DraftID:           d.id,
		TermID:            d.termID,
		SourceTimetableID: d.sourceID,
		ExpiresAt:         s.store.ExpiresAt(d),
		Grid:              gridView(d.scheduler.Grid()),
		Lessons:           lessonViews(d.scheduler, d.scheduler.LessonSet().Sorted()),
		Shortfalls:        shortfallViews(d.scheduler.QuotaShortfalls()),
	}
	if d.stats != nil {
		resp.Stats = statsView(*d.stats)
	}
	return resp
}

func (s *TimetableService) options(strict *bool, maxBacktracks *int) timetable.Options {
	opts := timetable.Options{
		StrictQuota:   s.settings.StrictQuota,
		RequireRoom:   !s.settings.RoomsOptional,
		MaxBacktracks: s.settings.MaxBacktracks,
	}
	if strict != nil {
		opts.StrictQuota = *strict
	}
	if maxBacktracks != nil {
		opts.MaxBacktracks = *maxBacktracks
	}
	return opts
}

func (s *TimetableService) ensureTerm(ctx context.Context, termID string) error {
	if s.terms == nil {
		return nil
	}
	if _, err := s.terms.FindByID(ctx, termID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	return nil
}

func (s *TimetableService) loadPlanning(ctx context.Context, termID string) (*planningData, error) {
	start := time.Now()
	data, err := loadPlanningData(ctx, s.catalog, s.constraints, termID)
	s.metrics.ObserveDBQuery("planning_data", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load planning data")
	}
	return data, nil
}

func (s *TimetableService) findTimetable(ctx context.Context, id string) (*models.Timetable, error) {
	record, err := s.timetables.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return record, nil
}

// setupError maps scheduler construction failures. Bad reference data is a precondition problem of
// the school's records rather than of the request.
func (s *TimetableService) setupError(err error, message string) error {
	if errors.Is(err, timetable.ErrInvalidInput) || errors.Is(err, timetable.ErrUnknownEntity) {
		s.logger.Warn(message, zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrPreconditionFailed.Code, appErrors.ErrPreconditionFailed.Status, message+": "+err.Error())
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *TimetableService) editError(operation string, err error) error {
	if rejection, ok := timetable.AsRejection(err); ok {
		s.metrics.RecordRejection(operation, string(rejection.Reason))
		return rejectionError(rejection)
	}
	if errors.Is(err, timetable.ErrUnknownEntity) {
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, err.Error())
	}
	if errors.Is(err, timetable.ErrInvalidInput) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "timetable edit failed")
}

var rejectionErrors = map[timetable.Reason]*appErrors.Error{
	timetable.ReasonTeacherBusy:             appErrors.ErrTeacherBusy,
	timetable.ReasonClassBusy:               appErrors.ErrClassBusy,
	timetable.ReasonRoomOccupied:            appErrors.ErrRoomOccupied,
	timetable.ReasonTeacherConstrained:      appErrors.ErrTeacherConstrained,
	timetable.ReasonNoAvailableTeacher:      appErrors.ErrNoAvailableTeacher,
	timetable.ReasonRoomRequiredUnavailable: appErrors.ErrRoomRequiredUnavailable,
	timetable.ReasonQuotaExceeded:           appErrors.ErrQuotaExceeded,
	timetable.ReasonLessonNotFound:          appErrors.ErrLessonNotFound,
	timetable.ReasonOutOfGrid:               appErrors.ErrOutOfGrid,
}

// rejectionError turns an engine refusal into a typed HTTP error carrying the blocking lesson.
func rejectionError(r *timetable.Rejection) error {
	base, ok := rejectionErrors[r.Reason]
	if !ok {
		base = appErrors.ErrConflict
	}
	details := map[string]string{"reason": string(r.Reason)}
	if r.LessonID != "" {
		details["lessonId"] = r.LessonID
	}
	return appErrors.WithDetails(appErrors.Clone(base, r.Message), details)
}

func generationOutcome(result timetable.GenerationResult) string {
	switch {
	case result.Stats.Interrupted:
		return "interrupted"
	case len(result.Shortfalls) > 0:
		return "partial"
	default:
		return "complete"
	}
}
