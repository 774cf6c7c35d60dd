package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/middleware"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/service"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

type timetableServiceMock struct {
	generateReq dto.GenerateTimetableRequest
	addErr      error
	placeable   dto.PlaceableSubjectsQuery
	saved       dto.SaveTimetableRequest
	cacheHit    bool
	deleted     []string
}

func (m *timetableServiceMock) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.DraftResponse, error) {
	m.generateReq = req
	return &dto.DraftResponse{DraftID: "draft-1", TermID: req.TermID}, nil
}

func (m *timetableServiceMock) OpenDraft(ctx context.Context, timetableID string) (*dto.DraftResponse, error) {
	return &dto.DraftResponse{DraftID: "draft-2", SourceTimetableID: &timetableID}, nil
}

func (m *timetableServiceMock) GetDraft(ctx context.Context, draftID string) (*dto.DraftResponse, error) {
	if draftID != "draft-1" {
		return nil, appErrors.ErrDraftNotFound
	}
	return &dto.DraftResponse{DraftID: draftID}, nil
}

func (m *timetableServiceMock) DiscardDraft(ctx context.Context, draftID string) error { return nil }

func (m *timetableServiceMock) CanPlace(ctx context.Context, draftID string, req dto.CanPlaceRequest) (*dto.VerdictResponse, error) {
	return &dto.VerdictResponse{OK: false, Reason: "TEACHER_BUSY", LessonID: "l-1"}, nil
}

func (m *timetableServiceMock) PlaceableSubjects(ctx context.Context, draftID string, query dto.PlaceableSubjectsQuery) ([]dto.SubjectView, error) {
	m.placeable = query
	return []dto.SubjectView{{ID: "math", Name: "Mathematics", WeeklyHours: 4, Remaining: 1}}, nil
}

func (m *timetableServiceMock) AddLesson(ctx context.Context, draftID string, req dto.AddLessonRequest) (*dto.LessonView, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	return &dto.LessonView{ID: "l-9", SubjectID: req.SubjectID, ClassID: req.ClassID}, nil
}

func (m *timetableServiceMock) MoveLesson(ctx context.Context, draftID, lessonID string, req dto.MoveLessonRequest) (*dto.LessonView, error) {
	return &dto.LessonView{ID: lessonID, Day: req.Day, Start: req.Start}, nil
}

func (m *timetableServiceMock) DeleteLesson(ctx context.Context, draftID, lessonID string) error {
	return nil
}

func (m *timetableServiceMock) ChangeRoom(ctx context.Context, draftID, lessonID string, req dto.ChangeRoomRequest) (*dto.LessonView, error) {
	return &dto.LessonView{ID: lessonID}, nil
}

func (m *timetableServiceMock) ExtendLesson(ctx context.Context, draftID, lessonID string) (*dto.LessonView, error) {
	return nil, appErrors.ErrOutOfGrid
}

func (m *timetableServiceMock) Save(ctx context.Context, draftID string, req dto.SaveTimetableRequest) (*models.Timetable, error) {
	m.saved = req
	return &models.Timetable{ID: "tt-1", Version: 1, Status: models.TimetableStatusDraft}, nil
}

func (m *timetableServiceMock) List(ctx context.Context, query dto.TimetableQuery) ([]models.Timetable, error) {
	if query.TermID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "termId is required")
	}
	return []models.Timetable{{ID: "tt-1"}}, nil
}

func (m *timetableServiceMock) Get(ctx context.Context, id string) (*dto.TimetableDetailResponse, bool, error) {
	return &dto.TimetableDetailResponse{Timetable: models.Timetable{ID: id}}, m.cacheHit, nil
}

func (m *timetableServiceMock) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func newTimetableRouter(svc timetableService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &TimetableHandler{service: svc}
	router := gin.New()
	router.Use(middleware.WithResponseMeta())
	group := router.Group("/timetables")
	group.POST("/drafts", h.Generate)
	group.GET("/drafts/:draftId", h.GetDraft)
	group.POST("/drafts/:draftId/can-place", h.CanPlace)
	group.GET("/drafts/:draftId/placeable-subjects", h.PlaceableSubjects)
	group.POST("/drafts/:draftId/lessons", h.AddLesson)
	group.PATCH("/drafts/:draftId/lessons/:lessonId/move", h.MoveLesson)
	group.POST("/drafts/:draftId/lessons/:lessonId/extend", h.ExtendLesson)
	group.POST("/drafts/:draftId/save", h.Save)
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.POST("/:id/drafts", h.OpenDraft)
	group.DELETE("/:id", h.Delete)
	return router
}

func serve(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestTimetableHandlerGenerate(t *testing.T) {
	svc := &timetableServiceMock{}
	router := newTimetableRouter(svc)

	w := serve(router, http.MethodPost, "/timetables/drafts", []byte(`{"termId":"term-1","days":["MONDAY","TUESDAY"],"strictQuota":true}`))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "term-1", svc.generateReq.TermID)
	assert.Equal(t, []string{"MONDAY", "TUESDAY"}, svc.generateReq.Days)
	require.NotNil(t, svc.generateReq.StrictQuota)
	assert.True(t, *svc.generateReq.StrictQuota)

	w = serve(router, http.MethodPost, "/timetables/drafts", []byte(`{"termId":`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerRoutesDraftsBesideIDs(t *testing.T) {
	router := newTimetableRouter(&timetableServiceMock{})

	w := serve(router, http.MethodGet, "/timetables/drafts/draft-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(router, http.MethodGet, "/timetables/drafts/expired", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "DRAFT_NOT_FOUND", decode(t, w).Error.Code)

	w = serve(router, http.MethodPost, "/timetables/tt-1/drafts", nil)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestTimetableHandlerAddLessonConflict(t *testing.T) {
	svc := &timetableServiceMock{
		addErr: appErrors.WithDetails(appErrors.Clone(appErrors.ErrTeacherBusy, "teacher t-1 already teaches class 10B"), map[string]string{"reason": "TEACHER_BUSY", "lessonId": "l-1"}),
	}
	router := newTimetableRouter(svc)

	w := serve(router, http.MethodPost, "/timetables/drafts/draft-1/lessons", []byte(`{"subjectId":"math","classId":"10A","day":"MONDAY","start":"08:00"}`))
	require.Equal(t, http.StatusConflict, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "TEACHER_BUSY", env.Error.Code)
	assert.Equal(t, map[string]interface{}{"reason": "TEACHER_BUSY", "lessonId": "l-1"}, env.Error.Details)

	svc.addErr = nil
	w = serve(router, http.MethodPost, "/timetables/drafts/draft-1/lessons", []byte(`{"subjectId":"math","classId":"10A","day":"MONDAY","start":"08:00"}`))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestTimetableHandlerCanPlaceReturnsVerdict(t *testing.T) {
	router := newTimetableRouter(&timetableServiceMock{})

	w := serve(router, http.MethodPost, "/timetables/drafts/draft-1/can-place", []byte(`{"day":"MONDAY","start":"08:00","teacherId":"t-1"}`))
	require.Equal(t, http.StatusOK, w.Code)
	var verdict dto.VerdictResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &verdict))
	assert.False(t, verdict.OK)
	assert.Equal(t, "TEACHER_BUSY", verdict.Reason)
}

func TestTimetableHandlerPlaceableSubjectsBindsQuery(t *testing.T) {
	svc := &timetableServiceMock{}
	router := newTimetableRouter(svc)

	w := serve(router, http.MethodGet, "/timetables/drafts/draft-1/placeable-subjects?classId=10A&day=TUESDAY&start=09:00", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.PlaceableSubjectsQuery{ClassID: "10A", Day: "TUESDAY", Start: "09:00"}, svc.placeable)
}

func TestTimetableHandlerEditErrors(t *testing.T) {
	router := newTimetableRouter(&timetableServiceMock{})

	w := serve(router, http.MethodPost, "/timetables/drafts/draft-1/lessons/l-1/extend", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = serve(router, http.MethodPatch, "/timetables/drafts/draft-1/lessons/l-1/move", []byte(`{"day":"FRIDAY","start":"10:00"}`))
	require.Equal(t, http.StatusOK, w.Code)
	var lesson dto.LessonView
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &lesson))
	assert.Equal(t, "FRIDAY", lesson.Day)
}

func TestTimetableHandlerSave(t *testing.T) {
	svc := &timetableServiceMock{}
	router := newTimetableRouter(svc)

	w := serve(router, http.MethodPost, "/timetables/drafts/draft-1/save", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.False(t, svc.saved.Publish)

	w = serve(router, http.MethodPost, "/timetables/drafts/draft-1/save", []byte(`{"publish":true,"note":"semester 1"}`))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, svc.saved.Publish)
	assert.Equal(t, "semester 1", svc.saved.Note)
}

func TestTimetableHandlerGetReportsCacheHit(t *testing.T) {
	router := newTimetableRouter(&timetableServiceMock{cacheHit: true})

	w := serve(router, http.MethodGet, "/timetables/tt-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w).Meta["cache_hit"])

	w = serve(router, http.MethodGet, "/timetables", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = serve(router, http.MethodGet, "/timetables?termId=term-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTimetableHandlerDelete(t *testing.T) {
	svc := &timetableServiceMock{}
	router := newTimetableRouter(svc)

	w := serve(router, http.MethodDelete, "/timetables/tt-1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"tt-1"}, svc.deleted)
}

type exportServiceMock struct {
	path string
}

func (m *exportServiceMock) Export(ctx context.Context, timetableID string, req dto.ExportTimetableRequest) (*dto.ExportResponse, error) {
	return &dto.ExportResponse{Filename: "timetable.csv", URL: "/api/v1/timetables/exports/token", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (m *exportServiceMock) Resolve(ctx context.Context, token string) (*service.ExportDownload, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	file, err := os.Open(m.path)
	if err != nil {
		return nil, err
	}
	return &service.ExportDownload{File: file, Filename: "timetable.csv", ContentType: "text/csv"}, nil
}

func TestExportHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "timetable.csv")
	require.NoError(t, os.WriteFile(path, []byte("Session,MONDAY\n"), 0o644))
	h := &ExportHandler{service: &exportServiceMock{path: path}}
	router := gin.New()
	router.POST("/timetables/:id/exports", h.Export)
	router.GET("/timetables/exports/:token", h.Download)

	w := serve(router, http.MethodGet, "/timetables/exports/good", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="timetable.csv"`)
	assert.Equal(t, "Session,MONDAY\n", w.Body.String())

	w = serve(router, http.MethodGet, "/timetables/exports/bad", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(router, http.MethodPost, "/timetables/tt-1/exports", []byte(`{"format":"csv","classId":"10A"}`))
	assert.Equal(t, http.StatusCreated, w.Code)
}

type generationJobServiceMock struct{}

func (generationJobServiceMock) CreateJob(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationJobResponse, error) {
	return &dto.GenerationJobResponse{ID: "job-1", Status: models.GenerationJobQueued}, nil
}

func (generationJobServiceMock) GetStatus(ctx context.Context, id string) (*dto.GenerationJobStatusResponse, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "generation job not found")
}

func TestGenerationJobHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &GenerationJobHandler{service: generationJobServiceMock{}}
	router := gin.New()
	router.POST("/timetables/generation-jobs", h.Create)
	router.GET("/timetables/generation-jobs/:id", h.Status)

	w := serve(router, http.MethodPost, "/timetables/generation-jobs", []byte(`{"termId":"term-1"}`))
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = serve(router, http.MethodGet, "/timetables/generation-jobs/job-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	healthy := NewMetricsHandler(service.NewMetricsService(), map[string]Pinger{
		"postgres": PingFunc(func(ctx context.Context) error { return nil }),
		"redis":    nil,
	})
	router := gin.New()
	router.GET("/ready", healthy.Ready)
	router.GET("/health", healthy.Health)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/ready", nil).Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health", nil).Code)

	failing := NewMetricsHandler(nil, map[string]Pinger{
		"postgres": PingFunc(func(ctx context.Context) error { return context.DeadlineExceeded }),
	})
	router = gin.New()
	router.GET("/ready", failing.Ready)
	assert.Equal(t, http.StatusServiceUnavailable, serve(router, http.MethodGet, "/ready", nil).Code)
}
