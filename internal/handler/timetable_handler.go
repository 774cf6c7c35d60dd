package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/middleware"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/service"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/response"
)

type timetableService interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.DraftResponse, error)
	OpenDraft(ctx context.Context, timetableID string) (*dto.DraftResponse, error)
	GetDraft(ctx context.Context, draftID string) (*dto.DraftResponse, error)
	DiscardDraft(ctx context.Context, draftID string) error
	CanPlace(ctx context.Context, draftID string, req dto.CanPlaceRequest) (*dto.VerdictResponse, error)
	PlaceableSubjects(ctx context.Context, draftID string, query dto.PlaceableSubjectsQuery) ([]dto.SubjectView, error)
	AddLesson(ctx context.Context, draftID string, req dto.AddLessonRequest) (*dto.LessonView, error)
	MoveLesson(ctx context.Context, draftID, lessonID string, req dto.MoveLessonRequest) (*dto.LessonView, error)
	DeleteLesson(ctx context.Context, draftID, lessonID string) error
	ChangeRoom(ctx context.Context, draftID, lessonID string, req dto.ChangeRoomRequest) (*dto.LessonView, error)
	ExtendLesson(ctx context.Context, draftID, lessonID string) (*dto.LessonView, error)
	Save(ctx context.Context, draftID string, req dto.SaveTimetableRequest) (*models.Timetable, error)
	List(ctx context.Context, query dto.TimetableQuery) ([]models.Timetable, error)
	Get(ctx context.Context, id string) (*dto.TimetableDetailResponse, bool, error)
	Delete(ctx context.Context, id string) error
}

// TimetableHandler exposes generation, draft editing and saved timetable endpoints.
type TimetableHandler struct {
	service timetableService
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Generate godoc
// @Summary Generate a school-wide timetable draft
// @Description Runs the scheduling engine for a term and opens the result as an editable draft. Quotas the engine could not meet are listed as shortfalls.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation payload"
// @Success 201 {object} response.Envelope
// @Router /timetables/drafts [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	draft, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, draft)
}

// OpenDraft godoc
// @Summary Open a saved timetable as an editable draft
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 201 {object} response.Envelope
// @Router /timetables/{id}/drafts [post]
func (h *TimetableHandler) OpenDraft(c *gin.Context) {
	draft, err := h.service.OpenDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, draft)
}

// GetDraft godoc
// @Summary Get draft state
// @Tags Timetable Drafts
// @Produce json
// @Param draftId path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/drafts/{draftId} [get]
func (h *TimetableHandler) GetDraft(c *gin.Context) {
	draft, err := h.service.GetDraft(c.Request.Context(), c.Param("draftId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// DiscardDraft godoc
// @Summary Discard a draft without saving
// @Tags Timetable Drafts
// @Param draftId path string true "Draft ID"
// @Success 204
// @Router /timetables/drafts/{draftId} [delete]
func (h *TimetableHandler) DiscardDraft(c *gin.Context) {
	if err := h.service.DiscardDraft(c.Request.Context(), c.Param("draftId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CanPlace godoc
// @Summary Check whether a time range is free
// @Description A refused placement is a normal 200 response with ok=false and the reason.
// @Tags Timetable Drafts
// @Accept json
// @Produce json
// @Param draftId path string true "Draft ID"
// @Param payload body dto.CanPlaceRequest true "Placement"
// @Success 200 {object} response.Envelope
// @Router /timetables/drafts/{draftId}/can-place [post]
func (h *TimetableHandler) CanPlace(c *gin.Context) {
	var req dto.CanPlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid placement payload"))
		return
	}
	verdict, err := h.service.CanPlace(c.Request.Context(), c.Param("draftId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, verdict, nil)
}

// PlaceableSubjects godoc
// @Summary List subjects placeable for a class at a slot
// @Tags Timetable Drafts
// @Produce json
// @Param draftId path string true "Draft ID"
// @Param classId query string true "Class ID"
// @Param day query string true "Weekday, e.g. MONDAY"
// @Param start query string true "Slot start, HH:MM"
// @Success 200 {object} response.Envelope
// @Router /timetables/drafts/{draftId}/placeable-subjects [get]
func (h *TimetableHandler) PlaceableSubjects(c *gin.Context) {
	var query dto.PlaceableSubjectsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	subjects, err := h.service.PlaceableSubjects(c.Request.Context(), c.Param("draftId"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// AddLesson godoc
// @Summary Add a lesson to a draft
// @Description Teacher and room are chosen automatically. Refusals return 409 with the blocking lesson in details.
// @Tags Timetable Drafts
// @Accept json
// @Produce json
// @Param draftId path string true "Draft ID"
// @Param payload body dto.AddLessonRequest true "Lesson"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetables/drafts/{draftId}/lessons [post]
func (h *TimetableHandler) AddLesson(c *gin.Context) {
	var req dto.AddLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lesson payload"))
		return
	}
	lesson, err := h.service.AddLesson(c.Request.Context(), c.Param("draftId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// MoveLesson godoc
// @Summary Move a lesson keeping its duration
// @Tags Timetable Drafts
// @Accept json
// @Produce json
// @Param draftId path string true "Draft ID"
// @Param lessonId path string true "Lesson ID"
// @Param payload body dto.MoveLessonRequest true "Target"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetables/drafts/{draftId}/lessons/{lessonId}/move [patch]
func (h *TimetableHandler) MoveLesson(c *gin.Context) {
	var req dto.MoveLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid move payload"))
		return
	}
	lesson, err := h.service.MoveLesson(c.Request.Context(), c.Param("draftId"), c.Param("lessonId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// ChangeRoom godoc
// @Summary Change or clear the room of a lesson
// @Tags Timetable Drafts
// @Accept json
// @Produce json
// @Param draftId path string true "Draft ID"
// @Param lessonId path string true "Lesson ID"
// @Param payload body dto.ChangeRoomRequest true "Room"
// @Success 200 {object} response.Envelope
// @Router /timetables/drafts/{draftId}/lessons/{lessonId}/room [patch]
func (h *TimetableHandler) ChangeRoom(c *gin.Context) {
	var req dto.ChangeRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid room payload"))
		return
	}
	lesson, err := h.service.ChangeRoom(c.Request.Context(), c.Param("draftId"), c.Param("lessonId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// ExtendLesson godoc
// @Summary Extend a lesson by the following session
// @Tags Timetable Drafts
// @Produce json
// @Param draftId path string true "Draft ID"
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/drafts/{draftId}/lessons/{lessonId}/extend [post]
func (h *TimetableHandler) ExtendLesson(c *gin.Context) {
	lesson, err := h.service.ExtendLesson(c.Request.Context(), c.Param("draftId"), c.Param("lessonId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// DeleteLesson godoc
// @Summary Remove a lesson from a draft
// @Tags Timetable Drafts
// @Param draftId path string true "Draft ID"
// @Param lessonId path string true "Lesson ID"
// @Success 204
// @Router /timetables/drafts/{draftId}/lessons/{lessonId} [delete]
func (h *TimetableHandler) DeleteLesson(c *gin.Context) {
	if err := h.service.DeleteLesson(c.Request.Context(), c.Param("draftId"), c.Param("lessonId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Save godoc
// @Summary Save a draft as a new timetable version
// @Tags Timetable Drafts
// @Accept json
// @Produce json
// @Param draftId path string true "Draft ID"
// @Param payload body dto.SaveTimetableRequest true "Save options"
// @Success 201 {object} response.Envelope
// @Router /timetables/drafts/{draftId}/save [post]
func (h *TimetableHandler) Save(c *gin.Context) {
	var req dto.SaveTimetableRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
			return
		}
	}
	record, err := h.service.Save(c.Request.Context(), c.Param("draftId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// List godoc
// @Summary List saved timetable versions of a term
// @Tags Timetables
// @Produce json
// @Param termId query string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /timetables [get]
func (h *TimetableHandler) List(c *gin.Context) {
	query := dto.TimetableQuery{TermID: c.Query("termId")}
	list, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// Get godoc
// @Summary Get a saved timetable with its lessons
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	detail, hit, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, detail, nil, middleware.ExtractMeta(c))
}

// Delete godoc
// @Summary Delete a draft timetable version
// @Description Published and archived versions are kept.
// @Tags Timetables
// @Param id path string true "Timetable ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /timetables/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
