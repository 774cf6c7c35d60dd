package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/service"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/response"
)

type generationJobService interface {
	CreateJob(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationJobResponse, error)
	GetStatus(ctx context.Context, id string) (*dto.GenerationJobStatusResponse, error)
}

// GenerationJobHandler exposes asynchronous generation endpoints.
type GenerationJobHandler struct {
	service generationJobService
}

// NewGenerationJobHandler constructs the handler.
func NewGenerationJobHandler(svc *service.GenerationJobService) *GenerationJobHandler {
	return &GenerationJobHandler{service: svc}
}

// Create godoc
// @Summary Queue a timetable generation
// @Description Large schools can generate in the background; poll the job until it reports the draft id.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation payload"
// @Success 202 {object} response.Envelope
// @Router /timetables/generation-jobs [post]
func (h *GenerationJobHandler) Create(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	job, err := h.service.CreateJob(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// Status godoc
// @Summary Get generation job status
// @Tags Timetables
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/generation-jobs/{id} [get]
func (h *GenerationJobHandler) Status(c *gin.Context) {
	status, err := h.service.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}
