package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/repository"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/jobs"
)

type generationJobStore interface {
	Create(ctx context.Context, job *models.GenerationJob) error
	GetByID(ctx context.Context, id string) (*models.GenerationJob, error)
	Update(ctx context.Context, id string, params repository.UpdateGenerationJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.GenerationJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job[string]) error
}

type draftGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.DraftResponse, error)
}

// GenerationJobService accepts generation requests for background processing.
type GenerationJobService struct {
	repo      generationJobStore
	queue     jobDispatcher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGenerationJobService constructs the job service.
func NewGenerationJobService(repo generationJobStore, queue jobDispatcher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *GenerationJobService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationJobService{repo: repo, queue: queue, metrics: metrics, validator: validate, logger: logger}
}

// CreateJob persists the request and hands it to the worker queue.
func (s *GenerationJobService) CreateJob(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}
	job := &models.GenerationJob{
		TermID: req.TermID,
		Params: models.GenerationJobParams{
			ClassIDs:         req.ClassIDs,
			Days:             req.Days,
			ReferenceClassID: req.ReferenceClassID,
			StrictQuota:      req.StrictQuota,
			MaxBacktracks:    req.MaxBacktracks,
		},
		Status: models.GenerationJobQueued,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create generation job")
	}
	if err := s.queue.Enqueue(jobs.Job[string]{ID: job.ID, Payload: job.TermID}); err != nil {
		failed := models.GenerationJobFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		_ = s.repo.Update(ctx, job.ID, repository.UpdateGenerationJobParams{
			Status:       &failed,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		s.metrics.RecordJob(failed)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue generation job")
	}
	return &dto.GenerationJobResponse{ID: job.ID, Status: job.Status}, nil
}

// GetStatus reports job progress and, once finished, the draft to open.
func (s *GenerationJobService) GetStatus(ctx context.Context, id string) (*dto.GenerationJobStatusResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "generation job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load generation job")
	}
	resp := &dto.GenerationJobStatusResponse{
		ID:       job.ID,
		TermID:   job.TermID,
		Status:   job.Status,
		Attempts: job.Attempts,
		DraftID:  job.DraftID,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// RecoverPendingJobs replays queued jobs after a restart.
func (s *GenerationJobService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued generation jobs", zap.Error(err))
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job[string]{ID: job.ID, Payload: job.TermID}); err != nil {
			s.logger.Warn("failed to requeue pending job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	if len(pending) > 0 {
		s.logger.Info("queued generation jobs recovered", zap.Int("count", len(pending)))
	}
}

// GenerationWorker bridges queue jobs to TimetableService.Generate.
type GenerationWorker struct {
	repo       generationJobStore
	generator  draftGenerator
	metrics    *MetricsService
	logger     *zap.Logger
	maxRetries int
}

// NewGenerationWorker constructs a worker. maxRetries must match the queue's retry budget.
func NewGenerationWorker(repo generationJobStore, generator draftGenerator, metrics *MetricsService, maxRetries int, logger *zap.Logger) *GenerationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &GenerationWorker{repo: repo, generator: generator, metrics: metrics, logger: logger, maxRetries: maxRetries}
}

// Handle processes a queue job. Client errors such as an unknown term fail the job at once; anything
// else is returned so the queue retries it.
func (w *GenerationWorker) Handle(ctx context.Context, job jobs.Job[string]) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	processing := models.GenerationJobProcessing
	attempts := record.Attempts + 1
	started := time.Now().UTC()
	if err := w.repo.Update(ctx, job.ID, repository.UpdateGenerationJobParams{
		Status:    &processing,
		Attempts:  &attempts,
		StartedAt: &started,
	}); err != nil {
		return err
	}

	draft, err := w.generator.Generate(ctx, dto.GenerateTimetableRequest{
		TermID:           record.TermID,
		ClassIDs:         record.Params.ClassIDs,
		Days:             record.Params.Days,
		ReferenceClassID: record.Params.ReferenceClassID,
		StrictQuota:      record.Params.StrictQuota,
		MaxBacktracks:    record.Params.MaxBacktracks,
	})
	if err != nil {
		permanent := appErrors.FromError(err).Status < http.StatusInternalServerError
		msg := err.Error()
		if permanent || job.Attempt >= w.maxRetries {
			failed := models.GenerationJobFailed
			now := time.Now().UTC()
			if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateGenerationJobParams{
				Status:       &failed,
				ErrorMessage: &msg,
				FinishedAt:   &now,
			}); updateErr != nil {
				w.logger.Warn("failed to mark job failed", zap.String("job_id", job.ID), zap.Error(updateErr))
			}
			w.metrics.RecordJob(failed)
			if permanent {
				w.logger.Info("generation job rejected", zap.String("job_id", job.ID), zap.Error(err))
				return nil
			}
		} else {
			queued := models.GenerationJobQueued
			if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateGenerationJobParams{
				Status:       &queued,
				ErrorMessage: &msg,
			}); updateErr != nil {
				w.logger.Warn("failed to mark job queued", zap.String("job_id", job.ID), zap.Error(updateErr))
			}
		}
		return err
	}

	finished := models.GenerationJobFinished
	now := time.Now().UTC()
	clear := ""
	if err := w.repo.Update(ctx, job.ID, repository.UpdateGenerationJobParams{
		Status:       &finished,
		DraftID:      &draft.DraftID,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark job finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	w.metrics.RecordJob(finished)
	w.logger.Info("generation job finished",
		zap.String("job_id", job.ID),
		zap.String("draft_id", draft.DraftID),
		zap.Int("lessons", len(draft.Lessons)),
		zap.Int("shortfalls", len(draft.Shortfalls)),
	)
	return nil
}
