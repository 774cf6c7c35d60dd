package router

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/handler"
)

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Timetables     *handler.TimetableHandler
	GenerationJobs *handler.GenerationJobHandler
	Exports        *handler.ExportHandler
	Metrics        *handler.MetricsHandler
}

// Register mounts ops endpoints at the root and the timetable API under prefix.
func Register(r *gin.Engine, prefix string, h Handlers) {
	if h.Metrics != nil {
		r.GET("/health", h.Metrics.Health)
		r.GET("/ready", h.Metrics.Ready)
		r.GET("/metrics", h.Metrics.Prometheus)
	}

	api := r.Group(prefix)
	timetables := api.Group("/timetables")

	if h.Timetables != nil {
		timetables.GET("", h.Timetables.List)
		timetables.GET("/:id", h.Timetables.Get)
		timetables.DELETE("/:id", h.Timetables.Delete)
		timetables.POST("/:id/drafts", h.Timetables.OpenDraft)

		drafts := timetables.Group("/drafts")
		drafts.POST("", h.Timetables.Generate)
		drafts.GET("/:draftId", h.Timetables.GetDraft)
		drafts.DELETE("/:draftId", h.Timetables.DiscardDraft)
		drafts.POST("/:draftId/can-place", h.Timetables.CanPlace)
		drafts.GET("/:draftId/placeable-subjects", h.Timetables.PlaceableSubjects)
		drafts.POST("/:draftId/save", h.Timetables.Save)

		lessons := drafts.Group("/:draftId/lessons")
		lessons.POST("", h.Timetables.AddLesson)
		lessons.PATCH("/:lessonId/move", h.Timetables.MoveLesson)
		lessons.PATCH("/:lessonId/room", h.Timetables.ChangeRoom)
		lessons.POST("/:lessonId/extend", h.Timetables.ExtendLesson)
		lessons.DELETE("/:lessonId", h.Timetables.DeleteLesson)
	}

	if h.GenerationJobs != nil {
		timetables.POST("/generation-jobs", h.GenerationJobs.Create)
		timetables.GET("/generation-jobs/:id", h.GenerationJobs.Status)
	}

	if h.Exports != nil {
		timetables.POST("/:id/exports", h.Exports.Export)
		timetables.GET("/exports/:token", h.Exports.Download)
	}
}
