package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-studio/internal/models"
	"alfredoptarigan/resume-studio/internal/services"
)

type SummaryHandler struct {
	stageRunner
	pipeline *services.SummarizationPipeline
}

func NewSummaryHandler(sessions *services.SessionManager, worker services.Worker, pipeline *services.SummarizationPipeline) *SummaryHandler {
	return &SummaryHandler{
		stageRunner: stageRunner{sessions: sessions, worker: worker},
		pipeline:    pipeline,
	}
}

// HandleSummarize handles POST /summaries.
func (h *SummaryHandler) HandleSummarize(c *fiber.Ctx) error {
	var req models.SummaryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}
	req = req.WithDefaults()

	s, err := h.session(c, models.FormSummarizer)
	if err != nil {
		return respondError(c, nil, err)
	}

	pending, err := s.Controller.Submit(req.Validate, func(ctx context.Context) (any, error) {
		return h.pipeline.Summarize(ctx, req)
	})
	if err != nil {
		return respondError(c, s, err)
	}
	s.SetRequest(req)

	return h.launch(c, s, services.PipelineSummarizer, pending)
}
