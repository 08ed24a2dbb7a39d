package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-studio/internal/models"
	"alfredoptarigan/resume-studio/internal/services"
)

type DemoResumeHandler struct {
	stageRunner
	service *services.DemoResumeService
}

func NewDemoResumeHandler(sessions *services.SessionManager, worker services.Worker, service *services.DemoResumeService) *DemoResumeHandler {
	return &DemoResumeHandler{
		stageRunner: stageRunner{sessions: sessions, worker: worker},
		service:     service,
	}
}

// HandleGenerate handles POST /demo-resumes.
func (h *DemoResumeHandler) HandleGenerate(c *fiber.Ctx) error {
	var req models.DemoResumeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}
	req = req.WithDefaults()

	s, err := h.session(c, models.FormDemo)
	if err != nil {
		return respondError(c, nil, err)
	}

	pending, err := s.Controller.Submit(req.Validate, func(ctx context.Context) (any, error) {
		return h.service.Generate(ctx, req)
	})
	if err != nil {
		return respondError(c, s, err)
	}
	s.SetRequest(req)

	return h.launch(c, s, services.FlowGenerateDemoResume, pending)
}
