package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Resume  *ResumeHandler
	Summary *SummaryHandler
	Demo    *DemoResumeHandler
	Jobs    *JobSearchHandler
	Session *SessionHandler
}

// RegisterRoutes mounts every endpoint on api.
func RegisterRoutes(api fiber.Router, h Handlers) {
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	api.Post("/resume/analyze", h.Resume.HandleAnalyze)
	api.Post("/resume/:id/modify", h.Resume.HandleModify)
	api.Get("/resume/:id/download", h.Resume.HandleDownload)
	api.Post("/summaries", h.Summary.HandleSummarize)
	api.Post("/demo-resumes", h.Demo.HandleGenerate)
	api.Post("/jobs/search", h.Jobs.HandleSearch)
	api.Get("/sessions/:id", h.Session.HandleGetSession)
}

// Endpoints lists the routes for the index page.
var Endpoints = []string{
	"GET /api/v1/health",
	"POST /api/v1/resume/analyze",
	"POST /api/v1/resume/:id/modify",
	"GET /api/v1/resume/:id/download",
	"POST /api/v1/summaries",
	"POST /api/v1/demo-resumes",
	"POST /api/v1/jobs/search",
	"GET /api/v1/sessions/:id",
}

// ErrorHandler renders errors that handlers did not answer themselves.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
