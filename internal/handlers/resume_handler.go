package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-studio/internal/models"
	"alfredoptarigan/resume-studio/internal/services"
	"alfredoptarigan/resume-studio/internal/statemachine"
)

type ResumeHandler struct {
	stageRunner
	pipeline *services.ResumeRevisionPipeline
	uploads  services.UploadService
}

func NewResumeHandler(
	sessions *services.SessionManager,
	worker services.Worker,
	pipeline *services.ResumeRevisionPipeline,
	uploads services.UploadService,
) *ResumeHandler {
	return &ResumeHandler{
		stageRunner: stageRunner{sessions: sessions, worker: worker},
		pipeline:    pipeline,
		uploads:     uploads,
	}
}

// HandleAnalyze handles POST /resume/analyze. The body is JSON or a multipart
// form with job_description, resume_text and an optional resume file.
func (h *ResumeHandler) HandleAnalyze(c *fiber.Ctx) error {
	req, uploadErr := h.parseAnalysisRequest(c)
	if uploadErr != nil && !isFieldError(uploadErr) {
		return uploadErr
	}

	s, err := h.session(c, models.FormResume)
	if err != nil {
		return respondError(c, nil, err)
	}

	validate := func() error {
		if uploadErr != nil {
			return uploadErr
		}
		if err := req.Validate(); err != nil {
			return err
		}
		if req.HasDocument() {
			doc, _ := req.Document()
			return h.uploads.CheckReadable("resume_data_uri", doc)
		}
		return nil
	}

	pending, err := s.Controller.Submit(validate, func(ctx context.Context) (any, error) {
		return h.pipeline.Analyze(ctx, req)
	})
	if err != nil {
		return respondError(c, s, err)
	}
	s.SetRequest(req)

	return h.launch(c, s, services.FlowAnalyzeResume, pending)
}

// HandleModify handles POST /resume/:id/modify. It rewrites the resume of the
// session's latest analysis using that analysis' suggestions.
func (h *ResumeHandler) HandleModify(c *fiber.Ctx) error {
	s, err := h.lookup(c.Params("id"), models.FormResume)
	if err != nil {
		return respondError(c, nil, err)
	}

	pending, err := s.Controller.Advance(func(ctx context.Context, prior any) (any, error) {
		analysis, ok := prior.(*models.AnalysisResult)
		req, hasReq := s.Request().(models.AnalysisRequest)
		if !ok || !hasReq {
			return nil, statemachine.ErrNotReady
		}
		return h.pipeline.Modify(ctx, req, analysis)
	})
	if err != nil {
		return respondError(c, s, err)
	}

	return h.launch(c, s, services.FlowModifyResume, pending)
}

// HandleDownload handles GET /resume/:id/download.
func (h *ResumeHandler) HandleDownload(c *fiber.Ctx) error {
	s, err := h.lookup(c.Params("id"), models.FormResume)
	if err != nil {
		return respondError(c, nil, err)
	}

	modified, ok := s.Controller.Snapshot().AdvancedResult.(*models.ModificationResult)
	if !ok {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":      "No modified resume is available for this session",
			"session_id": s.ID,
		})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="modified-resume.txt"`)
	return c.SendString(modified.ModifiedResumeText)
}

func (h *ResumeHandler) parseAnalysisRequest(c *fiber.Ctx) (models.AnalysisRequest, error) {
	var req models.AnalysisRequest

	if !isMultipart(c) {
		if err := c.BodyParser(&req); err != nil {
			return req, fiber.NewError(fiber.StatusBadRequest, "Invalid request payload")
		}
		return req, nil
	}

	req.JobDescription = c.FormValue("job_description")
	req.Text = c.FormValue("resume_text")

	file, err := c.FormFile("resume")
	if err != nil {
		// no file part, pasted text only
		return req, nil
	}
	doc, err := h.uploads.ReadResume("resume", file)
	if err != nil {
		return req, err
	}
	req.DataURI = doc.String()
	return req, nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

func isFieldError(err error) bool {
	_, ok := err.(models.FieldErrors)
	return ok
}
