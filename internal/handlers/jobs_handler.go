package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-studio/internal/models"
	"alfredoptarigan/resume-studio/internal/services"
)

type JobSearchHandler struct {
	stageRunner
	service *services.JobSearchService
	uploads services.UploadService
}

func NewJobSearchHandler(
	sessions *services.SessionManager,
	worker services.Worker,
	service *services.JobSearchService,
	uploads services.UploadService,
) *JobSearchHandler {
	return &JobSearchHandler{
		stageRunner: stageRunner{sessions: sessions, worker: worker},
		service:     service,
		uploads:     uploads,
	}
}

// HandleSearch handles POST /jobs/search with a multipart resume file or a
// JSON resume_data_uri.
func (h *JobSearchHandler) HandleSearch(c *fiber.Ctx) error {
	var (
		req       models.JobSearchRequest
		uploadErr error
	)

	if isMultipart(c) {
		file, err := c.FormFile("resume")
		if err != nil {
			errs := models.FieldErrors{}
			errs.Add("resume", "Please upload your resume file (.pdf).")
			uploadErr = errs
		} else if doc, err := h.uploads.ReadResume("resume", file); err != nil {
			uploadErr = err
		} else {
			req.ResumeDataURI = doc.String()
		}
	} else if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	s, err := h.session(c, models.FormJobs)
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
		doc, _ := models.ParseDataURI(req.ResumeDataURI)
		return h.uploads.CheckReadable("resume_data_uri", doc)
	}

	pending, err := s.Controller.Submit(validate, func(ctx context.Context) (any, error) {
		return h.service.Search(ctx, req)
	})
	if err != nil {
		return respondError(c, s, err)
	}
	s.SetRequest(req)

	return h.launch(c, s, services.FlowFindJobsByResume, pending)
}
