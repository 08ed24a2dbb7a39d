package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/resume-studio/internal/models"
	"alfredoptarigan/resume-studio/internal/services"
	"alfredoptarigan/resume-studio/internal/statemachine"
)

// stageRunner runs a started stage inline or, for ?async=true, on the worker.
type stageRunner struct {
	sessions *services.SessionManager
	worker   services.Worker
}

// session returns the session named by the session_id query parameter, or a
// new one of kind when none is given.
func (r stageRunner) session(c *fiber.Ctx, kind models.FormKind) (*services.Session, error) {
	raw := c.Query("session_id")
	if raw == "" {
		return r.sessions.Create(kind), nil
	}
	return r.lookup(raw, kind)
}

func (r stageRunner) lookup(raw string, kind models.FormKind) (*services.Session, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid session id format")
	}
	s, ok := r.sessions.Get(id)
	if !ok {
		return nil, services.ErrSessionNotFound
	}
	if s.Kind != kind {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Session belongs to a different form")
	}
	return s, nil
}

func (r stageRunner) launch(c *fiber.Ctx, s *services.Session, stage string, pending *statemachine.Pending) error {
	if c.QueryBool("async") && r.worker != nil {
		err := r.worker.Enqueue(services.Task{SessionID: s.ID, Stage: stage, Pending: pending})
		if err == nil {
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
				"session_id": s.ID,
				"message":    "Request accepted. Poll the session for the result.",
				"session":    s.View(),
			})
		}
	}

	// stage failures are reported in the snapshot, not as HTTP errors
	_ = pending.Run(services.WithSessionID(c.UserContext(), s.ID.String()))
	return c.JSON(s.View())
}

// respondError maps domain errors onto HTTP responses. Anything unknown goes
// to the app's error handler.
func respondError(c *fiber.Ctx, s *services.Session, err error) error {
	var fieldErrs models.FieldErrors
	body := fiber.Map{"error": err.Error()}
	if s != nil {
		body["session_id"] = s.ID
	}

	switch {
	case errors.As(err, &fieldErrs):
		body["error"] = "Validation failed"
		body["field_errors"] = fieldErrs
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case errors.Is(err, statemachine.ErrBusy), errors.Is(err, statemachine.ErrNotReady):
		return c.Status(fiber.StatusConflict).JSON(body)
	case errors.Is(err, services.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(body)
	}
	return err
}
