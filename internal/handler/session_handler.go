package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/onlytraining/trainsync/internal/domain"
	"github.com/onlytraining/trainsync/internal/middleware"
	"github.com/onlytraining/trainsync/internal/service"
)

type SessionHandler struct {
	engines *service.EngineManager
	history *service.HistoryService
}

func NewSessionHandler(engines *service.EngineManager, history *service.HistoryService) *SessionHandler {
	return &SessionHandler{engines: engines, history: history}
}

// GetSession GET /v1/session
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	engine, err := h.engines.Engine(c.Context(), middleware.UserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(engine.State())
}

// ResumeSession POST /v1/session/resume
func (h *SessionHandler) ResumeSession(c *fiber.Ctx) error {
	engine, err := h.engines.Engine(c.Context(), middleware.UserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	if err := engine.ResumeSession(c.Context()); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(engine.State())
}

// StartSession POST /v1/sessions
func (h *SessionHandler) StartSession(c *fiber.Ctx) error {
	var req struct {
		WorkoutID string `json:"workout_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	if req.WorkoutID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "workout_id is required"})
	}

	engine, err := h.engines.Engine(c.Context(), middleware.UserID(c))
	if err != nil {
		return errorResponse(c, err)
	}

	if err := engine.StartSession(c.Context(), req.WorkoutID); err != nil {
		if errors.Is(err, domain.ErrSessionActive) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":    err.Error(),
				"conflict": engine.ConflictFor(req.WorkoutID),
			})
		}
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(engine.State())
}

// RestartSession POST /v1/session/restart
func (h *SessionHandler) RestartSession(c *fiber.Ctx) error {
	var req struct {
		WorkoutID string `json:"workout_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	engine, err := h.engines.Engine(c.Context(), middleware.UserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	if err := engine.RestartSession(c.Context(), req.WorkoutID); err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(engine.State())
}

// ToggleItemDone PATCH /v1/session/items/:id/done
func (h *SessionHandler) ToggleItemDone(c *fiber.Ctx) error {
	var req struct {
		IsDone bool `json:"is_done"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	engine, err := h.engines.Engine(c.Context(), middleware.UserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	if err := engine.ToggleItemDone(c.Context(), c.Params("id"), req.IsDone); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(engine.State())
}

// UpdateItemStats PATCH /v1/session/items/:id/stats
func (h *SessionHandler) UpdateItemStats(c *fiber.Ctx) error {
	var req struct {
		Weight float64 `json:"weight"`
		Reps   string  `json:"reps"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	engine, err := h.engines.Engine(c.Context(), middleware.UserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	if err := engine.UpdateItemStats(c.Context(), c.Params("id"), req.Weight, req.Reps); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(engine.State())
}

// FinishSession POST /v1/session/finish
func (h *SessionHandler) FinishSession(c *fiber.Ctx) error {
	engine, err := h.engines.Engine(c.Context(), middleware.UserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	if err := engine.FinishSession(c.Context()); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "finished", "pending_sync": engine.State().PendingSync})
}

// FinishAllSessions POST /v1/session/finish-all
func (h *SessionHandler) FinishAllSessions(c *fiber.Ctx) error {
	engine, err := h.engines.Engine(c.Context(), middleware.UserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	if err := engine.FinishAllInProgressSessions(c.Context()); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "finished"})
}

// CancelSession DELETE /v1/session?all=true
func (h *SessionHandler) CancelSession(c *fiber.Ctx) error {
	engine, err := h.engines.Engine(c.Context(), middleware.UserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	if err := engine.CancelSession(c.Context(), c.QueryBool("all")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "cancelled"})
}

// GetConflict GET /v1/session/conflict?workout_id=...
func (h *SessionHandler) GetConflict(c *fiber.Ctx) error {
	workoutID := c.Query("workout_id")
	if workoutID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "workout_id is required"})
	}

	engine, err := h.engines.Engine(c.Context(), middleware.UserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"conflict": engine.ConflictFor(workoutID)})
}

// SetVisibility POST /v1/session/visibility
// Clients report foreground/background transitions so the long-workout
// reminder only fires when nobody is looking at the timer.
func (h *SessionHandler) SetVisibility(c *fiber.Ctx) error {
	var req struct {
		Backgrounded bool `json:"backgrounded"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	monitor, err := h.engines.Monitor(c.Context(), middleware.UserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	monitor.SetBackgrounded(req.Backgrounded)
	return c.JSON(fiber.Map{"message": "ok"})
}

// ProcessSync POST /v1/sync/process
func (h *SessionHandler) ProcessSync(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	engine, err := h.engines.Engine(c.Context(), userID)
	if err != nil {
		return errorResponse(c, err)
	}
	catalog, err := h.engines.Catalog(c.Context(), userID)
	if err != nil {
		return errorResponse(c, err)
	}

	if err := engine.ProcessSyncQueue(c.Context()); err != nil {
		return errorResponse(c, err)
	}
	if err := catalog.ProcessSyncQueue(c.Context()); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"session_pending": engine.State().PendingSync,
		"catalog_pending": catalog.PendingSync(),
	})
}

// GetHistory GET /v1/history
func (h *SessionHandler) GetHistory(c *fiber.Ctx) error {
	sessions, err := h.history.FinishedSessions(c.Context(), middleware.UserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(sessions)
}
