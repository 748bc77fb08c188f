package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/onlytraining/trainsync/internal/domain"
	"github.com/onlytraining/trainsync/internal/middleware"
	"github.com/onlytraining/trainsync/internal/service"
)

type WorkoutHandler struct {
	engines *service.EngineManager
}

func NewWorkoutHandler(engines *service.EngineManager) *WorkoutHandler {
	return &WorkoutHandler{engines: engines}
}

func (h *WorkoutHandler) catalog(c *fiber.Ctx) (*service.WorkoutCatalog, error) {
	return h.engines.Catalog(c.Context(), middleware.UserID(c))
}

// ListWorkouts GET /v1/workouts?archived=true
func (h *WorkoutHandler) ListWorkouts(c *fiber.Ctx) error {
	catalog, err := h.catalog(c)
	if err != nil {
		return errorResponse(c, err)
	}

	workouts, err := catalog.FetchWorkouts(c.Context(), c.QueryBool("archived"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"workouts":       workouts,
		"archived_count": catalog.ArchivedCount(),
		"last_session":   catalog.LastSession(),
		"pending_sync":   catalog.PendingSync(),
	})
}

// CreateWorkout POST /v1/workouts
func (h *WorkoutHandler) CreateWorkout(c *fiber.Ctx) error {
	var req struct {
		Name  string `json:"name"`
		Focus string `json:"focus"`
		Notes string `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	catalog, err := h.catalog(c)
	if err != nil {
		return errorResponse(c, err)
	}
	workout, err := catalog.CreateWorkout(c.Context(), req.Name, req.Focus, req.Notes)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(workout)
}

// DeleteWorkout DELETE /v1/workouts/:id
func (h *WorkoutHandler) DeleteWorkout(c *fiber.Ctx) error {
	catalog, err := h.catalog(c)
	if err != nil {
		return errorResponse(c, err)
	}
	if err := catalog.DeleteWorkout(c.Context(), c.Params("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "deleted"})
}

// ArchiveWorkout POST /v1/workouts/:id/archive
func (h *WorkoutHandler) ArchiveWorkout(c *fiber.Ctx) error {
	catalog, err := h.catalog(c)
	if err != nil {
		return errorResponse(c, err)
	}
	if err := catalog.ArchiveWorkout(c.Context(), c.Params("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "archived"})
}

// UnarchiveWorkout POST /v1/workouts/:id/unarchive
func (h *WorkoutHandler) UnarchiveWorkout(c *fiber.Ctx) error {
	catalog, err := h.catalog(c)
	if err != nil {
		return errorResponse(c, err)
	}
	if err := catalog.UnarchiveWorkout(c.Context(), c.Params("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "unarchived"})
}

// ListWorkoutItems GET /v1/workouts/:id/items
func (h *WorkoutHandler) ListWorkoutItems(c *fiber.Ctx) error {
	catalog, err := h.catalog(c)
	if err != nil {
		return errorResponse(c, err)
	}
	items, err := catalog.ListWorkoutItems(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(items)
}

// AddWorkoutItem POST /v1/workouts/:id/items
func (h *WorkoutHandler) AddWorkoutItem(c *fiber.Ctx) error {
	var req struct {
		Title         string  `json:"title"`
		DefaultReps   string  `json:"default_reps"`
		DefaultSets   int     `json:"default_sets"`
		RestSeconds   int     `json:"rest_seconds"`
		Notes         string  `json:"notes"`
		VideoURL      string  `json:"video_url"`
		DefaultWeight float64 `json:"default_weight"`
		OrderIndex    int     `json:"order_index"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}

	catalog, err := h.catalog(c)
	if err != nil {
		return errorResponse(c, err)
	}

	item := &domain.WorkoutItem{
		WorkoutID:     c.Params("id"),
		Title:         req.Title,
		DefaultReps:   req.DefaultReps,
		DefaultSets:   req.DefaultSets,
		RestSeconds:   req.RestSeconds,
		Notes:         req.Notes,
		VideoURL:      req.VideoURL,
		DefaultWeight: req.DefaultWeight,
		OrderIndex:    req.OrderIndex,
	}
	if err := catalog.AddWorkoutItem(c.Context(), item); err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// UpdateWorkoutItem PATCH /v1/workouts/:id/items/:item_id
func (h *WorkoutHandler) UpdateWorkoutItem(c *fiber.Ctx) error {
	var patch domain.WorkoutItemUpdate
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	catalog, err := h.catalog(c)
	if err != nil {
		return errorResponse(c, err)
	}
	if err := catalog.UpdateWorkoutItem(c.Context(), c.Params("id"), c.Params("item_id"), patch); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "updated"})
}

// DeleteWorkoutItem DELETE /v1/workouts/:id/items/:item_id
func (h *WorkoutHandler) DeleteWorkoutItem(c *fiber.Ctx) error {
	catalog, err := h.catalog(c)
	if err != nil {
		return errorResponse(c, err)
	}
	if err := catalog.DeleteWorkoutItem(c.Context(), c.Params("item_id")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "deleted"})
}
