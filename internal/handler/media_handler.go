package handler

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/onlytraining/trainsync/internal/domain"
)

type MediaHandler struct {
	media domain.MediaStore
}

func NewMediaHandler(media domain.MediaStore) *MediaHandler {
	return &MediaHandler{media: media}
}

// UploadVideo POST /v1/media/videos
// Accepts a multipart upload of an exercise demo video and returns the
// public URL to store on the workout item.
func (h *MediaHandler) UploadVideo(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "video/") {
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{"error": "only video uploads are accepted"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	url, err := h.media.Upload(c.Context(), data, fileHeader.Filename, contentType)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
}
