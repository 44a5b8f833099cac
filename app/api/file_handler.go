package api

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"assistant/app/assistant"
	"assistant/parser"
	"assistant/types"
)

type FileHandler struct {
	assistant *assistant.Assistant
	uploadDir string
}

func NewFileHandler(a *assistant.Assistant, uploadDir string) *FileHandler {
	return &FileHandler{
		assistant: a,
		uploadDir: uploadDir,
	}
}

func (h *FileHandler) HandleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ErrBadRequest()
	}

	if !parser.Supported(fileHeader.Filename) {
		return ErrUnsupportedFile(parser.SupportedExtensions)
	}

	sessionID := sessionIDFrom(c, c.FormValue("session_id"))
	fileID := uuid.New().String()
	path := filepath.Join(h.uploadDir, fileID+strings.ToLower(filepath.Ext(fileHeader.Filename)))

	if err := c.SaveFile(fileHeader, path); err != nil {
		return ErrProcessing(err)
	}

	rec, err := h.assistant.Upload(sessionID, fileID, path, fileHeader.Filename)
	if err != nil {
		return ErrProcessing(err)
	}

	c.Set("Session-Id", sessionID)
	return c.JSON(types.UploadResponse{
		SessionID:  sessionID,
		FileID:     rec.FileID,
		Filename:   rec.Filename,
		ChunkCount: rec.ChunkCount,
		Message:    "File uploaded and processed successfully",
	})
}

func (h *FileHandler) HandleListFiles(c *fiber.Ctx) error {
	sessionID := sessionIDFrom(c, "")
	c.Set("Session-Id", sessionID)
	return c.JSON(types.FilesResponse{Files: h.assistant.ListFiles(sessionID)})
}

func (h *FileHandler) HandleDeleteFile(c *fiber.Ctx) error {
	fileID := c.Params("id")
	sessionID := sessionIDFrom(c, "")

	h.assistant.DeleteFile(sessionID, fileID)
	return c.JSON(fiber.Map{"message": fmt.Sprintf("File %s deleted successfully", fileID)})
}

func (h *FileHandler) HandleClearSession(c *fiber.Ctx) error {
	sessionID := sessionIDFrom(c, "")

	h.assistant.ClearSession(sessionID)
	return c.JSON(fiber.Map{"message": "Session cleared successfully"})
}
