package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"assistant/app/assistant"
	"assistant/types"
)

type QueryHandler struct {
	assistant *assistant.Assistant
}

func NewQueryHandler(a *assistant.Assistant) *QueryHandler {
	return &QueryHandler{
		assistant: a,
	}
}

func (h *QueryHandler) HandleQuery(c *fiber.Ctx) error {
	var params types.QueryParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	sessionID := sessionIDFrom(c, params.SessionID)
	resp := h.assistant.Query(c.Context(), sessionID, params)

	c.Set("Session-Id", sessionID)
	return c.JSON(resp)
}

// sessionIDFrom resolves the session id from the request body, then the
// Session-Id header, minting a fresh one when neither is set.
func sessionIDFrom(c *fiber.Ctx, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	if id := c.Get("Session-Id"); id != "" {
		return id
	}
	return uuid.New().String()
}
