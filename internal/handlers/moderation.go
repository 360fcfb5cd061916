package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wavely/internal/logging"
	"wavely/internal/services"
)

type ModerationHandler struct {
	moderation *services.ModerationService
	logger     logging.Logger
}

func NewModerationHandler(moderation *services.ModerationService, logger logging.Logger) *ModerationHandler {
	return &ModerationHandler{moderation: moderation, logger: logger}
}

type classifyRequest struct {
	Text string `json:"text" binding:"required"`
}

// Classify POST /api/moderation/classify
func (h *ModerationHandler) Classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "text is required")
		return
	}
	verdict, err := h.moderation.ClassifyText(c.Request.Context(), req.Text)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, verdict)
}
