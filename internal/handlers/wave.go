package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wavely/internal/logging"
	"wavely/internal/middleware"
	"wavely/internal/services"
)

type WaveHandler struct {
	lifecycle *services.LifecycleManager
	logger    logging.Logger
}

func NewWaveHandler(lifecycle *services.LifecycleManager, logger logging.Logger) *WaveHandler {
	return &WaveHandler{lifecycle: lifecycle, logger: logger}
}

type createWaveRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// Create POST /api/waves
func (h *WaveHandler) Create(c *gin.Context) {
	var req createWaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "name is required")
		return
	}
	wave, err := h.lifecycle.CreateWave(c.Request.Context(), middleware.CurrentUserID(c), req.Name, req.Description)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusCreated, wave)
}

// Delete DELETE /api/waves/:id
func (h *WaveHandler) Delete(c *gin.Context) {
	waveID, ok := pathID(c, "id")
	if !ok {
		return
	}
	outcome, err := h.lifecycle.DeleteWave(c.Request.Context(), middleware.CurrentUserID(c), waveID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondDeleted(c, outcome)
}

// SetLocation PATCH /api/waves/:id/location
func (h *WaveHandler) SetLocation(c *gin.Context) {
	waveID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "latitude and longitude are required")
		return
	}
	wave, err := h.lifecycle.SetWaveLocation(c.Request.Context(), middleware.CurrentUserID(c), waveID, *req.Latitude, *req.Longitude)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, wave)
}
