package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wavely/internal/logging"
	"wavely/internal/middleware"
	"wavely/internal/models"
	"wavely/internal/services"
)

type VoteHandler struct {
	ledger *services.VoteLedger
	logger logging.Logger
}

func NewVoteHandler(ledger *services.VoteLedger, logger logging.Logger) *VoteHandler {
	return &VoteHandler{ledger: ledger, logger: logger}
}

type voteRequest struct {
	Action string `json:"action" binding:"required"`
}

// VotePost PATCH /api/posts/:id/vote
func (h *VoteHandler) VotePost(c *gin.Context) {
	h.vote(c, models.TargetPost)
}

// VoteComment PATCH /api/comments/:id/vote
func (h *VoteHandler) VoteComment(c *gin.Context) {
	h.vote(c, models.TargetComment)
}

func (h *VoteHandler) vote(c *gin.Context, targetType models.TargetType) {
	targetID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "action is required")
		return
	}

	vote, err := h.ledger.CastVote(c.Request.Context(), middleware.CurrentUserID(c), targetID, targetType, models.VoteType(req.Action))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	// 取消投票时 data 为 null
	respondOK(c, http.StatusOK, vote)
}
