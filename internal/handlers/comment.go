package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wavely/internal/logging"
	"wavely/internal/middleware"
	"wavely/internal/services"
)

type CommentHandler struct {
	lifecycle *services.LifecycleManager
	feed      *services.FeedService
	logger    logging.Logger
}

func NewCommentHandler(lifecycle *services.LifecycleManager, feed *services.FeedService, logger logging.Logger) *CommentHandler {
	return &CommentHandler{lifecycle: lifecycle, feed: feed, logger: logger}
}

type createCommentRequest struct {
	Text            string `json:"text" binding:"required"`
	ParentCommentID *uint  `json:"parent_comment_id"`
}

// Create POST /api/posts/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "text is required")
		return
	}

	comment, err := h.lifecycle.CreateComment(c.Request.Context(), middleware.CurrentUserID(c), postID, req.Text, req.ParentCommentID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusCreated, comment)
}

// ListTop GET /api/posts/:id/comments?page=N&limit=M
func (h *CommentHandler) ListTop(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	comments, err := h.feed.ListTopComments(c.Request.Context(), postID,
		queryInt(c, "page", 1), queryInt(c, "limit", services.DefaultCommentPage))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, comments)
}

// Replies GET /api/comments/:id/replies
func (h *CommentHandler) Replies(c *gin.Context) {
	commentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	replies, err := h.feed.ListReplies(c.Request.Context(), commentID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, replies)
}

// Delete DELETE /api/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	commentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	outcome, err := h.lifecycle.DeleteComment(c.Request.Context(), middleware.CurrentUserID(c), commentID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondDeleted(c, outcome)
}
