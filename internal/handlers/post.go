package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wavely/internal/logging"
	"wavely/internal/middleware"
	"wavely/internal/models"
	"wavely/internal/services"
)

type PostHandler struct {
	lifecycle  *services.LifecycleManager
	feed       *services.FeedService
	moderation *services.ModerationService
	logger     logging.Logger
}

func NewPostHandler(lifecycle *services.LifecycleManager, feed *services.FeedService, moderation *services.ModerationService, logger logging.Logger) *PostHandler {
	return &PostHandler{lifecycle: lifecycle, feed: feed, moderation: moderation, logger: logger}
}

type mediaRequest struct {
	URL       string `json:"url"`
	Kind      string `json:"kind"`
	ObjectKey string `json:"object_key"`
}

type createPostRequest struct {
	Title   string         `json:"title" binding:"required"`
	Content string         `json:"content"`
	Media   []mediaRequest `json:"media"`
}

func (r createPostRequest) media() []models.PostMedia {
	media := make([]models.PostMedia, 0, len(r.Media))
	for _, m := range r.Media {
		media = append(media, models.PostMedia{
			URL:       m.URL,
			Kind:      models.MediaKind(m.Kind),
			ObjectKey: m.ObjectKey,
		})
	}
	return media
}

// Create POST /api/posts（不属于任何 Wave 的帖子）
func (h *PostHandler) Create(c *gin.Context) {
	h.create(c, nil)
}

// CreateInWave POST /api/waves/:id/posts
func (h *PostHandler) CreateInWave(c *gin.Context) {
	waveID, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.create(c, &waveID)
}

func (h *PostHandler) create(c *gin.Context, waveID *uint) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "title is required")
		return
	}

	post, err := h.lifecycle.CreatePost(c.Request.Context(), middleware.CurrentUserID(c), waveID, req.Title, req.Content, req.media())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusCreated, post)
}

// Get GET /api/posts/:id
func (h *PostHandler) Get(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	post, err := h.feed.GetPost(c.Request.Context(), postID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, post)
}

// Delete DELETE /api/posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	outcome, err := h.lifecycle.DeletePost(c.Request.Context(), middleware.CurrentUserID(c), postID)
	if err != nil && outcome == "" {
		writeError(c, h.logger, err)
		return
	}
	if err != nil {
		// 帖子已删除，仅对象存储清理失败
		h.logger.WithError(err).WithField("post_id", postID).Warn("Post deleted with leaked media")
	}
	respondDeleted(c, outcome)
}

// Classify POST /api/posts/:id/classify
func (h *PostHandler) Classify(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	verdict, err := h.moderation.ModeratePost(c.Request.Context(), postID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, verdict)
}

// ListByWave GET /api/waves/:id/posts?page=N
func (h *PostHandler) ListByWave(c *gin.Context) {
	waveID, ok := pathID(c, "id")
	if !ok {
		return
	}
	posts, err := h.feed.ListWavePosts(c.Request.Context(), waveID, queryInt(c, "page", 1))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, posts)
}

// ListByUser GET /api/users/:id/posts?page=N
func (h *PostHandler) ListByUser(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	posts, err := h.feed.ListUserPosts(c.Request.Context(), userID, queryInt(c, "page", 1))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, posts)
}
