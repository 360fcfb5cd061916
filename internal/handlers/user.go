package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wavely/internal/logging"
	"wavely/internal/middleware"
	"wavely/internal/services"
)

const tokenTTL = 7 * 24 * time.Hour

type UserHandler struct {
	users     *services.UserService
	lifecycle *services.LifecycleManager
	secret    []byte
	logger    logging.Logger
}

func NewUserHandler(users *services.UserService, lifecycle *services.LifecycleManager, secret []byte, logger logging.Logger) *UserHandler {
	return &UserHandler{users: users, lifecycle: lifecycle, secret: secret, logger: logger}
}

type signUpRequest struct {
	Email    string `json:"email" binding:"required"`
	Fullname string `json:"fullname" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignUp POST /api/users
func (h *UserHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "email, fullname and password are required")
		return
	}
	user, err := h.users.SignUp(c.Request.Context(), req.Email, req.Fullname, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.respondWithToken(c, http.StatusCreated, user.ID, user)
}

// Login POST /api/users/login
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "email and password are required")
		return
	}
	user, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.respondWithToken(c, http.StatusOK, user.ID, user)
}

func (h *UserHandler) respondWithToken(c *gin.Context, code int, userID uint, user interface{}) {
	token, err := middleware.IssueToken(userID, h.secret, tokenTTL)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(code, gin.H{
		"success": true,
		"data":    user,
		"token":   token,
	})
}

// DeleteMe DELETE /api/users/me
func (h *UserHandler) DeleteMe(c *gin.Context) {
	outcome, err := h.lifecycle.DeleteUser(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondDeleted(c, outcome)
}

type bioRequest struct {
	Bio *string `json:"bio" binding:"required"`
}

// Me GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.users.Profile(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, user)
}

// UpdateBio PATCH /api/users/me/bio
func (h *UserHandler) UpdateBio(c *gin.Context) {
	var req bioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "bio is required")
		return
	}
	user, err := h.users.UpdateBio(c.Request.Context(), middleware.CurrentUserID(c), *req.Bio)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, user)
}
