package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"wavely/internal/logging"
	"wavely/internal/services"
	"wavely/internal/utils"
)

// respondOK 成功响应
func respondOK(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondDeleted 删除结果，message 为 "permanently deleted" 或 "soft deleted"
func respondDeleted(c *gin.Context, outcome services.DeleteOutcome) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": string(outcome),
	})
}

func respondError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

// writeError 按错误类别映射状态码，未知错误一律 500 并记录日志
func writeError(c *gin.Context, logger logging.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrWaveNameTaken), errors.Is(err, services.ErrEmailTaken):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrValidation):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrForbidden):
		respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrConcurrentModification):
		respondError(c, http.StatusConflict, "Concurrent update, please retry")
	default:
		logger.WithError(err).WithFields(logging.Fields{
			"path":   c.FullPath(),
			"method": c.Request.Method,
		}).Error("Request failed")
		respondError(c, http.StatusInternalServerError, "Internal error")
	}
}

// pathID 解析路径参数中的 ID，失败时直接返回 400
func pathID(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid "+name)
	}
	return id, ok
}

func queryInt(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return v
}
