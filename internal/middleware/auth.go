package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"wavely/internal/logging"
)

const CheckUserKey = "user_id"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims 只携带调用者身份
type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// UserChecker 确认 token 中的用户仍然有效
type UserChecker interface {
	IsActive(ctx context.Context, userID uint) (bool, error)
}

// IssueToken 签发 HS256 token
func IssueToken(userID uint, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken 校验 token 并返回用户 ID
func ParseToken(tokenString string, secret []byte) (uint, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpiredToken
		}
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}

// AuthRequired 解析 Bearer token，把调用者 ID 写入上下文
func AuthRequired(secret []byte, users UserChecker, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			abortUnauthorized(c, "Authentication required")
			return
		}

		userID, err := ParseToken(tokenString, secret)
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		active, err := users.IsActive(c.Request.Context(), userID)
		if err != nil {
			logger.WithError(err).WithField("user_id", userID).Error("Failed to load caller")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal error"})
			return
		}
		if !active {
			abortUnauthorized(c, "Account no longer exists")
			return
		}

		c.Set(CheckUserKey, userID)
		c.Next()
	}
}

// CurrentUserID 获取调用者 ID，仅在 AuthRequired 之后可用
func CurrentUserID(c *gin.Context) uint {
	return c.MustGet(CheckUserKey).(uint)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": message})
}
