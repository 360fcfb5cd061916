package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// 错误分类：handler 只需 errors.Is 判断类别即可映射状态码
var (
	ErrValidation             = errors.New("validation failed")
	ErrNotFound               = errors.New("not found")
	ErrForbidden              = errors.New("forbidden")
	ErrConcurrentModification = errors.New("concurrent modification")
)

var (
	ErrInvalidAction   = fmt.Errorf("%w: vote action must be upvote or downvote", ErrValidation)
	ErrInvalidTarget   = fmt.Errorf("%w: unknown vote target type", ErrValidation)
	ErrEmptyTitle      = fmt.Errorf("%w: title is required", ErrValidation)
	ErrEmptyContent    = fmt.Errorf("%w: text is required", ErrValidation)
	ErrEmptyName       = fmt.Errorf("%w: name is required", ErrValidation)
	ErrInvalidMedia    = fmt.Errorf("%w: media needs a url and a kind of image or video", ErrValidation)
	ErrInvalidLocation = fmt.Errorf("%w: latitude must be within [-90, 90] and longitude within [-180, 180]", ErrValidation)
	ErrInvalidSignup   = fmt.Errorf("%w: email, fullname and a password of 8 to 72 bytes are required", ErrValidation)
	ErrBioTooLong      = fmt.Errorf("%w: bio must be at most 200 characters", ErrValidation)

	// 唯一性冲突，handler 映射为 409
	ErrWaveNameTaken = fmt.Errorf("%w: wave name already exists", ErrValidation)
	ErrEmailTaken    = fmt.Errorf("%w: email already registered", ErrValidation)

	ErrPostNotFound    = fmt.Errorf("%w: post", ErrNotFound)
	ErrCommentNotFound = fmt.Errorf("%w: comment", ErrNotFound)
	ErrWaveNotFound    = fmt.Errorf("%w: wave", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("%w: user", ErrNotFound)
	ErrAlreadyDeleted  = fmt.Errorf("%w: already deleted", ErrNotFound)

	ErrNotOwner       = fmt.Errorf("%w: requester does not own this resource", ErrForbidden)
	ErrNotVotable     = fmt.Errorf("%w: target is missing, deleted or orphaned", ErrForbidden)
	ErrNotCommentable = fmt.Errorf("%w: post is deleted or orphaned", ErrForbidden)
	ErrInvalidParent  = fmt.Errorf("%w: parent comment is missing, deleted or on another post", ErrForbidden)

	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrMediaRelease 删除已提交但对象存储清理失败
	ErrMediaRelease = errors.New("media release failed")
)

// notFound 把 gorm 的 ErrRecordNotFound 转成业务错误
func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// isUniqueViolation 兼容 postgres 和 sqlite 的唯一约束错误
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
