package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"wavely/internal/logging"
	"wavely/internal/models"
	"wavely/internal/utils"
)

const (
	minPasswordLength = 8
	// bcrypt 只接受 72 字节以内的输入
	maxPasswordLength = 72
	maxBioLength      = 200
)

// UserService 注册、登录和身份校验
type UserService struct {
	db     *gorm.DB
	logger logging.Logger
}

func NewUserService(db *gorm.DB, logger logging.Logger) *UserService {
	return &UserService{db: db, logger: logger}
}

// SignUp 注册新用户
func (s *UserService) SignUp(ctx context.Context, email, fullname, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") || strings.TrimSpace(fullname) == "" ||
		len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return nil, ErrInvalidSignup
	}

	user, err := models.NewUser(email, fullname, password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, ErrInvalidSignup
	}
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("User signed up")
	return user, nil
}

// Login 校验邮箱和密码，已注销的账号无法登录
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if user.IsDeleted || !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// IsActive 用户存在且未注销
func (s *UserService) IsActive(ctx context.Context, userID uint) (bool, error) {
	var user models.User
	err := s.db.WithContext(ctx).Select("id", "is_deleted").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !user.IsDeleted, nil
}

// Profile 当前用户资料，已注销的账号视为不存在
func (s *UserService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	if user.IsDeleted {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

// UpdateBio 更新个人简介，空字符串表示清空
func (s *UserService) UpdateBio(ctx context.Context, userID uint, bio string) (*models.User, error) {
	bio = utils.SanitizeText(bio)
	if utf8.RuneCountInString(bio) > maxBioLength {
		return nil, ErrBioTooLong
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND is_deleted = ?", userID, false).
		Update("bio", bio)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected != 1 {
		return nil, ErrUserNotFound
	}

	s.logger.WithField("user_id", userID).Info("Bio updated")
	return s.Profile(ctx, userID)
}
