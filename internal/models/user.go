package models

import (
	"strings"
	"time"

	"wavely/internal/utils"
)

type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Email     string     `gorm:"uniqueIndex;not null" json:"email"`
	Fullname  string     `gorm:"not null" json:"fullname"`
	Password  string     `gorm:"not null" json:"-"` // Hash
	Bio       string     `gorm:"size:200" json:"bio"`
	Karma     int        `gorm:"default:0" json:"karma"`
	IsDeleted bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewUser 构造新用户，密码在此处完成哈希，不依赖任何保存钩子
func NewUser(email, fullname, password string) (*User, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &User{
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Fullname: strings.TrimSpace(fullname),
		Password: hash,
	}, nil
}
