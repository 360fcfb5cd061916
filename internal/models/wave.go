package models

import (
	"time"
)

// Wave 社区（按地点划分的讨论区）
type Wave struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"not null;uniqueIndex" json:"name"`
	Description string     `json:"description"`
	CreatedBy   uint       `gorm:"not null;index" json:"created_by"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
	IsDeleted   bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
