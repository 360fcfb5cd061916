package models

import (
	"time"
)

type Comment struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	PostID          uint       `gorm:"not null;index" json:"post_id"`
	UserID          uint       `gorm:"not null;index" json:"user_id"`
	ParentCommentID *uint      `gorm:"index" json:"parent_comment_id"` // Nullable for top-level comments
	Text            string     `gorm:"type:text;not null" json:"text"`
	UpvoteCount     int        `gorm:"not null;default:0" json:"upvote_count"`
	DownvoteCount   int        `gorm:"not null;default:0" json:"downvote_count"`
	IsDeleted       bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`

	// 非数据库字段，用于查询时填充
	ReplyCount int64 `gorm:"-" json:"reply_count"`
}

// NetVotes 净票数，用于热度排序
func (c *Comment) NetVotes() int {
	return c.UpvoteCount - c.DownvoteCount
}
