package models

import (
	"time"
)

// ModerationStatus 机审结果
type ModerationStatus string

const (
	ModerationUnreviewed ModerationStatus = "unreviewed"
	ModerationApproved   ModerationStatus = "approved"
	ModerationPending    ModerationStatus = "pending"
	ModerationRejected   ModerationStatus = "rejected"
)

type Post struct {
	ID      uint        `gorm:"primaryKey" json:"id"`
	UserID  uint        `gorm:"not null;index" json:"user_id"`
	WaveID  *uint       `gorm:"index" json:"wave_id"` // 所属 Wave 被删除后置空
	Title   string      `gorm:"not null" json:"title"`
	Content string      `gorm:"type:text" json:"content"`
	Media   []PostMedia `gorm:"foreignKey:PostID" json:"media"`

	UpvoteCount   int `gorm:"not null;default:0" json:"upvote_count"`
	DownvoteCount int `gorm:"not null;default:0" json:"downvote_count"`
	CommentCount  int `gorm:"not null;default:0" json:"comment_count"`

	IsDeleted  bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	IsOrphaned bool       `gorm:"not null;default:false" json:"is_orphaned"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`

	ModerationStatus   ModerationStatus `gorm:"size:16;not null;default:'unreviewed'" json:"moderation_status"`
	ModerationScore    int              `gorm:"default:0" json:"moderation_score"`
	ModerationCategory string           `gorm:"size:20" json:"moderation_category"`
	ModerationReason   string           `json:"moderation_reason"`
	ReviewedBy         string           `gorm:"size:20" json:"reviewed_by"`
	CheckedAt          *time.Time       `json:"checked_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 非数据库字段，读取时渲染
	ContentHTML string `gorm:"-" json:"content_html,omitempty"`
}

// Live 未删除且未被孤立的帖子才能投票和评论
func (p *Post) Live() bool {
	return !p.IsDeleted && !p.IsOrphaned
}

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

func (k MediaKind) Valid() bool {
	switch k {
	case MediaImage, MediaVideo:
		return true
	}
	return false
}

type PostMedia struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	URL       string    `gorm:"not null" json:"url"`
	Kind      MediaKind `gorm:"size:8;not null" json:"kind"`
	ObjectKey string    `json:"-"` // 对象存储中的 key，硬删除时释放
	CreatedAt time.Time `json:"created_at"`
}
