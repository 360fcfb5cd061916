package models

import (
	"time"
)

// TargetType 投票对象类型
type TargetType string

const (
	TargetPost    TargetType = "Post"
	TargetComment TargetType = "Comment"
)

func (t TargetType) Valid() bool {
	switch t {
	case TargetPost, TargetComment:
		return true
	}
	return false
}

// VoteType 投票方向
type VoteType string

const (
	Upvote   VoteType = "upvote"
	Downvote VoteType = "downvote"
)

func (v VoteType) Valid() bool {
	switch v {
	case Upvote, Downvote:
		return true
	}
	return false
}

// CounterColumn 该方向对应的计数列
func (v VoteType) CounterColumn() string {
	switch v {
	case Upvote:
		return "upvote_count"
	case Downvote:
		return "downvote_count"
	}
	return ""
}

// Vote 每个用户对每个对象最多一票，由 idx_vote_user_target 唯一索引保证
type Vote struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;uniqueIndex:idx_vote_user_target,priority:1" json:"user_id"`
	TargetID   uint       `gorm:"not null;uniqueIndex:idx_vote_user_target,priority:2;index:idx_vote_target,priority:2" json:"target_id"`
	TargetType TargetType `gorm:"size:16;not null;uniqueIndex:idx_vote_user_target,priority:3;index:idx_vote_target,priority:1" json:"target_type"`
	Type       VoteType   `gorm:"size:16;not null" json:"type"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
