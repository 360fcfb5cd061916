package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"wavely/internal/logging"
	"wavely/internal/models"
)

// ModerationService 对帖子做机审并保存结果
type ModerationService struct {
	db         *gorm.DB
	aggregator *ToxicityAggregator
	logger     logging.Logger
}

func NewModerationService(db *gorm.DB, aggregator *ToxicityAggregator, logger logging.Logger) *ModerationService {
	return &ModerationService{db: db, aggregator: aggregator, logger: logger}
}

// ClassifyText 对任意文本打分，不落库
func (s *ModerationService) ClassifyText(ctx context.Context, text string) (Verdict, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Verdict{}, ErrEmptyContent
	}
	return s.aggregator.Classify(ctx, text), nil
}

// ModeratePost 分别审核标题和正文，取更严重的结果写回帖子
func (s *ModerationService) ModeratePost(ctx context.Context, postID uint) (Verdict, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Select("id", "title", "content", "is_deleted").First(&post, postID).Error; err != nil {
		return Verdict{}, notFound(err, ErrPostNotFound)
	}
	if post.IsDeleted {
		return Verdict{}, ErrPostNotFound
	}

	verdict := s.aggregator.Classify(ctx, post.Title)
	if content := strings.TrimSpace(post.Content); content != "" {
		if contentVerdict := s.aggregator.Classify(ctx, content); contentVerdict.Score > verdict.Score {
			verdict = contentVerdict
		}
	}

	checkedAt := verdict.CheckedAt
	err := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", postID).
		Updates(map[string]interface{}{
			"moderation_status":   verdict.Status,
			"moderation_score":    verdict.Score,
			"moderation_category": string(verdict.TopCategory),
			"moderation_reason":   verdict.Reason,
			"reviewed_by":         verdict.ReviewedBy,
			"checked_at":          &checkedAt,
		}).Error
	if err != nil {
		return Verdict{}, err
	}

	s.logger.WithFields(logging.Fields{
		"post_id":  postID,
		"score":    verdict.Score,
		"status":   verdict.Status,
		"category": verdict.TopCategory,
	}).Info("Post moderated")
	return verdict, nil
}
