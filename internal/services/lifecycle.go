package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"wavely/internal/logging"
	"wavely/internal/models"
	"wavely/internal/utils"
)

// DeleteOutcome 删除结果
type DeleteOutcome string

const (
	OutcomePermanent DeleteOutcome = "permanently deleted"
	OutcomeSoft      DeleteOutcome = "soft deleted"
)

// CommentHardDeleteWindow 评论发布后多久内允许物理删除
const CommentHardDeleteWindow = 60 * time.Second

// LifecycleManager 负责内容的创建与级联删除
//
// 没有任何互动的内容直接物理删除；有互动的内容软删除并级联到依赖对象，
// 这样计数和讨论串保持一致。
type LifecycleManager struct {
	db     *gorm.DB
	media  MediaStore
	cache  *utils.Cache
	logger logging.Logger
	now    func() time.Time
}

func NewLifecycleManager(db *gorm.DB, media MediaStore, cache *utils.Cache, logger logging.Logger) *LifecycleManager {
	return &LifecycleManager{
		db:     db,
		media:  media,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// softDeleteFields 软删除统一写入的字段
func softDeleteFields(at time.Time) map[string]interface{} {
	return map[string]interface{}{
		"is_deleted": true,
		"deleted_at": at,
	}
}

// CreatePost 发帖，waveID 为空表示不属于任何 Wave
func (m *LifecycleManager) CreatePost(ctx context.Context, userID uint, waveID *uint, title, content string, media []models.PostMedia) (*models.Post, error) {
	title = utils.SanitizeText(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	for i := range media {
		media[i].URL = strings.TrimSpace(media[i].URL)
		if media[i].URL == "" || !media[i].Kind.Valid() {
			return nil, ErrInvalidMedia
		}
		media[i].ID = 0
	}

	post := models.Post{
		UserID:           userID,
		WaveID:           waveID,
		Title:            title,
		Content:          strings.TrimSpace(content),
		Media:            media,
		ModerationStatus: models.ModerationUnreviewed,
		CreatedAt:        m.now(),
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if waveID != nil {
			var wave models.Wave
			if err := tx.Select("id", "is_deleted").First(&wave, *waveID).Error; err != nil {
				return notFound(err, ErrWaveNotFound)
			}
			if wave.IsDeleted {
				return ErrWaveNotFound
			}
		}
		// 媒体记录随帖子一起写入
		return tx.Create(&post).Error
	})
	if err != nil {
		return nil, err
	}

	m.logger.WithFields(logging.Fields{
		"post_id": post.ID,
		"user_id": userID,
		"media":   len(media),
	}).Info("Post created")
	return &post, nil
}

// DeletePost 删除帖子：没有评论和投票时物理删除并释放媒体，否则软删除并级联到评论
func (m *LifecycleManager) DeletePost(ctx context.Context, requesterID, postID uint) (DeleteOutcome, error) {
	var (
		outcome  DeleteOutcome
		released []models.PostMedia
	)

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Preload("Media").First(&post, postID).Error; err != nil {
			return notFound(err, ErrPostNotFound)
		}
		if post.IsDeleted {
			return ErrPostNotFound
		}
		if post.UserID != requesterID {
			return ErrNotOwner
		}

		var comments, votes int64
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&comments).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Vote{}).
			Where("target_type = ? AND target_id = ?", models.TargetPost, postID).
			Count(&votes).Error; err != nil {
			return err
		}

		if comments+votes == 0 {
			if err := tx.Where("post_id = ?", postID).Delete(&models.PostMedia{}).Error; err != nil {
				return err
			}
			res := tx.Delete(&models.Post{}, postID)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != 1 {
				return ErrPostNotFound
			}
			outcome, released = OutcomePermanent, post.Media
			return nil
		}

		now := m.now()
		res := tx.Model(&models.Post{}).
			Where("id = ? AND is_deleted = ?", postID, false).
			Updates(softDeleteFields(now))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrPostNotFound
		}
		if err := tx.Model(&models.Comment{}).
			Where("post_id = ? AND is_deleted = ?", postID, false).
			Updates(softDeleteFields(now)).Error; err != nil {
			return err
		}
		outcome = OutcomeSoft
		return nil
	})
	if err != nil {
		return "", err
	}

	m.cache.Delete(commentCacheKey(postID))
	deletions.WithLabelValues("post", string(outcome)).Inc()
	m.logger.WithFields(logging.Fields{
		"post_id": postID,
		"outcome": outcome,
	}).Info("Post deleted")

	if err := m.releaseMedia(ctx, released); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// releaseMedia 在事务提交后释放对象存储，逐个尝试并汇总错误
func (m *LifecycleManager) releaseMedia(ctx context.Context, media []models.PostMedia) error {
	var errs []error
	for _, item := range media {
		if err := m.media.Release(ctx, item); err != nil {
			mediaReleaseFailures.Inc()
			m.logger.WithError(err).WithFields(logging.Fields{
				"post_id":  item.PostID,
				"media_id": item.ID,
				"url":      item.URL,
			}).Error("Failed to release media")
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrMediaRelease, errors.Join(errs...))
}

// CreateComment 发表评论或回复，帖子评论数在同一事务内 +1
func (m *LifecycleManager) CreateComment(ctx context.Context, userID, postID uint, text string, parentID *uint) (*models.Comment, error) {
	text = utils.SanitizeText(text)
	if text == "" {
		return nil, ErrEmptyContent
	}

	comment := models.Comment{
		PostID:          postID,
		UserID:          userID,
		ParentCommentID: parentID,
		Text:            text,
		CreatedAt:       m.now(),
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id", "is_deleted", "is_orphaned").First(&post, postID).Error; err != nil {
			return notFound(err, ErrPostNotFound)
		}
		if !post.Live() {
			return ErrNotCommentable
		}

		if parentID != nil {
			var parent models.Comment
			if err := tx.Select("id", "post_id", "is_deleted").First(&parent, *parentID).Error; err != nil {
				return notFound(err, ErrInvalidParent)
			}
			if parent.IsDeleted || parent.PostID != postID {
				return ErrInvalidParent
			}
		}

		if err := tx.Create(&comment).Error; err != nil {
			return err
		}

		res := tx.Model(&models.Post{}).
			Where("id = ? AND is_deleted = ? AND is_orphaned = ?", postID, false, false).
			UpdateColumn("comment_count", gorm.Expr("comment_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrNotCommentable
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.cache.Delete(commentCacheKey(postID))
	return &comment, nil
}

// DeleteComment 删除评论：60 秒内、无回复、无投票的评论物理删除，否则软删除
// 两种情况帖子评论数都 -1
func (m *LifecycleManager) DeleteComment(ctx context.Context, requesterID, commentID uint) (DeleteOutcome, error) {
	var (
		outcome DeleteOutcome
		postID  uint
	)

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, commentID).Error; err != nil {
			return notFound(err, ErrCommentNotFound)
		}
		if comment.IsDeleted {
			return ErrAlreadyDeleted
		}
		if comment.UserID != requesterID {
			return ErrNotOwner
		}
		postID = comment.PostID

		var replies, votes int64
		if err := tx.Model(&models.Comment{}).
			Where("parent_comment_id = ? AND is_deleted = ?", commentID, false).
			Count(&replies).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Vote{}).
			Where("target_type = ? AND target_id = ?", models.TargetComment, commentID).
			Count(&votes).Error; err != nil {
			return err
		}

		age := m.now().Sub(comment.CreatedAt)
		if age <= CommentHardDeleteWindow && replies == 0 && votes == 0 {
			res := tx.Delete(&models.Comment{}, commentID)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != 1 {
				return ErrAlreadyDeleted
			}
			outcome = OutcomePermanent
		} else {
			res := tx.Model(&models.Comment{}).
				Where("id = ? AND is_deleted = ?", commentID, false).
				Updates(softDeleteFields(m.now()))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != 1 {
				return ErrAlreadyDeleted
			}
			outcome = OutcomeSoft
		}

		return tx.Model(&models.Post{}).
			Where("id = ? AND comment_count > 0", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count - ?", 1)).Error
	})
	if err != nil {
		return "", err
	}

	m.cache.Delete(commentCacheKey(postID))
	deletions.WithLabelValues("comment", string(outcome)).Inc()
	return outcome, nil
}

// DeleteUser 注销账号：没有任何内容和投票时物理删除，否则软删除并级联到帖子和评论，投票保留
func (m *LifecycleManager) DeleteUser(ctx context.Context, requesterID uint) (DeleteOutcome, error) {
	var (
		outcome  DeleteOutcome
		affected []uint
	)

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, requesterID).Error; err != nil {
			return notFound(err, ErrUserNotFound)
		}
		if user.IsDeleted {
			return ErrUserNotFound
		}

		var posts, comments, votes, waves int64
		if err := tx.Model(&models.Post{}).Where("user_id = ?", requesterID).Count(&posts).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).Where("user_id = ?", requesterID).Count(&comments).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Vote{}).Where("user_id = ?", requesterID).Count(&votes).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Wave{}).Where("created_by = ?", requesterID).Count(&waves).Error; err != nil {
			return err
		}

		// 创建过 Wave 的用户只能软删除，保证 Wave 的创建者仍然存在
		if posts+comments+votes+waves == 0 {
			if err := tx.Delete(&models.User{}, requesterID).Error; err != nil {
				return err
			}
			outcome = OutcomePermanent
			return nil
		}

		now := m.now()
		if err := tx.Model(&models.User{}).Where("id = ?", requesterID).Updates(softDeleteFields(now)).Error; err != nil {
			return err
		}

		// 按帖子统计即将被软删除的评论，用于回减评论数
		type CountResult struct {
			PostID uint
			Count  int64
		}
		var counts []CountResult
		if err := tx.Model(&models.Comment{}).
			Select("post_id, COUNT(*) as count").
			Where("user_id = ? AND is_deleted = ?", requesterID, false).
			Group("post_id").
			Scan(&counts).Error; err != nil {
			return err
		}
		for _, c := range counts {
			if err := tx.Model(&models.Post{}).Where("id = ?", c.PostID).
				UpdateColumn("comment_count", gorm.Expr("CASE WHEN comment_count >= ? THEN comment_count - ? ELSE 0 END", c.Count, c.Count)).
				Error; err != nil {
				return err
			}
			affected = append(affected, c.PostID)
		}

		if err := tx.Model(&models.Comment{}).
			Where("user_id = ? AND is_deleted = ?", requesterID, false).
			Updates(softDeleteFields(now)).Error; err != nil {
			return err
		}
		var ownPosts []uint
		if err := tx.Model(&models.Post{}).
			Where("user_id = ? AND is_deleted = ?", requesterID, false).
			Pluck("id", &ownPosts).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).
			Where("user_id = ? AND is_deleted = ?", requesterID, false).
			Updates(softDeleteFields(now)).Error; err != nil {
			return err
		}
		affected = append(affected, ownPosts...)
		outcome = OutcomeSoft
		return nil
	})
	if err != nil {
		return "", err
	}

	for _, postID := range affected {
		m.cache.Delete(commentCacheKey(postID))
	}
	deletions.WithLabelValues("user", string(outcome)).Inc()
	m.logger.WithFields(logging.Fields{
		"user_id": requesterID,
		"outcome": outcome,
	}).Info("User deleted")
	return outcome, nil
}

// CreateWave 创建 Wave，名称唯一
func (m *LifecycleManager) CreateWave(ctx context.Context, userID uint, name, description string) (*models.Wave, error) {
	name = utils.SanitizeText(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	wave := models.Wave{
		Name:        name,
		Description: utils.SanitizeText(description),
		CreatedBy:   userID,
	}
	if err := m.db.WithContext(ctx).Create(&wave).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrWaveNameTaken
		}
		return nil, err
	}
	return &wave, nil
}

// DeleteWave 删除 Wave：没有帖子时物理删除，否则软删除并把帖子标记为孤立
func (m *LifecycleManager) DeleteWave(ctx context.Context, requesterID, waveID uint) (DeleteOutcome, error) {
	var outcome DeleteOutcome

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wave models.Wave
		if err := tx.First(&wave, waveID).Error; err != nil {
			return notFound(err, ErrWaveNotFound)
		}
		if wave.IsDeleted {
			return ErrWaveNotFound
		}
		if wave.CreatedBy != requesterID {
			return ErrNotOwner
		}

		var posts int64
		if err := tx.Model(&models.Post{}).Where("wave_id = ?", waveID).Count(&posts).Error; err != nil {
			return err
		}
		if posts == 0 {
			if err := tx.Delete(&models.Wave{}, waveID).Error; err != nil {
				return err
			}
			outcome = OutcomePermanent
			return nil
		}

		res := tx.Model(&models.Wave{}).
			Where("id = ? AND is_deleted = ?", waveID, false).
			Updates(softDeleteFields(m.now()))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrWaveNotFound
		}
		if err := tx.Model(&models.Post{}).
			Where("wave_id = ?", waveID).
			Updates(map[string]interface{}{
				"wave_id":     nil,
				"is_orphaned": true,
			}).Error; err != nil {
			return err
		}
		outcome = OutcomeSoft
		return nil
	})
	if err != nil {
		return "", err
	}

	deletions.WithLabelValues("wave", string(outcome)).Inc()
	m.logger.WithFields(logging.Fields{
		"wave_id": waveID,
		"outcome": outcome,
	}).Info("Wave deleted")
	return outcome, nil
}

// SetWaveLocation 设置 Wave 坐标，仅创建者可操作
func (m *LifecycleManager) SetWaveLocation(ctx context.Context, requesterID, waveID uint, lat, lon float64) (*models.Wave, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, ErrInvalidLocation
	}

	var wave models.Wave
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&wave, waveID).Error; err != nil {
			return notFound(err, ErrWaveNotFound)
		}
		if wave.IsDeleted {
			return ErrWaveNotFound
		}
		if wave.CreatedBy != requesterID {
			return ErrNotOwner
		}
		wave.Latitude, wave.Longitude = &lat, &lon
		return tx.Model(&wave).Updates(map[string]interface{}{
			"latitude":  lat,
			"longitude": lon,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &wave, nil
}
