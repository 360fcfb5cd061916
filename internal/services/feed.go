package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"wavely/internal/logging"
	"wavely/internal/models"
	"wavely/internal/utils"
)

const (
	PostsPerPage       = 10
	MaxPostPage        = 100000
	DefaultCommentPage = 20
	MaxCommentPage     = 100

	commentCacheTTL = 5 * time.Minute
)

func commentCacheKey(postID uint) string {
	return fmt.Sprintf("comments:post:%d", postID)
}

// FeedService 读取帖子和评论
type FeedService struct {
	db     *gorm.DB
	cache  *utils.Cache
	logger logging.Logger
}

func NewFeedService(db *gorm.DB, cache *utils.Cache, logger logging.Logger) *FeedService {
	return &FeedService{db: db, cache: cache, logger: logger}
}

// GetPost 获取帖子详情，已删除的帖子对读者不可见，孤立帖子仍可读
func (s *FeedService) GetPost(ctx context.Context, postID uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Preload("Media").First(&post, postID).Error; err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}
	if post.IsDeleted {
		return nil, ErrPostNotFound
	}
	post.ContentHTML = utils.RenderMarkdown(post.Content)
	return &post, nil
}

// ListWavePosts Wave 下的帖子，最新优先
func (s *FeedService) ListWavePosts(ctx context.Context, waveID uint, page int) ([]models.Post, error) {
	var wave models.Wave
	if err := s.db.WithContext(ctx).Select("id", "is_deleted").First(&wave, waveID).Error; err != nil {
		return nil, notFound(err, ErrWaveNotFound)
	}
	if wave.IsDeleted {
		return nil, ErrWaveNotFound
	}
	return s.listPosts(ctx, "wave_id = ?", waveID, page)
}

// ListUserPosts 用户发过的帖子，最新优先
func (s *FeedService) ListUserPosts(ctx context.Context, userID uint, page int) ([]models.Post, error) {
	return s.listPosts(ctx, "user_id = ?", userID, page)
}

func (s *FeedService) listPosts(ctx context.Context, cond string, arg interface{}, page int) ([]models.Post, error) {
	if page < 1 {
		page = 1
	}
	if page > MaxPostPage {
		return []models.Post{}, nil
	}
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Preload("Media").
		Where(cond, arg).
		Where("is_deleted = ?", false).
		Order("created_at DESC, id DESC").
		Limit(PostsPerPage).
		Offset((page - 1) * PostsPerPage).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// ListTopComments 按热度排序的一级评论，带回复数；软删除的评论保留为占位
func (s *FeedService) ListTopComments(ctx context.Context, postID uint, page, limit int) ([]models.Comment, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultCommentPage
	}
	if limit > MaxCommentPage {
		limit = MaxCommentPage
	}

	if err := s.checkReadable(ctx, postID); err != nil {
		return nil, err
	}

	ranked, err := s.rankedComments(ctx, postID)
	if err != nil {
		return nil, err
	}

	// 先按页数判断，避免超大页码相乘溢出
	if page-1 >= (len(ranked)+limit-1)/limit {
		return []models.Comment{}, nil
	}
	start := (page - 1) * limit
	end := min(start+limit, len(ranked))
	out := make([]models.Comment, end-start)
	copy(out, ranked[start:end])
	return out, nil
}

// rankedComments 整个帖子的一级评论排序结果按帖子缓存，投票、评论和删除时失效
func (s *FeedService) rankedComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	v, err := s.cache.Remember(commentCacheKey(postID), commentCacheTTL, func() (interface{}, error) {
		var comments []models.Comment
		err := s.db.WithContext(ctx).
			Where("post_id = ? AND parent_comment_id IS NULL", postID).
			Find(&comments).Error
		if err != nil {
			return nil, err
		}
		if err := s.fillReplyCounts(ctx, comments); err != nil {
			return nil, err
		}
		tombstone(comments)

		sort.SliceStable(comments, func(i, j int) bool {
			hi := utils.Hotness(comments[i].NetVotes(), comments[i].CreatedAt.Unix())
			hj := utils.Hotness(comments[j].NetVotes(), comments[j].CreatedAt.Unix())
			if hi != hj {
				return hi > hj
			}
			return comments[i].ID > comments[j].ID
		})
		return comments, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Comment), nil
}

// ListReplies 某条评论的直接回复，按时间正序
func (s *FeedService) ListReplies(ctx context.Context, commentID uint) ([]models.Comment, error) {
	var parent models.Comment
	if err := s.db.WithContext(ctx).Select("id", "post_id").First(&parent, commentID).Error; err != nil {
		return nil, notFound(err, ErrCommentNotFound)
	}
	if err := s.checkReadable(ctx, parent.PostID); err != nil {
		return nil, err
	}

	var replies []models.Comment
	err := s.db.WithContext(ctx).
		Where("parent_comment_id = ?", commentID).
		Order("created_at ASC, id ASC").
		Find(&replies).Error
	if err != nil {
		return nil, err
	}
	if err := s.fillReplyCounts(ctx, replies); err != nil {
		return nil, err
	}
	tombstone(replies)
	return replies, nil
}

func (s *FeedService) checkReadable(ctx context.Context, postID uint) error {
	var post models.Post
	if err := s.db.WithContext(ctx).Select("id", "is_deleted").First(&post, postID).Error; err != nil {
		return notFound(err, ErrPostNotFound)
	}
	if post.IsDeleted {
		return ErrPostNotFound
	}
	return nil
}

// fillReplyCounts 批量填充回复数
func (s *FeedService) fillReplyCounts(ctx context.Context, comments []models.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	ids := make([]uint, len(comments))
	for i := range comments {
		ids[i] = comments[i].ID
	}

	type CountResult struct {
		ParentCommentID uint
		Count           int64
	}
	var results []CountResult
	err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Select("parent_comment_id, COUNT(*) as count").
		Where("parent_comment_id IN ?", ids).
		Group("parent_comment_id").
		Scan(&results).Error
	if err != nil {
		return err
	}

	countMap := make(map[uint]int64, len(results))
	for _, r := range results {
		countMap[r.ParentCommentID] = r.Count
	}
	for i := range comments {
		comments[i].ReplyCount = countMap[comments[i].ID]
	}
	return nil
}

// tombstone 软删除的评论只保留结构，不返回正文
func tombstone(comments []models.Comment) {
	for i := range comments {
		if comments[i].IsDeleted {
			comments[i].Text = ""
		}
	}
}
