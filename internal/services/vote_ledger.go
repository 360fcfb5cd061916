package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"gorm.io/gorm"

	"wavely/internal/config"
	"wavely/internal/logging"
	"wavely/internal/models"
	"wavely/internal/utils"
)

const (
	transitionCreate    = "create"
	transitionToggleOff = "toggle_off"
	transitionSwitch    = "switch"
)

// VoteLedger 投票账本：每次状态迁移与计数更新在同一事务内完成
type VoteLedger struct {
	db     *gorm.DB
	cache  *utils.Cache
	logger logging.Logger
	retry  retrypolicy.RetryPolicy[*models.Vote]
}

func NewVoteLedger(db *gorm.DB, cache *utils.Cache, logger logging.Logger, cfg config.VoteConfig) *VoteLedger {
	retry := retrypolicy.NewBuilder[*models.Vote]().
		HandleIf(func(_ *models.Vote, err error) bool {
			return errors.Is(err, ErrConcurrentModification)
		}).
		WithMaxRetries(cfg.MaxRetries).
		WithBackoff(cfg.BaseDelay, cfg.MaxDelay).
		WithJitterFactor(0.1).
		ReturnLastFailure().
		Build()

	return &VoteLedger{db: db, cache: cache, logger: logger, retry: retry}
}

// CastVote 投票/取消/改票，返回当前有效的投票；取消投票时返回 nil
//
//	无 -> 赞/踩：插入投票，对应计数 +1
//	同方向再投：删除投票，对应计数 -1
//	反方向：修改投票方向，旧计数 -1，新计数 +1
func (l *VoteLedger) CastVote(ctx context.Context, userID, targetID uint, targetType models.TargetType, action models.VoteType) (*models.Vote, error) {
	if !targetType.Valid() {
		return nil, ErrInvalidTarget
	}
	if !action.Valid() {
		return nil, ErrInvalidAction
	}

	var postID uint
	vote, err := failsafe.With[*models.Vote](l.retry).WithContext(ctx).Get(func() (*models.Vote, error) {
		v, pid, err := l.castOnce(ctx, userID, targetID, targetType, action)
		if errors.Is(err, ErrConcurrentModification) {
			voteConflicts.Inc()
			l.logger.WithFields(logging.Fields{
				"user_id":     userID,
				"target_id":   targetID,
				"target_type": targetType,
			}).Debug("Vote lost a race, retrying")
		}
		postID = pid
		return v, err
	})
	if err != nil {
		return nil, err
	}

	if postID != 0 {
		l.cache.Delete(commentCacheKey(postID))
	}
	return vote, nil
}

func (l *VoteLedger) castOnce(ctx context.Context, userID, targetID uint, targetType models.TargetType, action models.VoteType) (*models.Vote, uint, error) {
	var (
		result     *models.Vote
		postID     uint
		transition string
	)

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		postID, err = checkVotable(tx, targetID, targetType)
		if err != nil {
			return err
		}

		var existing models.Vote
		err = tx.Where("user_id = ? AND target_id = ? AND target_type = ?", userID, targetID, targetType).
			First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.Vote{
				UserID:     userID,
				TargetID:   targetID,
				TargetType: targetType,
				Type:       action,
			}
			if err := tx.Create(&vote).Error; err != nil {
				if isUniqueViolation(err) {
					return ErrConcurrentModification
				}
				return err
			}
			if err := adjustCounter(tx, targetType, targetID, action, 1); err != nil {
				return err
			}
			result, transition = &vote, transitionCreate

		case err != nil:
			return err

		case existing.Type == action:
			res := tx.Where("id = ? AND type = ?", existing.ID, existing.Type).Delete(&models.Vote{})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != 1 {
				return ErrConcurrentModification
			}
			if err := adjustCounter(tx, targetType, targetID, action, -1); err != nil {
				return err
			}
			result, transition = nil, transitionToggleOff

		default:
			previous := existing.Type
			res := tx.Model(&models.Vote{}).
				Where("id = ? AND type = ?", existing.ID, previous).
				Update("type", action)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != 1 {
				return ErrConcurrentModification
			}
			if err := adjustCounter(tx, targetType, targetID, previous, -1); err != nil {
				return err
			}
			if err := adjustCounter(tx, targetType, targetID, action, 1); err != nil {
				return err
			}
			existing.Type = action
			result, transition = &existing, transitionSwitch
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	voteTransitions.WithLabelValues(string(targetType), transition).Inc()
	return result, postID, nil
}

// GetVote 查询用户对某对象的当前投票，没有投票时返回 nil
func (l *VoteLedger) GetVote(ctx context.Context, userID, targetID uint, targetType models.TargetType) (*models.Vote, error) {
	if !targetType.Valid() {
		return nil, ErrInvalidTarget
	}
	var vote models.Vote
	err := l.db.WithContext(ctx).
		Where("user_id = ? AND target_id = ? AND target_type = ?", userID, targetID, targetType).
		First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// checkVotable 校验投票对象存在且可投，返回所属帖子 ID
func checkVotable(tx *gorm.DB, targetID uint, targetType models.TargetType) (uint, error) {
	switch targetType {
	case models.TargetPost:
		var post models.Post
		if err := tx.Select("id", "is_deleted", "is_orphaned").First(&post, targetID).Error; err != nil {
			return 0, notFound(err, ErrNotVotable)
		}
		if !post.Live() {
			return 0, ErrNotVotable
		}
		return post.ID, nil

	case models.TargetComment:
		var comment models.Comment
		if err := tx.Select("id", "post_id", "is_deleted").First(&comment, targetID).Error; err != nil {
			return 0, notFound(err, ErrNotVotable)
		}
		if comment.IsDeleted {
			return 0, ErrNotVotable
		}
		var post models.Post
		if err := tx.Select("id", "is_deleted", "is_orphaned").First(&post, comment.PostID).Error; err != nil {
			return 0, notFound(err, ErrNotVotable)
		}
		if !post.Live() {
			return 0, ErrNotVotable
		}
		return post.ID, nil
	}
	return 0, ErrInvalidTarget
}

// adjustCounter 仅在对象仍可投时更新计数，影响行数为 0 说明对象已被并发删除
func adjustCounter(tx *gorm.DB, targetType models.TargetType, targetID uint, voteType models.VoteType, delta int) error {
	column := voteType.CounterColumn()
	if column == "" {
		return ErrInvalidAction
	}

	var q *gorm.DB
	switch targetType {
	case models.TargetPost:
		q = tx.Model(&models.Post{}).Where("id = ? AND is_deleted = ? AND is_orphaned = ?", targetID, false, false)
	case models.TargetComment:
		q = tx.Model(&models.Comment{}).Where("id = ? AND is_deleted = ?", targetID, false)
	default:
		return ErrInvalidTarget
	}

	res := q.UpdateColumn(column, gorm.Expr(fmt.Sprintf("%s + ?", column), delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrNotVotable
	}
	return nil
}
