package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/agoraboard/agora/internal/models"
)

// CommentRepository provides comment-related database operations
type CommentRepository struct {
	*Repository
}

// GetByID retrieves a live (not soft-deleted) comment by ID
func (r *CommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

// GetAny retrieves a comment regardless of soft-delete state
func (r *CommentRepository) GetAny(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

// Create creates a comment and bumps the post comment counter in one
// transaction.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).
			Where("id = ?", comment.PostID).
			Update("comment_count", gorm.Expr("comment_count + 1")).Error
	})
}

// UpdateContent updates the comment body and returns the updated row
func (r *CommentRepository) UpdateContent(ctx context.Context, id, content string) (*models.Comment, error) {
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ?", id).
		Update("content", content).Error; err != nil {
		return nil, err
	}
	return r.GetAny(ctx, id)
}

// SoftDelete marks the comment deleted and decrements the post counter
// in the same transaction. The deleted_at guard makes repeated deletes
// no-ops so the counter moves at most once per comment.
func (r *CommentRepository) SoftDelete(ctx context.Context, id, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Where("id = ? AND deleted_at IS NULL", id).First(&comment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if err := tx.Model(&models.Comment{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":     models.CommentStatusDeleted,
				"deleted_at": time.Now().UTC(),
				"deleted_by": deletedBy,
			}).Error; err != nil {
			return err
		}
		return applyCommentCountDelta(tx, comment.PostID, commentCountDelta(false, true))
	})
}

// commentCountDelta maps a visibility transition to the counter change
// it implies. Transitions that keep visibility put the counter where it
// already is.
func commentCountDelta(wasDeleted, isDeleted bool) int64 {
	switch {
	case wasDeleted == isDeleted:
		return 0
	case isDeleted:
		return -1
	default:
		return 1
	}
}

func applyCommentCountDelta(tx *gorm.DB, postID string, delta int64) error {
	if delta == 0 {
		return nil
	}
	return tx.Model(&models.Post{}).
		Where("id = ?", postID).
		Update("comment_count", gorm.Expr("GREATEST(comment_count + ?, 0)", delta)).Error
}

// SetModerationStatus applies an admin status change, mirroring the
// post rules for the deleted_at/deleted_by pair. The post counter
// follows the comment's visibility transition in the same transaction.
func (r *CommentRepository) SetModerationStatus(ctx context.Context, id, status, adminID string) (*models.Comment, error) {
	var updated *models.Comment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Where("id = ?", id).First(&comment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		fields := map[string]interface{}{
			"status":     status,
			"deleted_at": nil,
			"deleted_by": nil,
		}
		if status == models.CommentStatusDeleted {
			fields["deleted_at"] = time.Now().UTC()
			fields["deleted_by"] = adminID
		}
		if err := tx.Model(&models.Comment{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return err
		}

		wasDeleted := comment.DeletedAt.Valid
		isDeleted := status == models.CommentStatusDeleted
		if err := applyCommentCountDelta(tx, comment.PostID, commentCountDelta(wasDeleted, isDeleted)); err != nil {
			return err
		}

		updated = &comment
		return nil
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, nil
	}
	return r.GetAny(ctx, id)
}

// CommentRow is a comment joined with its author nickname
type CommentRow struct {
	models.Comment
	AuthorNickname string `json:"author_nickname"`
}

// ListByPost returns live comments for a post in creation order.
// Non-admin viewers only see published comments.
func (r *CommentRepository) ListByPost(ctx context.Context, postID string, includeAllStatuses bool) ([]*CommentRow, error) {
	query := r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("comments.*, profiles.nickname AS author_nickname").
		Joins("JOIN profiles ON profiles.id = comments.author_id").
		Where("comments.post_id = ? AND comments.deleted_at IS NULL", postID).
		Order("comments.created_at ASC")
	if !includeAllStatuses {
		query = query.Where("comments.status = ?", models.CommentStatusPublished)
	}

	var rows []*CommentRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByAuthor returns the author's most recent comments
func (r *CommentRepository) ListByAuthor(ctx context.Context, authorID string, limit int) ([]*models.Comment, error) {
	var comments []*models.Comment
	if err := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Limit(limit).
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}
