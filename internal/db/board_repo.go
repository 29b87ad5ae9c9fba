package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/agoraboard/agora/internal/models"
)

// BoardRepository provides board-related database operations
type BoardRepository struct {
	*Repository
}

// GetBySlug retrieves a live (not soft-deleted) board by slug
func (r *BoardRepository) GetBySlug(ctx context.Context, slug string) (*models.Board, error) {
	var board models.Board
	if err := r.db.WithContext(ctx).
		Where("slug = ? AND deleted_at IS NULL", slug).
		First(&board).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &board, nil
}

// GetByID retrieves a live board by ID
func (r *BoardRepository) GetByID(ctx context.Context, id string) (*models.Board, error) {
	var board models.Board
	if err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&board).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &board, nil
}

// List returns live boards ordered by creation time. Private boards are
// included only when includePrivate is set.
func (r *BoardRepository) List(ctx context.Context, includePrivate bool) ([]*models.Board, error) {
	query := r.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		Order("created_at ASC")
	if !includePrivate {
		query = query.Where("is_public = ?", true)
	}

	var boards []*models.Board
	if err := query.Find(&boards).Error; err != nil {
		return nil, err
	}
	return boards, nil
}

// SlugExists reports whether any board (including soft-deleted ones)
// holds the slug. Slugs are immutable once claimed.
func (r *BoardRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Board{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create creates a new board. The slug unique index is the
// authoritative guard against concurrent allocation.
func (r *BoardRepository) Create(ctx context.Context, board *models.Board) error {
	return r.db.WithContext(ctx).Create(board).Error
}

// GetTemplate retrieves a board template by ID
func (r *BoardRepository) GetTemplate(ctx context.Context, id string) (*models.BoardTemplate, error) {
	var tpl models.BoardTemplate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tpl).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tpl, nil
}
