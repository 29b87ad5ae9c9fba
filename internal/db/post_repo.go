package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agoraboard/agora/internal/models"
)

// PostRepository provides post-related database operations
type PostRepository struct {
	*Repository
}

// GetByID retrieves a live (not soft-deleted) post by ID
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// GetAny retrieves a post by ID regardless of soft-delete state.
// Moderation needs to see deleted rows.
func (r *PostRepository) GetAny(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// Create creates a new post
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// UpdateFields applies a partial update and returns the updated row
func (r *PostRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (*models.Post, error) {
	if err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return nil, err
	}
	return r.GetAny(ctx, id)
}

// SoftDelete marks the post deleted. Status and the deleted_at/
// deleted_by pair are always written together.
func (r *PostRepository) SoftDelete(ctx context.Context, id, deletedBy string) error {
	return r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.PostStatusDeleted,
			"deleted_at": time.Now().UTC(),
			"deleted_by": deletedBy,
		}).Error
}

// SetModerationStatus applies an admin status change. Deletion sets the
// deleted_at/deleted_by pair; any other status clears both.
func (r *PostRepository) SetModerationStatus(ctx context.Context, id, status, adminID string) (*models.Post, error) {
	fields := map[string]interface{}{
		"status":     status,
		"deleted_at": nil,
		"deleted_by": nil,
	}
	if status == models.PostStatusDeleted {
		fields["deleted_at"] = time.Now().UTC()
		fields["deleted_by"] = adminID
	}

	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.GetAny(ctx, id)
}

// ToggleLike atomically flips the (post, user) like row and keeps
// like_count consistent with the row count. The post row is locked for
// the duration of the transaction, so concurrent toggles serialize and
// the returned state is always the post-toggle state.
func (r *PostRepository) ToggleLike(ctx context.Context, postID, userID string) (bool, int64, error) {
	var liked bool
	var count int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", postID).
			First(&post).Error; err != nil {
			return err
		}

		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).
			Delete(&models.PostLike{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected > 0 {
			liked = false
			count = post.LikeCount - 1
		} else {
			like := models.PostLike{
				PostID:    postID,
				UserID:    userID,
				CreatedAt: time.Now().UTC(),
			}
			if err := tx.Create(&like).Error; err != nil {
				return err
			}
			liked = true
			count = post.LikeCount + 1
		}
		if count < 0 {
			count = 0
		}

		return tx.Model(&models.Post{}).
			Where("id = ?", postID).
			Update("like_count", count).Error
	})
	if err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

// BoardPostsQuery is the validated parameter set for a board page
type BoardPostsQuery struct {
	BoardID            string
	Page               int
	PageSize           int
	Search             string
	IncludeAllStatuses bool // admin viewers see pending/hidden too
}

// BoardPostRow is a post joined with its author nickname
type BoardPostRow struct {
	models.Post
	AuthorNickname string `json:"author_nickname"`
}

// ListBoardPage returns a page of board posts with notice and pinned
// posts first, plus the full match count.
func (r *PostRepository) ListBoardPage(ctx context.Context, q BoardPostsQuery) ([]*BoardPostRow, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("posts.board_id = ? AND posts.deleted_at IS NULL", q.BoardID)
	if !q.IncludeAllStatuses {
		query = query.Where("posts.status = ?", models.PostStatusPublished)
	}
	if q.Search != "" {
		query = query.Where(
			"to_tsvector('simple', posts.title || ' ' || posts.content) @@ websearch_to_tsquery('simple', ?)",
			q.Search,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*BoardPostRow
	if err := query.
		Select("posts.*, profiles.nickname AS author_nickname").
		Joins("JOIN profiles ON profiles.id = posts.author_id").
		Order("posts.is_notice DESC, posts.is_pinned DESC, posts.created_at DESC").
		Limit(q.PageSize).
		Offset((q.Page - 1) * q.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

// SearchRow is one ranked full-text search hit
type SearchRow struct {
	PostID         string    `gorm:"column:post_id" json:"post_id"`
	BoardSlug      string    `gorm:"column:board_slug" json:"board_slug"`
	BoardName      string    `gorm:"column:board_name" json:"board_name"`
	Title          string    `gorm:"column:title" json:"title"`
	Excerpt        string    `gorm:"column:excerpt" json:"excerpt"`
	AuthorNickname string    `gorm:"column:author_nickname" json:"author_nickname"`
	Status         string    `gorm:"column:status" json:"status"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	Rank           float64   `gorm:"column:rank" json:"rank"`
	TotalCount     int64     `gorm:"column:total_count" json:"-"`
}

// searchPostsSQL mirrors the read-path visibility rules. Non-admins
// only match published posts on live public boards.
const searchPostsSQL = `
SELECT p.id AS post_id,
       b.slug AS board_slug,
       b.name AS board_name,
       p.title,
       left(p.content, 2000) AS excerpt,
       pr.nickname AS author_nickname,
       p.status,
       p.created_at,
       ts_rank(to_tsvector('simple', p.title || ' ' || p.content),
               websearch_to_tsquery('simple', @query)) AS rank,
       count(*) OVER () AS total_count
FROM posts p
JOIN boards b ON b.id = p.board_id AND b.deleted_at IS NULL AND (b.is_public OR @is_admin)
JOIN profiles pr ON pr.id = p.author_id
WHERE p.deleted_at IS NULL
  AND (@is_admin OR p.status = 'published')
  AND to_tsvector('simple', p.title || ' ' || p.content) @@ websearch_to_tsquery('simple', @query)
ORDER BY rank DESC, p.created_at DESC
LIMIT @page_size OFFSET @offset`

// SearchPosts runs ranked full-text search over live posts. Non-admin
// callers only match published posts. The excerpt is raw content; the
// search gateway strips markup and truncates.
func (r *PostRepository) SearchPosts(ctx context.Context, query string, page, pageSize int, isAdmin bool) ([]*SearchRow, error) {
	var rows []*SearchRow
	err := r.db.WithContext(ctx).Raw(searchPostsSQL,
		map[string]interface{}{
			"query":     query,
			"is_admin":  isAdmin,
			"page_size": pageSize,
			"offset":    (page - 1) * pageSize,
		}).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByAuthor returns the author's most recent posts
func (r *PostRepository) ListByAuthor(ctx context.Context, authorID string, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	if err := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}
