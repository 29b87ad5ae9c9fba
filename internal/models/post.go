package models

import (
	"database/sql"
	"time"
)

// Post represents a board post
type Post struct {
	ID           string         `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	BoardID      string         `gorm:"type:uuid;not null;index;column:board_id" json:"board_id"`
	AuthorID     string         `gorm:"type:uuid;not null;index;column:author_id" json:"author_id"`
	Title        string         `gorm:"type:varchar(200);not null;column:title" json:"title"`
	Content      string         `gorm:"type:text;not null;column:content" json:"content"`
	Status       string         `gorm:"type:varchar(16);not null;default:'published';column:status" json:"status"`
	IsNotice     bool           `gorm:"not null;default:false;column:is_notice" json:"is_notice"`
	IsPinned     bool           `gorm:"not null;default:false;column:is_pinned" json:"is_pinned"`
	LikeCount    int64          `gorm:"not null;default:0;column:like_count" json:"like_count"`
	CommentCount int64          `gorm:"not null;default:0;column:comment_count" json:"comment_count"`
	CreatedAt    time.Time      `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;column:updated_at" json:"updated_at"`
	DeletedAt    sql.NullTime   `gorm:"column:deleted_at" json:"deleted_at"`
	DeletedBy    sql.NullString `gorm:"type:uuid;column:deleted_by" json:"deleted_by"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}

// Post status constants
const (
	PostStatusPending   = "pending"
	PostStatusPublished = "published"
	PostStatusHidden    = "hidden"
	PostStatusDeleted   = "deleted"
)

// IsDeleted reports whether the post has been soft-deleted
func (p *Post) IsDeleted() bool {
	return p.DeletedAt.Valid
}

// PostLike is the (post, user) like relationship. Existence of the row
// is the liked state; posts.like_count mirrors the row count.
type PostLike struct {
	PostID    string    `gorm:"type:uuid;primaryKey;column:post_id" json:"post_id"`
	UserID    string    `gorm:"type:uuid;primaryKey;column:user_id" json:"user_id"`
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for PostLike
func (PostLike) TableName() string {
	return "post_likes"
}
