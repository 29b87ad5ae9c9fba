package models

import (
	"database/sql"
	"time"
)

// Comment represents a comment on a post. Threading is one level deep:
// a comment with a parent must itself be a root comment's child only.
type Comment struct {
	ID        string         `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	PostID    string         `gorm:"type:uuid;not null;index;column:post_id" json:"post_id"`
	AuthorID  string         `gorm:"type:uuid;not null;index;column:author_id" json:"author_id"`
	ParentID  sql.NullString `gorm:"type:uuid;column:parent_id" json:"parent_id"`
	Content   string         `gorm:"type:varchar(5000);not null;column:content" json:"content"`
	Status    string         `gorm:"type:varchar(16);not null;default:'published';column:status" json:"status"`
	CreatedAt time.Time      `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;column:updated_at" json:"updated_at"`
	DeletedAt sql.NullTime   `gorm:"column:deleted_at" json:"deleted_at"`
	DeletedBy sql.NullString `gorm:"type:uuid;column:deleted_by" json:"deleted_by"`
}

// TableName specifies the table name for Comment
func (Comment) TableName() string {
	return "comments"
}

// Comment status constants
const (
	CommentStatusPublished = "published"
	CommentStatusHidden    = "hidden"
	CommentStatusDeleted   = "deleted"
)

// IsDeleted reports whether the comment has been soft-deleted
func (c *Comment) IsDeleted() bool {
	return c.DeletedAt.Valid
}
