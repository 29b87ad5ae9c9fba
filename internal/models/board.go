package models

import (
	"database/sql"
	"time"
)

// Board represents a topical container for posts
type Board struct {
	ID                  string       `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	Slug                string       `gorm:"type:varchar(60);not null;uniqueIndex:boards_slug_ux;column:slug" json:"slug"`
	Name                string       `gorm:"type:varchar(100);not null;column:name" json:"name"`
	Description         string       `gorm:"type:varchar(1000);not null;default:'';column:description" json:"description"`
	IsPublic            bool         `gorm:"not null;default:true;column:is_public" json:"is_public"`
	AllowPost           bool         `gorm:"not null;default:true;column:allow_post" json:"allow_post"`
	AllowComment        bool         `gorm:"not null;default:true;column:allow_comment" json:"allow_comment"`
	RequirePostApproval bool         `gorm:"not null;default:false;column:require_post_approval" json:"require_post_approval"`
	CreatedBy           string       `gorm:"type:uuid;not null;column:created_by" json:"created_by"`
	CreatedAt           time.Time    `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt           time.Time    `gorm:"not null;column:updated_at" json:"updated_at"`
	DeletedAt           sql.NullTime `gorm:"column:deleted_at" json:"deleted_at"`
}

// TableName specifies the table name for Board
func (Board) TableName() string {
	return "boards"
}

// IsDeleted reports whether the board has been soft-deleted
func (b *Board) IsDeleted() bool {
	return b.DeletedAt.Valid
}

// BoardTemplate holds reusable board settings for cloning
type BoardTemplate struct {
	ID        string         `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	Name      string         `gorm:"type:varchar(100);not null;column:name" json:"name"`
	Settings  sql.NullString `gorm:"type:jsonb;default:'{}';column:settings" json:"settings"`
	CreatedAt time.Time      `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for BoardTemplate
func (BoardTemplate) TableName() string {
	return "board_templates"
}
