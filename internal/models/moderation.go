package models

import "time"

// ModerationAction is an append-only audit record of an admin action.
// Rows are never updated or deleted.
type ModerationAction struct {
	ID         string    `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	AdminID    string    `gorm:"type:uuid;not null;index;column:admin_id" json:"admin_id"`
	ActionType string    `gorm:"type:varchar(64);not null;column:action_type" json:"action_type"`
	TargetType string    `gorm:"type:varchar(16);not null;column:target_type" json:"target_type"`
	TargetID   string    `gorm:"type:uuid;not null;column:target_id" json:"target_id"`
	Meta       string    `gorm:"type:jsonb;not null;default:'{}';column:meta" json:"meta"`
	CreatedAt  time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for ModerationAction
func (ModerationAction) TableName() string {
	return "moderation_actions"
}

// Moderation action type constants
const (
	ActionSetRole     = "set_role"
	ActionSuspendUser = "suspend_user"
	ActionRestoreUser = "restore_user"
	ActionCreateBoard = "create_board"
	ActionCloneBoard  = "clone_board"
)
