package models

import (
	"database/sql"
	"time"
)

// Report represents a user report against a post or comment
type Report struct {
	ID         string         `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	TargetType string         `gorm:"type:varchar(16);not null;column:target_type" json:"target_type"`
	TargetID   string         `gorm:"type:uuid;not null;index;column:target_id" json:"target_id"`
	ReporterID string         `gorm:"type:uuid;not null;index;column:reporter_id" json:"reporter_id"`
	Reason     string         `gorm:"type:varchar(2000);not null;column:reason" json:"reason"`
	Status     string         `gorm:"type:varchar(16);not null;default:'open';column:status" json:"status"`
	CreatedAt  time.Time      `gorm:"not null;column:created_at" json:"created_at"`
	ResolvedAt sql.NullTime   `gorm:"column:resolved_at" json:"resolved_at"`
	ResolvedBy sql.NullString `gorm:"type:uuid;column:resolved_by" json:"resolved_by"`
}

// TableName specifies the table name for Report
func (Report) TableName() string {
	return "reports"
}

// Report target type constants
const (
	ReportTargetPost    = "post"
	ReportTargetComment = "comment"
)

// Report status constants. Resolved and rejected are terminal.
const (
	ReportStatusOpen     = "open"
	ReportStatusResolved = "resolved"
	ReportStatusRejected = "rejected"
)

// IsTerminal reports whether the report has reached a terminal status
func (r *Report) IsTerminal() bool {
	return r.Status == ReportStatusResolved || r.Status == ReportStatusRejected
}
