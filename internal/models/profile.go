package models

import (
	"database/sql"
	"time"
)

// Profile represents a board member profile
type Profile struct {
	ID             string         `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	Email          string         `gorm:"type:varchar(255);not null;column:email" json:"email"`
	Nickname       string         `gorm:"type:varchar(40);not null;column:nickname" json:"nickname"`
	Role           string         `gorm:"type:varchar(16);not null;default:'user';column:role" json:"role"`
	SuspendedUntil sql.NullTime   `gorm:"column:suspended_until" json:"suspended_until"`
	SuspendReason  sql.NullString `gorm:"type:varchar(1000);column:suspend_reason" json:"suspend_reason"`
	CreatedAt      time.Time      `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for Profile
func (Profile) TableName() string {
	return "profiles"
}

// Role constants
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// IsAdmin reports whether the profile carries the admin role
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// IsSuspended reports whether the profile is suspended at the given instant.
// A profile is suspended iff suspended_until is set and in the future.
func (p *Profile) IsSuspended(now time.Time) bool {
	return p.SuspendedUntil.Valid && p.SuspendedUntil.Time.After(now)
}
