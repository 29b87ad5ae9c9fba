package models

import "time"

// Credential stores a login credential for the built-in identity
// provider. The password is a bcrypt hash, never the raw value.
type Credential struct {
	UserID       string    `gorm:"type:uuid;primaryKey;column:user_id" json:"user_id"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex:credentials_email_ux;column:email" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null;column:password_hash" json:"-"`
	CreatedAt    time.Time `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for Credential
func (Credential) TableName() string {
	return "credentials"
}
