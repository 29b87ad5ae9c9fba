package models

import "time"

// AppSetting is a keyed singleton row. The unique key makes
// insert-if-absent an atomic claim, which the admin bootstrap relies on.
type AppSetting struct {
	Key       string    `gorm:"type:varchar(64);primaryKey;column:key" json:"key"`
	Value     string    `gorm:"type:jsonb;not null;default:'{}';column:value" json:"value"`
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for AppSetting
func (AppSetting) TableName() string {
	return "app_settings"
}

// SettingBootstrapAdmin is the one-time admin bootstrap claim key
const SettingBootstrapAdmin = "bootstrap_admin_assigned"
