package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agoraboard/agora/internal/models"
)

// ProfileRepository provides profile-related database operations
type ProfileRepository struct {
	*Repository
}

// GetByID retrieves a profile by ID
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// Create creates a new profile
func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// Update updates a profile
func (r *ProfileRepository) Update(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

// SetRole updates the profile role and returns the updated row
func (r *ProfileRepository) SetRole(ctx context.Context, id, role string) (*models.Profile, error) {
	if err := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", id).
		Update("role", role).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Suspend sets the suspension window and reason
func (r *ProfileRepository) Suspend(ctx context.Context, id string, until time.Time, reason string) (*models.Profile, error) {
	if err := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"suspended_until": until,
			"suspend_reason":  reason,
		}).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Restore clears suspension fields
func (r *ProfileRepository) Restore(ctx context.Context, id string) (*models.Profile, error) {
	if err := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"suspended_until": nil,
			"suspend_reason":  nil,
		}).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// AdminUserQuery is the validated parameter set for admin user search.
// Filters are composed from typed fields only, never raw predicate text.
type AdminUserQuery struct {
	Page          int
	PageSize      int
	Role          string
	Search        string // already sanitized by the caller
	SuspendedOnly bool
}

// SearchAdmin pages through profiles for the admin user list. Returns
// the page rows and the full match count.
func (r *ProfileRepository) SearchAdmin(ctx context.Context, q AdminUserQuery) ([]*models.Profile, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Profile{})

	if q.Role != "" {
		query = query.Where("role = ?", q.Role)
	}
	if q.SuspendedOnly {
		query = query.Where("suspended_until IS NOT NULL AND suspended_until > ?", time.Now().UTC())
	}
	if q.Search != "" {
		pattern := fmt.Sprintf("%%%s%%", q.Search)
		query = query.Where("email ILIKE ? OR nickname ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var profiles []*models.Profile
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(q.PageSize).
		Offset((q.Page - 1) * q.PageSize).
		Find(&profiles).Error; err != nil {
		return nil, 0, err
	}

	return profiles, total, nil
}

// SettingRepository provides app settings operations
type SettingRepository struct {
	*Repository
}

// Claim atomically inserts the setting row if absent. Returns true when
// this call inserted the row, false when another caller already holds
// it. The unique key makes this a store-level compare-and-swap.
func (r *SettingRepository) Claim(ctx context.Context, key, value string) (bool, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).
		Create(&models.AppSetting{
			Key:       key,
			Value:     value,
			CreatedAt: now,
			UpdatedAt: now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Get retrieves a setting by key
func (r *SettingRepository) Get(ctx context.Context, key string) (*models.AppSetting, error) {
	var setting models.AppSetting
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

// CredentialRepository provides credential operations for the built-in
// identity provider
type CredentialRepository struct {
	*Repository
}

// GetByEmail retrieves a credential by email
func (r *CredentialRepository) GetByEmail(ctx context.Context, email string) (*models.Credential, error) {
	var cred models.Credential
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cred, nil
}

// Create creates a new credential
func (r *CredentialRepository) Create(ctx context.Context, cred *models.Credential) error {
	return r.db.WithContext(ctx).Create(cred).Error
}
