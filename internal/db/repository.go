package db

import (
	"gorm.io/gorm"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Profiles returns the profile repository
func (r *Repository) Profiles() *ProfileRepository {
	return &ProfileRepository{Repository: r}
}

// Boards returns the board repository
func (r *Repository) Boards() *BoardRepository {
	return &BoardRepository{Repository: r}
}

// Posts returns the post repository
func (r *Repository) Posts() *PostRepository {
	return &PostRepository{Repository: r}
}

// Comments returns the comment repository
func (r *Repository) Comments() *CommentRepository {
	return &CommentRepository{Repository: r}
}

// Reports returns the report repository
func (r *Repository) Reports() *ReportRepository {
	return &ReportRepository{Repository: r}
}

// Moderation returns the moderation action repository
func (r *Repository) Moderation() *ModerationRepository {
	return &ModerationRepository{Repository: r}
}

// Settings returns the app settings repository
func (r *Repository) Settings() *SettingRepository {
	return &SettingRepository{Repository: r}
}

// Credentials returns the credential repository
func (r *Repository) Credentials() *CredentialRepository {
	return &CredentialRepository{Repository: r}
}
