package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/agoraboard/agora/internal/models"
)

// ReportRepository provides report-related database operations
type ReportRepository struct {
	*Repository
}

// Create creates a new report
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

// GetByID retrieves a report by ID
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}

// List returns recent reports, optionally filtered by status
func (r *ReportRepository) List(ctx context.Context, status string, limit int) ([]*models.Report, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var reports []*models.Report
	if err := query.Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

// Resolve moves an open report to a terminal status. The status filter
// in the update guards against reopening or double-resolving: a report
// already in a terminal state matches zero rows.
func (r *ReportRepository) Resolve(ctx context.Context, id, status, resolvedBy string) (*models.Report, error) {
	res := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ? AND status = ?", id, models.ReportStatusOpen).
		Updates(map[string]interface{}{
			"status":      status,
			"resolved_at": time.Now().UTC(),
			"resolved_by": resolvedBy,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	var report models.Report
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}

// ListByReporter returns the reporter's most recent reports
func (r *ReportRepository) ListByReporter(ctx context.Context, reporterID string, limit int) ([]*models.Report, error) {
	var reports []*models.Report
	if err := r.db.WithContext(ctx).
		Where("reporter_id = ?", reporterID).
		Order("created_at DESC").
		Limit(limit).
		Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

// ModerationRepository provides moderation audit log operations
type ModerationRepository struct {
	*Repository
}

// Create appends an audit entry. Entries are never updated or deleted.
func (r *ModerationRepository) Create(ctx context.Context, entry *models.ModerationAction) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByAdmin returns the admin's most recent ledger entries
func (r *ModerationRepository) ListByAdmin(ctx context.Context, adminID string, limit int) ([]*models.ModerationAction, error) {
	var entries []*models.ModerationAction
	if err := r.db.WithContext(ctx).
		Where("admin_id = ?", adminID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
