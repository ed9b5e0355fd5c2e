package repositories

import (
	"context"
	"time"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// NoticeRepository handles notice board data access
type NoticeRepository struct {
	db *gorm.DB
}

// NewNoticeRepository creates a new notice repository
func NewNoticeRepository(db *gorm.DB) *NoticeRepository {
	return &NoticeRepository{db: db}
}

// Create creates a new notice
func (r *NoticeRepository) Create(ctx context.Context, notice *models.Notice) error {
	return r.db.WithContext(ctx).Create(notice).Error
}

// GetByID gets a notice by ID with its author
func (r *NoticeRepository) GetByID(ctx context.Context, id uint) (*models.Notice, error) {
	var notice models.Notice
	err := r.db.WithContext(ctx).Preload("Author").First(&notice, id).Error
	if err != nil {
		return nil, err
	}
	return &notice, nil
}

// ListActive lists currently published notices for the board feed.
// Staff see every audience; members do not get COACHES notices.
// Pinned notices come first, then newest published.
func (r *NoticeRepository) ListActive(ctx context.Context, gymID uint, staff bool, noticeType string, now time.Time, offset, limit int) ([]*models.Notice, int64, error) {
	var notices []*models.Notice
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Notice{}).
		Where("gym_id = ?", gymID).
		Where("publish_at <= ?", now).
		Where("expire_at IS NULL OR expire_at >= ?", now)
	if !staff {
		query = query.Where("audience <> ?", "COACHES")
	}
	if noticeType != "" {
		query = query.Where("type = ?", noticeType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Author").
		Order("is_pinned DESC, publish_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&notices).Error

	return notices, total, err
}

// ListByStatus lists a gym's notices for the management tabs.
// Status is one of active / scheduled / expired; empty means all.
func (r *NoticeRepository) ListByStatus(ctx context.Context, gymID uint, status string, now time.Time, offset, limit int) ([]*models.Notice, int64, error) {
	var notices []*models.Notice
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Notice{}).Where("gym_id = ?", gymID)
	switch status {
	case models.NoticeStatusActive:
		query = query.
			Where("publish_at <= ?", now).
			Where("expire_at IS NULL OR expire_at >= ?", now)
	case models.NoticeStatusScheduled:
		query = query.Where("publish_at > ?", now)
	case models.NoticeStatusExpired:
		query = query.
			Where("expire_at IS NOT NULL").
			Where("expire_at < ?", now).
			Where("publish_at <= ?", now)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Author").
		Order("publish_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&notices).Error

	return notices, total, err
}

// CountActive counts currently published notices (plan quota checks)
func (r *NoticeRepository) CountActive(ctx context.Context, gymID uint, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notice{}).
		Where("gym_id = ?", gymID).
		Where("publish_at <= ?", now).
		Where("expire_at IS NULL OR expire_at >= ?", now).
		Count(&count).Error
	return count, err
}

// Update updates a notice
func (r *NoticeRepository) Update(ctx context.Context, notice *models.Notice) error {
	return r.db.WithContext(ctx).Save(notice).Error
}

// Delete soft deletes a notice
func (r *NoticeRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Notice{}, id).Error
}
