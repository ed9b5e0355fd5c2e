package repositories

import (
	"context"
	"time"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// WaiverRepository handles visitor waiver data access
type WaiverRepository struct {
	db *gorm.DB
}

// NewWaiverRepository creates a new waiver repository
func NewWaiverRepository(db *gorm.DB) *WaiverRepository {
	return &WaiverRepository{db: db}
}

// Create creates a new signed waiver
func (r *WaiverRepository) Create(ctx context.Context, waiver *models.Waiver) error {
	return r.db.WithContext(ctx).Create(waiver).Error
}

// GetByID gets a waiver by ID
func (r *WaiverRepository) GetByID(ctx context.Context, id uint) (*models.Waiver, error) {
	var waiver models.Waiver
	err := r.db.WithContext(ctx).First(&waiver, id).Error
	if err != nil {
		return nil, err
	}
	return &waiver, nil
}

// GetByReference gets a waiver by its public reference
func (r *WaiverRepository) GetByReference(ctx context.Context, reference string) (*models.Waiver, error) {
	var waiver models.Waiver
	err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&waiver).Error
	if err != nil {
		return nil, err
	}
	return &waiver, nil
}

// List lists a gym's waivers, newest signature first, with optional
// name/email search for the front desk
func (r *WaiverRepository) List(ctx context.Context, gymID uint, search string, offset, limit int) ([]*models.Waiver, int64, error) {
	var waivers []*models.Waiver
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Waiver{}).Where("gym_id = ?", gymID)
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("visitor_name LIKE ? OR visitor_email LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("signed_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&waivers).Error

	return waivers, total, err
}

// MarkEmailSent stamps the receipt delivery time
func (r *WaiverRepository) MarkEmailSent(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Waiver{}).
		Where("id = ?", id).
		Update("email_sent_at", &at).Error
}

// Void soft deletes a waiver (signed fact stays on record)
func (r *WaiverRepository) Void(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Waiver{}, id).Error
}

// CountSignedSince counts waivers signed since a point in time
func (r *WaiverRepository) CountSignedSince(ctx context.Context, gymID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Waiver{}).
		Where("gym_id = ?", gymID).
		Where("signed_at >= ?", since).
		Count(&count).Error
	return count, err
}
