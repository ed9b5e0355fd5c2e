package repositories

import (
	"context"
	"time"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// promotionRepository implements PromotionRepository interface
type promotionRepository struct {
	db *gorm.DB
}

// NewPromotionRepository creates a new grading history repository
func NewPromotionRepository(db *gorm.DB) PromotionRepository {
	return &promotionRepository{db: db}
}

// CommitPromotion moves the member's current rank and appends the
// grading history row in a single transaction. Either both writes
// land or neither does.
func (r *promotionRepository) CommitPromotion(ctx context.Context, member *models.Member, promotion *models.Promotion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Move the current rank on the roster row
		if err := tx.Model(&models.Member{}).
			Where("id = ?", member.ID).
			Updates(map[string]interface{}{
				"belt_code": member.BeltCode,
				"stripes":   member.Stripes,
			}).Error; err != nil {
			return err
		}

		// 2. Append the history row
		if err := tx.Create(promotion).Error; err != nil {
			return err
		}

		return nil
	})
}

// GetByID gets a promotion by ID with relations
func (r *promotionRepository) GetByID(ctx context.Context, id uint) (*models.Promotion, error) {
	var promotion models.Promotion
	err := r.db.WithContext(ctx).
		Preload("Member").
		Preload("Performer").
		First(&promotion, id).Error
	if err != nil {
		return nil, err
	}
	return &promotion, nil
}

// GetByRequestID gets a promotion by its client request ID (idempotent retries)
func (r *promotionRepository) GetByRequestID(ctx context.Context, requestID string) (*models.Promotion, error) {
	var promotion models.Promotion
	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("request_id = ?", requestID).
		First(&promotion).Error
	if err != nil {
		return nil, err
	}
	return &promotion, nil
}

// ListByMember gets a member's grading history, newest first
func (r *promotionRepository) ListByMember(ctx context.Context, memberID uint) ([]*models.Promotion, error) {
	var promotions []*models.Promotion
	err := r.db.WithContext(ctx).
		Preload("Performer").
		Where("member_id = ?", memberID).
		Order("promoted_at DESC, id DESC").
		Find(&promotions).Error
	return promotions, err
}

// ListByGym lists a gym's grading history with pagination
func (r *promotionRepository) ListByGym(ctx context.Context, gymID uint, offset, limit int) ([]*models.Promotion, int64, error) {
	var promotions []*models.Promotion
	var total int64

	r.db.WithContext(ctx).Model(&models.Promotion{}).Where("gym_id = ?", gymID).Count(&total)

	err := r.db.WithContext(ctx).
		Preload("Member").
		Preload("Performer").
		Where("gym_id = ?", gymID).
		Order("promoted_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&promotions).Error

	return promotions, total, err
}

// CountSince counts promotions of a gym since a point in time
func (r *promotionRepository) CountSince(ctx context.Context, gymID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Promotion{}).
		Where("gym_id = ?", gymID).
		Where("promoted_at >= ?", since).
		Count(&count).Error
	return count, err
}
