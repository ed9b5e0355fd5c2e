package repositories

import (
	"context"
	"time"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// SubscriptionRepository handles plan subscription data access
type SubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Create creates a new subscription row
func (r *SubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

// GetCurrentByGym gets the gym's current subscription (active or past
// due), newest first
func (r *SubscriptionRepository) GetCurrentByGym(ctx context.Context, gymID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("gym_id = ?", gymID).
		Where("status IN ?", []string{"ACTIVE", "PAST_DUE"}).
		Order("started_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListByGym lists a gym's subscription history
func (r *SubscriptionRepository) ListByGym(ctx context.Context, gymID uint) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	err := r.db.WithContext(ctx).
		Where("gym_id = ?", gymID).
		Order("started_at DESC").
		Find(&subs).Error
	return subs, err
}

// Update updates a subscription
func (r *SubscriptionRepository) Update(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

// MarkPastDue flags active subscriptions whose renewal has lapsed
// (nightly sweep). Returns the number of rows flagged.
func (r *SubscriptionRepository) MarkPastDue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("status = ?", "ACTIVE").
		Where("renews_at < ?", now).
		Update("status", "PAST_DUE")
	return result.RowsAffected, result.Error
}

// ListPastDue lists past due subscriptions with their gyms
func (r *SubscriptionRepository) ListPastDue(ctx context.Context) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	err := r.db.WithContext(ctx).
		Preload("Gym").
		Where("status = ?", "PAST_DUE").
		Order("renews_at ASC").
		Find(&subs).Error
	return subs, err
}
