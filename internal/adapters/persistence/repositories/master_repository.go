package repositories

import (
	"context"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// GymRepository handles gym (tenant) data access
type GymRepository struct {
	db *gorm.DB
}

// NewGymRepository creates a new gym repository
func NewGymRepository(db *gorm.DB) *GymRepository {
	return &GymRepository{db: db}
}

// Create creates a new gym
func (r *GymRepository) Create(ctx context.Context, gym *models.Gym) error {
	return r.db.WithContext(ctx).Create(gym).Error
}

// GetByID gets a gym by ID
func (r *GymRepository) GetByID(ctx context.Context, id uint) (*models.Gym, error) {
	var gym models.Gym
	err := r.db.WithContext(ctx).First(&gym, id).Error
	return &gym, err
}

// GetByCode gets a gym by code
func (r *GymRepository) GetByCode(ctx context.Context, code string) (*models.Gym, error) {
	var gym models.Gym
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&gym).Error
	return &gym, err
}

// List lists all active gyms
func (r *GymRepository) List(ctx context.Context) ([]*models.Gym, error) {
	var gyms []*models.Gym
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Find(&gyms).Error
	return gyms, err
}

// ListAll lists all gyms including inactive
func (r *GymRepository) ListAll(ctx context.Context) ([]*models.Gym, error) {
	var gyms []*models.Gym
	err := r.db.WithContext(ctx).Find(&gyms).Error
	return gyms, err
}

// Update updates a gym
func (r *GymRepository) Update(ctx context.Context, gym *models.Gym) error {
	return r.db.WithContext(ctx).Save(gym).Error
}

// UpdatePlanCode moves a gym onto a plan tier
func (r *GymRepository) UpdatePlanCode(ctx context.Context, gymID uint, planCode string) error {
	return r.db.WithContext(ctx).
		Model(&models.Gym{}).
		Where("id = ?", gymID).
		Update("plan_code", planCode).Error
}

// Delete soft deletes a gym
func (r *GymRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Gym{}, id).Error
}

// GymConfigRepository handles per-gym settings
type GymConfigRepository struct {
	db *gorm.DB
}

// NewGymConfigRepository creates a new gym config repository
func NewGymConfigRepository(db *gorm.DB) *GymConfigRepository {
	return &GymConfigRepository{db: db}
}

// GetValue gets a config value, falling back to def when unset
func (r *GymConfigRepository) GetValue(ctx context.Context, gymID uint, key, def string) string {
	var config models.GymConfig
	err := r.db.WithContext(ctx).
		Where("gym_id = ?", gymID).
		Where("config_key = ?", key).
		First(&config).Error
	if err != nil {
		return def
	}
	return config.ConfigValue
}

// SetValue upserts a config value
func (r *GymConfigRepository) SetValue(ctx context.Context, gymID uint, key, value string) error {
	var config models.GymConfig
	err := r.db.WithContext(ctx).
		Where("gym_id = ?", gymID).
		Where("config_key = ?", key).
		First(&config).Error
	if err != nil {
		config = models.GymConfig{GymID: gymID, ConfigKey: key, ConfigValue: value}
		return r.db.WithContext(ctx).Create(&config).Error
	}
	config.ConfigValue = value
	return r.db.WithContext(ctx).Save(&config).Error
}

// ListByGym lists all settings of a gym
func (r *GymConfigRepository) ListByGym(ctx context.Context, gymID uint) ([]*models.GymConfig, error) {
	var configs []*models.GymConfig
	err := r.db.WithContext(ctx).Where("gym_id = ?", gymID).Find(&configs).Error
	return configs, err
}

// BeltRepository handles belt master data access
type BeltRepository struct {
	db *gorm.DB
}

// NewBeltRepository creates a new belt repository
func NewBeltRepository(db *gorm.DB) *BeltRepository {
	return &BeltRepository{db: db}
}

// Create creates a new belt row
func (r *BeltRepository) Create(ctx context.Context, belt *models.Belt) error {
	return r.db.WithContext(ctx).Create(belt).Error
}

// GetByCode gets a belt by code
func (r *BeltRepository) GetByCode(ctx context.Context, code string) (*models.Belt, error) {
	var belt models.Belt
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&belt).Error
	return &belt, err
}

// List lists all active belts ordered by rank
func (r *BeltRepository) List(ctx context.Context) ([]*models.Belt, error) {
	var belts []*models.Belt
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("belt_order ASC").
		Find(&belts).Error
	return belts, err
}

// PlanRepository handles plan master data access
type PlanRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create creates a new plan row
func (r *PlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

// GetByCode gets a plan by code
func (r *PlanRepository) GetByCode(ctx context.Context, code string) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&plan).Error
	return &plan, err
}

// List lists all active plans ordered for display
func (r *PlanRepository) List(ctx context.Context) ([]*models.Plan, error) {
	var plans []*models.Plan
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_order ASC").
		Find(&plans).Error
	return plans, err
}

// Update updates a plan
func (r *PlanRepository) Update(ctx context.Context, plan *models.Plan) error {
	return r.db.WithContext(ctx).Save(plan).Error
}
