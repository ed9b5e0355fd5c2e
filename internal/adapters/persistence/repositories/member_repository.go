package repositories

import (
	"context"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// memberRepository implements MemberRepository interface
type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new roster repository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

// Create creates a new roster entry
func (r *memberRepository) Create(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// GetByID gets a member by ID
func (r *memberRepository) GetByID(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).First(&member, id).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// GetByMemberNo gets a member by gym and member number
func (r *memberRepository) GetByMemberNo(ctx context.Context, gymID uint, memberNo string) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).
		Where("gym_id = ?", gymID).
		Where("member_no = ?", memberNo).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// GetByUserID gets the roster entry linked to a login account
func (r *memberRepository) GetByUserID(ctx context.Context, userID uint) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// Update updates a member
func (r *memberRepository) Update(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Save(member).Error
}

// Delete soft deletes a member
func (r *memberRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Member{}, id).Error
}

// List lists roster entries with filters and pagination
func (r *memberRepository) List(ctx context.Context, gymID uint, filter MemberFilter, offset, limit int) ([]*models.Member, int64, error) {
	var members []*models.Member
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Member{}).Where("gym_id = ?", gymID)
	if filter.BeltCode != "" {
		query = query.Where("belt_code = ?", filter.BeltCode)
	}
	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where(
			"member_no LIKE ? OR first_name LIKE ? OR last_name LIKE ? OR email LIKE ?",
			like, like, like, like,
		)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("member_no ASC").
		Offset(offset).
		Limit(limit).
		Find(&members).Error
	if err != nil {
		return nil, 0, err
	}

	return members, total, nil
}

// CountActive counts active roster entries of a gym (plan quota checks)
func (r *memberRepository) CountActive(ctx context.Context, gymID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("gym_id = ?", gymID).
		Where("is_active = ?", true).
		Count(&count).Error
	return count, err
}

// CountByBelt counts active members per belt code (dashboard breakdown)
func (r *memberRepository) CountByBelt(ctx context.Context, gymID uint) (map[string]int64, error) {
	type row struct {
		BeltCode string
		Count    int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Select("belt_code, COUNT(*) as count").
		Where("gym_id = ?", gymID).
		Where("is_active = ?", true).
		Group("belt_code").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.BeltCode] = r.Count
	}
	return counts, nil
}

// ExistsByMemberNo checks if a member number is taken within a gym
func (r *memberRepository) ExistsByMemberNo(ctx context.Context, gymID uint, memberNo string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("gym_id = ?", gymID).
		Where("member_no = ?", memberNo).
		Count(&count).Error
	return count > 0, err
}
