package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/repositories"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/plan"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/rank"

	"gorm.io/gorm"
)

// Member errors
var (
	ErrMemberNoTaken  = errors.New("member number already in roster")
	ErrMemberInactive = errors.New("member is inactive")
)

// MemberService handles roster business logic
type MemberService struct {
	memberRepo repositories.MemberRepository
	gymRepo    *repositories.GymRepository
}

// NewMemberService creates a new member service
func NewMemberService(memberRepo repositories.MemberRepository, gymRepo *repositories.GymRepository) *MemberService {
	return &MemberService{
		memberRepo: memberRepo,
		gymRepo:    gymRepo,
	}
}

// CreateMemberInput represents roster registration input
type CreateMemberInput struct {
	MemberNo         string `json:"member_no" validate:"required"`
	FirstName        string `json:"first_name" validate:"required"`
	LastName         string `json:"last_name" validate:"required"`
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone,omitempty"`
	DateOfBirth      string `json:"date_of_birth,omitempty"`
	EmergencyContact string `json:"emergency_contact,omitempty"`
	BeltCode         string `json:"belt_code,omitempty"`
	Stripes          int    `json:"stripes"`
	JoinedAt         string `json:"joined_at,omitempty"`
}

// Create adds a member to the roster. Transfers from other gyms arrive
// with an existing grade, so an initial belt may be supplied; it must
// still be a structurally valid grade.
func (s *MemberService) Create(ctx context.Context, gymID uint, input *CreateMemberInput) (*models.Member, error) {
	// 1. Member number must be free within the gym
	taken, err := s.memberRepo.ExistsByMemberNo(ctx, gymID, input.MemberNo)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrMemberNoTaken
	}

	// 2. Plan quota check
	tier, err := gymTier(ctx, s.gymRepo, gymID)
	if err != nil {
		return nil, err
	}
	current, err := s.memberRepo.CountActive(ctx, gymID)
	if err != nil {
		return nil, err
	}
	if err := checkQuota(tier, plan.Members, int(current)); err != nil {
		return nil, err
	}

	// 3. Initial grade defaults to fresh white belt
	beltCode := input.BeltCode
	if beltCode == "" {
		beltCode = string(rank.White)
	}
	initial := rank.State{Belt: rank.Belt(beltCode), Stripes: input.Stripes}
	if err := initial.Valid(); err != nil {
		return nil, err
	}

	// 4. Parse dates
	joinedAt := time.Now()
	if input.JoinedAt != "" {
		parsed, err := time.Parse("2006-01-02", input.JoinedAt)
		if err != nil {
			return nil, errors.New("invalid joined_at format, use YYYY-MM-DD")
		}
		joinedAt = parsed
	}

	var dateOfBirth *time.Time
	if input.DateOfBirth != "" {
		parsed, err := time.Parse("2006-01-02", input.DateOfBirth)
		if err != nil {
			return nil, errors.New("invalid date_of_birth format, use YYYY-MM-DD")
		}
		dateOfBirth = &parsed
	}

	// 5. Create roster entry
	member := &models.Member{
		GymID:            gymID,
		MemberNo:         input.MemberNo,
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		Email:            input.Email,
		Phone:            input.Phone,
		DateOfBirth:      dateOfBirth,
		EmergencyContact: input.EmergencyContact,
		BeltCode:         string(initial.Belt),
		Stripes:          initial.Stripes,
		JoinedAt:         joinedAt,
		IsActive:         true,
	}

	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, err
	}

	log.Printf("✅ Member added to roster: %s (%s)", member.FullName(), member.MemberNo)
	return member, nil
}

// GetByID gets a roster member scoped to a gym
func (s *MemberService) GetByID(ctx context.Context, gymID, memberID uint) (*models.Member, error) {
	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	if member.GymID != gymID {
		return nil, ErrNotAuthorized
	}

	return member, nil
}

// GetByUserID gets the roster entry linked to a login account
func (s *MemberService) GetByUserID(ctx context.Context, userID uint) (*models.Member, error) {
	member, err := s.memberRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

// UpdateMemberInput represents roster update input. Grades are not
// editable here; they move only through promotions.
type UpdateMemberInput struct {
	FirstName        *string `json:"first_name,omitempty"`
	LastName         *string `json:"last_name,omitempty"`
	Email            *string `json:"email,omitempty"`
	Phone            *string `json:"phone,omitempty"`
	EmergencyContact *string `json:"emergency_contact,omitempty"`
	IsActive         *bool   `json:"is_active,omitempty"`
}

// Update updates roster contact fields
func (s *MemberService) Update(ctx context.Context, gymID, memberID uint, input *UpdateMemberInput) (*models.Member, error) {
	member, err := s.GetByID(ctx, gymID, memberID)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		member.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		member.LastName = *input.LastName
	}
	if input.Email != nil {
		member.Email = *input.Email
	}
	if input.Phone != nil {
		member.Phone = *input.Phone
	}
	if input.EmergencyContact != nil {
		member.EmergencyContact = *input.EmergencyContact
	}
	if input.IsActive != nil {
		member.IsActive = *input.IsActive
	}

	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, err
	}

	return member, nil
}

// Delete soft deletes a roster member; grading history stays on record
func (s *MemberService) Delete(ctx context.Context, gymID, memberID uint) error {
	member, err := s.GetByID(ctx, gymID, memberID)
	if err != nil {
		return err
	}

	if err := s.memberRepo.Delete(ctx, member.ID); err != nil {
		return err
	}

	log.Printf("✅ Member removed from roster: %s (%s)", member.FullName(), member.MemberNo)
	return nil
}

// MemberListInput represents roster list input
type MemberListInput struct {
	Page     int
	Limit    int
	BeltCode string
	Search   string
	Active   *bool
}

// MemberListOutput represents roster list output
type MemberListOutput struct {
	Members    []*models.MemberResponse `json:"members"`
	Total      int64                    `json:"total"`
	Page       int                      `json:"page"`
	Limit      int                      `json:"limit"`
	TotalPages int                      `json:"total_pages"`
}

// List lists the roster with filters
func (s *MemberService) List(ctx context.Context, gymID uint, input *MemberListInput) (*MemberListOutput, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	filter := repositories.MemberFilter{
		BeltCode: input.BeltCode,
		Search:   input.Search,
		Active:   input.Active,
	}

	offset := (input.Page - 1) * input.Limit
	members, total, err := s.memberRepo.List(ctx, gymID, filter, offset, input.Limit)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.MemberResponse, 0, len(members))
	for _, m := range members {
		responses = append(responses, m.ToResponse())
	}

	totalPages := int(total) / input.Limit
	if int(total)%input.Limit > 0 {
		totalPages++
	}

	return &MemberListOutput{
		Members:    responses,
		Total:      total,
		Page:       input.Page,
		Limit:      input.Limit,
		TotalPages: totalPages,
	}, nil
}

// BeltBreakdown counts active members per belt for the admin dashboard
func (s *MemberService) BeltBreakdown(ctx context.Context, gymID uint) (map[string]int64, error) {
	return s.memberRepo.CountByBelt(ctx, gymID)
}
