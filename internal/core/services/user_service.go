package services

import (
	"context"
	"errors"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/repositories"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/domain"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/plan"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/pkg/password"

	"gorm.io/gorm"
)

// User service errors
var (
	ErrEmailAlreadyExists  = errors.New("email already exists")
	ErrOldPasswordWrong    = errors.New("old password is incorrect")
	ErrCannotDeleteSelf    = errors.New("cannot delete your own account")
	ErrCannotChangeOwnRole = errors.New("cannot change your own role")
	ErrInvalidRole         = errors.New("invalid role")
)

// UserService handles account management business logic
type UserService struct {
	userRepo   repositories.UserRepository
	memberRepo repositories.MemberRepository
	gymRepo    *repositories.GymRepository
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	memberRepo repositories.MemberRepository,
	gymRepo *repositories.GymRepository,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		memberRepo: memberRepo,
		gymRepo:    gymRepo,
	}
}

// ListUsersInput represents list users input
type ListUsersInput struct {
	Page  int
	Limit int
}

// ListUsersOutput represents list users output
type ListUsersOutput struct {
	Users      []*models.UserResponse `json:"users"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"total_pages"`
}

// UpdateUserByAdminInput represents update user input (for admin)
type UpdateUserByAdminInput struct {
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

// UpdateProfileInput represents update profile input (for self)
type UpdateProfileInput struct {
	Email *string `json:"email"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ListUsers lists a gym's accounts with pagination
func (s *UserService) ListUsers(ctx context.Context, gymID uint, input *ListUsersInput) (*ListUsersOutput, error) {
	// Set defaults
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = 10
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	offset := (input.Page - 1) * input.Limit

	users, total, err := s.userRepo.List(ctx, gymID, offset, input.Limit)
	if err != nil {
		return nil, err
	}

	// Convert to response format and attach the roster name
	userResponses := make([]*models.UserResponse, len(users))
	for i, user := range users {
		userResponses[i] = user.ToResponse()

		member, err := s.memberRepo.GetByMemberNo(ctx, user.GymID, user.MemberNo)
		if err == nil && member != nil {
			userResponses[i].FullName = member.FullName()
		}
	}

	totalPages := int(total) / input.Limit
	if int(total)%input.Limit > 0 {
		totalPages++
	}

	return &ListUsersOutput{
		Users:      userResponses,
		Total:      total,
		Page:       input.Page,
		Limit:      input.Limit,
		TotalPages: totalPages,
	}, nil
}

// GetUserByID gets a user by ID, scoped to the caller's gym
func (s *UserService) GetUserByID(ctx context.Context, gymID, id uint) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.GymID != gymID {
		return nil, ErrUserNotFound
	}

	response := user.ToResponse()

	member, err := s.memberRepo.GetByMemberNo(ctx, user.GymID, user.MemberNo)
	if err == nil && member != nil {
		response.FullName = member.FullName()
	}

	return response, nil
}

// UpdateUserByAdmin updates a user by admin. Promoting an account to
// COACH is guarded by the plan's coach quota.
func (s *UserService) UpdateUserByAdmin(ctx context.Context, gymID, id, adminID uint, input *UpdateUserByAdminInput) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.GymID != gymID {
		return nil, ErrUserNotFound
	}

	// Prevent admin from changing own role
	if id == adminID && input.Role != nil {
		return nil, ErrCannotChangeOwnRole
	}

	if input.Email != nil && *input.Email != user.Email {
		exists, _ := s.userRepo.ExistsByEmail(ctx, *input.Email)
		if exists {
			return nil, ErrEmailAlreadyExists
		}
		user.Email = *input.Email
	}

	if input.Role != nil {
		role := domain.Role(*input.Role)
		switch role {
		case domain.RoleMember, domain.RoleCoach, domain.RoleAdmin:
		default:
			return nil, ErrInvalidRole
		}

		if role == domain.RoleCoach && user.Role != string(domain.RoleCoach) {
			tier, err := gymTier(ctx, s.gymRepo, gymID)
			if err != nil {
				return nil, err
			}
			coaches, err := s.userRepo.CountByRole(ctx, gymID, string(domain.RoleCoach))
			if err != nil {
				return nil, err
			}
			if err := checkQuota(tier, plan.Coaches, int(coaches)); err != nil {
				return nil, err
			}
		}
		user.Role = string(role)
	}

	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	response := user.ToResponse()

	member, _ := s.memberRepo.GetByMemberNo(ctx, user.GymID, user.MemberNo)
	if member != nil {
		response.FullName = member.FullName()
	}

	return response, nil
}

// DeleteUser deletes a user (soft delete)
func (s *UserService) DeleteUser(ctx context.Context, gymID, id, adminID uint) error {
	// Prevent admin from deleting self
	if id == adminID {
		return ErrCannotDeleteSelf
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.GymID != gymID {
		return ErrUserNotFound
	}

	return s.userRepo.Delete(ctx, id)
}

// GetProfile gets own profile
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.GetUserByID(ctx, user.GymID, userID)
}

// UpdateProfile updates own profile
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input *UpdateProfileInput) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if input.Email != nil && *input.Email != user.Email {
		exists, _ := s.userRepo.ExistsByEmail(ctx, *input.Email)
		if exists {
			return nil, ErrEmailAlreadyExists
		}
		user.Email = *input.Email
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	response := user.ToResponse()

	member, _ := s.memberRepo.GetByMemberNo(ctx, user.GymID, user.MemberNo)
	if member != nil {
		response.FullName = member.FullName()
	}

	return response, nil
}

// ChangePassword changes user's password
func (s *UserService) ChangePassword(ctx context.Context, userID uint, input *ChangePasswordInput) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}

	// Verify old password
	if !password.Verify(input.OldPassword, user.Password) {
		return ErrOldPasswordWrong
	}

	// Validate new password
	if err := password.Validate(input.NewPassword); err != nil {
		return err
	}

	hashedPassword, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	user.Password = hashedPassword
	return s.userRepo.Update(ctx, user)
}
