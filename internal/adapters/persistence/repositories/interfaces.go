package repositories

import (
	"context"
	"time"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByMemberNo(ctx context.Context, memberNo string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, gymID uint, offset, limit int) ([]*models.User, int64, error)
	CountByRole(ctx context.Context, gymID uint, role string) (int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByMemberNo(ctx context.Context, memberNo string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	GetByUserID(ctx context.Context, userID uint) ([]*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
	CountActiveByUserID(ctx context.Context, userID uint) (int64, error)
}

// MemberFilter narrows roster listings.
type MemberFilter struct {
	BeltCode string
	Search   string
	Active   *bool
}

// MemberRepository defines roster repository interface
type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) error
	GetByID(ctx context.Context, id uint) (*models.Member, error)
	GetByMemberNo(ctx context.Context, gymID uint, memberNo string) (*models.Member, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Member, error)
	Update(ctx context.Context, member *models.Member) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, gymID uint, filter MemberFilter, offset, limit int) ([]*models.Member, int64, error)
	CountActive(ctx context.Context, gymID uint) (int64, error)
	CountByBelt(ctx context.Context, gymID uint) (map[string]int64, error)
	ExistsByMemberNo(ctx context.Context, gymID uint, memberNo string) (bool, error)
}

// PromotionRepository defines grading history repository interface.
// CommitPromotion is the only writer: the rank move on the member row
// and the history row land in one transaction or not at all.
type PromotionRepository interface {
	CommitPromotion(ctx context.Context, member *models.Member, promotion *models.Promotion) error
	GetByID(ctx context.Context, id uint) (*models.Promotion, error)
	GetByRequestID(ctx context.Context, requestID string) (*models.Promotion, error)
	ListByMember(ctx context.Context, memberID uint) ([]*models.Promotion, error)
	ListByGym(ctx context.Context, gymID uint, offset, limit int) ([]*models.Promotion, int64, error)
	CountSince(ctx context.Context, gymID uint, since time.Time) (int64, error)
}
