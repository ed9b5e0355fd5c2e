package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/repositories"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/rank"

	"gorm.io/gorm"
)

// Promotion errors
var (
	ErrPromotionNotFound = errors.New("promotion not found")
	ErrNotAuthorized     = errors.New("not authorized")
)

// PromotionService handles belt grading business logic. Grade
// validation itself lives in the rank package; this service loads the
// roster row, runs the engine, and commits the accepted result.
type PromotionService struct {
	promotionRepo repositories.PromotionRepository
	memberRepo    repositories.MemberRepository
	notifyService *NotificationService
}

// NewPromotionService creates a new promotion service
func NewPromotionService(
	promotionRepo repositories.PromotionRepository,
	memberRepo repositories.MemberRepository,
	notifyService *NotificationService,
) *PromotionService {
	return &PromotionService{
		promotionRepo: promotionRepo,
		memberRepo:    memberRepo,
		notifyService: notifyService,
	}
}

// PromoteInput represents a grading request. The target may be any
// structurally valid grade; skipping ahead and demotions are staff
// decisions, not errors.
type PromoteInput struct {
	ToBelt    string `json:"to_belt" validate:"required"`
	ToStripes int    `json:"to_stripes"`
	Note      string `json:"note,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// PromoteOutput represents the grading result
type PromoteOutput struct {
	Promotion *models.Promotion `json:"promotion"`
	Replayed  bool              `json:"replayed"`
}

// Promote validates and applies a grading to a roster member
func (s *PromotionService) Promote(ctx context.Context, memberID uint, input *PromoteInput, performer *models.User, ipAddress string) (*PromoteOutput, error) {
	// 1. Replay check: a retried request returns the original record
	if input.RequestID != "" {
		existing, err := s.promotionRepo.GetByRequestID(ctx, input.RequestID)
		if err == nil {
			return &PromoteOutput{Promotion: existing, Replayed: true}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	// 2. Load the roster row
	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	// 3. Staff act only inside their own gym
	if member.GymID != performer.GymID {
		return nil, ErrNotAuthorized
	}

	// 4. Run the grading engine against the target grade
	target := rank.State{
		Belt:    rank.Belt(strings.ToUpper(strings.TrimSpace(input.ToBelt))),
		Stripes: input.ToStripes,
	}
	actor := rank.Actor{ID: performer.ID, Name: performer.Username}

	record, err := rank.Apply(member.RankState(), target, actor, input.Note)
	if err != nil {
		return nil, err
	}

	// 5. Build the history row and the new roster state
	promotion := &models.Promotion{
		GymID:           member.GymID,
		MemberID:        member.ID,
		FromBeltCode:    string(record.FromBelt),
		FromStripes:     record.FromStripes,
		ToBeltCode:      string(record.ToBelt),
		ToStripes:       record.ToStripes,
		PromotedAt:      record.PromotedAt,
		PerformedBy:     record.PerformedBy,
		PerformedByName: record.PerformedByName,
		Note:            record.Note,
		IPAddress:       ipAddress,
	}
	if input.RequestID != "" {
		requestID := input.RequestID
		promotion.RequestID = &requestID
	}

	member.BeltCode = string(record.ToBelt)
	member.Stripes = record.ToStripes

	// 6. Commit both writes in one transaction
	if err := s.promotionRepo.CommitPromotion(ctx, member, promotion); err != nil {
		// A concurrent retry may have won the request_id race; the
		// stored row is still the answer
		if input.RequestID != "" {
			if existing, lookupErr := s.promotionRepo.GetByRequestID(ctx, input.RequestID); lookupErr == nil {
				return &PromoteOutput{Promotion: existing, Replayed: true}, nil
			}
		}
		return nil, err
	}

	log.Printf("✅ Promotion applied: member %d %s/%d → %s/%d by %s",
		member.ID,
		promotion.FromBeltCode, promotion.FromStripes,
		promotion.ToBeltCode, promotion.ToStripes,
		performer.Username,
	)

	// 7. Send LINE notification
	if s.notifyService != nil {
		s.notifyService.NotifyPromotion(member, promotion)
	}

	return &PromoteOutput{Promotion: promotion, Replayed: false}, nil
}

// NextEligibleOutput carries the canonical next grade suggestion.
// Suggestion is nil for terminal or unrecognized current grades.
type NextEligibleOutput struct {
	Current    rank.State  `json:"current"`
	Suggestion *rank.State `json:"suggestion"`
}

// NextEligible returns the canonical next grade for a member. The
// suggestion is display-side help for staff; it never constrains what
// Promote accepts.
func (s *PromotionService) NextEligible(ctx context.Context, memberID uint) (*NextEligibleOutput, error) {
	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	current := member.RankState()
	out := &NextEligibleOutput{Current: current}
	if next, ok := rank.NextEligible(current); ok {
		out.Suggestion = &next
	}
	return out, nil
}

// History gets a member's grading history, newest first
func (s *PromotionService) History(ctx context.Context, memberID uint) ([]*models.Promotion, error) {
	// Verify member exists
	if _, err := s.memberRepo.GetByID(ctx, memberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	return s.promotionRepo.ListByMember(ctx, memberID)
}

// ListByGym lists a gym's grading history with pagination
func (s *PromotionService) ListByGym(ctx context.Context, gymID uint, page, limit int) ([]*models.Promotion, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	offset := (page - 1) * limit
	return s.promotionRepo.ListByGym(ctx, gymID, offset, limit)
}

// CountRecent counts a gym's promotions over the trailing period
func (s *PromotionService) CountRecent(ctx context.Context, gymID uint, days int) (int64, error) {
	since := time.Now().AddDate(0, 0, -days)
	return s.promotionRepo.CountSince(ctx, gymID, since)
}
