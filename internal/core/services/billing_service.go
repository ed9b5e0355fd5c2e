package services

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/repositories"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/domain"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/plan"
)

// Billing errors
var (
	ErrPlanUnknown          = errors.New("unknown plan code")
	ErrSubscriptionNotFound = errors.New("no subscription on record")
	ErrSamePlan             = errors.New("gym is already on this plan")
)

// ResourceUsage is one row of the usage report
type ResourceUsage struct {
	Resource     string `json:"resource"`
	Current      int    `json:"current"`
	Limit        int    `json:"limit"`
	Percent      int    `json:"percent"`
	NeedsUpgrade bool   `json:"needs_upgrade"`
}

// UsageReport summarizes a gym's standing against its plan ceilings
type UsageReport struct {
	PlanCode  string          `json:"plan_code"`
	Resources []ResourceUsage `json:"resources"`
}

// BillingService handles plan subscriptions and quota usage reporting.
// No payment provider is involved; renewal is bookkeeping.
type BillingService struct {
	subscriptionRepo *repositories.SubscriptionRepository
	gymRepo          *repositories.GymRepository
	memberRepo       repositories.MemberRepository
	userRepo         repositories.UserRepository
	templateRepo     *repositories.ClassTemplateRepository
	noticeRepo       *repositories.NoticeRepository
	notifyService    *NotificationService
}

// NewBillingService creates a new billing service
func NewBillingService(
	subscriptionRepo *repositories.SubscriptionRepository,
	gymRepo *repositories.GymRepository,
	memberRepo repositories.MemberRepository,
	userRepo repositories.UserRepository,
	templateRepo *repositories.ClassTemplateRepository,
	noticeRepo *repositories.NoticeRepository,
	notifyService *NotificationService,
) *BillingService {
	return &BillingService{
		subscriptionRepo: subscriptionRepo,
		gymRepo:          gymRepo,
		memberRepo:       memberRepo,
		userRepo:         userRepo,
		templateRepo:     templateRepo,
		noticeRepo:       noticeRepo,
		notifyService:    notifyService,
	}
}

// currentUsage counts what the gym holds against each plan resource
func (s *BillingService) currentUsage(ctx context.Context, gymID uint) (map[plan.Resource]int, error) {
	members, err := s.memberRepo.CountActive(ctx, gymID)
	if err != nil {
		return nil, err
	}
	coaches, err := s.userRepo.CountByRole(ctx, gymID, string(domain.RoleCoach))
	if err != nil {
		return nil, err
	}
	classes, err := s.templateRepo.CountActive(ctx, gymID)
	if err != nil {
		return nil, err
	}
	notices, err := s.noticeRepo.CountActive(ctx, gymID, time.Now())
	if err != nil {
		return nil, err
	}

	return map[plan.Resource]int{
		plan.Members: int(members),
		plan.Coaches: int(coaches),
		plan.Classes: int(classes),
		plan.Notices: int(notices),
	}, nil
}

// Usage reports per-resource standing against the gym's plan
func (s *BillingService) Usage(ctx context.Context, gymID uint) (*UsageReport, error) {
	gym, err := s.gymRepo.GetByID(ctx, gymID)
	if err != nil {
		return nil, err
	}
	tier, err := plan.ParseTier(gym.PlanCode)
	if err != nil {
		tier = plan.Free
	}

	usage, err := s.currentUsage(ctx, gymID)
	if err != nil {
		return nil, err
	}

	report := &UsageReport{PlanCode: string(tier)}
	for _, resource := range []plan.Resource{plan.Members, plan.Coaches, plan.Classes, plan.Notices} {
		limit, _ := plan.Limit(tier, resource)
		current := usage[resource]
		report.Resources = append(report.Resources, ResourceUsage{
			Resource:     string(resource),
			Current:      current,
			Limit:        limit,
			Percent:      plan.UsagePercent(tier, resource, current),
			NeedsUpgrade: plan.NeedsUpgradeFor(tier, resource, current),
		})
	}
	return report, nil
}

// GetSubscription returns the gym's current subscription row
func (s *BillingService) GetSubscription(ctx context.Context, gymID uint) (*models.Subscription, error) {
	sub, err := s.subscriptionRepo.GetCurrentByGym(ctx, gymID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

// ListSubscriptions returns the gym's subscription history
func (s *BillingService) ListSubscriptions(ctx context.Context, gymID uint) ([]*models.Subscription, error) {
	return s.subscriptionRepo.ListByGym(ctx, gymID)
}

// ChangePlan moves a gym to another tier. Downgrades are validated
// against live usage so a gym can never drop below what it holds.
func (s *BillingService) ChangePlan(ctx context.Context, gymID uint, planCode string) (*models.Subscription, error) {
	target, err := plan.ParseTier(planCode)
	if err != nil {
		return nil, ErrPlanUnknown
	}

	gym, err := s.gymRepo.GetByID(ctx, gymID)
	if err != nil {
		return nil, err
	}
	if gym.PlanCode == string(target) {
		return nil, ErrSamePlan
	}

	usage, err := s.currentUsage(ctx, gymID)
	if err != nil {
		return nil, err
	}
	for resource, current := range usage {
		limit, ok := plan.Limit(target, resource)
		if !ok {
			return nil, ErrPlanUnknown
		}
		if limit != plan.NoLimit && current > limit {
			return nil, &QuotaError{
				Resource: string(resource),
				Tier:     string(target),
				Limit:    limit,
				Current:  current,
			}
		}
	}

	// Close the running subscription, if any
	now := time.Now()
	if current, err := s.subscriptionRepo.GetCurrentByGym(ctx, gymID); err == nil {
		current.Status = domain.SubscriptionCancelled
		current.CancelledAt = &now
		if err := s.subscriptionRepo.Update(ctx, current); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	sub := &models.Subscription{
		GymID:     gymID,
		PlanCode:  string(target),
		Status:    domain.SubscriptionActive,
		StartedAt: now,
		RenewsAt:  now.AddDate(0, 1, 0),
	}
	if err := s.subscriptionRepo.Create(ctx, sub); err != nil {
		return nil, err
	}
	if err := s.gymRepo.UpdatePlanCode(ctx, gymID, string(target)); err != nil {
		return nil, err
	}

	log.Printf("✅ Plan changed: gym %d %s → %s", gymID, gym.PlanCode, target)
	return sub, nil
}

// SweepPastDue flips lapsed subscriptions to PAST_DUE and notifies.
// Called from the nightly cron.
func (s *BillingService) SweepPastDue(ctx context.Context) (int64, error) {
	flipped, err := s.subscriptionRepo.MarkPastDue(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if flipped == 0 {
		return 0, nil
	}

	pastDue, err := s.subscriptionRepo.ListPastDue(ctx)
	if err != nil {
		return flipped, err
	}
	for _, sub := range pastDue {
		gym, err := s.gymRepo.GetByID(ctx, sub.GymID)
		if err != nil {
			continue
		}
		s.notifyService.NotifySubscriptionPastDue(gym, sub)
	}

	log.Printf("⚠️ Subscription sweep: %d marked past due", flipped)
	return flipped, nil
}
