package services

import (
	"context"
	"fmt"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/repositories"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/plan"
)

// QuotaError rejects an operation that would pass a plan ceiling. It
// carries enough context for the API to say which ceiling was hit and
// which tier would lift it.
type QuotaError struct {
	Resource string `json:"resource"`
	Tier     string `json:"tier"`
	Limit    int    `json:"limit"`
	Current  int    `json:"current"`
	Upgrade  string `json:"upgrade,omitempty"`
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("plan %s allows %d %s, have %d", e.Tier, e.Limit, e.Resource, e.Current)
}

// checkQuota returns a QuotaError when the tier has no room for one
// more of the resource. Unknown tiers fail closed.
func checkQuota(tier plan.Tier, resource plan.Resource, current int) error {
	if plan.CanAdd(tier, resource, current) {
		return nil
	}

	limit, _ := plan.Limit(tier, resource)
	quotaErr := &QuotaError{
		Resource: string(resource),
		Tier:     string(tier),
		Limit:    limit,
		Current:  current,
	}
	if plan.NeedsUpgradeFor(tier, resource, current) {
		if next, ok := plan.NextTier(tier); ok {
			quotaErr.Upgrade = string(next)
		}
	}
	return quotaErr
}

// gymTier resolves a gym's current plan tier. Unparseable plan codes
// degrade to Free so a bad row never unlocks unlimited quota.
func gymTier(ctx context.Context, gymRepo *repositories.GymRepository, gymID uint) (plan.Tier, error) {
	gym, err := gymRepo.GetByID(ctx, gymID)
	if err != nil {
		return "", err
	}

	tier, err := plan.ParseTier(gym.PlanCode)
	if err != nil {
		return plan.Free, nil
	}
	return tier, nil
}
