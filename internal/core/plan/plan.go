// Package plan holds the subscription tier table and the quota
// arithmetic built on it. Like the rank table, the tier table is
// immutable and constructed at process start; payment handling lives
// outside this application entirely.
package plan

import (
	"errors"
	"strings"
)

// Tier identifies a subscription level.
type Tier string

const (
	Free      Tier = "FREE"
	Basic     Tier = "BASIC"
	Pro       Tier = "PRO"
	Unlimited Tier = "UNLIMITED"
)

// Resource names a countable quota dimension.
type Resource string

const (
	Members Resource = "members"
	Coaches Resource = "coaches"
	Classes Resource = "classes_per_week"
	Notices Resource = "active_notices"
)

// ErrUnknownTier is returned when a tier code is not recognized.
var ErrUnknownTier = errors.New("unknown plan tier")

// NoLimit marks a dimension without a ceiling.
const NoLimit = -1

// Limits holds one tier's fixed quota table.
type Limits struct {
	Tier              Tier   `json:"tier"`
	Label             string `json:"label"`
	PriceMonthly      int    `json:"price_monthly"`
	Order             int    `json:"order"`
	MaxMembers        int    `json:"max_members"`
	MaxCoaches        int    `json:"max_coaches"`
	MaxClassesPerWeek int    `json:"max_classes_per_week"`
	MaxNoticesActive  int    `json:"max_notices_active"`
}

var tierOrder = [...]Tier{Free, Basic, Pro, Unlimited}

var tierTable = map[Tier]Limits{
	Free:      {Tier: Free, Label: "Free", PriceMonthly: 0, Order: 0, MaxMembers: 15, MaxCoaches: 1, MaxClassesPerWeek: 5, MaxNoticesActive: 3},
	Basic:     {Tier: Basic, Label: "Basic", PriceMonthly: 4800, Order: 1, MaxMembers: 50, MaxCoaches: 3, MaxClassesPerWeek: 20, MaxNoticesActive: 10},
	Pro:       {Tier: Pro, Label: "Pro", PriceMonthly: 9800, Order: 2, MaxMembers: 200, MaxCoaches: 10, MaxClassesPerWeek: 60, MaxNoticesActive: 30},
	Unlimited: {Tier: Unlimited, Label: "Unlimited", PriceMonthly: 19800, Order: 3, MaxMembers: NoLimit, MaxCoaches: NoLimit, MaxClassesPerWeek: NoLimit, MaxNoticesActive: NoLimit},
}

// limitFor maps a resource to its ceiling. Unknown resources get a zero
// ceiling so quota checks fail closed.
func (l Limits) limitFor(r Resource) int {
	switch r {
	case Members:
		return l.MaxMembers
	case Coaches:
		return l.MaxCoaches
	case Classes:
		return l.MaxClassesPerWeek
	case Notices:
		return l.MaxNoticesActive
	default:
		return 0
	}
}

// Limit returns a tier's ceiling for one resource.
func Limit(t Tier, r Resource) (int, bool) {
	l, ok := tierTable[t]
	if !ok {
		return 0, false
	}
	return l.limitFor(r), true
}

// CanAdd reports whether a tier allows one more of a resource given the
// current count. Unknown tiers fail closed.
func CanAdd(t Tier, r Resource, current int) bool {
	l, ok := tierTable[t]
	if !ok {
		return false
	}
	limit := l.limitFor(r)
	if limit == NoLimit {
		return true
	}
	return current < limit
}

// UsagePercent returns consumption as a whole percentage, capped at 100.
// Unlimited dimensions always report zero.
func UsagePercent(t Tier, r Resource, current int) int {
	l, ok := tierTable[t]
	if !ok {
		return 0
	}
	limit := l.limitFor(r)
	if limit == NoLimit || limit <= 0 {
		return 0
	}
	if current <= 0 {
		return 0
	}
	pct := current * 100 / limit
	if pct > 100 {
		return 100
	}
	return pct
}

// NeedsUpgradeFor reports whether the tier is exhausted for a resource
// and some higher tier would still have room.
func NeedsUpgradeFor(t Tier, r Resource, current int) bool {
	if CanAdd(t, r, current) {
		return false
	}
	l, ok := tierTable[t]
	if !ok {
		return false
	}
	for _, higher := range tierOrder {
		h := tierTable[higher]
		if h.Order <= l.Order {
			continue
		}
		limit := h.limitFor(r)
		if limit == NoLimit || current < limit {
			return true
		}
	}
	return false
}

// NextTier returns the tier one step above t.
func NextTier(t Tier) (Tier, bool) {
	l, ok := tierTable[t]
	if !ok {
		return "", false
	}
	for _, cand := range tierOrder {
		if tierTable[cand].Order == l.Order+1 {
			return cand, true
		}
	}
	return "", false
}

// ParseTier normalizes a tier code. Case-insensitive.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := tierTable[t]; !ok {
		return "", ErrUnknownTier
	}
	return t, nil
}

// Lookup returns the quota table for a tier.
func Lookup(t Tier) (Limits, bool) {
	l, ok := tierTable[t]
	return l, ok
}

// Tiers returns all tiers in ascending order.
func Tiers() []Limits {
	out := make([]Limits, 0, len(tierOrder))
	for _, t := range tierOrder {
		out = append(out, tierTable[t])
	}
	return out
}
