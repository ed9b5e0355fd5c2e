package plan

import (
	"errors"
	"testing"
)

func TestCanAdd(t *testing.T) {
	tests := []struct {
		name    string
		tier    Tier
		res     Resource
		current int
		want    bool
	}{
		{"free below member cap", Free, Members, 14, true},
		{"free at member cap", Free, Members, 15, false},
		{"free over member cap", Free, Members, 20, false},
		{"basic below coach cap", Basic, Coaches, 2, true},
		{"basic at coach cap", Basic, Coaches, 3, false},
		{"pro below class cap", Pro, Classes, 59, true},
		{"unlimited ignores counts", Unlimited, Members, 100000, true},
		{"unknown tier fails closed", Tier("GOLD"), Members, 0, false},
		{"unknown resource fails closed", Free, Resource("mats"), 0, false},
	}
	for _, tt := range tests {
		if got := CanAdd(tt.tier, tt.res, tt.current); got != tt.want {
			t.Errorf("%s: CanAdd(%s, %s, %d) = %v, want %v", tt.name, tt.tier, tt.res, tt.current, got, tt.want)
		}
	}
}

func TestUsagePercent(t *testing.T) {
	tests := []struct {
		name    string
		tier    Tier
		res     Resource
		current int
		want    int
	}{
		{"zero usage", Free, Members, 0, 0},
		{"half of basic members", Basic, Members, 25, 50},
		{"rounds down", Free, Members, 7, 46},
		{"at cap", Free, Notices, 3, 100},
		{"over cap clamps to 100", Free, Members, 40, 100},
		{"unlimited reports zero", Unlimited, Members, 9999, 0},
		{"negative count treated as zero", Basic, Members, -3, 0},
		{"unknown tier reports zero", Tier("GOLD"), Members, 5, 0},
	}
	for _, tt := range tests {
		if got := UsagePercent(tt.tier, tt.res, tt.current); got != tt.want {
			t.Errorf("%s: UsagePercent(%s, %s, %d) = %d, want %d", tt.name, tt.tier, tt.res, tt.current, got, tt.want)
		}
	}
}

func TestNeedsUpgradeFor(t *testing.T) {
	tests := []struct {
		name    string
		tier    Tier
		res     Resource
		current int
		want    bool
	}{
		{"room left means no upgrade", Free, Members, 10, false},
		{"free exhausted suggests upgrade", Free, Members, 15, true},
		{"basic exhausted suggests upgrade", Basic, Notices, 10, true},
		{"pro exhausted still has unlimited above", Pro, Members, 200, true},
		{"unlimited never needs upgrade", Unlimited, Members, 1000000, false},
		{"unknown tier stays quiet", Tier("GOLD"), Members, 50, false},
	}
	for _, tt := range tests {
		if got := NeedsUpgradeFor(tt.tier, tt.res, tt.current); got != tt.want {
			t.Errorf("%s: NeedsUpgradeFor(%s, %s, %d) = %v, want %v", tt.name, tt.tier, tt.res, tt.current, got, tt.want)
		}
	}
}

func TestTierOrderAndNext(t *testing.T) {
	tiers := Tiers()
	if len(tiers) != 4 {
		t.Fatalf("Tiers() returned %d entries, want 4", len(tiers))
	}
	for i, l := range tiers {
		if l.Order != i {
			t.Errorf("tier %s order = %d, want %d", l.Tier, l.Order, i)
		}
		if i > 0 && l.PriceMonthly <= tiers[i-1].PriceMonthly {
			t.Errorf("tier %s price %d not above %s price %d", l.Tier, l.PriceMonthly, tiers[i-1].Tier, tiers[i-1].PriceMonthly)
		}
	}

	chain := []Tier{Free, Basic, Pro, Unlimited}
	for i := 0; i < len(chain)-1; i++ {
		next, ok := NextTier(chain[i])
		if !ok || next != chain[i+1] {
			t.Errorf("NextTier(%s) = %v, %v; want %s", chain[i], next, ok, chain[i+1])
		}
	}
	if _, ok := NextTier(Unlimited); ok {
		t.Error("NextTier(Unlimited) must report no higher tier")
	}
	if _, ok := NextTier(Tier("GOLD")); ok {
		t.Error("NextTier on unknown tier must report false")
	}
}

func TestParseTier(t *testing.T) {
	got, err := ParseTier(" basic ")
	if err != nil || got != Basic {
		t.Errorf("ParseTier(\" basic \") = %v, %v; want BASIC", got, err)
	}
	if _, err := ParseTier("platinum"); !errors.Is(err, ErrUnknownTier) {
		t.Errorf("ParseTier(\"platinum\") err = %v, want ErrUnknownTier", err)
	}
}

func TestLimit(t *testing.T) {
	if limit, ok := Limit(Basic, Classes); !ok || limit != 20 {
		t.Errorf("Limit(Basic, Classes) = %d, %v; want 20", limit, ok)
	}
	if limit, ok := Limit(Unlimited, Members); !ok || limit != NoLimit {
		t.Errorf("Limit(Unlimited, Members) = %d, %v; want NoLimit", limit, ok)
	}
	if _, ok := Limit(Tier("GOLD"), Members); ok {
		t.Error("Limit on unknown tier must report false")
	}
}
