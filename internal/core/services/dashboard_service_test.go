package services

import (
	"testing"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/rank"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeltAwardNext(t *testing.T) {
	// Every belt short of black feeds the ready-for-belt sweep; black
	// has no next belt, so stripe-capped black belts stay out of it
	candidates := make(map[rank.Belt]bool)
	for _, info := range rank.Belts() {
		candidates[info.Code] = beltAwardNext(info)
	}

	assert.True(t, candidates[rank.White])
	assert.True(t, candidates[rank.Blue])
	assert.True(t, candidates[rank.Purple])
	assert.True(t, candidates[rank.Brown])
	assert.False(t, candidates[rank.Black])
}

func TestBeltAwardNextIgnoresStripelessBelts(t *testing.T) {
	// A belt with no stripe ceiling has no "sitting at max stripes"
	// population to surface
	info, ok := rank.Lookup(rank.White)
	require.True(t, ok)
	info.MaxStripes = 0

	assert.False(t, beltAwardNext(info))
}
