package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("osu-kimura-1952")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, Verify("osu-kimura-1952", hash))
	assert.False(t, Verify("osu-kimura-1953", hash))
	assert.False(t, Verify("", hash))
}

func TestHashTokenDeterministic(t *testing.T) {
	a := HashToken("refresh-token-abc")
	b := HashToken("refresh-token-abc")
	c := HashToken("refresh-token-xyz")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	// hex-encoded SHA256
	assert.Len(t, a, 64)
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, Validate("short"), ErrTooShort)
	assert.ErrorIs(t, Validate(strings.Repeat("x", 73)), ErrTooLong)
	assert.NoError(t, Validate("longenough"))
	assert.NoError(t, Validate(strings.Repeat("x", 72)))
}
