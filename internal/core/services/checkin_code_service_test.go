package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueGeneratesNumericCode(t *testing.T) {
	svc := NewCheckinCodeService(time.Minute)

	code, expiresAt, err := svc.Issue(1)

	require.NoError(t, err)
	assert.Len(t, code, checkinCodeLength)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9', "code %q contains non-digit %q", code, r)
	}
	assert.True(t, expiresAt.After(time.Now()))
}

func TestIssueReplacesPreviousCode(t *testing.T) {
	svc := NewCheckinCodeService(time.Minute)

	first, _, err := svc.Issue(1)
	require.NoError(t, err)
	second, _, err := svc.Issue(1)
	require.NoError(t, err)

	// The old code must stop working the moment a new one is issued
	if first != second {
		assert.ErrorIs(t, svc.Verify(1, first), ErrCodeInvalid)
	}
	assert.NoError(t, svc.Verify(1, second))
}

func TestVerifyHappyPath(t *testing.T) {
	svc := NewCheckinCodeService(time.Minute)
	code, _, err := svc.Issue(7)
	require.NoError(t, err)

	assert.NoError(t, svc.Verify(7, code))
	// A correct code stays live for the next member in line
	assert.NoError(t, svc.Verify(7, code))
}

func TestVerifyWithoutIssuedCode(t *testing.T) {
	svc := NewCheckinCodeService(time.Minute)

	assert.ErrorIs(t, svc.Verify(1, "123456"), ErrCodeNotIssued)
}

func TestVerifyCrossGymIsolated(t *testing.T) {
	svc := NewCheckinCodeService(time.Minute)
	code, _, err := svc.Issue(1)
	require.NoError(t, err)

	// Gym 2 never issued a code, so gym 1's code means nothing there
	assert.ErrorIs(t, svc.Verify(2, code), ErrCodeNotIssued)
}

func TestVerifyExpiredCode(t *testing.T) {
	svc := NewCheckinCodeService(time.Minute)
	code, _, err := svc.Issue(1)
	require.NoError(t, err)

	svc.mu.Lock()
	svc.store[1].ExpiresAt = time.Now().Add(-time.Second)
	svc.mu.Unlock()

	assert.ErrorIs(t, svc.Verify(1, code), ErrCodeExpired)
	// Expiry drops the entry entirely
	assert.ErrorIs(t, svc.Verify(1, code), ErrCodeNotIssued)
}

func TestVerifyLockoutAfterRepeatedFailures(t *testing.T) {
	svc := NewCheckinCodeService(time.Minute)
	code, _, err := svc.Issue(1)
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code {
		wrong = "999999"
	}

	for i := 0; i < checkinCodeMaxAttempts; i++ {
		assert.ErrorIs(t, svc.Verify(1, wrong), ErrCodeInvalid)
	}

	// All attempts are spent, so even the right code is refused and
	// the gym has to rotate
	assert.ErrorIs(t, svc.Verify(1, code), ErrTooManyAttempts)
	assert.ErrorIs(t, svc.Verify(1, code), ErrCodeNotIssued)
}

func TestCurrentReflectsLiveCode(t *testing.T) {
	svc := NewCheckinCodeService(time.Minute)

	_, _, ok := svc.Current(1)
	assert.False(t, ok)

	code, expiresAt, err := svc.Issue(1)
	require.NoError(t, err)

	got, gotExpiry, ok := svc.Current(1)
	require.True(t, ok)
	assert.Equal(t, code, got)
	assert.Equal(t, expiresAt, gotExpiry)

	svc.mu.Lock()
	svc.store[1].ExpiresAt = time.Now().Add(-time.Second)
	svc.mu.Unlock()

	_, _, ok = svc.Current(1)
	assert.False(t, ok)
}

func TestRevokeDropsCode(t *testing.T) {
	svc := NewCheckinCodeService(time.Minute)
	code, _, err := svc.Issue(1)
	require.NoError(t, err)

	svc.Revoke(1)

	assert.ErrorIs(t, svc.Verify(1, code), ErrCodeNotIssued)
	_, _, ok := svc.Current(1)
	assert.False(t, ok)
}
