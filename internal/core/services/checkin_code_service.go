package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// ============================================================
// Check-in Code Service - rotating kiosk codes for self check-in
// ============================================================

var (
	ErrCodeNotIssued   = errors.New("no check-in code issued for this gym")
	ErrCodeExpired     = errors.New("check-in code expired")
	ErrCodeInvalid     = errors.New("invalid check-in code")
	ErrTooManyAttempts = errors.New("too many invalid attempts, code revoked")
)

const (
	checkinCodeLength      = 6
	checkinCodeMaxAttempts = 10
	defaultCodeTTL         = 10 * time.Minute
)

// codeEntry is a single kiosk code held in memory
type codeEntry struct {
	Code      string
	ExpiresAt time.Time
	Attempts  int
}

// CheckinCodeService issues and verifies the rotating code shown on the
// front-desk kiosk. Codes live in memory only; a restart simply forces
// the kiosk to fetch a fresh one.
type CheckinCodeService struct {
	store map[uint]*codeEntry // key = gym ID
	ttl   time.Duration
	mu    sync.RWMutex
}

// NewCheckinCodeService creates a new check-in code service
func NewCheckinCodeService(ttl time.Duration) *CheckinCodeService {
	if ttl <= 0 {
		ttl = defaultCodeTTL
	}
	svc := &CheckinCodeService{
		store: make(map[uint]*codeEntry),
		ttl:   ttl,
	}
	// Sweep expired codes in the background
	go svc.cleanupLoop()
	return svc
}

// Issue generates a fresh 6-digit code for a gym, replacing any
// previously issued one
func (s *CheckinCodeService) Issue(gymID uint) (string, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, err := generateSecureCode(checkinCodeLength)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate check-in code: %w", err)
	}

	expiresAt := time.Now().Add(s.ttl)
	s.store[gymID] = &codeEntry{
		Code:      code,
		ExpiresAt: expiresAt,
		Attempts:  0,
	}

	return code, expiresAt, nil
}

// Verify checks a code entered on a member's phone against the gym's
// current kiosk code
func (s *CheckinCodeService) Verify(gymID uint, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.store[gymID]
	if !ok {
		return ErrCodeNotIssued
	}

	if time.Now().After(entry.ExpiresAt) {
		delete(s.store, gymID)
		return ErrCodeExpired
	}

	if entry.Attempts >= checkinCodeMaxAttempts {
		delete(s.store, gymID)
		return ErrTooManyAttempts
	}

	entry.Attempts++
	if entry.Code != code {
		return ErrCodeInvalid
	}

	return nil
}

// Current returns the active code for a gym, if one is live. Used by
// the kiosk display to re-render without forcing a rotation.
func (s *CheckinCodeService) Current(gymID uint) (string, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.store[gymID]
	if !ok || time.Now().After(entry.ExpiresAt) {
		return "", time.Time{}, false
	}
	return entry.Code, entry.ExpiresAt, true
}

// Revoke drops a gym's code immediately
func (s *CheckinCodeService) Revoke(gymID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.store, gymID)
}

// cleanupLoop periodically removes expired codes
func (s *CheckinCodeService) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	for range ticker.C {
		s.mu.Lock()
		for gymID, entry := range s.store {
			if time.Now().After(entry.ExpiresAt) {
				delete(s.store, gymID)
			}
		}
		s.mu.Unlock()
	}
}

// generateSecureCode generates a cryptographically secure numeric code
func generateSecureCode(length int) (string, error) {
	result := ""
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		result += fmt.Sprintf("%d", n.Int64())
	}
	return result, nil
}
