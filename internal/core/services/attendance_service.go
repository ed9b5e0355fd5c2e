package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/repositories"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/domain"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/rank"

	"gorm.io/gorm"
)

// Attendance errors
var (
	ErrAlreadyCheckedIn   = errors.New("member already checked in to this session")
	ErrSessionFull        = errors.New("session is at capacity")
	ErrCheckinClosed      = errors.New("check-in window is not open for this session")
	ErrLevelRestricted    = errors.New("member's belt does not meet the session level")
	ErrNoRosterLink       = errors.New("account is not linked to a roster entry")
	ErrAttendanceNotFound = errors.New("attendance record not found")
)

// AttendanceService handles class check-ins: front desk, kiosk self
// check-in, and the attendance history behind the dashboards
type AttendanceService struct {
	attendanceRepo *repositories.AttendanceRepository
	sessionRepo    *repositories.ClassSessionRepository
	memberRepo     repositories.MemberRepository
	codeService    *CheckinCodeService
	boardService   *BoardService
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(
	attendanceRepo *repositories.AttendanceRepository,
	sessionRepo *repositories.ClassSessionRepository,
	memberRepo repositories.MemberRepository,
	codeService *CheckinCodeService,
	boardService *BoardService,
) *AttendanceService {
	return &AttendanceService{
		attendanceRepo: attendanceRepo,
		sessionRepo:    sessionRepo,
		memberRepo:     memberRepo,
		codeService:    codeService,
		boardService:   boardService,
	}
}

// CheckIn records a front-desk check-in performed by staff. Staff may
// override the session level gate, so only the window, duplicate and
// capacity rules apply here.
func (s *AttendanceService) CheckIn(ctx context.Context, gymID, sessionID, memberID uint, staffID uint) (*models.Attendance, error) {
	session, member, err := s.loadForCheckin(ctx, gymID, sessionID, memberID)
	if err != nil {
		return nil, err
	}

	checkedInBy := staffID
	return s.record(ctx, session, member, domain.CheckinFrontDesk, &checkedInBy)
}

// SelfCheckIn records a check-in from a member's own phone, gated by
// the gym's rotating kiosk code and the session level.
func (s *AttendanceService) SelfCheckIn(ctx context.Context, gymID uint, userID uint, sessionID uint, code string) (*models.Attendance, error) {
	if err := s.codeService.Verify(gymID, code); err != nil {
		return nil, err
	}

	member, err := s.memberRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoRosterLink
		}
		return nil, err
	}

	session, member, err := s.loadForCheckin(ctx, gymID, sessionID, member.ID)
	if err != nil {
		return nil, err
	}

	if !levelAllows(session.Level, member.BeltCode) {
		return nil, ErrLevelRestricted
	}

	return s.record(ctx, session, member, domain.CheckinSelf, nil)
}

// loadForCheckin validates the session and member for any check-in path
func (s *AttendanceService) loadForCheckin(ctx context.Context, gymID, sessionID, memberID uint) (*models.ClassSession, *models.Member, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, err
	}
	if session.GymID != gymID {
		return nil, nil, ErrNotAuthorized
	}
	if !session.CheckinOpen(time.Now()) {
		return nil, nil, ErrCheckinClosed
	}

	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrMemberNotFound
		}
		return nil, nil, err
	}
	if member.GymID != gymID {
		return nil, nil, ErrNotAuthorized
	}
	if !member.IsActive {
		return nil, nil, ErrMemberInactive
	}

	return session, member, nil
}

// record writes the attendance row and pushes the board event
func (s *AttendanceService) record(ctx context.Context, session *models.ClassSession, member *models.Member, method string, checkedInBy *uint) (*models.Attendance, error) {
	exists, err := s.attendanceRepo.Exists(ctx, session.ID, member.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyCheckedIn
	}

	headcount, err := s.attendanceRepo.CountBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if session.Capacity > 0 && headcount >= int64(session.Capacity) {
		return nil, ErrSessionFull
	}

	attendance := &models.Attendance{
		GymID:       session.GymID,
		SessionID:   session.ID,
		MemberID:    member.ID,
		Method:      method,
		CheckedInAt: time.Now(),
		CheckedInBy: checkedInBy,
	}
	if err := s.attendanceRepo.Create(ctx, attendance); err != nil {
		// The unique index catches the race between Exists and Create
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, err
	}
	attendance.Member = member
	attendance.Session = session

	s.boardService.NotifyCheckin(session.GymID, session, attendance, headcount+1)
	log.Printf("✅ Check-in: member %d → session %d (%s)", member.ID, session.ID, method)
	return attendance, nil
}

// RemoveCheckIn voids a check-in (front desk correction)
func (s *AttendanceService) RemoveCheckIn(ctx context.Context, gymID, attendanceID uint) error {
	attendance, err := s.attendanceRepo.GetByID(ctx, attendanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAttendanceNotFound
		}
		return err
	}
	if attendance.GymID != gymID {
		return ErrNotAuthorized
	}

	if err := s.attendanceRepo.Delete(ctx, attendanceID); err != nil {
		return err
	}

	headcount, err := s.attendanceRepo.CountBySession(ctx, attendance.SessionID)
	if err == nil {
		s.boardService.NotifyCheckinRemoved(gymID, attendance.SessionID, headcount)
	}
	return nil
}

// ListSessionAttendance returns who is on the mat for a session
func (s *AttendanceService) ListSessionAttendance(ctx context.Context, gymID, sessionID uint) ([]*models.Attendance, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.GymID != gymID {
		return nil, ErrNotAuthorized
	}
	return s.attendanceRepo.ListBySession(ctx, sessionID)
}

// MyAttendance returns a member's own check-in history, newest first
func (s *AttendanceService) MyAttendance(ctx context.Context, userID uint, offset, limit int) ([]*models.Attendance, int64, error) {
	member, err := s.memberRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrNoRosterLink
		}
		return nil, 0, err
	}
	return s.attendanceRepo.ListByMember(ctx, member.ID, offset, limit)
}

// IssueKioskCode rotates the gym's self check-in code and tells the
// kiosk displays about it
func (s *AttendanceService) IssueKioskCode(gymID uint) (string, time.Time, error) {
	code, expiresAt, err := s.codeService.Issue(gymID)
	if err != nil {
		return "", time.Time{}, err
	}
	s.boardService.NotifyCodeRotated(gymID, code, expiresAt)
	return code, expiresAt, nil
}

// levelAllows applies the session level gate. Named levels (ALL,
// BEGINNER, KIDS) are open to everyone; a belt code as level means
// that belt or above.
func levelAllows(level, beltCode string) bool {
	switch level {
	case "", "ALL", "BEGINNER", "KIDS":
		return true
	}
	required, ok := rank.Order(rank.Belt(level))
	if !ok {
		return true
	}
	current, ok := rank.Order(rank.Belt(beltCode))
	if !ok {
		return false
	}
	return current >= required
}
