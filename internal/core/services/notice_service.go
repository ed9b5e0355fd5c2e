package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/repositories"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/domain"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/plan"
)

// Notice errors
var (
	ErrNoticeNotFound      = errors.New("notice not found")
	ErrNoticeNotActive     = errors.New("notice is not currently active")
	ErrInvalidNoticeType   = errors.New("invalid notice type")
	ErrInvalidAudience     = errors.New("invalid notice audience")
	ErrInvalidNoticeWindow = errors.New("expire time must be after publish time")
)

// NoticeService handles announcements: CRUD with the active-notice
// quota, the member feed, and broadcast delivery
type NoticeService struct {
	noticeRepo    *repositories.NoticeRepository
	memberRepo    repositories.MemberRepository
	gymRepo       *repositories.GymRepository
	notifyService *NotificationService
	mailService   *MailService
}

// NewNoticeService creates a new notice service
func NewNoticeService(
	noticeRepo *repositories.NoticeRepository,
	memberRepo repositories.MemberRepository,
	gymRepo *repositories.GymRepository,
	notifyService *NotificationService,
	mailService *MailService,
) *NoticeService {
	return &NoticeService{
		noticeRepo:    noticeRepo,
		memberRepo:    memberRepo,
		gymRepo:       gymRepo,
		notifyService: notifyService,
		mailService:   mailService,
	}
}

// NoticeInput represents notice create/update input
type NoticeInput struct {
	Title     string     `json:"title" validate:"required"`
	Body      string     `json:"body"`
	Type      string     `json:"type,omitempty"`
	Audience  string     `json:"audience,omitempty"`
	PublishAt *time.Time `json:"publish_at,omitempty"`
	ExpireAt  *time.Time `json:"expire_at,omitempty"`
	IsPinned  bool       `json:"is_pinned"`
}

func (in *NoticeInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)

	if in.Type == "" {
		in.Type = domain.NoticeInfo
	}
	switch in.Type {
	case domain.NoticeInfo, domain.NoticeEvent, domain.NoticeUrgent:
	default:
		return ErrInvalidNoticeType
	}

	if in.Audience == "" {
		in.Audience = domain.AudienceAll
	}
	switch in.Audience {
	case domain.AudienceAll, domain.AudienceMembers, domain.AudienceCoaches:
	default:
		return ErrInvalidAudience
	}

	if in.PublishAt != nil && in.ExpireAt != nil && !in.ExpireAt.After(*in.PublishAt) {
		return ErrInvalidNoticeWindow
	}
	return nil
}

// Create posts a notice. The active-notice quota counts what is live
// right now, so scheduling ahead does not consume quota early.
func (s *NoticeService) Create(ctx context.Context, gymID, createdBy uint, input *NoticeInput) (*models.Notice, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}

	now := time.Now()
	publishAt := now
	if input.PublishAt != nil {
		publishAt = *input.PublishAt
	}

	// Quota applies when the notice goes straight to active
	if !publishAt.After(now) {
		tier, err := gymTier(ctx, s.gymRepo, gymID)
		if err != nil {
			return nil, err
		}
		active, err := s.noticeRepo.CountActive(ctx, gymID, now)
		if err != nil {
			return nil, err
		}
		if err := checkQuota(tier, plan.Notices, int(active)); err != nil {
			return nil, err
		}
	}

	notice := &models.Notice{
		GymID:     gymID,
		Title:     input.Title,
		Body:      input.Body,
		Type:      input.Type,
		Audience:  input.Audience,
		PublishAt: publishAt,
		ExpireAt:  input.ExpireAt,
		IsPinned:  input.IsPinned,
		CreatedBy: createdBy,
	}
	if err := s.noticeRepo.Create(ctx, notice); err != nil {
		return nil, err
	}

	log.Printf("✅ Notice created: %q (gym=%d, type=%s)", notice.Title, gymID, notice.Type)
	return notice, nil
}

// Get loads a notice within the caller's gym
func (s *NoticeService) Get(ctx context.Context, gymID, noticeID uint) (*models.Notice, error) {
	notice, err := s.noticeRepo.GetByID(ctx, noticeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoticeNotFound
		}
		return nil, err
	}
	if notice.GymID != gymID {
		return nil, ErrNotAuthorized
	}
	return notice, nil
}

// Update edits a notice
func (s *NoticeService) Update(ctx context.Context, gymID, noticeID uint, input *NoticeInput) (*models.Notice, error) {
	notice, err := s.Get(ctx, gymID, noticeID)
	if err != nil {
		return nil, err
	}
	if err := input.normalize(); err != nil {
		return nil, err
	}

	notice.Title = input.Title
	notice.Body = input.Body
	notice.Type = input.Type
	notice.Audience = input.Audience
	if input.PublishAt != nil {
		notice.PublishAt = *input.PublishAt
	}
	notice.ExpireAt = input.ExpireAt
	notice.IsPinned = input.IsPinned

	if err := s.noticeRepo.Update(ctx, notice); err != nil {
		return nil, err
	}
	return notice, nil
}

// Delete removes a notice (soft delete)
func (s *NoticeService) Delete(ctx context.Context, gymID, noticeID uint) error {
	if _, err := s.Get(ctx, gymID, noticeID); err != nil {
		return err
	}
	return s.noticeRepo.Delete(ctx, noticeID)
}

// ListByStatus feeds the staff tabs: active / scheduled / expired
func (s *NoticeService) ListByStatus(ctx context.Context, gymID uint, status string, offset, limit int) ([]*models.Notice, int64, error) {
	switch status {
	case models.NoticeStatusActive, models.NoticeStatusScheduled, models.NoticeStatusExpired:
	default:
		status = models.NoticeStatusActive
	}
	return s.noticeRepo.ListByStatus(ctx, gymID, status, time.Now(), offset, limit)
}

// Feed returns the notices a reader may see right now. Staff readers
// also see the COACHES audience.
func (s *NoticeService) Feed(ctx context.Context, gymID uint, role string, noticeType string, offset, limit int) ([]*models.Notice, int64, error) {
	staff := domain.Role(role).IsStaff()
	return s.noticeRepo.ListActive(ctx, gymID, staff, noticeType, time.Now(), offset, limit)
}

// Broadcast pushes an active notice out to LINE and to every reachable
// member inbox. Email fan-out is bounded so a big roster cannot exhaust
// outbound connections.
func (s *NoticeService) Broadcast(ctx context.Context, gymID, noticeID uint) (int, error) {
	notice, err := s.Get(ctx, gymID, noticeID)
	if err != nil {
		return 0, err
	}
	if notice.UiStatus(time.Now()) != models.NoticeStatusActive {
		return 0, ErrNoticeNotActive
	}

	gym, err := s.gymRepo.GetByID(ctx, gymID)
	if err != nil {
		return 0, err
	}

	s.notifyService.NotifyNotice(notice)

	if !s.mailService.IsEnabled() || notice.Audience == domain.AudienceCoaches {
		return 0, nil
	}

	active := true
	members, _, err := s.memberRepo.List(ctx, gymID, repositories.MemberFilter{Active: &active}, 0, 10000)
	if err != nil {
		return 0, err
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8)
	sent := 0
	for _, member := range members {
		if member.Email == "" {
			continue
		}
		member := member
		sent++
		g.Go(func() error {
			if err := s.mailService.SendNoticeEmail(member.FullName(), member.Email, notice, gym.Name); err != nil {
				log.Printf("⚠️ Notice email to %s failed: %v", member.Email, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sent, err
	}

	log.Printf("📢 Notice %d broadcast to %d members (gym=%d)", noticeID, sent, gymID)
	return sent, nil
}
