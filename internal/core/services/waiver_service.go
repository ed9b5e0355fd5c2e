package services

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/repositories"
)

// Waiver errors
var (
	ErrWaiverNotFound = errors.New("waiver not found")
	ErrWaiverExpired  = errors.New("waiver has expired")
	ErrWaiverInvalid  = errors.New("waiver input is incomplete")
)

// Gym config keys consulted at signing time
const (
	configWaiverValidDays  = "waiver_valid_days"
	configWaiverDocVersion = "waiver_doc_version"
)

// WaiverService handles visitor liability waivers: the public signing
// flow and the staff-side lookup tools
type WaiverService struct {
	waiverRepo    *repositories.WaiverRepository
	gymRepo       *repositories.GymRepository
	gymConfigRepo *repositories.GymConfigRepository
	mailService   *MailService
	notifyService *NotificationService
}

// NewWaiverService creates a new waiver service
func NewWaiverService(
	waiverRepo *repositories.WaiverRepository,
	gymRepo *repositories.GymRepository,
	gymConfigRepo *repositories.GymConfigRepository,
	mailService *MailService,
	notifyService *NotificationService,
) *WaiverService {
	return &WaiverService{
		waiverRepo:    waiverRepo,
		gymRepo:       gymRepo,
		gymConfigRepo: gymConfigRepo,
		mailService:   mailService,
		notifyService: notifyService,
	}
}

// SignWaiverInput represents the public signing form
type SignWaiverInput struct {
	VisitorName      string `json:"visitor_name" validate:"required"`
	VisitorEmail     string `json:"visitor_email" validate:"required"`
	VisitorPhone     string `json:"visitor_phone,omitempty"`
	DateOfBirth      string `json:"date_of_birth,omitempty"`
	EmergencyContact string `json:"emergency_contact,omitempty"`
	SignatureName    string `json:"signature_name" validate:"required"`
}

// Sign records a visitor waiver from the public endpoint. The receipt
// email goes out after the row is committed; a mail failure never
// unwinds the signature.
func (s *WaiverService) Sign(ctx context.Context, gymCode string, input *SignWaiverInput, ipAddress string) (*models.Waiver, error) {
	input.VisitorName = strings.TrimSpace(input.VisitorName)
	input.VisitorEmail = strings.TrimSpace(input.VisitorEmail)
	input.SignatureName = strings.TrimSpace(input.SignatureName)
	if input.VisitorName == "" || input.VisitorEmail == "" || input.SignatureName == "" {
		return nil, ErrWaiverInvalid
	}

	gym, err := s.gymRepo.GetByCode(ctx, gymCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGymNotFound
		}
		return nil, err
	}

	validDays := 365
	if raw := s.gymConfigRepo.GetValue(ctx, gym.ID, configWaiverValidDays, "365"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			validDays = parsed
		}
	}
	docVersion := s.gymConfigRepo.GetValue(ctx, gym.ID, configWaiverDocVersion, "v1")

	var dob *time.Time
	if input.DateOfBirth != "" {
		if parsed, err := time.Parse("2006-01-02", input.DateOfBirth); err == nil {
			dob = &parsed
		}
	}

	now := time.Now()
	waiver := &models.Waiver{
		GymID:            gym.ID,
		Reference:        uuid.NewString(),
		VisitorName:      input.VisitorName,
		VisitorEmail:     input.VisitorEmail,
		VisitorPhone:     input.VisitorPhone,
		DateOfBirth:      dob,
		EmergencyContact: input.EmergencyContact,
		DocumentVersion:  docVersion,
		SignatureName:    input.SignatureName,
		SignedAt:         now,
		ExpiresAt:        now.AddDate(0, 0, validDays),
		IPAddress:        ipAddress,
	}
	if err := s.waiverRepo.Create(ctx, waiver); err != nil {
		return nil, err
	}

	log.Printf("✅ Waiver signed: %s (gym=%s, ref=%s)", waiver.VisitorName, gym.Code, waiver.Reference)
	s.notifyService.NotifyWaiverSigned(waiver)

	// Receipt email is best-effort, out of the request path
	go s.sendReceipt(waiver, gym.Name)

	return waiver, nil
}

func (s *WaiverService) sendReceipt(waiver *models.Waiver, gymName string) {
	if !s.mailService.IsEnabled() {
		return
	}
	if err := s.mailService.SendWaiverReceipt(waiver, gymName); err != nil {
		log.Printf("⚠️ Waiver receipt email failed (ref=%s): %v", waiver.Reference, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.waiverRepo.MarkEmailSent(ctx, waiver.ID, time.Now()); err != nil {
		log.Printf("⚠️ Failed to record waiver email (ref=%s): %v", waiver.Reference, err)
	}
}

// List searches a gym's waivers by name, email or reference
func (s *WaiverService) List(ctx context.Context, gymID uint, search string, offset, limit int) ([]*models.Waiver, int64, error) {
	return s.waiverRepo.List(ctx, gymID, strings.TrimSpace(search), offset, limit)
}

// Get loads a waiver within the caller's gym
func (s *WaiverService) Get(ctx context.Context, gymID, waiverID uint) (*models.Waiver, error) {
	waiver, err := s.waiverRepo.GetByID(ctx, waiverID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWaiverNotFound
		}
		return nil, err
	}
	if waiver.GymID != gymID {
		return nil, ErrNotAuthorized
	}
	return waiver, nil
}

// VerifyByReference is the front-desk check before a visitor steps on
// the mat: found, same gym, and not expired
func (s *WaiverService) VerifyByReference(ctx context.Context, gymID uint, reference string) (*models.Waiver, error) {
	waiver, err := s.waiverRepo.GetByReference(ctx, strings.TrimSpace(reference))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWaiverNotFound
		}
		return nil, err
	}
	if waiver.GymID != gymID {
		return nil, ErrWaiverNotFound
	}
	if !waiver.IsValid(time.Now()) {
		return waiver, ErrWaiverExpired
	}
	return waiver, nil
}

// Void retracts a waiver; the signed row stays on record via soft delete
func (s *WaiverService) Void(ctx context.Context, gymID, waiverID uint) error {
	if _, err := s.Get(ctx, gymID, waiverID); err != nil {
		return err
	}
	return s.waiverRepo.Void(ctx, waiverID)
}
