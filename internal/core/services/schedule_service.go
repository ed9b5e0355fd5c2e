package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/repositories"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/domain"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/plan"

	"gorm.io/gorm"
)

// Schedule errors
var (
	ErrTemplateNotFound = errors.New("class template not found")
	ErrSessionNotFound  = errors.New("class session not found")
	ErrSessionCancelled = errors.New("session is already cancelled")
	ErrSessionCompleted = errors.New("session is already completed")
	ErrInvalidWeekday   = errors.New("weekday must be between 0 (Sunday) and 6 (Saturday)")
	ErrInvalidStartTime = errors.New("start time must be HH:MM")
	ErrCoachNotFound    = errors.New("coach not found")
)

// ScheduleService handles the weekly timetable: recurring templates
// and the dated sessions generated from them
type ScheduleService struct {
	templateRepo   *repositories.ClassTemplateRepository
	sessionRepo    *repositories.ClassSessionRepository
	attendanceRepo *repositories.AttendanceRepository
	userRepo       repositories.UserRepository
	gymRepo        *repositories.GymRepository
	boardService   *BoardService
}

// NewScheduleService creates a new schedule service
func NewScheduleService(
	templateRepo *repositories.ClassTemplateRepository,
	sessionRepo *repositories.ClassSessionRepository,
	attendanceRepo *repositories.AttendanceRepository,
	userRepo repositories.UserRepository,
	gymRepo *repositories.GymRepository,
	boardService *BoardService,
) *ScheduleService {
	return &ScheduleService{
		templateRepo:   templateRepo,
		sessionRepo:    sessionRepo,
		attendanceRepo: attendanceRepo,
		userRepo:       userRepo,
		gymRepo:        gymRepo,
		boardService:   boardService,
	}
}

// ClassTemplateInput represents template create/update input
type ClassTemplateInput struct {
	Title       string `json:"title" validate:"required"`
	Discipline  string `json:"discipline,omitempty"`
	Weekday     int    `json:"weekday"`
	StartTime   string `json:"start_time" validate:"required"`
	DurationMin int    `json:"duration_min"`
	CoachID     *uint  `json:"coach_id,omitempty"`
	Capacity    int    `json:"capacity"`
	Level       string `json:"level,omitempty"`
	Location    string `json:"location,omitempty"`
}

func (in *ClassTemplateInput) normalize() error {
	if in.Weekday < 0 || in.Weekday > 6 {
		return ErrInvalidWeekday
	}
	if _, _, err := parseClock(in.StartTime); err != nil {
		return ErrInvalidStartTime
	}
	if in.Discipline == "" {
		in.Discipline = "GI"
	}
	if in.DurationMin <= 0 {
		in.DurationMin = 60
	}
	if in.Capacity <= 0 {
		in.Capacity = 20
	}
	if in.Level == "" {
		in.Level = "ALL"
	}
	return nil
}

// CreateTemplate adds a recurring weekly slot, guarded by the gym's
// classes-per-week quota
func (s *ScheduleService) CreateTemplate(ctx context.Context, gymID uint, input *ClassTemplateInput) (*models.ClassTemplate, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}

	// Coach must belong to the same gym
	if input.CoachID != nil {
		coach, err := s.userRepo.GetByID(ctx, *input.CoachID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCoachNotFound
			}
			return nil, err
		}
		if coach.GymID != gymID {
			return nil, ErrCoachNotFound
		}
	}

	// Plan quota on active weekly classes
	tier, err := gymTier(ctx, s.gymRepo, gymID)
	if err != nil {
		return nil, err
	}
	active, err := s.templateRepo.CountActive(ctx, gymID)
	if err != nil {
		return nil, err
	}
	if err := checkQuota(tier, plan.Classes, int(active)); err != nil {
		return nil, err
	}

	template := &models.ClassTemplate{
		GymID:       gymID,
		Title:       input.Title,
		Discipline:  input.Discipline,
		Weekday:     input.Weekday,
		StartTime:   input.StartTime,
		DurationMin: input.DurationMin,
		CoachID:     input.CoachID,
		Capacity:    input.Capacity,
		Level:       input.Level,
		Location:    input.Location,
		IsActive:    true,
	}
	if err := s.templateRepo.Create(ctx, template); err != nil {
		return nil, err
	}

	log.Printf("✅ Class template created: %s (gym=%d, weekday=%d %s)",
		template.Title, gymID, template.Weekday, template.StartTime)
	return template, nil
}

// GetTemplate loads a template within the caller's gym
func (s *ScheduleService) GetTemplate(ctx context.Context, gymID, templateID uint) (*models.ClassTemplate, error) {
	template, err := s.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	if template.GymID != gymID {
		return nil, ErrNotAuthorized
	}
	return template, nil
}

// ListTemplates returns a gym's weekly plan
func (s *ScheduleService) ListTemplates(ctx context.Context, gymID uint) ([]*models.ClassTemplate, error) {
	return s.templateRepo.ListByGym(ctx, gymID)
}

// UpdateTemplate edits a recurring slot. Already-generated sessions
// keep their materialized values.
func (s *ScheduleService) UpdateTemplate(ctx context.Context, gymID, templateID uint, input *ClassTemplateInput) (*models.ClassTemplate, error) {
	template, err := s.GetTemplate(ctx, gymID, templateID)
	if err != nil {
		return nil, err
	}
	if err := input.normalize(); err != nil {
		return nil, err
	}

	template.Title = input.Title
	template.Discipline = input.Discipline
	template.Weekday = input.Weekday
	template.StartTime = input.StartTime
	template.DurationMin = input.DurationMin
	template.CoachID = input.CoachID
	template.Capacity = input.Capacity
	template.Level = input.Level
	template.Location = input.Location

	if err := s.templateRepo.Update(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

// SetTemplateActive toggles a slot without deleting its history
func (s *ScheduleService) SetTemplateActive(ctx context.Context, gymID, templateID uint, active bool) (*models.ClassTemplate, error) {
	template, err := s.GetTemplate(ctx, gymID, templateID)
	if err != nil {
		return nil, err
	}

	if active && !template.IsActive {
		// Re-activation counts against the weekly quota again
		tier, err := gymTier(ctx, s.gymRepo, gymID)
		if err != nil {
			return nil, err
		}
		count, err := s.templateRepo.CountActive(ctx, gymID)
		if err != nil {
			return nil, err
		}
		if err := checkQuota(tier, plan.Classes, int(count)); err != nil {
			return nil, err
		}
	}

	template.IsActive = active
	if err := s.templateRepo.Update(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

// DeleteTemplate removes a recurring slot (soft delete)
func (s *ScheduleService) DeleteTemplate(ctx context.Context, gymID, templateID uint) error {
	if _, err := s.GetTemplate(ctx, gymID, templateID); err != nil {
		return err
	}
	return s.templateRepo.Delete(ctx, templateID)
}

// GenerateWeek materializes sessions from active templates over the
// 7 days starting at weekStart. Pairs that already exist are skipped,
// so running it twice for the same week is harmless.
func (s *ScheduleService) GenerateWeek(ctx context.Context, gymID uint, weekStart time.Time) (int, error) {
	templates, err := s.templateRepo.ListByGym(ctx, gymID)
	if err != nil {
		return 0, err
	}

	weekStart = time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, weekStart.Location())

	created := 0
	for _, template := range templates {
		if !template.IsActive {
			continue
		}

		hour, minute, err := parseClock(template.StartTime)
		if err != nil {
			log.Printf("⚠️ Skipping template %d: bad start time %q", template.ID, template.StartTime)
			continue
		}

		offset := (template.Weekday - int(weekStart.Weekday()) + 7) % 7
		day := weekStart.AddDate(0, 0, offset)
		startsAt := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())

		exists, err := s.sessionRepo.ExistsForTemplateAt(ctx, template.ID, startsAt)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		templateID := template.ID
		session := &models.ClassSession{
			GymID:      gymID,
			TemplateID: &templateID,
			Title:      template.Title,
			Discipline: template.Discipline,
			StartsAt:   startsAt,
			EndsAt:     startsAt.Add(time.Duration(template.DurationMin) * time.Minute),
			CoachID:    template.CoachID,
			Capacity:   template.Capacity,
			Level:      template.Level,
			Location:   template.Location,
			Status:     domain.SessionScheduled,
		}
		if err := s.sessionRepo.Create(ctx, session); err != nil {
			return created, fmt.Errorf("failed to create session for template %d: %w", template.ID, err)
		}
		created++
	}

	if created > 0 {
		log.Printf("✅ Generated %d sessions for gym %d (week of %s)",
			created, gymID, weekStart.Format("2006-01-02"))
	}
	return created, nil
}

// OneOffSessionInput represents a session created outside the weekly plan
// (seminars, gradings, open mats)
type OneOffSessionInput struct {
	Title       string    `json:"title" validate:"required"`
	Discipline  string    `json:"discipline,omitempty"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	DurationMin int       `json:"duration_min"`
	CoachID     *uint     `json:"coach_id,omitempty"`
	Capacity    int       `json:"capacity"`
	Level       string    `json:"level,omitempty"`
	Location    string    `json:"location,omitempty"`
}

// CreateSession adds a one-off dated session
func (s *ScheduleService) CreateSession(ctx context.Context, gymID uint, input *OneOffSessionInput) (*models.ClassSession, error) {
	if input.Discipline == "" {
		input.Discipline = "GI"
	}
	if input.DurationMin <= 0 {
		input.DurationMin = 60
	}
	if input.Capacity <= 0 {
		input.Capacity = 20
	}
	if input.Level == "" {
		input.Level = "ALL"
	}

	session := &models.ClassSession{
		GymID:      gymID,
		Title:      input.Title,
		Discipline: input.Discipline,
		StartsAt:   input.StartsAt,
		EndsAt:     input.StartsAt.Add(time.Duration(input.DurationMin) * time.Minute),
		CoachID:    input.CoachID,
		Capacity:   input.Capacity,
		Level:      input.Level,
		Location:   input.Location,
		Status:     domain.SessionScheduled,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	s.boardService.NotifySessionUpdate(gymID, "session_created", session)
	return session, nil
}

// GetSession loads a session within the caller's gym
func (s *ScheduleService) GetSession(ctx context.Context, gymID, sessionID uint) (*models.ClassSession, error) {
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
	return session, nil
}

// ListSessions returns a gym's sessions in [from, to) with headcounts
func (s *ScheduleService) ListSessions(ctx context.Context, gymID uint, from, to time.Time) ([]*models.ClassSessionResponse, error) {
	sessions, err := s.sessionRepo.ListByGymRange(ctx, gymID, from, to)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(sessions))
	for _, session := range sessions {
		ids = append(ids, session.ID)
	}
	counts, err := s.attendanceRepo.CountForSessions(ctx, ids)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.ClassSessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, session.ToResponse(int(counts[session.ID])))
	}
	return responses, nil
}

// ListCoachSessions returns the sessions a coach leads in [from, to)
func (s *ScheduleService) ListCoachSessions(ctx context.Context, coachID uint, from, to time.Time) ([]*models.ClassSession, error) {
	return s.sessionRepo.ListByCoach(ctx, coachID, from, to)
}

// CancelSession cancels a scheduled session with a reason for the board
func (s *ScheduleService) CancelSession(ctx context.Context, gymID, sessionID uint, reason string) (*models.ClassSession, error) {
	session, err := s.GetSession(ctx, gymID, sessionID)
	if err != nil {
		return nil, err
	}

	switch session.Status {
	case domain.SessionCancelled:
		return nil, ErrSessionCancelled
	case domain.SessionCompleted:
		return nil, ErrSessionCompleted
	}

	reason = strings.TrimSpace(reason)
	session.Status = domain.SessionCancelled
	session.CancelReason = &reason
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}

	s.boardService.NotifySessionUpdate(gymID, "session_cancelled", session)
	log.Printf("🗑️ Session %d cancelled (gym=%d): %s", sessionID, gymID, reason)
	return session, nil
}

// parseClock parses "HH:MM" into hour and minute
func parseClock(value string) (int, int, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock value %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour, minute, nil
}
