package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/repositories"
)

// ============================================================
// Cron Service - nightly housekeeping jobs
// ============================================================

// CronService owns the scheduled jobs: token cleanup, session
// auto-complete, subscription sweep, weekly timetable generation and
// the morning class reminder.
type CronService struct {
	cron             *cron.Cron
	refreshTokenRepo repositories.RefreshTokenRepository
	sessionRepo      *repositories.ClassSessionRepository
	gymRepo          *repositories.GymRepository
	scheduleService  *ScheduleService
	billingService   *BillingService
	notifyService    *NotificationService
}

// NewCronService creates a new cron service
func NewCronService(
	refreshTokenRepo repositories.RefreshTokenRepository,
	sessionRepo *repositories.ClassSessionRepository,
	gymRepo *repositories.GymRepository,
	scheduleService *ScheduleService,
	billingService *BillingService,
	notifyService *NotificationService,
) *CronService {
	return &CronService{
		cron:             cron.New(),
		refreshTokenRepo: refreshTokenRepo,
		sessionRepo:      sessionRepo,
		gymRepo:          gymRepo,
		scheduleService:  scheduleService,
		billingService:   billingService,
		notifyService:    notifyService,
	}
}

// Start registers and launches the scheduled jobs
func (s *CronService) Start() error {
	jobs := []struct {
		spec string
		name string
		run  func()
	}{
		{"0 3 * * *", "token cleanup", s.cleanupTokens},
		{"30 3 * * *", "session auto-complete", s.completeSessions},
		{"0 4 * * *", "subscription sweep", s.sweepSubscriptions},
		{"0 5 * * 0", "week generation", s.generateNextWeek},
		{"0 7 * * *", "class reminders", s.sendClassReminders},
	}

	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.spec, job.run); err != nil {
			return err
		}
		log.Printf("⏰ Cron registered: %s (%s)", job.name, job.spec)
	}

	s.cron.Start()
	log.Println("⏰ Cron scheduler started")
	return nil
}

// Stop halts the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 Cron scheduler stopped")
}

func jobContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Minute)
}

// cleanupTokens drops expired and revoked refresh tokens
func (s *CronService) cleanupTokens() {
	ctx, cancel := jobContext()
	defer cancel()

	if err := s.refreshTokenRepo.DeleteExpired(ctx); err != nil {
		log.Printf("❌ Token cleanup failed: %v", err)
		return
	}
	log.Println("🗑️ Expired refresh tokens cleaned up")
}

// completeSessions marks past scheduled sessions COMPLETED
func (s *CronService) completeSessions() {
	ctx, cancel := jobContext()
	defer cancel()

	count, err := s.sessionRepo.CompleteFinished(ctx, time.Now())
	if err != nil {
		log.Printf("❌ Session auto-complete failed: %v", err)
		return
	}
	if count > 0 {
		log.Printf("✅ Auto-completed %d finished sessions", count)
	}
}

// sweepSubscriptions flips lapsed subscriptions to PAST_DUE
func (s *CronService) sweepSubscriptions() {
	ctx, cancel := jobContext()
	defer cancel()

	if _, err := s.billingService.SweepPastDue(ctx); err != nil {
		log.Printf("❌ Subscription sweep failed: %v", err)
	}
}

// generateNextWeek materializes next week's sessions for every gym
func (s *CronService) generateNextWeek() {
	ctx, cancel := jobContext()
	defer cancel()

	gyms, err := s.gymRepo.List(ctx)
	if err != nil {
		log.Printf("❌ Week generation failed to list gyms: %v", err)
		return
	}

	// Runs Sunday 05:00; generate the week starting tomorrow
	weekStart := time.Now().AddDate(0, 0, 1)
	for _, gym := range gyms {
		created, err := s.scheduleService.GenerateWeek(ctx, gym.ID, weekStart)
		if err != nil {
			log.Printf("❌ Week generation failed for gym %d: %v", gym.ID, err)
			continue
		}
		if created > 0 {
			log.Printf("✅ Week generated for gym %s: %d sessions", gym.Code, created)
		}
	}
}

// sendClassReminders pushes the morning timetable digest per gym
func (s *CronService) sendClassReminders() {
	ctx, cancel := jobContext()
	defer cancel()

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	sessions, err := s.sessionRepo.ListStartingBetween(ctx, dayStart, dayEnd)
	if err != nil {
		log.Printf("❌ Class reminder failed: %v", err)
		return
	}

	byGym := make(map[uint][]*models.ClassSession)
	for _, session := range sessions {
		byGym[session.GymID] = append(byGym[session.GymID], session)
	}

	for gymID, gymSessions := range byGym {
		gym, err := s.gymRepo.GetByID(ctx, gymID)
		if err != nil {
			continue
		}
		s.notifyService.NotifyClassReminder(gym.Name, gymSessions)
	}
}
