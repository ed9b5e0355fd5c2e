package config

import (
	"log"
	"time"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedDefaultGym(); err != nil {
		log.Printf("⚠️ Gym seeder skipped: %v", err)
	}

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedDefaultGym seeds the first tenant so a fresh install is usable
func (s *Seeder) seedDefaultGym() error {
	var count int64
	s.db.Model(&models.Gym{}).Count(&count)
	if count > 0 {
		return nil // At least one gym exists
	}

	address := "東京都渋谷区桜丘町1-1"
	phone := "03-0000-0000"
	gym := &models.Gym{
		Code:     "HONBU",
		Name:     "本部道場",
		Address:  &address,
		Phone:    &phone,
		Timezone: "Asia/Tokyo",
		PlanCode: "FREE",
		IsActive: true,
	}

	if err := s.db.Create(gym).Error; err != nil {
		return err
	}

	log.Printf("✅ Default gym created: %s", gym.Code)
	return nil
}

// seedAdminUser seeds default admin user
// This is for development/testing only
// In production, create admin through secure process
func (s *Seeder) seedAdminUser() error {
	// Check if admin already exists
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", "ADMIN").Count(&count)
	if count > 0 {
		return nil // Admin already exists
	}

	var gym models.Gym
	if err := s.db.Where("code = ?", "HONBU").First(&gym).Error; err != nil {
		log.Println("⚠️ Skipping admin seed: default gym not found")
		return nil
	}

	hashedPassword, err := password.Hash("admin123456")
	if err != nil {
		return err
	}

	admin := &models.User{
		MemberNo: "ADMIN001",
		Username: "admin",
		Email:    "admin@bjj-dojo-manager.app",
		Password: hashedPassword,
		Role:     "ADMIN",
		GymID:    gym.ID,
		IsActive: true,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	// Staff also get a roster entry so promotions and check-ins work
	var memberExists int64
	s.db.Model(&models.Member{}).Where("gym_id = ? AND member_no = ?", gym.ID, admin.MemberNo).Count(&memberExists)
	if memberExists == 0 {
		member := &models.Member{
			GymID:     gym.ID,
			MemberNo:  admin.MemberNo,
			FirstName: "道場",
			LastName:  "管理者",
			Email:     admin.Email,
			BeltCode:  "BLACK",
			Stripes:   0,
			JoinedAt:  time.Now(),
			UserID:    &admin.ID,
			IsActive:  true,
		}
		if err := s.db.Create(member).Error; err != nil {
			return err
		}
	}

	log.Printf("✅ Admin user created: %s", admin.Username)
	return nil
}
