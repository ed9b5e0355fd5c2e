package config

import (
	"log"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// SeedScheduleData seeds a starter timetable and per-gym settings for
// the default gym. Development convenience; safe to rerun.
func SeedScheduleData(db *gorm.DB) error {
	if err := seedClassTemplates(db); err != nil {
		return err
	}
	if err := seedGymConfig(db); err != nil {
		return err
	}
	log.Println("✅ Schedule data seeded successfully")
	return nil
}

func seedClassTemplates(db *gorm.DB) error {
	var gym models.Gym
	if err := db.Where("code = ?", "HONBU").First(&gym).Error; err != nil {
		log.Printf("⚠️ Skipping template seed: gym HONBU not found")
		return nil
	}

	templates := []models.ClassTemplate{
		{GymID: gym.ID, Title: "ベーシッククラス", Discipline: "GI", Weekday: 1, StartTime: "19:30", DurationMin: 90, Capacity: 20, Level: "BEGINNER", Location: "メインマット", IsActive: true},
		{GymID: gym.ID, Title: "オールレベル", Discipline: "GI", Weekday: 3, StartTime: "19:30", DurationMin: 90, Capacity: 24, Level: "ALL", Location: "メインマット", IsActive: true},
		{GymID: gym.ID, Title: "ノーギ", Discipline: "NOGI", Weekday: 5, StartTime: "20:00", DurationMin: 90, Capacity: 20, Level: "ALL", Location: "メインマット", IsActive: true},
		{GymID: gym.ID, Title: "キッズクラス", Discipline: "KIDS", Weekday: 6, StartTime: "10:00", DurationMin: 60, Capacity: 16, Level: "KIDS", Location: "メインマット", IsActive: true},
		{GymID: gym.ID, Title: "オープンマット", Discipline: "OPEN_MAT", Weekday: 0, StartTime: "10:00", DurationMin: 120, Capacity: 30, Level: "ALL", Location: "メインマット", IsActive: true},
	}

	for _, t := range templates {
		var existing models.ClassTemplate
		if err := db.Where("gym_id = ? AND weekday = ? AND start_time = ?", t.GymID, t.Weekday, t.StartTime).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := db.Create(&t).Error; err != nil {
					return err
				}
				log.Printf("   Created class_template: %s", t.Title)
			}
		}
	}
	return nil
}

func seedGymConfig(db *gorm.DB) error {
	var gym models.Gym
	if err := db.Where("code = ?", "HONBU").First(&gym).Error; err != nil {
		log.Printf("⚠️ Skipping config seed: gym HONBU not found")
		return nil
	}

	type configDef struct {
		Key   string
		Value string
		Desc  string
	}

	configs := []configDef{
		{"checkin_window_minutes", "30", "チェックイン受付開始（開始前の分数）"},
		{"kiosk_code_ttl_minutes", "5", "キオスクコードの有効期限（分）"},
		{"reminder_hour", "07:00", "当日リマインダーの送信時刻"},
		{"waiver_valid_days", "30", "ビジター誓約書の有効日数"},
		{"waiver_doc_version", "v2", "現行の誓約書バージョン"},
	}

	for _, c := range configs {
		var existing models.GymConfig
		if err := db.Where("gym_id = ? AND config_key = ?", gym.ID, c.Key).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				cfg := models.GymConfig{GymID: gym.ID, ConfigKey: c.Key, ConfigValue: c.Value, Description: c.Desc}
				if err := db.Create(&cfg).Error; err != nil {
					return err
				}
				log.Printf("   Created config: %s = %s", c.Key, c.Value)
			}
		}
	}
	return nil
}
