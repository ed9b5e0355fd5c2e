package config

import (
	"log"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/plan"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/rank"

	"gorm.io/gorm"
)

// SeedMasterData seeds initial master data
func SeedMasterData(db *gorm.DB) error {
	// Seed Belts
	if err := seedBelts(db); err != nil {
		return err
	}

	// Seed Plans
	if err := seedPlans(db); err != nil {
		return err
	}

	log.Println("✅ Master data seeded successfully")
	return nil
}

// seedBelts mirrors the in-code belt table into the belts table so the
// frontend can read display metadata over the API. The in-code table
// stays authoritative; these rows are never edited by hand.
func seedBelts(db *gorm.DB) error {
	names := map[rank.Belt]string{
		rank.White:  "白帯",
		rank.Blue:   "青帯",
		rank.Purple: "紫帯",
		rank.Brown:  "茶帯",
		rank.Black:  "黒帯",
	}

	for _, info := range rank.Belts() {
		belt := models.Belt{
			Code:       string(info.Code),
			Name:       names[info.Code],
			Color:      info.Color,
			BeltOrder:  info.Order,
			MaxStripes: info.MaxStripes,
			IsTerminal: info.Code == rank.Black,
			IsActive:   true,
		}

		var existing models.Belt
		if err := db.Where("code = ?", belt.Code).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := db.Create(&belt).Error; err != nil {
					return err
				}
				log.Printf("   Created belt: %s", belt.Code)
			}
		}
	}
	return nil
}

// seedPlans mirrors the in-code plan tier table into the plans table.
func seedPlans(db *gorm.DB) error {
	names := map[plan.Tier]string{
		plan.Free:      "フリープラン",
		plan.Basic:     "ベーシックプラン",
		plan.Pro:       "プロプラン",
		plan.Unlimited: "アンリミテッドプラン",
	}

	for i, limits := range plan.Tiers() {
		p := models.Plan{
			Code:              string(limits.Tier),
			Name:              names[limits.Tier],
			PriceMonthly:      limits.PriceMonthly,
			MaxMembers:        limits.MaxMembers,
			MaxCoaches:        limits.MaxCoaches,
			MaxClassesPerWeek: limits.MaxClassesPerWeek,
			MaxNoticesActive:  limits.MaxNoticesActive,
			DisplayOrder:      i + 1,
			IsActive:          true,
		}

		var existing models.Plan
		if err := db.Where("code = ?", p.Code).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := db.Create(&p).Error; err != nil {
					return err
				}
				log.Printf("   Created plan: %s", p.Code)
			}
		}
	}
	return nil
}
