package bootstrap

import (
	"gorm.io/gorm"

	"github.com/velvoice/companiond/internal/models"
	"github.com/velvoice/companiond/pkg/voice"
)

type SeedService struct {
	db *gorm.DB
}

// SeedAll writes demo data for non-production environments. Every seed is
// idempotent: existing rows are left alone.
func (s *SeedService) SeedAll() error {
	if err := s.seedDemoUser(); err != nil {
		return err
	}
	return s.seedCompanions()
}

func (s *SeedService) seedDemoUser() error {
	var count int64
	if err := s.db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	demo := models.User{
		ExternalID:  "demo-user",
		Email:       "demo@example.com",
		DisplayName: "Demo User",
	}
	if err := s.db.Create(&demo).Error; err != nil {
		return err
	}
	return s.db.Create(&models.Subscription{UserID: demo.ID, Plan: models.PlanPro}).Error
}

func (s *SeedService) seedCompanions() error {
	var count int64
	if err := s.db.Model(&models.Companion{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var demo models.User
	if err := s.db.Where("external_id = ?", "demo-user").First(&demo).Error; err != nil {
		return err
	}

	companions := []models.Companion{
		{
			Author:   demo.ID,
			Name:     "Neura the Brainy Explorer",
			Subject:  "science",
			Topic:    "Neural networks of the brain",
			Voice:    voice.VoiceFemale,
			Style:    voice.StyleCasual,
			Duration: 45,
		},
		{
			Author:   demo.ID,
			Name:     "Countsy the Number Wizard",
			Subject:  "maths",
			Topic:    "Derivatives and integrals",
			Voice:    voice.VoiceMale,
			Style:    voice.StyleFormal,
			Duration: 30,
		},
		{
			Author:   demo.ID,
			Name:     "Verba the Vocabulary Builder",
			Subject:  "language",
			Topic:    "English literature",
			Voice:    voice.VoiceFemale,
			Style:    voice.StyleFormal,
			Duration: 30,
		},
	}
	for i := range companions {
		if err := models.CreateCompanion(s.db, &companions[i]); err != nil {
			return err
		}
	}
	return nil
}
