package database

import (
	"gorm.io/gorm"

	"github.com/palanikathirvel/realestatefinal-sub000/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.VerificationPolicy{},
		&models.OTPChallenge{},
		&models.Notification{},
		&models.ActivityLog{},
	)
}

// SeedData ensures the singleton verification policy row exists. The policy
// defaults to manual so a fresh installation always queues submissions for
// human review.
func SeedData(db *gorm.DB) error {
	policy := models.VerificationPolicy{
		ID:   models.PolicyRowID,
		Mode: models.ModeManual,
	}

	return db.
		Where(models.VerificationPolicy{ID: models.PolicyRowID}).
		Attrs(policy).
		FirstOrCreate(&models.VerificationPolicy{}).Error
}
