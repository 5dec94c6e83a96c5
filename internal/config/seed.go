package config

import (
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"campus_cruiser/internal/models"
)

// SeedAdmin creates the bootstrap admin account from ADMIN_USERNAME/ADMIN_PASSWORD
// when it does not exist yet. It is a no-op when either variable is empty.
func SeedAdmin(db *gorm.DB, cfg *Config) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		logrus.Info("ADMIN_USERNAME/ADMIN_PASSWORD not set – skipping admin seed")
		return nil
	}

	var existing models.User
	err := db.Where("role = ? AND username = ?", models.RoleAdmin, cfg.AdminUsername).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.User{
		FullName: cfg.AdminUsername,
		Username: cfg.AdminUsername,
		Role:     models.RoleAdmin,
		Password: string(hash),
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	logrus.WithField("username", admin.Username).Info("Seeded admin account")
	return nil
}
