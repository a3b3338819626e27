package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zaqqye/apkhub_backend/internal/config"
	"github.com/zaqqye/apkhub_backend/internal/models"
	"github.com/zaqqye/apkhub_backend/internal/utils"
)

// SeedOwner inserts the owner account when the admin store is empty.
func SeedOwner(db *DB, cfg *config.Config, log *zap.Logger) error {
	existing, err := db.Admins.Load()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	hashed, err := utils.HashPassword(cfg.OwnerPassword)
	if err != nil {
		return fmt.Errorf("owner password: %w", err)
	}

	seeded := false
	err = db.Admins.Update(func(admins []models.Admin) ([]models.Admin, error) {
		if len(admins) > 0 {
			return admins, nil
		}
		seeded = true
		return append(admins, models.Admin{
			Email:     cfg.OwnerEmail,
			Password:  hashed,
			Role:      models.RoleOwner,
			CreatedAt: time.Now().UTC(),
		}), nil
	})
	if err != nil {
		return err
	}
	if seeded {
		log.Info("seeded owner admin", zap.String("email", cfg.OwnerEmail))
	}
	return nil
}
