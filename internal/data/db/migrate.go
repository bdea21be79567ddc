package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/aisohq/aiso-market/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// Identity + auth
		&types.User{},
		&types.UserToken{},

		// Marketplace catalog
		&types.App{},
		&types.AppVersion{},
		&types.AppScreenshot{},

		// Review pipeline audit trail
		&types.ReviewRecord{},

		// Installs + consent
		&types.AppInstall{},

		// Ratings
		&types.AppReview{},
		&types.RatingSummary{},
	); err != nil {
		return err
	}

	// At most one active install per (user, app). Superseded and
	// uninstalled rows are history and exempt.
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_install_active_unique
		 ON app_installs (user_id, app_id) WHERE status = 'active'`,
	).Error; err != nil {
		return fmt.Errorf("create active install index: %w", err)
	}

	return nil
}
