package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/config"
	consultationdomain "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/consultation/domain"
	invitationdomain "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/invitation/domain"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/seed"
	userdomain "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/user/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite and mysql are dev conveniences without versioned
			// migration files.
			if err := conn.AutoMigrate(
				&userdomain.User{},
				&consultationdomain.Consultation{},
				&invitationdomain.Invitation{},
			); err != nil {
				return err
			}
		}

		if cfg.Environment != "production" {
			return seed.EnsureDevData(conn)
		}
		return nil
	}),
)
