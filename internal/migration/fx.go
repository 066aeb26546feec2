package migration

import (
	"strings"

	"github.com/smallbiznis/facture/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// Embedded migrations target postgres. Other dialects (the
		// sqlite test harness in particular) create their schema via
		// AutoMigrate instead.
		if !strings.EqualFold(cfg.DBType, "postgres") {
			return nil
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		return RunMigrations(sqlDB)
	}),
)
