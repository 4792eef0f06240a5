package migration

import (
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Apply),
)

// Apply runs the embedded SQL migrations on PostgreSQL and GORM AutoMigrate elsewhere.
func Apply(conn *gorm.DB, log *zap.Logger) error {
	log = log.Named("migrations")
	if !db.IsPostgres(conn) {
		log.Info("applying schema with automigrate", zap.String("dialect", conn.Dialector.Name()))
		return AutoMigrate(conn)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	if err := RunMigrations(sqlDB); err != nil {
		return err
	}

	version, dirty, err := Version(sqlDB)
	if err != nil {
		return err
	}
	log.Info("schema migrated", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
