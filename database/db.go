package database

import (
	"github.com/go-faster/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/fantasteak-pos/models"
	"github.com/yeremiapane/fantasteak-pos/utils"
)

// Open connects to the shared order store. driver is "mysql" or "sqlite".
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	default:
		return nil, errors.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", driver)
	}
	return db, nil
}

// Migrate creates the order collections and the change-feed log, then
// installs the triggers that feed it.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.OrderRow{},
		&models.OrderItemRow{},
		&models.DBChange{},
	); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	utils.InfoLogger.Println("AutoMigrate completed.")

	if err := ExecuteTriggers(db); err != nil {
		return errors.Wrap(err, "install triggers")
	}
	return nil
}
