package database

import (
	"embed"
	"strings"

	"github.com/go-faster/errors"
	"gorm.io/gorm"

	"github.com/yeremiapane/fantasteak-pos/utils"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ExecuteTriggers installs the change-feed triggers for the connected dialect.
// Statements are separated by "//"; MySQL files additionally wrap them in
// DELIMITER blocks.
func ExecuteTriggers(db *gorm.DB) error {
	dialect := db.Dialector.Name()
	triggerSQL, err := migrations.ReadFile("migrations/triggers_" + dialect + ".sql")
	if err != nil {
		return errors.Wrapf(err, "no triggers for dialect %s", dialect)
	}

	failed := 0
	for _, block := range strings.Split(string(triggerSQL), "DELIMITER") {
		if strings.TrimSpace(block) == "" {
			continue
		}

		for _, stmt := range strings.Split(block, "//") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" || stmt == ";" {
				continue
			}

			if err := db.Exec(stmt).Error; err != nil {
				utils.ErrorLogger.WithError(err).WithField("statement", stmt).Error("Error executing trigger")
				failed++
				continue
			}
		}
	}
	if failed > 0 {
		return errors.Errorf("%d trigger statements failed", failed)
	}

	utils.InfoLogger.WithField("dialect", dialect).Info("Change feed triggers installed")
	return nil
}
