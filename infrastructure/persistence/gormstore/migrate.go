package gormstore

import (
	"fmt"

	"edusync/infrastructure/persistence/gormstore/po"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table. Parents come first so the
// RESTRICT foreign keys can be created.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&po.UserPO{},
		&po.CoursePO{},
		&po.AssessmentPO{},
		&po.ResultPO{},
		&po.OutboxEventPO{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
