package gormstore

import (
	"edusync/domain/shared"

	"gorm.io/gorm"
)

// updateVersioned writes fields guarded by agg's current version and bumps the
// version in the same statement. It reports whether a row matched; on a match
// the in-memory aggregate is advanced too.
func updateVersioned(db *gorm.DB, model interface{}, agg shared.Versioned, fields map[string]interface{}) (bool, error) {
	expectedVersion := agg.Version()
	fields["version"] = expectedVersion + 1

	res := db.Model(model).
		Where("id = ? AND version = ?", agg.ID(), expectedVersion).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	agg.IncrementVersionForSave()
	return true, nil
}
