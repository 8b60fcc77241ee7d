package store

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/caseflow-dev/caseflow/internal/models"
)

// logActivity appends a feed entry inside the caller's transaction, so a
// mutation and its feed entry commit or roll back together. Metadata
// marshalling failures are swallowed into an empty object.
func logActivity(tx *gorm.DB, userID uint, action, targetType string, targetID uint, metadata map[string]interface{}) error {
	var payload datatypes.JSON

	if metadata != nil {
		if raw, err := json.Marshal(metadata); err == nil {
			payload = raw
		}
	}

	entry := models.ActivityLog{
		UserID:     userID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   payload,
	}

	return tx.Create(&entry).Error
}

// RecentActivity returns the newest feed entries with their actors.
func RecentActivity(dbConn *gorm.DB, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var entries []models.ActivityLog

	err := dbConn.Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error

	return entries, err
}
