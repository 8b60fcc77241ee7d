package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityLog is an append-only feed of mutating actions, rendered on the
// admin dashboard.
type ActivityLog struct {
	gorm.Model

	UserID     uint   `gorm:"not null;index"`
	Action     string `gorm:"not null"` // e.g. "project.created", "execution.recorded"
	TargetType string `gorm:"not null"` // "project", "test_case", "execution", "user"
	TargetID   uint   `gorm:"not null"`
	Metadata   datatypes.JSON `gorm:"type:jsonb"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
