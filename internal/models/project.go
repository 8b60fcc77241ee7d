package models

import "gorm.io/gorm"

type Project struct {
	gorm.Model

	Name        string `gorm:"not null"`
	Description string
	CreatedByID uint `gorm:"not null;index"`
	UpdatedByID uint `gorm:"not null"`

	// Relationships
	CreatedBy           User                 `gorm:"foreignKey:CreatedByID"`
	ProjectAccessGrants []ProjectAccessGrant `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	TestCases           []TestCase           `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
