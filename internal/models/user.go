package models

import "gorm.io/gorm"

type User struct {
	gorm.Model

	Name         string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null;default:tester"` // "admin" or "tester"
	Status       string `gorm:"not null;default:active"` // "active" or "inactive"

	// Relationships
	ProjectAccessGrants []ProjectAccessGrant `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	TestCaseAssignments []TestCaseAssignment `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	TestExecutions      []TestExecution      `gorm:"foreignKey:TesterID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
