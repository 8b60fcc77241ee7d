package models

import "gorm.io/gorm"

type TestCase struct {
	gorm.Model

	ProjectID      uint   `gorm:"not null;index"`
	Category       string `gorm:"not null"`
	Feature        string `gorm:"not null"`
	Description    string
	RequiredRuns   int    `gorm:"not null;default:1"` // per-tester execution ceiling, >= 1
	Priority       string `gorm:"not null;default:medium"` // "low", "medium", "high", "critical"
	Platform       string `gorm:"not null;default:web"`    // "web", "app", "cms", "server"
	Preconditions  string
	Steps          string
	ExpectedResult string
	CreatedByID    uint `gorm:"not null"`
	UpdatedByID    uint `gorm:"not null"`

	// Relationships
	Project     Project              `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Assignments []TestCaseAssignment `gorm:"foreignKey:TestCaseID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Executions  []TestExecution      `gorm:"foreignKey:TestCaseID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
