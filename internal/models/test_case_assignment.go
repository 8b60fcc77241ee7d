package models

import "gorm.io/gorm"

// TestCaseAssignment lets a tester record executions against a test case.
// Project access is necessary but not sufficient; execution also requires an
// assignment row.
type TestCaseAssignment struct {
	gorm.Model

	UserID       uint `gorm:"not null;uniqueIndex:idx_assignment_user_case"`
	TestCaseID   uint `gorm:"not null;uniqueIndex:idx_assignment_user_case"`
	AssignedByID uint `gorm:"not null"`

	// Relationships
	User     User     `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	TestCase TestCase `gorm:"foreignKey:TestCaseID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
