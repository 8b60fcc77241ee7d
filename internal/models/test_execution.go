package models

import (
	"time"

	"gorm.io/gorm"
)

type TestExecution struct {
	gorm.Model

	TestCaseID uint `gorm:"not null;index"`
	TesterID   uint `gorm:"not null;index"`
	RunNumber  int  `gorm:"not null"` // cumulative per (test case, tester), 1..RequiredRuns
	Notes      string
	Defect     string    // empty means the run passed
	ExecutedAt time.Time `gorm:"not null;index"`

	// Relationships
	TestCase TestCase `gorm:"foreignKey:TestCaseID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Tester   User     `gorm:"foreignKey:TesterID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// Passed reports whether this execution counts as a pass. Defect emptiness is
// the only pass/fail rule anywhere in the system.
func (e TestExecution) Passed() bool {
	return e.Defect == ""
}
