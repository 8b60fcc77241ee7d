// Package policy is the single place access decisions are made. Handlers
// never compare roles or query grant rows themselves; they ask this package.
package policy

import (
	"gorm.io/gorm"

	"github.com/caseflow-dev/caseflow/internal/models"
	"github.com/caseflow-dev/caseflow/internal/types"
)

// Subject is the authenticated identity a decision is made for.
type Subject struct {
	ID   uint
	Role string
}

func (s Subject) IsAdmin() bool {
	return s.Role == types.RoleAdmin
}

// RequireRole reports whether the subject holds exactly the given role.
func RequireRole(user Subject, role string) bool {
	return user.Role == role
}

// CanAccessProject is true for admins, otherwise true iff an access grant row
// exists for (user, project).
func CanAccessProject(dbConn *gorm.DB, user Subject, projectID uint) (bool, error) {
	if user.IsAdmin() {
		return true, nil
	}

	var count int64

	err := dbConn.Model(&models.ProjectAccessGrant{}).
		Where("user_id = ? AND project_id = ?", user.ID, projectID).
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// CanExecuteTestCase is true for admins, otherwise requires both an
// assignment row for the test case and project access on its owning project.
// Project access is necessary but not sufficient.
func CanExecuteTestCase(dbConn *gorm.DB, user Subject, testCase models.TestCase) (bool, error) {
	if user.IsAdmin() {
		return true, nil
	}

	allowed, err := CanAccessProject(dbConn, user, testCase.ProjectID)

	if err != nil || !allowed {
		return false, err
	}

	var count int64

	err = dbConn.Model(&models.TestCaseAssignment{}).
		Where("user_id = ? AND test_case_id = ?", user.ID, testCase.ID).
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}
