package store

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/caseflow-dev/caseflow/internal/models"
)

func CreateTestCase(dbConn *gorm.DB, testCase *models.TestCase) error {
	return dbConn.Transaction(func(tx *gorm.DB) error {
		if _, err := GetProject(tx, testCase.ProjectID); err != nil {
			return err
		}

		if err := tx.Create(testCase).Error; err != nil {
			return err
		}

		return logActivity(tx, testCase.CreatedByID, "test_case.created", "test_case", testCase.ID, map[string]interface{}{
			"feature":    testCase.Feature,
			"project_id": testCase.ProjectID,
		})
	})
}

func GetTestCase(dbConn *gorm.DB, id uint) (models.TestCase, error) {
	var testCase models.TestCase

	if err := dbConn.First(&testCase, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return testCase, ErrNotFound
		}
		return testCase, err
	}

	return testCase, nil
}

// GetProjectTestCase resolves a test case within a given project, so route
// handlers can't reach a case through the wrong project id.
func GetProjectTestCase(dbConn *gorm.DB, projectID, id uint) (models.TestCase, error) {
	var testCase models.TestCase

	if err := dbConn.Where("id = ? AND project_id = ?", id, projectID).First(&testCase).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return testCase, ErrNotFound
		}
		return testCase, err
	}

	return testCase, nil
}

func ListTestCases(dbConn *gorm.DB, projectID uint) ([]models.TestCase, error) {
	var testCases []models.TestCase

	err := dbConn.Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&testCases).Error

	return testCases, err
}

func UpdateTestCase(dbConn *gorm.DB, testCase *models.TestCase, actorID uint) error {
	testCase.UpdatedByID = actorID

	return dbConn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(testCase).Error; err != nil {
			return err
		}

		return logActivity(tx, actorID, "test_case.updated", "test_case", testCase.ID, nil)
	})
}

// DeleteTestCase removes executions, then assignments, then the case itself,
// all in one transaction.
func DeleteTestCase(dbConn *gorm.DB, id uint, actorID uint) error {
	return dbConn.Transaction(func(tx *gorm.DB) error {
		var testCase models.TestCase

		if err := tx.First(&testCase, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := tx.Where("test_case_id = ?", id).Delete(&models.TestExecution{}).Error; err != nil {
			return err
		}

		if err := tx.Unscoped().Where("test_case_id = ?", id).Delete(&models.TestCaseAssignment{}).Error; err != nil {
			return err
		}

		if err := tx.Delete(&testCase).Error; err != nil {
			return err
		}

		return logActivity(tx, actorID, "test_case.deleted", "test_case", id, map[string]interface{}{"feature": testCase.Feature})
	})
}

// SetAssignments replaces the full assignment set of a test case. Use
// GrantAssignments to add without removing.
func SetAssignments(dbConn *gorm.DB, testCaseID uint, userIDs []uint, assignedBy uint) error {
	return dbConn.Transaction(func(tx *gorm.DB) error {
		if _, err := GetTestCase(tx, testCaseID); err != nil {
			return err
		}

		if err := tx.Unscoped().Where("test_case_id = ?", testCaseID).Delete(&models.TestCaseAssignment{}).Error; err != nil {
			return err
		}

		for _, userID := range dedupe(userIDs) {
			assignment := models.TestCaseAssignment{
				UserID:       userID,
				TestCaseID:   testCaseID,
				AssignedByID: assignedBy,
			}

			if err := tx.Create(&assignment).Error; err != nil {
				return err
			}
		}

		return logActivity(tx, assignedBy, "test_case.assignments_set", "test_case", testCaseID, map[string]interface{}{"user_ids": userIDs})
	})
}

// GrantAssignments adds assignments without touching existing ones. Duplicates
// are no-ops keyed on the (user, test case) unique pair.
func GrantAssignments(dbConn *gorm.DB, testCaseID uint, userIDs []uint, assignedBy uint) error {
	return dbConn.Transaction(func(tx *gorm.DB) error {
		if _, err := GetTestCase(tx, testCaseID); err != nil {
			return err
		}

		for _, userID := range dedupe(userIDs) {
			assignment := models.TestCaseAssignment{
				UserID:       userID,
				TestCaseID:   testCaseID,
				AssignedByID: assignedBy,
			}

			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "test_case_id"}},
				DoNothing: true,
			}).Create(&assignment).Error

			if err != nil {
				return err
			}
		}

		return logActivity(tx, assignedBy, "test_case.assignments_granted", "test_case", testCaseID, map[string]interface{}{"user_ids": userIDs})
	})
}

// ListAssignees returns the users assigned to a test case.
func ListAssignees(dbConn *gorm.DB, testCaseID uint) ([]models.User, error) {
	var users []models.User

	err := dbConn.
		Joins("JOIN test_case_assignments ON test_case_assignments.user_id = users.id").
		Where("test_case_assignments.test_case_id = ? AND test_case_assignments.deleted_at IS NULL", testCaseID).
		Order("users.name").
		Find(&users).Error

	return users, err
}
