package store

import (
	"database/sql"
	"time"

	"gorm.io/gorm"

	"github.com/caseflow-dev/caseflow/internal/models"
)

// RecordExecution appends one execution for (testCase, tester). The count
// check and the insert run in one serializable transaction; at read committed
// two concurrent submissions could both count N-1 and overshoot the ceiling.
func RecordExecution(dbConn *gorm.DB, testCase models.TestCase, testerID uint, notes, defect string, executedAt time.Time) (models.TestExecution, error) {
	if executedAt.IsZero() {
		executedAt = time.Now().UTC()
	}

	var execution models.TestExecution

	err := dbConn.Transaction(func(tx *gorm.DB) error {
		var count int64

		err := tx.Model(&models.TestExecution{}).
			Where("test_case_id = ? AND tester_id = ?", testCase.ID, testerID).
			Count(&count).Error

		if err != nil {
			return err
		}

		if count >= int64(testCase.RequiredRuns) {
			return ErrQuotaExceeded
		}

		execution = models.TestExecution{
			TestCaseID: testCase.ID,
			TesterID:   testerID,
			RunNumber:  int(count) + 1,
			Notes:      notes,
			Defect:     defect,
			ExecutedAt: executedAt,
		}

		if err := tx.Create(&execution).Error; err != nil {
			return err
		}

		return logActivity(tx, testerID, "execution.recorded", "execution", execution.ID, map[string]interface{}{
			"test_case_id": testCase.ID,
			"run_number":   execution.RunNumber,
			"passed":       execution.Passed(),
		})
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})

	return execution, err
}

// ListExecutions returns a test case's executions, newest first, with tester
// identities for display.
func ListExecutions(dbConn *gorm.DB, testCaseID uint) ([]models.TestExecution, error) {
	var executions []models.TestExecution

	err := dbConn.Preload("Tester").
		Where("test_case_id = ?", testCaseID).
		Order("executed_at DESC").
		Find(&executions).Error

	return executions, err
}
