package reports

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/caseflow-dev/caseflow/internal/models"
	"github.com/caseflow-dev/caseflow/internal/types"
)

type TesterSummary struct {
	UserID          uint       `json:"user_id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	TotalExecutions int        `json:"total_executions"`
	DefectCount     int        `json:"defect_count"`
	TestCasesRun    int        `json:"test_cases_run"`
	LastActivity    *time.Time `json:"last_activity"`
	Active          bool       `json:"active"`
}

// BuildTesterSummaries aggregates per-tester activity. A tester is active
// when they recorded at least one execution in the trailing 7 days.
func BuildTesterSummaries(dbConn *gorm.DB, now time.Time) ([]TesterSummary, error) {
	var testers []models.User

	err := dbConn.Where("role = ?", types.RoleTester).
		Order("name").
		Find(&testers).Error

	if err != nil {
		return nil, err
	}

	cutoff := now.Add(-7 * 24 * time.Hour)
	summaries := make([]TesterSummary, 0, len(testers))

	for _, tester := range testers {
		summary := TesterSummary{
			UserID: tester.ID,
			Name:   tester.Name,
			Email:  tester.Email,
		}

		var total, defects, cases int64

		if err := dbConn.Model(&models.TestExecution{}).Where("tester_id = ?", tester.ID).Count(&total).Error; err != nil {
			return nil, err
		}

		if err := dbConn.Model(&models.TestExecution{}).Where("tester_id = ? AND defect != ''", tester.ID).Count(&defects).Error; err != nil {
			return nil, err
		}

		err := dbConn.Model(&models.TestExecution{}).
			Where("tester_id = ?", tester.ID).
			Distinct("test_case_id").
			Count(&cases).Error

		if err != nil {
			return nil, err
		}

		var latest models.TestExecution

		err = dbConn.Where("tester_id = ?", tester.ID).
			Order("executed_at DESC").
			First(&latest).Error

		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		if err == nil {
			executedAt := latest.ExecutedAt
			summary.LastActivity = &executedAt
			summary.Active = executedAt.After(cutoff)
		}

		summary.TotalExecutions = int(total)
		summary.DefectCount = int(defects)
		summary.TestCasesRun = int(cases)

		summaries = append(summaries, summary)
	}

	return summaries, nil
}
