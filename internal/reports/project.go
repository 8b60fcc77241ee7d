// Package reports computes the read-only statistics behind dashboards and
// exports. Nothing in here mutates the database.
package reports

import (
	"math"

	"gorm.io/gorm"

	"github.com/caseflow-dev/caseflow/internal/models"
	"github.com/caseflow-dev/caseflow/internal/store"
)

type ProjectSummary struct {
	ProjectID        uint    `json:"project_id"`
	Name             string  `json:"name"`
	TotalTestCases   int     `json:"total_test_cases"`
	ExecutedCases    int     `json:"executed_cases"`
	NotExecutedCases int     `json:"not_executed_cases"`
	TotalExecutions  int     `json:"total_executions"`
	PassedExecutions int     `json:"passed_executions"`
	FailedExecutions int     `json:"failed_executions"`
	CompletionRate   float64 `json:"completion_rate"`
}

type TestCaseProgress struct {
	TestCaseID      uint    `json:"test_case_id"`
	Category        string  `json:"category"`
	Feature         string  `json:"feature"`
	Priority        string  `json:"priority"`
	Platform        string  `json:"platform"`
	RequiredRuns    int     `json:"required_runs"`
	ExecutionsCount int     `json:"executions_count"`
	PassedCount     int     `json:"passed_count"`
	FailedCount     int     `json:"failed_count"`
	CompletionRate  float64 `json:"completion_rate"`
	Assignees       []string `json:"assignees"`
}

// BuildProjectSummary aggregates one project's execution state. Completion
// rate is executed cases over total cases, rounded; a project with no test
// cases reports exactly 0.
func BuildProjectSummary(dbConn *gorm.DB, project models.Project) (ProjectSummary, error) {
	summary := ProjectSummary{
		ProjectID: project.ID,
		Name:      project.Name,
	}

	var totalCases int64

	err := dbConn.Model(&models.TestCase{}).
		Where("project_id = ?", project.ID).
		Count(&totalCases).Error

	if err != nil {
		return summary, err
	}

	var executedCases int64

	err = dbConn.Model(&models.TestExecution{}).
		Joins("JOIN test_cases ON test_cases.id = test_executions.test_case_id").
		Where("test_cases.project_id = ? AND test_cases.deleted_at IS NULL", project.ID).
		Distinct("test_executions.test_case_id").
		Count(&executedCases).Error

	if err != nil {
		return summary, err
	}

	var totalExecutions, passedExecutions int64

	executions := dbConn.Model(&models.TestExecution{}).
		Joins("JOIN test_cases ON test_cases.id = test_executions.test_case_id").
		Where("test_cases.project_id = ? AND test_cases.deleted_at IS NULL", project.ID)

	if err := executions.Count(&totalExecutions).Error; err != nil {
		return summary, err
	}

	err = dbConn.Model(&models.TestExecution{}).
		Joins("JOIN test_cases ON test_cases.id = test_executions.test_case_id").
		Where("test_cases.project_id = ? AND test_cases.deleted_at IS NULL", project.ID).
		Where("test_executions.defect = ''").
		Count(&passedExecutions).Error

	if err != nil {
		return summary, err
	}

	summary.TotalTestCases = int(totalCases)
	summary.ExecutedCases = int(executedCases)
	summary.NotExecutedCases = int(totalCases - executedCases)
	summary.TotalExecutions = int(totalExecutions)
	summary.PassedExecutions = int(passedExecutions)
	summary.FailedExecutions = int(totalExecutions - passedExecutions)

	if totalCases > 0 {
		summary.CompletionRate = math.Round(float64(executedCases) / float64(totalCases) * 100)
	}

	return summary, nil
}

// BuildTestCaseProgress reports per-case completion for a project. The
// percentage is executions over the required count, capped at 100 since
// multiple testers can each run up to the ceiling.
func BuildTestCaseProgress(dbConn *gorm.DB, projectID uint) ([]TestCaseProgress, error) {
	testCases, err := store.ListTestCases(dbConn, projectID)

	if err != nil {
		return nil, err
	}

	progress := make([]TestCaseProgress, 0, len(testCases))

	for _, testCase := range testCases {
		var total, passed int64

		err := dbConn.Model(&models.TestExecution{}).
			Where("test_case_id = ?", testCase.ID).
			Count(&total).Error

		if err != nil {
			return nil, err
		}

		err = dbConn.Model(&models.TestExecution{}).
			Where("test_case_id = ? AND defect = ''", testCase.ID).
			Count(&passed).Error

		if err != nil {
			return nil, err
		}

		assignees, err := store.ListAssignees(dbConn, testCase.ID)

		if err != nil {
			return nil, err
		}

		names := make([]string, 0, len(assignees))
		for _, assignee := range assignees {
			names = append(names, assignee.Name)
		}

		rate := 0.0
		if testCase.RequiredRuns > 0 {
			rate = math.Min(float64(total)/float64(testCase.RequiredRuns)*100, 100)
		}

		progress = append(progress, TestCaseProgress{
			TestCaseID:      testCase.ID,
			Category:        testCase.Category,
			Feature:         testCase.Feature,
			Priority:        testCase.Priority,
			Platform:        testCase.Platform,
			RequiredRuns:    testCase.RequiredRuns,
			ExecutionsCount: int(total),
			PassedCount:     int(passed),
			FailedCount:     int(total - passed),
			CompletionRate:  rate,
			Assignees:       names,
		})
	}

	return progress, nil
}
