package reports

import (
	"time"

	"gorm.io/gorm"

	"github.com/caseflow-dev/caseflow/internal/models"
)

type DefectRow struct {
	ExecutionID uint      `json:"execution_id"`
	ProjectID   uint      `json:"project_id"`
	ProjectName string    `json:"project_name"`
	TestCaseID  uint      `json:"test_case_id"`
	Category    string    `json:"category"`
	Feature     string    `json:"feature"`
	Priority    string    `json:"priority"`
	Platform    string    `json:"platform"`
	Defect      string    `json:"defect"`
	Notes       string    `json:"notes"`
	TesterName  string    `json:"tester_name"`
	TesterEmail string    `json:"tester_email"`
	ExecutedAt  time.Time `json:"executed_at"`
}

// BuildDefectRows lists every failed execution with its case, project and
// tester context, newest first. projectID 0 means all projects.
func BuildDefectRows(dbConn *gorm.DB, projectID uint) ([]DefectRow, error) {
	query := dbConn.Preload("TestCase.Project").Preload("Tester").
		Where("defect != ''").
		Order("executed_at DESC")

	if projectID != 0 {
		query = query.
			Joins("JOIN test_cases ON test_cases.id = test_executions.test_case_id").
			Where("test_cases.project_id = ? AND test_cases.deleted_at IS NULL", projectID)
	}

	var executions []models.TestExecution

	if err := query.Find(&executions).Error; err != nil {
		return nil, err
	}

	rows := make([]DefectRow, 0, len(executions))

	for _, execution := range executions {
		rows = append(rows, DefectRow{
			ExecutionID: execution.ID,
			ProjectID:   execution.TestCase.ProjectID,
			ProjectName: execution.TestCase.Project.Name,
			TestCaseID:  execution.TestCaseID,
			Category:    execution.TestCase.Category,
			Feature:     execution.TestCase.Feature,
			Priority:    execution.TestCase.Priority,
			Platform:    execution.TestCase.Platform,
			Defect:      execution.Defect,
			Notes:       execution.Notes,
			TesterName:  execution.Tester.Name,
			TesterEmail: execution.Tester.Email,
			ExecutedAt:  execution.ExecutedAt,
		})
	}

	return rows, nil
}
