package reports

import (
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/caseflow-dev/caseflow/internal/models"
	"github.com/caseflow-dev/caseflow/internal/store"
)

// ExportHeader is the fixed column schema of the CSV export.
var ExportHeader = []string{
	"category", "feature", "description", "required_runs", "executions_count",
	"priority", "platform", "preconditions", "steps", "expected_result",
	"run_number", "notes", "defect", "tester_name", "tester_email", "executed_at",
}

// ExportAllHeader is the cross-project export schema: the fixed columns
// prefixed with the owning project.
var ExportAllHeader = append([]string{"project"}, ExportHeader...)

// BuildAllExportRows flattens every project into export rows, each prefixed
// with its project name.
func BuildAllExportRows(dbConn *gorm.DB) ([][]string, error) {
	var projects []models.Project

	if err := dbConn.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}

	var rows [][]string

	for _, project := range projects {
		projectRows, err := BuildExportRows(dbConn, project.ID)

		if err != nil {
			return nil, err
		}

		for _, row := range projectRows {
			rows = append(rows, append([]string{project.Name}, row...))
		}
	}

	return rows, nil
}

// BuildExportRows flattens a project into export rows: one row per execution,
// and one execution-less row for test cases never run so the export still
// shows them.
func BuildExportRows(dbConn *gorm.DB, projectID uint) ([][]string, error) {
	testCases, err := store.ListTestCases(dbConn, projectID)

	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(testCases))

	for _, testCase := range testCases {
		var executions []models.TestExecution

		err := dbConn.Preload("Tester").
			Where("test_case_id = ?", testCase.ID).
			Order("executed_at ASC").
			Find(&executions).Error

		if err != nil {
			return nil, err
		}

		base := []string{
			testCase.Category,
			testCase.Feature,
			testCase.Description,
			strconv.Itoa(testCase.RequiredRuns),
			strconv.Itoa(len(executions)),
			testCase.Priority,
			testCase.Platform,
			testCase.Preconditions,
			testCase.Steps,
			testCase.ExpectedResult,
		}

		if len(executions) == 0 {
			row := append(append([]string{}, base...), "", "", "", "", "", "")
			rows = append(rows, row)
			continue
		}

		for _, execution := range executions {
			row := append(append([]string{}, base...),
				strconv.Itoa(execution.RunNumber),
				execution.Notes,
				execution.Defect,
				execution.Tester.Name,
				execution.Tester.Email,
				execution.ExecutedAt.UTC().Format(time.RFC3339),
			)
			rows = append(rows, row)
		}
	}

	return rows, nil
}
