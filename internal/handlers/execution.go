package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/caseflow-dev/caseflow/db"
	"github.com/caseflow-dev/caseflow/internal/logger"
	"github.com/caseflow-dev/caseflow/internal/metrics"
	"github.com/caseflow-dev/caseflow/internal/models"
	"github.com/caseflow-dev/caseflow/internal/policy"
	"github.com/caseflow-dev/caseflow/internal/services"
	"github.com/caseflow-dev/caseflow/internal/store"
	"github.com/caseflow-dev/caseflow/internal/utils"
)

type RecordExecutionRequest struct {
	Notes  string `json:"notes"`
	Defect string `json:"defect"`
}

type ExecutionResponse struct {
	ID         uint      `json:"id"`
	TestCaseID uint      `json:"test_case_id"`
	TesterID   uint      `json:"tester_id"`
	RunNumber  int       `json:"run_number"`
	Notes      string    `json:"notes"`
	Defect     string    `json:"defect"`
	Passed     bool      `json:"passed"`
	ExecutedAt time.Time `json:"executed_at"`
}

func toExecutionResponse(execution models.TestExecution) ExecutionResponse {
	return ExecutionResponse{
		ID:         execution.ID,
		TestCaseID: execution.TestCaseID,
		TesterID:   execution.TesterID,
		RunNumber:  execution.RunNumber,
		Notes:      execution.Notes,
		Defect:     execution.Defect,
		Passed:     execution.Passed(),
		ExecutedAt: execution.ExecutedAt,
	}
}

// RecordExecution appends one run for the current user. The per-tester
// ceiling applies to everyone, admins included.
func RecordExecution(ctx *gin.Context) {
	testCaseID, err := utils.GetTestCaseID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subject, err := utils.CurrentSubject(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body RecordExecutionRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	testCase, err := store.GetTestCase(db.DB, testCaseID)

	if err != nil {
		respondStoreError(ctx, err, "Failed to retrieve test case")
		return
	}

	allowed, err := policy.CanExecuteTestCase(db.DB, subject, testCase)

	if err != nil {
		respondStoreError(ctx, err, "Failed to check execution rights")
		return
	}

	if !allowed {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not assigned to this test case"})
		return
	}

	execution, err := store.RecordExecution(db.DB, testCase, subject.ID, body.Notes, body.Defect, time.Time{})

	if err != nil {
		respondStoreError(ctx, err, "Failed to record execution")
		return
	}

	metrics.RecordExecution(execution.Passed())
	BroadcastRefresh(strconv.FormatUint(uint64(testCase.ProjectID), 10))

	if !execution.Passed() {
		go notifyDefect(testCase, execution)
	}

	ctx.JSON(http.StatusCreated, gin.H{"execution": toExecutionResponse(execution)})
}

// notifyDefect posts the failed run to the configured chat webhooks.
// Best-effort: failures are logged, never surfaced to the tester.
func notifyDefect(testCase models.TestCase, execution models.TestExecution) {
	project, err := store.GetProject(db.DB, testCase.ProjectID)

	if err != nil {
		logger.Warnf("Failed to load project for defect notification: %v", err)
		return
	}

	tester, err := store.GetUser(db.DB, execution.TesterID)

	if err != nil {
		logger.Warnf("Failed to load tester for defect notification: %v", err)
		return
	}

	if err := services.SendDefectNotification(project, testCase, tester, execution); err != nil {
		logger.Warnf("Failed to send defect notification: %v", err)
	}
}

// ListExecutions returns a test case's history for anyone with project access.
func ListExecutions(ctx *gin.Context) {
	testCaseID, err := utils.GetTestCaseID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subject, err := utils.CurrentSubject(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	testCase, err := store.GetTestCase(db.DB, testCaseID)

	if err != nil {
		respondStoreError(ctx, err, "Failed to retrieve test case")
		return
	}

	allowed, err := policy.CanAccessProject(db.DB, subject, testCase.ProjectID)

	if err != nil {
		respondStoreError(ctx, err, "Failed to check project access")
		return
	}

	if !allowed {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "No access to this project"})
		return
	}

	executions, err := store.ListExecutions(db.DB, testCaseID)

	if err != nil {
		respondStoreError(ctx, err, "Failed to retrieve executions")
		return
	}

	response := make([]ExecutionResponse, 0, len(executions))

	for _, execution := range executions {
		response = append(response, toExecutionResponse(execution))
	}

	ctx.JSON(http.StatusOK, response)
}
