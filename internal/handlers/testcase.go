package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/caseflow-dev/caseflow/db"
	"github.com/caseflow-dev/caseflow/internal/models"
	"github.com/caseflow-dev/caseflow/internal/store"
	"github.com/caseflow-dev/caseflow/internal/types"
	"github.com/caseflow-dev/caseflow/internal/utils"
)

type TestCaseRequest struct {
	Category       string `json:"category" binding:"required"`
	Feature        string `json:"feature" binding:"required"`
	Description    string `json:"description"`
	RequiredRuns   int    `json:"required_runs" binding:"required,min=1"`
	Priority       string `json:"priority" binding:"required"`
	Platform       string `json:"platform" binding:"required"`
	Preconditions  string `json:"preconditions"`
	Steps          string `json:"steps"`
	ExpectedResult string `json:"expected_result"`
}

type AssignmentsRequest struct {
	UserIDs []uint `json:"user_ids" binding:"required"`
}

type TestCaseResponse struct {
	ID             uint      `json:"id"`
	ProjectID      uint      `json:"project_id"`
	Category       string    `json:"category"`
	Feature        string    `json:"feature"`
	Description    string    `json:"description"`
	RequiredRuns   int       `json:"required_runs"`
	Priority       string    `json:"priority"`
	Platform       string    `json:"platform"`
	Preconditions  string    `json:"preconditions"`
	Steps          string    `json:"steps"`
	ExpectedResult string    `json:"expected_result"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toTestCaseResponse(testCase models.TestCase) TestCaseResponse {
	return TestCaseResponse{
		ID:             testCase.ID,
		ProjectID:      testCase.ProjectID,
		Category:       testCase.Category,
		Feature:        testCase.Feature,
		Description:    testCase.Description,
		RequiredRuns:   testCase.RequiredRuns,
		Priority:       testCase.Priority,
		Platform:       testCase.Platform,
		Preconditions:  testCase.Preconditions,
		Steps:          testCase.Steps,
		ExpectedResult: testCase.ExpectedResult,
		CreatedAt:      testCase.CreatedAt,
		UpdatedAt:      testCase.UpdatedAt,
	}
}

func (r TestCaseRequest) validate() string {
	if !types.ValidPriority(r.Priority) {
		return "Invalid priority"
	}
	if !types.ValidPlatform(r.Platform) {
		return "Invalid platform"
	}
	return ""
}

func CreateTestCase(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body TestCaseRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if msg := body.validate(); msg != "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	testCase := models.TestCase{
		ProjectID:      projectID,
		Category:       body.Category,
		Feature:        body.Feature,
		Description:    body.Description,
		RequiredRuns:   body.RequiredRuns,
		Priority:       body.Priority,
		Platform:       body.Platform,
		Preconditions:  body.Preconditions,
		Steps:          body.Steps,
		ExpectedResult: body.ExpectedResult,
		CreatedByID:    user.ID,
		UpdatedByID:    user.ID,
	}

	if err := store.CreateTestCase(db.DB, &testCase); err != nil {
		respondStoreError(ctx, err, "Failed to create test case")
		return
	}

	ctx.JSON(http.StatusCreated, toTestCaseResponse(testCase))
}

func ListTestCases(ctx *gin.Context) {
	projectID, _, ok := requireProjectAccess(ctx)

	if !ok {
		return
	}

	testCases, err := store.ListTestCases(db.DB, projectID)

	if err != nil {
		respondStoreError(ctx, err, "Failed to retrieve test cases")
		return
	}

	response := make([]TestCaseResponse, 0, len(testCases))

	for _, testCase := range testCases {
		response = append(response, toTestCaseResponse(testCase))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetTestCase(ctx *gin.Context) {
	projectID, _, ok := requireProjectAccess(ctx)

	if !ok {
		return
	}

	testCaseID, err := utils.GetTestCaseID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	testCase, err := store.GetProjectTestCase(db.DB, projectID, testCaseID)

	if err != nil {
		respondStoreError(ctx, err, "Failed to retrieve test case")
		return
	}

	ctx.JSON(http.StatusOK, toTestCaseResponse(testCase))
}

func UpdateTestCase(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	testCaseID, err := utils.GetTestCaseID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body TestCaseRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if msg := body.validate(); msg != "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	testCase, err := store.GetProjectTestCase(db.DB, projectID, testCaseID)

	if err != nil {
		respondStoreError(ctx, err, "Failed to retrieve test case")
		return
	}

	testCase.Category = body.Category
	testCase.Feature = body.Feature
	testCase.Description = body.Description
	testCase.RequiredRuns = body.RequiredRuns
	testCase.Priority = body.Priority
	testCase.Platform = body.Platform
	testCase.Preconditions = body.Preconditions
	testCase.Steps = body.Steps
	testCase.ExpectedResult = body.ExpectedResult

	if err := store.UpdateTestCase(db.DB, &testCase, user.ID); err != nil {
		respondStoreError(ctx, err, "Failed to update test case")
		return
	}

	ctx.JSON(http.StatusOK, toTestCaseResponse(testCase))
}

func DeleteTestCase(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	testCaseID, err := utils.GetTestCaseID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if _, err := store.GetProjectTestCase(db.DB, projectID, testCaseID); err != nil {
		respondStoreError(ctx, err, "Failed to retrieve test case")
		return
	}

	if err := store.DeleteTestCase(db.DB, testCaseID, user.ID); err != nil {
		respondStoreError(ctx, err, "Failed to delete test case")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// SetTestCaseAssignments replaces the assignment set wholesale.
func SetTestCaseAssignments(ctx *gin.Context) {
	testCaseID, err := utils.GetTestCaseID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body AssignmentsRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := store.SetAssignments(db.DB, testCaseID, body.UserIDs, user.ID); err != nil {
		respondStoreError(ctx, err, "Failed to set assignments")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Assignments replaced"})
}

// GrantTestCaseAssignments adds assignments without removing existing ones.
func GrantTestCaseAssignments(ctx *gin.Context) {
	testCaseID, err := utils.GetTestCaseID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body AssignmentsRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := store.GrantAssignments(db.DB, testCaseID, body.UserIDs, user.ID); err != nil {
		respondStoreError(ctx, err, "Failed to grant assignments")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Assignments granted"})
}

func ListTestCaseAssignees(ctx *gin.Context) {
	testCaseID, err := utils.GetTestCaseID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := store.GetTestCase(db.DB, testCaseID); err != nil {
		respondStoreError(ctx, err, "Failed to retrieve test case")
		return
	}

	assignees, err := store.ListAssignees(db.DB, testCaseID)

	if err != nil {
		respondStoreError(ctx, err, "Failed to retrieve assignees")
		return
	}

	response := make([]types.UserResponse, 0, len(assignees))

	for _, assignee := range assignees {
		response = append(response, types.UserResponse{
			ID:     assignee.ID,
			Name:   assignee.Name,
			Email:  assignee.Email,
			Role:   assignee.Role,
			Status: assignee.Status,
		})
	}

	ctx.JSON(http.StatusOK, response)
}
