package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caseflow-dev/caseflow/db"
	"github.com/caseflow-dev/caseflow/internal/policy"
	"github.com/caseflow-dev/caseflow/internal/reports"
	"github.com/caseflow-dev/caseflow/internal/store"
	"github.com/caseflow-dev/caseflow/internal/utils"
)

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type ProjectResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedByID uint   `json:"created_by_id"`
}

func CreateProject(ctx *gin.Context) {
	var body CreateProjectRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, err := store.CreateProject(db.DB, body.Name, body.Description, user.ID)

	if err != nil {
		respondStoreError(ctx, err, "Failed to create project")
		return
	}

	ctx.JSON(http.StatusCreated, ProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		CreatedByID: project.CreatedByID,
	})
}

func ListProjects(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projects, err := store.ListProjectsFor(db.DB, user.ID, user.IsAdmin())

	if err != nil {
		respondStoreError(ctx, err, "Failed to retrieve projects")
		return
	}

	response := make([]ProjectResponse, 0, len(projects))

	for _, project := range projects {
		response = append(response, ProjectResponse{
			ID:          project.ID,
			Name:        project.Name,
			Description: project.Description,
			CreatedByID: project.CreatedByID,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

// requireProjectAccess loads the project and enforces the access policy.
// Responds and returns false on any failure.
func requireProjectAccess(ctx *gin.Context) (projectID uint, subject policy.Subject, ok bool) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, subject, false
	}

	subject, err = utils.CurrentSubject(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return 0, subject, false
	}

	if _, err := store.GetProject(db.DB, projectID); err != nil {
		respondStoreError(ctx, err, "Failed to retrieve project")
		return 0, subject, false
	}

	allowed, err := policy.CanAccessProject(db.DB, subject, projectID)

	if err != nil {
		respondStoreError(ctx, err, "Failed to check project access")
		return 0, subject, false
	}

	if !allowed {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "No access to this project"})
		return 0, subject, false
	}

	return projectID, subject, true
}

func GetProject(ctx *gin.Context) {
	projectID, _, ok := requireProjectAccess(ctx)

	if !ok {
		return
	}

	project, err := store.GetProject(db.DB, projectID)

	if err != nil {
		respondStoreError(ctx, err, "Failed to retrieve project")
		return
	}

	ctx.JSON(http.StatusOK, ProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		CreatedByID: project.CreatedByID,
	})
}

func UpdateProject(ctx *gin.Context) {
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

	var body UpdateProjectRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	project, err := store.UpdateProject(db.DB, projectID, body.Name, body.Description, user.ID)

	if err != nil {
		respondStoreError(ctx, err, "Failed to update project")
		return
	}

	ctx.JSON(http.StatusOK, ProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		CreatedByID: project.CreatedByID,
	})
}

func DeleteProject(ctx *gin.Context) {
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

	if err := store.DeleteProject(db.DB, projectID, user.ID); err != nil {
		respondStoreError(ctx, err, "Failed to delete project")
		return
	}

	ctx.Status(http.StatusNoContent)
}

func GetProjectStats(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := store.GetProject(db.DB, projectID)

	if err != nil {
		respondStoreError(ctx, err, "Failed to retrieve project")
		return
	}

	summary, err := reports.BuildProjectSummary(db.DB, project)

	if err != nil {
		respondStoreError(ctx, err, "Failed to build project stats")
		return
	}

	progress, err := reports.BuildTestCaseProgress(db.DB, projectID)

	if err != nil {
		respondStoreError(ctx, err, "Failed to build test case progress")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"summary":    summary,
		"test_cases": progress,
	})
}
