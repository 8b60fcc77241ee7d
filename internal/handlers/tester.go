package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caseflow-dev/caseflow/db"
	"github.com/caseflow-dev/caseflow/internal/store"
	"github.com/caseflow-dev/caseflow/internal/types"
	"github.com/caseflow-dev/caseflow/internal/utils"
)

type GrantTestersRequest struct {
	UserIDs []uint `json:"user_ids" binding:"required,min=1"`
}

// ListProjectTesters returns the users holding an access grant on a project.
func ListProjectTesters(ctx *gin.Context) {
	projectID, _, ok := requireProjectAccess(ctx)

	if !ok {
		return
	}

	testers, err := store.ListProjectTesters(db.DB, projectID)

	if err != nil {
		respondStoreError(ctx, err, "Failed to retrieve project testers")
		return
	}

	response := make([]types.UserResponse, 0, len(testers))

	for _, tester := range testers {
		response = append(response, types.UserResponse{
			ID:     tester.ID,
			Name:   tester.Name,
			Email:  tester.Email,
			Role:   tester.Role,
			Status: tester.Status,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

// GrantProjectTesters adds access grants. Duplicates are no-ops.
func GrantProjectTesters(ctx *gin.Context) {
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

	var body GrantTestersRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := store.GrantProjectAccess(db.DB, projectID, body.UserIDs, user.ID); err != nil {
		respondStoreError(ctx, err, "Failed to grant project access")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Project access granted"})
}

func RevokeProjectTester(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetUserIDParam(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := store.RevokeProjectAccess(db.DB, projectID, userID, actor.ID); err != nil {
		respondStoreError(ctx, err, "Failed to revoke project access")
		return
	}

	ctx.Status(http.StatusNoContent)
}
