package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/caseflow-dev/caseflow/db"
	"github.com/caseflow-dev/caseflow/internal/logger"
	"github.com/caseflow-dev/caseflow/internal/models"
	"github.com/caseflow-dev/caseflow/internal/store"
	"github.com/caseflow-dev/caseflow/internal/types"
	"github.com/caseflow-dev/caseflow/internal/utils"
)

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`
}

type UpdateUserRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email" binding:"omitempty,email"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	NewPassword string `json:"new_password" binding:"omitempty,min=8"`
}

func toUserResponse(user models.User) types.UserResponse {
	return types.UserResponse{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		Status: user.Status,
	}
}

// CreateUser registers a tester or admin account. Admin-only; there is no
// self-registration.
func CreateUser(ctx *gin.Context) {
	actor, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateUserRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !types.ValidRole(body.Role) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)

	if err != nil {
		logger.Errorf("Failed to hash password: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	user := models.User{
		Name:         strings.TrimSpace(body.Name),
		Email:        body.Email,
		PasswordHash: string(passwordHash),
		Role:         body.Role,
		Status:       types.StatusActive,
	}

	if err := store.CreateUser(db.DB, &user, actor.ID); err != nil {
		respondStoreError(ctx, err, "Failed to create user")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"user": toUserResponse(user)})
}

func ListUsers(ctx *gin.Context) {
	users, err := store.ListUsers(db.DB)

	if err != nil {
		respondStoreError(ctx, err, "Failed to retrieve users")
		return
	}

	response := make([]types.UserResponse, 0, len(users))

	for _, user := range users {
		response = append(response, toUserResponse(user))
	}

	ctx.JSON(http.StatusOK, response)
}

// UpdateUser edits name, email, role, status or password. Role changes go
// through here only, so testers can never promote themselves.
func UpdateUser(ctx *gin.Context) {
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

	var body UpdateUserRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates := make(map[string]interface{})

	if body.Name != "" {
		updates["name"] = strings.TrimSpace(body.Name)
	}

	if body.Email != "" {
		updates["email"] = body.Email
	}

	if body.Role != "" {
		if !types.ValidRole(body.Role) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
			return
		}
		updates["role"] = body.Role
	}

	if body.Status != "" {
		if body.Status != types.StatusActive && body.Status != types.StatusInactive {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		updates["status"] = body.Status
	}

	if body.NewPassword != "" {
		passwordHash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)

		if err != nil {
			logger.Errorf("Failed to hash password: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		updates["password_hash"] = string(passwordHash)
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	user, err := store.UpdateUser(db.DB, userID, updates, actor.ID)

	if err != nil {
		respondStoreError(ctx, err, "Failed to update user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

// DeleteUser removes an account. Refused while the user still holds test case
// assignments.
func DeleteUser(ctx *gin.Context) {
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

	if userID == actor.ID {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete your own account"})
		return
	}

	if err := store.DeleteUser(db.DB, userID, actor.ID); err != nil {
		respondStoreError(ctx, err, "Failed to delete user")
		return
	}

	ctx.Status(http.StatusNoContent)
}
