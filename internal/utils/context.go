package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/caseflow-dev/caseflow/internal/middleware"
	"github.com/caseflow-dev/caseflow/internal/policy"
	"github.com/caseflow-dev/caseflow/internal/types"
)

func GetCurrentUser(ctx *gin.Context) (middleware.AuthenticatedUser, error) {
	user, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return middleware.AuthenticatedUser{}, fmt.Errorf("User not authenticated")
	}

	authenticatedUser, ok := user.(middleware.AuthenticatedUser)

	if !ok {
		return middleware.AuthenticatedUser{}, fmt.Errorf("Invalid user type in context")
	}

	return authenticatedUser, nil
}

// CurrentSubject adapts the authenticated user for policy decisions.
func CurrentSubject(ctx *gin.Context) (policy.Subject, error) {
	user, err := GetCurrentUser(ctx)

	if err != nil {
		return policy.Subject{}, err
	}

	return policy.Subject{ID: user.ID, Role: user.Role}, nil
}
