package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caseflow-dev/caseflow/internal/logger"
	"github.com/caseflow-dev/caseflow/internal/store"
)

// respondStoreError maps store sentinel errors onto the HTTP taxonomy:
// 404 missing resource, 400 quota, 409 conflict, 400 guarded delete,
// 500 for anything else (logged, generic message to the client).
func respondStoreError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case errors.Is(err, store.ErrQuotaExceeded):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrDuplicateEmail):
		ctx.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
	case errors.Is(err, store.ErrHasAssignments):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Remove the user's test case assignments first"})
	default:
		logger.Errorf("%s: %v", fallback, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
