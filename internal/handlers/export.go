package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/caseflow-dev/caseflow/db"
	"github.com/caseflow-dev/caseflow/internal/logger"
	"github.com/caseflow-dev/caseflow/internal/reports"
	"github.com/caseflow-dev/caseflow/internal/store"
	"github.com/caseflow-dev/caseflow/internal/utils"
)

// ExportReportsCSV streams every project's test cases and executions as one
// CSV attachment, each row prefixed with its project.
func ExportReportsCSV(ctx *gin.Context) {
	rows, err := reports.BuildAllExportRows(db.DB)

	if err != nil {
		respondStoreError(ctx, err, "Failed to build export")
		return
	}

	filename := fmt.Sprintf("caseflow-export-%s.csv", time.Now().UTC().Format("20060102"))

	ctx.Header("Content-Type", "text/csv")
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	ctx.Status(http.StatusOK)

	writer := csv.NewWriter(ctx.Writer)

	if err := writer.Write(reports.ExportAllHeader); err != nil {
		logger.Errorf("Failed to write export header: %v", err)
		return
	}

	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			logger.Errorf("Failed to write export row: %v", err)
			return
		}
	}

	writer.Flush()
}

// ExportProjectCSV streams a project's test cases and executions as a CSV
// attachment with the fixed export column schema.
func ExportProjectCSV(ctx *gin.Context) {
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

	rows, err := reports.BuildExportRows(db.DB, projectID)

	if err != nil {
		respondStoreError(ctx, err, "Failed to build export")
		return
	}

	filename := fmt.Sprintf("%s-export-%s.csv", project.Name, time.Now().UTC().Format("20060102"))

	ctx.Header("Content-Type", "text/csv")
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	ctx.Status(http.StatusOK)

	writer := csv.NewWriter(ctx.Writer)

	if err := writer.Write(reports.ExportHeader); err != nil {
		logger.Errorf("Failed to write export header: %v", err)
		return
	}

	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			logger.Errorf("Failed to write export row: %v", err)
			return
		}
	}

	writer.Flush()
}
