package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/caseflow-dev/caseflow/db"
	"github.com/caseflow-dev/caseflow/internal/models"
	"github.com/caseflow-dev/caseflow/internal/reports"
	"github.com/caseflow-dev/caseflow/internal/store"
)

// trendDays reads the days query parameter, allowing only the 7- and 30-day
// windows.
func trendDays(ctx *gin.Context) int {
	if ctx.Query("days") == "30" {
		return 30
	}
	return 7
}

// GetReportsOverview returns a summary per project plus the global execution
// trend.
func GetReportsOverview(ctx *gin.Context) {
	var projects []models.Project

	if err := db.DB.Order("created_at DESC").Find(&projects).Error; err != nil {
		respondStoreError(ctx, err, "Failed to retrieve projects")
		return
	}

	summaries := make([]reports.ProjectSummary, 0, len(projects))

	for _, project := range projects {
		summary, err := reports.BuildProjectSummary(db.DB, project)

		if err != nil {
			respondStoreError(ctx, err, "Failed to build project summary")
			return
		}

		summaries = append(summaries, summary)
	}

	trend, err := reports.BuildExecutionTrend(db.DB, 0, trendDays(ctx), time.Now())

	if err != nil {
		respondStoreError(ctx, err, "Failed to build execution trend")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"projects": summaries,
		"trend":    trend,
	})
}

// GetTestCasesReport returns per-case progress for the project named by the
// required project_id query parameter.
func GetTestCasesReport(ctx *gin.Context) {
	projectIDStr := ctx.Query("project_id")

	if projectIDStr == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "project_id query parameter is required"})
		return
	}

	projectID, err := strconv.ParseUint(projectIDStr, 10, 32)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project_id"})
		return
	}

	if _, err := store.GetProject(db.DB, uint(projectID)); err != nil {
		respondStoreError(ctx, err, "Failed to retrieve project")
		return
	}

	progress, err := reports.BuildTestCaseProgress(db.DB, uint(projectID))

	if err != nil {
		respondStoreError(ctx, err, "Failed to build test case report")
		return
	}

	ctx.JSON(http.StatusOK, progress)
}

func GetTestersReport(ctx *gin.Context) {
	summaries, err := reports.BuildTesterSummaries(db.DB, time.Now())

	if err != nil {
		respondStoreError(ctx, err, "Failed to build tester report")
		return
	}

	ctx.JSON(http.StatusOK, summaries)
}

// GetIssuesReport lists failed executions; project_id query scopes it.
func GetIssuesReport(ctx *gin.Context) {
	var projectID uint64

	if raw := ctx.Query("project_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)

		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project_id"})
			return
		}

		projectID = parsed
	}

	rows, err := reports.BuildDefectRows(db.DB, uint(projectID))

	if err != nil {
		respondStoreError(ctx, err, "Failed to build issues report")
		return
	}

	ctx.JSON(http.StatusOK, rows)
}

type ActivityEntry struct {
	ID         uint      `json:"id"`
	UserID     uint      `json:"user_id"`
	UserName   string    `json:"user_name"`
	Action     string    `json:"action"`
	TargetType string    `json:"target_type"`
	TargetID   uint      `json:"target_id"`
	Metadata   string    `json:"metadata,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func GetActivityFeed(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))

	entries, err := store.RecentActivity(db.DB, limit)

	if err != nil {
		respondStoreError(ctx, err, "Failed to retrieve activity feed")
		return
	}

	response := make([]ActivityEntry, 0, len(entries))

	for _, entry := range entries {
		response = append(response, ActivityEntry{
			ID:         entry.ID,
			UserID:     entry.UserID,
			UserName:   entry.User.Name,
			Action:     entry.Action,
			TargetType: entry.TargetType,
			TargetID:   entry.TargetID,
			Metadata:   string(entry.Metadata),
			CreatedAt:  entry.CreatedAt,
		})
	}

	ctx.JSON(http.StatusOK, response)
}
