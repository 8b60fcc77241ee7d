package reports

import (
	"time"

	"gorm.io/gorm"

	"github.com/caseflow-dev/caseflow/internal/models"
)

type TrendPoint struct {
	Date       string `json:"date"` // YYYY-MM-DD, UTC day boundary
	Executions int    `json:"executions"`
	Passed     int    `json:"passed"`
	Failed     int    `json:"failed"`
}

// BuildExecutionTrend buckets executions per UTC calendar day over the
// trailing window, zero-filling days with no activity. projectID 0 means all
// projects. Bucketing happens in Go so the query stays dialect-neutral.
func BuildExecutionTrend(dbConn *gorm.DB, projectID uint, days int, now time.Time) ([]TrendPoint, error) {
	if days != 30 {
		days = 7
	}

	now = now.UTC()
	windowStart := now.Truncate(24 * time.Hour).AddDate(0, 0, -(days - 1))

	query := dbConn.Model(&models.TestExecution{}).
		Where("test_executions.executed_at >= ?", windowStart)

	if projectID != 0 {
		query = query.
			Joins("JOIN test_cases ON test_cases.id = test_executions.test_case_id").
			Where("test_cases.project_id = ? AND test_cases.deleted_at IS NULL", projectID)
	}

	var executions []models.TestExecution

	if err := query.Select("test_executions.executed_at, test_executions.defect").Find(&executions).Error; err != nil {
		return nil, err
	}

	type bucket struct {
		total  int
		passed int
	}

	buckets := make(map[string]bucket, days)

	for _, execution := range executions {
		day := execution.ExecutedAt.UTC().Format("2006-01-02")
		b := buckets[day]
		b.total++
		if execution.Passed() {
			b.passed++
		}
		buckets[day] = b
	}

	points := make([]TrendPoint, 0, days)

	for i := 0; i < days; i++ {
		day := windowStart.AddDate(0, 0, i).Format("2006-01-02")
		b := buckets[day]

		points = append(points, TrendPoint{
			Date:       day,
			Executions: b.total,
			Passed:     b.passed,
			Failed:     b.total - b.passed,
		})
	}

	return points, nil
}
