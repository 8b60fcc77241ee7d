package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/caseflow-dev/caseflow/internal/models"
	"github.com/caseflow-dev/caseflow/internal/types"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbConn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = dbConn.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectAccessGrant{},
		&models.TestCase{},
		&models.TestCaseAssignment{},
		&models.TestExecution{},
		&models.ActivityLog{},
	)
	require.NoError(t, err)

	return dbConn
}

func seedUser(t *testing.T, dbConn *gorm.DB, email, role string) models.User {
	t.Helper()

	user := models.User{Name: email, Email: email, PasswordHash: "x", Role: role, Status: types.StatusActive}
	require.NoError(t, dbConn.Create(&user).Error)
	return user
}

func seedProject(t *testing.T, dbConn *gorm.DB, name string, creatorID uint) models.Project {
	t.Helper()

	project := models.Project{Name: name, CreatedByID: creatorID, UpdatedByID: creatorID}
	require.NoError(t, dbConn.Create(&project).Error)
	return project
}

func seedTestCase(t *testing.T, dbConn *gorm.DB, projectID, actorID uint, feature string, requiredRuns int) models.TestCase {
	t.Helper()

	testCase := models.TestCase{
		ProjectID:    projectID,
		Category:     "Payments",
		Feature:      feature,
		RequiredRuns: requiredRuns,
		Priority:     "high",
		Platform:     "web",
		CreatedByID:  actorID,
		UpdatedByID:  actorID,
	}
	require.NoError(t, dbConn.Create(&testCase).Error)
	return testCase
}

func seedExecution(t *testing.T, dbConn *gorm.DB, testCaseID, testerID uint, runNumber int, defect string, executedAt time.Time) models.TestExecution {
	t.Helper()

	execution := models.TestExecution{
		TestCaseID: testCaseID,
		TesterID:   testerID,
		RunNumber:  runNumber,
		Defect:     defect,
		ExecutedAt: executedAt,
	}
	require.NoError(t, dbConn.Create(&execution).Error)
	return execution
}

func TestBuildProjectSummary(t *testing.T) {
	dbConn := setupTestDB(t)
	admin := seedUser(t, dbConn, "admin@example.com", types.RoleAdmin)
	tester := seedUser(t, dbConn, "t@example.com", types.RoleTester)

	project := seedProject(t, dbConn, "Checkout Flow", admin.ID)
	executed := seedTestCase(t, dbConn, project.ID, admin.ID, "Apply coupon", 2)
	seedTestCase(t, dbConn, project.ID, admin.ID, "Refund order", 2)

	now := time.Now().UTC()
	seedExecution(t, dbConn, executed.ID, tester.ID, 1, "", now)
	seedExecution(t, dbConn, executed.ID, tester.ID, 2, "discount applied twice", now)

	summary, err := BuildProjectSummary(dbConn, project)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalTestCases)
	assert.Equal(t, 1, summary.ExecutedCases)
	assert.Equal(t, 1, summary.NotExecutedCases)
	assert.Equal(t, 2, summary.TotalExecutions)
	assert.Equal(t, 1, summary.PassedExecutions)
	assert.Equal(t, 1, summary.FailedExecutions)
	assert.InDelta(t, 50, summary.CompletionRate, 0.001)
}

func TestBuildProjectSummaryEmptyProject(t *testing.T) {
	dbConn := setupTestDB(t)
	admin := seedUser(t, dbConn, "admin@example.com", types.RoleAdmin)
	project := seedProject(t, dbConn, "Empty", admin.ID)

	summary, err := BuildProjectSummary(dbConn, project)
	require.NoError(t, err)

	assert.Zero(t, summary.TotalTestCases)
	assert.Zero(t, summary.CompletionRate, "an empty project reports 0, not NaN")
}

func TestBuildTestCaseProgressCapsAtHundred(t *testing.T) {
	dbConn := setupTestDB(t)
	admin := seedUser(t, dbConn, "admin@example.com", types.RoleAdmin)
	testerA := seedUser(t, dbConn, "a@example.com", types.RoleTester)
	testerB := seedUser(t, dbConn, "b@example.com", types.RoleTester)

	project := seedProject(t, dbConn, "Checkout Flow", admin.ID)
	testCase := seedTestCase(t, dbConn, project.ID, admin.ID, "Apply coupon", 2)

	// Two testers each at their own ceiling: 4 runs against a required 2.
	now := time.Now().UTC()
	seedExecution(t, dbConn, testCase.ID, testerA.ID, 1, "", now)
	seedExecution(t, dbConn, testCase.ID, testerA.ID, 2, "", now)
	seedExecution(t, dbConn, testCase.ID, testerB.ID, 1, "bad total", now)
	seedExecution(t, dbConn, testCase.ID, testerB.ID, 2, "", now)

	progress, err := BuildTestCaseProgress(dbConn, project.ID)
	require.NoError(t, err)
	require.Len(t, progress, 1)

	assert.Equal(t, 4, progress[0].ExecutionsCount)
	assert.Equal(t, 3, progress[0].PassedCount)
	assert.Equal(t, 1, progress[0].FailedCount)
	assert.InDelta(t, 100, progress[0].CompletionRate, 0.001)
}

func TestBuildTesterSummaries(t *testing.T) {
	dbConn := setupTestDB(t)
	admin := seedUser(t, dbConn, "admin@example.com", types.RoleAdmin)
	active := seedUser(t, dbConn, "active@example.com", types.RoleTester)
	idle := seedUser(t, dbConn, "idle@example.com", types.RoleTester)
	seedUser(t, dbConn, "silent@example.com", types.RoleTester)

	project := seedProject(t, dbConn, "Checkout Flow", admin.ID)
	testCase := seedTestCase(t, dbConn, project.ID, admin.ID, "Apply coupon", 5)

	now := time.Now().UTC()
	seedExecution(t, dbConn, testCase.ID, active.ID, 1, "", now.Add(-time.Hour))
	seedExecution(t, dbConn, testCase.ID, active.ID, 2, "off by one", now.Add(-2*time.Hour))
	seedExecution(t, dbConn, testCase.ID, idle.ID, 1, "", now.AddDate(0, 0, -10))

	summaries, err := BuildTesterSummaries(dbConn, now)
	require.NoError(t, err)
	require.Len(t, summaries, 3, "admins are excluded")

	byEmail := make(map[string]TesterSummary, len(summaries))
	for _, summary := range summaries {
		byEmail[summary.Email] = summary
	}

	assert.True(t, byEmail["active@example.com"].Active)
	assert.Equal(t, 2, byEmail["active@example.com"].TotalExecutions)
	assert.Equal(t, 1, byEmail["active@example.com"].DefectCount)
	assert.Equal(t, 1, byEmail["active@example.com"].TestCasesRun)

	assert.False(t, byEmail["idle@example.com"].Active, "10 days old is outside the 7-day window")
	require.NotNil(t, byEmail["idle@example.com"].LastActivity)

	assert.False(t, byEmail["silent@example.com"].Active)
	assert.Nil(t, byEmail["silent@example.com"].LastActivity)
	assert.Zero(t, byEmail["silent@example.com"].TotalExecutions)
}

func TestBuildExecutionTrend(t *testing.T) {
	dbConn := setupTestDB(t)
	admin := seedUser(t, dbConn, "admin@example.com", types.RoleAdmin)
	tester := seedUser(t, dbConn, "t@example.com", types.RoleTester)

	project := seedProject(t, dbConn, "Checkout Flow", admin.ID)
	testCase := seedTestCase(t, dbConn, project.ID, admin.ID, "Apply coupon", 10)

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	seedExecution(t, dbConn, testCase.ID, tester.ID, 1, "", now.Add(-time.Hour))
	seedExecution(t, dbConn, testCase.ID, tester.ID, 2, "broken", now.Add(-2*time.Hour))
	seedExecution(t, dbConn, testCase.ID, tester.ID, 3, "", now.AddDate(0, 0, -1))
	// Outside the 7-day window entirely.
	seedExecution(t, dbConn, testCase.ID, tester.ID, 4, "", now.AddDate(0, 0, -20))

	points, err := BuildExecutionTrend(dbConn, project.ID, 7, now)
	require.NoError(t, err)
	require.Len(t, points, 7)

	assert.Equal(t, "2026-03-09", points[0].Date)
	assert.Equal(t, "2026-03-15", points[6].Date)

	assert.Equal(t, 2, points[6].Executions)
	assert.Equal(t, 1, points[6].Passed)
	assert.Equal(t, 1, points[6].Failed)

	assert.Equal(t, 1, points[5].Executions)

	for _, point := range points[:5] {
		assert.Zero(t, point.Executions, "empty days are zero-filled, not skipped")
	}
}

func TestBuildDefectRows(t *testing.T) {
	dbConn := setupTestDB(t)
	admin := seedUser(t, dbConn, "admin@example.com", types.RoleAdmin)
	tester := seedUser(t, dbConn, "t@example.com", types.RoleTester)

	project := seedProject(t, dbConn, "Checkout Flow", admin.ID)
	testCase := seedTestCase(t, dbConn, project.ID, admin.ID, "Apply coupon", 5)

	now := time.Now().UTC()
	seedExecution(t, dbConn, testCase.ID, tester.ID, 1, "", now.Add(-3*time.Hour))
	seedExecution(t, dbConn, testCase.ID, tester.ID, 2, "older failure", now.Add(-2*time.Hour))
	seedExecution(t, dbConn, testCase.ID, tester.ID, 3, "newer failure", now.Add(-time.Hour))

	rows, err := BuildDefectRows(dbConn, project.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2, "passed executions never appear")

	assert.Equal(t, "newer failure", rows[0].Defect)
	assert.Equal(t, "older failure", rows[1].Defect)
	assert.Equal(t, "Checkout Flow", rows[0].ProjectName)
	assert.Equal(t, "t@example.com", rows[0].TesterEmail)
}

func TestBuildExportRows(t *testing.T) {
	dbConn := setupTestDB(t)
	admin := seedUser(t, dbConn, "admin@example.com", types.RoleAdmin)
	tester := seedUser(t, dbConn, "t@example.com", types.RoleTester)

	project := seedProject(t, dbConn, "Checkout Flow", admin.ID)
	executed := seedTestCase(t, dbConn, project.ID, admin.ID, "Apply coupon", 2)
	seedTestCase(t, dbConn, project.ID, admin.ID, "Refund order", 3)

	seedExecution(t, dbConn, executed.ID, tester.ID, 1, "wrong total", time.Now().UTC())

	rows, err := BuildExportRows(dbConn, project.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	for _, row := range rows {
		assert.Len(t, row, len(ExportHeader))
	}

	byFeature := map[string][]string{rows[0][1]: rows[0], rows[1][1]: rows[1]}

	executedRow := byFeature["Apply coupon"]
	require.NotNil(t, executedRow)
	assert.Equal(t, "1", executedRow[10], "run_number")
	assert.Equal(t, "wrong total", executedRow[12], "defect")
	assert.Equal(t, "t@example.com", executedRow[14], "tester_email")

	neverRun := byFeature["Refund order"]
	require.NotNil(t, neverRun)
	assert.Equal(t, "0", neverRun[4], "executions_count")
	for _, cell := range neverRun[10:] {
		assert.Empty(t, cell, "never-run cases export an empty execution tail")
	}
}

func TestBuildAllExportRows(t *testing.T) {
	dbConn := setupTestDB(t)
	admin := seedUser(t, dbConn, "admin@example.com", types.RoleAdmin)
	tester := seedUser(t, dbConn, "t@example.com", types.RoleTester)

	checkout := seedProject(t, dbConn, "Checkout Flow", admin.ID)
	onboarding := seedProject(t, dbConn, "Onboarding", admin.ID)

	executed := seedTestCase(t, dbConn, checkout.ID, admin.ID, "Apply coupon", 2)
	seedTestCase(t, dbConn, onboarding.ID, admin.ID, "Signup form", 1)

	seedExecution(t, dbConn, executed.ID, tester.ID, 1, "", time.Now().UTC())

	rows, err := BuildAllExportRows(dbConn)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "project", ExportAllHeader[0])
	assert.Len(t, ExportAllHeader, len(ExportHeader)+1)

	projectNames := make(map[string]bool)
	for _, row := range rows {
		require.Len(t, row, len(ExportAllHeader))
		projectNames[row[0]] = true
	}
	assert.True(t, projectNames["Checkout Flow"])
	assert.True(t, projectNames["Onboarding"])
}
