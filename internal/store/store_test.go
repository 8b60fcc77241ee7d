package store

import (
	"path/filepath"
	"sync"
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
	return openTestDB(t, ":memory:")
}

func openTestDB(t *testing.T, dsn string) *gorm.DB {
	t.Helper()

	dbConn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
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

	user := models.User{
		Name:         email,
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		Status:       types.StatusActive,
	}
	require.NoError(t, dbConn.Create(&user).Error)
	return user
}

func seedTestCase(t *testing.T, dbConn *gorm.DB, projectID, actorID uint, requiredRuns int) models.TestCase {
	t.Helper()

	testCase := models.TestCase{
		ProjectID:    projectID,
		Category:     "Payments",
		Feature:      "Apply coupon",
		RequiredRuns: requiredRuns,
		Priority:     "high",
		Platform:     "web",
		CreatedByID:  actorID,
		UpdatedByID:  actorID,
	}
	require.NoError(t, dbConn.Create(&testCase).Error)
	return testCase
}

func TestProjectRoundTrip(t *testing.T) {
	dbConn := setupTestDB(t)
	admin := seedUser(t, dbConn, "admin@example.com", types.RoleAdmin)

	created, err := CreateProject(dbConn, "Checkout Flow", "coupons and payments", admin.ID)
	require.NoError(t, err)

	fetched, err := GetProject(dbConn, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Checkout Flow", fetched.Name)
	assert.Equal(t, "coupons and payments", fetched.Description)

	require.NoError(t, DeleteProject(dbConn, created.ID, admin.ID))

	_, err = GetProject(dbConn, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordExecutionQuota(t *testing.T) {
	dbConn := setupTestDB(t)
	admin := seedUser(t, dbConn, "admin@example.com", types.RoleAdmin)
	testerA := seedUser(t, dbConn, "a@example.com", types.RoleTester)
	testerB := seedUser(t, dbConn, "b@example.com", types.RoleTester)

	project, err := CreateProject(dbConn, "Checkout Flow", "", admin.ID)
	require.NoError(t, err)

	testCase := seedTestCase(t, dbConn, project.ID, admin.ID, 2)

	first, err := RecordExecution(dbConn, testCase, testerA.ID, "looks good", "", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.RunNumber)
	assert.True(t, first.Passed())

	second, err := RecordExecution(dbConn, testCase, testerA.ID, "", "coupon applied twice", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, second.RunNumber)
	assert.False(t, second.Passed())

	_, err = RecordExecution(dbConn, testCase, testerA.ID, "", "", time.Time{})
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	// The ceiling is per tester; another tester starts at run 1.
	other, err := RecordExecution(dbConn, testCase, testerB.ID, "", "", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, other.RunNumber)
}

func TestRecordExecutionConcurrentCeiling(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "quota.db") + "?_busy_timeout=5000"
	dbConn := openTestDB(t, dsn)

	admin := seedUser(t, dbConn, "admin@example.com", types.RoleAdmin)
	tester := seedUser(t, dbConn, "t@example.com", types.RoleTester)

	project, err := CreateProject(dbConn, "Checkout Flow", "", admin.ID)
	require.NoError(t, err)

	testCase := seedTestCase(t, dbConn, project.ID, admin.ID, 2)

	// Hammer the same (test case, tester) pair; whatever the interleaving,
	// the committed rows must never exceed the ceiling.
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = RecordExecution(dbConn, testCase, tester.ID, "", "", time.Time{})
		}()
	}
	wg.Wait()

	var count int64
	require.NoError(t, dbConn.Model(&models.TestExecution{}).
		Where("test_case_id = ? AND tester_id = ?", testCase.ID, tester.ID).
		Count(&count).Error)

	assert.Positive(t, count)
	assert.LessOrEqual(t, count, int64(2))
}

func TestGrantProjectAccessIdempotent(t *testing.T) {
	dbConn := setupTestDB(t)
	admin := seedUser(t, dbConn, "admin@example.com", types.RoleAdmin)
	tester := seedUser(t, dbConn, "t@example.com", types.RoleTester)

	project, err := CreateProject(dbConn, "Checkout Flow", "", admin.ID)
	require.NoError(t, err)

	// Duplicate ids in one call and a repeated call both collapse to one row.
	require.NoError(t, GrantProjectAccess(dbConn, project.ID, []uint{tester.ID, tester.ID}, admin.ID))
	require.NoError(t, GrantProjectAccess(dbConn, project.ID, []uint{tester.ID}, admin.ID))

	var count int64
	require.NoError(t, dbConn.Model(&models.ProjectAccessGrant{}).
		Where("user_id = ? AND project_id = ?", tester.ID, project.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)

	testers, err := ListProjectTesters(dbConn, project.ID)
	require.NoError(t, err)
	require.Len(t, testers, 1)
	assert.Equal(t, tester.ID, testers[0].ID)
}

func TestRevokeProjectAccess(t *testing.T) {
	dbConn := setupTestDB(t)
	admin := seedUser(t, dbConn, "admin@example.com", types.RoleAdmin)
	tester := seedUser(t, dbConn, "t@example.com", types.RoleTester)

	project, err := CreateProject(dbConn, "Checkout Flow", "", admin.ID)
	require.NoError(t, err)

	require.NoError(t, GrantProjectAccess(dbConn, project.ID, []uint{tester.ID}, admin.ID))
	require.NoError(t, RevokeProjectAccess(dbConn, project.ID, tester.ID, admin.ID))

	assert.ErrorIs(t, RevokeProjectAccess(dbConn, project.ID, tester.ID, admin.ID), ErrNotFound)

	// Revoke then re-grant must work despite the unique index.
	require.NoError(t, GrantProjectAccess(dbConn, project.ID, []uint{tester.ID}, admin.ID))
}

func TestSetVersusGrantAssignments(t *testing.T) {
	dbConn := setupTestDB(t)
	admin := seedUser(t, dbConn, "admin@example.com", types.RoleAdmin)
	u1 := seedUser(t, dbConn, "u1@example.com", types.RoleTester)
	u2 := seedUser(t, dbConn, "u2@example.com", types.RoleTester)
	u3 := seedUser(t, dbConn, "u3@example.com", types.RoleTester)

	project, err := CreateProject(dbConn, "Checkout Flow", "", admin.ID)
	require.NoError(t, err)

	testCase := seedTestCase(t, dbConn, project.ID, admin.ID, 1)

	require.NoError(t, GrantAssignments(dbConn, testCase.ID, []uint{u1.ID}, admin.ID))

	// Set replaces wholesale.
	require.NoError(t, SetAssignments(dbConn, testCase.ID, []uint{u2.ID, u3.ID}, admin.ID))

	assignees, err := ListAssignees(dbConn, testCase.ID)
	require.NoError(t, err)
	require.Len(t, assignees, 2)

	ids := []uint{assignees[0].ID, assignees[1].ID}
	assert.NotContains(t, ids, u1.ID)

	// Grant adds without removing, and duplicates are no-ops.
	require.NoError(t, GrantAssignments(dbConn, testCase.ID, []uint{u1.ID, u2.ID}, admin.ID))

	assignees, err = ListAssignees(dbConn, testCase.ID)
	require.NoError(t, err)
	assert.Len(t, assignees, 3)
}

func TestDeleteTestCaseCascades(t *testing.T) {
	dbConn := setupTestDB(t)
	admin := seedUser(t, dbConn, "admin@example.com", types.RoleAdmin)
	tester := seedUser(t, dbConn, "t@example.com", types.RoleTester)

	project, err := CreateProject(dbConn, "Checkout Flow", "", admin.ID)
	require.NoError(t, err)

	testCase := seedTestCase(t, dbConn, project.ID, admin.ID, 3)

	require.NoError(t, GrantAssignments(dbConn, testCase.ID, []uint{tester.ID}, admin.ID))

	_, err = RecordExecution(dbConn, testCase, tester.ID, "", "", time.Time{})
	require.NoError(t, err)

	require.NoError(t, DeleteTestCase(dbConn, testCase.ID, admin.ID))

	var executions, assignments int64
	require.NoError(t, dbConn.Model(&models.TestExecution{}).Where("test_case_id = ?", testCase.ID).Count(&executions).Error)
	require.NoError(t, dbConn.Model(&models.TestCaseAssignment{}).Where("test_case_id = ?", testCase.ID).Count(&assignments).Error)
	assert.Zero(t, executions)
	assert.Zero(t, assignments)

	_, err = GetTestCase(dbConn, testCase.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProjectCascades(t *testing.T) {
	dbConn := setupTestDB(t)
	admin := seedUser(t, dbConn, "admin@example.com", types.RoleAdmin)
	tester := seedUser(t, dbConn, "t@example.com", types.RoleTester)

	project, err := CreateProject(dbConn, "Checkout Flow", "", admin.ID)
	require.NoError(t, err)

	testCase := seedTestCase(t, dbConn, project.ID, admin.ID, 2)

	require.NoError(t, GrantProjectAccess(dbConn, project.ID, []uint{tester.ID}, admin.ID))
	require.NoError(t, GrantAssignments(dbConn, testCase.ID, []uint{tester.ID}, admin.ID))

	_, err = RecordExecution(dbConn, testCase, tester.ID, "", "broken", time.Time{})
	require.NoError(t, err)

	require.NoError(t, DeleteProject(dbConn, project.ID, admin.ID))

	var cases, executions, assignments, grants int64
	require.NoError(t, dbConn.Model(&models.TestCase{}).Where("project_id = ?", project.ID).Count(&cases).Error)
	require.NoError(t, dbConn.Model(&models.TestExecution{}).Where("test_case_id = ?", testCase.ID).Count(&executions).Error)
	require.NoError(t, dbConn.Model(&models.TestCaseAssignment{}).Where("test_case_id = ?", testCase.ID).Count(&assignments).Error)
	require.NoError(t, dbConn.Model(&models.ProjectAccessGrant{}).Where("project_id = ?", project.ID).Count(&grants).Error)

	assert.Zero(t, cases)
	assert.Zero(t, executions)
	assert.Zero(t, assignments)
	assert.Zero(t, grants)
}

func TestDeleteUserBlockedByAssignments(t *testing.T) {
	dbConn := setupTestDB(t)
	admin := seedUser(t, dbConn, "admin@example.com", types.RoleAdmin)
	tester := seedUser(t, dbConn, "t@example.com", types.RoleTester)

	project, err := CreateProject(dbConn, "Checkout Flow", "", admin.ID)
	require.NoError(t, err)

	testCase := seedTestCase(t, dbConn, project.ID, admin.ID, 1)
	require.NoError(t, GrantAssignments(dbConn, testCase.ID, []uint{tester.ID}, admin.ID))

	// Blocked even though no execution was ever recorded.
	assert.ErrorIs(t, DeleteUser(dbConn, tester.ID, admin.ID), ErrHasAssignments)

	require.NoError(t, SetAssignments(dbConn, testCase.ID, nil, admin.ID))
	require.NoError(t, DeleteUser(dbConn, tester.ID, admin.ID))

	_, err = GetUser(dbConn, tester.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	dbConn := setupTestDB(t)
	admin := seedUser(t, dbConn, "admin@example.com", types.RoleAdmin)

	user := models.User{Name: "A", Email: "Dup@Example.com", PasswordHash: "x", Role: types.RoleTester, Status: types.StatusActive}
	require.NoError(t, CreateUser(dbConn, &user, admin.ID))
	assert.Equal(t, "dup@example.com", user.Email, "emails are stored lowercase")

	duplicate := models.User{Name: "B", Email: "dup@example.COM", PasswordHash: "x", Role: types.RoleTester, Status: types.StatusActive}
	assert.ErrorIs(t, CreateUser(dbConn, &duplicate, admin.ID), ErrDuplicateEmail)
}

func TestGetUserByEmailNormalizesLookup(t *testing.T) {
	dbConn := setupTestDB(t)
	admin := seedUser(t, dbConn, "admin@example.com", types.RoleAdmin)

	user := models.User{Name: "Seed", Email: "Seed@Example.com", PasswordHash: "x", Role: types.RoleAdmin, Status: types.StatusActive}
	require.NoError(t, CreateUser(dbConn, &user, admin.ID))

	// Any casing on either side of the lookup must resolve to the same row.
	found, err := GetUserByEmail(dbConn, "seed@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	found, err = GetUserByEmail(dbConn, "Seed@Example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}

func TestActivityFeedRecordsMutations(t *testing.T) {
	dbConn := setupTestDB(t)
	admin := seedUser(t, dbConn, "admin@example.com", types.RoleAdmin)

	project, err := CreateProject(dbConn, "Checkout Flow", "", admin.ID)
	require.NoError(t, err)

	updated, err := UpdateProject(dbConn, project.ID, "Checkout", "renamed", admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "Checkout", updated.Name)

	entries, err := RecentActivity(dbConn, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "project.updated", entries[0].Action)
	assert.Equal(t, "project.created", entries[1].Action)
	assert.Equal(t, admin.ID, entries[0].UserID)
}

func TestUpdateUserRejectsTakenEmail(t *testing.T) {
	dbConn := setupTestDB(t)
	admin := seedUser(t, dbConn, "admin@example.com", types.RoleAdmin)
	tester := seedUser(t, dbConn, "t@example.com", types.RoleTester)

	_, err := UpdateUser(dbConn, tester.ID, map[string]interface{}{"email": "ADMIN@example.com"}, admin.ID)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}
