package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/caseflow-dev/caseflow/internal/handlers"
	"github.com/caseflow-dev/caseflow/internal/metrics"
	"github.com/caseflow-dev/caseflow/internal/middleware"
	"github.com/caseflow-dev/caseflow/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(metrics.Middleware())
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws/:project_id", middleware.AuthMiddleware(), handlers.WebSocket)

		auth := api.Group("/auth")
		{
			auth.POST("/login", handlers.LoginUser)
			auth.POST("/logout", handlers.LogoutUser)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		projects := api.Group("/projects", middleware.AuthMiddleware())
		{
			// Reads are scoped by access grants inside the handlers.
			projects.GET("", handlers.ListProjects)
			projects.GET("/:project_id", handlers.GetProject)
			projects.GET("/:project_id/test-cases", handlers.ListTestCases)
			projects.GET("/:project_id/test-cases/:test_case_id", handlers.GetTestCase)
			projects.GET("/:project_id/testers", handlers.ListProjectTesters)

			// Mutations and stats are admin-only.
			admin := projects.Group("", middleware.RequireAdmin())
			{
				admin.POST("", handlers.CreateProject)
				admin.PUT("/:project_id", handlers.UpdateProject)
				admin.DELETE("/:project_id", handlers.DeleteProject)

				admin.POST("/:project_id/testers", handlers.GrantProjectTesters)
				admin.DELETE("/:project_id/testers/:user_id", handlers.RevokeProjectTester)

				admin.POST("/:project_id/test-cases", handlers.CreateTestCase)
				admin.PUT("/:project_id/test-cases/:test_case_id", handlers.UpdateTestCase)
				admin.DELETE("/:project_id/test-cases/:test_case_id", handlers.DeleteTestCase)

				admin.GET("/:project_id/stats", handlers.GetProjectStats)
				admin.GET("/:project_id/export", handlers.ExportProjectCSV)
			}
		}

		testCases := api.Group("/test-cases", middleware.AuthMiddleware())
		{
			testCases.POST("/:test_case_id/execute", handlers.RecordExecution)
			testCases.GET("/:test_case_id/executions", handlers.ListExecutions)

			admin := testCases.Group("", middleware.RequireAdmin())
			{
				admin.GET("/:test_case_id/assignments", handlers.ListTestCaseAssignees)
				admin.PUT("/:test_case_id/assignments", handlers.SetTestCaseAssignments)
				admin.POST("/:test_case_id/assignments", handlers.GrantTestCaseAssignments)
			}
		}

		adminAPI := api.Group("", middleware.AuthMiddleware(), middleware.RequireAdmin())
		{
			adminAPI.GET("/reports", handlers.GetReportsOverview)
			adminAPI.GET("/reports/test-cases", handlers.GetTestCasesReport)
			adminAPI.GET("/reports/testers", handlers.GetTestersReport)
			adminAPI.GET("/reports/issues", handlers.GetIssuesReport)
			adminAPI.GET("/reports/export", handlers.ExportReportsCSV)
			adminAPI.GET("/activity", handlers.GetActivityFeed)

			adminAPI.GET("/users", handlers.ListUsers)
			adminAPI.POST("/users", handlers.CreateUser)
			adminAPI.PUT("/users/:user_id", handlers.UpdateUser)
			adminAPI.DELETE("/users/:user_id", handlers.DeleteUser)
		}
	}

	return r
}
