package routers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/qaforge/qatrack/pkg/api/handlers"
	"github.com/qaforge/qatrack/pkg/api/handlers/defect"
	"github.com/qaforge/qatrack/pkg/api/handlers/execution"
	"github.com/qaforge/qatrack/pkg/api/handlers/plan"
	"github.com/qaforge/qatrack/pkg/api/handlers/refdata"
	"github.com/qaforge/qatrack/pkg/api/handlers/report"
	"github.com/qaforge/qatrack/pkg/api/handlers/requirement"
	"github.com/qaforge/qatrack/pkg/api/handlers/testcase"
)

func RegisterRouters(router *gin.Engine, gdb *gorm.DB) {
	handler := handlers.NewHandler(gdb)
	testCaseHandler := testcase.NewHandler(gdb)
	executionHandler := execution.NewHandler(gdb)
	defectHandler := defect.NewHandler(gdb)
	planHandler := plan.NewHandler(gdb)
	requirementHandler := requirement.NewHandler(gdb)
	reportHandler := report.NewHandler(gdb)
	refdataHandler := refdata.NewHandler(gdb)

	api := router.Group("/api")
	{
		api.GET("/health", handler.Health)

		dashboard := api.Group("/dashboard")
		dashboard.GET("/stats", handler.GetDashboardStats)
		dashboard.GET("/test-plans", handler.GetActiveTestPlans)
		dashboard.GET("/recent-defects", handler.GetRecentDefects)

		testCases := api.Group("/test-cases")
		testCases.GET("", testCaseHandler.List)
		testCases.GET("/:id", testCaseHandler.Get)
		testCases.POST("", testCaseHandler.Create)
		testCases.PUT("/:id", testCaseHandler.Update)
		testCases.DELETE("/:id", testCaseHandler.Delete)

		executions := api.Group("/test-executions")
		executions.GET("", executionHandler.List)
		executions.POST("", executionHandler.Record)

		defects := api.Group("/defects")
		defects.GET("", defectHandler.List)
		defects.POST("", defectHandler.Create)
		defects.PUT("/:id", defectHandler.Update)

		plans := api.Group("/test-plans")
		plans.GET("", planHandler.List)
		plans.POST("", planHandler.Create)
		plans.PUT("/:id", planHandler.Update)

		api.GET("/requirements", requirementHandler.List)
		api.GET("/rtm", requirementHandler.GetTraceabilityMatrix)

		api.GET("/team", refdataHandler.GetTeamMembers)
		api.GET("/environments", refdataHandler.GetEnvironments)

		reports := api.Group("/reports")
		reports.GET("", reportHandler.List)
		reports.POST("/generate", reportHandler.Generate)

		analytics := api.Group("/analytics")
		analytics.GET("/execution-trends", reportHandler.GetExecutionTrends)
		analytics.GET("/defect-trends", reportHandler.GetDefectTrends)
	}
}
