package report_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/qaforge/qatrack/pkg/api/handlers/report"
	"github.com/qaforge/qatrack/pkg/db"
	"github.com/qaforge/qatrack/pkg/models"
)

type envelopeBody struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func intPtr(v int) *int { return &v }

var _ = Describe("Report handlers", func() {
	var (
		gdb    *gorm.DB
		router *gin.Engine
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		var err error
		gdb, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := gdb.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.MigrateModels(gdb)).To(Succeed())

		handler := report.NewHandler(gdb)
		router = gin.New()
		router.GET("/api/reports", handler.List)
		router.POST("/api/reports/generate", handler.Generate)
		router.GET("/api/analytics/execution-trends", handler.GetExecutionTrends)
		router.GET("/api/analytics/defect-trends", handler.GetDefectTrends)
	})

	generate := func(sections ...string) map[string]json.RawMessage {
		payload := map[string]any{
			"report_type":  "summary",
			"title":        "Release readiness",
			"generated_by": "dana",
			"sections":     sections,
		}
		raw, err := json.Marshal(payload)
		Expect(err).NotTo(HaveOccurred())
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/reports/generate", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var body envelopeBody
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		var data struct {
			ReportID   string                     `json:"report_id"`
			ReportData map[string]json.RawMessage `json:"report_data"`
		}
		Expect(json.Unmarshal(body.Data, &data)).To(Succeed())
		Expect(data.ReportID).To(MatchRegexp(`^RPT-\d{4}$`))
		return data.ReportData
	}

	seedExecutions := func() {
		Expect(gdb.Create(&models.TestCase{TestCaseID: "TC-0001", Title: "t", Industry: "Banking", TestType: "Functional", Priority: "High"}).Error).To(Succeed())
		rows := []models.TestExecution{
			{ExecutionID: "EXE-0001", TestCaseID: "TC-0001", ExecutedBy: "a", Status: "Passed", ExecutionTime: intPtr(10)},
			{ExecutionID: "EXE-0002", TestCaseID: "TC-0001", ExecutedBy: "a", Status: "Passed", ExecutionTime: intPtr(20)},
			{ExecutionID: "EXE-0003", TestCaseID: "TC-0001", ExecutedBy: "a", Status: "Failed"},
			{ExecutionID: "EXE-0004", TestCaseID: "TC-0001", ExecutedBy: "a", Status: "Blocked"},
		}
		for i := range rows {
			Expect(gdb.Create(&rows[i]).Error).To(Succeed())
		}
	}

	Describe("generating reports", func() {
		It("includes only the requested sections", func() {
			data := generate("executive_summary")
			Expect(data).To(HaveKey("executive_summary"))
			Expect(data).NotTo(HaveKey("defect_analysis"))
			Expect(data).NotTo(HaveKey("quality_metrics"))
		})

		It("computes the pass rate over all executions", func() {
			seedExecutions()

			data := generate("executive_summary")
			var summary report.ExecutiveSummary
			Expect(json.Unmarshal(data["executive_summary"], &summary)).To(Succeed())
			Expect(summary.TotalTestCases).To(Equal(int64(1)))
			Expect(summary.TotalExecutions).To(Equal(int64(4)))
			Expect(summary.PassedTests).To(Equal(int64(2)))
			Expect(summary.FailedTests).To(Equal(int64(1)))
			Expect(summary.PassRate).To(Equal(50.0))
		})

		It("reports a zero pass rate when nothing has executed", func() {
			data := generate("executive_summary")
			var summary report.ExecutiveSummary
			Expect(json.Unmarshal(data["executive_summary"], &summary)).To(Succeed())
			Expect(summary.TotalExecutions).To(BeZero())
			Expect(summary.PassRate).To(BeZero())
		})

		It("averages execution time over rows that recorded one", func() {
			seedExecutions()

			data := generate("quality_metrics")
			var metrics report.QualityMetrics
			Expect(json.Unmarshal(data["quality_metrics"], &metrics)).To(Succeed())
			Expect(metrics.AvgExecutionTime).To(Equal(15.0))
		})

		It("breaks defects down by severity and status", func() {
			Expect(gdb.Create(&models.Defect{DefectID: "DEF-0001", Title: "a", Severity: "High", Priority: "High", Status: "Open"}).Error).To(Succeed())
			Expect(gdb.Create(&models.Defect{DefectID: "DEF-0002", Title: "b", Severity: "High", Priority: "Low", Status: "Closed"}).Error).To(Succeed())
			Expect(gdb.Create(&models.Defect{DefectID: "DEF-0003", Title: "c", Severity: "Low", Priority: "Low", Status: "Open"}).Error).To(Succeed())

			data := generate("defect_analysis")
			var analysis report.DefectAnalysis
			Expect(json.Unmarshal(data["defect_analysis"], &analysis)).To(Succeed())
			Expect(analysis.BySeverity).To(ContainElement(report.SeverityCount{Severity: "High", Count: 2}))
			Expect(analysis.BySeverity).To(ContainElement(report.SeverityCount{Severity: "Low", Count: 1}))
			Expect(analysis.ByStatus).To(ContainElement(report.StatusCount{Status: "Open", Count: 2}))
		})

		It("covers every requirement in the coverage section, gaps included", func() {
			Expect(gdb.Create(&models.Requirement{RequirementID: "REQ-001", Title: "audit", Priority: "High"}).Error).To(Succeed())
			Expect(gdb.Create(&models.Requirement{RequirementID: "REQ-002", Title: "export", Priority: "Low"}).Error).To(Succeed())
			Expect(gdb.Create(&models.TestCase{TestCaseID: "TC-0001", Title: "t", Industry: "Banking", TestType: "Functional", Priority: "High"}).Error).To(Succeed())
			Expect(gdb.Create(&models.TestCaseRequirement{TestCaseID: "TC-0001", RequirementID: "REQ-001"}).Error).To(Succeed())

			data := generate("rtm_coverage")
			var coverage []report.CoverageRow
			Expect(json.Unmarshal(data["rtm_coverage"], &coverage)).To(Succeed())
			Expect(coverage).To(HaveLen(2))
			Expect(coverage[0]).To(Equal(report.CoverageRow{RequirementID: "REQ-001", Title: "audit", CoverageCount: 1}))
			Expect(coverage[1]).To(Equal(report.CoverageRow{RequirementID: "REQ-002", Title: "export", CoverageCount: 0}))
		})

		It("restricts the execution section to the requested date range", func() {
			Expect(gdb.Create(&models.TestCase{TestCaseID: "TC-0001", Title: "t", Industry: "Banking", TestType: "Functional", Priority: "High"}).Error).To(Succeed())
			inRange := models.TestExecution{ExecutionID: "EXE-0001", TestCaseID: "TC-0001", ExecutedBy: "a", Status: "Passed",
				ExecutionDate: time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC)}
			outOfRange := models.TestExecution{ExecutionID: "EXE-0002", TestCaseID: "TC-0001", ExecutedBy: "a", Status: "Passed",
				ExecutionDate: time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)}
			Expect(gdb.Create(&inRange).Error).To(Succeed())
			Expect(gdb.Create(&outOfRange).Error).To(Succeed())

			payload := map[string]any{
				"report_type":      "summary",
				"title":            "August executions",
				"sections":         []string{"test_execution"},
				"date_range_start": "2026-08-01",
				"date_range_end":   "2026-08-31",
			}
			raw, err := json.Marshal(payload)
			Expect(err).NotTo(HaveOccurred())
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, "/api/reports/generate", bytes.NewReader(raw))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusCreated))

			var body envelopeBody
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			var data struct {
				ReportData map[string]json.RawMessage `json:"report_data"`
			}
			Expect(json.Unmarshal(body.Data, &data)).To(Succeed())
			var executions []models.TestExecution
			Expect(json.Unmarshal(data.ReportData["test_executions"], &executions)).To(Succeed())
			Expect(executions).To(HaveLen(1))
			Expect(executions[0].ExecutionID).To(Equal("EXE-0001"))
		})

		It("persists only the metadata row, never the payload", func() {
			seedExecutions()
			generate("executive_summary", "quality_metrics")

			var rows []models.Report
			Expect(gdb.Find(&rows).Error).To(Succeed())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].Title).To(Equal("Release readiness"))
			Expect(rows[0].ReportType).To(Equal("summary"))
			Expect(rows[0].GeneratedBy).To(Equal("dana"))
			Expect(rows[0].Status).To(Equal("Generated"))
		})
	})

	Describe("listing reports", func() {
		It("returns newest first", func() {
			older := models.Report{ReportID: "RPT-0001", Title: "old", ReportType: "summary",
				GeneratedAt: time.Now().Add(-2 * time.Hour)}
			newer := models.Report{ReportID: "RPT-0002", Title: "new", ReportType: "summary",
				GeneratedAt: time.Now().Add(-1 * time.Hour)}
			Expect(gdb.Create(&older).Error).To(Succeed())
			Expect(gdb.Create(&newer).Error).To(Succeed())

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/api/reports", nil)
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusOK))

			var body envelopeBody
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			var reports []models.Report
			Expect(json.Unmarshal(body.Data, &reports)).To(Succeed())
			Expect(reports).To(HaveLen(2))
			Expect(reports[0].ReportID).To(Equal("RPT-0002"))
		})
	})

	Describe("analytics trends", func() {
		It("buckets executions per day, newest day first", func() {
			Expect(gdb.Create(&models.TestCase{TestCaseID: "TC-0001", Title: "t", Industry: "Banking", TestType: "Functional", Priority: "High"}).Error).To(Succeed())
			day1 := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
			day2 := time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC)
			rows := []models.TestExecution{
				{ExecutionID: "EXE-0001", TestCaseID: "TC-0001", ExecutedBy: "a", Status: "Passed", ExecutionDate: day1},
				{ExecutionID: "EXE-0002", TestCaseID: "TC-0001", ExecutedBy: "a", Status: "Failed", ExecutionDate: day1},
				{ExecutionID: "EXE-0003", TestCaseID: "TC-0001", ExecutedBy: "a", Status: "Passed", ExecutionDate: day2},
			}
			for i := range rows {
				Expect(gdb.Create(&rows[i]).Error).To(Succeed())
			}

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/api/analytics/execution-trends", nil)
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusOK))

			var body envelopeBody
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			var trends []report.ExecutionTrend
			Expect(json.Unmarshal(body.Data, &trends)).To(Succeed())
			Expect(trends).To(Equal([]report.ExecutionTrend{
				{Date: "2026-08-21", Total: 1, Passed: 1},
				{Date: "2026-08-20", Total: 2, Passed: 1, Failed: 1},
			}))
		})

		It("buckets defects per day and severity", func() {
			day := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
			rows := []models.Defect{
				{DefectID: "DEF-0001", Title: "a", Severity: "High", Priority: "High", Status: "Open", CreatedAt: day},
				{DefectID: "DEF-0002", Title: "b", Severity: "High", Priority: "Low", Status: "Open", CreatedAt: day},
				{DefectID: "DEF-0003", Title: "c", Severity: "Low", Priority: "Low", Status: "Open", CreatedAt: day},
			}
			for i := range rows {
				Expect(gdb.Create(&rows[i]).Error).To(Succeed())
			}

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/api/analytics/defect-trends", nil)
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusOK))

			var body envelopeBody
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			var trends []report.DefectTrend
			Expect(json.Unmarshal(body.Data, &trends)).To(Succeed())
			Expect(trends).To(Equal([]report.DefectTrend{
				{Date: "2026-08-20", Severity: "High", Count: 2},
				{Date: "2026-08-20", Severity: "Low", Count: 1},
			}))
		})
	})
})
