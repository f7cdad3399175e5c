package client_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	gt "github.com/onsi/ginkgo/v2/types"
	. "github.com/onsi/gomega"

	"github.com/qaforge/qatrack/pkg/client"
)

var _ = Describe("API client", func() {
	var (
		server   *httptest.Server
		received []map[string]any
		respond  func(w http.ResponseWriter)
	)

	BeforeEach(func() {
		received = nil
		respond = func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data":    map[string]string{"execution_id": "EXE-0042"},
			})
		}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.URL.Path).To(Equal("/api/test-executions"))
			var payload map[string]any
			Expect(json.NewDecoder(r.Body).Decode(&payload)).To(Succeed())
			received = append(received, payload)
			respond(w)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("posts an execution and returns the assigned id", func() {
		c := client.New(server.URL, client.WithTimeout(5*time.Second))

		id, err := c.RecordExecution(client.ExecutionRecord{
			TestCaseID: "TC-0001",
			ExecutedBy: "ci",
			Status:     "Passed",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal("EXE-0042"))
		Expect(received).To(HaveLen(1))
		Expect(received[0]["test_case_id"]).To(Equal("TC-0001"))
	})

	It("surfaces server-side rejections as errors", func() {
		respond = func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   "Missing required fields: status",
			})
		}
		c := client.New(server.URL)

		_, err := c.RecordExecution(client.ExecutionRecord{TestCaseID: "TC-0001", ExecutedBy: "ci"})
		Expect(err).To(MatchError(ContainSubstring("Missing required fields")))
	})

	Describe("recording a finished suite", func() {
		report := gt.Report{
			SpecReports: gt.SpecReports{
				{State: gt.SpecStatePassed, RunTime: 2 * time.Second},
				{State: gt.SpecStateFailed, RunTime: time.Second,
					Failure: gt.Failure{Message: "expected 200, got 500"}},
				{State: gt.SpecStateSkipped},
			},
		}

		It("maps spec states onto execution statuses", func() {
			c := client.New(server.URL)
			ids := []string{"TC-0001", "TC-0002", "TC-0003"}
			i := -1

			err := c.ReportSuite(client.SuiteRun{
				ExecutedBy: "ci",
				TestPlanID: "PLAN-0001",
				CaseID: func(gt.SpecReport) string {
					i++
					return ids[i]
				},
			}, report)
			Expect(err).NotTo(HaveOccurred())

			Expect(received).To(HaveLen(3))
			Expect(received[0]["status"]).To(Equal("Passed"))
			Expect(received[1]["status"]).To(Equal("Failed"))
			Expect(received[1]["comments"]).To(Equal("expected 200, got 500"))
			Expect(received[2]["status"]).To(Equal("Blocked"))
			Expect(received[0]["test_plan_id"]).To(Equal("PLAN-0001"))
		})

		It("skips specs with no mapped test case", func() {
			c := client.New(server.URL)

			err := c.ReportSuite(client.SuiteRun{
				ExecutedBy: "ci",
				CaseID:     func(gt.SpecReport) string { return "" },
			}, report)
			Expect(err).NotTo(HaveOccurred())
			Expect(received).To(BeEmpty())
		})

		It("requires a mapping", func() {
			c := client.New(server.URL)
			Expect(c.ReportSuite(client.SuiteRun{ExecutedBy: "ci"}, report)).NotTo(Succeed())
		})
	})
})
