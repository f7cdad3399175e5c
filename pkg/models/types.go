package models

import (
	"time"
)

type ExecutionStatus string

const (
	StatusPassed  ExecutionStatus = "Passed"
	StatusFailed  ExecutionStatus = "Failed"
	StatusBlocked ExecutionStatus = "Blocked"
)

const (
	DefectOpen       = "Open"
	DefectInProgress = "In Progress"
	DefectResolved   = "Resolved"
	DefectClosed     = "Closed"
)

type TestCase struct {
	ID                    uint64    `json:"id" gorm:"primaryKey"`
	TestCaseID            string    `json:"test_case_id" gorm:"uniqueIndex"`
	Title                 string    `json:"title"`
	Description           string    `json:"description"`
	Industry              string    `json:"industry"`
	TestType              string    `json:"test_type"`
	Priority              string    `json:"priority"`
	AutomationStatus      string    `json:"automation_status" gorm:"default:Manual"`
	Status                string    `json:"status" gorm:"default:Draft"`
	AssignedTo            string    `json:"assigned_to"`
	Preconditions         string    `json:"preconditions"`
	TestData              string    `json:"test_data"`
	ExpectedExecutionTime string    `json:"expected_execution_time"`
	Tags                  string    `json:"tags"`
	ReferenceLinks        string    `json:"reference_links"`
	CreatedBy             string    `json:"created_by"`
	CreatedAt             time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt             time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TestStep rows are owned by a TestCase; step numbers are contiguous from 1
// and are renumbered on every full replacement of the sequence.
type TestStep struct {
	ID             uint64 `json:"id" gorm:"primaryKey"`
	TestCaseID     string `json:"test_case_id" gorm:"index"`
	StepNumber     int    `json:"step_number"`
	Action         string `json:"action"`
	ExpectedResult string `json:"expected_result"`
}

type Requirement struct {
	ID            uint64    `json:"id" gorm:"primaryKey"`
	RequirementID string    `json:"requirement_id" gorm:"uniqueIndex"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Priority      string    `json:"priority"`
	Status        string    `json:"status" gorm:"default:Active"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TestCaseRequirement is the pure association backing the traceability
// matrix. The link set for a test case is always replaced wholesale.
type TestCaseRequirement struct {
	ID            uint64 `json:"id" gorm:"primaryKey"`
	TestCaseID    string `json:"test_case_id" gorm:"index"`
	RequirementID string `json:"requirement_id" gorm:"index"`
}

type TestPlan struct {
	ID                uint64    `json:"id" gorm:"primaryKey"`
	PlanID            string    `json:"plan_id" gorm:"uniqueIndex"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Industry          string    `json:"industry"`
	StartDate         string    `json:"start_date"`
	EndDate           string    `json:"end_date"`
	Status            string    `json:"status" gorm:"default:Planning"`
	AssignedTo        string    `json:"assigned_to"`
	TotalTestCases    int       `json:"total_test_cases" gorm:"default:0"`
	ExecutedTestCases int       `json:"executed_test_cases" gorm:"default:0"`
	PassedTestCases   int       `json:"passed_test_cases" gorm:"default:0"`
	FailedTestCases   int       `json:"failed_test_cases" gorm:"default:0"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TestExecution is an append-only event; there is no update path.
type TestExecution struct {
	ID            uint64    `json:"id" gorm:"primaryKey"`
	ExecutionID   string    `json:"execution_id" gorm:"uniqueIndex"`
	TestCaseID    string    `json:"test_case_id" gorm:"index"`
	TestPlanID    *string   `json:"test_plan_id" gorm:"index"`
	ExecutedBy    string    `json:"executed_by"`
	ExecutionDate time.Time `json:"execution_date" gorm:"autoCreateTime"`
	Status        string    `json:"status"`
	ActualResult  string    `json:"actual_result"`
	Comments      string    `json:"comments"`
	Environment   string    `json:"environment"`
	BuildVersion  string    `json:"build_version"`
	ExecutionTime *int      `json:"execution_time"`
}

type Defect struct {
	ID               uint64     `json:"id" gorm:"primaryKey"`
	DefectID         string     `json:"defect_id" gorm:"uniqueIndex"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Severity         string     `json:"severity"`
	Priority         string     `json:"priority"`
	Status           string     `json:"status" gorm:"default:Open"`
	TestCaseID       string     `json:"test_case_id"`
	AssignedTo       string     `json:"assigned_to"`
	ReportedBy       string     `json:"reported_by"`
	Environment      string     `json:"environment"`
	StepsToReproduce string     `json:"steps_to_reproduce"`
	ExpectedResult   string     `json:"expected_result"`
	ActualResult     string     `json:"actual_result"`
	Attachments      string     `json:"attachments"`
	Resolution       string     `json:"resolution"`
	ResolutionDate   *time.Time `json:"resolution_date"`
	CreatedAt        time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

type TeamMember struct {
	ID             uint64    `json:"id" gorm:"primaryKey"`
	MemberID       string    `json:"member_id" gorm:"uniqueIndex"`
	Name           string    `json:"name"`
	Email          string    `json:"email" gorm:"uniqueIndex"`
	Role           string    `json:"role"`
	Specialization string    `json:"specialization"`
	Status         string    `json:"status" gorm:"default:Active"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

type Environment struct {
	ID            uint64    `json:"id" gorm:"primaryKey"`
	EnvironmentID string    `json:"environment_id" gorm:"uniqueIndex"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	URL           string    `json:"url" gorm:"column:url"`
	Status        string    `json:"status" gorm:"default:Available"`
	Configuration string    `json:"configuration"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Environment) TableName() string {
	return "test_environments"
}

// Report is metadata only; the computed payload is returned to the caller
// and never persisted, so regenerating a report reflects current data.
type Report struct {
	ID             uint64    `json:"id" gorm:"primaryKey"`
	ReportID       string    `json:"report_id" gorm:"uniqueIndex"`
	ReportType     string    `json:"report_type"`
	Title          string    `json:"title"`
	DateRangeStart string    `json:"date_range_start"`
	DateRangeEnd   string    `json:"date_range_end"`
	IndustryFilter string    `json:"industry_filter"`
	PhaseFilter    string    `json:"phase_filter"`
	GeneratedBy    string    `json:"generated_by"`
	GeneratedAt    time.Time `json:"generated_at" gorm:"autoCreateTime"`
	FilePath       string    `json:"file_path"`
	Status         string    `json:"status" gorm:"default:Generated"`
}

// TestCaseDetail is the composite view returned by the detail lookup:
// the case row plus its ordered steps and resolved requirements.
type TestCaseDetail struct {
	TestCase
	Steps        []TestStep    `json:"steps"`
	Requirements []Requirement `json:"requirements"`
}

// RTMEntry is one row of the requirements traceability matrix.
type RTMEntry struct {
	RequirementID    string   `json:"requirement_id"`
	RequirementTitle string   `json:"requirement_title"`
	Priority         string   `json:"priority"`
	TestCases        []string `json:"test_cases"`
	TestCaseCount    int      `json:"test_case_count"`
}
