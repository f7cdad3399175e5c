package client

import (
	"errors"
	"fmt"

	gt "github.com/onsi/ginkgo/v2/types"
)

// SuiteRun configures how a finished ginkgo suite is recorded: who ran it,
// against which plan and environment, and how a spec maps to a test case.
// Specs for which CaseID returns "" are not recorded.
type SuiteRun struct {
	ExecutedBy   string
	TestPlanID   string
	Environment  string
	BuildVersion string
	CaseID       func(gt.SpecReport) string
}

// ReportSuite records one execution per mapped spec, translating ginkgo
// spec states into execution statuses. Anything that neither passed nor
// failed (skipped, interrupted) is recorded as Blocked.
func (c *Client) ReportSuite(run SuiteRun, report gt.Report) error {
	if run.CaseID == nil {
		return errors.New("report suite: CaseID mapping is required")
	}

	var errs []error
	for _, spec := range report.SpecReports {
		caseID := run.CaseID(spec)
		if caseID == "" {
			continue
		}

		status := "Blocked"
		switch spec.State {
		case gt.SpecStatePassed:
			status = "Passed"
		case gt.SpecStateFailed, gt.SpecStatePanicked, gt.SpecStateTimedout:
			status = "Failed"
		}

		seconds := int(spec.RunTime.Seconds())
		record := ExecutionRecord{
			TestCaseID:    caseID,
			TestPlanID:    run.TestPlanID,
			ExecutedBy:    run.ExecutedBy,
			Status:        status,
			Comments:      spec.Failure.Message,
			Environment:   run.Environment,
			BuildVersion:  run.BuildVersion,
			ExecutionTime: &seconds,
		}
		if _, err := c.RecordExecution(record); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", caseID, err))
		}
	}
	return errors.Join(errs...)
}
