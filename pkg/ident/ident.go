// Package ident allocates the human-readable external ids used across the
// store, shaped PREFIX-NNNN (TC-0042, PLAN-0007, ...). Candidates are drawn
// from a 4-digit random space and checked against the owning table, so an
// allocated id is unique at the time of the write that consumes it. Callers
// should allocate inside the same transaction that inserts the row.
package ident

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Kind string

const (
	TestCase  Kind = "TC"
	TestPlan  Kind = "PLAN"
	Execution Kind = "EXE"
	Defect    Kind = "DEF"
	Report    Kind = "RPT"
)

// maxAttempts bounds the random draws before widening the suffix.
const maxAttempts = 8

var tables = map[Kind]struct {
	table  string
	column string
}{
	TestCase:  {"test_cases", "test_case_id"},
	TestPlan:  {"test_plans", "plan_id"},
	Execution: {"test_executions", "execution_id"},
	Defect:    {"defects", "defect_id"},
	Report:    {"reports", "report_id"},
}

// New returns an unused id for the given kind. When the 4-digit space is
// too crowded to find a free slot within the retry budget, the suffix
// widens to a uuid fragment so allocation still succeeds.
func New(tx *gorm.DB, kind Kind) (string, error) {
	t, ok := tables[kind]
	if !ok {
		return "", fmt.Errorf("unknown id kind %q", kind)
	}

	for i := 0; i < maxAttempts; i++ {
		id := fmt.Sprintf("%s-%04d", kind, rand.Intn(10000))
		taken, err := exists(tx, t.table, t.column, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}

	return fmt.Sprintf("%s-%s", kind, strings.ToUpper(uuid.NewString()[:8])), nil
}

func exists(tx *gorm.DB, table, column, id string) (bool, error) {
	var n int64
	if err := tx.Table(table).Where(column+" = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
