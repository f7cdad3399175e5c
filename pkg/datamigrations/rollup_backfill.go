// Package datamigrations holds one-shot repair passes run at startup.
package datamigrations

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/qaforge/qatrack/pkg/logger"
	"github.com/qaforge/qatrack/pkg/models"
)

// ReconcilePlanRollups recomputes each plan's executed/passed/failed
// counters from the execution log and rewrites the ones that drifted,
// e.g. after a bulk import or a manual row edit. The execution log is
// append-only, so recounting it is authoritative.
func ReconcilePlanRollups(db *gorm.DB) error {
	const batchSize = 100
	offset := 0
	repaired := 0

	for {
		var plans []models.TestPlan
		err := db.Order("id").Limit(batchSize).Offset(offset).Find(&plans).Error
		if err != nil {
			return err
		}
		if len(plans) == 0 {
			break
		}

		for _, plan := range plans {
			var executed, passed, failed int64
			base := db.Model(&models.TestExecution{}).Where("test_plan_id = ?", plan.PlanID)
			if err := base.Session(&gorm.Session{}).Count(&executed).Error; err != nil {
				return err
			}
			if err := base.Session(&gorm.Session{}).Where("status = ?", string(models.StatusPassed)).Count(&passed).Error; err != nil {
				return err
			}
			if err := base.Session(&gorm.Session{}).Where("status = ?", string(models.StatusFailed)).Count(&failed).Error; err != nil {
				return err
			}

			if plan.ExecutedTestCases == int(executed) &&
				plan.PassedTestCases == int(passed) &&
				plan.FailedTestCases == int(failed) {
				continue
			}

			err := db.Model(&models.TestPlan{}).Where("plan_id = ?", plan.PlanID).Updates(map[string]any{
				"executed_test_cases": executed,
				"passed_test_cases":   passed,
				"failed_test_cases":   failed,
			}).Error
			if err != nil {
				return err
			}
			repaired++
		}

		offset += batchSize
	}

	if repaired > 0 {
		logger.GetLogger().Warn(fmt.Sprintf("repaired rollup counters on %d drifted plans", repaired))
	}
	return nil
}
