package cron

import (
	"context"

	"github.com/finwise/notification-engine/internal/jobs"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StartNotificationCronJobs schedules the periodic urgent-item sweep.
func StartNotificationCronJobs(spec string, scanJob *jobs.UrgentScanJob) *cron.Cron {
	c := cron.New()

	if _, err := c.AddFunc(spec, func() {
		if err := scanJob.Run(context.Background()); err != nil {
			logrus.WithError(err).Error("Urgent scan sweep failed")
		}
	}); err != nil {
		logrus.WithError(err).WithField("spec", spec).Error("Failed to schedule urgent scan sweep")
	}

	c.Start()
	return c
}
