package workflows

import (
	"time"

	"go.temporal.io/sdk/workflow"

	"goa.design/conductor/activities"
)

// AutoCloseWorkflow runs one maintenance sweep over the live conductors.
// The schedule starts it every couple of minutes with overlap skipping, so
// a slow sweep is never stacked on top of itself.
func AutoCloseWorkflow(ctx workflow.Context, in activities.AutoCloseInput) (*activities.AutoCloseReport, error) {
	actx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout:    5 * time.Minute,
		ScheduleToCloseTimeout: 5 * time.Minute,
	})
	var report *activities.AutoCloseReport
	if err := workflow.ExecuteActivity(actx, maintenanceActivities.AutoCloseInactiveTickets, in).Get(ctx, &report); err != nil {
		return nil, err
	}
	workflow.GetLogger(ctx).Info("auto-close sweep finished",
		"evaluated", report.Evaluated, "closed", report.Closed)
	return report, nil
}
