// Command schedule creates or updates the auto-close schedule: a periodic
// sweep that closes open tickets with no recent activity. Creation is
// idempotent so the command can run on every deploy.
package main

import (
	"context"
	"errors"
	"flag"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"goa.design/clue/log"

	"goa.design/conductor/activities"
	"goa.design/conductor/config"
	"goa.design/conductor/ticket"
)

const (
	scheduleID = "ticket-auto-close-schedule"
	workflowID = "ticket-auto-close-workflow"
)

func main() {
	var (
		intervalF = flag.Duration("interval", 2*time.Minute, "Sweep interval")
		pauseF    = flag.Bool("pause", false, "Create or update the schedule paused")
	)
	flag.Parse()

	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf(ctx, err, "invalid configuration")
	}
	tc, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf(ctx, err, "connect to temporal at %s", cfg.Temporal.HostPort)
	}
	defer tc.Close()

	inactivity := int(cfg.AutoCloseAfter / time.Minute)
	action := &client.ScheduleWorkflowAction{
		ID:        workflowID,
		Workflow:  "AutoCloseWorkflow",
		TaskQueue: ticket.TaskQueue,
		Args:      []any{activities.AutoCloseInput{InactivityMinutes: inactivity}},
	}
	spec := client.ScheduleSpec{
		Intervals: []client.ScheduleIntervalSpec{{Every: *intervalF}},
	}

	_, err = tc.ScheduleClient().Create(ctx, client.ScheduleOptions{
		ID:      scheduleID,
		Spec:    spec,
		Action:  action,
		Overlap: enumspb.SCHEDULE_OVERLAP_POLICY_SKIP,
		Paused:  *pauseF,
	})
	switch {
	case err == nil:
		log.Printf(ctx, "created schedule %s (every %s, inactivity %dm)", scheduleID, *intervalF, inactivity)
		return
	case errors.Is(err, temporal.ErrScheduleAlreadyRunning) || isAlreadyExists(err):
		// Fall through to update.
	default:
		log.Fatalf(ctx, err, "create schedule %s", scheduleID)
	}

	handle := tc.ScheduleClient().GetHandle(ctx, scheduleID)
	err = handle.Update(ctx, client.ScheduleUpdateOptions{
		DoUpdate: func(in client.ScheduleUpdateInput) (*client.ScheduleUpdate, error) {
			in.Description.Schedule.Spec = &spec
			in.Description.Schedule.Action = action
			in.Description.Schedule.Policy.Overlap = enumspb.SCHEDULE_OVERLAP_POLICY_SKIP
			in.Description.Schedule.State.Paused = *pauseF
			return &client.ScheduleUpdate{Schedule: &in.Description.Schedule}, nil
		},
	})
	if err != nil {
		log.Fatalf(ctx, err, "update schedule %s", scheduleID)
	}
	log.Printf(ctx, "updated schedule %s (every %s, inactivity %dm)", scheduleID, *intervalF, inactivity)
}

func isAlreadyExists(err error) bool {
	var exists *serviceerror.AlreadyExists
	return errors.As(err, &exists)
}
