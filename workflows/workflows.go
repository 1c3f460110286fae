// Package workflows hosts the Temporal workflows of the support backend:
// the ticket conductor that owns ticket state, the orchestrator that plans
// and drives specialist execution, the specialist wrapper, the customer
// question rendezvous and the periodic auto-close sweep.
package workflows

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"goa.design/conductor/activities"
	"goa.design/conductor/ticket"
)

// Deps groups the activity implementations the workflows execute. Only the
// registration helper dereferences them; workflow code addresses activities
// through typed nil receivers.
type Deps struct {
	Orchestration *activities.Orchestration
	Reasoning     *activities.Reasoning
	Queries       *activities.TicketQueries
	Maintenance   *activities.Maintenance
	Publish       *activities.Publish
	Archive       *activities.Archive
}

// Register wires every workflow and activity into the worker. The conductor
// and question workflows register under their wire names so external
// clients and the maintenance sweep can address them.
func Register(r worker.Registry, deps Deps) {
	r.RegisterWorkflowWithOptions(TicketConductorWorkflow, workflow.RegisterOptions{Name: ticket.ConductorWorkflowName})
	r.RegisterWorkflowWithOptions(QuestionWorkflow, workflow.RegisterOptions{Name: ticket.QuestionWorkflowName})
	r.RegisterWorkflow(OrchestratorWorkflow)
	r.RegisterWorkflow(SpecialistWorkflow)
	r.RegisterWorkflow(AutoCloseWorkflow)

	r.RegisterActivity(deps.Orchestration)
	r.RegisterActivity(deps.Reasoning)
	r.RegisterActivity(deps.Queries)
	r.RegisterActivity(deps.Maintenance)
	r.RegisterActivity(deps.Publish)
	r.RegisterActivity(deps.Archive)
}

// Typed nil receivers used to reference activity methods by name.
var (
	orchestrationActivities *activities.Orchestration
	reasoningActivities     *activities.Reasoning
	queryActivities         *activities.TicketQueries
	maintenanceActivities   *activities.Maintenance
	publishActivities       *activities.Publish
	archiveActivities       *activities.Archive
)

// newID draws a UUID through a side effect so replay sees the same value.
func newID(ctx workflow.Context) string {
	var id string
	_ = workflow.SideEffect(ctx, func(workflow.Context) any {
		return uuid.NewString()
	}).Get(&id)
	return id
}

// structToMap flattens a JSON-tagged struct into a generic map.
func structToMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func withActivity(ctx workflow.Context, timeout time.Duration, attempts int32) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: attempts},
	})
}
