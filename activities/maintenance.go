package activities

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/converter"
	"goa.design/clue/log"

	"goa.design/conductor/ticket"
)

// Auto-close defaults, applied when the schedule passes no overrides.
const (
	DefaultInactivityMinutes = 60
	DefaultClosureMessage    = "This ticket is now closed due to inactivity"
)

// runningConductorsQuery selects the live conductor workflows on the cluster.
const runningConductorsQuery = "WorkflowType='" + ticket.ConductorWorkflowName + "' AND ExecutionStatus='Running'"

type (
	// ConductorClient is the slice of the Temporal client the maintenance
	// and query activities need. Satisfied by client.Client.
	ConductorClient interface {
		ListWorkflow(ctx context.Context, request *workflowservice.ListWorkflowExecutionsRequest) (*workflowservice.ListWorkflowExecutionsResponse, error)
		QueryWorkflow(ctx context.Context, workflowID, runID, queryType string, args ...any) (converter.EncodedValue, error)
		SignalWorkflow(ctx context.Context, workflowID, runID, signalName string, arg any) error
	}

	// TicketQueries reads live conductor workflow state.
	TicketQueries struct {
		client ConductorClient
	}

	// Maintenance hosts the auto-close activity.
	Maintenance struct {
		client ConductorClient
		now    func() time.Time
	}

	// AutoCloseInput overrides the auto-close defaults.
	AutoCloseInput struct {
		InactivityMinutes int    `json:"inactivity_minutes,omitempty"`
		ClosureMessage    string `json:"closure_message,omitempty"`
	}

	// AutoCloseReport summarizes one auto-close sweep.
	AutoCloseReport struct {
		Evaluated         int      `json:"evaluated"`
		Closed            int      `json:"closed"`
		ClosedTicketIDs   []string `json:"closed_ticket_ids,omitempty"`
		InactivityMinutes int      `json:"inactivity_minutes"`
	}
)

// NewTicketQueries builds the parent state query activity.
func NewTicketQueries(client ConductorClient) *TicketQueries {
	return &TicketQueries{client: client}
}

// QueryTicketState fetches the current ticket snapshot from a running
// conductor workflow. Orchestrations use it to refresh the chat history seen
// by each step so question answers reach later specialists.
func (q *TicketQueries) QueryTicketState(ctx context.Context, workflowID string) (*ticket.Ticket, error) {
	val, err := q.client.QueryWorkflow(ctx, workflowID, "", ticket.QueryGetState)
	if err != nil {
		return nil, fmt.Errorf("query %s state: %w", workflowID, err)
	}
	var t ticket.Ticket
	if err := val.Get(&t); err != nil {
		return nil, fmt.Errorf("decode %s state: %w", workflowID, err)
	}
	return &t, nil
}

// NewMaintenance builds the maintenance activities.
func NewMaintenance(client ConductorClient) *Maintenance {
	return &Maintenance{client: client, now: time.Now}
}

// AutoCloseInactiveTickets closes open tickets with no activity inside the
// inactivity window. Only tickets still in the open status are touched;
// anything in progress, waiting on the customer or escalated is left alone.
// Per-ticket failures are logged and skipped so one bad workflow never
// aborts the sweep.
func (m *Maintenance) AutoCloseInactiveTickets(ctx context.Context, in AutoCloseInput) (*AutoCloseReport, error) {
	minutes := in.InactivityMinutes
	if minutes <= 0 {
		minutes = DefaultInactivityMinutes
	}
	closure := in.ClosureMessage
	if closure == "" {
		closure = DefaultClosureMessage
	}
	cutoff := m.now().UTC().Add(-time.Duration(minutes) * time.Minute)

	report := &AutoCloseReport{InactivityMinutes: minutes}
	req := &workflowservice.ListWorkflowExecutionsRequest{Query: runningConductorsQuery}
	for {
		resp, err := m.client.ListWorkflow(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("list running conductors: %w", err)
		}
		for _, info := range resp.GetExecutions() {
			workflowID := info.GetExecution().GetWorkflowId()
			runID := info.GetExecution().GetRunId()
			report.Evaluated++

			state, err := m.queryState(ctx, workflowID, runID)
			if err != nil {
				log.Errorf(ctx, err, "auto-close: query %s", workflowID)
				continue
			}
			if state.Status != ticket.StatusOpen {
				continue
			}
			if !state.LastActivity().UTC().Before(cutoff) {
				continue
			}
			if err := m.close(ctx, workflowID, runID, state, closure); err != nil {
				log.Errorf(ctx, err, "auto-close: close %s", workflowID)
				continue
			}
			report.Closed++
			report.ClosedTicketIDs = append(report.ClosedTicketIDs, state.TicketID)
		}
		if len(resp.GetNextPageToken()) == 0 {
			break
		}
		req.NextPageToken = resp.GetNextPageToken()
	}
	log.Printf(ctx, "auto-close sweep: evaluated %d, closed %d", report.Evaluated, report.Closed)
	return report, nil
}

func (m *Maintenance) queryState(ctx context.Context, workflowID, runID string) (*ticket.Ticket, error) {
	val, err := m.client.QueryWorkflow(ctx, workflowID, runID, ticket.QueryGetState)
	if err != nil {
		return nil, err
	}
	var t ticket.Ticket
	if err := val.Get(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (m *Maintenance) close(ctx context.Context, workflowID, runID string, state *ticket.Ticket, closure string) error {
	now := m.now().UTC()
	ticketID := state.TicketID
	if ticketID == "" {
		ticketID = workflowID
	}
	msg := ticket.Message{
		ID:        "auto-close-" + uuid.NewString(),
		TicketID:  ticketID,
		Content:   closure,
		Type:      ticket.MessageSystem,
		Timestamp: now,
		Metadata: map[string]any{
			"source":    "ticket_auto_close_schedule",
			"closed_at": now.Format(time.RFC3339),
		},
	}
	if err := m.client.SignalWorkflow(ctx, workflowID, runID, ticket.SignalAddMessage, msg); err != nil {
		return fmt.Errorf("signal closure message: %w", err)
	}
	if err := m.client.SignalWorkflow(ctx, workflowID, runID, ticket.SignalUpdateStatus, string(ticket.StatusClosed)); err != nil {
		return fmt.Errorf("signal closed status: %w", err)
	}
	return nil
}
