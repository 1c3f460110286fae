package workflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	"goa.design/conductor/activities"
	"goa.design/conductor/agents"
	"goa.design/conductor/ticket"
)

func conductorInput() ConductorInput {
	return ConductorInput{
		TicketID:        "TKT-1",
		CustomerID:      "customer-456",
		CustomerProfile: map[string]any{"name": "John Doe", "tier": "Gold"},
		InitialMessage:  "What are your business hours?",
	}
}

// newConductorEnv mocks the conductor's side effects: the orchestration
// child, best-effort publication and terminal archival.
func newConductorEnv(t *testing.T) (*testsuite.TestWorkflowEnvironment, *[]OrchestratorInput, *[]ticket.Ticket) {
	t.Helper()
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	// Match production, where the workflow ID doubles as the ticket ID.
	env.SetStartWorkflowOptions(client.StartWorkflowOptions{ID: "TKT-1"})
	env.RegisterWorkflow(TicketConductorWorkflow)
	env.RegisterWorkflow(OrchestratorWorkflow)

	orchestrated := new([]OrchestratorInput)
	env.OnWorkflow(OrchestratorWorkflow, mock.Anything, mock.Anything).Return(
		func(ctx workflow.Context, in OrchestratorInput) (*OrchestratorOutput, error) {
			*orchestrated = append(*orchestrated, in)
			return &OrchestratorOutput{
				FinalResponse:      "We are open 9am to 6pm Eastern, Monday through Friday.",
				Confidence:         0.95,
				SynthesisReasoning: "FAQ lookup",
				ExecutionPlan:      twoStepPlan(),
			}, nil
		}).Maybe()

	pub := activities.NewPublish(nil)
	env.OnActivity(pub.PublishEvent, mock.Anything, mock.Anything).Return(nil).Maybe()

	archived := new([]ticket.Ticket)
	arch := activities.NewArchive(nil)
	env.OnActivity(arch.ArchiveTicket, mock.Anything, mock.Anything).Return(
		func(_ context.Context, tk ticket.Ticket) error {
			*archived = append(*archived, tk)
			return nil
		}).Maybe()

	return env, orchestrated, archived
}

func queryTicket(t *testing.T, env *testsuite.TestWorkflowEnvironment) *ticket.Ticket {
	t.Helper()
	val, err := env.QueryWorkflow(ticket.QueryGetState)
	require.NoError(t, err)
	var tk ticket.Ticket
	require.NoError(t, val.Get(&tk))
	return &tk
}

func TestConductorOrchestratesInitialMessageAndArchives(t *testing.T) {
	env, orchestrated, archived := newConductorEnv(t)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ticket.SignalUpdateStatus, string(ticket.StatusResolved))
	}, time.Hour)

	env.ExecuteWorkflow(TicketConductorWorkflow, conductorInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result string
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, "Ticket TKT-1 completed by agents.", result)

	// One orchestration for the opening message, with the triggering
	// message excluded from the history snapshot.
	require.Len(t, *orchestrated, 1)
	in := (*orchestrated)[0]
	assert.Equal(t, "What are your business hours?", in.CustomerMessage)
	assert.Empty(t, in.ChatHistory)
	assert.Equal(t, "TKT-1", in.TicketWorkflowID)
	assert.Equal(t, agents.Available(), in.AvailableAgents)

	tk := queryTicket(t, env)
	assert.Equal(t, ticket.StatusResolved, tk.Status)
	assert.Equal(t, 0.95, tk.Context["orchestrator_confidence"])
	require.NotEmpty(t, tk.ChatHistory)
	assert.Equal(t, ticket.MessageCustomer, tk.ChatHistory[0].Type)

	// The terminal snapshot landed in the archive.
	require.Len(t, *archived, 1)
	assert.Equal(t, "TKT-1", (*archived)[0].TicketID)
	assert.Equal(t, ticket.StatusResolved, (*archived)[0].Status)
}

func TestConductorSkipsAgentMessages(t *testing.T) {
	env, orchestrated, _ := newConductorEnv(t)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ticket.SignalAddMessage, ticket.Message{
			Content:   "Orchestrator Plan: ...",
			Type:      ticket.MessageSystem,
			AgentType: agents.Orchestrator,
		})
	}, time.Minute)
	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ticket.SignalAddMessage, ticket.Message{
			Content:   "We are open 9am to 6pm.",
			Type:      ticket.MessageAIAgent,
			AgentType: agents.Orchestrator,
		})
	}, 2*time.Minute)
	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ticket.SignalUpdateStatus, string(ticket.StatusClosed))
	}, time.Hour)

	env.ExecuteWorkflow(TicketConductorWorkflow, conductorInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	// Only the customer's opening message was orchestrated; the system and
	// agent messages were recorded without triggering new orchestrations.
	assert.Len(t, *orchestrated, 1)
	tk := queryTicket(t, env)
	assert.Len(t, tk.ChatHistory, 3)
}

func TestConductorRoutesAnswerToQuestionWorkflow(t *testing.T) {
	env, orchestrated, _ := newConductorEnv(t)

	var routed string
	env.OnSignalExternalWorkflow(mock.Anything, "TKT-1-question-q1", "", ticket.SignalReceiveAnswer, mock.Anything).
		Run(func(args mock.Arguments) {
			routed = args.Get(4).(string)
		}).Return(nil).Once()

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ticket.SignalDisplayQuestion, ticket.QuestionRecord{
			QuestionID:           "TKT-1-question-q1",
			WorkflowID:           "TKT-1-question-q1",
			TicketID:             "TKT-1",
			AgentType:            agents.OrderSpecialist,
			Question:             "Which order are you asking about?",
			ExpectedResponseType: ticket.ResponseOrderID,
		})
	}, time.Minute)

	env.RegisterDelayedCallback(func() {
		tk := queryTicket(t, env)
		assert.Equal(t, ticket.StatusWaitingForCustomer, tk.Status)
	}, 2*time.Minute)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ticket.SignalAddMessage, ticket.Message{
			Content: "ORD-12345",
			Type:    ticket.MessageCustomer,
		})
	}, 3*time.Minute)

	env.RegisterDelayedCallback(func() {
		tk := queryTicket(t, env)
		assert.Equal(t, ticket.StatusInProgress, tk.Status)
		q := tk.PendingQuestions["TKT-1-question-q1"]
		assert.Equal(t, ticket.QuestionAnswered, q.Status)
		assert.Equal(t, "ORD-12345", q.Response)
	}, 4*time.Minute)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ticket.SignalUpdateStatus, string(ticket.StatusResolved))
	}, time.Hour)

	env.ExecuteWorkflow(TicketConductorWorkflow, conductorInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	assert.Equal(t, "ORD-12345", routed)
	// The answer never became a second orchestration.
	assert.Len(t, *orchestrated, 1)
	env.AssertExpectations(t)
}

func TestConductorIgnoresMessagesAfterTerminal(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(TicketConductorWorkflow)
	env.RegisterWorkflow(OrchestratorWorkflow)

	// The orchestration is still in flight when the ticket resolves.
	env.OnWorkflow(OrchestratorWorkflow, mock.Anything, mock.Anything).Return(
		func(ctx workflow.Context, in OrchestratorInput) (*OrchestratorOutput, error) {
			if err := workflow.Sleep(ctx, 10*time.Minute); err != nil {
				return nil, err
			}
			return &OrchestratorOutput{
				FinalResponse: "We are open 9am to 6pm.",
				Confidence:    0.9,
				ExecutionPlan: twoStepPlan(),
			}, nil
		}).Once()

	pub := activities.NewPublish(nil)
	env.OnActivity(pub.PublishEvent, mock.Anything, mock.Anything).Return(nil).Maybe()
	arch := activities.NewArchive(nil)
	env.OnActivity(arch.ArchiveTicket, mock.Anything, mock.Anything).Return(nil).Maybe()

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ticket.SignalUpdateStatus, string(ticket.StatusResolved))
	}, time.Minute)
	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ticket.SignalAddMessage, ticket.Message{
			Content: "one more thing",
			Type:    ticket.MessageCustomer,
		})
	}, 2*time.Minute)

	env.ExecuteWorkflow(TicketConductorWorkflow, conductorInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	// The post-resolution message was dropped, not recorded or orchestrated,
	// and the late orchestration outcome did not reopen the ticket.
	tk := queryTicket(t, env)
	assert.Equal(t, ticket.StatusResolved, tk.Status)
	require.Len(t, tk.ChatHistory, 1)
	assert.Equal(t, "What are your business hours?", tk.ChatHistory[0].Content)
	env.AssertExpectations(t)
}

func TestConductorRequeuesAnswerWhenRoutingFails(t *testing.T) {
	env, orchestrated, _ := newConductorEnv(t)

	env.OnSignalExternalWorkflow(mock.Anything, "TKT-1-question-q1", "", ticket.SignalReceiveAnswer, mock.Anything).
		Return(errors.New("workflow execution already completed"))

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ticket.SignalDisplayQuestion, ticket.QuestionRecord{
			QuestionID: "TKT-1-question-q1",
			WorkflowID: "TKT-1-question-q1",
			TicketID:   "TKT-1",
			AgentType:  agents.OrderSpecialist,
			Question:   "Which order are you asking about?",
		})
	}, time.Minute)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ticket.SignalAddMessage, ticket.Message{
			Content: "ORD-12345",
			Type:    ticket.MessageCustomer,
		})
	}, 2*time.Minute)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ticket.SignalUpdateStatus, string(ticket.StatusResolved))
	}, time.Hour)

	env.ExecuteWorkflow(TicketConductorWorkflow, conductorInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	// Undeliverable answers fall back to orchestration instead of vanishing.
	require.Len(t, *orchestrated, 2)
	assert.Equal(t, "ORD-12345", (*orchestrated)[1].CustomerMessage)
}

func TestConductorMarksQuestionTimeout(t *testing.T) {
	env, _, _ := newConductorEnv(t)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ticket.SignalDisplayQuestion, ticket.QuestionRecord{
			QuestionID: "TKT-1-question-q1",
			WorkflowID: "TKT-1-question-q1",
			TicketID:   "TKT-1",
			AgentType:  agents.RefundSpecialist,
			Question:   "Is the item defective?",
		})
	}, time.Minute)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ticket.SignalQuestionTimeout, ticket.TimeoutNotice{
			QuestionID: "TKT-1-question-q1",
			Question:   "Is the item defective?",
		})
	}, 2*time.Minute)

	env.RegisterDelayedCallback(func() {
		tk := queryTicket(t, env)
		assert.Equal(t, ticket.StatusInProgress, tk.Status)
		assert.Equal(t, ticket.QuestionTimedOut, tk.PendingQuestions["TKT-1-question-q1"].Status)
	}, 3*time.Minute)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ticket.SignalUpdateStatus, string(ticket.StatusClosed))
	}, time.Hour)

	env.ExecuteWorkflow(TicketConductorWorkflow, conductorInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
}

func TestConductorReleasesPendingQuestionOnClose(t *testing.T) {
	env, _, _ := newConductorEnv(t)

	var released string
	env.OnSignalExternalWorkflow(mock.Anything, "TKT-1-question-q1", "", ticket.SignalReceiveAnswer, mock.Anything).
		Run(func(args mock.Arguments) {
			released = args.Get(4).(string)
		}).Return(nil).Once()

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ticket.SignalDisplayQuestion, ticket.QuestionRecord{
			QuestionID:     "TKT-1-question-q1",
			WorkflowID:     "TKT-1-question-q1",
			TicketID:       "TKT-1",
			AgentType:      agents.MaleSpecialist,
			Question:       "What is your chest measurement?",
			TimeoutSeconds: 300,
		})
	}, time.Minute)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ticket.SignalUpdateStatus, string(ticket.StatusResolved))
	}, time.Hour)

	env.ExecuteWorkflow(TicketConductorWorkflow, conductorInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	// The blocked question workflow got the timeout marker as its answer and
	// the record went terminal with the ticket.
	assert.Equal(t, ticket.TimeoutMarker(300), released)
	tk := queryTicket(t, env)
	assert.Equal(t, ticket.QuestionTimedOut, tk.PendingQuestions["TKT-1-question-q1"].Status)
	env.AssertExpectations(t)
}

func TestConductorEscalatesWhenSynthesisAsks(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(TicketConductorWorkflow)
	env.RegisterWorkflow(OrchestratorWorkflow)

	env.OnWorkflow(OrchestratorWorkflow, mock.Anything, mock.Anything).Return(&OrchestratorOutput{
		FinalResponse:      "A human agent will take over.",
		Confidence:         0.4,
		RequiresEscalation: true,
		SynthesisReasoning: "Policy exception required",
		ExecutionPlan:      twoStepPlan(),
	}, nil).Once()

	pub := activities.NewPublish(nil)
	env.OnActivity(pub.PublishEvent, mock.Anything, mock.Anything).Return(nil).Maybe()
	arch := activities.NewArchive(nil)
	env.OnActivity(arch.ArchiveTicket, mock.Anything, mock.Anything).Return(nil).Maybe()

	env.RegisterDelayedCallback(func() {
		tk := queryTicket(t, env)
		assert.Equal(t, ticket.StatusEscalatedToHuman, tk.Status)
		assert.Equal(t, ticket.EscalationComplexIssue, tk.EscalationReason)
		assert.Equal(t, 1, tk.EscalationCount)
	}, time.Hour)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ticket.SignalUpdateStatus, string(ticket.StatusClosed))
	}, 2*time.Hour)

	env.ExecuteWorkflow(TicketConductorWorkflow, conductorInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	env.AssertExpectations(t)
}
