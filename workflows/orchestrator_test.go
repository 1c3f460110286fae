package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	"goa.design/conductor/activities"
	"goa.design/conductor/agents"
	"goa.design/conductor/plan"
	"goa.design/conductor/ticket"
)

func orchestratorInput() OrchestratorInput {
	return OrchestratorInput{
		CustomerMessage:  "I want to return my order and get a refund",
		ChatHistory:      []string{"[customer] Hi"},
		CustomerProfile:  map[string]any{"name": "John Doe"},
		CustomerID:       "customer-456",
		TicketID:         "TKT-1",
		TicketWorkflowID: "TKT-1",
		AvailableAgents:  agents.Available(),
	}
}

func twoStepPlan() *plan.Plan {
	return &plan.Plan{
		Steps: []plan.Step{
			{StepNumber: 1, AgentType: agents.OrderSpecialist, Reason: "verify the order", Priority: 1},
			{
				StepNumber: 2, AgentType: agents.RefundSpecialist, Reason: "assess the refund",
				DependsOn: []int{1}, ContextReferences: []string{"step_1"}, Priority: 1,
			},
		},
		Strategy:        plan.StrategySequential,
		ComplexityLevel: plan.ComplexityModerate,
		Reasoning:       "Order details feed the refund assessment",
	}
}

func newOrchestratorEnv(t *testing.T) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(OrchestratorWorkflow)
	env.RegisterWorkflow(SpecialistWorkflow)
	return env
}

func TestOrchestratorAccumulatesContextAcrossStages(t *testing.T) {
	env := newOrchestratorEnv(t)

	orch := activities.NewOrchestration(nil, nil)
	queries := activities.NewTicketQueries(nil)

	env.OnActivity(orch.Plan, mock.Anything, mock.Anything).Return(twoStepPlan(), nil).Once()

	// Fresh parent history is fetched once per stage.
	parentState := ticket.New("TKT-1", "customer-456", nil, env.Now())
	parentState.Append(ticket.Message{ID: "m1", Content: "Hi", Type: ticket.MessageCustomer, Timestamp: env.Now()})
	env.OnActivity(queries.QueryTicketState, mock.Anything, "TKT-1").Return(parentState, nil).Times(2)

	var specialistInputs []agents.SpecialistInput
	env.OnWorkflow(SpecialistWorkflow, mock.Anything, mock.Anything).Return(
		func(ctx workflow.Context, in agents.SpecialistInput) (*agents.SpecialistOutput, error) {
			specialistInputs = append(specialistInputs, in)
			switch in.AgentType {
			case agents.OrderSpecialist:
				return &agents.SpecialistOutput{
					Response:         "Order ORD-12345 was delivered on 2024-09-20.",
					Confidence:       0.92,
					SuggestedActions: "Verify the delivery photo",
					ToolResults:      map[string]any{"search_orders": map[string]any{"found": true}},
				}, nil
			default:
				return &agents.SpecialistOutput{
					Response:              "The order is outside the return window.",
					Confidence:            0.85,
					EligibilityAssessment: "Not eligible: 30 day window elapsed",
				}, nil
			}
		})

	env.OnActivity(orch.Synthesize, mock.Anything, mock.Anything).Return(
		func(_ context.Context, in activities.SynthesizeInput) (*plan.SynthesisResult, error) {
			require.Len(t, in.Results, 2)
			return &plan.SynthesisResult{
				FinalResponse:      "Your order is outside the return window, so a refund is not possible.",
				Confidence:         0.88,
				InformationSources: []string{"order_specialist", "refund_specialist"},
				SynthesisReasoning: "Combined order verification with refund policy",
			}, nil
		}).Once()

	env.OnSignalExternalWorkflow(mock.Anything, "TKT-1", "", ticket.SignalAddMessage, mock.Anything).Return(nil)

	env.ExecuteWorkflow(OrchestratorWorkflow, orchestratorInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out OrchestratorOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	assert.Equal(t, 0.88, out.Confidence)
	assert.False(t, out.RequiresEscalation)
	require.Len(t, out.AgentResults, 2)
	assert.Equal(t, agents.OrderSpecialist, out.AgentResults[0].AgentType)
	assert.Equal(t, "verify the order", out.AgentResults[0].Metadata["reason"])

	// The refund specialist saw the order specialist's findings.
	require.Len(t, specialistInputs, 2)
	refundIn := specialistInputs[1]
	assert.Equal(t, agents.RefundSpecialist, refundIn.AgentType)
	assert.Contains(t, refundIn.ConversationContext, "[order_specialist findings]")
	assert.Contains(t, refundIn.ConversationContext, "Order ORD-12345 was delivered")
	assert.Contains(t, refundIn.ConversationContext, "Suggested Actions: Verify the delivery photo")
	// And the first specialist was told who comes next.
	assert.Contains(t, specialistInputs[0].ConversationContext, "refund_specialist")
	env.AssertExpectations(t)
}

func TestOrchestratorFallsBackWhenPlanningFails(t *testing.T) {
	env := newOrchestratorEnv(t)

	orch := activities.NewOrchestration(nil, nil)
	queries := activities.NewTicketQueries(nil)

	env.OnActivity(orch.Plan, mock.Anything, mock.Anything).Return(nil, errors.New("model unavailable"))
	env.OnActivity(queries.QueryTicketState, mock.Anything, "TKT-1").Return(nil, errors.New("not running"))

	env.OnWorkflow(SpecialistWorkflow, mock.Anything, mock.Anything).Return(
		func(ctx workflow.Context, in agents.SpecialistInput) (*agents.SpecialistOutput, error) {
			assert.Equal(t, agents.GeneralSupport, in.AgentType)
			return &agents.SpecialistOutput{Response: "Happy to help.", Confidence: 0.7}, nil
		}).Once()

	env.OnActivity(orch.Synthesize, mock.Anything, mock.Anything).Return(&plan.SynthesisResult{
		FinalResponse: "Happy to help.",
		Confidence:    0.7,
	}, nil).Once()

	env.OnSignalExternalWorkflow(mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(OrchestratorWorkflow, orchestratorInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out OrchestratorOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	require.NotNil(t, out.ExecutionPlan)
	require.Len(t, out.ExecutionPlan.Steps, 1)
	assert.Equal(t, agents.GeneralSupport, out.ExecutionPlan.Steps[0].AgentType)
	env.AssertExpectations(t)
}

func TestOrchestratorSurvivesSpecialistFailure(t *testing.T) {
	env := newOrchestratorEnv(t)

	orch := activities.NewOrchestration(nil, nil)
	queries := activities.NewTicketQueries(nil)

	env.OnActivity(orch.Plan, mock.Anything, mock.Anything).Return(twoStepPlan(), nil).Once()
	env.OnActivity(queries.QueryTicketState, mock.Anything, "TKT-1").Return(nil, errors.New("not running"))

	env.OnWorkflow(SpecialistWorkflow, mock.Anything, mock.Anything).Return(
		func(ctx workflow.Context, in agents.SpecialistInput) (*agents.SpecialistOutput, error) {
			if in.AgentType == agents.OrderSpecialist {
				return nil, errors.New("tool server down")
			}
			return &agents.SpecialistOutput{Response: "Refund assessment done.", Confidence: 0.6}, nil
		})

	var synthInput activities.SynthesizeInput
	env.OnActivity(orch.Synthesize, mock.Anything, mock.Anything).Return(
		func(_ context.Context, in activities.SynthesizeInput) (*plan.SynthesisResult, error) {
			synthInput = in
			return &plan.SynthesisResult{FinalResponse: "Partial answer.", Confidence: 0.5, RequiresEscalation: true}, nil
		}).Once()

	env.OnSignalExternalWorkflow(mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(OrchestratorWorkflow, orchestratorInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	// The failed step became an escalating zero-confidence result and the
	// plan still ran to synthesis.
	require.Len(t, synthInput.Results, 2)
	failed := synthInput.Results[0]
	assert.Equal(t, agents.OrderSpecialist, failed.AgentType)
	assert.Zero(t, failed.Confidence)
	assert.True(t, failed.RequiresEscalation)
	assert.Contains(t, failed.Response, "Agent execution failed")

	var out OrchestratorOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	assert.True(t, out.RequiresEscalation)
	env.AssertExpectations(t)
}
