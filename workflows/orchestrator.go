package workflows

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/workflow"

	"goa.design/conductor/activities"
	"goa.design/conductor/agents"
	"goa.design/conductor/plan"
	"goa.design/conductor/ticket"
)

type (
	// OrchestratorInput carries one customer message and everything needed
	// to plan and execute specialists against it.
	OrchestratorInput struct {
		CustomerMessage  string         `json:"customer_message"`
		ChatHistory      []string       `json:"chat_history,omitempty"`
		CustomerProfile  map[string]any `json:"customer_profile,omitempty"`
		CustomerID       string         `json:"customer_id"`
		TicketID         string         `json:"ticket_id"`
		TicketWorkflowID string         `json:"ticket_workflow_id"`
		AvailableAgents  []agents.Type  `json:"available_agents"`
	}

	// OrchestratorOutput is the synthesized outcome of one orchestration.
	OrchestratorOutput struct {
		FinalResponse      string             `json:"final_response"`
		Confidence         float64            `json:"confidence"`
		RequiresEscalation bool               `json:"requires_escalation"`
		RequiresFollowup   bool               `json:"requires_followup"`
		FollowupPlan       *plan.Plan         `json:"followup_plan,omitempty"`
		SynthesisReasoning string             `json:"synthesis_reasoning"`
		ExecutionPlan      *plan.Plan         `json:"execution_plan"`
		AgentResults       []plan.AgentResult `json:"agent_results"`
	}

	// stepOutcome pairs a launched specialist with its pending future.
	stepOutcome struct {
		step    plan.Step
		future  workflow.ChildWorkflowFuture
		started time.Time
	}
)

// OrchestratorWorkflow plans, executes and synthesizes one orchestration:
// a planning activity produces the specialist DAG, stages run as parallel
// child workflows with context accumulated between stages, and a synthesis
// activity folds every finding into the final response. Each intermediate
// result is signaled back to the conductor as it lands, so the chat shows
// agents working in real time.
func OrchestratorWorkflow(ctx workflow.Context, in OrchestratorInput) (*OrchestratorOutput, error) {
	logger := workflow.GetLogger(ctx)

	p := createPlan(ctx, in)
	logger.Info("plan ready", "ticket_id", in.TicketID,
		"steps", len(p.Steps), "strategy", p.Strategy, "complexity", p.ComplexityLevel)

	signalPlan(ctx, in, p)

	results := executePlan(ctx, in, p)

	out := synthesize(ctx, in, p, results)
	out.ExecutionPlan = p
	out.AgentResults = results

	signalFinalResponse(ctx, in, out)

	logger.Info("orchestration complete", "ticket_id", in.TicketID,
		"confidence", out.Confidence, "escalation", out.RequiresEscalation)
	return out, nil
}

// createPlan runs the planning activity, falling back to the single-step
// general-support plan when the model cannot produce one.
func createPlan(ctx workflow.Context, in OrchestratorInput) *plan.Plan {
	actx := withActivity(ctx, 2*time.Minute, 2)
	var p *plan.Plan
	err := workflow.ExecuteActivity(actx, orchestrationActivities.Plan, activities.PlanInput{
		CustomerMessage: in.CustomerMessage,
		ChatHistory:     in.ChatHistory,
		CustomerProfile: in.CustomerProfile,
		AvailableAgents: in.AvailableAgents,
	}).Get(ctx, &p)
	if err != nil {
		workflow.GetLogger(ctx).Error("planning failed, using fallback plan", "error", err)
		return plan.Fallback(fmt.Sprintf("Planning failed: %v", err))
	}
	return p
}

// executePlan drives the staged DAG. Stages run sequentially; the steps of a
// stage run as parallel specialist child workflows. Before each stage the
// parent ticket is re-queried so answers given mid-orchestration reach the
// next specialists.
func executePlan(ctx workflow.Context, in OrchestratorInput, p *plan.Plan) []plan.AgentResult {
	logger := workflow.GetLogger(ctx)
	stages := p.Stages()
	logger.Info("executing plan", "stages", len(stages))

	var results []plan.AgentResult
	executionContext := make(map[string]agents.StepFinding)

	for i, stage := range stages {
		history := freshHistory(ctx, in)

		outcomes := make([]stepOutcome, 0, len(stage))
		for _, step := range stage {
			input := specialistInput(in, p, step, history, executionContext)
			childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
				WorkflowID: fmt.Sprintf("%s-%s-step%d", in.TicketID, step.AgentType, step.StepNumber),
				TaskQueue:  ticket.TaskQueue,
			})
			logger.Info("executing specialist", "stage", i+1,
				"step", step.StepNumber, "agent_type", step.AgentType, "reason", step.Reason)
			outcomes = append(outcomes, stepOutcome{
				step:    step,
				future:  workflow.ExecuteChildWorkflow(childCtx, SpecialistWorkflow, input),
				started: workflow.Now(ctx).UTC(),
			})
		}

		for _, oc := range outcomes {
			var out agents.SpecialistOutput
			err := oc.future.Get(ctx, &out)
			elapsed := workflow.Now(ctx).UTC().Sub(oc.started).Milliseconds()

			var result plan.AgentResult
			if err != nil {
				logger.Error("specialist failed", "step", oc.step.StepNumber,
					"agent_type", oc.step.AgentType, "error", err)
				result = plan.AgentResult{
					StepNumber:         oc.step.StepNumber,
					AgentType:          oc.step.AgentType,
					Response:           fmt.Sprintf("Agent execution failed: %v", err),
					Confidence:         0,
					RequiresEscalation: true,
					Metadata:           map[string]any{"error": err.Error()},
				}
			} else {
				result = agentResult(oc.step, &out, elapsed)
				executionContext[plan.ContextKey(oc.step.StepNumber)] = agents.StepFinding{
					Agent:              oc.step.AgentType,
					Response:           out.Response,
					Confidence:         out.Confidence,
					RequiresEscalation: out.RequiresEscalation,
					AdditionalInfo:     out.AdditionalInfo(oc.step.AgentType),
					FullOutput:         structToMap(&out),
					ToolResults:        out.ToolResults,
				}
				signalAgentResult(ctx, in, oc.step, &out, result)
			}
			results = append(results, result)
		}
	}
	return results
}

// freshHistory re-queries the conductor for the current chat history. On
// failure the history captured at orchestration start is used instead.
func freshHistory(ctx workflow.Context, in OrchestratorInput) []string {
	if in.TicketWorkflowID == "" {
		return in.ChatHistory
	}
	actx := withActivity(ctx, 30*time.Second, 2)
	var state *ticket.Ticket
	err := workflow.ExecuteActivity(actx, queryActivities.QueryTicketState, in.TicketWorkflowID).Get(ctx, &state)
	if err != nil || state == nil {
		workflow.GetLogger(ctx).Warn("parent state query failed, using initial history", "error", err)
		return in.ChatHistory
	}
	return ticket.PromptHistory(state.ChatHistory)
}

// specialistInput composes one specialist's input: refreshed conversation,
// downstream-agent note and the findings of every referenced dependency.
func specialistInput(in OrchestratorInput, p *plan.Plan, step plan.Step, history []string, executionContext map[string]agents.StepFinding) agents.SpecialistInput {
	var findings []agents.StepFinding
	for _, ref := range step.ContextReferences {
		if f, ok := executionContext[ref]; ok {
			findings = append(findings, f)
		}
	}
	conversation := agents.ComposeContext(agents.ContextParams{
		ChatHistory:     history,
		CustomerMessage: in.CustomerMessage,
		Downstream:      p.Downstream(step.StepNumber),
		Findings:        findings,
	})
	return agents.SpecialistInput{
		AgentType:           step.AgentType,
		CustomerMessage:     in.CustomerMessage,
		ConversationContext: conversation,
		CustomerID:          in.CustomerID,
		CustomerProfile:     in.CustomerProfile,
		TicketID:            in.TicketID,
		TicketWorkflowID:    in.TicketWorkflowID,
	}
}

func agentResult(step plan.Step, out *agents.SpecialistOutput, elapsedMS int64) plan.AgentResult {
	return plan.AgentResult{
		StepNumber:         step.StepNumber,
		AgentType:          step.AgentType,
		Response:           out.Response,
		Confidence:         out.Confidence,
		RequiresEscalation: out.RequiresEscalation,
		ExecutionTimeMS:    elapsedMS,
		ToolResults:        out.ToolResults,
		Metadata: map[string]any{
			"reason":                 step.Reason,
			"dependencies":           step.DependsOn,
			"llm_history":            out.LLMHistory,
			"full_specialist_output": structToMap(out),
		},
	}
}

// synthesize runs the synthesis activity, falling back to concatenated
// specialist responses when the model cannot combine them.
func synthesize(ctx workflow.Context, in OrchestratorInput, p *plan.Plan, results []plan.AgentResult) *OrchestratorOutput {
	conversation := strings.Join(in.ChatHistory, "\n")
	actx := withActivity(ctx, 2*time.Minute, 2)
	var res *plan.SynthesisResult
	err := workflow.ExecuteActivity(actx, orchestrationActivities.Synthesize, activities.SynthesizeInput{
		CustomerMessage:     in.CustomerMessage,
		Plan:                p,
		Results:             results,
		ConversationContext: conversation,
	}).Get(ctx, &res)
	if err != nil {
		workflow.GetLogger(ctx).Error("synthesis failed, using fallback", "error", err)
		res = plan.FallbackSynthesis(results)
	}
	return &OrchestratorOutput{
		FinalResponse:      res.FinalResponse,
		Confidence:         res.Confidence,
		RequiresEscalation: res.RequiresEscalation,
		RequiresFollowup:   res.RequiresFollowup,
		FollowupPlan:       res.FollowupPlan,
		SynthesisReasoning: res.SynthesisReasoning,
	}
}

// signalPlan shows the plan in the ticket chat as soon as it exists.
func signalPlan(ctx workflow.Context, in OrchestratorInput, p *plan.Plan) {
	steps := make([]map[string]any, len(p.Steps))
	for i, s := range p.Steps {
		steps[i] = map[string]any{
			"step": s.StepNumber, "agent": string(s.AgentType),
			"reason": s.Reason, "depends_on": s.DependsOn,
		}
	}
	msg := ticket.Message{
		ID:        newID(ctx),
		TicketID:  in.TicketID,
		Content:   p.Summary(),
		Type:      ticket.MessageSystem,
		AgentType: agents.Orchestrator,
		Timestamp: workflow.Now(ctx).UTC(),
		Metadata: map[string]any{
			"execution_plan": map[string]any{
				"steps":              steps,
				"strategy":           p.Strategy,
				"complexity":         p.ComplexityLevel,
				"estimated_duration": p.EstimatedDurationSeconds,
			},
		},
	}
	signalParent(ctx, in, msg)
}

// signalAgentResult shows one specialist's answer in the ticket chat with
// its structured fields and execution metadata.
func signalAgentResult(ctx workflow.Context, in OrchestratorInput, step plan.Step, out *agents.SpecialistOutput, result plan.AgentResult) {
	msg := ticket.Message{
		ID:             newID(ctx),
		TicketID:       in.TicketID,
		Content:        out.Response,
		Type:           ticket.MessageAIAgent,
		AgentType:      step.AgentType,
		Timestamp:      workflow.Now(ctx).UTC(),
		AdditionalInfo: out.AdditionalInfo(step.AgentType),
		Metadata: map[string]any{
			"step_number":            result.StepNumber,
			"confidence":             result.Confidence,
			"execution_time_ms":      result.ExecutionTimeMS,
			"requires_escalation":    result.RequiresEscalation,
			"tool_results":           result.ToolResults,
			"full_specialist_output": structToMap(out),
		},
	}
	signalParent(ctx, in, msg)
}

// signalFinalResponse shows the synthesized answer in the ticket chat.
func signalFinalResponse(ctx workflow.Context, in OrchestratorInput, out *OrchestratorOutput) {
	agentsUsed := make([]string, len(out.AgentResults))
	var totalMS int64
	for i, r := range out.AgentResults {
		agentsUsed[i] = string(r.AgentType)
		totalMS += r.ExecutionTimeMS
	}
	msg := ticket.Message{
		ID:        newID(ctx),
		TicketID:  in.TicketID,
		Content:   out.FinalResponse,
		Type:      ticket.MessageAIAgent,
		AgentType: agents.Orchestrator,
		Timestamp: workflow.Now(ctx).UTC(),
		Metadata: map[string]any{
			"orchestrator_synthesis":  true,
			"confidence":              out.Confidence,
			"synthesis_reasoning":     out.SynthesisReasoning,
			"agents_used":             agentsUsed,
			"total_execution_time_ms": totalMS,
		},
	}
	signalParent(ctx, in, msg)
}

// signalParent delivers a chat message to the conductor. Failures are
// logged; the orchestration result still flows back through the child
// workflow return value.
func signalParent(ctx workflow.Context, in OrchestratorInput, msg ticket.Message) {
	if in.TicketWorkflowID == "" {
		return
	}
	err := workflow.SignalExternalWorkflow(ctx, in.TicketWorkflowID, "", ticket.SignalAddMessage, msg).Get(ctx, nil)
	if err != nil {
		workflow.GetLogger(ctx).Error("parent signal failed",
			"ticket_workflow_id", in.TicketWorkflowID, "error", err)
	}
}
