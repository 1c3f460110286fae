// Package activities implements the Temporal activities of the support
// backend: model-backed planning, synthesis and specialist reasoning, parent
// state queries, ticket auto-close maintenance, chat event publication and
// terminal-ticket archival. Activities hold their dependencies; workflows
// address them through method references registered on the worker.
package activities

import (
	"context"
	"fmt"

	"goa.design/clue/log"

	"goa.design/conductor/agents"
	"goa.design/conductor/llm"
	"goa.design/conductor/plan"
	"goa.design/conductor/toolprovider"
	"goa.design/conductor/tools/bundled"
)

type (
	// Orchestration hosts the planning and synthesis activities.
	Orchestration struct {
		planner     *llm.Planner
		synthesizer *llm.Synthesizer
	}

	// PlanInput carries the planning activity arguments.
	PlanInput struct {
		CustomerMessage string         `json:"customer_message"`
		ChatHistory     []string       `json:"chat_history,omitempty"`
		CustomerProfile map[string]any `json:"customer_profile,omitempty"`
		AvailableAgents []agents.Type  `json:"available_agents"`
	}

	// SynthesizeInput carries the synthesis activity arguments.
	SynthesizeInput struct {
		CustomerMessage     string             `json:"customer_message"`
		Plan                *plan.Plan         `json:"plan"`
		Results             []plan.AgentResult `json:"results"`
		ConversationContext string             `json:"conversation_context,omitempty"`
	}

	// Reasoning hosts the specialist reasoning activity.
	Reasoning struct {
		reasoner *llm.Reasoner
		provider toolprovider.Provider
	}
)

// NewOrchestration builds the orchestration activities.
func NewOrchestration(planner *llm.Planner, synthesizer *llm.Synthesizer) *Orchestration {
	return &Orchestration{planner: planner, synthesizer: synthesizer}
}

// Plan asks the model for an execution plan. The returned plan is already
// normalized; planning failures surface as errors so the workflow can fall
// back to the single-step general-support plan.
func (o *Orchestration) Plan(ctx context.Context, in PlanInput) (*plan.Plan, error) {
	p, err := o.planner.Plan(ctx, llm.PlanRequest{
		CustomerMessage: in.CustomerMessage,
		ChatHistory:     in.ChatHistory,
		CustomerProfile: in.CustomerProfile,
		AvailableAgents: in.AvailableAgents,
	})
	if err != nil {
		return nil, err
	}
	log.Printf(ctx, "planned %d steps (%s, %s)", len(p.Steps), p.Strategy, p.ComplexityLevel)
	return p, nil
}

// Synthesize combines executed step results into the final response.
func (o *Orchestration) Synthesize(ctx context.Context, in SynthesizeInput) (*plan.SynthesisResult, error) {
	res, err := o.synthesizer.Synthesize(ctx, llm.SynthesisRequest{
		CustomerMessage:     in.CustomerMessage,
		Plan:                in.Plan,
		Results:             in.Results,
		ConversationContext: in.ConversationContext,
	})
	if err != nil {
		return nil, err
	}
	log.Printf(ctx, "synthesized response from %d results (confidence %.2f)", len(in.Results), res.Confidence)
	return res, nil
}

// NewReasoning builds the specialist reasoning activity.
func NewReasoning(reasoner *llm.Reasoner, provider toolprovider.Provider) *Reasoning {
	return &Reasoning{reasoner: reasoner, provider: provider}
}

// Reason runs one specialist session: resolve the agent's toolset for the
// ticket, then drive the model tool-use loop to its structured answer.
func (r *Reasoning) Reason(ctx context.Context, in agents.SpecialistInput) (*agents.SpecialistOutput, error) {
	scope := bundled.Scope{
		TicketID:         in.TicketID,
		TicketWorkflowID: in.TicketWorkflowID,
		CustomerID:       in.CustomerID,
	}
	toolset, err := r.provider.Toolset(ctx, in.AgentType, scope)
	if err != nil {
		return nil, fmt.Errorf("resolve %s toolset: %w", in.AgentType, err)
	}
	out, err := r.reasoner.Run(ctx, in, toolset)
	if err != nil {
		return nil, fmt.Errorf("%s reasoning: %w", in.AgentType, err)
	}
	log.Printf(ctx, "%s answered (confidence %.2f, escalation %t)", in.AgentType, out.Confidence, out.RequiresEscalation)
	return out, nil
}
