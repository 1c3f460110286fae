package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"goa.design/conductor/agents"
	"goa.design/conductor/plan"
)

type (
	// Planner turns a customer message into a normalized execution plan.
	Planner struct {
		client Client
		model  string
	}

	// PlanRequest carries the planning inputs.
	PlanRequest struct {
		CustomerMessage string
		ChatHistory     []string
		CustomerProfile map[string]any
		AvailableAgents []agents.Type
	}

	planStepEnvelope struct {
		Step      int      `json:"step"`
		Agent     string   `json:"agent"`
		Reason    string   `json:"reason"`
		DependsOn []int    `json:"depends_on"`
		Refs      []string `json:"context_refs"`
		Priority  int      `json:"priority"`
	}

	planEnvelope struct {
		Steps             []planStepEnvelope `json:"steps"`
		Strategy          string             `json:"strategy"`
		ComplexityLevel   string             `json:"complexity_level"`
		EstimatedDuration int                `json:"estimated_duration"`
		Reasoning         string             `json:"reasoning"`
	}
)

// NewPlanner builds a planner on the given model client.
func NewPlanner(client Client, model string) *Planner {
	return &Planner{client: client, model: model}
}

// Plan invokes the model and returns a normalized plan: unknown agents are
// rewritten to general_support, dependency references are completed and an
// empty step list becomes the fallback plan.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (*plan.Plan, error) {
	history := "No previous conversation"
	if len(req.ChatHistory) > 0 {
		history = strings.Join(req.ChatHistory, "\n")
	}
	profile, _ := json.Marshal(req.CustomerProfile)
	available := make([]string, len(req.AvailableAgents))
	for i, a := range req.AvailableAgents {
		available[i] = string(a)
	}

	user := fmt.Sprintf(
		"Customer message: %s\n\nConversation history:\n%s\n\nCustomer profile: %s\n\nAvailable agents: %s",
		req.CustomerMessage, history, profile, strings.Join(available, ", "))

	resp, err := p.client.Complete(ctx, Request{
		Model: p.model,
		Messages: []Message{
			{Role: RoleSystem, Content: plannerSystem},
			{Role: RoleUser, Content: user},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("planning completion: %w", err)
	}

	var env planEnvelope
	if err := DecodeJSON(resp.Text, &env); err != nil {
		return nil, fmt.Errorf("planning: %w", err)
	}
	return env.toPlan(), nil
}

func (env *planEnvelope) toPlan() *plan.Plan {
	steps := make([]plan.Step, len(env.Steps))
	for i, s := range env.Steps {
		steps[i] = plan.Step{
			StepNumber:        s.Step,
			AgentType:         agents.Type(s.Agent),
			Reason:            s.Reason,
			DependsOn:         s.DependsOn,
			ContextReferences: s.Refs,
			Priority:          s.Priority,
		}
	}
	out := &plan.Plan{
		Steps:                    steps,
		Strategy:                 env.Strategy,
		ComplexityLevel:          env.ComplexityLevel,
		EstimatedDurationSeconds: env.EstimatedDuration,
		Reasoning:                env.Reasoning,
	}
	out.Normalize()
	return out
}
