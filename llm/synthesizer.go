package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"goa.design/conductor/plan"
)

type (
	// Synthesizer combines the results of an executed plan into one
	// customer-facing response.
	Synthesizer struct {
		client Client
		model  string
	}

	// SynthesisRequest carries the synthesis inputs.
	SynthesisRequest struct {
		CustomerMessage     string
		Plan                *plan.Plan
		Results             []plan.AgentResult
		ConversationContext string
	}

	synthesisEnvelope struct {
		FinalResponse      string        `json:"final_response"`
		Confidence         float64       `json:"confidence"`
		InformationSources []string      `json:"information_sources"`
		RequiresEscalation bool          `json:"requires_escalation"`
		RequiresFollowup   bool          `json:"requires_followup"`
		FollowupPlan       *planEnvelope `json:"followup_plan"`
		SynthesisReasoning string        `json:"synthesis_reasoning"`
	}
)

// NewSynthesizer builds a synthesizer on the given model client.
func NewSynthesizer(client Client, model string) *Synthesizer {
	return &Synthesizer{client: client, model: model}
}

// Synthesize invokes the model and returns the combined response.
func (s *Synthesizer) Synthesize(ctx context.Context, req SynthesisRequest) (*plan.SynthesisResult, error) {
	planDoc := map[string]any{
		"strategy":         req.Plan.Strategy,
		"complexity_level": req.Plan.ComplexityLevel,
	}
	planSteps := make([]map[string]any, len(req.Plan.Steps))
	for i, st := range req.Plan.Steps {
		planSteps[i] = map[string]any{
			"step": st.StepNumber, "agent": st.AgentType,
			"reason": st.Reason, "depends_on": st.DependsOn,
		}
	}
	planDoc["steps"] = planSteps

	results := make([]map[string]any, len(req.Results))
	for i, r := range req.Results {
		results[i] = map[string]any{
			"step": r.StepNumber, "agent": r.AgentType,
			"response": r.Response, "confidence": r.Confidence,
			"requires_escalation": r.RequiresEscalation,
			"execution_time_ms":   r.ExecutionTimeMS,
		}
	}
	planJSON, _ := json.Marshal(planDoc)
	resultsJSON, _ := json.Marshal(results)

	user := fmt.Sprintf(
		"Original customer message: %s\n\nExecution plan: %s\n\nAgent results: %s\n\nConversation context:\n%s",
		req.CustomerMessage, planJSON, resultsJSON, req.ConversationContext)

	resp, err := s.client.Complete(ctx, Request{
		Model: s.model,
		Messages: []Message{
			{Role: RoleSystem, Content: synthesizerSystem},
			{Role: RoleUser, Content: user},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("synthesis completion: %w", err)
	}

	var env synthesisEnvelope
	if err := DecodeJSON(resp.Text, &env); err != nil {
		return nil, fmt.Errorf("synthesis: %w", err)
	}
	out := &plan.SynthesisResult{
		FinalResponse:      env.FinalResponse,
		Confidence:         env.Confidence,
		InformationSources: env.InformationSources,
		RequiresEscalation: env.RequiresEscalation,
		RequiresFollowup:   env.RequiresFollowup,
		SynthesisReasoning: env.SynthesisReasoning,
	}
	if env.FollowupPlan != nil && len(env.FollowupPlan.Steps) > 0 {
		out.FollowupPlan = env.FollowupPlan.toPlan()
	}
	return out, nil
}
