// Package plan models orchestrator execution plans: the steps a planner
// schedules, their dependency DAG, the staged execution order derived from
// it, and the per-step results accumulated while the plan runs.
package plan

import (
	"fmt"
	"strings"

	"goa.design/conductor/agents"
)

// Execution strategies a planner may choose.
const (
	StrategySequential  = "sequential"
	StrategyParallel    = "parallel"
	StrategyConditional = "conditional"
	StrategyHybrid      = "hybrid"
)

// Complexity levels a planner may report.
const (
	ComplexitySimple      = "simple"
	ComplexityModerate    = "moderate"
	ComplexityComplex     = "complex"
	ComplexityMultiDomain = "multi_domain"
)

type (
	// Step is one unit of an execution plan: which specialist runs, why,
	// and which earlier steps it needs the findings of.
	Step struct {
		// StepNumber identifies the step within the plan (1-based).
		StepNumber int `json:"step_number"`
		// AgentType is the specialist assigned to the step.
		AgentType agents.Type `json:"agent_type"`
		// Reason is the planner's explanation for scheduling this agent.
		Reason string `json:"reason"`
		// DependsOn lists step numbers that must complete first.
		DependsOn []int `json:"depends_on,omitempty"`
		// Inputs carries optional planner-chosen input parameters.
		Inputs map[string]any `json:"inputs,omitempty"`
		// ContextReferences names execution-context keys ("step_N") whose
		// findings are handed to this step.
		ContextReferences []string `json:"context_references,omitempty"`
		// Priority orders steps within a stage, lower runs first.
		Priority int `json:"priority"`
	}

	// Plan is a complete execution plan produced by the planner.
	Plan struct {
		Steps                    []Step `json:"steps"`
		Strategy                 string `json:"strategy"`
		ComplexityLevel          string `json:"complexity_level"`
		EstimatedDurationSeconds int    `json:"estimated_duration_seconds"`
		Reasoning                string `json:"reasoning"`
	}

	// AgentResult records the outcome of one executed step.
	AgentResult struct {
		StepNumber         int            `json:"step_number"`
		AgentType          agents.Type    `json:"agent_type"`
		Response           string         `json:"response"`
		Confidence         float64        `json:"confidence"`
		RequiresEscalation bool           `json:"requires_escalation"`
		ExecutionTimeMS    int64          `json:"execution_time_ms"`
		ToolResults        map[string]any `json:"tool_results,omitempty"`
		Metadata           map[string]any `json:"metadata,omitempty"`
	}

	// SynthesisResult is the synthesizer's combination of all step results
	// into one customer-facing answer.
	SynthesisResult struct {
		FinalResponse      string   `json:"final_response"`
		Confidence         float64  `json:"confidence"`
		InformationSources []string `json:"information_sources,omitempty"`
		RequiresEscalation bool     `json:"requires_escalation"`
		RequiresFollowup   bool     `json:"requires_followup"`
		FollowupPlan       *Plan    `json:"followup_plan,omitempty"`
		SynthesisReasoning string   `json:"synthesis_reasoning"`
	}
)

// ContextKey is the execution-context key under which a step's finding is
// stored ("step_3" for step 3).
func ContextKey(stepNumber int) string {
	return fmt.Sprintf("step_%d", stepNumber)
}

// Fallback returns the single-step general-support plan used when planning
// fails. It always succeeds in normalization and staging.
func Fallback(reason string) *Plan {
	return &Plan{
		Steps: []Step{{
			StepNumber: 1,
			AgentType:  agents.GeneralSupport,
			Reason:     "Fallback due to planning error",
			Priority:   1,
		}},
		Strategy:                 StrategySequential,
		ComplexityLevel:          ComplexitySimple,
		EstimatedDurationSeconds: 30,
		Reasoning:                reason,
	}
}

// FallbackSynthesis concatenates per-agent responses when model synthesis
// fails. Escalation is forced so a human reviews the stitched answer.
func FallbackSynthesis(results []AgentResult) *SynthesisResult {
	var parts []string
	var sources []string
	for _, r := range results {
		if r.Response == "" {
			continue
		}
		parts = append(parts, r.Response)
		sources = append(sources, string(r.AgentType))
	}
	return &SynthesisResult{
		FinalResponse:      strings.Join(parts, "\n\n"),
		Confidence:         0,
		InformationSources: sources,
		RequiresEscalation: true,
		SynthesisReasoning: "Fallback synthesis: concatenated agent responses after a synthesis error",
	}
}

// Summary renders the plan as the system chat message shown to operators.
func (p *Plan) Summary() string {
	names := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		names[i] = string(s.AgentType)
	}
	return fmt.Sprintf(
		"Orchestrator Plan:\n• Complexity: %s\n• Strategy: %s\n• Agents: %s\n• Reasoning: %s",
		p.ComplexityLevel, p.Strategy, strings.Join(names, ", "), p.Reasoning)
}

// Downstream returns the agent types of steps that depend on stepNumber.
func (p *Plan) Downstream(stepNumber int) []agents.Type {
	var out []agents.Type
	for _, s := range p.Steps {
		for _, dep := range s.DependsOn {
			if dep == stepNumber {
				out = append(out, s.AgentType)
				break
			}
		}
	}
	return out
}

// Normalize repairs a planner-produced plan in place so execution can always
// proceed:
//
//   - steps naming an unknown or non-plannable agent are rewritten to
//     general_support (the step is kept, not dropped)
//   - dependencies on the step itself or on later steps are dropped
//   - context references are extended so every dependency's "step_N" key is
//     referenced
//   - zero step numbers are assigned sequentially and priorities default to 1
//   - steps repeating an earlier step number are dropped; step numbers key
//     the execution context and the child workflow IDs, so they must be
//     unique within a plan
//
// An empty plan is replaced with the fallback step.
func (p *Plan) Normalize() {
	if len(p.Steps) == 0 {
		fb := Fallback("Planner returned an empty plan")
		p.Steps = fb.Steps
		if p.Strategy == "" {
			p.Strategy = fb.Strategy
		}
		if p.ComplexityLevel == "" {
			p.ComplexityLevel = fb.ComplexityLevel
		}
		return
	}
	seen := make(map[int]bool, len(p.Steps))
	kept := p.Steps[:0]
	for i := range p.Steps {
		s := &p.Steps[i]
		if s.StepNumber == 0 {
			s.StepNumber = i + 1
		}
		if seen[s.StepNumber] {
			continue
		}
		seen[s.StepNumber] = true
		if !agents.Plannable(s.AgentType) {
			s.AgentType = agents.GeneralSupport
		}
		if len(s.DependsOn) > 0 {
			deps := s.DependsOn[:0]
			for _, dep := range s.DependsOn {
				if dep > 0 && dep < s.StepNumber {
					deps = append(deps, dep)
				}
			}
			s.DependsOn = deps
		}
		have := make(map[string]bool, len(s.ContextReferences))
		for _, ref := range s.ContextReferences {
			have[ref] = true
		}
		for _, dep := range s.DependsOn {
			if key := ContextKey(dep); !have[key] {
				s.ContextReferences = append(s.ContextReferences, key)
			}
		}
		if s.Priority == 0 {
			s.Priority = 1
		}
		kept = append(kept, *s)
	}
	p.Steps = kept
	if p.Strategy == "" {
		p.Strategy = StrategySequential
	}
	if p.ComplexityLevel == "" {
		p.ComplexityLevel = ComplexityModerate
	}
}
