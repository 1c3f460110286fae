package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/conductor/agents"
)

func TestNormalizeEmptyPlanBecomesFallback(t *testing.T) {
	p := &Plan{}
	p.Normalize()
	require.Len(t, p.Steps, 1)
	assert.Equal(t, agents.GeneralSupport, p.Steps[0].AgentType)
	assert.Equal(t, StrategySequential, p.Strategy)
	assert.Equal(t, ComplexitySimple, p.ComplexityLevel)
}

func TestNormalizeRewritesUnknownAgent(t *testing.T) {
	p := &Plan{Steps: []Step{
		{StepNumber: 1, AgentType: agents.Type("warehouse_robot"), Priority: 1},
		{StepNumber: 2, AgentType: agents.Orchestrator, Priority: 1},
		{StepNumber: 3, AgentType: agents.RefundSpecialist, Priority: 1},
	}}
	p.Normalize()
	assert.Equal(t, agents.GeneralSupport, p.Steps[0].AgentType)
	assert.Equal(t, agents.GeneralSupport, p.Steps[1].AgentType)
	assert.Equal(t, agents.RefundSpecialist, p.Steps[2].AgentType)
	// The steps are kept, never dropped.
	assert.Len(t, p.Steps, 3)
}

func TestNormalizeAutoFillsContextReferences(t *testing.T) {
	p := &Plan{Steps: []Step{
		{StepNumber: 1, AgentType: agents.OrderSpecialist},
		{StepNumber: 2, AgentType: agents.RefundSpecialist, DependsOn: []int{1}},
		{StepNumber: 3, AgentType: agents.Billing, DependsOn: []int{1, 2}, ContextReferences: []string{"step_2"}},
	}}
	p.Normalize()
	assert.Empty(t, p.Steps[0].ContextReferences)
	assert.Equal(t, []string{"step_1"}, p.Steps[1].ContextReferences)
	// Explicit references are kept and missing dependency keys appended.
	assert.Equal(t, []string{"step_2", "step_1"}, p.Steps[2].ContextReferences)
	// Defaults applied.
	assert.Equal(t, 1, p.Steps[0].Priority)
	assert.Equal(t, StrategySequential, p.Strategy)
}

func TestNormalizeDropsForwardAndSelfDependencies(t *testing.T) {
	p := &Plan{Steps: []Step{
		{StepNumber: 1, AgentType: agents.OrderSpecialist, DependsOn: []int{1, 2}},
		{StepNumber: 2, AgentType: agents.RefundSpecialist, DependsOn: []int{1, 5, 0}},
	}}
	p.Normalize()
	assert.Empty(t, p.Steps[0].DependsOn)
	assert.Equal(t, []int{1}, p.Steps[1].DependsOn)
	assert.Equal(t, []string{"step_1"}, p.Steps[1].ContextReferences)
}

func TestNormalizeDropsDuplicateStepNumbers(t *testing.T) {
	p := &Plan{Steps: []Step{
		{StepNumber: 1, AgentType: agents.OrderSpecialist},
		{StepNumber: 1, AgentType: agents.OrderSpecialist},
		{StepNumber: 2, AgentType: agents.RefundSpecialist, DependsOn: []int{1}},
		{StepNumber: 2, AgentType: agents.Billing},
	}}
	p.Normalize()
	// Step numbers key the execution context and the child workflow IDs, so
	// the first occurrence wins and repeats are dropped.
	require.Len(t, p.Steps, 2)
	assert.Equal(t, 1, p.Steps[0].StepNumber)
	assert.Equal(t, agents.OrderSpecialist, p.Steps[0].AgentType)
	assert.Equal(t, 2, p.Steps[1].StepNumber)
	assert.Equal(t, agents.RefundSpecialist, p.Steps[1].AgentType)
	assert.Equal(t, []string{"step_1"}, p.Steps[1].ContextReferences)
}

func TestNormalizeAssignsMissingStepNumbers(t *testing.T) {
	p := &Plan{Steps: []Step{
		{AgentType: agents.OrderSpecialist},
		{AgentType: agents.Delivery},
	}}
	p.Normalize()
	assert.Equal(t, 1, p.Steps[0].StepNumber)
	assert.Equal(t, 2, p.Steps[1].StepNumber)
}

func TestSummary(t *testing.T) {
	p := &Plan{
		Steps: []Step{
			{StepNumber: 1, AgentType: agents.OrderSpecialist},
			{StepNumber: 2, AgentType: agents.RefundSpecialist},
		},
		Strategy:        StrategySequential,
		ComplexityLevel: ComplexityModerate,
		Reasoning:       "order check before refund",
	}
	s := p.Summary()
	assert.Contains(t, s, "Orchestrator Plan:")
	assert.Contains(t, s, "• Complexity: moderate")
	assert.Contains(t, s, "• Strategy: sequential")
	assert.Contains(t, s, "• Agents: order_specialist, refund_specialist")
	assert.Contains(t, s, "• Reasoning: order check before refund")
}

func TestDownstream(t *testing.T) {
	p := &Plan{Steps: []Step{
		{StepNumber: 1, AgentType: agents.OrderSpecialist},
		{StepNumber: 2, AgentType: agents.TechnicalSpecialist, DependsOn: []int{1}},
		{StepNumber: 3, AgentType: agents.RefundSpecialist, DependsOn: []int{1, 2}},
	}}
	assert.Equal(t, []agents.Type{agents.TechnicalSpecialist, agents.RefundSpecialist}, p.Downstream(1))
	assert.Equal(t, []agents.Type{agents.RefundSpecialist}, p.Downstream(2))
	assert.Nil(t, p.Downstream(3))
}

func TestContextKey(t *testing.T) {
	assert.Equal(t, "step_7", ContextKey(7))
}
