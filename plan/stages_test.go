package plan

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/conductor/agents"
)

func TestStagesDiamond(t *testing.T) {
	p := &Plan{Steps: []Step{
		{StepNumber: 1, AgentType: agents.OrderSpecialist, Priority: 1},
		{StepNumber: 2, AgentType: agents.TechnicalSpecialist, DependsOn: []int{1}, Priority: 2},
		{StepNumber: 3, AgentType: agents.RefundSpecialist, DependsOn: []int{1}, Priority: 1},
		{StepNumber: 4, AgentType: agents.Billing, DependsOn: []int{2, 3}, Priority: 1},
	}}
	stages := p.Stages()
	require.Len(t, stages, 3)
	assert.Equal(t, []int{1}, stepNumbers(stages[0]))
	// Priority orders within the stage: step 3 (priority 1) before step 2.
	assert.Equal(t, []int{3, 2}, stepNumbers(stages[1]))
	assert.Equal(t, []int{4}, stepNumbers(stages[2]))
}

func TestStagesIndependentStepsShareOneStage(t *testing.T) {
	p := &Plan{Steps: []Step{
		{StepNumber: 1, AgentType: agents.OrderSpecialist, Priority: 2},
		{StepNumber: 2, AgentType: agents.GeneralSupport, Priority: 1},
		{StepNumber: 3, AgentType: agents.Delivery, Priority: 1},
	}}
	stages := p.Stages()
	require.Len(t, stages, 1)
	assert.Equal(t, []int{2, 3, 1}, stepNumbers(stages[0]))
}

func TestStagesUnknownDependencyIsSatisfied(t *testing.T) {
	p := &Plan{Steps: []Step{
		{StepNumber: 1, AgentType: agents.OrderSpecialist, DependsOn: []int{99}},
	}}
	stages := p.Stages()
	require.Len(t, stages, 1)
	assert.Equal(t, []int{1}, stepNumbers(stages[0]))
}

func TestStagesCycleRunsAsFinalStage(t *testing.T) {
	p := &Plan{Steps: []Step{
		{StepNumber: 1, AgentType: agents.OrderSpecialist},
		{StepNumber: 2, AgentType: agents.RefundSpecialist, DependsOn: []int{3}},
		{StepNumber: 3, AgentType: agents.Billing, DependsOn: []int{2}},
	}}
	stages := p.Stages()
	require.Len(t, stages, 2)
	assert.Equal(t, []int{1}, stepNumbers(stages[0]))
	// The cycle is flushed as one best-effort final stage.
	assert.ElementsMatch(t, []int{2, 3}, stepNumbers(stages[1]))
}

func TestStagesEmptyPlan(t *testing.T) {
	p := &Plan{}
	assert.Empty(t, p.Stages())
}

// TestStagesProperties verifies the staging invariants over random DAGs:
// every step appears exactly once, and (absent cycles) every dependency sits
// in a strictly earlier stage.
func TestStagesProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	// Generates acyclic plans: step i may only depend on steps < i.
	genPlan := gen.SliceOf(gen.IntRange(0, 1<<16)).Map(func(seeds []int) *Plan {
		steps := make([]Step, len(seeds))
		for i, seed := range seeds {
			var deps []int
			for j := 1; j <= i; j++ {
				if seed>>(j%16)&1 == 1 {
					deps = append(deps, j)
				}
			}
			steps[i] = Step{
				StepNumber: i + 1,
				AgentType:  agents.GeneralSupport,
				DependsOn:  deps,
				Priority:   seed%3 + 1,
			}
		}
		return &Plan{Steps: steps}
	})

	properties.Property("each step scheduled exactly once", prop.ForAll(
		func(p *Plan) bool {
			seen := make(map[int]int)
			for _, stage := range p.Stages() {
				for _, s := range stage {
					seen[s.StepNumber]++
				}
			}
			if len(seen) != len(p.Steps) {
				return false
			}
			for _, n := range seen {
				if n != 1 {
					return false
				}
			}
			return true
		},
		genPlan,
	))

	properties.Property("dependencies complete in earlier stages", prop.ForAll(
		func(p *Plan) bool {
			stageOf := make(map[int]int)
			for i, stage := range p.Stages() {
				for _, s := range stage {
					stageOf[s.StepNumber] = i
				}
			}
			for _, s := range p.Steps {
				for _, dep := range s.DependsOn {
					if stageOf[dep] >= stageOf[s.StepNumber] {
						return false
					}
				}
			}
			return true
		},
		genPlan,
	))

	properties.Property("stages are priority sorted", prop.ForAll(
		func(p *Plan) bool {
			for _, stage := range p.Stages() {
				for i := 1; i < len(stage); i++ {
					if stage[i-1].Priority > stage[i].Priority {
						return false
					}
				}
			}
			return true
		},
		genPlan,
	))

	properties.TestingRun(t)
}

func stepNumbers(steps []Step) []int {
	out := make([]int, len(steps))
	for i, s := range steps {
		out[i] = s.StepNumber
	}
	return out
}
