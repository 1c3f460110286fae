package plan

import "sort"

// Stages groups the plan's steps into execution stages. A step joins a stage
// once every dependency sits in an earlier stage; steps sharing a stage have
// no dependencies on each other and may run concurrently. Within a stage,
// steps are ordered by priority (lower first) with step number as tiebreak.
//
// Dependencies on unknown step numbers are treated as satisfied. If a
// dependency cycle leaves steps unplaceable, the leftovers are appended as a
// single best-effort final stage so execution still terminates.
func (p *Plan) Stages() [][]Step {
	known := make(map[int]bool, len(p.Steps))
	for _, s := range p.Steps {
		known[s.StepNumber] = true
	}

	var stages [][]Step
	remaining := make([]Step, len(p.Steps))
	copy(remaining, p.Steps)
	completed := make(map[int]bool)

	for len(remaining) > 0 {
		var stage, next []Step
		for _, s := range remaining {
			ready := true
			for _, dep := range s.DependsOn {
				if known[dep] && !completed[dep] {
					ready = false
					break
				}
			}
			if ready {
				stage = append(stage, s)
			} else {
				next = append(next, s)
			}
		}
		if len(stage) == 0 {
			// Cycle: run whatever is left as the final stage.
			sortStage(next)
			stages = append(stages, next)
			break
		}
		for _, s := range stage {
			completed[s.StepNumber] = true
		}
		sortStage(stage)
		stages = append(stages, stage)
		remaining = next
	}
	return stages
}

func sortStage(stage []Step) {
	sort.SliceStable(stage, func(i, j int) bool {
		if stage[i].Priority != stage[j].Priority {
			return stage[i].Priority < stage[j].Priority
		}
		return stage[i].StepNumber < stage[j].StepNumber
	})
}
