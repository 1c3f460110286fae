package workflows

import (
	"time"

	"go.temporal.io/sdk/workflow"

	"goa.design/conductor/agents"
)

// SpecialistWorkflow wraps one specialist reasoning session. The session
// runs as a single activity so tool calls, including customer questions that
// block for minutes, stay on the activity worker. The activity executes
// at most once: specialists invoke write tools and ask customer questions,
// neither of which is safe to replay. Transient model errors are retried
// inside the reasoner, before any tool runs again. The model transcript is
// kept on the workflow memo for audit.
func SpecialistWorkflow(ctx workflow.Context, in agents.SpecialistInput) (*agents.SpecialistOutput, error) {
	actx := withActivity(ctx, 15*time.Minute, 1)

	var out *agents.SpecialistOutput
	if err := workflow.ExecuteActivity(actx, reasoningActivities.Reason, in).Get(ctx, &out); err != nil {
		return nil, err
	}

	if err := workflow.UpsertMemo(ctx, map[string]any{"llm-history": out.LLMHistory}); err != nil {
		workflow.GetLogger(ctx).Warn("memo upsert failed", "error", err)
	}
	return out, nil
}
