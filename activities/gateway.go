package activities

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"goa.design/conductor/ticket"
	"goa.design/conductor/tools/bundled"
)

type (
	// QuestionStarter is the slice of the Temporal client needed to run a
	// question workflow. Satisfied by client.Client.
	QuestionStarter interface {
		ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow any, args ...any) (client.WorkflowRun, error)
	}

	// Users routes specialist questions to the customer by running a
	// question workflow and blocking on its answer. It implements
	// bundled.UserGateway, so the ask_user_question tool works from inside
	// the reasoning activity.
	Users struct {
		client QuestionStarter
	}
)

// NewUsers builds the Temporal-backed user gateway.
func NewUsers(client QuestionStarter) *Users {
	return &Users{client: client}
}

// Ask starts a question workflow addressed at the ticket's conductor and
// waits for the customer's answer or the timeout marker.
func (u *Users) Ask(ctx context.Context, q bundled.UserQuestion) (string, error) {
	in := ticket.QuestionInput{
		TicketID:             q.TicketID,
		ParentWorkflowID:     q.TicketWorkflowID,
		AgentType:            q.AgentType,
		Question:             q.Question,
		ExpectedResponseType: q.ExpectedResponseType,
		TimeoutSeconds:       q.TimeoutSeconds,
	}
	opts := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("%s-question-%s", q.TicketID, uuid.NewString()),
		TaskQueue: ticket.TaskQueue,
	}
	run, err := u.client.ExecuteWorkflow(ctx, opts, ticket.QuestionWorkflowName, in)
	if err != nil {
		return "", fmt.Errorf("start question workflow: %w", err)
	}
	var answer string
	if err := run.Get(ctx, &answer); err != nil {
		return "", fmt.Errorf("await question answer: %w", err)
	}
	return answer, nil
}

var _ bundled.UserGateway = (*Users)(nil)
