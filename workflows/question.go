package workflows

import (
	"time"

	"go.temporal.io/sdk/workflow"

	"goa.design/conductor/ticket"
)

// DefaultQuestionTimeout bounds how long a question waits for the customer.
const DefaultQuestionTimeout = 300 * time.Second

// QuestionWorkflow is the rendezvous between a specialist and the customer:
// it surfaces the question in the ticket chat, waits for the answer signal
// and returns it. When the customer stays silent past the timeout the
// conductor is notified and the specialist receives the timeout marker.
func QuestionWorkflow(ctx workflow.Context, in ticket.QuestionInput) (string, error) {
	logger := workflow.GetLogger(ctx)
	questionID := workflow.GetInfo(ctx).WorkflowExecution.ID

	var (
		answer   string
		answered bool
	)
	if err := workflow.SetQueryHandler(ctx, ticket.QueryQuestionStatus, func() (ticket.QuestionStatusReply, error) {
		return ticket.QuestionStatusReply{Answered: answered, Answer: answer}, nil
	}); err != nil {
		return "", err
	}

	record := ticket.QuestionRecord{
		QuestionID:           questionID,
		WorkflowID:           questionID,
		TicketID:             in.TicketID,
		AgentType:            in.AgentType,
		Question:             in.Question,
		ExpectedResponseType: in.ExpectedResponseType,
		TimeoutSeconds:       in.TimeoutSeconds,
		Status:               ticket.QuestionPending,
		AskedAt:              workflow.Now(ctx).UTC(),
	}
	if err := workflow.SignalExternalWorkflow(ctx, in.ParentWorkflowID, "", ticket.SignalDisplayQuestion, record).Get(ctx, nil); err != nil {
		return "", err
	}
	logger.Info("question displayed", "question_id", questionID, "parent", in.ParentWorkflowID)

	timeout := DefaultQuestionTimeout
	if in.TimeoutSeconds > 0 {
		timeout = time.Duration(in.TimeoutSeconds) * time.Second
	}

	answerCh := workflow.GetSignalChannel(ctx, ticket.SignalReceiveAnswer)
	timerCtx, cancelTimer := workflow.WithCancel(ctx)
	timer := workflow.NewTimer(timerCtx, timeout)

	timedOut := false
	selector := workflow.NewSelector(ctx)
	selector.AddReceive(answerCh, func(c workflow.ReceiveChannel, _ bool) {
		c.Receive(ctx, &answer)
		answered = true
		cancelTimer()
	})
	selector.AddFuture(timer, func(workflow.Future) {
		timedOut = true
	})
	selector.Select(ctx)

	if timedOut {
		seconds := int(timeout / time.Second)
		logger.Info("question timed out", "question_id", questionID, "timeout_seconds", seconds)
		notice := ticket.TimeoutNotice{QuestionID: questionID, Question: in.Question}
		if err := workflow.SignalExternalWorkflow(ctx, in.ParentWorkflowID, "", ticket.SignalQuestionTimeout, notice).Get(ctx, nil); err != nil {
			logger.Error("timeout notice failed", "question_id", questionID, "error", err)
		}
		return ticket.TimeoutMarker(seconds), nil
	}

	logger.Info("answer received", "question_id", questionID)
	if answer == "" {
		return "No response provided", nil
	}
	return answer, nil
}
