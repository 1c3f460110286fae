package ticket

// Signal and query names of the conductor and question workflows. The names
// are part of the external contract: UIs, the maintenance workflow and the
// specialists all address tickets through them.
const (
	// SignalAddMessage appends a chat message; customer messages are queued
	// for orchestration or routed as answers to a waiting question.
	SignalAddMessage = "addMessage"
	// SignalUpdateStatus sets the ticket status.
	SignalUpdateStatus = "updateTicketStatus"
	// SignalDisplayQuestion surfaces a specialist question in the chat and
	// arms the answer-routing slot.
	SignalDisplayQuestion = "display_agent_question"
	// SignalQuestionTimeout reports that a question expired unanswered.
	SignalQuestionTimeout = "question_timeout"
	// QueryGetState returns a deep snapshot of the ticket.
	QueryGetState = "getState"

	// SignalReceiveAnswer delivers the customer's answer to a question
	// workflow.
	SignalReceiveAnswer = "receive_answer"
	// QueryQuestionStatus reports whether a question workflow has its answer.
	QueryQuestionStatus = "get_status"
)

// Workflow type names as registered with the worker.
const (
	ConductorWorkflowName = "TicketConductorWorkflow"
	QuestionWorkflowName  = "QuestionWorkflow"
)

// TaskQueue is the single task queue all support workflows run on. The
// conductor workflow ID is the ticket ID itself.
const TaskQueue = "customer-support-task-queue"

// TimeoutNotice is the payload of SignalQuestionTimeout.
type TimeoutNotice struct {
	QuestionID string `json:"question_id"`
	Question   string `json:"question,omitempty"`
}

// QuestionStatusReply is the response of QueryQuestionStatus.
type QuestionStatusReply struct {
	Answered bool   `json:"answered"`
	Answer   string `json:"answer,omitempty"`
}
