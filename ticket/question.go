package ticket

import (
	"fmt"
	"time"

	"goa.design/conductor/agents"
)

// QuestionStatus tracks the lifecycle of an agent question to the customer.
type QuestionStatus string

const (
	QuestionPending  QuestionStatus = "pending"
	QuestionAnswered QuestionStatus = "answered"
	QuestionTimedOut QuestionStatus = "timeout"
)

// Expected response types understood by the answer validation tooling.
const (
	ResponseText    = "text"
	ResponseNumber  = "number"
	ResponseYesNo   = "yes_no"
	ResponseOrderID = "order_id"
)

// QuestionRecord is a question raised by a specialist mid-orchestration,
// recorded on the ticket until answered or timed out. WorkflowID addresses
// the question workflow awaiting the answer.
type QuestionRecord struct {
	QuestionID           string         `json:"question_id"`
	WorkflowID           string         `json:"workflow_id"`
	TicketID             string         `json:"ticket_id"`
	AgentType            agents.Type    `json:"agent_type"`
	Question             string         `json:"question"`
	ExpectedResponseType string         `json:"expected_response_type"`
	TimeoutSeconds       int            `json:"timeout_seconds,omitempty"`
	Status               QuestionStatus `json:"status"`
	Response             string         `json:"response,omitempty"`
	AskedAt              time.Time      `json:"asked_at"`
	RespondedAt          *time.Time     `json:"responded_at,omitempty"`
}

// QuestionInput starts a question workflow: the question to surface, where
// to surface it, and how long to wait for the answer.
type QuestionInput struct {
	TicketID             string      `json:"ticket_id"`
	ParentWorkflowID     string      `json:"parent_workflow_id"`
	AgentType            agents.Type `json:"agent_type"`
	Question             string      `json:"question"`
	ExpectedResponseType string      `json:"expected_response_type"`
	TimeoutSeconds       int         `json:"timeout_seconds"`
}

// TimeoutMarker is the literal answer delivered to a specialist whose
// question expired before the customer replied. Specialists receive it as a
// plain answer string and are expected to proceed without the information.
func TimeoutMarker(seconds int) string {
	return fmt.Sprintf("[TIMEOUT: User did not respond within %d seconds]", seconds)
}
