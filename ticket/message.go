package ticket

import (
	"time"

	"goa.design/conductor/agents"
)

// Message is a single chat entry on a ticket. Messages are append-only;
// metadata carries agent internals (plan summaries, confidence, transcripts)
// while AdditionalInfo holds the customer-presentable structured fields.
type Message struct {
	ID             string         `json:"id"`
	TicketID       string         `json:"ticket_id"`
	Content        string         `json:"content"`
	Type           MessageType    `json:"message_type"`
	AgentType      agents.Type    `json:"agent_type,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	AdditionalInfo map[string]any `json:"additional_info,omitempty"`
}

// PromptLine renders the message for inclusion in an LLM conversation
// context: "[message_type] content", followed by any additional-info bullets.
func (m *Message) PromptLine() string {
	line := "[" + string(m.Type) + "] " + m.Content
	if s := agents.FormatInfo(m.AdditionalInfo); s != "" {
		line += "\n" + s
	}
	return line
}

// PromptHistory renders a chat history for LLM consumption, oldest first.
func PromptHistory(msgs []Message) []string {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]string, len(msgs))
	for i := range msgs {
		out[i] = msgs[i].PromptLine()
	}
	return out
}
