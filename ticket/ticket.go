package ticket

import (
	"encoding/json"
	"time"

	"goa.design/conductor/agents"
)

// Ticket is the full durable state of a support ticket. The conductor
// workflow owns the authoritative copy; queries serve deep snapshots so
// callers can never alias workflow-internal maps.
type Ticket struct {
	TicketID          string                    `json:"ticket_id"`
	CustomerID        string                    `json:"customer_id"`
	CustomerProfile   map[string]any            `json:"customer_profile,omitempty"`
	Status            Status                    `json:"status"`
	CurrentIntent     Intent                    `json:"current_intent,omitempty"`
	UrgencyLevel      UrgencyLevel              `json:"urgency_level"`
	AssignedAgentType agents.Type               `json:"assigned_agent_type,omitempty"`
	Context           map[string]any            `json:"context,omitempty"`
	ChatHistory       []Message                 `json:"chat_history"`
	PendingQuestions  map[string]QuestionRecord `json:"pending_questions,omitempty"`
	CreatedAt         time.Time                 `json:"created_at"`
	LastUpdated       time.Time                 `json:"last_updated"`
	EscalationReason  EscalationReason          `json:"escalation_reason,omitempty"`
	ResolutionSummary string                    `json:"resolution_summary,omitempty"`
	SatisfactionScore *int                      `json:"satisfaction_score,omitempty"`
	FailedAttempts    int                       `json:"failed_attempts"`
	EscalationCount   int                       `json:"escalation_count"`
}

// New initializes an open ticket at the given creation time.
func New(ticketID, customerID string, profile map[string]any, now time.Time) *Ticket {
	return &Ticket{
		TicketID:         ticketID,
		CustomerID:       customerID,
		CustomerProfile:  profile,
		Status:           StatusOpen,
		UrgencyLevel:     UrgencyMedium,
		Context:          make(map[string]any),
		PendingQuestions: make(map[string]QuestionRecord),
		CreatedAt:        now,
		LastUpdated:      now,
	}
}

// Append adds a message to the chat history and bumps LastUpdated.
func (t *Ticket) Append(m Message) {
	t.ChatHistory = append(t.ChatHistory, m)
	if m.Timestamp.After(t.LastUpdated) {
		t.LastUpdated = m.Timestamp
	}
}

// PendingCount returns the number of unanswered questions on the ticket.
func (t *Ticket) PendingCount() int {
	n := 0
	for _, q := range t.PendingQuestions {
		if q.Status == QuestionPending {
			n++
		}
	}
	return n
}

// LastActivity returns the most recent of LastUpdated and every message
// timestamp. Auto-close uses it so a late-arriving message always counts as
// activity even if LastUpdated was not bumped.
func (t *Ticket) LastActivity() time.Time {
	last := t.LastUpdated
	for i := range t.ChatHistory {
		if ts := t.ChatHistory[i].Timestamp; ts.After(last) {
			last = ts
		}
	}
	return last
}

// Snapshot returns a deep copy of t. Maps and history are copied all the way
// down so mutating the snapshot never touches workflow state.
func (t *Ticket) Snapshot() *Ticket {
	c := *t
	c.CustomerProfile = cloneMap(t.CustomerProfile)
	c.Context = cloneMap(t.Context)
	if t.SatisfactionScore != nil {
		score := *t.SatisfactionScore
		c.SatisfactionScore = &score
	}
	if t.ChatHistory != nil {
		c.ChatHistory = make([]Message, len(t.ChatHistory))
		for i, m := range t.ChatHistory {
			m.Metadata = cloneMap(m.Metadata)
			m.AdditionalInfo = cloneMap(m.AdditionalInfo)
			c.ChatHistory[i] = m
		}
	}
	if t.PendingQuestions != nil {
		c.PendingQuestions = make(map[string]QuestionRecord, len(t.PendingQuestions))
		for id, q := range t.PendingQuestions {
			if q.RespondedAt != nil {
				at := *q.RespondedAt
				q.RespondedAt = &at
			}
			c.PendingQuestions[id] = q
		}
	}
	return &c
}

// cloneMap deep-copies an arbitrary JSON-shaped map.
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		out = make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
