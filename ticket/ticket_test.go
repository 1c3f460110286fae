package ticket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/conductor/agents"
)

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("waiting_for_customer")
	require.NoError(t, err)
	assert.Equal(t, StatusWaitingForCustomer, st)

	_, err = ParseStatus("on_fire")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "on_fire")
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusResolved.Terminal())
	assert.True(t, StatusClosed.Terminal())
	assert.False(t, StatusOpen.Terminal())
	assert.False(t, StatusEscalatedToHuman.Terminal())
}

func TestTimeoutMarker(t *testing.T) {
	assert.Equal(t, "[TIMEOUT: User did not respond within 300 seconds]", TimeoutMarker(300))
}

func TestAppendBumpsLastUpdated(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tk := New("T1", "C1", nil, now)
	tk.Append(Message{ID: "m1", Timestamp: now.Add(time.Minute)})
	assert.Equal(t, now.Add(time.Minute), tk.LastUpdated)

	// Older messages never move LastUpdated backwards.
	tk.Append(Message{ID: "m0", Timestamp: now.Add(-time.Hour)})
	assert.Equal(t, now.Add(time.Minute), tk.LastUpdated)
}

func TestLastActivityConsidersMessages(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tk := New("T1", "C1", nil, now)
	tk.ChatHistory = append(tk.ChatHistory, Message{Timestamp: now.Add(2 * time.Hour)})
	assert.Equal(t, now.Add(2*time.Hour), tk.LastActivity())
}

func TestPendingCount(t *testing.T) {
	tk := New("T1", "C1", nil, time.Now())
	tk.PendingQuestions["q1"] = QuestionRecord{QuestionID: "q1", Status: QuestionPending}
	tk.PendingQuestions["q2"] = QuestionRecord{QuestionID: "q2", Status: QuestionAnswered}
	tk.PendingQuestions["q3"] = QuestionRecord{QuestionID: "q3", Status: QuestionTimedOut}
	assert.Equal(t, 1, tk.PendingCount())
}

func TestSnapshotIsDeep(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tk := New("T1", "C1", map[string]any{"tier": "Gold"}, now)
	tk.Context["orchestrator_confidence"] = 0.9
	tk.Append(Message{
		ID:        "m1",
		Content:   "hello",
		Type:      MessageCustomer,
		Timestamp: now,
		Metadata:  map[string]any{"k": "v"},
	})
	tk.PendingQuestions["q1"] = QuestionRecord{QuestionID: "q1", Status: QuestionPending}

	snap := tk.Snapshot()
	snap.Context["orchestrator_confidence"] = 0.1
	snap.CustomerProfile["tier"] = "Bronze"
	snap.ChatHistory[0].Metadata["k"] = "mutated"
	snap.PendingQuestions["q1"] = QuestionRecord{QuestionID: "q1", Status: QuestionAnswered}

	assert.Equal(t, 0.9, tk.Context["orchestrator_confidence"])
	assert.Equal(t, "Gold", tk.CustomerProfile["tier"])
	assert.Equal(t, "v", tk.ChatHistory[0].Metadata["k"])
	assert.Equal(t, QuestionPending, tk.PendingQuestions["q1"].Status)
}

func TestTicketJSONRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tk := New("T1", "C1", map[string]any{"name": "Ada"}, now)
	tk.Status = StatusInProgress
	tk.AssignedAgentType = agents.Orchestrator
	tk.Append(Message{
		ID:        "m1",
		TicketID:  "T1",
		Content:   "hi",
		Type:      MessageCustomer,
		Timestamp: now,
	})

	raw, err := json.Marshal(tk)
	require.NoError(t, err)
	var back Ticket
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, tk.TicketID, back.TicketID)
	assert.Equal(t, tk.Status, back.Status)
	assert.Equal(t, tk.AssignedAgentType, back.AssignedAgentType)
	require.Len(t, back.ChatHistory, 1)
	assert.Equal(t, "hi", back.ChatHistory[0].Content)
	assert.True(t, tk.CreatedAt.Equal(back.CreatedAt))
}

func TestPromptLine(t *testing.T) {
	m := Message{
		Content:        "Refund approved",
		Type:           MessageAIAgent,
		AdditionalInfo: map[string]any{"processing_timeline": "5 days"},
	}
	assert.Equal(t, "[ai_agent] Refund approved\n  • Processing Timeline: 5 days", m.PromptLine())

	plain := Message{Content: "hi", Type: MessageCustomer}
	assert.Equal(t, "[customer] hi", plain.PromptLine())
}
