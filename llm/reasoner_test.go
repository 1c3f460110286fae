package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/conductor/agents"
	"goa.design/conductor/tools"
)

// flakyClient fails the model calls whose 1-based sequence number is listed
// and delegates the rest to the scripted client.
type flakyClient struct {
	next   *scriptClient
	failOn map[int]bool
	calls  int
}

func (f *flakyClient) Complete(ctx context.Context, req Request) (*Response, error) {
	f.calls++
	if f.failOn[f.calls] {
		return nil, errors.New("model unavailable")
	}
	return f.next.Complete(ctx, req)
}

func faqTool(t *testing.T, calls *[]json.RawMessage) tools.Tool {
	t.Helper()
	return tools.Tool{
		Name:        "search_faq",
		Description: "Search the FAQ",
		InputSchema: tools.ObjectSchema(map[string]any{"query": tools.String("search query")}, "query"),
		Invoke: func(_ context.Context, payload json.RawMessage) (any, error) {
			*calls = append(*calls, payload)
			return map[string]any{"answer": "9am to 6pm EST"}, nil
		},
	}
}

func TestReasonerToolLoop(t *testing.T) {
	var calls []json.RawMessage
	script := &scriptClient{responses: []*Response{
		{
			Text: "Let me check the FAQ.",
			ToolCalls: []ToolCall{{
				ID: "call-1", Name: "search_faq",
				Input: json.RawMessage(`{"query": "business hours"}`),
			}},
		},
		{Text: `{"response": "We are open 9am to 6pm EST.", "confidence": 0.95, "requires_escalation": false}`},
	}}
	reasoner := NewReasoner(script, "test-model", 0)

	out, err := reasoner.Run(context.Background(), agents.SpecialistInput{
		AgentType:       agents.GeneralSupport,
		CustomerMessage: "What are your business hours?",
		CustomerID:      "customer-456",
	}, []tools.Tool{faqTool(t, &calls)})
	require.NoError(t, err)

	assert.Equal(t, "We are open 9am to 6pm EST.", out.Response)
	assert.InDelta(t, 0.95, out.Confidence, 1e-9)
	assert.False(t, out.RequiresEscalation)
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"query": "business hours"}`, string(calls[0]))
	require.Contains(t, out.ToolResults, "search_faq")
	assert.Contains(t, out.LLMHistory, "tool call: search_faq")
	assert.Contains(t, out.LLMHistory, "9am to 6pm EST")

	// Second request must replay the tool exchange.
	require.Len(t, script.requests, 2)
	msgs := script.requests[1].Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, RoleAssistant, msgs[2].Role)
	require.Len(t, msgs[2].ToolCalls, 1)
	assert.Equal(t, RoleTool, msgs[3].Role)
	require.Len(t, msgs[3].ToolResults, 1)
	assert.Equal(t, "call-1", msgs[3].ToolResults[0].CallID)
	assert.False(t, msgs[3].ToolResults[0].IsError)
}

func TestReasonerReportsUnknownToolToModel(t *testing.T) {
	script := &scriptClient{responses: []*Response{
		{ToolCalls: []ToolCall{{ID: "call-1", Name: "no_such_tool", Input: json.RawMessage(`{}`)}}},
		{Text: `{"response": "Done without tools.", "confidence": 0.4, "requires_escalation": true}`},
	}}
	reasoner := NewReasoner(script, "test-model", 0)

	out, err := reasoner.Run(context.Background(), agents.SpecialistInput{
		AgentType:       agents.TechnicalSpecialist,
		CustomerMessage: "My headset is broken",
	}, nil)
	require.NoError(t, err)
	assert.True(t, out.RequiresEscalation)
	assert.Empty(t, out.ToolResults)

	results := script.requests[1].Messages[3].ToolResults
	require.Len(t, results, 1)
	assert.True(t, results[0].IsError)
	assert.Contains(t, results[0].Content, "no_such_tool")
}

func TestReasonerRejectsInvalidToolPayload(t *testing.T) {
	var calls []json.RawMessage
	script := &scriptClient{responses: []*Response{
		{ToolCalls: []ToolCall{{ID: "call-1", Name: "search_faq", Input: json.RawMessage(`{"bogus": 1}`)}}},
		{Text: `{"response": "ok", "confidence": 0.5, "requires_escalation": false}`},
	}}
	reasoner := NewReasoner(script, "test-model", 0)

	_, err := reasoner.Run(context.Background(), agents.SpecialistInput{
		AgentType:       agents.GeneralSupport,
		CustomerMessage: "hi",
	}, []tools.Tool{faqTool(t, &calls)})
	require.NoError(t, err)

	// The tool itself never ran; the model saw a validation error result.
	assert.Empty(t, calls)
	results := script.requests[1].Messages[3].ToolResults
	require.Len(t, results, 1)
	assert.True(t, results[0].IsError)
}

func TestReasonerTurnLimit(t *testing.T) {
	loop := &Response{ToolCalls: []ToolCall{{ID: "c", Name: "no_such_tool"}}}
	script := &scriptClient{responses: []*Response{loop, loop}}
	reasoner := NewReasoner(script, "test-model", 2)

	_, err := reasoner.Run(context.Background(), agents.SpecialistInput{
		AgentType:       agents.GeneralSupport,
		CustomerMessage: "hi",
	}, nil)
	require.ErrorContains(t, err, "no final answer")
}

func TestReasonerRetriesModelCallWithoutReplayingTools(t *testing.T) {
	var calls []json.RawMessage
	script := &scriptClient{responses: []*Response{
		{ToolCalls: []ToolCall{{
			ID: "call-1", Name: "search_faq",
			Input: json.RawMessage(`{"query": "hours"}`),
		}}},
		{Text: `{"response": "We are open 9am to 6pm EST.", "confidence": 0.9, "requires_escalation": false}`},
	}}
	// The model call after the tool exchange fails once.
	flaky := &flakyClient{next: script, failOn: map[int]bool{2: true}}
	reasoner := NewReasoner(flaky, "test-model", 0)

	out, err := reasoner.Run(context.Background(), agents.SpecialistInput{
		AgentType:       agents.GeneralSupport,
		CustomerMessage: "What are your business hours?",
	}, []tools.Tool{faqTool(t, &calls)})
	require.NoError(t, err)
	assert.Equal(t, "We are open 9am to 6pm EST.", out.Response)

	// One retry of the failed call, and the tool ran exactly once.
	assert.Equal(t, 3, flaky.calls)
	assert.Len(t, calls, 1)
}

func TestReasonerGivesUpAfterOneRetry(t *testing.T) {
	script := &scriptClient{responses: []*Response{}}
	flaky := &flakyClient{next: script, failOn: map[int]bool{1: true, 2: true}}
	reasoner := NewReasoner(flaky, "test-model", 0)

	_, err := reasoner.Run(context.Background(), agents.SpecialistInput{
		AgentType:       agents.GeneralSupport,
		CustomerMessage: "hi",
	}, nil)
	require.ErrorContains(t, err, "specialist completion")
	assert.Equal(t, 2, flaky.calls)
}

func TestReasonerClampsConfidence(t *testing.T) {
	script := &scriptClient{responses: []*Response{
		{Text: `{"response": "sure", "confidence": 3.2, "requires_escalation": false}`},
	}}
	reasoner := NewReasoner(script, "test-model", 0)

	out, err := reasoner.Run(context.Background(), agents.SpecialistInput{
		AgentType:       agents.GeneralSupport,
		CustomerMessage: "hi",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, out.Confidence)
}

func TestReasonerRequiresResponseField(t *testing.T) {
	script := &scriptClient{responses: []*Response{{Text: `{"confidence": 0.5}`}}}
	reasoner := NewReasoner(script, "test-model", 0)

	_, err := reasoner.Run(context.Background(), agents.SpecialistInput{
		AgentType:       agents.GeneralSupport,
		CustomerMessage: "hi",
	}, nil)
	require.ErrorContains(t, err, "empty response")
}
