package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"goa.design/conductor/agents"
	"goa.design/conductor/tools"
)

// Reasoner runs the specialist tool-use loop: it alternates model turns and
// tool executions until the model produces its final structured answer.
type Reasoner struct {
	client   Client
	model    string
	maxTurns int
}

// NewReasoner builds a reasoner. maxTurns bounds the number of model turns
// per specialist run (zero selects the default of 8).
func NewReasoner(client Client, model string, maxTurns int) *Reasoner {
	if maxTurns <= 0 {
		maxTurns = 8
	}
	return &Reasoner{client: client, model: model, maxTurns: maxTurns}
}

// Run executes one specialist reasoning session with the given toolset and
// returns the parsed specialist output. The returned output carries the full
// model transcript and the last result of every tool invoked.
func (r *Reasoner) Run(ctx context.Context, in agents.SpecialistInput, toolset []tools.Tool) (*agents.SpecialistOutput, error) {
	byName := make(map[string]*tools.Tool, len(toolset))
	for i := range toolset {
		byName[toolset[i].Name] = &toolset[i]
	}

	profile := "No profile data available"
	if len(in.CustomerProfile) > 0 {
		raw, _ := json.Marshal(in.CustomerProfile)
		profile = string(raw)
	}
	user := fmt.Sprintf("%s: %s\n\nconversation_context:\n%s\n\ncustomer_id: %s\ncustomer_profile: %s",
		in.AgentType.PromptField(), in.CustomerMessage, in.ConversationContext, in.CustomerID, profile)

	messages := []Message{
		{Role: RoleSystem, Content: reasonerSystem(in.AgentType)},
		{Role: RoleUser, Content: user},
	}
	defs := Definitions(toolset)

	var transcript strings.Builder
	toolResults := make(map[string]any)

	for turn := 0; turn < r.maxTurns; turn++ {
		resp, err := r.complete(ctx, Request{Model: r.model, Messages: messages, Tools: defs})
		if err != nil {
			return nil, fmt.Errorf("specialist completion: %w", err)
		}
		if resp.Text != "" {
			fmt.Fprintf(&transcript, "assistant: %s\n", resp.Text)
		}

		if len(resp.ToolCalls) == 0 {
			out, err := parseSpecialistOutput(resp.Text)
			if err != nil {
				return nil, err
			}
			out.LLMHistory = transcript.String()
			if len(toolResults) > 0 {
				out.ToolResults = toolResults
			}
			return out, nil
		}

		messages = append(messages, Message{Role: RoleAssistant, Content: resp.Text, ToolCalls: resp.ToolCalls})
		results := make([]ToolResult, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			fmt.Fprintf(&transcript, "tool call: %s(%s)\n", call.Name, call.Input)
			content, isErr := r.invoke(ctx, byName, call, toolResults)
			fmt.Fprintf(&transcript, "tool result: %s\n", content)
			results = append(results, ToolResult{CallID: call.ID, Content: content, IsError: isErr})
		}
		messages = append(messages, Message{Role: RoleTool, ToolResults: results})
	}
	return nil, fmt.Errorf("specialist %s: no final answer after %d turns", in.AgentType, r.maxTurns)
}

// complete retries a failed model call once. The retry lives here rather
// than on the activity: between attempts no tool runs, so write tools and
// customer questions are never replayed.
func (r *Reasoner) complete(ctx context.Context, req Request) (*Response, error) {
	resp, err := r.client.Complete(ctx, req)
	if err == nil || ctx.Err() != nil {
		return resp, err
	}
	return r.client.Complete(ctx, req)
}

// invoke runs one tool call, recording the decoded result under the tool
// name. Tool failures are reported back to the model, not to the caller.
func (r *Reasoner) invoke(ctx context.Context, byName map[string]*tools.Tool, call ToolCall, toolResults map[string]any) (string, bool) {
	tool, ok := byName[call.Name]
	if !ok {
		return fmt.Sprintf("unknown tool %q", call.Name), true
	}
	if err := tool.Validate(call.Input); err != nil {
		return err.Error(), true
	}
	result, err := tool.Invoke(ctx, call.Input)
	if err != nil {
		return fmt.Sprintf("tool %s failed: %v", call.Name, err), true
	}
	toolResults[call.Name] = result
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result), false
	}
	return string(raw), false
}

// parseSpecialistOutput decodes the model's final JSON answer. Unknown fields
// are discarded; a missing response field is an error.
func parseSpecialistOutput(text string) (*agents.SpecialistOutput, error) {
	var out agents.SpecialistOutput
	if err := DecodeJSON(text, &out); err != nil {
		return nil, fmt.Errorf("specialist output: %w", err)
	}
	if out.Response == "" {
		return nil, fmt.Errorf("specialist output: empty response field")
	}
	if out.Confidence < 0 {
		out.Confidence = 0
	}
	if out.Confidence > 1 {
		out.Confidence = 1
	}
	return &out, nil
}
