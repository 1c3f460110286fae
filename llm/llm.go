// Package llm defines the provider-agnostic contract for model invocations
// (chat completion with tool calling) and the three reasoning roles built on
// it: the planner, the synthesizer and the specialist reasoner. Provider
// adapters live in the anthropic and openai subpackages.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"goa.design/conductor/tools"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ErrRateLimited wraps provider rate-limit failures so callers can back off.
var ErrRateLimited = errors.New("model rate limited")

type (
	// Client is the contract the reasoning roles use to invoke a model.
	// Implementations wrap provider SDKs and must be safe for concurrent
	// use.
	Client interface {
		Complete(ctx context.Context, req Request) (*Response, error)
	}

	// Request is a normalized chat completion request.
	Request struct {
		// Model is the provider-specific model identifier. Empty selects
		// the adapter's default.
		Model string
		// Messages is the ordered conversation, system prompt included.
		Messages []Message
		// Tools lists the tool schemas exposed for function calling.
		Tools []ToolDefinition
		// MaxTokens caps completion length; zero uses the adapter default.
		MaxTokens int
		// Temperature controls sampling; zero uses the adapter default.
		Temperature float64
	}

	// Message is one conversation entry. Assistant messages may carry tool
	// calls; tool messages carry the matching results.
	Message struct {
		Role        Role
		Content     string
		ToolCalls   []ToolCall
		ToolResults []ToolResult
	}

	// ToolDefinition describes a tool schema passed to the provider.
	ToolDefinition struct {
		Name        string
		Description string
		InputSchema json.RawMessage
	}

	// ToolCall is a tool invocation requested by the model.
	ToolCall struct {
		ID    string
		Name  string
		Input json.RawMessage
	}

	// ToolResult is the outcome of an executed tool call.
	ToolResult struct {
		CallID  string
		Content string
		IsError bool
	}

	// Response is the normalized completion result.
	Response struct {
		// Text is the concatenated assistant text, empty when the model
		// only requested tools.
		Text string
		// ToolCalls lists requested tool invocations, in order.
		ToolCalls []ToolCall
		// StopReason is the provider-specific stop reason.
		StopReason string
	}
)

// Definitions converts a toolset into the wire tool definitions.
func Definitions(toolset []tools.Tool) []ToolDefinition {
	if len(toolset) == 0 {
		return nil
	}
	defs := make([]ToolDefinition, len(toolset))
	for i, t := range toolset {
		defs[i] = ToolDefinition{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema}
	}
	return defs
}

// limited wraps a Client with a request rate limiter.
type limited struct {
	next    Client
	limiter *rate.Limiter
}

// RateLimited caps the request rate against a provider. Callers block until
// capacity is available or their context is done.
func RateLimited(next Client, rps float64, burst int) Client {
	return &limited{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Complete implements Client.
func (l *limited) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return l.next.Complete(ctx, req)
}

// DecodeJSON extracts the first JSON object from model output and unmarshals
// it into v. Models routinely wrap JSON in code fences or prose; everything
// outside the outermost object is ignored.
func DecodeJSON(text string, v any) error {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in model output")
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return fmt.Errorf("decode model output: %w", err)
	}
	return nil
}
