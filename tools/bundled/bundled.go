// Package bundled provides the built-in toolsets specialists run with. Each
// agent type gets a fixed set of schema-validated tools over the operational
// store, plus the customer rendezvous tools when a user gateway is wired.
package bundled

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"goa.design/conductor/agents"
	"goa.design/conductor/store"
	"goa.design/conductor/ticket"
	"goa.design/conductor/tools"
)

type (
	// UserQuestion is a clarifying question routed to the customer through
	// the ticket conductor.
	UserQuestion struct {
		TicketID             string
		TicketWorkflowID     string
		AgentType            agents.Type
		Question             string
		ExpectedResponseType string
		TimeoutSeconds       int
	}

	// UserGateway delivers a question to the customer and blocks until the
	// answer arrives or the timeout marker is produced.
	UserGateway interface {
		Ask(ctx context.Context, q UserQuestion) (string, error)
	}

	// Scope identifies the ticket a toolset invocation runs on behalf of.
	Scope struct {
		TicketID         string
		TicketWorkflowID string
		CustomerID       string
	}

	// Registry hands out per-agent toolsets.
	Registry struct {
		store *store.Store
		users UserGateway
		now   func() time.Time
	}
)

// New builds a registry over the operational store. users may be nil, in
// which case the customer rendezvous tools are omitted.
func New(st *store.Store, users UserGateway) *Registry {
	return &Registry{store: st, users: users, now: time.Now}
}

// For returns the toolset for the given agent type scoped to one ticket.
// Unknown agents get the general-support toolset.
func (r *Registry) For(agent agents.Type, scope Scope) []tools.Tool {
	var set []tools.Tool
	switch agent {
	case agents.OrderSpecialist:
		set = r.orderTools()
	case agents.TechnicalSpecialist:
		set = r.technicalTools()
	case agents.RefundSpecialist:
		set = r.refundTools()
	case agents.EscalationManager:
		// Escalation review works from accumulated context alone.
		return nil
	case agents.MaleSpecialist:
		set = r.purchaseTools("male")
	case agents.FemaleSpecialist:
		set = r.purchaseTools("female")
	case agents.Billing:
		set = r.billingTools()
	case agents.Delivery:
		set = r.deliveryTools()
	case agents.Alteration:
		set = r.alterationTools()
	default:
		set = r.generalTools()
	}
	set = append(set, validateUserResponseTool())
	if r.users != nil && scope.TicketID != "" {
		set = append(set, r.askUserQuestionTool(agent, scope))
	}
	return set
}

func (r *Registry) askUserQuestionTool(agent agents.Type, scope Scope) tools.Tool {
	return tools.Tool{
		Name: "ask_user_question",
		Description: "Ask the customer a clarifying question and wait for their answer. " +
			"Use only when required information is missing from the conversation.",
		InputSchema: tools.ObjectSchema(map[string]any{
			"question":               tools.String("the question to ask the customer"),
			"expected_response_type": tools.Enum("expected answer shape", ticket.ResponseText, ticket.ResponseNumber, ticket.ResponseYesNo, ticket.ResponseOrderID),
			"timeout_seconds":        tools.Integer("seconds to wait for the answer, default 300"),
		}, "question"),
		Invoke: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in struct {
				Question             string `json:"question"`
				ExpectedResponseType string `json:"expected_response_type"`
				TimeoutSeconds       int    `json:"timeout_seconds"`
			}
			if err := decode(args, &in); err != nil {
				return nil, err
			}
			if in.ExpectedResponseType == "" {
				in.ExpectedResponseType = ticket.ResponseText
			}
			if in.TimeoutSeconds <= 0 {
				in.TimeoutSeconds = 300
			}
			answer, err := r.users.Ask(ctx, UserQuestion{
				TicketID:             scope.TicketID,
				TicketWorkflowID:     scope.TicketWorkflowID,
				AgentType:            agent,
				Question:             in.Question,
				ExpectedResponseType: in.ExpectedResponseType,
				TimeoutSeconds:       in.TimeoutSeconds,
			})
			if err != nil {
				return tools.Fail("failed to ask question: %v", err), nil
			}
			return tools.OK(map[string]any{
				"answer":  answer,
				"message": "User answered: " + answer,
			}), nil
		},
	}
}

func validateUserResponseTool() tools.Tool {
	return tools.Tool{
		Name:        "validate_user_response",
		Description: "Validate that a customer answer matches the expected response type.",
		InputSchema: tools.ObjectSchema(map[string]any{
			"response":      tools.String("the customer's answer"),
			"expected_type": tools.Enum("expected answer shape", ticket.ResponseText, ticket.ResponseNumber, ticket.ResponseYesNo, ticket.ResponseOrderID),
		}, "response", "expected_type"),
		Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
			var in struct {
				Response     string `json:"response"`
				ExpectedType string `json:"expected_type"`
			}
			if err := decode(args, &in); err != nil {
				return nil, err
			}
			valid, message := validateResponse(in.Response, in.ExpectedType)
			return map[string]any{"valid": valid, "message": message}, nil
		},
	}
}

func validateResponse(response, expectedType string) (bool, string) {
	switch expectedType {
	case ticket.ResponseYesNo:
		switch strings.ToLower(strings.TrimSpace(response)) {
		case "yes", "no", "y", "n":
			return true, "Valid yes/no response"
		}
		return false, "Please answer yes or no"
	case ticket.ResponseNumber:
		if _, err := strconv.ParseFloat(strings.TrimSpace(response), 64); err != nil {
			return false, "Please provide a numeric value"
		}
		return true, "Valid number"
	case ticket.ResponseOrderID:
		trimmed := strings.TrimSpace(response)
		if strings.HasPrefix(trimmed, "ORD-") || isDigits(trimmed) {
			return true, "Valid order ID"
		}
		return false, "Please provide a valid order ID"
	default:
		if strings.TrimSpace(response) == "" {
			return false, "Please provide a response"
		}
		return true, "Valid response"
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func decode(args json.RawMessage, v any) error {
	if len(args) == 0 {
		return nil
	}
	return json.Unmarshal(args, v)
}
