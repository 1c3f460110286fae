package agents

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

type (
	// SpecialistInput is the normalized request handed to a specialist
	// workflow. Every specialist receives the same shape; the agent type
	// decides which prompt field the customer message is presented as.
	SpecialistInput struct {
		// AgentType selects the specialist persona and toolset.
		AgentType Type `json:"agent_type"`
		// CustomerMessage is the triggering customer message, verbatim.
		CustomerMessage string `json:"customer_message"`
		// ConversationContext is the composed prompt context: prior
		// conversation, dependency findings and workflow notes.
		ConversationContext string `json:"conversation_context"`
		// CustomerID identifies the customer for tool calls.
		CustomerID string `json:"customer_id"`
		// CustomerProfile carries opaque customer attributes.
		CustomerProfile map[string]any `json:"customer_profile,omitempty"`
		// TicketID is the logical ticket identifier.
		TicketID string `json:"ticket_id,omitempty"`
		// TicketWorkflowID addresses the conductor workflow so the
		// specialist can route questions back to the customer.
		TicketWorkflowID string `json:"ticket_workflow_id,omitempty"`
	}

	// SpecialistOutput is the union of all specialist result shapes. Core
	// fields are always set; the optional fields are populated per agent
	// type and surfaced through AdditionalInfo.
	SpecialistOutput struct {
		Response           string  `json:"response"`
		Confidence         float64 `json:"confidence"`
		RequiresEscalation bool    `json:"requires_escalation"`

		// Order and general support.
		SuggestedActions string `json:"suggested_actions,omitempty"`

		// Technical.
		TroubleshootingSteps    string `json:"troubleshooting_steps,omitempty"`
		EstimatedResolutionTime string `json:"estimated_resolution_time,omitempty"`

		// Refund.
		EligibilityAssessment string `json:"eligibility_assessment,omitempty"`
		RequiredDocumentation string `json:"required_documentation,omitempty"`
		ProcessingTimeline    string `json:"processing_timeline,omitempty"`

		// Measurement specialists.
		MeasurementsCollected *bool  `json:"measurements_collected,omitempty"`
		MeasurementsData      string `json:"measurements_data,omitempty"`
		ValidationStatus      string `json:"validation_status,omitempty"`

		// Billing.
		BillingComplete *bool    `json:"billing_complete,omitempty"`
		TotalAmount     *float64 `json:"total_amount,omitempty"`
		PaymentStatus   string   `json:"payment_status,omitempty"`
		InvoiceDetails  string   `json:"invoice_details,omitempty"`

		// Delivery.
		DeliveryScheduled *bool  `json:"delivery_scheduled,omitempty"`
		DeliveryDate      string `json:"delivery_date,omitempty"`
		TrackingNumber    string `json:"tracking_number,omitempty"`
		DeliveryAddress   string `json:"delivery_address,omitempty"`

		// Alteration.
		AlterationNeeded  *bool    `json:"alteration_needed,omitempty"`
		AlterationDetails string   `json:"alteration_details,omitempty"`
		AdditionalCost    *float64 `json:"additional_cost,omitempty"`

		// LLMHistory is the captured model transcript for audit trails.
		LLMHistory string `json:"llm_history,omitempty"`
		// ToolResults maps tool name to its last returned payload.
		ToolResults map[string]any `json:"tool_results,omitempty"`
	}
)

// PromptField returns the name under which the customer message is presented
// to the specialist persona.
func (t Type) PromptField() string {
	switch t {
	case TechnicalSpecialist:
		return "issue_description"
	case RefundSpecialist:
		return "refund_request"
	case GeneralSupport:
		return "customer_query"
	case MaleSpecialist, FemaleSpecialist, Billing, Delivery, Alteration:
		return "purchase_request"
	default:
		return "customer_message"
	}
}

// AdditionalInfo returns the agent-specific structured fields of o that are
// worth surfacing to downstream agents and chat consumers. Empty string
// fields are omitted; boolean and numeric fields are included whenever set.
func (o *SpecialistOutput) AdditionalInfo(t Type) map[string]any {
	info := make(map[string]any)
	put := func(key, val string) {
		if val != "" {
			info[key] = val
		}
	}
	switch t {
	case OrderSpecialist, GeneralSupport:
		put("suggested_actions", o.SuggestedActions)
	case TechnicalSpecialist:
		put("troubleshooting_steps", o.TroubleshootingSteps)
		put("estimated_resolution_time", o.EstimatedResolutionTime)
	case RefundSpecialist:
		put("eligibility_assessment", o.EligibilityAssessment)
		put("required_documentation", o.RequiredDocumentation)
		put("processing_timeline", o.ProcessingTimeline)
	case MaleSpecialist, FemaleSpecialist:
		if o.MeasurementsCollected != nil {
			info["measurements_collected"] = *o.MeasurementsCollected
		}
		put("measurements_data", o.MeasurementsData)
		put("validation_status", o.ValidationStatus)
	case Billing:
		if o.BillingComplete != nil {
			info["billing_complete"] = *o.BillingComplete
		}
		if o.TotalAmount != nil {
			info["total_amount"] = *o.TotalAmount
		}
		put("payment_status", o.PaymentStatus)
		put("invoice_details", o.InvoiceDetails)
	case Delivery:
		if o.DeliveryScheduled != nil {
			info["delivery_scheduled"] = *o.DeliveryScheduled
		}
		put("delivery_date", o.DeliveryDate)
		put("tracking_number", o.TrackingNumber)
		put("delivery_address", o.DeliveryAddress)
	case Alteration:
		if o.AlterationNeeded != nil {
			info["alteration_needed"] = *o.AlterationNeeded
		}
		put("alteration_details", o.AlterationDetails)
		if o.AdditionalCost != nil {
			info["additional_cost"] = *o.AdditionalCost
		}
	}
	if len(info) == 0 {
		return nil
	}
	return info
}

// FullOutput flattens o into a generic map, dropping empty optional fields.
// The map rides along in result metadata so later stages and UIs can inspect
// every field the specialist produced.
func (o *SpecialistOutput) FullOutput() map[string]any {
	raw, err := json.Marshal(o)
	if err != nil {
		return map[string]any{"response": o.Response}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{"response": o.Response}
	}
	return out
}

// FormatInfo renders an additional-info map as indented bullet lines with
// human-readable keys, sorted for stable output. Returns "" for empty maps.
func FormatInfo(info map[string]any) string {
	if len(info) == 0 {
		return ""
	}
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("  • %s: %v", titleKey(k), info[k]))
	}
	return strings.Join(lines, "\n")
}

// titleKey turns a snake_case key into a display label ("total_amount" →
// "Total Amount").
func titleKey(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
