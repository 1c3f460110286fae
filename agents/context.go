package agents

import (
	"fmt"
	"strings"
)

type (
	// StepFinding is the distilled output of a completed plan step, passed
	// forward to the specialists that depend on it.
	StepFinding struct {
		// Agent that produced the finding.
		Agent Type `json:"agent"`
		// Response is the specialist's customer-facing answer.
		Response string `json:"response"`
		// Confidence of the producing specialist.
		Confidence float64 `json:"confidence"`
		// RequiresEscalation as reported by the specialist.
		RequiresEscalation bool `json:"requires_escalation"`
		// AdditionalInfo holds the agent-specific structured fields.
		AdditionalInfo map[string]any `json:"additional_info,omitempty"`
		// FullOutput is the complete flattened specialist output.
		FullOutput map[string]any `json:"full_output,omitempty"`
		// ToolResults maps tool name to last payload, for extra context.
		ToolResults map[string]any `json:"tool_results,omitempty"`
	}

	// ContextParams carries everything needed to compose the conversation
	// context given to one specialist.
	ContextParams struct {
		// ChatHistory holds prompt-formatted prior messages, oldest first.
		ChatHistory []string
		// CustomerMessage is the triggering message.
		CustomerMessage string
		// Downstream lists agents that depend on this step. Naming them
		// keeps specialists from escalating work a later step owns.
		Downstream []Type
		// Findings are the dependency outputs, in reference order.
		Findings []StepFinding
	}
)

// structuredFields is the prompt ordering for full-output fallback lines.
var structuredFields = []struct{ key, label string }{
	{"suggested_actions", "Suggested Actions"},
	{"troubleshooting_steps", "Troubleshooting Steps"},
	{"estimated_resolution_time", "Estimated Time"},
	{"eligibility_assessment", "Eligibility"},
	{"required_documentation", "Required Docs"},
	{"processing_timeline", "Timeline"},
	{"measurements_collected", "Measurements Collected"},
	{"measurements_data", "Measurements"},
	{"validation_status", "Validation"},
	{"billing_complete", "Billing Complete"},
	{"total_amount", "Total Amount"},
	{"payment_status", "Payment"},
	{"invoice_details", "Invoice"},
	{"delivery_scheduled", "Delivery Scheduled"},
	{"delivery_date", "Delivery Date"},
	{"tracking_number", "Tracking"},
	{"delivery_address", "Address"},
	{"alteration_needed", "Alteration Needed"},
	{"alteration_details", "Alterations"},
	{"additional_cost", "Additional Cost"},
}

// ComposeContext builds the conversation context string for one specialist:
// prior conversation, the current customer message, a note about downstream
// agents, then the findings of every dependency in order.
func ComposeContext(p ContextParams) string {
	var parts []string

	if len(p.ChatHistory) > 0 {
		parts = append(parts, "Previous conversation:")
		parts = append(parts, p.ChatHistory...)
		parts = append(parts, "\n---\n")
	}

	parts = append(parts, "Current customer message: "+p.CustomerMessage)

	if len(p.Downstream) > 0 {
		names := make([]string, len(p.Downstream))
		for i, d := range p.Downstream {
			names[i] = string(d)
		}
		parts = append(parts, fmt.Sprintf(
			"\nWORKFLOW CONTEXT: After you complete your task, these agents will handle next steps: %s. "+
				"Focus ONLY on your specific responsibility. DO NOT escalate or claim inability if your task is achievable.",
			strings.Join(names, ", ")))
	}

	if len(p.Findings) > 0 {
		parts = append(parts, "\n--- Information from previous agents ---")
		for _, f := range p.Findings {
			parts = append(parts, fmt.Sprintf("\n[%s findings]:\n%s", f.Agent, f.Response))
			if s := FormatInfo(f.AdditionalInfo); s != "" {
				parts = append(parts, s)
			} else if s := formatStructured(f.FullOutput); s != "" {
				parts = append(parts, s)
			}
			if len(f.ToolResults) > 0 {
				parts = append(parts, fmt.Sprintf("  • Tool Data: %v", f.ToolResults))
			}
		}
		parts = append(parts, "--- End of previous agent information ---\n")
	}

	return strings.Join(parts, "\n")
}

// formatStructured renders known structured fields from a flattened
// specialist output, used when no additional-info map was recorded.
func formatStructured(full map[string]any) string {
	if len(full) == 0 {
		return ""
	}
	var lines []string
	for _, f := range structuredFields {
		v, ok := full[f.key]
		if !ok {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		switch f.key {
		case "total_amount", "additional_cost":
			lines = append(lines, fmt.Sprintf("  • %s: $%v", f.label, v))
		default:
			lines = append(lines, fmt.Sprintf("  • %s: %v", f.label, v))
		}
	}
	return strings.Join(lines, "\n")
}
