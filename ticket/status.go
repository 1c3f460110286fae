// Package ticket defines the customer-support ticket domain: ticket state,
// chat messages, pending questions and the signal/query contract of the
// conductor workflow. All enum values are wire-stable strings; they travel
// through Temporal payloads, the chat stream and the archive unchanged.
package ticket

import "fmt"

type (
	// Status is the lifecycle state of a ticket.
	Status string

	// MessageType classifies the author of a chat message.
	MessageType string

	// Intent is the classified customer intent.
	Intent string

	// UrgencyLevel grades ticket urgency from low ("1") to critical ("4").
	UrgencyLevel string

	// EscalationReason explains why a ticket was handed to a human.
	EscalationReason string
)

const (
	StatusOpen               Status = "open"
	StatusWaitingForCustomer Status = "waiting_for_customer"
	StatusInProgress         Status = "in_progress"
	StatusEscalatedToHuman   Status = "escalated_to_human"
	StatusResolved           Status = "resolved"
	StatusClosed             Status = "closed"
)

const (
	MessageCustomer   MessageType = "customer"
	MessageAIAgent    MessageType = "ai_agent"
	MessageHumanAgent MessageType = "human_agent"
	MessageSystem     MessageType = "system"
)

const (
	IntentOrderInquiry     Intent = "order_inquiry"
	IntentTechnicalSupport Intent = "technical_support"
	IntentRefundRequest    Intent = "refund_request"
	IntentBillingQuestion  Intent = "billing_question"
	IntentComplaint        Intent = "complaint"
	IntentGeneralQuestion  Intent = "general_question"
	IntentPurchase         Intent = "purchase"
)

const (
	UrgencyLow      UrgencyLevel = "1"
	UrgencyMedium   UrgencyLevel = "2"
	UrgencyHigh     UrgencyLevel = "3"
	UrgencyCritical UrgencyLevel = "4"
)

const (
	EscalationComplexIssue         EscalationReason = "complex_issue"
	EscalationCustomerDissatisfied EscalationReason = "customer_dissatisfied"
	EscalationFailedAttempts       EscalationReason = "multiple_failed_attempts"
	EscalationVIPCustomer          EscalationReason = "vip_customer"
	EscalationPolicyException      EscalationReason = "policy_exception_needed"
	EscalationTechnicalLimitation  EscalationReason = "technical_limitation"
)

// ParseStatus validates a status string received over the wire.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOpen, StatusWaitingForCustomer, StatusInProgress,
		StatusEscalatedToHuman, StatusResolved, StatusClosed:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown ticket status %q", s)
}

// Terminal reports whether st ends the ticket lifecycle.
func (st Status) Terminal() bool {
	return st == StatusResolved || st == StatusClosed
}

// String implements fmt.Stringer.
func (st Status) String() string { return string(st) }
