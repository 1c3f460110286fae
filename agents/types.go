// Package agents defines the specialist agent taxonomy shared by the
// planner, the orchestrator and the ticket conductor: agent type identifiers,
// the normalized specialist input/output records, and the per-agent
// structured payload (additional info) surfaced to downstream agents and UIs.
package agents

type (
	// Type identifies a support agent kind. Values are wire-stable: they
	// appear in execution plans, chat message attributions and workflow IDs.
	Type string
)

const (
	IntentClassifier    Type = "intent_classifier"
	Orchestrator        Type = "orchestrator"
	OrderSpecialist     Type = "order_specialist"
	TechnicalSpecialist Type = "technical_specialist"
	RefundSpecialist    Type = "refund_specialist"
	GeneralSupport      Type = "general_support"
	EscalationManager   Type = "escalation_manager"
	HumanAgent          Type = "human_agent"
	MaleSpecialist      Type = "male_specialist"
	FemaleSpecialist    Type = "female_specialist"
	Billing             Type = "billing"
	Delivery            Type = "delivery"
	Alteration          Type = "alteration"
)

// plannable lists the agent types a planner may schedule as plan steps.
// Orchestrator, intent classifier and human agents are not plannable: the
// first two are infrastructure roles and the last is reached via escalation.
var plannable = []Type{
	OrderSpecialist,
	TechnicalSpecialist,
	RefundSpecialist,
	GeneralSupport,
	EscalationManager,
	MaleSpecialist,
	FemaleSpecialist,
	Billing,
	Delivery,
	Alteration,
}

// Available returns the agent types offered to the planner, in stable order.
func Available() []Type {
	out := make([]Type, len(plannable))
	copy(out, plannable)
	return out
}

// Plannable reports whether t may appear as an execution plan step.
func Plannable(t Type) bool {
	for _, p := range plannable {
		if p == t {
			return true
		}
	}
	return false
}

// Valid reports whether t is a known agent type.
func (t Type) Valid() bool {
	switch t {
	case IntentClassifier, Orchestrator, OrderSpecialist, TechnicalSpecialist,
		RefundSpecialist, GeneralSupport, EscalationManager, HumanAgent,
		MaleSpecialist, FemaleSpecialist, Billing, Delivery, Alteration:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (t Type) String() string { return string(t) }
