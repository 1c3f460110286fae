package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/workflow"

	"goa.design/conductor/agents"
	"goa.design/conductor/stream"
	"goa.design/conductor/ticket"
)

// ConductorInput opens a ticket: who the customer is and what they said.
// The workflow ID is the ticket ID, so every signal and query addresses the
// ticket directly.
type ConductorInput struct {
	TicketID        string         `json:"ticket_id"`
	CustomerID      string         `json:"customer_id"`
	CustomerProfile map[string]any `json:"customer_profile,omitempty"`
	InitialMessage  string         `json:"initial_message"`
}

// conductorState is the mutable workflow state shared by the signal pumps
// and the main loop. Coroutines in one workflow never run concurrently, so
// plain fields suffice.
type conductorState struct {
	t        *ticket.Ticket
	pending  []ticket.Message
	awaiting string   // question workflow owed the next customer message
	backlog  []string // question workflows displayed while another was awaiting
	outbox   []stream.Event
	flushing bool
}

// TicketConductorWorkflow owns the full lifecycle of one support ticket. It
// queues customer messages, runs each through an orchestration, routes
// customer replies to waiting question workflows, and archives the ticket
// when it reaches a terminal status.
func TicketConductorWorkflow(ctx workflow.Context, in ConductorInput) (string, error) {
	logger := workflow.GetLogger(ctx)
	now := workflow.Now(ctx).UTC()

	s := &conductorState{t: ticket.New(in.TicketID, in.CustomerID, in.CustomerProfile, now)}

	if err := workflow.SetQueryHandler(ctx, ticket.QueryGetState, func() (*ticket.Ticket, error) {
		return s.t.Snapshot(), nil
	}); err != nil {
		return "", err
	}

	first := ticket.Message{
		ID:        newID(ctx),
		TicketID:  in.TicketID,
		Content:   in.InitialMessage,
		Type:      ticket.MessageCustomer,
		Timestamp: now,
	}
	s.t.Append(first)
	s.pending = append(s.pending, first)
	s.emitMessage(first)

	workflow.Go(ctx, s.pumpAddMessage)
	workflow.Go(ctx, s.pumpUpdateStatus)
	workflow.Go(ctx, s.pumpDisplayQuestion)
	workflow.Go(ctx, s.pumpQuestionTimeout)
	workflow.Go(ctx, s.pumpOutbox)

	logger.Info("conductor started", "ticket_id", in.TicketID, "customer_id", in.CustomerID)

	for {
		if err := workflow.Await(ctx, func() bool {
			return len(s.pending) > 0 || s.t.Status.Terminal()
		}); err != nil {
			return "", err
		}

		for len(s.pending) > 0 {
			msg := s.pending[0]
			s.pending = s.pending[1:]
			if msg.Type == ticket.MessageCustomer {
				s.orchestrate(ctx, msg)
			}
			s.t.LastUpdated = workflow.Now(ctx).UTC()
		}

		if s.t.Status.Terminal() {
			s.drain(ctx)
			return fmt.Sprintf("Ticket %s completed by agents.", s.t.TicketID), nil
		}
	}
}

// orchestrate runs one customer message through an orchestration child
// workflow and folds its outcome back into the ticket.
func (s *conductorState) orchestrate(ctx workflow.Context, msg ticket.Message) {
	logger := workflow.GetLogger(ctx)
	info := workflow.GetInfo(ctx)

	// History as seen before this message arrived.
	var history []string
	for i := range s.t.ChatHistory {
		if s.t.ChatHistory[i].ID == msg.ID {
			continue
		}
		history = append(history, s.t.ChatHistory[i].PromptLine())
	}

	input := OrchestratorInput{
		CustomerMessage:  msg.Content,
		ChatHistory:      history,
		CustomerProfile:  s.t.CustomerProfile,
		CustomerID:       s.t.CustomerID,
		TicketID:         s.t.TicketID,
		TicketWorkflowID: info.WorkflowExecution.ID,
		AvailableAgents:  agents.Available(),
	}

	childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
		WorkflowID: fmt.Sprintf("%s-orchestrator-%s", s.t.TicketID, newID(ctx)),
		TaskQueue:  ticket.TaskQueue,
	})

	var out OrchestratorOutput
	if err := workflow.ExecuteChildWorkflow(childCtx, OrchestratorWorkflow, input).Get(ctx, &out); err != nil {
		logger.Error("orchestration failed", "ticket_id", s.t.TicketID, "error", err)
		s.setStatus(ctx, ticket.StatusEscalatedToHuman)
		s.t.EscalationReason = ticket.EscalationTechnicalLimitation
		s.t.EscalationCount++
		s.t.FailedAttempts++
		s.t.Context["orchestration_error"] = err.Error()
		return
	}

	s.setStatus(ctx, ticket.StatusInProgress)
	s.t.Context["orchestrator_plan"] = structToMap(out.ExecutionPlan)
	s.t.Context["orchestrator_confidence"] = out.Confidence
	s.t.Context["last_orchestrator_execution"] = workflow.Now(ctx).UTC().Format(time.RFC3339)

	if out.RequiresEscalation {
		logger.Info("synthesis requested escalation", "ticket_id", s.t.TicketID)
		s.setStatus(ctx, ticket.StatusEscalatedToHuman)
		s.t.EscalationReason = ticket.EscalationComplexIssue
		s.t.EscalationCount++
		s.t.Context["escalation_reason"] = "Orchestrator determined human assistance needed"
		s.t.Context["escalation_time"] = workflow.Now(ctx).UTC().Format(time.RFC3339)
	}

	if out.RequiresFollowup && out.FollowupPlan != nil {
		followup := ticket.Message{
			ID:        newID(ctx),
			TicketID:  s.t.TicketID,
			Content:   "Follow-up may be needed: " + out.SynthesisReasoning,
			Type:      ticket.MessageSystem,
			AgentType: agents.Orchestrator,
			Timestamp: workflow.Now(ctx).UTC(),
			Metadata:  map[string]any{"followup_plan": structToMap(out.FollowupPlan)},
		}
		s.t.Append(followup)
		s.emitMessage(followup)
	}
}

// pumpAddMessage receives chat messages. Agent and system messages are
// recorded as-is; customer messages either answer the awaiting question or
// queue for orchestration.
func (s *conductorState) pumpAddMessage(ctx workflow.Context) {
	logger := workflow.GetLogger(ctx)
	ch := workflow.GetSignalChannel(ctx, ticket.SignalAddMessage)
	for {
		var msg ticket.Message
		ch.Receive(ctx, &msg)
		if s.t.Status.Terminal() {
			logger.Info("message dropped on terminal ticket", "ticket_id", s.t.TicketID)
			continue
		}
		if msg.ID == "" {
			msg.ID = newID(ctx)
		}
		if msg.Timestamp.IsZero() {
			msg.Timestamp = workflow.Now(ctx).UTC()
		}
		if msg.TicketID == "" {
			msg.TicketID = s.t.TicketID
		}
		s.t.Append(msg)
		s.t.LastUpdated = workflow.Now(ctx).UTC()
		s.emitMessage(msg)

		if msg.Type != ticket.MessageCustomer {
			continue
		}
		if s.awaiting != "" {
			s.routeAnswer(ctx, msg)
			continue
		}
		s.pending = append(s.pending, msg)
		logger.Info("customer message queued", "ticket_id", s.t.TicketID, "message_id", msg.ID)
	}
}

// routeAnswer delivers a customer message to the question workflow holding
// the awaiting slot. If delivery fails (the question already finished on its
// own) the message is requeued for orchestration so the customer's text is
// never lost.
func (s *conductorState) routeAnswer(ctx workflow.Context, msg ticket.Message) {
	logger := workflow.GetLogger(ctx)
	target := s.awaiting

	err := workflow.SignalExternalWorkflow(ctx, target, "", ticket.SignalReceiveAnswer, msg.Content).Get(ctx, nil)
	if err != nil {
		logger.Error("answer routing failed, treating message as a new query",
			"question_workflow_id", target, "error", err)
		s.advanceQuestionSlot()
		s.pending = append(s.pending, msg)
		return
	}

	respondedAt := workflow.Now(ctx).UTC()
	for id, q := range s.t.PendingQuestions {
		if q.WorkflowID == target {
			q.Status = ticket.QuestionAnswered
			q.Response = msg.Content
			q.RespondedAt = &respondedAt
			s.t.PendingQuestions[id] = q
			break
		}
	}
	s.advanceQuestionSlot()
	logger.Info("customer answer routed", "question_workflow_id", target)
}

// advanceQuestionSlot hands the awaiting slot to the next displayed question
// or, when none remain pending, restores the in-progress status.
func (s *conductorState) advanceQuestionSlot() {
	s.awaiting = ""
	if len(s.backlog) > 0 {
		s.awaiting = s.backlog[0]
		s.backlog = s.backlog[1:]
		return
	}
	if s.t.PendingCount() == 0 && s.t.Status == ticket.StatusWaitingForCustomer {
		s.t.Status = ticket.StatusInProgress
	}
}

// pumpUpdateStatus applies external status updates. Terminal states stick:
// once a ticket is resolved or closed no signal reopens it.
func (s *conductorState) pumpUpdateStatus(ctx workflow.Context) {
	logger := workflow.GetLogger(ctx)
	ch := workflow.GetSignalChannel(ctx, ticket.SignalUpdateStatus)
	for {
		var raw string
		ch.Receive(ctx, &raw)
		status, err := ticket.ParseStatus(raw)
		if err != nil {
			logger.Error("status update rejected", "ticket_id", s.t.TicketID, "error", err)
			continue
		}
		if s.t.Status.Terminal() {
			logger.Info("status update ignored on terminal ticket", "ticket_id", s.t.TicketID, "status", raw)
			continue
		}
		s.setStatus(ctx, status)
		s.t.LastUpdated = workflow.Now(ctx).UTC()
	}
}

// pumpDisplayQuestion surfaces specialist questions: record them, show them
// in the chat and arm the answer-routing slot.
func (s *conductorState) pumpDisplayQuestion(ctx workflow.Context) {
	logger := workflow.GetLogger(ctx)
	ch := workflow.GetSignalChannel(ctx, ticket.SignalDisplayQuestion)
	for {
		var q ticket.QuestionRecord
		ch.Receive(ctx, &q)
		if q.Status == "" {
			q.Status = ticket.QuestionPending
		}
		if q.AskedAt.IsZero() {
			q.AskedAt = workflow.Now(ctx).UTC()
		}
		s.t.PendingQuestions[q.QuestionID] = q
		s.setStatus(ctx, ticket.StatusWaitingForCustomer)

		if s.awaiting == "" {
			s.awaiting = q.WorkflowID
		} else {
			s.backlog = append(s.backlog, q.WorkflowID)
		}

		msg := ticket.Message{
			ID:        newID(ctx),
			TicketID:  s.t.TicketID,
			Content:   q.Question,
			Type:      ticket.MessageSystem,
			AgentType: q.AgentType,
			Timestamp: workflow.Now(ctx).UTC(),
			Metadata:  structToMap(q),
		}
		s.t.Append(msg)
		s.emitMessage(msg)
		s.emit(stream.Event{Type: stream.EventQuestion, TicketID: s.t.TicketID, Payload: structToMap(q)})
		logger.Info("question displayed", "question_id", q.QuestionID, "agent_type", q.AgentType)
	}
}

// pumpQuestionTimeout marks expired questions and releases the slot.
func (s *conductorState) pumpQuestionTimeout(ctx workflow.Context) {
	logger := workflow.GetLogger(ctx)
	ch := workflow.GetSignalChannel(ctx, ticket.SignalQuestionTimeout)
	for {
		var notice ticket.TimeoutNotice
		ch.Receive(ctx, &notice)
		q, ok := s.t.PendingQuestions[notice.QuestionID]
		if !ok {
			continue
		}
		q.Status = ticket.QuestionTimedOut
		s.t.PendingQuestions[notice.QuestionID] = q
		if s.awaiting == q.WorkflowID {
			s.advanceQuestionSlot()
		} else {
			s.dropFromBacklog(q.WorkflowID)
			if s.awaiting == "" && s.t.PendingCount() == 0 && s.t.Status == ticket.StatusWaitingForCustomer {
				s.t.Status = ticket.StatusInProgress
			}
		}
		s.t.LastUpdated = workflow.Now(ctx).UTC()
		logger.Info("question timed out", "question_id", notice.QuestionID)
	}
}

func (s *conductorState) dropFromBacklog(workflowID string) {
	for i, id := range s.backlog {
		if id == workflowID {
			s.backlog = append(s.backlog[:i], s.backlog[i+1:]...)
			return
		}
	}
}

// setStatus applies a status change and emits it. Terminal states hold: a
// late orchestration outcome never reopens a resolved or closed ticket.
func (s *conductorState) setStatus(ctx workflow.Context, status ticket.Status) {
	if s.t.Status == status || s.t.Status.Terminal() {
		return
	}
	s.t.Status = status
	s.emit(stream.Event{Type: stream.EventStatus, TicketID: s.t.TicketID, Payload: string(status)})
	workflow.GetLogger(ctx).Info("ticket status changed", "ticket_id", s.t.TicketID, "status", status)
}

func (s *conductorState) emitMessage(msg ticket.Message) {
	s.emit(stream.Event{Type: stream.EventMessage, TicketID: s.t.TicketID, Payload: structToMap(msg)})
}

func (s *conductorState) emit(ev stream.Event) {
	s.outbox = append(s.outbox, ev)
}

// pumpOutbox ships queued events to the live feed. Publication is best
// effort end to end: the activity swallows errors and the pump never blocks
// ticket processing.
func (s *conductorState) pumpOutbox(ctx workflow.Context) {
	actx := withActivity(ctx, 10*time.Second, 1)
	for {
		if err := workflow.Await(ctx, func() bool { return len(s.outbox) > 0 }); err != nil {
			return
		}
		ev := s.outbox[0]
		s.outbox = s.outbox[1:]
		s.flushing = true
		_ = workflow.ExecuteActivity(actx, publishActivities.PublishEvent, ev).Get(ctx, nil)
		s.flushing = false
	}
}

// releaseQuestions unblocks question workflows still waiting when the ticket
// goes terminal. Each receives the timeout marker as its answer so the asking
// specialist completes normally.
func (s *conductorState) releaseQuestions(ctx workflow.Context) {
	logger := workflow.GetLogger(ctx)
	for id, q := range s.t.PendingQuestions {
		if q.Status != ticket.QuestionPending {
			continue
		}
		seconds := q.TimeoutSeconds
		if seconds <= 0 {
			seconds = int(DefaultQuestionTimeout / time.Second)
		}
		marker := ticket.TimeoutMarker(seconds)
		if err := workflow.SignalExternalWorkflow(ctx, q.WorkflowID, "", ticket.SignalReceiveAnswer, marker).Get(ctx, nil); err != nil {
			logger.Error("question release failed", "question_id", id, "error", err)
		}
		q.Status = ticket.QuestionTimedOut
		s.t.PendingQuestions[id] = q
	}
	s.awaiting = ""
	s.backlog = nil
}

// drain finishes the ticket: release blocked questions, wait for the outbox
// to empty, then archive the final snapshot. Archive failures are logged,
// never fatal.
func (s *conductorState) drain(ctx workflow.Context) {
	logger := workflow.GetLogger(ctx)
	s.releaseQuestions(ctx)
	_ = workflow.Await(ctx, func() bool { return len(s.outbox) == 0 && !s.flushing })

	actx := withActivity(ctx, 30*time.Second, 2)
	if err := workflow.ExecuteActivity(actx, archiveActivities.ArchiveTicket, *s.t.Snapshot()).Get(ctx, nil); err != nil {
		logger.Error("ticket archive failed", "ticket_id", s.t.TicketID, "error", err)
	}
}
