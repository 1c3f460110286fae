// Command supportctl is the operator console for the support backend: open
// tickets, send customer messages, answer agent questions, inspect ticket
// state and follow the live chat feed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"
	"goa.design/clue/log"

	"goa.design/conductor/config"
	"goa.design/conductor/stream"
	"goa.design/conductor/ticket"
	"goa.design/conductor/workflows"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: supportctl <command> [flags]

Commands:
  open     open a new ticket and start its conductor
  send     send a customer message to a ticket
  answer   answer a pending agent question
  status   set a ticket's status (e.g. resolved, closed)
  state    print the full ticket snapshot as JSON
  watch    follow a ticket's live chat feed (requires REDIS_ADDR)

Run "supportctl <command> -h" for command flags.
`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf(ctx, err, "invalid configuration")
	}
	tc, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf(ctx, err, "connect to temporal at %s", cfg.Temporal.HostPort)
	}
	defer tc.Close()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "open":
		openTicket(ctx, tc, args)
	case "send":
		sendMessage(ctx, tc, args)
	case "answer":
		answerQuestion(ctx, tc, args)
	case "status":
		setStatus(ctx, tc, args)
	case "state":
		printState(ctx, tc, args)
	case "watch":
		watch(ctx, cfg, args)
	default:
		usage()
	}
}

func openTicket(ctx context.Context, tc client.Client, args []string) {
	fs := flag.NewFlagSet("open", flag.ExitOnError)
	var (
		ticketF   = fs.String("ticket", "", "Ticket ID (generated when empty)")
		customerF = fs.String("customer", "", "Customer ID (required)")
		messageF  = fs.String("message", "", "Opening customer message (required)")
		profileF  = fs.String("profile", "", "Customer profile as JSON")
	)
	fs.Parse(args)
	if *customerF == "" || *messageF == "" {
		log.Fatal(ctx, fmt.Errorf("open requires -customer and -message"))
	}

	ticketID := *ticketF
	if ticketID == "" {
		ticketID = "TKT-" + uuid.NewString()[:8]
	}
	var profile map[string]any
	if *profileF != "" {
		if err := json.Unmarshal([]byte(*profileF), &profile); err != nil {
			log.Fatalf(ctx, err, "invalid -profile JSON")
		}
	}

	// The workflow ID doubles as the ticket ID so signals and queries can
	// address the conductor directly.
	run, err := tc.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        ticketID,
		TaskQueue: ticket.TaskQueue,
	}, ticket.ConductorWorkflowName, workflows.ConductorInput{
		TicketID:        ticketID,
		CustomerID:      *customerF,
		CustomerProfile: profile,
		InitialMessage:  *messageF,
	})
	if err != nil {
		log.Fatalf(ctx, err, "start conductor for %s", ticketID)
	}
	log.Print(ctx, log.KV{K: "ticket", V: ticketID}, log.KV{K: "run", V: run.GetRunID()})
	fmt.Println(ticketID)
}

func sendMessage(ctx context.Context, tc client.Client, args []string) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	var (
		ticketF  = fs.String("ticket", "", "Ticket ID (required)")
		messageF = fs.String("message", "", "Message content (required)")
	)
	fs.Parse(args)
	if *ticketF == "" || *messageF == "" {
		log.Fatal(ctx, fmt.Errorf("send requires -ticket and -message"))
	}
	msg := ticket.Message{Content: *messageF, Type: ticket.MessageCustomer}
	if err := tc.SignalWorkflow(ctx, *ticketF, "", ticket.SignalAddMessage, msg); err != nil {
		log.Fatalf(ctx, err, "signal ticket %s", *ticketF)
	}
	log.Printf(ctx, "message sent to %s", *ticketF)
}

func answerQuestion(ctx context.Context, tc client.Client, args []string) {
	fs := flag.NewFlagSet("answer", flag.ExitOnError)
	var (
		ticketF = fs.String("ticket", "", "Ticket ID (required)")
		answerF = fs.String("answer", "", "Answer content (required)")
	)
	fs.Parse(args)
	if *ticketF == "" || *answerF == "" {
		log.Fatal(ctx, fmt.Errorf("answer requires -ticket and -answer"))
	}
	// Answers travel as customer messages; the conductor routes them to the
	// question workflow currently waiting.
	msg := ticket.Message{Content: *answerF, Type: ticket.MessageCustomer}
	if err := tc.SignalWorkflow(ctx, *ticketF, "", ticket.SignalAddMessage, msg); err != nil {
		log.Fatalf(ctx, err, "signal ticket %s", *ticketF)
	}
	log.Printf(ctx, "answer sent to %s", *ticketF)
}

func setStatus(ctx context.Context, tc client.Client, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	var (
		ticketF = fs.String("ticket", "", "Ticket ID (required)")
		statusF = fs.String("set", "", "New status (open, in_progress, waiting_for_customer, escalated_to_human, resolved, closed)")
	)
	fs.Parse(args)
	if *ticketF == "" || *statusF == "" {
		log.Fatal(ctx, fmt.Errorf("status requires -ticket and -set"))
	}
	if _, err := ticket.ParseStatus(*statusF); err != nil {
		log.Fatalf(ctx, err, "invalid status %q", *statusF)
	}
	if err := tc.SignalWorkflow(ctx, *ticketF, "", ticket.SignalUpdateStatus, *statusF); err != nil {
		log.Fatalf(ctx, err, "signal ticket %s", *ticketF)
	}
	log.Printf(ctx, "ticket %s status set to %s", *ticketF, *statusF)
}

func printState(ctx context.Context, tc client.Client, args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	ticketF := fs.String("ticket", "", "Ticket ID (required)")
	fs.Parse(args)
	if *ticketF == "" {
		log.Fatal(ctx, fmt.Errorf("state requires -ticket"))
	}
	val, err := tc.QueryWorkflow(ctx, *ticketF, "", ticket.QueryGetState)
	if err != nil {
		log.Fatalf(ctx, err, "query ticket %s", *ticketF)
	}
	var tk ticket.Ticket
	if err := val.Get(&tk); err != nil {
		log.Fatalf(ctx, err, "decode ticket state")
	}
	out, err := json.MarshalIndent(tk, "", "  ")
	if err != nil {
		log.Fatalf(ctx, err, "encode ticket state")
	}
	fmt.Println(string(out))
}

func watch(ctx context.Context, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	ticketF := fs.String("ticket", "", "Ticket ID (required)")
	fs.Parse(args)
	if *ticketF == "" {
		log.Fatal(ctx, fmt.Errorf("watch requires -ticket"))
	}
	if cfg.Redis.Addr == "" {
		log.Fatal(ctx, fmt.Errorf("watch requires REDIS_ADDR"))
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
	pulse, err := stream.New(stream.Options{Redis: rdb})
	if err != nil {
		log.Fatalf(ctx, err, "build pulse client")
	}
	pub, err := stream.NewPublisher(pulse)
	if err != nil {
		log.Fatalf(ctx, err, "build stream client")
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	consumer := "supportctl-" + uuid.NewString()[:8]
	log.Printf(ctx, "watching ticket %s (ctrl-c to stop)", *ticketF)
	err = pub.Tail(ctx, *ticketF, consumer, func(ev stream.Event) {
		out, merr := json.Marshal(ev)
		if merr != nil {
			return
		}
		fmt.Println(string(out))
	})
	if err != nil && ctx.Err() == nil {
		log.Fatalf(ctx, err, "tail ticket %s", *ticketF)
	}
}
