// Command worker runs the Temporal worker hosting every support workflow and
// activity: the ticket conductor, the orchestrator and its specialists, the
// customer question rendezvous and the auto-close sweep.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	mongooptions "go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.opentelemetry.io/otel"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/worker"
	"goa.design/clue/log"

	"goa.design/conductor/activities"
	"goa.design/conductor/config"
	"goa.design/conductor/history"
	"goa.design/conductor/llm"
	"goa.design/conductor/llm/anthropic"
	"goa.design/conductor/llm/openai"
	"goa.design/conductor/store"
	"goa.design/conductor/stream"
	"goa.design/conductor/ticket"
	"goa.design/conductor/toolprovider"
	"goa.design/conductor/tools/bundled"
	"goa.design/conductor/workflows"
)

func main() {
	var (
		dbgF = flag.Bool("debug", false, "Enable debug logs")
	)
	flag.Parse()

	// Setup logger.
	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf(ctx, err, "invalid configuration")
	}
	if *dbgF || cfg.Debug {
		ctx = log.Context(ctx, log.WithDebug())
		log.Debugf(ctx, "debug logs enabled")
	}
	log.Print(ctx, log.KV{K: "temporal", V: cfg.Temporal.HostPort},
		log.KV{K: "namespace", V: cfg.Temporal.Namespace},
		log.KV{K: "task-queue", V: ticket.TaskQueue},
		log.KV{K: "model-provider", V: cfg.Model.Provider})

	// Temporal client with OTEL instrumentation off the global providers.
	tracer, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: otel.Tracer("conductor"),
	})
	if err != nil {
		log.Fatalf(ctx, err, "configure tracing interceptor")
	}
	clientOptions := client.Options{
		HostPort:       cfg.Temporal.HostPort,
		Namespace:      cfg.Temporal.Namespace,
		Interceptors:   []interceptor.ClientInterceptor{tracer},
		MetricsHandler: temporalotel.NewMetricsHandler(temporalotel.MetricsHandlerOptions{
			Meter: otel.Meter("conductor"),
		}),
	}
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		log.Fatalf(ctx, err, "connect to temporal at %s", cfg.Temporal.HostPort)
	}
	defer temporalClient.Close()

	// Model client, shared by planner, synthesizer and specialists.
	var model llm.Client
	switch cfg.Model.Provider {
	case config.ProviderAnthropic:
		model, err = anthropic.NewFromAPIKey(cfg.Model.APIKey, cfg.Model.Name)
	case config.ProviderOpenAI:
		model, err = openai.NewFromAPIKey(cfg.Model.APIKey, cfg.Model.Name)
	default:
		err = fmt.Errorf("unknown provider %q", cfg.Model.Provider)
	}
	if err != nil {
		log.Fatalf(ctx, err, "build %s model client", cfg.Model.Provider)
	}
	model = llm.RateLimited(model, cfg.Model.RPS, cfg.Model.Burst)

	// Support-domain store and bundled toolsets. Specialists ask customers
	// questions through the Temporal client gateway.
	st, err := store.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf(ctx, err, "open store at %s", cfg.DataDir)
	}
	registry := bundled.New(st, activities.NewUsers(temporalClient))

	toolCfg, err := toolprovider.LoadConfig(cfg.ToolServersFile)
	if err != nil {
		log.Fatalf(ctx, err, "load tool server topology")
	}
	provider, err := toolCfg.BuildMux(toolprovider.NewLocal(registry), &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		log.Fatalf(ctx, err, "build tool provider")
	}
	log.Printf(ctx, "tool provider ready (%d remote servers)", len(toolCfg.Servers))

	// Chat event stream, enabled when Redis is configured.
	var publisher *stream.Publisher
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
		pulse, err := stream.New(stream.Options{Redis: rdb})
		if err != nil {
			log.Fatalf(ctx, err, "build pulse client")
		}
		if publisher, err = stream.NewPublisher(pulse); err != nil {
			log.Fatalf(ctx, err, "build stream publisher")
		}
		log.Printf(ctx, "chat events streaming to redis at %s", cfg.Redis.Addr)
	} else {
		log.Printf(ctx, "REDIS_ADDR not set, chat event streaming disabled")
	}

	// Ticket archive: Mongo when configured, in-memory otherwise.
	var archive history.Store
	if cfg.Mongo.URI != "" {
		mongoClient, err := mongodriver.Connect(mongooptions.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			log.Fatalf(ctx, err, "connect to mongo")
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				log.Errorf(ctx, err, "disconnect mongo")
			}
		}()
		archive, err = history.NewMongo(history.MongoOptions{
			Client:   mongoClient,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			log.Fatalf(ctx, err, "build mongo archive")
		}
		log.Printf(ctx, "archiving terminal tickets to mongo database %s", cfg.Mongo.Database)
	} else {
		archive = history.NewMemory()
		log.Printf(ctx, "MONGO_URI not set, using in-memory ticket archive")
	}

	w := worker.New(temporalClient, ticket.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     50,
		MaxConcurrentWorkflowTaskExecutionSize: 100,
	})
	workflows.Register(w, workflows.Deps{
		Orchestration: activities.NewOrchestration(
			llm.NewPlanner(model, cfg.Model.Name),
			llm.NewSynthesizer(model, cfg.Model.Name),
		),
		Reasoning:   activities.NewReasoning(llm.NewReasoner(model, cfg.Model.Name, 0), provider),
		Queries:     activities.NewTicketQueries(temporalClient),
		Maintenance: activities.NewMaintenance(temporalClient),
		Publish:     activities.NewPublish(publisher),
		Archive:     activities.NewArchive(archive),
	})

	// Stop the worker gracefully on SIGINT and SIGTERM.
	stopCh := make(chan any)
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		sig := <-c
		log.Printf(ctx, "exiting (%v)", sig)
		close(stopCh)
	}()

	log.Printf(ctx, "worker running on %s", ticket.TaskQueue)
	if err := w.Run(stopCh); err != nil {
		log.Fatalf(ctx, err, "worker exited")
	}
	log.Printf(ctx, "exited")
}
