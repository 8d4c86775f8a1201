// Automata Runner — loads a workflow definition and executes it
// in-process against a browser session, reporting lifecycle events and
// probe measurements to a RabbitMQ-backed event bus.
//
// Usage:
//
//	automata-runner run <workflow.json> [flags]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/flowforge/automata/internal/domain"
	"github.com/flowforge/automata/internal/eventbus"
	"github.com/flowforge/automata/internal/mq"
	"github.com/flowforge/automata/internal/probe"
	"github.com/flowforge/automata/internal/runner"
	"github.com/flowforge/automata/internal/scheduler"
	"github.com/flowforge/automata/internal/steps"
	"github.com/flowforge/automata/internal/telemetry"
)

// Exit codes, per the runner's process contract.
const (
	exitSucceeded   = 0
	exitEscalated   = 1
	exitConfigError = 2
	exitInternal    = 3
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		metricsAddr string
		autoEnable  bool
	)

	rootCmd := &cobra.Command{
		Use:           "automata-runner",
		Short:         "Automata Runner — executes a browser automation workflow",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve /metrics and /healthz on this address while running")
	rootCmd.PersistentFlags().BoolVar(&autoEnable, "auto-enable-instruments", true, "enable the built-in reference probes")

	exitCode := exitSucceeded

	runCmd := &cobra.Command{
		Use:   "run <workflow.json>",
		Short: "Run a workflow definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, a []string) error {
			code, err := runWorkflowFile(cmd.Context(), a[0], metricsAddr, autoEnable)
			exitCode = code
			return err
		},
	}
	rootCmd.AddCommand(runCmd)

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if exitCode == exitSucceeded {
			exitCode = exitInternal
		}
	}
	return exitCode
}

func runWorkflowFile(ctx context.Context, path string, metricsAddr string, autoEnable bool) (int, error) {
	logger := telemetry.SetupLogger()

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	data, err := os.ReadFile(path)
	if err != nil {
		return exitConfigError, fmt.Errorf("read workflow file: %w", err)
	}

	wf, err := domain.ParseWorkflow(data)
	if err != nil {
		return exitConfigError, fmt.Errorf("parse workflow: %w", err)
	}

	producer, conn, closeProducer := buildProducer(ctx, logger)
	defer closeProducer()

	embedder := probe.New(producer, logger)
	if autoEnable {
		embedder.Register(probe.NewStepLatencyProbe(envFloat("LATENCY_THRESHOLD_MS", 2000)))
		embedder.Register(probe.NewErrorRateProbe(envInt("ERROR_RATE_THRESHOLD", 3)))
	}
	defer embedder.TeardownAll(context.Background())

	if conn != nil {
		consumer := eventbus.NewCommandConsumer(conn, envString("TOPIC_PREFIX", ""), logger, commandHandler(embedder, logger))
		go func() {
			if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("command consumer stopped", "error", err)
			}
		}()
		defer consumer.Stop()
	}

	if metricsAddr != "" {
		go serveMetrics(metricsAddr, logger)
	}

	r := runner.New(embedder, producer, logger)

	sessions := func(taskName string) (*steps.SessionContext, error) {
		return &steps.SessionContext{SessionID: taskName, Page: steps.NewNoopHandle()}, nil
	}

	result, err := r.Run(ctx, wf, sessions)
	if err != nil {
		var cycleErr *scheduler.CycleError
		if errors.As(err, &cycleErr) {
			return exitEscalated, fmt.Errorf("run workflow: %w", err)
		}
		return exitInternal, fmt.Errorf("run workflow: %w", err)
	}

	printSummary(result)

	if result.Status == domain.WorkflowSucceeded {
		return exitSucceeded, nil
	}
	return exitEscalated, nil
}

// buildProducer returns the event producer, the underlying RabbitMQ
// connection (nil when no broker is configured/reachable, in which case
// events are discarded and no command consumer can be started), and a
// cleanup func.
func buildProducer(ctx context.Context, logger *slog.Logger) (*eventbus.Producer, *mq.Connection, func()) {
	topicPrefix := envString("TOPIC_PREFIX", "")
	cfg := eventbus.Config{
		MaxBatchSize: envInt("EVENTBUS_BATCH_SIZE", 50),
		LingerMs:     envInt("EVENTBUS_LINGER_MS", 500),
		TopicPrefix:  topicPrefix,
	}
	compressor := eventbus.NewCompressor(envString("EVENTBUS_COMPRESSION", "none"))

	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		logger.Warn("RABBITMQ_URL not set, events will be discarded")
		transport := eventbus.NewNoopTransport(logger)
		p := eventbus.NewProducer(transport, cfg, logger)
		return p, nil, func() { p.Close(ctx) }
	}

	conn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ unavailable, events will be discarded", "error", err)
		transport := eventbus.NewNoopTransport(logger)
		p := eventbus.NewProducer(transport, cfg, logger)
		return p, nil, func() { p.Close(ctx) }
	}

	transport, err := eventbus.NewRabbitMQTransport(ctx, conn, topicPrefix, compressor, logger)
	if err != nil {
		logger.Warn("failed to set up events topology, events will be discarded", "error", err)
		conn.Close()
		transport := eventbus.NewNoopTransport(logger)
		p := eventbus.NewProducer(transport, cfg, logger)
		return p, nil, func() { p.Close(ctx) }
	}

	p := eventbus.NewProducer(transport, cfg, logger)
	return p, conn, func() { p.Close(ctx) }
}

// commandHandler dispatches a decoded instrument-control Command
// (spec.md §6) to the embedder. Unknown actions are logged and ignored.
func commandHandler(embedder *probe.Embedder, logger *slog.Logger) eventbus.CommandHandler {
	return func(ctx context.Context, cmd *eventbus.Command) error {
		switch cmd.Action {
		case "enable":
			embedder.Enable(cmd.InstrumentID)
		case "disable":
			embedder.Disable(cmd.InstrumentID)
		case "reload", "update_config":
			logger.Info("command acknowledged, no reloadable config for built-in instruments", "action", cmd.Action, "instrument", cmd.InstrumentID)
		default:
			logger.Warn("unknown instrument command ignored", "action", cmd.Action, "instrument", cmd.InstrumentID)
		}
		return nil
	}
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server error", "error", err)
	}
}

func printSummary(result *runner.WorkflowResult) {
	summary := map[string]any{"status": result.Status, "tasks": result.Tasks}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(summary)
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}
