package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"recflow/internal/config"
	"recflow/internal/logging"
	"recflow/internal/metrics"
	"recflow/internal/metrics/datadog"
	"recflow/internal/metrics/prompush"
	"recflow/internal/pipeline"
	"recflow/internal/storage"

	// register all backends with the storage factory.
	_ "recflow/internal/storage/all"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailed  = 1
	exitInvalid = 2
)

// newRunID is replaced in tests.
var newRunID = defaultRunID

func defaultRunID() string { return uuid.NewString() }

// run parses args, executes the pipeline and returns the process exit code.
// Validation issues are written to stderr; everything else is logged.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("recflow", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		cfgPath        = fs.String("config", "configs/pipeline.yaml", "pipeline config path (.json, .yaml or .yml)")
		validate       = fs.Bool("validate", false, "validate the configuration and exit")
		metricsBackend = fs.String("metrics-backend", "", "metrics backend: none, pushgateway or datadog (overrides RECFLOW_METRICS_BACKEND)")
		pushgatewayURL = fs.String("pushgateway-url", "", "Pushgateway base URL (overrides RECFLOW_PUSHGATEWAY_URL)")
		verbose        = fs.Bool("v", false, "debug logging")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitInvalid
	}

	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitInvalid
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = env.LogLevel
	logCfg.Development = env.LogDevelopment
	if *verbose {
		logCfg.Level = "debug"
	}
	log, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitInvalid
	}
	defer func() { _ = log.Sync() }()

	p, err := config.Load(*cfgPath)
	if err != nil {
		log.Error("config: load failed", zap.String("path", *cfgPath), zap.Error(err))
		return exitInvalid
	}
	env.Apply(&p)

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Error("config: invalid", zap.String("path", *cfgPath))
		return exitInvalid
	}
	if *validate {
		log.Info("config: valid", zap.String("path", *cfgPath))
		return exitOK
	}

	runID := newRunID()
	log = log.With(zap.String("run_id", runID))

	backend := firstNonEmpty(*metricsBackend, env.MetricsBackend)
	flush, err := setupMetrics(backend, p.Job, runID, firstNonEmpty(*pushgatewayURL, env.PushgatewayURL), env.DogStatsDAddr, log)
	if err != nil {
		log.Warn("metrics: disabled", zap.String("backend", backend), zap.Error(err))
	}
	defer flush()

	if err := execute(ctx, p, log); err != nil {
		return exitFailed
	}
	return exitOK
}

// execute wires producer, transforms and sink and runs them. Run logs the
// outcome itself.
func execute(ctx context.Context, p config.Pipeline, log *zap.Logger) error {
	log.Debug("pipeline: start",
		zap.String("source", p.Source.Kind),
		zap.String("parser", p.Parser.Kind),
		zap.String("storage", p.Storage.Kind),
		zap.String("table", p.Storage.DB.Table),
	)

	prod, err := pipeline.NewProducer(p, log)
	if err != nil {
		log.Error("pipeline: producer", zap.Error(err))
		return err
	}
	mod, err := pipeline.Build(p.Job, p.Transform, log)
	if err != nil {
		log.Error("pipeline: transform", zap.Error(err))
		return err
	}
	sink := storage.NewSink(p.Storage, storage.SinkOptions{
		Job:       p.Job,
		BatchSize: p.Runtime.BatchSize,
		Buffer:    p.Runtime.ChannelBuffer,
		Logger:    log,
	})

	_, err = pipeline.Run(ctx, prod, mod, sink, pipeline.Options{
		Job:    p.Job,
		Buffer: p.Runtime.ChannelBuffer,
		Logger: log,
	})
	if err == nil {
		log.Info("storage: done", zap.Int64("inserted", sink.Inserted()))
	}
	return err
}

// setupMetrics installs the named backend and returns the function flushing
// it at exit. On error the nop backend stays in place.
func setupMetrics(name, job, runID, gatewayURL, dogstatsdAddr string, log *zap.Logger) (func(), error) {
	nop := func() {}
	var b metrics.Backend
	switch name {
	case "", "none":
		log.Debug("metrics: disabled")
		return nop, nil
	case "pushgateway":
		pb, err := prompush.NewBackend(job, gatewayURL)
		if err != nil {
			return nop, err
		}
		b = pb.WithRunID(runID)
	case "datadog":
		db, err := datadog.NewBackend(datadog.Config{
			Addr:       dogstatsdAddr,
			Namespace:  "recflow.",
			GlobalTags: []string{"job:" + job, "run:" + runID},
		})
		if err != nil {
			return nop, err
		}
		b = db
	default:
		return nop, fmt.Errorf("unknown metrics backend %q", name)
	}

	log.Info("metrics: enabled", zap.String("backend", name))
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics: flush failed", zap.Error(err))
		}
		if c, ok := b.(io.Closer); ok {
			_ = c.Close()
		}
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
