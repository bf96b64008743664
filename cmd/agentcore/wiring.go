package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agentmesh/core/internal/bus"
	"github.com/agentmesh/core/internal/config"
	"github.com/agentmesh/core/internal/graph"
	"github.com/agentmesh/core/internal/graph/checkpoint"
	"github.com/agentmesh/core/internal/llm"
	"github.com/agentmesh/core/internal/llm/providers"
	"github.com/agentmesh/core/internal/schedule"
	"github.com/agentmesh/core/internal/telemetry"
	"github.com/agentmesh/core/internal/tools"
)

// runtime bundles every wired subsystem a command needs. Built once per
// invocation from the loaded config.
type runtime struct {
	cfg       *config.Config
	logger    *telemetry.Logger
	metrics   *telemetry.Metrics
	tracer    *telemetry.Tracer
	shutdown  func(context.Context) error
	llmClient *llm.Client
	tools     *tools.Registry
	bus       *bus.Bus
	store     graph.CheckpointStore
	scheduler *schedule.Scheduler
}

// buildRuntime loads configPath and wires every subsystem it describes.
// Callers must invoke the returned shutdown function before exiting.
func buildRuntime(configPath string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := telemetry.NewLogger(telemetry.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	metrics := telemetry.NewMetrics()
	tracer, shutdown := telemetry.NewTracer(telemetry.TraceConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		Endpoint:       cfg.Telemetry.TraceEndpoint,
		EnableInsecure: cfg.Telemetry.TraceInsecure,
		SamplingRate:   cfg.Telemetry.TraceSampling,
	})

	llmClient, err := buildLLMClient(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("build llm client: %w", err)
	}

	registry := tools.NewRegistry()
	registerDemoTools(registry)

	messageBus := bus.New()

	store, err := buildCheckpointStore(cfg.Graph.Checkpoint)
	if err != nil {
		return nil, fmt.Errorf("build checkpoint store: %w", err)
	}

	sched := schedule.New(schedule.NewMemoryStore(), schedule.Config{
		PollInterval:   cfg.Schedule.PollInterval,
		MaxConcurrency: cfg.Schedule.MaxConcurrency,
		Metrics:        metrics,
	})

	return &runtime{
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		shutdown:  shutdown,
		llmClient: llmClient,
		tools:     registry,
		bus:       messageBus,
		store:     store,
		scheduler: sched,
	}, nil
}

func buildLLMClient(cfg config.LLMConfig) (*llm.Client, error) {
	name := cfg.DefaultProvider
	if name == "" {
		return nil, fmt.Errorf("llm.default_provider is required")
	}
	pcfg, ok := cfg.Providers[name]
	if !ok {
		return nil, fmt.Errorf("llm.default_provider %q has no matching entry under llm.providers", name)
	}

	provider, err := buildProvider(name, pcfg)
	if err != nil {
		return nil, err
	}
	return llm.New(llm.Config{Provider: provider})
}

func buildProvider(name string, cfg config.LLMProviderConfig) (llm.Provider, error) {
	switch name {
	case "anthropic":
		return providers.NewAnthropicProvider(cfg.APIKey, cfg.DefaultModel)
	case "openai":
		return providers.NewOpenAIProvider(cfg.APIKey, cfg.DefaultModel)
	default:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("unknown llm provider %q (no base_url for an OpenAI-compatible fallback)", name)
		}
		return providers.NewCompatibleProvider(cfg.APIKey, cfg.BaseURL, cfg.DefaultModel)
	}
}

func buildCheckpointStore(cfg config.CheckpointConfig) (graph.CheckpointStore, error) {
	switch cfg.Backend {
	case "", "memory":
		return checkpoint.NewMemory(), nil
	case "file":
		if cfg.Path == "" {
			return nil, fmt.Errorf("graph.checkpoint.path is required for the file backend")
		}
		return checkpoint.NewFile(cfg.Path)
	case "sqlite":
		if cfg.Path == "" {
			return nil, fmt.Errorf("graph.checkpoint.path is required for the sqlite backend")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return checkpoint.NewSQLite(ctx, cfg.Path)
	case "redis":
		if cfg.Addr == "" {
			return nil, fmt.Errorf("graph.checkpoint.addr is required for the redis backend")
		}
		client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
		prefix := cfg.Prefix
		if prefix == "" {
			prefix = "agentcore:checkpoint:"
		}
		return checkpoint.NewRedis(client, prefix), nil
	default:
		return nil, fmt.Errorf("unknown checkpoint backend %q", cfg.Backend)
	}
}
