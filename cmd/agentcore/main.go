// Command agentcore is a demonstration CLI for the agent orchestration
// runtime: it loads a YAML configuration, wires the LLM client, tool
// registry, message bus, checkpoint store, scheduler, and state-graph
// engine together, and
// exposes commands to run a single workflow invocation or serve the
// scheduler as a long-running process.
//
// Usage:
//
//	agentcore run --config agentcore.yaml --input "please help, this is urgent"
//	agentcore serve --config agentcore.yaml
//	agentcore status --config agentcore.yaml
//
// Configuration is YAML with environment variable expansion, so provider
// credentials are supplied via ANTHROPIC_API_KEY / OPENAI_API_KEY rather
// than written into the file:
//
//	llm:
//	  default_provider: anthropic
//	  providers:
//	    anthropic:
//	      api_key: ${ANTHROPIC_API_KEY}
//	      default_model: claude-3-7-sonnet-latest
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("agentcore exited with error", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "agentcore",
		Short: "Run and serve agent orchestration workflows",
		Long: `agentcore wires together an LLM client, a tool-invocation registry, a
typed message bus, a multi-agent orchestrator, and a declarative state-graph
engine with checkpointing, retries, and cron-driven scheduling.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "agentcore.yaml", "Path to YAML configuration file")

	root.AddCommand(
		buildRunCmd(&configPath),
		buildServeCmd(&configPath),
		buildStatusCmd(&configPath),
	)
	return root
}
