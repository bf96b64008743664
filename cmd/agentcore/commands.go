package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func buildRunCmd(configPath *string) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compile the demo workflow graph and invoke it once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(*configPath, input)
		},
	}
	cmd.Flags().StringVar(&input, "input", "please help, this is urgent", "Input text fed to the workflow's classify node")
	return cmd
}

func runWorkflow(configPath, input string) error {
	rt, err := buildRuntime(configPath)
	if err != nil {
		return err
	}
	defer rt.shutdown(context.Background())

	compiled, err := buildDemoGraph(rt.store, rt.tools)
	if err != nil {
		return fmt.Errorf("compile demo graph: %w", err)
	}

	ctx := context.Background()
	ctx, span := rt.tracer.TraceGraphWorkflow(ctx, "demo")
	defer span.End()

	result, err := compiled.Invoke(ctx, "demo-run", map[string]any{"input": input})
	if err != nil {
		rt.tracer.RecordError(span, err)
		return fmt.Errorf("invoke workflow: %w", err)
	}

	rt.logger.Info(ctx, "workflow finished", "status", result.Status, "completed_nodes", result.CompletedNodes)
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func buildServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Register the demo workflow and run the cron scheduler until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(*configPath)
		},
	}
}

func serve(configPath string) error {
	rt, err := buildRuntime(configPath)
	if err != nil {
		return err
	}
	defer rt.shutdown(context.Background())

	compiled, err := buildDemoGraph(rt.store, rt.tools)
	if err != nil {
		return fmt.Errorf("compile demo graph: %w", err)
	}
	rt.scheduler.RegisterGraph("demo", compiled)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt.scheduler.Start(ctx)
	rt.logger.Info(ctx, "agentcore serving", "poll_interval", rt.cfg.Schedule.PollInterval, "metrics_addr", rt.cfg.Server.MetricsAddr)

	<-ctx.Done()
	rt.logger.Info(context.Background(), "shutting down")
	rt.scheduler.Stop()
	return nil
}

func buildStatusCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Validate configuration and print the wired subsystem summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return status(*configPath)
		},
	}
}

func status(configPath string) error {
	rt, err := buildRuntime(configPath)
	if err != nil {
		return err
	}
	defer rt.shutdown(context.Background())

	fmt.Printf("config:              %s\n", configPath)
	fmt.Printf("llm default provider: %s\n", rt.cfg.LLM.DefaultProvider)
	fmt.Printf("checkpoint backend:   %s\n", rt.cfg.Graph.Checkpoint.Backend)
	fmt.Printf("schedule poll:        %s\n", rt.cfg.Schedule.PollInterval)
	fmt.Printf("tools registered:     %d\n", len(rt.tools.List("")))
	return nil
}
