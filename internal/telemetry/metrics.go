// Package telemetry centralizes the Prometheus metrics and OpenTelemetry
// tracing defined for the runtime, bus, orchestrator, and graph engine. Of
// the internal packages only internal/schedule records into them; the bus,
// orchestrator, LLM client, tools, agent and graph packages do not import
// telemetry.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is a centralized interface for collecting runtime metrics.
//
// It is built on Prometheus and tracks:
//   - Message flow through the bus (point-to-point, broadcast, topic, request-reply)
//   - LLM request performance, token usage, and cost
//   - Tool execution patterns and latencies
//   - Orchestrator round outcomes across coordination modes
//   - Graph node and workflow execution, including retries and checkpointing
//
// Usage:
//
//	m := telemetry.NewMetrics()
//	m.RecordLLMRequest("anthropic", "claude-3-opus", "success", 1.2, 100, 500)
type Metrics struct {
	// BusMessages counts messages delivered by the bus.
	// Labels: mode (point_to_point|broadcast|topic|request_reply), outcome (delivered|dropped|error)
	BusMessages *prometheus.CounterVec

	// BusSubscribers tracks the current number of active subscribers.
	// Labels: topic
	BusSubscribers *prometheus.GaugeVec

	// LLMRequestDuration measures LLM API call latency in seconds.
	// Labels: provider, model
	LLMRequestDuration *prometheus.HistogramVec

	// LLMRequestCounter counts LLM requests by provider, model, and status.
	// Labels: provider, model, status (success|error)
	LLMRequestCounter *prometheus.CounterVec

	// LLMTokensUsed tracks token consumption.
	// Labels: provider, model, type (prompt|completion)
	LLMTokensUsed *prometheus.CounterVec

	// LLMCostUSD tracks estimated cost in USD.
	// Labels: provider, model
	LLMCostUSD *prometheus.CounterVec

	// ToolExecutionCounter counts tool invocations.
	// Labels: tool_name, status (success|error)
	ToolExecutionCounter *prometheus.CounterVec

	// ToolExecutionDuration measures tool execution time in seconds.
	// Labels: tool_name
	ToolExecutionDuration *prometheus.HistogramVec

	// AgentRoundCounter counts ReAct/Planner loop iterations.
	// Labels: agent, outcome (answer|action|error|max_iterations)
	AgentRoundCounter *prometheus.CounterVec

	// OrchestratorRounds counts orchestration rounds by coordination mode.
	// Labels: mode (sequential|parallel|debate|vote|consensus), outcome (success|error)
	OrchestratorRounds *prometheus.CounterVec

	// GraphNodeDuration measures individual node execution time, including retries.
	// Labels: node, status (succeeded|failed|skipped)
	GraphNodeDuration *prometheus.HistogramVec

	// GraphNodeRetries counts retry attempts per node.
	// Labels: node
	GraphNodeRetries *prometheus.CounterVec

	// GraphWorkflowDuration measures end-to-end workflow execution time.
	// Labels: status (completed|failed|cancelled|iteration_exhausted)
	GraphWorkflowDuration *prometheus.HistogramVec

	// GraphActiveWorkflows is a gauge of currently-running workflow invocations.
	GraphActiveWorkflows prometheus.Gauge

	// CheckpointWrites counts checkpoint persistence attempts.
	// Labels: backend (memory|file|sqlite|redis), status (success|error)
	CheckpointWrites *prometheus.CounterVec

	// ScheduleRuns counts cron-triggered workflow invocations.
	// Labels: job, status (success|error)
	ScheduleRuns *prometheus.CounterVec

	// ErrorCounter tracks errors by component and error kind.
	// Labels: component (agent|bus|orchestrator|graph|tool|llm), error_kind
	ErrorCounter *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics. Call once at
// application startup; the collectors are registered against the default
// registry and served via the prometheus HTTP handler.
func NewMetrics() *Metrics {
	return &Metrics{
		BusMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentcore_bus_messages_total",
				Help: "Total number of messages handled by the bus, by delivery mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		BusSubscribers: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agentcore_bus_subscribers",
				Help: "Current number of active bus subscribers by topic",
			},
			[]string{"topic"},
		),
		LLMRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentcore_llm_request_duration_seconds",
				Help:    "Duration of LLM API requests in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider", "model"},
		),
		LLMRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentcore_llm_requests_total",
				Help: "Total number of LLM requests by provider, model, and status",
			},
			[]string{"provider", "model", "status"},
		),
		LLMTokensUsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentcore_llm_tokens_total",
				Help: "Total number of tokens used by provider, model, and type",
			},
			[]string{"provider", "model", "type"},
		),
		LLMCostUSD: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentcore_llm_cost_usd_total",
				Help: "Estimated LLM API cost in USD by provider and model",
			},
			[]string{"provider", "model"},
		),
		ToolExecutionCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentcore_tool_executions_total",
				Help: "Total number of tool executions by tool name and status",
			},
			[]string{"tool_name", "status"},
		),
		ToolExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentcore_tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"tool_name"},
		),
		AgentRoundCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentcore_agent_rounds_total",
				Help: "Total number of agent reasoning rounds by agent name and outcome",
			},
			[]string{"agent", "outcome"},
		),
		OrchestratorRounds: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentcore_orchestrator_rounds_total",
				Help: "Total number of orchestrator rounds by coordination mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		GraphNodeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentcore_graph_node_duration_seconds",
				Help:    "Duration of graph node activations in seconds, including retries",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"node", "status"},
		),
		GraphNodeRetries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentcore_graph_node_retries_total",
				Help: "Total number of node retry attempts",
			},
			[]string{"node"},
		),
		GraphWorkflowDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentcore_graph_workflow_duration_seconds",
				Help:    "Duration of graph workflow invocations in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"status"},
		),
		GraphActiveWorkflows: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "agentcore_graph_active_workflows",
				Help: "Current number of in-flight graph workflow invocations",
			},
		),
		CheckpointWrites: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentcore_checkpoint_writes_total",
				Help: "Total number of checkpoint persistence attempts by backend and status",
			},
			[]string{"backend", "status"},
		),
		ScheduleRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentcore_schedule_runs_total",
				Help: "Total number of cron-triggered workflow invocations by job and status",
			},
			[]string{"job", "status"},
		),
		ErrorCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentcore_errors_total",
				Help: "Total number of errors by component and error kind",
			},
			[]string{"component", "error_kind"},
		),
	}
}

// RecordLLMRequest records metrics for a single LLM API request.
func (m *Metrics) RecordLLMRequest(provider, model, status string, durationSeconds float64, promptTokens, completionTokens int) {
	m.LLMRequestCounter.WithLabelValues(provider, model, status).Inc()
	m.LLMRequestDuration.WithLabelValues(provider, model).Observe(durationSeconds)
	if promptTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
	}
}

// RecordLLMCost records estimated API cost for a request.
func (m *Metrics) RecordLLMCost(provider, model string, costUSD float64) {
	m.LLMCostUSD.WithLabelValues(provider, model).Add(costUSD)
}

// RecordToolExecution records metrics for a tool execution.
func (m *Metrics) RecordToolExecution(toolName, status string, durationSeconds float64) {
	m.ToolExecutionCounter.WithLabelValues(toolName, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(toolName).Observe(durationSeconds)
}

// RecordBusMessage records a single bus delivery attempt.
func (m *Metrics) RecordBusMessage(mode, outcome string) {
	m.BusMessages.WithLabelValues(mode, outcome).Inc()
}

// SetBusSubscribers sets the current subscriber count for a topic.
func (m *Metrics) SetBusSubscribers(topic string, count int) {
	m.BusSubscribers.WithLabelValues(topic).Set(float64(count))
}

// RecordAgentRound records the outcome of one agent reasoning iteration.
func (m *Metrics) RecordAgentRound(agent, outcome string) {
	m.AgentRoundCounter.WithLabelValues(agent, outcome).Inc()
}

// RecordOrchestratorRound records the outcome of one orchestrator round.
func (m *Metrics) RecordOrchestratorRound(mode, outcome string) {
	m.OrchestratorRounds.WithLabelValues(mode, outcome).Inc()
}

// RecordGraphNode records a single node activation's terminal status and duration.
func (m *Metrics) RecordGraphNode(node, status string, durationSeconds float64) {
	m.GraphNodeDuration.WithLabelValues(node, status).Observe(durationSeconds)
}

// RecordGraphNodeRetry increments the retry counter for a node.
func (m *Metrics) RecordGraphNodeRetry(node string) {
	m.GraphNodeRetries.WithLabelValues(node).Inc()
}

// RecordGraphWorkflow records a completed workflow invocation's terminal status and duration.
func (m *Metrics) RecordGraphWorkflow(status string, durationSeconds float64) {
	m.GraphWorkflowDuration.WithLabelValues(status).Observe(durationSeconds)
}

// WorkflowStarted increments the active-workflow gauge.
func (m *Metrics) WorkflowStarted() { m.GraphActiveWorkflows.Inc() }

// WorkflowEnded decrements the active-workflow gauge.
func (m *Metrics) WorkflowEnded() { m.GraphActiveWorkflows.Dec() }

// RecordCheckpointWrite records a checkpoint persistence attempt.
func (m *Metrics) RecordCheckpointWrite(backend, status string) {
	m.CheckpointWrites.WithLabelValues(backend, status).Inc()
}

// RecordScheduleRun records a cron-triggered workflow invocation.
func (m *Metrics) RecordScheduleRun(job, status string) {
	m.ScheduleRuns.WithLabelValues(job, status).Inc()
}

// RecordError increments the error counter for a component and error kind.
func (m *Metrics) RecordError(component, errorKind string) {
	m.ErrorCounter.WithLabelValues(component, errorKind).Inc()
}
