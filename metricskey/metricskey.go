// Package metricskey describes the metrics emitted by the agent.
package metricskey

import "github.com/effective-security/metrics"

// Stats
var (
	StatsLLMCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_calls_succeeded",
		Help:         "stats_llm_calls_succeeded provides total completed text-generation calls",
		RequiredTags: []string{"backend"},
	}

	StatsLLMCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_calls_failed",
		Help:         "stats_llm_calls_failed provides total failed text-generation calls",
		RequiredTags: []string{"backend"},
	}

	StatsAgentDecisions = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_agent_decisions",
		Help:         "stats_agent_decisions provides total parsed decisions by action",
		RequiredTags: []string{"action"},
	}

	StatsAgentRunsCompleted = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_agent_runs_completed",
		Help:         "stats_agent_runs_completed provides total agent runs by terminal state",
		RequiredTags: []string{"state"},
	}

	StatsToolCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_succeeded",
		Help:         "stats_tool_calls_succeeded provides total tool calls succeeded",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_failed",
		Help:         "stats_tool_calls_failed provides total tool calls failed",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsInvalid = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_invalid",
		Help:         "stats_tool_calls_invalid provides total tool calls rejected by validation",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsNotFound = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_not_found",
		Help:         "stats_tool_calls_not_found provides total tool calls to unknown tools",
		RequiredTags: []string{"tool"},
	}
)

// Perf
var (
	PerfAgentRun = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_agent_run",
		Help:         "perf_agent_run provides the full agent run latency",
		RequiredTags: []string{"agent"},
	}

	PerfLLMCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_llm_call",
		Help:         "perf_llm_call provides the text-generation call latency",
		RequiredTags: []string{"backend"},
	}

	PerfToolCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_call",
		Help:         "perf_tool_call provides the tool invocation latency",
		RequiredTags: []string{"tool"},
	}
)

// Metrics returns all described metrics.
var Metrics = []*metrics.Describe{
	&StatsLLMCallsSucceeded,
	&StatsLLMCallsFailed,
	&StatsAgentDecisions,
	&StatsAgentRunsCompleted,
	&StatsToolCallsSucceeded,
	&StatsToolCallsFailed,
	&StatsToolCallsInvalid,
	&StatsToolCallsNotFound,
	&PerfAgentRun,
	&PerfLLMCall,
	&PerfToolCall,
}
