// Package invoker validates tool calls against the catalog and executes them
// over the JSON-RPC protocol. Every failure is returned as data so the agent
// loop can feed it back to the model as context for self-correction.
package invoker

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/effective-security/sqlagent/catalog"
	"github.com/effective-security/sqlagent/decision"
	"github.com/effective-security/sqlagent/jsonrpc"
	"github.com/effective-security/sqlagent/llmutils"
	"github.com/effective-security/sqlagent/metricskey"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/sqlagent", "invoker")

// Result is the outcome of one tool invocation: either a decoded JSON value
// or a normalized error string. It never carries a Go error past the
// invoker boundary.
type Result struct {
	// Value is the decoded result member of the response, on success.
	Value any
	// Err is the normalized error text, phrased to be actionable by the model.
	Err string
}

// Failed reports whether the invocation produced an error.
func (r Result) Failed() bool {
	return r.Err != ""
}

// Text formats the result for inclusion in the next prompt.
func (r Result) Text() string {
	if r.Failed() {
		return r.Err
	}
	return llmutils.ToJSONIndent(r.Value)
}

func errorResult(format string, args ...any) Result {
	return Result{Err: fmt.Sprintf(format, args...)}
}

// Invoker executes validated tool calls against the remote server.
type Invoker struct {
	catalog *catalog.Catalog
	rpc     *jsonrpc.Client
}

// New returns an invoker bound to the given catalog and client.
func New(cat *catalog.Catalog, rpc *jsonrpc.Client) *Invoker {
	return &Invoker{
		catalog: cat,
		rpc:     rpc,
	}
}

// Invoke validates the call and, when valid, issues exactly one remote
// request. Validation failures are produced locally, before any network
// call. There is no automatic retry.
func (iv *Invoker) Invoke(ctx context.Context, toolName string, params map[string]decision.Value) Result {
	def := iv.catalog.Lookup(toolName)
	if def == nil {
		metricskey.StatsToolCallsNotFound.IncrCounter(1, toolName)
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "tool_not_found",
			"tool", toolName,
			"available_tools", iv.catalog.Summary(),
		)
		return errorResult("Tool `%s` not found. Please check the tool name and try again with exact match. Available tools: %s",
			toolName, iv.catalog.Summary())
	}

	if res, ok := iv.validate(def, params); !ok {
		metricskey.StatsToolCallsInvalid.IncrCounter(1, def.Name)
		return res
	}

	started := time.Now()
	raw, err := iv.rpc.Call(ctx, def.Name, params)
	metricskey.PerfToolCall.MeasureSince(started, def.Name)
	if err != nil {
		metricskey.StatsToolCallsFailed.IncrCounter(1, def.Name)
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "tool_call_failed",
			"tool", def.Name,
			"err", err.Error(),
		)
		return errorResult("Tool call failed: %s", err.Error())
	}
	metricskey.StatsToolCallsSucceeded.IncrCounter(1, def.Name)

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return errorResult("Tool call returned invalid JSON: %s", err.Error())
	}
	return Result{Value: value}
}

// validate checks the supplied parameters against the declared set.
// All declared parameters are required; unknown parameters are rejected.
func (iv *Invoker) validate(def *catalog.Definition, params map[string]decision.Value) (Result, bool) {
	declared := make([]string, 0, len(def.Parameters))
	for name := range def.Parameters {
		declared = append(declared, name)
	}
	sort.Strings(declared)

	for _, name := range declared {
		if _, ok := params[name]; !ok {
			return errorResult("Missing required parameter `%s` (%s) for tool `%s`.",
				name, def.Parameters[name].Description, def.Name), false
		}
	}

	supplied := make([]string, 0, len(params))
	for name := range params {
		supplied = append(supplied, name)
	}
	sort.Strings(supplied)

	for _, name := range supplied {
		if _, ok := def.Parameters[name]; !ok {
			return errorResult("Unexpected parameter `%s` for tool `%s`. Allowed parameters: %s",
				name, def.Name, allowedList(declared)), false
		}
	}
	return Result{}, true
}

func allowedList(declared []string) string {
	if len(declared) == 0 {
		return "(none)"
	}
	return strings.Join(declared, ", ")
}
