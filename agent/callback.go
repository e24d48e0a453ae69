package agent

import (
	"context"
	"fmt"
	"io"

	"github.com/effective-security/sqlagent/decision"
	"github.com/effective-security/sqlagent/llmutils"
	"github.com/effective-security/xlog"
)

// Callback receives loop events. All methods are called synchronously
// from the loop goroutine.
type Callback interface {
	OnRunStart(ctx context.Context, agent *Agent, question string)
	OnRunEnd(ctx context.Context, agent *Agent, outcome Outcome)
	OnRunError(ctx context.Context, agent *Agent, err error)
	OnDecision(ctx context.Context, agent *Agent, d decision.Decision)
	OnToolStart(ctx context.Context, tool string, params map[string]decision.Value)
	OnToolEnd(ctx context.Context, tool string, output string)
	OnToolError(ctx context.Context, tool string, errText string)
}

// NoopCallback does nothing.
type NoopCallback struct{}

func NewNoopCallback() *NoopCallback {
	return &NoopCallback{}
}

var _ Callback = (*NoopCallback)(nil)

func (l *NoopCallback) OnRunStart(ctx context.Context, agent *Agent, question string)       {}
func (l *NoopCallback) OnRunEnd(ctx context.Context, agent *Agent, outcome Outcome)         {}
func (l *NoopCallback) OnRunError(ctx context.Context, agent *Agent, err error)             {}
func (l *NoopCallback) OnDecision(ctx context.Context, agent *Agent, d decision.Decision)   {}
func (l *NoopCallback) OnToolStart(ctx context.Context, tool string, params map[string]decision.Value) {
}
func (l *NoopCallback) OnToolEnd(ctx context.Context, tool string, output string)    {}
func (l *NoopCallback) OnToolError(ctx context.Context, tool string, errText string) {}

// PrinterCallback is a callback handler that prints to the Writer.
type PrinterCallback struct {
	Out io.Writer
}

func NewPrinterCallback(out io.Writer) *PrinterCallback {
	return &PrinterCallback{Out: out}
}

var _ Callback = (*PrinterCallback)(nil)

func (l *PrinterCallback) OnRunStart(ctx context.Context, agent *Agent, question string) {
	fmt.Fprintf(l.Out, "Run Start: %s\n", agent.Name())
	fmt.Fprintf(l.Out, "Question: %s\n", question)
}

func (l *PrinterCallback) OnRunEnd(ctx context.Context, agent *Agent, outcome Outcome) {
	fmt.Fprintf(l.Out, "Run End: %s: %s after %d iteration(s)\n",
		agent.Name(), outcome.State, outcome.Iterations)
}

func (l *PrinterCallback) OnRunError(ctx context.Context, agent *Agent, err error) {
	fmt.Fprintf(l.Out, "Run Error: %s: %s\n", agent.Name(), err.Error())
}

func (l *PrinterCallback) OnDecision(ctx context.Context, agent *Agent, d decision.Decision) {
	fmt.Fprintf(l.Out, "Decision: %s\n", d.Action)
}

func (l *PrinterCallback) OnToolStart(ctx context.Context, tool string, params map[string]decision.Value) {
	fmt.Fprintf(l.Out, "Tool Start: %s\n", tool)
	fmt.Fprintf(l.Out, "Params: %s\n", llmutils.ToJSON(params))
}

func (l *PrinterCallback) OnToolEnd(ctx context.Context, tool string, output string) {
	fmt.Fprintf(l.Out, "Tool End: %s\n", tool)
	fmt.Fprintf(l.Out, "Output: %s\n", output)
}

func (l *PrinterCallback) OnToolError(ctx context.Context, tool string, errText string) {
	fmt.Fprintf(l.Out, "Tool Error: %s: %s\n", tool, errText)
}

// PackageLoggerCallback is a callback handler that prints to the logger.
type PackageLoggerCallback struct {
	logger *xlog.PackageLogger
}

func NewPackageLoggerCallback(logger *xlog.PackageLogger) *PackageLoggerCallback {
	return &PackageLoggerCallback{logger: logger}
}

var _ Callback = (*PackageLoggerCallback)(nil)

func (l *PackageLoggerCallback) OnRunStart(ctx context.Context, agent *Agent, question string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "run_start",
		"agent", agent.Name(),
		"question", question,
	)
}

func (l *PackageLoggerCallback) OnRunEnd(ctx context.Context, agent *Agent, outcome Outcome) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "run_end",
		"agent", agent.Name(),
		"state", outcome.State,
		"iterations", outcome.Iterations,
	)
}

func (l *PackageLoggerCallback) OnRunError(ctx context.Context, agent *Agent, err error) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "run_error",
		"agent", agent.Name(),
		"err", err.Error(),
	)
}

func (l *PackageLoggerCallback) OnDecision(ctx context.Context, agent *Agent, d decision.Decision) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "decision",
		"agent", agent.Name(),
		"action", d.Action,
	)
}

func (l *PackageLoggerCallback) OnToolStart(ctx context.Context, tool string, params map[string]decision.Value) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_start",
		"tool", tool,
		"params", llmutils.ToJSON(params),
	)
}

func (l *PackageLoggerCallback) OnToolEnd(ctx context.Context, tool string, output string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_end",
		"tool", tool,
		"output", output,
	)
}

func (l *PackageLoggerCallback) OnToolError(ctx context.Context, tool string, errText string) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "tool_error",
		"tool", tool,
		"err", errText,
	)
}
