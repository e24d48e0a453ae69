// Package agent runs the decision loop: build a prompt, ask the model,
// parse its decision, execute it, and feed the result back until the
// model answers the user or the iteration ceiling is reached.
package agent

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/effective-security/sqlagent/catalog"
	"github.com/effective-security/sqlagent/decision"
	"github.com/effective-security/sqlagent/invoker"
	"github.com/effective-security/sqlagent/llm"
	"github.com/effective-security/sqlagent/metricskey"
	"github.com/effective-security/sqlagent/schema"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/sqlagent", "agent")

// State of the decision loop.
type State string

const (
	StateStart                  State = "start"
	StateDeciding               State = "deciding"
	StateToolExecuting          State = "tool_executing"
	StateAnswered               State = "answered"
	StateClarificationAsked     State = "clarification_asked"
	StateIterationLimitExceeded State = "iteration_limit_exceeded"
	StateInternalError          State = "internal_error"
)

const (
	msgIterationLimit = "Could not complete the request within the allowed number of iterations."
	msgBackendFailure = "The request could not be completed: the language model is unavailable."
	msgInternalError  = "The request could not be completed due to an internal error."
)

// Outcome is the terminal result of one Run.
type Outcome struct {
	State      State
	Response   string
	Iterations int
}

// Invoker executes a tool call. *invoker.Invoker is the production
// implementation.
type Invoker interface {
	Invoke(ctx context.Context, toolName string, params map[string]decision.Value) invoker.Result
}

// Agent owns one conversation loop over a read-only tool catalog.
type Agent struct {
	backend llm.Backend
	catalog *catalog.Catalog
	invoker Invoker
	cfg     Config
}

// New creates an Agent and installs the system message on the backend.
// The catalog is treated as read-only for the lifetime of the agent.
func New(backend llm.Backend, cat *catalog.Catalog, inv Invoker, opts ...Option) (*Agent, error) {
	a := &Agent{
		backend: backend,
		catalog: cat,
		invoker: inv,
		cfg:     newConfig(opts...),
	}

	sys, err := a.systemMessage()
	if err != nil {
		return nil, err
	}
	backend.SetSystemMessage(sys)

	return a, nil
}

// Name returns the agent name.
func (a *Agent) Name() string {
	return a.cfg.Name
}

func (a *Agent) systemMessage() (string, error) {
	s, err := schema.New(reflect.TypeOf(decision.Envelope{}))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`You are an assistant that answers questions about a SQL database by calling tools on a remote server.

You have access to the following tools:
%s

On every turn decide exactly one of:
- call_tool: call one of the tools above with its required parameters;
- answer_user: give the final answer once you have enough information;
- ask_clarification: ask the user one question when the request is ambiguous.

%s`, a.catalog.Describe(), s.Instructions()), nil
}

// turn is the conversation state of one iteration. A new value is built
// for each iteration; nothing is shared between them.
type turn struct {
	question  string
	iteration int
	prompt    string
}

func firstTurn(question, toolNames string) turn {
	return turn{
		question:  question,
		iteration: 1,
		prompt: fmt.Sprintf("Question: %s\n\nAvailable tools: %s\n\nDecide which tool to call first.",
			question, toolNames),
	}
}

func (t turn) next(prevResult string) turn {
	return turn{
		question:  t.question,
		iteration: t.iteration + 1,
		prompt: fmt.Sprintf("Question: %s\n\nResult of the previous step:\n%s\n\nDecide the next step using this context.",
			t.question, prevResult),
	}
}

// Run executes the loop for a single question. Failures are returned as
// a terminal Outcome, never as a Go error.
func (a *Agent) Run(ctx context.Context, question string) Outcome {
	started := time.Now()
	cb := a.cfg.CallbackHandler
	cb.OnRunStart(ctx, a, question)

	outcome := a.run(ctx, question)

	metricskey.PerfAgentRun.MeasureSince(started, a.cfg.Name)
	metricskey.StatsAgentRunsCompleted.IncrCounter(1, string(outcome.State))
	cb.OnRunEnd(ctx, a, outcome)
	return outcome
}

func (a *Agent) run(ctx context.Context, question string) Outcome {
	cb := a.cfg.CallbackHandler

	t := firstTurn(question, a.catalog.Summary())
	for t.iteration <= a.cfg.MaxIterations {
		raw, err := a.backend.Generate(ctx, t.prompt)
		if err != nil {
			// backend failures are terminal, unlike tool errors
			logger.ContextKV(ctx, xlog.ERROR,
				"reason", "generate",
				"iteration", t.iteration,
				"err", err.Error(),
			)
			cb.OnRunError(ctx, a, err)
			return Outcome{
				State:      StateInternalError,
				Response:   msgBackendFailure,
				Iterations: t.iteration,
			}
		}

		d := decision.Parse(raw)
		metricskey.StatsAgentDecisions.IncrCounter(1, string(d.Action))
		cb.OnDecision(ctx, a, d)

		switch d.Action {
		case decision.ActionCallTool:
			cb.OnToolStart(ctx, d.CallTool.ToolName, d.CallTool.Parameters)
			res := a.invoker.Invoke(ctx, d.CallTool.ToolName, d.CallTool.Parameters)
			text := res.Text()
			if res.Failed() {
				cb.OnToolError(ctx, d.CallTool.ToolName, text)
			} else {
				cb.OnToolEnd(ctx, d.CallTool.ToolName, text)
			}
			t = t.next(text)

		case decision.ActionAnswerUser:
			return Outcome{
				State:      StateAnswered,
				Response:   d.AnswerUser.Response,
				Iterations: t.iteration,
			}

		case decision.ActionAskClarification:
			return Outcome{
				State:      StateClarificationAsked,
				Response:   fmt.Sprintf("I need a clarification to proceed: %s", d.AskClarification.Question),
				Iterations: t.iteration,
			}

		default:
			// unreachable: the parser is total over its three actions
			logger.ContextKV(ctx, xlog.ERROR,
				"reason", "unknown_action",
				"action", d.Action,
			)
			return Outcome{
				State:      StateInternalError,
				Response:   msgInternalError,
				Iterations: t.iteration,
			}
		}
	}

	return Outcome{
		State:      StateIterationLimitExceeded,
		Response:   msgIterationLimit,
		Iterations: a.cfg.MaxIterations,
	}
}
