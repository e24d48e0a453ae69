package decision

import (
	"strings"

	"github.com/bububa/ljson"
	"github.com/effective-security/sqlagent/llmutils"
	"github.com/effective-security/xlog"
	"github.com/tidwall/gjson"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/sqlagent", "decision")

const (
	msgMissingToolName = "Missing 'tool_name' field in the call_tool decision. " +
		"Please provide the exact name of the tool to call."
	msgInvalidShape = "The decision object put the tool name in the 'action' field. " +
		"Respond with {\"action\": \"call_tool\", \"tool_name\": \"<tool>\", \"parameters\": {...}, \"reason\": \"...\"} instead."
)

// Parse turns raw model output into a Decision. It is total: any input,
// however malformed, resolves to exactly one decision and never fails.
//
// The fallback ladder: strip markdown fences, decode leniently, and when the
// text is not a decision object at all, treat the entire original text as the
// final answer so the loop stays responsive to a model that ignores
// formatting instructions.
func Parse(raw string) Decision {
	cleaned := llmutils.TrimBackticks(strings.TrimSpace(raw))

	if !gjson.Valid(cleaned) {
		return NewAnswerUser(raw)
	}
	root := gjson.Parse(cleaned)
	if !root.IsObject() {
		return NewAnswerUser(raw)
	}

	action := root.Get("action")
	if !action.Exists() {
		return NewAnswerUser(raw)
	}

	var env Envelope
	if err := ljson.Unmarshal([]byte(cleaned), &env); err != nil {
		logger.KV(xlog.DEBUG,
			"status", "failed_to_decode_decision",
			"err", err.Error(),
		)
		return NewAnswerUser(raw)
	}

	switch Action(env.Action) {
	case ActionCallTool:
		if env.ToolName == "" {
			return NewAskClarification(msgMissingToolName)
		}
		return NewCallTool(env.ToolName, env.Parameters, env.Reason)
	case ActionAnswerUser:
		return NewAnswerUser(env.Response)
	case ActionAskClarification:
		return NewAskClarification(env.Question)
	default:
		// a common model mistake: the tool name ends up in the action slot
		if root.Get("parameters").Exists() && root.Get("reason").Exists() {
			logger.KV(xlog.DEBUG,
				"status", "tool_name_as_action",
				"output", cleaned,
			)
			return NewAskClarification(msgInvalidShape)
		}
		return NewAskClarification(
			"Invalid action '" + env.Action + "'. Permitted actions are: call_tool, answer_user, ask_clarification.")
	}
}
